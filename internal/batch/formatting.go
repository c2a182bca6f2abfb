package batch

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Result holds the result of batch processing.
type Result struct {
	Mode        Mode
	Files       []string
	Results     []*FileResult
	Duration    time.Duration
	WorkerCount int
}

// Summary aggregates a batch run.
type Summary struct {
	Mode        Mode          `json:"mode" yaml:"mode"`
	Total       int           `json:"total" yaml:"total"`
	Succeeded   int           `json:"succeeded" yaml:"succeeded"`
	Failed      int           `json:"failed" yaml:"failed"`
	Skipped     int           `json:"skipped" yaml:"skipped"`
	Workers     int           `json:"workers" yaml:"workers"`
	Duration    time.Duration `json:"duration_ns" yaml:"duration"`
	AvgPerFile  time.Duration `json:"avg_per_file_ns" yaml:"avg_per_file"`
	FilesPerSec float64       `json:"files_per_sec" yaml:"files_per_sec"`
}

// Summary counts outcomes. Files that never ran because an earlier
// failure stopped the batch count as skipped.
func (r *Result) Summary() Summary {
	s := Summary{Mode: r.Mode, Total: len(r.Files), Workers: r.WorkerCount, Duration: r.Duration}
	var busy time.Duration
	for _, res := range r.Results {
		switch {
		case res == nil:
			s.Skipped++
		case res.Success:
			s.Succeeded++
		default:
			s.Failed++
		}
		if res != nil {
			busy += res.Duration
		}
	}
	if ran := s.Succeeded + s.Failed; ran > 0 {
		s.AvgPerFile = busy / time.Duration(ran)
		if r.Duration > 0 {
			s.FilesPerSec = float64(ran) / r.Duration.Seconds()
		}
	}
	return s
}

type report struct {
	Summary Summary       `json:"summary" yaml:"summary"`
	Results []*FileResult `json:"results" yaml:"results"`
}

func (r *Result) completed() []*FileResult {
	out := make([]*FileResult, 0, len(r.Results))
	for _, res := range r.Results {
		if res != nil {
			out = append(out, res)
		}
	}
	return out
}

// FormatResults formats the batch processing results as text, json or yaml.
func (r *Result) FormatResults(format string) (string, error) {
	rep := report{Summary: r.Summary(), Results: r.completed()}
	switch format {
	case "json":
		bts, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return "", err
		}
		return string(bts) + "\n", nil
	case "yaml":
		bts, err := yaml.Marshal(rep)
		return string(bts), err
	case "text", "":
		return formatText(rep), nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

func formatText(rep report) string {
	var sb strings.Builder
	for _, res := range rep.Results {
		if !res.Success {
			fmt.Fprintf(&sb, "%s: FAILED: %s\n", res.File, res.Error)
			continue
		}
		switch rep.Summary.Mode {
		case ModeEncode:
			fmt.Fprintf(&sb, "%s: %s %dx%d, %d codewords", res.File, res.Format, res.Width, res.Height, res.Codewords)
			if res.Output != "" {
				fmt.Fprintf(&sb, " -> %s", res.Output)
			}
			sb.WriteByte('\n')
		default:
			fmt.Fprintf(&sb, "%s: %s: %q\n", res.File, res.Format, res.Text)
		}
	}
	return sb.String()
}

// WriteResults writes the formatted results to w.
func (r *Result) WriteResults(w io.Writer, format string) error {
	output, err := r.FormatResults(format)
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}
	_, err = io.WriteString(w, output)
	return err
}

// SaveResults writes the formatted results to outputFile, or to w when
// outputFile is empty.
func (r *Result) SaveResults(w io.Writer, format, outputFile string) error {
	if outputFile == "" {
		return r.WriteResults(w, format)
	}
	output, err := r.FormatResults(format)
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}
	if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// PrintStats writes processing statistics.
func (r *Result) PrintStats(w io.Writer) {
	s := r.Summary()
	_, _ = fmt.Fprintf(w, "\nProcessing Statistics:\n")
	_, _ = fmt.Fprintf(w, "  Total files: %d\n", s.Total)
	_, _ = fmt.Fprintf(w, "  Succeeded: %d\n", s.Succeeded)
	_, _ = fmt.Fprintf(w, "  Failed: %d\n", s.Failed)
	if s.Skipped > 0 {
		_, _ = fmt.Fprintf(w, "  Skipped: %d\n", s.Skipped)
	}
	_, _ = fmt.Fprintf(w, "  Workers: %d\n", s.Workers)
	_, _ = fmt.Fprintf(w, "  Duration: %v\n", s.Duration.Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "  Avg per file: %v\n", s.AvgPerFile.Round(time.Microsecond))
	_, _ = fmt.Fprintf(w, "  Throughput: %.1f files/sec\n", s.FilesPerSec)
}
