package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/MeKo-Tech/pocode/internal/barcode"
	"gopkg.in/yaml.v3"
)

// symbolOutput is the structured form of an encoded symbol.
type symbolOutput struct {
	Format    string   `json:"format" yaml:"format"`
	Width     int      `json:"width" yaml:"width"`
	Height    int      `json:"height" yaml:"height"`
	Compact   bool     `json:"compact,omitempty" yaml:"compact,omitempty"`
	Layers    int      `json:"layers,omitempty" yaml:"layers,omitempty"`
	Version   int      `json:"version,omitempty" yaml:"version,omitempty"`
	Codewords int      `json:"codewords" yaml:"codewords"`
	Matrix    []string `json:"matrix" yaml:"matrix"`
}

func newSymbolOutput(s *barcode.Symbol, set, unset string) symbolOutput {
	return symbolOutput{
		Format:    s.Format.String(),
		Width:     s.Width,
		Height:    s.Height,
		Compact:   s.Compact,
		Layers:    s.Layers,
		Version:   s.Version,
		Codewords: s.Codewords,
		Matrix:    s.Matrix.Rows(set, unset),
	}
}

// writeStructured writes v as indented JSON or as YAML.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// openOutput returns stdout-like w when path is empty, else a created file.
func openOutput(w io.Writer, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return w, func() error { return nil }, nil
	}
	f, err := os.Create(path) //nolint:gosec // G304: output path is chosen by the user
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// readInput reads path, or r when path is empty or "-".
func readInput(r io.Reader, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(r)
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: input path is chosen by the user
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return data, nil
}
