package barcode

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MeKo-Tech/pocode/internal/common"
)

// Format represents a barcode symbology.
type Format int

const (
	// FormatUnknown lets Decode try every format.
	FormatUnknown Format = iota
	FormatAztec
	FormatDataMatrix
)

// FormatInfo describes a format for listings.
type FormatInfo struct {
	Name        string   `json:"name" yaml:"name"`
	Aliases     []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Description string   `json:"description" yaml:"description"`
	Encode      bool     `json:"encode" yaml:"encode"`
	Decode      bool     `json:"decode" yaml:"decode"`
}

var formatInfo = map[Format]FormatInfo{
	FormatAztec: {
		Name:        "aztec",
		Description: "Aztec Code, compact and full-range, 1 to 32 layers",
		Encode:      true,
		Decode:      true,
	},
	FormatDataMatrix: {
		Name:        "datamatrix",
		Aliases:     []string{"data-matrix", "dm"},
		Description: "Data Matrix ECC 200, 24 square and 6 rectangular sizes",
		Encode:      true,
		Decode:      true,
	},
}

// Formats lists the supported formats in a stable order.
func Formats() []FormatInfo {
	return []FormatInfo{formatInfo[FormatAztec], formatInfo[FormatDataMatrix]}
}

func (f Format) String() string {
	if info, ok := formatInfo[f]; ok {
		return info.Name
	}
	if f == FormatUnknown {
		return "auto"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat accepts format names and aliases case-insensitively. The
// empty string and "auto" give FormatUnknown.
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "auto" {
		return FormatUnknown, nil
	}
	for f, info := range formatInfo {
		if info.Name == name {
			return f, nil
		}
		for _, a := range info.Aliases {
			if a == name {
				return f, nil
			}
		}
	}
	return FormatUnknown, fmt.Errorf("%w: unknown format %q", common.ErrArgument, name)
}

// MarshalJSON writes the format name.
func (f Format) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// UnmarshalJSON reads a format name.
func (f *Format) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseFormat(name)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// MarshalYAML writes the format name.
func (f Format) MarshalYAML() (any, error) {
	return f.String(), nil
}
