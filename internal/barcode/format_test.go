package barcode

import (
	"encoding/json"
	"testing"

	"github.com/MeKo-Tech/pocode/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatUnknown},
		{"auto", FormatUnknown},
		{"aztec", FormatAztec},
		{" AZTEC ", FormatAztec},
		{"datamatrix", FormatDataMatrix},
		{"Data-Matrix", FormatDataMatrix},
		{"dm", FormatDataMatrix},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseFormat("qr")
	require.ErrorIs(t, err, common.ErrArgument)
}

func TestFormat_String(t *testing.T) {
	assert.Equal(t, "auto", FormatUnknown.String())
	assert.Equal(t, "aztec", FormatAztec.String())
	assert.Equal(t, "datamatrix", FormatDataMatrix.String())
	assert.Equal(t, "Format(9)", Format(9).String())
}

func TestFormats(t *testing.T) {
	infos := Formats()
	require.Len(t, infos, 2)
	assert.Equal(t, "aztec", infos[0].Name)
	assert.Equal(t, "datamatrix", infos[1].Name)
	for _, info := range infos {
		assert.True(t, info.Encode)
		assert.True(t, info.Decode)
		assert.NotEmpty(t, info.Description)
	}
}

func TestFormat_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		F Format `json:"f"`
	}{FormatDataMatrix})
	require.NoError(t, err)
	assert.JSONEq(t, `{"f":"datamatrix"}`, string(data))

	var f Format
	require.NoError(t, json.Unmarshal([]byte(`"dm"`), &f))
	assert.Equal(t, FormatDataMatrix, f)

	assert.Error(t, json.Unmarshal([]byte(`"pdf417"`), &f))
	assert.Error(t, json.Unmarshal([]byte(`7`), &f))
}

func TestFormat_YAML(t *testing.T) {
	data, err := yaml.Marshal(map[string]Format{"format": FormatAztec})
	require.NoError(t, err)
	assert.Equal(t, "format: aztec\n", string(data))
}
