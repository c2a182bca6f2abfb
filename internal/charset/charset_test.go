package charset

import (
	"testing"

	"github.com/MeKo-Tech/pocode/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		want *Charset
	}{
		{"", ISO8859_1},
		{"ISO-8859-1", ISO8859_1},
		{"iso_8859_1", ISO8859_1},
		{"latin1", ISO8859_1},
		{"utf-8", UTF8},
		{"UTF8", UTF8},
		{"Shift_JIS", ShiftJIS},
		{"cp1252", CP1252},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Lookup(tt.name)
			require.NoError(t, err)
			assert.Same(t, tt.want, got)
		})
	}

	_, err := Lookup("klingon")
	assert.ErrorIs(t, err, common.ErrArgument)
}

func TestForECI(t *testing.T) {
	for eci, want := range map[int]*Charset{0: CP437, 1: ISO8859_1, 3: ISO8859_1, 26: UTF8, 20: ShiftJIS, 170: ASCII} {
		got, err := ForECI(eci)
		require.NoError(t, err)
		assert.Same(t, want, got, "ECI %d", eci)
	}
	_, err := ForECI(899)
	assert.ErrorIs(t, err, common.ErrFormat)
}

func TestEncodeDecode(t *testing.T) {
	tests := []struct {
		cs    *Charset
		text  string
		bytes []byte
	}{
		{ISO8859_1, "café", []byte{'c', 'a', 'f', 0xE9}},
		{UTF8, "café", []byte("café")},
		{ISO8859_15, "€", []byte{0xA4}},
		{ShiftJIS, "日本", []byte{0x93, 0xFA, 0x96, 0x7B}},
		{UTF16BE, "A", []byte{0x00, 0x41}},
	}
	for _, tt := range tests {
		t.Run(tt.cs.Name, func(t *testing.T) {
			encoded, err := tt.cs.Encode(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.bytes, encoded)

			decoded, err := tt.cs.Decode(encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.text, decoded)
		})
	}
}

func TestEncode_Unsupported(t *testing.T) {
	_, err := ISO8859_1.Encode("日本")
	assert.ErrorIs(t, err, common.ErrArgument)
	_, err = ASCII.Encode("é")
	assert.ErrorIs(t, err, common.ErrArgument)
	_, err = UTF8.Encode(string([]byte{0xff}))
	assert.ErrorIs(t, err, common.ErrArgument)
}

func TestLatin1(t *testing.T) {
	assert.Equal(t, "Aéÿ", Latin1([]byte{0x41, 0xE9, 0xFF}))
	assert.Empty(t, Latin1(nil))
}

func TestNames(t *testing.T) {
	names := Names()
	assert.Contains(t, names, "UTF-8")
	assert.Contains(t, names, "ISO-8859-1")
	assert.Len(t, names, len(all))
}

func TestECIStringBuilder(t *testing.T) {
	b := NewECIStringBuilder()
	b.AppendString("caf")
	b.AppendByte(0xE9)
	require.NoError(t, b.AppendECI(26))
	b.AppendBytes([]byte(" – ok"))
	assert.Equal(t, 4+len(" – ok"), b.Len())
	assert.True(t, b.HadECI())

	text, err := b.Result()
	require.NoError(t, err)
	assert.Equal(t, "café – ok", text)

	assert.ErrorIs(t, b.AppendECI(12345), common.ErrFormat)
}

func TestECIStringBuilder_Empty(t *testing.T) {
	b := NewECIStringBuilder()
	text, err := b.Result()
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.False(t, b.HadECI())
}
