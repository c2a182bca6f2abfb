// Package charset maps character set names and ECI designators to
// golang.org/x/text encodings for the symbol encoders and decoders.
package charset

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/MeKo-Tech/pocode/internal/common"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

// Charset is a named encoding with its ECI assignment.
type Charset struct {
	Name     string
	ECI      int
	Encoding encoding.Encoding
	aliases  []string
}

// Default is the charset assumed for byte segments without an ECI.
var Default = ISO8859_1

// Known charsets, with their AIM ECI assignments.
var (
	CP437      = &Charset{Name: "Cp437", ECI: 2, Encoding: charmap.CodePage437}
	ISO8859_1  = &Charset{Name: "ISO-8859-1", ECI: 3, Encoding: charmap.ISO8859_1, aliases: []string{"latin1", "iso88591"}}
	ISO8859_2  = &Charset{Name: "ISO-8859-2", ECI: 4, Encoding: charmap.ISO8859_2}
	ISO8859_3  = &Charset{Name: "ISO-8859-3", ECI: 5, Encoding: charmap.ISO8859_3}
	ISO8859_4  = &Charset{Name: "ISO-8859-4", ECI: 6, Encoding: charmap.ISO8859_4}
	ISO8859_5  = &Charset{Name: "ISO-8859-5", ECI: 7, Encoding: charmap.ISO8859_5}
	ISO8859_7  = &Charset{Name: "ISO-8859-7", ECI: 9, Encoding: charmap.ISO8859_7}
	ISO8859_9  = &Charset{Name: "ISO-8859-9", ECI: 11, Encoding: charmap.ISO8859_9}
	ISO8859_15 = &Charset{Name: "ISO-8859-15", ECI: 17, Encoding: charmap.ISO8859_15}
	ShiftJIS   = &Charset{Name: "Shift_JIS", ECI: 20, Encoding: japanese.ShiftJIS, aliases: []string{"sjis"}}
	CP1250     = &Charset{Name: "windows-1250", ECI: 21, Encoding: charmap.Windows1250, aliases: []string{"cp1250"}}
	CP1251     = &Charset{Name: "windows-1251", ECI: 22, Encoding: charmap.Windows1251, aliases: []string{"cp1251"}}
	CP1252     = &Charset{Name: "windows-1252", ECI: 23, Encoding: charmap.Windows1252, aliases: []string{"cp1252"}}
	UTF16BE    = &Charset{Name: "UTF-16BE", ECI: 25, Encoding: unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), aliases: []string{"unicodebig"}}
	UTF8       = &Charset{Name: "UTF-8", ECI: 26, Encoding: unicode.UTF8, aliases: []string{"utf8"}}
	ASCII      = &Charset{Name: "US-ASCII", ECI: 27, Encoding: charmap.ISO8859_1, aliases: []string{"ascii"}}
	Big5       = &Charset{Name: "Big5", ECI: 28, Encoding: traditionalchinese.Big5}
	GB18030    = &Charset{Name: "GB18030", ECI: 29, Encoding: simplifiedchinese.GB18030, aliases: []string{"gb2312", "gbk"}}
	EUCKR      = &Charset{Name: "EUC-KR", ECI: 30, Encoding: korean.EUCKR}
)

var all = []*Charset{
	CP437, ISO8859_1, ISO8859_2, ISO8859_3, ISO8859_4, ISO8859_5, ISO8859_7,
	ISO8859_9, ISO8859_15, ShiftJIS, CP1250, CP1251, CP1252, UTF16BE, UTF8,
	ASCII, Big5, GB18030, EUCKR,
}

var (
	byName = map[string]*Charset{}
	byECI  = map[int]*Charset{}
)

func init() {
	for _, cs := range all {
		byName[normalize(cs.Name)] = cs
		for _, a := range cs.aliases {
			byName[normalize(a)] = cs
		}
		byECI[cs.ECI] = cs
	}
	// ECI 0 and 1 are legacy designators for CP437 and ISO-8859-1.
	byECI[0] = CP437
	byECI[1] = ISO8859_1
	// ECI 170 is ISO 646 invariant, a subset of ASCII.
	byECI[170] = ASCII
}

func normalize(name string) string {
	return strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(name))
}

// Lookup finds a charset by name (case and punctuation insensitive). The
// empty name returns Default.
func Lookup(name string) (*Charset, error) {
	if name == "" {
		return Default, nil
	}
	if cs, ok := byName[normalize(name)]; ok {
		return cs, nil
	}
	return nil, fmt.Errorf("%w: unsupported charset %q", common.ErrArgument, name)
}

// ForECI returns the charset designated by an ECI value.
func ForECI(value int) (*Charset, error) {
	if cs, ok := byECI[value]; ok {
		return cs, nil
	}
	return nil, fmt.Errorf("%w: unsupported ECI %d", common.ErrFormat, value)
}

// Names lists the canonical charset names.
func Names() []string {
	names := make([]string, len(all))
	for i, cs := range all {
		names[i] = cs.Name
	}
	return names
}

// Encode converts UTF-8 text into the charset's bytes.
func (c *Charset) Encode(text string) ([]byte, error) {
	if c == UTF8 {
		if !utf8.ValidString(text) {
			return nil, fmt.Errorf("%w: invalid UTF-8 input", common.ErrArgument)
		}
		return []byte(text), nil
	}
	if c == ASCII {
		for i := range len(text) {
			if text[i] >= 0x80 {
				return nil, fmt.Errorf("%w: %q is not ASCII", common.ErrArgument, text)
			}
		}
		return []byte(text), nil
	}
	out, err := c.Encoding.NewEncoder().String(text)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot encode text as %s: %v", common.ErrArgument, c.Name, err)
	}
	return []byte(out), nil
}

// Decode converts bytes in the charset to UTF-8 text.
func (c *Charset) Decode(data []byte) (string, error) {
	if c == UTF8 {
		return string(data), nil
	}
	out, err := c.Encoding.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: cannot decode %s bytes: %v", common.ErrFormat, c.Name, err)
	}
	return string(out), nil
}

func (c *Charset) String() string { return c.Name }

// Latin1 decodes bytes as ISO-8859-1, which cannot fail.
func Latin1(data []byte) string {
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}
