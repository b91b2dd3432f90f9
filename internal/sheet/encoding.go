package sheet

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// decodeText converts sheet bytes to UTF-8 and reports the detected encoding.
// Invalid UTF-8 without a BOM is read as Windows-1252, the usual spreadsheet
// export encoding on Windows.
func decodeText(data []byte) ([]byte, string, error) {
	var (
		dec  encoding.Encoding
		name string
	)
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return data[len(bomUTF8):], "utf-8-bom", nil
	case bytes.HasPrefix(data, bomUTF16LE):
		dec, name = unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), "utf-16le"
	case bytes.HasPrefix(data, bomUTF16BE):
		dec, name = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), "utf-16be"
	case utf8.Valid(data):
		return data, "utf-8", nil
	default:
		dec, name = charmap.Windows1252, "windows-1252"
	}

	out, err := dec.NewDecoder().Bytes(data)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s decode failed: %v", ErrUnreadable, name, err)
	}
	return out, name, nil
}
