// Package encoding normalizes raw tool output to UTF-8 so findings render
// and serialize cleanly regardless of the tool's locale.
package encoding

import (
	"bytes"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ToUTF8 decodes raw bytes to UTF-8. The charset is sniffed from the content;
// already-valid UTF-8 passes through with only a BOM strip. Decode failures
// fall back to the raw bytes rather than dropping output.
func ToUTF8(raw []byte) []byte {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if len(raw) == 0 {
		return raw
	}
	enc, name, _ := charset.DetermineEncoding(raw, "")
	if name == "utf-8" {
		return raw
	}
	decoded, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return raw
	}
	return decoded
}

// DecodeUTF16 decodes UTF-16 bytes (with BOM) to UTF-8. Some Windows tools
// emit UTF-16LE on stdout; charset sniffing already handles the common case,
// this covers explicit callers.
func DecodeUTF16(raw []byte) ([]byte, error) {
	dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	out, _, err := transform.Bytes(dec, raw)
	return out, err
}
