package fetcher

import (
	"bytes"
	"io"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NormalizeText converts input bytes to plain UTF-8: UTF-8/UTF-16 byte
// order marks are honored and stripped, and input that is not valid UTF-8
// is decoded as Windows-1252, the usual encoding of exported contact lists.
func NormalizeText(raw []byte) ([]byte, error) {
	decoder := unicode.BOMOverride(transform.Nop)
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(raw), decoder))
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: decode input text")
	}

	if !utf8.Valid(out) {
		out, err = io.ReadAll(transform.NewReader(bytes.NewReader(raw), charmap.Windows1252.NewDecoder()))
		if err != nil {
			return nil, eris.Wrap(err, "fetcher: decode windows-1252 input")
		}
	}
	return out, nil
}
