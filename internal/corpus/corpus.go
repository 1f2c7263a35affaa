// Package corpus loads reference corpora and ciphertexts and normalizes them
// to the alphabet's case before they reach the cipher core.
package corpus

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var ErrUnknownEncoding = errors.New("unknown text encoding")

var encodings = map[string]encoding.Encoding{
	"windows-1251": charmap.Windows1251,
	"cp1251":       charmap.Windows1251,
	"koi8-r":       charmap.KOI8R,
	"koi8r":        charmap.KOI8R,
	"ibm866":       charmap.CodePage866,
	"cp866":        charmap.CodePage866,
}

// Encodings lists the names accepted by Read and Load besides utf-8.
func Encodings() []string {
	names := make([]string, 0, len(encodings))
	for name := range encodings {
		names = append(names, name)
	}
	return names
}

// Read decodes r from the named encoding. An empty name means utf-8.
func Read(r io.Reader, enc string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(enc))
	if name != "" && name != "utf-8" && name != "utf8" {
		e, ok := encodings[name]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, enc)
		}
		r = e.NewDecoder().Reader(r)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading text: %w", err)
	}
	return strings.TrimPrefix(string(data), "\ufeff"), nil
}

// Load reads and decodes the file at path.
func Load(path string, enc string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	text, err := Read(f, enc)
	if err != nil {
		return "", fmt.Errorf("loading %s: %w", path, err)
	}
	return text, nil
}

// Normalize composes decomposed characters (so "е" + U+0308 becomes "ё")
// and lower-cases the text with Russian casing rules.
func Normalize(text string) string {
	return cases.Lower(language.Russian).String(norm.NFC.String(text))
}

// LoadNormalized is Load followed by Normalize, returned as runes ready for
// the cipher packages.
func LoadNormalized(path string, enc string) ([]rune, error) {
	text, err := Load(path, enc)
	if err != nil {
		return nil, err
	}
	return []rune(Normalize(text)), nil
}
