// Package alphabet defines the fixed, ordered symbol set a substitution
// cipher operates over, together with its symbol-to-index mapping.
//
// An Alphabet is built once at startup and shared read-only by every other
// component. It performs no case folding: callers normalize text first.
package alphabet

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Russian is the 33-letter lowercase Cyrillic alphabet, ё in its dictionary
// position.
const Russian = "абвгдеёжзийклмнопрстуфхцчшщъыьэюя"

var (
	ErrUnknownSymbol = errors.New("unknown symbol")
	ErrEmpty         = errors.New("alphabet is empty")
	ErrDuplicate     = errors.New("duplicate alphabet symbol")
)

// Alphabet is an immutable ordered set of distinct symbols.
type Alphabet struct {
	symbols []rune
	index   map[rune]int
}

// New builds an Alphabet from the symbols of s, in order.
func New(s string) (*Alphabet, error) {
	if !utf8.ValidString(s) {
		return nil, fmt.Errorf("alphabet %q: invalid utf-8", s)
	}
	symbols := []rune(s)
	if len(symbols) == 0 {
		return nil, ErrEmpty
	}
	index := make(map[rune]int, len(symbols))
	for i, r := range symbols {
		if prev, exists := index[r]; exists {
			return nil, fmt.Errorf("%w %q at positions %d and %d", ErrDuplicate, r, prev, i)
		}
		index[r] = i
	}
	return &Alphabet{symbols: symbols, index: index}, nil
}

// MustNew is like New but panics on error. Intended for package-level
// constants such as Russian.
func MustNew(s string) *Alphabet {
	a, err := New(s)
	if err != nil {
		panic(err)
	}
	return a
}

// IndexOf returns the position of r, or ErrUnknownSymbol.
func (a *Alphabet) IndexOf(r rune) (int, error) {
	i, ok := a.index[r]
	if !ok {
		return -1, fmt.Errorf("%w: %q", ErrUnknownSymbol, r)
	}
	return i, nil
}

// Lookup is the allocation-free form of IndexOf used on hot paths where an
// unknown symbol simply means "skip".
func (a *Alphabet) Lookup(r rune) (int, bool) {
	i, ok := a.index[r]
	return i, ok
}

func (a *Alphabet) Contains(r rune) bool {
	_, ok := a.index[r]
	return ok
}

// SymbolAt returns the symbol at position i. i must be in [0, Size()).
func (a *Alphabet) SymbolAt(i int) rune {
	return a.symbols[i]
}

func (a *Alphabet) Size() int {
	return len(a.symbols)
}

// Symbols returns a copy of the ordered symbols.
func (a *Alphabet) Symbols() []rune {
	out := make([]rune, len(a.symbols))
	copy(out, a.symbols)
	return out
}

func (a *Alphabet) String() string {
	return string(a.symbols)
}
