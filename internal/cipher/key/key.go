// Package key implements substitution keys: permutations of an alphabet.
//
// Position i of a Key holds the symbol that stands in the ciphertext for
// alphabet symbol i. Keys are values: Swap and the other mutators return a
// new Key and never modify the receiver.
package key

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/cipher/alphabet"
)

var ErrInvalidKey = errors.New("invalid key")

// Key is a permutation of an alphabet.
type Key struct {
	symbols []rune
}

// Identity returns the key that maps every symbol to itself.
func Identity(a *alphabet.Alphabet) Key {
	return Key{symbols: a.Symbols()}
}

// Parse validates s as a permutation of a.
func Parse(a *alphabet.Alphabet, s string) (Key, error) {
	return FromRunes(a, []rune(s))
}

// FromRunes validates symbols as a permutation of a. The slice is copied.
func FromRunes(a *alphabet.Alphabet, symbols []rune) (Key, error) {
	if len(symbols) != a.Size() {
		return Key{}, fmt.Errorf("%w: length %d, alphabet has %d symbols", ErrInvalidKey, len(symbols), a.Size())
	}
	seen := make([]bool, a.Size())
	for pos, r := range symbols {
		i, ok := a.Lookup(r)
		if !ok {
			return Key{}, fmt.Errorf("%w: symbol %q at position %d is not in the alphabet", ErrInvalidKey, r, pos)
		}
		if seen[i] {
			return Key{}, fmt.Errorf("%w: symbol %q repeated at position %d", ErrInvalidKey, r, pos)
		}
		seen[i] = true
	}
	out := make([]rune, len(symbols))
	copy(out, symbols)
	return Key{symbols: out}, nil
}

// Random returns a uniformly shuffled key drawn from rng.
func Random(a *alphabet.Alphabet, rng *rand.Rand) Key {
	symbols := a.Symbols()
	rng.Shuffle(len(symbols), func(i, j int) {
		symbols[i], symbols[j] = symbols[j], symbols[i]
	})
	return Key{symbols: symbols}
}

// Len returns the number of positions in the key.
func (k Key) Len() int {
	return len(k.symbols)
}

// At returns the ciphertext symbol for alphabet position i.
func (k Key) At(i int) rune {
	return k.symbols[i]
}

// Symbols returns a copy of the key's symbols.
func (k Key) Symbols() []rune {
	out := make([]rune, len(k.symbols))
	copy(out, k.symbols)
	return out
}

// Positions returns the inverse lookup: symbol -> position within the key.
func (k Key) Positions() map[rune]int {
	pos := make(map[rune]int, len(k.symbols))
	for i, r := range k.symbols {
		pos[r] = i
	}
	return pos
}

// Swap returns a copy of k with positions i and j exchanged.
func (k Key) Swap(i, j int) Key {
	out := k.Symbols()
	out[i], out[j] = out[j], out[i]
	return Key{symbols: out}
}

// RandomSwap swaps two distinct positions chosen uniformly from rng. The
// second position is redrawn until it differs from the first. It returns the
// new key and the swapped positions. Keys shorter than two symbols cannot be
// mutated and are returned unchanged with i == j == 0.
func (k Key) RandomSwap(rng *rand.Rand) (Key, int, int) {
	n := len(k.symbols)
	if n < 2 {
		return k, 0, 0
	}
	i := rng.Intn(n)
	j := rng.Intn(n)
	for j == i {
		j = rng.Intn(n)
	}
	return k.Swap(i, j), i, j
}

func (k Key) Equal(other Key) bool {
	if len(k.symbols) != len(other.symbols) {
		return false
	}
	for i := range k.symbols {
		if k.symbols[i] != other.symbols[i] {
			return false
		}
	}
	return true
}

func (k Key) String() string {
	return string(k.symbols)
}
