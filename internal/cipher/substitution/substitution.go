// Package substitution applies substitution keys to text.
package substitution

import (
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/cipher/alphabet"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/cipher/key"
)

// Decrypt maps every alphabet symbol c of ciphertext to the alphabet symbol
// whose index equals the position of c inside k. Symbols outside the
// alphabet are dropped, so the output is usually shorter than the input.
func Decrypt(a *alphabet.Alphabet, ciphertext []rune, k key.Key) []rune {
	positions := k.Positions()
	out := make([]rune, 0, len(ciphertext))
	for _, c := range ciphertext {
		if !a.Contains(c) {
			continue
		}
		p, ok := positions[c]
		if !ok {
			continue
		}
		out = append(out, a.SymbolAt(p))
	}
	return out
}

// Encrypt replaces alphabet symbol i with k.At(i). Symbols outside the
// alphabet pass through unchanged.
func Encrypt(a *alphabet.Alphabet, plaintext []rune, k key.Key) []rune {
	out := make([]rune, len(plaintext))
	for n, r := range plaintext {
		if i, ok := a.Lookup(r); ok {
			out[n] = k.At(i)
		} else {
			out[n] = r
		}
	}
	return out
}

// Project keeps only the alphabet symbols of text.
func Project(a *alphabet.Alphabet, text []rune) []rune {
	out := make([]rune, 0, len(text))
	for _, r := range text {
		if a.Contains(r) {
			out = append(out, r)
		}
	}
	return out
}
