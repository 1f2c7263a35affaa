package alphabet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRussianAlphabet(t *testing.T) {
	a := MustNew(Russian)
	require.Equal(t, 33, a.Size())

	i, err := a.IndexOf('ё')
	require.NoError(t, err)
	assert.Equal(t, 6, i)
	assert.Equal(t, 'ё', a.SymbolAt(6))
	assert.Equal(t, 'а', a.SymbolAt(0))
	assert.Equal(t, 'я', a.SymbolAt(32))
	assert.Equal(t, Russian, a.String())
}

func TestIndexOfUnknownSymbol(t *testing.T) {
	a := MustNew("abc")

	for _, r := range []rune{'A', ' ', '1', 'я'} {
		_, err := a.IndexOf(r)
		assert.ErrorIs(t, err, ErrUnknownSymbol, "symbol %q", r)
		_, ok := a.Lookup(r)
		assert.False(t, ok)
		assert.False(t, a.Contains(r))
	}
}

func TestIndexRoundTrip(t *testing.T) {
	a := MustNew(Russian)
	for i := 0; i < a.Size(); i++ {
		got, err := a.IndexOf(a.SymbolAt(i))
		require.NoError(t, err)
		assert.Equal(t, i, got)
	}
}

func TestNewRejectsInvalidAlphabets(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = New("abca")
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = New("ab\xff")
	assert.Error(t, err)
}

func TestSymbolsReturnsCopy(t *testing.T) {
	a := MustNew("abc")
	s := a.Symbols()
	s[0] = 'z'
	assert.Equal(t, 'a', a.SymbolAt(0))
	assert.Equal(t, "abc", a.String())
}
