package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/analysis/frequency"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/cipher/alphabet"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	a := alphabet.MustNew(alphabet.Russian)
	table := frequency.Build(a, []rune("в начале июля, в чрезвычайно жаркое время"))
	path := filepath.Join(t.TempDir(), "models", "bigrams.txt")

	require.NoError(t, Save(path, table))
	got, err := Load(path, a.Size())
	require.NoError(t, err)
	assert.True(t, table.Equal(got))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must not survive a successful save")
}

func TestSaveOverwrites(t *testing.T) {
	a := alphabet.MustNew("abc")
	path := filepath.Join(t.TempDir(), "bigrams.txt")

	require.NoError(t, Save(path, frequency.Build(a, []rune("aaaa"))))
	second := frequency.Build(a, []rune("abcabc"))
	require.NoError(t, Save(path, second))

	got, err := Load(path, a.Size())
	require.NoError(t, err)
	assert.True(t, second.Equal(got))
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "missing.txt"), 3)
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte("0 0\n0 0\n"), 0o644))
	_, err = Load(bad, 3)
	require.ErrorIs(t, err, frequency.ErrMalformedTable)
}

func TestLoadModel(t *testing.T) {
	a := alphabet.MustNew("abc")
	path := filepath.Join(t.TempDir(), "bigrams.txt")
	require.NoError(t, Save(path, frequency.Build(a, []rune("abcabc"))))

	m, err := LoadModel(path, a)
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, "abc", m.Alphabet)
	assert.False(t, m.TrainedAt.IsZero())
}
