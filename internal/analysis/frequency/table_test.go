package frequency

import (
	"bytes"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/cipher/alphabet"
)

const sample = `Еще в 1805 году, в июле, Анна Павловна Шерер, фрейлина и приближенная
императрицы Марии Феодоровны, встречая важного и чиновного князя Василия,
первого приехавшего на ее вечер, сказала: «Ну, что, князь? Генуя и Лукка —
поместья фамилии Бонапарте».`

func TestBuildAbcExample(t *testing.T) {
	a := alphabet.MustNew("abc")
	tbl := Build(a, []rune("abcabc"))

	// pairs: ab bc ca ab bc -> ab=2/5, bc=2/5, ca=1/5
	assert.InDelta(t, 2.0/5, tbl.At(0, 1), Tolerance)
	assert.InDelta(t, 2.0/5, tbl.At(1, 2), Tolerance)
	assert.InDelta(t, 1.0/5, tbl.At(2, 0), Tolerance)
	assert.InDelta(t, 1.0, tbl.Sum(), Tolerance)
}

func TestBuildSkipsPairsWithForeignSymbols(t *testing.T) {
	a := alphabet.MustNew("abc")
	c := Count(a, []rune("ab c!a"))

	assert.Equal(t, int64(1), c.Total())
	assert.Equal(t, int64(1), c.At(0, 1))
}

func TestBuildDegenerateIsAllZero(t *testing.T) {
	a := alphabet.MustNew("abc")

	for _, text := range []string{"", "a", "a1b2c3", "a b c", "123"} {
		tbl := Build(a, []rune(text))
		assert.True(t, tbl.IsZero(), "text %q", text)
		assert.Equal(t, 0.0, tbl.Sum())
		for i := 0; i < tbl.Size(); i++ {
			for j := 0; j < tbl.Size(); j++ {
				assert.False(t, math.IsNaN(tbl.At(i, j)))
			}
		}
	}
}

func TestBuildSumsToOne(t *testing.T) {
	a := alphabet.MustNew(alphabet.Russian)
	tbl := Build(a, []rune(strings.ToLower(sample)))
	assert.InDelta(t, 1.0, tbl.Sum(), Tolerance)
	assert.Equal(t, 33, tbl.Size())
}

func TestSwapSymbolsMatchesRelabelledText(t *testing.T) {
	a := alphabet.MustNew(alphabet.Russian)
	text := []rune(strings.ToLower(sample))
	rng := rand.New(rand.NewSource(11))

	for n := 0; n < 50; n++ {
		i, j := rng.Intn(a.Size()), rng.Intn(a.Size())
		si, sj := a.SymbolAt(i), a.SymbolAt(j)
		relabelled := make([]rune, len(text))
		for k, r := range text {
			switch r {
			case si:
				relabelled[k] = sj
			case sj:
				relabelled[k] = si
			default:
				relabelled[k] = r
			}
		}

		want := Count(a, relabelled)
		got := Count(a, text).SwapSymbols(i, j)
		require.Equal(t, want.Total(), got.Total())
		assert.True(t, want.Normalize().Equal(got.Normalize()), "swap %d,%d", i, j)
	}
}

func TestSwapSymbolsDoesNotMutate(t *testing.T) {
	a := alphabet.MustNew("abc")
	c := Count(a, []rune("aab"))
	_ = c.SwapSymbols(0, 1)
	assert.Equal(t, int64(1), c.At(0, 0))
	assert.Equal(t, int64(1), c.At(0, 1))
}

func TestCodecRoundTrip(t *testing.T) {
	a := alphabet.MustNew(alphabet.Russian)
	tbl := Build(a, []rune(strings.ToLower(sample)))

	var buf bytes.Buffer
	_, err := tbl.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, 33, strings.Count(buf.String(), "\n"))

	got, err := Read(&buf, 33)
	require.NoError(t, err)
	assert.True(t, tbl.Equal(got))
}

func TestReadAcceptsTrailingSpacesAndDecimalComma(t *testing.T) {
	in := "0,25 0.25 \n0 0,5 \n\n"
	tbl, err := Read(strings.NewReader(in), 2)
	require.NoError(t, err)
	assert.Equal(t, 0.25, tbl.At(0, 0))
	assert.Equal(t, 0.5, tbl.At(1, 1))
}

func TestReadRejectsMalformed(t *testing.T) {
	tests := map[string]string{
		"too few rows":    "0 1\n",
		"too many rows":   "0 1\n1 0\n0 0\n",
		"short row":       "0 1\n1\n",
		"not a number":    "0 x\n1 0\n",
		"negative":        "0 -1\n1 0\n",
		"nan cell":        "NaN 0\n0 0\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Read(strings.NewReader(in), 2)
			assert.ErrorIs(t, err, ErrMalformedTable)
		})
	}
}

func BenchmarkCount(b *testing.B) {
	a := alphabet.MustNew(alphabet.Russian)
	text := []rune(strings.Repeat(strings.ToLower(sample), 50))
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	for i := 0; i < b.N; i++ {
		_ = Count(a, text)
	}
}

func BenchmarkSwapSymbols(b *testing.B) {
	a := alphabet.MustNew(alphabet.Russian)
	c := Count(a, []rune(strings.ToLower(sample)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = c.SwapSymbols(i%33, (i+7)%33)
	}
}
