package hillclimb

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/analysis/frequency"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/cipher/alphabet"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/cipher/key"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/cipher/substitution"
)

// For this text over "abcde" the only key from which no single swap
// improves the distance is the true one, so any run with a generous stall
// limit recovers it regardless of the random sequence.
const uniqueOptimumText = "baceeaaabbabbaababbddadebabbb"

const russianSample = `в начале июля, в чрезвычайно жаркое время, под вечер, один молодой
человек вышел из своей каморки, которую нанимал от жильцов в с-м переулке,
на улицу и медленно, как бы в нерешимости, отправился к к-ну мосту. он
благополучно избегнул встречи с своею хозяйкой на лестнице. каморка его
приходилась под самою кровлей высокого пятиэтажного дома и походила более
на шкаф, чем на квартиру.`

type recorder struct {
	improvements []Improvement
}

func (r *recorder) OnImprovement(imp Improvement) {
	r.improvements = append(r.improvements, imp)
}

func newSearcher(t *testing.T, a *alphabet.Alphabet, ref frequency.Table, cfg Config, seed int64, opts ...Option) *Searcher {
	t.Helper()
	s, err := New(a, ref, cfg, rand.New(rand.NewSource(seed)), opts...)
	require.NoError(t, err)
	return s
}

func TestNewValidates(t *testing.T) {
	a := alphabet.MustNew("abc")
	rng := rand.New(rand.NewSource(1))

	_, err := New(a, frequency.Zero(3), Config{StallLimit: 0}, rng)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(a, frequency.Zero(3), DefaultConfig(), nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(a, frequency.Zero(4), DefaultConfig(), rng)
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestRunRejectsForeignInitialKey(t *testing.T) {
	a := alphabet.MustNew("abc")
	other := alphabet.MustNew("abcd")
	s := newSearcher(t, a, frequency.Zero(3), DefaultConfig(), 1)

	_, err := s.Run(context.Background(), []rune("abc"), key.Identity(other))
	assert.ErrorIs(t, err, key.ErrInvalidKey)
}

func TestRunRecoversKey(t *testing.T) {
	a := alphabet.MustNew("abcde")
	ref := frequency.Build(a, []rune(uniqueOptimumText))

	for _, secret := range []string{"cadeb", "edcba", "bcdea", "debac"} {
		t.Run(secret, func(t *testing.T) {
			k, err := key.Parse(a, secret)
			require.NoError(t, err)
			ciphertext := substitution.Encrypt(a, []rune(uniqueOptimumText), k)

			s := newSearcher(t, a, ref, Config{StallLimit: 500, Incremental: true}, 99)
			res, err := s.Run(context.Background(), ciphertext, key.Identity(a))
			require.NoError(t, err)

			assert.Equal(t, secret, res.Key.String())
			assert.Equal(t, uniqueOptimumText, string(res.Plaintext))
			assert.InDelta(t, 0.0, res.Distance, frequency.Tolerance)
			assert.Equal(t, ReasonStalled, res.Reason)
		})
	}
}

func TestAcceptedDistancesStrictlyDecrease(t *testing.T) {
	a := alphabet.MustNew(alphabet.Russian)
	text := []rune(strings.ToLower(russianSample))
	ref := frequency.Build(a, text)
	ciphertext := substitution.Encrypt(a, text, key.Random(a, rand.New(rand.NewSource(5))))

	rec := &recorder{}
	s := newSearcher(t, a, ref, Config{StallLimit: 2000, Incremental: true}, 17, WithObserver(rec))
	res, err := s.Run(context.Background(), ciphertext, key.Identity(a))
	require.NoError(t, err)

	require.NotEmpty(t, rec.improvements)
	prev := res.InitialDistance
	for _, imp := range rec.improvements {
		assert.Less(t, imp.Distance, prev)
		prev = imp.Distance
	}
	assert.Equal(t, prev, res.Distance)
	assert.Equal(t, int64(len(rec.improvements)), res.Accepted)
	assert.LessOrEqual(t, res.Distance, res.InitialDistance)
}

func TestRunStopsExactlyAfterStallLimit(t *testing.T) {
	a := alphabet.MustNew(alphabet.Russian)
	text := []rune(strings.ToLower(russianSample))
	ref := frequency.Build(a, text)
	ciphertext := substitution.Encrypt(a, text, key.Random(a, rand.New(rand.NewSource(8))))

	const limit = 300
	rec := &recorder{}
	s := newSearcher(t, a, ref, Config{StallLimit: limit, Incremental: true}, 3, WithObserver(rec))
	res, err := s.Run(context.Background(), ciphertext, key.Identity(a))
	require.NoError(t, err)

	var last int64
	if n := len(rec.improvements); n > 0 {
		last = rec.improvements[n-1].Iteration
	}
	assert.Equal(t, last+limit, res.Iterations)
}

func TestRunAlreadyOptimalNeverImproves(t *testing.T) {
	a := alphabet.MustNew("abc")
	ref := frequency.Build(a, []rune("abcabc"))

	rec := &recorder{}
	s := newSearcher(t, a, ref, Config{StallLimit: 50, Incremental: true}, 1, WithObserver(rec))
	res, err := s.Run(context.Background(), []rune("abcabc"), key.Identity(a))
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.InitialDistance)
	assert.Empty(t, rec.improvements)
	assert.Equal(t, int64(50), res.Iterations)
	assert.Equal(t, "abc", res.Key.String())
}

func TestRunEmptyCiphertextTerminates(t *testing.T) {
	a := alphabet.MustNew(alphabet.Russian)
	ref := frequency.Build(a, []rune(strings.ToLower(russianSample)))
	s := newSearcher(t, a, ref, Config{StallLimit: 100, Incremental: true}, 1)

	for _, ct := range []string{"", "я", "1, 2, 3"} {
		res, err := s.Run(context.Background(), []rune(ct), key.Identity(a))
		require.NoError(t, err)
		assert.Equal(t, int64(100), res.Iterations, "ciphertext %q", ct)
		assert.Equal(t, int64(0), res.Accepted)
		assert.InDelta(t, 1.0, res.Distance, frequency.Tolerance)
	}
}

func TestRunSingleSymbolAlphabet(t *testing.T) {
	a := alphabet.MustNew("a")
	s := newSearcher(t, a, frequency.Build(a, []rune("aaa")), DefaultConfig(), 1)
	res, err := s.Run(context.Background(), []rune("aaaa"), key.Identity(a))
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Iterations)
	assert.Equal(t, "aaaa", string(res.Plaintext))
}

func TestIncrementalMatchesFullRecomputation(t *testing.T) {
	a := alphabet.MustNew(alphabet.Russian)
	text := []rune(strings.ToLower(russianSample))
	ref := frequency.Build(a, text)
	ciphertext := substitution.Encrypt(a, text, key.Random(a, rand.New(rand.NewSource(21))))

	run := func(incremental bool) (*Result, []Improvement) {
		rec := &recorder{}
		s := newSearcher(t, a, ref, Config{StallLimit: 400, Incremental: incremental}, 77, WithObserver(rec))
		res, err := s.Run(context.Background(), ciphertext, key.Identity(a))
		require.NoError(t, err)
		return res, rec.improvements
	}

	fast, fastImps := run(true)
	full, fullImps := run(false)

	assert.Equal(t, full.Key.String(), fast.Key.String())
	assert.Equal(t, full.Iterations, fast.Iterations)
	assert.Equal(t, full.Accepted, fast.Accepted)
	assert.InDelta(t, full.Distance, fast.Distance, 1e-12)
	require.Equal(t, len(fullImps), len(fastImps))
	for i := range fullImps {
		assert.Equal(t, fullImps[i].Iteration, fastImps[i].Iteration)
		assert.Equal(t, fullImps[i].Key.String(), fastImps[i].Key.String())
	}
}

func TestSameSeedSameResult(t *testing.T) {
	a := alphabet.MustNew(alphabet.Russian)
	text := []rune(strings.ToLower(russianSample))
	ref := frequency.Build(a, text)
	ciphertext := substitution.Encrypt(a, text, key.Random(a, rand.New(rand.NewSource(4))))

	r1, err := newSearcher(t, a, ref, Config{StallLimit: 300, Incremental: true}, 12).Run(context.Background(), ciphertext, key.Identity(a))
	require.NoError(t, err)
	r2, err := newSearcher(t, a, ref, Config{StallLimit: 300, Incremental: true}, 12).Run(context.Background(), ciphertext, key.Identity(a))
	require.NoError(t, err)

	assert.Equal(t, r1.Key.String(), r2.Key.String())
	assert.Equal(t, r1.Iterations, r2.Iterations)
}

func TestRunCancelledReturnsBestSoFar(t *testing.T) {
	a := alphabet.MustNew(alphabet.Russian)
	text := []rune(strings.ToLower(russianSample))
	ref := frequency.Build(a, text)
	ciphertext := substitution.Encrypt(a, text, key.Random(a, rand.New(rand.NewSource(6))))

	ctx, cancel := context.WithCancel(context.Background())
	var seen int
	obs := ObserverFunc(func(Improvement) {
		seen++
		if seen == 3 {
			cancel()
		}
	})
	s := newSearcher(t, a, ref, Config{StallLimit: 1_000_000, Incremental: true}, 9, WithObserver(obs))
	res, err := s.Run(ctx, ciphertext, key.Identity(a))
	require.NoError(t, err)

	assert.Equal(t, ReasonCancelled, res.Reason)
	assert.Equal(t, int64(3), res.Accepted)
	assert.Less(t, res.Distance, res.InitialDistance)
	assert.Equal(t, string(substitution.Decrypt(a, ciphertext, res.Key)), string(res.Plaintext))
}

func BenchmarkRun(b *testing.B) {
	a := alphabet.MustNew(alphabet.Russian)
	text := []rune(strings.ToLower(russianSample))
	ref := frequency.Build(a, text)
	ciphertext := substitution.Encrypt(a, text, key.Random(a, rand.New(rand.NewSource(1))))

	for _, incremental := range []bool{true, false} {
		name := "full"
		if incremental {
			name = "incremental"
		}
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				s, err := New(a, ref, Config{StallLimit: 200, Incremental: incremental}, rand.New(rand.NewSource(int64(i))))
				if err != nil {
					b.Fatal(err)
				}
				if _, err := s.Run(context.Background(), ciphertext, key.Identity(a)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
