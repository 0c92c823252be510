package metrics

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// randomReturns builds a seeded return series with enough variance for
// the sample estimators to be well defined.
func randomReturns(seed int64, n int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	returns := make([]float64, n)
	for i := range returns {
		returns[i] = rng.NormFloat64() * 0.01
	}
	return returns
}

func TestBetaOfBenchmarkAgainstItselfIsOne(t *testing.T) {
	bench := randomReturns(7, 100)

	beta := Beta(bench, bench)
	require.True(t, beta.IsSome())
	assert.InDelta(t, 1.0, beta.Unwrap(), 1e-9)
}

func TestBetaScalesWithLeverage(t *testing.T) {
	bench := randomReturns(11, 100)
	levered := make([]float64, len(bench))
	for i, r := range bench {
		levered[i] = 2 * r
	}

	beta := Beta(levered, bench)
	require.True(t, beta.IsSome())
	assert.InDelta(t, 2.0, beta.Unwrap(), 1e-9)
}

func TestBetaUndefinedCases(t *testing.T) {
	assert.True(t, Beta([]float64{0.01}, []float64{0.01}).IsNone())

	// Constant benchmark has zero variance.
	flat := make([]float64, 50)
	assert.True(t, Beta(randomReturns(3, 50), flat).IsNone())
}

func TestAlphaOfBenchmarkAgainstItselfIsZero(t *testing.T) {
	bench := randomReturns(13, 200)

	beta := Beta(bench, bench)
	alpha := Alpha(bench, bench, beta, 78*252)
	require.True(t, alpha.IsSome())
	assert.InDelta(t, 0.0, alpha.Unwrap(), 1e-9)
}

func TestAlphaOfConstantOutperformance(t *testing.T) {
	bench := randomReturns(17, 200)
	strat := make([]float64, len(bench))
	for i, r := range bench {
		strat[i] = r + 0.0001 // one basis point per bar over the market
	}

	beta := Beta(strat, bench)
	alpha := Alpha(strat, bench, beta, 78*252)
	require.True(t, alpha.IsSome())
	assert.InDelta(t, 0.0001*78*252, alpha.Unwrap(), 1e-6)
}

func TestRollingBeta(t *testing.T) {
	bench := randomReturns(19, 60)

	t.Run("series shorter than window is empty", func(t *testing.T) {
		assert.Empty(t, RollingBeta(bench[:10], bench[:10], 20))
	})

	t.Run("prefix is NaN then converges", func(t *testing.T) {
		rolling := RollingBeta(bench, bench, 20)
		require.Len(t, rolling, 60)
		for i := 0; i < 19; i++ {
			assert.True(t, math.IsNaN(rolling[i]), "index %d should be NaN", i)
		}
		for i := 19; i < 60; i++ {
			assert.InDelta(t, 1.0, rolling[i], 1e-9, "index %d", i)
		}
	})
}

func TestCumulativeAlpha(t *testing.T) {
	bench := randomReturns(23, 60)

	t.Run("flat before the window fills", func(t *testing.T) {
		cum := CumulativeAlpha(bench, bench, 20)
		require.Len(t, cum, 60)
		for i := 0; i < 19; i++ {
			assert.Zero(t, cum[i])
		}
	})

	t.Run("benchmark against itself accumulates nothing", func(t *testing.T) {
		cum := CumulativeAlpha(bench, bench, 20)
		for i, v := range cum {
			assert.InDelta(t, 0.0, v, 1e-9, "index %d", i)
		}
	})

	t.Run("steady outperformance accumulates", func(t *testing.T) {
		strat := make([]float64, len(bench))
		for i, r := range bench {
			strat[i] = r + 0.0002
		}
		cum := CumulativeAlpha(strat, bench, 20)
		require.Len(t, cum, 60)
		assert.Positive(t, cum[len(cum)-1])
		// Running sum never decreases by more than the per-bar alpha noise.
		assert.Greater(t, cum[len(cum)-1], cum[25])
	})
}

func TestInformationRatio(t *testing.T) {
	bench := randomReturns(29, 100)

	t.Run("identical series has zero tracking error", func(t *testing.T) {
		assert.True(t, InformationRatio(bench, bench, 78*252).IsNone())
	})

	t.Run("consistent outperformance with noise", func(t *testing.T) {
		rng := rand.New(rand.NewSource(31))
		strat := make([]float64, len(bench))
		for i, r := range bench {
			strat[i] = r + 0.0002 + rng.NormFloat64()*0.0001
		}
		ir := InformationRatio(strat, bench, 78*252)
		require.True(t, ir.IsSome())
		assert.Positive(t, ir.Unwrap())
	})
}

func TestComputeWithBenchmark(t *testing.T) {
	// Build an equity curve from random returns, then benchmark it
	// against its own log returns so the series match bit for bit.
	seed := randomReturns(37, 80)
	curve := make([]float64, len(seed)+1)
	curve[0] = 100_000
	for i, r := range seed {
		curve[i+1] = curve[i] * math.Exp(r)
	}
	bench := LogReturns(curve)

	report, err := Compute(curve, nil, 100_000, 80, bench, 78*252)
	require.NoError(t, err)

	require.True(t, report.Beta.IsSome())
	assert.InDelta(t, 1.0, report.Beta.Unwrap(), 1e-6)
	require.True(t, report.Alpha.IsSome())
	assert.InDelta(t, 0.0, report.Alpha.Unwrap(), 1e-6)
	assert.True(t, report.InformationRatio.IsNone())
	require.Len(t, report.CumulativeAlpha, 80)
}
