package normalizer

import (
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/defistate/defistate-cycles-go/graph"
	uniswapv2 "github.com/defistate/defistate-cycles-go/protocols/uniswapv2"
	uniswapv3 "github.com/defistate/defistate-cycles-go/protocols/uniswapv3"
	uniswapv4 "github.com/defistate/defistate-cycles-go/protocols/uniswapv4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tokenA = common.HexToAddress("0x0a")
	tokenB = common.HexToAddress("0x0b")

	referenceAmount = uint256.NewInt(1e15)
	errNoLiquidity  = errors.New("no liquidity")
)

// stubPool quotes fixed outputs per direction.
type stubPool struct {
	id   graph.PoolID
	a, b graph.TokenKey
	out  map[graph.Direction]*uint256.Int
	errs map[graph.Direction]error
}

func (p stubPool) ID() graph.PoolID              { return p.id }
func (p stubPool) Kind() PoolKind                { return V2 }
func (p stubPool) Tokens() (a, b graph.TokenKey) { return p.a, p.b }
func (p stubPool) Quote(_ *uint256.Int, dir graph.Direction) (*uint256.Int, error) {
	if err := p.errs[dir]; err != nil {
		return nil, err
	}
	return p.out[dir], nil
}

func v2Pool(reserveA, reserveB uint64) V2Pool {
	return V2Pool{Pool: uniswapv2.Pool{
		Address:  common.HexToAddress("0x02"),
		Token0:   tokenA,
		Token1:   tokenB,
		Reserve0: new(uint256.Int).Mul(uint256.NewInt(reserveA), uint256.NewInt(1e18)),
		Reserve1: new(uint256.Int).Mul(uint256.NewInt(reserveB), uint256.NewInt(1e18)),
		FeeBps:   30,
	}}
}

func v3Pool() V3Pool {
	return V3Pool{Pool: uniswapv3.Pool{
		Address:      common.HexToAddress("0x03"),
		Token0:       tokenA,
		Token1:       tokenB,
		Fee:          3000,
		TickSpacing:  60,
		Tick:         0,
		Liquidity:    uint256.NewInt(1e18),
		SqrtPriceX96: uint256.MustFromDecimal("79228162514264337593543950336"),
	}}
}

func v4Pool(t *testing.T) V4Pool {
	t.Helper()
	pool, err := NewV4Pool(uniswapv4.Pool{
		Manager: common.HexToAddress("0x04"),
		Key: uniswapv4.PoolKey{
			Currency0:   tokenA,
			Currency1:   tokenB,
			Fee:         3000,
			TickSpacing: 60,
		},
		Tick:         0,
		Liquidity:    uint256.NewInt(1e18),
		SqrtPriceX96: uint256.MustFromDecimal("79228162514264337593543950336"),
	})
	require.NoError(t, err)
	return pool
}

func newTestNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	n, err := NewNormalizer(referenceAmount)
	require.NoError(t, err)
	return n
}

func newTestFeeder(t *testing.T) (*Feeder, *graph.LiquidityGraph) {
	t.Helper()
	g := graph.NewLiquidityGraph(0)
	f, err := NewFeeder(&FeederConfig{
		Graph:      g,
		Normalizer: newTestNormalizer(t),
		Registry:   prometheus.NewRegistry(),
		Logger:     slog.New(slog.DiscardHandler),
	})
	require.NoError(t, err)
	return f, g
}

func TestNewNormalizer_RejectsZeroReference(t *testing.T) {
	_, err := NewNormalizer(nil)
	assert.ErrorIs(t, err, ErrReferenceAmount)
	_, err = NewNormalizer(new(uint256.Int))
	assert.ErrorIs(t, err, ErrReferenceAmount)

	n := newTestNormalizer(t)
	ref := n.ReferenceAmount()
	ref.SetUint64(1)
	assert.Equal(t, referenceAmount, n.ReferenceAmount(), "reference amount is copied out")
}

func TestNormalize_AllKinds(t *testing.T) {
	testCases := []struct {
		name     string
		pool     Pool
		wantAtoB string
		wantBtoA string
	}{
		{"v2 at parity", v2Pool(1, 1), "996006981039903", "996006981039903"},
		{"v2 at 2:1", v2Pool(1, 2), "1992013962079806", "498251621566649"},
		{"v3 at price one", v3Pool(), "996006981039903", "996006981039903"},
		{"v4 at price one", v4Pool(t), "996006981039903", "996006981039903"},
	}

	n := newTestNormalizer(t)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			edges, err := n.Normalize(tc.pool)
			require.NoError(t, err)
			require.Len(t, edges, 2)

			assert.Equal(t, graph.AtoB, edges[0].Direction)
			assert.Equal(t, tokenA, edges[0].From)
			assert.Equal(t, tokenB, edges[0].To)
			assert.Equal(t, tc.wantAtoB, edges[0].Value.Dec())

			assert.Equal(t, graph.BtoA, edges[1].Direction)
			assert.Equal(t, tokenB, edges[1].From)
			assert.Equal(t, tokenA, edges[1].To)
			assert.Equal(t, tc.wantBtoA, edges[1].Value.Dec())

			for _, e := range edges {
				assert.Equal(t, tc.pool.ID(), e.Pool)
			}
		})
	}
}

func TestNormalize_V4PoolIDCarriesKeyHash(t *testing.T) {
	pool := v4Pool(t)
	key, err := pool.Key.ID()
	require.NoError(t, err)
	assert.Equal(t, graph.PoolID{Address: pool.Manager, Key: key}, pool.ID())
}

func TestNormalize_SkipsFailedDirections(t *testing.T) {
	n := newTestNormalizer(t)
	pool := stubPool{
		id:   graph.PoolID{Address: common.HexToAddress("0x09")},
		a:    tokenA,
		b:    tokenB,
		out:  map[graph.Direction]*uint256.Int{graph.AtoB: uint256.NewInt(5)},
		errs: map[graph.Direction]error{graph.BtoA: errNoLiquidity},
	}

	edges, err := n.Normalize(pool)
	require.Len(t, edges, 1)
	assert.Equal(t, graph.AtoB, edges[0].Direction)
	assert.ErrorIs(t, err, errNoLiquidity)

	pool.errs = nil
	pool.out[graph.BtoA] = new(uint256.Int)
	edges, err = n.Normalize(pool)
	require.Len(t, edges, 1)
	assert.ErrorIs(t, err, ErrZeroQuote)
}

func TestNormalize_InvalidPools(t *testing.T) {
	n := newTestNormalizer(t)

	_, err := n.Normalize(nil)
	assert.ErrorIs(t, err, ErrNilPool)

	_, err = n.Normalize(stubPool{a: tokenA, b: tokenA})
	assert.ErrorIs(t, err, ErrSameToken)
}

func TestFeeder_ApplyWritesBothDirections(t *testing.T) {
	f, g := newTestFeeder(t)

	n, err := f.Apply(v2Pool(1, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, g.EdgesOf(tokenA), 1)
	require.Len(t, g.EdgesOf(tokenB), 1)
	assert.Equal(t, "1992013962079806", g.EdgesOf(tokenA)[0].Value.Dec())
	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.quotesUpserted.WithLabelValues("uniswapv2")))

	// a re-quote replaces the earlier edges
	_, err = f.Apply(v2Pool(1, 1))
	require.NoError(t, err)
	require.Len(t, g.EdgesOf(tokenA), 1)
	assert.Equal(t, "996006981039903", g.EdgesOf(tokenA)[0].Value.Dec())
}

func TestFeeder_ApplyDropsStaleDirection(t *testing.T) {
	f, g := newTestFeeder(t)
	pool := stubPool{
		id:  graph.PoolID{Address: common.HexToAddress("0x09")},
		a:   tokenA,
		b:   tokenB,
		out: map[graph.Direction]*uint256.Int{graph.AtoB: uint256.NewInt(5), graph.BtoA: uint256.NewInt(7)},
	}
	_, err := f.Apply(pool)
	require.NoError(t, err)
	require.Len(t, g.EdgesOf(tokenB), 1)

	pool.errs = map[graph.Direction]error{graph.BtoA: errNoLiquidity}
	n, err := f.Apply(pool)
	assert.Equal(t, 1, n)
	assert.ErrorIs(t, err, errNoLiquidity)
	assert.Len(t, g.EdgesOf(tokenA), 1)
	assert.Empty(t, g.EdgesOf(tokenB))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.quoteFailures.WithLabelValues("uniswapv2")))
}

func TestFeeder_ApplyRemovesUnquotablePool(t *testing.T) {
	f, g := newTestFeeder(t)
	pool := v2Pool(1, 1)
	_, err := f.Apply(pool)
	require.NoError(t, err)
	require.Equal(t, 2, g.EdgeCount())

	drained := pool
	drained.Reserve0 = new(uint256.Int)
	n, err := f.Apply(drained)
	assert.Equal(t, 0, n)
	assert.Error(t, err)
	assert.Equal(t, 0, g.EdgeCount())
	assert.Equal(t, 2, g.TokenCount(), "tokens stay in the graph")
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.poolsRemoved.WithLabelValues("uniswapv2")))
}

func TestFeeder_ApplyAll(t *testing.T) {
	f, g := newTestFeeder(t)
	drained := v2Pool(1, 1)
	drained.Address = common.HexToAddress("0x05")
	drained.Reserve1 = new(uint256.Int)

	applied := f.ApplyAll([]Pool{v2Pool(1, 1), v3Pool(), v4Pool(t), drained})
	assert.Equal(t, 3, applied)
	assert.Equal(t, 6, g.EdgeCount())
}

func TestNewFeeder_Validation(t *testing.T) {
	valid := FeederConfig{
		Graph:      graph.NewLiquidityGraph(0),
		Normalizer: newTestNormalizer(t),
		Registry:   prometheus.NewRegistry(),
		Logger:     slog.New(slog.DiscardHandler),
	}

	testCases := []struct {
		name   string
		mutate func(*FeederConfig)
		errMsg string
	}{
		{"missing graph", func(c *FeederConfig) { c.Graph = nil }, "Graph"},
		{"missing normalizer", func(c *FeederConfig) { c.Normalizer = nil }, "Normalizer"},
		{"missing registry", func(c *FeederConfig) { c.Registry = nil }, "Registry"},
		{"missing logger", func(c *FeederConfig) { c.Logger = nil }, "Logger"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			_, err := NewFeeder(&cfg)
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tc.errMsg))
		})
	}
}
