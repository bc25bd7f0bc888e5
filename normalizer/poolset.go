package normalizer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	uniswapv2 "github.com/defistate/defistate-cycles-go/protocols/uniswapv2"
	uniswapv3 "github.com/defistate/defistate-cycles-go/protocols/uniswapv3"
	uniswapv4 "github.com/defistate/defistate-cycles-go/protocols/uniswapv4"
)

// PoolSet is a point-in-time dump of pool state, grouped by mechanism.
type PoolSet struct {
	UniswapV2 []uniswapv2.Pool `json:"uniswapV2"`
	UniswapV3 []uniswapv3.Pool `json:"uniswapV3"`
	UniswapV4 []uniswapv4.Pool `json:"uniswapV4"`
}

// DecodePoolSet reads a JSON pool set from r.
func DecodePoolSet(r io.Reader) (*PoolSet, error) {
	var set PoolSet
	if err := json.NewDecoder(r).Decode(&set); err != nil {
		return nil, fmt.Errorf("failed to decode pool set: %w", err)
	}
	return &set, nil
}

// LoadPoolSet reads a JSON pool set from the file at path.
func LoadPoolSet(path string) (*PoolSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pool set: %w", err)
	}
	defer f.Close()
	return DecodePoolSet(f)
}

// Len is the total number of pools in the set.
func (s *PoolSet) Len() int {
	return len(s.UniswapV2) + len(s.UniswapV3) + len(s.UniswapV4)
}

// Pools wraps every pool in its adapter. A v4 pool with an invalid key fails
// the whole set.
func (s *PoolSet) Pools() ([]Pool, error) {
	pools := make([]Pool, 0, s.Len())
	for _, p := range s.UniswapV2 {
		pools = append(pools, V2Pool{Pool: p})
	}
	for _, p := range s.UniswapV3 {
		pools = append(pools, V3Pool{Pool: p})
	}
	for i, p := range s.UniswapV4 {
		pool, err := NewV4Pool(p)
		if err != nil {
			return nil, fmt.Errorf("uniswapV4[%d]: %w", i, err)
		}
		pools = append(pools, pool)
	}
	return pools, nil
}
