package uniswapv2

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Pool is the state of a constant-product pair.
type Pool struct {
	Address  common.Address `json:"address"`
	Token0   common.Address `json:"token0"`
	Token1   common.Address `json:"token1"`
	Reserve0 *uint256.Int   `json:"reserve0"`
	Reserve1 *uint256.Int   `json:"reserve1"`
	FeeBps   uint16         `json:"feeBps"` // i.e 30 for 0.3%
}
