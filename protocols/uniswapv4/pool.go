package uniswapv4

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

const (
	// DynamicFeeFlag marks a key whose LP fee is set by its hook.
	DynamicFeeFlag uint32 = 0x800000
	// MaxLPFee is 100% in hundredths of a bip.
	MaxLPFee uint32 = 1_000_000

	MinTickSpacing int32 = 1
	MaxTickSpacing int32 = 32767
)

var (
	ErrCurrenciesOutOfOrder = errors.New("currency0 must sort below currency1")
	ErrInvalidFee           = errors.New("invalid lp fee")
	ErrInvalidTickSpacing   = errors.New("invalid tick spacing")

	poolKeyArguments = mustPoolKeyArguments()
)

func mustPoolKeyArguments() abi.Arguments {
	address, err := abi.NewType("address", "", nil)
	if err != nil {
		panic(err)
	}
	uint24, err := abi.NewType("uint24", "", nil)
	if err != nil {
		panic(err)
	}
	int24, err := abi.NewType("int24", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{
		{Name: "currency0", Type: address},
		{Name: "currency1", Type: address},
		{Name: "fee", Type: uint24},
		{Name: "tickSpacing", Type: int24},
		{Name: "hooks", Type: address},
	}
}

// PoolKey identifies a pool inside the singleton pool manager. The zero
// address as a currency is the native asset.
type PoolKey struct {
	Currency0   common.Address `json:"currency0"`
	Currency1   common.Address `json:"currency1"`
	Fee         uint32         `json:"fee"`
	TickSpacing int32          `json:"tickSpacing"`
	Hooks       common.Address `json:"hooks"`
}

// Validate checks the invariants the pool manager enforces on initialize.
func (k PoolKey) Validate() error {
	if k.Currency0.Cmp(k.Currency1) >= 0 {
		return fmt.Errorf("%w: %s >= %s", ErrCurrenciesOutOfOrder, k.Currency0, k.Currency1)
	}
	if !k.IsDynamicFee() && k.Fee > MaxLPFee {
		return fmt.Errorf("%w: %d", ErrInvalidFee, k.Fee)
	}
	if k.TickSpacing < MinTickSpacing || k.TickSpacing > MaxTickSpacing {
		return fmt.Errorf("%w: %d", ErrInvalidTickSpacing, k.TickSpacing)
	}
	return nil
}

// IsDynamicFee reports whether the LP fee comes from pool state rather than the key.
func (k PoolKey) IsDynamicFee() bool {
	return k.Fee == DynamicFeeFlag
}

// Encode returns abi.encode(currency0, currency1, fee, tickSpacing, hooks).
func (k PoolKey) Encode() ([]byte, error) {
	return poolKeyArguments.Pack(
		k.Currency0,
		k.Currency1,
		new(big.Int).SetUint64(uint64(k.Fee)),
		big.NewInt(int64(k.TickSpacing)),
		k.Hooks,
	)
}

// ID is keccak256 of the ABI-encoded key, the pool id used by the pool manager.
func (k PoolKey) ID() (common.Hash, error) {
	encoded, err := k.Encode()
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(encoded), nil
}

// Pool is the current-range state of a v4 pool. Hooks are not simulated.
type Pool struct {
	Manager      common.Address `json:"manager"`
	Key          PoolKey        `json:"key"`
	LPFee        uint32         `json:"lpFee"` // used when Key carries the dynamic fee flag
	Tick         int32          `json:"tick"`
	Liquidity    *uint256.Int   `json:"liquidity"`
	SqrtPriceX96 *uint256.Int   `json:"sqrtPriceX96"`
}

// Fee returns the LP fee in effect for swaps.
func (p Pool) Fee() uint32 {
	if p.Key.IsDynamicFee() {
		return p.LPFee
	}
	return p.Key.Fee
}
