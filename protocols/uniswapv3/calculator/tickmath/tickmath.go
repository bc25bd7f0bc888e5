// Package tickmath converts between ticks and Q64.96 square-root prices.
package tickmath

import (
	"errors"

	"github.com/holiman/uint256"
)

const (
	// MinTick is the minimum tick that may be passed to GetSqrtRatioAtTick.
	MinTick int32 = -887272
	// MaxTick is the maximum tick that may be passed to GetSqrtRatioAtTick.
	MaxTick int32 = 887272
)

var (
	// MinSqrtRatio is the value GetSqrtRatioAtTick returns for MinTick.
	MinSqrtRatio = uint256.MustFromDecimal("4295128739")
	// MaxSqrtRatio is the value GetSqrtRatioAtTick returns for MaxTick.
	MaxSqrtRatio = uint256.MustFromDecimal("1461446703485210103287273052203988822378723970342")

	ErrTickOutOfBounds      = errors.New("tick out of bounds")
	ErrSqrtPriceOutOfBounds = errors.New("sqrt price out of bounds")

	one        = uint256.NewInt(1)
	maxUint256 = new(uint256.Int).SetAllOne()
	roundMask  = uint256.NewInt(0xffffffff)

	// sqrt(1.0001^(2^i)) in UQ128.128 for i in 0..19.
	ratioConstants = [20]*uint256.Int{
		uint256.MustFromHex("0xfffcb933bd6fad37aa2d162d1a594001"),
		uint256.MustFromHex("0xfff97272373d413259a46990580e213a"),
		uint256.MustFromHex("0xfff2e50f5f656932ef12357cf3c7fdcc"),
		uint256.MustFromHex("0xffe5caca7e10e4e61c3624eaa0941cd0"),
		uint256.MustFromHex("0xffcb9843d60f6159c9db58835c926644"),
		uint256.MustFromHex("0xff973b41fa98c081472e6896dfb254c0"),
		uint256.MustFromHex("0xff2ea16466c96a3843ec78b326b52861"),
		uint256.MustFromHex("0xfe5dee046a99a2a811c461f1969c3053"),
		uint256.MustFromHex("0xfcbe86c7900a88aedcffc83b479aa3a4"),
		uint256.MustFromHex("0xf987a7253ac413176f2b074cf7815e54"),
		uint256.MustFromHex("0xf3392b0822b70005940c7a398e4b70f3"),
		uint256.MustFromHex("0xe7159475a2c29b7443b29c7fa6e889d9"),
		uint256.MustFromHex("0xd097f3bdfd2022b8845ad8f792aa5825"),
		uint256.MustFromHex("0xa9f746462d870fdf8a65dc1f90e061e5"),
		uint256.MustFromHex("0x70d869a156d2a1b890bb3df62baf32f7"),
		uint256.MustFromHex("0x31be135f97d08fd981231505542fcfa6"),
		uint256.MustFromHex("0x9aa508b5b7a84e1c677de54f3e99bc9"),
		uint256.MustFromHex("0x5d6af8dedb81196699c329225ee604"),
		uint256.MustFromHex("0x2216e584f5fa1ea926041bedfe98"),
		uint256.MustFromHex("0x48a170391f7dc42444e8fa2"),
	}

	// oneX128 is 1 in UQ128.128.
	oneX128 = new(uint256.Int).Lsh(one, 128)
)

// GetSqrtRatioAtTick writes sqrt(1.0001^tick) * 2^96 into dest.
func GetSqrtRatioAtTick(dest *uint256.Int, tick int32) error {
	if tick < MinTick || tick > MaxTick {
		return ErrTickOutOfBounds
	}

	absTick := int64(tick)
	if absTick < 0 {
		absTick = -absTick
	}

	var ratio, rem uint256.Int
	if absTick&1 != 0 {
		ratio.Set(ratioConstants[0])
	} else {
		ratio.Set(oneX128)
	}
	for i := 1; i < len(ratioConstants); i++ {
		if absTick&(1<<i) != 0 {
			ratio.Mul(&ratio, ratioConstants[i]).Rsh(&ratio, 128)
		}
	}

	if tick > 0 {
		ratio.Div(maxUint256, &ratio)
	}

	// Q128.128 -> Q64.96, rounding up.
	rem.And(&ratio, roundMask)
	dest.Rsh(&ratio, 32)
	if !rem.IsZero() {
		dest.Add(dest, one)
	}
	return nil
}

// GetTickAtSqrtRatio returns the greatest tick whose sqrt ratio is <= sqrtPriceX96.
func GetTickAtSqrtRatio(sqrtPriceX96 *uint256.Int) (int32, error) {
	if sqrtPriceX96.Lt(MinSqrtRatio) || !sqrtPriceX96.Lt(MaxSqrtRatio) {
		return 0, ErrSqrtPriceOutOfBounds
	}

	low, high := MinTick, MaxTick
	var (
		tick  int32
		ratio uint256.Int
	)
	for low <= high {
		mid := low + (high-low)/2
		if err := GetSqrtRatioAtTick(&ratio, mid); err != nil {
			return 0, err
		}
		if !sqrtPriceX96.Lt(&ratio) {
			tick = mid
			low = mid + 1
		} else {
			high = mid - 1
		}
	}
	return tick, nil
}
