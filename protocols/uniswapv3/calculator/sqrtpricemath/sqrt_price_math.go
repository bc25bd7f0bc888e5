// Package sqrtpricemath moves a Q64.96 square-root price by token amounts
// within a single liquidity range.
package sqrtpricemath

import (
	"errors"

	"github.com/holiman/uint256"
)

// Resolution is the number of fractional bits of a Q64.96 value.
const Resolution = 96

var (
	// Q96 is the Q64.96 fixed-point number representing 1.
	Q96 = new(uint256.Int).Lsh(uint256.NewInt(1), Resolution)

	ErrLiquidityZero = errors.New("liquidity must be greater than zero")
	ErrSqrtPriceZero = errors.New("sqrt price must be greater than zero")
	ErrOverflow      = errors.New("uint256 overflow")

	one = uint256.NewInt(1)
)

// mulDivRoundingUp writes ceil(a * b / c) into dest with a 512-bit intermediate.
func mulDivRoundingUp(dest, a, b, c *uint256.Int) (*uint256.Int, bool) {
	var rem uint256.Int
	if _, overflow := dest.MulDivOverflow(a, b, c); overflow {
		return dest, true
	}
	rem.MulMod(a, b, c)
	if rem.IsZero() {
		return dest, false
	}
	_, overflow := dest.AddOverflow(dest, one)
	return dest, overflow
}

// divRoundingUp writes ceil(a / b) into dest.
func divRoundingUp(dest, a, b *uint256.Int) *uint256.Int {
	var rem uint256.Int
	rem.Mod(a, b)
	dest.Div(a, b)
	if !rem.IsZero() {
		dest.Add(dest, one)
	}
	return dest
}

// GetNextSqrtPriceFromInput writes the price after adding amountIn of the
// input token. zeroForOne means token0 is the input and the price falls.
func GetNextSqrtPriceFromInput(dest, sqrtPX96, liquidity, amountIn *uint256.Int, zeroForOne bool) error {
	if sqrtPX96.IsZero() {
		return ErrSqrtPriceZero
	}
	if liquidity.IsZero() {
		return ErrLiquidityZero
	}

	if zeroForOne {
		return nextSqrtPriceFromAmount0RoundingUp(dest, sqrtPX96, liquidity, amountIn)
	}
	return nextSqrtPriceFromAmount1RoundingDown(dest, sqrtPX96, liquidity, amountIn)
}

// nextSqrtPriceFromAmount0RoundingUp computes L*Q96*sqrtP / (L*Q96 + amount*sqrtP),
// falling back to L*Q96 / (L*Q96/sqrtP + amount) when the product overflows.
func nextSqrtPriceFromAmount0RoundingUp(dest, sqrtPX96, liquidity, amount *uint256.Int) error {
	if amount.IsZero() {
		dest.Set(sqrtPX96)
		return nil
	}

	var numerator1, product, denominator uint256.Int
	numerator1.Lsh(liquidity, Resolution)

	if _, overflow := product.MulOverflow(amount, sqrtPX96); !overflow {
		if _, overflow := denominator.AddOverflow(&numerator1, &product); !overflow {
			if _, overflow := mulDivRoundingUp(dest, &numerator1, sqrtPX96, &denominator); overflow {
				return ErrOverflow
			}
			return nil
		}
	}

	denominator.Div(&numerator1, sqrtPX96)
	if _, overflow := denominator.AddOverflow(&denominator, amount); overflow {
		return ErrOverflow
	}
	divRoundingUp(dest, &numerator1, &denominator)
	return nil
}

// nextSqrtPriceFromAmount1RoundingDown computes sqrtP + amount*Q96/L.
func nextSqrtPriceFromAmount1RoundingDown(dest, sqrtPX96, liquidity, amount *uint256.Int) error {
	var quotient uint256.Int
	if _, overflow := quotient.MulDivOverflow(amount, Q96, liquidity); overflow {
		return ErrOverflow
	}
	if _, overflow := dest.AddOverflow(sqrtPX96, &quotient); overflow {
		return ErrOverflow
	}
	return nil
}

// GetAmount0Delta writes L*Q96*(sqrtB - sqrtA) / (sqrtB*sqrtA) into dest.
func GetAmount0Delta(dest, sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int, roundUp bool) error {
	if sqrtRatioAX96.Gt(sqrtRatioBX96) {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}
	if sqrtRatioAX96.IsZero() {
		return ErrSqrtPriceZero
	}

	var numerator1, numerator2, term uint256.Int
	numerator1.Lsh(liquidity, Resolution)
	numerator2.Sub(sqrtRatioBX96, sqrtRatioAX96)

	if roundUp {
		if _, overflow := mulDivRoundingUp(&term, &numerator1, &numerator2, sqrtRatioBX96); overflow {
			return ErrOverflow
		}
		divRoundingUp(dest, &term, sqrtRatioAX96)
		return nil
	}

	// the quotient is below numerator1, so it cannot overflow
	term.MulDivOverflow(&numerator1, &numerator2, sqrtRatioBX96)
	dest.Div(&term, sqrtRatioAX96)
	return nil
}

// GetAmount1Delta writes L*(sqrtB - sqrtA)/Q96 into dest.
func GetAmount1Delta(dest, sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int, roundUp bool) error {
	if sqrtRatioAX96.Gt(sqrtRatioBX96) {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}

	var diff uint256.Int
	diff.Sub(sqrtRatioBX96, sqrtRatioAX96)

	var overflow bool
	if roundUp {
		_, overflow = mulDivRoundingUp(dest, liquidity, &diff, Q96)
	} else {
		_, overflow = dest.MulDivOverflow(liquidity, &diff, Q96)
	}
	if overflow {
		return ErrOverflow
	}
	return nil
}
