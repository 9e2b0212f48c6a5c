package fees

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

// Binary fixed-point Q64.64 arithmetic. Values are unsigned 64.64 numbers
// carried in uint256 words; every operation floors toward zero. The fee
// engines only ever need non-negative quantities ≥ 0, and the logarithm only
// ever sees ratios ≥ 1, which keeps the whole pipeline unsigned.

var (
	errFixOverflow  = errors.New("fees: fixed-point overflow")
	errFixLogDomain = errors.New("fees: ln argument below one")
)

var (
	fixOne = new(uint256.Int).Lsh(uint256.NewInt(1), 64)
	// ln(2) in Q64.64.
	fixLn2 = uint256.MustFromHex("0xB17217F7D1CF79AB")
)

// fixMul returns a×b >> 64, flooring.
func fixMul(a, b *uint256.Int) (*uint256.Int, error) {
	prod, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, errFixOverflow
	}
	return prod.Rsh(prod, 64), nil
}

// fixDiv returns (a << 64) / b, flooring.
func fixDiv(a, b *uint256.Int) (*uint256.Int, error) {
	if b.IsZero() || a.BitLen() > 192 {
		return nil, errFixOverflow
	}
	num := new(uint256.Int).Lsh(a, 64)
	return num.Div(num, b), nil
}

// fixExp returns e^x for a non-negative Q64.64 x. The argument is reduced to
// [0, ln 2) and the remainder evaluated by Taylor series; twenty terms keep
// the truncation error below one ULP for the reduced range.
func fixExp(x *uint256.Int) (*uint256.Int, error) {
	k := new(uint256.Int).Div(x, fixLn2)
	if !k.IsUint64() || k.Uint64() > 128 {
		return nil, errFixOverflow
	}
	r := new(uint256.Int).Mod(x, fixLn2)

	sum := fixOne.Clone()
	term := fixOne.Clone()
	for n := uint64(1); n <= 20; n++ {
		next, err := fixMul(term, r)
		if err != nil {
			return nil, err
		}
		term = next.Div(next, uint256.NewInt(n))
		if term.IsZero() {
			break
		}
		sum.Add(sum, term)
	}
	shift := uint(k.Uint64())
	if sum.BitLen()+int(shift) > 256 {
		return nil, errFixOverflow
	}
	return sum.Lsh(sum, shift), nil
}

// fixLn returns ln(x) for a Q64.64 x ≥ 1, via binary-digit extraction of
// log₂(x) followed by a single multiply with ln(2).
func fixLn(x *uint256.Int) (*uint256.Int, error) {
	if x.Lt(fixOne) {
		return nil, errFixLogDomain
	}
	msb := x.BitLen() - 1
	result := new(uint256.Int).Lsh(uint256.NewInt(uint64(msb-64)), 64)

	// Normalize the mantissa into [2^127, 2^128) and extract 64 fraction
	// bits of log₂ by repeated squaring.
	ux := x.Clone()
	if msb <= 127 {
		ux.Lsh(ux, uint(127-msb))
	} else {
		ux.Rsh(ux, uint(msb-127))
	}
	bit := new(uint256.Int).Lsh(uint256.NewInt(1), 63)
	for i := 0; i < 64; i++ {
		square, overflow := new(uint256.Int).MulOverflow(ux, ux)
		if overflow {
			return nil, errFixOverflow
		}
		ux = square.Rsh(square, 127)
		if ux.BitLen() > 128 {
			ux.Rsh(ux, 1)
			result.Or(result, bit)
		}
		bit.Rsh(bit, 1)
	}
	return fixMul(result, fixLn2)
}

// fromBig converts a non-negative big.Int into the uint256 word the fixed
// kernels operate on.
func fromBig(v *big.Int) (*uint256.Int, error) {
	if v == nil || v.Sign() < 0 {
		return nil, errFixOverflow
	}
	word, overflow := uint256.FromBig(v)
	if overflow {
		return nil, errFixOverflow
	}
	return word, nil
}
