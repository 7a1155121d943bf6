// Package num provides checked unsigned 128-bit arithmetic for share and
// asset accounting. Overflow and underflow are returned as errors, values
// never wrap.
package num

import (
	"math/big"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/satlayer/satlayer-restaking/library/types"
)

var maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// Uint128 is an immutable unsigned integer in [0, 2^128). The zero value is 0.
type Uint128 struct {
	v sdkmath.Uint
}

func Zero() Uint128 {
	return Uint128{v: sdkmath.ZeroUint()}
}

func NewUint128(n uint64) Uint128 {
	return Uint128{v: sdkmath.NewUint(n)}
}

// MaxUint128 returns 2^128 - 1.
func MaxUint128() Uint128 {
	return Uint128{v: sdkmath.NewUintFromBigInt(maxUint128)}
}

// ParseUint128 parses a base 10 string.
func ParseUint128(s string) (Uint128, error) {
	u, err := sdkmath.ParseUint(s)
	if err != nil {
		return Uint128{}, errorsmod.Wrapf(types.ErrInvalidInput, "invalid amount %q: %v", s, err)
	}
	return FromBig(u.BigInt())
}

// FromBig converts b, failing if it is negative or does not fit 128 bits.
func FromBig(b *big.Int) (Uint128, error) {
	if b.Sign() < 0 {
		return Uint128{}, errorsmod.Wrapf(types.ErrUnderflow, "negative value %s", b)
	}
	if b.Cmp(maxUint128) > 0 {
		return Uint128{}, errorsmod.Wrapf(types.ErrOverflow, "value %s exceeds 128 bits", b)
	}
	return Uint128{v: sdkmath.NewUintFromBigInt(b)}, nil
}

func (u Uint128) uint() sdkmath.Uint {
	if u.v == (sdkmath.Uint{}) {
		return sdkmath.ZeroUint()
	}
	return u.v
}

// BigInt returns a copy of the value.
func (u Uint128) BigInt() *big.Int {
	return u.uint().BigInt()
}

// Math returns the value as a cosmossdk.io/math Uint.
func (u Uint128) Math() sdkmath.Uint {
	return u.uint()
}

func (u Uint128) CheckedAdd(o Uint128) (Uint128, error) {
	sum := new(big.Int).Add(u.BigInt(), o.BigInt())
	if sum.Cmp(maxUint128) > 0 {
		return Uint128{}, errorsmod.Wrapf(types.ErrOverflow, "%s + %s", u, o)
	}
	return Uint128{v: sdkmath.NewUintFromBigInt(sum)}, nil
}

func (u Uint128) CheckedSub(o Uint128) (Uint128, error) {
	if u.LT(o) {
		return Uint128{}, errorsmod.Wrapf(types.ErrUnderflow, "%s - %s", u, o)
	}
	return Uint128{v: u.uint().Sub(o.uint())}, nil
}

func (u Uint128) CheckedMul(o Uint128) (Uint128, error) {
	prod := new(big.Int).Mul(u.BigInt(), o.BigInt())
	if prod.Cmp(maxUint128) > 0 {
		return Uint128{}, errorsmod.Wrapf(types.ErrOverflow, "%s * %s", u, o)
	}
	return Uint128{v: sdkmath.NewUintFromBigInt(prod)}, nil
}

// SaturatingSub returns u - o, or 0 when o > u.
func (u Uint128) SaturatingSub(o Uint128) Uint128 {
	if u.LT(o) {
		return Zero()
	}
	return Uint128{v: u.uint().Sub(o.uint())}
}

// MulDivFloor returns floor(u * numerator / denominator). The intermediate
// product is computed in full precision; only the result must fit 128 bits.
func (u Uint128) MulDivFloor(numerator, denominator Uint128) (Uint128, error) {
	if denominator.IsZero() {
		return Uint128{}, errorsmod.Wrap(types.ErrInvalidInput, "division by zero")
	}
	prod := new(big.Int).Mul(u.BigInt(), numerator.BigInt())
	return FromBig(prod.Quo(prod, denominator.BigInt()))
}

func (u Uint128) IsZero() bool { return u.uint().IsZero() }
func (u Uint128) Equal(o Uint128) bool { return u.uint().Equal(o.uint()) }
func (u Uint128) GT(o Uint128) bool { return u.uint().GT(o.uint()) }
func (u Uint128) GTE(o Uint128) bool { return u.uint().GTE(o.uint()) }
func (u Uint128) LT(o Uint128) bool { return u.uint().LT(o.uint()) }
func (u Uint128) LTE(o Uint128) bool { return u.uint().LTE(o.uint()) }
func (u Uint128) String() string { return u.uint().String() }

func (u Uint128) MarshalJSON() ([]byte, error) {
	return u.uint().MarshalJSON()
}

func (u *Uint128) UnmarshalJSON(bz []byte) error {
	var m sdkmath.Uint
	if err := m.UnmarshalJSON(bz); err != nil {
		return err
	}
	parsed, err := FromBig(m.BigInt())
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// Min returns the smaller of a and b.
func Min(a, b Uint128) Uint128 {
	if a.LT(b) {
		return a
	}
	return b
}
