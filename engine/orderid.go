package engine

import (
	"math/big"

	"cosmossdk.io/math"
)

// Side identifies which side of a market an order or book rests on.
type Side uint8

const (
	SideBid Side = iota
	SideAsk
)

func (s Side) String() string {
	if s == SideBid {
		return "bid"
	}
	return "ask"
}

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == SideBid {
		return SideAsk
	}
	return SideBid
}

var (
	mask64 = new(big.Int).SetUint64(^uint64(0))
)

// EncodeOrderID packs (side, price, seq) into the 128-bit sortable key
// described by the data model: bids invert price so the best (highest)
// bid produces the numerically smallest key; asks use price directly so
// the best (lowest) ask is already the smallest key.
//
// price must be > 0 (callers validate this upstream; the codec itself
// does not special-case zero).
func EncodeOrderID(side Side, price, seq uint64) math.Int {
	hi := price
	if side == SideBid {
		hi = ^price
	}
	bi := new(big.Int).SetUint64(hi)
	bi.Lsh(bi, 64)
	lo := new(big.Int).SetUint64(seq)
	bi.Or(bi, lo)
	return math.NewIntFromBigInt(bi)
}

// DecodeOrderIDPrice recovers the price field for the given side.
func DecodeOrderIDPrice(side Side, id math.Int) uint64 {
	bi := id.BigInt()
	hi := new(big.Int).Rsh(bi, 64)
	hi.And(hi, mask64)
	v := hi.Uint64()
	if side == SideBid {
		v = ^v
	}
	return v
}

// DecodeOrderIDSeq recovers the sequence number component.
func DecodeOrderIDSeq(id math.Int) uint64 {
	bi := id.BigInt()
	lo := new(big.Int).And(bi, mask64)
	return lo.Uint64()
}

// bitAt returns the bit of id at position pos, where pos 0 is the LSB and
// pos 127 is the MSB — matching the book tree's prefix_len convention
// ("0-127, 127 = MSB").
func bitAt(id math.Int, pos int) uint {
	return uint(id.BigInt().Bit(pos))
}
