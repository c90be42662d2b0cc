package optimizer

import (
	"math/bits"

	"github.com/compilium/compilium-go/pkg/cabs"
)

var shiftFor = map[string]string{
	"/":  ">>",
	"/=": ">>=",
}

// StrengthReduction rewrites x / 2^k into x >> k and x /= 2^k into
// x >>= k, in place. The divisor must be a non-negative integer literal
// with exactly one bit set.
//
// The left operand is assumed non-negative: for a negative dividend the
// shift rounds toward negative infinity where the division truncates
// toward zero, so -7 / 2 is -3 but -7 >> 1 is -4.
func StrengthReduction(n cabs.Node) bool {
	b, ok := n.(*cabs.BinaryOp)
	if !ok {
		return false
	}
	shift, ok := shiftFor[b.Op.Text]
	if !ok {
		return false
	}
	r, ok := b.Right.(*cabs.IntegerLiteral)
	if !ok || r.Value < 0 || bits.OnesCount64(uint64(r.Value)) != 1 {
		return false
	}
	b.Op.Text = shift
	b.Right = literal(int64(bits.TrailingZeros64(uint64(r.Value))), r.Token)
	return true
}
