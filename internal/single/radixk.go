package single

import (
	"github.com/icet-go/icet/internal/comm"
)

// Factorize decomposes n into factors no greater than k (falling back
// to a single larger factor only when n has no divisor ≤ k left to
// peel off, e.g. n itself prime and greater than k), each factor ≥ 2.
// Since every factor contributes at least a doubling, the factor count
// never exceeds floor(log2(n)) (spec S6).
func Factorize(n, k int) []int {
	if n <= 1 {
		return nil
	}
	if k < 2 {
		k = 2
	}
	var factors []int
	remaining := n
	for remaining > 1 {
		f := largestDivisorAtMost(remaining, k)
		factors = append(factors, f)
		remaining /= f
	}
	return factors
}

func largestDivisorAtMost(n, k int) int {
	cap := k
	if cap > n {
		cap = n
	}
	for d := cap; d >= 2; d-- {
		if n%d == 0 {
			return d
		}
	}
	return n
}

// RadixK generalizes BinarySwap to arbitrary group sizes: Factorize
// splits len(Group) into factors (bounded by the context's configured
// magic k), and each round partitions the current pixel range into
// factors[r] pieces instead of always 2, exchanging with all
// factors[r]-1 partners that share every other digit of a mixed-radix
// rank decomposition. With every factor equal to 2 this degenerates to
// BinarySwap's exchange pattern exactly.
//
// Shares BinarySwap's restriction to commutative (Z-buffer) composite
// modes, for the same reason: image-space splitting discards the
// contributing processes' relative composite order.
func RadixK(k int) Strategy {
	return func(p Params) ([]byte, error) {
		idx := selfIndex(p.Group, p.Self)
		if idx < 0 {
			return nil, comm.ErrInvalidOperation
		}
		n := len(p.Group)
		factors := Factorize(n, k)

		regionStart, regionEnd := 0, p.Desc.NumPixels()
		acc := p.Local
		stride := 1

		for r, f := range factors {
			digit := (idx / stride) % f
			groupBase := idx - digit*stride

			bounds := partitionRange(regionStart, regionEnd, f)
			myStart, myEnd := bounds[digit], bounds[digit+1]

			type recvResult struct {
				data []byte
				err  error
			}
			results := make(chan recvResult, f-1)
			for d := 0; d < f; d++ {
				if d == digit {
					continue
				}
				partner := p.Group[groupBase+d*stride]
				tag := pairTag(p.Tag, r, digit, d)
				sendPart := extractRangeOrNil(acc, p.Desc, regionStart, regionEnd, bounds[d], bounds[d+1])
				go func(partner, tag int, sendPart []byte) {
					recvPart, err := exchange(p.Comm, partner, tag, sendPart)
					results <- recvResult{recvPart, err}
				}(partner, tag, sendPart)
			}

			merged := extractRangeOrNil(acc, p.Desc, regionStart, regionEnd, myStart, myEnd)
			var firstErr error
			for i := 0; i < f-1; i++ {
				res := <-results
				if res.err != nil && firstErr == nil {
					firstErr = res.err
					continue
				}
				if firstErr != nil {
					continue
				}
				m, err := mergeRange(merged, res.data, p.Desc, myStart, myEnd, p.Mode)
				if err != nil {
					firstErr = err
					continue
				}
				merged = m
			}
			if firstErr != nil {
				return nil, firstErr
			}

			acc, regionStart, regionEnd = merged, myStart, myEnd
			stride *= f
		}

		return gatherPieces(p, acc, regionStart, regionEnd)
	}
}

// partitionRange splits [start, end) into count nearly-equal,
// contiguous sub-ranges, returning count+1 boundaries.
func partitionRange(start, end, count int) []int {
	length := end - start
	bounds := make([]int, count+1)
	for i := 0; i <= count; i++ {
		bounds[i] = start + length*i/count
	}
	return bounds
}

// pairTag derives a tag shared by both sides of a round's directed
// exchange between the processes at digits a and b, independent of
// which side is calling (so sender and receiver agree on the tag
// without needing a separate handshake).
func pairTag(base, round, a, b int) int {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	return base + round*10007 + lo*101 + hi
}
