package tracks

import (
	"fmt"
	"math"
	"math/big"
)

// maxDenominator caps the rational approximation of the downsample
// fraction.  A short keep/drop cycle keeps the pattern memory-bounded
// and the output reproducible for any float input.
const maxDenominator = 1000

// Downsample thins records to approximately the target fraction while
// preserving order.  The fraction is approximated as a reduced
// rational n/d with d <= 1000 and the stream is filtered with a cyclic
// pattern that keeps the first n records of every d.
//
// This is systematic decimation for plotting, not statistical
// sampling: the kept records are grouped at the start of each cycle,
// so the result is biased.  Callers that need an unbiased sample must
// not use it.
func Downsample(records []RawRecord, fraction float64) ([]RawRecord, error) {
	if math.IsNaN(fraction) || fraction <= 0 || fraction > 1 {
		return nil, fmt.Errorf("downsample fraction %v outside (0, 1]", fraction)
	}
	if fraction == 1 {
		return records, nil
	}

	keep, cycle := limitDenominator(fraction, maxDenominator)
	if keep == 0 {
		return []RawRecord{}, nil
	}

	out := make([]RawRecord, 0, len(records)*keep/cycle+keep)
	for i, record := range records {
		if i%cycle < keep {
			out = append(out, record)
		}
	}
	return out, nil
}

// limitDenominator returns the closest rational n/d to f with
// d <= maxDen, as a reduced fraction.  It walks the continued fraction
// expansion of the exact binary value of f and then compares the two
// bounding semiconvergents, the same scheme Fraction.limit_denominator
// uses.
func limitDenominator(f float64, maxDen int64) (int, int) {
	rat := new(big.Rat).SetFloat64(f)
	n := new(big.Int).Set(rat.Num())
	d := new(big.Int).Set(rat.Denom())

	limit := big.NewInt(maxDen)
	if d.Cmp(limit) <= 0 {
		return int(n.Int64()), int(d.Int64())
	}

	p0, q0 := big.NewInt(0), big.NewInt(1)
	p1, q1 := big.NewInt(1), big.NewInt(0)
	for {
		a := new(big.Int).Div(n, d)
		q2 := new(big.Int).Add(q0, new(big.Int).Mul(a, q1))
		if q2.Cmp(limit) > 0 {
			break
		}
		p2 := new(big.Int).Add(p0, new(big.Int).Mul(a, p1))
		p0, q0, p1, q1 = p1, q1, p2, q2
		n, d = d, new(big.Int).Sub(n, new(big.Int).Mul(a, d))
	}

	k := new(big.Int).Div(new(big.Int).Sub(limit, q0), q1)
	bound1Num := new(big.Int).Add(p0, new(big.Int).Mul(k, p1))
	bound1Den := new(big.Int).Add(q0, new(big.Int).Mul(k, q1))

	bound1 := new(big.Rat).SetFrac(bound1Num, bound1Den)
	bound2 := new(big.Rat).SetFrac(p1, q1)

	diff1 := new(big.Rat).Sub(bound1, rat)
	diff2 := new(big.Rat).Sub(bound2, rat)
	if diff2.Abs(diff2).Cmp(diff1.Abs(diff1)) <= 0 {
		return int(bound2.Num().Int64()), int(bound2.Denom().Int64())
	}
	return int(bound1.Num().Int64()), int(bound1.Denom().Int64())
}
