package tracks

import (
	"fmt"
	"math"
	"reflect"
	"testing"
)

func makeRecords(n int) []RawRecord {
	records := make([]RawRecord, n)
	for i := range records {
		records[i] = RawRecord{"a_1", fmt.Sprint(i * 100), fmt.Sprint(i*100 + 100), "1.0"}
	}
	return records
}

func TestDownsampleIdentity(t *testing.T) {
	records := makeRecords(10)
	out, err := Downsample(records, 1)
	if err != nil {
		t.Fatalf("Downsample() returned unexpected error: %v", err)
	}
	if !reflect.DeepEqual(out, records) {
		t.Errorf("Downsample(records, 1) is not the identity: got %d records, want %d", len(out), len(records))
	}
}

func TestDownsampleRejectsBadFractions(t *testing.T) {
	for _, fraction := range []float64{0, -0.5, 1.1, 2, math.NaN()} {
		if _, err := Downsample(makeRecords(10), fraction); err == nil {
			t.Errorf("Downsample(records, %v) did not fail", fraction)
		}
	}
}

func TestDownsampleLength(t *testing.T) {
	testCases := []struct {
		fraction float64
		length   int
		cycle    int
	}{
		{0.5, 1000, 2},
		{0.25, 1000, 4},
		{0.1, 1000, 10},
		{1.0 / 3.0, 999, 3},
		{0.9, 1000, 10},
	}

	for _, tc := range testCases {
		out, err := Downsample(makeRecords(tc.length), tc.fraction)
		if err != nil {
			t.Fatalf("Downsample(records, %v) returned unexpected error: %v", tc.fraction, err)
		}
		want := int(math.Round(float64(tc.length) * tc.fraction))
		if got := len(out); got < want-tc.cycle || got > want+tc.cycle {
			t.Errorf("Downsample(%d records, %v) kept %d, want %d within one cycle (%d)", tc.length, tc.fraction, got, want, tc.cycle)
		}
	}
}

func TestDownsamplePreservesOrder(t *testing.T) {
	records := makeRecords(100)
	out, err := Downsample(records, 0.3)
	if err != nil {
		t.Fatalf("Downsample() returned unexpected error: %v", err)
	}

	last := -1
	for _, record := range out {
		index := -1
		for i, original := range records {
			if reflect.DeepEqual(original, record) {
				index = i
				break
			}
		}
		if index <= last {
			t.Fatalf("Output is not an order-preserving subsequence: index %d after %d", index, last)
		}
		last = index
	}
}

// The keep pattern is a block: for n/d the first n records of every
// cycle of d survive.  This bias is deliberate and pinned here so a
// well-meant "fix" to an interleaved stride shows up as a failure.
func TestDownsampleBlockPattern(t *testing.T) {
	records := makeRecords(10)
	out, err := Downsample(records, 0.4)
	if err != nil {
		t.Fatalf("Downsample() returned unexpected error: %v", err)
	}

	// 0.4 reduces to 2/5: positions 0,1 and 5,6 survive.
	want := []RawRecord{records[0], records[1], records[5], records[6]}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("Wrong records kept: got %v, want %v", out, want)
	}
}

func TestLimitDenominator(t *testing.T) {
	testCases := []struct {
		fraction float64
		num, den int
	}{
		{0.5, 1, 2},
		{0.25, 1, 4},
		{0.4, 2, 5},
		{1.0 / 3.0, 1, 3},
		{2.0 / 3.0, 2, 3},
		{0.333, 333, 1000},
	}

	for _, tc := range testCases {
		num, den := limitDenominator(tc.fraction, maxDenominator)
		if num != tc.num || den != tc.den {
			t.Errorf("limitDenominator(%v) = %d/%d, want %d/%d", tc.fraction, num, den, tc.num, tc.den)
		}
	}
}
