package tracks

import (
	"bytes"
	"encoding/json"

	"gopkg.in/guregu/null.v3"
)

// RawRecord is one tab-separated line from an indexed track file:
// region key, start, end, then one or more value fields.
type RawRecord = []string

// Kind selects between the two single-value track kinds.
type Kind string

// The single-value track kinds.
const (
	KindCoverage Kind = "coverage"
	KindBAF      Kind = "baf"
)

// PositionSeries holds a single-value track (coverage or allele
// balance) for one region: midpoint positions paired with one value
// each.  Region and Tier are null when the series is empty, because
// both are derived from the first record of the query result.
type PositionSeries struct {
	Region    null.String     `json:"region"`
	Tier      *ResolutionTier `json:"zoom"`
	Positions []int           `json:"position"`
	Values    []float64       `json:"value"`
}

// BinnedSeries holds a multi-column counts track for one region.  Each
// bin spans [Starts[i], Ends[i]) and carries one value per declared
// column.  Columns preserves the header declaration order and controls
// the order of the values object in JSON output.
type BinnedSeries struct {
	Region  null.String
	Tier    *ResolutionTier
	Starts  []int
	Ends    []int
	Columns []string
	Values  map[string][]float64
}

// MarshalJSON writes the series with the values object in declared
// column order.  A plain map field would serialize in sorted key
// order instead.
func (s BinnedSeries) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"region":`)
	region, err := json.Marshal(s.Region)
	if err != nil {
		return nil, err
	}
	buf.Write(region)
	buf.WriteString(`,"zoom":`)
	tier, err := json.Marshal(s.Tier)
	if err != nil {
		return nil, err
	}
	buf.Write(tier)
	buf.WriteString(`,"start":`)
	if err := writeJSON(&buf, emptySlice(s.Starts)); err != nil {
		return nil, err
	}
	buf.WriteString(`,"end":`)
	if err := writeJSON(&buf, emptySlice(s.Ends)); err != nil {
		return nil, err
	}
	buf.WriteString(`,"values":{`)
	for i, column := range s.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(column)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		values := s.Values[column]
		if values == nil {
			values = []float64{}
		}
		if err := writeJSON(&buf, values); err != nil {
			return nil, err
		}
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

func emptySlice(s []int) []int {
	if s == nil {
		return []int{}
	}
	return s
}
