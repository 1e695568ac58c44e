package tracks

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/guregu/null.v3"
)

// MalformedRecordError reports a record whose positional or value
// fields could not be parsed.  It is fatal for the whole call; partial
// series are never returned.
type MalformedRecordError struct {
	Field string
	Cause error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed track record: bad %s field: %v", e.Field, e.Cause)
}

// ColumnMismatchError reports a counts row whose value field count
// disagrees with the declared header columns.  Fatal: the file is
// corrupt or mis-declared, rows are never truncated or padded.
type ColumnMismatchError struct {
	Declared int
	Found    int
}

func (e *ColumnMismatchError) Error() string {
	return fmt.Sprintf("counts record has %d value fields, header declares %d columns", e.Found, e.Declared)
}

// ParsePositionSeries converts raw records into a position/value
// series.  Region and tier come from the first record's region key;
// an empty record set is a valid result and yields a series with null
// region and tier.  The reported position is the bin midpoint,
// round((start+end)/2) with ties rounded away from zero.
func ParsePositionSeries(records []RawRecord) (PositionSeries, error) {
	series := PositionSeries{
		Positions: []int{},
		Values:    []float64{},
	}

	if len(records) > 0 {
		tier, region, err := splitRegionKey(records[0][0])
		if err != nil {
			return PositionSeries{}, err
		}
		series.Region = null.StringFrom(region)
		series.Tier = &tier
	}

	for _, record := range records {
		if len(record) < 4 {
			return PositionSeries{}, &MalformedRecordError{
				Field: "count",
				Cause: fmt.Errorf("got %d fields, want at least 4", len(record)),
			}
		}
		start, end, err := parseSpan(record)
		if err != nil {
			return PositionSeries{}, err
		}
		value, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			return PositionSeries{}, &MalformedRecordError{Field: "value", Cause: err}
		}
		series.Positions = append(series.Positions, midpoint(start, end))
		series.Values = append(series.Values, value)
	}
	return series, nil
}

// ParseBinnedSeries converts raw records into a multi-column counts
// series using the declared value column names.  Every record must
// carry exactly len(columns) value fields.
func ParseBinnedSeries(records []RawRecord, columns []string) (BinnedSeries, error) {
	series := BinnedSeries{
		Starts:  []int{},
		Ends:    []int{},
		Columns: columns,
		Values:  make(map[string][]float64, len(columns)),
	}
	for _, column := range columns {
		series.Values[column] = []float64{}
	}

	if len(records) > 0 {
		tier, region, err := splitRegionKey(records[0][0])
		if err != nil {
			return BinnedSeries{}, err
		}
		series.Region = null.StringFrom(region)
		series.Tier = &tier
	}

	for _, record := range records {
		if len(record) < 3 {
			return BinnedSeries{}, &MalformedRecordError{
				Field: "count",
				Cause: fmt.Errorf("got %d fields, want at least 4", len(record)),
			}
		}
		if len(record)-3 != len(columns) {
			return BinnedSeries{}, &ColumnMismatchError{
				Declared: len(columns),
				Found:    len(record) - 3,
			}
		}
		start, end, err := parseSpan(record)
		if err != nil {
			return BinnedSeries{}, err
		}
		values := make([]float64, len(columns))
		for i, field := range record[3:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return BinnedSeries{}, &MalformedRecordError{Field: columns[i], Cause: err}
			}
			values[i] = v
		}
		series.Starts = append(series.Starts, start)
		series.Ends = append(series.Ends, end)
		for i, column := range columns {
			series.Values[column] = append(series.Values[column], values[i])
		}
	}
	return series, nil
}

func splitRegionKey(field string) (ResolutionTier, string, error) {
	parts := strings.SplitN(field, "_", 2)
	if len(parts) != 2 {
		return "", "", &MalformedRecordError{
			Field: "region key",
			Cause: fmt.Errorf("%q does not contain a tier prefix", field),
		}
	}
	tier, err := ParseTier(parts[0])
	if err != nil {
		return "", "", &MalformedRecordError{Field: "region key", Cause: err}
	}
	return tier, parts[1], nil
}

func parseSpan(record RawRecord) (int, int, error) {
	start, err := strconv.Atoi(record[1])
	if err != nil {
		return 0, 0, &MalformedRecordError{Field: "start", Cause: err}
	}
	end, err := strconv.Atoi(record[2])
	if err != nil {
		return 0, 0, &MalformedRecordError{Field: "end", Cause: err}
	}
	return start, end, nil
}

// midpoint rounds (start+end)/2 to the nearest integer with .5 rounded
// away from zero.  Coordinates are non-negative in practice.
func midpoint(start, end int) int {
	sum := start + end
	if sum >= 0 {
		return (sum + 1) / 2
	}
	return -((-sum + 1) / 2)
}
