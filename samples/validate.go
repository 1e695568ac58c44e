package samples

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// recordNamePattern is the naming convention for the region key of a
// track record: an alphanumeric tier token joined to a chromosome
// name from the human set.
var recordNamePattern = regexp.MustCompile(`^[A-Za-z0-9]+_(?:[1-9]|1[0-9]|2[0-2]|X|Y)$`)

// ValidationError reports the first rule a track file violated during
// registration.  There is no soft mode: a file that fails any rule is
// rejected outright.
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("track file %s: %s", e.Path, e.Reason)
}

func invalid(path, format string, args ...interface{}) error {
	return &ValidationError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// ValidateTrackFile checks a single-value (coverage or BAF) track file
// against the registration rules: readable gzip text, an optional
// '#'-prefixed header, a first data row whose region key follows the
// tier_chromosome naming convention, integer start/end fields and
// float value fields.  Only the first data row is inspected; this is a
// naming-convention sanity check, not an exhaustive scan.
func ValidateTrackFile(path string) error {
	_, _, err := validate(path, false)
	return err
}

// ValidateCountsFile checks a multi-column counts file.  On top of the
// single-value rules the header is mandatory, must declare at least
// one value column after the three positional ones, and the first data
// row must carry exactly the declared number of value fields.
func ValidateCountsFile(path string) error {
	header, row, err := validate(path, true)
	if err != nil {
		return err
	}
	if len(header) < 4 {
		return invalid(path, "counts header declares %d columns, want at least 4 (chromosome, start, end and one value column)", len(header))
	}
	if got, want := len(row)-3, len(header)-3; got != want {
		return invalid(path, "first data row has %d value fields, header declares %d", got, want)
	}
	return nil
}

// validateOverviewBlob checks that a precomputed overview blob exists
// and is readable as gzip.  Its JSON payload is not inspected here;
// registration only guards against dangling or mistyped paths.
func validateOverviewBlob(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return invalid(path, "cannot open: %v", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return invalid(path, "not readable as gzip: %v", err)
	}
	return gz.Close()
}

func validate(path string, requireHeader bool) ([]string, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, invalid(path, "cannot open: %v", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, nil, invalid(path, "not readable as gzip: %v", err)
	}
	defer gz.Close()

	header, firstData, err := peekHeader(bufio.NewReader(gz))
	if err != nil {
		return nil, nil, invalid(path, "reading leading lines: %v", err)
	}
	if requireHeader && header == nil {
		return nil, nil, invalid(path, "first line must be a header beginning with '#'")
	}
	if firstData == "" {
		return nil, nil, invalid(path, "no data rows found")
	}

	row := strings.Split(firstData, "\t")
	if len(row) < 4 {
		return nil, nil, invalid(path, "first data row has %d columns, want at least 4: %q", len(row), firstData)
	}

	if !recordNamePattern.MatchString(row[0]) {
		return nil, nil, invalid(path, "first column %q should combine tier and chromosome, like a_1 or d_X", row[0])
	}

	if _, err := strconv.Atoi(row[1]); err != nil {
		return nil, nil, invalid(path, "start field %q is not an integer", row[1])
	}
	if _, err := strconv.Atoi(row[2]); err != nil {
		return nil, nil, invalid(path, "end field %q is not an integer", row[2])
	}
	for _, field := range row[3:] {
		if _, err := strconv.ParseFloat(field, 64); err != nil {
			return nil, nil, invalid(path, "value field %q is not numeric", field)
		}
	}
	return header, row, nil
}
