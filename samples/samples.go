// Package samples defines the sample records that tie a sample and
// case to its registered track files, the registration-time validation
// of those files, and a small file-backed registry used by the serving
// layer to resolve queries.
package samples

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// Record describes one registered sample and the indexed track files
// that belong to it.  Coverage and BAF files are required; counts and
// overview files are optional.  Every track file is paired with a
// tabix index sitting next to it.
type Record struct {
	ID          string `json:"id"`
	SampleID    string `json:"sampleId"`
	CaseID      string `json:"caseId"`
	GenomeBuild string `json:"genomeBuild,omitempty"`

	CoverageFile string `json:"coverageFile"`
	BAFFile      string `json:"bafFile"`
	CountsFile   string `json:"countsFile,omitempty"`
	OverviewFile string `json:"overviewFile,omitempty"`

	// CountsColumns holds the value column names declared by the
	// counts file header, in declaration order.  Populated at
	// registration time.
	CountsColumns []string `json:"countsColumns,omitempty"`
}

// HasCounts reports whether a counts track was registered for the
// sample.
func (r *Record) HasCounts() bool {
	return r.CountsFile != ""
}

// HasOverview reports whether a precomputed overview blob was
// registered for the sample.
func (r *Record) HasOverview() bool {
	return r.OverviewFile != ""
}

// ReadCountsColumns parses the value column names from the header of
// a counts track file.  The header is mandatory for counts files: a
// leading '#'-prefixed, tab-separated line whose first three names
// are positional (chromosome, start, end) and whose remaining names
// label the value series.
func ReadCountsColumns(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening counts file: %v", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decompressing counts file %s: %v", path, err)
	}
	defer gz.Close()

	header, _, err := peekHeader(bufio.NewReader(gz))
	if err != nil {
		return nil, fmt.Errorf("reading counts header from %s: %v", path, err)
	}
	if header == nil {
		return nil, fmt.Errorf("counts file %s is missing a header line", path)
	}
	if len(header) < 4 {
		return nil, fmt.Errorf("counts header in %s must declare at least one value column", path)
	}
	return header[3:], nil
}

// peekHeader reads leading lines from r and decides whether the file
// starts with a header.  It returns the header columns (nil when the
// file has none) and the first data line ("" at end of input).  Blank
// leading lines are skipped.
func peekHeader(r *bufio.Reader) ([]string, string, error) {
	line, err := firstNonBlankLine(r)
	if err != nil {
		return nil, "", err
	}
	if !strings.HasPrefix(line, "#") {
		return nil, line, nil
	}

	header := strings.Split(strings.TrimPrefix(line, "#"), "\t")
	data, err := firstNonBlankLine(r)
	if err != nil {
		return nil, "", err
	}
	return header, data, nil
}

func firstNonBlankLine(r *bufio.Reader) (string, error) {
	for {
		line, err := r.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			return line, nil
		}
		if err == io.EOF {
			return "", nil
		}
		if err != nil {
			return "", err
		}
	}
}
