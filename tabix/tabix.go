// Package tabix reads range-restricted records out of bgzip-compressed,
// tab-separated track files through their tabix companion index.  The
// index is the black-box contract produced by the offline aggregation
// pipeline: logical sub-streams are addressed by a region key in the
// name column and the .tbi sibling maps (name, position range) to
// compressed file chunks.
package tabix

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/biogo/hts/bgzf"
	htstabix "github.com/biogo/hts/tabix"

	"github.com/Jakob37/gens/tracks"
)

// IndexSuffix is appended to a track file path to locate its
// companion index.
const IndexSuffix = ".tbi"

// maximumTargetLength bounds open-ended queries.  Tabix binning cannot
// address positions beyond 2^29, and no human contig comes close.
const maximumTargetLength = 1 << 29

// Opener opens a track file (or its index) for reading.  The
// indirection admits sources other than the local filesystem, such as
// GCS objects.
type Opener func(path string) (io.ReadSeekCloser, error)

// OpenLocal is the default Opener, backed by os.Open.
func OpenLocal(path string) (io.ReadSeekCloser, error) {
	return os.Open(path)
}

// IndexPath returns the path of the companion index assumed to sit
// next to the track file.
func IndexPath(path string) string {
	return path + IndexSuffix
}

// File is a read-only handle to one indexed track file.  The parsed
// index is retained and may be shared between concurrent queries; the
// compressed data file is reopened per query because bgzf readers are
// stateful.
type File struct {
	path   string
	opener Opener
	index  *htstabix.Index
	names  map[string]bool
}

// Open parses the tabix index next to path and returns a queryable
// handle.  The data file itself is not touched until the first query.
func Open(path string, opener Opener) (*File, error) {
	if opener == nil {
		opener = OpenLocal
	}

	raw, err := opener(IndexPath(path))
	if err != nil {
		return nil, fmt.Errorf("opening index for %s: %w", path, err)
	}
	defer raw.Close()

	// The .tbi file is itself bgzip compressed, which the stdlib gzip
	// reader handles as a multistream archive.
	gz, err := gzip.NewReader(raw)
	if err != nil {
		return nil, fmt.Errorf("decompressing index for %s: %v", path, err)
	}
	defer gz.Close()

	index, err := htstabix.ReadFrom(gz)
	if err != nil {
		return nil, fmt.Errorf("parsing index for %s: %v", path, err)
	}

	// ReadFrom returns a nil index for a .tbi with no references.
	names := make(map[string]bool)
	if index != nil {
		for _, name := range index.Names() {
			names[name] = true
		}
	}

	return &File{path: path, opener: opener, index: index, names: names}, nil
}

// Path returns the track file path this handle reads from.
func (f *File) Path() string {
	return f.path
}

// Has reports whether the index contains any records for the named
// sub-stream.
func (f *File) Has(name string) bool {
	return f.names[name]
}

// Query returns all records of the named sub-stream that overlap the
// half-open range [start, end), in file order.  A name missing from
// the index is an expected condition (tracks are sparse near contig
// ends and some contigs are absent entirely) and yields an empty
// result with a logged warning, never an error.  end <= 0 queries to
// the end of the sub-stream.  Degenerate ranges are not validated;
// the index scan simply finds nothing.
func (f *File) Query(name string, start, end int) ([]tracks.RawRecord, error) {
	if start < 0 {
		start = 0
	}
	if end <= 0 || end > maximumTargetLength {
		end = maximumTargetLength
	}

	if !f.names[name] {
		log.Printf("Warning: no index entry for %q in %s", name, f.path)
		return nil, nil
	}

	chunks, err := f.index.Chunks(name, start, end)
	if err != nil {
		log.Printf("Warning: index lookup for %q [%d, %d) in %s: %v", name, start, end, f.path, err)
		return nil, nil
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	raw, err := f.opener(f.path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", f.path, err)
	}
	defer raw.Close()

	bz, err := bgzf.NewReader(raw, 1)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %v", f.path, err)
	}
	defer bz.Close()

	if err := bz.Seek(chunks[0].Begin); err != nil {
		return nil, fmt.Errorf("seeking in %s: %v", f.path, err)
	}

	records, err := scanRegion(bz, name, start, end)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %v", f.path, err)
	}
	return records, nil
}

// scanRegion reads tab-separated lines from r, which is positioned at
// or before the first record of the named sub-stream, and collects
// the records overlapping [start, end).  Records of one name are
// contiguous and sorted by start position, so the scan stops at the
// first record past the window or belonging to a later name.
func scanRegion(r io.Reader, name string, start, end int) ([]tracks.RawRecord, error) {
	var (
		records []tracks.RawRecord
		seen    bool
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if fields[0] != name {
			if seen {
				break
			}
			continue
		}
		seen = true

		if len(fields) < 4 {
			return nil, fmt.Errorf("record %q has %d fields, want at least 4", line, len(fields))
		}
		recStart, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("record %q: bad start: %v", line, err)
		}
		recEnd, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("record %q: bad end: %v", line, err)
		}

		if recStart >= end {
			break
		}
		if recEnd <= start {
			continue
		}
		records = append(records, tracks.RawRecord(fields))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
