// Package overview produces genome-wide low-resolution series, either
// from a precomputed gzip JSON blob or by walking every chromosome of
// an indexed track at the coarsest tier.
package overview

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"

	"gopkg.in/guregu/null.v3"

	"github.com/Jakob37/gens/tracks"
)

// MissingBlobError reports an absent overview blob.  Unlike a sparse
// region this is fatal: a registered overview file that has gone
// missing means the sample's data set is broken.
type MissingBlobError struct {
	Path string
}

func (e *MissingBlobError) Error() string {
	return fmt.Sprintf("overview file %s is not found", e.Path)
}

// Querier is the part of the track store the derived strategy needs:
// index membership and range-restricted record retrieval.
type Querier interface {
	Has(name string) bool
	Query(name string, start, end int) ([]tracks.RawRecord, error)
}

// chromData mirrors one chromosome entry of the blob: parallel
// [position, value] pairs for each single-value kind.
type chromData struct {
	Cov [][2]float64 `json:"cov"`
	Baf [][2]float64 `json:"baf"`
}

// FromBlob reads a precomputed overview blob and returns one series
// per chromosome present in it, in the blob's own key order.  The blob
// is a gzip-compressed JSON object keyed by chromosome name.
func FromBlob(path string, kind tracks.Kind) ([]tracks.PositionSeries, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, &MissingBlobError{Path: path}
	}
	if err != nil {
		return nil, fmt.Errorf("opening overview file %s: %v", path, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decompressing overview file %s: %v", path, err)
	}
	defer gz.Close()

	// Decoding token by token keeps the chromosomes in the order the
	// blob declares them, which a plain map would not.
	dec := json.NewDecoder(gz)
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("parsing overview file %s: %v", path, err)
	}

	var results []tracks.PositionSeries
	for dec.More() {
		token, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parsing overview file %s: %v", path, err)
		}
		chromosome, ok := token.(string)
		if !ok {
			return nil, fmt.Errorf("parsing overview file %s: unexpected token %v", path, token)
		}

		var data chromData
		if err := dec.Decode(&data); err != nil {
			return nil, fmt.Errorf("parsing overview data for chromosome %s: %v", chromosome, err)
		}

		pairs := data.Cov
		if kind == tracks.KindBAF {
			pairs = data.Baf
		}

		series := tracks.PositionSeries{
			Region:    null.StringFrom(chromosome),
			Positions: make([]int, len(pairs)),
			Values:    make([]float64, len(pairs)),
		}
		for i, pair := range pairs {
			series.Positions[i] = int(math.Round(pair[0]))
			series.Values[i] = pair[1]
		}
		results = append(results, series)
	}
	return results, nil
}

// FromStore derives overview series by querying the coarsest tier of
// every chromosome in the canonical ordering, plus any extra contigs.
// A chromosome absent from the index is skipped with a log line; the
// remaining chromosomes are still processed, so the result may
// legitimately cover fewer chromosomes than the genome declares.
func FromStore(store Querier, extraContigs ...string) ([]tracks.PositionSeries, error) {
	chromosomes := append(append([]string{}, tracks.Chromosomes...), extraContigs...)

	var results []tracks.PositionSeries
	for _, chromosome := range chromosomes {
		key := tracks.RegionKey{Tier: tracks.TierOverview, Chromosome: chromosome}
		if !store.Has(key.String()) {
			log.Printf("Skipping chromosome %s: no overview records in index", chromosome)
			continue
		}

		records, err := store.Query(key.String(), 0, 0)
		if err != nil {
			return nil, fmt.Errorf("querying overview for chromosome %s: %v", chromosome, err)
		}
		series, err := tracks.ParsePositionSeries(records)
		if err != nil {
			return nil, fmt.Errorf("parsing overview for chromosome %s: %v", chromosome, err)
		}
		results = append(results, series)
	}
	return results, nil
}
