// Package api exposes the track query engine over HTTP.  Handlers
// translate engine errors into status codes: caller mistakes are 400,
// unknown samples and missing overview blobs are 404, and corrupt
// track data is 500.
package api

import (
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"

	"cloud.google.com/go/storage"
	"github.com/gin-gonic/gin"
	"google.golang.org/api/googleapi"

	"github.com/Jakob37/gens/overview"
	"github.com/Jakob37/gens/samples"
	"github.com/Jakob37/gens/tabix"
	"github.com/Jakob37/gens/tracks"
)

// Server wires the sample registry and the track store cache into the
// HTTP handlers.
type Server struct {
	registry *samples.Registry
	cache    *tabix.Cache
}

// NewServer returns a server resolving samples through registry and
// opening track files through cache.
func NewServer(registry *samples.Registry, cache *tabix.Cache) *Server {
	return &Server{registry: registry, cache: cache}
}

// Export registers the track endpoints on router.
func (s *Server) Export(router *gin.Engine) {
	router.GET("/tracks/coverage/:sample", s.newScatterHandler(tracks.KindCoverage))
	router.GET("/tracks/baf/:sample", s.newScatterHandler(tracks.KindBAF))
	router.GET("/tracks/counts/:sample", s.countsHandler)
	router.GET("/overview/:sample", s.overviewHandler)
}

// newScatterHandler serves a single-value series (coverage or allele
// balance) for one chromosome window.
func (s *Server) newScatterHandler(kind tracks.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		record, ok := s.lookupSample(c)
		if !ok {
			return
		}

		key, start, end, ok := parseWindow(c)
		if !ok {
			return
		}

		fraction, ok := parseReduce(c)
		if !ok {
			return
		}

		path := record.CoverageFile
		if kind == tracks.KindBAF {
			path = record.BAFFile
		}

		file, err := s.cache.Open(path)
		if err != nil {
			writeStorageError(c, "opening track file", err)
			return
		}

		records, err := file.Query(key.String(), start, end)
		if err != nil {
			writeServerError(c, "querying track file", err)
			return
		}

		if fraction > 0 {
			records, err = tracks.Downsample(records, fraction)
			if err != nil {
				writeInputError(c, "downsampling", err)
				return
			}
		}

		series, err := tracks.ParsePositionSeries(records)
		if err != nil {
			writeServerError(c, "parsing track records", err)
			return
		}
		c.JSON(http.StatusOK, series)
	}
}

// countsHandler serves the multi-column counts series for one
// chromosome window.
func (s *Server) countsHandler(c *gin.Context) {
	record, ok := s.lookupSample(c)
	if !ok {
		return
	}
	if !record.HasCounts() {
		writeNotFound(c, "sample has no counts track")
		return
	}

	key, start, end, ok := parseWindow(c)
	if !ok {
		return
	}

	file, err := s.cache.Open(record.CountsFile)
	if err != nil {
		writeStorageError(c, "opening counts file", err)
		return
	}

	records, err := file.Query(key.String(), start, end)
	if err != nil {
		writeServerError(c, "querying counts file", err)
		return
	}

	series, err := tracks.ParseBinnedSeries(records, record.CountsColumns)
	if err != nil {
		writeServerError(c, "parsing counts records", err)
		return
	}
	c.JSON(http.StatusOK, series)
}

// overviewHandler serves genome-wide series at the coarsest tier,
// preferring the precomputed blob when the sample has one.
func (s *Server) overviewHandler(c *gin.Context) {
	record, ok := s.lookupSample(c)
	if !ok {
		return
	}

	kind := tracks.KindCoverage
	switch c.Query("kind") {
	case "", "cov", string(tracks.KindCoverage):
	case string(tracks.KindBAF):
		kind = tracks.KindBAF
	default:
		writeInputError(c, "parsing kind", errors.New("want coverage or baf"))
		return
	}

	if record.HasOverview() {
		results, err := overview.FromBlob(record.OverviewFile, kind)
		var missing *overview.MissingBlobError
		if errors.As(err, &missing) {
			writeNotFound(c, err.Error())
			return
		}
		if err != nil {
			writeServerError(c, "reading overview blob", err)
			return
		}
		c.JSON(http.StatusOK, results)
		return
	}

	path := record.CoverageFile
	if kind == tracks.KindBAF {
		path = record.BAFFile
	}
	file, err := s.cache.Open(path)
	if err != nil {
		writeStorageError(c, "opening track file", err)
		return
	}
	results, err := overview.FromStore(file)
	if err != nil {
		writeServerError(c, "deriving overview", err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (s *Server) lookupSample(c *gin.Context) (*samples.Record, bool) {
	record, err := s.registry.Get(c.Param("sample"), c.Query("case"))
	if err != nil {
		writeNotFound(c, err.Error())
		return nil, false
	}
	return record, true
}

// parseWindow reads the chromosome, tier and half-open range of a
// track request.  Omitted start and end select the whole sub-stream.
func parseWindow(c *gin.Context) (tracks.RegionKey, int, int, bool) {
	chromosome := c.Query("chromosome")
	if chromosome == "" {
		writeInputError(c, "parsing region", errors.New("no chromosome specified"))
		return tracks.RegionKey{}, 0, 0, false
	}

	key, err := tracks.NewRegionKey(c.Query("zoom"), chromosome)
	if err != nil {
		writeInputError(c, "parsing resolution tier", err)
		return tracks.RegionKey{}, 0, 0, false
	}

	start, ok := parseCoordinate(c, "start")
	if !ok {
		return tracks.RegionKey{}, 0, 0, false
	}
	end, ok := parseCoordinate(c, "end")
	if !ok {
		return tracks.RegionKey{}, 0, 0, false
	}
	return key, start, end, true
}

func parseCoordinate(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeInputError(c, "parsing "+name, err)
		return 0, false
	}
	return n, true
}

func parseReduce(c *gin.Context) (float64, bool) {
	raw := c.Query("reduce")
	if raw == "" {
		return 0, true
	}
	fraction, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		writeInputError(c, "parsing reduce", err)
		return 0, false
	}
	if math.IsNaN(fraction) || fraction <= 0 || fraction > 1 {
		writeInputError(c, "parsing reduce", fmt.Errorf("fraction %v outside (0, 1]", fraction))
		return 0, false
	}
	return fraction, true
}

func writeInputError(c *gin.Context, context string, err error) {
	writeError(c, "InvalidInput", http.StatusBadRequest, context+": "+err.Error())
}

func writeNotFound(c *gin.Context, message string) {
	writeError(c, "NotFound", http.StatusNotFound, message)
}

func writeServerError(c *gin.Context, context string, err error) {
	log.Printf("Internal error: %s: %v", context, err)
	writeError(c, "InternalError", http.StatusInternalServerError, context+": "+err.Error())
}

// writeStorageError distinguishes storage failures that are really
// the caller's problem (missing objects, bad credentials) from true
// server errors.
func writeStorageError(c *gin.Context, context string, err error) {
	if errors.Is(err, storage.ErrObjectNotExist) {
		writeNotFound(c, context+": "+err.Error())
		return
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized:
			writeError(c, "InvalidAuthentication", http.StatusUnauthorized, context+": "+err.Error())
			return
		case http.StatusForbidden:
			writeError(c, "PermissionDenied", http.StatusForbidden, context+": "+err.Error())
			return
		}
	}
	writeServerError(c, context, err)
}

func writeError(c *gin.Context, name string, code int, message string) {
	c.JSON(code, gin.H{"error": name, "message": message})
}
