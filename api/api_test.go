package api

import (
	"compress/gzip"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/Jakob37/gens/samples"
	"github.com/Jakob37/gens/tabix"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	registryPath := filepath.Join(dir, "samples.json")
	coverage := writeGzip(t, dir, "s1.cov.bed.gz", "a_1\t100\t200\t0.5\n")
	baf := writeGzip(t, dir, "s1.baf.bed.gz", "a_1\t100\t200\t0.4\n")
	for _, path := range []string{coverage, baf} {
		if err := os.WriteFile(path+".tbi", []byte("stub"), 0644); err != nil {
			t.Fatalf("Failed to write index stub: %v", err)
		}
	}

	reg, err := samples.OpenRegistry(registryPath)
	if err != nil {
		t.Fatalf("Failed to open registry: %v", err)
	}
	blob := writeGzip(t, dir, "s1.overview.json.gz",
		`{"1":{"cov":[[150,0.5]],"baf":[[150,0.4]]}}`)

	if _, err := reg.Register(samples.Record{
		SampleID:     "s1",
		CaseID:       "fam1",
		CoverageFile: coverage,
		BAFFile:      baf,
		OverviewFile: blob,
	}); err != nil {
		t.Fatalf("Failed to register sample: %v", err)
	}

	router := gin.New()
	NewServer(reg, tabix.NewCache(nil)).Export(router)
	return router
}

func writeGzip(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create fixture: %v", err)
	}
	defer f.Close()
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte(body)); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("Failed to close fixture: %v", err)
	}
	return path
}

func get(router *gin.Engine, url string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", url, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestUnknownSampleIsNotFound(t *testing.T) {
	router := setupRouter(t)

	w := get(router, "/tracks/coverage/nope?case=fam1&chromosome=1&zoom=a")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NotFound")
}

func TestWrongCaseIsNotFound(t *testing.T) {
	router := setupRouter(t)

	w := get(router, "/tracks/coverage/s1?case=other&chromosome=1&zoom=a")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInvalidTierIsBadRequest(t *testing.T) {
	router := setupRouter(t)

	w := get(router, "/tracks/coverage/s1?case=fam1&chromosome=1&zoom=q")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "InvalidInput")
	assert.Contains(t, w.Body.String(), "q")
}

func TestMissingChromosomeIsBadRequest(t *testing.T) {
	router := setupRouter(t)

	w := get(router, "/tracks/baf/s1?case=fam1&zoom=a")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "chromosome")
}

func TestBadCoordinateIsBadRequest(t *testing.T) {
	router := setupRouter(t)

	w := get(router, "/tracks/coverage/s1?case=fam1&chromosome=1&zoom=a&start=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBadReduceIsBadRequest(t *testing.T) {
	router := setupRouter(t)

	w := get(router, "/tracks/coverage/s1?case=fam1&chromosome=1&zoom=a&reduce=lots")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReduceOutsideRangeIsBadRequest(t *testing.T) {
	router := setupRouter(t)

	for _, reduce := range []string{"-0.5", "0", "1.5", "NaN"} {
		w := get(router, "/tracks/coverage/s1?case=fam1&chromosome=1&zoom=a&reduce="+reduce)
		assert.Equal(t, http.StatusBadRequest, w.Code, "reduce=%s", reduce)
		assert.Contains(t, w.Body.String(), "InvalidInput")
	}
}

func TestOverviewServesCoverageByDefault(t *testing.T) {
	router := setupRouter(t)

	w := get(router, "/overview/s1?case=fam1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"region":"1"`)
	assert.Contains(t, w.Body.String(), "0.5")
}

func TestOverviewServesBAFKind(t *testing.T) {
	router := setupRouter(t)

	w := get(router, "/overview/s1?case=fam1&kind=baf")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "0.4")
}

func TestCountsWithoutTrackIsNotFound(t *testing.T) {
	router := setupRouter(t)

	w := get(router, "/tracks/counts/s1?case=fam1&chromosome=1&zoom=a")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "counts")
}

func TestUnknownOverviewKindIsBadRequest(t *testing.T) {
	router := setupRouter(t)

	w := get(router, "/overview/s1?case=fam1&kind=exotic")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
