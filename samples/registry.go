package samples

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/Jakob37/gens/tabix"
)

// Registry is a file-backed collection of sample records.  It stands
// in for the sample database of the full system: the serving layer
// only needs lookup by sample and case id, and registration only
// needs validated appends.
type Registry struct {
	path string

	mu      sync.RWMutex
	records []Record
}

// OpenRegistry loads the registry stored at path.  A missing file is
// an empty registry, so a fresh deployment needs no setup step.
func OpenRegistry(path string) (*Registry, error) {
	reg := &Registry{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return reg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading registry %s: %v", path, err)
	}
	if err := json.Unmarshal(data, &reg.records); err != nil {
		return nil, fmt.Errorf("parsing registry %s: %v", path, err)
	}
	return reg, nil
}

// Get returns the record for the given sample and case, or an error
// when no such sample was registered.
func (reg *Registry) Get(sampleID, caseID string) (*Record, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	for i := range reg.records {
		r := &reg.records[i]
		if r.SampleID == sampleID && r.CaseID == caseID {
			record := *r
			return &record, nil
		}
	}
	return nil, fmt.Errorf("no sample %q in case %q", sampleID, caseID)
}

// Records returns a copy of all registered records.
func (reg *Registry) Records() []Record {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]Record, len(reg.records))
	copy(out, reg.records)
	return out
}

// Register validates every track file referenced by record, fills in
// the counts column names, assigns the record a fresh id and persists
// the registry.  A validation failure leaves the registry unchanged:
// an invalid file must never become reachable from a query.
func (reg *Registry) Register(record Record) (*Record, error) {
	if record.SampleID == "" || record.CaseID == "" {
		return nil, fmt.Errorf("sample and case ids are required")
	}

	for _, path := range []string{record.CoverageFile, record.BAFFile} {
		if path == "" {
			return nil, fmt.Errorf("coverage and BAF files are required")
		}
		if err := ValidateTrackFile(path); err != nil {
			return nil, err
		}
		if err := requireIndex(path); err != nil {
			return nil, err
		}
	}

	if record.HasCounts() {
		if err := ValidateCountsFile(record.CountsFile); err != nil {
			return nil, err
		}
		if err := requireIndex(record.CountsFile); err != nil {
			return nil, err
		}
		columns, err := ReadCountsColumns(record.CountsFile)
		if err != nil {
			return nil, err
		}
		record.CountsColumns = columns
	}

	if record.HasOverview() {
		if err := validateOverviewBlob(record.OverviewFile); err != nil {
			return nil, err
		}
	}

	record.ID = uuid.New().String()

	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.records = append(reg.records, record)
	if err := reg.save(); err != nil {
		reg.records = reg.records[:len(reg.records)-1]
		return nil, err
	}
	return &record, nil
}

func requireIndex(path string) error {
	index := tabix.IndexPath(path)
	if _, err := os.Stat(index); err != nil {
		return &ValidationError{Path: path, Reason: fmt.Sprintf("companion index %s was not found", index)}
	}
	return nil
}

func (reg *Registry) save() error {
	data, err := json.MarshalIndent(reg.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding registry: %v", err)
	}
	if err := os.WriteFile(reg.path, data, 0644); err != nil {
		return fmt.Errorf("writing registry %s: %v", reg.path, err)
	}
	return nil
}
