// This binary validates a sample's track files and adds the sample to
// the registry read by gens-server.  Validation failures block
// registration: a file that breaks a rule never becomes queryable.
package main

import (
	"flag"
	"log"

	"github.com/Jakob37/gens/samples"
)

var (
	registry = flag.String("registry", "samples.json", "sample registry file")

	sampleID    = flag.String("sample", "", "sample identifier (required)")
	caseID      = flag.String("case", "", "case identifier (required)")
	genomeBuild = flag.String("genome_build", "", "genome build label, e.g. 38")

	coverageFile = flag.String("coverage", "", "indexed coverage track (required)")
	bafFile      = flag.String("baf", "", "indexed allele-balance track (required)")
	countsFile   = flag.String("counts", "", "indexed multi-column counts track")
	overviewFile = flag.String("overview", "", "precomputed overview blob")
)

func main() {
	flag.Parse()

	if *sampleID == "" || *caseID == "" || *coverageFile == "" || *bafFile == "" {
		log.Fatalf("The -sample, -case, -coverage and -baf flags are all required.")
	}

	reg, err := samples.OpenRegistry(*registry)
	if err != nil {
		log.Fatalf("Opening sample registry: %v", err)
	}

	record, err := reg.Register(samples.Record{
		SampleID:     *sampleID,
		CaseID:       *caseID,
		GenomeBuild:  *genomeBuild,
		CoverageFile: *coverageFile,
		BAFFile:      *bafFile,
		CountsFile:   *countsFile,
		OverviewFile: *overviewFile,
	})
	if err != nil {
		log.Fatalf("Registration failed: %v", err)
	}

	log.Printf("Registered sample %s in case %s as %s", record.SampleID, record.CaseID, record.ID)
}
