// Package tracks contains the core types and record processing for
// multi-resolution genomic track data: resolution tiers, region keys,
// typed series, record parsing and systematic downsampling.
package tracks

import (
	"fmt"
	"strings"
)

// ResolutionTier identifies one of the five precomputed aggregation
// levels of a track, encoded in record names as a single character.
type ResolutionTier string

// The five valid tiers, coarsest first.  TierOverview holds one point
// per large genomic window and backs the whole-genome view; TierD is
// the finest level served.
const (
	TierOverview ResolutionTier = "o"
	TierA        ResolutionTier = "a"
	TierB        ResolutionTier = "b"
	TierC        ResolutionTier = "c"
	TierD        ResolutionTier = "d"
)

// Tiers lists all valid tiers ordered coarsest to finest.
var Tiers = []ResolutionTier{TierOverview, TierA, TierB, TierC, TierD}

// InvalidTierError reports a tier token outside the valid set.
type InvalidTierError struct {
	Token string
}

func (e *InvalidTierError) Error() string {
	valid := make([]string, len(Tiers))
	for i, t := range Tiers {
		valid[i] = string(t)
	}
	return fmt.Sprintf("invalid resolution tier %q, valid tiers are %s", e.Token, strings.Join(valid, ", "))
}

// ParseTier validates token against the tier alphabet.
func ParseTier(token string) (ResolutionTier, error) {
	for _, t := range Tiers {
		if token == string(t) {
			return t, nil
		}
	}
	return "", &InvalidTierError{Token: token}
}

// RegionKey addresses one indexed sub-stream of a track file: all
// records for a single chromosome at a single resolution tier.
type RegionKey struct {
	Tier       ResolutionTier
	Chromosome string
}

// NewRegionKey validates the tier token and builds the lookup key for
// the requested chromosome.
func NewRegionKey(tierToken, chromosome string) (RegionKey, error) {
	tier, err := ParseTier(tierToken)
	if err != nil {
		return RegionKey{}, err
	}
	return RegionKey{Tier: tier, Chromosome: chromosome}, nil
}

// String returns the key as stored in the track index.
func (k RegionKey) String() string {
	return string(k.Tier) + "_" + k.Chromosome
}

// Chromosomes is the canonical chromosome ordering used when walking a
// whole genome.
var Chromosomes = []string{
	"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12",
	"13", "14", "15", "16", "17", "18", "19", "20", "21", "22", "X", "Y",
}
