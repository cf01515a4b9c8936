package unsafety

import (
	"fmt"
)

// Counts is a statement tally for one file or a batch of files.
type Counts struct {
	Unsafe int `json:"unsafe"`
	Total  int `json:"total"`
}

// Add returns the element-wise sum of c and o.
func (c Counts) Add(o Counts) Counts {
	return Counts{
		Unsafe: c.Unsafe + o.Unsafe,
		Total:  c.Total + o.Total,
	}
}

// Density is the fraction of statements that are unsafe, or 0 for an
// empty tally.
func (c Counts) Density() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Unsafe) / float64(c.Total)
}

// String formats the counts as "unsafe/total".
func (c Counts) String() string {
	return fmt.Sprintf("%d/%d", c.Unsafe, c.Total)
}

// RegionKind identifies the construct that opened an unsafe region.
type RegionKind string

const (
	RegionFunction RegionKind = "unsafe fn"
	RegionBlock    RegionKind = "unsafe block"
)

// Region is one unsafe function or block. Statements counts every
// statement inside it, including those in nested regions.
type Region struct {
	Kind       RegionKind `json:"kind"`
	Name       string     `json:"name,omitempty"`
	StartLine  int        `json:"start_line"`
	EndLine    int        `json:"end_line"`
	Depth      int        `json:"depth"`
	Statements int        `json:"statements"`
}

// FileResult is the analysis of a single file.
type FileResult struct {
	Path    string   `json:"path"`
	Counts  Counts   `json:"counts"`
	Regions []Region `json:"regions,omitempty"`
	Cached  bool     `json:"-"`
}

// Failure records a file that could not be parsed.
type Failure struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// Summary aggregates results across files.
type Summary struct {
	Files             int     `json:"files"`
	FailedFiles       int     `json:"failed_files"`
	FilesWithUnsafe   int     `json:"files_with_unsafe"`
	Counts            Counts  `json:"counts"`
	Density           float64 `json:"density"`
	MeanFileDensity   float64 `json:"mean_file_density"`
	MedianFileDensity float64 `json:"median_file_density"`
	MaxFileDensity    float64 `json:"max_file_density"`
}

// Analysis is the result of analyzing a batch of files, in input order.
type Analysis struct {
	Files    []FileResult `json:"files"`
	Failures []Failure    `json:"failures,omitempty"`
	Summary  Summary      `json:"summary"`
}
