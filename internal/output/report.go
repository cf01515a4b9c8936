package output

import (
	"fmt"
	"strconv"

	"github.com/panbanda/unsafecount/pkg/analyzer/unsafety"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Streaming reports whether per-file lines are written as files complete
// rather than in one report at the end.
func (f *Formatter) Streaming() bool {
	return f.format == FormatText
}

// WriteFile writes the "<path>: <unsafe>/<total>" line for one file.
func (f *Formatter) WriteFile(fr unsafety.FileResult) error {
	_, err := fmt.Fprintf(f.writer, "%s: %s\n", fr.Path, fr.Counts)
	return err
}

// WriteTotal writes the closing "total: <unsafe>/<total>" line.
func (f *Formatter) WriteTotal(c unsafety.Counts) error {
	_, err := fmt.Fprintf(f.writer, "total: %s\n", c)
	return err
}

// WriteAnalysis writes the whole analysis. Text output only carries the
// total line; the per-file lines are expected to have been streamed.
func (f *Formatter) WriteAnalysis(a *unsafety.Analysis) error {
	switch f.format {
	case FormatText:
		return f.WriteTotal(a.Summary.Counts)
	case FormatJSON, FormatTOON:
		return f.Output(a)
	default:
		return f.Output(NewReport(a))
	}
}

// NewReport lays out an analysis as a file table, an optional region
// table, an optional failure table and a summary table.
func NewReport(a *unsafety.Analysis) *Report {
	p := message.NewPrinter(language.English)

	files := make([][]string, 0, len(a.Files))
	for _, fr := range a.Files {
		files = append(files, []string{
			fr.Path,
			p.Sprintf("%d", fr.Counts.Unsafe),
			p.Sprintf("%d", fr.Counts.Total),
			percent(fr.Counts.Density()),
		})
	}

	r := &Report{
		Title: "Unsafe Statements",
		Data:  a,
		Sections: []Renderable{
			NewTable("Files",
				[]string{"File", "Unsafe", "Total", "Density"},
				files,
				[]string{
					"Total",
					p.Sprintf("%d", a.Summary.Counts.Unsafe),
					p.Sprintf("%d", a.Summary.Counts.Total),
					percent(a.Summary.Density),
				},
				a.Files),
		},
	}

	var regions [][]string
	for _, fr := range a.Files {
		for _, reg := range fr.Regions {
			regions = append(regions, []string{
				fr.Path,
				string(reg.Kind),
				reg.Name,
				fmt.Sprintf("%d-%d", reg.StartLine, reg.EndLine),
				strconv.Itoa(reg.Depth),
				p.Sprintf("%d", reg.Statements),
			})
		}
	}
	if len(regions) > 0 {
		r.Sections = append(r.Sections, NewTable("Regions",
			[]string{"File", "Kind", "Name", "Lines", "Depth", "Statements"},
			regions, nil, nil))
	}

	if len(a.Failures) > 0 {
		failures := make([][]string, 0, len(a.Failures))
		for _, fl := range a.Failures {
			failures = append(failures, []string{
				fl.Path,
				fmt.Sprintf("%d:%d", fl.Line, fl.Column),
				fl.Message,
			})
		}
		r.Sections = append(r.Sections, NewTable("Parse Failures",
			[]string{"File", "Position", "Message"},
			failures, nil, a.Failures))
	}

	s := a.Summary
	r.Sections = append(r.Sections, NewTable("Summary",
		[]string{"Metric", "Value"},
		[][]string{
			{"Files analyzed", p.Sprintf("%d", s.Files)},
			{"Files failed to parse", p.Sprintf("%d", s.FailedFiles)},
			{"Files with unsafe", p.Sprintf("%d", s.FilesWithUnsafe)},
			{"Unsafe statements", p.Sprintf("%d", s.Counts.Unsafe)},
			{"Total statements", p.Sprintf("%d", s.Counts.Total)},
			{"Density", percent(s.Density)},
			{"Mean file density", percent(s.MeanFileDensity)},
			{"Median file density", percent(s.MedianFileDensity)},
			{"Max file density", percent(s.MaxFileDensity)},
		},
		nil, s))

	return r
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}
