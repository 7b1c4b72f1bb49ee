package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"daycanvas/internal/layout"
	"daycanvas/internal/model"
)

// entry is one line of a hand-written day file. JSON files parse too since
// the YAML decoder accepts them.
type entry struct {
	ID       string `yaml:"id"`
	Start    string `yaml:"start"`
	End      string `yaml:"end"`
	Kind     string `yaml:"kind"`
	Title    string `yaml:"title"`
	Notes    string `yaml:"notes"`
	Location string `yaml:"location"`
}

// dayFile is a decoded day file. Entries whose clocks do not parse are
// reported in Warnings and left out of Intervals; positions maps each
// interval back to its index in the file.
type dayFile struct {
	Intervals []model.TimeInterval
	Warnings  []model.ValidationWarning
	positions []int
}

// Layout runs the layout engine and merges its warnings with the decode
// warnings, all indexed by file position.
func (d dayFile) Layout() layout.Result {
	res := layout.Compute(d.Intervals)
	warnings := append([]model.ValidationWarning(nil), d.Warnings...)
	for _, w := range res.Warnings {
		w.Index = d.positions[w.Index]
		warnings = append(warnings, w)
	}
	sort.SliceStable(warnings, func(i, j int) bool { return warnings[i].Index < warnings[j].Index })
	res.Warnings = warnings
	return res
}

// readEntries loads a day file; "-" or "" reads stdin. Unknown kinds are
// passed through so layout reports them with the rest.
func readEntries(path string, stdin io.Reader) (dayFile, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return dayFile{}, fmt.Errorf("read entries: %w", err)
	}

	var raw []entry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return dayFile{}, fmt.Errorf("decode entries: %w", err)
	}

	df := dayFile{Intervals: make([]model.TimeInterval, 0, len(raw))}
	for i, e := range raw {
		iv := model.TimeInterval{
			ID:       e.ID,
			Title:    e.Title,
			Notes:    e.Notes,
			Location: e.Location,
		}
		if iv.ID == "" {
			iv.ID = fmt.Sprintf("entry-%d", i+1)
		}
		if iv.Start, err = model.ParseClock(e.Start); err != nil {
			df.Warnings = append(df.Warnings, model.ValidationWarning{ID: iv.ID, Index: i, Reason: "start: " + err.Error()})
			continue
		}
		if iv.End, err = model.ParseClock(e.End); err != nil {
			df.Warnings = append(df.Warnings, model.ValidationWarning{ID: iv.ID, Index: i, Reason: "end: " + err.Error()})
			continue
		}
		if k, err := model.ParseKind(e.Kind); err == nil {
			iv.Kind = k
		} else {
			iv.Kind = model.Kind(e.Kind)
		}
		df.Intervals = append(df.Intervals, iv)
		df.positions = append(df.positions, i)
	}
	return df, nil
}
