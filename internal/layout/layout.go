// Package layout assigns side-by-side columns to overlapping schedule
// entries of one day.
//
// Entries are grouped into overlap clusters (connected components of the
// "shares time with" graph). Inside a cluster entries are sorted by start
// time, longer first on ties, and each takes the lowest column whose
// previous occupants it does not overlap. Every entry of a cluster reports
// the number of columns that cluster opened.
//
// The greedy pass is an approximation: it never places two overlapping
// entries in one column, but it can open more columns than the minimum on
// pathological inputs.
package layout

import (
	"sort"

	"daycanvas/internal/model"
)

// Result is the outcome of Compute.
type Result struct {
	Intervals []model.LayoutInterval
	Warnings  []model.ValidationWarning
}

// Compute lays out one day's intervals. Malformed entries (and duplicate
// IDs after the first) are dropped with a warning instead of failing the
// batch. The input slice is not modified.
func Compute(intervals []model.TimeInterval) Result {
	valid, warnings := filter(intervals)

	var out []model.LayoutInterval
	for _, cluster := range Clusters(valid) {
		out = append(out, assign(cluster)...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i].TimeInterval, out[j].TimeInterval)
	})
	return Result{Intervals: out, Warnings: warnings}
}

func filter(intervals []model.TimeInterval) ([]model.TimeInterval, []model.ValidationWarning) {
	valid := make([]model.TimeInterval, 0, len(intervals))
	var warnings []model.ValidationWarning
	seen := make(map[string]struct{}, len(intervals))

	for i, iv := range intervals {
		if err := iv.Validate(); err != nil {
			warnings = append(warnings, model.ValidationWarning{ID: iv.ID, Index: i, Reason: err.Error()})
			continue
		}
		if _, dup := seen[iv.ID]; dup {
			warnings = append(warnings, model.ValidationWarning{ID: iv.ID, Index: i, Reason: "duplicate id"})
			continue
		}
		seen[iv.ID] = struct{}{}
		valid = append(valid, iv)
	}
	return valid, warnings
}

// Clusters groups intervals into overlap clusters. Each interval lands in
// exactly one cluster; clusters come out in input order of their first
// member. Intervals are assumed valid.
func Clusters(intervals []model.TimeInterval) [][]model.TimeInterval {
	processed := make([]bool, len(intervals))
	var clusters [][]model.TimeInterval

	for seed := range intervals {
		if processed[seed] {
			continue
		}
		processed[seed] = true
		cluster := []model.TimeInterval{intervals[seed]}

		// Absorb until a full pass adds nothing.
		for grew := true; grew; {
			grew = false
			for i := range intervals {
				if processed[i] {
					continue
				}
				for _, member := range cluster {
					if member.Overlaps(intervals[i]) {
						cluster = append(cluster, intervals[i])
						processed[i] = true
						grew = true
						break
					}
				}
			}
		}
		clusters = append(clusters, cluster)
	}
	return clusters
}

func assign(cluster []model.TimeInterval) []model.LayoutInterval {
	sorted := append([]model.TimeInterval(nil), cluster...)
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })

	var columns [][]model.TimeInterval
	out := make([]model.LayoutInterval, 0, len(sorted))

	for _, iv := range sorted {
		col := -1
		for c, occupants := range columns {
			if !overlapsAny(iv, occupants) {
				col = c
				break
			}
		}
		if col < 0 {
			columns = append(columns, nil)
			col = len(columns) - 1
		}
		columns[col] = append(columns[col], iv)
		out = append(out, model.LayoutInterval{TimeInterval: iv, Column: col})
	}

	for i := range out {
		out[i].TotalColumns = len(columns)
	}
	return out
}

func overlapsAny(iv model.TimeInterval, others []model.TimeInterval) bool {
	for _, o := range others {
		if iv.Overlaps(o) {
			return true
		}
	}
	return false
}

// less orders by start, then longer first, then ID so output is stable
// regardless of input order.
func less(a, b model.TimeInterval) bool {
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	if a.Duration() != b.Duration() {
		return a.Duration() > b.Duration()
	}
	return a.ID < b.ID
}
