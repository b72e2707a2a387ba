package callz

import (
	"sort"
	"time"
)

// statsTopN bounds the slowest/most-called rankings.
const statsTopN = 10

// MethodStat aggregates the recorded calls of one operation name.
type MethodStat struct {
	Name    string        `json:"name"`
	Count   int           `json:"count"`
	Total   time.Duration `json:"total"`
	Average time.Duration `json:"average"`
}

// Stats summarizes a flat ledger of completed calls.
//
// Slowest ranks names by average duration, MostCalled by call count, both
// descending and capped at ten entries. Ties keep first-seen order; that
// order is stable here but not a documented guarantee - do not rely on it.
type Stats struct {
	AveragePerMethod map[string]time.Duration `json:"average_per_method"`
	Slowest          []MethodStat             `json:"slowest_methods"`
	MostCalled       []MethodStat             `json:"most_called_methods"`
	TotalCalls       int                      `json:"total_calls"`
	TotalTime        time.Duration            `json:"total_time"`
	UniqueMethods    int                      `json:"unique_methods"`
	MaxDepth         int                      `json:"max_depth"`
}

// computeStats aggregates a ledger of completed records. Callers own any
// locking; the records themselves are not mutated.
func computeStats(ledger []*CallRecord) Stats {
	stats := Stats{
		AveragePerMethod: make(map[string]time.Duration),
		Slowest:          []MethodStat{},
		MostCalled:       []MethodStat{},
	}

	perName := make(map[string]*MethodStat)
	order := make([]string, 0, len(ledger))

	for _, rec := range ledger {
		stats.TotalCalls++
		stats.TotalTime += rec.Duration
		if rec.Depth > stats.MaxDepth {
			stats.MaxDepth = rec.Depth
		}

		ms, ok := perName[rec.Name]
		if !ok {
			ms = &MethodStat{Name: rec.Name}
			perName[rec.Name] = ms
			order = append(order, rec.Name)
		}
		ms.Count++
		ms.Total += rec.Duration
	}

	stats.UniqueMethods = len(perName)
	if stats.UniqueMethods == 0 {
		return stats
	}

	all := make([]MethodStat, 0, len(order))
	for _, name := range order {
		ms := perName[name]
		ms.Average = ms.Total / time.Duration(ms.Count)
		stats.AveragePerMethod[name] = ms.Average
		all = append(all, *ms)
	}

	slowest := make([]MethodStat, len(all))
	copy(slowest, all)
	sort.SliceStable(slowest, func(i, j int) bool {
		return slowest[i].Average > slowest[j].Average
	})
	stats.Slowest = topStats(slowest, statsTopN)

	mostCalled := make([]MethodStat, len(all))
	copy(mostCalled, all)
	sort.SliceStable(mostCalled, func(i, j int) bool {
		return mostCalled[i].Count > mostCalled[j].Count
	})
	stats.MostCalled = topStats(mostCalled, statsTopN)

	return stats
}

func topStats(stats []MethodStat, n int) []MethodStat {
	if len(stats) > n {
		return stats[:n]
	}
	return stats
}
