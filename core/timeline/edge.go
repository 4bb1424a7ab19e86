package timeline

import (
	"sort"
	"time"

	"github.com/kilianp07/outages/core/model"
)

// edgeSource yields edges in merge order until it runs dry. Sources are
// single-use; a new query constructs new sources.
type edgeSource interface {
	Next() (model.Edge, bool)
}

// edgeLess defines the merge order. At equal instants every close precedes
// every open; opens run from the highest priority down and closes from the
// lowest priority up.
func edgeLess(a, b model.Edge) bool {
	if !a.At.Equal(b.At) {
		return a.At.Before(b.At)
	}
	if a.Action != b.Action {
		return a.Action == model.ActionClose
	}
	if a.Action == model.ActionOpen {
		return a.Priority > b.Priority
	}
	return a.Priority < b.Priority
}

func sortEdges(edges []model.Edge) {
	sort.SliceStable(edges, func(i, j int) bool { return edgeLess(edges[i], edges[j]) })
}

// dayEdges appends the open/close pair of every slot placed on day. A slot
// that collapses to an empty interval, such as one inside the hour skipped
// when clocks move forward, contributes no edges.
func dayEdges(buf []model.Edge, day model.Date, slots []model.Slot, p model.Priority, loc *time.Location) []model.Edge {
	for _, s := range slots {
		opening := model.Edge{At: day.At(s.Start, loc), Priority: p, Action: model.ActionOpen, Label: s.Label}
		closing := model.Edge{At: day.At(s.End, loc), Priority: p, Action: model.ActionClose, Label: s.Label}
		if !opening.At.Before(closing.At) {
			continue
		}
		buf = append(buf, opening, closing)
	}
	return buf
}
