package timeline

import (
	"time"

	"github.com/kilianp07/outages/core/model"
)

// layer is an interval held on the priority stack. A closed layer keeps its
// end instant until something above or below it needs the slot.
type layer struct {
	label  string
	start  time.Time
	end    time.Time
	closed bool
}

// resolver turns merged edges into visible events inside [now, until).
type resolver struct {
	levels [model.MaxPriority]*layer
	now    time.Time
	until  time.Time
	out    []model.OutageEvent
}

// resolve merges the two sources and returns the visible events that fall
// inside [from, until). Edges at or after until are never consumed, which
// keeps the infinite weekly source bounded.
func resolve(a, b edgeSource, from, until time.Time) []model.OutageEvent {
	r := &resolver{now: from, until: until}
	ea, okA := a.Next()
	eb, okB := b.Next()
	for okA || okB {
		var e model.Edge
		if okA && (!okB || !edgeLess(eb, ea)) {
			e = ea
			ea, okA = a.Next()
		} else {
			e = eb
			eb, okB = b.Next()
		}
		if !e.At.Before(until) {
			break
		}
		r.apply(e)
	}
	r.drain()
	return r.out
}

func (r *resolver) top() int {
	for i := len(r.levels) - 1; i >= 0; i-- {
		if r.levels[i] != nil {
			return i
		}
	}
	return -1
}

func (r *resolver) apply(e model.Edge) {
	r.settle(e.At)
	lvl := int(e.Priority) - 1
	if lvl < 0 || lvl >= len(r.levels) {
		return
	}
	if e.Action == model.ActionClose {
		if cur := r.levels[lvl]; cur != nil && !cur.closed {
			cur.end = e.At
			cur.closed = true
		}
		return
	}
	r.open(lvl, e.Label, e.At)
}

// settle pops layers off the top that ended strictly before t.
func (r *resolver) settle(t time.Time) {
	for i := r.top(); i >= 0; i = r.top() {
		cur := r.levels[i]
		if !cur.closed || !cur.end.Before(t) {
			return
		}
		r.emit(cur, cur.end)
		r.levels[i] = nil
	}
}

func (r *resolver) open(lvl int, label string, t time.Time) {
	// Layers above that closed at t no longer hide the new one.
	for i := r.top(); i > lvl; i = r.top() {
		cur := r.levels[i]
		if !cur.closed {
			break
		}
		r.emit(cur, cur.end)
		r.levels[i] = nil
	}
	r.settle(t)

	// Same label picking up where it stopped: one continuous interval.
	if cur := r.levels[lvl]; cur != nil && cur.label == label && (!cur.closed || cur.end.Equal(t)) {
		cur.closed = false
		return
	}

	next := &layer{label: label, start: t}
	if r.top() > lvl {
		// Still covered from above; becomes visible once the cover ends.
		r.levels[lvl] = next
		return
	}
	if top := r.top(); top >= 0 {
		r.emit(r.levels[top], t)
	}
	r.levels[lvl] = next
}

// drain flushes the stack from the top down once the edges are exhausted.
func (r *resolver) drain() {
	for i := r.top(); i >= 0; i = r.top() {
		cur := r.levels[i]
		r.emit(cur, r.until)
		r.levels[i] = nil
	}
}

// emit outputs the part of l between the cursor and upTo and advances the
// cursor. Blank layers advance the cursor without producing an event.
func (r *resolver) emit(l *layer, upTo time.Time) {
	if l.closed && l.end.Before(upTo) {
		upTo = l.end
	}
	if upTo.After(r.until) {
		upTo = r.until
	}
	start := l.start
	if start.Before(r.now) {
		start = r.now
	}
	if !upTo.After(start) {
		return
	}
	r.now = upTo
	if l.label == model.BlankLabel {
		return
	}
	// Touching events with one label are joined whatever layer produced them.
	if n := len(r.out); n > 0 && r.out[n-1].Label == l.label && r.out[n-1].End.Equal(start) {
		r.out[n-1].End = upTo
		return
	}
	r.out = append(r.out, model.OutageEvent{Start: start, End: upTo, Label: l.label})
}
