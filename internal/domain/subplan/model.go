package subplan

import (
	"fmt"
	"sort"

	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/pitch"
)

// Status is the lifecycle state of a planned substitution. Confirmed and
// Skipped are terminal; nothing ever auto-confirms.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusDue       Status = "DUE"
	StatusConfirmed Status = "CONFIRMED"
	StatusSkipped   Status = "SKIPPED"
)

// PositionSwap names the third player involved in a swap substitution:
// they leave From and take To.
type PositionSwap struct {
	PlayerID string
	From     pitch.Position
	To       pitch.Position
}

// Event is one planned substitution: Outgoing leaves the pitch and Incoming
// enters when the game clock reaches TriggerSeconds in Half.
type Event struct {
	ID         string
	OutgoingID string
	IncomingID string
	// TriggerSeconds is clock elapsed time, not wall time.
	TriggerSeconds int
	Half           int
	Swap           *PositionSwap
	Status         Status
}

func (e Event) Terminal() bool {
	return e.Status == StatusConfirmed || e.Status == StatusSkipped
}

// DueAt reports whether the event's trigger has been reached at the given
// clock reading. Events from earlier halves stay due once the clock has
// moved past their half.
func (e Event) DueAt(elapsedSeconds, half int) bool {
	if half > e.Half {
		return true
	}
	return half == e.Half && elapsedSeconds >= e.TriggerSeconds
}

// Steps is the number of presentation steps the event contributes to its
// batch dialog: player off, player on, plus one when a swap is involved.
func (e Event) Steps() int {
	if e.Swap != nil {
		return 3
	}
	return 2
}

func (e Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("event id is required")
	}
	if e.OutgoingID == "" || e.IncomingID == "" {
		return fmt.Errorf("event %s must name outgoing and incoming players", e.ID)
	}
	if e.OutgoingID == e.IncomingID {
		return fmt.Errorf("event %s cannot substitute a player for themselves", e.ID)
	}
	if e.TriggerSeconds < 0 {
		return fmt.Errorf("event %s trigger cannot be negative", e.ID)
	}
	if e.Half != 1 && e.Half != 2 {
		return fmt.Errorf("event %s half must be 1 or 2", e.ID)
	}
	return nil
}

// BatchKey identifies the group of events confirmed or skipped as one unit:
// every event sharing the same trigger time and half.
type BatchKey struct {
	TriggerSeconds int
	Half           int
}

func (e Event) BatchKey() BatchKey {
	return BatchKey{TriggerSeconds: e.TriggerSeconds, Half: e.Half}
}

// Batch is one confirmable unit of events sharing a trigger.
type Batch struct {
	Key    BatchKey
	Events []Event
}

// Steps sums the presentation steps of every member event.
func (b Batch) Steps() int {
	total := 0
	for _, e := range b.Events {
		total += e.Steps()
	}
	return total
}

// GroupBatches groups the given events by batch key, preserving event order
// within a batch and ordering batches by half then trigger time.
func GroupBatches(events []Event) []Batch {
	byKey := make(map[BatchKey][]Event)
	keys := make([]BatchKey, 0)
	for _, e := range events {
		if _, seen := byKey[e.BatchKey()]; !seen {
			keys = append(keys, e.BatchKey())
		}
		byKey[e.BatchKey()] = append(byKey[e.BatchKey()], e)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Half != keys[j].Half {
			return keys[i].Half < keys[j].Half
		}
		return keys[i].TriggerSeconds < keys[j].TriggerSeconds
	})

	batches := make([]Batch, 0, len(keys))
	for _, key := range keys {
		batches = append(batches, Batch{Key: key, Events: byKey[key]})
	}
	return batches
}

// Plan is the authored substitution plan of one session.
type Plan struct {
	Events []Event
	Active bool
}

func ClonePlan(p Plan) Plan {
	copied := p
	copied.Events = make([]Event, 0, len(p.Events))
	for _, e := range p.Events {
		copied.Events = append(copied.Events, CloneEvent(e))
	}
	return copied
}

func CloneEvent(e Event) Event {
	copied := e
	if e.Swap != nil {
		swap := *e.Swap
		copied.Swap = &swap
	}
	return copied
}
