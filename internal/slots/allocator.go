// Package slots owns the fixed set of named tracking slots and the
// slot-to-event binding for each polling batch.
//
// A slot holds at most one live event and an event occupies at most one
// slot. Binding and release go through a single mutex-guarded allocator so
// the maps are never shared mutable state.
package slots

import (
	"strings"
	"sync"

	"github.com/hoopsignal/hoopsignal/internal/logger"
	"github.com/hoopsignal/hoopsignal/internal/models"
)

// Slot is a named capacity unit with a notification destination set.
type Slot struct {
	Name     string
	Enabled  bool
	Webhooks []string
}

// Letter returns the slot's display letter, the uppercased final rune of
// its name ("gameA" → "A").
func (s Slot) Letter() string {
	if s.Name == "" {
		return ""
	}
	return strings.ToUpper(s.Name[len(s.Name)-1:])
}

// WorkItem is one slot-bound event queued for tracking this batch.
type WorkItem struct {
	Snapshot     models.GameSnapshot
	Slot         Slot
	NewSelection bool
}

// Allocator binds live events to slots across polling batches.
type Allocator struct {
	mu    sync.Mutex
	slots []Slot
	bound map[string]string // slot name -> event ID
}

// New creates an allocator over the configured slots. Slot order determines
// fill priority for new candidates.
func New(slots []Slot) *Allocator {
	return &Allocator{
		slots: slots,
		bound: make(map[string]string),
	}
}

// Assign reconciles the slot bindings against one snapshot batch and
// returns the deduplicated worklist for the tracker.
//
// Bound events present in the batch with score and clock are retained and
// queued; bound events absent from the batch entirely are unbound. Each
// empty enabled slot claims the first period-1 game not already bound
// elsewhere, and the resulting work item is flagged as a new selection so
// the caller can emit the one-time reservation notification.
func (a *Allocator) Assign(batch []models.GameSnapshot) []WorkItem {
	a.mu.Lock()
	defer a.mu.Unlock()

	byID := make(map[string]*models.GameSnapshot, len(batch))
	for i := range batch {
		byID[batch[i].EventID] = &batch[i]
	}

	var work []WorkItem
	for _, slot := range a.slots {
		if !slot.Enabled {
			continue
		}

		if eventID, ok := a.bound[slot.Name]; ok {
			snap, present := byID[eventID]
			switch {
			case present && snap.Active():
				work = append(work, WorkItem{Snapshot: *snap, Slot: slot})
			case !present:
				logger.Info("event %s disappeared upstream, releasing slot %s", eventID, slot.Name)
				delete(a.bound, slot.Name)
			default:
				// Present but missing score or clock: keep the binding and
				// wait for the next cycle.
			}
			continue
		}

		if pick := a.pickCandidate(batch); pick != nil {
			logger.Info("slot %s reserved event %s (%s vs %s)", slot.Name, pick.EventID, pick.HomeName, pick.AwayName)
			a.bound[slot.Name] = pick.EventID
			work = append(work, WorkItem{Snapshot: *pick, Slot: slot, NewSelection: true})
		}
	}

	return dedupe(work)
}

// pickCandidate scans the batch for a period-1 game not bound to any slot.
// Caller must hold the mutex.
func (a *Allocator) pickCandidate(batch []models.GameSnapshot) *models.GameSnapshot {
	taken := make(map[string]bool, len(a.bound))
	for _, id := range a.bound {
		taken[id] = true
	}
	for i := range batch {
		snap := &batch[i]
		if snap.Active() && snap.Clock.Period == 1 && !taken[snap.EventID] {
			return snap
		}
	}
	return nil
}

// Release unbinds whatever event the named slot holds.
func (a *Allocator) Release(slotName string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.bound, slotName)
}

// Bound returns the event ID held by the named slot.
func (a *Allocator) Bound(slotName string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id, ok := a.bound[slotName]
	return id, ok
}

// dedupe drops repeated event IDs from the worklist, keeping first
// occurrence, so one event is never processed twice in a batch.
func dedupe(work []WorkItem) []WorkItem {
	seen := make(map[string]bool, len(work))
	out := work[:0]
	for _, item := range work {
		if seen[item.Snapshot.EventID] {
			logger.Warn("event %s mapped to multiple slots in one batch, keeping first", item.Snapshot.EventID)
			continue
		}
		seen[item.Snapshot.EventID] = true
		out = append(out, item)
	}
	return out
}
