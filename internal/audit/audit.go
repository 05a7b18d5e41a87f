// Package audit persists one append-only record per accepted pace sample.
//
// Sinks are best-effort by contract: a sink failure is logged by the caller
// and never influences tracking state. The fan-out sink delivers to every
// configured backend and isolates their failures from each other.
package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hoopsignal/hoopsignal/internal/logger"
	"github.com/hoopsignal/hoopsignal/internal/models"
)

var errAllSinksFailed = errors.New("all audit sinks failed")

// Sink receives one record per accepted sample.
type Sink interface {
	Record(ctx context.Context, rec models.AuditRecord) error
	Close() error
}

// Fanout delivers each record to every sink. A failing sink is logged and
// skipped; Record only returns an error when every sink failed.
type Fanout struct {
	sinks []Sink
}

// NewFanout creates a fan-out over the given sinks.
func NewFanout(sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks}
}

func (f *Fanout) Record(ctx context.Context, rec models.AuditRecord) error {
	if len(f.sinks) == 0 {
		return nil
	}
	failures := 0
	for _, sink := range f.sinks {
		if err := sink.Record(ctx, rec); err != nil {
			failures++
			logger.Warn("audit sink failed for event %s: %v", rec.EventID, err)
		}
	}
	if failures == len(f.sinks) {
		return errAllSinksFailed
	}
	return nil
}

func (f *Fanout) Close() error {
	var errs []string
	for _, sink := range f.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to close audit sinks: %s", strings.Join(errs, "; "))
	}
	return nil
}
