package slate

import (
	"log/slog"
	"sync"
	"time"
)

// EventType names the engine operation an Event describes.
type EventType string

const (
	// EventFilter is emitted by DataFrame.Filter
	EventFilter EventType = "filter"
	// EventSort is emitted by DataFrame.SortBy
	EventSort EventType = "sort"
	// EventReindex is emitted by DataFrame.Reindex
	EventReindex EventType = "reindex"
	// EventConcat is emitted by DataFrame.Concat
	EventConcat EventType = "concat"
	// EventMerge is emitted by Merge
	EventMerge EventType = "merge"
	// EventGroupBy is emitted by DataFrame.GroupBy
	EventGroupBy EventType = "group_by"
	// EventAggregate is emitted by GroupBy.Agg
	EventAggregate EventType = "aggregate"
	// EventFill is emitted by FillNA
	EventFill EventType = "fill"
	// EventDropNA is emitted by DataFrame.DropNA
	EventDropNA EventType = "drop_na"
	// EventInterpolate is emitted by Interpolate
	EventInterpolate EventType = "interpolate"
)

// An Event describes one completed engine operation: what ran, how many rows
// went in and came out, and how long it took. The NA transforms fill and
// interpolate count nulls before and after instead of rows.
type Event struct {
	Type    EventType
	RowsIn  int
	RowsOut int
	Elapsed time.Duration
}

// An Observer receives an Event after every engine operation. OnEvent runs
// synchronously on the calling goroutine and must be safe for concurrent
// use.
type Observer interface {
	OnEvent(Event)
}

var (
	observerMu sync.RWMutex
	observer   Observer
)

// SetObserver installs a process-wide Observer for engine events. Passing
// nil removes the current one. Safe for concurrent use.
func SetObserver(o Observer) {
	observerMu.Lock()
	defer observerMu.Unlock()
	observer = o
}

func observe(t EventType, rowsIn, rowsOut int, start time.Time) {
	observerMu.RLock()
	o := observer
	observerMu.RUnlock()
	if o == nil {
		return
	}
	o.OnEvent(Event{Type: t, RowsIn: rowsIn, RowsOut: rowsOut, Elapsed: time.Since(start)})
}

// A LoggingObserver writes one structured log line per engine event.
type LoggingObserver struct {
	logger *slog.Logger
}

// NewLoggingObserver builds a LoggingObserver on the given logger, or
// slog.Default() when logger is nil.
func NewLoggingObserver(logger *slog.Logger) *LoggingObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{logger: logger}
}

// OnEvent logs the event at Info level.
func (o *LoggingObserver) OnEvent(e Event) {
	o.logger.Info("engine operation",
		slog.String("op", string(e.Type)),
		slog.Int("rows_in", e.RowsIn),
		slog.Int("rows_out", e.RowsOut),
		slog.Duration("elapsed", e.Elapsed),
	)
}
