package slate

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []Event
}

func (o *recordingObserver) OnEvent(e Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) byType(t EventType) []Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []Event
	for _, e := range o.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func TestObserverReceivesEngineEvents(t *testing.T) {
	rec := &recordingObserver{}
	SetObserver(rec)
	defer SetObserver(nil)

	df := makeFrame(t)
	age, err := df.Column("age")
	require.Nil(t, err)
	mask, err := age.Gte(35)
	require.Nil(t, err)
	out, err := df.Filter(mask)
	require.Nil(t, err)

	events := rec.byType(EventFilter)
	require.Equal(t, len(events), 1)
	require.Equal(t, events[0].RowsIn, df.NumRows())
	require.Equal(t, events[0].RowsOut, out.NumRows())
	require.True(t, events[0].Elapsed >= 0)
}

func TestObserverSeesFillEventsAsNullCounts(t *testing.T) {
	rec := &recordingObserver{}
	SetObserver(rec)
	defer SetObserver(nil)

	col := mustNullable(t, Float64, []interface{}{1.0, nil, nil})
	_, err := col.FillNA(FillOptions{Value: 0.0})
	require.Nil(t, err)

	events := rec.byType(EventFill)
	require.Equal(t, len(events), 1)
	require.Equal(t, events[0].RowsIn, 2)
	require.Equal(t, events[0].RowsOut, 0)
}

func TestNoObserverInstalledIsFine(t *testing.T) {
	SetObserver(nil)
	df := makeFrame(t)
	_, err := df.SortBy("age")
	require.Nil(t, err)
}

func TestLoggingObserverWritesStructuredLines(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	obs := NewLoggingObserver(logger)

	obs.OnEvent(Event{Type: EventMerge, RowsIn: 5, RowsOut: 4, Elapsed: time.Millisecond})
	line := buf.String()
	require.Contains(t, line, "op=merge")
	require.Contains(t, line, "rows_in=5")
	require.Contains(t, line, "rows_out=4")
}

func TestLoggingObserverDefaultsToSlogDefault(t *testing.T) {
	obs := NewLoggingObserver(nil)
	require.NotNil(t, obs)
}

func TestRunStatsAccumulates(t *testing.T) {
	rs := NewRunStats()
	SetObserver(rs)
	defer SetObserver(nil)

	df := makeFrame(t)
	score, err := df.Column("score")
	require.Nil(t, err)
	mask, err := score.Gt(7.0)
	require.Nil(t, err)
	for i := 0; i < 3; i++ {
		_, err = df.Filter(mask)
		require.Nil(t, err)
	}
	g, err := df.GroupBy("name")
	require.Nil(t, err)
	_, err = g.Count()
	require.Nil(t, err)

	require.Equal(t, rs.GetNumOps(EventFilter), int64(3))
	rowsIn, rowsOut := rs.GetNumRowsProcessed(EventFilter)
	require.Equal(t, rowsIn, int64(12))
	require.Equal(t, rowsOut, int64(9))
	require.Equal(t, rs.GetNumOps(EventGroupBy), int64(1))
	require.Equal(t, rs.GetNumOps(EventAggregate), int64(1))
	require.Equal(t, rs.GetNumOps(EventMerge), int64(0))

	require.True(t, rs.GetOpRuntime(EventFilter) >= 0)
	require.True(t, rs.GetCurrentOpProcessingTime(EventFilter) >= 0)
	require.Equal(t, rs.GetCurrentOpProcessingTime(EventMerge), time.Duration(0))
	require.False(t, rs.GetStartTime().IsZero())
	require.True(t, rs.GetRuntime() > 0)

	types := rs.GetEventTypes()
	require.Contains(t, types, EventFilter)
	require.Contains(t, types, EventGroupBy)
}
