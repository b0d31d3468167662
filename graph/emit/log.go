package emit

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// LogEmitter writes events as structured log lines through zerolog.
//
// Two output modes are supported:
//   - Console (default): human-readable, one line per event
//   - JSON: one JSON object per line
//
// Example console output:
//
//	10:04:05 INF node_complete run_id=3f0c... step=1 node=WebExtract kind=extractor forward=true
//
// Example JSON output:
//
//	{"level":"info","run_id":"3f0c...","step":1,"node":"WebExtract","kind":"extractor","forward":true,"message":"node_complete"}
//
// Failed events are logged at error level, gate evaluations at debug level.
type LogEmitter struct {
	logger zerolog.Logger
}

// NewLogEmitter creates a LogEmitter writing to writer (stdout when nil).
func NewLogEmitter(writer io.Writer, jsonMode bool) *LogEmitter {
	if writer == nil {
		writer = os.Stdout
	}
	// layers emit from several goroutines at once
	writer = zerolog.SyncWriter(writer)

	var zl zerolog.Logger
	if jsonMode {
		zl = zerolog.New(writer)
	} else {
		zl = zerolog.New(zerolog.ConsoleWriter{Out: writer, NoColor: true, TimeFormat: "15:04:05"})
	}
	return &LogEmitter{logger: zl.With().Timestamp().Logger()}
}

// NewLogEmitterFrom wraps an existing zerolog logger, e.g. the CLI's.
// The logger's writer must be safe for concurrent use (see zerolog.SyncWriter).
func NewLogEmitterFrom(logger zerolog.Logger) *LogEmitter {
	return &LogEmitter{logger: logger}
}

// Emit writes the event as one log line.
func (l *LogEmitter) Emit(event Event) {
	var e *zerolog.Event
	switch {
	case event.Failed():
		e = l.logger.Error()
	case event.Msg == "gate_evaluated":
		e = l.logger.Debug()
	default:
		e = l.logger.Info()
	}

	e = e.Str("run_id", event.RunID).Int("step", event.Step)
	if event.NodeID != "" {
		e = e.Str("node", event.NodeID)
	}
	if len(event.Meta) > 0 {
		e = e.Fields(event.Meta)
	}
	e.Msg(event.Msg)
}
