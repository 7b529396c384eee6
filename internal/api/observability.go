package api

import (
	"io"
	"log/slog"
)

// CallEvent records metadata about a single backend call.
type CallEvent struct {
	Operation string // catalogue, assign, list, mark_done
	Method    string
	Status    int // 0 when no response was received
	Attempts  int
	LatencyMs int64
	RequestID string
	Success   bool
	ErrorCode string
}

// Observer receives events about backend calls for logging and metrics.
type Observer interface {
	OnCallComplete(event CallEvent)
}

// LogObserver writes call events through slog.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver creates an Observer that logs events to w.
func NewLogObserver(w io.Writer) *LogObserver {
	return &LogObserver{logger: slog.New(slog.NewTextHandler(w, nil))}
}

func (o *LogObserver) OnCallComplete(event CallEvent) {
	attrs := []any{
		"op", event.Operation,
		"method", event.Method,
		"status", event.Status,
		"attempts", event.Attempts,
		"latency_ms", event.LatencyMs,
		"request_id", event.RequestID,
	}
	if !event.Success {
		o.logger.Error("backend_call", append(attrs, "error_code", event.ErrorCode)...)
		return
	}
	o.logger.Info("backend_call", attrs...)
}

// NoopObserver discards all events. Useful for tests.
type NoopObserver struct{}

func (NoopObserver) OnCallComplete(CallEvent) {}

// MultiObserver fans an event out to several observers.
type MultiObserver []Observer

func (m MultiObserver) OnCallComplete(event CallEvent) {
	for _, o := range m {
		if o != nil {
			o.OnCallComplete(event)
		}
	}
}
