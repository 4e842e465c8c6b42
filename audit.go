package mojito

import (
	"io"

	"go.uber.org/zap"

	"github.com/MrEthical07/mojito/internal/audit"
)

// AuditEvent is one audit record emitted by the engine.
type AuditEvent = audit.Event

// AuditSink consumes audit events. Emit runs on the dispatcher goroutine, so
// a slow sink delays later events but never a request.
type AuditSink = audit.Sink

// NoOpSink drops every event.
type NoOpSink = audit.NoOpSink

// ChannelSink buffers events in a channel. Useful in tests.
type ChannelSink = audit.ChannelSink

// JSONWriterSink writes one JSON object per line to an io.Writer.
type JSONWriterSink = audit.JSONWriterSink

// ZapSink logs events through a zap logger.
type ZapSink = audit.ZapSink

func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

func NewZapSink(logger *zap.Logger) *ZapSink {
	return audit.NewZapSink(logger)
}
