package events

import (
	"context"
	"encoding/json"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"go.uber.org/zap"
)

// LogWriter writes events into the service log. Video events are decoded so
// their fields are searchable.
type LogWriter struct {
	log *zap.SugaredLogger
}

func NewLogWriter() *LogWriter {
	return &LogWriter{log: zap.S().Named("event_log")}
}

func (l *LogWriter) Write(ctx context.Context, topic string, e cloudevents.Event) error {
	fields := []any{"id", e.ID(), "type", e.Type(), "subject", e.Subject(), "topic", topic}

	var ev VideoEvent
	if e.Type() == VideoMessageKind && json.Unmarshal(e.Data(), &ev) == nil {
		fields = append(fields, "stage", ev.Stage, "status", ev.Status, "user_id", ev.UserID)
		if ev.Error != "" {
			l.log.Warnw("video job failed", append(fields, "error", ev.Error)...)
			return nil
		}
		l.log.Infow("video job changed", fields...)
		return nil
	}

	l.log.Infow("event", append(fields, "data", string(e.Data()))...)
	return nil
}

func (l *LogWriter) Close(_ context.Context) error {
	return nil
}
