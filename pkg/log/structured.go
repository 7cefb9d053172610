package log

import (
	"context"
	"time"

	"github.com/reelforge/reelforge/pkg/requestid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// StructuredLogger emits operation traces for a service component. Steps and
// successes are debug entries, errors are logged at error level.
type StructuredLogger struct {
	component string
}

func NewDebugLogger(component string) *StructuredLogger {
	return &StructuredLogger{component: component}
}

type ContextLogger struct {
	logger *zap.Logger
}

func (s *StructuredLogger) WithContext(ctx context.Context) *ContextLogger {
	l := zap.L().Named(s.component)
	if id := requestid.FromContext(ctx); id != "" {
		l = l.With(zap.String("request_id", id))
	}
	return &ContextLogger{logger: l}
}

func (c *ContextLogger) Operation(name string) *OperationBuilder {
	return &OperationBuilder{logger: c.logger, operation: name}
}

type OperationBuilder struct {
	logger    *zap.Logger
	operation string
	fields    []zapcore.Field
}

func (b *OperationBuilder) WithString(key, value string) *OperationBuilder {
	b.fields = append(b.fields, zap.String(key, value))
	return b
}

func (b *OperationBuilder) WithInt(key string, value int) *OperationBuilder {
	b.fields = append(b.fields, zap.Int(key, value))
	return b
}

func (b *OperationBuilder) WithBool(key string, value bool) *OperationBuilder {
	b.fields = append(b.fields, zap.Bool(key, value))
	return b
}

func (b *OperationBuilder) WithParam(key string, value any) *OperationBuilder {
	b.fields = append(b.fields, zap.Any(key, value))
	return b
}

func (b *OperationBuilder) Build() *OperationTracer {
	fields := append([]zapcore.Field{zap.String("operation", b.operation)}, b.fields...)
	t := &OperationTracer{
		logger: b.logger.With(fields...),
		start:  time.Now(),
	}
	t.logger.Debug("operation started")
	return t
}

type OperationTracer struct {
	logger *zap.Logger
	start  time.Time
}

func (t *OperationTracer) Step(name string) *Entry {
	return &Entry{logger: t.logger, level: zapcore.DebugLevel, msg: "step", fields: []zapcore.Field{zap.String("step", name)}}
}

func (t *OperationTracer) Success() *Entry {
	return &Entry{logger: t.logger, level: zapcore.DebugLevel, msg: "operation succeeded", fields: []zapcore.Field{zap.Duration("duration", time.Since(t.start))}}
}

func (t *OperationTracer) Error(err error) *Entry {
	return &Entry{logger: t.logger, level: zapcore.ErrorLevel, msg: "operation failed", fields: []zapcore.Field{zap.Error(err), zap.Duration("duration", time.Since(t.start))}}
}

// Warn is used for outcomes that are not failures but need attention,
// such as conflicting vendor results.
func (t *OperationTracer) Warn(msg string) *Entry {
	return &Entry{logger: t.logger, level: zapcore.WarnLevel, msg: msg}
}

type Entry struct {
	logger *zap.Logger
	level  zapcore.Level
	msg    string
	fields []zapcore.Field
}

func (e *Entry) WithString(key, value string) *Entry {
	e.fields = append(e.fields, zap.String(key, value))
	return e
}

func (e *Entry) WithInt(key string, value int) *Entry {
	e.fields = append(e.fields, zap.Int(key, value))
	return e
}

func (e *Entry) WithBool(key string, value bool) *Entry {
	e.fields = append(e.fields, zap.Bool(key, value))
	return e
}

func (e *Entry) WithParam(key string, value any) *Entry {
	e.fields = append(e.fields, zap.Any(key, value))
	return e
}

func (e *Entry) Log() {
	if ce := e.logger.Check(e.level, e.msg); ce != nil {
		ce.Write(e.fields...)
	}
}
