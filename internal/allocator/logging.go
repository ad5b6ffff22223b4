package allocator

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger is the abstract logging sink the core allocator emits to. It is
// deliberately narrow: the allocator only ever emits debug events
// ("called", "using chunk of size N") and warning events ("data size too
// big"). There is no error level — realtime-visible failure is always a nil
// return; an exhausted free list is not logged, and the only hot-path log
// call is the oversize warning from SizedAllocator.Allocate.
type Logger interface {
	Debug(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
}

// NopLogger discards every event. It is the default when no Logger is
// configured, so the allocator stays usable with zero setup.
type NopLogger struct{}

func (NopLogger) Debug(string, map[string]any) {}
func (NopLogger) Warn(string, map[string]any)  {}

// ZerologLogger adapts a zerolog.Logger to the Logger interface.
type ZerologLogger struct {
	z zerolog.Logger
}

// NewZerologLogger wraps z for use as the allocator's Logger.
func NewZerologLogger(z zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{z: z}
}

// NewDefaultLogger returns a ZerologLogger writing to stderr, convenient
// for the demo binary and for debugging a single process.
func NewDefaultLogger() *ZerologLogger {
	return NewZerologLogger(zerolog.New(os.Stderr).With().Timestamp().Logger())
}

func (l *ZerologLogger) Debug(msg string, fields map[string]any) {
	ev := l.z.Debug()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func (l *ZerologLogger) Warn(msg string, fields map[string]any) {
	ev := l.z.Warn()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}
