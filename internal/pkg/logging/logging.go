package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/oops"
)

// New builds the root logger. Development gets a console writer, everything
// else gets JSON lines on stdout.
func New(level string, development bool) zerolog.Logger {
	var w io.Writer = os.Stdout
	if development {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return NewWithWriter(w, level)
}

// NewWithWriter builds a logger on w. An unknown level falls back to info.
func NewWithWriter(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Error logs err at error level. oops errors contribute their code and
// context as structured fields.
func Error(logger zerolog.Logger, msg string, err error) {
	ev := logger.Error()
	if oopsErr, ok := oops.AsOops(err); ok {
		ev = ev.Str("error", oopsErr.Error())
		if code := oopsErr.Code(); code != nil {
			ev = ev.Interface("code", code)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			ev = ev.Interface("context", ctx)
		}
		ev.Msg(msg)
		return
	}
	ev.Err(err).Msg(msg)
}
