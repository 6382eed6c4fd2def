package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New returns the process logger. Development gets a human readable
// console writer, everything else JSON on stdout.
func New(env, level string) zerolog.Logger {
	return newWithWriter(os.Stdout, env, level)
}

func newWithWriter(w io.Writer, env, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	out := w
	if env == "development" {
		out = zerolog.ConsoleWriter{Out: w}
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Str("service", "medicare-backend").Logger()
}
