package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LogOptions selects format and verbosity. Dev environments get a console writer.
type LogOptions struct {
	Env        string
	Level      string // zerolog level name; empty means info
	Service    string
	TimeFormat string // console only
}

// NewLogger returns a JSON logger on stdout, or a console logger when Env is dev.
func NewLogger(o LogOptions) zerolog.Logger {
	return NewLoggerTo(os.Stdout, o)
}

// NewLoggerTo is NewLogger with an explicit destination.
func NewLoggerTo(w io.Writer, o LogOptions) zerolog.Logger {
	if isDev(o.Env) {
		tf := o.TimeFormat
		if tf == "" {
			tf = time.RFC3339
		}
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: tf}
	}
	ctx := zerolog.New(w).Level(ParseLevel(o.Level)).With().Timestamp()
	if o.Service != "" {
		ctx = ctx.Str("service", o.Service)
	}
	return ctx.Logger()
}

// ParseLevel maps a level name to zerolog, falling back to info.
func ParseLevel(s string) zerolog.Level {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return zerolog.InfoLevel
	}
	l, err := zerolog.ParseLevel(s)
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	}
	return false
}
