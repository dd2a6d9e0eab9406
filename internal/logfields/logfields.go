package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field names shared by every package.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyURL        = "url"
	KeyPath       = "path"
	KeyPlugin     = "plugin"
	KeyOutcome    = "outcome"
	KeyPages      = "pages"
	KeyClients    = "clients"
	KeyEvent      = "event"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
	KeyMethod     = "method"
	KeyStatus     = "status"
)

func BuildID(id string) slog.Attr        { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr        { return slog.String(KeyStage, name) }
func URL(u string) slog.Attr             { return slog.String(KeyURL, u) }
func Path(p string) slog.Attr            { return slog.String(KeyPath, p) }
func Plugin(name string) slog.Attr       { return slog.String(KeyPlugin, name) }
func Outcome(o string) slog.Attr         { return slog.String(KeyOutcome, o) }
func Pages(n int) slog.Attr              { return slog.Int(KeyPages, n) }
func Clients(n int) slog.Attr            { return slog.Int(KeyClients, n) }
func Event(op string) slog.Attr          { return slog.String(KeyEvent, op) }
func DurationMS(ms float64) slog.Attr    { return slog.Float64(KeyDurationMS, ms) }
func Duration(d time.Duration) slog.Attr { return DurationMS(float64(d.Microseconds()) / 1000) }
func Method(m string) slog.Attr          { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr          { return slog.Int(KeyStatus, code) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
