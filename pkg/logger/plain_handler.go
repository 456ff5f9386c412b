package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// plainHandler prints the message, prefixed by the intention marker, followed
// by key=value pairs. No time or level decorations; meant for a terminal.
type plainHandler struct {
	w       io.Writer
	attrs   []slog.Attr
	mu      *sync.Mutex
	leveler slog.Leveler
}

func newPlainHandler(w io.Writer, leveler slog.Leveler) slog.Handler {
	return &plainHandler{w: w, leveler: leveler, mu: &sync.Mutex{}}
}

// metaKeys never reach the console line
var metaKeys = map[string]bool{
	"intention": true,
	"time":      true,
	"level":     true,
	"msg":       true,
	"component": true,
	"session":   true,
}

func (h *plainHandler) Enabled(_ context.Context, lvl slog.Level) bool {
	if h.leveler == nil {
		return true
	}
	return lvl >= h.leveler.Level()
}

// flatten expands group attributes one level deep
func flatten(a slog.Attr, fn func(slog.Attr)) {
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			fn(ga)
		}
		return
	}
	fn(a)
}

func (h *plainHandler) Handle(_ context.Context, r slog.Record) error {
	var all []slog.Attr
	all = append(all, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		all = append(all, a)
		return true
	})

	intention := ""
	var pairs strings.Builder
	for _, a := range all {
		flatten(a, func(a slog.Attr) {
			if a.Key == "intention" {
				intention = a.Value.String()
				return
			}
			if metaKeys[a.Key] {
				return
			}
			fmt.Fprintf(&pairs, " %s=%v", a.Key, a.Value)
		})
	}

	line := r.Message + pairs.String()
	if intention != "" {
		line = markerFor(Intention(intention)) + " " + line
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.w, line)
	return err
}

func (h *plainHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &nh
}

// WithGroup is encoded as an empty group attr; the console output is flat anyway
func (h *plainHandler) WithGroup(name string) slog.Handler {
	nh := *h
	nh.attrs = append(append([]slog.Attr{}, h.attrs...), slog.Group(name))
	return &nh
}
