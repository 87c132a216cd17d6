package helper

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"log/slog"

	"github.com/fatih/color"
)

// PrettyHandlerOptions wraps the standard slog.HandlerOptions so callers
// configure level/AddSource/ReplaceAttr the usual way.
type PrettyHandlerOptions struct {
	SlogOpts slog.HandlerOptions
}

// PrettyHandler renders level-tagged, colorized single-line records to an
// io.Writer. It delegates attribute handling to an embedded slog.Handler
// and only owns formatting of the final line.
type PrettyHandler struct {
	slog.Handler
	l *log.Logger
}

// NewPrettyHandler builds a PrettyHandler writing to out.
func NewPrettyHandler(out io.Writer, opts PrettyHandlerOptions) *PrettyHandler {
	return &PrettyHandler{
		Handler: slog.NewJSONHandler(out, &opts.SlogOpts),
		l:       log.New(out, "", 0),
	}
}

func levelColor(level slog.Level) (string, *color.Color) {
	switch {
	case level < slog.LevelInfo:
		return "DEBUG:", color.New(color.FgMagenta)
	case level < slog.LevelWarn:
		return "INFO:", color.New(color.FgCyan)
	case level < slog.LevelError:
		return "WARN:", color.New(color.FgYellow)
	default:
		return "ERROR:", color.New(color.FgRed)
	}
}

// Handle implements slog.Handler. It formats one line of the shape
// "[HH:MM:SS.mmm] LEVEL: message {"key":"value"}".
func (h *PrettyHandler) Handle(ctx context.Context, r slog.Record) error {
	levelLabel, levelColor := levelColor(r.Level)

	fields := make(map[string]interface{}, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		fields[a.Key] = a.Value.Any()
		return true
	})

	b, err := json.Marshal(fields)
	if err != nil {
		return NewError("marshal log attrs", err)
	}

	timestamp := r.Time.Format("15:04:05.000")

	h.l.Println(
		color.New(color.FgWhite).Sprintf("[%s]", timestamp),
		levelColor.Sprint(levelLabel),
		r.Message,
		color.New(color.FgHiBlack).Sprint(string(b)),
	)

	return nil
}

// WithAttrs implements slog.Handler, delegating to the embedded handler so
// grouped/derived loggers keep their pretty formatting.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &PrettyHandler{Handler: h.Handler.WithAttrs(attrs), l: h.l}
}

// WithGroup implements slog.Handler.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	return &PrettyHandler{Handler: h.Handler.WithGroup(name), l: h.l}
}
