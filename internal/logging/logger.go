package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// 统一的结构化字段名。
const (
	FieldRunID   = "run_id"
	FieldSeason  = "season"
	FieldEpisode = "episode"
	FieldStage   = "stage"
	FieldFile    = "file"
)

// Options 描述 logger 的构造参数。
type Options struct {
	Level  string // debug / info / warn / error
	Format string // text / json
}

// New 构造写往 w 的 slog logger。
func New(w io.Writer, opts Options) (*slog.Logger, error) {
	if w == nil {
		return NewNop(), nil
	}
	ho := &slog.HandlerOptions{Level: parseLevel(opts.Level)}

	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, ho)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, ho)), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
}

// NewNop 返回丢弃所有输出的 logger。
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// LevelFor 把 --verbose 映射为日志级别。
func LevelFor(verbose bool) string {
	if verbose {
		return "debug"
	}
	return "info"
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
