package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"
)

// Keys emitted before everything else, in this order. Remaining keys are
// sorted alphabetically after them.
var keyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"user_id",
	"chat_id",
	"confession_id",
	"comment_id",
	"channel_id",
	"handler",
	"outcome",
	"duration_ms",
	"page",
	"count",
	"err",
	"err_code",
}

type handlerConfig struct {
	level  slog.Leveler
	writer io.Writer
	format logFormat
}

type lineHandler struct {
	cfg   handlerConfig
	attrs []slog.Attr
	mu    *sync.Mutex
}

func newLineHandler(cfg handlerConfig) *lineHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	return &lineHandler{cfg: cfg, mu: &sync.Mutex{}}
}

// Enabled reports whether the handler allows processing the provided level.
func (h *lineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.level.Level()
}

// Handle formats the record and writes a single newline-terminated line.
func (h *lineHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make(map[string]any, 12)
	fields["ts"] = r.Time.UTC().Truncate(time.Millisecond).Format(timeFormatMillis)
	fields["level"] = strings.ToUpper(r.Level.String())

	for _, a := range h.attrs {
		collectAttr(fields, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		collectAttr(fields, a)
		return true
	})

	if _, ok := fields["event"]; !ok && r.Message != "" {
		fields["event"] = r.Message
	}
	if _, ok := fields["component"]; !ok {
		fields["component"] = "app"
	}
	pruneEmpty(fields)

	line, err := h.format(fields)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.cfg.writer.Write(line)
	return err
}

// WithAttrs returns a shallow copy of the handler enriched with attrs.
func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

// WithGroup flattens groups into dotted keys via collectAttr; the group name
// itself is dropped, which is enough for this bot's flat log schema.
func (h *lineHandler) WithGroup(string) slog.Handler { return h }

func collectAttr(fields map[string]any, attr slog.Attr) {
	key := attr.Key
	if key == "" {
		return
	}
	val := attr.Value.Resolve()
	switch val.Kind() {
	case slog.KindGroup:
		for _, child := range val.Group() {
			child.Key = key + "." + child.Key
			collectAttr(fields, child)
		}
	case slog.KindDuration:
		if !strings.HasSuffix(key, "_ms") {
			if key == "duration" {
				key = "duration_ms"
			} else {
				key += "_ms"
			}
		}
		fields[key] = RoundMS(val.Duration()).Milliseconds()
	case slog.KindString:
		fields[key] = strings.TrimSpace(val.String())
	case slog.KindTime:
		fields[key] = val.Time().UTC().Format(time.RFC3339Nano)
	default:
		fields[key] = val.Any()
	}
}

func pruneEmpty(fields map[string]any) {
	for k, v := range fields {
		switch val := v.(type) {
		case string:
			if val == "" {
				delete(fields, k)
			}
		case nil:
			delete(fields, k)
		}
	}
}

func (h *lineHandler) format(fields map[string]any) ([]byte, error) {
	keys := orderedKeys(fields)
	if h.cfg.format == formatJSON {
		return formatJSONLine(fields, keys)
	}
	return formatKVLine(fields, keys), nil
}

func orderedKeys(fields map[string]any) []string {
	keys := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, key := range keyOrder {
		if _, ok := fields[key]; ok {
			keys = append(keys, key)
			seen[key] = struct{}{}
		}
	}
	prefixLen := len(keys)
	for key := range fields {
		if _, ok := seen[key]; !ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys[prefixLen:])
	return keys
}

func formatJSONLine(fields map[string]any, keys []string) ([]byte, error) {
	var buf strings.Builder
	buf.WriteByte('{')
	for i, key := range keys {
		data, err := json.Marshal(fields[key])
		if err != nil {
			return nil, err
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(key))
		buf.WriteByte(':')
		buf.Write(data)
	}
	buf.WriteByte('}')
	return []byte(buf.String()), nil
}

func formatKVLine(fields map[string]any, keys []string) []byte {
	var b strings.Builder
	for i, key := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(formatValueKV(fields[key]))
	}
	return []byte(b.String())
}

func formatValueKV(val any) string {
	switch v := val.(type) {
	case string:
		if strings.IndexFunc(v, needsQuote) >= 0 {
			return strconv.Quote(v)
		}
		return v
	case bool:
		return strconv.FormatBool(v)
	case int, int8, int16, int32, int64, uint, uint32, uint64, float64:
		return fmt.Sprint(v)
	default:
		s := fmt.Sprint(v)
		if strings.IndexFunc(s, needsQuote) >= 0 {
			return strconv.Quote(s)
		}
		return s
	}
}

func needsQuote(r rune) bool {
	return r <= 32 || r == '=' || r == '"'
}
