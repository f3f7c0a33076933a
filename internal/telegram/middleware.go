package telegram

import (
	"context"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/confessbot/internal/logging"
)

// recoverMiddleware catches panics in handlers and prevents the bot from crashing.
func recoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		defer func() {
			if r := recover(); r != nil {
				logging.Component("tg").Error("panic recovered",
					slog.String("event", "tg.panic"),
					slog.Any("err", r),
					slog.String("stack", string(debug.Stack())),
				)
			}
		}()
		return next(c)
	}
}

// handled runs a handler and emits a single summary line with the outcome.
func handled(c tele.Context, name string, fn func(tele.Context) error) error {
	start := time.Now()
	err := fn(c)

	status := "ok"
	attrs := []slog.Attr{
		slog.String("handler", name),
	}
	if user := c.Sender(); user != nil {
		attrs = append(attrs, slog.Int64("user_id", user.ID))
	}
	if err != nil {
		status = "fail"
		attrs = append(attrs,
			slog.String("err", err.Error()),
			slog.String("err_code", deriveErrorCode(err)),
		)
	}
	attrs = append([]slog.Attr{slog.String("status", status)}, attrs...)
	attrs = append(attrs, slog.Int64("duration_ms", logging.RoundMS(time.Since(start)).Milliseconds()))

	logging.Component("tg").LogAttrs(context.Background(), slog.LevelInfo, "handler.handled", attrs...)
	return err
}

func deriveErrorCode(err error) string {
	type coder interface{ Code() string }
	if c, ok := err.(coder); ok {
		if code := strings.TrimSpace(c.Code()); code != "" {
			return code
		}
	}
	return "UNKNOWN_ERROR"
}
