package telegram

import (
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// payloadInt64 parses the callback payload as a single int64.
func payloadInt64(c tele.Context) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(c.Data()), 10, 64)
}

// payloadTwoInt64 parses a callback payload like "123|4" into two int64 values.
func payloadTwoInt64(c tele.Context) (int64, int64, error) {
	parts := strings.SplitN(strings.TrimSpace(c.Data()), "|", 2)
	if len(parts) != 2 {
		return 0, 0, strconv.ErrSyntax
	}
	a, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	b, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}
