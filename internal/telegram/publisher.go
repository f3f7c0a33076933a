package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/confessbot/internal/logging"
	"github.com/m3rciful/confessbot/internal/model"
)

// Publisher posts approved confessions to Telegram channels. It implements
// confession.Broadcaster.
type Publisher struct {
	api *tele.Bot
	log *slog.Logger
}

// NewPublisher wires a Publisher onto a live bot API.
func NewPublisher(api *tele.Bot) *Publisher {
	return &Publisher{api: api, log: logging.Component("publisher")}
}

// SendConfession delivers one confession to one channel. The caller isolates
// failures per channel; this method just reports its own.
func (p *Publisher) SendConfession(ctx context.Context, ch model.Channel, conf *model.Confession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.api.Send(tele.ChatID(ch.ID), formatConfession(conf), publicationMarkup(conf.ID))
	if err != nil {
		p.log.Warn("channel delivery failed",
			slog.String("event", "publish.send"),
			slog.Int64("channel_id", ch.ID),
			slog.Int64("confession_id", conf.ID),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("send to channel %d: %w", ch.ID, err)
	}
	return nil
}
