// Package telegram is the bot front end: update routing, conversation flows,
// the admin panel and channel publication.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/confessbot/internal/comment"
	"github.com/m3rciful/confessbot/internal/confession"
	"github.com/m3rciful/confessbot/internal/config"
	"github.com/m3rciful/confessbot/internal/flow"
	"github.com/m3rciful/confessbot/internal/logging"
	"github.com/m3rciful/confessbot/internal/moderation"
	"github.com/m3rciful/confessbot/internal/storage"
)

// NewAPI constructs the raw Telegram bot client for the configured run mode.
func NewAPI(cfg *config.Config) (*tele.Bot, error) {
	start := time.Now()
	api, err := tele.NewBot(tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: buildPoller(cfg),
		Client: newHTTPClient(),
	})
	if err != nil {
		return nil, fmt.Errorf("bot initialization failed: %w", err)
	}

	log := logging.Component("tg")
	if cfg.Telegram.RunMode == config.RunModeWebhook {
		log.Info("webhook mode",
			slog.String("event", "mode"),
			slog.String("mode", "webhook"),
			slog.String("public_url", cfg.Webhook.URL),
			slog.Duration("duration", logging.RoundMS(time.Since(start))),
		)
	} else {
		log.Info("polling mode",
			slog.String("event", "mode"),
			slog.String("mode", "polling"),
			slog.Duration("duration", logging.RoundMS(time.Since(start))),
		)
		if err := deleteWebhook(cfg.Telegram.Token); err != nil {
			log.Warn("failed to delete webhook",
				slog.String("event", "delete_webhook"),
				slog.String("err", err.Error()),
			)
		}
	}
	return api, nil
}

// Deps bundles everything the bot handlers need.
type Deps struct {
	Config      *config.Config
	Repo        storage.Repository
	Flows       *flow.Tracker
	Gateway     *moderation.Gateway
	Confessions *confession.Service
	Comments    *comment.Service
}

// Bot routes Telegram updates into the services.
type Bot struct {
	api         *tele.Bot
	cfg         *config.Config
	repo        storage.Repository
	flows       *flow.Tracker
	gateway     *moderation.Gateway
	confessions *confession.Service
	comments    *comment.Service
	log         *slog.Logger

	textRoutes map[string]tele.HandlerFunc
}

// New wires the bot handlers onto a live API client.
func New(api *tele.Bot, deps Deps) *Bot {
	b := &Bot{
		api:         api,
		cfg:         deps.Config,
		repo:        deps.Repo,
		flows:       deps.Flows,
		gateway:     deps.Gateway,
		confessions: deps.Confessions,
		comments:    deps.Comments,
		log:         logging.Component("tg"),
	}
	b.register()
	return b
}

func (b *Bot) register() {
	b.api.Use(recoverMiddleware)

	b.api.Handle("/start", b.wrap("start", b.onStart))
	b.api.Handle("/cancel", b.wrap("cancel", b.onCancel))
	b.api.Handle("/pending", b.wrap("pending", b.onPending))
	b.api.Handle(tele.OnText, b.wrap("text", b.onText))

	b.api.Handle(&btnSkipTags, b.wrap("skip_tags", b.onSkipTags))
	b.api.Handle(&btnApprove, b.wrap("approve", b.onApproveCB))
	b.api.Handle(&btnDecline, b.wrap("decline", b.onDeclineCB))
	b.api.Handle(&btnAddComment, b.wrap("add_comment", b.onAddCommentCB))
	b.api.Handle(&btnViewComments, b.wrap("view_comments", b.onViewCommentsCB))
	b.api.Handle(&btnCommentsPage, b.wrap("comments_page", b.onCommentsPageCB))

	// Text-button routing happens inside onText so an active flow always
	// wins over a button label.
	b.textRoutes = map[string]tele.HandlerFunc{
		btnConfess:     b.onConfess,
		btnAdminPanel:  b.onAdminPanel,
		btnBack:        b.onBack,
		btnPending:     b.onPending,
		btnAutoApprove: b.onToggleAutoApprove,
		btnChannels:    b.onListChannels,
		btnViewSender:  b.promptFlow(flow.KindAwaitingSenderLookup, "Send the confession number."),
		btnAddChannel:  b.promptFlow(flow.KindAwaitingChannelAdd, "Send the channel @username or id. The bot must already be an administrator there."),
		btnDelChannel:  b.promptFlow(flow.KindAwaitingChannelRemove, "Send the channel @username or id to remove."),
		btnAddAdmin:    b.promptFlow(flow.KindAwaitingAdminAdd, "Send the user id to grant admin rights."),
		btnDelAdmin:    b.promptFlow(flow.KindAwaitingAdminRemove, "Send the user id to revoke admin rights."),
		btnCastUsers:   b.promptFlow(flow.KindAwaitingBroadcastUsers, "Send the message to broadcast to all users."),
		btnCastChans:   b.promptFlow(flow.KindAwaitingBroadcastChannels, "Send the message to broadcast to all channels."),
	}
}

func (b *Bot) wrap(name string, fn tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		return handled(c, name, fn)
	}
}

// Run starts the bot and blocks until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.api.Start()
		close(done)
	}()

	b.log.Info("bot started",
		slog.String("event", "start"),
		slog.Int64("user_id", b.api.Me.ID),
	)

	select {
	case <-ctx.Done():
		b.api.Stop()
		<-done
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		return ctx.Err()
	case <-done:
		return nil
	}
}

// deleteWebhook clears a stale webhook so long polling can receive updates.
func deleteWebhook(token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("empty token")
	}
	url := fmt.Sprintf("https://api.telegram.org/bot%s/deleteWebhook", token)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url,
		strings.NewReader("drop_pending_updates=false"))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("deleteWebhook status: %s", resp.Status)
	}
	return nil
}
