package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/confessbot/internal/flow"
	"github.com/m3rciful/confessbot/internal/model"
)

func (b *Bot) onAdminPanel(c tele.Context) error {
	if err := b.gateway.Authorize(context.Background(), c.Sender().ID); err != nil {
		return c.Send(userMessage(err))
	}
	return c.Send("Admin panel.", adminMenu())
}

func (b *Bot) onBack(c tele.Context) error {
	isAdmin, err := b.gateway.IsAdmin(context.Background(), c.Sender().ID)
	if err != nil {
		return err
	}
	return c.Send("Main menu.", mainMenu(isAdmin))
}

// promptFlow builds a handler that authorizes the admin, opens the given flow
// and asks for the next input.
func (b *Bot) promptFlow(kind flow.Kind, prompt string) tele.HandlerFunc {
	return func(c tele.Context) error {
		userID := c.Sender().ID
		if err := b.gateway.Authorize(context.Background(), userID); err != nil {
			return c.Send(userMessage(err))
		}
		if err := b.flows.Begin(userID, flow.Flow{Kind: kind}); err != nil {
			return c.Send(userMessage(err))
		}
		return c.Send(prompt + " /cancel to abort.")
	}
}

func (b *Bot) onPending(c tele.Context) error {
	pending, err := b.confessions.ListPending(context.Background(), c.Sender().ID)
	if err != nil {
		return c.Send(userMessage(err))
	}
	if len(pending) == 0 {
		return c.Send("No pending confessions.")
	}
	for i := range pending {
		conf := &pending[i]
		if err := c.Send(formatPendingItem(conf), moderationMarkup(conf.ID)); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) onToggleAutoApprove(c tele.Context) error {
	ctx := context.Background()
	actor := c.Sender().ID

	on, err := b.confessions.AutoApprove(ctx)
	if err != nil {
		return c.Send(userMessage(err))
	}
	if err := b.confessions.SetAutoApprove(ctx, actor, !on); err != nil {
		return c.Send(userMessage(err))
	}
	if on {
		return c.Send("Auto-approve is now OFF. New confessions will wait for review.")
	}
	return c.Send("Auto-approve is now ON. New confessions publish immediately.")
}

func (b *Bot) onListChannels(c tele.Context) error {
	channels, err := b.gateway.ListChannels(context.Background(), c.Sender().ID)
	if err != nil {
		return c.Send(userMessage(err))
	}
	if len(channels) == 0 {
		return c.Send("No channels registered.")
	}
	var sb strings.Builder
	sb.WriteString("Publication channels:\n")
	for _, ch := range channels {
		if ch.Username != "" {
			fmt.Fprintf(&sb, "\n@%s (%d)", ch.Username, ch.ID)
		} else {
			fmt.Fprintf(&sb, "\n%d", ch.ID)
		}
	}
	return c.Send(sb.String())
}

func (b *Bot) onApproveCB(c tele.Context) error {
	confessionID, err := payloadInt64(c)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Broken button."})
	}
	actor := c.Sender().ID

	_, results, err := b.confessions.Approve(context.Background(), confessionID, actor)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: userMessage(err), ShowAlert: true})
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	note := "Approved and published."
	if failed > 0 {
		note = fmt.Sprintf("Approved; %d of %d channels failed.", failed, len(results))
	}
	if err := c.Respond(&tele.CallbackResponse{Text: note}); err != nil {
		return err
	}
	return c.Edit(c.Message().Text + "\n\n✅ Approved")
}

func (b *Bot) onDeclineCB(c tele.Context) error {
	confessionID, err := payloadInt64(c)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Broken button."})
	}
	actor := c.Sender().ID

	if _, err := b.confessions.Decline(context.Background(), confessionID, actor); err != nil {
		return c.Respond(&tele.CallbackResponse{Text: userMessage(err), ShowAlert: true})
	}
	if err := c.Respond(&tele.CallbackResponse{Text: "Declined."}); err != nil {
		return err
	}
	return c.Edit(c.Message().Text + "\n\n❌ Declined")
}

// handleSenderLookup answers the only identity-revealing query in the system.
func (b *Bot) handleSenderLookup(c tele.Context) error {
	userID := c.Sender().ID
	confessionID, err := strconv.ParseInt(strings.TrimSpace(c.Text()), 10, 64)
	if err != nil {
		return c.Send("Send the confession number, digits only. /cancel to abort.")
	}
	b.flows.Cancel(userID)

	authorID, err := b.confessions.LookupSender(context.Background(), confessionID, userID)
	if err != nil {
		return c.Send(userMessage(err))
	}
	return c.Send(fmt.Sprintf("Confession #%d was sent by user %d.", confessionID, authorID))
}

func (b *Bot) handleChannelAdd(c tele.Context) error {
	userID := c.Sender().ID
	chat, err := b.resolveChat(c.Text())
	if err != nil {
		return c.Send("Could not find that channel. Send @username or a numeric id. /cancel to abort.")
	}

	member, err := b.api.ChatMemberOf(chat, b.api.Me)
	if err != nil || (member.Role != tele.Administrator && member.Role != tele.Creator) {
		return c.Send("The bot must be an administrator of that channel first. Promote it and resend. /cancel to abort.")
	}
	b.flows.Cancel(userID)

	added, err := b.gateway.AddChannel(context.Background(), userID, &model.Channel{
		ID:       chat.ID,
		Username: chat.Username,
	})
	if err != nil {
		return c.Send(userMessage(err))
	}
	if !added {
		return c.Send("That channel is already registered.")
	}
	return c.Send(fmt.Sprintf("Channel %d registered. Approved confessions will be posted there.", chat.ID))
}

func (b *Bot) handleChannelRemove(c tele.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID

	channelID, err := b.resolveChannelID(ctx, userID, c.Text())
	if err != nil {
		var na *model.NotAuthorizedError
		if errors.As(err, &na) {
			b.flows.Cancel(userID)
			return c.Send(userMessage(err))
		}
		return c.Send("Send the channel @username or numeric id. /cancel to abort.")
	}
	b.flows.Cancel(userID)

	removed, err := b.gateway.RemoveChannel(ctx, userID, channelID)
	if err != nil {
		return c.Send(userMessage(err))
	}
	if !removed {
		return c.Send("That channel was not registered.")
	}
	return c.Send(fmt.Sprintf("Channel %d removed.", channelID))
}

// resolveChannelID accepts a numeric id directly or maps @username through the
// registered channel list.
func (b *Bot) resolveChannelID(ctx context.Context, actor int64, ref string) (int64, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return id, nil
	}
	name := strings.TrimPrefix(ref, "@")
	if name == "" || name == ref {
		return 0, fmt.Errorf("bad channel reference %q", ref)
	}
	channels, err := b.gateway.ListChannels(ctx, actor)
	if err != nil {
		return 0, err
	}
	for _, ch := range channels {
		if strings.EqualFold(ch.Username, name) {
			return ch.ID, nil
		}
	}
	return 0, fmt.Errorf("channel %q not registered", ref)
}

func (b *Bot) resolveChat(ref string) (*tele.Chat, error) {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "@") {
		return b.api.ChatByUsername(ref)
	}
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad chat reference %q", ref)
	}
	return b.api.ChatByID(id)
}

func (b *Bot) handleAdminAdd(c tele.Context) error {
	userID := c.Sender().ID
	target, err := strconv.ParseInt(strings.TrimSpace(c.Text()), 10, 64)
	if err != nil {
		return c.Send("Send the user id, digits only. /cancel to abort.")
	}
	b.flows.Cancel(userID)

	added, err := b.gateway.GrantAdmin(context.Background(), userID, target)
	if err != nil {
		return c.Send(userMessage(err))
	}
	if !added {
		return c.Send("No change: that user already has admin rights.")
	}
	return c.Send(fmt.Sprintf("User %d is now an admin.", target))
}

func (b *Bot) handleAdminRemove(c tele.Context) error {
	userID := c.Sender().ID
	target, err := strconv.ParseInt(strings.TrimSpace(c.Text()), 10, 64)
	if err != nil {
		return c.Send("Send the user id, digits only. /cancel to abort.")
	}
	b.flows.Cancel(userID)

	removed, err := b.gateway.RevokeAdmin(context.Background(), userID, target)
	if err != nil {
		return c.Send(userMessage(err))
	}
	if !removed {
		return c.Send("No change: that user was not a secondary admin.")
	}
	return c.Send(fmt.Sprintf("User %d is no longer an admin.", target))
}

func (b *Bot) handleBroadcastUsers(c tele.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID
	text := c.Text()
	b.flows.Cancel(userID)

	if err := b.gateway.Authorize(ctx, userID); err != nil {
		return c.Send(userMessage(err))
	}
	ids, err := b.repo.ListUserIDs(ctx)
	if err != nil {
		return c.Send("Could not load the user list.")
	}

	sent, failed := 0, 0
	for _, id := range ids {
		if _, err := b.api.Send(tele.ChatID(id), text); err != nil {
			failed++
			continue
		}
		sent++
	}
	b.log.Info("user broadcast finished",
		slog.String("event", "broadcast.users"),
		slog.Int64("user_id", userID),
		slog.Int("count", sent),
	)
	return c.Send(fmt.Sprintf("Broadcast done: %d delivered, %d failed.", sent, failed))
}

func (b *Bot) handleBroadcastChannels(c tele.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID
	text := c.Text()
	b.flows.Cancel(userID)

	channels, err := b.gateway.ListChannels(ctx, userID)
	if err != nil {
		return c.Send(userMessage(err))
	}

	sent, failed := 0, 0
	for _, ch := range channels {
		if _, err := b.api.Send(tele.ChatID(ch.ID), text); err != nil {
			failed++
			continue
		}
		sent++
	}
	b.log.Info("channel broadcast finished",
		slog.String("event", "broadcast.channels"),
		slog.Int64("user_id", userID),
		slog.Int("count", sent),
	)
	return c.Send(fmt.Sprintf("Broadcast done: %d channels reached, %d failed.", sent, failed))
}
