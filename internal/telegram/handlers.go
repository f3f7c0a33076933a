package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/confessbot/internal/confession"
	"github.com/m3rciful/confessbot/internal/flow"
	"github.com/m3rciful/confessbot/internal/model"
)

const startGreeting = "Hi! Press “" + btnConfess + "” to share something anonymously. " +
	"Your identity is never attached to what you send."

func (b *Bot) onStart(c tele.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID

	if err := b.repo.UpsertUser(ctx, userID); err != nil {
		return err
	}
	isAdmin, err := b.gateway.IsAdmin(ctx, userID)
	if err != nil {
		return err
	}
	return c.Send(startGreeting, mainMenu(isAdmin))
}

func (b *Bot) onCancel(c tele.Context) error {
	userID := c.Sender().ID
	b.flows.Cancel(userID)

	isAdmin, err := b.gateway.IsAdmin(context.Background(), userID)
	if err != nil {
		return err
	}
	return c.Send("Cancelled.", mainMenu(isAdmin))
}

// onText is the single entry point for plain text. An active flow always
// consumes the text; otherwise the reply-keyboard labels route, and anything
// left over gets a hint.
func (b *Bot) onText(c tele.Context) error {
	userID := c.Sender().ID

	if b.flows.Active(userID) {
		return b.onFlowText(c)
	}
	if h, ok := b.textRoutes[c.Text()]; ok {
		return h(c)
	}
	return c.Send("Press “" + btnConfess + "” to start, or /cancel to reset.")
}

func (b *Bot) onFlowText(c tele.Context) error {
	userID := c.Sender().ID
	f := b.flows.Peek(userID)

	switch f.Kind {
	case flow.KindDraftingContent:
		b.flows.Advance(userID, flow.Flow{Kind: flow.KindAwaitingTags, Content: c.Text()})
		return c.Send(
			fmt.Sprintf("Got it. Now send up to %d tags (with or without #), or skip.", confession.MaxTags),
			skipTagsMarkup(),
		)

	case flow.KindAwaitingTags:
		taken, err := b.flows.Take(userID)
		if err != nil {
			return c.Send(userMessage(err))
		}
		return b.submitConfession(c, taken.Content, c.Text())

	case flow.KindAwaitingComment:
		return b.handleCommentText(c, f)

	case flow.KindAwaitingSenderLookup:
		return b.handleSenderLookup(c)
	case flow.KindAwaitingChannelAdd:
		return b.handleChannelAdd(c)
	case flow.KindAwaitingChannelRemove:
		return b.handleChannelRemove(c)
	case flow.KindAwaitingAdminAdd:
		return b.handleAdminAdd(c)
	case flow.KindAwaitingAdminRemove:
		return b.handleAdminRemove(c)
	case flow.KindAwaitingBroadcastUsers:
		return b.handleBroadcastUsers(c)
	case flow.KindAwaitingBroadcastChannels:
		return b.handleBroadcastChannels(c)
	}

	b.flows.Cancel(userID)
	return c.Send("Something went wrong, the conversation was reset.")
}

func (b *Bot) onConfess(c tele.Context) error {
	err := b.flows.Begin(c.Sender().ID, flow.Flow{Kind: flow.KindDraftingContent})
	if err != nil {
		return c.Send(userMessage(err))
	}
	return c.Send("Send your confession as a single message. /cancel to abort.")
}

// onSkipTags finalizes a draft without tags.
func (b *Bot) onSkipTags(c tele.Context) error {
	userID := c.Sender().ID
	if b.flows.Peek(userID).Kind != flow.KindAwaitingTags {
		return c.Respond(&tele.CallbackResponse{Text: "Nothing to finish here."})
	}
	taken, err := b.flows.Take(userID)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: userMessage(err)})
	}
	if err := c.Respond(); err != nil {
		return err
	}
	return b.submitConfession(c, taken.Content, "")
}

func (b *Bot) submitConfession(c tele.Context, content, rawTags string) error {
	ctx := context.Background()
	userID := c.Sender().ID

	conf, _, err := b.confessions.Submit(ctx, userID, content, rawTags)
	if err != nil {
		return c.Send(userMessage(err))
	}

	if conf.Status == model.StatusApproved {
		return c.Send(fmt.Sprintf("Published! Your confession is #%d.", conf.ID))
	}

	b.notifyModerators(ctx, conf)
	return c.Send(fmt.Sprintf("Sent for review. Your confession is #%d.", conf.ID))
}

// notifyModerators pushes a pending confession to the main admin and every
// secondary admin with the approve/decline controls attached.
func (b *Bot) notifyModerators(ctx context.Context, conf *model.Confession) {
	targets := []int64{b.gateway.MainAdmin()}
	admins, err := b.repo.ListAdmins(ctx)
	if err != nil {
		b.log.Warn("admin listing for notification failed",
			slog.String("event", "notify.admins"),
			slog.Int64("confession_id", conf.ID),
			slog.String("err", err.Error()),
		)
	} else {
		for _, a := range admins {
			targets = append(targets, a.ID)
		}
	}

	text := formatPendingItem(conf)
	markup := moderationMarkup(conf.ID)
	for _, id := range targets {
		if _, err := b.api.Send(tele.ChatID(id), text, markup); err != nil {
			b.log.Warn("moderator notification failed",
				slog.String("event", "notify.send"),
				slog.Int64("user_id", id),
				slog.Int64("confession_id", conf.ID),
				slog.String("err", err.Error()),
			)
		}
	}
}

// onAddCommentCB starts the anonymous comment flow for the confession in the
// callback payload.
func (b *Bot) onAddCommentCB(c tele.Context) error {
	confessionID, err := payloadInt64(c)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Broken button."})
	}
	err = b.flows.Begin(c.Sender().ID, flow.Flow{
		Kind:     flow.KindAwaitingComment,
		TargetID: confessionID,
	})
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: userMessage(err), ShowAlert: true})
	}
	if err := c.Respond(); err != nil {
		return err
	}
	_, err = b.api.Send(c.Sender(),
		fmt.Sprintf("Send your anonymous comment for confession #%d. /cancel to abort.", confessionID))
	return err
}

// handleCommentText persists the comment. The flow is cleared only after the
// write succeeds so a storage failure leaves the user able to just resend.
func (b *Bot) handleCommentText(c tele.Context, f flow.Flow) error {
	ctx := context.Background()
	userID := c.Sender().ID

	if _, err := b.comments.Add(ctx, f.TargetID, c.Text()); err != nil {
		var nf *model.NotFoundError
		if errors.As(err, &nf) {
			b.flows.Cancel(userID)
			return c.Send(userMessage(err))
		}
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			return c.Send(userMessage(err) + " Try again or /cancel.")
		}
		return c.Send("Could not save the comment, try sending it again.")
	}

	b.flows.Cancel(userID)
	return c.Send(fmt.Sprintf("Comment added to confession #%d.", f.TargetID))
}

func (b *Bot) onViewCommentsCB(c tele.Context) error {
	confessionID, err := payloadInt64(c)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Broken button."})
	}
	return b.sendCommentsPage(c, confessionID, 0, false)
}

func (b *Bot) onCommentsPageCB(c tele.Context) error {
	confessionID, page, err := payloadTwoInt64(c)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Broken button."})
	}
	return b.sendCommentsPage(c, confessionID, int(page), true)
}

// sendCommentsPage renders one page of the log. Page flips edit the
// navigation message in place; the first view sends a fresh one.
func (b *Bot) sendCommentsPage(c tele.Context, confessionID int64, pageNum int, edit bool) error {
	page, err := b.comments.List(context.Background(), confessionID, pageNum)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Could not load comments."})
	}
	if err := c.Respond(); err != nil {
		return err
	}

	text := formatCommentsPage(confessionID, page)
	markup := commentsNavMarkup(confessionID, page.Number, page.HasNext())
	if edit {
		return c.Edit(text, markup)
	}
	_, err = b.api.Send(c.Sender(), text, markup)
	return err
}

// userMessage maps service errors onto operator-free replies.
func userMessage(err error) string {
	var (
		ve *model.ValidationError
		nf *model.NotFoundError
		na *model.NotAuthorizedError
		ad *model.AlreadyDecidedError
		np *model.NoPendingDraftError
		fa *model.FlowActiveError
	)
	switch {
	case errors.As(err, &ve):
		return "That doesn't look right: " + ve.Reason + "."
	case errors.As(err, &nf):
		return "Not found. It may have been removed."
	case errors.As(err, &na):
		return "You are not allowed to do that."
	case errors.As(err, &ad):
		return fmt.Sprintf("Confession #%d was already %s.", ad.ConfessionID, ad.Status)
	case errors.As(err, &np):
		return "There is no draft in progress. Press “" + btnConfess + "” to start one."
	case errors.As(err, &fa):
		return "You already have a conversation in progress. Finish it or /cancel first."
	default:
		return "Something went wrong, please try again."
	}
}
