package telegram

import (
	"fmt"

	tele "gopkg.in/telebot.v4"
)

// Reply keyboard labels. The OnText dispatcher routes on these exact strings.
const (
	btnConfess    = "📝 Confess"
	btnAdminPanel = "⚙️ Admin Panel"

	btnPending     = "📋 Pending"
	btnAutoApprove = "🔁 Toggle Auto-Approve"
	btnViewSender  = "🕵 View Sender"
	btnAddChannel  = "➕ Add Channel"
	btnDelChannel  = "➖ Remove Channel"
	btnChannels    = "📇 List Channels"
	btnAddAdmin    = "👤 Add Admin"
	btnDelAdmin    = "🗑 Remove Admin"
	btnCastUsers   = "📢 Broadcast Users"
	btnCastChans   = "📣 Broadcast Channels"
	btnBack        = "⬅️ Back"
)

// Inline button anchors. Instances are built per message with markup.Data;
// these carry the unique for handler registration.
var (
	btnApprove      = tele.Btn{Unique: "conf_approve"}
	btnDecline      = tele.Btn{Unique: "conf_decline"}
	btnAddComment   = tele.Btn{Unique: "conf_comment"}
	btnViewComments = tele.Btn{Unique: "conf_comments"}
	btnCommentsPage = tele.Btn{Unique: "comments_page"}
	btnSkipTags     = tele.Btn{Unique: "skip_tags"}
)

func replyButtons(rows ...[]string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	var keyboard []tele.Row
	for _, row := range rows {
		var buttons []tele.Btn
		for _, label := range row {
			buttons = append(buttons, markup.Text(label))
		}
		keyboard = append(keyboard, markup.Row(buttons...))
	}
	markup.Reply(keyboard...)
	return markup
}

func mainMenu(isAdmin bool) *tele.ReplyMarkup {
	if isAdmin {
		return replyButtons([]string{btnConfess}, []string{btnAdminPanel})
	}
	return replyButtons([]string{btnConfess})
}

func adminMenu() *tele.ReplyMarkup {
	return replyButtons(
		[]string{btnPending, btnAutoApprove},
		[]string{btnAddChannel, btnDelChannel},
		[]string{btnChannels, btnViewSender},
		[]string{btnAddAdmin, btnDelAdmin},
		[]string{btnCastUsers, btnCastChans},
		[]string{btnBack},
	)
}

// moderationMarkup attaches approve/decline controls to a pending confession.
func moderationMarkup(confessionID int64) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	payload := fmt.Sprintf("%d", confessionID)
	markup.Inline(markup.Row(
		markup.Data("✅ Approve", btnApprove.Unique, payload),
		markup.Data("❌ Decline", btnDecline.Unique, payload),
	))
	return markup
}

// publicationMarkup attaches the comment controls to a published confession.
func publicationMarkup(confessionID int64) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	payload := fmt.Sprintf("%d", confessionID)
	markup.Inline(markup.Row(
		markup.Data("💬 Comments", btnViewComments.Unique, payload),
		markup.Data("➕ Add Comment", btnAddComment.Unique, payload),
	))
	return markup
}

// commentsNavMarkup pages through a confession's comment log.
func commentsNavMarkup(confessionID int64, page int, hasNext bool) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	var row []tele.Btn
	if page > 0 {
		row = append(row, markup.Data("⬅️ Prev", btnCommentsPage.Unique,
			fmt.Sprintf("%d|%d", confessionID, page-1)))
	}
	if hasNext {
		row = append(row, markup.Data("➡️ Next", btnCommentsPage.Unique,
			fmt.Sprintf("%d|%d", confessionID, page+1)))
	}
	row = append(row, markup.Data("➕ Add Comment", btnAddComment.Unique,
		fmt.Sprintf("%d", confessionID)))
	markup.Inline(markup.Row(row...))
	return markup
}

func skipTagsMarkup() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(markup.Data("⏭ Skip", btnSkipTags.Unique, "skip")))
	return markup
}
