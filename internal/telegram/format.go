package telegram

import (
	"fmt"
	"strings"

	"github.com/m3rciful/confessbot/internal/comment"
	"github.com/m3rciful/confessbot/internal/model"
)

// formatConfession renders the public, author-free representation.
func formatConfession(conf *model.Confession) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📢 Confession #%d\n\n%s", conf.ID, conf.Content)
	if len(conf.Tags) > 0 {
		sb.WriteString("\n\n")
		for i, tag := range conf.Tags {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString("#" + tag)
		}
	}
	return sb.String()
}

// formatPendingItem renders a confession for the moderation queue.
func formatPendingItem(conf *model.Confession) string {
	return fmt.Sprintf("🕓 Confession #%d (pending)\n\n%s", conf.ID, conf.Content)
}

// formatCommentsPage renders one page of the anonymous comment log.
func formatCommentsPage(confessionID int64, page comment.Page) string {
	if page.Total == 0 {
		return fmt.Sprintf("Confession #%d has no comments yet.", confessionID)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "💬 Comments on confession #%d (page %d, %d total)\n",
		confessionID, page.Number+1, page.Total)
	for i, cm := range page.Comments {
		fmt.Fprintf(&sb, "\n%d. %s", page.Number*comment.PageSize+i+1, cm.Text)
	}
	if len(page.Comments) == 0 {
		sb.WriteString("\nNothing on this page.")
	}
	return sb.String()
}
