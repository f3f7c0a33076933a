package telegram

import (
	"strings"
	"testing"

	"github.com/m3rciful/confessbot/internal/comment"
	"github.com/m3rciful/confessbot/internal/model"
)

func TestFormatConfession(t *testing.T) {
	conf := &model.Confession{ID: 7, AuthorID: 999, Content: "I did it", Tags: []string{"work", "oops"}}

	got := formatConfession(conf)
	if !strings.Contains(got, "Confession #7") {
		t.Fatalf("missing header: %q", got)
	}
	if !strings.Contains(got, "#work #oops") {
		t.Fatalf("missing tag line: %q", got)
	}
	if strings.Contains(got, "999") {
		t.Fatalf("author id leaked into public rendering: %q", got)
	}
}

func TestFormatConfessionWithoutTags(t *testing.T) {
	got := formatConfession(&model.Confession{ID: 7, Content: "plain"})
	if strings.Contains(got, "#\n") || strings.HasSuffix(got, "#") {
		t.Fatalf("stray tag marker: %q", got)
	}
	if !strings.HasSuffix(got, "plain") {
		t.Fatalf("content must end the rendering: %q", got)
	}
}

func TestFormatCommentsPage(t *testing.T) {
	page := comment.Page{
		Comments: []model.Comment{{ID: 11, Text: "first"}, {ID: 12, Text: "second"}},
		Total:    12,
		Number:   1,
	}
	got := formatCommentsPage(7, page)
	if !strings.Contains(got, "page 2") {
		t.Fatalf("page number should be one-based for display: %q", got)
	}
	// Numbering continues across pages.
	if !strings.Contains(got, "11. first") || !strings.Contains(got, "12. second") {
		t.Fatalf("comment numbering wrong: %q", got)
	}
}

func TestFormatCommentsPageEmpty(t *testing.T) {
	got := formatCommentsPage(7, comment.Page{})
	if !strings.Contains(got, "no comments") {
		t.Fatalf("empty log rendering: %q", got)
	}
}
