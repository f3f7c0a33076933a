package comment

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/m3rciful/confessbot/internal/model"
)

// memRepo backs the comment service with an in-memory confession/comment log.
type memRepo struct {
	confessions map[int64]*model.Confession
	comments    []model.Comment
	nextID      int64
}

func newMemRepo() *memRepo {
	return &memRepo{confessions: make(map[int64]*model.Confession)}
}

func (r *memRepo) GetConfession(_ context.Context, id int64) (*model.Confession, error) {
	c, ok := r.confessions[id]
	if !ok {
		return nil, &model.NotFoundError{Entity: "confession", ID: id}
	}
	return c, nil
}

func (r *memRepo) InsertComment(_ context.Context, confessionID int64, text string) (*model.Comment, error) {
	r.nextID++
	c := model.Comment{ID: r.nextID, ConfessionID: confessionID, Text: text}
	r.comments = append(r.comments, c)
	return &c, nil
}

func (r *memRepo) ListComments(_ context.Context, confessionID int64, limit, offset int) ([]model.Comment, error) {
	var all []model.Comment
	for _, c := range r.comments {
		if c.ConfessionID == confessionID {
			all = append(all, c)
		}
	}
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *memRepo) CountComments(_ context.Context, confessionID int64) (int, error) {
	n := 0
	for _, c := range r.comments {
		if c.ConfessionID == confessionID {
			n++
		}
	}
	return n, nil
}

func (r *memRepo) GetSetting(context.Context, string) (string, bool, error) { return "", false, nil }
func (r *memRepo) SetSetting(context.Context, string, string) error         { return nil }
func (r *memRepo) UpsertUser(context.Context, int64) error                  { return nil }
func (r *memRepo) ListUserIDs(context.Context) ([]int64, error)             { return nil, nil }
func (r *memRepo) InsertConfession(context.Context, *model.Confession) (int64, error) {
	return 0, nil
}
func (r *memRepo) UpdateConfessionStatus(context.Context, int64, model.Status) error { return nil }
func (r *memRepo) ListPending(context.Context) ([]model.Confession, error)           { return nil, nil }
func (r *memRepo) AddAdmin(context.Context, int64, int64) (bool, error)              { return false, nil }
func (r *memRepo) RemoveAdmin(context.Context, int64) (bool, error)                  { return false, nil }
func (r *memRepo) ListAdmins(context.Context) ([]model.Admin, error)                 { return nil, nil }
func (r *memRepo) IsAdmin(context.Context, int64) (bool, error)                      { return false, nil }
func (r *memRepo) AddChannel(context.Context, *model.Channel) (bool, error)          { return false, nil }
func (r *memRepo) RemoveChannel(context.Context, int64) (bool, error)                { return false, nil }
func (r *memRepo) ListChannels(context.Context) ([]model.Channel, error)             { return nil, nil }

func seed(t *testing.T, repo *memRepo, confessionID int64, count int) {
	t.Helper()
	repo.confessions[confessionID] = &model.Confession{ID: confessionID, Status: model.StatusApproved}
	svc := NewService(repo)
	for i := 1; i <= count; i++ {
		if _, err := svc.Add(context.Background(), confessionID, fmt.Sprintf("comment %d", i)); err != nil {
			t.Fatalf("seed comment %d: %v", i, err)
		}
	}
}

func TestAddRejectsEmptyText(t *testing.T) {
	repo := newMemRepo()
	repo.confessions[1] = &model.Confession{ID: 1}
	svc := NewService(repo)

	var ve *model.ValidationError
	if _, err := svc.Add(context.Background(), 1, "  \n "); !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestAddRequiresExistingConfession(t *testing.T) {
	svc := NewService(newMemRepo())

	var nf *model.NotFoundError
	if _, err := svc.Add(context.Background(), 404, "hello"); !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}

func TestListPaginates(t *testing.T) {
	repo := newMemRepo()
	seed(t, repo, 1, 25)
	svc := NewService(repo)
	ctx := context.Background()

	first, err := svc.List(ctx, 1, 0)
	if err != nil {
		t.Fatalf("List page 0: %v", err)
	}
	if len(first.Comments) != PageSize || first.Total != 25 {
		t.Fatalf("page 0: %d comments, total %d; want %d and 25", len(first.Comments), first.Total, PageSize)
	}
	if first.Comments[0].Text != "comment 1" || first.Comments[9].Text != "comment 10" {
		t.Fatalf("page 0 bounds wrong: %q .. %q", first.Comments[0].Text, first.Comments[9].Text)
	}
	if !first.HasNext() {
		t.Fatal("page 0 of 25 must have a next page")
	}

	last, err := svc.List(ctx, 1, 2)
	if err != nil {
		t.Fatalf("List page 2: %v", err)
	}
	if len(last.Comments) != 5 {
		t.Fatalf("page 2: %d comments, want 5", len(last.Comments))
	}
	if last.Comments[0].Text != "comment 21" {
		t.Fatalf("page 2 starts at %q, want comment 21", last.Comments[0].Text)
	}
	if last.HasNext() {
		t.Fatal("final page must not report a next page")
	}
}

func TestListBeyondEndIsEmptyNotError(t *testing.T) {
	repo := newMemRepo()
	seed(t, repo, 1, 25)
	svc := NewService(repo)

	page, err := svc.List(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("List page 3: %v", err)
	}
	if len(page.Comments) != 0 || page.Total != 25 {
		t.Fatalf("page 3: %d comments, total %d; want 0 and 25", len(page.Comments), page.Total)
	}
}

func TestListClampsNegativePage(t *testing.T) {
	repo := newMemRepo()
	seed(t, repo, 1, 3)
	svc := NewService(repo)

	page, err := svc.List(context.Background(), 1, -5)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Number != 0 || len(page.Comments) != 3 {
		t.Fatalf("negative page gave number %d with %d comments, want page 0 with 3", page.Number, len(page.Comments))
	}
}

func TestListOrderIsStableUnderAppends(t *testing.T) {
	repo := newMemRepo()
	seed(t, repo, 1, 12)
	svc := NewService(repo)
	ctx := context.Background()

	before, err := svc.List(ctx, 1, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if _, err := svc.Add(ctx, 1, "late arrival"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	after, err := svc.List(ctx, 1, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	for i := range before.Comments {
		if before.Comments[i].ID != after.Comments[i].ID {
			t.Fatalf("page 0 shifted at index %d after append", i)
		}
	}
}
