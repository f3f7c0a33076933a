package moderation

import (
	"context"
	"errors"
	"testing"

	"github.com/m3rciful/confessbot/internal/model"
)

const mainAdmin int64 = 1000

type memRepo struct {
	admins   map[int64]model.Admin
	channels map[int64]model.Channel
}

func newMemRepo() *memRepo {
	return &memRepo{
		admins:   make(map[int64]model.Admin),
		channels: make(map[int64]model.Channel),
	}
}

func (r *memRepo) AddAdmin(_ context.Context, id, addedBy int64) (bool, error) {
	if _, ok := r.admins[id]; ok {
		return false, nil
	}
	r.admins[id] = model.Admin{ID: id, AddedBy: addedBy}
	return true, nil
}

func (r *memRepo) RemoveAdmin(_ context.Context, id int64) (bool, error) {
	if _, ok := r.admins[id]; !ok {
		return false, nil
	}
	delete(r.admins, id)
	return true, nil
}

func (r *memRepo) ListAdmins(context.Context) ([]model.Admin, error) {
	var out []model.Admin
	for _, a := range r.admins {
		out = append(out, a)
	}
	return out, nil
}

func (r *memRepo) IsAdmin(_ context.Context, id int64) (bool, error) {
	_, ok := r.admins[id]
	return ok, nil
}

func (r *memRepo) AddChannel(_ context.Context, ch *model.Channel) (bool, error) {
	if _, ok := r.channels[ch.ID]; ok {
		return false, nil
	}
	r.channels[ch.ID] = *ch
	return true, nil
}

func (r *memRepo) RemoveChannel(_ context.Context, id int64) (bool, error) {
	if _, ok := r.channels[id]; !ok {
		return false, nil
	}
	delete(r.channels, id)
	return true, nil
}

func (r *memRepo) ListChannels(context.Context) ([]model.Channel, error) {
	var out []model.Channel
	for _, ch := range r.channels {
		out = append(out, ch)
	}
	return out, nil
}

func (r *memRepo) GetSetting(context.Context, string) (string, bool, error) { return "", false, nil }
func (r *memRepo) SetSetting(context.Context, string, string) error         { return nil }
func (r *memRepo) UpsertUser(context.Context, int64) error                  { return nil }
func (r *memRepo) ListUserIDs(context.Context) ([]int64, error)             { return nil, nil }
func (r *memRepo) InsertConfession(context.Context, *model.Confession) (int64, error) {
	return 0, nil
}
func (r *memRepo) GetConfession(context.Context, int64) (*model.Confession, error) {
	return nil, &model.NotFoundError{Entity: "confession"}
}
func (r *memRepo) UpdateConfessionStatus(context.Context, int64, model.Status) error { return nil }
func (r *memRepo) ListPending(context.Context) ([]model.Confession, error)           { return nil, nil }
func (r *memRepo) InsertComment(context.Context, int64, string) (*model.Comment, error) {
	return nil, nil
}
func (r *memRepo) ListComments(context.Context, int64, int, int) ([]model.Comment, error) {
	return nil, nil
}
func (r *memRepo) CountComments(context.Context, int64) (int, error) { return 0, nil }

func TestMainAdminIsAlwaysAdmin(t *testing.T) {
	g := NewGateway(newMemRepo(), mainAdmin)

	ok, err := g.IsAdmin(context.Background(), mainAdmin)
	if err != nil {
		t.Fatalf("IsAdmin: %v", err)
	}
	if !ok {
		t.Fatal("main admin must always be an admin")
	}
	if err := g.Authorize(context.Background(), mainAdmin); err != nil {
		t.Fatalf("Authorize(main): %v", err)
	}
}

func TestAuthorizeDeniesRegularUser(t *testing.T) {
	g := NewGateway(newMemRepo(), mainAdmin)

	var na *model.NotAuthorizedError
	if err := g.Authorize(context.Background(), 5); !errors.As(err, &na) {
		t.Fatalf("err = %v, want NotAuthorizedError", err)
	}
}

func TestGrantAdminMainOnly(t *testing.T) {
	repo := newMemRepo()
	g := NewGateway(repo, mainAdmin)
	ctx := context.Background()

	added, err := g.GrantAdmin(ctx, mainAdmin, 5)
	if err != nil || !added {
		t.Fatalf("GrantAdmin by main = (%v, %v), want (true, nil)", added, err)
	}

	// A secondary admin must not be able to grow the admin set.
	var na *model.NotAuthorizedError
	if _, err := g.GrantAdmin(ctx, 5, 6); !errors.As(err, &na) {
		t.Fatalf("GrantAdmin by secondary err = %v, want NotAuthorizedError", err)
	}
}

func TestGrantAdminNoops(t *testing.T) {
	g := NewGateway(newMemRepo(), mainAdmin)
	ctx := context.Background()

	// Granting to the main admin never creates a row.
	added, err := g.GrantAdmin(ctx, mainAdmin, mainAdmin)
	if err != nil || added {
		t.Fatalf("GrantAdmin(main) = (%v, %v), want (false, nil)", added, err)
	}

	if _, err := g.GrantAdmin(ctx, mainAdmin, 5); err != nil {
		t.Fatalf("GrantAdmin: %v", err)
	}
	added, err = g.GrantAdmin(ctx, mainAdmin, 5)
	if err != nil || added {
		t.Fatalf("duplicate GrantAdmin = (%v, %v), want (false, nil)", added, err)
	}
}

func TestRevokeAdmin(t *testing.T) {
	g := NewGateway(newMemRepo(), mainAdmin)
	ctx := context.Background()

	if _, err := g.GrantAdmin(ctx, mainAdmin, 5); err != nil {
		t.Fatalf("GrantAdmin: %v", err)
	}

	var na *model.NotAuthorizedError
	if _, err := g.RevokeAdmin(ctx, 5, 5); !errors.As(err, &na) {
		t.Fatalf("RevokeAdmin by secondary err = %v, want NotAuthorizedError", err)
	}

	removed, err := g.RevokeAdmin(ctx, mainAdmin, 5)
	if err != nil || !removed {
		t.Fatalf("RevokeAdmin = (%v, %v), want (true, nil)", removed, err)
	}
	removed, err = g.RevokeAdmin(ctx, mainAdmin, 5)
	if err != nil || removed {
		t.Fatalf("second RevokeAdmin = (%v, %v), want (false, nil)", removed, err)
	}

	// The main admin has no row, so revoking it is a no-op, not an error.
	removed, err = g.RevokeAdmin(ctx, mainAdmin, mainAdmin)
	if err != nil || removed {
		t.Fatalf("RevokeAdmin(main) = (%v, %v), want (false, nil)", removed, err)
	}
}

func TestChannelsAdminOnly(t *testing.T) {
	repo := newMemRepo()
	g := NewGateway(repo, mainAdmin)
	ctx := context.Background()

	var na *model.NotAuthorizedError
	if _, err := g.AddChannel(ctx, 5, &model.Channel{ID: -100}); !errors.As(err, &na) {
		t.Fatalf("AddChannel by non-admin err = %v, want NotAuthorizedError", err)
	}
	if _, err := g.ListChannels(ctx, 5); !errors.As(err, &na) {
		t.Fatalf("ListChannels by non-admin err = %v, want NotAuthorizedError", err)
	}

	added, err := g.AddChannel(ctx, mainAdmin, &model.Channel{ID: -100, Username: "wall"})
	if err != nil || !added {
		t.Fatalf("AddChannel = (%v, %v), want (true, nil)", added, err)
	}
	if repo.channels[-100].AddedBy != mainAdmin {
		t.Fatalf("AddedBy = %d, want %d", repo.channels[-100].AddedBy, mainAdmin)
	}

	added, err = g.AddChannel(ctx, mainAdmin, &model.Channel{ID: -100})
	if err != nil || added {
		t.Fatalf("duplicate AddChannel = (%v, %v), want (false, nil)", added, err)
	}

	// Secondary admins may manage channels, just not the admin set.
	if _, err := g.GrantAdmin(ctx, mainAdmin, 5); err != nil {
		t.Fatalf("GrantAdmin: %v", err)
	}
	removed, err := g.RemoveChannel(ctx, 5, -100)
	if err != nil || !removed {
		t.Fatalf("RemoveChannel by secondary = (%v, %v), want (true, nil)", removed, err)
	}
}
