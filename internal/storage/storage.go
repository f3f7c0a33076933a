// Package storage defines durable persistence for confessions and their
// surrounding records. Implementations provide single-statement atomicity
// only; no multi-row transactions are offered or required.
package storage

import (
	"context"

	"github.com/m3rciful/confessbot/internal/model"
)

// Repository is the data access surface consumed by the services. It carries
// no policy: status checks, authorization, and validation happen above it.
type Repository interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error

	UpsertUser(ctx context.Context, id int64) error
	ListUserIDs(ctx context.Context) ([]int64, error)

	InsertConfession(ctx context.Context, c *model.Confession) (int64, error)
	GetConfession(ctx context.Context, id int64) (*model.Confession, error)
	UpdateConfessionStatus(ctx context.Context, id int64, status model.Status) error
	ListPending(ctx context.Context) ([]model.Confession, error)

	InsertComment(ctx context.Context, confessionID int64, text string) (*model.Comment, error)
	ListComments(ctx context.Context, confessionID int64, limit, offset int) ([]model.Comment, error)
	CountComments(ctx context.Context, confessionID int64) (int, error)

	AddAdmin(ctx context.Context, id, addedBy int64) (bool, error)
	RemoveAdmin(ctx context.Context, id int64) (bool, error)
	ListAdmins(ctx context.Context) ([]model.Admin, error)
	IsAdmin(ctx context.Context, id int64) (bool, error)

	AddChannel(ctx context.Context, ch *model.Channel) (bool, error)
	RemoveChannel(ctx context.Context, id int64) (bool, error)
	ListChannels(ctx context.Context) ([]model.Channel, error)
}
