// Package confession owns the moderation lifecycle: submission, the
// pending→approved/declined transition, auto-approve policy, and channel
// fan-out on publication.
package confession

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/m3rciful/confessbot/internal/logging"
	"github.com/m3rciful/confessbot/internal/model"
	"github.com/m3rciful/confessbot/internal/storage"
)

// MaxTags bounds how many tag words a confession may carry.
const MaxTags = 4

// Authorizer gates admin-only operations.
type Authorizer interface {
	Authorize(ctx context.Context, userID int64) error
}

// Broadcaster delivers an approved confession to a single channel. The
// production implementation posts via the Telegram API.
type Broadcaster interface {
	SendConfession(ctx context.Context, ch model.Channel, conf *model.Confession) error
}

// PublishResult reports the delivery outcome for one channel. A nil Err
// means the channel received the post.
type PublishResult struct {
	ChannelID int64
	Err       error
}

// Service is the confession lifecycle manager.
type Service struct {
	repo storage.Repository
	auth Authorizer
	bc   Broadcaster
	log  *slog.Logger
}

// NewService wires the lifecycle manager.
func NewService(repo storage.Repository, auth Authorizer, bc Broadcaster) *Service {
	return &Service{
		repo: repo,
		auth: auth,
		bc:   bc,
		log:  logging.Component("confession"),
	}
}

// ParseTags extracts up to MaxTags whitespace-separated tag words, stripping
// a leading '#' from each. Extra tokens are silently dropped.
func ParseTags(raw string) []string {
	var tags []string
	for _, word := range strings.Fields(raw) {
		word = strings.TrimPrefix(word, "#")
		if word == "" {
			continue
		}
		tags = append(tags, word)
		if len(tags) == MaxTags {
			break
		}
	}
	return tags
}

// Submit persists a new confession for the author. With auto-approve on it is
// created approved and published immediately; otherwise it is created pending.
// Publish results are non-empty only on the auto-approve path.
func (s *Service) Submit(ctx context.Context, authorID int64, content, rawTags string) (*model.Confession, []PublishResult, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil, &model.ValidationError{Reason: "confession text is empty"}
	}

	if err := s.repo.UpsertUser(ctx, authorID); err != nil {
		return nil, nil, err
	}

	auto, err := s.AutoApprove(ctx)
	if err != nil {
		return nil, nil, err
	}
	status := model.StatusPending
	if auto {
		status = model.StatusApproved
	}

	conf := &model.Confession{
		AuthorID: authorID,
		Content:  content,
		Tags:     ParseTags(rawTags),
		Status:   status,
	}
	id, err := s.repo.InsertConfession(ctx, conf)
	if err != nil {
		return nil, nil, err
	}
	conf.ID = id

	s.log.Info("confession submitted",
		slog.String("event", "confession.submit"),
		slog.Int64("confession_id", id),
		slog.String("status", string(status)),
		slog.Int("count", len(conf.Tags)),
	)

	var results []PublishResult
	if auto {
		results = s.publish(ctx, conf)
	}
	return conf, results, nil
}

// Approve transitions a pending confession to approved and fans it out to
// every configured channel. A channel failure never aborts the others and
// never fails the approval itself.
func (s *Service) Approve(ctx context.Context, id, actor int64) (*model.Confession, []PublishResult, error) {
	conf, err := s.decide(ctx, id, actor, model.StatusApproved)
	if err != nil {
		return nil, nil, err
	}
	return conf, s.publish(ctx, conf), nil
}

// Decline transitions a pending confession to declined. No publication.
func (s *Service) Decline(ctx context.Context, id, actor int64) (*model.Confession, error) {
	return s.decide(ctx, id, actor, model.StatusDeclined)
}

func (s *Service) decide(ctx context.Context, id, actor int64, status model.Status) (*model.Confession, error) {
	if err := s.auth.Authorize(ctx, actor); err != nil {
		return nil, err
	}
	conf, err := s.repo.GetConfession(ctx, id)
	if err != nil {
		return nil, err
	}
	if conf.Status != model.StatusPending {
		return nil, &model.AlreadyDecidedError{ConfessionID: id, Status: conf.Status}
	}
	if err := s.repo.UpdateConfessionStatus(ctx, id, status); err != nil {
		return nil, err
	}
	conf.Status = status

	s.log.Info("confession decided",
		slog.String("event", "confession.decide"),
		slog.Int64("confession_id", id),
		slog.Int64("user_id", actor),
		slog.String("status", string(status)),
	)
	return conf, nil
}

// LookupSender returns the author id of a confession. This is the only
// anonymity break in the system and it is admin-only.
func (s *Service) LookupSender(ctx context.Context, id, actor int64) (int64, error) {
	if err := s.auth.Authorize(ctx, actor); err != nil {
		return 0, err
	}
	conf, err := s.repo.GetConfession(ctx, id)
	if err != nil {
		return 0, err
	}
	return conf.AuthorID, nil
}

// ListPending returns confessions awaiting a decision; admin-only.
func (s *Service) ListPending(ctx context.Context, actor int64) ([]model.Confession, error) {
	if err := s.auth.Authorize(ctx, actor); err != nil {
		return nil, err
	}
	return s.repo.ListPending(ctx)
}

// AutoApprove reads the auto-approve setting; absent means off.
func (s *Service) AutoApprove(ctx context.Context) (bool, error) {
	val, ok, err := s.repo.GetSetting(ctx, model.SettingAutoApprove)
	if err != nil {
		return false, err
	}
	return ok && val == "1", nil
}

// SetAutoApprove flips the auto-approve setting; admin-only. The change
// applies to confessions created afterwards, never retroactively.
func (s *Service) SetAutoApprove(ctx context.Context, actor int64, on bool) error {
	if err := s.auth.Authorize(ctx, actor); err != nil {
		return err
	}
	val := "0"
	if on {
		val = "1"
	}
	if err := s.repo.SetSetting(ctx, model.SettingAutoApprove, val); err != nil {
		return err
	}
	s.log.Info("auto-approve toggled",
		slog.String("event", "setting.auto_approve"),
		slog.Int64("user_id", actor),
		slog.Bool("on", on),
	)
	return nil
}

// publish fans the confession out to every configured channel, one delivery
// attempt per channel, independent failure isolation. Failures are collected
// into the results and logged as a single aggregated warning.
func (s *Service) publish(ctx context.Context, conf *model.Confession) []PublishResult {
	channels, err := s.repo.ListChannels(ctx)
	if err != nil {
		s.log.Error("channel listing failed, publication skipped",
			slog.String("event", "publish.channels"),
			slog.Int64("confession_id", conf.ID),
			slog.String("err", err.Error()),
		)
		return nil
	}
	if len(channels) == 0 {
		s.log.Warn("no channels configured",
			slog.String("event", "publish.empty"),
			slog.Int64("confession_id", conf.ID),
		)
		return nil
	}

	results := make([]PublishResult, len(channels))
	var wg sync.WaitGroup
	for i, ch := range channels {
		wg.Add(1)
		go func(i int, ch model.Channel) {
			defer wg.Done()
			results[i] = PublishResult{
				ChannelID: ch.ID,
				Err:       s.bc.SendConfession(ctx, ch, conf),
			}
		}(i, ch)
	}
	wg.Wait()

	var failed *multierror.Error
	for _, r := range results {
		if r.Err != nil {
			failed = multierror.Append(failed, r.Err)
		}
	}
	if failed != nil {
		s.log.Warn("partial publication",
			slog.String("event", "publish.partial"),
			slog.Int64("confession_id", conf.ID),
			slog.Int("count", failed.Len()),
			slog.String("err", failed.Error()),
		)
	} else {
		s.log.Info("confession published",
			slog.String("event", "publish.ok"),
			slog.Int64("confession_id", conf.ID),
			slog.Int("count", len(channels)),
		)
	}
	return results
}
