package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/confessbot/internal/logging"
	"github.com/m3rciful/confessbot/internal/model"
)

// Config holds database connection settings.
type Config struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// DSN returns the connection string in URL form.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// Postgres implements Repository on top of sqlx.
type Postgres struct {
	db  *sqlx.DB
	log *slog.Logger
}

// Connect opens the connection, configures the pool, and verifies connectivity.
func Connect(cfg Config) (*Postgres, error) {
	log := logging.Component("db")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
	took := time.Since(start)
	if err != nil {
		log.Error("db connect failed",
			slog.String("event", "db.connect"),
			slog.String("host", cfg.Host),
			slog.String("db", cfg.Name),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
		db.SetMaxIdleConns(cfg.MaxConnections)
	}

	log.Info("db connected",
		slog.String("event", "db.connect"),
		slog.String("host", cfg.Host),
		slog.String("db", cfg.Name),
		slog.Int("pool_open", cfg.MaxConnections),
		slog.Duration("duration", logging.RoundMS(took)),
	)

	return &Postgres{db: db, log: log}, nil
}

// Close releases the underlying pool.
func (p *Postgres) Close() error { return p.db.Close() }

// GetSetting returns the stored value and whether the key exists.
func (p *Postgres) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := p.db.GetContext(ctx, &value, `SELECT value FROM settings WHERE key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, true, nil
}

// SetSetting upserts a settings row.
func (p *Postgres) SetSetting(ctx context.Context, key, value string) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, key, value)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// UpsertUser records a user on first interaction; later calls are no-ops.
func (p *Postgres) UpsertUser(ctx context.Context, id int64) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO users (id, first_seen) VALUES ($1, NOW())
		 ON CONFLICT (id) DO NOTHING`, id)
	if err != nil {
		return fmt.Errorf("upsert user %d: %w", id, err)
	}
	return nil
}

// ListUserIDs returns every known user id for broadcast targeting.
func (p *Postgres) ListUserIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := p.db.SelectContext(ctx, &ids, `SELECT id FROM users ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return ids, nil
}

type confessionRow struct {
	ID        int64        `db:"id"`
	AuthorID  int64        `db:"author_id"`
	Content   string       `db:"content"`
	Tags      string       `db:"tags"`
	Status    model.Status `db:"status"`
	CreatedAt time.Time    `db:"created_at"`
}

func (r confessionRow) toModel() *model.Confession {
	return &model.Confession{
		ID:        r.ID,
		AuthorID:  r.AuthorID,
		Content:   r.Content,
		Tags:      splitTags(r.Tags),
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
	}
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// InsertConfession persists a new confession and returns its assigned id.
func (p *Postgres) InsertConfession(ctx context.Context, c *model.Confession) (int64, error) {
	var id int64
	err := p.db.QueryRowxContext(ctx,
		`INSERT INTO confessions (author_id, content, tags, status, created_at)
		 VALUES ($1, $2, $3, $4, NOW()) RETURNING id`,
		c.AuthorID, c.Content, strings.Join(c.Tags, ","), c.Status,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert confession: %w", err)
	}
	return id, nil
}

// GetConfession returns a confession or a typed NotFoundError.
func (p *Postgres) GetConfession(ctx context.Context, id int64) (*model.Confession, error) {
	var row confessionRow
	err := p.db.GetContext(ctx, &row,
		`SELECT id, author_id, content, tags, status, created_at FROM confessions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &model.NotFoundError{Entity: "confession", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get confession %d: %w", id, err)
	}
	return row.toModel(), nil
}

// UpdateConfessionStatus sets the status unconditionally; callers enforce the
// pending-only transition rule before calling.
func (p *Postgres) UpdateConfessionStatus(ctx context.Context, id int64, status model.Status) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE confessions SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update confession %d status: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &model.NotFoundError{Entity: "confession", ID: id}
	}
	return nil
}

// ListPending returns pending confessions in submission order.
func (p *Postgres) ListPending(ctx context.Context) ([]model.Confession, error) {
	var rows []confessionRow
	err := p.db.SelectContext(ctx, &rows,
		`SELECT id, author_id, content, tags, status, created_at
		 FROM confessions WHERE status = $1 ORDER BY id ASC`, model.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	out := make([]model.Confession, len(rows))
	for i, r := range rows {
		out[i] = *r.toModel()
	}
	return out, nil
}

// InsertComment appends an anonymous comment and returns the stored row.
func (p *Postgres) InsertComment(ctx context.Context, confessionID int64, text string) (*model.Comment, error) {
	var c model.Comment
	err := p.db.QueryRowxContext(ctx,
		`INSERT INTO comments (confession_id, text, created_at)
		 VALUES ($1, $2, NOW()) RETURNING id, confession_id, text, created_at`,
		confessionID, text,
	).StructScan(&c)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return &c, nil
}

// ListComments returns a slice of the append-only comment log in id order.
func (p *Postgres) ListComments(ctx context.Context, confessionID int64, limit, offset int) ([]model.Comment, error) {
	var out []model.Comment
	err := p.db.SelectContext(ctx, &out,
		`SELECT id, confession_id, text, created_at FROM comments
		 WHERE confession_id = $1 ORDER BY id ASC LIMIT $2 OFFSET $3`,
		confessionID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list comments for %d: %w", confessionID, err)
	}
	return out, nil
}

// CountComments returns the total number of comments for a confession.
func (p *Postgres) CountComments(ctx context.Context, confessionID int64) (int, error) {
	var n int
	err := p.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM comments WHERE confession_id = $1`, confessionID)
	if err != nil {
		return 0, fmt.Errorf("count comments for %d: %w", confessionID, err)
	}
	return n, nil
}

// AddAdmin inserts a secondary admin row; false means the id was already present.
func (p *Postgres) AddAdmin(ctx context.Context, id, addedBy int64) (bool, error) {
	res, err := p.db.ExecContext(ctx,
		`INSERT INTO admins (id, added_by, added_at) VALUES ($1, $2, NOW())
		 ON CONFLICT (id) DO NOTHING`, id, addedBy)
	if err != nil {
		return false, fmt.Errorf("add admin %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// RemoveAdmin deletes a secondary admin row; false means no such row existed.
func (p *Postgres) RemoveAdmin(ctx context.Context, id int64) (bool, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM admins WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("remove admin %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ListAdmins returns all secondary admins.
func (p *Postgres) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	var out []model.Admin
	err := p.db.SelectContext(ctx, &out,
		`SELECT id, added_by, added_at FROM admins ORDER BY added_at`)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return out, nil
}

// IsAdmin reports secondary-admin table membership only; the main admin check
// happens in the moderation gateway.
func (p *Postgres) IsAdmin(ctx context.Context, id int64) (bool, error) {
	var n int
	err := p.db.GetContext(ctx, &n, `SELECT COUNT(1) FROM admins WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("is admin %d: %w", id, err)
	}
	return n > 0, nil
}

// AddChannel inserts a publish target; false means the id was already present.
func (p *Postgres) AddChannel(ctx context.Context, ch *model.Channel) (bool, error) {
	res, err := p.db.ExecContext(ctx,
		`INSERT INTO channels (id, username, added_by, added_at) VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (id) DO NOTHING`, ch.ID, ch.Username, ch.AddedBy)
	if err != nil {
		return false, fmt.Errorf("add channel %d: %w", ch.ID, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// RemoveChannel deletes a publish target; false means no such row existed.
func (p *Postgres) RemoveChannel(ctx context.Context, id int64) (bool, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM channels WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("remove channel %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ListChannels returns every configured publish target. Fan-out order is
// whatever the query returns; callers must not rely on it.
func (p *Postgres) ListChannels(ctx context.Context) ([]model.Channel, error) {
	var out []model.Channel
	err := p.db.SelectContext(ctx, &out,
		`SELECT id, username, added_by, added_at FROM channels`)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	return out, nil
}

var _ Repository = (*Postgres)(nil)
