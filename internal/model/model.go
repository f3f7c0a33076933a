// Package model holds the persistent entities shared by all services.
package model

import "time"

// Status is the moderation state of a confession.
type Status string

const (
	// StatusPending marks a confession awaiting an admin decision.
	StatusPending Status = "pending"
	// StatusApproved marks a confession cleared for publication.
	StatusApproved Status = "approved"
	// StatusDeclined marks a confession rejected by an admin.
	StatusDeclined Status = "declined"
)

// Terminal reports whether the status permits no further transition.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusDeclined
}

// User is created on first interaction and never mutated afterwards.
type User struct {
	ID        int64     `db:"id"`
	FirstSeen time.Time `db:"first_seen"`
}

// Confession is a user-submitted anonymous text item.
// AuthorID is lookup-only and must never surface outside admin code paths.
type Confession struct {
	ID        int64     `db:"id"`
	AuthorID  int64     `db:"author_id"`
	Content   string    `db:"content"`
	Tags      []string  `db:"-"`
	Status    Status    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

// Comment is an anonymous reply to a confession. It deliberately carries no
// author field: identity is never stored, so it cannot be retrieved by anyone.
type Comment struct {
	ID           int64     `db:"id"`
	ConfessionID int64     `db:"confession_id"`
	Text         string    `db:"text"`
	CreatedAt    time.Time `db:"created_at"`
}

// Admin is a secondary admin row. The main admin comes from configuration and
// is never represented as a row.
type Admin struct {
	ID      int64     `db:"id"`
	AddedBy int64     `db:"added_by"`
	AddedAt time.Time `db:"added_at"`
}

// Channel is a broadcast destination for approved confessions.
type Channel struct {
	ID       int64     `db:"id"`
	Username string    `db:"username"`
	AddedBy  int64     `db:"added_by"`
	AddedAt  time.Time `db:"added_at"`
}

// SettingAutoApprove toggles skipping admin review for new confessions.
// Values follow the original store: "1" for on, "0" for off.
const SettingAutoApprove = "auto_approve"
