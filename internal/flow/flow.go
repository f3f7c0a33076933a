// Package flow tracks multi-step conversations. Each user has at most one
// active flow at a time; starting another requires cancelling the current one
// first.
package flow

import (
	"sync"

	"github.com/m3rciful/confessbot/internal/model"
)

// Kind identifies which step of a conversation a user is in.
type Kind string

const (
	// KindIdle indicates there is no active conversation with the user.
	KindIdle Kind = "idle"
	// KindDraftingContent waits for the confession text.
	KindDraftingContent Kind = "drafting_content"
	// KindAwaitingTags waits for tag words or a skip after the text arrived.
	KindAwaitingTags Kind = "awaiting_tags"
	// KindAwaitingComment waits for an anonymous comment text.
	KindAwaitingComment Kind = "awaiting_comment"
	// KindAwaitingSenderLookup waits for a confession number (admin).
	KindAwaitingSenderLookup Kind = "awaiting_sender_lookup"
	// KindAwaitingChannelAdd waits for a channel id or @username (admin).
	KindAwaitingChannelAdd Kind = "awaiting_channel_add"
	// KindAwaitingChannelRemove waits for a channel id to remove (admin).
	KindAwaitingChannelRemove Kind = "awaiting_channel_remove"
	// KindAwaitingAdminAdd waits for a user id to grant admin (main admin).
	KindAwaitingAdminAdd Kind = "awaiting_admin_add"
	// KindAwaitingAdminRemove waits for a user id to revoke admin (main admin).
	KindAwaitingAdminRemove Kind = "awaiting_admin_remove"
	// KindAwaitingBroadcastUsers waits for a message to relay to all users (admin).
	KindAwaitingBroadcastUsers Kind = "awaiting_broadcast_users"
	// KindAwaitingBroadcastChannels waits for a message to relay to all channels (admin).
	KindAwaitingBroadcastChannels Kind = "awaiting_broadcast_channels"
)

// Flow is the tagged per-user conversation state. Content carries the draft
// confession text for KindAwaitingTags; TargetID carries the confession id
// for KindAwaitingComment.
type Flow struct {
	Kind     Kind
	Content  string
	TargetID int64
}

// Idle reports whether the flow represents no active conversation.
func (f Flow) Idle() bool { return f.Kind == "" || f.Kind == KindIdle }

// Store maps a user id to its current flow. Implementations must be safe for
// concurrent use; same-user races resolve by last write wins.
type Store interface {
	Get(userID int64) Flow
	Put(userID int64, f Flow)
	Delete(userID int64)
}

type memoryStore struct {
	mu    sync.RWMutex
	flows map[int64]Flow
}

// NewMemoryStore constructs the in-process Store used by the bot.
func NewMemoryStore() Store {
	return &memoryStore{flows: make(map[int64]Flow)}
}

func (s *memoryStore) Get(userID int64) Flow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if f, ok := s.flows[userID]; ok {
		return f
	}
	return Flow{Kind: KindIdle}
}

func (s *memoryStore) Put(userID int64, f Flow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows[userID] = f
}

func (s *memoryStore) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flows, userID)
}

// Tracker correlates a user's successive interactions into one flow.
type Tracker struct {
	store Store
}

// NewTracker wires a Tracker onto the given store.
func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

// Begin starts a new flow for the user. It fails with FlowActiveError when a
// flow is already active; the user must finish or /cancel it first.
func (t *Tracker) Begin(userID int64, f Flow) error {
	if !t.store.Get(userID).Idle() {
		return &model.FlowActiveError{UserID: userID}
	}
	t.store.Put(userID, f)
	return nil
}

// Advance moves an already-active flow to its next step without the
// active-flow check. Used for in-flow transitions only.
func (t *Tracker) Advance(userID int64, f Flow) {
	t.store.Put(userID, f)
}

// Active reports whether the user has a non-idle flow.
func (t *Tracker) Active(userID int64) bool {
	return !t.store.Get(userID).Idle()
}

// Peek returns the current flow without consuming it. The comment path uses
// Peek so a repository failure leaves the state intact for a retry.
func (t *Tracker) Peek(userID int64) Flow {
	return t.store.Get(userID)
}

// Take consumes and clears the user's flow. The clear is unconditional: the
// tag-finalization step must not resurrect a draft even when persistence
// fails afterwards.
func (t *Tracker) Take(userID int64) (Flow, error) {
	f := t.store.Get(userID)
	if f.Idle() {
		return Flow{}, &model.NoPendingDraftError{UserID: userID}
	}
	t.store.Delete(userID)
	return f, nil
}

// Cancel clears the invoking user's own flow only.
func (t *Tracker) Cancel(userID int64) {
	t.store.Delete(userID)
}
