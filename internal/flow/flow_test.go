package flow

import (
	"errors"
	"sync"
	"testing"

	"github.com/m3rciful/confessbot/internal/model"
)

func TestBeginRejectsSecondFlow(t *testing.T) {
	tr := NewTracker(NewMemoryStore())

	if err := tr.Begin(1, Flow{Kind: KindDraftingContent}); err != nil {
		t.Fatalf("first begin: %v", err)
	}
	err := tr.Begin(1, Flow{Kind: KindAwaitingComment, TargetID: 5})
	var active *model.FlowActiveError
	if !errors.As(err, &active) {
		t.Fatalf("expected FlowActiveError, got %v", err)
	}
	if got := tr.Peek(1).Kind; got != KindDraftingContent {
		t.Fatalf("original flow must survive the rejected begin, got %s", got)
	}
}

func TestBeginAllowedAfterCancel(t *testing.T) {
	tr := NewTracker(NewMemoryStore())

	if err := tr.Begin(1, Flow{Kind: KindDraftingContent}); err != nil {
		t.Fatalf("begin: %v", err)
	}
	tr.Cancel(1)
	if err := tr.Begin(1, Flow{Kind: KindAwaitingComment, TargetID: 9}); err != nil {
		t.Fatalf("begin after cancel: %v", err)
	}
}

func TestCancelClearsOnlyOwnFlow(t *testing.T) {
	tr := NewTracker(NewMemoryStore())

	if err := tr.Begin(1, Flow{Kind: KindAwaitingComment, TargetID: 3}); err != nil {
		t.Fatalf("begin user 1: %v", err)
	}
	if err := tr.Begin(2, Flow{Kind: KindAwaitingComment, TargetID: 4}); err != nil {
		t.Fatalf("begin user 2: %v", err)
	}

	tr.Cancel(1)

	if tr.Active(1) {
		t.Fatal("user 1 flow should be cleared")
	}
	if f := tr.Peek(2); f.Kind != KindAwaitingComment || f.TargetID != 4 {
		t.Fatalf("user 2 flow must be untouched, got %+v", f)
	}
}

func TestTakeConsumesAndClears(t *testing.T) {
	tr := NewTracker(NewMemoryStore())

	if err := tr.Begin(1, Flow{Kind: KindAwaitingTags, Content: "secret"}); err != nil {
		t.Fatalf("begin: %v", err)
	}
	f, err := tr.Take(1)
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if f.Content != "secret" {
		t.Fatalf("content = %q", f.Content)
	}
	if tr.Active(1) {
		t.Fatal("flow must be cleared after take")
	}

	_, err = tr.Take(1)
	var missing *model.NoPendingDraftError
	if !errors.As(err, &missing) {
		t.Fatalf("expected NoPendingDraftError, got %v", err)
	}
}

func TestAdvanceKeepsFlowActive(t *testing.T) {
	tr := NewTracker(NewMemoryStore())

	if err := tr.Begin(1, Flow{Kind: KindDraftingContent}); err != nil {
		t.Fatalf("begin: %v", err)
	}
	tr.Advance(1, Flow{Kind: KindAwaitingTags, Content: "text"})

	f := tr.Peek(1)
	if f.Kind != KindAwaitingTags || f.Content != "text" {
		t.Fatalf("unexpected flow after advance: %+v", f)
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			store.Put(n, Flow{Kind: KindDraftingContent})
			_ = store.Get(n)
			store.Delete(n)
		}(int64(i % 7))
	}
	wg.Wait()
}
