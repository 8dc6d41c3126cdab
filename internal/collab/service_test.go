package collab

import (
	"context"
	"errors"
	"testing"
	"time"

	"resume-workspace/internal/shared/storage/kv"
)

var ana = Identity{ID: "guest:ana", Name: "Ana"}

func newTestService() (*Service, *kv.MemoryStore) {
	store := kv.NewMemoryStore(0)
	svc := NewService(NewKVRepo(store))
	svc.Now = func() time.Time { return time.Date(2026, time.May, 4, 12, 0, 0, 0, time.UTC) }
	return svc, store
}

func TestAddCommentAndReply(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	c, err := svc.AddComment(ctx, ana, "r1", "  Tighten this bullet  ", "Experience")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if c.Content != "Tighten this bullet" || c.Section != "Experience" || c.Author != ana {
		t.Fatalf("unexpected comment %+v", c)
	}
	if _, err := svc.AddComment(ctx, ana, "r1", "   ", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	bo := Identity{ID: "guest:bo", Name: "Bo"}
	updated, err := svc.AddReply(ctx, bo, c.ID, "Done")
	if err != nil {
		t.Fatalf("AddReply: %v", err)
	}
	if len(updated.Replies) != 1 || updated.Replies[0].Author != bo {
		t.Fatalf("unexpected replies %+v", updated.Replies)
	}
	if _, err := svc.AddReply(ctx, bo, "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	list, _ := svc.ListComments(ctx, "r1")
	if len(list) != 1 || len(list[0].Replies) != 1 {
		t.Fatalf("unexpected list %+v", list)
	}
	other, _ := svc.ListComments(ctx, "r2")
	if len(other) != 0 {
		t.Fatalf("comments leaked across resumes")
	}
}

func TestResolveCommentIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	c, _ := svc.AddComment(ctx, ana, "r1", "Fix dates", "")

	first, err := svc.ResolveComment(ctx, c.ID)
	if err != nil || !first.Resolved {
		t.Fatalf("first resolve: %+v %v", first, err)
	}
	before, _, _ := store.Get(ctx, kv.KeyComments)

	store.FailWith(func(string) error { return errors.New("no write expected") })
	second, err := svc.ResolveComment(ctx, c.ID)
	if err != nil {
		t.Fatalf("second resolve must not error or write: %v", err)
	}
	if !second.Resolved {
		t.Fatalf("comment should stay resolved")
	}
	store.FailWith(nil)

	after, _, _ := store.Get(ctx, kv.KeyComments)
	if string(before) != string(after) {
		t.Fatalf("second resolve changed stored state")
	}
	list, _ := svc.ListComments(ctx, "r1")
	if len(list) != 1 {
		t.Fatalf("expected no duplicate entries, got %d", len(list))
	}
}

func TestDeleteComment(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	c, _ := svc.AddComment(ctx, ana, "r1", "x", "")
	if err := svc.DeleteComment(ctx, c.ID); err != nil {
		t.Fatalf("DeleteComment: %v", err)
	}
	if err := svc.DeleteComment(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSendReviewRequestValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	cases := []struct {
		resumeID    string
		name, email string
		ok          bool
	}{
		{"r1", "Carla", "carla@example.com", true},
		{"r1", "Carla", "not-an-email", true},
		{"r1", "", "carla@example.com", false},
		{"r1", "Carla", "  ", false},
		{"", "Carla", "carla@example.com", false},
		{"  ", "Carla", "carla@example.com", false},
	}
	for _, tc := range cases {
		rr, err := svc.SendReviewRequest(ctx, ana, tc.resumeID, tc.name, tc.email, "please look")
		if tc.ok {
			if err != nil {
				t.Fatalf("%q/%q: unexpected error %v", tc.name, tc.email, err)
			}
			if rr.Status != StatusPending || rr.CompletedAt != nil {
				t.Fatalf("new request should be pending, got %+v", rr)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%q/%q: expected ErrInvalidInput, got %v", tc.name, tc.email, err)
		}
	}
}

func TestUpdateReviewStatusForwardOnly(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	rr, _ := svc.SendReviewRequest(ctx, ana, "r1", "Carla", "c@x", "")

	if _, err := svc.UpdateReviewStatus(ctx, rr.ID, StatusPending, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("pending -> pending: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := svc.UpdateReviewStatus(ctx, rr.ID, StatusInReview, "early notes"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("feedback without completion: expected ErrInvalidInput, got %v", err)
	}
	inReview, err := svc.UpdateReviewStatus(ctx, rr.ID, StatusInReview, "")
	if err != nil || inReview.Status != StatusInReview {
		t.Fatalf("pending -> in-review: %+v %v", inReview, err)
	}
	done, err := svc.UpdateReviewStatus(ctx, rr.ID, StatusCompleted, "Great structure")
	if err != nil {
		t.Fatalf("in-review -> completed: %v", err)
	}
	if done.CompletedAt == nil || done.Feedback != "Great structure" {
		t.Fatalf("completion fields missing: %+v", done)
	}
	if _, err := svc.UpdateReviewStatus(ctx, rr.ID, StatusInReview, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("completed -> in-review: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := svc.UpdateReviewStatus(ctx, rr.ID, "archived", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown status: expected ErrInvalidInput, got %v", err)
	}
}

func TestUpdateReviewStatusSkipsAllowed(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	rr, _ := svc.SendReviewRequest(ctx, ana, "r1", "Carla", "c@x", "")
	done, err := svc.UpdateReviewStatus(ctx, rr.ID, StatusCompleted, "")
	if err != nil || done.Status != StatusCompleted {
		t.Fatalf("pending -> completed: %+v %v", done, err)
	}
	if _, err := svc.UpdateReviewStatus(ctx, "missing", StatusCompleted, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
