package threads_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	threads "github.com/pressw-llc/threads-go"
	"github.com/pressw-llc/threads-go/adapters/memory"
)

func newTestClient(t *testing.T, opts ...threads.ClientOption) *threads.Client {
	t.Helper()
	client, err := threads.NewClient(memory.New(), opts...)
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}
	return client
}

func TestNewClientRequiresAdapter(t *testing.T) {
	_, err := threads.NewClient(nil)
	if !threads.IsConfiguration(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestThreadLifecycle(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	uc := threads.UserContext{UserID: "u1"}

	created, err := client.CreateThread(ctx, uc, threads.CreateThreadOptions{
		Title:    "T1",
		Metadata: map[string]any{"a": 1},
	})
	if err != nil {
		t.Fatalf("creating thread: %v", err)
	}
	if created.UserID != "u1" {
		t.Errorf("expected ownership from context, got %q", created.UserID)
	}
	if created.ID == "" {
		t.Error("expected auto-generated id")
	}
	if !created.CreatedAt.Equal(created.UpdatedAt) {
		t.Errorf("createdAt must equal updatedAt on create: %v vs %v", created.CreatedAt, created.UpdatedAt)
	}

	time.Sleep(2 * time.Millisecond)

	title := "T2"
	updated, err := client.UpdateThread(ctx, uc, created.ID, threads.UpdateThreadOptions{Title: &title})
	if err != nil {
		t.Fatalf("updating thread: %v", err)
	}
	if updated.Title != "T2" {
		t.Errorf("expected updated title, got %q", updated.Title)
	}
	if !updated.UpdatedAt.After(created.CreatedAt) {
		t.Errorf("updatedAt must advance past createdAt: %v vs %v", updated.UpdatedAt, created.CreatedAt)
	}

	// A different user must not see the thread.
	other, err := client.GetThread(ctx, threads.UserContext{UserID: "u2"}, created.ID)
	if err != nil {
		t.Fatalf("cross-tenant get: %v", err)
	}
	if other != nil {
		t.Fatal("thread leaked across users")
	}

	if err := client.DeleteThread(ctx, uc, created.ID); err != nil {
		t.Fatalf("deleting thread: %v", err)
	}
	gone, err := client.GetThread(ctx, uc, created.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if gone != nil {
		t.Error("thread still visible after delete")
	}
}

func TestTenantIsolation(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	owner := threads.UserContext{UserID: "u1", OrganizationID: "org1"}
	created, err := client.CreateThread(ctx, owner, threads.CreateThreadOptions{Title: "secret"})
	if err != nil {
		t.Fatalf("creating thread: %v", err)
	}

	intruders := []threads.UserContext{
		{UserID: "u2"},
		{UserID: "u2", OrganizationID: "org1"},
		{UserID: "u1", OrganizationID: "org2"},
	}

	for _, intruder := range intruders {
		t.Run(fmt.Sprintf("user=%s org=%s", intruder.UserID, intruder.OrganizationID), func(t *testing.T) {
			got, err := client.GetThread(ctx, intruder, created.ID)
			if err != nil || got != nil {
				t.Errorf("GetThread leaked: thread=%v err=%v", got, err)
			}

			list, err := client.ListThreads(ctx, intruder, threads.ListThreadsOptions{})
			if err != nil {
				t.Fatalf("listing threads: %v", err)
			}
			if len(list.Threads) != 0 {
				t.Errorf("ListThreads leaked %d threads", len(list.Threads))
			}

			title := "hacked"
			_, err = client.UpdateThread(ctx, intruder, created.ID, threads.UpdateThreadOptions{Title: &title})
			if !errors.Is(err, threads.ErrNotFoundOrDenied) {
				t.Errorf("UpdateThread: expected ErrNotFoundOrDenied, got %v", err)
			}

			err = client.DeleteThread(ctx, intruder, created.ID)
			if !errors.Is(err, threads.ErrNotFoundOrDenied) {
				t.Errorf("DeleteThread: expected ErrNotFoundOrDenied, got %v", err)
			}
		})
	}

	// The owner still sees the intact thread.
	got, err := client.GetThread(ctx, owner, created.ID)
	if err != nil || got == nil {
		t.Fatalf("owner lost access: thread=%v err=%v", got, err)
	}
	if got.Title != "secret" {
		t.Errorf("thread was modified by an intruder: %q", got.Title)
	}
}

func TestListThreadsPagination(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	uc := threads.UserContext{UserID: "u1"}

	for i := 0; i < 25; i++ {
		if _, err := client.CreateThread(ctx, uc, threads.CreateThreadOptions{
			Title: fmt.Sprintf("thread %02d", i),
		}); err != nil {
			t.Fatalf("creating thread %d: %v", i, err)
		}
	}

	tests := []struct {
		offset      int
		wantCount   int
		wantHasMore bool
	}{
		{offset: 0, wantCount: 10, wantHasMore: true},
		{offset: 10, wantCount: 10, wantHasMore: true},
		{offset: 20, wantCount: 5, wantHasMore: false},
		{offset: 30, wantCount: 0, wantHasMore: false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("offset=%d", tt.offset), func(t *testing.T) {
			list, err := client.ListThreads(ctx, uc, threads.ListThreadsOptions{Limit: 10, Offset: tt.offset})
			if err != nil {
				t.Fatalf("listing: %v", err)
			}
			if list.Total != 25 {
				t.Errorf("expected total 25, got %d", list.Total)
			}
			if len(list.Threads) != tt.wantCount {
				t.Errorf("expected %d threads, got %d", tt.wantCount, len(list.Threads))
			}
			if list.HasMore != tt.wantHasMore {
				t.Errorf("expected hasMore=%v, got %v", tt.wantHasMore, list.HasMore)
			}
		})
	}
}

func TestListThreadsSearch(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	uc := threads.UserContext{UserID: "u1"}

	for _, title := range []string{"grocery list", "trip planning", "grocery budget"} {
		if _, err := client.CreateThread(ctx, uc, threads.CreateThreadOptions{Title: title}); err != nil {
			t.Fatalf("creating thread: %v", err)
		}
	}

	list, err := client.ListThreads(ctx, uc, threads.ListThreadsOptions{Search: "grocery"})
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(list.Threads) != 2 || list.Total != 2 {
		t.Errorf("expected 2 grocery threads, got %d (total %d)", len(list.Threads), list.Total)
	}
}

func TestListThreadsDefaultOrder(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	uc := threads.UserContext{UserID: "u1"}

	first, err := client.CreateThread(ctx, uc, threads.CreateThreadOptions{Title: "older"})
	if err != nil {
		t.Fatalf("creating thread: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, err := client.CreateThread(ctx, uc, threads.CreateThreadOptions{Title: "newer"}); err != nil {
		t.Fatalf("creating thread: %v", err)
	}

	list, err := client.ListThreads(ctx, uc, threads.ListThreadsOptions{})
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if list.Threads[0].Title != "newer" {
		t.Errorf("expected updatedAt desc ordering, got %q first", list.Threads[0].Title)
	}

	time.Sleep(2 * time.Millisecond)
	title := "older but touched"
	if _, err := client.UpdateThread(ctx, uc, first.ID, threads.UpdateThreadOptions{Title: &title}); err != nil {
		t.Fatalf("updating thread: %v", err)
	}

	list, err = client.ListThreads(ctx, uc, threads.ListThreadsOptions{})
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if list.Threads[0].ID != first.ID {
		t.Errorf("expected the freshly updated thread first, got %q", list.Threads[0].Title)
	}
}

func TestEmptyIDValidation(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	uc := threads.UserContext{UserID: "u1"}

	if _, err := client.GetThread(ctx, uc, ""); !threads.IsValidation(err) {
		t.Errorf("GetThread with empty id: expected validation error, got %v", err)
	}
	if _, err := client.UpdateThread(ctx, uc, "", threads.UpdateThreadOptions{}); !threads.IsValidation(err) {
		t.Errorf("UpdateThread with empty id: expected validation error, got %v", err)
	}
	if err := client.DeleteThread(ctx, uc, ""); !threads.IsValidation(err) {
		t.Errorf("DeleteThread with empty id: expected validation error, got %v", err)
	}
}

func TestMissingUserContext(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	if _, err := client.CreateThread(ctx, threads.UserContext{}, threads.CreateThreadOptions{}); !threads.IsValidation(err) {
		t.Errorf("expected validation error without userId, got %v", err)
	}
}

// fixedTitler is a deterministic TitleGenerator.
type fixedTitler struct {
	title string
	err   error
	calls int
}

func (f *fixedTitler) GenerateTitle(ctx context.Context, firstMessage string) (string, error) {
	f.calls++
	return f.title, f.err
}

func TestCreateThreadAutoTitle(t *testing.T) {
	ctx := context.Background()
	uc := threads.UserContext{UserID: "u1"}

	titler := &fixedTitler{title: "Generated title"}
	client := newTestClient(t, threads.WithTitleGenerator(titler))

	created, err := client.CreateThread(ctx, uc, threads.CreateThreadOptions{FirstMessage: "hello there"})
	if err != nil {
		t.Fatalf("creating thread: %v", err)
	}
	if created.Title != "Generated title" {
		t.Errorf("expected generated title, got %q", created.Title)
	}

	// An explicit title wins over the generator.
	created, err = client.CreateThread(ctx, uc, threads.CreateThreadOptions{Title: "Mine", FirstMessage: "hello"})
	if err != nil {
		t.Fatalf("creating thread: %v", err)
	}
	if created.Title != "Mine" {
		t.Errorf("explicit title must win, got %q", created.Title)
	}
	if titler.calls != 1 {
		t.Errorf("titler must not run when a title is supplied, calls=%d", titler.calls)
	}
}

func TestCreateThreadTitlerFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	uc := threads.UserContext{UserID: "u1"}

	titler := &fixedTitler{err: errors.New("model unavailable")}
	client := newTestClient(t, threads.WithTitleGenerator(titler))

	created, err := client.CreateThread(ctx, uc, threads.CreateThreadOptions{FirstMessage: "hello"})
	if err != nil {
		t.Fatalf("creating thread: %v", err)
	}
	if created.Title != "" {
		t.Errorf("expected empty title after generator failure, got %q", created.Title)
	}
}
