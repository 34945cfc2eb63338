package langgraph

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	threads "github.com/pressw-llc/threads-go"
)

// fakeClient is an in-memory stand-in for the remote thread API.
type fakeClient struct {
	store map[string]*RemoteThread
}

func newFakeClient() *fakeClient {
	return &fakeClient{store: make(map[string]*RemoteThread)}
}

func (f *fakeClient) CreateThread(ctx context.Context, id string, metadata map[string]any) (*RemoteThread, error) {
	now := time.Now().UTC()
	remote := &RemoteThread{ThreadID: id, Metadata: metadata, CreatedAt: now, UpdatedAt: now}
	f.store[id] = remote
	return remote, nil
}

func (f *fakeClient) GetThread(ctx context.Context, id string) (*RemoteThread, error) {
	return f.store[id], nil
}

func (f *fakeClient) SearchThreads(ctx context.Context, params SearchParams) ([]RemoteThread, error) {

	ids := make([]string, 0, len(f.store))
	for id := range f.store {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var matches []RemoteThread
	for _, id := range ids {
		remote := f.store[id]
		ok := true
		for k, v := range params.Metadata {
			if remote.Metadata[k] != v {
				ok = false
				break
			}
		}
		if ok {
			matches = append(matches, *remote)
		}
	}

	if params.Offset >= len(matches) {
		return nil, nil
	}
	matches = matches[params.Offset:]
	if params.Limit > 0 && len(matches) > params.Limit {
		matches = matches[:params.Limit]
	}
	return matches, nil
}

func (f *fakeClient) UpdateThread(ctx context.Context, id string, metadata map[string]any) (*RemoteThread, error) {
	remote, ok := f.store[id]
	if !ok {
		return nil, fmt.Errorf("thread %s vanished", id)
	}
	remote.Metadata = metadata
	remote.UpdatedAt = time.Now().UTC()
	return remote, nil
}

func (f *fakeClient) DeleteThread(ctx context.Context, id string) error {
	delete(f.store, id)
	return nil
}

func newTestAdapter(t *testing.T) (*Adapter, *fakeClient) {
	t.Helper()
	client := newFakeClient()
	a, err := New(client)
	if err != nil {
		t.Fatalf("building adapter: %v", err)
	}
	return a, client
}

func whereOwner(id, userID string) []threads.Where {
	where := []threads.Where{{Field: "userId", Value: userID}}
	if id != "" {
		where = append([]threads.Where{{Field: "id", Value: id}}, where...)
	}
	return where
}

func TestNewRequiresClient(t *testing.T) {
	if _, err := New(nil); !threads.IsConfiguration(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestOnlyThreadModelServed(t *testing.T) {
	a, _ := newTestAdapter(t)
	_, err := a.Create(context.Background(), threads.ModelFeedback, threads.Record{})
	if !threads.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !errors.Is(err, threads.ErrUnsupportedModel) {
		t.Errorf("expected ErrUnsupportedModel in chain, got %v", err)
	}
}

func TestCreateFoldsOwnershipIntoMetadata(t *testing.T) {
	a, client := newTestAdapter(t)

	rec, err := a.Create(context.Background(), threads.ModelThread, threads.Record{
		"userId":   "u1",
		"tenantId": "acme",
		"title":    "hello",
		"metadata": map[string]any{"topic": "demo"},
	})
	if err != nil {
		t.Fatalf("creating: %v", err)
	}

	id, _ := rec["id"].(string)
	if id == "" {
		t.Fatal("expected a generated id")
	}

	remote := client.store[id]
	if remote.Metadata["userId"] != "u1" || remote.Metadata["tenantId"] != "acme" || remote.Metadata["title"] != "hello" {
		t.Errorf("ownership fields must be folded into remote metadata: %v", remote.Metadata)
	}
	if remote.Metadata["topic"] != "demo" {
		t.Errorf("caller metadata must be preserved: %v", remote.Metadata)
	}

	// The canonical record lifts the folded fields back out.
	if rec["userId"] != "u1" || rec["title"] != "hello" {
		t.Errorf("folded fields must surface as canonical fields: %v", rec)
	}
	metadata, _ := rec["metadata"].(map[string]any)
	if metadata["topic"] != "demo" {
		t.Errorf("caller metadata must round trip: %v", rec["metadata"])
	}
	if _, ok := metadata["userId"]; ok {
		t.Errorf("folded fields must not leak into canonical metadata: %v", metadata)
	}
}

func TestCreateWithoutIDGeneration(t *testing.T) {
	client := newFakeClient()
	a, err := New(client, WithoutIDGeneration())
	if err != nil {
		t.Fatalf("building adapter: %v", err)
	}

	if _, err := a.Create(context.Background(), threads.ModelThread, threads.Record{"userId": "u1"}); !threads.IsValidation(err) {
		t.Fatalf("expected validation error without an id, got %v", err)
	}

	rec, err := a.Create(context.Background(), threads.ModelThread, threads.Record{"id": "t-custom", "userId": "u1"})
	if err != nil {
		t.Fatalf("creating: %v", err)
	}
	if rec["id"] != "t-custom" {
		t.Errorf("expected caller-supplied id, got %v", rec["id"])
	}
}

func TestFindOneByIDChecksOwnership(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx := context.Background()

	created, err := a.Create(ctx, threads.ModelThread, threads.Record{"userId": "u1", "title": "mine"})
	if err != nil {
		t.Fatalf("creating: %v", err)
	}
	id, _ := created["id"].(string)

	rec, err := a.FindOne(ctx, threads.ModelThread, whereOwner(id, "u1"))
	if err != nil || rec == nil {
		t.Fatalf("owner lookup must succeed: rec=%v err=%v", rec, err)
	}

	rec, err = a.FindOne(ctx, threads.ModelThread, whereOwner(id, "intruder"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec != nil {
		t.Errorf("ownership mismatch must read as a miss, got %v", rec)
	}

	rec, err = a.FindOne(ctx, threads.ModelThread, whereOwner("no-such-id", "u1"))
	if err != nil || rec != nil {
		t.Errorf("unknown id must read as a miss: rec=%v err=%v", rec, err)
	}
}

func TestFindManyPushesEqualityFilters(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := a.Create(ctx, threads.ModelThread, threads.Record{"userId": "u1"}); err != nil {
			t.Fatalf("creating: %v", err)
		}
	}
	if _, err := a.Create(ctx, threads.ModelThread, threads.Record{"userId": "u2"}); err != nil {
		t.Fatalf("creating: %v", err)
	}

	recs, err := a.FindMany(ctx, threads.ModelThread, threads.FindParams{
		Where: []threads.Where{{Field: "userId", Value: "u1"}},
	})
	if err != nil {
		t.Fatalf("finding: %v", err)
	}
	if len(recs) != 3 {
		t.Errorf("expected 3 threads for u1, got %d", len(recs))
	}

	recs, err = a.FindMany(ctx, threads.ModelThread, threads.FindParams{
		Where: []threads.Where{{Field: "userId", Value: "u1"}},
		Limit: 2, Offset: 2,
	})
	if err != nil {
		t.Fatalf("finding: %v", err)
	}
	if len(recs) != 1 {
		t.Errorf("expected 1 thread on the last page, got %d", len(recs))
	}
}

func TestCountSearchesWithCap(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if _, err := a.Create(ctx, threads.ModelThread, threads.Record{"userId": "u1"}); err != nil {
			t.Fatalf("creating: %v", err)
		}
	}

	count, err := a.Count(ctx, threads.ModelThread, []threads.Where{{Field: "userId", Value: "u1"}})
	if err != nil {
		t.Fatalf("counting: %v", err)
	}
	if count != 4 {
		t.Errorf("expected 4, got %d", count)
	}
}

func TestUpdateMergesMetadata(t *testing.T) {
	a, client := newTestAdapter(t)
	ctx := context.Background()

	created, err := a.Create(ctx, threads.ModelThread, threads.Record{
		"userId":   "u1",
		"title":    "before",
		"metadata": map[string]any{"topic": "demo", "stage": "draft"},
	})
	if err != nil {
		t.Fatalf("creating: %v", err)
	}
	id, _ := created["id"].(string)

	updated, err := a.Update(ctx, threads.ModelThread, whereOwner(id, "u1"), threads.Record{
		"title":    "after",
		"metadata": map[string]any{"stage": "final"},
	})
	if err != nil {
		t.Fatalf("updating: %v", err)
	}
	if updated["title"] != "after" {
		t.Errorf("title must be replaced, got %v", updated["title"])
	}

	metadata, _ := updated["metadata"].(map[string]any)
	if metadata["stage"] != "final" {
		t.Errorf("patched key must win, got %v", metadata)
	}
	if metadata["topic"] != "demo" {
		t.Errorf("untouched keys must survive the merge, got %v", metadata)
	}

	remote := client.store[id]
	if remote.Metadata["userId"] != "u1" {
		t.Errorf("ownership must survive the merge, got %v", remote.Metadata)
	}
}

func TestUpdateRequiresID(t *testing.T) {
	a, _ := newTestAdapter(t)
	_, err := a.Update(context.Background(), threads.ModelThread, whereOwner("", "u1"), threads.Record{"title": "x"})
	if !threads.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateOwnershipMismatchIsAMiss(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx := context.Background()

	created, err := a.Create(ctx, threads.ModelThread, threads.Record{"userId": "u1"})
	if err != nil {
		t.Fatalf("creating: %v", err)
	}
	id, _ := created["id"].(string)

	rec, err := a.Update(ctx, threads.ModelThread, whereOwner(id, "intruder"), threads.Record{"title": "hacked"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec != nil {
		t.Errorf("expected nil on ownership mismatch, got %v", rec)
	}
}

func TestDeleteSemantics(t *testing.T) {
	a, client := newTestAdapter(t)
	ctx := context.Background()

	created, err := a.Create(ctx, threads.ModelThread, threads.Record{"userId": "u1"})
	if err != nil {
		t.Fatalf("creating: %v", err)
	}
	id, _ := created["id"].(string)

	// Unknown id is a no-op.
	if err := a.Delete(ctx, threads.ModelThread, whereOwner("no-such-id", "u1")); err != nil {
		t.Fatalf("deleting an unknown id must be a no-op: %v", err)
	}

	// Ownership mismatch on an existing thread is denied.
	err = a.Delete(ctx, threads.ModelThread, whereOwner(id, "intruder"))
	if !errors.Is(err, threads.ErrNotFoundOrDenied) {
		t.Fatalf("expected ErrNotFoundOrDenied, got %v", err)
	}
	if _, ok := client.store[id]; !ok {
		t.Fatal("denied delete must not remove the thread")
	}

	if err := a.Delete(ctx, threads.ModelThread, whereOwner(id, "u1")); err != nil {
		t.Fatalf("deleting: %v", err)
	}
	if _, ok := client.store[id]; ok {
		t.Error("thread must be gone after delete")
	}
}
