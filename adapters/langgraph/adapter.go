package langgraph

import (
	"context"
	"fmt"

	threads "github.com/pressw-llc/threads-go"
)

// Fields the remote store does not understand natively. They are folded into
// the thread's metadata bag on write and lifted back out on read.
var foldedFields = []string{"userId", "organizationId", "tenantId", "title"}

// Fields pushable to the remote API as metadata equality filters.
var filterableFields = map[string]bool{
	"userId":         true,
	"organizationId": true,
	"tenantId":       true,
}

// countCap bounds the Count approximation: Count searches with this limit
// and returns the result length, so counts above the cap are inaccurate.
// The remote API has no native count.
const countCap = 1000

// Adapter implements the thread adapter contract over a remote thread API.
//
// Capability notes, all inherent to the remote API:
//   - only the "thread" model is served
//   - filtering is equality-only and limited to userId/organizationId/tenantId
//   - SortSpec is ignored (no remote sort)
//   - Count is approximate above countCap
//   - Update is read-merge-write with last-write-wins; there is no version
//     token, so concurrent updates can lose one write
//
// The remote store has no row-level security: FindOne and Delete fetch by id
// and verify ownership locally before releasing the result.
type Adapter struct {
	client     Client
	generateID threads.IDGenerator
	caps       threads.Capabilities
}

// Option configures the adapter.
type Option func(*Adapter)

// WithIDGenerator overrides the default UUID id generator.
func WithIDGenerator(gen threads.IDGenerator) Option {
	return func(a *Adapter) {
		a.generateID = gen
	}
}

// WithoutIDGeneration makes Create require a caller-supplied id.
func WithoutIDGeneration() Option {
	return func(a *Adapter) {
		a.caps.DisableIDGeneration = true
	}
}

// New creates an adapter over a remote client.
func New(client Client, opts ...Option) (*Adapter, error) {
	if client == nil {
		return nil, threads.NewConfigurationError("remote client is required", nil)
	}

	a := &Adapter{
		client:     client,
		generateID: threads.NewID,
		caps: threads.Capabilities{
			SupportsJSON:      true,
			SupportsDates:     true,
			SupportsBooleans:  true,
			SupportsReturning: true,
		},
	}
	for _, opt := range opts {
		opt(a)
	}

	return a, nil
}

// Capabilities reports the remote store's fixed capability flags.
func (a *Adapter) Capabilities() threads.Capabilities {
	return a.caps
}

// Schema returns the thread schema; other models are not served.
func (a *Adapter) Schema(model string) (*threads.ModelSchema, error) {
	if err := checkModel(model); err != nil {
		return nil, err
	}
	return threads.SchemaFor(model)
}

func checkModel(model string) error {
	if model != threads.ModelThread {
		return threads.NewValidationError(
			fmt.Sprintf("remote adapter only supports the %q model, got %q", threads.ModelThread, model),
			threads.ErrUnsupportedModel)
	}
	return nil
}

// Create stores a new remote thread, folding ownership fields and caller
// metadata into the remote metadata bag.
func (a *Adapter) Create(ctx context.Context, model string, data threads.Record) (threads.Record, error) {
	if err := checkModel(model); err != nil {
		return nil, err
	}

	id, _ := data["id"].(string)
	if id == "" {
		if a.caps.DisableIDGeneration {
			return nil, threads.NewValidationError("id is required when id generation is disabled", threads.ErrInvalidArgument)
		}
		id = a.generateID()
	}

	remote, err := a.client.CreateThread(ctx, id, foldMetadata(data))
	if err != nil {
		return nil, fmt.Errorf("creating remote thread: %w", err)
	}

	return recordFromRemote(remote), nil
}

// FindOne fetches by id when the conditions carry one, otherwise searches.
// Either way the result is released only after the ownership conditions in
// where are verified locally against the thread's metadata.
func (a *Adapter) FindOne(ctx context.Context, model string, where []threads.Where) (threads.Record, error) {
	if err := checkModel(model); err != nil {
		return nil, err
	}

	cleaned, err := threads.CleanConditions(where)
	if err != nil {
		return nil, err
	}

	if id := idFrom(cleaned); id != "" {
		remote, err := a.client.GetThread(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("fetching remote thread: %w", err)
		}
		if remote == nil || !authorized(remote, cleaned) {
			return nil, nil
		}
		return recordFromRemote(remote), nil
	}

	results, err := a.client.SearchThreads(ctx, SearchParams{Metadata: metadataFilters(cleaned), Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("searching remote threads: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	return recordFromRemote(&results[0]), nil
}

// FindMany pushes equality filters on userId/organizationId/tenantId down as
// remote metadata filters. Other operators are not supported remotely and
// SortBy is ignored (the remote API cannot sort).
func (a *Adapter) FindMany(ctx context.Context, model string, params threads.FindParams) ([]threads.Record, error) {
	if err := checkModel(model); err != nil {
		return nil, err
	}

	cleaned, err := threads.CleanConditions(params.Where)
	if err != nil {
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = threads.DefaultFindLimit
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	results, err := a.client.SearchThreads(ctx, SearchParams{
		Metadata: metadataFilters(cleaned),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, fmt.Errorf("searching remote threads: %w", err)
	}

	records := make([]threads.Record, 0, len(results))
	for i := range results {
		records = append(records, recordFromRemote(&results[i]))
	}

	return records, nil
}

// Update is read-merge-write: fetch the existing metadata, shallow-merge the
// new fields over it and write back. Two concurrent updates race with
// last-write-wins; the remote API offers no version token.
func (a *Adapter) Update(ctx context.Context, model string, where []threads.Where, data threads.Record) (threads.Record, error) {
	if err := checkModel(model); err != nil {
		return nil, err
	}

	cleaned, err := threads.CleanConditions(where)
	if err != nil {
		return nil, err
	}

	id := idFrom(cleaned)
	if id == "" {
		return nil, threads.NewValidationError("update requires an id condition", threads.ErrInvalidArgument)
	}

	existing, err := a.client.GetThread(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching remote thread: %w", err)
	}
	if existing == nil || !authorized(existing, cleaned) {
		return nil, nil
	}

	merged := make(map[string]any, len(existing.Metadata))
	for k, v := range existing.Metadata {
		merged[k] = v
	}
	for k, v := range foldMetadata(data) {
		merged[k] = v
	}

	updated, err := a.client.UpdateThread(ctx, id, merged)
	if err != nil {
		return nil, fmt.Errorf("updating remote thread: %w", err)
	}

	return recordFromRemote(updated), nil
}

// Delete removes the thread after verifying ownership locally. Deleting an
// id the remote has never seen is a no-op; an ownership mismatch on an
// existing thread is reported as not-found-or-denied.
func (a *Adapter) Delete(ctx context.Context, model string, where []threads.Where) error {
	if err := checkModel(model); err != nil {
		return err
	}

	cleaned, err := threads.CleanConditions(where)
	if err != nil {
		return err
	}

	id := idFrom(cleaned)
	if id == "" {
		return threads.NewValidationError("delete requires an id condition", threads.ErrInvalidArgument)
	}

	existing, err := a.client.GetThread(ctx, id)
	if err != nil {
		return fmt.Errorf("fetching remote thread: %w", err)
	}
	if existing == nil {
		return nil
	}
	if !authorized(existing, cleaned) {
		return threads.ErrNotFoundOrDenied
	}

	if err := a.client.DeleteThread(ctx, id); err != nil {
		return fmt.Errorf("deleting remote thread: %w", err)
	}

	return nil
}

// Count approximates by searching with a capped limit and returning the
// result length. Counts above countCap are inaccurate; the remote API has
// no native count.
func (a *Adapter) Count(ctx context.Context, model string, where []threads.Where) (int64, error) {
	if err := checkModel(model); err != nil {
		return 0, err
	}

	cleaned, err := threads.CleanConditions(where)
	if err != nil {
		return 0, err
	}

	results, err := a.client.SearchThreads(ctx, SearchParams{Metadata: metadataFilters(cleaned), Limit: countCap})
	if err != nil {
		return 0, fmt.Errorf("searching remote threads: %w", err)
	}

	return int64(len(results)), nil
}

// idFrom extracts the id of an equality condition on "id", when present.
func idFrom(where []threads.Where) string {
	for _, w := range where {
		if w.Field == "id" && w.Operator == threads.OpEq {
			if id, ok := w.Value.(string); ok {
				return id
			}
		}
	}
	return ""
}

// authorized checks equality conditions on the folded ownership fields
// against the thread's metadata. The remote store enforces nothing itself,
// so every read must pass here before its result is released.
func authorized(remote *RemoteThread, where []threads.Where) bool {
	for _, w := range where {
		if !filterableFields[w.Field] || w.Operator != threads.OpEq {
			continue
		}
		actual, _ := remote.Metadata[w.Field].(string)
		expected, _ := w.Value.(string)
		if actual != expected {
			return false
		}
	}
	return true
}

// metadataFilters collects the remotely filterable equality conditions.
func metadataFilters(where []threads.Where) map[string]any {
	filters := make(map[string]any)
	for _, w := range where {
		if filterableFields[w.Field] && w.Operator == threads.OpEq {
			filters[w.Field] = w.Value
		}
	}
	if len(filters) == 0 {
		return nil
	}
	return filters
}

// foldMetadata builds the remote metadata bag from a canonical record:
// caller metadata first, then the folded fields on top.
func foldMetadata(data threads.Record) map[string]any {
	bag := make(map[string]any)
	if m, ok := data["metadata"].(map[string]any); ok {
		for k, v := range m {
			bag[k] = v
		}
	}
	for _, field := range foldedFields {
		if v, ok := data[field]; ok && v != nil {
			bag[field] = v
		}
	}
	return bag
}

// recordFromRemote lifts the folded fields back out of the metadata bag.
func recordFromRemote(remote *RemoteThread) threads.Record {
	rec := threads.Record{
		"id":        remote.ThreadID,
		"createdAt": remote.CreatedAt,
		"updatedAt": remote.UpdatedAt,
	}

	metadata := make(map[string]any)
	for k, v := range remote.Metadata {
		metadata[k] = v
	}
	for _, field := range foldedFields {
		if v, ok := metadata[field]; ok {
			rec[field] = v
			delete(metadata, field)
		}
	}
	if len(metadata) > 0 {
		rec["metadata"] = metadata
	}

	return rec
}
