package threads

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Client is the tenant-scoped entry point application code calls. It wraps
// any Adapter, derives isolation predicates from the caller's UserContext and
// maps thread operations onto the generic CRUD contract. No adapter call the
// client makes is ever unscoped.
type Client struct {
	adapter      Adapter
	titler       TitleGenerator
	logger       *slog.Logger
	listDefaults ListThreadsOptions
}

// NewClient creates a client around an adapter. The adapter is an explicit
// dependency; there is no process-wide default.
func NewClient(adapter Adapter, opts ...ClientOption) (*Client, error) {
	if adapter == nil {
		return nil, NewConfigurationError("adapter is required", nil)
	}

	c := &Client{
		adapter: adapter,
		logger:  slog.Default(),
		listDefaults: ListThreadsOptions{
			Limit:          20,
			Offset:         0,
			OrderBy:        "updatedAt",
			OrderDirection: SortDesc,
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// scope builds the isolation predicates for a user context: always userId,
// plus organizationId and tenantId when present.
func (c *Client) scope(uc UserContext) []Where {
	where := []Where{{Field: "userId", Value: uc.UserID, Operator: OpEq, Connector: ConnectorAnd}}
	if uc.OrganizationID != "" {
		where = append(where, Where{Field: "organizationId", Value: uc.OrganizationID, Operator: OpEq, Connector: ConnectorAnd})
	}
	if uc.TenantID != "" {
		where = append(where, Where{Field: "tenantId", Value: uc.TenantID, Operator: OpEq, Connector: ConnectorAnd})
	}
	return where
}

func validateContext(uc UserContext) error {
	if uc.UserID == "" {
		return NewValidationError("userId is required", ErrInvalidArgument)
	}
	return nil
}

// CreateThread creates a thread owned by the calling user. Ownership fields
// are always taken from uc; caller-supplied values cannot override them.
func (c *Client) CreateThread(ctx context.Context, uc UserContext, opts CreateThreadOptions) (*Thread, error) {
	if err := validateContext(uc); err != nil {
		return nil, err
	}

	title := opts.Title
	if title == "" && opts.FirstMessage != "" && c.titler != nil {
		generated, err := c.titler.GenerateTitle(ctx, opts.FirstMessage)
		if err != nil {
			c.logger.Warn("title generation failed", "error", err)
		} else {
			title = generated
		}
	}

	data := Record{
		"userId": uc.UserID,
	}
	if uc.OrganizationID != "" {
		data["organizationId"] = uc.OrganizationID
	}
	if uc.TenantID != "" {
		data["tenantId"] = uc.TenantID
	}
	if title != "" {
		data["title"] = title
	}
	if opts.Metadata != nil {
		data["metadata"] = opts.Metadata
	}

	rec, err := c.adapter.Create(ctx, ModelThread, data)
	if err != nil {
		return nil, fmt.Errorf("creating thread: %w", err)
	}

	return threadFromRecord(rec), nil
}

// GetThread returns a thread by id, or nil when it does not exist or belongs
// to someone else. The two cases are indistinguishable on purpose.
func (c *Client) GetThread(ctx context.Context, uc UserContext, id string) (*Thread, error) {
	if err := validateContext(uc); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, NewValidationError("thread id is required", ErrInvalidArgument)
	}

	where := append([]Where{{Field: "id", Value: id, Operator: OpEq, Connector: ConnectorAnd}}, c.scope(uc)...)
	rec, err := c.adapter.FindOne(ctx, ModelThread, where)
	if err != nil {
		return nil, fmt.Errorf("getting thread: %w", err)
	}
	if rec == nil {
		return nil, nil
	}

	return threadFromRecord(rec), nil
}

// ListThreads returns one page of the caller's threads. The count and the
// page are independent reads and are fetched concurrently.
func (c *Client) ListThreads(ctx context.Context, uc UserContext, opts ListThreadsOptions) (*ThreadList, error) {
	if err := validateContext(uc); err != nil {
		return nil, err
	}

	if opts.Limit <= 0 {
		opts.Limit = c.listDefaults.Limit
	}
	if opts.Offset < 0 {
		opts.Offset = c.listDefaults.Offset
	}
	if opts.OrderBy == "" {
		opts.OrderBy = c.listDefaults.OrderBy
	}
	if opts.OrderDirection == "" {
		opts.OrderDirection = c.listDefaults.OrderDirection
	}

	where := c.scope(uc)
	if opts.Search != "" {
		where = append(where, Where{Field: "title", Value: opts.Search, Operator: OpContains, Connector: ConnectorAnd})
	}

	var (
		recs  []Record
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		recs, err = c.adapter.FindMany(gctx, ModelThread, FindParams{
			Where:  where,
			Limit:  opts.Limit,
			Offset: opts.Offset,
			SortBy: &SortSpec{Field: opts.OrderBy, Direction: opts.OrderDirection},
		})
		return err
	})
	g.Go(func() error {
		var err error
		total, err = c.adapter.Count(gctx, ModelThread, where)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("listing threads: %w", err)
	}

	page := make([]Thread, 0, len(recs))
	for _, rec := range recs {
		page = append(page, *threadFromRecord(rec))
	}

	return &ThreadList{
		Threads: page,
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
		HasMore: int64(opts.Offset+len(page)) < total,
	}, nil
}

// UpdateThread updates the title and/or metadata of the caller's thread.
// A thread that is missing or owned by someone else yields
// ErrNotFoundOrDenied.
func (c *Client) UpdateThread(ctx context.Context, uc UserContext, id string, updates UpdateThreadOptions) (*Thread, error) {
	if err := validateContext(uc); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, NewValidationError("thread id is required", ErrInvalidArgument)
	}

	data := Record{}
	if updates.Title != nil {
		data["title"] = *updates.Title
	}
	if updates.Metadata != nil {
		data["metadata"] = updates.Metadata
	}

	where := append([]Where{{Field: "id", Value: id, Operator: OpEq, Connector: ConnectorAnd}}, c.scope(uc)...)
	rec, err := c.adapter.Update(ctx, ModelThread, where, data)
	if err != nil {
		return nil, fmt.Errorf("updating thread: %w", err)
	}
	if rec == nil {
		return nil, ErrNotFoundOrDenied
	}

	return threadFromRecord(rec), nil
}

// DeleteThread removes the caller's thread. A thread that is missing or
// owned by someone else yields ErrNotFoundOrDenied.
func (c *Client) DeleteThread(ctx context.Context, uc UserContext, id string) error {
	if err := validateContext(uc); err != nil {
		return err
	}
	if id == "" {
		return NewValidationError("thread id is required", ErrInvalidArgument)
	}

	where := append([]Where{{Field: "id", Value: id, Operator: OpEq, Connector: ConnectorAnd}}, c.scope(uc)...)
	rec, err := c.adapter.FindOne(ctx, ModelThread, where)
	if err != nil {
		return fmt.Errorf("deleting thread: %w", err)
	}
	if rec == nil {
		return ErrNotFoundOrDenied
	}

	if err := c.adapter.Delete(ctx, ModelThread, where); err != nil {
		return fmt.Errorf("deleting thread: %w", err)
	}

	return nil
}
