package threads

import (
	"context"
	"time"
)

// UserContext identifies the caller of a client operation. It is supplied
// per request, never persisted, and is the sole source of the tenant
// isolation predicates the client attaches to every adapter call.
type UserContext struct {
	// UserID identifies the user. Required.
	UserID string `json:"userId"`

	// OrganizationID optionally narrows the scope to one organization.
	OrganizationID string `json:"organizationId,omitempty"`

	// TenantID optionally narrows the scope to one tenant.
	TenantID string `json:"tenantId,omitempty"`
}

// Thread is a chat thread's metadata. Message contents live elsewhere; this
// layer only manages the thread record itself.
type Thread struct {
	// ID uniquely identifies the thread.
	ID string `json:"id"`

	// UserID is the owning user. Set from UserContext on create.
	UserID string `json:"userId"`

	// OrganizationID scopes the thread to an organization, when present.
	OrganizationID string `json:"organizationId,omitempty"`

	// TenantID scopes the thread to a tenant, when present.
	TenantID string `json:"tenantId,omitempty"`

	// Title is the human-readable thread title.
	Title string `json:"title,omitempty"`

	// Metadata holds arbitrary caller data.
	Metadata map[string]any `json:"metadata,omitempty"`

	// CreatedAt is when the thread was created. Adapter-managed.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is refreshed on every update. Adapter-managed.
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateThreadOptions are the caller-controlled fields of a new thread.
// Ownership fields always come from UserContext, never from here.
type CreateThreadOptions struct {
	// Title for the thread. When empty and FirstMessage is set, a configured
	// TitleGenerator may produce one.
	Title string `json:"title,omitempty"`

	// FirstMessage is the opening user message, used only for title
	// generation. Not persisted by this layer.
	FirstMessage string `json:"firstMessage,omitempty"`

	// Metadata holds arbitrary caller data.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// UpdateThreadOptions are the mutable fields of a thread.
type UpdateThreadOptions struct {
	// Title replaces the thread title when non-nil.
	Title *string `json:"title,omitempty"`

	// Metadata replaces the thread metadata when non-nil.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ListThreadsOptions control pagination, ordering and search of ListThreads.
type ListThreadsOptions struct {
	// Limit caps the page size. Defaults to 20.
	Limit int `json:"limit,omitempty"`

	// Offset skips that many threads. Defaults to 0.
	Offset int `json:"offset,omitempty"`

	// OrderBy is the sort field. Defaults to "updatedAt".
	OrderBy string `json:"orderBy,omitempty"`

	// OrderDirection is the sort direction. Defaults to descending.
	OrderDirection SortDirection `json:"orderDirection,omitempty"`

	// Search filters threads whose title contains the string.
	Search string `json:"search,omitempty"`
}

// ThreadList is one page of threads plus pagination metadata.
type ThreadList struct {
	// Threads is the page of results.
	Threads []Thread `json:"threads"`

	// Total is the number of threads matching the query across all pages.
	Total int64 `json:"total"`

	// Limit and Offset echo the effective pagination parameters.
	Limit  int `json:"limit"`
	Offset int `json:"offset"`

	// HasMore is true when offset + len(Threads) < Total.
	HasMore bool `json:"hasMore"`
}

// TitleGenerator produces a short thread title from the opening message.
// Implementations live under ai/.
type TitleGenerator interface {
	GenerateTitle(ctx context.Context, firstMessage string) (string, error)
}

// threadFromRecord maps a canonical adapter record onto a Thread.
func threadFromRecord(rec Record) *Thread {
	if rec == nil {
		return nil
	}

	th := &Thread{}
	if v, ok := rec["id"].(string); ok {
		th.ID = v
	}
	if v, ok := rec["userId"].(string); ok {
		th.UserID = v
	}
	if v, ok := rec["organizationId"].(string); ok {
		th.OrganizationID = v
	}
	if v, ok := rec["tenantId"].(string); ok {
		th.TenantID = v
	}
	if v, ok := rec["title"].(string); ok {
		th.Title = v
	}
	if v, ok := rec["metadata"].(map[string]any); ok {
		th.Metadata = v
	}
	if v, ok := rec["createdAt"].(time.Time); ok {
		th.CreatedAt = v
	}
	if v, ok := rec["updatedAt"].(time.Time); ok {
		th.UpdatedAt = v
	}

	return th
}
