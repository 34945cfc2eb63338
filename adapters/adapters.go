// Package adapters turns a validated configuration into a ready-to-use
// backend or client. It imports every concrete adapter, so programs that wire
// their backend by hand should depend on the individual subpackages instead.
package adapters

import (
	"context"

	threads "github.com/pressw-llc/threads-go"
	"github.com/pressw-llc/threads-go/adapters/langgraph"
	"github.com/pressw-llc/threads-go/adapters/memory"
	sqladapter "github.com/pressw-llc/threads-go/adapters/sql"
)

// New builds the backend selected by cfg.Adapter. For the sql backend the
// database handle is opened here and owned by the process; missing field
// mappings default to the snake_case mapping that matches Migration's schema.
func New(ctx context.Context, cfg *threads.Config) (threads.Adapter, error) {
	if cfg == nil {
		return nil, threads.NewConfigurationError("config is required", nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Adapter {
	case threads.AdapterMemory:
		return memory.New(), nil

	case threads.AdapterSQL:
		db, err := sqladapter.Open(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}

		fields := cfg.Database.Fields
		if fields == nil {
			fields = sqladapter.DefaultFieldMappings()
		}

		return sqladapter.New(ctx, sqladapter.Config{
			Driver:              cfg.Database.Driver,
			DB:                  db,
			Tables:              cfg.Database.Tables,
			Fields:              fields,
			UsePlural:           cfg.Database.UsePlural,
			DisableIDGeneration: cfg.Database.DisableIDGeneration,
		})

	case threads.AdapterLangGraph:
		client, err := langgraph.NewHTTPClient(cfg.LangGraph.BaseURL, cfg.LangGraph.APIKey)
		if err != nil {
			return nil, err
		}
		return langgraph.New(client)

	default:
		return nil, threads.NewConfigurationError("unknown adapter "+cfg.Adapter, nil)
	}
}

// NewClient builds a client over the configured backend, applying the list
// defaults from cfg before any caller-supplied options.
func NewClient(ctx context.Context, cfg *threads.Config, opts ...threads.ClientOption) (*threads.Client, error) {
	adapter, err := New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	defaults := threads.WithListDefaults(threads.ListThreadsOptions{
		Limit:          cfg.List.Limit,
		OrderBy:        cfg.List.OrderBy,
		OrderDirection: threads.SortDirection(cfg.List.OrderDirection),
	})

	return threads.NewClient(adapter, append([]threads.ClientOption{defaults}, opts...)...)
}
