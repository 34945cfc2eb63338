package threads

import "log/slog"

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTitleGenerator enables automatic title generation on CreateThread when
// no title is supplied and a first message is available.
func WithTitleGenerator(gen TitleGenerator) ClientOption {
	return func(c *Client) {
		c.titler = gen
	}
}

// WithListDefaults overrides the default pagination and ordering applied by
// ListThreads when the caller leaves options unset. Zero fields keep the
// built-in defaults.
func WithListDefaults(defaults ListThreadsOptions) ClientOption {
	return func(c *Client) {
		if defaults.Limit > 0 {
			c.listDefaults.Limit = defaults.Limit
		}
		if defaults.OrderBy != "" {
			c.listDefaults.OrderBy = defaults.OrderBy
		}
		if defaults.OrderDirection != "" {
			c.listDefaults.OrderDirection = defaults.OrderDirection
		}
	}
}
