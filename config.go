package threads

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Adapter kinds selectable from configuration.
const (
	AdapterMemory    = "memory"
	AdapterSQL       = "sql"
	AdapterLangGraph = "langgraph"
)

// Config is the YAML-backed SDK configuration. ${VAR} references are
// expanded from the environment (after loading a .env file, when present)
// so secrets stay out of config files.
type Config struct {
	// Adapter selects the backend: "memory", "sql" or "langgraph".
	Adapter string `yaml:"adapter"`

	// Database configures the relational adapter.
	Database DatabaseConfig `yaml:"database"`

	// LangGraph configures the remote adapter.
	LangGraph LangGraphConfig `yaml:"langgraph"`

	// List overrides the client's pagination defaults.
	List ListConfig `yaml:"list"`
}

// DatabaseConfig configures the relational adapter.
type DatabaseConfig struct {
	// Driver is "postgres", "mysql" or "sqlite".
	Driver string `yaml:"driver"`

	// DSN is the driver-specific connection string.
	DSN string `yaml:"dsn"`

	// Tables maps canonical model names to physical table names. Unmapped
	// models derive their table name from the model name.
	Tables map[string]string `yaml:"tables"`

	// Fields maps canonical field names to physical column names, per model.
	Fields map[string]FieldMapping `yaml:"fields"`

	// UsePlural pluralizes derived table names.
	UsePlural bool `yaml:"usePlural"`

	// DisableIDGeneration suppresses automatic id generation on create.
	DisableIDGeneration bool `yaml:"disableIdGeneration"`
}

// LangGraphConfig configures the remote adapter.
type LangGraphConfig struct {
	// BaseURL is the deployment URL of the remote thread API.
	BaseURL string `yaml:"baseUrl"`

	// APIKey authenticates requests. Sent as X-Api-Key.
	APIKey string `yaml:"apiKey"`
}

// ListConfig overrides ListThreads defaults.
type ListConfig struct {
	Limit          int    `yaml:"limit"`
	OrderBy        string `yaml:"orderBy"`
	OrderDirection string `yaml:"orderDirection"`
}

// LoadConfig reads a YAML config file, expanding ${VAR} environment
// references. A .env file next to the process is loaded first when present.
func LoadConfig(path string) (*Config, error) {
	// Best effort; a missing .env file is fine.
	_ = godotenv.Load()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	expanded := os.ExpandEnv(string(raw))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that the selected adapter is fully configured.
func (c *Config) Validate() error {
	switch c.Adapter {
	case AdapterMemory:
		// Nothing to configure.
	case AdapterSQL:
		switch c.Database.Driver {
		case "postgres", "mysql", "sqlite":
		case "":
			return NewConfigurationError("database.driver is required for the sql adapter", nil)
		default:
			return NewConfigurationError(fmt.Sprintf("unsupported database driver %q", c.Database.Driver), nil)
		}
		if c.Database.DSN == "" {
			return NewConfigurationError("database.dsn is required for the sql adapter", nil)
		}
	case AdapterLangGraph:
		if c.LangGraph.BaseURL == "" {
			return NewConfigurationError("langgraph.baseUrl is required for the langgraph adapter", nil)
		}
	case "":
		return NewConfigurationError("adapter is required", nil)
	default:
		return NewConfigurationError(fmt.Sprintf("unknown adapter %q", c.Adapter), nil)
	}

	if c.List.OrderDirection != "" {
		switch SortDirection(c.List.OrderDirection) {
		case SortAsc, SortDesc:
		default:
			return NewConfigurationError(fmt.Sprintf("invalid list.orderDirection %q", c.List.OrderDirection), nil)
		}
	}

	return nil
}
