package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/bryanwahyu/truthlens/internal/domain/assessment"
)

const envPrefix = "TRUTHLENS_"

type Config struct {
	Server struct {
		Port           int               `yaml:"port"`
		APIKeys        map[string]string `yaml:"apiKeys"`
		AllowedOrigins []string          `yaml:"allowedOrigins"`
		RateLimit      struct {
			Capacity   int `yaml:"capacity"`
			RefillRate int `yaml:"refillRate"`
		} `yaml:"rateLimit"`
	} `yaml:"server"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`

	Providers struct {
		Timeout time.Duration         `yaml:"timeout"`
		Catalog []assessment.Provider `yaml:"catalog"`
	} `yaml:"providers"`

	// Credentials maps a credential key (GROQ, HUGGINGFACE, ...) to its API key.
	Credentials map[string]string `yaml:"credentials"`

	Research struct {
		ScrapeURL  string `yaml:"scrapeURL"`
		ScrapeKey  string `yaml:"scrapeKey"`
		MaxSources int    `yaml:"maxSources"`
	} `yaml:"research"`

	Ledger struct {
		Driver   string `yaml:"driver"` // mysql | postgres | "" (disabled)
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"ledger"`
}

// Load reads the YAML file at path, a .env file next to the process if one
// exists, then applies defaults and environment overrides. A missing config
// file is not an error: the built-in catalog and placeholder credentials are
// used.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	cfg.applyDefaults()
	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RateLimit.Capacity == 0 {
		c.Server.RateLimit.Capacity = 30
	}
	if c.Server.RateLimit.RefillRate == 0 {
		c.Server.RateLimit.RefillRate = 1
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Providers.Timeout == 0 {
		c.Providers.Timeout = 30 * time.Second
	}
	if len(c.Providers.Catalog) == 0 {
		c.Providers.Catalog = DefaultCatalog()
	}
	if c.Credentials == nil {
		c.Credentials = make(map[string]string)
	}
	for _, p := range c.Providers.Catalog {
		if _, ok := c.Credentials[p.CredentialKey]; !ok {
			c.Credentials[p.CredentialKey] = assessment.Placeholder(p.CredentialKey)
		}
	}
	if c.Research.ScrapeURL == "" {
		c.Research.ScrapeURL = "https://broadfield-dev-search-tool.hf.space/scrape"
	}
	if c.Research.MaxSources == 0 {
		c.Research.MaxSources = 5
	}
}

// applyEnv lets TRUTHLENS_<KEY>_API_KEY override a credential, so keys can
// live in the environment or .env instead of the YAML file.
func (c *Config) applyEnv(getenv func(string) string) {
	for key := range c.Credentials {
		if v := strings.TrimSpace(getenv(envPrefix + key + "_API_KEY")); v != "" {
			c.Credentials[key] = v
		}
	}
	if v := strings.TrimSpace(getenv(envPrefix + "SCRAPE_API_KEY")); v != "" {
		c.Research.ScrapeKey = v
	}
	if v := strings.TrimSpace(getenv(envPrefix + "LEDGER_PASSWORD")); v != "" {
		c.Ledger.Password = v
	}
}

// Validate checks the provider catalog is usable.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Providers.Catalog))
	for _, p := range c.Providers.Catalog {
		if p.ID == "" {
			return fmt.Errorf("providers.catalog: entry without id")
		}
		if seen[p.ID] {
			return fmt.Errorf("providers.catalog: duplicate id %q", p.ID)
		}
		seen[p.ID] = true
		switch p.Variant {
		case assessment.VariantChat, assessment.VariantCohere, assessment.VariantGoogle,
			assessment.VariantHFLanguage, assessment.VariantHFZeroShot:
		default:
			return fmt.Errorf("providers.catalog[%s]: unknown variant %q", p.ID, p.Variant)
		}
		if p.Endpoint == "" || p.CredentialKey == "" {
			return fmt.Errorf("providers.catalog[%s]: endpoint and credential are required", p.ID)
		}
	}
	switch c.Ledger.Driver {
	case "", "mysql", "postgres":
	default:
		return fmt.Errorf("ledger.driver: unsupported driver %q", c.Ledger.Driver)
	}
	return nil
}

// MySQLDSN builds the DSN for the MySQL ledger
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Ledger.User,
		c.Ledger.Password,
		c.Ledger.Host,
		c.Ledger.Port,
		c.Ledger.Name,
	)
}

// PostgresDSN builds the DSN for the Postgres ledger
func (c *Config) PostgresDSN() string {
	ssl := c.Ledger.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Ledger.Host,
		c.Ledger.Port,
		c.Ledger.User,
		c.Ledger.Password,
		c.Ledger.Name,
		ssl,
	)
}
