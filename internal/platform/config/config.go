package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Driver identifica el backend de almacenamiento local.
type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

type Config struct {
	App string `yaml:"app"`

	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`

	Remote struct {
		BaseURL     string        `yaml:"base_url"`
		Timeout     time.Duration `yaml:"timeout"`
		HealthPaths []string      `yaml:"health_paths"`
	} `yaml:"remote"`

	Store struct {
		Driver Driver `yaml:"driver"`
		Path   string `yaml:"path"` // sqlite
		DSN    string `yaml:"dsn"`  // postgres
	} `yaml:"store"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Analytics struct {
		DefaultDays int `yaml:"default_days"`
	} `yaml:"analytics"`
}

func Default() Config {
	var c Config
	c.App = "pawdentify"
	c.HTTP.Addr = ":8080"
	c.Remote.BaseURL = "http://localhost:8000"
	c.Remote.Timeout = 5 * time.Second
	c.Remote.HealthPaths = []string{"/health", "/api/health"}
	c.Store.Driver = DriverSQLite
	c.Store.Path = "pawdentify.db"
	c.Log.Level = "info"
	c.Log.Format = "text"
	c.Analytics.DefaultDays = 30
	return c
}

// Load arma la configuración en capas: defaults -> archivo YAML (opcional) -> .env -> variables de entorno.
// Un path vacío o inexistente no es error.
func Load(path string) (Config, error) {
	c := Default()

	if p := strings.TrimSpace(path); p != "" {
		raw, err := os.ReadFile(p)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, &c); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", p, err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("config: read %s: %w", p, err)
		}
	}

	// .env es opcional (modo dev)
	_ = godotenv.Load()

	if err := applyEnv(&c); err != nil {
		return Config{}, err
	}
	return c, c.Validate()
}

func applyEnv(c *Config) error {
	if v := env("APP_NAME"); v != "" {
		c.App = v
	}
	if v := env("PORT"); v != "" {
		c.HTTP.Addr = ":" + v
	}
	if v := env("PAWDENTIFY_API_URL"); v != "" {
		c.Remote.BaseURL = v
	}
	if v := env("REMOTE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: REMOTE_TIMEOUT: %w", err)
		}
		c.Remote.Timeout = d
	}
	if v := env("STORE_DRIVER"); v != "" {
		c.Store.Driver = Driver(strings.ToLower(v))
	}
	if v := env("SQLITE_PATH"); v != "" {
		c.Store.Path = v
	}
	// DB_DSN: si viene, se asume postgres salvo driver explícito.
	if v := env("DB_DSN"); v != "" {
		c.Store.DSN = v
		if env("STORE_DRIVER") == "" {
			c.Store.Driver = DriverPostgres
		}
	}
	if v := env("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := env("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := env("ANALYTICS_DEFAULT_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: ANALYTICS_DEFAULT_DAYS: %w", err)
		}
		c.Analytics.DefaultDays = n
	}
	return nil
}

func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if strings.TrimSpace(c.Store.Path) == "" {
			return errors.New("config: sqlite store requires store.path")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.Store.DSN) == "" {
			return errors.New("config: postgres store requires store.dsn")
		}
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if c.Analytics.DefaultDays <= 0 {
		return errors.New("config: analytics.default_days must be positive")
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
