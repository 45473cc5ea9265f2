// Package config loads run settings from a YAML file, a .env file and
// NUTRITION_PLAN_* environment variables, in increasing precedence.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"mcp-nutrition-plan/internal/tabular"
)

const (
	ModeSolve = "solve"
	ModeServe = "serve"
)

const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NUTRITION_PLAN_"

type Config struct {
	Mode      string             `yaml:"mode"`
	Inputs    tabular.InputPaths `yaml:"inputs"`
	Output    string             `yaml:"output"`
	Template  string             `yaml:"template"`
	DBPath    string             `yaml:"db_path"`
	Transport string             `yaml:"transport"`
	Host      string             `yaml:"host"`
	Port      int                `yaml:"port"`
	Workers   int                `yaml:"workers"`
	Import    bool               `yaml:"import"`
	FromDB    bool               `yaml:"from_db"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// LoadFile loads and parses a YAML config file from the given path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML data into a Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Mode == "" {
		cfg.Mode = ModeSolve
	}
	if cfg.Inputs.Clients == "" {
		cfg.Inputs.Clients = "clients.csv"
	}
	if cfg.Inputs.MealSlots == "" {
		cfg.Inputs.MealSlots = "client_meals.csv"
	}
	if cfg.Inputs.Ingredients == "" {
		cfg.Inputs.Ingredients = "meal_ingredients.csv"
	}
	if cfg.Output == "" {
		cfg.Output = "nutrition-plans.csv"
	}
	if cfg.Transport == "" {
		cfg.Transport = TransportHTTP
	}
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.Port == 0 {
		cfg.Port = 8012
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Mode != ModeSolve && c.Mode != ModeServe {
		return fmt.Errorf("invalid mode %q: must be %s or %s", c.Mode, ModeSolve, ModeServe)
	}
	if c.Transport != TransportHTTP && c.Transport != TransportStdio {
		return fmt.Errorf("invalid transport %q: must be %s or %s", c.Transport, TransportHTTP, TransportStdio)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Import && c.DBPath == "" {
		return fmt.Errorf("import requires a database path")
	}
	if c.FromDB && c.DBPath == "" {
		return fmt.Errorf("from_db requires a database path")
	}
	if c.FromDB && c.Import {
		return fmt.Errorf("import and from_db cannot be combined: stored inputs are read instead of the CSV files")
	}
	return nil
}

// Load reads the optional YAML file at path, then the .env file in the
// working directory, then applies NUTRITION_PLAN_* overrides. Callers apply
// flag overrides and call Validate.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Failed to load .env file: %v", err)
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := func(name string, dst *string) {
		if v := strings.TrimSpace(getenv(EnvPrefix + name)); v != "" {
			*dst = v
		}
	}
	str("MODE", &c.Mode)
	str("CLIENTS", &c.Inputs.Clients)
	str("MEAL_SLOTS", &c.Inputs.MealSlots)
	str("INGREDIENTS", &c.Inputs.Ingredients)
	str("OUTPUT", &c.Output)
	str("TEMPLATE", &c.Template)
	str("DB_PATH", &c.DBPath)
	str("TRANSPORT", &c.Transport)
	str("HOST", &c.Host)

	for name, dst := range map[string]*int{"PORT": &c.Port, "WORKERS": &c.Workers} {
		v := strings.TrimSpace(getenv(EnvPrefix + name))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s %q: %w", EnvPrefix, name, v, err)
		}
		*dst = n
	}

	for name, dst := range map[string]*bool{"IMPORT": &c.Import, "FROM_DB": &c.FromDB} {
		v := strings.TrimSpace(getenv(EnvPrefix + name))
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s %q: %w", EnvPrefix, name, v, err)
		}
		*dst = b
	}

	return nil
}
