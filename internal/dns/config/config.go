package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/haukened/rr-hostblock/internal/dns/domain"
	"github.com/haukened/rr-hostblock/internal/dns/repos/blocklist/publicsuffix"
	"github.com/haukened/rr-hostblock/internal/dns/services/refresher"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "HOSTBLOCK_"

// AppConfig is the complete runtime configuration.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env   string      `koanf:"env" validate:"required,oneof=dev prod"`
	Log   LogConfig   `koanf:"log"`
	Hosts HostsConfig `koanf:"hosts"`
	Fetch FetchConfig `koanf:"fetch"`
	Cache CacheConfig `koanf:"cache"`
	Bloom BloomConfig `koanf:"bloom"`
	Store StoreConfig `koanf:"store"`
	Admin AdminConfig `koanf:"admin"`
}

type LogConfig struct {
	// Level controls log verbosity: "debug", "info", "warn", or "error".
	Level string `koanf:"level" validate:"required,oneof=debug info warn error"`
}

// HostsConfig drives the decision set.
type HostsConfig struct {
	Enabled           bool `koanf:"enabled"`
	ExtendedFiltering bool `koanf:"extended_filtering"`
	// MaxClimb bounds how many ancestors a lookup inspects.
	MaxClimb        int           `koanf:"max_climb" validate:"gte=1,lte=64"`
	RefreshInterval time.Duration `koanf:"refresh_interval" validate:"gte=0"`
	// Watch rebuilds when a local list file changes.
	Watch bool `koanf:"watch"`
	// SuffixTable replaces the built-in public suffix table with the
	// file at this path, one suffix per line.
	SuffixTable string       `koanf:"suffix_table" validate:"omitempty,file"`
	Items       []ItemConfig `koanf:"items" validate:"dive"`
}

// ItemConfig is one rule source in list order.
type ItemConfig struct {
	Title    string `koanf:"title"`
	Location string `koanf:"location" validate:"required"`
	State    string `koanf:"state" validate:"required,item_state"`
}

type FetchConfig struct {
	Timeout   time.Duration `koanf:"timeout" validate:"gt=0"`
	Rate      float64       `koanf:"rate" validate:"gte=0"`
	Burst     int           `koanf:"burst" validate:"gte=1"`
	UserAgent string        `koanf:"user_agent" validate:"required"`
}

type CacheConfig struct {
	// Size of the decision cache; 0 disables it.
	Size int `koanf:"size" validate:"gte=0"`
}

type BloomConfig struct {
	Enabled bool    `koanf:"enabled"`
	FPRate  float64 `koanf:"fp_rate" validate:"gt=0,lt=1"`
}

type StoreConfig struct {
	// Path of the snapshot database; empty disables persistence.
	Path string `koanf:"path"`
}

type AdminConfig struct {
	// Addr is the admin HTTP listen address; empty disables the API.
	Addr string `koanf:"addr" validate:"omitempty,hostname_port"`
}

// DEFAULT_APP_CONFIG holds the values used for anything not set by a
// config file or the environment.
var DEFAULT_APP_CONFIG = AppConfig{
	Env: "prod",
	Log: LogConfig{Level: "info"},
	Hosts: HostsConfig{
		Enabled:           true,
		ExtendedFiltering: true,
		MaxClimb:          10,
		RefreshInterval:   24 * time.Hour,
		Watch:             true,
	},
	Fetch: FetchConfig{
		Timeout:   30 * time.Second,
		Rate:      2,
		Burst:     1,
		UserAgent: "rr-hostblock",
	},
	Cache: CacheConfig{Size: 10000},
	Bloom: BloomConfig{Enabled: true, FPRate: 0.01},
	Store: StoreConfig{Path: "/var/lib/rr-hostblock/snapshot.db"},
	Admin: AdminConfig{Addr: "127.0.0.1:8053"},
}

// validItemState accepts the states domain.ParseItemState understands.
func validItemState(fl validator.FieldLevel) bool {
	_, err := domain.ParseItemState(fl.Field().String())
	return err == nil
}

// envKey maps HOSTBLOCK_HOSTS_MAX_CLIMB to hosts.max_climb. Sections are
// single words, so only the first underscore separates levels.
func envKey(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	section, rest, ok := strings.Cut(key, "_")
	if !ok || section == "env" {
		return key
	}
	return section + "." + rest
}

// envLoader loads HOSTBLOCK_ variables and can be mocked in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return envKey(key), strings.TrimSpace(value)
		},
	}), nil)
}

// defaultLoader loads DEFAULT_APP_CONFIG into k.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// fileLoader loads path, picking the parser from its extension.
var fileLoader = func(k *koanf.Koanf, path string) error {
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	case ".toml":
		parser = toml.Parser()
	default:
		return fmt.Errorf("unsupported config file extension: %s", path)
	}
	return k.Load(file.Provider(path), parser)
}

// registerValidation registers the custom "item_state" tag.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("item_state", validItemState)
}

// Load builds the configuration from defaults, the optional file at path
// and the environment, in increasing precedence, and validates it.
func Load(path string) (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}
	if path != "" {
		if err := fileLoader(k, path); err != nil {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}
	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidation(validate); err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return &cfg, nil
}

// Items converts the configured sources to domain items, keeping order.
func (c *AppConfig) Items() ([]domain.Item, error) {
	items := make([]domain.Item, 0, len(c.Hosts.Items))
	for i, ic := range c.Hosts.Items {
		state, err := domain.ParseItemState(ic.State)
		if err != nil {
			return nil, fmt.Errorf("hosts.items[%d]: %w", i, err)
		}
		it, err := domain.NewItem(ic.Title, ic.Location, state)
		if err != nil {
			return nil, fmt.Errorf("hosts.items[%d]: %w", i, err)
		}
		items = append(items, it)
	}
	return items, nil
}

// RebuildRequest returns the rebuild request the configuration describes.
func (c *AppConfig) RebuildRequest() (domain.RebuildRequest, error) {
	items, err := c.Items()
	if err != nil {
		return domain.RebuildRequest{}, err
	}
	return domain.RebuildRequest{
		Items:             items,
		HostsEnabled:      c.Hosts.Enabled,
		ExtendedFiltering: c.Hosts.ExtendedFiltering,
	}, nil
}

// Suffixes loads the configured public suffix table. It returns nil, and
// expansion uses the built-in table, when hosts.suffix_table is unset.
func (c *AppConfig) Suffixes() (*publicsuffix.Table, error) {
	if c.Hosts.SuffixTable == "" {
		return nil, nil
	}
	tbl, err := publicsuffix.Load(c.Hosts.SuffixTable)
	if err != nil {
		return nil, fmt.Errorf("hosts.suffix_table: %w", err)
	}
	return tbl, nil
}

// RefresherConfig returns the refresh schedule and, when watching is on,
// the local file items to watch. Ignored items are not watched.
func (c *AppConfig) RefresherConfig(isFile func(location string) (string, bool)) refresher.Config {
	rc := refresher.Config{Interval: c.Hosts.RefreshInterval}
	if !c.Hosts.Watch || isFile == nil {
		return rc
	}
	for _, ic := range c.Hosts.Items {
		if state, err := domain.ParseItemState(ic.State); err != nil || state == domain.ItemIgnore {
			continue
		}
		if path, ok := isFile(ic.Location); ok {
			rc.WatchPaths = append(rc.WatchPaths, path)
		}
	}
	return rc
}
