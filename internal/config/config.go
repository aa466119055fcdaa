// Package config provides Viper-based configuration loading for the loot engine.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/lootable/internal/game/currency"
	"github.com/cory-johannsen/lootable/internal/game/pocket"
	"github.com/cory-johannsen/lootable/internal/game/randomloot"
	"github.com/cory-johannsen/lootable/internal/game/rules"
	"github.com/cory-johannsen/lootable/internal/game/treasure"
)

// EnvPrefix prefixes every environment override, e.g. LOOTABLE_REDIS_ADDR.
const EnvPrefix = "LOOTABLE"

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// Debug forces the debug level regardless of Level.
	Debug bool `mapstructure:"debug"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	// HealthInterval and HealthTimeout pace the daemon's background ping.
	HealthInterval time.Duration `mapstructure:"health_interval"`
	HealthTimeout  time.Duration `mapstructure:"health_timeout"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// RedisConfig holds the session store and event bus connection.
type RedisConfig struct {
	Addr          string        `mapstructure:"addr"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	EventsChannel string        `mapstructure:"events_channel"`
	ChatChannel   string        `mapstructure:"chat_channel"`
}

// CatalogConfig selects the item catalogs.
type CatalogConfig struct {
	SRDEnabled  bool          `mapstructure:"srd_enabled"`
	SRDBaseURL  string        `mapstructure:"srd_base_url"`
	SRDTimeout  time.Duration `mapstructure:"srd_timeout"`
	SRDCacheTTL time.Duration `mapstructure:"srd_cache_ttl"`
	// ItemsDir holds YAML world item files. Empty disables file loading.
	ItemsDir string `mapstructure:"items_dir"`
}

// ScriptingConfig locates roll tables.
type ScriptingConfig struct {
	TablesDir        string `mapstructure:"tables_dir"`
	ScriptsDir       string `mapstructure:"scripts_dir"`
	InstructionLimit int    `mapstructure:"instruction_limit"`
}

// PocketChangeConfig mirrors the pocket change options. Chances are 0–1
// fractions; their sum is not checked.
type PocketChangeConfig struct {
	Disabled             bool    `mapstructure:"disabled"`
	PerCoinAmount        float64 `mapstructure:"per_coin_amount"`
	MinCoinAmount        int     `mapstructure:"min_coin_amount"`
	IgnoreExistingCoin   bool    `mapstructure:"ignore_existing_coin"`
	AllowedCreatureTypes string  `mapstructure:"allowed_creature_types"`
	NoCoinChance         float64 `mapstructure:"no_coin_chance"`
	DoubleCoinChance     float64 `mapstructure:"double_coin_chance"`
	TripleCoinChance     float64 `mapstructure:"triple_coin_chance"`
	HalfGoldChance       float64 `mapstructure:"half_gold_chance"`
	TenPercentGoldChance float64 `mapstructure:"ten_percent_gold_chance"`
	HideChatMessage      bool    `mapstructure:"hide_chat_message"`
}

// Settings converts c into the pocket change pass settings.
func (c PocketChangeConfig) Settings() pocket.Settings {
	return pocket.Settings{
		Disabled:       c.Disabled,
		PerCoin:        c.PerCoinAmount,
		MinCoin:        c.MinCoinAmount,
		IgnoreExisting: c.IgnoreExistingCoin,
		AllowedTypes:   c.AllowedCreatureTypes,
		Profile: currency.ProfileFromFractions(
			c.NoCoinChance, c.DoubleCoinChance, c.TripleCoinChance,
			c.HalfGoldChance, c.TenPercentGoldChance,
		),
		HideChat: c.HideChatMessage,
	}
}

// RandomLootConfig mirrors the random loot options.
type RandomLootConfig struct {
	Disabled        bool   `mapstructure:"disabled"`
	Mode            string `mapstructure:"mode"`
	HideHUD         bool   `mapstructure:"hide_hud"`
	HideChatMessage bool   `mapstructure:"hide_chat_message"`
	ShowPrompt      bool   `mapstructure:"show_prompt"`
	// RulesFile is a YAML rule table. Empty selects the built-in rules.
	RulesFile string `mapstructure:"rules_file"`
}

// Settings converts c into random loot settings, loading the rule table.
//
// Postcondition: returns an error if the mode is unknown or the rules file
// cannot be loaded.
func (c RandomLootConfig) Settings() (randomloot.Settings, error) {
	mode, err := randomloot.ParseMode(c.Mode)
	if err != nil {
		return randomloot.Settings{}, err
	}
	list := rules.DefaultRules()
	if c.RulesFile != "" {
		if list, err = rules.LoadRulesFile(c.RulesFile); err != nil {
			return randomloot.Settings{}, fmt.Errorf("loading random_loot.rules_file: %w", err)
		}
	}
	return randomloot.Settings{
		Disabled:   c.Disabled,
		Mode:       mode,
		HideHUD:    c.HideHUD,
		HideChat:   c.HideChatMessage,
		ShowPrompt: c.ShowPrompt,
		Rules:      list,
	}, nil
}

// TreasurePileConfig mirrors the treasure pile options.
type TreasurePileConfig struct {
	Disabled              bool     `mapstructure:"disabled"`
	DefaultTables         []string `mapstructure:"default_tables"`
	GenerationLimit       int      `mapstructure:"generation_limit"`
	ShowAllTables         bool     `mapstructure:"show_all_tables"`
	DefaultCoinPercentage int      `mapstructure:"default_coin_percentage"`
}

// Settings converts c into treasure pile settings.
func (c TreasurePileConfig) Settings() treasure.Settings {
	return treasure.Settings{
		Disabled:        c.Disabled,
		DefaultSources:  append([]string(nil), c.DefaultTables...),
		GenerationLimit: c.GenerationLimit,
		ShowAll:         c.ShowAllTables,
		CoinPercentage:  float64(c.DefaultCoinPercentage),
	}
}

// Config is the top-level application configuration.
type Config struct {
	Logging      LoggingConfig      `mapstructure:"logging"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Catalog      CatalogConfig      `mapstructure:"catalog"`
	Scripting    ScriptingConfig    `mapstructure:"scripting"`
	PocketChange PocketChangeConfig `mapstructure:"pocket_change"`
	RandomLoot   RandomLootConfig   `mapstructure:"random_loot"`
	TreasurePile TreasurePileConfig `mapstructure:"treasure_pile"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string
	for _, err := range []error{
		validateLogging(c.Logging),
		c.Database.Validate(),
		validateRedis(c.Redis),
		validateCatalog(c.Catalog),
		validateScripting(c.Scripting),
		validatePocketChange(c.PocketChange),
		validateRandomLoot(c.RandomLoot),
		validateTreasurePile(c.TreasurePile),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func joinErrs(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%s", strings.Join(errs, "; "))
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Validate checks the database section on its own.
func (d DatabaseConfig) Validate() error { return validateDatabase(d) }

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if d.HealthInterval <= 0 {
		errs = append(errs, fmt.Sprintf("database.health_interval must be > 0, got %s", d.HealthInterval))
	}
	if d.HealthTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("database.health_timeout must be > 0, got %s", d.HealthTimeout))
	}
	return joinErrs(errs)
}

func validateRedis(r RedisConfig) error {
	var errs []string
	if r.Addr == "" {
		errs = append(errs, "redis.addr must not be empty")
	}
	if r.SessionTTL <= 0 {
		errs = append(errs, "redis.session_ttl must be positive")
	}
	if r.EventsChannel == "" {
		errs = append(errs, "redis.events_channel must not be empty")
	}
	if r.ChatChannel == "" {
		errs = append(errs, "redis.chat_channel must not be empty")
	}
	return joinErrs(errs)
}

func validateCatalog(c CatalogConfig) error {
	var errs []string
	if c.SRDTimeout < 0 {
		errs = append(errs, "catalog.srd_timeout must not be negative")
	}
	if c.SRDCacheTTL < 0 {
		errs = append(errs, "catalog.srd_cache_ttl must not be negative")
	}
	return joinErrs(errs)
}

func validateScripting(s ScriptingConfig) error {
	if s.InstructionLimit < 1 {
		return fmt.Errorf("scripting.instruction_limit must be >= 1, got %d", s.InstructionLimit)
	}
	return nil
}

func validatePocketChange(p PocketChangeConfig) error {
	var errs []string
	if p.PerCoinAmount < 0.1 || p.PerCoinAmount > 3 {
		errs = append(errs, fmt.Sprintf("pocket_change.per_coin_amount must be 0.1-3, got %g", p.PerCoinAmount))
	}
	if p.MinCoinAmount < 0 {
		errs = append(errs, fmt.Sprintf("pocket_change.min_coin_amount must be >= 0, got %d", p.MinCoinAmount))
	}
	chances := map[string]float64{
		"no_coin_chance":          p.NoCoinChance,
		"double_coin_chance":      p.DoubleCoinChance,
		"triple_coin_chance":      p.TripleCoinChance,
		"half_gold_chance":        p.HalfGoldChance,
		"ten_percent_gold_chance": p.TenPercentGoldChance,
	}
	for _, name := range []string{"no_coin_chance", "double_coin_chance", "triple_coin_chance", "half_gold_chance", "ten_percent_gold_chance"} {
		if v := chances[name]; v < 0 || v > 1 {
			errs = append(errs, fmt.Sprintf("pocket_change.%s must be 0-1, got %g", name, v))
		}
	}
	return joinErrs(errs)
}

func validateRandomLoot(r RandomLootConfig) error {
	if _, err := randomloot.ParseMode(r.Mode); err != nil {
		return fmt.Errorf("random_loot.mode: %w", err)
	}
	return nil
}

func validateTreasurePile(t TreasurePileConfig) error {
	var errs []string
	if t.GenerationLimit < 1 {
		errs = append(errs, fmt.Sprintf("treasure_pile.generation_limit must be >= 1, got %d", t.GenerationLimit))
	}
	if t.DefaultCoinPercentage < 0 || t.DefaultCoinPercentage > 100 {
		errs = append(errs, fmt.Sprintf("treasure_pile.default_coin_percentage must be 0-100, got %d", t.DefaultCoinPercentage))
	}
	return joinErrs(errs)
}

// ErrNoConfigFile is returned by Load when path is empty.
var ErrNoConfigFile = errors.New("config: no configuration file given")

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, ErrNoConfigFile
	}
	v := NewViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// NewViper returns a Viper instance with defaults and LOOTABLE_ environment
// overrides applied but no file read.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.debug", false)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "lootable")
	v.SetDefault("database.password", "lootable")
	v.SetDefault("database.name", "lootable")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.health_interval", "30s")
	v.SetDefault("database.health_timeout", "5s")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.session_ttl", "2h")
	v.SetDefault("redis.events_channel", "lootable:events")
	v.SetDefault("redis.chat_channel", "lootable:chat")

	v.SetDefault("catalog.srd_enabled", false)
	v.SetDefault("catalog.srd_base_url", "https://www.dnd5eapi.co/api/2014/")
	v.SetDefault("catalog.srd_timeout", "30s")
	v.SetDefault("catalog.srd_cache_ttl", "24h")
	v.SetDefault("catalog.items_dir", "")

	v.SetDefault("scripting.tables_dir", "content/tables")
	v.SetDefault("scripting.scripts_dir", "content/scripts")
	v.SetDefault("scripting.instruction_limit", 100000)

	pc := pocket.DefaultSettings()
	v.SetDefault("pocket_change.disabled", pc.Disabled)
	v.SetDefault("pocket_change.per_coin_amount", pc.PerCoin)
	v.SetDefault("pocket_change.min_coin_amount", pc.MinCoin)
	v.SetDefault("pocket_change.ignore_existing_coin", pc.IgnoreExisting)
	v.SetDefault("pocket_change.allowed_creature_types", pc.AllowedTypes)
	v.SetDefault("pocket_change.no_coin_chance", 0.0)
	v.SetDefault("pocket_change.double_coin_chance", 0.1)
	v.SetDefault("pocket_change.triple_coin_chance", 0.05)
	v.SetDefault("pocket_change.half_gold_chance", 0.1)
	v.SetDefault("pocket_change.ten_percent_gold_chance", 0.05)
	v.SetDefault("pocket_change.hide_chat_message", false)

	v.SetDefault("random_loot.disabled", false)
	v.SetDefault("random_loot.mode", string(randomloot.ModeOnCreate))
	v.SetDefault("random_loot.hide_hud", false)
	v.SetDefault("random_loot.hide_chat_message", false)
	v.SetDefault("random_loot.show_prompt", false)
	v.SetDefault("random_loot.rules_file", "")

	tp := treasure.DefaultSettings()
	v.SetDefault("treasure_pile.disabled", false)
	v.SetDefault("treasure_pile.default_tables", []string{})
	v.SetDefault("treasure_pile.generation_limit", tp.GenerationLimit)
	v.SetDefault("treasure_pile.show_all_tables", false)
	v.SetDefault("treasure_pile.default_coin_percentage", int(tp.CoinPercentage))
}
