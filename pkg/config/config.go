package config

import (
	"bytes"
	stdjson "encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	xdgAppName = "taskpilot"
	configFile = "config.json"
	envPrefix  = "TASKPILOT_"
)

type Config struct {
	ServerURL  string        `koanf:"server_url"  validate:"required,url"`
	CSRFToken  string        `koanf:"csrf_token"`
	Strategy   string        `koanf:"strategy"`
	TopN       int           `koanf:"top_n"       validate:"min=1"`
	Timeout    time.Duration `koanf:"timeout"     validate:"gt=0"`
	Calendar   string        `koanf:"calendar"`
	GoogleList string        `koanf:"google_list"`
}

func Default() *Config {
	return &Config{
		ServerURL: "http://localhost:8000",
		Strategy:  "smart_balance",
		TopN:      3,
		Timeout:   30 * time.Second,
		Calendar:  "Tasks",
	}
}

func GetConfigPath() (string, error) {
	xdgHome, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(xdgHome, ".config", xdgAppName, configFile), nil
}

// Load reads defaults, then the config file, then TASKPILOT_* environment
// variables. A missing file is not an error.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

func LoadFrom(path string) (*Config, error) {
	k, err := load(path)
	if err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return strings.ToLower(strings.TrimPrefix(key, envPrefix)), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}
	return unmarshal(k)
}

// Keys lists the settable configuration keys.
func Keys() []string {
	k := koanf.New(".")
	_ = k.Load(structs.Provider(Default(), "koanf"), nil)
	keys := k.Keys()
	sort.Strings(keys)
	return keys
}

// Set changes one key in the config file at path and saves it. Environment
// overrides are not written back.
func Set(path, key, value string) (*Config, error) {
	if !knownKey(key) {
		return nil, fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
	k, err := load(path)
	if err != nil {
		return nil, err
	}
	if err := k.Set(key, value); err != nil {
		return nil, fmt.Errorf("failed to set %s: %w", key, err)
	}
	cfg, err := unmarshal(k)
	if err != nil {
		return nil, err
	}
	if err := SaveTo(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

// Map returns the config as it is written to the file.
func (c *Config) Map() (map[string]any, error) {
	k, err := c.koanf()
	if err != nil {
		return nil, err
	}
	return k.All(), nil
}

func (c *Config) koanf() (*koanf.Koanf, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(c, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := k.Set("timeout", c.Timeout.String()); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return k, nil
}

func SaveTo(path string, cfg *Config) error {
	k, err := cfg.koanf()
	if err != nil {
		return err
	}
	raw, err := k.Marshal(json.Parser())
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	var out bytes.Buffer
	if err := stdjson.Indent(&out, raw, "", "  "); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	out.WriteByte('\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, out.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func load(path string) (*koanf.Koanf, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return k, nil
		}
		return nil, err
	}
	if err := k.Load(file.Provider(path), json.Parser()); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return k, nil
}

var validate = validator.New()

func unmarshal(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func knownKey(key string) bool {
	for _, k := range Keys() {
		if k == key {
			return true
		}
	}
	return false
}
