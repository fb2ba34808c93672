// Package config loads and saves the brightctl TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"

	"brightctl/internal/syncutil"
)

const (
	SchemaVersion = 1
	AppName       = "brightctl"
	CfgEnv        = "BRIGHTCTL_CFG"
	CfgFile       = "config.toml"
	LogFile       = "brightctl.log"
)

// ErrSchemaMismatch is returned when the file was written by an
// incompatible version.
var ErrSchemaMismatch = errors.New("config: schema version mismatch")

type Values struct {
	Discovery    Discovery `toml:"discovery"`
	DDC          DDC       `toml:"ddc"`
	Control      Control   `toml:"control"`
	Adapters     Adapters  `toml:"adapters"`
	ConfigSchema int       `toml:"config_schema"`
	DebugLogging bool      `toml:"debug_logging"`
}

type Discovery struct {
	// BusConnectors pins bus numbers to connector names, e.g. "7" = "card1-DP-1".
	// Consulted only when neither the sysfs link nor EDID identify the bus.
	BusConnectors map[string]string `toml:"bus_connectors,omitempty" validate:"dive,keys,numeric,endkeys,required"`
	DevDir        string            `toml:"dev_dir" validate:"required"`
	SysfsDRM      string            `toml:"sysfs_drm" validate:"required"`
	MaxBus        int               `toml:"max_bus" validate:"gte=0,lte=255"`
	ReadBusEDID   bool              `toml:"read_bus_edid"`
}

type DDC struct {
	Backend        string `toml:"backend" validate:"oneof=auto i2c ddcutil"`
	Retries        int    `toml:"retries" validate:"gte=0,lte=10"`
	RetryBackoffMS int    `toml:"retry_backoff_ms" validate:"gte=0,lte=5000"`
}

type Control struct {
	Prefer         string `toml:"prefer" validate:"oneof=auto ddc xrandr"`
	CooldownMS     int    `toml:"cooldown_ms" validate:"gte=0,lte=5000"`
	MaxConcurrency int    `toml:"max_concurrency" validate:"gte=1,lte=64"`
}

type Adapters struct {
	PCIIDs string `toml:"pci_ids,omitempty"` // CSV replacing the built-in table
	Lspci  bool   `toml:"lspci"`             // ask lspci for adapter names
}

var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	Discovery: Discovery{
		MaxBus:      10,
		DevDir:      "/dev",
		SysfsDRM:    "/sys/class/drm",
		ReadBusEDID: true,
	},
	DDC: DDC{
		Backend:        "auto",
		Retries:        2,
		RetryBackoffMS: 50,
	},
	Control: Control{
		Prefer:         "auto",
		CooldownMS:     150,
		MaxConcurrency: 4,
	},
	Adapters: Adapters{
		Lspci: true,
	},
}

// Dir is the default configuration directory.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// StateDir holds logs.
func StateDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}

type Instance struct {
	cfgPath  string
	vals     Values
	defaults Values
	mu       syncutil.RWMutex
}

// NewConfig resolves the config path (cfgPath, then BRIGHTCTL_CFG, then
// <configDir>/config.toml), writes defaults if the file does not exist and
// loads it.
//
//nolint:gocritic // defaults copied on purpose
func NewConfig(configDir, cfgPath string, defaults Values) (*Instance, error) {
	if cfgPath == "" {
		cfgPath = os.Getenv(CfgEnv)
		log.Debug().Msgf("env config path: %s", cfgPath)
	}
	if cfgPath == "" {
		cfgPath = filepath.Join(configDir, CfgFile)
	}

	cfg := &Instance{
		cfgPath:  cfgPath,
		vals:     defaults,
		defaults: defaults,
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		log.Info().Str("path", cfgPath).Msg("saving new default config to disk")
		if err := os.MkdirAll(filepath.Dir(cfgPath), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := cfg.Save(); err != nil {
			return nil, err
		}
	}

	if err := cfg.Load(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path is the file the instance reads and writes.
func (c *Instance) Path() string {
	return c.cfgPath
}

// Load reads the file over the defaults and validates the result. On
// error the previous values are kept.
func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	newVals := c.defaults
	newVals.Discovery.BusConnectors = nil
	if err := toml.Unmarshal(data, &newVals); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if newVals.ConfigSchema != SchemaVersion {
		log.Error().Msgf("schema version mismatch: got %d, expecting %d",
			newVals.ConfigSchema, SchemaVersion)
		return ErrSchemaMismatch
	}
	if err := Validate(&newVals); err != nil {
		return err
	}

	c.vals = newVals
	return nil
}

// Save writes the current values.
func (c *Instance) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.vals.ConfigSchema = SchemaVersion
	data, err := toml.Marshal(&c.vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(c.cfgPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks ranges and enums.
func Validate(v *Values) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validation failed: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// Values returns a copy of the loaded values.
func (c *Instance) Values() Values {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

func (c *Instance) SetDebugLogging(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.DebugLogging = enabled
}

// SetPrefer changes the preferred control method.
func (c *Instance) SetPrefer(method string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.vals
	next.Control.Prefer = method
	if err := Validate(&next); err != nil {
		return err
	}
	c.vals = next
	return nil
}

// StaticBuses converts discovery.bus_connectors to bus numbers.
func (c *Instance) StaticBuses() map[int]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[int]string, len(c.vals.Discovery.BusConnectors))
	for k, v := range c.vals.Discovery.BusConnectors {
		n, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		out[n] = v
	}
	return out
}

func (c *Instance) Cooldown() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.vals.Control.CooldownMS) * time.Millisecond
}

func (c *Instance) RetryBackoff() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.vals.DDC.RetryBackoffMS) * time.Millisecond
}
