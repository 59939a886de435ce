package wpkgsession

import (
	"os"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// Config is the session-wide settings persisted alongside the database,
// analogous to golang-dep's TOML-backed manifest but covering core/session
// defaults rather than per-project dependency constraints. ApplyTo applies
// the default force-flag profile; DefaultRepositories and StrictVendorMatch
// are loaded and saved but not read by any command.
type Config struct {
	DefaultForce       []string `toml:"default_force"`
	DefaultRepositories []string `toml:"default_repositories"`
	StrictVendorMatch  bool     `toml:"strict_vendor_match"`
}

// LoadConfig reads a TOML config file, following the tomlMapper-over-
// *toml.Tree pattern of golang-dep/toml.go. A missing file yields a
// zero-value Config rather than an error, matching an unconfigured core.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "wpkg: reading config %s", path)
	}
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return nil, errors.Wrapf(err, "wpkg: parsing config %s", path)
	}
	cfg := &Config{}
	if err := tree.Unmarshal(cfg); err != nil {
		return nil, errors.Wrapf(err, "wpkg: decoding config %s", path)
	}
	return cfg, nil
}

// ApplyTo sets each of the config's default force flags on the bag unless
// the caller has already explicitly set that flag (explicit CLI flags
// always win over the persisted default).
func (c *Config) ApplyTo(flags *Flags, explicit map[Flag]bool) {
	if c == nil {
		return
	}
	for _, name := range c.DefaultForce {
		f := Flag(name)
		if _, set := explicit[f]; set {
			continue
		}
		flags.Set(f, true)
	}
}

// SaveConfig writes cfg back out as TOML.
func SaveConfig(path string, cfg *Config) error {
	data, err := toml.Marshal(*cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
