// Package config loads CLI configuration from defaults, an optional YAML
// file, VIRTBIND_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jbweber/virtbind/internal/libvirt"
	"github.com/jbweber/virtbind/internal/logging"
	"github.com/jbweber/virtbind/internal/output"
)

// EnvPrefix prefixes environment overrides, e.g. VIRTBIND_LOG_LEVEL.
const EnvPrefix = "VIRTBIND"

// Keys shared by flags, environment variables and the config file.
const (
	KeyURI       = "uri"
	KeySocket    = "socket"
	KeyAddress   = "address"
	KeyPort      = "port"
	KeyReadOnly  = "read-only"
	KeyTimeout   = "timeout"
	KeyOutput    = "output"
	KeyLogLevel  = "log-level"
	KeyNoHeaders = "no-headers"
)

// Config is the resolved CLI configuration.
type Config struct {
	URI       string        `mapstructure:"uri" yaml:"uri"`
	Socket    string        `mapstructure:"socket" yaml:"socket,omitempty"`
	Address   string        `mapstructure:"address" yaml:"address,omitempty"`
	Port      int           `mapstructure:"port" yaml:"port"`
	ReadOnly  bool          `mapstructure:"read-only" yaml:"read-only"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Output    string        `mapstructure:"output" yaml:"output"`
	LogLevel  string        `mapstructure:"log-level" yaml:"log-level"`
	NoHeaders bool          `mapstructure:"no-headers" yaml:"no-headers"`
}

// DefaultPath returns $HOME/.config/virtbind/config.yaml, or "" when the
// home directory cannot be determined.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "virtbind", "config.yaml")
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyURI, libvirt.DefaultURI)
	v.SetDefault(KeySocket, "")
	v.SetDefault(KeyAddress, "")
	v.SetDefault(KeyPort, libvirt.DefaultPort)
	v.SetDefault(KeyReadOnly, false)
	v.SetDefault(KeyTimeout, libvirt.DefaultTimeout)
	v.SetDefault(KeyOutput, string(output.FormatTable))
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyNoHeaders, false)
}

// AddFlags registers the connection and output flags on flags.
func AddFlags(flags *pflag.FlagSet) {
	flags.StringP(KeyURI, "c", libvirt.DefaultURI, "Hypervisor driver URI")
	flags.String(KeySocket, "", "libvirtd unix socket path (default "+libvirt.DefaultSocket+")")
	flags.String(KeyAddress, "", "Remote libvirtd host for a TCP connection")
	flags.Int(KeyPort, libvirt.DefaultPort, "Remote libvirtd TCP port")
	flags.Bool(KeyReadOnly, false, "Use the read-only socket")
	flags.Duration(KeyTimeout, libvirt.DefaultTimeout, "Dial timeout")
	flags.StringP(KeyOutput, "o", string(output.FormatTable), "Output format: table, yaml, json")
	flags.String(KeyLogLevel, "warn", "Log level: "+strings.Join(logging.Levels, ", "))
	flags.Bool(KeyNoHeaders, false, "Omit table headers")
}

// BindFlags binds every flag in flags to the viper key of the same name.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var errs []error
	flags.VisitAll(func(f *pflag.Flag) {
		if err := v.BindPFlag(f.Name, f); err != nil {
			errs = append(errs, fmt.Errorf("failed to bind flag --%s: %w", f.Name, err))
		}
	})
	return errors.Join(errs...)
}

// New returns a viper instance with defaults and environment overrides
// configured.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file at path into v and returns the validated
// configuration. A missing file is an error only when explicit is set.
func Load(v *viper.Viper, path string, explicit bool) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := output.ValidateFormat(c.Output); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0, got %s", c.Timeout)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.Socket != "" && c.Address != "" {
		return fmt.Errorf("cannot specify both socket and address")
	}
	return nil
}

// ConnectOptions converts the configuration to binding connect options.
func (c *Config) ConnectOptions() libvirt.ConnectOptions {
	return libvirt.ConnectOptions{
		URI:      c.URI,
		Socket:   c.Socket,
		Address:  c.Address,
		Port:     c.Port,
		Timeout:  c.Timeout,
		ReadOnly: c.ReadOnly,
	}
}

// OutputOptions converts the configuration to formatter options.
func (c *Config) OutputOptions() output.Options {
	return output.Options{Format: output.Format(c.Output), NoHeaders: c.NoHeaders}
}
