// Package config reads relay and collector configuration from HCL files
// and single-line setting files.
package config

import (
	"path/filepath"
	"time"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"
	"github.com/temoto/rdrain/helpers"
	"github.com/temoto/rdrain/internal/relay"
	"github.com/temoto/rdrain/log2"
	"github.com/temoto/rdrain/serial"
)

const (
	DefaultAPIKeyFile      = "key"
	DefaultEndpointFile    = "endpoint"
	DefaultMaxFrame        = 4096
	DefaultUplinkTimeout   = 30 * time.Second
	DefaultCollectorListen = "127.0.0.1:5000"
	DefaultStateTTL        = 5 * time.Minute
)

type Config struct {
	// includeSeen contains normalized paths to prevent include loops
	includeSeen map[string]struct{}
	// only used for Unmarshal, do not access
	XXX_Include []Source `hcl:"include"`

	Serial struct {
		Device   string `hcl:"device"`
		Baud     int    `hcl:"baud"`
		Driver   string `hcl:"driver"` // tarm|file
		MaxFrame int    `hcl:"max_frame"`
		LogDebug bool   `hcl:"log_debug"`
	} `hcl:"serial"`

	Uplink struct {
		APIKey       string `hcl:"api_key"` // secret
		APIKeyFile   string `hcl:"api_key_file"`
		Endpoint     string `hcl:"endpoint"`
		EndpointFile string `hcl:"endpoint_file"`
		TimeoutSec   int    `hcl:"timeout_sec"`
		LogDebug     bool   `hcl:"log_debug"`
	} `hcl:"uplink"`

	Collector struct {
		Listen      string `hcl:"listen"`
		APIKey      string `hcl:"api_key"` // secret
		APIKeyFile  string `hcl:"api_key_file"`
		StateTTLSec int    `hcl:"state_ttl_sec"`
	} `hcl:"collector"`
}

type Source struct {
	Name     string `hcl:"name,key"`
	Optional bool   `hcl:"optional"`
}

func (c *Config) SerialConfig() serial.Config {
	return serial.Config{
		Device: c.Serial.Device,
		Baud:   c.Serial.Baud,
		Driver: c.Serial.Driver,
	}
}

func (c *Config) UplinkTimeout() time.Duration {
	return helpers.IntSecondDefault(c.Uplink.TimeoutSec, DefaultUplinkTimeout)
}

func (c *Config) StateTTL() time.Duration {
	return helpers.IntSecondDefault(c.Collector.StateTTLSec, DefaultStateTTL)
}

// LoadSession reads credentials once. Inline values take priority over files.
func (c *Config) LoadSession(fs FullReader) (relay.Session, error) {
	var s relay.Session
	var err error
	errs := make([]error, 0, 2)
	if s.APIKey = c.Uplink.APIKey; s.APIKey == "" {
		if s.APIKey, err = ReadSetting(fs, c.Uplink.APIKeyFile); err != nil {
			errs = append(errs, errors.Annotate(err, "uplink api key"))
		}
	}
	if s.Endpoint = c.Uplink.Endpoint; s.Endpoint == "" {
		if s.Endpoint, err = ReadSetting(fs, c.Uplink.EndpointFile); err != nil {
			errs = append(errs, errors.Annotate(err, "uplink endpoint"))
		}
	}
	return s, helpers.FoldErrors(errs)
}

// CollectorAPIKey returns empty string when key check is disabled.
func (c *Config) CollectorAPIKey(fs FullReader) (string, error) {
	if c.Collector.APIKey != "" || c.Collector.APIKeyFile == "" {
		return c.Collector.APIKey, nil
	}
	key, err := ReadSetting(fs, c.Collector.APIKeyFile)
	return key, errors.Annotate(err, "collector api key")
}

func (c *Config) applyDefaults() {
	if c.Serial.Device == "" {
		c.Serial.Device = serial.DefaultDevice
	}
	if c.Serial.Baud == 0 {
		c.Serial.Baud = serial.DefaultBaud
	}
	if c.Serial.Driver == "" {
		c.Serial.Driver = serial.DriverTarm
	}
	if c.Serial.MaxFrame == 0 {
		c.Serial.MaxFrame = DefaultMaxFrame
	}
	if c.Uplink.APIKeyFile == "" {
		c.Uplink.APIKeyFile = DefaultAPIKeyFile
	}
	if c.Uplink.EndpointFile == "" {
		c.Uplink.EndpointFile = DefaultEndpointFile
	}
	if c.Uplink.TimeoutSec == 0 {
		c.Uplink.TimeoutSec = int(DefaultUplinkTimeout / time.Second)
	}
	if c.Collector.Listen == "" {
		c.Collector.Listen = DefaultCollectorListen
	}
	if c.Collector.StateTTLSec == 0 {
		c.Collector.StateTTLSec = int(DefaultStateTTL / time.Second)
	}
}

func (c *Config) validate() error {
	errs := make([]error, 0, 4)
	switch c.Serial.Driver {
	case serial.DriverTarm, serial.DriverFile:
	default:
		errs = append(errs, errors.NotValidf("serial.driver=%s (expected %s|%s)", c.Serial.Driver, serial.DriverTarm, serial.DriverFile))
	}
	if c.Serial.Baud < 0 {
		errs = append(errs, errors.NotValidf("serial.baud=%d", c.Serial.Baud))
	}
	if c.Serial.MaxFrame < 16 {
		errs = append(errs, errors.NotValidf("serial.max_frame=%d < 16", c.Serial.MaxFrame))
	}
	if c.Uplink.TimeoutSec < 0 {
		errs = append(errs, errors.NotValidf("uplink.timeout_sec=%d", c.Uplink.TimeoutSec))
	}
	if c.Collector.StateTTLSec < 0 {
		errs = append(errs, errors.NotValidf("collector.state_ttl_sec=%d", c.Collector.StateTTLSec))
	}
	return helpers.FoldErrors(errs)
}

func (c *Config) read(log *log2.Log, fs FullReader, source Source, errs *[]error) {
	norm := fs.Normalize(source.Name)
	if _, ok := c.includeSeen[norm]; ok {
		*errs = append(*errs, errors.Errorf("config duplicate source=%s", source.Name))
		return
	}
	log.Debugf("config reading source='%s' path=%s", source.Name, norm)
	c.includeSeen[norm] = struct{}{}

	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		if !source.Optional {
			*errs = append(*errs, errors.NotFoundf("config required name=%s path=%s", source.Name, norm))
		}
		return
	}
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	}

	if err = hcl.Unmarshal(bs, c); err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config unmarshal source=%s", source.Name))
		return
	}

	var includes []Source
	includes, c.XXX_Include = c.XXX_Include, nil
	for _, include := range includes {
		if _, ok := c.includeSeen[fs.Normalize(include.Name)]; ok {
			*errs = append(*errs, errors.Errorf("config include loop: from=%s include=%s", source.Name, include.Name))
			continue
		}
		c.read(log, fs, include, errs)
	}
}

// ReadConfig with OsFullReader resolves relative includes and setting files
// against the directory of the first name.
func ReadConfig(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		return nil, errors.New("code error ReadConfig() without names")
	}

	if osfs, ok := fs.(*OsFullReader); ok {
		dir, name := filepath.Split(names[0])
		osfs.SetBase(dir)
		names[0] = name
	}
	c := &Config{
		includeSeen: make(map[string]struct{}),
	}
	errs := make([]error, 0, 8)
	for _, name := range names {
		c.read(log, fs, Source{Name: name}, &errs)
	}
	if err := helpers.FoldErrors(errs); err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.validate(); err != nil {
		return nil, errors.Annotate(err, "config")
	}
	return c, nil
}
