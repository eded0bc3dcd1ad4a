package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DBUsername string `yaml:"db_username"`
	DBPassword string `yaml:"db_password"`
	DBHost     string `yaml:"db_host"`
	DBPort     string `yaml:"db_port"`
	DBName     string `yaml:"db_name"`
	DisableTLS bool   `yaml:"disable_tls"`
	DBDebug    bool   `yaml:"db_debug"`

	HTTPPort string `yaml:"http_port"`

	RedisHost     string `yaml:"redis_host"`
	RedisPort     string `yaml:"redis_port"`
	RedisPassword string `yaml:"redis_password"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Vendor Vendor `yaml:"vendor"`
	Sync   Sync   `yaml:"sync"`
	Policy Policy `yaml:"policy"`
}

// Vendor holds the credentials and connection settings for the external
// punch-clock provider.
type Vendor struct {
	BaseURL        string `yaml:"base_url"`
	CorpID         string `yaml:"corp_id"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

func (v Vendor) Timeout() time.Duration {
	if v.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(v.TimeoutSeconds) * time.Second
}

type Sync struct {
	StreamID        string `yaml:"stream_id"`
	IntervalSeconds int    `yaml:"interval_seconds"`
	RetryCount      int    `yaml:"retry_count"`
	BackoffSeconds  int    `yaml:"backoff_seconds"`
}

func (s Sync) Interval() time.Duration {
	if s.IntervalSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(s.IntervalSeconds) * time.Second
}

func (s Sync) Backoff() time.Duration {
	if s.BackoffSeconds <= 0 {
		return 2 * time.Second
	}
	return time.Duration(s.BackoffSeconds) * time.Second
}

func (s Sync) Retries() int {
	if s.RetryCount <= 0 {
		return 3
	}
	return s.RetryCount
}

// Policy holds tunable business rules. These are deployment policy, not
// code constants.
type Policy struct {
	LateGrace          string  `yaml:"late_grace"`
	MinMatchScore      float64 `yaml:"min_match_score"`
	AutoMapThreshold   float64 `yaml:"auto_map_threshold"`
	CreateMissingUsers bool    `yaml:"create_missing_users"`
	DefaultPassword    string  `yaml:"default_password"`
}

func NewConfig(path string) (*Config, error) {
	var c Config

	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}

	if err = yaml.Unmarshal(yamlFile, &c); err != nil {
		return nil, errors.Wrap(err, "unmarshalling config file")
	}

	if c.DBUsername == "" || c.DBPassword == "" || c.DBHost == "" || c.DBName == "" {
		return nil, errors.New("missing required database configuration")
	}
	if c.Vendor.BaseURL == "" || c.Vendor.CorpID == "" {
		return nil, errors.New("missing required vendor configuration")
	}

	if c.HTTPPort == "" {
		c.HTTPPort = "8080"
	}
	if c.Sync.StreamID == "" {
		c.Sync.StreamID = "vendor-live"
	}
	if c.Policy.LateGrace == "" {
		c.Policy.LateGrace = "10:45"
	}
	if _, err = time.Parse("15:04", c.Policy.LateGrace); err != nil {
		return nil, errors.Wrapf(err, "invalid late_grace %q", c.Policy.LateGrace)
	}
	if c.Policy.MinMatchScore == 0 {
		c.Policy.MinMatchScore = 0.3
	}
	if c.Policy.AutoMapThreshold == 0 {
		c.Policy.AutoMapThreshold = 0.8
	}

	return &c, nil
}
