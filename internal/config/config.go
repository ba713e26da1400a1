package config

import (
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

// Image store backends.
const (
	StoreFS = "fs"
	StoreS3 = "s3"
)

var supportedAlgorithms = map[string]bool{"HS256": true, "HS384": true, "HS512": true}

// Config holds the application configuration.
type Config struct {
	ServerPort  int    `koanf:"port"`
	DatabaseURL string `koanf:"database_url"`

	// Token signing
	SecretKey                string `koanf:"secret_key"`
	Algorithm                string `koanf:"algorithm"`
	AccessTokenExpireMinutes int    `koanf:"access_token_expire_minutes"`

	// Outbound renderer
	RendererURL      string        `koanf:"renderer_url"`
	RendererTimeout  time.Duration `koanf:"renderer_timeout"`
	RendererMaxBytes int64         `koanf:"renderer_max_bytes"`

	// Where rendered images are written
	ImageStore  string `koanf:"image_store"`
	ImageDir    string `koanf:"image_dir"`
	S3Bucket    string `koanf:"s3_bucket"`
	S3Region    string `koanf:"s3_region"`
	S3Endpoint  string `koanf:"s3_endpoint"`
	S3AccessKey string `koanf:"s3_access_key"`
	S3SecretKey string `koanf:"s3_secret_key"`

	ImageRetention  time.Duration `koanf:"image_retention"`
	JanitorSchedule string        `koanf:"janitor_schedule"`

	RenderRatePerMinute int `koanf:"render_rate_per_minute"`
	RenderBurst         int `koanf:"render_burst"`
	LoginRatePerMinute  int `koanf:"login_rate_per_minute"`
	LoginBurst          int `koanf:"login_burst"`

	CORSOrigins []string `koanf:"cors_origins"`
	LogLevel    string   `koanf:"log_level"`
	LogFormat   string   `koanf:"log_format"`
}

// Defaults returns a Config populated with development defaults.
// SecretKey is intentionally left empty so that Load fails without one.
func Defaults() *Config {
	return &Config{
		ServerPort:               8080,
		DatabaseURL:              "sqlite://./codeshot.db",
		Algorithm:                "HS256",
		AccessTokenExpireMinutes: 30,
		RendererURL:              "https://carbon.now.sh/",
		RendererTimeout:          30 * time.Second,
		RendererMaxBytes:         10 << 20,
		ImageStore:               StoreFS,
		ImageDir:                 "./images",
		S3Region:                 "us-east-1",
		ImageRetention:           24 * time.Hour,
		JanitorSchedule:          "@hourly",
		RenderRatePerMinute:      30,
		RenderBurst:              5,
		LoginRatePerMinute:       10,
		LoginBurst:               5,
		CORSOrigins:              []string{"http://localhost:3000"},
		LogLevel:                 "info",
		LogFormat:                "pretty",
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE and finally the process environment, then validates it.
func Load() (*Config, error) {
	cfg, err := Read()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is Load without validation, for tools that only need a subset of the
// settings.
func Read() (*Config, error) {
	cfg := Defaults()
	k := koanf.New(".")

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", path)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		TransformFunc: func(key, value string) (string, any) {
			// PORT -> port, DATABASE_URL -> database_url
			return strings.ToLower(key), value
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load environment")
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	return cfg, nil
}

// Validate reports the first problem that would prevent the service from starting.
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY must be set")
	}
	if !supportedAlgorithms[c.Algorithm] {
		return errors.Errorf("unsupported ALGORITHM %q (want HS256, HS384 or HS512)", c.Algorithm)
	}
	if c.AccessTokenExpireMinutes <= 0 {
		return errors.New("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return errors.Errorf("invalid PORT %d", c.ServerPort)
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL must be set")
	}
	if c.RendererURL == "" {
		return errors.New("RENDERER_URL must be set")
	}
	switch c.ImageStore {
	case StoreFS:
		if c.ImageDir == "" {
			return errors.New("IMAGE_DIR must be set for the fs image store")
		}
	case StoreS3:
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET must be set for the s3 image store")
		}
	default:
		return errors.Errorf("unknown IMAGE_STORE %q", c.ImageStore)
	}
	if _, err := cron.ParseStandard(c.JanitorSchedule); err != nil {
		return errors.Wrapf(err, "invalid JANITOR_SCHEDULE %q", c.JanitorSchedule)
	}
	if c.RenderRatePerMinute <= 0 || c.RenderBurst <= 0 {
		return errors.New("RENDER_RATE_PER_MINUTE and RENDER_BURST must be positive")
	}
	if c.LoginRatePerMinute <= 0 || c.LoginBurst <= 0 {
		return errors.New("LOGIN_RATE_PER_MINUTE and LOGIN_BURST must be positive")
	}
	return nil
}

// AccessTokenTTL is the lifetime of issued bearer tokens.
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}
