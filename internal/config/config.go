package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Database *dbConfig
	Service  *svcConfig
	Vendors  *vendorConfig
	Storage  *storageConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"reelforge"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`

	// DSN overrides the host based settings. For sqlite it is the file name.
	DSN      string `envconfig:"DB_DSN" default:""`
	MaxConns int32  `envconfig:"DB_MAX_CONNS" default:"10"`
}

type svcConfig struct {
	Address         string   `envconfig:"REELFORGE_ADDRESS" default:":3443"`
	MetricsAddress  string   `envconfig:"REELFORGE_METRICS_ADDRESS" default:":8080"`
	BaseUrl         string   `envconfig:"REELFORGE_BASE_URL" default:"http://localhost:3443"`
	LogLevel        string   `envconfig:"REELFORGE_LOG_LEVEL" default:"info"`
	LogFormat       string   `envconfig:"REELFORGE_LOG_FORMAT" default:"console"`
	CorsOrigins     []string `envconfig:"REELFORGE_CORS_ORIGINS" default:"*"`
	MigrationFolder string   `envconfig:"REELFORGE_MIGRATIONS_FOLDER" default:""`
	WebhookSecret   string   `envconfig:"REELFORGE_WEBHOOK_SECRET" default:""`
	StartingCredits int      `envconfig:"REELFORGE_STARTING_CREDITS" default:"3"`
	Auth            Auth
	Branding        Branding
}

type Auth struct {
	// AuthenticationType is one of "jwks", "hmac" or "none".
	AuthenticationType string `envconfig:"REELFORGE_AUTH" default:"none"`
	JwkCertURL         string `envconfig:"REELFORGE_JWK_URL" default:""`
	Issuer             string `envconfig:"REELFORGE_JWT_ISSUER" default:""`
	Audience           string `envconfig:"REELFORGE_JWT_AUDIENCE" default:""`
	LocalSecret        string `envconfig:"REELFORGE_JWT_SECRET" default:""`
}

type Branding struct {
	AccentColor   string `envconfig:"REELFORGE_DEFAULT_ACCENT" default:"#FF5A1F"`
	LogoURL       string `envconfig:"REELFORGE_DEFAULT_LOGO_URL" default:""`
	BackgroundURL string `envconfig:"REELFORGE_DEFAULT_BACKGROUND_URL" default:""`
}

type vendorConfig struct {
	Timeout time.Duration `envconfig:"VENDOR_TIMEOUT" default:"60s"`

	AvatarBaseURL string `envconfig:"AVATAR_API_URL" default:"https://api.heygen.com"`
	AvatarAPIKey  string `envconfig:"AVATAR_API_KEY" default:""`

	CompositorBaseURL string `envconfig:"COMPOSITOR_API_URL" default:"https://api.shotstack.io/edit/stage"`
	CompositorAPIKey  string `envconfig:"COMPOSITOR_API_KEY" default:""`

	TextGenBaseURL string `envconfig:"TEXTGEN_API_URL" default:"https://api.openai.com/v1"`
	TextGenAPIKey  string `envconfig:"TEXTGEN_API_KEY" default:""`
	TextGenModel   string `envconfig:"TEXTGEN_MODEL" default:"gpt-4o-mini"`
}

type storageConfig struct {
	Endpoint  string        `envconfig:"S3_ENDPOINT" default:""`
	Bucket    string        `envconfig:"S3_BUCKET" default:"reelforge-brand"`
	AccessKey string        `envconfig:"S3_ACCESS_KEY" default:""`
	SecretKey string        `envconfig:"S3_SECRET_KEY" default:""`
	Region    string        `envconfig:"S3_REGION" default:"us-east-1"`
	UseSSL    bool          `envconfig:"S3_USE_SSL" default:"true"`
	URLTTL    time.Duration `envconfig:"S3_URL_TTL" default:"168h"`
}

// New reads the configuration from the environment. Every call returns a
// fresh value; the caller owns it and passes it down explicitly.
func New() (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewDefault returns a configuration suitable for tests: an in-memory sqlite
// database and no authentication.
func NewDefault() *Config {
	cfg, err := New()
	if err != nil {
		panic(err)
	}
	cfg.Database.Type = "sqlite"
	cfg.Database.DSN = "file::memory:?cache=shared"
	cfg.Service.Auth.AuthenticationType = "none"
	return cfg
}

// StorageEnabled reports whether brand assets are served from object storage.
func (c *Config) StorageEnabled() bool {
	return c.Storage != nil && c.Storage.Endpoint != ""
}
