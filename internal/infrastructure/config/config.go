package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Log      LogConfig
	HTTP     HTTPConfig
	OAuth    OAuthConfig
	Shopee   ShopeeConfig
	TikTok   TikTokConfig
	Channels ChannelsConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret                string
	AccessTokenExpiration time.Duration
	Issuer                string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string

	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// OAuthConfig holds settings shared by every OAuth channel flow
type OAuthConfig struct {
	// StateBackend selects where issued state tokens are persisted:
	// "postgres" (default) or "redis". There is no in-memory option.
	StateBackend string
	StateTTL     time.Duration
	// DefaultTeamID, when set, is used for users that belong to no team.
	// When empty such users get a hard error instead.
	DefaultTeamID string
	// SettingsRedirectURL is where callback outcomes send the browser.
	SettingsRedirectURL string
	// PurgeInterval controls the background sweep of expired states.
	PurgeInterval time.Duration
}

// ShopeeConfig holds Shopee open platform credentials
type ShopeeConfig struct {
	Host        string
	PartnerID   int64
	PartnerKey  string
	RedirectURI string
}

// TikTokConfig holds TikTok developer app credentials
type TikTokConfig struct {
	AuthHost     string
	ClientKey    string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
}

// ChannelDefinitionConfig is one catalog entry when the built-in channel
// catalog is overridden from configuration.
type ChannelDefinitionConfig struct {
	ID                  int      `mapstructure:"id"`
	Name                string   `mapstructure:"name"`
	Icon                string   `mapstructure:"icon"`
	Description         string   `mapstructure:"description"`
	AuthType            string   `mapstructure:"auth_type"`
	RequiredCredentials []string `mapstructure:"required_credentials"`
	OptionalCredentials []string `mapstructure:"optional_credentials"`
}

// ChannelsConfig holds the optional catalog override
type ChannelsConfig struct {
	Definitions []ChannelDefinitionConfig
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with ONECUBE_ prefix (e.g., ONECUBE_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("ONECUBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Build config struct
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:                v.GetString("jwt.secret"),
			AccessTokenExpiration: v.GetDuration("jwt.access_token_expiration"),
			Issuer:                v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),

			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
		},
		OAuth: OAuthConfig{
			StateBackend:        v.GetString("oauth.state_backend"),
			StateTTL:            v.GetDuration("oauth.state_ttl"),
			DefaultTeamID:       v.GetString("oauth.default_team_id"),
			SettingsRedirectURL: v.GetString("oauth.settings_redirect_url"),
			PurgeInterval:       v.GetDuration("oauth.purge_interval"),
		},
		Shopee: ShopeeConfig{
			Host:        v.GetString("shopee.host"),
			PartnerID:   v.GetInt64("shopee.partner_id"),
			PartnerKey:  v.GetString("shopee.partner_key"),
			RedirectURI: v.GetString("shopee.redirect_uri"),
		},
		TikTok: TikTokConfig{
			AuthHost:     v.GetString("tiktok.auth_host"),
			ClientKey:    v.GetString("tiktok.client_key"),
			ClientSecret: v.GetString("tiktok.client_secret"),
			RedirectURI:  v.GetString("tiktok.redirect_uri"),
			Scopes:       v.GetStringSlice("tiktok.scopes"),
		},
	}

	if err := v.UnmarshalKey("channels.definitions", &cfg.Channels.Definitions); err != nil {
		return nil, fmt.Errorf("error parsing channels.definitions: %w", err)
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "onecube-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "onecube"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.AccessTokenExpiration == 0 {
		cfg.JWT.AccessTokenExpiration = 15 * time.Minute
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "onecube-backend"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 100
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	// NOTE: CORS origins are intentionally not given a default fallback to "*".
	// An empty list means no cross-origin requests are allowed until explicitly configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.OAuth.StateBackend == "" {
		cfg.OAuth.StateBackend = "postgres"
	}
	if cfg.OAuth.StateTTL == 0 {
		cfg.OAuth.StateTTL = 10 * time.Minute
	}
	if cfg.OAuth.SettingsRedirectURL == "" {
		cfg.OAuth.SettingsRedirectURL = "/settings"
	}
	if cfg.OAuth.PurgeInterval == 0 {
		cfg.OAuth.PurgeInterval = time.Hour
	}
	if cfg.Shopee.Host == "" {
		cfg.Shopee.Host = "https://openplatform.sandbox.test-stable.shopee.sg"
	}
	if cfg.TikTok.AuthHost == "" {
		cfg.TikTok.AuthHost = "https://www.tiktok.com"
	}
	if len(cfg.TikTok.Scopes) == 0 {
		cfg.TikTok.Scopes = []string{
			"user.info.basic",
			"user.info.profile",
			"user.info.stats",
			"video.list",
			"video.upload",
		}
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	// Validate connection pool settings
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	switch c.OAuth.StateBackend {
	case "postgres", "redis":
	default:
		return fmt.Errorf("oauth.state_backend must be 'postgres' or 'redis', got %q", c.OAuth.StateBackend)
	}
	if c.OAuth.StateTTL <= 0 {
		return fmt.Errorf("oauth.state_ttl must be positive")
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		// CORS must not use wildcard with credentials
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		// Missing marketplace secrets must fail at startup, not at the first
		// redirect.
		if c.Shopee.PartnerID == 0 {
			return fmt.Errorf("shopee.partner_id is required in production")
		}
		if c.Shopee.PartnerKey == "" {
			return fmt.Errorf("shopee.partner_key is required in production")
		}
		if c.Shopee.RedirectURI == "" {
			return fmt.Errorf("shopee.redirect_uri is required in production")
		}
		if c.TikTok.ClientKey == "" {
			return fmt.Errorf("tiktok.client_key is required in production")
		}
		if c.TikTok.RedirectURI == "" {
			return fmt.Errorf("tiktok.redirect_uri is required in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
