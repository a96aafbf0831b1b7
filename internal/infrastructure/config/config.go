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
	App        AppConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Log        LogConfig
	HTTP       HTTPConfig
	Pix        PixConfig
	Deposit    DepositConfig
	Settlement SettlementConfig
	Withdrawal WithdrawalConfig
	Commission CommissionConfig
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
	Enabled  bool
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	MaxBodySize    int64
	TrustedProxies []string
}

// PixConfig holds PIX provider credentials and endpoints
type PixConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	CallbackURL  string
	Timeout      time.Duration
	UseStub      bool
}

// DepositConfig holds deposit creation settings
type DepositConfig struct {
	MinAmount float64
	ExpiresIn time.Duration
}

// SettlementConfig holds the daily settlement scheduler settings
type SettlementConfig struct {
	Enabled       bool
	Hour          int // UTC hour the daily run fires
	CheckInterval time.Duration
	Workers       int
}

// WithdrawalConfig holds withdrawal admission settings
type WithdrawalConfig struct {
	Days       []string // weekday names, e.g. ["monday", ...]
	StartHour  int
	EndHour    int
	MinAmount  float64
	FeePercent float64
	DailyLimit int
}

// CommissionConfig holds the percentage tables keyed by level
type CommissionConfig struct {
	FirstPurchase      map[string]float64
	SubsequentPurchase map[string]float64
	Residual           map[string]float64
}

// Load loads configuration from TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with CHRONO_ prefix (e.g., CHRONO_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// no config file is fine, defaults and env vars apply
	}

	v.SetEnvPrefix("CHRONO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

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
			Enabled:  v.GetBool("redis.enabled"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("jwt.secret"),
			Expiration: v.GetDuration("jwt.expiration"),
			Issuer:     v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			MaxBodySize:    v.GetInt64("http.max_body_size"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Pix: PixConfig{
			BaseURL:      v.GetString("pix.base_url"),
			ClientID:     v.GetString("pix.client_id"),
			ClientSecret: v.GetString("pix.client_secret"),
			CallbackURL:  v.GetString("pix.callback_url"),
			Timeout:      v.GetDuration("pix.timeout"),
			UseStub:      v.GetBool("pix.use_stub"),
		},
		Deposit: DepositConfig{
			MinAmount: v.GetFloat64("deposit.min_amount"),
			ExpiresIn: v.GetDuration("deposit.expires_in"),
		},
		Settlement: SettlementConfig{
			Enabled:       v.GetBool("settlement.enabled"),
			Hour:          v.GetInt("settlement.hour"),
			CheckInterval: v.GetDuration("settlement.check_interval"),
			Workers:       v.GetInt("settlement.workers"),
		},
		Withdrawal: WithdrawalConfig{
			Days:       v.GetStringSlice("withdrawal.days"),
			StartHour:  v.GetInt("withdrawal.start_hour"),
			EndHour:    v.GetInt("withdrawal.end_hour"),
			MinAmount:  v.GetFloat64("withdrawal.min_amount"),
			FeePercent: v.GetFloat64("withdrawal.fee_percent"),
			DailyLimit: v.GetInt("withdrawal.daily_limit"),
		},
		Commission: CommissionConfig{
			FirstPurchase:      percentTable(v, "commission.first_purchase"),
			SubsequentPurchase: percentTable(v, "commission.subsequent_purchase"),
			Residual:           percentTable(v, "commission.residual"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// percentTable reads a level-to-percentage table. Viper has no typed
// accessor for map[string]float64, so enumerate the keys and convert
// each value through the float accessor.
func percentTable(v *viper.Viper, key string) map[string]float64 {
	raw := v.GetStringMap(key)
	if len(raw) == 0 {
		return nil
	}
	table := make(map[string]float64, len(raw))
	for k := range raw {
		table[k] = v.GetFloat64(key + "." + k)
	}
	return table
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "chrono60-backend"
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
		cfg.Database.DBName = "chrono60"
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
	if cfg.JWT.Expiration == 0 {
		cfg.JWT.Expiration = 24 * time.Hour
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "chrono60-backend"
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
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20
	}
	if cfg.Pix.Timeout == 0 {
		cfg.Pix.Timeout = 30 * time.Second
	}
	if cfg.Deposit.MinAmount == 0 {
		cfg.Deposit.MinAmount = 10
	}
	if cfg.Deposit.ExpiresIn == 0 {
		cfg.Deposit.ExpiresIn = 30 * time.Minute
	}
	if cfg.Settlement.Hour == 0 {
		cfg.Settlement.Hour = 3
	}
	if cfg.Settlement.CheckInterval == 0 {
		cfg.Settlement.CheckInterval = time.Minute
	}
	if cfg.Settlement.Workers == 0 {
		cfg.Settlement.Workers = 4
	}
	if len(cfg.Withdrawal.Days) == 0 {
		cfg.Withdrawal.Days = []string{"monday", "tuesday", "wednesday", "thursday", "friday"}
	}
	if cfg.Withdrawal.StartHour == 0 {
		cfg.Withdrawal.StartHour = 8
	}
	if cfg.Withdrawal.EndHour == 0 {
		cfg.Withdrawal.EndHour = 18
	}
	if cfg.Withdrawal.MinAmount == 0 {
		cfg.Withdrawal.MinAmount = 50
	}
	if cfg.Withdrawal.FeePercent == 0 {
		cfg.Withdrawal.FeePercent = 5
	}
	if cfg.Withdrawal.DailyLimit == 0 {
		cfg.Withdrawal.DailyLimit = 1
	}
	if len(cfg.Commission.FirstPurchase) == 0 {
		cfg.Commission.FirstPurchase = map[string]float64{"1": 15, "2": 2, "3": 1}
	}
	if len(cfg.Commission.SubsequentPurchase) == 0 {
		cfg.Commission.SubsequentPurchase = map[string]float64{"1": 8, "2": 2, "3": 1}
	}
	if len(cfg.Commission.Residual) == 0 {
		cfg.Commission.Residual = map[string]float64{"1": 2.5, "2": 0.5, "3": 0.15}
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
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
	if c.Settlement.Hour < 0 || c.Settlement.Hour > 23 {
		return fmt.Errorf("settlement.hour must be between 0 and 23")
	}
	if c.Withdrawal.StartHour >= c.Withdrawal.EndHour {
		return fmt.Errorf("withdrawal.start_hour (%d) must be before withdrawal.end_hour (%d)",
			c.Withdrawal.StartHour, c.Withdrawal.EndHour)
	}

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
		if c.Pix.UseStub {
			return fmt.Errorf("pix.use_stub cannot be enabled in production")
		}
		if !c.Pix.UseStub && (c.Pix.ClientID == "" || c.Pix.ClientSecret == "") {
			return fmt.Errorf("pix.client_id and pix.client_secret are required in production")
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

// Addr returns the redis host:port address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
