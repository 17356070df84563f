// Package config carga la configuración del servicio desde YAML con
// overrides por variables de entorno. Los secretos solo entran por entorno.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Storage struct {
		// memory | postgres
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns        int    `yaml:"max_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Driver string `yaml:"driver"`
		Redis  struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	JWT struct {
		Issuer        string `yaml:"issuer"`
		AccessSecret  string `yaml:"access_secret"`  // preferir JWT_ACCESS_SECRET
		RefreshSecret string `yaml:"refresh_secret"` // preferir JWT_REFRESH_SECRET
		AccessTTL     string `yaml:"access_ttl"`
		RefreshTTL    string `yaml:"refresh_ttl"`
		CookieDomain  string `yaml:"cookie_domain"`
	} `yaml:"jwt"`

	Password struct {
		MinLength     int  `yaml:"min_length"`
		RequireUpper  bool `yaml:"require_upper"`
		RequireLower  bool `yaml:"require_lower"`
		RequireDigit  bool `yaml:"require_digit"`
		RequireSymbol bool `yaml:"require_symbol"`
		Argon         struct {
			MemoryKB    int `yaml:"memory_kb"`
			Time        int `yaml:"time"`
			Parallelism int `yaml:"parallelism"`
		} `yaml:"argon"`
	} `yaml:"password"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		Login   struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"login"`
		Reset struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"reset"`
		Whitelist []string `yaml:"whitelist"`
	} `yaml:"rate"`

	Lockout struct {
		MaxFailures  int    `yaml:"max_failures"`
		Window       string `yaml:"window"`
		LockDuration string `yaml:"lock_duration"`
	} `yaml:"lockout"`

	SMTP struct {
		Host      string `yaml:"host"`
		Port      int    `yaml:"port"`
		Username  string `yaml:"username"`
		Password  string `yaml:"password"`
		FromEmail string `yaml:"from_email"`
		TLSMode   string `yaml:"tls_mode"`
	} `yaml:"smtp"`

	Reset struct {
		TTL     string `yaml:"ttl"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"reset"`

	Providers struct {
		Google struct {
			ClientID string `yaml:"client_id"`
		} `yaml:"google"`
		Microsoft struct {
			ClientID string `yaml:"client_id"`
		} `yaml:"microsoft"`
	} `yaml:"providers"`
}

// Load lee el YAML (path vacío = solo defaults + entorno), aplica defaults
// y pisa con variables de entorno.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.Postgres.MaxConns == 0 {
		c.Storage.Postgres.MaxConns = 10
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "memory"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "readiq"
	}
	if c.JWT.AccessTTL == "" {
		c.JWT.AccessTTL = "15m"
	}
	if c.JWT.RefreshTTL == "" {
		c.JWT.RefreshTTL = "168h" // 7d
	}
	if c.Password.MinLength == 0 {
		c.Password.MinLength = 8
		c.Password.RequireUpper = true
		c.Password.RequireLower = true
		c.Password.RequireDigit = true
	}
	if c.Password.Argon.MemoryKB == 0 {
		c.Password.Argon.MemoryKB = 64 * 1024
	}
	if c.Password.Argon.Time == 0 {
		c.Password.Argon.Time = 3
	}
	if c.Password.Argon.Parallelism == 0 {
		c.Password.Argon.Parallelism = 1
	}
	if c.Rate.Login.Limit == 0 {
		c.Rate.Login.Limit = 10
	}
	if c.Rate.Login.Window == "" {
		c.Rate.Login.Window = "1m"
	}
	if c.Rate.Reset.Limit == 0 {
		c.Rate.Reset.Limit = 5
	}
	if c.Rate.Reset.Window == "" {
		c.Rate.Reset.Window = "10m"
	}
	if c.Lockout.MaxFailures == 0 {
		c.Lockout.MaxFailures = 5
	}
	if c.Lockout.Window == "" {
		c.Lockout.Window = "15m"
	}
	if c.Lockout.LockDuration == "" {
		c.Lockout.LockDuration = "15m"
	}
	if c.Reset.TTL == "" {
		c.Reset.TTL = "30m"
	}
	if c.SMTP.TLSMode == "" {
		c.SMTP.TLSMode = "auto"
	}

	c.applyEnvOverrides()
	return &c, nil
}

// ─── Env overrides ───

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func getEnvBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

func getEnvCSV(key string) ([]string, bool) {
	v := os.Getenv(key)
	if v == "" {
		return nil, false
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, len(out) > 0
}

func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}

	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}

	if v, ok := getEnvStr("CACHE_DRIVER"); ok {
		c.Cache.Driver = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}

	if v, ok := getEnvStr("JWT_ISSUER"); ok {
		c.JWT.Issuer = v
	}
	if v, ok := getEnvStr("JWT_ACCESS_SECRET"); ok {
		c.JWT.AccessSecret = v
	}
	if v, ok := getEnvStr("JWT_REFRESH_SECRET"); ok {
		c.JWT.RefreshSecret = v
	}
	if v, ok := getEnvStr("JWT_ACCESS_TTL"); ok {
		c.JWT.AccessTTL = v
	}
	if v, ok := getEnvStr("JWT_REFRESH_TTL"); ok {
		c.JWT.RefreshTTL = v
	}
	if v, ok := getEnvStr("JWT_COOKIE_DOMAIN"); ok {
		c.JWT.CookieDomain = v
	}

	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvCSV("RATE_WHITELIST"); ok {
		c.Rate.Whitelist = v
	}

	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.SMTP.Password = v
	}
	if v, ok := getEnvStr("SMTP_FROM_EMAIL"); ok {
		c.SMTP.FromEmail = v
	}

	if v, ok := getEnvStr("RESET_BASE_URL"); ok {
		c.Reset.BaseURL = v
	}

	if v, ok := getEnvStr("GOOGLE_CLIENT_ID"); ok {
		c.Providers.Google.ClientID = v
	}
	if v, ok := getEnvStr("MICROSOFT_CLIENT_ID"); ok {
		c.Providers.Microsoft.ClientID = v
	}
}

// ─── Duration helpers ───

// Duration parsea un campo de duración ya validado.
func Duration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Validate chequea lo que no tiene default razonable.
func (c *Config) Validate() error {
	if c.JWT.AccessSecret == "" || c.JWT.RefreshSecret == "" {
		return fmt.Errorf("config: JWT_ACCESS_SECRET y JWT_REFRESH_SECRET son obligatorios")
	}
	if c.JWT.AccessSecret == c.JWT.RefreshSecret {
		return fmt.Errorf("config: los secretos de access y refresh no pueden coincidir")
	}
	if c.Storage.Driver == "postgres" && c.Storage.DSN == "" {
		return fmt.Errorf("config: storage.dsn es obligatorio con driver postgres")
	}
	if c.Cache.Driver == "redis" && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("config: cache.redis.addr es obligatorio con driver redis")
	}
	for _, d := range []string{c.JWT.AccessTTL, c.JWT.RefreshTTL, c.Rate.Login.Window, c.Rate.Reset.Window, c.Lockout.Window, c.Lockout.LockDuration, c.Reset.TTL} {
		if _, err := time.ParseDuration(d); err != nil {
			return fmt.Errorf("config: duración inválida %q", d)
		}
	}
	return nil
}
