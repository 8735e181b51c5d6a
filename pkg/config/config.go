package config

import (
	"errors"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// DefaultUpstreamBaseURLs are tried in order when UPSTREAM_BASE_URLS is not set.
var DefaultUpstreamBaseURLs = []string{
	"https://mrca-final-project-output-4.onrender.com/api",
	"http://localhost:8080/api",
}

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	Upstream UpstreamConfig
	Health   HealthConfig
	Uploads  UploadsConfig
	Catalog  CatalogConfig
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// UpstreamConfig describes the remote materials API and its candidate base URLs.
type UpstreamConfig struct {
	BaseURLs       []string
	FileOrigin     string
	AttemptTimeout time.Duration
}

// HealthConfig toggles caching of upstream health snapshots.
type HealthConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// UploadsConfig bounds student submissions.
type UploadsConfig struct {
	MaxFileSizeBytes int64
	RatePerMinute    int
}

// CatalogConfig lists the choices offered by the filter form.
type CatalogConfig struct {
	Semesters []string
	Subjects  []string
	Years     []string
	Types     []string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	baseURLs := splitAndTrim(v.GetString("UPSTREAM_BASE_URLS"))
	if len(baseURLs) == 0 {
		baseURLs = append([]string(nil), DefaultUpstreamBaseURLs...)
	}
	for i, raw := range baseURLs {
		baseURLs[i] = strings.TrimRight(raw, "/")
	}
	fileOrigin := strings.TrimRight(v.GetString("UPSTREAM_FILE_ORIGIN"), "/")
	if fileOrigin == "" {
		fileOrigin = OriginOf(baseURLs[0])
	}
	cfg.Upstream = UpstreamConfig{
		BaseURLs:       baseURLs,
		FileOrigin:     fileOrigin,
		AttemptTimeout: parseDuration(v.GetString("UPSTREAM_ATTEMPT_TIMEOUT"), 30*time.Second),
	}

	cfg.Health = HealthConfig{
		CacheEnabled: v.GetBool("ENABLE_HEALTH_CACHE"),
		CacheTTL:     parseDuration(v.GetString("HEALTH_CACHE_TTL"), 30*time.Second),
	}

	maxUpload := v.GetInt64("UPSTREAM_MAX_UPLOAD_BYTES")
	if maxUpload <= 0 {
		maxUpload = 20 * 1024 * 1024
	}
	cfg.Uploads = UploadsConfig{
		MaxFileSizeBytes: maxUpload,
		RatePerMinute:    v.GetInt("UPLOAD_RATE_PER_MINUTE"),
	}

	cfg.Catalog = CatalogConfig{
		Semesters: splitAndTrim(v.GetString("CATALOG_SEMESTERS")),
		Subjects:  splitAndTrim(v.GetString("CATALOG_SUBJECTS")),
		Years:     splitAndTrim(v.GetString("CATALOG_YEARS")),
		Types:     splitAndTrim(v.GetString("CATALOG_TYPES")),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 3000)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("UPSTREAM_BASE_URLS", "")
	v.SetDefault("UPSTREAM_FILE_ORIGIN", "")
	v.SetDefault("UPSTREAM_ATTEMPT_TIMEOUT", "30s")
	v.SetDefault("UPSTREAM_MAX_UPLOAD_BYTES", 20*1024*1024)

	v.SetDefault("ENABLE_HEALTH_CACHE", false)
	v.SetDefault("HEALTH_CACHE_TTL", "30s")
	v.SetDefault("UPLOAD_RATE_PER_MINUTE", 10)

	v.SetDefault("CATALOG_SEMESTERS", "sem-1,sem-2,sem-3,sem-4,sem-5,sem-6")
	v.SetDefault("CATALOG_SUBJECTS", "Telugu,English,Physics,Maths,Chemistry,Computer")
	v.SetDefault("CATALOG_YEARS", "2020,2021,2022,2023,2024,2025")
	v.SetDefault("CATALOG_TYPES", "question paper,notes,pdf,image")
}

// OriginOf returns scheme://host for a base URL, dropping any path.
func OriginOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.TrimRight(raw, "/")
	}
	return u.Scheme + "://" + u.Host
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
