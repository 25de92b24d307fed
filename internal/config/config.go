package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Timeouts TimeoutConfig
}

type ServerConfig struct {
	AppEnv            string
	HTTPAddr          string
	CORSAllowedOrigin string
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type DatabaseConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type JWTConfig struct {
	SecretKey string
	TTL       time.Duration
}

// StorageConfig selects the image backend. Driver is "cloudinary" or "local".
type StorageConfig struct {
	Driver        string
	CloudinaryURL string
	Folder        string
	UploadDir     string
	BaseURL       string
}

// RedisConfig is optional; an empty Addr disables the read cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type TimeoutConfig struct {
	Store   time.Duration
	Storage time.Duration
}

// IsDevelopment reports whether the service runs with developer defaults.
func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.AppEnv == "dev"
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:            getEnv("APP_ENV", "development"),
			HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
			CORSAllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "http://localhost:5173"),
		},
		Logger: LoggerConfig{
			Level:    getEnv("LOGGER_LEVEL", "debug"),
			Encoding: getEnv("LOGGER_ENCODING", "console"),
		},
		Database: DatabaseConfig{
			DSN:             getEnv("DB_DSN_PRIMARY", "root:root@tcp(127.0.0.1:3306)/storefront?parseTime=true"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			AutoMigrate:     getEnvBool("DB_AUTO_MIGRATE", true),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET_KEY", "change-this-secret-in-production"),
			TTL:       getEnvDuration("JWT_TTL", 72*time.Hour),
		},
		Storage: StorageConfig{
			Driver:        getEnv("STORAGE_DRIVER", "local"),
			CloudinaryURL: getEnv("CLOUDINARY_URL", ""),
			Folder:        getEnv("STORAGE_FOLDER", "products"),
			UploadDir:     getEnv("UPLOAD_DIR", "./uploads"),
			BaseURL:       getEnv("BASE_URL", "http://localhost:8080"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      getEnvDuration("CACHE_TTL", 5*time.Minute),
		},
		Timeouts: TimeoutConfig{
			Store:   getEnvDuration("STORE_TIMEOUT", 5*time.Second),
			Storage: getEnvDuration("STORAGE_TIMEOUT", 30*time.Second),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("30s") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
