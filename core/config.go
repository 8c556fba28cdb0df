package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// session storage backends
const (
	SessionBackendFile     = "file"
	SessionBackendRedis    = "redis"
	SessionBackendDatabase = "database"
	SessionBackendMemory   = "memory"
)

type (
	BackendConfig struct {
		BaseURL string
		Timeout time.Duration // 0: none
	}

	ServerConfig struct {
		Address         string
		DebugHost       string
		ShutdownTimeout time.Duration
		SecretKey       string
		SessionCookie   string
		DisableCSRF     bool
		DisableReqLogs  bool
	}

	SessionConfig struct {
		Backend              string
		FilePath             string
		TTL                  time.Duration
		LogoutOnUnauthorized bool
	}

	RedisConfig struct {
		Address  string
		Password string
		DB       int
	}

	DatabaseConfig struct {
		Engine     string
		Host       string
		Port       int
		Name       string
		User       string
		Password   string
		DisableTLS bool
	}

	MockConfig struct {
		Address            string
		SecretKey          string
		JWTExpirationDelta time.Duration
	}

	Config struct {
		Env      string
		Debug    bool
		TestMode bool
		AppName  string
		Build    string

		Backend  BackendConfig
		Server   ServerConfig
		Session  SessionConfig
		Redis    RedisConfig
		Database DatabaseConfig
		Mock     MockConfig

		SupportEmail     string
		DefaultFromEmail string
		SendgridApiKey   string
		RollbarToken     string
	}
)

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Config) SupportAddress() mail.Address {
	return mail.Address{Name: c.AppName + " Support", Address: c.SupportEmail}
}

func (c Config) DefaultFromAddress() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.DefaultFromEmail}
}

// NewConfig loads the configuration from the environment of the current ENV
// (DEV by default), after loading config/.env.<env> if it exists.
func NewConfig() *Config {
	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	return newConfig(env, newViper(env))
}

func newViper(env string) *viper.Viper {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("appName", "Masomo")
	v.SetDefault("build", "dev")
	v.SetDefault("supportEmail", "support@localhost")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("backend.baseURL", "http://localhost:5000")
	v.SetDefault("backend.timeout", time.Duration(0))

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("server.sessionCookie", "masomo_sid")
	v.SetDefault("server.disableCSRF", false)
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("session.backend", SessionBackendMemory)
	v.SetDefault("session.filePath", defaultSessionFile())
	v.SetDefault("session.ttl", 7*24*time.Hour)
	v.SetDefault("session.logoutOnUnauthorized", false)

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "masomo_console")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("mock.address", ":5000")
	v.SetDefault("mock.secretKey", "mock-backend-secret")
	v.SetDefault("mock.jwtExpirationDelta", 7*24*time.Hour)

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()
	return v
}

func newConfig(env string, v *viper.Viper) *Config {
	return &Config{
		Env:      env,
		Debug:    v.GetBool("debug"),
		TestMode: v.GetBool("testMode"),
		AppName:  v.GetString("appName"),
		Build:    v.GetString("build"),
		Backend: BackendConfig{
			BaseURL: strings.TrimRight(v.GetString("backend.baseURL"), "/"),
			Timeout: v.GetDuration("backend.timeout"),
		},
		Server: ServerConfig{
			Address:         v.GetString("server.address"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			SecretKey:       v.GetString("server.secretKey"),
			SessionCookie:   v.GetString("server.sessionCookie"),
			DisableCSRF:     v.GetBool("server.disableCSRF"),
			DisableReqLogs:  v.GetBool("server.disableReqLogs"),
		},
		Session: SessionConfig{
			Backend:              v.GetString("session.backend"),
			FilePath:             v.GetString("session.filePath"),
			TTL:                  v.GetDuration("session.ttl"),
			LogoutOnUnauthorized: v.GetBool("session.logoutOnUnauthorized"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Database: DatabaseConfig{
			Engine:     v.GetString("database.engine"),
			Host:       v.GetString("database.host"),
			Port:       v.GetInt("database.port"),
			Name:       v.GetString("database.name"),
			User:       v.GetString("database.user"),
			Password:   v.GetString("database.password"),
			DisableTLS: v.GetBool("database.disableTLS"),
		},
		Mock: MockConfig{
			Address:            v.GetString("mock.address"),
			SecretKey:          v.GetString("mock.secretKey"),
			JWTExpirationDelta: v.GetDuration("mock.jwtExpirationDelta"),
		},
		SupportEmail:     v.GetString("supportEmail"),
		DefaultFromEmail: v.GetString("defaultFromEmail"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
	}
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".masomo-session.json"
	}
	return filepath.Join(dir, "masomo", "session.json")
}
