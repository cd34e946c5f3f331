// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/EugeneC/chklstly/internal/lib/sl"
)

// Config общая структура для хранения настроек
type Config struct {
	Env             string `yaml:"env" env-default:"local"`
	HTTPServer      `yaml:"http_server"`
	RedisConnection `yaml:"redis_connection"`
	Identity        `yaml:"identity"`
	Subscription    `yaml:"subscription"`
	Notification    `yaml:"notification"`
	Assistant       `yaml:"assistant"`
	RateLimit       `yaml:"rate_limit"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"30s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	Address     string        `yaml:"address"`
	Password    string        `yaml:"password" env:"REDIS_PASSWORD"`
	User        string        `yaml:"user"`
	DB          int           `yaml:"db"`
	MaxRetries  int           `yaml:"max_retries"`
	DialTimeout time.Duration `yaml:"dial_timeout" env-default:"5s"`
	Timeout     time.Duration `yaml:"timeout" env-default:"10s"`
	SessionTTL  time.Duration `yaml:"session_ttl" env-default:"5m"`
}

// Identity структура для настройки провайдера учетных записей.
// Backend выбирает реализацию: supabase или postgres.
type Identity struct {
	Backend                 string        `yaml:"backend" env-default:"supabase"`
	SupabaseURL             string        `yaml:"supabase_url" env:"SUPABASE_URL"`
	SupabaseServiceRoleKey  string        `yaml:"supabase_service_role_key" env:"SUPABASE_SERVICE_ROLE_KEY"`
	StorageConnectionString string        `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string        `yaml:"migrations_path" env-default:"migrations"`
	JWTSecretKey            string        `yaml:"jwt_secret_key" env:"SUPABASE_JWT_SECRET"`
	TokenTTL                time.Duration `yaml:"token_ttl" env-default:"24h"`
	Timeout                 time.Duration `yaml:"timeout" env-default:"10s"`
}

// Subscription структура для настройки клиента биллинга подписок
type Subscription struct {
	APIURL     string        `yaml:"api_url" env-default:"https://api.adapty.io/api/v2"`
	APIKey     string        `yaml:"api_key" env:"ADAPTY_API_KEY"`
	SkipEmails string        `yaml:"skip_emails" env:"SKIP_SUBSCRIPTION_CHECK_EMAILS"`
	Timeout    time.Duration `yaml:"timeout" env-default:"10s"`
}

// SkipEmailList возвращает список адресов из SkipEmails, разделенных запятой
func (s Subscription) SkipEmailList() []string {
	if s.SkipEmails == "" {
		return nil
	}
	return strings.Split(s.SkipEmails, ",")
}

// Notification структура для настройки клиента push-провайдера
type Notification struct {
	APIURL           string        `yaml:"api_url" env:"OS_API_BASE_URL" env-default:"https://api.onesignal.com"`
	APIKey           string        `yaml:"api_key" env:"OS_API_KEY"`
	AppID            string        `yaml:"app_id" env:"OS_APP_ID"`
	AndroidChannelID string        `yaml:"android_channel_id" env:"OS_ANDROID_CHANNEL_ID"`
	PackageName      string        `yaml:"package_name" env:"ANDROID_PACKAGE_NAME"`
	Timeout          time.Duration `yaml:"timeout" env-default:"15s"`
}

// Assistant структура для настройки клиента генерации текста
type Assistant struct {
	APIURL   string        `yaml:"api_url" env:"OR_API_BASE_URL" env-default:"https://openrouter.ai/api/v1"`
	APIKey   string        `yaml:"api_key" env:"OPENROUTER_API_KEY"`
	Model    string        `yaml:"model" env:"OR_MODEL_NAME"`
	SiteURL  string        `yaml:"site_url" env:"OR_SITE_URL"`
	SiteName string        `yaml:"site_name" env:"OR_SITE_NAME"`
	Timeout  time.Duration `yaml:"timeout" env-default:"60s"`
}

// RateLimit структура для настройки ограничения частоты запросов
type RateLimit struct {
	RPS   float64 `yaml:"rps" env-default:"10"`
	Burst int     `yaml:"burst" env-default:"20"`
}

// MustLoad функция для загрузки конфига, путь берется из CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  Password: %s\n"+
			"  User: %s\n"+
			"  DB: %d\n"+
			"Identity:\n"+
			"  Backend: %s\n"+
			"  SupabaseURL: %s\n"+
			"  ServiceRoleKey: %s\n"+
			"  JWTSecretKey: %s\n"+
			"  TokenTTL: %s\n"+
			"Subscription:\n"+
			"  APIURL: %s\n"+
			"  APIKey: %s\n"+
			"Notification:\n"+
			"  APIURL: %s\n"+
			"  AppID: %s\n"+
			"Assistant:\n"+
			"  APIURL: %s\n"+
			"  Model: %s\n",
		c.Env,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.RedisConnection.Address,
		sl.Mask(c.RedisConnection.Password),
		c.RedisConnection.User,
		c.RedisConnection.DB,
		c.Identity.Backend,
		c.Identity.SupabaseURL,
		sl.Mask(c.Identity.SupabaseServiceRoleKey),
		sl.Mask(c.Identity.JWTSecretKey),
		c.Identity.TokenTTL,
		c.Subscription.APIURL,
		sl.Mask(c.Subscription.APIKey),
		c.Notification.APIURL,
		c.Notification.AppID,
		c.Assistant.APIURL,
		c.Assistant.Model,
	)
}
