package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App     AppConfig
	DB      DBConfig
	JWT     JWTConfig
	HTTP    HTTPConfig
	Redis   RedisConfig
	Kafka   KafkaConfig
	Rebate  RebateConfig
	Storage StorageConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int // 0 = valor por defecto del pool
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisConfig caché de configuración del sistema. URL vacía = sin caché.
type RedisConfig struct {
	URL         string
	SettingsTTL time.Duration
}

// KafkaConfig publicación de eventos de ciclo de vida. Brokers vacío = no se publica.
type KafkaConfig struct {
	Brokers        []string
	OrdersTopic    string
	ContractsTopic string
}

// RebateConfig valores por defecto de la configuración del sistema,
// usados mientras no exista la fila en system_settings.
type RebateConfig struct {
	AutoLockDays            int
	DefaultRebatePercentage decimal.Decimal
	// SweepInterval > 0 activa el barrido periódico de auto-bloqueo además del bloqueo en lectura.
	SweepInterval time.Duration
}

// StorageConfig almacenamiento local de documentos firmados.
type StorageConfig struct {
	UploadDir string
	BaseURL   string
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, JWT_SECRET, AUTO_LOCK_DAYS, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	rebatePct, err := getDecimal(v, "DEFAULT_REBATE_PERCENTAGE", decimal.NewFromInt(5))
	if err != nil {
		return nil, err
	}
	if rebatePct.IsNegative() || rebatePct.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("config: DEFAULT_REBATE_PERCENTAGE fuera de rango (0-100): %s", rebatePct)
	}
	autoLockDays := getInt(v, "AUTO_LOCK_DAYS", 3)
	if autoLockDays < 1 {
		return nil, fmt.Errorf("config: AUTO_LOCK_DAYS debe ser >= 1")
	}

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "rebate-api"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "rebate"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 0),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "rebate-api"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Redis: RedisConfig{
			URL:         getString(v, "REDIS_URL", ""),
			SettingsTTL: time.Duration(getInt(v, "SETTINGS_CACHE_TTL_SECONDS", 300)) * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:        splitList(getString(v, "KAFKA_BROKERS", "")),
			OrdersTopic:    getString(v, "KAFKA_TOPIC_ORDERS", "rebate.orders"),
			ContractsTopic: getString(v, "KAFKA_TOPIC_CONTRACTS", "rebate.contracts"),
		},
		Rebate: RebateConfig{
			AutoLockDays:            autoLockDays,
			DefaultRebatePercentage: rebatePct,
			SweepInterval:           time.Duration(getInt(v, "AUTO_LOCK_SWEEP_INTERVAL_SECONDS", 0)) * time.Second,
		},
		Storage: StorageConfig{
			UploadDir: getString(v, "UPLOAD_DIR", "./uploads"),
			BaseURL:   getString(v, "UPLOAD_BASE_URL", "/uploads"),
		},
	}

	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getDecimal(v *viper.Viper, key string, def decimal.Decimal) (decimal.Decimal, error) {
	if !v.IsSet(key) {
		return def, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return decimal.Zero, fmt.Errorf("config: %s inválido: %w", key, err)
	}
	return d, nil
}

// splitList separa "a:9092, b:9092" en elementos sin espacios.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
