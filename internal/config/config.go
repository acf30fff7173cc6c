package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config agrupa la configuración necesaria para correr la aplicación.
type Config struct {
	Port string `env:"PORT"    env-default:"3000" validate:"required,numeric"`
	Env  string `env:"APP_ENV" env-default:"development" validate:"oneof=development test production"`
	CI   bool   `env:"CI"      env-default:"false"`

	Database Database `env-prefix:"DB_"`
	Auth     Auth     `env-prefix:"KEYCLOAK_"`
	HTTP     HTTP     `env-prefix:"HTTP_"`
	Logger   Logger   `env-prefix:"LOG_"`
	Metrics  Metrics  `env-prefix:"METRICS_"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-default:"*" env-separator:","`

	// DATABASE_URL vive fuera del prefijo DB_ por compatibilidad.
	DatabaseURL string `env:"DATABASE_URL"`
}

// Database describe cómo llegar a PostgreSQL.
// URL tiene prioridad sobre las partes sueltas DB_*.
type Database struct {
	URL          string `validate:"omitempty,url"`
	Host         string `env:"HOST"          validate:"required_without=URL"`
	Port         string `env:"PORT"          env-default:"5432" validate:"numeric"`
	User         string `env:"USER"          validate:"required_without=URL"`
	Password     string `env:"PASSWORD"`
	Name         string `env:"NAME"          validate:"required_without=URL"`
	SSLMode      string `env:"SSL_MODE"      env-default:"disable" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	PoolMax      int32  `env:"POOL_MAX"      env-default:"10" validate:"min=1,max=100"`
	ForceRestart bool   `env:"FORCE_RESTART" env-default:"false"`
}

// Auth apunta al realm de Keycloak que emite los tokens.
type Auth struct {
	URL      string `env:"URL"       env-default:"http://localhost:8080" validate:"required,url"`
	Realm    string `env:"REALM"     env-default:"collector-realm" validate:"required"`
	ClientID string `env:"CLIENT_ID" env-default:"collector-front"`
}

type HTTP struct {
	ReadTimeout     time.Duration `env:"READ_TIMEOUT"     env-default:"5s"  validate:"gte=10ms,lte=60s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT"    env-default:"10s" validate:"gte=10ms,lte=60s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT"     env-default:"60s" validate:"gte=1s,lte=300s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT"  env-default:"10s" validate:"gte=10ms,lte=60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s" validate:"gte=10ms,lte=60s"`
}

type Logger struct {
	Level      string `env:"LEVEL"       env-default:"info" validate:"oneof=debug info warn error"`
	Filename   string `env:"FILENAME"`
	MaxSize    int    `env:"MAX_SIZE"    env-default:"100" validate:"min=1,max=1000"`
	MaxBackups int    `env:"MAX_BACKUPS" env-default:"3"   validate:"min=0,max=20"`
	MaxAge     int    `env:"MAX_AGE"     env-default:"28"  validate:"min=1,max=365"`
}

type Metrics struct {
	Enabled        bool          `env:"ENABLED"         env-default:"true"`
	SampleInterval time.Duration `env:"SAMPLE_INTERVAL" env-default:"5s" validate:"gte=100ms,lte=1h"`
}

// Load lee variables de entorno y valida lo mínimo indispensable.
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("config.Load: read env: %w", err)
	}

	// Normalizamos por si alguien manda ":3000"
	cfg.Port = strings.TrimPrefix(strings.TrimSpace(cfg.Port), ":")
	cfg.Database.URL = strings.TrimSpace(cfg.DatabaseURL)
	cfg.Auth.URL = strings.TrimRight(strings.TrimSpace(cfg.Auth.URL), "/")

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validate(cfg Config) error {
	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("config.Load: validation: %w", err)
	}

	messages := make([]string, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		messages = append(messages, fmt.Sprintf("%s must satisfy '%s'", fieldErr.Namespace(), fieldErr.Tag()))
	}
	return fmt.Errorf("config.Load: validation: %s", strings.Join(messages, "; "))
}

// ResetSchema indica si el arranque debe recrear la tabla articles.
// Es destructivo: solo con DB_FORCE_RESTART o en contexto de test/CI.
func (cfg Config) ResetSchema() bool {
	return cfg.Database.ForceRestart || cfg.Env == "test" || cfg.CI
}

// DSN devuelve la cadena de conexión para pgx.
func (database Database) DSN() string {
	if database.URL != "" {
		return database.URL
	}

	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(database.User, database.Password),
		Host:     net.JoinHostPort(database.Host, database.Port),
		Path:     "/" + database.Name,
		RawQuery: url.Values{"sslmode": []string{database.SSLMode}}.Encode(),
	}
	return dsn.String()
}

// Issuer es el valor esperado del claim iss.
func (auth Auth) Issuer() string {
	return auth.URL + "/realms/" + auth.Realm
}

// JWKSURL es el endpoint del realm con las claves públicas de firma.
func (auth Auth) JWKSURL() string {
	return auth.Issuer() + "/protocol/openid-connect/certs"
}

// TokenURL es el endpoint OIDC de emisión de tokens (lo usa el cliente).
func (auth Auth) TokenURL() string {
	return auth.Issuer() + "/protocol/openid-connect/token"
}

// AuthURL es el endpoint OIDC de autorización (lo usa el cliente).
func (auth Auth) AuthURL() string {
	return auth.Issuer() + "/protocol/openid-connect/auth"
}
