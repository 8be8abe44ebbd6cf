package config // package config loads application configuration from environment variables

import (
    "fmt"     // fmt wraps parse errors with context
    "strings" // strings normalises list values

    "github.com/caarlos0/env/v11" // env maps environment variables onto struct fields
    "github.com/joho/godotenv"    // godotenv loads an optional .env file
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Required variables are marked in the struct tag
// and missing values make Load return an error; everything else falls back
// to a default suitable for local development.
type Config struct {
    Env            string   `env:"APP_ENV" envDefault:"dev"`                                  // application environment (e.g. "dev", "prod")
    Port           string   `env:"APP_PORT" envDefault:"5000"`                                // HTTP port to listen on
    Locale         string   `env:"APP_LOCALE" envDefault:"vi"`                                // default locale for welcome messages
    CORSOrigins    []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"` // allowed browser origins
    DBConfig                                                                                         // database coordinates
    JWTSecret      string   `env:"JWT_SECRET,required,notEmpty"`                                       // secret used to sign JWTs
    AccessTTLMin   int      `env:"ACCESS_TOKEN_TTL_MIN" envDefault:"60"`                      // access token time-to-live in minutes
    RefreshTTLDays int      `env:"REFRESH_TOKEN_TTL_DAYS" envDefault:"7"`                     // refresh token time-to-live in days
    BcryptCost     int      `env:"BCRYPT_COST" envDefault:"10"`                               // bcrypt cost for password hashing
    AdminEmail     string   `env:"ADMIN_EMAIL"`                                               // bootstrap admin account (optional)
    AdminPassword  string   `env:"ADMIN_PASSWORD"`                                            // bootstrap admin password (optional)
    RabbitMQURL    string   `env:"RABBITMQ_URL"`                                              // broker for the check-in audit trail; empty disables it
}

// DBConfig holds the MySQL coordinates.  It is embedded in Config and is
// also loaded on its own by tools that only need the database.
type DBConfig struct {
    DBUser string `env:"DB_USER,required,notEmpty"` // database username
    DBPass string `env:"DB_PASS"`                   // database password (optional)
    DBHost string `env:"DB_HOST,required,notEmpty"` // database host address
    DBPort string `env:"DB_PORT" envDefault:"3306"` // database port number
    DBName string `env:"DB_NAME,required,notEmpty"` // database name
}

// LoadDB reads an optional .env file and parses only the database settings.
func LoadDB() (DBConfig, error) {
    _ = godotenv.Load()
    var cfg DBConfig
    if err := env.Parse(&cfg); err != nil {
        return DBConfig{}, fmt.Errorf("parse env: %w", err)
    }
    return cfg, nil
}

// Load reads an optional .env file and then parses the process environment
// into a Config.  The .env file is optional because containers usually
// provide variables directly.
func Load() (Config, error) {
    _ = godotenv.Load()
    return Parse()
}

// Parse maps the current environment onto a Config without touching .env.
func Parse() (Config, error) {
    var cfg Config
    if err := env.Parse(&cfg); err != nil {
        return Config{}, fmt.Errorf("parse env: %w", err)
    }
    origins := cfg.CORSOrigins[:0]
    for _, o := range cfg.CORSOrigins {
        if o = strings.TrimSpace(o); o != "" {
            origins = append(origins, o)
        }
    }
    cfg.CORSOrigins = origins
    return cfg, nil
}

// IsDev reports whether the service runs in a development environment.
func (c Config) IsDev() bool {
    return c.Env == "" || strings.EqualFold(c.Env, "dev")
}
