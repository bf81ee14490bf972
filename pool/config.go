package pool

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"

	zorm "github.com/satishbabariya/zorm"
	"github.com/satishbabariya/zorm/dialect"
)

// Config describes one named connection pool as declared in the service
// configuration file.
type Config struct {
	// Dialect is the database flavour: mysql, postgres or sqlite.
	Dialect string
	// Name identifies the pool; services look pools up by this name.
	Name string
	// Database is the database (or file path, for SQLite) to connect to.
	Database string
	// Namespace prefixes generated table names.
	Namespace string

	Username string
	Password string
	Host     string
	Port     int

	StatementCacheCapacity int
	MaxConnections         int
	MinConnections         int
	MaxLifetime            time.Duration
	IdleTimeout            time.Duration
	AcquireTimeout         time.Duration
	HealthCheckInterval    time.Duration
}

// configDefaults mirrors the documented fallbacks for optional keys.
func configDefaults() *Config {
	return &Config{
		Name:                   "main",
		Host:                   "127.0.0.1",
		StatementCacheCapacity: 100,
		MaxConnections:         16,
		MinConnections:         2,
		MaxLifetime:            60 * time.Minute,
		IdleTimeout:            10 * time.Minute,
		AcquireTimeout:         30 * time.Second,
		HealthCheckInterval:    60 * time.Second,
	}
}

// LoadConfigs reads every pool declaration for the dialect from the viper
// configuration. Declarations live under a key named after the dialect,
// e.g.
//
//	[database]
//	namespace = "app"
//
//	[[postgres]]
//	name = "main"
//	database = "app"
//	username = "svc"
//
// The database name is required; everything else has a fallback. When a
// secret key is present (see EncryptPassword), stored passwords are
// decrypted before use; values that fail to decrypt pass through verbatim.
func LoadConfigs(v *viper.Viper, name string, secretKey []byte) ([]*Config, error) {
	if _, err := dialect.New(name); err != nil {
		return nil, err
	}
	namespace := v.GetString("database.namespace")
	var entries []map[string]any
	if err := v.UnmarshalKey(name, &entries); err != nil {
		return nil, fmt.Errorf("%w: malformed %q section: %v", zorm.ErrInvalidConfig, name, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no %q pools declared", zorm.ErrInvalidConfig, name)
	}
	configs := make([]*Config, 0, len(entries))
	for i, entry := range entries {
		sub := viper.New()
		if err := sub.MergeConfigMap(entry); err != nil {
			return nil, fmt.Errorf("%w: %s pool %d: %v", zorm.ErrInvalidConfig, name, i, err)
		}
		c, err := parseConfig(sub, name, namespace, secretKey)
		if err != nil {
			return nil, fmt.Errorf("%s pool %d: %w", name, i, err)
		}
		configs = append(configs, c)
	}
	return configs, nil
}

func parseConfig(v *viper.Viper, name, namespace string, secretKey []byte) (*Config, error) {
	c := configDefaults()
	c.Dialect = name
	c.Namespace = namespace
	c.Database = v.GetString("database")
	if c.Database == "" {
		return nil, fmt.Errorf("%w: missing database name", zorm.ErrInvalidConfig)
	}
	if v.IsSet("name") {
		c.Name = v.GetString("name")
	}
	if v.IsSet("host") {
		c.Host = v.GetString("host")
	}
	c.Port = v.GetInt("port")
	if c.Port == 0 {
		c.Port = defaultPort(name)
	}
	c.Username = v.GetString("username")
	c.Password = v.GetString("password")
	if len(secretKey) > 0 && c.Password != "" {
		if plain, err := DecryptPassword(secretKey, c.Username, c.Database, c.Password); err == nil {
			c.Password = plain
		}
	}
	if v.IsSet("statement-cache-capacity") {
		c.StatementCacheCapacity = v.GetInt("statement-cache-capacity")
	}
	if v.IsSet("max-connections") {
		c.MaxConnections = v.GetInt("max-connections")
	}
	if v.IsSet("min-connections") {
		c.MinConnections = v.GetInt("min-connections")
	}
	for key, field := range map[string]*time.Duration{
		"max-lifetime":          &c.MaxLifetime,
		"idle-timeout":          &c.IdleTimeout,
		"acquire-timeout":       &c.AcquireTimeout,
		"health-check-interval": &c.HealthCheckInterval,
	} {
		if !v.IsSet(key) {
			continue
		}
		d, err := parseDuration(v.Get(key))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", zorm.ErrInvalidConfig, key, err)
		}
		*field = d
	}
	return c, nil
}

// parseDuration accepts either a Go duration string or a bare number of
// seconds.
func parseDuration(value any) (time.Duration, error) {
	switch v := value.(type) {
	case string:
		if seconds, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Duration(seconds) * time.Second, nil
		}
		return time.ParseDuration(v)
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	case time.Duration:
		return v, nil
	}
	return 0, fmt.Errorf("unsupported duration value %v", value)
}

func defaultPort(name string) int {
	switch name {
	case dialect.MySQL:
		return 3306
	case dialect.Postgres:
		return 5432
	}
	return 0
}

// DriverName returns the database/sql driver to open this pool with.
func (c *Config) DriverName() string {
	switch c.Dialect {
	case dialect.SQLite:
		return "sqlite3"
	case dialect.MySQL:
		return "mysql"
	}
	return "postgres"
}

// DSN builds the connection string for the pool's driver.
func (c *Config) DSN() string {
	switch c.Dialect {
	case dialect.MySQL:
		mc := mysql.NewConfig()
		mc.User = c.Username
		mc.Passwd = c.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
		mc.DBName = c.Database
		mc.ParseTime = false
		return mc.FormatDSN()
	case dialect.SQLite:
		return c.Database
	default:
		u := url.URL{
			Scheme: "postgres",
			Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
			Path:   "/" + c.Database,
		}
		if c.Username != "" {
			if c.Password != "" {
				u.User = url.UserPassword(c.Username, c.Password)
			} else {
				u.User = url.User(c.Username)
			}
		}
		return u.String()
	}
}
