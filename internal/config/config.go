package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server Server
	DB     DB
	Auth   Auth
	Log    Log
}

type Server struct {
	Addr      string
	StaticDir string `mapstructure:"static_dir"`
}

type DB struct {
	Driver string
	DSN    string
}

type Auth struct {
	CookieSecret string `mapstructure:"cookie_secret"`
}

type Log struct {
	Development bool
	Level       string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.static_dir", "static")
	v.SetDefault("db.driver", "sqlite3")
	v.SetDefault("db.dsn", "nexus.db")
	v.SetDefault("auth.cookie_secret", "nexus-demo-secret-change-me")
	v.SetDefault("log.development", false)
	v.SetDefault("log.level", "info")
}

// Load reads defaults, then the YAML file at path (if path is not empty),
// then NEXUS_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("nexus")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				return nil, errors.New("config file not found")
			}
			return nil, err
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	if c.DB.Driver != "sqlite3" && c.DB.Driver != "postgres" {
		return nil, errors.New("db.driver must be sqlite3 or postgres")
	}
	return &c, nil
}
