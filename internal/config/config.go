package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	App struct {
		Env      string
		Timezone string
	} `mapstructure:"app"`

	Telegram struct {
		Token       string
		AdminChatID int64 `mapstructure:"admin_chat_id"`
		Timeout     int   // long polling, сек
	} `mapstructure:"telegram"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	// API — удалённый REST-бэкенд склада
	API struct {
		BaseURL string        `mapstructure:"base_url"`
		Token   string        `mapstructure:"token"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"api"`

	List struct {
		Limit int
	} `mapstructure:"list"`

	Search struct {
		Debounce time.Duration
	} `mapstructure:"search"`
}

// Path путь к конфигу: CONFIG_PATH или config/example.yaml
func Path() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config/example.yaml"
}

func Load(path string) (Config, error) {
	// .env необязателен — в проде всё приходит из окружения
	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("telegram.timeout", 30)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("api.timeout", "15s")
	v.SetDefault("list.limit", 10)
	v.SetDefault("search.debounce", "400ms")

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	if c.API.BaseURL == "" {
		return c, errors.New("api.base_url is required")
	}
	if c.List.Limit <= 0 {
		c.List.Limit = 10
	}
	return c, nil
}
