package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/harshitajha4680/cryptobot/bot/coingecko"
	"github.com/harshitajha4680/cryptobot/bot/conversation"
	"github.com/harshitajha4680/cryptobot/bot/storage"
	"github.com/harshitajha4680/cryptobot/core/bootstrap"
	coreconfig "github.com/harshitajha4680/cryptobot/core/config"
	coredatabase "github.com/harshitajha4680/cryptobot/core/database"
	coretelegram "github.com/harshitajha4680/cryptobot/core/telegram"
	"github.com/harshitajha4680/cryptobot/core/telegram/router"

	"github.com/jmoiron/sqlx"
)

// Config aggregates core settings with the bot's own sections.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	CoinGecko coingecko.Config    `yaml:"coingecko"`
	Database  coredatabase.Config `yaml:"database"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// LoadConfig reads the aggregate configuration from a YAML file and the
// environment. A missing file is tolerated; BOT_TOKEN alone is enough to run.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// env-only configuration
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// App is the crypto price bot: conversation engine, market data client and
// the optional snapshot store.
type App struct {
	cfg      *Config
	sessions *conversation.Manager
	engine   *conversation.Engine
	client   *coingecko.Client
	store    *storage.QuoteStore
	db       *sqlx.DB
}

// New bootstraps infrastructure and assembles the bot.
func New(cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config provided")
	}

	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	client := coingecko.NewClient(cfg.CoinGecko, nil)

	var (
		store    *storage.QuoteStore
		recorder conversation.Recorder
	)
	if res.DB != nil {
		store = storage.NewQuoteStore(res.DB)
		recorder = store
	}

	return &App{
		cfg:      cfg,
		sessions: conversation.NewManager(),
		engine:   conversation.NewEngine(client, recorder),
		client:   client,
		store:    store,
		db:       res.DB,
	}, nil
}

// TelegramRunOptions wires commands, callbacks and routes for the bot runtime.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	a.registerCommands(reg)
	if err := a.registerCallbacks(reg); err != nil {
		return coretelegram.RunOptions{}, err
	}

	routes := router.CommandRoutes(reg)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.TextRoute(a, reg, router.TextOptions{}))

	return coretelegram.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg.CoreConfig(), nil),
		Routes:      routes,
		OnStop: func(ctx context.Context, rt coretelegram.Runtime) error {
			if a.db != nil {
				return a.db.Close()
			}
			return nil
		},
	}, nil
}
