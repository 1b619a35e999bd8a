package main

import (
	"log"

	"github.com/harshitajha4680/cryptobot/bot/app"
	corecmd "github.com/harshitajha4680/cryptobot/core/cmd"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return app.LoadConfig(path)
		},
		Bootstrap: func(cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			appCfg, ok := cfg.(*app.Config)
			if !ok {
				log.Fatalf("unexpected config type %T", cfg)
			}
			return app.New(appCfg)
		},
	})
	if err != nil {
		log.Fatalf("bot exited: %v", err)
	}
}
