package cmd

import (
	"github.com/nuvoor/careadmin/internal/config"
	"github.com/nuvoor/careadmin/internal/logger"
)

// loadConfig reads the environment and sets up logging the way the server does.
func loadConfig() *config.Config {
	cfg := config.Load()
	initLogger(cfg)
	return cfg
}

// loadDatabaseConfig is loadConfig for commands that only touch the schema.
func loadDatabaseConfig() *config.Config {
	cfg := config.LoadDatabase()
	initLogger(cfg)
	return cfg
}

func initLogger(cfg *config.Config) {
	logger.Init(logger.Options{
		IsDev:     cfg.IsDevelopment(),
		Level:     cfg.LogLevel,
		SentryDSN: cfg.SentryDSN,
		AppName:   cfg.AppName,
	})
}
