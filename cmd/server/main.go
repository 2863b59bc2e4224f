package main

import (
	"customer-insights-engine/internal/app"
	"customer-insights-engine/internal/config"
)

func main() {
	cfg := config.Load()
	config.SetupLogging(cfg.Server.LogLevel)
	app.Run(cfg)
}
