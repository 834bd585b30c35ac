package main

import (
	"flag"
	"log"
	"os"

	"LumenTrade/internal/di"
	"LumenTrade/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s strategy=%s pair=%s/%s",
		cfg.Environment, cfg.Trading.Strategy, cfg.Pair.Base.Code, cfg.Pair.Counter.Code)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
