package main

import (
	"flag"
	"log"

	"github.com/kataras/iris/v12"

	"github.com/Captain-Catto/online-store-sub001/internal/config"
	"github.com/Captain-Catto/online-store-sub001/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	app := iris.New()
	server.RegisterRoutes(app, cfg)

	addr := cfg.Server.Addr()
	log.Printf("store api listening on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to run store api: %v", err)
	}
}
