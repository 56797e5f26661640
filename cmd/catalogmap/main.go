package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"meshgateway/internal/app"
	"meshgateway/internal/catalog"
	"meshgateway/internal/logging"
	"meshgateway/internal/mesh"
)

func main() {
	outPath := flag.String("out", "static/catalog.json", "path to write the catalog graph JSON")
	flag.Parse()

	cfg, err := app.LoadConfig()
	if err != nil {
		fatal("load config", err)
	}
	logging.Init(cfg.LogFormat, logging.ParseLevel(cfg.LogLevel))

	client, err := mesh.New(cfg.Mesh)
	if err != nil {
		fatal("init mesh client", err)
	}

	ctx := context.Background()
	if err := client.Authenticate(ctx); err != nil {
		fatal("mesh login", err)
	}

	g, err := catalog.Export(ctx, client, *outPath)
	if err != nil {
		fatal("export catalog", err)
	}

	slog.Info("wrote catalog",
		"path", *outPath,
		"categories", g.Totals.Categories,
		"vehicles", g.Totals.Vehicles,
		"edges", g.Totals.Edges,
	)
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
