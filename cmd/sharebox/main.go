// Command sharebox runs the file-sharing web server.
//
//	sharebox -config /etc/sharebox.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/koustreak/sharebox/internal/app"
	"github.com/koustreak/sharebox/internal/config"
	"github.com/koustreak/sharebox/internal/logger"
)

func main() {
	path := flag.String("config", config.DefaultPath, "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log := logger.New(cfg.LoggerConfig())

	ctx := context.Background()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.ErrorWith("startup failed", err, nil)
		os.Exit(1)
	}

	if err := a.Run(ctx); err != nil {
		log.ErrorWith("server stopped with error", err, nil)
		os.Exit(1)
	}
}
