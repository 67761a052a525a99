package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/BearBump/ParcelScope/config"
)

func main() {
	cfg := &config.Config{}
	if path := os.Getenv("configPath"); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
		cfg = loaded
	}

	svc := buildService(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := runServer(ctx, serverOpts{httpAddr: cfg.ParcelScope.HTTPAddr}, svc)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}
