package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/BearBump/ParcelScope/config"
	"github.com/BearBump/ParcelScope/internal/api/trackinghttp"
	"github.com/BearBump/ParcelScope/internal/broker/kafka"
	"github.com/BearBump/ParcelScope/internal/cache/rediscache"
	"github.com/BearBump/ParcelScope/internal/integrations/tracker"
	"github.com/BearBump/ParcelScope/internal/integrations/tracker/laposte"
	"github.com/BearBump/ParcelScope/internal/integrations/tracker/simulated"
	"github.com/BearBump/ParcelScope/internal/integrations/tracker/track17"
	"github.com/BearBump/ParcelScope/internal/services/tracking"
)

// buildService wires the fallback chain from config. Every tier is optional
// except the simulator, which always answers.
func buildService(cfg *config.Config) *tracking.Service {
	laposteKey := cfg.ParcelScope.LaPosteAPIKey
	if laposteKey == "" {
		laposteKey = os.Getenv("LAPOSTE_API_KEY")
	}
	track17Key := cfg.ParcelScope.Track17APIKey
	if track17Key == "" {
		track17Key = os.Getenv("TRACK17_API_KEY")
	}

	direct := map[string]tracker.Service{
		"laposte": laposte.New(cfg.ParcelScope.LaPosteBaseURL, laposteKey),
	}
	aggregator := track17.New(cfg.ParcelScope.Track17BaseURL, track17Key)

	simulator := simulated.New()
	if cfg.ParcelScope.SimulatorMinLatencyMS > 0 || cfg.ParcelScope.SimulatorMaxLatencyMS > 0 {
		simulator = simulator.WithLatency(
			time.Duration(cfg.ParcelScope.SimulatorMinLatencyMS)*time.Millisecond,
			time.Duration(cfg.ParcelScope.SimulatorMaxLatencyMS)*time.Millisecond,
		)
	}

	svc := tracking.New(tracking.DefaultRegistry(), direct, aggregator, simulator)

	if cfg.Redis.Host != "" {
		ttl := time.Duration(cfg.ParcelScope.LookupCacheTTLSeconds) * time.Second
		if ttl <= 0 {
			ttl = 5 * time.Minute
		}
		redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
		svc = svc.WithCache(rediscache.New(redisAddr), ttl)
	}

	if cfg.Kafka.Host != "" {
		topic := cfg.Kafka.LookupTopicName
		if topic == "" {
			topic = "tracking.looked_up"
		}
		brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
		svc = svc.WithProducer(kafka.NewProducer(brokers), topic)
	}

	return svc
}

type serverOpts struct {
	httpAddr string
	onListen func(httpAddr string)
}

func runServer(ctx context.Context, opts serverOpts, svc *tracking.Service) error {
	if opts.httpAddr == "" {
		opts.httpAddr = ":8080"
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	srv := &http.Server{Handler: trackinghttp.New(svc).Routes()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = lis.Close()
	}()

	slog.Info("HTTP server listening", "addr", lis.Addr().String())
	return srv.Serve(lis)
}
