package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoSim-25-26J-441/gansim/internal/journal"
	"github.com/GoSim-25-26J-441/gansim/internal/policy"
	"github.com/GoSim-25-26J-441/gansim/internal/simd"
	"github.com/GoSim-25-26J-441/gansim/pkg/config"
	"github.com/GoSim-25-26J-441/gansim/pkg/logger"
	"google.golang.org/grpc"
)

type flags struct {
	configPath string
	grpcAddr   string
	httpAddr   string
	logLevel   string
}

// applyFlags overrides config values with flags that were set explicitly.
func applyFlags(cfg *config.Config, f flags) {
	if f.grpcAddr != "" {
		cfg.Server.GRPCAddr = f.grpcAddr
	}
	if f.httpAddr != "" {
		cfg.Server.HTTPAddr = f.httpAddr
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
}

// daemon holds everything main wires together.
type daemon struct {
	store    *simd.SessionStore
	notifier *simd.Notifier
	http     *simd.HTTPServer
	grpc     *simd.SimulatorGRPCServer
	journal  *journal.Journal
}

func newDaemon(cfg *config.Config) (*daemon, error) {
	streamInterval, err := cfg.Server.GetStreamInterval()
	if err != nil {
		return nil, fmt.Errorf("stream_interval: %w", err)
	}
	effectDelay, err := cfg.Server.GetEffectDelay()
	if err != nil {
		return nil, fmt.Errorf("effect_delay: %w", err)
	}

	d := &daemon{
		store:    simd.NewSessionStore(cfg.SimParams(), cfg.Server.MaxSessions),
		notifier: simd.NewNotifierWithPolicy(policy.NewRetryPolicyFromConfig(&cfg.Notify)),
	}
	d.store.SetBaseSeed(cfg.Simulator.Seed)
	d.store.SetStepRateLimit(cfg.Server.StepRateLimit)
	d.store.SetNotifier(d.notifier)

	d.http = simd.NewHTTPServer(d.store)
	d.http.SetEffectDelay(effectDelay)
	d.http.SetStreamInterval(streamInterval)

	d.grpc = simd.NewSimulatorGRPCServer(d.store)
	d.grpc.SetStreamInterval(streamInterval)

	if cfg.Journal.Path != "" {
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		d.journal = j
		d.store.SetRecorder(j)
		d.http.SetJournal(j)
		logger.Info("journal enabled", "path", cfg.Journal.Path)
	}
	return d, nil
}

func (d *daemon) Close() error {
	if d.journal != nil {
		return d.journal.Close()
	}
	return nil
}

func main() {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "path to YAML config (defaults built in)")
	flag.StringVar(&f.grpcAddr, "grpc-addr", "", "gRPC listen address (overrides config)")
	flag.StringVar(&f.httpAddr, "http-addr", "", "HTTP listen address (overrides config)")
	flag.StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flag.Parse()

	cfg, err := config.LoadOrDefault(f.configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	applyFlags(cfg, f)

	logger.SetDefault(logger.NewFormat(cfg.LogFormat, cfg.LogLevel, os.Stdout))

	d, err := newDaemon(cfg)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer d.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	// TODO: Configure gRPC server security (e.g., TLS, authentication)
	// before exposing this service beyond localhost.
	grpcServer := grpc.NewServer()
	simd.RegisterSimulatorServiceServer(grpcServer, d.grpc)

	if addr := cfg.Server.GRPCAddr; addr != "" {
		grpcLis, err := net.Listen("tcp", addr)
		if err != nil {
			logger.Error("failed to listen for gRPC", "addr", addr, "error", err)
			stop()
			d.Close()
			os.Exit(1)
		}
		go func() {
			logger.Info("gRPC server listening", "addr", addr)
			if err := grpcServer.Serve(grpcLis); err != nil {
				logger.Error("gRPC server error", "error", err)
				stop()
			}
		}()
	}

	// No WriteTimeout: the state stream is long-lived.
	httpSrv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           d.http.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	if httpSrv.Addr != "" {
		go func() {
			logger.Info("HTTP server listening", "addr", httpSrv.Addr)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "error", err)
				stop()
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutdown requested")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
	grpcServer.GracefulStop()
	d.notifier.Wait()
	logger.Info("shutdown complete")
}
