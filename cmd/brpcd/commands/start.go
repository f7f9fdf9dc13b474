package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/marmos91/brpc/internal/examples/echo"
	"github.com/marmos91/brpc/internal/logger"
	"github.com/marmos91/brpc/internal/telemetry"
	"github.com/marmos91/brpc/pkg/config"
	"github.com/marmos91/brpc/pkg/dispatch"
	"github.com/marmos91/brpc/pkg/httpcarrier"
	"github.com/marmos91/brpc/pkg/metrics"
	"github.com/marmos91/brpc/pkg/registry"
	"github.com/marmos91/brpc/pkg/server"

	// Register the Prometheus-backed metrics constructors via their init().
	_ "github.com/marmos91/brpc/pkg/metrics/prometheus"
)

var (
	foreground bool
	pidFile    string
	logFile    string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the brpcd server",
	Long: `Start the brpcd server with the specified configuration.

By default, the server runs in the background (daemon mode). Use --foreground
to run in the foreground for debugging or when managed by a process supervisor.

Examples:
  # Start in background (default)
  brpcd start

  # Start in foreground
  brpcd start --foreground

  # Start with custom config file
  brpcd start --config /etc/brpc/config.yaml

  # Start with environment variable overrides
  BRPC_LOGGING_LEVEL=DEBUG brpcd start --foreground`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVarP(&foreground, "foreground", "f", false, "Run in foreground (default: background/daemon mode)")
	startCmd.Flags().StringVar(&pidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/brpc/brpcd.pid)")
	startCmd.Flags().StringVar(&logFile, "log-file", "", "Path to log file for daemon mode (default: $XDG_STATE_HOME/brpc/brpcd.log)")
}

func runStart(cmd *cobra.Command, args []string) error {
	if !foreground {
		return startDaemon()
	}

	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", logger.Err(err))
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.Err(err))
		}
	}()

	fmt.Println("brpcd - brpc-compatible RPC server")
	logger.Info("log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("telemetry disabled")
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint)
	} else {
		logger.Info("profiling disabled")
	}

	var metricsServer *http.Server
	var rpcMetrics metrics.RPCMetrics
	if cfg.Metrics.Enabled {
		reg := metrics.InitRegistry()
		rpcMetrics = metrics.NewRPCMetrics()

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{Addr: cfg.Metrics.Address, Handler: mux}

		go func() {
			logger.Info("metrics server listening", "address", cfg.Metrics.Address)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", logger.Err(err))
			}
		}()
	} else {
		logger.Info("metrics collection disabled")
	}

	reg := registry.New(nil)
	if err := echo.Register(reg); err != nil {
		return fmt.Errorf("failed to register example services: %w", err)
	}
	reg.Start()
	logger.Info("services registered", "services", reg.Services())

	dispatcher := dispatch.New(reg, rpcMetrics)
	srv := server.New(cfg.Server, dispatcher, rpcMetrics)

	var httpServer *http.Server
	if cfg.HTTPCarrier.Enabled {
		httpServer = &http.Server{Addr: cfg.HTTPCarrier.Address, Handler: httpcarrier.New(dispatcher)}
		go func() {
			logger.Info("http carrier listening", "address", cfg.HTTPCarrier.Address)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("http carrier failed", logger.Err(err))
			}
		}()
	}

	if pidFile != "" {
		if err := os.WriteFile(pidFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0644); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Serve(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("server is running, press Ctrl+C to stop", "address", fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.Port))

	var serveErr error
	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received, initiating graceful shutdown")
		cancel()
		serveErr = <-serverDone
	case serveErr = <-serverDone:
		logger.Warn("server exited unexpectedly", logger.Err(serveErr))
	}

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = metricsServer.Shutdown(shutdownCtx)
		shutdownCancel()
	}
	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = httpServer.Shutdown(shutdownCtx)
		shutdownCancel()
	}

	logger.Info("brpcd stopped")
	return serveErr
}

// startDaemon relaunches the current binary in the background with
// --foreground and redirects its output to a log file, detaching it from
// the controlling terminal.
func startDaemon() error {
	stateDir := getDefaultStateDir()
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	resolvedPidFile := pidFile
	if resolvedPidFile == "" {
		resolvedPidFile = filepath.Join(stateDir, "brpcd.pid")
	}
	resolvedLogFile := logFile
	if resolvedLogFile == "" {
		resolvedLogFile = filepath.Join(stateDir, "brpcd.log")
	}

	if data, err := os.ReadFile(resolvedPidFile); err == nil {
		var pid int
		if _, err := fmt.Sscanf(string(data), "%d", &pid); err == nil {
			if proc, err := os.FindProcess(pid); err == nil {
				if err := proc.Signal(syscall.Signal(0)); err == nil {
					return fmt.Errorf("brpcd already running with pid %d (pid file: %s)", pid, resolvedPidFile)
				}
			}
		}
		_ = os.Remove(resolvedPidFile)
	}

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to resolve executable path: %w", err)
	}

	logFileHandle, err := os.OpenFile(resolvedLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFileHandle.Close()

	daemonArgs := []string{"start", "--foreground", "--pid-file", resolvedPidFile, "--log-file", resolvedLogFile}
	if cfgFile != "" {
		daemonArgs = append(daemonArgs, "--config", cfgFile)
	}

	c := exec.Command(executable, daemonArgs...)
	c.Stdout = logFileHandle
	c.Stderr = logFileHandle
	c.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := c.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	fmt.Printf("brpcd started in background (pid %d)\n", c.Process.Pid)
	fmt.Printf("  log file: %s\n", resolvedLogFile)
	fmt.Printf("  pid file: %s\n", resolvedPidFile)
	return nil
}

func getDefaultStateDir() string {
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "brpc")
		}
		stateDir = filepath.Join(homeDir, ".local", "state")
	}
	return filepath.Join(stateDir, "brpc")
}
