package worker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/cloudflare/tableflip"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/OwenCochell/mctools/config"
	"github.com/OwenCochell/mctools/core"
)

// LoadTargets reads the monitor config at configPath together with its target files.
func LoadTargets(configPath string) (config.MonitorConfig, []config.Target, error) {
	monitorReader := config.NewMonitorConfigFileReader(configPath)
	cfg, err := monitorReader()
	if err != nil {
		return config.MonitorConfig{}, nil, err
	}
	targetCfgs, err := config.NewTargetConfigFileReader(monitorReader, config.Verify).Read()
	if err != nil {
		return config.MonitorConfig{}, nil, err
	}
	targets, err := config.NewTargets(cfg, targetCfgs)
	if err != nil {
		return config.MonitorConfig{}, nil, err
	}
	return cfg, targets, nil
}

// RunMonitor runs the monitor daemon until SIGINT or SIGTERM. With hot swap enabled the
// metrics listener is handed over to a new process on SIGHUP.
func RunMonitor(configPath, version string) error {
	cfg, targets, err := LoadTargets(configPath)
	if err != nil {
		return err
	}
	core.InitLogger(cfg.Log)
	log := core.ComponentLogger("monitor")

	monitor, err := NewMonitor(targets, cfg.Workers, WithLogger(log))
	if err != nil {
		return err
	}

	notUseHotSwap := !cfg.EnableHotSwap || runtime.GOOS == "windows" || version == "docker"
	var upg *tableflip.Upgrader
	if !notUseHotSwap {
		upg, err = newUpgrader(cfg, log)
		if err != nil {
			monitor.Close()
			return err
		}
		defer upg.Stop()
	}
	ln, err := createListener(cfg, upg)
	if err != nil {
		monitor.Close()
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := metricsServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()
	log.Info().Str("bind", cfg.MetricsBind).Msg("serving metrics")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	monitorDone := make(chan error, 1)
	go func() {
		monitorDone <- monitor.Run(ctx)
	}()

	if upg != nil {
		if err := upg.Ready(); err != nil {
			stop()
			<-monitorDone
			return err
		}
		select {
		case <-upg.Exit():
			log.Info().Msg("handed over to new process")
		case <-ctx.Done():
		}
	} else {
		<-ctx.Done()
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("metrics server shutdown")
	}
	return <-monitorDone
}

func newUpgrader(cfg config.MonitorConfig, log zerolog.Logger) (*tableflip.Upgrader, error) {
	if cfg.PidFile != "" {
		if _, err := os.Stat(cfg.PidFile); errors.Is(err, os.ErrNotExist) {
			pid := fmt.Sprint(os.Getpid())
			if err := os.WriteFile(cfg.PidFile, []byte(pid), 0o644); err != nil {
				log.Warn().Err(err).Str("path", cfg.PidFile).Msg("could not write pid file")
			}
		}
	}
	upg, err := tableflip.New(tableflip.Options{
		PIDFile: cfg.PidFile,
	})
	if err != nil {
		return nil, err
	}
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGHUP)
		for range sig {
			if err := upg.Upgrade(); err != nil {
				log.Error().Err(err).Msg("upgrade failed")
			}
		}
	}()
	return upg, nil
}

func createListener(cfg config.MonitorConfig, upg *tableflip.Upgrader) (net.Listener, error) {
	if upg == nil {
		return net.Listen("tcp", cfg.MetricsBind)
	}
	return upg.Listen("tcp", cfg.MetricsBind)
}
