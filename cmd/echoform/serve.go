package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/echoform/echoform/pkg/bus"
	"github.com/echoform/echoform/pkg/channels"
	"github.com/echoform/echoform/pkg/engine"
	"github.com/echoform/echoform/pkg/heartbeat"
	"github.com/echoform/echoform/pkg/logger"
	"github.com/echoform/echoform/pkg/web"
)

func newServeCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway: HTTP API, Discord channel, and heartbeat",
		Long:  "Start the cognitive loop with all configured surfaces attached. Stops cleanly on SIGINT/SIGTERM.",
		RunE: func(cmd *cobra.Command, args []string) error {
			applyDebug(debug)
			return runServe()
		},
	}
	debugFlag(cmd, &debug)

	return cmd
}

func runServe() error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messageBus := bus.NewBus()
	defer messageBus.Close()

	go engine.NewLoop(rt.engine, messageBus).Run(ctx)

	manager, err := channels.NewManager(rt.cfg, messageBus)
	if err != nil {
		return err
	}
	if err := manager.StartAll(ctx); err != nil {
		return err
	}

	if rt.cfg.Heartbeat.Enabled {
		go heartbeat.New(rt.engine, rt.cfg.Heartbeat.Schedule).Run(ctx)
	}

	server := web.NewServer(rt.cfg, rt.engine)
	serverErr := make(chan error, 1)
	go func() { serverErr <- server.Start() }()

	logger.InfoCF("main", "Gateway running", map[string]interface{}{
		"version": formatVersion(),
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		logger.InfoCF("main", "Shutting down", map[string]interface{}{"signal": s.String()})
	case err := <-serverErr:
		if err != nil {
			logger.ErrorCF("main", "Web server failed", map[string]interface{}{"error": err.Error()})
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WarnCF("main", "Web server shutdown error", map[string]interface{}{"error": err.Error()})
	}
	if err := manager.StopAll(shutdownCtx); err != nil {
		logger.WarnCF("main", "Channel shutdown error", map[string]interface{}{"error": err.Error()})
	}
	cancel()

	return nil
}
