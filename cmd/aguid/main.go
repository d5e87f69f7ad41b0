//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Command aguid runs a standalone AG-UI bridge server. It wires the library's
// agui.Server against an inner agent and serves it over HTTP/SSE.
//
// Usage:
//
//	aguid --listen :8080 --path /agui --log-level debug
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/agui-bridge/agui-run"
	"github.com/agui-bridge/agui-run/agent"
	"github.com/agui-bridge/agui-run/internal/log"
	"github.com/agui-bridge/agui-run/runner"
)

// Version is set at build time.
var Version = "dev"

// config holds the daemon's command-line configuration.
type config struct {
	listenAddr string
	path       string
	logLevel   string
}

func defaultConfig() config {
	return config{
		listenAddr: ":8080",
		path:       "/agui",
		logLevel:   log.LevelInfo,
	}
}

func main() {
	cfg := defaultConfig()

	rootCmd := &cobra.Command{
		Use:   "aguid",
		Short: "AG-UI bridge server",
		Long: `aguid serves the AG-UI protocol bridge over HTTP/SSE, translating an
inner agent's streaming Updates into AG-UI wire events.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.SetLevel(cfg.logLevel)

			r := runner.New(&echoAgent{})
			srv, err := agui.New(r, agui.WithPath(cfg.path))
			if err != nil {
				return fmt.Errorf("aguid: build server: %w", err)
			}

			mux := http.NewServeMux()
			mux.Handle(srv.Path(), srv.Handler())

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			httpSrv := &http.Server{Addr: cfg.listenAddr, Handler: mux}
			go func() {
				<-ctx.Done()
				log.Info("aguid: shutting down")
				_ = httpSrv.Close()
			}()

			log.Infof("aguid: listening on %s%s (version %s)", cfg.listenAddr, srv.Path(), Version)
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("aguid: serve: %w", err)
			}
			return nil
		},
	}

	rootCmd.Flags().StringVar(&cfg.listenAddr, "listen", cfg.listenAddr, "HTTP listen address")
	rootCmd.Flags().StringVar(&cfg.path, "path", cfg.path, "AG-UI endpoint path")
	rootCmd.Flags().StringVar(&cfg.logLevel, "log-level", cfg.logLevel, "log level (debug, info, warn, error)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("aguid %s\n", Version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// echoAgent is a minimal inner agent used when aguid is run standalone
// without a real agent wired in: it echoes the latest user message back as a
// single text update. Real deployments call runner.New with their own
// agent.Agent implementation instead of this one.
type echoAgent struct{}

func (echoAgent) RunStream(ctx context.Context, messages []agent.Message, opts agent.Options) (<-chan agent.Update, <-chan error) {
	updates := make(chan agent.Update, 1)
	errs := make(chan error, 1)

	var reply string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != agent.RoleUser {
			continue
		}
		for _, c := range messages[i].Contents {
			if c.Kind == agent.ContentText {
				reply = c.Text
			}
		}
		break
	}
	if reply == "" {
		reply = "hello"
	}

	go func() {
		defer close(updates)
		defer close(errs)
		updates <- agent.Update{
			Contents:   []agent.ContentItem{{Kind: agent.ContentText, Text: "echo: " + reply}},
			ResponseID: uuid.NewString(),
			Done:       true,
		}
	}()
	return updates, errs
}
