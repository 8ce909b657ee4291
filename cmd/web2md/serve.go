package main

import (
	"context"
	"fmt"

	web2md "github.com/alnah/go-web2md"
	"github.com/alnah/go-web2md/internal/assets"
	"github.com/alnah/go-web2md/internal/config"
	"github.com/alnah/go-web2md/internal/journal"
	"github.com/alnah/go-web2md/internal/logging"
	"github.com/alnah/go-web2md/internal/server"
)

// runServe starts the HTTP server and blocks until ctx is done.
func runServe(ctx context.Context, args []string, env *Environment) error {
	flags, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return flagError(err)
	}

	s, err := loadSettings(flags.common, env.Stderr, func(cfg *config.Config) error {
		if flags.host != "" {
			cfg.Server.Host = flags.host
		}
		if flags.port > 0 {
			cfg.Server.Port = flags.port
		}
		if flags.journal != "" {
			cfg.Journal.Path = flags.journal
		}
		if flags.style != "" {
			cfg.Output.Style = flags.style
		}
		return mergePipelineFlags(cfg, flags.pipeline, flags.render, flags.ocr)
	})
	if err != nil {
		return withHint(err, nil)
	}

	resolver, err := assets.NewResolver(s.cfg.Assets.BasePath)
	if err != nil {
		return err
	}
	css, err := resolver.LoadStyle(s.cfg.Output.Style)
	if err != nil {
		return withHint(err, s)
	}
	if resolver.HasCustomLoader() {
		s.log.Info().Str("path", s.cfg.Assets.BasePath).Msg("custom assets enabled")
	}

	srvOpts := []server.Option{
		server.WithLogger(logging.Component(s.log, "http")),
		server.WithCSS(css),
		server.WithClock(env.Now),
	}
	var extra []web2md.Option
	if path := s.cfg.Journal.Path; path != "" {
		j, err := journal.Open(path)
		if err != nil {
			return fmt.Errorf("opening journal: %w", err)
		}
		defer j.Close()
		extra = append(extra, web2md.WithRecorder(j))
		srvOpts = append(srvOpts, server.WithHistory(j, s.cfg.Journal.HistoryLimit))
		s.log.Info().Str("path", path).Msg("journal enabled")
	}

	pool := env.NewPool(s.poolSize(0), s.converterOptions(extra...)...)
	defer pool.Close()

	srv := server.New(pool, srvOpts...)
	return withHint(srv.ListenAndServe(ctx, s.cfg.Server.Addr()), s)
}
