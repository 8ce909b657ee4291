package main

import (
	"context"

	"github.com/alnah/go-web2md/internal/config"
	"github.com/alnah/go-web2md/internal/logging"
	"github.com/alnah/go-web2md/internal/mcpserver"
)

// runMCP serves the conversion tool over stdio. Logs go to stderr because
// stdout carries the protocol.
func runMCP(ctx context.Context, args []string, env *Environment) error {
	flags, err := parseMCPFlags(args, env.Stderr)
	if err != nil {
		return flagError(err)
	}

	s, err := loadSettings(flags.common, env.Stderr, func(cfg *config.Config) error {
		return mergePipelineFlags(cfg, flags.pipeline, flags.render, flags.ocr)
	})
	if err != nil {
		return withHint(err, nil)
	}

	pool := env.NewPool(s.poolSize(0), s.converterOptions()...)
	defer pool.Close()

	srv := mcpserver.New(pool, Version, logging.Component(s.log, "mcp"))
	return mcpserver.Run(ctx, srv)
}
