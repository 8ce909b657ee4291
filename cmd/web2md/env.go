package main

import (
	"io"
	"os"
	"time"

	web2md "github.com/alnah/go-web2md"
)

// Pool runs conversions on a bounded set of converters.
type Pool interface {
	web2md.Runner
	Size() int
	Close() error
}

// Compile-time interface implementation check.
var _ Pool = (*web2md.ConverterPool)(nil)

// PoolFactory builds the pool used by a command.
type PoolFactory func(size int, opts ...web2md.Option) Pool

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now     func() time.Time
	Stdout  io.Writer
	Stderr  io.Writer
	NewPool PoolFactory
}

// DefaultEnv returns the production environment backed by real browsers.
func DefaultEnv() *Environment {
	return &Environment{
		Now:    time.Now,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		NewPool: func(size int, opts ...web2md.Option) Pool {
			return web2md.NewConverterPool(size, opts...)
		},
	}
}
