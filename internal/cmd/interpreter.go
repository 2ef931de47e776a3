package cmd

import (
	"context"

	"github.com/harrison/pydist/internal/config"
	"github.com/harrison/pydist/internal/interp"
)

// Interpreter is what the commands need from the interpreter being packaged.
type Interpreter interface {
	Probe(ctx context.Context) (*interp.Info, error)
	StartSession(ctx context.Context) (Session, error)
}

// Session is a running compile session.
type Session interface {
	Compile(src, dst string) error
	Close() error
}

// InterpreterFactory creates the Interpreter described by cfg.
type InterpreterFactory func(cfg *config.Config) Interpreter

// clientInterpreter adapts interp.Client to Interpreter
type clientInterpreter struct {
	client *interp.Client
}

func newClientInterpreter(cfg *config.Config) Interpreter {
	client := interp.NewClient(cfg.Interpreter)
	client.Timeout = cfg.ProbeTimeout
	return &clientInterpreter{client: client}
}

func (c *clientInterpreter) Probe(ctx context.Context) (*interp.Info, error) {
	return c.client.Probe(ctx)
}

func (c *clientInterpreter) StartSession(ctx context.Context) (Session, error) {
	compiler, err := c.client.StartCompiler(ctx)
	if err != nil {
		return nil, err
	}
	return compiler, nil
}
