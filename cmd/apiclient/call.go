package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"openapi-client-go/internal/client"
	"openapi-client-go/internal/config"
	"openapi-client-go/internal/service"
)

type callCmd struct {
	Method  string            `short:"X" default:"GET" help:"HTTP method."`
	Path    string            `required:"" help:"Request path, relative to the endpoint and URI prefix."`
	Params  map[string]string `name:"param" short:"d" help:"Request parameter as key=value; repeatable."`
	Headers map[string]string `name:"header" short:"H" help:"Request header as key=value; repeatable."`
	Body    string            `help:"Request body as JSON."`
}

// Run performs the call and writes the result to stdout. Logs go to stderr.
func (c *callCmd) Run(globals *config.CLI) error {
	cfg, err := config.Load(globals)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stderr)

	b, err := client.FromConfig(cfg, logger, nil)
	if err != nil {
		return err
	}
	conn, err := b.Connection()
	if err != nil {
		return err
	}

	call := &service.Call{
		Method:  c.Method,
		Path:    c.Path,
		Params:  c.Params,
		Headers: c.Headers,
	}
	if c.Body != "" {
		if err := json.Unmarshal([]byte(c.Body), &call.Body); err != nil {
			return fmt.Errorf("call: --body is not valid JSON: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := service.NewGatewayService(conn, cfg, logger)
	result, err := svc.Perform(ctx, call, http.Header{})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
