package main

import (
	"context"
	"errors"
	"io"

	runtimepkg "github.com/drblury/protoenclave/internal/runtime"
	"github.com/drblury/protoenclave/internal/runtime/config"
	loggingpkg "github.com/drblury/protoenclave/internal/runtime/logging"
)

var newService = runtimepkg.NewService

func runServe(ctx context.Context, args []string, stderr io.Writer) error {
	fs := newFlagSet("serve", stderr)
	configPath := fs.String("config", "", "YAML config file")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	conf, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	log, err := newLogger(conf, stderr)
	if err != nil {
		return err
	}

	// The signal context from main stops the router, so the router's own
	// signal plugin stays off.
	svc, err := newService(conf, log, ctx, runtimepkg.ServiceDependencies{DisableSignalHandler: true})
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Error("Failed to close enclave service", err, nil)
		}
	}()

	log.Info("Enclave service starting", loggingpkg.LogFields{
		"transport":      svc.Capabilities().Name,
		"request_topic":  conf.Service.RequestTopic,
		"response_topic": conf.Service.ResponseTopic,
	})
	if err := svc.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
