package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"

	runtimepkg "github.com/drblury/protoenclave/internal/runtime"
	"github.com/drblury/protoenclave/internal/runtime/codec"
	"github.com/drblury/protoenclave/internal/runtime/config"
	"github.com/drblury/protoenclave/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/protoenclave/internal/runtime/logging"
)

// responseSummary is the inspect output. The proof is hex encoded.
type responseSummary struct {
	RequestID    string `json:"request_id"`
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
	ProofHex     string `json:"proof_hex,omitempty"`
	ProofBytes   int    `json:"proof_bytes"`
}

func runProcess(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := newFlagSet("process", stderr)
	configPath := fs.String("config", "", "YAML config file")
	in := fs.String("in", "", "request file (stdin when empty)")
	out := fs.String("out", "", "response file (stdout when empty)")
	format := fs.String("format", "", "wire format override: binary or json")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	conf, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *format != "" {
		conf.Codec.Format = *format
	}
	if err := config.ValidateConfig(conf); err != nil {
		return err
	}

	log, err := newLogger(conf, stderr)
	if err != nil {
		return err
	}
	engine, err := runtimepkg.NewEngineFromConfig(conf, log)
	if err != nil {
		return err
	}

	raw, err := readInput(*in, stdin)
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	resp, tr := engine.ProcessWithTrace(ctx, raw)
	if resp == nil {
		return fmt.Errorf("boundary returned the null sentinel (%s): %w", tr.Reason, tr.Err)
	}
	return writeOutput(*out, stdout, resp)
}

func runInspect(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := newFlagSet("inspect", stderr)
	in := fs.String("in", "", "response file (stdin when empty)")
	format := fs.String("format", "binary", "wire format: binary or json")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	f, err := codec.ParseFormat(*format)
	if err != nil {
		return err
	}
	raw, err := readInput(*in, stdin)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	resp, err := codec.New(codec.WithFormat(f)).DecodeResponse(raw)
	if err != nil {
		return err
	}

	return jsoncodec.EncodeIndent(stdout, responseSummary{
		RequestID:    resp.RequestID,
		Success:      resp.Success,
		ErrorMessage: resp.ErrorMessage,
		ProofHex:     hex.EncodeToString(resp.ProofData),
		ProofBytes:   len(resp.ProofData),
	})
}

func newLogger(conf *config.Config, w io.Writer) (loggingpkg.ServiceLogger, error) {
	slogger, err := loggingpkg.NewSlogLogger(w, conf.Log.Level, conf.Log.Format)
	if err != nil {
		return nil, err
	}
	return loggingpkg.NewSlogServiceLogger(slogger), nil
}
