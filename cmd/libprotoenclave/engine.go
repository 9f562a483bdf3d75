package main

import (
	"os"
	"sync"

	runtimepkg "github.com/drblury/protoenclave/internal/runtime"
	"github.com/drblury/protoenclave/internal/runtime/codec"
	"github.com/drblury/protoenclave/internal/runtime/config"
	loggingpkg "github.com/drblury/protoenclave/internal/runtime/logging"
)

// ConfigPathEnv optionally points the library at a YAML config file.
// PROTOENCLAVE_* variables apply either way.
const ConfigPathEnv = "PROTOENCLAVE_CONFIG"

var boundaryEngine = sync.OnceValue(func() *runtimepkg.Engine {
	return newEngine(os.Getenv(ConfigPathEnv))
})

// newEngine never fails: a broken config falls back to the defaults so the
// host still gets a working boundary, and the problem is logged to stderr.
func newEngine(configPath string) *runtimepkg.Engine {
	conf, loadErr := config.Load(configPath)
	if loadErr == nil {
		loadErr = config.ValidateConfig(conf)
	}
	if loadErr != nil {
		conf = config.Default()
	}
	// The host contract is binary protobuf regardless of codec.format.
	conf.Codec.Format = string(codec.FormatBinary)

	slogger, err := loggingpkg.NewSlogLogger(os.Stderr, conf.Log.Level, conf.Log.Format)
	if err != nil {
		return runtimepkg.NewEngine()
	}
	log := loggingpkg.NewSlogServiceLogger(slogger).With(loggingpkg.LogFields{"component": "libprotoenclave"})
	if loadErr != nil {
		log.Error("Invalid boundary config, using defaults", loadErr, loggingpkg.LogFields{"path": configPath})
	}

	engine, err := runtimepkg.NewEngineFromConfig(conf, log)
	if err != nil {
		log.Error("Failed to build boundary engine, using defaults", err, nil)
		return runtimepkg.NewEngine(runtimepkg.WithEngineLogger(log))
	}
	return engine
}

// recordHostFault counts a boundary fault. It must not panic: it runs from
// the deferred recover in ProcessEnclaveRequest, and a failed engine
// initialisation re-panics on every boundaryEngine call.
func recordHostFault(reason string) {
	defer func() { _ = recover() }()
	boundaryEngine().RecordHostFault(reason)
}

// hostArgsValid rejects a missing output length, a negative length and a
// NULL buffer with a non-zero length. A NULL buffer of length zero is the
// empty request.
func hostArgsValid(dataNil bool, length int, outLenNil bool) bool {
	if outLenNil || length < 0 {
		return false
	}
	return !dataNil || length == 0
}
