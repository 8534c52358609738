package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/ironsheep/image-convert-mcp/internal/config"
	"github.com/ironsheep/image-convert-mcp/internal/convert"
	"github.com/ironsheep/image-convert-mcp/internal/logging"
	"github.com/ironsheep/image-convert-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const name = "image-convert-mcp"

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
		os.Exit(1)
	}
}

// app holds what every mode needs once configuration is loaded.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	conv   *convert.Converter
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		switch args[0] {
		case "--version", "-v", "version":
			fmt.Fprintf(stdout, "%s %s\n", name, Version)
			fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
			return nil
		case "--help", "-h", "help":
			printUsage(stdout)
			return nil
		}
	}

	a, err := setup(stderr)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		switch args[0] {
		case "convert":
			return runConvert(context.Background(), a, args[1:], stdin, stdout)
		case "identify":
			return runIdentify(context.Background(), a, args[1:], stdout)
		}
	}
	return runServer(a, args, stdin, stdout)
}

func setup(stderr io.Writer) (*app, error) {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := logging.NewWithWriter(logging.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: name,
		Version: Version,
	}, stderr)

	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		logger.Warn().Err(envErr).Msg("failed to load .env file")
	}
	logger.Debug().
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Str("config_file", cfg.ConfigPath).
		Int("workers", cfg.Workers).
		Int64("max_memory", cfg.MaxMemoryBytes).
		Msg("configuration loaded")

	conv := convert.New(
		convert.WithDefaults(cfg.Defaults),
		convert.WithLogger(logger),
	)
	return &app{cfg: cfg, logger: logger, conv: conv}, nil
}

func runServer(a *app, args []string, stdin io.Reader, stdout io.Writer) error {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	httpAddr := flags.String("http", a.cfg.HTTPAddr, "serve the HTTP API on this address instead of MCP on stdio")
	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("%w (see --help)", err)
	}

	pool := convert.NewPool(a.conv, a.cfg.Workers)
	defer pool.Close()

	srv := server.New(a.conv,
		server.WithLogger(a.logger),
		server.WithPool(pool),
		server.WithVersion(Version),
		server.WithBaseDir(a.cfg.AllowedDir),
	)

	if *httpAddr != "" {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return srv.ListenAndServe(ctx, *httpAddr)
	}

	a.logger.Info().Str("version", Version).Msg("mcp server starting on stdio")
	return srv.Serve(context.Background(), stdin, stdout)
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `%[1]s - MCP server for image conversion

Usage:
  %[1]s [--http ADDR]                 Serve MCP on stdio, or HTTP on ADDR
  %[1]s convert -in FILE -out FILE [options]
  %[1]s identify [-ignore-warnings] [-debug] FILE

Options:
  --version, -v    Print version information
  --help, -h       Print this help message

Run "%[1]s convert -h" for conversion options.

Environment variables:
  IMAGE_MCP_CONFIG=path.toml       Configuration file (default %[2]s if present)
  IMAGE_MCP_LOG_LEVEL=debug        debug, info, warn or error
  IMAGE_MCP_LOG_FORMAT=console     json or console
  IMAGE_MCP_WORKERS=4              Concurrent conversions
  IMAGE_MCP_MAX_MEMORY=256MB       Pixel cache ceiling shared by all requests
  IMAGE_MCP_HTTP_ADDR=:8080        Serve HTTP instead of MCP
  IMAGE_MCP_ALLOWED_DIR=/images    Confine file paths to this directory

A .env file in the working directory is loaded first.
Logs are written to stderr; stdout carries the MCP protocol.
`, name, config.DefaultConfigFile)
}
