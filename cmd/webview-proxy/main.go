package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"webview-proxy-go/internal/client"
	"webview-proxy-go/internal/codec"
	"webview-proxy-go/internal/config"
	"webview-proxy-go/internal/endpoint"
	"webview-proxy-go/internal/handler"
	"webview-proxy-go/internal/metrics"
	"webview-proxy-go/internal/server"
	"webview-proxy-go/internal/service"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type cli struct {
	Serve   serveCmd         `cmd:"" default:"withargs" help:"Run the local proxy listener (default)."`
	URL     urlCmd           `cmd:"" name:"url" help:"Print the proxy URL for a target without starting the listener."`
	Version kong.VersionFlag `help:"Print version and exit."`
}

type serveCmd struct {
	Options config.CLI `embed:""`
}

func (s *serveCmd) Run() error {
	app := fx.New(
		fx.Provide(
			func() *config.CLI { return &s.Options },
			func() handler.Version { return handler.Version(version) },
			config.Load,
			newLogger,
			metrics.New,
			endpoint.NewRegistry,
			server.NewEcho,
			client.NewUpstreamClient,
			service.NewProxyService,
			handler.NewProxyHandler,
			handler.NewHealthHandler,
			handler.NewLookupHandler,
			server.New,
		),
		fx.Invoke(handler.RegisterRoutes, warnConfigPermissions, server.Register),
	)
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}

type urlCmd struct {
	Port   int      `short:"p" default:"1430" help:"Port the listener is bound to."`
	Header []string `short:"H" sep:"none" help:"Declared header as Name:Value. Repeatable."`
	Target string   `arg:"" help:"Absolute http(s) target URL."`
}

func (u *urlCmd) Run() error {
	if _, err := codec.ParseTarget(u.Target); err != nil {
		return err
	}
	fmt.Println(endpoint.FormatURL(u.Port, u.Target, codec.ParseHeaders(u.Header)))
	return nil
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	var c cli
	kctx := kong.Parse(&c,
		kong.Name("webview-proxy"),
		kong.Description("Local forwarding proxy for restricted web views."),
		kong.Vars{"version": fmt.Sprintf("%s (%s, %s)", version, commit, date)},
	)
	kctx.FatalIfErrorf(kctx.Run())
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch strings.ToLower(cfg.Log.Format) {
	case "text":
		h = slog.NewTextHandler(os.Stdout, opts)
	default:
		h = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(h)
}

func warnConfigPermissions(cfg *config.Config, logger *slog.Logger) {
	cfg.WarnPermissions(logger)
}
