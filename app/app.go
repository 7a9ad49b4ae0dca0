// Package app assembles and runs the bridge from command line options.
package app

import (
	"context"
	"net/http"

	"github.com/jessevdk/go-flags"
	"github.com/viant/gosh"
	"github.com/viant/gosh/runner/local"
	"github.com/viant/mcp-bridge/auth"
	"github.com/viant/mcp-bridge/bridge"
	"github.com/viant/mcp-bridge/config"
	"github.com/viant/mcp-bridge/example/toolset"
	"github.com/viant/mcp-bridge/logging"
	"github.com/viant/mcp-bridge/openai"
	"github.com/viant/mcp-bridge/server"
	"github.com/viant/mcp-bridge/tool"
)

// Options holds the command line options.
type Options struct {
	ConfigURL string `short:"c" long:"config" description:"config file or URL" required:"true"`
	Addr      string `short:"a" long:"addr" description:"listen address, overrides config"`
}

// Run parses args, assembles the bridge and serves until the listener fails.
func Run(args []string) error {
	options := &Options{}
	_, err := flags.ParseArgs(options, args)
	if err != nil {
		return err
	}
	ctx := context.Background()
	srv, err := New(ctx, options)
	if err != nil {
		return err
	}
	return srv.HTTP(ctx, options.Addr).ListenAndServe()
}

// New builds a bridge server from options.
func New(ctx context.Context, options *Options) (*server.Server, error) {
	cfg, err := config.Load(ctx, options.ConfigURL)
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Logging.Level)

	registry := tool.NewRegistry(tool.WithLogger(logger))
	if err = registerToolsets(ctx, registry, &cfg.Toolsets); err != nil {
		return nil, err
	}

	var clientOptions []openai.ClientOption
	if cfg.Inference.APIKey != "" {
		clientOptions = append(clientOptions, openai.WithAPIKey(cfg.Inference.APIKey))
	}
	clientOptions = append(clientOptions,
		openai.WithHTTPClient(&http.Client{Timeout: cfg.Inference.Timeout()}),
		openai.WithLogger(logger))
	client := openai.NewClient(cfg.Inference.URL, clientOptions...)
	loop := bridge.New(client, registry, bridge.WithLogger(logger))

	serverOptions := []server.Option{
		server.WithRegistry(registry),
		server.WithCompletionLoop(loop),
		server.WithLogger(logger),
		server.WithAddr(cfg.Network.Address()),
	}
	authenticator := auth.New(cfg.Security.Auth, auth.WithLogger(logger))
	if authenticator.Enabled() {
		serverOptions = append(serverOptions, server.WithAuthorizer(authenticator.Middleware))
	}
	if cfg.Security.CORS != nil {
		serverOptions = append(serverOptions, server.WithCORS(cfg.Security.CORS))
	}
	if cfg.SSE.URI != "" && cfg.SSE.MessageURI != "" {
		serverOptions = append(serverOptions, server.WithSSEURIs(cfg.SSE.URI, cfg.SSE.MessageURI))
	}
	return server.New(serverOptions...)
}

func registerToolsets(ctx context.Context, registry *tool.Registry, cfg *config.Toolsets) error {
	set := tool.NewToolset()
	registered := false
	if cfg.FsBaseURL != "" {
		if err := toolset.RegisterFsTools(set, &toolset.FsConfig{BaseURL: cfg.FsBaseURL}); err != nil {
			return err
		}
		registered = true
	}
	if cfg.Terminal {
		service, err := gosh.New(ctx, local.New())
		if err != nil {
			return err
		}
		if err = toolset.RegisterTerminalTool(set, service); err != nil {
			return err
		}
		registered = true
	}
	if !registered {
		return nil
	}
	return registry.Register(ctx, "local", set)
}
