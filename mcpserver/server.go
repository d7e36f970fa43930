// Package mcpserver exposes prompt analysis as Model Context Protocol tools,
// so AI assistants can score and rewrite prompts while they work.
package mcpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/guiperry/promptinspector"
	"github.com/guiperry/promptinspector/utils"
)

const Name = "promptinspector"

// ErrMissingAnalyzer is returned when no Analyzer is given.
var ErrMissingAnalyzer = errors.New("mcpserver: analyzer is required")

// Analyzer is the operation the tools call. *promptinspector.Inspector
// implements it.
type Analyzer interface {
	Analyze(ctx context.Context, req promptinspector.Request) (*promptinspector.Response, error)
}

type Server struct {
	analyzer Analyzer
	logger   utils.Logger
	server   *mcp.Server
}

func New(a Analyzer, version string, logger utils.Logger) (*Server, error) {
	if a == nil {
		return nil, ErrMissingAnalyzer
	}
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	s := &Server{
		analyzer: a,
		logger:   logger,
		server:   mcp.NewServer(&mcp.Implementation{Name: Name, Version: version}, nil),
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdio until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is done.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background()) //nolint:errcheck
	}()

	s.logger.Info("MCP server listening", "addr", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
