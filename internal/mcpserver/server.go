package mcpserver

import (
	"io"
	"os"

	"cortexast/internal/logging"
	"cortexast/internal/router"
)

// Server is CortexAST's single-repo MCP server: one resolved repo root, one
// Router, one stdio Transport. Unlike teacher MCPServer (which juggles a
// registry of repos and one query.Engine per repo), CortexAST resolves its
// repo root once at startup via internal/reporoot and never multiplexes.
type Server struct {
	transport *Transport
	router    *router.Router
	logger    *logging.Logger
	version   string
}

// New builds a Server bound to one already-wired Router.
func New(r *router.Router, logger *logging.Logger, version string) *Server {
	return &Server{
		transport: NewTransport(os.Stdin, os.Stdout),
		router:    r,
		logger:    logger,
		version:   version,
	}
}

// NewWithIO is New with explicit in/out, for tests.
func NewWithIO(r *router.Router, logger *logging.Logger, version string, in io.Reader, out io.Writer) *Server {
	return &Server{
		transport: NewTransport(in, out),
		router:    r,
		logger:    logger,
		version:   version,
	}
}

// Serve reads and dispatches messages until the input stream closes.
func (s *Server) Serve() error {
	for {
		msg, err := s.transport.ReadMessage()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			s.logger.Error("failed to read message", map[string]interface{}{"error": err.Error()})
			continue
		}

		resp := s.handleMessage(msg)
		if resp == nil {
			continue
		}
		if err := s.transport.WriteMessage(*resp); err != nil {
			s.logger.Error("failed to write message", map[string]interface{}{"error": err.Error()})
		}
	}
}
