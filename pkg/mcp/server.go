// Package mcp serves Promptsmith tools over the Model Context Protocol on
// stdio, one JSON-RPC message per line.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/pario-ai/promptsmith/pkg/budget"
	"github.com/pario-ai/promptsmith/pkg/models"
	"github.com/pario-ai/promptsmith/pkg/tracker"
)

const maxLine = 1 << 20

// Resolver answers prompt requests.
type Resolver interface {
	Resolve(ctx context.Context, req models.PromptRequest) (models.PromptResponse, error)
}

// CacheStatter reports cache statistics.
type CacheStatter interface {
	Stats(ctx context.Context) (models.CacheStats, error)
}

// Deps are the collaborators behind the tools. Any of them may be nil; the
// matching tool then reports that it is not configured.
type Deps struct {
	Resolver Resolver
	Cache    CacheStatter
	Tracker  tracker.Tracker
	Budget   *budget.Allocator
}

// Server is a minimal MCP server.
type Server struct {
	deps    Deps
	version string
}

// New creates an MCP Server.
func New(deps Deps, version string) *Server {
	return &Server{deps: deps, version: version}
}

// Run reads requests from r and writes responses to w until r is exhausted
// or ctx is cancelled.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.write(w, errorResponse(nil, CodeParseError, "parse error"))
			continue
		}
		if resp := s.dispatch(ctx, &req); resp != nil {
			s.write(w, resp)
		}
	}
	return scanner.Err()
}

// dispatch returns nil for notifications.
func (s *Server) dispatch(ctx context.Context, req *Request) *Response {
	switch req.Method {
	case "initialize":
		return resultResponse(req.ID, InitializeResult{
			ProtocolVersion: protocolVersion,
			ServerInfo:      ServerInfo{Name: "promptsmith", Version: s.version},
			Capabilities:    map[string]any{"tools": map[string]any{}},
		})
	case "notifications/initialized":
		return nil
	case "ping":
		return resultResponse(req.ID, map[string]any{})
	case "tools/list":
		return resultResponse(req.ID, ToolsListResult{Tools: toolDefinitions()})
	case "tools/call":
		var params ToolCallParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, CodeInvalidParams, "invalid params")
		}
		t, ok := toolByName(params.Name)
		if !ok {
			return resultResponse(req.ID, errorResult(fmt.Sprintf("unknown tool: %s", params.Name)))
		}
		return resultResponse(req.ID, t.handle(ctx, s, params.Arguments))
	default:
		if len(req.ID) == 0 {
			return nil
		}
		return errorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("unknown method: %s", req.Method))
	}
}

func (s *Server) write(w io.Writer, resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		log.Printf("mcp: marshal error: %v", err)
		return
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		log.Printf("mcp: write error: %v", err)
	}
}
