// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes Gebo tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/gebo/internal/comps"
	"github.com/starford/gebo/internal/index"
	"github.com/starford/gebo/internal/models"
	"github.com/starford/gebo/internal/storage"
)

// Server wraps the MCP server with Gebo tools.
type Server struct {
	mcp  *server.MCPServer
	repo *comps.Repository
	db   index.CompIndex
	fs   *storage.FS
}

// New creates a new MCP server with all Gebo tools registered.
func New(repo *comps.Repository, db index.CompIndex, fs *storage.FS) *Server {
	s := &Server{repo: repo, db: db, fs: fs}

	s.mcp = server.NewMCPServer(
		"Gebo",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_comps",
		mcp.WithDescription("List every comp name in the library, optionally filtered by tag."),
		mcp.WithString("tag", mcp.Description("Optional tag filter")),
	), s.listComps)

	s.mcp.AddTool(mcp.NewTool("read_comp",
		mcp.WithDescription("Read a comp record: notes, item list, tags, and last-edited time."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Comp name (case-insensitive)")),
	), s.readComp)

	s.mcp.AddTool(mcp.NewTool("search_comps",
		mcp.WithDescription("Full-text search through comp names, notes, items, and tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchComps)

	s.mcp.AddTool(mcp.NewTool("planner_match",
		mcp.WithDescription("Given a comma-separated list of owned items, list comps whose "+
			"required items include every owned item."),
		mcp.WithString("items", mcp.Required(), mcp.Description("Comma-separated owned item names")),
	), s.plannerMatch)

	s.mcp.AddTool(mcp.NewTool("add_comp",
		mcp.WithDescription("Create a new empty comp. Read the record format first via the "+
			"get_comp_contract tool or the gebo://comp-format resource."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name for the new comp")),
	), s.addComp)

	s.mcp.AddTool(mcp.NewTool("get_comp_contract",
		mcp.WithDescription("Returns the canonical comp record format. Call this before "+
			"creating or updating comps to ensure correct structure."),
	), s.getCompContract)

	s.mcp.AddTool(mcp.NewTool("save_image",
		mcp.WithDescription("Persist a base64-encoded image into the library's images "+
			"directory and return the relative path to reference from notes."),
		mcp.WithString("data", mcp.Required(), mcp.Description("Base64-encoded image bytes")),
		mcp.WithString("filename", mcp.Description("Optional filename; generated when empty")),
	), s.saveImage)

	// Resource: comp record contract.
	s.mcp.AddResource(
		mcp.NewResource("gebo://comp-format", "Comp Record Contract",
			mcp.WithResourceDescription("Canonical comp record shape stored in the library."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readCompFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listComps(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag := ""
	if v, err := req.RequireString("tag"); err == nil {
		tag = v
	}

	var names []string
	for _, n := range s.repo.Query("", tag) {
		names = append(names, n.Name)
	}
	if len(names) == 0 {
		return mcp.NewToolResultText("no comps found"), nil
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func (s *Server) readComp(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.repo.Get(name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", name)), nil
	}
	out, _ := json.MarshalIndent(map[string]any{
		"name":    models.NormalizeName(name),
		"display": models.DisplayName(models.NormalizeName(name)),
		"comp":    rec,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchComps(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.db.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) plannerMatch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("items")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var owned []string
	for _, it := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(it); trimmed != "" {
			owned = append(owned, trimmed)
		}
	}

	var names []string
	for _, n := range s.repo.PlannerMatch(owned) {
		names = append(names, n.Name)
	}
	if len(names) == 0 {
		return mcp.NewToolResultText("no matching comps"), nil
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func (s *Server) addComp(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.repo.Add(name); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", models.NormalizeName(name))), nil
}

func (s *Server) getCompContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(CompFormatContract), nil
}

func (s *Server) readCompFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "gebo://comp-format",
			MIMEType: "text/markdown",
			Text:     CompFormatContract,
		},
	}, nil
}
