// Package mcp provides an MCP (Model Context Protocol) server for fswparse.
// This allows AI agents to extract command and telemetry dictionaries through
// MCP tools instead of CLI commands.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/flightsw/fswparse/internal/ast"
	"github.com/flightsw/fswparse/internal/dictionary"
	"github.com/flightsw/fswparse/internal/store"
)

// Server wraps the MCP server with fswparse-specific functionality
type Server struct {
	mcpServer    *server.MCPServer
	builder      *dictionary.Builder
	store        *store.Store
	keywords     Keywords
	logger       *slog.Logger
	tools        map[string]bool
	lastActivity time.Time
	timeout      time.Duration
	mu           sync.RWMutex
}

// Keywords are the filters used when a tool call leaves them out.
type Keywords struct {
	Command   string
	Telemetry string
}

// Config holds server configuration
type Config struct {
	Index    ast.Index     // Source reader (required)
	Store    *store.Store  // Run history; nil disables fsw_runs, fsw_show and saving
	Keywords Keywords      // Default keyword filters
	Tools    []string      // Which tools to expose (empty = all available)
	Timeout  time.Duration // Inactivity timeout (0 = no timeout)
	Logger   *slog.Logger
}

// AllTools lists all available tools
var AllTools = []string{"fsw_parse", "fsw_types", "fsw_runs", "fsw_show"}

// storeTools need a run history to work
var storeTools = map[string]bool{"fsw_runs": true, "fsw_show": true}

// New creates a new MCP server for fswparse
func New(cfg Config) (*Server, error) {
	if cfg.Index == nil {
		return nil, fmt.Errorf("mcp server requires a source index")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mcpServer := server.NewMCPServer(
		"fswparse",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s := &Server{
		mcpServer:    mcpServer,
		builder:      dictionary.NewBuilder(cfg.Index, dictionary.WithLogger(logger)),
		store:        cfg.Store,
		keywords:     cfg.Keywords,
		logger:       logger,
		tools:        make(map[string]bool),
		lastActivity: time.Now(),
		timeout:      cfg.Timeout,
	}

	toolsToRegister := cfg.Tools
	if len(toolsToRegister) == 0 {
		for _, name := range AllTools {
			if storeTools[name] && s.store == nil {
				continue
			}
			toolsToRegister = append(toolsToRegister, name)
		}
	}

	for _, toolName := range toolsToRegister {
		if err := s.registerTool(toolName); err != nil {
			return nil, fmt.Errorf("failed to register tool %s: %w", toolName, err)
		}
		s.tools[toolName] = true
	}

	return s, nil
}

// registerTool registers a single tool with the MCP server
func (s *Server) registerTool(name string) error {
	if storeTools[name] && s.store == nil {
		return fmt.Errorf("%s needs the run store, which is disabled", name)
	}

	switch name {
	case "fsw_parse":
		s.registerParseTool()
	case "fsw_types":
		s.registerTypesTool()
	case "fsw_runs":
		s.registerRunsTool()
	case "fsw_show":
		s.registerShowTool()
	default:
		return fmt.Errorf("unknown tool: %s", name)
	}
	return nil
}

// ServeStdio starts the server using stdio transport
func (s *Server) ServeStdio() error {
	if s.timeout > 0 {
		go s.timeoutChecker()
	}

	return server.ServeStdio(s.mcpServer)
}

// timeoutChecker monitors for inactivity and exits if timeout exceeded
func (s *Server) timeoutChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.RLock()
		elapsed := time.Since(s.lastActivity)
		s.mu.RUnlock()

		if elapsed > s.timeout {
			s.logger.Info("serve: timeout after inactivity", "timeout", s.timeout)
			os.Exit(0)
		}
	}
}

// updateActivity updates the last activity timestamp
func (s *Server) updateActivity() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// ListTools returns the sorted list of registered tools
func (s *Server) ListTools() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]string, 0, len(s.tools))
	for t := range s.tools {
		tools = append(tools, t)
	}
	sort.Strings(tools)
	return tools
}

// ToolSchema describes a tool's name, description, and parameters.
type ToolSchema struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description" yaml:"description"`
	Parameters  []ParameterSchema `json:"parameters" yaml:"parameters"`
}

// ParameterSchema describes a single tool parameter.
type ParameterSchema struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
	Required    bool   `json:"required" yaml:"required"`
}

// toolSchemaRegistry holds the schema definitions for all tools.
// These mirror the mcp.NewTool() definitions in the register*Tool() functions.
var toolSchemaRegistry = map[string]ToolSchema{
	"fsw_parse": {
		Name:        "fsw_parse",
		Description: "Extract command and telemetry function signatures, with fully expanded argument types, from two C source files.",
		Parameters: []ParameterSchema{
			{Name: "cmd_file", Type: "string", Description: "Path of the command C source file", Required: true},
			{Name: "tlm_file", Type: "string", Description: "Path of the telemetry C source file", Required: true},
			{Name: "cmd_keyword", Type: "string", Description: "Substring command function names must contain (default from config)"},
			{Name: "tlm_keyword", Type: "string", Description: "Substring telemetry function names must contain (default from config)"},
			{Name: "save", Type: "boolean", Description: "Record the run in the history database"},
		},
	},
	"fsw_types": {
		Name:        "fsw_types",
		Description: "List the structs, unions and typedefs declared by C source files, later files winning on name collisions.",
		Parameters: []ParameterSchema{
			{Name: "files", Type: "string", Description: "Comma-separated C source paths", Required: true},
		},
	},
	"fsw_runs": {
		Name:        "fsw_runs",
		Description: "List saved extraction runs, newest first.",
		Parameters: []ParameterSchema{
			{Name: "limit", Type: "number", Description: "Maximum runs to return (default: 20)"},
		},
	},
	"fsw_show": {
		Name:        "fsw_show",
		Description: "Return the dictionary saved by an extraction run.",
		Parameters: []ParameterSchema{
			{Name: "run_id", Type: "number", Description: "Run id from fsw_runs", Required: true},
		},
	},
}

// GetToolSchemas returns schemas for all registered tools, sorted by name.
func (s *Server) GetToolSchemas() []ToolSchema {
	names := s.ListTools()
	schemas := make([]ToolSchema, 0, len(names))
	for _, name := range names {
		if schema, ok := toolSchemaRegistry[name]; ok {
			schemas = append(schemas, schema)
		}
	}
	return schemas
}

// CallTool dispatches a tool call by name with the given arguments.
// Returns the JSON result string or an error.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	s.mu.RLock()
	registered := s.tools[name]
	s.mu.RUnlock()

	if !registered {
		return "", fmt.Errorf("unknown tool: %s", name)
	}

	switch name {
	case "fsw_parse":
		req, save, err := s.parseArgs(args)
		if err != nil {
			return "", err
		}
		return s.executeParse(ctx, req, save)

	case "fsw_types":
		files := splitFiles(args["files"])
		if len(files) == 0 {
			return "", fmt.Errorf("files parameter is required")
		}
		return s.executeTypes(ctx, files)

	case "fsw_runs":
		limit := 20
		if l, ok := args["limit"].(float64); ok {
			limit = int(l)
		}
		return s.executeRuns(limit)

	case "fsw_show":
		id, ok := args["run_id"].(float64)
		if !ok {
			return "", fmt.Errorf("run_id parameter is required")
		}
		return s.executeShow(int64(id))
	}

	return "", fmt.Errorf("unknown tool: %s", name)
}

func (s *Server) registerParseTool() {
	tool := mcp.NewTool("fsw_parse",
		mcp.WithDescription(toolSchemaRegistry["fsw_parse"].Description),
		mcp.WithString("cmd_file",
			mcp.Required(),
			mcp.Description("Path of the command C source file"),
		),
		mcp.WithString("tlm_file",
			mcp.Required(),
			mcp.Description("Path of the telemetry C source file"),
		),
		mcp.WithString("cmd_keyword",
			mcp.Description("Substring command function names must contain (default from config)"),
		),
		mcp.WithString("tlm_keyword",
			mcp.Description("Substring telemetry function names must contain (default from config)"),
		),
		mcp.WithBoolean("save",
			mcp.Description("Record the run in the history database"),
		),
	)

	s.mcpServer.AddTool(tool, s.handle("fsw_parse"))
}

func (s *Server) registerTypesTool() {
	tool := mcp.NewTool("fsw_types",
		mcp.WithDescription(toolSchemaRegistry["fsw_types"].Description),
		mcp.WithString("files",
			mcp.Required(),
			mcp.Description("Comma-separated C source paths"),
		),
	)

	s.mcpServer.AddTool(tool, s.handle("fsw_types"))
}

func (s *Server) registerRunsTool() {
	tool := mcp.NewTool("fsw_runs",
		mcp.WithDescription(toolSchemaRegistry["fsw_runs"].Description),
		mcp.WithNumber("limit",
			mcp.Description("Maximum runs to return (default: 20)"),
		),
	)

	s.mcpServer.AddTool(tool, s.handle("fsw_runs"))
}

func (s *Server) registerShowTool() {
	tool := mcp.NewTool("fsw_show",
		mcp.WithDescription(toolSchemaRegistry["fsw_show"].Description),
		mcp.WithNumber("run_id",
			mcp.Required(),
			mcp.Description("Run id from fsw_runs"),
		),
	)

	s.mcpServer.AddTool(tool, s.handle("fsw_show"))
}

// handle adapts CallTool to an MCP tool handler. Tool failures are reported
// as error results so the agent sees the message.
func (s *Server) handle(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.updateActivity()

		result, err := s.CallTool(ctx, name, req.GetArguments())
		if err != nil {
			s.logger.Debug("tool call failed", "tool", name, "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}

		return mcp.NewToolResultText(result), nil
	}
}

func (s *Server) parseArgs(args map[string]interface{}) (dictionary.Request, bool, error) {
	req := dictionary.Request{
		CommandKeyword:   s.keywords.Command,
		TelemetryKeyword: s.keywords.Telemetry,
	}

	req.CommandFile, _ = args["cmd_file"].(string)
	if req.CommandFile == "" {
		return req, false, fmt.Errorf("cmd_file parameter is required")
	}
	req.TelemetryFile, _ = args["tlm_file"].(string)
	if req.TelemetryFile == "" {
		return req, false, fmt.Errorf("tlm_file parameter is required")
	}

	// an explicit empty keyword matches every function
	if k, ok := args["cmd_keyword"].(string); ok {
		req.CommandKeyword = k
	}
	if k, ok := args["tlm_keyword"].(string); ok {
		req.TelemetryKeyword = k
	}

	save, _ := args["save"].(bool)
	return req, save, nil
}

// parseOutput is the fsw_parse result: the dictionary, plus the run id
// when it was saved.
type parseOutput struct {
	RunID int64 `json:"run_id,omitempty"`
	*dictionary.Result
}

func (s *Server) executeParse(ctx context.Context, req dictionary.Request, save bool) (string, error) {
	result, err := s.builder.Build(ctx, req)
	if err != nil {
		return "", err
	}

	out := parseOutput{Result: result}
	if save {
		if s.store == nil {
			return "", fmt.Errorf("cannot save: run store is disabled")
		}
		id, err := s.store.SaveRun(store.InputFromRequest(req), result)
		if err != nil {
			return "", err
		}
		out.RunID = id
	}

	return toJSON(out)
}

func (s *Server) executeTypes(ctx context.Context, files []string) (string, error) {
	table, err := s.builder.Types(ctx, files...)
	if err != nil {
		return "", err
	}
	return toJSON(table)
}

func (s *Server) executeRuns(limit int) (string, error) {
	runs, err := s.store.ListRuns(limit)
	if err != nil {
		return "", err
	}
	if runs == nil {
		runs = []*store.Run{}
	}
	return toJSON(runs)
}

type showOutput struct {
	Run     *store.Run         `json:"run"`
	Changed []string           `json:"changed_sources,omitempty"`
	Result  *dictionary.Result `json:"dictionary"`
}

func (s *Server) executeShow(id int64) (string, error) {
	run, result, err := s.store.LoadRun(id)
	if err != nil {
		return "", err
	}
	return toJSON(showOutput{Run: run, Changed: store.ChangedSources(run), Result: result})
}

// splitFiles accepts a comma-separated string of paths.
func splitFiles(v interface{}) []string {
	raw, _ := v.(string)
	var files []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	return files
}

func toJSON(v interface{}) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
