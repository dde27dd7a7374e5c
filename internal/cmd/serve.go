package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/flightsw/fswparse/internal/config"
	"github.com/flightsw/fswparse/internal/mcp"
	"github.com/flightsw/fswparse/internal/store"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP server for AI agent integration",
	Long: `Start an MCP (Model Context Protocol) server for AI agent integration.

Agents call extraction as tools instead of spawning CLI commands. The server
speaks MCP over stdio; logs go to stderr.

Available Tools:
  fsw_parse    Extract the command and telemetry dictionary
  fsw_types    Declared-Types Table of C sources
  fsw_runs     Saved runs (needs the run history)
  fsw_show     Dictionary of a saved run (needs the run history)

Examples:
  fswparse serve --mcp                         # Start with every available tool
  fswparse serve --mcp --tools parse,types     # Start with specific tools only
  fswparse serve --mcp --timeout 10m           # Override serve.timeout
  fswparse serve --status                      # Check if server is running
  fswparse serve --stop                        # Stop running server
  fswparse serve --list-tools                  # Show available tools`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveMCP       bool
	serveTools     string
	serveTimeout   string
	serveStatus    bool
	serveStop      bool
	serveListTools bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "Start MCP server (stdio transport)")
	serveCmd.Flags().StringVar(&serveTools, "tools", "", "Comma-separated list of tools to expose (default: all available)")
	serveCmd.Flags().StringVar(&serveTimeout, "timeout", "", "Inactivity timeout, 0 for none (default from config)")
	serveCmd.Flags().BoolVar(&serveStatus, "status", false, "Check if server is running")
	serveCmd.Flags().BoolVar(&serveStop, "stop", false, "Stop running server")
	serveCmd.Flags().BoolVar(&serveListTools, "list-tools", false, "List available tools")
}

func runServe(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if serveListTools {
		fmt.Fprintln(out, "Available MCP tools:")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "  fsw_parse    Extract the command and telemetry dictionary")
		fmt.Fprintln(out, "  fsw_types    Declared-Types Table of C sources")
		fmt.Fprintln(out, "  fsw_runs     Saved runs")
		fmt.Fprintln(out, "  fsw_show     Dictionary of a saved run")
		return nil
	}

	if serveStatus {
		return checkServerStatus(cmd)
	}

	if serveStop {
		return stopServer(cmd)
	}

	if !serveMCP {
		return fmt.Errorf("use --mcp to start the MCP server, or --help for usage")
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}

	timeout := e.cfg.ServeTimeout()
	if serveTimeout != "" {
		if timeout, err = parseDuration(serveTimeout); err != nil {
			return fmt.Errorf("invalid timeout: %w", err)
		}
	}

	index, err := e.index(nil, nil)
	if err != nil {
		return err
	}

	// the history is optional for the server
	var st *store.Store
	if e.cfg.Store.Enabled && e.configDir != "" {
		if st, err = e.openStore(true); err != nil {
			slog.Warn("run history unavailable", "error", err)
			st = nil
		}
	}
	if st != nil {
		defer st.Close()
	}

	server, err := mcp.New(mcp.Config{
		Index:    index,
		Store:    st,
		Keywords: mcp.Keywords{Command: e.cfg.Keywords.Command, Telemetry: e.cfg.Keywords.Telemetry},
		Tools:    parseToolList(serveTools),
		Timeout:  timeout,
		Logger:   slog.Default(),
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	if err := writePIDFile(); err != nil {
		slog.Warn("could not write PID file", "error", err)
	}
	defer removePIDFile()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("serve: shutting down")
		if st != nil {
			st.Close()
		}
		removePIDFile()
		os.Exit(0)
	}()

	fmt.Fprintf(os.Stderr, "fswparse serve: starting MCP server\n")
	fmt.Fprintf(os.Stderr, "fswparse serve: tools: %v\n", server.ListTools())
	if timeout > 0 {
		fmt.Fprintf(os.Stderr, "fswparse serve: timeout: %v\n", timeout)
	}

	return server.ServeStdio()
}

// parseToolList splits --tools, allowing the short form (parse -> fsw_parse).
func parseToolList(s string) []string {
	var tools []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if !strings.HasPrefix(t, "fsw_") {
			t = "fsw_" + t
		}
		tools = append(tools, t)
	}
	return tools
}

func parseDuration(s string) (time.Duration, error) {
	if s == "0" || s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func getPIDFilePath() (string, error) {
	configDir, err := config.FindConfigDir(".")
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "serve.pid"), nil
}

func writePIDFile() error {
	pidPath, err := getPIDFilePath()
	if err != nil {
		return err
	}
	return os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0644)
}

func removePIDFile() {
	pidPath, err := getPIDFilePath()
	if err != nil {
		return
	}
	os.Remove(pidPath)
}

// readPID returns the pid recorded in the PID file, or 0 when there is none.
func readPID() (int, error) {
	pidPath, err := getPIDFilePath()
	if err != nil {
		return 0, nil
	}
	data, err := os.ReadFile(pidPath)
	if err != nil {
		return 0, nil
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		removePIDFile()
		return 0, fmt.Errorf("invalid PID file")
	}
	return pid, nil
}

func checkServerStatus(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	pid, err := readPID()
	if err != nil || pid == 0 {
		fmt.Fprintln(out, "Status: not running")
		return nil
	}

	// On Unix, FindProcess always succeeds, so we need to send signal 0 to check
	process, err := os.FindProcess(pid)
	if err != nil || process.Signal(syscall.Signal(0)) != nil {
		fmt.Fprintln(out, "Status: not running (stale PID file)")
		removePIDFile()
		return nil
	}

	fmt.Fprintf(out, "Status: running (PID %d)\n", pid)
	return nil
}

func stopServer(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	pid, err := readPID()
	if err != nil {
		return err
	}
	if pid == 0 {
		fmt.Fprintln(out, "No server running")
		return nil
	}

	process, err := os.FindProcess(pid)
	if err != nil || process.Signal(syscall.SIGTERM) != nil {
		removePIDFile()
		fmt.Fprintln(out, "Server already stopped")
		return nil
	}

	fmt.Fprintf(out, "Stopped server (PID %d)\n", pid)
	return nil
}
