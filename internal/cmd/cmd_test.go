package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/flightsw/fswparse/internal/config"
)

// fixtures returns absolute testdata paths, valid after t.Chdir.
func fixtures(t *testing.T) (string, string) {
	t.Helper()
	cmd, err := filepath.Abs(filepath.Join("testdata", "cmd.c"))
	if err != nil {
		t.Fatalf("abs: %v", err)
	}
	tlm, err := filepath.Abs(filepath.Join("testdata", "tlm.c"))
	if err != nil {
		t.Fatalf("abs: %v", err)
	}
	return cmd, tlm
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
		} else {
			f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// executeCommand runs the CLI with args in a fresh temp working directory
// and returns stdout and stderr.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

type dictDoc struct {
	Commands []struct {
		Name string            `json:"name"`
		Args []json.RawMessage `json:"args"`
	} `json:"commands"`
	Telemetry []struct {
		Name string `json:"name"`
	} `json:"telemetry"`
}

func TestParse_Stdout(t *testing.T) {
	cmdFile, tlmFile := fixtures(t)
	t.Chdir(t.TempDir())

	stdout, _, err := executeCommand(t, "parse", "--cmd", cmdFile, "--tlm", tlmFile)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	var doc dictDoc
	if err := json.Unmarshal([]byte(stdout), &doc); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout)
	}
	if len(doc.Commands) != 2 || doc.Commands[0].Name != "CmdSelectTarget" || doc.Commands[1].Name != "CmdReset" {
		t.Errorf("unexpected commands: %+v", doc.Commands)
	}
	if len(doc.Telemetry) != 1 || doc.Telemetry[0].Name != "TlmQueue" {
		t.Errorf("unexpected telemetry: %+v", doc.Telemetry)
	}
	if !strings.Contains(stdout, "\n    \"commands\"") {
		t.Errorf("expected 4-space indent by default:\n%s", stdout)
	}
	if !strings.Contains(stdout, `"size": 16`) {
		t.Errorf("expected macro-sized name array:\n%s", stdout)
	}
	if !strings.Contains(stdout, `"spelling": "struct Node"`) {
		t.Errorf("expected self-reference to stop at struct Node:\n%s", stdout)
	}
}

func TestParse_KeywordsAndDefines(t *testing.T) {
	cmdFile, tlmFile := fixtures(t)
	t.Chdir(t.TempDir())

	stdout, _, err := executeCommand(t, "parse", "--cmd", cmdFile, "--tlm", tlmFile,
		"--cmd-keyword", "", "--tlm-keyword", "unrelated", "-D", "NAME_LEN=32")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	var doc dictDoc
	if err := json.Unmarshal([]byte(stdout), &doc); err != nil {
		t.Fatalf("stdout is not JSON: %v", err)
	}
	if len(doc.Commands) != 3 {
		t.Errorf("empty keyword should select all 3 command-file functions, got %+v", doc.Commands)
	}
	if len(doc.Telemetry) != 1 || doc.Telemetry[0].Name != "unrelated" {
		t.Errorf("unexpected telemetry: %+v", doc.Telemetry)
	}
	// the file's own #define replaces the predefined value
	if !strings.Contains(stdout, `"size": 16`) {
		t.Errorf("expected the source #define to win:\n%s", stdout)
	}
}

func TestParse_OutputFile(t *testing.T) {
	cmdFile, tlmFile := fixtures(t)
	dir := t.TempDir()
	t.Chdir(dir)

	_, stderr, err := executeCommand(t, "parse", "--cmd", cmdFile, "--tlm", tlmFile, "-o", "out/dict.yaml")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !strings.Contains(stderr, "Saved out/dict.yaml") {
		t.Errorf("expected save notice on stderr, got %q", stderr)
	}

	data, err := os.ReadFile(filepath.Join(dir, "out", "dict.yaml"))
	if err != nil {
		t.Fatalf("output file missing: %v", err)
	}
	if !strings.HasPrefix(string(data), "commands:") {
		t.Errorf("expected YAML picked from the extension, got:\n%s", data)
	}
}

func TestParse_Errors(t *testing.T) {
	cmdFile, _ := fixtures(t)
	t.Chdir(t.TempDir())

	if _, _, err := executeCommand(t, "parse", "--cmd", cmdFile); err == nil {
		t.Error("expected error without --tlm")
	}
	if _, _, err := executeCommand(t, "parse", "--cmd", cmdFile, "--tlm", "missing.c"); err == nil {
		t.Error("expected error for a missing telemetry file")
	}
	if _, _, err := executeCommand(t, "parse", "--cmd", cmdFile, "--tlm", cmdFile, "--format", "xml"); err == nil {
		t.Error("expected error for an unknown format")
	}
	if _, _, err := executeCommand(t, "parse", "--cmd", cmdFile, "--tlm", cmdFile, "-D", "=1"); err == nil {
		t.Error("expected error for a define without a name")
	}
}

func TestTypes(t *testing.T) {
	cmdFile, tlmFile := fixtures(t)
	t.Chdir(t.TempDir())

	stdout, _, err := executeCommand(t, "types", cmdFile, tlmFile, "--format", "json")
	if err != nil {
		t.Fatalf("types failed: %v", err)
	}

	var table map[string]json.RawMessage
	if err := json.Unmarshal([]byte(stdout), &table); err != nil {
		t.Fatalf("stdout is not JSON: %v", err)
	}
	for _, name := range []string{"apid_t", "Target", "Node", "Node_t"} {
		if _, ok := table[name]; !ok {
			t.Errorf("expected %s in the table", name)
		}
	}
}

func TestTypes_Graph(t *testing.T) {
	cmdFile, tlmFile := fixtures(t)
	t.Chdir(t.TempDir())

	stdout, _, err := executeCommand(t, "types", cmdFile, tlmFile, "--graph")
	if err != nil {
		t.Fatalf("types --graph failed: %v", err)
	}
	for _, want := range []string{"flowchart LR\n", "Node_t ==> Node", "Node -.-> Node", "Target --> apid_t"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %q in diagram:\n%s", want, stdout)
		}
	}

	stdout, _, err = executeCommand(t, "types", cmdFile, tlmFile, "--graph", "--focus", "Node_t", "--direction", "TD")
	if err != nil {
		t.Fatalf("types --focus failed: %v", err)
	}
	if !strings.HasPrefix(stdout, "flowchart TD\n") || strings.Contains(stdout, "Target") {
		t.Errorf("focused diagram should only hold Node_t and Node:\n%s", stdout)
	}

	if _, _, err := executeCommand(t, "types", tlmFile, "--graph", "--focus", "Missing"); err == nil {
		t.Error("expected error for unknown focus type")
	}
	if _, _, err := executeCommand(t, "types", tlmFile, "--focus", "Node"); err == nil {
		t.Error("expected error for --focus without --graph")
	}
}

func TestInitSaveRunsShow(t *testing.T) {
	cmdFile, tlmFile := fixtures(t)
	dir := t.TempDir()
	t.Chdir(dir)

	stdout, _, err := executeCommand(t, "init")
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if !strings.Contains(stdout, "Initialized fswparse at .fswparse") {
		t.Errorf("unexpected init output: %q", stdout)
	}
	if _, err := os.Stat(filepath.Join(dir, config.ConfigDirName, config.ConfigFileName)); err != nil {
		t.Errorf("config not written: %v", err)
	}

	stdout, _, err = executeCommand(t, "init")
	if err != nil || !strings.Contains(stdout, "Already initialized") {
		t.Errorf("second init should report existing setup, got %q (%v)", stdout, err)
	}

	_, stderr, err := executeCommand(t, "parse", "--cmd", cmdFile, "--tlm", tlmFile, "--save")
	if err != nil {
		t.Fatalf("parse --save failed: %v", err)
	}
	if !strings.Contains(stderr, "Saved run 1") {
		t.Errorf("expected run id on stderr, got %q", stderr)
	}

	stdout, _, err = executeCommand(t, "runs")
	if err != nil {
		t.Fatalf("runs failed: %v", err)
	}
	if !strings.Contains(stdout, "ID") || !strings.Contains(stdout, cmdFile) {
		t.Errorf("expected run table, got:\n%s", stdout)
	}

	stdout, _, err = executeCommand(t, "show", "1")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	var doc dictDoc
	if err := json.Unmarshal([]byte(stdout), &doc); err != nil {
		t.Fatalf("show output is not JSON: %v", err)
	}
	if len(doc.Commands) != 2 || len(doc.Telemetry) != 1 {
		t.Errorf("unexpected saved dictionary: %+v", doc)
	}

	if _, _, err := executeCommand(t, "show", "42"); err == nil {
		t.Error("expected error for unknown run")
	}

	stdout, _, err = executeCommand(t, "runs", "--delete", "1")
	if err != nil || !strings.Contains(stdout, "Deleted run 1") {
		t.Errorf("delete failed: %q (%v)", stdout, err)
	}
}

func TestRuns_WithoutHistory(t *testing.T) {
	t.Chdir(t.TempDir())

	_, _, err := executeCommand(t, "runs")
	if err == nil || !strings.Contains(err.Error(), "fswparse init") {
		t.Errorf("expected a hint to run init, got %v", err)
	}
}

func TestForAgents(t *testing.T) {
	t.Chdir(t.TempDir())

	stdout, _, err := executeCommand(t, "--for-agents")
	if err != nil {
		t.Fatalf("--for-agents failed: %v", err)
	}

	var doc struct {
		Version  string        `json:"version"`
		Commands []CommandInfo `json:"commands"`
	}
	if err := json.Unmarshal([]byte(stdout), &doc); err != nil {
		t.Fatalf("expected JSON, got %v\n%s", err, stdout)
	}
	names := map[string]bool{}
	for _, c := range doc.Commands {
		names[c.Name] = true
	}
	for _, want := range []string{"parse", "types", "wizard", "init", "runs", "show", "serve"} {
		if !names[want] {
			t.Errorf("command %s missing from discovery output", want)
		}
	}
}

func TestWizard_Finish(t *testing.T) {
	cmdFile, tlmFile := fixtures(t)
	dir := t.TempDir()
	t.Chdir(dir)

	e := &env{cfg: config.DefaultConfig()}
	answers := newWizardAnswers(e.cfg)
	answers.CommandFile = cmdFile
	answers.TelemetryFile = " " + tlmFile + " "
	answers.Save = false

	if answers.OutputPath != "dictionary.json" || answers.CommandKeyword != "Cmd" {
		t.Errorf("unexpected defaults: %+v", answers)
	}

	var stdout bytes.Buffer
	c := &cobra.Command{}
	c.SetContext(context.Background())
	c.SetOut(&stdout)
	if err := finishWizard(c, e, answers); err != nil {
		t.Fatalf("finishWizard failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "Saved 2 commands and 1 telemetry functions") {
		t.Errorf("unexpected summary: %q", stdout.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "dictionary.json")); err != nil {
		t.Errorf("dictionary not saved: %v", err)
	}
}

func TestWizard_Validation(t *testing.T) {
	cmdFile, _ := fixtures(t)

	if err := validateSourceFile(cmdFile); err != nil {
		t.Errorf("existing file rejected: %v", err)
	}
	if err := validateSourceFile(""); err == nil {
		t.Error("empty path accepted")
	}
	if err := validateSourceFile(t.TempDir()); err == nil {
		t.Error("directory accepted")
	}
	if err := validateSourceFile(filepath.Join(t.TempDir(), "nope.c")); err == nil {
		t.Error("missing file accepted")
	}
	notes := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(notes, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := validateSourceFile(notes); err == nil {
		t.Error("non-C file accepted")
	}
	if err := validateOutputPath("  "); err == nil {
		t.Error("blank output path accepted")
	}
}

func TestParseDefine(t *testing.T) {
	tests := []struct {
		in        string
		name      string
		value     string
		wantError bool
	}{
		{"DEBUG", "DEBUG", "1", false},
		{"COUNT=8", "COUNT", "8", false},
		{"EMPTY=", "EMPTY", "", false},
		{"=3", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			name, value, err := parseDefine(tt.in)
			if (err != nil) != tt.wantError {
				t.Fatalf("parseDefine(%q) error = %v, wantError %v", tt.in, err, tt.wantError)
			}
			if name != tt.name || value != tt.value {
				t.Errorf("parseDefine(%q) = %q, %q", tt.in, name, value)
			}
		})
	}
}

func TestParseToolList(t *testing.T) {
	got := parseToolList("parse, fsw_types,,show")
	want := []string{"fsw_parse", "fsw_types", "fsw_show"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("parseToolList = %v, want %v", got, want)
	}
	if parseToolList("") != nil {
		t.Error("empty list should yield nil")
	}
}

func TestInit_DetectsIncludeDirs(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.MkdirAll(filepath.Join(dir, "include"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "include", "types.h"), []byte("typedef int apid_t;\n"), 0644); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := executeCommand(t, "init")
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if !strings.Contains(stdout, "include include (include/ directory with 1 header)") {
		t.Errorf("expected detected include dir in output, got %q", stdout)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Parse.IncludeDirs) != 1 || cfg.Parse.IncludeDirs[0] != "include" {
		t.Errorf("expected include_dirs [include], got %v", cfg.Parse.IncludeDirs)
	}

	if _, _, err := executeCommand(t, "init", "--force", "--no-detect"); err != nil {
		t.Fatalf("init --force failed: %v", err)
	}
	cfg, err = config.Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Parse.IncludeDirs) != 0 {
		t.Errorf("--no-detect should leave include_dirs empty, got %v", cfg.Parse.IncludeDirs)
	}
}
