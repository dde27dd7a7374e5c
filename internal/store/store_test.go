package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/flightsw/fswparse/internal/ctype"
	"github.com/flightsw/fswparse/internal/dictionary"
)

// testStore creates a temporary store for testing.
func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func sampleResult() *dictionary.Result {
	width := 4
	return &dictionary.Result{
		Commands: []ctype.Function{
			{
				Name:       "CmdSetSpeed",
				ReturnType: &ctype.Primitive{Spelling: "void"},
				Args:       []ctype.Arg{{Name: "speed", Type: &ctype.Primitive{Spelling: "int"}}},
			},
			{
				Name:       "CmdReset",
				ReturnType: &ctype.Primitive{Spelling: "int"},
				Args:       []ctype.Arg{},
			},
		},
		Telemetry: []ctype.Function{{
			Name:       "TlmStatus",
			ReturnType: &ctype.Primitive{Spelling: "void"},
			Args: []ctype.Arg{{Name: "status", Type: &ctype.Pointer{Pointee: &ctype.Record{
				Name: "Status",
				Fields: []ctype.Field{
					{Name: "mode", Type: &ctype.Primitive{Spelling: "unsigned int"}, BitFieldWidth: &width},
				},
			}}}},
		}},
	}
}

func TestOpen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".fswparse")

	store, err := Open(dir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	if store.Path() != filepath.Join(dir, DBFileName) {
		t.Errorf("unexpected path %s", store.Path())
	}
	if _, err := os.Stat(store.Path()); err != nil {
		t.Errorf("expected database file to exist: %v", err)
	}

	stats, err := store.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Runs != 0 || stats.Functions != 0 {
		t.Errorf("new store should be empty, got %+v", stats)
	}
}

func TestSaveAndLoadRun(t *testing.T) {
	store := testStore(t)
	dir := t.TempDir()
	in := RunInput{
		CommandFile:      writeSource(t, dir, "cmd.c", "void CmdSetSpeed(int speed);\n"),
		TelemetryFile:    writeSource(t, dir, "tlm.c", "struct Status;\n"),
		CommandKeyword:   "Cmd",
		TelemetryKeyword: "Tlm",
	}

	id, err := store.SaveRun(in, sampleResult())
	if err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	run, result, err := store.LoadRun(id)
	if err != nil {
		t.Fatalf("LoadRun failed: %v", err)
	}

	if run.CommandKeyword != "Cmd" || run.TelemetryFile != in.TelemetryFile {
		t.Errorf("unexpected run metadata: %+v", run)
	}
	if run.Commands != 2 || run.Telemetry != 1 {
		t.Errorf("expected 2 commands and 1 telemetry, got %d/%d", run.Commands, run.Telemetry)
	}
	if run.CommandHash == "" || run.CreatedAt.IsZero() {
		t.Errorf("expected hash and timestamp, got %+v", run)
	}

	if len(result.Commands) != 2 || result.Commands[0].Name != "CmdSetSpeed" || result.Commands[1].Name != "CmdReset" {
		t.Fatalf("commands should keep their order, got %#v", result.Commands)
	}
	if len(result.Commands[1].Args) != 0 {
		t.Errorf("expected no args for CmdReset")
	}

	ptr, ok := result.Telemetry[0].Args[0].Type.(*ctype.Pointer)
	if !ok {
		t.Fatalf("expected pointer, got %#v", result.Telemetry[0].Args[0].Type)
	}
	rec, ok := ptr.Pointee.(*ctype.Record)
	if !ok || rec.Name != "Status" || rec.Fields[0].BitFieldWidth == nil || *rec.Fields[0].BitFieldWidth != 4 {
		t.Errorf("record did not survive the round trip: %#v", ptr.Pointee)
	}

	if req := run.Input().Request(); req.CommandFile != in.CommandFile || req.TelemetryKeyword != "Tlm" {
		t.Errorf("Request() lost the command file: %+v", req)
	}
}

func TestListRuns(t *testing.T) {
	store := testStore(t)

	var ids []int64
	for i := 0; i < 3; i++ {
		id, err := store.SaveRun(RunInput{CommandFile: "a.c", TelemetryFile: "b.c"}, &dictionary.Result{})
		if err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
		ids = append(ids, id)
	}

	runs, err := store.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 3 || runs[0].ID != ids[2] {
		t.Fatalf("expected newest first, got %d runs", len(runs))
	}

	runs, err = store.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected limit of 2, got %d", len(runs))
	}
}

func TestDeleteRun(t *testing.T) {
	store := testStore(t)

	id, err := store.SaveRun(RunInput{CommandFile: "a.c", TelemetryFile: "b.c"}, sampleResult())
	if err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	if err := store.DeleteRun(id); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}

	if _, _, err := store.LoadRun(id); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound after delete, got %v", err)
	}
	if err := store.DeleteRun(id); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound on second delete, got %v", err)
	}

	stats, err := store.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Runs != 0 || stats.Functions != 0 {
		t.Errorf("expected empty store after delete, got %+v", stats)
	}
}

func TestSaveRun_NilResult(t *testing.T) {
	store := testStore(t)
	if _, err := store.SaveRun(RunInput{}, nil); err == nil {
		t.Error("expected error for nil result")
	}
}

func TestChangedSources(t *testing.T) {
	store := testStore(t)
	dir := t.TempDir()
	cmd := writeSource(t, dir, "cmd.c", "int a;\n")
	tlm := writeSource(t, dir, "tlm.c", "int b;\n")

	id, err := store.SaveRun(RunInput{CommandFile: cmd, TelemetryFile: tlm}, &dictionary.Result{})
	if err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	run, err := store.GetRun(id)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}

	if changed := ChangedSources(run); len(changed) != 0 {
		t.Errorf("expected no changes, got %v", changed)
	}

	writeSource(t, dir, "tlm.c", "int b; int c;\n")
	changed := ChangedSources(run)
	if len(changed) != 1 || changed[0] != tlm {
		t.Errorf("expected %s to be changed, got %v", tlm, changed)
	}
}
