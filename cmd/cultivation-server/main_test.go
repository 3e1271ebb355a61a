package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/rsned/cultivation-server/pkg/cultivation"
)

// execute runs the root command in-process. Command flag structs are reset
// first because cobra binds them at package level.
func execute(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	calcFlags.preset, calcFlags.scheme, calcFlags.paramsFile, calcFlags.save = "", "", "", ""
	calcFlags.markdown, calcFlags.json = false, false
	presetsFlags.markdown = false
	compareFlags.markdown = false
	importFlags.presets, importFlags.schemes = "", ""
	exportFlags.out = ""

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--db", dbPath, "--log-format", "text"}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func testDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "data", "cli.db")
}

func TestCalcASCII(t *testing.T) {
	out, err := execute(t, testDB(t), "calc", "--preset", "mortal")
	if err != nil {
		t.Fatalf("calc: %v\n%s", err, out)
	}
	for _, want := range []string{"Summary", "Stages", "Alerts", "Qi Condensation Layer 11", "[resource gap]"} {
		if !strings.Contains(out, want) {
			t.Errorf("calc output missing %q:\n%s", want, out)
		}
	}
}

func TestCalcJSON(t *testing.T) {
	out, err := execute(t, testDB(t), "calc", "--preset", "genius", "--json")
	if err != nil {
		t.Fatalf("calc --json: %v\n%s", err, out)
	}
	var resp cultivation.CalculateResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if resp.Result == nil || resp.Params.SpiritualRoot != cultivation.RootHeavenly {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestCalcParamsFileInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	data := `resource:
  mine: {grade: mythic, level: 3}
  plant: {grade: inferior, level: 12}
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, testDB(t), "calc", "--params-file", path)
	if err == nil {
		t.Fatalf("calc with invalid resources should fail:\n%s", out)
	}
	for _, want := range []string{`mine grade "mythic" is not a known grade`, "plant level must be between 1 and 9"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPresets(t *testing.T) {
	out, err := execute(t, testDB(t), "presets", "--markdown")
	if err != nil {
		t.Fatalf("presets: %v", err)
	}
	for _, id := range []string{"mortal", "genius", "high-martial", "tycoon", "fast-cultivation", "hard-mode"} {
		if !strings.Contains(out, id) {
			t.Errorf("presets output missing %q:\n%s", id, out)
		}
	}
}

var savedID = regexp.MustCompile(`Saved scheme (\S+) `)

func TestSaveCompareExportImport(t *testing.T) {
	dbPath := testDB(t)

	out, err := execute(t, dbPath, "calc", "--preset", "tycoon", "--save", "Sect A")
	if err != nil {
		t.Fatalf("calc --save: %v\n%s", err, out)
	}
	m := savedID.FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("no saved scheme id in output:\n%s", out)
	}
	id := m[1]

	out, err = execute(t, dbPath, "compare")
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if !strings.Contains(out, "Sect A") {
		t.Errorf("compare output missing scheme:\n%s", out)
	}

	exportPath := filepath.Join(t.TempDir(), "scheme.json")
	if _, err := execute(t, dbPath, "export", id, "--out", exportPath); err != nil {
		t.Fatalf("export: %v", err)
	}

	out, err = execute(t, dbPath, "import", "--schemes", exportPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "(Sect A)") {
		t.Errorf("import output = %q", out)
	}

	if _, err := execute(t, dbPath, "export", "missing-id"); err == nil {
		t.Error("export of an unknown scheme should fail")
	}
}

func TestImportRequiresInput(t *testing.T) {
	if _, err := execute(t, testDB(t), "import"); err == nil {
		t.Error("import without files should fail")
	}
}

func TestDBFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "env.db")
	t.Setenv(envDBPath, envPath)

	// Earlier tests pass --db explicitly.
	rootCmd.PersistentFlags().Lookup("db").Changed = false
	globalFlags.dbPath = defaultDBPath

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--log-format", "text", "presets"})
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("presets: %v", err)
	}
	if _, err := os.Stat(envPath); err != nil {
		t.Errorf("database not created at %s: %v", envPath, err)
	}
}
