package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags restores every flag to its default; cobra keeps flag state
// between Execute calls on the same command tree.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, err := run(t, args...)
	if err != nil {
		t.Fatalf("%v failed: %v\n%s", args, err, errOut)
	}
	return out
}

type fixture struct {
	dir  string
	list string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PRICECMP_LOG_OUTPUT", filepath.Join(t.TempDir(), "test.log"))
	dir := t.TempDir()
	return fixture{dir: dir, list: filepath.Join(dir, "einkaufsliste.txt")}
}

func (f fixture) args(args ...string) []string {
	return append(args, "--data-dir", f.dir, "--list", f.list)
}

func (f fixture) seed(t *testing.T) {
	t.Helper()
	mustRun(t, f.args("db", "create", "preise.csv")...)
	mustRun(t, f.args("db", "add", "preise.csv", "Milch", "Aldi", "109", "1 l")...)
	mustRun(t, f.args("db", "add", "preise.csv", "Milch", "Lidl", "99", "500 ml")...)
	mustRun(t, f.args("db", "add", "preise.csv", "Eier", "Rewe", "239", "10 Stück")...)
}

func TestVersion(t *testing.T) {
	newFixture(t)
	out := mustRun(t, "version")
	if !strings.Contains(out, Version) {
		t.Errorf("version output %q missing %s", out, Version)
	}
}

func TestDB_AddShow(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	out := mustRun(t, f.args("db", "show", "preise.csv")...)
	for _, want := range []string{"Milch", "Lidl", "0.5 l", "10 stk", "1.09 €"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}

	files := mustRun(t, f.args("db", "files")...)
	if strings.TrimSpace(files) != "preise.csv" {
		t.Errorf("unexpected files output %q", files)
	}
}

func TestDB_AddRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	mustRun(t, f.args("db", "create", "preise.csv")...)

	cases := [][]string{
		{"db", "add", "preise.csv", "Milch", "Aldi", "abc", "1 l"},
		{"db", "add", "preise.csv", "Milch", "Aldi", "109", "1 oz"},
		{"db", "add", "preise.csv", "Milch", "Aldi", "109", "0 l"},
		{"db", "add", "preise.csv", "", "Aldi", "109", "1 l"},
	}
	for _, c := range cases {
		if _, _, err := run(t, f.args(c...)...); err == nil {
			t.Errorf("%v: expected error", c)
		}
	}
}

func TestDB_UpdateDelete(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	mustRun(t, f.args("db", "update", "preise.csv", "2", "Milch", "Netto", "95", "1 l")...)
	mustRun(t, f.args("db", "delete", "preise.csv", "3")...)

	data, err := os.ReadFile(filepath.Join(f.dir, "preise.csv"))
	if err != nil {
		t.Fatal(err)
	}
	want := "1,Milch,Aldi,109,1,l\n2,Milch,Netto,95,1,l\n"
	if string(data) != want {
		t.Errorf("catalog content = %q, want %q", data, want)
	}

	if _, _, err := run(t, f.args("db", "delete", "preise.csv", "42")...); err == nil {
		t.Error("expected error deleting unknown id")
	}
}

func TestDB_ImportSQLite(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	dbPath := filepath.Join(t.TempDir(), "catalogs.db")

	mustRun(t, f.args("db", "import", "preise.csv", "--sqlite", dbPath)...)

	t.Setenv("PRICECMP_DATA_SQLITE_PATH", dbPath)
	out := mustRun(t, f.args("db", "show", "preise.csv", "--backend", "sqlite")...)
	if !strings.Contains(out, "Eier") || !strings.Contains(out, "Lidl") {
		t.Errorf("sqlite show output missing entries:\n%s", out)
	}
}

func TestCompare(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	out := mustRun(t, f.args("compare", "preise.csv", "1", "2", "--amount", "1000")...)
	if !strings.Contains(out, "✓ A is cheaper per ml") {
		t.Errorf("unexpected compare output:\n%s", out)
	}
	if !strings.Contains(out, "0.109000 ct/ml") || !strings.Contains(out, "1.09 €") {
		t.Errorf("compare output missing unit price or total:\n%s", out)
	}

	if _, _, err := run(t, f.args("compare", "preise.csv", "1", "3")...); err == nil {
		t.Error("expected error comparing ml with pieces")
	}
}

func TestBest(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	out := mustRun(t, f.args("best", "preise.csv", "Milch", "--provider", "Lidl")...)
	if !strings.Contains(out, "#1 Milch (Aldi)") {
		t.Errorf("expected Aldi as best offer:\n%s", out)
	}
	if !strings.Contains(out, "Lidl: #2 Milch (Lidl)") {
		t.Errorf("expected current provider line:\n%s", out)
	}

	if _, _, err := run(t, f.args("best", "preise.csv", "Brot")...); err == nil {
		t.Error("expected error for unknown article")
	}
}

func TestList_EditCycle(t *testing.T) {
	f := newFixture(t)

	mustRun(t, f.args("list", "add", "Milch", "Lidl")...)
	mustRun(t, f.args("list", "add", "Salz")...)
	mustRun(t, f.args("list", "add", "Brot")...)
	mustRun(t, f.args("list", "update", "1", "Meersalz", "Rewe")...)
	mustRun(t, f.args("list", "delete", "2")...)

	out := mustRun(t, f.args("list", "print")...)
	if out != "Milch|Lidl\nMeersalz|Rewe\n" {
		t.Errorf("unexpected list %q", out)
	}

	if _, _, err := run(t, f.args("list", "delete", "5")...); err == nil {
		t.Error("expected error for out of range index")
	}
}

func TestSweep_Apply(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	mustRun(t, f.args("list", "add", "Milch", "Lidl")...)
	mustRun(t, f.args("list", "add", "Brot")...)

	out := mustRun(t, f.args("sweep", "--catalog", "preise.csv", "--apply", "--workers", "1")...)
	if !strings.Contains(out, "→") || !strings.Contains(out, "no offer") {
		t.Errorf("unexpected sweep output:\n%s", out)
	}

	data, err := os.ReadFile(f.list)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "Milch|Aldi\nBrot\n" {
		t.Errorf("list after apply = %q", data)
	}

	if _, _, err := run(t, f.args("sweep", "--apply")...); err == nil {
		t.Error("expected --apply without --catalog to fail")
	}
}

func TestConfig_InitShow(t *testing.T) {
	f := newFixture(t)

	mustRun(t, f.args("config", "init")...)
	home, _ := os.UserHomeDir()
	if _, err := os.Stat(filepath.Join(home, ".pricecmp", "config.yaml")); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if _, _, err := run(t, f.args("config", "init")...); err == nil {
		t.Error("expected second init to fail")
	}

	out := mustRun(t, f.args("config", "show")...)
	if !strings.Contains(out, "port: 8081") || !strings.Contains(out, "dir: "+f.dir) {
		t.Errorf("unexpected config output:\n%s", out)
	}
}
