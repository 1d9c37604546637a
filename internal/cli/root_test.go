package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	for _, want := range []string{"check", "parse", "view", "serve", "cache", "version"} {
		if !names[want] {
			t.Errorf("root command missing subcommand %q", want)
		}
	}
}

func TestVersionOutput(t *testing.T) {
	// version vars are set via ldflags; in tests they have their defaults
	if version != "dev" {
		t.Errorf("expected default version %q, got %q", "dev", version)
	}
}

// resetFlags restores every flag to its default between runs of the shared
// command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// run executes the CLI with an isolated config environment.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	for _, k := range []string{"GREENLENS_PYTHON", "GREENLENS_SCRIPT", "GREENLENS_POLICY", "GREENLENS_CACHE", "GREENLENS_LOG_LEVEL"} {
		t.Setenv(k, "")
	}

	conf := filepath.Join(t.TempDir(), "greenlens.toml")
	if err := os.WriteFile(conf, []byte("log_level = \"error\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", conf}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

const sampleOutput = `Rule ID: R1, Rule Name: Loop Array, Description: array built in loop, Penalty: 18, Optimization: preallocate, Affected Line(s): Lines 2-3
Rule ID: R2, Rule Name: Unused Import, Description: unused, Penalty: 3, Optimization: remove it, Affected Line(s): Line 1
`

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "greenlens dev") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestParseCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	if err := os.WriteFile(path, []byte(sampleOutput), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "parse", path, "--lines", "5", "--format", "json")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var rep report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("json decode: %v\n%s", err, out)
	}
	if len(rep.Lines) != 3 || rep.Worst != "D" || rep.Policy != "first" {
		t.Errorf("unexpected report %+v", rep)
	}
}

func TestParseCommandYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	if err := os.WriteFile(path, []byte(sampleOutput), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "parse", path, "--lines", "5", "--format", "yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var rep report
	if err := yaml.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("yaml decode: %v\n%s", err, out)
	}
	if len(rep.Lines) != 3 || rep.Worst != "D" || rep.Total != 3 {
		t.Errorf("unexpected report %+v", rep)
	}
}

func TestParseCommandStdinAndPolicy(t *testing.T) {
	rootCmd.SetIn(strings.NewReader(sampleOutput))
	t.Cleanup(func() { rootCmd.SetIn(nil) })

	out, err := run(t, "--policy", "worst", "parse", "-", "--lines", "2")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !strings.Contains(out, "policy worst") {
		t.Errorf("expected worst policy in output:\n%s", out)
	}
	if !strings.Contains(out, "L1") || !strings.Contains(out, "L2") || strings.Contains(out, "L3") {
		t.Errorf("expected only lines 1-2:\n%s", out)
	}
}

func TestParseCommandErrors(t *testing.T) {
	if _, err := run(t, "parse", "--format", "json"); err == nil {
		t.Error("expected error without --lines")
	}
	if _, err := run(t, "parse", "--lines", "3", "--format", "toml"); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, err := run(t, "--policy", "loudest", "parse", "--lines", "3"); err == nil {
		t.Error("expected error for unknown policy")
	}
}

// fakeScript writes a shell script that prints sampleOutput in place of the
// analyzer.
func fakeScript(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	script := filepath.Join(t.TempDir(), "main.sh")
	body := "cat <<'EOF'\n" + sampleOutput + "EOF\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	return script
}

func writeSource(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "train.py")
	if err := os.WriteFile(path, []byte("import os\nfor r in rows:\n    out.append(r)\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCheckCommand(t *testing.T) {
	script := fakeScript(t)
	src := writeSource(t)

	out, err := run(t, "--python", "sh", "--script", script, "check", src, "--no-cache", "--format", "markdown")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out, "| 2 | D | Loop Array |") {
		t.Errorf("expected markdown row for line 2:\n%s", out)
	}
}

func TestCheckFailOn(t *testing.T) {
	script := fakeScript(t)
	src := writeSource(t)

	_, err := run(t, "--python", "sh", "--script", script, "check", src, "--no-cache", "--fail-on", "C")
	var exit *ExitError
	if !errors.As(err, &exit) || exit.Code != 1 {
		t.Fatalf("expected exit 1, got %v", err)
	}
	if ExitCode(err) != 1 {
		t.Errorf("ExitCode = %d, want 1", ExitCode(err))
	}

	if _, err := run(t, "--python", "sh", "--script", script, "check", src, "--no-cache", "--fail-on", "E"); err != nil {
		t.Errorf("expected success below threshold, got %v", err)
	}

	if _, err := run(t, "--python", "sh", "--script", script, "check", src, "--fail-on", "Z"); err == nil || ExitCode(err) != 1 {
		t.Errorf("expected usage error for bad band, got %v", err)
	}
}

func TestCheckAnalyzerFailure(t *testing.T) {
	src := writeSource(t)
	_, err := run(t, "--python", "sh", "--script", filepath.Join(t.TempDir(), "missing.py"), "check", src)
	if err == nil {
		t.Fatal("expected error for missing analyzer")
	}
	if !strings.Contains(err.Error(), "analyzer not found") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestCacheClean(t *testing.T) {
	out, err := run(t, "cache", "clean")
	if err != nil {
		t.Fatalf("cache clean: %v", err)
	}
	if !strings.Contains(out, "Removed cached analyzer output") {
		t.Errorf("unexpected output %q", out)
	}
}
