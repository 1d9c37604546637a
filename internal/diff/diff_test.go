package diff

import (
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"slices"
	"testing"
)

const sampleDiff = `diff --git a/train.py b/train.py
new file mode 100644
index 0000000..e69de29
--- /dev/null
+++ b/train.py
@@ -0,0 +1,4 @@
+import numpy as np
+
+for i in range(10):
+    x = np.zeros(1000)
diff --git a/utils/io.py b/utils/io.py
index abc1234..def5678 100644
--- a/utils/io.py
+++ b/utils/io.py
@@ -1,3 +1,4 @@
 import os
 
-def read(p):
+def read(path):
+    return open(path).read()
@@ -10,2 +11,2 @@ def write(p, data):
-    f = open(p, "w")
+    f = open(p, "wb")
     f.write(data)
`

func TestParse(t *testing.T) {
	ds, err := Parse(sampleDiff)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(ds.Files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(ds.Files))
	}

	f0 := ds.Files[0]
	if f0.NewName != "train.py" {
		t.Errorf("expected name 'train.py', got %q", f0.NewName)
	}
	if want := []int{0, 1, 2, 3}; !slices.Equal(f0.Added, want) {
		t.Errorf("train.py added = %v, want %v", f0.Added, want)
	}

	f1 := ds.Files[1]
	if f1.NewName != "utils/io.py" {
		t.Errorf("expected name 'utils/io.py', got %q", f1.NewName)
	}
	if want := []int{2, 3, 10}; !slices.Equal(f1.Added, want) {
		t.Errorf("utils/io.py added = %v, want %v", f1.Added, want)
	}
	if f1.DeletedLines != 2 {
		t.Errorf("expected 2 deleted lines, got %d", f1.DeletedLines)
	}

	files, added, deleted := ds.Stats()
	if files != 2 || added != 7 || deleted != 2 {
		t.Errorf("Stats() = %d, %d, %d; want 2, 7, 2", files, added, deleted)
	}
}

func TestChanged(t *testing.T) {
	ds, err := Parse(sampleDiff)
	if err != nil {
		t.Fatal(err)
	}
	got := ds.Changed("utils/io.py")
	want := map[int]bool{2: true, 3: true, 10: true}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Changed = %v, want %v", got, want)
	}
	if len(ds.Changed("other.py")) != 0 {
		t.Error("file outside the diff should have no changed lines")
	}
}

func TestParseEmpty(t *testing.T) {
	ds, err := Parse("")
	if err != nil {
		t.Fatalf("Parse empty failed: %v", err)
	}
	if len(ds.Files) != 0 {
		t.Errorf("expected 0 files, got %d", len(ds.Files))
	}
}

func git(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=t", "GIT_AUTHOR_EMAIL=t@example.com",
		"GIT_COMMITTER_NAME=t", "GIT_COMMITTER_EMAIL=t@example.com",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

func TestChangedLinesWorkingTree(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	git(t, dir, "init", "-q")
	path := filepath.Join(dir, "main.py")
	if err := os.WriteFile(path, []byte("a = 1\nb = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	git(t, dir, "add", ".")
	git(t, dir, "-c", "commit.gpgsign=false", "commit", "-q", "-m", "init")

	if err := os.WriteFile(path, []byte("a = 1\nnew = 0\nb = 2\nc = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ChangedLines(path, WorkingTree)
	if err != nil {
		t.Fatalf("ChangedLines: %v", err)
	}
	want := map[int]bool{1: true, 3: true}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ChangedLines = %v, want %v", got, want)
	}
}
