package app

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestModelCheckBuiltin(t *testing.T) {
	var out bytes.Buffer
	if err := RunModelCheck("mode", strings.Fields("0 0 0 0 0 0 0 0 0"), &out); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "class 0 (sitting)") || strings.Count(out.String(), "score") != 4 {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

func TestModelCheckFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phase.yaml")
	doc := "kind: tree\nname: phase\ndim: 1\nnodes:\n  - {feature: 0, threshold: 0.5, left: 1, right: 2}\n  - {class: 0}\n  - {class: 1}\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := RunModelCheck(path, []string{"0.9"}, &out); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out.String()) != "class 1 (swing)" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestModelCheckRejectsBadRows(t *testing.T) {
	if err := RunModelCheck("phase", []string{"1", "2"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected dimension error")
	}
	if err := RunModelCheck("phase", strings.Fields("0 0 0 0 x 0 0 0 0"), &bytes.Buffer{}); err == nil {
		t.Fatal("expected parse error")
	}
}
