package main

import (
	"context"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/csheth/artscout/internal/articfake"
	"github.com/csheth/artscout/internal/tuitest"
)

func TestBrowserShowsHighlightsAndQuits(t *testing.T) {
	t.Parallel()

	fake := articfake.New(t)
	cmdDir := moduleDir(t)
	binary := buildBinary(t, cmdDir)
	favorites := filepath.Join(t.TempDir(), "savedArtworks.json")

	rec, err := tuitest.Run(context.Background(), tuitest.Config{
		Command: []string{binary, "--no-alt-screen", "--favorites", favorites},
		Dir:     t.TempDir(),
		Env:     []string{"ARTSCOUT_API_BASE=" + fake.APIBase(), "ARTSCOUT_IIIF_BASE=" + fake.IIIFBase()},
		Width:   100,
		Height:  32,
		Steps: []tuitest.Step{
			{WaitFor: "American Gothic 11"},
			{Input: []byte("?")},
			{WaitFor: "Navigation Cheatsheet"},
			{Input: []byte("q")},
		},
		Timeout:        15 * time.Second,
		AllowInterrupt: true,
	})
	if err != nil {
		t.Fatalf("run CLI: %v", err)
	}

	if !rec.Contains("Wander the Art Institute of Chicago") {
		t.Fatalf("hero tagline never rendered:\n%s", rec.Raw)
	}
	frame, ok := rec.LastFrameContaining("Cheatsheet")
	if !ok {
		t.Fatal("no frame with the key legend")
	}
	if !strings.Contains(frame.Plain, "Home") {
		t.Fatalf("legend frame missing tab bar:\n%s", frame.Plain)
	}
	if hits := fake.SearchHits(1); hits != 0 {
		t.Fatalf("home requested page 1 %d times", hits)
	}
}

func TestPageCommandPrintsTable(t *testing.T) {
	t.Parallel()

	fake := articfake.New(t)
	binary := buildBinary(t, moduleDir(t))
	cmd := exec.Command(binary, "page", "2", "--api-base", fake.APIBase())
	cmd.Dir = t.TempDir()
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("page command: %v\n%s", err, output)
	}
	for _, want := range []string{"Page 2 of 6", "American Gothic 11", "1020"} {
		if !strings.Contains(string(output), want) {
			t.Fatalf("output missing %q:\n%s", want, output)
		}
	}
}

func moduleDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	return filepath.Dir(file)
}

func buildBinary(t *testing.T, cmdDir string) string {
	t.Helper()
	tmp := t.TempDir()
	name := "artscout-integration"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	binPath := filepath.Join(tmp, name)
	cmd := exec.Command("go", "build", "-o", binPath, ".")
	cmd.Dir = cmdDir
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build CLI: %v\n%s", err, output)
	}
	return binPath
}
