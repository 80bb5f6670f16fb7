package logx

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelsAndMirror(t *testing.T) {
	Reset()
	var mirror bytes.Buffer
	SetOutput(&mirror)
	SetLevel(Warn)
	t.Cleanup(func() { SetOutput(nil); SetLevel(Info); Reset() })

	Infof("hidden %d", 1)
	Warnf("kept %d", 2)

	lines := Lines()
	if len(lines) != 1 || !strings.Contains(lines[0], "WARN  kept 2") {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.Contains(mirror.String(), "kept 2") {
		t.Fatalf("mirror = %q", mirror.String())
	}
}

func TestBufferBound(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	for i := 0; i < maxLines+10; i++ {
		Errorf("line %d", i)
	}
	lines := Lines()
	if len(lines) != maxLines {
		t.Fatalf("len = %d", len(lines))
	}
	if !strings.HasSuffix(lines[len(lines)-1], "line 509") {
		t.Fatalf("last = %q", lines[len(lines)-1])
	}
}

func TestSetLevelFromEnv(t *testing.T) {
	t.Setenv("MTAIL_LOG_LEVEL", "debug")
	t.Setenv("MTAIL_LOG_STDERR", "")
	t.Setenv("MTAIL_LOG_FILE", "")
	c, err := SetLevelFromEnv()
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	t.Cleanup(func() { SetLevel(Info); Reset() })
	Reset()
	Debugf("visible")
	if len(Lines()) != 1 {
		t.Fatalf("debug line not kept: %q", Lines())
	}
}
