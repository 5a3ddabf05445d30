package version

import (
	"bytes"
	"runtime"
	"strings"
	"testing"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()
	if info.GoVersion != runtime.Version() {
		t.Errorf("Expected %s, got %s", runtime.Version(), info.GoVersion)
	}
	if info.Platform != runtime.GOOS+"/"+runtime.GOARCH {
		t.Errorf("Unexpected platform %s", info.Platform)
	}
}

func TestGetVersionUsesLdflags(t *testing.T) {
	saved := Version
	defer func() { Version = saved }()

	Version = "1.2.3"
	if got := GetVersion(); got != "1.2.3" {
		t.Errorf("Expected 1.2.3, got %s", got)
	}
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf)
	if !strings.HasPrefix(buf.String(), "gameboii ") {
		t.Errorf("Unexpected output %q", buf.String())
	}
	if !strings.Contains(buf.String(), "Go Version:  "+runtime.Version()) {
		t.Errorf("Expected the Go version, got %q", buf.String())
	}
}
