package buildinfo

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	defer func(v, c, d string) { Version, Commit, Date = v, c, d }(Version, Commit, Date)
	Version, Commit, Date = "v1.2.3", "abc123", "2026-01-01"

	if got := Get(); got != (Info{Version: "v1.2.3", Commit: "abc123", Date: "2026-01-01"}) {
		t.Errorf("Get() = %+v", got)
	}
	if s := String(); !strings.Contains(s, "v1.2.3") || !strings.Contains(s, "abc123") {
		t.Errorf("String() = %q", s)
	}
	if tpl := Template(); !strings.HasPrefix(tpl, "{{.Name}} version v1.2.3") {
		t.Errorf("Template() = %q", tpl)
	}
}
