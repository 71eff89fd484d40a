package buildinfo

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	s := String()
	for _, want := range []string{"version: " + Version, "commit: " + Commit, "built: " + Date} {
		if !strings.Contains(s, want) {
			t.Errorf("String() missing %q: %s", want, s)
		}
	}
}

func TestTemplate(t *testing.T) {
	if !strings.HasPrefix(Template(), "{{.Name}} version "+Version) {
		t.Errorf("unexpected template: %s", Template())
	}
}

func TestGet(t *testing.T) {
	old := Commit
	Commit = "abc123"
	t.Cleanup(func() { Commit = old })

	info := Get()
	if info.Version != Version || info.Commit != "abc123" || info.Date != Date {
		t.Errorf("Get() = %+v", info)
	}
}
