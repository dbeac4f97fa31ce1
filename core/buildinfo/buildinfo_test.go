package buildinfo

import "testing"

func TestSummary(t *testing.T) {
	v, c, d := Version, Commit, Date
	t.Cleanup(func() { Version, Commit, Date = v, c, d })

	Version, Commit, Date = "dev", "local", ""
	if got := Summary(); got != "dev (local)" {
		t.Fatalf("summary = %q", got)
	}
	Version, Commit, Date = "v1.0.0", "abc", "2025-01-01T00:00:00Z"
	if got := Summary(); got != "v1.0.0 (abc, 2025-01-01T00:00:00Z)" {
		t.Fatalf("summary = %q", got)
	}
}
