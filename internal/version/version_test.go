package version

import "testing"

func TestShort_DefaultsToDev(t *testing.T) {
	if got := Short(); got != "dev" && len(got) < 4 {
		t.Fatalf("Short() = %q, want \"dev\" or a dev-<commit> string", got)
	}
}

func TestLong_IncludesToolchainAndPlatform(t *testing.T) {
	info := Collect()
	long := Long()
	if !contains(long, info.Go) {
		t.Errorf("Long() = %q, want it to include toolchain version %q", long, info.Go)
	}
	if !contains(long, info.OS) || !contains(long, info.Arch) {
		t.Errorf("Long() = %q, want it to include platform %s/%s", long, info.OS, info.Arch)
	}
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return len(needle) == 0
}
