// Package version reports build provenance: the -ldflags-injected release
// tag plus whatever the Go toolchain embedded in the binary itself.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// Release identifies the emulator build. Unset at compile time, these stay
// at their zero value and Info falls back to the embedded VCS stamp.
var (
	Release   = "dev"
	Commit    = "unknown"
	Timestamp = "unknown"
	Builder   = "unknown"
)

// Info is a resolved snapshot of everything version.go can report about the
// running binary: the caller-supplied ldflags plus the Go runtime's own
// module/VCS metadata.
type Info struct {
	Release   string
	Commit    string
	Timestamp string
	Builder   string
	Go        string
	OS        string
	Arch      string
	CGO       bool
}

// Collect gathers build provenance, preferring ldflags values and filling
// any still at "unknown" from the binary's embedded debug.BuildInfo.
func Collect() Info {
	info := Info{
		Release:   Release,
		Commit:    Commit,
		Timestamp: Timestamp,
		Builder:   Builder,
		Go:        runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			if info.Commit == "unknown" {
				info.Commit = setting.Value
			}
		case "vcs.time":
			if info.Timestamp == "unknown" {
				info.Timestamp = setting.Value
			}
		case "CGO_ENABLED":
			info.CGO = setting.Value == "1"
		}
	}
	return info
}

// Short returns a terse version string, e.g. "1.2.0" or "dev-a1b2c3d" when
// no release tag was injected but a VCS revision is embedded.
func Short() string {
	if Release != "dev" {
		return Release
	}
	if commit := Collect().Commit; commit != "unknown" && len(commit) >= 7 {
		return "dev-" + commit[:7]
	}
	return Release
}

// Long renders a one-line build summary suitable for --version output.
func Long() string {
	info := Collect()
	var b strings.Builder
	fmt.Fprintf(&b, "gones %s", info.Release)
	if info.Commit != "unknown" {
		commit := info.Commit
		if len(commit) >= 7 {
			commit = commit[:7]
		}
		fmt.Fprintf(&b, " (%s)", commit)
	}
	if info.Timestamp != "unknown" {
		if t, err := time.Parse(time.RFC3339, info.Timestamp); err == nil {
			fmt.Fprintf(&b, " built %s", t.Format("2006-01-02 15:04:05"))
		} else {
			fmt.Fprintf(&b, " built %s", info.Timestamp)
		}
	}
	fmt.Fprintf(&b, " — %s %s/%s", info.Go, info.OS, info.Arch)
	if info.Builder != "unknown" {
		fmt.Fprintf(&b, " by %s", info.Builder)
	}
	return b.String()
}

// Print writes a multi-line build report to stdout for the --version flag.
func Print() {
	info := Collect()
	fmt.Println("gones - NES emulator")
	fmt.Printf("Release:   %s\n", info.Release)
	fmt.Printf("Commit:    %s\n", info.Commit)
	fmt.Printf("Built:     %s\n", info.Timestamp)
	fmt.Printf("Builder:   %s\n", info.Builder)
	fmt.Printf("Toolchain: %s\n", info.Go)
	fmt.Printf("Target:    %s/%s\n", info.OS, info.Arch)
	fmt.Printf("CGO:       %t\n", info.CGO)
}
