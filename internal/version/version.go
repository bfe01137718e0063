// Package version provides the build version of the tools
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
)

// set by the linker:
// -ldflags "-X github.com/effective-security/xjwt/internal/version.commit=..."
var (
	commit  = ""
	release = ""
)

// Info describes the build version
type Info struct {
	Major   int    `json:"major"`
	Minor   int    `json:"minor"`
	Patch   int    `json:"patch"`
	Commit  string `json:"commit,omitempty"`
	Runtime string `json:"runtime"`
}

// String returns the version in vMajor.Minor.Patch[-commit] form
func (v Info) String() string {
	s := fmt.Sprintf("v%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Commit != "" {
		s += "-" + v.Commit
	}
	return s
}

// Current returns the version of the running binary
func Current() Info {
	rel := release
	rev := commit
	if bi, ok := debug.ReadBuildInfo(); ok {
		if rel == "" && bi.Main.Version != "(devel)" {
			rel = bi.Main.Version
		}
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && rev == "" {
				rev = s.Value
			}
		}
	}
	if len(rev) > 8 {
		rev = rev[:8]
	}

	v := parse(rel)
	v.Commit = rev
	v.Runtime = runtime.Version()
	return v
}

// parse returns the version from v1.2.3 or 1.2.3-suffix form,
// the missing parts are zero
func parse(s string) Info {
	var v Info
	s = strings.TrimPrefix(s, "v")
	if i := strings.IndexAny(s, "-+"); i >= 0 {
		s = s[:i]
	}
	parts := strings.Split(s, ".")
	nums := []*int{&v.Major, &v.Minor, &v.Patch}
	for i, p := range parts {
		if i >= len(nums) {
			break
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			break
		}
		*nums[i] = n
	}
	return v
}
