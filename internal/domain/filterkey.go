package domain

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"howett.net/plist"
)

// FilterKey is the derived app-name pattern used to attribute a raw log
// line to the target application. Derived once per watch session.
type FilterKey struct {
	BaseName   string // app bundle name with the ".app" suffix stripped
	DylibToken string // "<BaseName>.debug.dylib", the injected debug library
}

// bundleInfo is the subset of Info.plist we care about.
type bundleInfo struct {
	Executable string `plist:"CFBundleExecutable"`
}

// DeriveFilterKey derives a FilterKey from an application bundle path.
// For "/a/b/MyApp.app" the base name is "MyApp"; a path without the
// ".app" suffix falls back to its last path segment. When the path points
// at a real bundle directory, CFBundleExecutable from Info.plist takes
// precedence over the path-derived name (best-effort, never fatal).
func DeriveFilterKey(appPath string) (FilterKey, error) {
	cleaned := strings.TrimRight(appPath, "/")
	if cleaned == "" {
		return FilterKey{}, fmt.Errorf("empty application path")
	}

	base := filepath.Base(cleaned)
	name := strings.TrimSuffix(base, ".app")
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = base
	}
	if name == "" || name == "." || name == string(filepath.Separator) {
		return FilterKey{}, fmt.Errorf("cannot derive app name from path %q", appPath)
	}

	if exe := bundleExecutable(cleaned); exe != "" {
		name = exe
	}

	return FilterKey{
		BaseName:   name,
		DylibToken: name + ".debug.dylib",
	}, nil
}

// bundleExecutable reads CFBundleExecutable from the bundle's Info.plist.
// Returns "" on any failure.
func bundleExecutable(bundlePath string) string {
	data, err := os.ReadFile(filepath.Join(bundlePath, "Info.plist"))
	if err != nil {
		return ""
	}
	var info bundleInfo
	if _, err := plist.Unmarshal(data, &info); err != nil {
		return ""
	}
	return info.Executable
}
