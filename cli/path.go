package cli

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/ardnew/jvav/pkg"
)

// Configuration file names within the configuration directory. Flag defaults
// are resolved from the JSON file first, then from the YAML file written by
// the config command.
const (
	baseConfig     = "config.yaml"
	baseJSONConfig = "config.json"
)

var defaultDirMode os.FileMode = 0o700

// basePrefix returns the directory name shared by the configuration and cache
// directories: the executable's base name with any extension and leading dots
// removed. Debugger builds ("__debug_bin" followed by digits) use [pkg.Name].
var basePrefix = sync.OnceValue(
	func() string {
		id := os.Args[0]
		if exe, err := os.Executable(); err == nil {
			id = exe
		}

		id = filepath.Base(id)
		id = strings.TrimSuffix(id, filepath.Ext(id))

		if debugBin.MatchString(id) {
			return pkg.Name
		}

		if id = strings.TrimLeft(id, "."); id == "" {
			return pkg.Name
		}

		return id
	},
)

var debugBin = regexp.MustCompile(`^__debug_bin\d+$`)

// userDir returns the jvav subdirectory of the directory reported by lookup.
// When lookup fails it falls back to hidden under the home directory, and
// then to the working directory.
func userDir(lookup func() (string, error), hidden string) string {
	dir, err := lookup()
	if err != nil {
		if home, herr := os.UserHomeDir(); herr == nil {
			dir = filepath.Join(home, hidden)
		} else if dir, err = os.Getwd(); err != nil {
			dir = "."
		}
	}

	return filepath.Join(dir, basePrefix())
}

var (
	configDir = sync.OnceValue(func() string {
		return userDir(os.UserConfigDir, ".config")
	})

	// cacheDir holds the REPL history and pprof output.
	cacheDir = sync.OnceValue(func() string {
		return userDir(os.UserCacheDir, ".cache")
	})
)

// configPath joins elem onto the configuration directory.
func configPath(elem ...string) string {
	return filepath.Join(append([]string{configDir()}, elem...)...)
}

// mkdirAllRequired creates the configuration and cache directories.
func mkdirAllRequired() error {
	for _, dir := range []string{configDir(), cacheDir()} {
		if err := os.MkdirAll(dir, defaultDirMode); err != nil {
			return err
		}
	}

	return nil
}
