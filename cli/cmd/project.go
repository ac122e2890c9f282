package cmd

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/jvav/pkg"
	"github.com/ardnew/jvav/plugins"
)

const (
	// projectConfig is the configuration file of a project directory.
	projectConfig = "project.yaml"

	distDir      = "dist"
	sigExt       = ".sig"
	sigPrefix    = "SHA256:"
	fileMode     = 0o644
	projectPerms = 0o755
)

// Package is the JSON document written by build and read by run and verify.
type Package struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	JvavVersion string            `json:"jvav_version"`
	Main        string            `json:"main"`
	Config      string            `json:"config,omitempty"`
	Files       map[string]string `json:"files"`
	BuildInfo   BuildInfo         `json:"build_info"`
}

// BuildInfo records how a package was built.
type BuildInfo struct {
	Timestamp string `json:"timestamp"`
	Builder   string `json:"builder"`
	Platform  string `json:"platform"`
}

// projectSettings is the content of a new project's project.yaml.
type projectSettings struct {
	Project struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
		Main    string `yaml:"main"`
	} `yaml:"project"`
	Run struct {
		Input   string   `yaml:"input"`
		Plugins []string `yaml:"plugins"`
	} `yaml:"run"`
	Security struct {
		SignatureRequired bool   `yaml:"signature_required"`
		HashAlgorithm     string `yaml:"hash_algorithm"`
	} `yaml:"security"`
}

// Init scaffolds a new project directory.
type Init struct {
	Name string `arg:"" help:"Name of the project directory to create."`
}

// Run executes the init command.
func (c *Init) Run(ctx context.Context) error {
	out := stdout(ctx)

	if err := initProject(out, c.Name); err != nil {
		fmt.Fprintln(out, "[error] Failed to initialize project:", err)

		return ErrReported.Wrap(err)
	}

	fmt.Fprintf(out, "\nProject '%s' initialized successfully!\n", c.Name)
	fmt.Fprintf(out, "Enter the directory: cd %s\n", c.Name)
	fmt.Fprintln(out, "Run the project: "+pkg.Name+" run")
	fmt.Fprintln(out, "Build the project: "+pkg.Name+" build")

	return nil
}

func initProject(out io.Writer, name string) error {
	if _, err := os.Stat(name); err == nil {
		return ErrFileExists.With(slog.String("path", name))
	}

	if err := os.MkdirAll(name, projectPerms); err != nil {
		return err
	}

	fmt.Fprintln(out, "Created project directory:", name)

	var settings projectSettings
	settings.Project.Name = filepath.Base(name)
	settings.Project.Version = "1.0.0"
	settings.Project.Main = mainFile
	settings.Run.Input = "1"
	settings.Run.Plugins = plugins.DefaultLoaded
	settings.Security.SignatureRequired = true
	settings.Security.HashAlgorithm = "SHA256"

	config, err := yaml.MarshalWithOptions(settings, yaml.Indent(2))
	if err != nil {
		return ErrYAMLMarshal.Wrap(err)
	}

	files := []struct {
		name    string
		content []byte
	}{
		{mainFile, []byte(mainTemplate(settings.Project.Name))},
		{projectConfig, config},
		{"README.md", []byte(readmeTemplate(settings.Project.Name))},
	}

	for _, f := range files {
		if err := os.WriteFile(filepath.Join(name, f.name), f.content, fileMode); err != nil {
			return err
		}

		fmt.Fprintln(out, "Created", f.name)
	}

	if err := os.Mkdir(filepath.Join(name, distDir), projectPerms); err != nil {
		return err
	}

	fmt.Fprintln(out, "Created "+distDir+"/ directory")

	return nil
}

func mainTemplate(name string) string {
	return `# ` + name + pkg.SourceExt + ` - main project file

tnirp("Hello from ` + name + `!")

readings = [0.1, 0.3, 0.7, 0.2, 0.9, 0.4, 0.6, 0.8]
tnirp("Readings:")
for i in egnar(nel(readings)): tnirp("Channel " + rts(i) + ": " + rts(readings[i]))

average = nus(readings) / nel(readings)
tnirp("Average: " + rts(dnuor(average, 3)))
`
}

func readmeTemplate(name string) string {
	return "# " + name + `

A ` + pkg.Name + ` project.

## Running

` + "```" + `
` + pkg.Name + ` run ` + mainFile + `
` + "```" + `

## Building

` + "```" + `
` + pkg.Name + ` build
` + pkg.Name + ` verify ` + distDir + `/` + name + pkg.PackageExt + `
` + "```" + `

## Layout

- ` + "`" + mainFile + "`" + ` - entry point
- ` + "`" + projectConfig + "`" + ` - project settings
- ` + "`" + distDir + "/`" + ` - built packages
`
}

// Build packs the project in the current directory.
type Build struct {
	Dir string `default:"." help:"Project directory." short:"C" type:"existingdir"`
}

// Run executes the build command.
func (c *Build) Run(ctx context.Context) error {
	out := stdout(ctx)

	path, sum, err := buildPackage(out, c.Dir, time.Now().UTC())
	if err != nil {
		fmt.Fprintln(out, "[error]", err)

		return ErrReported.Wrap(err)
	}

	fmt.Fprintln(out, "Package created:", path)
	fmt.Fprintln(out, "Signature created:", path+sigExt)
	fmt.Fprintln(out, "Hash:", sum)

	return nil
}

// buildPackage writes dist/<name>.jvavpkg and its signature, returning the
// package path and its digest.
func buildPackage(out io.Writer, dir string, now time.Time) (string, string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", "", err
	}

	for _, required := range []string{mainFile, projectConfig} {
		if _, err := os.Stat(filepath.Join(abs, required)); err != nil {
			return "", "", ErrNoProject.With(slog.String("dir", abs)).
				Wrap(fmt.Errorf("no %s found, are you in a project directory?", required))
		}
	}

	name := filepath.Base(abs)
	fmt.Fprintln(out, "Building project:", name)

	stamp := now.Format(time.RFC3339)
	p := Package{
		Name:        name,
		Version:     "1.0.0",
		JvavVersion: pkg.Version,
		Main:        mainFile,
		Config:      projectConfig,
		Files:       map[string]string{},
		BuildInfo: BuildInfo{
			Timestamp: stamp,
			Builder:   pkg.Name + " " + pkg.Version,
			Platform:  runtime.GOOS + "-" + runtime.GOARCH,
		},
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return "", "", err
	}

	for _, e := range entries {
		n := e.Name()
		if !e.Type().IsRegular() || (n != projectConfig && filepath.Ext(n) != pkg.SourceExt) {
			continue
		}

		b, err := os.ReadFile(filepath.Join(abs, n))
		if err != nil {
			return "", "", ErrSource.With(slog.String("path", n)).Wrap(err)
		}

		p.Files[n] = string(b)
	}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if err := enc.Encode(p); err != nil {
		return "", "", ErrPackage.Wrap(err)
	}

	if err := os.MkdirAll(filepath.Join(abs, distDir), projectPerms); err != nil {
		return "", "", err
	}

	path := filepath.Join(abs, distDir, name+pkg.PackageExt)
	if err := os.WriteFile(path, buf.Bytes(), fileMode); err != nil {
		return "", "", err
	}

	sum := digest(buf.Bytes())
	sig := sigPrefix + sum + "\n" +
		"Signed-by: " + p.BuildInfo.Builder + "\n" +
		"Timestamp: " + stamp + "\n"

	if err := os.WriteFile(path+sigExt, []byte(sig), fileMode); err != nil {
		return "", "", err
	}

	return path, sum, nil
}

func digest(b []byte) string {
	sum := sha256.Sum256(b)

	return hex.EncodeToString(sum[:])
}

// Verify checks a package against its signature file.
type Verify struct {
	Package string `arg:"" help:"Package (${pkg}) to verify."`
}

// Run executes the verify command.
func (c *Verify) Run(ctx context.Context) error {
	out := stdout(ctx)

	fmt.Fprintln(out, "Verifying package:", c.Package)

	p, sum, err := verifyPackage(c.Package)
	if err != nil {
		fmt.Fprintln(out, "[error]", err)

		return ErrReported.Wrap(err)
	}

	fmt.Fprintln(out, "Package integrity verified successfully!")
	fmt.Fprintf(out, "Package: %s v%s\n", p.Name, p.Version)
	fmt.Fprintln(out, "JVAV Version:", p.JvavVersion)
	fmt.Fprintln(out, "Hash:", sum)
	fmt.Fprintln(out, "Build Time:", p.BuildInfo.Timestamp)

	return nil
}

// requiredFields lists the keys every package document must carry.
var requiredFields = []string{"name", "version", "jvav_version", "main", "files", "build_info"}

// verifyPackage checks path against path.sig and validates its structure.
func verifyPackage(path string) (*Package, string, error) {
	attr := slog.String("path", path)

	if !strings.HasSuffix(path, pkg.PackageExt) {
		return nil, "", ErrVerify.With(attr).Wrap(fmt.Errorf("can only verify %s files", pkg.PackageExt))
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, "", ErrVerify.With(attr).Wrap(err)
	}

	sig, err := os.ReadFile(path + sigExt)
	if err != nil {
		return nil, "", ErrSignature.With(attr).Wrap(err)
	}

	first, _, _ := strings.Cut(string(sig), "\n")
	first = strings.TrimSpace(first)

	want, ok := strings.CutPrefix(first, sigPrefix)
	if !ok {
		return nil, "", ErrSignature.With(attr).Wrap(fmt.Errorf("first line must start with %q", sigPrefix))
	}

	sum := digest(b)
	if sum != want {
		return nil, "", ErrVerify.With(attr, slog.String("expected", want), slog.String("actual", sum)).
			Wrap(fmt.Errorf("integrity check failed: expected %s, actual %s", want, sum))
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, "", ErrPackage.With(attr).Wrap(err)
	}

	for _, f := range requiredFields {
		if _, ok := fields[f]; !ok {
			return nil, "", ErrPackage.With(attr).Wrap(fmt.Errorf("missing required field %q", f))
		}
	}

	var p Package
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, "", ErrPackage.With(attr).Wrap(err)
	}

	if _, ok := p.Files[mainFile]; !ok {
		return nil, "", ErrPackage.With(attr).Wrap(fmt.Errorf("main file %q not found in package", mainFile))
	}

	return &p, sum, nil
}
