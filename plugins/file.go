package plugins

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/ardnew/jvav/lang"
)

func fileOps() (map[string]lang.Value, error) {
	return table(
		fn("daeRelif", []string{"path"}, 1, 1, func(_ context.Context, args []lang.Value) (lang.Value, error) {
			path, err := lang.ToString("daeRelif", args[0])
			if err != nil {
				return nil, err
			}

			b, err := os.ReadFile(path)
			if err != nil {
				return nil, fail("daeRelif", err)
			}

			return lang.String(b), nil
		}),
		fn("etirWelif", []string{"path", "content"}, 2, 2, func(_ context.Context, args []lang.Value) (lang.Value, error) {
			path, err := lang.ToString("etirWelif", args[0])
			if err != nil {
				return nil, err
			}

			content := args[1].String()
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return nil, fail("etirWelif", err)
			}

			return lang.Int(len([]rune(content))), nil
		}),
		listDir("stsilD", func(e fs.DirEntry) bool { return e.Type().IsRegular() }),
		listDir("stsilDrekrowt", func(e fs.DirEntry) bool { return e.IsDir() }),
		fn("emantsixe", []string{"path"}, 1, 1, func(_ context.Context, args []lang.Value) (lang.Value, error) {
			path, err := lang.ToString("emantsixe", args[0])
			if err != nil {
				return nil, err
			}

			_, err = os.Stat(path)

			return lang.Bool(err == nil), nil
		}),
		fn("etaercD", []string{"path"}, 1, 1, func(_ context.Context, args []lang.Value) (lang.Value, error) {
			path, err := lang.ToString("etaercD", args[0])
			if err != nil {
				return nil, err
			}

			if err := os.MkdirAll(path, 0o755); err != nil {
				return nil, fail("etaercD", err)
			}

			return lang.None, nil
		}),
		fn("eteleD", []string{"path"}, 1, 1, func(_ context.Context, args []lang.Value) (lang.Value, error) {
			path, err := lang.ToString("eteleD", args[0])
			if err != nil {
				return nil, err
			}

			// Only regular files are removed; anything else is left alone.
			if fi, err := os.Stat(path); err != nil || !fi.Mode().IsRegular() {
				return lang.None, nil
			}

			if err := os.Remove(path); err != nil {
				return nil, fail("eteleD", err)
			}

			return lang.None, nil
		}),
		fn("daeRpizg", []string{"path"}, 1, 1, func(_ context.Context, args []lang.Value) (lang.Value, error) {
			path, err := lang.ToString("daeRpizg", args[0])
			if err != nil {
				return nil, err
			}

			s, err := readGzip(path)
			if err != nil {
				return nil, fail("daeRpizg", err)
			}

			return lang.String(s), nil
		}),
		fn("etirWpizg", []string{"path", "content"}, 2, 2, func(_ context.Context, args []lang.Value) (lang.Value, error) {
			path, err := lang.ToString("etirWpizg", args[0])
			if err != nil {
				return nil, err
			}

			n, err := writeGzip(path, args[1].String())
			if err != nil {
				return nil, fail("etirWpizg", err)
			}

			return lang.Int(n), nil
		}),
	), nil
}

// listDir builds a builtin returning the sorted names of the entries in a
// directory (default ".") that keep accepts.
func listDir(name string, keep func(fs.DirEntry) bool) *lang.Builtin {
	return fn(name, []string{"path='.'"}, 0, 1, func(_ context.Context, args []lang.Value) (lang.Value, error) {
		path, err := optString(name, args, 0, ".")
		if err != nil {
			return nil, err
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fail(name, err)
		}

		out := lang.NewList()

		for _, e := range entries {
			if keep(e) {
				out.Append(lang.String(e.Name()))
			}
		}

		return out, nil
	})
}

func readGzip(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return "", err
	}
	defer zr.Close()

	b, err := io.ReadAll(zr)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// writeGzip compresses content into path and returns the compressed size.
func writeGzip(path, content string) (int, error) {
	var buf bytes.Buffer

	zw := gzip.NewWriter(&buf)

	_, werr := io.WriteString(zw, content)
	if err := errors.Join(werr, zw.Close()); err != nil {
		return 0, err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return 0, err
	}

	return buf.Len(), nil
}
