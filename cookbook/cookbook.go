// Package cookbook loads cookbook files from disk and drives whole-cookbook
// conversion.
//
// The conversion core is pure: it sees in-memory text only. All file I/O
// lives here. Attributes are resolved once per cookbook and the resulting
// read-only table is shared by every recipe conversion, so recipes convert
// concurrently.
package cookbook

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// A File is one source file, read fully into memory. Name is the file name
// without extension; Path is kept for diagnostics.
type File struct {
	Name string
	Path string
	Body string
}

// A Cookbook is the loaded source tree of one cookbook.
type Cookbook struct {
	Name string
	Path string

	Recipes    []File
	Attributes []File
	Resources  []File
}

var metadataNameRe = regexp.MustCompile(`(?m)^name\s+['"]([^'"]+)['"]`)

// Load reads a cookbook directory. The cookbook name comes from metadata.rb
// when present, otherwise from the directory name. Missing subdirectories
// are fine; an empty cookbook is legal.
func Load(dir string) (*Cookbook, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrap(err, "resolve cookbook path")
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, errors.Wrap(err, "open cookbook")
	}

	cb := &Cookbook{
		Name: filepath.Base(abs),
		Path: abs,
	}

	if meta, err := ioutil.ReadFile(filepath.Join(abs, "metadata.rb")); err == nil {
		if m := metadataNameRe.FindSubmatch(meta); m != nil {
			cb.Name = string(m[1])
		}
	}

	if cb.Recipes, err = readDir(filepath.Join(abs, "recipes")); err != nil {
		return nil, err
	}
	if cb.Attributes, err = readDir(filepath.Join(abs, "attributes")); err != nil {
		return nil, err
	}
	if cb.Resources, err = readDir(filepath.Join(abs, "resources")); err != nil {
		return nil, err
	}

	return cb, nil
}

// readDir reads all .rb files in a directory, sorted by name so attribute
// declaration indices are stable across runs.
func readDir(dir string) ([]File, error) {
	entries, err := ioutil.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "read %s", dir)
	}

	var files []File
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".rb") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		body, err := ioutil.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", path)
		}
		files = append(files, File{
			Name: strings.TrimSuffix(e.Name(), ".rb"),
			Path: path,
			Body: string(body),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}
