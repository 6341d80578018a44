// Package deleted removes files from a destination directory once they disappear from a stream.
package deleted

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/askiada/go-assetpipe/pkg/pipeline"
	"github.com/askiada/go-assetpipe/pkg/pipeline/model"
)

// Stale returns the paths under dest, relative and slash separated, that match m and are
// not in files.
func Stale(fs afero.Fs, dest string, m pipeline.Matcher, files []*model.File) ([]string, error) {
	present := make(map[string]bool, len(files))
	for _, file := range files {
		present[file.Path] = true
	}

	exists, err := afero.DirExists(fs, dest)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to stat %s", dest)
	}
	if !exists {
		return nil, nil
	}

	var stale []string
	err = afero.Walk(fs, dest, func(filePath string, info os.FileInfo, err error) error {
		if err != nil {
			return errors.Wrapf(err, "unable to walk %s", filePath)
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dest, filePath)
		if err != nil {
			return errors.Wrapf(err, "unable to get relative path of %s", filePath)
		}
		rel = filepath.ToSlash(rel)
		if present[rel] || !m.Match(&model.File{Path: rel}) {
			return nil
		}
		stale = append(stale, rel)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return stale, nil
}

// Deleted passes the whole stream through, then removes from dest every file matching
// patterns that the stream did not hold. Patterns use the .dockerignore syntax.
func Deleted(fs afero.Fs, dest string, patterns []string) (pipeline.Transform, error) {
	m, err := pipeline.Patterns(patterns...)
	if err != nil {
		return nil, err
	}

	return pipeline.Collect("deleted", func(_ context.Context, files []*model.File) ([]*model.File, error) {
		stale, err := Stale(fs, dest, m, files)
		if err != nil {
			return nil, err
		}
		for _, rel := range stale {
			target := filepath.Join(dest, filepath.FromSlash(rel))
			err := fs.Remove(target)
			if err != nil {
				return nil, errors.Wrapf(err, "unable to remove %s", target)
			}
		}

		return files, nil
	}), nil
}
