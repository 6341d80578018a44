// Package rename changes the path of files.
package rename

import (
	"context"
	"path"

	"github.com/askiada/go-assetpipe/pkg/pipeline"
	"github.com/askiada/go-assetpipe/pkg/pipeline/model"
)

// Options describes the new path. Empty fields leave the matching part unchanged.
type Options struct {
	// Dirname replaces the directory of the file.
	Dirname string
	// Prefix is prepended to the stem.
	Prefix string
	// Suffix is appended to the stem, before the extension.
	Suffix string
	// Extname replaces the extension, dot included.
	Extname string
}

// Path returns the renamed version of filePath.
func (o Options) Path(filePath string) string {
	dir := path.Dir(filePath)
	ext := path.Ext(filePath)
	stem := path.Base(filePath)
	stem = stem[:len(stem)-len(ext)]

	if o.Dirname != "" {
		dir = o.Dirname
	}
	if o.Extname != "" {
		ext = o.Extname
	}

	return path.Join(dir, o.Prefix+stem+o.Suffix+ext)
}

// Rename moves every file according to opts.
func Rename(opts Options) pipeline.Transform {
	return pipeline.Map("rename", func(_ context.Context, file *model.File) (*model.File, error) {
		file.Rename(opts.Path(file.Path))

		return file, nil
	})
}
