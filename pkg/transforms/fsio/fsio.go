// Package fsio reads files into a stream and writes them back to a filesystem.
package fsio

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/askiada/go-assetpipe/pkg/pipeline"
	"github.com/askiada/go-assetpipe/pkg/pipeline/model"
)

// Src passes its input through, then emits every regular file under root matching m, in
// lexical order. A nil matcher selects every file.
func Src(fs afero.Fs, root string, m pipeline.Matcher) pipeline.Transform {
	return pipeline.Named("src", pipeline.TransformFunc(func(ctx context.Context, in <-chan *model.File, out chan<- *model.File) error {
		for {
			file, ok, err := pipeline.Receive(ctx, in)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			err = pipeline.Send(ctx, out, file)
			if err != nil {
				return err
			}
		}

		return afero.Walk(fs, root, func(filePath string, info os.FileInfo, err error) error {
			if err != nil {
				return errors.Wrapf(err, "unable to walk %s", filePath)
			}
			if info.IsDir() || !info.Mode().IsRegular() {
				return nil
			}
			rel, err := filepath.Rel(root, filePath)
			if err != nil {
				return errors.Wrapf(err, "unable to get relative path of %s", filePath)
			}
			file := &model.File{
				Base:    root,
				Path:    filepath.ToSlash(rel),
				Mode:    info.Mode().Perm(),
				ModTime: info.ModTime(),
			}
			if m != nil && !m.Match(file) {
				return nil
			}
			file.Contents, err = afero.ReadFile(fs, filePath)
			if err != nil {
				return errors.Wrapf(err, "unable to read %s", filePath)
			}

			return pipeline.Send(ctx, out, file)
		})
	}))
}

// Dest writes every file under dir and passes it on with dir as its new base.
func Dest(fs afero.Fs, dir string) pipeline.Transform {
	return pipeline.Map("dest", func(_ context.Context, file *model.File) (*model.File, error) {
		err := Write(fs, dir, file)
		if err != nil {
			return nil, err
		}
		file.Base = dir

		return file, nil
	})
}

// Write stores a single file under dir.
func Write(fs afero.Fs, dir string, file *model.File) error {
	target := filepath.Join(dir, filepath.FromSlash(file.Path))
	err := fs.MkdirAll(filepath.Dir(target), 0o755)
	if err != nil {
		return errors.Wrapf(err, "unable to create directory for %s", target)
	}
	mode := file.Mode.Perm()
	if mode == 0 {
		mode = 0o644
	}
	err = afero.WriteFile(fs, target, file.Contents, mode)
	if err != nil {
		return errors.Wrapf(err, "unable to write %s", target)
	}

	return nil
}
