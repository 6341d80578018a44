// Package changed drops files whose copy in a destination directory is identical.
package changed

import (
	"context"
	"os"
	"path/filepath"

	"github.com/opencontainers/go-digest"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/askiada/go-assetpipe/pkg/pipeline"
	"github.com/askiada/go-assetpipe/pkg/pipeline/model"
)

// HasChanged reports whether file differs from its copy under dest, comparing digests.
func HasChanged(fs afero.Fs, dest string, file *model.File) (bool, error) {
	target := filepath.Join(dest, filepath.FromSlash(file.Path))
	existing, err := afero.ReadFile(fs, target)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}

		return false, errors.Wrapf(err, "unable to read %s", target)
	}

	return digest.FromBytes(existing) != digest.FromBytes(file.Contents), nil
}

// Changed passes on the files that are new or different from their copy under dest.
func Changed(fs afero.Fs, dest string) pipeline.Transform {
	return pipeline.Map("changed", func(_ context.Context, file *model.File) (*model.File, error) {
		ok, err := HasChanged(fs, dest, file)
		if err != nil || !ok {
			return nil, err
		}

		return file, nil
	})
}
