package deleted_test

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-assetpipe/pkg/pipeline"
	"github.com/askiada/go-assetpipe/pkg/pipeline/model"
	"github.com/askiada/go-assetpipe/pkg/transforms/deleted"
)

func TestDeleted(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	for _, p := range []string{"dist/css/app.css", "dist/css/old.css", "dist/js/old.js", "dist/keep/notes.txt"} {
		require.NoError(t, afero.WriteFile(fs, p, []byte("x"), 0o644))
	}

	tr, err := deleted.Deleted(fs, "dist", []string{"css", "js", "!js/vendor"})
	require.NoError(t, err)

	in := make(chan *model.File, 1)
	in <- model.NewFile("css/app.css", []byte("x"))
	close(in)
	out := make(chan *model.File, 1)
	require.NoError(t, tr.Apply(context.Background(), in, out))
	assert.Len(t, out, 1)

	tests := map[string]bool{
		"dist/css/app.css":    true,
		"dist/css/old.css":    false,
		"dist/js/old.js":      false,
		"dist/keep/notes.txt": true,
	}
	for p, want := range tests {
		ok, err := afero.Exists(fs, p)
		require.NoError(t, err)
		assert.Equal(t, want, ok, p)
	}
}

func TestStaleMissingDest(t *testing.T) {
	t.Parallel()

	stale, err := deleted.Stale(afero.NewMemMapFs(), "nope", pipeline.MustGlob("**"), nil)
	require.NoError(t, err)
	assert.Empty(t, stale)
}

func TestDeletedEmptyPatterns(t *testing.T) {
	t.Parallel()

	_, err := deleted.Deleted(afero.NewMemMapFs(), "dist", nil)
	require.ErrorIs(t, err, pipeline.ErrEmptyPattern)
}
