package stages

import (
	"github.com/pkg/errors"

	"github.com/askiada/go-assetpipe/pkg/pipeline"
)

func filter(name string, patterns []string) (pipeline.Matcher, error) {
	m, err := pipeline.Glob(patterns...)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s filter", name)
	}

	return m, nil
}
