package stages_test

import (
	"github.com/askiada/go-assetpipe/pkg/transforms/autoprefix"
	"github.com/askiada/go-assetpipe/pkg/transforms/preprocess"
)

func stagesPreprocess(context map[string]interface{}) preprocess.Options {
	return preprocess.Options{
		Context: context,
		Filters: []string{"**/*.js", "**/*.html"},
	}
}

func autoprefixBadCommand() autoprefix.Options {
	return autoprefix.Options{Command: `postcss "unterminated`}
}
