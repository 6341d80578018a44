// Package autoprefix pipes stylesheets through an external vendor prefixer.
package autoprefix

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/mattn/go-shellwords"
	"github.com/pkg/errors"

	"github.com/askiada/go-assetpipe/pkg/pipeline"
	"github.com/askiada/go-assetpipe/pkg/pipeline/model"
)

// Options configures the prefixer.
type Options struct {
	// Command reads CSS on stdin and writes the prefixed CSS on stdout, for instance
	// "npx postcss --use autoprefixer". An empty command leaves files unchanged.
	Command string `mapstructure:"command" yaml:"command"`
	// Browsers is exported as BROWSERSLIST to the command.
	Browsers []string `mapstructure:"browsers" yaml:"browsers"`
}

// Exec runs the command once per file.
func Exec(opts Options) (pipeline.Transform, error) {
	if strings.TrimSpace(opts.Command) == "" {
		return pipeline.Map("autoprefixer", func(_ context.Context, file *model.File) (*model.File, error) {
			return file, nil
		}), nil
	}
	args, err := shellwords.Parse(opts.Command)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to parse command %q", opts.Command)
	}
	if len(args) == 0 {
		return nil, errors.Errorf("empty command %q", opts.Command)
	}
	env := os.Environ()
	if len(opts.Browsers) > 0 {
		env = append(env, "BROWSERSLIST="+strings.Join(opts.Browsers, ","))
	}

	return pipeline.Map("autoprefixer", func(ctx context.Context, file *model.File) (*model.File, error) {
		var stdout, stderr bytes.Buffer
		cmd := exec.CommandContext(ctx, args[0], args[1:]...)
		cmd.Env = env
		cmd.Stdin = bytes.NewReader(file.Contents)
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		err := cmd.Run()
		if err != nil {
			return nil, errors.Wrapf(err, "%s: %s", args[0], strings.TrimSpace(stderr.String()))
		}
		file.Contents = stdout.Bytes()

		return file, nil
	}), nil
}
