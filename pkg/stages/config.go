package stages

import (
	"dario.cat/mergo"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/askiada/go-assetpipe/pkg/transforms/autoprefix"
	"github.com/askiada/go-assetpipe/pkg/transforms/babel"
	"github.com/askiada/go-assetpipe/pkg/transforms/imagemin"
	"github.com/askiada/go-assetpipe/pkg/transforms/preprocess"
	"github.com/askiada/go-assetpipe/pkg/transforms/rev"
	"github.com/askiada/go-assetpipe/pkg/transforms/sass"
)

// Paths are the directories the pipelines read from and write to.
type Paths struct {
	Src  string `mapstructure:"src" yaml:"src"`
	Temp string `mapstructure:"temp" yaml:"temp"`
	Dist string `mapstructure:"dist" yaml:"dist"`
}

// Filters select the files of the stages. Babel, Sass and Rev are globs, Clean uses the
// .dockerignore syntax.
type Filters struct {
	Babel []string `mapstructure:"babel" yaml:"babel"`
	Sass  []string `mapstructure:"sass" yaml:"sass"`
	Rev   []string `mapstructure:"rev" yaml:"rev"`
	Clean []string `mapstructure:"clean" yaml:"clean"`
}

// Config is the configuration of the build and dist pipelines.
type Config struct {
	Path         Paths               `mapstructure:"path" yaml:"path"`
	Filters      Filters             `mapstructure:"filters" yaml:"filters"`
	Sass         sass.Options        `mapstructure:"sass" yaml:"sass"`
	Autoprefixer autoprefix.Options  `mapstructure:"autoprefixer" yaml:"autoprefixer"`
	Babel        babel.Options       `mapstructure:"babel" yaml:"babel"`
	Rev          rev.Options         `mapstructure:"rev" yaml:"rev"`
	Images       imagemin.Options    `mapstructure:"images" yaml:"images"`
	Legacy       bool                `mapstructure:"legacy" yaml:"legacy"`
	Preprocess   *preprocess.Options `mapstructure:"preprocess" yaml:"preprocess"`

	// Fs is where the pipelines read and write. Nil means the OS filesystem.
	Fs afero.Fs `mapstructure:"-" yaml:"-"`
	// Compiler compiles stylesheets. Nil means libsass.
	Compiler sass.Compiler `mapstructure:"-" yaml:"-"`
}

// DefaultConfig returns the values used for the fields a configuration omits.
func DefaultConfig() Config {
	return Config{
		Path: Paths{
			Src:  "src",
			Temp: ".tmp",
			Dist: "dist",
		},
		Filters: Filters{
			Babel: []string{"**/*.js"},
			Sass:  []string{"**/*.{scss,sass}"},
			Rev:   []string{"**/*.{css,js,map,png,jpg,jpeg,gif,svg,eot,ttf,woff,woff2,otf}"},
			Clean: []string{"*"},
		},
		Sass: sass.Options{
			OutputStyle: "nested",
			Precision:   5,
		},
		Babel: babel.Options{
			Target: "es2015",
		},
		Rev: rev.DefaultOptions(),
		Images: imagemin.Options{
			OptimizationLevel: 7,
			Concurrency:       4,
		},
	}
}

// WithDefaults returns a copy of c where every omitted field holds its default value.
func (c Config) WithDefaults() (Config, error) {
	err := mergo.Merge(&c, DefaultConfig())
	if err != nil {
		return c, errors.Wrap(err, "unable to apply default configuration")
	}

	return c, nil
}

func fsOrDefault(fs afero.Fs) afero.Fs {
	if fs == nil {
		return afero.NewOsFs()
	}

	return fs
}
