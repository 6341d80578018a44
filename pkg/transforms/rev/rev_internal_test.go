package rev

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelPath(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		from string
		to   string
		want string
	}{
		"top level":    {from: ".", to: "css/app.css", want: "css/app.css"},
		"same dir":     {from: "css", to: "css/app.css.map", want: "app.css.map"},
		"sibling dir":  {from: "css", to: "fonts/a.woff", want: "../fonts/a.woff"},
		"nested":       {from: "a/b", to: "a/c/d.png", want: "../c/d.png"},
		"to top level": {from: "css", to: "logo.svg", want: "../logo.svg"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, relPath(tt.from, tt.to))
		})
	}
}

func TestReplaceRefs(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		in           string
		replacements map[string]string
		want         string
	}{
		"quoted": {
			in:           `url("../fonts/a.woff")`,
			replacements: map[string]string{"../fonts/a.woff": "../fonts/a.123.woff"},
			want:         `url("../fonts/a.123.woff")`,
		},
		"query string": {
			in:           `url(a.woff?v=1)`,
			replacements: map[string]string{"a.woff": "a.1.woff"},
			want:         `url(a.1.woff?v=1)`,
		},
		"part of a longer name": {
			in:           `app.css.map xapp.css dir/app.css`,
			replacements: map[string]string{"app.css": "app.1.css"},
			want:         `app.css.map xapp.css dir/app.css`,
		},
		"longest wins": {
			in: `"./a.js" "a.js"`,
			replacements: map[string]string{
				"a.js":   "a.1.js",
				"./a.js": "a.1.js",
			},
			want: `"a.1.js" "a.1.js"`,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, string(replaceRefs([]byte(tt.in), tt.replacements)))
		})
	}
}

func TestContainsRef(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		in   string
		ref  string
		want bool
	}{
		"import":             {in: `@import url(a.css);`, ref: "a.css", want: true},
		"end of contents":    {in: `see a.css`, ref: "a.css", want: true},
		"longer name before": {in: `@import url(xa.css);`, ref: "a.css"},
		"longer name after":  {in: `url(a.css.map)`, ref: "a.css"},
		"second occurrence":  {in: `xa.css a.css`, ref: "a.css", want: true},
		"empty ref":          {in: `a.css`, ref: ""},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, containsRef([]byte(tt.in), tt.ref))
		})
	}
}
