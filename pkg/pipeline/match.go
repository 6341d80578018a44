package pipeline

import (
	"strings"

	"github.com/gobwas/glob"
	"github.com/moby/patternmatcher"
	"github.com/pkg/errors"

	"github.com/askiada/go-assetpipe/pkg/pipeline/model"
)

// Matcher selects files for Filter, Copy and Exclude.
type Matcher interface {
	Match(file *model.File) bool
}

// MatchFunc adapts a predicate to a Matcher.
type MatchFunc func(file *model.File) bool

// Match calls fn.
func (fn MatchFunc) Match(file *model.File) bool {
	return fn(file)
}

type globMatcher struct {
	globs []glob.Glob
}

func (g *globMatcher) Match(file *model.File) bool {
	for _, gl := range g.globs {
		if gl.Match(file.Path) {
			return true
		}
	}

	return false
}

// Glob matches file paths against any of the patterns. "*" stops at "/", "**" crosses
// directories and "{a,b}" is an alternation. A leading "**/" also matches top level files.
func Glob(patterns ...string) (Matcher, error) {
	gm := &globMatcher{}
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		variants := []string{pattern}
		if rest, ok := strings.CutPrefix(pattern, "**/"); ok {
			variants = append(variants, rest)
		}
		for _, variant := range variants {
			gl, err := glob.Compile(variant, '/')
			if err != nil {
				return nil, errors.Wrapf(err, "unable to compile glob %q", pattern)
			}
			gm.globs = append(gm.globs, gl)
		}
	}
	if len(gm.globs) == 0 {
		return nil, ErrEmptyPattern
	}

	return gm, nil
}

// MustGlob is like Glob but panics on invalid patterns.
// A panic raised while a stage is composed is reported as a composition error.
func MustGlob(patterns ...string) Matcher {
	m, err := Glob(patterns...)
	if err != nil {
		panic(err)
	}

	return m
}

type patternMatcher struct {
	pm *patternmatcher.PatternMatcher
}

func (p *patternMatcher) Match(file *model.File) bool {
	ok, err := p.pm.MatchesOrParentMatches(file.Path)

	return err == nil && ok
}

// Patterns matches paths against an ordered include list in the .dockerignore syntax:
// a pattern starting with "!" excludes what previous patterns included.
func Patterns(patterns ...string) (Matcher, error) {
	cleaned := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if strings.TrimSpace(pattern) != "" {
			cleaned = append(cleaned, pattern)
		}
	}
	if len(cleaned) == 0 {
		return nil, ErrEmptyPattern
	}
	pm, err := patternmatcher.New(cleaned)
	if err != nil {
		return nil, errors.Wrap(err, "unable to compile patterns")
	}

	return &patternMatcher{pm: pm}, nil
}

// Not inverts m.
func Not(m Matcher) Matcher {
	return MatchFunc(func(file *model.File) bool {
		return !m.Match(file)
	})
}

// All matches files matched by every matcher.
func All(ms ...Matcher) Matcher {
	return MatchFunc(func(file *model.File) bool {
		for _, m := range ms {
			if !m.Match(file) {
				return false
			}
		}

		return true
	})
}

// Any matches files matched by at least one matcher.
func Any(ms ...Matcher) Matcher {
	return MatchFunc(func(file *model.File) bool {
		for _, m := range ms {
			if m.Match(file) {
				return true
			}
		}

		return false
	})
}
