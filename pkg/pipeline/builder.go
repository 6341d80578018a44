package pipeline

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// scope is the set of branches created while one stage instance is composed.
type scope struct {
	path     string
	branches []*Builder
	sealed   bool
}

// Builder is handed to a stage callback. It is bound to one position of the graph: the
// main stream of the stage, or a branch returned by Filter or Copy.
//
// Builders are only valid while the callback that received them runs. Errors found while
// composing are kept by the pipeline and returned by Compose, so calls can be chained.
type Builder struct {
	pipe     *Pipeline
	scope    *scope
	pos      *port
	handler  ErrorHandler
	attached int
}

func (b *Builder) usable() bool {
	if b.pipe.buildErr != nil {
		return false
	}
	if b.scope.sealed {
		b.pipe.fail(errors.Wrap(ErrBuilderSealed, b.scope.path))

		return false
	}

	return true
}

// Pipe appends t to the stream of the builder, in place: whatever is attached next sees
// the output of t. A stage Instance is composed inline, its callback runs right away.
func (b *Builder) Pipe(t Transform) *Builder {
	if !b.usable() {
		return b
	}

	var (
		out *port
		err error
	)
	switch v := t.(type) {
	case nil:
		err = errors.Wrap(ErrTransformMustBeSet, b.scope.path)
	case *Instance:
		if v == nil {
			err = errors.Wrap(ErrStageMustBeSet, b.scope.path)

			break
		}
		out, err = b.pipe.inline(v, b.scope, b.pos, b.handler)
	default:
		out, err = b.pipe.addTransform(b.scope, t, b.pos, b.handler)
	}
	if err != nil {
		b.pipe.fail(err)

		return b
	}

	b.pos = out
	b.attached++

	return b
}

// Filter moves the files matching m out of the stream into the returned branch. Files of
// a branch nothing is attached to are dropped.
func (b *Builder) Filter(m Matcher) *Builder {
	return b.split(m, false)
}

// Copy sends a copy of the files matching m to the returned branch. They also stay in the
// stream.
func (b *Builder) Copy(m Matcher) *Builder {
	return b.split(m, true)
}

func (b *Builder) split(m Matcher, fork bool) *Builder {
	branch := &Builder{
		pipe:    b.pipe,
		scope:   b.scope,
		handler: b.handler,
	}
	if !b.usable() {
		return branch
	}
	if m == nil {
		b.pipe.fail(errors.Wrap(ErrMatcherMustBeSet, b.scope.path))

		return branch
	}

	mainOut, branchOut, err := b.pipe.addSplit(b.scope, m, fork, b.pos)
	if err != nil {
		b.pipe.fail(err)

		return branch
	}
	b.pos = mainOut
	branch.pos = branchOut
	b.scope.branches = append(b.scope.branches, branch)

	return branch
}

// OnError sets how failures of the transforms attached from now on are handled, on this
// builder and on the branches and stages derived from it. A nil handler restores the
// pipeline default.
func (b *Builder) OnError(handler ErrorHandler) *Builder {
	if handler == nil {
		handler = b.pipe.handler
	}
	b.handler = handler

	return b
}

// Logger returns the pipeline logger.
func (b *Builder) Logger() *zap.Logger {
	return b.pipe.logger
}

// Path returns the path of the stage instance being composed, such as "build/styles".
func (b *Builder) Path() string {
	return b.scope.path
}

// inline runs the callback of inst on a new scope fed by in and returns the output of the
// instance: its main stream joined with every branch that was given a transform.
func (p *Pipeline) inline(inst *Instance, parent *scope, in *port, handler ErrorHandler) (*port, error) {
	sc := &scope{path: inst.name}
	if parent != nil {
		sc.path = parent.path + "/" + inst.name
	}
	main := &Builder{
		pipe:    p,
		scope:   sc,
		pos:     in,
		handler: handler,
	}

	err := inst.compose(main)
	sc.sealed = true
	if err != nil {
		return nil, errors.Wrapf(err, "unable to compose stage %s", sc.path)
	}
	if p.buildErr != nil {
		return nil, p.buildErr
	}

	tails := []*port{main.pos}
	for _, branch := range sc.branches {
		if branch.attached == 0 {
			err := p.addDrain(sc, branch.pos)
			if err != nil {
				return nil, err
			}

			continue
		}
		tails = append(tails, branch.pos)
	}
	if len(tails) == 1 {
		return tails[0], nil
	}

	return p.addMerge(sc, tails)
}
