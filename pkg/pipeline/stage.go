package pipeline

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/askiada/go-assetpipe/pkg/pipeline/model"
)

// Stage is a named, reusable unit of composition. It is defined once and instantiated
// with options every time it is attached.
type Stage[O any] struct {
	name string
	fn   func(b *Builder, opts O) error
}

// Define registers a stage. fn runs once per instance, when the instance is composed.
func Define[O any](name string, fn func(b *Builder, opts O) error) *Stage[O] {
	return &Stage[O]{
		name: name,
		fn:   fn,
	}
}

// Name returns the stage name.
func (s *Stage[O]) Name() string {
	return s.name
}

// New binds the stage to opts. The options are copied into the instance.
func (s *Stage[O]) New(opts O) *Instance {
	return &Instance{
		name: s.name,
		fn: func(b *Builder) error {
			return s.fn(b, opts)
		},
	}
}

// Default binds the stage to the zero value of its options.
func (s *Stage[O]) Default() *Instance {
	var opts O

	return s.New(opts)
}

// Instance is a stage bound to its options. It can be piped into a Builder, used as the
// root of Compose, or applied on its own as a Transform.
type Instance struct {
	name string
	fn   func(b *Builder) error
}

// Name returns the name of the stage the instance comes from.
func (i *Instance) Name() string {
	return i.name
}

// panicError turns a recovered value into an error.
func panicError(r interface{}) error {
	if rerr, ok := r.(error); ok {
		return errors.Wrap(rerr, "panic")
	}

	return errors.New(fmt.Sprint("panic: ", r))
}

func (i *Instance) compose(b *Builder) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()

	return i.fn(b)
}

// Apply composes the instance as a standalone pipeline fed by in and writing to out.
func (i *Instance) Apply(ctx context.Context, in <-chan *model.File, out chan<- *model.File) error {
	sub, err := Compose(i.name, i, withInputChan(in), WithSink(func(ctx context.Context, file *model.File) error {
		return Send(ctx, out, file)
	}))
	if err != nil {
		return err
	}

	return sub.Run(ctx)
}
