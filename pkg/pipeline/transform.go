package pipeline

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-assetpipe/pkg/pipeline/model"
)

// Transform is a unit of work attachable to a stream. Apply reads in until it is closed and
// writes its results to out. It must not close out.
type Transform interface {
	Apply(ctx context.Context, in <-chan *model.File, out chan<- *model.File) error
}

// Namer is implemented by transforms that want a readable label in the graph.
type Namer interface {
	Name() string
}

// TransformFunc adapts a function to a Transform.
type TransformFunc func(ctx context.Context, in <-chan *model.File, out chan<- *model.File) error

// Apply calls fn.
func (fn TransformFunc) Apply(ctx context.Context, in <-chan *model.File, out chan<- *model.File) error {
	return fn(ctx, in, out)
}

type namedTransform struct {
	Transform
	name string
}

func (n *namedTransform) Name() string {
	return n.name
}

// Named labels a transform.
func Named(name string, t Transform) Transform {
	return &namedTransform{Transform: t, name: name}
}

func transformName(t Transform) string {
	if n, ok := t.(Namer); ok && n.Name() != "" {
		return n.Name()
	}

	return "transform"
}

// Send pushes a file to out unless the context is done first.
func Send(ctx context.Context, out chan<- *model.File, file *model.File) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case out <- file:
		return nil
	}
}

// Receive reads the next file from in. ok is false once in is closed.
func Receive(ctx context.Context, in <-chan *model.File) (file *model.File, ok bool, err error) {
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case file, ok = <-in:
		return file, ok, nil
	}
}

// Map returns a one-to-one transform. A nil result drops the file.
func Map(name string, mapFn func(ctx context.Context, file *model.File) (*model.File, error)) Transform {
	return Named(name, TransformFunc(func(ctx context.Context, in <-chan *model.File, out chan<- *model.File) error {
		for {
			file, ok, err := Receive(ctx, in)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			res, err := mapFn(ctx, file)
			if err != nil {
				return errors.Wrapf(err, "unable to process %s", file.Path)
			}
			if res == nil {
				continue
			}
			err = Send(ctx, out, res)
			if err != nil {
				return err
			}
		}
	}))
}

// FlatMap returns a one-to-many transform.
func FlatMap(name string, flatMapFn func(ctx context.Context, file *model.File) ([]*model.File, error)) Transform {
	return Named(name, TransformFunc(func(ctx context.Context, in <-chan *model.File, out chan<- *model.File) error {
		for {
			file, ok, err := Receive(ctx, in)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			outs, err := flatMapFn(ctx, file)
			if err != nil {
				return errors.Wrapf(err, "unable to process %s", file.Path)
			}
			for _, res := range outs {
				err = Send(ctx, out, res)
				if err != nil {
					return err
				}
			}
		}
	}))
}

// Collect returns a transform that waits for the whole input before calling collectFn once.
// It suits transforms that need every file, such as revisioning.
func Collect(name string, collectFn func(ctx context.Context, files []*model.File) ([]*model.File, error)) Transform {
	return Named(name, TransformFunc(func(ctx context.Context, in <-chan *model.File, out chan<- *model.File) error {
		var files []*model.File
		for {
			file, ok, err := Receive(ctx, in)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			files = append(files, file)
		}
		outs, err := collectFn(ctx, files)
		if err != nil {
			return err
		}
		for _, res := range outs {
			err = Send(ctx, out, res)
			if err != nil {
				return err
			}
		}

		return nil
	}))
}

// Tap calls fn for every file and passes it on unchanged.
func Tap(name string, fn func(ctx context.Context, file *model.File) error) Transform {
	return Map(name, func(ctx context.Context, file *model.File) (*model.File, error) {
		err := fn(ctx, file)
		if err != nil {
			return nil, err
		}

		return file, nil
	})
}

// Exclude drops every file matching m.
func Exclude(m Matcher) Transform {
	return Map("exclude", func(_ context.Context, file *model.File) (*model.File, error) {
		if m.Match(file) {
			return nil, nil
		}

		return file, nil
	})
}

// Concurrent runs mapFn on up to workers files at the same time. Output order is not preserved.
func Concurrent(name string, workers int, mapFn func(ctx context.Context, file *model.File) (*model.File, error)) Transform {
	if workers <= 1 {
		return Map(name, mapFn)
	}

	return Named(name, TransformFunc(func(ctx context.Context, in <-chan *model.File, out chan<- *model.File) error {
		errGrp, dCtx := errgroup.WithContext(ctx)
		errGrp.SetLimit(workers)
		// each worker stops as soon as one of them fails
		for goIdx := 0; goIdx < workers; goIdx++ {
			localGoIdx := goIdx
			errGrp.Go(func() error {
				for {
					file, ok, err := Receive(dCtx, in)
					if err != nil {
						return errors.Wrapf(err, "go routine %d", localGoIdx)
					}
					if !ok {
						return nil
					}
					res, err := mapFn(dCtx, file)
					if err != nil {
						return errors.Wrapf(err, "go routine %d: unable to process %s", localGoIdx, file.Path)
					}
					if res == nil {
						continue
					}
					err = Send(dCtx, out, res)
					if err != nil {
						return errors.Wrapf(err, "go routine %d", localGoIdx)
					}
				}
			})
		}

		return errGrp.Wait()
	}))
}
