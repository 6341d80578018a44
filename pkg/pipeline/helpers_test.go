package pipeline_test

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/askiada/go-assetpipe/pkg/pipeline/model"
)

func createFiles(t *testing.T, paths ...string) []*model.File {
	t.Helper()

	files := make([]*model.File, 0, len(paths))
	for _, p := range paths {
		files = append(files, model.NewFile(p, []byte(p)))
	}

	return files
}

func createInputChan(t *testing.T, files []*model.File) chan *model.File {
	t.Helper()

	inputChan := make(chan *model.File)

	go func() {
		defer close(inputChan)

		for _, file := range files {
			inputChan <- file
		}
	}()

	return inputChan
}

type collector struct {
	mu    sync.Mutex
	files []*model.File
}

func (c *collector) sink(_ context.Context, file *model.File) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files = append(c.files, file)

	return nil
}

func (c *collector) paths() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := make([]string, 0, len(c.files))
	for _, file := range c.files {
		res = append(res, file.Path)
	}

	return res
}

func (c *collector) sortedPaths() []string {
	res := c.paths()
	sort.Strings(res)

	return res
}

func (c *collector) contents() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := make(map[string]string, len(c.files))
	for _, file := range c.files {
		res[file.Path] = string(file.Contents)
	}

	return res
}

func processOutputChan(t *testing.T, output <-chan *model.File) []string {
	t.Helper()

	res := []string{}

	for out := range output {
		res = append(res, out.Path)
	}

	sort.Strings(res)

	return res
}
