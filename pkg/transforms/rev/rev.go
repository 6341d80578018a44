// Package rev adds a content hash to file names and rewrites the references between files.
package rev

import (
	"bytes"
	"context"
	"path"
	"sort"
	"strings"
	"sync"

	"dario.cat/mergo"
	jsoniter "github.com/json-iterator/go"
	"github.com/opencontainers/go-digest"
	"github.com/pkg/errors"

	"github.com/askiada/go-assetpipe/pkg/pipeline"
	"github.com/askiada/go-assetpipe/pkg/pipeline/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Options configures the revisioning. Globs are matched against file paths.
type Options struct {
	// HashLength is the number of hex characters of the hash kept in names.
	HashLength int `mapstructure:"hashLength" yaml:"hashLength"`
	// Prefix is prepended to every rewritten reference, such as a CDN URL.
	Prefix string `mapstructure:"prefix" yaml:"prefix"`
	// DontRenameFile lists files keeping their name.
	DontRenameFile []string `mapstructure:"dontRenameFile" yaml:"dontRenameFile"`
	// DontUpdateReference lists files whose references are left as they are.
	DontUpdateReference []string `mapstructure:"dontUpdateReference" yaml:"dontUpdateReference"`
	// DontSearchFile lists files that are not searched for references.
	DontSearchFile []string `mapstructure:"dontSearchFile" yaml:"dontSearchFile"`
	// FileNameManifest is the path of the manifest emitted by ManifestFile.
	FileNameManifest string `mapstructure:"fileNameManifest" yaml:"fileNameManifest"`
	// IncludeFilesInManifest lists the extensions recorded in the manifest.
	IncludeFilesInManifest []string `mapstructure:"includeFilesInManifest" yaml:"includeFilesInManifest"`
}

// DefaultOptions returns the options used for omitted fields.
func DefaultOptions() Options {
	return Options{
		HashLength:             8,
		FileNameManifest:       "rev-manifest.json",
		IncludeFilesInManifest: []string{".css", ".js"},
	}
}

var searchable = map[string]bool{
	".css":  true,
	".js":   true,
	".html": true,
	".htm":  true,
	".json": true,
	".svg":  true,
	".xml":  true,
	".txt":  true,
}

// Rev revisions a set of files and remembers the renames for the manifest.
type Rev struct {
	opts       Options
	dontRename pipeline.Matcher
	dontUpdate pipeline.Matcher
	dontSearch pipeline.Matcher

	mu       sync.Mutex
	manifest map[string]string
}

func optionalGlob(patterns []string) (pipeline.Matcher, error) {
	if len(patterns) == 0 {
		return pipeline.MatchFunc(func(*model.File) bool { return false }), nil
	}

	return pipeline.Glob(patterns...)
}

// New validates opts and fills omitted fields with DefaultOptions.
func New(opts Options) (*Rev, error) {
	err := mergo.Merge(&opts, DefaultOptions())
	if err != nil {
		return nil, errors.Wrap(err, "unable to apply default options")
	}
	r := &Rev{
		opts:     opts,
		manifest: map[string]string{},
	}
	r.dontRename, err = optionalGlob(opts.DontRenameFile)
	if err != nil {
		return nil, errors.Wrap(err, "dontRenameFile")
	}
	r.dontUpdate, err = optionalGlob(opts.DontUpdateReference)
	if err != nil {
		return nil, errors.Wrap(err, "dontUpdateReference")
	}
	r.dontSearch, err = optionalGlob(opts.DontSearchFile)
	if err != nil {
		return nil, errors.Wrap(err, "dontSearchFile")
	}

	return r, nil
}

// Manifest returns a copy of the renames recorded so far, original path to new path.
func (r *Rev) Manifest() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := make(map[string]string, len(r.manifest))
	for k, v := range r.manifest {
		res[k] = v
	}

	return res
}

// Revision waits for every file, renames them after the hash of their contents and
// rewrites the references they hold to each other. A file is hashed once its references
// are rewritten, so that a change in a dependency changes the name of its dependents.
func (r *Rev) Revision() pipeline.Transform {
	return pipeline.Collect("rev", func(_ context.Context, files []*model.File) ([]*model.File, error) {
		run := newRevision(r, files)
		paths := make([]string, len(files))
		contents := make([][]byte, len(files))
		for i, file := range files {
			paths[i] = run.revPath(file)
			contents[i] = run.finalContents(file)
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		for i, file := range files {
			if r.inManifest(file.Path) {
				r.manifest[file.Path] = paths[i]
			}
			file.Contents = contents[i]
			file.Rename(paths[i])
		}

		return files, nil
	})
}

// ManifestFile passes the stream through and emits the manifest of the renames once it
// ends.
func (r *Rev) ManifestFile() pipeline.Transform {
	return pipeline.Collect("rev.manifest", func(_ context.Context, files []*model.File) ([]*model.File, error) {
		raw, err := json.MarshalIndent(r.Manifest(), "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "unable to encode manifest")
		}

		return append(files, model.NewFile(r.opts.FileNameManifest, append(raw, '\n'))), nil
	})
}

func (r *Rev) inManifest(filePath string) bool {
	ext := path.Ext(filePath)
	for _, inc := range r.opts.IncludeFilesInManifest {
		if inc == ext {
			return true
		}
	}

	return false
}

type revision struct {
	rev      *Rev
	byPath   map[string]*model.File
	paths    map[*model.File]string
	contents map[*model.File][]byte
	visiting map[*model.File]bool
}

func newRevision(r *Rev, files []*model.File) *revision {
	run := &revision{
		rev:      r,
		byPath:   make(map[string]*model.File, len(files)),
		paths:    make(map[*model.File]string, len(files)),
		contents: make(map[*model.File][]byte, len(files)),
		visiting: make(map[*model.File]bool),
	}
	for _, file := range files {
		run.byPath[file.Path] = file
	}

	return run
}

// owner returns the file a source map belongs to.
func (run *revision) owner(file *model.File) (*model.File, bool) {
	if file.Ext() != ".map" {
		return nil, false
	}
	owner, ok := run.byPath[strings.TrimSuffix(file.Path, ".map")]

	return owner, ok
}

func (run *revision) searched(file *model.File) bool {
	return searchable[file.Ext()] && !run.rev.dontSearch.Match(file)
}

// references returns the files whose paths appear in file. The source map of the file is
// left out, it is renamed after the file itself.
func (run *revision) references(file *model.File) []*model.File {
	if !run.searched(file) {
		return nil
	}
	var refs []*model.File
	for p, other := range run.byPath {
		if other == file || p == file.Path+".map" || run.rev.dontUpdate.Match(other) {
			continue
		}
		if !run.mentions(file, other) {
			continue
		}
		refs = append(refs, other)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Path < refs[j].Path })

	return refs
}

func (run *revision) rewritten(file *model.File) []byte {
	if c, ok := run.contents[file]; ok {
		return c
	}
	replacements := map[string]string{}
	for _, ref := range run.references(file) {
		target := run.revPath(ref)
		if target == ref.Path {
			continue
		}
		run.addReplacements(replacements, file, ref.Path, target)
	}
	res := replaceRefs(file.Contents, replacements)
	run.contents[file] = res

	return res
}

// mentions reports whether one of the spellings of ref rewritten by addReplacements
// appears in file.
func (run *revision) mentions(file, ref *model.File) bool {
	spellings := map[string]string{}
	run.addReplacements(spellings, file, ref.Path, ref.Path)
	for spelling := range spellings {
		if containsRef(file.Contents, spelling) {
			return true
		}
	}

	return false
}

func (run *revision) addReplacements(replacements map[string]string, file *model.File, from, to string) {
	rel := relPath(file.Dir(), from)
	relTo := relPath(file.Dir(), to)
	if run.rev.opts.Prefix != "" {
		relTo = strings.TrimSuffix(run.rev.opts.Prefix, "/") + "/" + to
	}
	replacements[rel] = relTo
	replacements["./"+rel] = relTo
	if run.rev.opts.Prefix != "" {
		replacements["/"+from] = relTo
	} else {
		replacements["/"+from] = "/" + to
	}
}

// revPath returns the new path of file. A file met again while its own hash is computed
// keeps its path in the file that references it.
func (run *revision) revPath(file *model.File) string {
	if p, ok := run.paths[file]; ok {
		return p
	}
	if owner, ok := run.owner(file); ok {
		if run.visiting[owner] {
			return file.Path
		}
		p := run.revPath(owner) + ".map"
		run.paths[file] = p

		return p
	}
	if run.rev.dontRename.Match(file) {
		run.paths[file] = file.Path

		return file.Path
	}

	if run.visiting[file] {
		return file.Path
	}
	run.visiting[file] = true
	contents := run.rewritten(file)
	delete(run.visiting, file)

	hash := digest.FromBytes(contents).Encoded()
	if n := run.rev.opts.HashLength; n > 0 && n < len(hash) {
		hash = hash[:n]
	}
	ext := file.Ext()
	p := strings.TrimSuffix(file.Path, ext) + "." + hash + ext
	run.paths[file] = p

	return p
}

// finalContents is the rewritten contents plus the reference to the renamed source map.
func (run *revision) finalContents(file *model.File) []byte {
	contents := run.rewritten(file)
	mapFile, ok := run.byPath[file.Path+".map"]
	if !ok || !run.searched(file) {
		return contents
	}
	replacements := map[string]string{}
	run.addReplacements(replacements, file, mapFile.Path, run.revPath(mapFile))

	return replaceRefs(contents, replacements)
}

func relPath(fromDir, to string) string {
	if fromDir == "." {
		return to
	}
	from := strings.Split(fromDir, "/")
	target := strings.Split(to, "/")
	i := 0
	for i < len(from) && i < len(target)-1 && from[i] == target[i] {
		i++
	}

	return strings.Repeat("../", len(from)-i) + strings.Join(target[i:], "/")
}

func isPathByte(c byte) bool {
	return c == '/' || c == '.' || c == '-' || c == '_' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// containsRef reports whether ref occurs in contents without being part of a longer path.
func containsRef(contents []byte, ref string) bool {
	if ref == "" {
		return false
	}
	for offset := 0; offset < len(contents); {
		idx := bytes.Index(contents[offset:], []byte(ref))
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(ref)
		if (start == 0 || !isPathByte(contents[start-1])) && (end == len(contents) || !isPathByte(contents[end])) {
			return true
		}
		offset = start + 1
	}

	return false
}

// replaceRefs replaces every occurrence of the keys of replacements that is not part of a
// longer path. Longer keys win.
func replaceRefs(contents []byte, replacements map[string]string) []byte {
	if len(replacements) == 0 {
		return contents
	}
	keys := make([]string, 0, len(replacements))
	for k := range replacements {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}

		return keys[i] < keys[j]
	})

	res := make([]byte, 0, len(contents))
	for i := 0; i < len(contents); {
		matched := false
		if i == 0 || !isPathByte(contents[i-1]) {
			for _, k := range keys {
				end := i + len(k)
				if end > len(contents) || string(contents[i:end]) != k {
					continue
				}
				if end < len(contents) && isPathByte(contents[end]) {
					continue
				}
				res = append(res, replacements[k]...)
				i = end
				matched = true

				break
			}
		}
		if !matched {
			res = append(res, contents[i])
			i++
		}
	}

	return res
}
