package model

import (
	"io/fs"
	"path"
	"strings"
	"time"
)

// File is a file record flowing through a pipeline.
type File struct {
	// Base is the directory the file was read from.
	Base string
	// Path is slash separated and relative to Base.
	Path     string
	Contents []byte
	Mode     fs.FileMode
	ModTime  time.Time
	// SourceMap holds a raw v3 source map. It is nil until source maps are initialised.
	SourceMap []byte
	// History lists the previous values of Path, oldest first.
	History []string
}

// NewFile returns a regular file record.
func NewFile(filePath string, contents []byte) *File {
	return &File{
		Path:     path.Clean(filePath),
		Contents: contents,
		Mode:     0o644,
	}
}

// Clone returns a deep copy of the file.
func (f *File) Clone() *File {
	c := *f
	if f.Contents != nil {
		c.Contents = append([]byte(nil), f.Contents...)
	}
	if f.SourceMap != nil {
		c.SourceMap = append([]byte(nil), f.SourceMap...)
	}
	if f.History != nil {
		c.History = append([]string(nil), f.History...)
	}

	return &c
}

// Ext returns the extension of the file, dot included.
func (f *File) Ext() string {
	return path.Ext(f.Path)
}

// Dir returns the directory part of Path, "." for top level files.
func (f *File) Dir() string {
	return path.Dir(f.Path)
}

// Basename returns the last element of Path.
func (f *File) Basename() string {
	return path.Base(f.Path)
}

// Stem returns the base name without its extension.
func (f *File) Stem() string {
	return strings.TrimSuffix(f.Basename(), f.Ext())
}

// Rename moves the file to newPath and records the previous path.
func (f *File) Rename(newPath string) {
	newPath = path.Clean(newPath)
	if newPath == f.Path {
		return
	}
	f.History = append(f.History, f.Path)
	f.Path = newPath
}

// SetExt replaces the extension of the file.
func (f *File) SetExt(ext string) {
	f.Rename(strings.TrimSuffix(f.Path, f.Ext()) + ext)
}
