package models

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
)

// ReadSeekCloser is the stream type an upload reads from. Clients read it
// twice (once to sign, once to send), so it has to seek.
type ReadSeekCloser interface {
	io.ReadSeeker
	io.Closer
}

var ErrNotRegularFile = errors.New("not a regular file")

// File is the selected file: a name, a declared media type, an exact size
// and a way to open its content.
type File struct {
	Name        string
	ContentType string
	Size        int64

	open func() (ReadSeekCloser, error)
}

// Open returns a fresh stream over the file content.
func (f *File) Open() (ReadSeekCloser, error) {
	if f.open == nil {
		return nil, errors.New("file has no content")
	}
	return f.open()
}

// FileFromPath stats path and returns a File whose media type is guessed from
// the extension. The type is empty when the extension is unknown.
func FileFromPath(path string) (*File, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotRegularFile)
	}

	return &File{
		Name:        filepath.Base(path),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Size:        fi.Size(),
		open: func() (ReadSeekCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// FileFromBytes wraps in-memory content.
func FileFromBytes(name, contentType string, data []byte) *File {
	return &File{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		open: func() (ReadSeekCloser, error) {
			return nopCloser{bytes.NewReader(data)}, nil
		},
	}
}

type nopCloser struct{ io.ReadSeeker }

func (nopCloser) Close() error { return nil }
