package extio

import (
	"context"

	"github.com/mwantia/extio/errors"
)

// FileCapability exposes file and directory access.
type FileCapability interface {
	// Open opens path and returns a handle for Read, Write and Close.
	Open(ctx context.Context, path string, mode OpenMode) (Handle, error)
	// Read returns up to max bytes from the handle's current offset.
	// At end of file it returns an empty slice and no error.
	Read(ctx context.Context, h Handle, max int) ([]byte, error)
	// Write writes data at the handle's current offset and returns the byte count.
	Write(ctx context.Context, h Handle, data []byte) (int, error)
	// Close releases the handle. Closing a stale handle fails with InvalidArgument.
	Close(ctx context.Context, h Handle) error
	// List returns the direct children of the directory at path.
	List(ctx context.Context, path string) ([]Entry, error)
	// Delete removes the file at path.
	Delete(ctx context.Context, path string) error
	// ReadAll reads the whole file at path.
	ReadAll(ctx context.Context, path string) ([]byte, error)
	// WriteAll creates or truncates the file at path and writes data to it.
	WriteAll(ctx context.Context, path string, data []byte) error

	mustEmbedUnimplementedFile()
}

// UnimplementedFile must be embedded by every FileCapability implementation.
type UnimplementedFile struct{}

func (UnimplementedFile) Open(context.Context, string, OpenMode) (Handle, error) {
	return Handle{}, errors.Unsupported(OpFileOpen)
}

func (UnimplementedFile) Read(context.Context, Handle, int) ([]byte, error) {
	return nil, errors.Unsupported(OpFileRead)
}

func (UnimplementedFile) Write(context.Context, Handle, []byte) (int, error) {
	return 0, errors.Unsupported(OpFileWrite)
}

func (UnimplementedFile) Close(context.Context, Handle) error {
	return errors.Unsupported(OpFileClose)
}

func (UnimplementedFile) List(context.Context, string) ([]Entry, error) {
	return nil, errors.Unsupported(OpFileList)
}

func (UnimplementedFile) Delete(context.Context, string) error {
	return errors.Unsupported(OpFileDelete)
}

func (UnimplementedFile) ReadAll(context.Context, string) ([]byte, error) {
	return nil, errors.Unsupported(OpFileReadAll)
}

func (UnimplementedFile) WriteAll(context.Context, string, []byte) error {
	return errors.Unsupported(OpFileWriteAll)
}

func (UnimplementedFile) mustEmbedUnimplementedFile() {}
