package local

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
)

// maxReadChunk bounds a single Read; larger requests return a short read.
const maxReadChunk = 1 << 20

type localHandle struct {
	path string
	mode extio.OpenMode
	file *os.File
}

type localFile struct {
	extio.UnimplementedFile
	lb *LocalBackend
}

func newToken() string {
	return uuid.Must(uuid.NewV7()).String()
}

// cleanPath turns p into a path relative to the root. Parent references
// cannot climb above the root; "." names the root itself.
func cleanPath(p string) string {
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	if p == "" {
		return "."
	}
	return filepath.FromSlash(p)
}

func openFlags(mode extio.OpenMode) int {
	var flags int
	switch {
	case mode.IsReadable() && mode.IsWritable():
		flags = os.O_RDWR
	case mode.IsWritable():
		flags = os.O_WRONLY
	default:
		flags = os.O_RDONLY
	}

	if mode.Has(extio.ModeCreate) {
		flags |= os.O_CREATE
	}
	if mode.Has(extio.ModeTruncate) && mode.IsWritable() {
		flags |= os.O_TRUNC
	}
	if mode.Has(extio.ModeAppend) {
		flags |= os.O_APPEND
	}
	return flags
}

func (f *localFile) Open(ctx context.Context, p string, mode extio.OpenMode) (extio.Handle, error) {
	if err := extio.ContextErr(ctx, extio.OpFileOpen); err != nil {
		return extio.Handle{}, err
	}

	name := cleanPath(p)
	if name == "." {
		return extio.Handle{}, errors.InvalidArgument(extio.OpFileOpen, "cannot open the root directory")
	}
	mutating := mode.IsWritable() || mode.Has(extio.ModeCreate) || mode.Has(extio.ModeTruncate)
	if mutating && f.lb.options.ReadOnly {
		return extio.Handle{}, errors.PermissionDenied(extio.OpFileOpen, "backend is read-only")
	}

	root, err := f.lb.fsRoot(extio.OpFileOpen)
	if err != nil {
		return extio.Handle{}, err
	}

	if mode.Has(extio.ModeCreate) {
		if err := root.MkdirAll(filepath.Dir(name), 0o755); err != nil {
			return extio.Handle{}, mapPathError(extio.OpFileOpen, err)
		}
	}

	fl, err := root.OpenFile(name, openFlags(mode), 0o644)
	if err != nil {
		return extio.Handle{}, mapPathError(extio.OpFileOpen, err)
	}

	info, err := fl.Stat()
	if err != nil {
		fl.Close()
		return extio.Handle{}, errors.From(extio.OpFileOpen, err)
	}
	if info.IsDir() {
		fl.Close()
		return extio.Handle{}, errors.InvalidArgument(extio.OpFileOpen, "'%s' is a directory", p)
	}

	token := newToken()

	f.lb.mu.Lock()
	f.lb.files[token] = &localHandle{
		path: name,
		mode: mode,
		file: fl,
	}
	f.lb.mu.Unlock()

	return extio.NewHandle(extio.GroupFile, token), nil
}

func (lb *LocalBackend) fileHandle(op string, h extio.Handle) (*localHandle, error) {
	if h.Group() != extio.GroupFile {
		return nil, errors.StaleHandle(op, h.String())
	}

	lb.mu.Lock()
	defer lb.mu.Unlock()

	lh, exists := lb.files[h.Token()]
	if !exists {
		return nil, errors.StaleHandle(op, h.String())
	}
	return lh, nil
}

func (f *localFile) Read(ctx context.Context, h extio.Handle, max int) ([]byte, error) {
	if err := extio.ContextErr(ctx, extio.OpFileRead); err != nil {
		return nil, err
	}
	if max < 0 {
		return nil, errors.InvalidArgument(extio.OpFileRead, "negative read size %d", max)
	}

	lh, err := f.lb.fileHandle(extio.OpFileRead, h)
	if err != nil {
		return nil, err
	}
	if !lh.mode.IsReadable() {
		return nil, errors.PermissionDenied(extio.OpFileRead, "'%s' is not open for reading", lh.path)
	}
	if max == 0 {
		return []byte{}, nil
	}

	buf := make([]byte, min(max, maxReadChunk))
	n, err := lh.file.Read(buf)
	if err != nil && err != io.EOF {
		return nil, errors.From(extio.OpFileRead, err)
	}

	return buf[:n], nil
}

func (f *localFile) Write(ctx context.Context, h extio.Handle, data []byte) (int, error) {
	if err := extio.ContextErr(ctx, extio.OpFileWrite); err != nil {
		return 0, err
	}

	lh, err := f.lb.fileHandle(extio.OpFileWrite, h)
	if err != nil {
		return 0, err
	}
	if !lh.mode.IsWritable() {
		return 0, errors.PermissionDenied(extio.OpFileWrite, "'%s' is not open for writing", lh.path)
	}

	n, err := lh.file.Write(data)
	if err != nil {
		return n, errors.From(extio.OpFileWrite, err)
	}
	return n, nil
}

func (f *localFile) Close(ctx context.Context, h extio.Handle) error {
	if err := extio.ContextErr(ctx, extio.OpFileClose); err != nil {
		return err
	}
	if h.Group() != extio.GroupFile {
		return errors.StaleHandle(extio.OpFileClose, h.String())
	}

	f.lb.mu.Lock()
	lh, exists := f.lb.files[h.Token()]
	delete(f.lb.files, h.Token())
	f.lb.mu.Unlock()

	if !exists {
		return errors.StaleHandle(extio.OpFileClose, h.String())
	}
	if err := lh.file.Close(); err != nil {
		return errors.From(extio.OpFileClose, err)
	}
	return nil
}

func (f *localFile) List(ctx context.Context, p string) ([]extio.Entry, error) {
	if err := extio.ContextErr(ctx, extio.OpFileList); err != nil {
		return nil, err
	}

	root, err := f.lb.fsRoot(extio.OpFileList)
	if err != nil {
		return nil, err
	}

	dir, err := root.Open(cleanPath(p))
	if err != nil {
		return nil, mapPathError(extio.OpFileList, err)
	}
	defer dir.Close()

	info, err := dir.Stat()
	if err != nil {
		return nil, errors.From(extio.OpFileList, err)
	}
	if !info.IsDir() {
		return nil, errors.InvalidArgument(extio.OpFileList, "'%s' is not a directory", p)
	}

	dirEntries, err := dir.ReadDir(-1)
	if err != nil {
		return nil, errors.From(extio.OpFileList, err)
	}

	entries := make([]extio.Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		fi, err := de.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		entry := extio.Entry{
			Name:    de.Name(),
			IsDir:   de.IsDir(),
			ModTime: fi.ModTime(),
		}
		if !entry.IsDir {
			entry.Size = fi.Size()
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (f *localFile) Delete(ctx context.Context, p string) error {
	if err := extio.ContextErr(ctx, extio.OpFileDelete); err != nil {
		return err
	}
	if f.lb.options.ReadOnly {
		return errors.PermissionDenied(extio.OpFileDelete, "backend is read-only")
	}

	name := cleanPath(p)
	if name == "." {
		return errors.InvalidArgument(extio.OpFileDelete, "cannot delete the root directory")
	}

	root, err := f.lb.fsRoot(extio.OpFileDelete)
	if err != nil {
		return err
	}

	info, err := root.Stat(name)
	if err != nil {
		return mapPathError(extio.OpFileDelete, err)
	}
	if info.IsDir() {
		return errors.InvalidArgument(extio.OpFileDelete, "'%s' is a directory", p)
	}

	if err := root.Remove(name); err != nil {
		return mapPathError(extio.OpFileDelete, err)
	}
	return nil
}

func (f *localFile) ReadAll(ctx context.Context, p string) ([]byte, error) {
	if err := extio.ContextErr(ctx, extio.OpFileReadAll); err != nil {
		return nil, err
	}

	name := cleanPath(p)
	root, err := f.lb.fsRoot(extio.OpFileReadAll)
	if err != nil {
		return nil, err
	}

	info, err := root.Stat(name)
	if err != nil {
		return nil, mapPathError(extio.OpFileReadAll, err)
	}
	if info.IsDir() {
		return nil, errors.InvalidArgument(extio.OpFileReadAll, "'%s' is a directory", p)
	}

	data, err := root.ReadFile(name)
	if err != nil {
		return nil, mapPathError(extio.OpFileReadAll, err)
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

func (f *localFile) WriteAll(ctx context.Context, p string, data []byte) error {
	if err := extio.ContextErr(ctx, extio.OpFileWriteAll); err != nil {
		return err
	}
	if f.lb.options.ReadOnly {
		return errors.PermissionDenied(extio.OpFileWriteAll, "backend is read-only")
	}

	name := cleanPath(p)
	if name == "." {
		return errors.InvalidArgument(extio.OpFileWriteAll, "cannot write the root directory")
	}

	root, err := f.lb.fsRoot(extio.OpFileWriteAll)
	if err != nil {
		return err
	}

	if err := root.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return mapPathError(extio.OpFileWriteAll, err)
	}
	if err := root.WriteFile(name, data, 0o644); err != nil {
		return mapPathError(extio.OpFileWriteAll, err)
	}
	return nil
}

// mapPathError maps root escapes (symlinks pointing outside of the root)
// to PermissionDenied and a file in place of a parent directory to
// Conflict; everything else goes through errors.From.
func mapPathError(op string, err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		msg := pathErr.Err.Error()
		switch {
		case strings.Contains(msg, "escapes from parent"):
			return errors.Wrap(err, errors.KindPermissionDenied, op, "path escapes the backend root")
		case strings.Contains(msg, "not a directory"):
			return errors.Wrap(err, errors.KindConflict, op, "a parent path is a file")
		}
	}
	return errors.From(op, err)
}
