package memory

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
)

type file struct {
	data    []byte
	modTime time.Time
}

type openFile struct {
	path   string
	mode   extio.OpenMode
	offset int
	file   *file
}

type memoryFile struct {
	extio.UnimplementedFile
	mb *MemoryBackend
}

// cleanPath normalizes p to a slash separated key without a leading slash.
// The root directory is the empty key.
func cleanPath(p string) string {
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}

func (f *memoryFile) Open(ctx context.Context, p string, mode extio.OpenMode) (extio.Handle, error) {
	if err := extio.ContextErr(ctx, extio.OpFileOpen); err != nil {
		return extio.Handle{}, err
	}

	key := cleanPath(p)
	if key == "" {
		return extio.Handle{}, errors.InvalidArgument(extio.OpFileOpen, "cannot open the root directory")
	}
	if mode.IsWritable() || mode.Has(extio.ModeCreate) || mode.Has(extio.ModeTruncate) {
		if f.mb.options.ReadOnly {
			return extio.Handle{}, errors.PermissionDenied(extio.OpFileOpen, "backend is read-only")
		}
	}

	f.mb.mu.Lock()
	defer f.mb.mu.Unlock()

	fl, exists := f.mb.files.Get(key)
	if !exists {
		if f.mb.isDirUnsafe(key) {
			return extio.Handle{}, errors.InvalidArgument(extio.OpFileOpen, "'%s' is a directory", p)
		}
		if !mode.Has(extio.ModeCreate) {
			return extio.Handle{}, errors.NotFound(extio.OpFileOpen, "file '%s' does not exist", p)
		}
		if err := f.mb.checkParentsUnsafe(extio.OpFileOpen, key); err != nil {
			return extio.Handle{}, err
		}

		fl = &file{data: []byte{}, modTime: f.mb.now()}
		f.mb.files.Set(key, fl)
	} else if mode.Has(extio.ModeTruncate) && mode.IsWritable() {
		fl.data = []byte{}
		fl.modTime = f.mb.now()
	}

	token := newToken()
	f.mb.handles[token] = &openFile{
		path: key,
		mode: mode,
		file: fl,
	}

	return extio.NewHandle(extio.GroupFile, token), nil
}

// handleUnsafe MUST be called while holding the lock.
func (mb *MemoryBackend) handleUnsafe(op string, h extio.Handle) (*openFile, error) {
	if h.Group() != extio.GroupFile {
		return nil, errors.StaleHandle(op, h.String())
	}
	of, exists := mb.handles[h.Token()]
	if !exists {
		return nil, errors.StaleHandle(op, h.String())
	}
	return of, nil
}

func (f *memoryFile) Read(ctx context.Context, h extio.Handle, max int) ([]byte, error) {
	if err := extio.ContextErr(ctx, extio.OpFileRead); err != nil {
		return nil, err
	}
	if max < 0 {
		return nil, errors.InvalidArgument(extio.OpFileRead, "negative read size %d", max)
	}

	f.mb.mu.Lock()
	defer f.mb.mu.Unlock()

	of, err := f.mb.handleUnsafe(extio.OpFileRead, h)
	if err != nil {
		return nil, err
	}
	if !of.mode.IsReadable() {
		return nil, errors.PermissionDenied(extio.OpFileRead, "'%s' is not open for reading", of.path)
	}

	if of.offset >= len(of.file.data) {
		return []byte{}, nil
	}

	end := of.offset + min(max, len(of.file.data)-of.offset)
	out := make([]byte, end-of.offset)
	copy(out, of.file.data[of.offset:end])
	of.offset = end

	return out, nil
}

func (f *memoryFile) Write(ctx context.Context, h extio.Handle, data []byte) (int, error) {
	if err := extio.ContextErr(ctx, extio.OpFileWrite); err != nil {
		return 0, err
	}

	f.mb.mu.Lock()
	defer f.mb.mu.Unlock()

	of, err := f.mb.handleUnsafe(extio.OpFileWrite, h)
	if err != nil {
		return 0, err
	}
	if !of.mode.IsWritable() {
		return 0, errors.PermissionDenied(extio.OpFileWrite, "'%s' is not open for writing", of.path)
	}

	if of.mode.Has(extio.ModeAppend) {
		of.offset = len(of.file.data)
	}

	end := of.offset + len(data)
	if end > len(of.file.data) {
		grown := make([]byte, end)
		copy(grown, of.file.data)
		of.file.data = grown
	}
	copy(of.file.data[of.offset:], data)
	of.offset = end
	of.file.modTime = f.mb.now()

	return len(data), nil
}

func (f *memoryFile) Close(ctx context.Context, h extio.Handle) error {
	if err := extio.ContextErr(ctx, extio.OpFileClose); err != nil {
		return err
	}

	f.mb.mu.Lock()
	defer f.mb.mu.Unlock()

	if _, err := f.mb.handleUnsafe(extio.OpFileClose, h); err != nil {
		return err
	}
	delete(f.mb.handles, h.Token())

	return nil
}

func (f *memoryFile) List(ctx context.Context, p string) ([]extio.Entry, error) {
	if err := extio.ContextErr(ctx, extio.OpFileList); err != nil {
		return nil, err
	}

	dir := cleanPath(p)

	f.mb.mu.Lock()
	defer f.mb.mu.Unlock()

	if _, exists := f.mb.files.Get(dir); exists {
		return nil, errors.InvalidArgument(extio.OpFileList, "'%s' is not a directory", p)
	}

	prefix := ""
	if dir != "" {
		prefix = dir + "/"
	}

	entries := make([]extio.Entry, 0)
	seen := make(map[string]bool)
	f.mb.files.Ascend(prefix, func(key string, fl *file) bool {
		if !strings.HasPrefix(key, prefix) {
			return false
		}

		name, rest, nested := strings.Cut(strings.TrimPrefix(key, prefix), "/")
		if seen[name] {
			return true
		}
		seen[name] = true

		if nested && rest != "" {
			entries = append(entries, extio.Entry{Name: name, IsDir: true})
		} else {
			entries = append(entries, extio.Entry{
				Name:    name,
				Size:    int64(len(fl.data)),
				ModTime: fl.modTime,
			})
		}
		return true
	})

	if len(entries) == 0 && dir != "" {
		return nil, errors.NotFound(extio.OpFileList, "directory '%s' does not exist", p)
	}

	return entries, nil
}

func (f *memoryFile) Delete(ctx context.Context, p string) error {
	if err := extio.ContextErr(ctx, extio.OpFileDelete); err != nil {
		return err
	}
	if f.mb.options.ReadOnly {
		return errors.PermissionDenied(extio.OpFileDelete, "backend is read-only")
	}

	key := cleanPath(p)

	f.mb.mu.Lock()
	defer f.mb.mu.Unlock()

	if _, exists := f.mb.files.Delete(key); exists {
		return nil
	}
	if f.mb.isDirUnsafe(key) {
		return errors.InvalidArgument(extio.OpFileDelete, "'%s' is a directory", p)
	}

	return errors.NotFound(extio.OpFileDelete, "file '%s' does not exist", p)
}

func (f *memoryFile) ReadAll(ctx context.Context, p string) ([]byte, error) {
	if err := extio.ContextErr(ctx, extio.OpFileReadAll); err != nil {
		return nil, err
	}

	key := cleanPath(p)

	f.mb.mu.Lock()
	defer f.mb.mu.Unlock()

	fl, exists := f.mb.files.Get(key)
	if !exists {
		if f.mb.isDirUnsafe(key) {
			return nil, errors.InvalidArgument(extio.OpFileReadAll, "'%s' is a directory", p)
		}
		return nil, errors.NotFound(extio.OpFileReadAll, "file '%s' does not exist", p)
	}

	out := make([]byte, len(fl.data))
	copy(out, fl.data)
	return out, nil
}

func (f *memoryFile) WriteAll(ctx context.Context, p string, data []byte) error {
	if err := extio.ContextErr(ctx, extio.OpFileWriteAll); err != nil {
		return err
	}
	if f.mb.options.ReadOnly {
		return errors.PermissionDenied(extio.OpFileWriteAll, "backend is read-only")
	}

	key := cleanPath(p)
	if key == "" {
		return errors.InvalidArgument(extio.OpFileWriteAll, "cannot write the root directory")
	}

	f.mb.mu.Lock()
	defer f.mb.mu.Unlock()

	if f.mb.isDirUnsafe(key) {
		return errors.InvalidArgument(extio.OpFileWriteAll, "'%s' is a directory", p)
	}
	if err := f.mb.checkParentsUnsafe(extio.OpFileWriteAll, key); err != nil {
		return err
	}

	content := make([]byte, len(data))
	copy(content, data)

	if fl, exists := f.mb.files.Get(key); exists {
		// Keep the same file so open handles observe the new content
		fl.data = content
		fl.modTime = f.mb.now()
		return nil
	}

	f.mb.files.Set(key, &file{data: content, modTime: f.mb.now()})
	return nil
}

// isDirUnsafe reports whether any file lives below key.
// MUST be called while holding the lock.
func (mb *MemoryBackend) isDirUnsafe(key string) bool {
	if key == "" {
		return true
	}

	prefix := key + "/"
	found := false
	mb.files.Ascend(prefix, func(k string, _ *file) bool {
		found = strings.HasPrefix(k, prefix)
		return false
	})
	return found
}

// checkParentsUnsafe rejects keys nested below an existing file.
// MUST be called while holding the lock.
func (mb *MemoryBackend) checkParentsUnsafe(op, key string) error {
	for dir := path.Dir(key); dir != "." && dir != "/"; dir = path.Dir(dir) {
		if _, exists := mb.files.Get(dir); exists {
			return errors.Conflict(op, "parent '%s' is a file", dir)
		}
	}
	return nil
}
