package akaifat

import (
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aligator/akaifat/checkpoint"
	"github.com/aligator/akaifat/fat"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// ErrNotSupported is returned for operations FAT cannot represent.
var ErrNotSupported = errors.New("operation not supported by FAT16")

// Fs exposes a FAT16 volume with Akai names as afero.Fs.
// All calls, including the ones on opened files, are serialized by one lock.
//
// Every modifying call flushes the volume before it returns. File contents are
// written through, their length is stored on Sync or Close.
type Fs struct {
	mu     sync.Mutex
	vol    *fat.FileSystem
	log    logrus.FieldLogger
	device io.Closer
}

// New mounts the device and wraps the volume.
func New(dev fat.BlockDevice, opts fat.Options) (*Fs, error) {
	vol, err := fat.Mount(dev, opts)
	if err != nil {
		return nil, err
	}
	return NewFromFileSystem(vol, opts.Logger), nil
}

// NewFromFileSystem wraps an already mounted volume.
func NewFromFileSystem(vol *fat.FileSystem, log logrus.FieldLogger) *Fs {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Fs{vol: vol, log: log}
}

// OpenImage mounts the image file name of base. Close also closes the image.
func OpenImage(base afero.Fs, name string, opts fat.Options) (*Fs, error) {
	dev, err := fat.OpenImage(base, name, opts.ReadOnly)
	if err != nil {
		return nil, err
	}

	fs, err := New(dev, opts)
	if err != nil {
		_ = dev.Close()
		return nil, err
	}
	fs.device = dev
	return fs, nil
}

// FileSystem returns the wrapped volume.
func (fs *Fs) FileSystem() *fat.FileSystem {
	return fs.vol
}

// Label returns the volume label or an empty string if it cannot be read.
func (fs *Fs) Label() string {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	label, err := fs.vol.VolumeLabel()
	if err != nil {
		return ""
	}
	return label
}

func (fs *Fs) FSType() string {
	return fat.Fat16.Label()
}

func (fs *Fs) Name() string {
	return "akaifat"
}

// Close flushes and closes the volume and the image opened by OpenImage.
func (fs *Fs) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := fs.vol.Close(); err != nil {
		return err
	}
	if fs.device != nil {
		return checkpoint.From(fs.device.Close())
	}
	return nil
}

// split cleans name and returns its elements, none for the root.
func split(name string) []string {
	clean := strings.Trim(path.Clean("/"+filepath.ToSlash(name)), "/")
	if clean == "" {
		return nil
	}
	return strings.Split(clean, "/")
}

// walk returns the directory reached by following parts from the root.
func (fs *Fs) walk(parts []string) (*fat.Directory, error) {
	dir, err := fs.vol.Root()
	if err != nil {
		return nil, err
	}

	for _, part := range parts {
		e := dir.Entry(part)
		if e == nil {
			return nil, os.ErrNotExist
		}
		if !e.IsDirectory() {
			return nil, syscall.ENOTDIR
		}
		if dir, err = e.Directory(); err != nil {
			return nil, err
		}
	}
	return dir, nil
}

// find resolves name to the directory containing it, its base name and its
// entry. The entry is nil if it does not exist. For the root all are empty.
func (fs *Fs) find(name string) (*fat.Directory, string, *fat.Entry, error) {
	parts := split(name)
	if len(parts) == 0 {
		_, err := fs.vol.Root()
		return nil, "", nil, err
	}

	parent, err := fs.walk(parts[:len(parts)-1])
	if err != nil {
		return nil, "", nil, err
	}
	base := parts[len(parts)-1]
	return parent, base, parent.Entry(base), nil
}

func (fs *Fs) flush(op, name string) error {
	if err := fs.vol.Flush(); err != nil {
		return pathError(op, name, err)
	}
	return nil
}

// osError adds the matching os error to the errors of the fat package.
func osError(err error) error {
	switch {
	case errors.Is(err, fat.ErrReadOnly):
		return checkpoint.Wrap(err, os.ErrPermission)
	case errors.Is(err, fat.ErrNameInUse):
		return checkpoint.Wrap(err, os.ErrExist)
	case errors.Is(err, fat.ErrInvalidName):
		return checkpoint.Wrap(err, os.ErrInvalid)
	case errors.Is(err, fat.ErrInvalidated), errors.Is(err, fat.ErrAlreadyClosed):
		return checkpoint.Wrap(err, os.ErrClosed)
	}
	return err
}

func pathError(op, name string, err error) error {
	return &os.PathError{Op: op, Path: name, Err: osError(err)}
}

func (fs *Fs) Create(name string) (afero.File, error) {
	return fs.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
}

// Mkdir creates a directory. The permission bits are ignored.
func (fs *Fs) Mkdir(name string, perm os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	parent, base, entry, err := fs.find(name)
	if err != nil {
		return pathError("mkdir", name, err)
	}
	if parent == nil || entry != nil {
		return pathError("mkdir", name, os.ErrExist)
	}

	if _, err := parent.AddDirectory(base); err != nil {
		return pathError("mkdir", name, err)
	}
	fs.log.WithField("path", name).Debug("created directory")
	return fs.flush("mkdir", name)
}

// MkdirAll creates a directory and all missing parents.
func (fs *Fs) MkdirAll(name string, perm os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	dir, err := fs.vol.Root()
	if err != nil {
		return pathError("mkdir", name, err)
	}

	created := false
	for _, part := range split(name) {
		e := dir.Entry(part)
		if e == nil {
			if e, err = dir.AddDirectory(part); err != nil {
				return pathError("mkdir", name, err)
			}
			created = true
		}
		if !e.IsDirectory() {
			return pathError("mkdir", name, syscall.ENOTDIR)
		}
		if dir, err = e.Directory(); err != nil {
			return pathError("mkdir", name, err)
		}
	}

	if !created {
		return nil
	}
	fs.log.WithField("path", name).Debug("created directories")
	return fs.flush("mkdir", name)
}

func (fs *Fs) Open(name string) (afero.File, error) {
	return fs.OpenFile(name, os.O_RDONLY, 0)
}

// OpenFile supports O_RDONLY, O_WRONLY, O_RDWR, O_CREATE, O_EXCL, O_TRUNC and
// O_APPEND. The permission bits are ignored.
func (fs *Fs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, err := fs.openFile(name, flag)
	if err != nil {
		return nil, pathError("open", name, err)
	}
	return f, nil
}

func (fs *Fs) openFile(name string, flag int) (*File, error) {
	parent, base, entry, err := fs.find(name)
	if err != nil {
		return nil, err
	}

	writable := flag&(os.O_WRONLY|os.O_RDWR) != 0
	if writable && fs.vol.IsReadOnly() {
		return nil, fat.ErrReadOnly
	}

	if parent == nil {
		if writable {
			return nil, syscall.EISDIR
		}
		root, err := fs.vol.Root()
		if err != nil {
			return nil, err
		}
		return newDirFile(fs, name, nil, root), nil
	}

	modified := false
	if entry == nil {
		if flag&os.O_CREATE == 0 {
			return nil, os.ErrNotExist
		}
		if fs.vol.IsReadOnly() {
			return nil, fat.ErrReadOnly
		}
		if entry, err = parent.AddFile(base); err != nil {
			return nil, err
		}
		modified = true
	} else if flag&os.O_CREATE != 0 && flag&os.O_EXCL != 0 {
		return nil, os.ErrExist
	}

	if entry.IsDirectory() {
		if writable {
			return nil, syscall.EISDIR
		}
		dir, err := entry.Directory()
		if err != nil {
			return nil, err
		}
		return newDirFile(fs, name, entry, dir), nil
	}

	content, err := entry.File()
	if err != nil {
		return nil, err
	}
	if writable && flag&os.O_TRUNC != 0 && entry.Length() > 0 {
		if err := content.SetLength(0); err != nil {
			return nil, err
		}
		modified = true
	}

	if modified {
		if err := fs.vol.Flush(); err != nil {
			return nil, err
		}
	}
	return newFile(fs, name, entry, content, flag), nil
}

// Remove deletes a file or an empty directory.
func (fs *Fs) Remove(name string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	parent, base, entry, err := fs.find(name)
	if err != nil {
		return pathError("remove", name, err)
	}
	if parent == nil {
		return pathError("remove", name, os.ErrInvalid)
	}
	if entry == nil {
		return pathError("remove", name, os.ErrNotExist)
	}

	if entry.IsDirectory() {
		dir, err := entry.Directory()
		if err != nil {
			return pathError("remove", name, err)
		}
		if len(dir.Entries()) > 0 {
			return pathError("remove", name, syscall.ENOTEMPTY)
		}
	}

	if err := parent.Remove(base); err != nil {
		return pathError("remove", name, err)
	}
	fs.log.WithField("path", name).Debug("removed")
	return fs.flush("remove", name)
}

// RemoveAll deletes name with everything below it. Missing paths are no error.
// Removing the root empties it.
func (fs *Fs) RemoveAll(name string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	parent, base, entry, err := fs.find(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return pathError("removeall", name, err)
	}

	switch {
	case parent == nil:
		root, err := fs.vol.Root()
		if err != nil {
			return pathError("removeall", name, err)
		}
		for _, e := range root.Entries() {
			if err := root.Remove(e.Name()); err != nil {
				return pathError("removeall", name, err)
			}
		}
	case entry == nil:
		return nil
	default:
		if err := parent.Remove(base); err != nil {
			return pathError("removeall", name, err)
		}
	}

	fs.log.WithField("path", name).Debug("removed recursively")
	return fs.flush("removeall", name)
}

// Rename renames or moves oldname. An existing file at newname is replaced,
// an existing directory is not.
func (fs *Fs) Rename(oldname, newname string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := fs.rename(oldname, newname); err != nil {
		return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: osError(err)}
	}

	fs.log.WithFields(logrus.Fields{"from": oldname, "to": newname}).Debug("renamed")
	return fs.flush("rename", newname)
}

func (fs *Fs) rename(oldname, newname string) error {
	oldParent, _, entry, err := fs.find(oldname)
	if err != nil {
		return err
	}
	if oldParent == nil {
		return os.ErrInvalid
	}
	if entry == nil {
		return os.ErrNotExist
	}

	newParent, newBase, existing, err := fs.find(newname)
	if err != nil {
		return err
	}
	if newParent == nil {
		return os.ErrExist
	}

	if existing != nil && existing != entry {
		if existing.IsDirectory() || entry.IsDirectory() {
			return os.ErrExist
		}
		return entry.Replace(existing, newBase)
	}
	return entry.MoveTo(newParent, newBase)
}

func (fs *Fs) Stat(name string) (os.FileInfo, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	parent, _, entry, err := fs.find(name)
	if err != nil {
		return nil, pathError("stat", name, err)
	}
	if parent == nil {
		return rootInfo(name), nil
	}
	if entry == nil {
		return nil, pathError("stat", name, os.ErrNotExist)
	}
	return newFileInfo(entry, fs.vol.IsReadOnly()), nil
}

// Chmod maps a mode without any write bit to the FAT read-only attribute.
func (fs *Fs) Chmod(name string, mode os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	entry, err := fs.existing("chmod", name)
	if entry == nil || err != nil {
		return err
	}
	if err := entry.SetReadOnlyFlag(mode&0222 == 0); err != nil {
		return pathError("chmod", name, err)
	}
	return fs.flush("chmod", name)
}

// Chown always fails, FAT has no owners.
func (fs *Fs) Chown(name string, uid, gid int) error {
	return pathError("chown", name, ErrNotSupported)
}

// Chtimes stores mtime as write time. FAT keeps no access time here.
func (fs *Fs) Chtimes(name string, atime time.Time, mtime time.Time) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	entry, err := fs.existing("chtimes", name)
	if entry == nil || err != nil {
		return err
	}
	if err := entry.SetModTime(mtime); err != nil {
		return pathError("chtimes", name, err)
	}
	return fs.flush("chtimes", name)
}

// existing returns the entry of name. The root has none, it yields nil, nil
// on writable volumes.
func (fs *Fs) existing(op, name string) (*fat.Entry, error) {
	parent, _, entry, err := fs.find(name)
	if err != nil {
		return nil, pathError(op, name, err)
	}
	if parent == nil {
		if fs.vol.IsReadOnly() {
			return nil, pathError(op, name, fat.ErrReadOnly)
		}
		return nil, nil
	}
	if entry == nil {
		return nil, pathError(op, name, os.ErrNotExist)
	}
	return entry, nil
}
