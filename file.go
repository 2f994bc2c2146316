package akaifat

import (
	"errors"
	"io"
	"os"
	"syscall"

	"github.com/aligator/akaifat/checkpoint"
	"github.com/aligator/akaifat/fat"
	"github.com/spf13/afero"
)

// These errors may occur while processing a file.
var (
	ErrReadFile  = errors.New("could not read file completely")
	ErrWriteFile = errors.New("could not write the file")
	ErrSeekFile  = errors.New("could not seek inside of the file")
	ErrReadDir   = errors.New("could not read the directory")
)

// fileContent provides all methods needed from a fat.File for File.
// It mainly exists to be able to mock the content in tests.
// Generated mock using mockgen:
//
//	mockgen -source=file.go -destination=file_mock.go -package akaifat
type fileContent interface {
	Length() (int64, error)
	SetLength(length int64) error
	Read(offset int64, dst []byte) error
	Write(offset int64, src []byte) error
	Flush() error
}

// File is an opened file or directory of an Fs.
type File struct {
	fs       *Fs
	path     string
	flag     int
	readOnly bool

	entry   *fat.Entry     // nil for the root directory
	dir     *fat.Directory // directories only
	content fileContent    // files only

	offset    int64
	dirOffset int
	dirty     bool
	closed    bool
}

func newFile(fs *Fs, path string, entry *fat.Entry, content fileContent, flag int) *File {
	return &File{
		fs:       fs,
		path:     path,
		flag:     flag,
		readOnly: fs.vol.IsReadOnly(),
		entry:    entry,
		content:  content,
	}
}

func newDirFile(fs *Fs, path string, entry *fat.Entry, dir *fat.Directory) *File {
	return &File{
		fs:       fs,
		path:     path,
		readOnly: fs.vol.IsReadOnly(),
		entry:    entry,
		dir:      dir,
	}
}

func (f *File) lock() func() {
	f.fs.mu.Lock()
	return f.fs.mu.Unlock
}

func (f *File) checkFile() error {
	if f.closed {
		return os.ErrClosed
	}
	if f.dir != nil {
		return syscall.EISDIR
	}
	return nil
}

func (f *File) checkReadable() error {
	if err := f.checkFile(); err != nil {
		return checkpoint.Wrap(err, ErrReadFile)
	}
	if f.flag&os.O_WRONLY != 0 {
		return checkpoint.Wrap(syscall.EBADF, ErrReadFile)
	}
	return nil
}

func (f *File) checkWritable() error {
	if err := f.checkFile(); err != nil {
		return checkpoint.Wrap(err, ErrWriteFile)
	}
	if f.flag&(os.O_WRONLY|os.O_RDWR) == 0 {
		return checkpoint.Wrap(syscall.EBADF, ErrWriteFile)
	}
	return nil
}

func (f *File) Close() error {
	defer f.lock()()

	if f.closed {
		return os.ErrClosed
	}
	err := f.sync()
	f.closed = true
	return err
}

func (f *File) Read(p []byte) (n int, err error) {
	defer f.lock()()

	n, err = f.readAt(p, f.offset)
	f.offset += int64(n)
	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}

// ReadAt returns io.EOF together with the data if p reaches past the end.
func (f *File) ReadAt(p []byte, off int64) (n int, err error) {
	defer f.lock()()

	if off < 0 {
		return 0, checkpoint.Wrapf(ErrReadFile, "%w, offset: %v", syscall.EINVAL, off)
	}
	return f.readAt(p, off)
}

func (f *File) readAt(p []byte, off int64) (int, error) {
	if err := f.checkReadable(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}

	length, err := f.content.Length()
	if err != nil {
		return 0, checkpoint.Wrap(err, ErrReadFile)
	}
	if off >= length {
		return 0, io.EOF
	}

	n := len(p)
	if rest := length - off; int64(n) > rest {
		n = int(rest)
	}
	if err := f.content.Read(off, p[:n]); err != nil {
		return 0, checkpoint.Wrap(err, ErrReadFile)
	}

	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Seek jumps to a specific offset in the file. This affects all Read and Write
// operations except ReadAt and WriteAt. Seeking past the end is allowed.
// Directories only support rewinding to the start.
// May return a syscall.EINVAL error if the whence value is invalid.
// May return an afero.ErrOutOfRange error if the offset is negative.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	defer f.lock()()

	if f.closed {
		return 0, os.ErrClosed
	}
	if f.dir != nil {
		if offset != 0 || whence != io.SeekStart {
			return 0, checkpoint.Wrapf(ErrSeekFile, "%w, directories can only be rewound", syscall.EINVAL)
		}
		f.dirOffset = 0
		return 0, nil
	}

	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset = f.offset + offset
	case io.SeekEnd:
		length, err := f.content.Length()
		if err != nil {
			return 0, checkpoint.Wrap(err, ErrSeekFile)
		}
		offset = length + offset
	default:
		return 0, checkpoint.Wrapf(ErrSeekFile, "%w, offset: %v, whence: %v", syscall.EINVAL, offset, whence)
	}

	if offset < 0 {
		return 0, checkpoint.Wrapf(afero.ErrOutOfRange, "%w, offset: %v, whence: %v", ErrSeekFile, offset, whence)
	}

	f.offset = offset
	return offset, nil
}

func (f *File) Write(p []byte) (n int, err error) {
	defer f.lock()()

	if err := f.checkWritable(); err != nil {
		return 0, err
	}
	if f.flag&os.O_APPEND != 0 {
		length, err := f.content.Length()
		if err != nil {
			return 0, checkpoint.Wrap(err, ErrWriteFile)
		}
		f.offset = length
	}

	n, err = f.writeAt(p, f.offset)
	f.offset += int64(n)
	return n, err
}

func (f *File) WriteAt(p []byte, off int64) (n int, err error) {
	defer f.lock()()

	if f.flag&os.O_APPEND != 0 {
		return 0, checkpoint.Wrapf(ErrWriteFile, "%w, WriteAt on a file opened with O_APPEND", syscall.EINVAL)
	}
	if off < 0 {
		return 0, checkpoint.Wrapf(ErrWriteFile, "%w, offset: %v", syscall.EINVAL, off)
	}
	return f.writeAt(p, off)
}

func (f *File) writeAt(p []byte, off int64) (int, error) {
	if err := f.checkWritable(); err != nil {
		return 0, err
	}

	length, err := f.content.Length()
	if err != nil {
		return 0, checkpoint.Wrap(err, ErrWriteFile)
	}
	// A gap between the end and off reads as zeros.
	if off > length {
		if err := f.content.Write(length, make([]byte, off-length)); err != nil {
			return 0, checkpoint.Wrap(err, ErrWriteFile)
		}
		f.dirty = true
	}

	if err := f.content.Write(off, p); err != nil {
		return 0, checkpoint.Wrap(err, ErrWriteFile)
	}
	f.dirty = true
	return len(p), nil
}

func (f *File) WriteString(s string) (ret int, err error) {
	return f.Write([]byte(s))
}

// Name returns the name as passed to Open.
func (f *File) Name() string {
	return f.path
}

// Readdir reads the contents of a directory in name order like os.File.Readdir.
// May return syscall.ENOTDIR if the current File is no directory.
func (f *File) Readdir(count int) ([]os.FileInfo, error) {
	defer f.lock()()

	if f.closed {
		return nil, checkpoint.Wrap(os.ErrClosed, ErrReadDir)
	}
	if f.dir == nil {
		return nil, checkpoint.Wrap(syscall.ENOTDIR, ErrReadDir)
	}

	entries := f.dir.Entries()
	if f.dirOffset > len(entries) {
		f.dirOffset = len(entries)
	}
	content := entries[f.dirOffset:]

	if count > 0 {
		if len(content) == 0 {
			return nil, io.EOF
		}
		if len(content) > count {
			content = content[:count]
		}
	}
	f.dirOffset += len(content)

	result := make([]os.FileInfo, len(content))
	for i, e := range content {
		result[i] = newFileInfo(e, f.readOnly)
	}
	return result, nil
}

func (f *File) Readdirnames(count int) ([]string, error) {
	content, err := f.Readdir(count)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrReadDir)
	}

	names := make([]string, len(content))
	for i, entry := range content {
		names[i] = entry.Name()
	}
	return names, nil
}

func (f *File) Stat() (os.FileInfo, error) {
	defer f.lock()()

	if f.entry == nil {
		return rootInfo(f.path), nil
	}
	return newFileInfo(f.entry, f.readOnly), nil
}

// Sync stores the length and the write time of a modified file.
func (f *File) Sync() error {
	defer f.lock()()

	if f.closed {
		return os.ErrClosed
	}
	return f.sync()
}

func (f *File) sync() error {
	if !f.dirty {
		return nil
	}
	if err := f.content.Flush(); err != nil {
		return checkpoint.Wrap(err, ErrWriteFile)
	}
	if err := f.fs.vol.Flush(); err != nil {
		return checkpoint.Wrap(err, ErrWriteFile)
	}
	f.dirty = false
	return nil
}

// Truncate changes the size of the file. New bytes read as zeros.
func (f *File) Truncate(size int64) error {
	defer f.lock()()

	if err := f.checkWritable(); err != nil {
		return err
	}
	if size < 0 {
		return checkpoint.Wrapf(ErrWriteFile, "%w, size: %v", syscall.EINVAL, size)
	}

	length, err := f.content.Length()
	if err != nil {
		return checkpoint.Wrap(err, ErrWriteFile)
	}
	if size > length {
		err = f.content.Write(length, make([]byte, size-length))
	} else {
		err = f.content.SetLength(size)
	}
	if err != nil {
		return checkpoint.Wrap(err, ErrWriteFile)
	}
	f.dirty = true
	return nil
}
