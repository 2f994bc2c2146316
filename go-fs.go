package akaifat

import (
	"errors"
	"io/fs"
	"sort"

	"github.com/aligator/akaifat/fat"
	"github.com/spf13/afero"
)

// GoFile adds ReadDir to File so directories satisfy fs.ReadDirFile.
type GoFile struct {
	*File
}

func (g GoFile) ReadDir(n int) ([]fs.DirEntry, error) {
	infos, err := g.File.Readdir(n)

	entries := make([]fs.DirEntry, len(infos))
	for i, info := range infos {
		entries[i] = fs.FileInfoToDirEntry(info)
	}
	return entries, err
}

// GoFs wraps Fs to be compatible with fs.FS without going through afero.IOFS.
type GoFs struct {
	*Fs
}

// NewGoFS mounts the device read-only as fs.FS compatible filesystem.
func NewGoFS(dev fat.BlockDevice, opts fat.Options) (*GoFs, error) {
	opts.ReadOnly = true
	afs, err := New(dev, opts)
	if err != nil {
		return nil, err
	}

	return &GoFs{afs}, nil
}

// NewIOFS mounts the device read-only and wraps it by afero.IOFS.
func NewIOFS(dev fat.BlockDevice, opts fat.Options) (afero.IOFS, error) {
	opts.ReadOnly = true
	afs, err := New(dev, opts)
	if err != nil {
		return afero.IOFS{}, err
	}

	return afero.IOFS{Fs: afs}, nil
}

func (g GoFs) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	file, err := g.Fs.Open(name)
	if err != nil {
		return nil, err
	}

	f, ok := file.(*File)
	if !ok {
		return nil, errors.New("invalid File implementation")
	}

	return GoFile{f}, nil
}

func (g GoFs) Stat(name string) (fs.FileInfo, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrInvalid}
	}
	return g.Fs.Stat(name)
}

// ReadDir returns the entries of a directory sorted by name.
func (g GoFs) ReadDir(name string) ([]fs.DirEntry, error) {
	file, err := g.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	dir, ok := file.(fs.ReadDirFile)
	if !ok {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: errors.New("not implemented")}
	}
	entries, err := dir.ReadDir(-1)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, err
}
