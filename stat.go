package akaifat

import (
	"os"
	"path"
	"time"

	"github.com/aligator/akaifat/fat"
)

// fileInfo is a snapshot of an entry, or of the root directory if entry is nil.
type fileInfo struct {
	name    string
	size    int64
	mode    os.FileMode
	modTime time.Time
	entry   *fat.Entry
}

func newFileInfo(entry *fat.Entry, readOnly bool) os.FileInfo {
	info := fileInfo{
		name:    entry.Name(),
		modTime: entry.ModTime(),
		entry:   entry,
		mode:    0666,
	}
	if entry.IsDirectory() {
		info.mode = os.ModeDir | 0777
	} else {
		info.size = entry.Length()
	}

	if readOnly || entry.IsReadOnlyFlag() {
		info.mode &^= 0222
	}
	return info
}

// rootInfo names the root after the path it was opened with, "." for "".
func rootInfo(name string) os.FileInfo {
	return fileInfo{
		name: path.Base(name),
		mode: os.ModeDir | 0777,
	}
}

func (i fileInfo) Name() string {
	return i.name
}

func (i fileInfo) Size() int64 {
	return i.size
}

func (i fileInfo) Mode() os.FileMode {
	return i.mode
}

// ModTime returns time.Time{} if the stored date is invalid and for the root.
func (i fileInfo) ModTime() time.Time {
	return i.modTime
}

func (i fileInfo) IsDir() bool {
	return i.mode.IsDir()
}

// Sys returns the *fat.Entry, nil for the root directory.
func (i fileInfo) Sys() interface{} {
	if i.entry == nil {
		return nil
	}
	return i.entry
}
