package akaifat

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"sort"
	"syscall"
	"testing"
	"time"

	"github.com/aligator/akaifat/fat"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/afero"
)

func TestFs_Label(t *testing.T) {
	afs := testingOpen(t, newImage(t), true)
	defer afs.Close()

	if got := afs.Label(); got != "MPC2000XL" {
		t.Errorf("Fs.Label() = %v, want %v", got, "MPC2000XL")
	}
	if got := afs.FSType(); got != "FAT16   " {
		t.Errorf("Fs.FSType() = %q, want %q", got, "FAT16   ")
	}
	if got := afs.Name(); got != "akaifat" {
		t.Errorf("Fs.Name() = %v, want %v", got, "akaifat")
	}
}

func TestFs_OpenFile(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		flag     int
		readOnly bool
		wantErr  error
	}{
		{name: "existing file", path: "README.TXT", flag: os.O_RDONLY},
		{name: "case is ignored", path: "readme.txt", flag: os.O_RDONLY},
		{name: "long name", path: "Programs/long sequence name.seq", flag: os.O_RDWR},
		{name: "missing file", path: "missing.txt", flag: os.O_RDONLY, wantErr: os.ErrNotExist},
		{name: "create file", path: "new.snd", flag: os.O_RDWR | os.O_CREATE},
		{name: "create existing file", path: "README.TXT", flag: os.O_RDWR | os.O_CREATE},
		{name: "exclusive create of existing file", path: "README.TXT", flag: os.O_RDWR | os.O_CREATE | os.O_EXCL, wantErr: os.ErrExist},
		{name: "missing parent", path: "missing/new.snd", flag: os.O_RDWR | os.O_CREATE, wantErr: os.ErrNotExist},
		{name: "file as parent", path: "README.TXT/new.snd", flag: os.O_RDONLY, wantErr: syscall.ENOTDIR},
		{name: "directory", path: "AAA", flag: os.O_RDONLY},
		{name: "directory for writing", path: "AAA", flag: os.O_WRONLY, wantErr: syscall.EISDIR},
		{name: "root", path: "/", flag: os.O_RDONLY},
		{name: "root for writing", path: "", flag: os.O_RDWR, wantErr: syscall.EISDIR},
		{name: "illegal character", path: "a?b.snd", flag: os.O_RDWR | os.O_CREATE, wantErr: os.ErrInvalid},
		{name: "read-only volume", path: "README.TXT", flag: os.O_RDONLY, readOnly: true},
		{name: "write on read-only volume", path: "README.TXT", flag: os.O_RDWR, readOnly: true, wantErr: os.ErrPermission},
		{name: "create on read-only volume", path: "new.snd", flag: os.O_RDONLY | os.O_CREATE, readOnly: true, wantErr: os.ErrPermission},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			afs := testingOpen(t, newPopulatedImage(t), tt.readOnly)
			defer afs.Close()

			f, err := afs.OpenFile(tt.path, tt.flag, 0666)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Fs.OpenFile() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err != nil {
				var pathErr *os.PathError
				if !errors.As(err, &pathErr) || pathErr.Path != tt.path {
					t.Errorf("Fs.OpenFile() error = %v, want a *os.PathError for %q", err, tt.path)
				}
				return
			}
			if err := f.Close(); err != nil {
				t.Errorf("File.Close() error = %v", err)
			}
		})
	}
}

func TestFs_Create(t *testing.T) {
	base := newPopulatedImage(t)
	afs := testingOpen(t, base, false)

	f, err := afs.Create("README.TXT")
	if err != nil {
		t.Fatalf("Fs.Create() error = %v", err)
	}
	if _, err := f.WriteString("short"); err != nil {
		t.Fatalf("File.WriteString() error = %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("File.Close() error = %v", err)
	}
	if err := afs.Close(); err != nil {
		t.Fatalf("Fs.Close() error = %v", err)
	}

	afs = testingOpen(t, base, true)
	defer afs.Close()
	got, err := afero.ReadFile(afs, "README.TXT")
	if err != nil || string(got) != "short" {
		t.Errorf("ReadFile() = %q, %v, want %q", got, err, "short")
	}
}

func TestFs_Persistence(t *testing.T) {
	afs := testingOpen(t, newPopulatedImage(t), true)
	defer afs.Close()

	for name, want := range testFiles {
		got, err := afero.ReadFile(afs, name)
		if err != nil {
			t.Errorf("ReadFile(%q) error = %v", name, err)
			continue
		}
		if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("ReadFile(%q) mismatch (-want +got):\n%s", name, diff)
		}
	}
}

func TestFs_Mkdir(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{name: "new directory", path: "SOUNDS"},
		{name: "nested directory", path: "Programs/Drums"},
		{name: "existing directory", path: "AAA", wantErr: os.ErrExist},
		{name: "existing file", path: "README.TXT", wantErr: os.ErrExist},
		{name: "root", path: "/", wantErr: os.ErrExist},
		{name: "missing parent", path: "missing/SOUNDS", wantErr: os.ErrNotExist},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			afs := testingOpen(t, newPopulatedImage(t), false)
			defer afs.Close()

			if err := afs.Mkdir(tt.path, 0777); !errors.Is(err, tt.wantErr) {
				t.Errorf("Fs.Mkdir() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr != nil {
				return
			}
			if ok, err := afero.IsDir(afs, tt.path); !ok || err != nil {
				t.Errorf("IsDir(%q) = %v, %v after Fs.Mkdir()", tt.path, ok, err)
			}
		})
	}
}

func TestFs_MkdirAll(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{name: "all new", path: "A/B/C"},
		{name: "partly existing", path: "Programs/Empty/Deeper"},
		{name: "all existing", path: "Programs/Empty"},
		{name: "root", path: "/"},
		{name: "file in the way", path: "README.TXT/A", wantErr: syscall.ENOTDIR},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			afs := testingOpen(t, newPopulatedImage(t), false)
			defer afs.Close()

			if err := afs.MkdirAll(tt.path, 0777); !errors.Is(err, tt.wantErr) {
				t.Errorf("Fs.MkdirAll() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr != nil {
				return
			}
			if ok, err := afero.IsDir(afs, tt.path); !ok || err != nil {
				t.Errorf("IsDir(%q) = %v, %v after Fs.MkdirAll()", tt.path, ok, err)
			}
		})
	}
}

func TestFs_Remove(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{name: "file", path: "kick drum.wav"},
		{name: "empty directory", path: "Programs/Empty/"},
		{name: "directory with content", path: "Programs/Empty", wantErr: syscall.ENOTEMPTY},
		{name: "missing", path: "missing", wantErr: os.ErrNotExist},
		{name: "root", path: "/", wantErr: os.ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			afs := testingOpen(t, newPopulatedImage(t), false)
			defer afs.Close()

			if tt.path == "Programs/Empty/" {
				if err := afs.Remove("Programs/Empty/EMPTY.PGM"); err != nil {
					t.Fatalf("Fs.Remove() error = %v", err)
				}
			}

			if err := afs.Remove(tt.path); !errors.Is(err, tt.wantErr) {
				t.Errorf("Fs.Remove() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr != nil {
				return
			}
			if ok, _ := afero.Exists(afs, tt.path); ok {
				t.Errorf("%q still exists after Fs.Remove()", tt.path)
			}
		})
	}
}

func TestFs_RemoveAll(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		wantNames []string
	}{
		{name: "directory tree", path: "Programs", wantNames: []string{"AAA", "kick drum.wav", "README.TXT"}},
		{name: "file", path: "README.TXT", wantNames: []string{"AAA", "kick drum.wav", "Programs"}},
		{name: "missing", path: "missing/deeper", wantNames: []string{"AAA", "kick drum.wav", "Programs", "README.TXT"}},
		{name: "root", path: "/", wantNames: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			afs := testingOpen(t, newPopulatedImage(t), false)
			defer afs.Close()

			free, err := afs.FileSystem().FreeSpace()
			if err != nil {
				t.Fatalf("FreeSpace() error = %v", err)
			}

			if err := afs.RemoveAll(tt.path); err != nil {
				t.Errorf("Fs.RemoveAll() error = %v", err)
				return
			}

			names := rootNames(t, afs)
			if diff := cmp.Diff(tt.wantNames, names); diff != "" {
				t.Errorf("root after Fs.RemoveAll() mismatch (-want +got):\n%s", diff)
			}

			after, err := afs.FileSystem().FreeSpace()
			if err != nil {
				t.Fatalf("FreeSpace() error = %v", err)
			}
			if tt.name != "missing" && after <= free {
				t.Errorf("FreeSpace() = %v after Fs.RemoveAll(), was %v", after, free)
			}
		})
	}
}

// rootNames lists the root directory in the order Readdirnames returns it.
func rootNames(t *testing.T, afs afero.Fs) []string {
	t.Helper()

	root, err := afs.Open("/")
	if err != nil {
		t.Fatalf("Fs.Open() error = %v", err)
	}
	defer root.Close()

	names, err := root.Readdirnames(-1)
	if err != nil {
		t.Fatalf("File.Readdirnames() error = %v", err)
	}
	return names
}

func TestFs_Rename(t *testing.T) {
	tests := []struct {
		name    string
		oldname string
		newname string
		wantErr error
	}{
		{name: "same directory", oldname: "README.TXT", newname: "INFO.TXT"},
		{name: "change case", oldname: "README.TXT", newname: "readme.txt"},
		{name: "into a directory", oldname: "kick drum.wav", newname: "AAA/kick drum.wav"},
		{name: "directory", oldname: "Programs", newname: "AAA/Programs"},
		{name: "replace a file", oldname: "README.TXT", newname: "kick drum.wav"},
		{name: "replace a directory", oldname: "README.TXT", newname: "AAA", wantErr: os.ErrExist},
		{name: "into itself", oldname: "Programs", newname: "Programs/Empty/Programs", wantErr: os.ErrInvalid},
		{name: "missing source", oldname: "missing", newname: "other", wantErr: os.ErrNotExist},
		{name: "missing target directory", oldname: "README.TXT", newname: "missing/README.TXT", wantErr: os.ErrNotExist},
		{name: "root", oldname: "/", newname: "other", wantErr: os.ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			afs := testingOpen(t, newPopulatedImage(t), false)
			defer afs.Close()

			before, _ := afero.ReadFile(afs, tt.oldname)

			err := afs.Rename(tt.oldname, tt.newname)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Fs.Rename() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err != nil {
				var linkErr *os.LinkError
				if !errors.As(err, &linkErr) {
					t.Errorf("Fs.Rename() error = %v, want a *os.LinkError", err)
				}
				return
			}

			info, err := afs.Stat(tt.newname)
			if err != nil {
				t.Fatalf("Fs.Stat() error = %v", err)
			}
			if info.Name() != fileName(tt.newname) {
				t.Errorf("renamed entry is called %q, want %q", info.Name(), fileName(tt.newname))
			}
			if !info.IsDir() {
				got, err := afero.ReadFile(afs, tt.newname)
				if err != nil || string(got) != string(before) {
					t.Errorf("ReadFile() after Fs.Rename() = %q, %v, want %q", got, err, before)
				}
			}
			if tt.name != "change case" {
				if ok, _ := afero.Exists(afs, tt.oldname); ok {
					t.Errorf("%q still exists after Fs.Rename()", tt.oldname)
				}
			}
		})
	}
}

func TestFs_RenameOverFileInFullRoot(t *testing.T) {
	afs := testingOpen(t, newImage(t), false)
	defer afs.Close()

	const source = "AAA/a long replacement name.wav"
	if err := afs.Mkdir("AAA", 0777); err != nil {
		t.Fatalf("Fs.Mkdir() error = %v", err)
	}
	if err := afero.WriteFile(afs, source, []byte("new"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := afero.WriteFile(afs, "TARGET.BIN", []byte("old"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	root, err := afs.FileSystem().Root()
	if err != nil {
		t.Fatalf("FileSystem.Root() error = %v", err)
	}
	for i := 0; ; i++ {
		_, err := root.AddFile(fmt.Sprintf("F%03d.BIN", i))
		if errors.Is(err, fat.ErrDirectoryFull) {
			break
		}
		if err != nil {
			t.Fatalf("Directory.AddFile() error = %v", err)
		}
	}

	// The long name needs more slots than TARGET.BIN frees.
	err = afs.Rename(source, "TARGET.BIN")
	if !errors.Is(err, fat.ErrDirectoryFull) {
		t.Fatalf("Fs.Rename() error = %v, wantErr %v", err, fat.ErrDirectoryFull)
	}

	if got, err := afero.ReadFile(afs, "TARGET.BIN"); err != nil || string(got) != "old" {
		t.Errorf("ReadFile(TARGET.BIN) = %q, %v, want %q", got, err, "old")
	}
	if got, err := afero.ReadFile(afs, source); err != nil || string(got) != "new" {
		t.Errorf("ReadFile(%q) = %q, %v, want %q", source, got, err, "new")
	}
}

func fileName(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[i+1:]
		}
	}
	return p
}

func TestFs_Stat(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		readOnly bool
		wantName string
		wantSize int64
		wantMode os.FileMode
		wantErr  error
	}{
		{name: "file", path: "AAA/TEST_WITH16CHARS.BIN", wantName: "TEST_WITH16CHARS.BIN", wantSize: 512, wantMode: 0666},
		{name: "read-only volume", path: "README.TXT", readOnly: true, wantName: "README.TXT", wantSize: 17, wantMode: 0444},
		{name: "directory", path: "Programs", wantName: "Programs", wantMode: os.ModeDir | 0777},
		{name: "root", path: "/", wantName: "/", wantMode: os.ModeDir | 0777},
		{name: "root by dot", path: ".", wantName: ".", wantMode: os.ModeDir | 0777},
		{name: "missing", path: "AAA/missing", wantErr: os.ErrNotExist},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			afs := testingOpen(t, newPopulatedImage(t), tt.readOnly)
			defer afs.Close()

			got, err := afs.Stat(tt.path)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Fs.Stat() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err != nil {
				return
			}
			if got.Name() != tt.wantName || got.Size() != tt.wantSize || got.Mode() != tt.wantMode {
				t.Errorf("Fs.Stat() = %v %v %v, want %v %v %v", got.Name(), got.Size(), got.Mode(), tt.wantName, tt.wantSize, tt.wantMode)
			}
		})
	}
}

func TestFs_Chmod(t *testing.T) {
	afs := testingOpen(t, newPopulatedImage(t), false)
	defer afs.Close()

	if err := afs.Chmod("README.TXT", 0444); err != nil {
		t.Fatalf("Fs.Chmod() error = %v", err)
	}
	info, err := afs.Stat("README.TXT")
	if err != nil {
		t.Fatalf("Fs.Stat() error = %v", err)
	}
	if info.Mode() != 0444 {
		t.Errorf("Fs.Stat().Mode() = %v, want %v", info.Mode(), os.FileMode(0444))
	}
	if entry, ok := info.Sys().(*fat.Entry); !ok || !entry.IsReadOnlyFlag() {
		t.Errorf("Fs.Chmod() did not set the read-only flag")
	}

	if err := afs.Chmod("README.TXT", 0644); err != nil {
		t.Fatalf("Fs.Chmod() error = %v", err)
	}
	if info, _ := afs.Stat("README.TXT"); info.Mode() != 0666 {
		t.Errorf("Fs.Stat().Mode() = %v, want %v", info.Mode(), os.FileMode(0666))
	}

	if err := afs.Chmod("missing", 0644); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Fs.Chmod() error = %v, wantErr %v", err, os.ErrNotExist)
	}
}

func TestFs_Chown(t *testing.T) {
	afs := testingOpen(t, newPopulatedImage(t), false)
	defer afs.Close()

	if err := afs.Chown("README.TXT", 1000, 1000); !errors.Is(err, ErrNotSupported) {
		t.Errorf("Fs.Chown() error = %v, wantErr %v", err, ErrNotSupported)
	}
}

func TestFs_Chtimes(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		readOnly bool
		wantErr  error
	}{
		{name: "file", path: "README.TXT"},
		{name: "directory", path: "AAA"},
		{name: "root is ignored", path: "/"},
		{name: "missing", path: "missing", wantErr: os.ErrNotExist},
		{name: "read-only volume", path: "README.TXT", readOnly: true, wantErr: os.ErrPermission},
	}
	mtime := time.Date(2021, time.May, 4, 13, 37, 42, 0, time.UTC)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			afs := testingOpen(t, newPopulatedImage(t), tt.readOnly)
			defer afs.Close()

			if err := afs.Chtimes(tt.path, time.Now(), mtime); !errors.Is(err, tt.wantErr) {
				t.Errorf("Fs.Chtimes() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr != nil || tt.path == "/" {
				return
			}
			info, err := afs.Stat(tt.path)
			if err != nil {
				t.Fatalf("Fs.Stat() error = %v", err)
			}
			if !info.ModTime().Equal(mtime) {
				t.Errorf("Fs.Stat().ModTime() = %v, want %v", info.ModTime(), mtime)
			}
		})
	}
}

func TestFs_Walk(t *testing.T) {
	afs := testingOpen(t, newPopulatedImage(t), true)
	defer afs.Close()

	var files []string
	err := afero.Walk(afs, "/", func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			files = append(files, p[1:])
		}
		return nil
	})
	if err != nil {
		t.Fatalf("afero.Walk() error = %v", err)
	}

	want := make([]string, 0, len(testFiles))
	for name := range testFiles {
		want = append(want, name)
	}
	sort.Strings(want)
	sort.Strings(files)
	if diff := cmp.Diff(want, files); diff != "" {
		t.Errorf("afero.Walk() mismatch (-want +got):\n%s", diff)
	}
}

func TestFs_Close(t *testing.T) {
	afs := testingOpen(t, newPopulatedImage(t), false)

	f, err := afs.Open("README.TXT")
	if err != nil {
		t.Fatalf("Fs.Open() error = %v", err)
	}
	if err := afs.Close(); err != nil {
		t.Fatalf("Fs.Close() error = %v", err)
	}

	if _, err := ioutil.ReadAll(f); err == nil {
		t.Errorf("File.Read() after Fs.Close() succeeded")
	}
	if _, err := afs.Stat("README.TXT"); !errors.Is(err, os.ErrClosed) {
		t.Errorf("Fs.Stat() after Fs.Close() error = %v, wantErr %v", err, os.ErrClosed)
	}
	if err := afs.Close(); !errors.Is(err, fat.ErrAlreadyClosed) {
		t.Errorf("second Fs.Close() error = %v, wantErr %v", err, fat.ErrAlreadyClosed)
	}
}
