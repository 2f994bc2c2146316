package fat

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestFileSystem_AkaiScenario(t *testing.T) {
	memFs, fs := newTestVolume(t, "MPC2000XL")
	root := mustRoot(t, fs)
	clusterSize := int64(fs.BootSector().BytesPerCluster())

	dirEntry, err := root.AddDirectory("AAA")
	if err != nil {
		t.Fatalf("Directory.AddDirectory() error = %v", err)
	}
	dir, err := dirEntry.Directory()
	if err != nil {
		t.Fatalf("Entry.Directory() error = %v", err)
	}
	fileEntry, err := dir.AddFile("TEST_WITH16CHARS.BIN")
	if err != nil {
		t.Fatalf("Directory.AddFile() error = %v", err)
	}
	file, err := fileEntry.File()
	if err != nil {
		t.Fatalf("Entry.File() error = %v", err)
	}
	content := bytes.Repeat([]byte{' '}, 512)
	if err := file.Write(0, content); err != nil {
		t.Fatalf("File.Write() error = %v", err)
	}
	if err := fs.Flush(); err != nil {
		t.Fatalf("FileSystem.Flush() error = %v", err)
	}

	fs = remount(t, memFs, Options{})
	root = mustRoot(t, fs)

	if label, _ := fs.VolumeLabel(); label != "MPC2000XL" {
		t.Errorf("FileSystem.VolumeLabel() = %q, want %q", label, "MPC2000XL")
	}
	dirEntry = root.Entry("AAA")
	if dirEntry == nil {
		t.Fatalf("Directory.Entry() did not find AAA")
	}
	dir, err = dirEntry.Directory()
	if err != nil {
		t.Fatalf("Entry.Directory() error = %v", err)
	}
	fileEntry = dir.Entry("TEST_WITH16CHARS.BIN")
	if fileEntry == nil {
		t.Fatalf("Directory.Entry() did not find TEST_WITH16CHARS.BIN")
	}
	if fileEntry.ShortName().String() != "TEST_WIT.BIN" {
		t.Errorf("Entry.ShortName() = %q, want %q", fileEntry.ShortName().String(), "TEST_WIT.BIN")
	}
	file, err = fileEntry.File()
	if err != nil {
		t.Fatalf("Entry.File() error = %v", err)
	}
	if length, _ := file.Length(); length != int64(len(content)) {
		t.Errorf("File.Length() = %v, want %v", length, len(content))
	}
	got := make([]byte, len(content))
	if err := file.Read(0, got); err != nil {
		t.Fatalf("File.Read() error = %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("File.Read() returned other content than written")
	}

	if err := fileEntry.SetName("FOOBAR.BIN"); err != nil {
		t.Fatalf("Entry.SetName() error = %v", err)
	}
	if dir.Entry("TEST_WITH16CHARS.BIN") != nil || dir.Entry("FOOBAR.BIN") != fileEntry {
		t.Errorf("Entry.SetName() did not rename the entry")
	}
	if err := file.Read(0, got); err != nil {
		t.Errorf("File.Read() after rename error = %v", err)
	}

	if err := fileEntry.MoveTo(root, "FOOBAR.BIN"); err != nil {
		t.Fatalf("Entry.MoveTo() error = %v", err)
	}
	if dir.Entry("FOOBAR.BIN") != nil || root.Entry("FOOBAR.BIN") != fileEntry {
		t.Errorf("Entry.MoveTo() did not move the entry")
	}
	if fileEntry.Parent() != root {
		t.Errorf("Entry.Parent() is not the root after the move")
	}

	freeBefore, _ := fs.FreeSpace()
	if err := root.Remove("FOOBAR.BIN"); err != nil {
		t.Fatalf("Directory.Remove() error = %v", err)
	}
	freeAfter, _ := fs.FreeSpace()
	if freeAfter-freeBefore != clusterSize {
		t.Errorf("Directory.Remove() freed %v bytes, want %v", freeAfter-freeBefore, clusterSize)
	}
	if err := file.Read(0, got); !errors.Is(err, ErrInvalidated) {
		t.Errorf("File.Read() after remove error = %v, wantErr %v", err, ErrInvalidated)
	}

	if err := fs.Close(); err != nil {
		t.Fatalf("FileSystem.Close() error = %v", err)
	}
	reread := mustRoot(t, remount(t, memFs, Options{ReadOnly: true}))
	if names := entryNames(reread.Entries()); len(names) != 1 || names[0] != "AAA" {
		t.Errorf("Directory.Entries() = %v, want [AAA]", names)
	}
}

func TestFileSystem_FlushIdempotent(t *testing.T) {
	memFs, fs := newTestVolume(t, "MPC2000XL")
	root := mustRoot(t, fs)

	e, err := root.AddFile("kick drum.wav")
	if err != nil {
		t.Fatalf("Directory.AddFile() error = %v", err)
	}
	f, _ := e.File()
	if err := f.Write(0, []byte("RIFF")); err != nil {
		t.Fatalf("File.Write() error = %v", err)
	}
	if _, err := root.AddDirectory("SEQS"); err != nil {
		t.Fatalf("Directory.AddDirectory() error = %v", err)
	}

	// Enough long names to outgrow the first cluster of SAMPLES.
	samplesEntry, err := root.AddDirectory("SAMPLES")
	if err != nil {
		t.Fatalf("Directory.AddDirectory() error = %v", err)
	}
	samples, err := samplesEntry.Directory()
	if err != nil {
		t.Fatalf("Entry.Directory() error = %v", err)
	}
	const sampleCount = 40
	for i := 0; i < sampleCount; i++ {
		if _, err := samples.AddFile(fmt.Sprintf("sample %03d.wav", i)); err != nil {
			t.Fatalf("Directory.AddFile() error = %v", err)
		}
	}

	if err := fs.Flush(); err != nil {
		t.Fatalf("FileSystem.Flush() error = %v", err)
	}
	first := imageBytes(t, memFs)

	reread := mustRoot(t, remount(t, memFs, Options{ReadOnly: true}))
	rereadSamples, err := reread.Entry("SAMPLES").Directory()
	if err != nil {
		t.Fatalf("Entry.Directory() error = %v", err)
	}
	if got := len(rereadSamples.Entries()); got != sampleCount {
		t.Errorf("SAMPLES holds %d entries after remount, want %d", got, sampleCount)
	}
	if rereadSamples.Entry("sample 039.wav") == nil {
		t.Errorf("last sample missing after remount")
	}

	if err := fs.Flush(); err != nil {
		t.Fatalf("FileSystem.Flush() error = %v", err)
	}
	if !bytes.Equal(first, imageBytes(t, memFs)) {
		t.Errorf("second FileSystem.Flush() changed the image")
	}
}

func TestFileSystem_FatCopies(t *testing.T) {
	memFs, fs := newTestVolume(t, "")
	root := mustRoot(t, fs)
	for _, name := range []string{"A.SND", "B.SND"} {
		e, err := root.AddFile(name)
		if err != nil {
			t.Fatalf("Directory.AddFile() error = %v", err)
		}
		f, _ := e.File()
		if err := f.SetLength(5000); err != nil {
			t.Fatalf("File.SetLength() error = %v", err)
		}
	}
	if err := fs.Flush(); err != nil {
		t.Fatalf("FileSystem.Flush() error = %v", err)
	}

	first, err := ReadFat(fs.BootSector(), 0)
	if err != nil {
		t.Fatalf("ReadFat() error = %v", err)
	}
	second, err := ReadFat(fs.BootSector(), 1)
	if err != nil {
		t.Fatalf("ReadFat() error = %v", err)
	}
	if !first.Equals(second) || !first.Equals(fs.Fat()) {
		t.Errorf("FAT copies differ after FileSystem.Flush()")
	}

	// Mark a cluster as used in the second copy only.
	image, err := memFs.OpenFile(testImage, os.O_RDWR, 0)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	if _, err := image.WriteAt([]byte{0xFF, 0xFF}, fs.BootSector().FatOffset(1)+2*100); err != nil {
		t.Fatalf("WriteAt() error = %v", err)
	}

	tests := []struct {
		name    string
		opts    Options
		wantErr error
	}{
		{name: "compared", opts: Options{ReadOnly: true, Logger: quietLogger()}, wantErr: ErrFatMismatch},
		{name: "ignored", opts: Options{ReadOnly: true, IgnoreFatDifferences: true, Logger: quietLogger()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev, err := OpenImage(memFs, testImage, true)
			if err != nil {
				t.Fatalf("OpenImage() error = %v", err)
			}
			_, err = Mount(dev, tt.opts)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Mount() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFileSystem_Close(t *testing.T) {
	_, fs := newTestVolume(t, "")
	root := mustRoot(t, fs)
	e, err := root.AddFile("KICK.SND")
	if err != nil {
		t.Fatalf("Directory.AddFile() error = %v", err)
	}

	if err := fs.Close(); err != nil {
		t.Fatalf("FileSystem.Close() error = %v", err)
	}
	if !fs.IsClosed() {
		t.Errorf("FileSystem.IsClosed() = false after Close()")
	}

	tests := []struct {
		name string
		call func() error
	}{
		{name: "Root", call: func() error { _, err := fs.Root(); return err }},
		{name: "Flush", call: fs.Flush},
		{name: "Close", call: fs.Close},
		{name: "VolumeLabel", call: func() error { _, err := fs.VolumeLabel(); return err }},
		{name: "SetVolumeLabel", call: func() error { return fs.SetVolumeLabel("X") }},
		{name: "FreeSpace", call: func() error { _, err := fs.FreeSpace(); return err }},
		{name: "UsableSpace", call: func() error { _, err := fs.UsableSpace(); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, ErrAlreadyClosed) {
				t.Errorf("FileSystem.%v() error = %v, wantErr %v", tt.name, err, ErrAlreadyClosed)
			}
		})
	}

	if _, err := e.File(); !errors.Is(err, ErrInvalidated) {
		t.Errorf("Entry.File() after close error = %v, wantErr %v", err, ErrInvalidated)
	}
	if _, err := root.AddFile("SNARE.SND"); !errors.Is(err, ErrInvalidated) {
		t.Errorf("Directory.AddFile() after close error = %v, wantErr %v", err, ErrInvalidated)
	}
}

func TestMount_ReadOnlyDevice(t *testing.T) {
	memFs, _ := newTestVolume(t, "")

	dev, err := OpenImage(memFs, testImage, true)
	if err != nil {
		t.Fatalf("OpenImage() error = %v", err)
	}
	if _, err := Mount(dev, Options{Logger: quietLogger()}); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Mount() error = %v, wantErr %v", err, ErrReadOnly)
	}

	fs, err := Mount(dev, Options{ReadOnly: true, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	if !fs.IsReadOnly() {
		t.Errorf("FileSystem.IsReadOnly() = false")
	}
	if err := fs.Close(); err != nil {
		t.Errorf("FileSystem.Close() of a read-only volume error = %v", err)
	}
}

func TestFileSystem_Space(t *testing.T) {
	_, fs := newTestVolume(t, "")

	usable, err := fs.UsableSpace()
	if err != nil {
		t.Fatalf("FileSystem.UsableSpace() error = %v", err)
	}
	if want := int64(8167 * 2048); usable != want {
		t.Errorf("FileSystem.UsableSpace() = %v, want %v", usable, want)
	}
	free, _ := fs.FreeSpace()
	if free != usable {
		t.Errorf("FileSystem.FreeSpace() = %v on an empty volume, want %v", free, usable)
	}
	if got := fs.TotalSpace(); got != -1 {
		t.Errorf("FileSystem.TotalSpace() = %v, want -1", got)
	}

	e, _ := mustRoot(t, fs).AddFile("BIG.SND")
	f, _ := e.File()
	if err := f.SetLength(2049); err != nil {
		t.Fatalf("File.SetLength() error = %v", err)
	}
	if got, _ := fs.FreeSpace(); got != usable-2*2048 {
		t.Errorf("FileSystem.FreeSpace() = %v, want %v", got, usable-2*2048)
	}
}

func TestFileSystem_VolumeLabel(t *testing.T) {
	tests := []struct {
		name    string
		label   string
		want    string
		wantErr error
	}{
		{name: "Akai label", label: "MPC2000XL", want: "MPC2000XL"},
		{name: "removed label falls back to the boot sector", label: "", want: ""},
		{name: "too long", label: "MPC2000XL-SSD", wantErr: ErrInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			memFs, fs := newTestVolume(t, "OLD")

			err := fs.SetVolumeLabel(tt.label)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("FileSystem.SetVolumeLabel() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if err := fs.Flush(); err != nil {
				t.Fatalf("FileSystem.Flush() error = %v", err)
			}

			reread := remount(t, memFs, Options{ReadOnly: true})
			got, err := reread.VolumeLabel()
			if err != nil {
				t.Fatalf("FileSystem.VolumeLabel() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("FileSystem.VolumeLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}
