package fat

import (
	"io/ioutil"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const (
	testImage     = "test.img"
	testImageSize = 16 * 1024 * 1024
)

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(ioutil.Discard)
	return log
}

// newTestVolume formats a fresh in-memory image.
func newTestVolume(t *testing.T, label string) (afero.Fs, *FileSystem) {
	t.Helper()

	memFs := afero.NewMemMapFs()
	dev, err := CreateImage(memFs, testImage, testImageSize)
	if err != nil {
		t.Fatalf("CreateImage() error = %v", err)
	}

	fs, err := Format(dev, FormatConfig{Label: label, VolumeID: 0x12345678, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	return memFs, fs
}

// remount opens the image again with a new device.
func remount(t *testing.T, memFs afero.Fs, opts Options) *FileSystem {
	t.Helper()

	dev, err := OpenImage(memFs, testImage, opts.ReadOnly)
	if err != nil {
		t.Fatalf("OpenImage() error = %v", err)
	}
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}

	fs, err := Mount(dev, opts)
	if err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	return fs
}

func mustRoot(t *testing.T, fs *FileSystem) *Directory {
	t.Helper()
	root, err := fs.Root()
	if err != nil {
		t.Fatalf("FileSystem.Root() error = %v", err)
	}
	return root
}

func imageBytes(t *testing.T, memFs afero.Fs) []byte {
	t.Helper()
	data, err := afero.ReadFile(memFs, testImage)
	if err != nil {
		t.Fatalf("afero.ReadFile() error = %v", err)
	}
	return data
}

// newTableFat creates a bare table with size entries, enough for allocation tests.
func newTableFat(size int64) *Fat {
	f := &Fat{
		entries:              make([]int64, size),
		fatType:              Fat16,
		lastIndex:            size,
		lastAllocatedCluster: FirstCluster,
	}
	f.init(mediumDescriptorHD)
	return f
}
