package akaifat

import (
	"bytes"
	"io/ioutil"
	"path"
	"testing"

	"github.com/aligator/akaifat/fat"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const (
	testImage     = "akai.img"
	testImageSize = 16 * 1024 * 1024
)

// testFiles is the tree created by newPopulatedImage.
var testFiles = map[string][]byte{
	"AAA/TEST_WITH16CHARS.BIN":        bytes.Repeat([]byte{' '}, 512),
	"kick drum.wav":                   []byte("RIFF....WAVEfmt "),
	"Programs/long sequence name.seq": bytes.Repeat([]byte("MPC"), 1000),
	"Programs/Empty/EMPTY.PGM":        {},
	"README.TXT":                      []byte("Akai sampler disk"),
}

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(ioutil.Discard)
	return log
}

// newImage formats an empty in-memory image.
func newImage(t *testing.T) afero.Fs {
	t.Helper()

	base := afero.NewMemMapFs()
	dev, err := fat.CreateImage(base, testImage, testImageSize)
	if err != nil {
		t.Fatalf("CreateImage() error = %v", err)
	}
	vol, err := fat.Format(dev, fat.FormatConfig{Label: "MPC2000XL", Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if err := vol.Close(); err != nil {
		t.Fatalf("FileSystem.Close() error = %v", err)
	}
	if err := dev.Close(); err != nil {
		t.Fatalf("ImageDevice.Close() error = %v", err)
	}
	return base
}

// newPopulatedImage formats an image and stores testFiles on it.
func newPopulatedImage(t *testing.T) afero.Fs {
	t.Helper()

	base := newImage(t)
	afs := testingOpen(t, base, false)
	for name, content := range testFiles {
		if err := afs.MkdirAll(path.Dir(name), 0777); err != nil {
			t.Fatalf("MkdirAll(%q) error = %v", path.Dir(name), err)
		}
		if err := afero.WriteFile(afs, name, content, 0644); err != nil {
			t.Fatalf("WriteFile(%q) error = %v", name, err)
		}
	}
	if err := afs.Close(); err != nil {
		t.Fatalf("Fs.Close() error = %v", err)
	}
	return base
}

func testingOpen(t *testing.T, base afero.Fs, readOnly bool) *Fs {
	t.Helper()

	afs, err := OpenImage(base, testImage, fat.Options{ReadOnly: readOnly, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("OpenImage() error = %v", err)
	}
	return afs
}
