package fat

import (
	"io"
	"os"

	"github.com/aligator/akaifat/checkpoint"
	"github.com/spf13/afero"
)

// DefaultSectorSize is the sector size used by ImageDevice.
const DefaultSectorSize = 512

// BlockDevice is random access storage with a fixed sector size.
// Offsets are absolute byte offsets on the device.
// Generated mock using mockgen:
//
//	mockgen -source=device.go -destination=device_mock.go -package fat
type BlockDevice interface {
	Size() int64
	SectorSize() int
	Read(offset int64, dst []byte) error
	Write(offset int64, src []byte) error
	Flush() error
	Close() error
	IsClosed() bool
	IsReadOnly() bool
}

// ImageDevice is a BlockDevice backed by an image file of any afero.Fs.
type ImageDevice struct {
	file     afero.File
	size     int64
	readOnly bool
	closed   bool
}

// NewImageDevice uses an already opened file as device.
// The size of the device is the size of the file at this point.
func NewImageDevice(file afero.File, readOnly bool) (*ImageDevice, error) {
	stat, err := file.Stat()
	if err != nil {
		return nil, checkpoint.From(err)
	}

	return &ImageDevice{
		file:     file,
		size:     stat.Size(),
		readOnly: readOnly,
	}, nil
}

// OpenImage opens an existing image file.
func OpenImage(fs afero.Fs, name string, readOnly bool) (*ImageDevice, error) {
	flag := os.O_RDWR
	if readOnly {
		flag = os.O_RDONLY
	}

	file, err := fs.OpenFile(name, flag, 0)
	if err != nil {
		return nil, checkpoint.From(err)
	}

	dev, err := NewImageDevice(file, readOnly)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return dev, nil
}

// CreateImage creates (or truncates) an image file of the given size.
func CreateImage(fs afero.Fs, name string, size int64) (*ImageDevice, error) {
	file, err := fs.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, checkpoint.From(err)
	}

	if err := file.Truncate(size); err != nil {
		_ = file.Close()
		return nil, checkpoint.From(err)
	}

	return &ImageDevice{
		file: file,
		size: size,
	}, nil
}

func (d *ImageDevice) Size() int64 {
	return d.size
}

func (d *ImageDevice) SectorSize() int {
	return DefaultSectorSize
}

func (d *ImageDevice) check(offset int64, length int) error {
	if d.closed {
		return checkpoint.From(ErrDeviceClosed)
	}
	if offset < 0 || offset+int64(length) > d.size {
		return checkpoint.Wrapf(ErrOutOfBounds, "offset %d, length %d, device size %d", offset, length, d.size)
	}
	return nil
}

func (d *ImageDevice) Read(offset int64, dst []byte) error {
	if err := d.check(offset, len(dst)); err != nil {
		return err
	}

	n, err := d.file.ReadAt(dst, offset)
	if err == io.EOF && n == len(dst) {
		err = nil
	}
	if err != nil {
		return checkpoint.From(err)
	}
	return nil
}

func (d *ImageDevice) Write(offset int64, src []byte) error {
	if d.readOnly {
		return checkpoint.From(ErrReadOnly)
	}
	if err := d.check(offset, len(src)); err != nil {
		return err
	}

	_, err := d.file.WriteAt(src, offset)
	return checkpoint.From(err)
}

func (d *ImageDevice) Flush() error {
	if d.closed {
		return checkpoint.From(ErrDeviceClosed)
	}
	if d.readOnly {
		return nil
	}
	return checkpoint.From(d.file.Sync())
}

// Close closes the underlying file. Closing twice is a no-op.
func (d *ImageDevice) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	return checkpoint.From(d.file.Close())
}

func (d *ImageDevice) IsClosed() bool {
	return d.closed
}

func (d *ImageDevice) IsReadOnly() bool {
	return d.readOnly
}
