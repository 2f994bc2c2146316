package fat

import (
	"github.com/aligator/akaifat/checkpoint"
	"github.com/sirupsen/logrus"
)

// Options configure how a volume is mounted.
type Options struct {
	// ReadOnly rejects every modification. Read-only devices require it.
	ReadOnly bool
	// IgnoreFatDifferences skips comparing FAT #0 with the redundant copies.
	IgnoreFatDifferences bool
	// Logger defaults to the logrus standard logger.
	Logger logrus.FieldLogger
}

// FileSystem is a mounted FAT16 volume with Akai names.
type FileSystem struct {
	fsObject
	device BlockDevice
	bs     *BootSector
	fat    *Fat
	root   *Directory
	log    logrus.FieldLogger
	closed bool
}

// Mount reads the boot sector, the FAT and the root directory of dev.
func Mount(dev BlockDevice, opts Options) (*FileSystem, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	if !opts.ReadOnly && dev.IsReadOnly() {
		return nil, checkpoint.Wrapf(ErrReadOnly, "cannot mount a read-only device for writing")
	}

	bs, err := ReadBootSector(dev)
	if err != nil {
		return nil, err
	}
	if bs.FatCount() < 1 {
		return nil, checkpoint.Wrapf(ErrInvalidBootSector, "volume has no FAT")
	}

	fat, err := ReadFat(bs, 0)
	if err != nil {
		return nil, err
	}

	for i := 1; i < bs.FatCount(); i++ {
		other, err := ReadFat(bs, i)
		if err != nil {
			return nil, err
		}
		if fat.Equals(other) {
			continue
		}
		if !opts.IgnoreFatDifferences {
			return nil, checkpoint.Wrapf(ErrFatMismatch, "FAT #%d differs from FAT #0", i)
		}
		log.WithField("fat", i).Warn("ignoring FAT copy that differs from FAT #0")
	}

	log.WithFields(logrus.Fields{
		"bytesPerSector":    bs.BytesPerSector(),
		"sectorsPerCluster": bs.SectorsPerCluster(),
		"fatCount":          bs.FatCount(),
		"sectorsPerFat":     bs.SectorsPerFat(),
		"rootEntries":       bs.RootDirEntryCount(),
		"clusters":          bs.DataClusterCount(),
	}).Debug("mounting FAT16 volume")

	raw, err := ReadRootDirectory(bs)
	if err != nil {
		return nil, err
	}

	root, err := newDirectory(raw, fat, nil, opts.ReadOnly, log)
	if err != nil {
		return nil, err
	}

	return &FileSystem{
		fsObject: fsObject{readOnly: opts.ReadOnly},
		device:   dev,
		bs:       bs,
		fat:      fat,
		root:     root,
		log:      log,
	}, nil
}

func (fs *FileSystem) checkClosed() error {
	if fs.closed {
		return checkpoint.From(ErrAlreadyClosed)
	}
	return nil
}

// Root returns the root directory.
func (fs *FileSystem) Root() (*Directory, error) {
	if err := fs.checkClosed(); err != nil {
		return nil, err
	}
	return fs.root, nil
}

func (fs *FileSystem) BootSector() *BootSector {
	return fs.bs
}

func (fs *FileSystem) Fat() *Fat {
	return fs.fat
}

// VolumeLabel returns the label of the root directory, falling back to the
// boot sector if the root has none.
func (fs *FileSystem) VolumeLabel() (string, error) {
	if err := fs.checkClosed(); err != nil {
		return "", err
	}
	label, err := fs.root.Label()
	if err != nil {
		return "", err
	}
	if label == "" {
		label = fs.bs.VolumeLabel()
	}
	return label, nil
}

// SetVolumeLabel stores label in the root directory and the boot sector.
func (fs *FileSystem) SetVolumeLabel(label string) error {
	if err := fs.checkClosed(); err != nil {
		return err
	}
	if err := fs.checkWritable(); err != nil {
		return err
	}
	if err := fs.root.SetLabel(label); err != nil {
		return err
	}
	return fs.bs.SetVolumeLabel(label)
}

// Flush writes the boot sector, every FAT copy and the directory tree.
func (fs *FileSystem) Flush() error {
	if err := fs.checkClosed(); err != nil {
		return err
	}
	if err := fs.checkWritable(); err != nil {
		return err
	}

	// Directories may still grow, the FAT copies must include their clusters.
	if err := fs.root.layout(); err != nil {
		return err
	}
	if err := fs.bs.Write(); err != nil {
		return err
	}
	for i := 0; i < fs.bs.FatCount(); i++ {
		if err := fs.fat.WriteCopy(fs.bs.FatOffset(i)); err != nil {
			return err
		}
	}
	if err := fs.root.Flush(); err != nil {
		return err
	}

	fs.log.WithField("freeClusters", fs.fat.FreeClusterCount()).Debug("flushed FAT16 volume")
	return checkpoint.From(fs.device.Flush())
}

// Close flushes a writable volume and marks it closed. The device stays open.
func (fs *FileSystem) Close() error {
	if err := fs.checkClosed(); err != nil {
		return err
	}
	if !fs.readOnly {
		if err := fs.Flush(); err != nil {
			return err
		}
	}
	fs.closed = true
	fs.invalidate()
	fs.root.releaseAll()
	return nil
}

func (fs *FileSystem) IsClosed() bool {
	return fs.closed
}

// FreeSpace is the number of unallocated bytes in the data area.
func (fs *FileSystem) FreeSpace() (int64, error) {
	if err := fs.checkClosed(); err != nil {
		return 0, err
	}
	return fs.fat.FreeClusterCount() * int64(fs.bs.BytesPerCluster()), nil
}

// UsableSpace is the size of the data area in bytes.
func (fs *FileSystem) UsableSpace() (int64, error) {
	if err := fs.checkClosed(); err != nil {
		return 0, err
	}
	return fs.bs.DataClusterCount() * int64(fs.bs.BytesPerCluster()), nil
}

// TotalSpace is not known for FAT16 volumes and always -1.
func (fs *FileSystem) TotalSpace() int64 {
	return -1
}
