package fat

import (
	"encoding/binary"

	"github.com/aligator/akaifat/checkpoint"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	mediumDescriptorHD     = 0xF8
	defaultFatCount        = 2
	defaultSectorsPerTrack = 32
	defaultHeads           = 64
	defaultOEMName         = "        "
	defaultReservedSectors = 1
	maxRootDirEntries      = 512
)

// FormatConfig describes a new volume. Zero values select the defaults.
type FormatConfig struct {
	Label    string
	OEMName  string
	FatCount int
	// VolumeID defaults to random bits.
	VolumeID uint32
	Logger   logrus.FieldLogger
}

// Format writes an empty FAT16 volume spanning the whole device
// and mounts it for writing.
func Format(dev BlockDevice, cfg FormatConfig) (*FileSystem, error) {
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg.OEMName == "" {
		cfg.OEMName = defaultOEMName
	}
	if cfg.FatCount == 0 {
		cfg.FatCount = defaultFatCount
	}
	if cfg.VolumeID == 0 {
		id := uuid.New()
		cfg.VolumeID = binary.LittleEndian.Uint32(id[:4])
	}

	if dev.IsReadOnly() {
		return nil, checkpoint.Wrapf(ErrReadOnly, "cannot format a read-only device")
	}

	sectorSize := dev.SectorSize()
	totalSectors := dev.Size() / int64(sectorSize)

	spc, err := sectorsPerCluster16(totalSectors)
	if err != nil {
		return nil, err
	}

	bs, err := newBootSector(dev)
	if err != nil {
		return nil, err
	}
	steps := []error{
		bs.SetFileSystemTypeLabel(Fat16.Label()),
		bs.SetReservedSectors(defaultReservedSectors),
		bs.SetFatCount(cfg.FatCount),
		bs.SetSectorsPerCluster(spc),
		bs.SetOEMName(cfg.OEMName),
	}
	for _, err := range steps {
		if err != nil {
			return nil, err
		}
	}
	bs.SetMediumDescriptor(mediumDescriptorHD)
	bs.SetSectorsPerTrack(defaultSectorsPerTrack)
	bs.SetHeadCount(defaultHeads)
	bs.SetVolumeID(cfg.VolumeID)

	rootEntries := rootDirectorySize(sectorSize, totalSectors)
	bs.SetRootDirEntryCount(rootEntries)
	if err := bs.SetSectorsPerFat(sectorsPerFat(sectorSize, spc, cfg.FatCount, rootEntries, totalSectors)); err != nil {
		return nil, err
	}
	if cfg.Label != "" {
		if err := bs.SetVolumeLabel(cfg.Label); err != nil {
			return nil, err
		}
	}

	fat, err := CreateFat(bs, 0)
	if err != nil {
		return nil, err
	}
	if _, err := CreateRootDirectory(bs); err != nil {
		return nil, err
	}
	for i := 0; i < bs.FatCount(); i++ {
		if err := fat.WriteCopy(bs.FatOffset(i)); err != nil {
			return nil, err
		}
	}
	if err := bs.Write(); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"sectors":           totalSectors,
		"sectorsPerCluster": spc,
		"rootEntries":       rootEntries,
		"volumeID":          cfg.VolumeID,
	}).Infof("formatted FAT16 volume %q", cfg.Label)

	fs, err := Mount(dev, Options{Logger: log})
	if err != nil {
		return nil, err
	}
	if cfg.Label != "" {
		if err := fs.SetVolumeLabel(cfg.Label); err != nil {
			return nil, err
		}
	}
	if err := fs.Flush(); err != nil {
		return nil, err
	}
	return fs, nil
}

func sectorsPerCluster16(sectors int64) (int, error) {
	switch {
	case sectors <= 8400:
		return 0, checkpoint.Wrapf(ErrVolumeTooSmall, "%d sectors", sectors)
	case sectors > 4194304:
		return 0, checkpoint.Wrapf(ErrVolumeTooLarge, "%d sectors", sectors)
	case sectors > 2097152:
		return 64, nil
	case sectors > 1048576:
		return 32, nil
	case sectors > 524288:
		return 16, nil
	case sectors > 262144:
		return 8, nil
	case sectors > 32680:
		return 4, nil
	}
	return 2, nil
}

func rootDirectorySize(bytesPerSector int, totalSectors int64) int {
	totalSize := int64(bytesPerSector) * totalSectors
	if totalSize >= maxRootDirEntries*5*DirEntrySize {
		return maxRootDirEntries
	}
	return int(totalSize / (5 * DirEntrySize))
}

func sectorsPerFat(bytesPerSector, sectorsPerCluster, fatCount, rootEntries int, totalSectors int64) int {
	rootDirSectors := (rootEntries*DirEntrySize + bytesPerSector - 1) / bytesPerSector
	tmp1 := totalSectors - int64(defaultReservedSectors+rootDirSectors)
	tmp2 := int64(256*sectorsPerCluster + fatCount)
	return int((tmp1 + tmp2 - 1) / tmp2)
}
