package fat

import (
	"strings"

	"github.com/aligator/akaifat/checkpoint"
)

// BootSectorSize is the size of the boot sector record.
const BootSectorSize = 512

// Boot sector layout of FAT16 volumes.
const (
	bsJump              = 0x00
	bsOemName           = 0x03
	bsBytesPerSector    = 0x0b
	bsSectorsPerCluster = 0x0d
	bsReservedSectors   = 0x0e
	bsFatCount          = 0x10
	bsRootDirEntries    = 0x11
	bsTotalSectors16    = 0x13
	bsMediumDescriptor  = 0x15
	bsSectorsPerFat     = 0x16
	bsSectorsPerTrack   = 0x18
	bsHeads             = 0x1a
	bsHiddenSectors     = 0x1c
	bsTotalSectors32    = 0x20
	bsExtBootSignature  = 0x26
	bsVolumeID          = 0x27
	bsVolumeLabel       = 0x2b
	bsFsTypeLabel       = 0x36
	bsSignature         = 0x1fe

	oemNameLength     = 8
	volumeLabelLength = 11
	fsTypeLabelLength = 8

	extBootSignature  = 0x29
	maxSectorsPerFat  = 0x7FFF
	maxFat16Clusters  = 65524
	defaultRootDirLen = 512
	defaultVolumeName = "NO NAME"
)

// BootSector is the first sector of a FAT16 volume.
type BootSector struct {
	Sector
}

// ReadBootSector reads and validates the boot sector of a device.
func ReadBootSector(device BlockDevice) (*BootSector, error) {
	bs := &BootSector{Sector: newSector(device, 0, BootSectorSize)}
	if err := bs.read(); err != nil {
		return nil, checkpoint.Wrap(err, ErrInvalidBootSector)
	}

	if bs.get8(bsSignature) != 0x55 || bs.get8(bsSignature+1) != 0xAA {
		return nil, checkpoint.Wrapf(ErrInvalidBootSector, "missing boot sector signature, found %#02x %#02x", bs.get8(bsSignature), bs.get8(bsSignature+1))
	}

	if !isValidSectorSize(bs.BytesPerSector()) {
		return nil, checkpoint.Wrapf(ErrInvalidBootSector, "unsupported sector size %d", bs.BytesPerSector())
	}

	if spc := bs.SectorsPerCluster(); spc == 0 || !isPowerOfTwo(spc) {
		return nil, checkpoint.Wrapf(ErrInvalidBootSector, "sectors per cluster must be a power of two, got %d", spc)
	}

	if bs.ReservedSectors() < 1 {
		return nil, checkpoint.Wrapf(ErrInvalidBootSector, "at least one reserved sector required")
	}

	return bs, nil
}

// newBootSector creates an initialized but unwritten boot sector for formatting.
func newBootSector(device BlockDevice) (*BootSector, error) {
	bs := &BootSector{Sector: newSector(device, 0, BootSectorSize)}
	if err := bs.init(); err != nil {
		return nil, err
	}
	return bs, nil
}

func (bs *BootSector) init() error {
	if err := bs.SetBytesPerSector(bs.device.SectorSize()); err != nil {
		return err
	}
	bs.SetSectorCount(bs.device.Size() / int64(bs.device.SectorSize()))

	bs.set8(bsExtBootSignature, extBootSignature)

	// Jump instruction and NOP.
	bs.set8(bsJump, 0xEB)
	bs.set8(bsJump+1, 0x3C)
	bs.set8(bsJump+2, 0x90)

	bs.set8(bsSignature, 0x55)
	bs.set8(bsSignature+1, 0xAA)

	bs.SetRootDirEntryCount(defaultRootDirLen)
	return bs.SetVolumeLabel(defaultVolumeName)
}

func isValidSectorSize(size int) bool {
	switch size {
	case 512, 1024, 2048, 4096:
		return true
	}
	return false
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// FatType determines the FAT type from the cluster count.
func (bs *BootSector) FatType() (*FatType, error) {
	if bs.SectorsPerCluster() == 0 {
		return nil, checkpoint.Wrapf(ErrInvalidBootSector, "sectors per cluster is 0")
	}

	rootDirSectors := (bs.RootDirEntryCount()*DirEntrySize + bs.BytesPerSector() - 1) / bs.BytesPerSector()
	dataSectors := bs.SectorCount() - int64(bs.ReservedSectors()+bs.FatCount()*bs.SectorsPerFat()+rootDirSectors)
	clusters := dataSectors / int64(bs.SectorsPerCluster())

	if clusters > maxFat16Clusters {
		return nil, checkpoint.Wrapf(ErrInvalidBootSector, "too many clusters for FAT16: %d", clusters)
	}
	return Fat16, nil
}

func (bs *BootSector) OEMName() string {
	return strings.TrimRight(string(bs.bytes(bsOemName, oemNameLength)), "\x00")
}

// SetOEMName sets the name of the formatting system, at most 8 characters.
func (bs *BootSector) SetOEMName(name string) error {
	if len(name) > oemNameLength {
		return checkpoint.Wrapf(ErrInvalidName, "OEM name %q longer than %d characters", name, oemNameLength)
	}
	var buf [oemNameLength]byte
	copy(buf[:], name)
	bs.setBytes(bsOemName, buf[:])
	return nil
}

func (bs *BootSector) BytesPerSector() int {
	return int(bs.get16(bsBytesPerSector))
}

func (bs *BootSector) SetBytesPerSector(v int) error {
	if v == bs.BytesPerSector() {
		return nil
	}
	if !isValidSectorSize(v) {
		return checkpoint.Wrapf(ErrInvalidBootSector, "unsupported sector size %d", v)
	}
	bs.set16(bsBytesPerSector, uint16(v))
	return nil
}

func (bs *BootSector) SectorsPerCluster() int {
	return int(bs.get8(bsSectorsPerCluster))
}

// SetSectorsPerCluster accepts powers of two up to 128.
func (bs *BootSector) SetSectorsPerCluster(v int) error {
	if v == bs.SectorsPerCluster() {
		return nil
	}
	if !isPowerOfTwo(v) || v > 128 {
		return checkpoint.Wrapf(ErrInvalidBootSector, "sectors per cluster must be a power of two, got %d", v)
	}
	bs.set8(bsSectorsPerCluster, uint8(v))
	return nil
}

func (bs *BootSector) ReservedSectors() int {
	return int(bs.get16(bsReservedSectors))
}

func (bs *BootSector) SetReservedSectors(v int) error {
	if v == bs.ReservedSectors() {
		return nil
	}
	if v < 1 || v > 0xFFFF {
		return checkpoint.Wrapf(ErrInvalidBootSector, "invalid reserved sector count %d", v)
	}
	bs.set16(bsReservedSectors, uint16(v))
	return nil
}

func (bs *BootSector) FatCount() int {
	return int(bs.get8(bsFatCount))
}

func (bs *BootSector) SetFatCount(v int) error {
	if v == bs.FatCount() {
		return nil
	}
	if v < 1 || v > 0xFF {
		return checkpoint.Wrapf(ErrInvalidBootSector, "invalid FAT count %d", v)
	}
	bs.set8(bsFatCount, uint8(v))
	return nil
}

func (bs *BootSector) RootDirEntryCount() int {
	return int(bs.get16(bsRootDirEntries))
}

func (bs *BootSector) SetRootDirEntryCount(v int) {
	if v == bs.RootDirEntryCount() {
		return
	}
	bs.set16(bsRootDirEntries, uint16(v))
}

func (bs *BootSector) MediumDescriptor() int {
	return int(bs.get8(bsMediumDescriptor))
}

func (bs *BootSector) SetMediumDescriptor(v int) {
	bs.set8(bsMediumDescriptor, uint8(v))
}

func (bs *BootSector) SectorsPerFat() int {
	return int(bs.get16(bsSectorsPerFat))
}

func (bs *BootSector) SetSectorsPerFat(v int) error {
	if v == bs.SectorsPerFat() {
		return nil
	}
	if v < 1 || v > maxSectorsPerFat {
		return checkpoint.Wrapf(ErrInvalidBootSector, "sectors per FAT %d out of range", v)
	}
	bs.set16(bsSectorsPerFat, uint16(v))
	return nil
}

func (bs *BootSector) SectorsPerTrack() int {
	return int(bs.get16(bsSectorsPerTrack))
}

func (bs *BootSector) SetSectorsPerTrack(v int) {
	bs.set16(bsSectorsPerTrack, uint16(v))
}

func (bs *BootSector) HeadCount() int {
	return int(bs.get16(bsHeads))
}

func (bs *BootSector) SetHeadCount(v int) {
	bs.set16(bsHeads, uint16(v))
}

func (bs *BootSector) HiddenSectors() int64 {
	return int64(bs.get32(bsHiddenSectors))
}

func (bs *BootSector) SetHiddenSectors(v int64) {
	bs.set32(bsHiddenSectors, uint32(v))
}

// SectorCount is the total number of sectors, read from the 16 bit field
// unless it is 0.
func (bs *BootSector) SectorCount() int64 {
	if count := bs.get16(bsTotalSectors16); count != 0 {
		return int64(count)
	}
	return int64(bs.get32(bsTotalSectors32))
}

func (bs *BootSector) SetSectorCount(count int64) {
	if count > 0xFFFF {
		bs.set16(bsTotalSectors16, 0)
		bs.set32(bsTotalSectors32, uint32(count))
		return
	}
	bs.set16(bsTotalSectors16, uint16(count))
	bs.set32(bsTotalSectors32, 0)
}

func (bs *BootSector) VolumeID() uint32 {
	return bs.get32(bsVolumeID)
}

func (bs *BootSector) SetVolumeID(id uint32) {
	bs.set32(bsVolumeID, id)
}

// VolumeLabel returns the label without padding.
func (bs *BootSector) VolumeLabel() string {
	return strings.TrimRight(string(bs.bytes(bsVolumeLabel, volumeLabelLength)), " \x00")
}

// SetVolumeLabel stores a label of at most 11 characters, padded with spaces.
func (bs *BootSector) SetVolumeLabel(label string) error {
	if len(label) > volumeLabelLength {
		return checkpoint.Wrapf(ErrInvalidName, "volume label %q longer than %d characters", label, volumeLabelLength)
	}
	bs.setBytes(bsVolumeLabel, []byte(padRight(label, volumeLabelLength, ' ')))
	return nil
}

func (bs *BootSector) FileSystemTypeLabel() string {
	return string(bs.bytes(bsFsTypeLabel, fsTypeLabelLength))
}

func (bs *BootSector) SetFileSystemTypeLabel(label string) error {
	if len(label) != fsTypeLabelLength {
		return checkpoint.Wrapf(ErrInvalidName, "file system type label %q must have %d characters", label, fsTypeLabelLength)
	}
	bs.setBytes(bsFsTypeLabel, []byte(label))
	return nil
}

// FatOffset is the device offset of the FAT copy n.
func (bs *BootSector) FatOffset(n int) int64 {
	bps := int64(bs.BytesPerSector())
	return int64(bs.ReservedSectors())*bps + int64(n)*int64(bs.SectorsPerFat())*bps
}

// RootDirOffset is the device offset of the fixed root directory region.
func (bs *BootSector) RootDirOffset() int64 {
	return bs.FatOffset(bs.FatCount())
}

// FilesOffset is the device offset of the data area, i.e. cluster 2.
func (bs *BootSector) FilesOffset() int64 {
	return bs.RootDirOffset() + int64(bs.RootDirEntryCount())*DirEntrySize
}

func (bs *BootSector) BytesPerCluster() int {
	return bs.SectorsPerCluster() * bs.BytesPerSector()
}

// DataClusterCount is the number of clusters fitting into the data area.
func (bs *BootSector) DataClusterCount() int64 {
	if bs.BytesPerCluster() == 0 {
		return 0
	}
	data := bs.SectorCount()*int64(bs.BytesPerSector()) - bs.FilesOffset()
	if data < 0 {
		return 0
	}
	return data / int64(bs.BytesPerCluster())
}

func padRight(s string, length int, pad byte) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(string(pad), length-len(s))
}
