package fat

import "encoding/binary"

// FatType describes the width and the special values of FAT entries.
type FatType struct {
	label       string
	entrySize   int
	bitMask     int64
	maxClusters int64
	minReserved int64
	maxReserved int64
	eofCluster  int64
	eofMarker   int64
}

var (
	// Fat16 is the only type this package mounts and formats.
	Fat16 = &FatType{
		label:       "FAT16   ",
		entrySize:   2,
		bitMask:     0xFFFF,
		maxClusters: (1 << 16) - 16,
		minReserved: 0xFFF0,
		maxReserved: 0xFFF6,
		eofCluster:  0xFFF8,
		eofMarker:   0xFFFF,
	}

	// Fat32 is only used to recognize such volumes and reject them.
	Fat32 = &FatType{
		label:       "FAT32   ",
		entrySize:   4,
		bitMask:     0x0FFFFFFF,
		maxClusters: (1 << 28) - 16,
		minReserved: 0x0FFFFFF0,
		maxReserved: 0x0FFFFFF6,
		eofCluster:  0x0FFFFFF8,
		eofMarker:   0x0FFFFFFF,
	}
)

// Label is the file system type label written to the boot sector.
func (t *FatType) Label() string {
	return t.label
}

// EntrySize is the size of one FAT entry in bytes.
func (t *FatType) EntrySize() int {
	return t.entrySize
}

func (t *FatType) MaxClusters() int64 {
	return t.maxClusters
}

func (t *FatType) BitMask() int64 {
	return t.bitMask
}

func (t *FatType) EofMarker() int64 {
	return t.eofMarker
}

func (t *FatType) IsEofCluster(entry int64) bool {
	return entry >= t.eofCluster
}

func (t *FatType) IsReservedCluster(entry int64) bool {
	return entry >= t.minReserved && entry <= t.maxReserved
}

func (t *FatType) readEntry(data []byte, index int) int64 {
	offset := index * t.entrySize
	if t.entrySize == 2 {
		return int64(binary.LittleEndian.Uint16(data[offset:])) & t.bitMask
	}
	return int64(binary.LittleEndian.Uint32(data[offset:])) & t.bitMask
}

func (t *FatType) writeEntry(data []byte, index int, entry int64) {
	offset := index * t.entrySize
	if t.entrySize == 2 {
		binary.LittleEndian.PutUint16(data[offset:], uint16(entry&t.bitMask))
		return
	}

	// The upper four bits of a FAT32 entry are reserved and must be kept.
	old := binary.LittleEndian.Uint32(data[offset:])
	binary.LittleEndian.PutUint32(data[offset:], old&0xF0000000|uint32(entry&t.bitMask))
}

func (t *FatType) String() string {
	return t.label
}
