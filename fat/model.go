// File model contains the layout of the raw 32 byte directory records.

package fat

// DirEntrySize is the size of one raw directory entry.
const DirEntrySize = 32

// Attribute flags of a directory entry.
const (
	AttrReadOnly  = 0x01
	AttrHidden    = 0x02
	AttrSystem    = 0x04
	AttrVolumeID  = 0x08
	AttrDirectory = 0x10
	AttrArchive   = 0x20

	// AttrLfn tags LFN slots. No real file carries this combination.
	AttrLfn = AttrReadOnly | AttrHidden | AttrSystem | AttrVolumeID
)

// Offsets inside a short name entry. The Akai part lives at 12 to 19.
const (
	deFlags        = 0x0b
	deWriteTime    = 0x16
	deWriteDate    = 0x18
	deStartCluster = 0x1a
	deLength       = 0x1c
)

// Offsets inside an LFN slot.
const (
	lfnOrdinal  = 0x00
	lfnAttr     = 0x0b
	lfnType     = 0x0c
	lfnChecksum = 0x0d
	lfnZero     = 0x1a

	lfnLastFlag     = 0x40
	lfnCharsPerSlot = 13
)

// lfnCharOffsets are the positions of the 13 UTF-16LE code units of one slot.
var lfnCharOffsets = [lfnCharsPerSlot]int{1, 3, 5, 7, 9, 14, 16, 18, 20, 22, 24, 28, 30}

// Markers in the first byte of an entry.
const (
	endOfDirectory = 0x00
	deletedEntry   = 0xE5
)
