package fat

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/aligator/akaifat/checkpoint"
)

// DirectoryEntry wraps one raw 32 byte directory record.
type DirectoryEntry struct {
	data  [DirEntrySize]byte
	dirty bool
}

// readDirectoryEntry parses one slot. It returns nil for the end of directory marker.
func readDirectoryEntry(data []byte) *DirectoryEntry {
	if data[0] == endOfDirectory {
		return nil
	}

	e := &DirectoryEntry{}
	copy(e.data[:], data)
	return e
}

func newDirectoryEntry(flags byte) *DirectoryEntry {
	e := &DirectoryEntry{dirty: true}
	e.data[deFlags] = flags
	return e
}

// NewFileEntry creates an empty entry for a regular file.
func NewFileEntry() *DirectoryEntry {
	e := newDirectoryEntry(AttrArchive)
	EmptyAkaiPart.write(e.data[:])
	e.SetModTime(now())
	return e
}

// NewDirectoryEntry creates an entry for a directory starting at the given cluster.
func NewDirectoryEntry(startCluster int64) *DirectoryEntry {
	e := newDirectoryEntry(AttrDirectory)
	e.SetStartCluster(startCluster)
	e.SetModTime(now())
	return e
}

// newVolumeLabelEntry creates the pseudo entry holding the volume label.
func newVolumeLabelEntry(label string) *DirectoryEntry {
	e := newDirectoryEntry(AttrVolumeID)
	copy(e.data[:shortNameLength], padRight(label, shortNameLength, ' '))
	return e
}

func (e *DirectoryEntry) flags() byte {
	return e.data[deFlags]
}

func (e *DirectoryEntry) setFlag(mask byte, value bool) {
	if value {
		e.data[deFlags] |= mask
	} else {
		e.data[deFlags] &^= mask
	}
	e.dirty = true
}

func (e *DirectoryEntry) IsLfnEntry() bool {
	return e.flags()&AttrLfn == AttrLfn
}

func (e *DirectoryEntry) IsVolumeLabel() bool {
	if e.IsLfnEntry() {
		return false
	}
	return e.flags()&(AttrDirectory|AttrVolumeID) == AttrVolumeID
}

func (e *DirectoryEntry) IsDirectory() bool {
	return e.flags()&(AttrDirectory|AttrVolumeID) == AttrDirectory
}

func (e *DirectoryEntry) IsFile() bool {
	return e.flags()&(AttrDirectory|AttrVolumeID) == 0
}

func (e *DirectoryEntry) IsDeleted() bool {
	return e.data[0] == deletedEntry
}

func (e *DirectoryEntry) IsReadOnly() bool { return e.flags()&AttrReadOnly != 0 }
func (e *DirectoryEntry) IsHidden() bool   { return e.flags()&AttrHidden != 0 }
func (e *DirectoryEntry) IsSystem() bool   { return e.flags()&AttrSystem != 0 }
func (e *DirectoryEntry) IsArchive() bool  { return e.flags()&AttrArchive != 0 }

func (e *DirectoryEntry) SetReadOnly(v bool) { e.setFlag(AttrReadOnly, v) }
func (e *DirectoryEntry) SetHidden(v bool)   { e.setFlag(AttrHidden, v) }
func (e *DirectoryEntry) SetSystem(v bool)   { e.setFlag(AttrSystem, v) }
func (e *DirectoryEntry) SetArchive(v bool)  { e.setFlag(AttrArchive, v) }

// IsDirty reports whether the entry changed since it was last written.
func (e *DirectoryEntry) IsDirty() bool {
	return e.dirty
}

// volumeLabel returns the label stored in a volume label entry.
func (e *DirectoryEntry) volumeLabel() string {
	label := e.data[:shortNameLength]
	if i := strings.IndexByte(string(label), 0); i >= 0 {
		label = label[:i]
	}
	return strings.TrimRight(string(label), " ")
}

func (e *DirectoryEntry) ShortName() ShortName {
	return parseShortName(e.data[:])
}

func (e *DirectoryEntry) SetShortName(s ShortName) {
	if e.ShortName() == s {
		return
	}
	s.write(e.data[:])
	e.dirty = true
}

func (e *DirectoryEntry) AkaiPart() AkaiPart {
	return parseAkaiPart(e.data[:])
}

func (e *DirectoryEntry) SetAkaiPart(p AkaiPart) {
	if e.AkaiPart() == p {
		return
	}
	p.write(e.data[:])
	e.dirty = true
}

// AkaiName is the name the sampler shows: base + Akai part + "." + ext.
func (e *DirectoryEntry) AkaiName() string {
	s := e.ShortName()
	name := s.Name()
	if !e.IsDirectory() {
		name += e.AkaiPart().String()
	}
	if ext := s.Ext(); ext != "" {
		name += "." + ext
	}
	return name
}

// SetAkaiName stores a name of up to 16 base characters and a 3 character
// extension. Base characters beyond the eighth go into the Akai part.
func (e *DirectoryEntry) SetAkaiName(name string) error {
	base, ext := splitName(name)

	part := ""
	if len(base) > shortBaseLength {
		base, part = base[:shortBaseLength], base[shortBaseLength:]
	}
	if part != "" && e.IsDirectory() {
		return checkpoint.Wrapf(ErrInvalidName, "directory name %q does not fit into 8.3", name)
	}

	short, err := newShortName(base, ext)
	if err != nil {
		return err
	}

	akai := EmptyAkaiPart
	if !e.IsDirectory() {
		if akai, err = NewAkaiPart(part); err != nil {
			return err
		}
	}

	e.SetShortName(short)
	if !e.IsDirectory() {
		e.SetAkaiPart(akai)
	}
	return nil
}

// splitName splits at the last dot. "." and ".." have no extension.
func splitName(name string) (base, ext string) {
	if name == "." || name == ".." {
		return name, ""
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return name, ""
}

func (e *DirectoryEntry) StartCluster() int64 {
	return int64(binary.LittleEndian.Uint16(e.data[deStartCluster:]))
}

func (e *DirectoryEntry) SetStartCluster(cluster int64) {
	binary.LittleEndian.PutUint16(e.data[deStartCluster:], uint16(cluster))
	e.dirty = true
}

func (e *DirectoryEntry) Length() int64 {
	return int64(binary.LittleEndian.Uint32(e.data[deLength:]))
}

func (e *DirectoryEntry) SetLength(length int64) {
	binary.LittleEndian.PutUint32(e.data[deLength:], uint32(length))
	e.dirty = true
}

// ModTime is the last write time, time.Time{} if none is stored.
func (e *DirectoryEntry) ModTime() time.Time {
	return joinDateTime(binary.LittleEndian.Uint16(e.data[deWriteDate:]), binary.LittleEndian.Uint16(e.data[deWriteTime:]))
}

func (e *DirectoryEntry) SetModTime(t time.Time) {
	binary.LittleEndian.PutUint16(e.data[deWriteDate:], EncodeDate(t))
	binary.LittleEndian.PutUint16(e.data[deWriteTime:], EncodeTime(t))
	e.dirty = true
}

// write stores the entry into dst and clears the dirty flag.
func (e *DirectoryEntry) write(dst []byte) {
	copy(dst, e.data[:])
	e.dirty = false
}
