package fat

import (
	"errors"
	"time"

	"github.com/aligator/akaifat/checkpoint"
)

// Entry is a named file or directory inside a Directory. It combines one real
// directory entry with the LFN slots written in front of it.
type Entry struct {
	fsObject
	parent *Directory
	real   *DirectoryEntry
	name   string

	// Materialized on first access, owned by the entry.
	file *File
	dir  *Directory
}

func newEntry(parent *Directory, real *DirectoryEntry, name string) *Entry {
	return &Entry{
		fsObject: fsObject{readOnly: parent.readOnly},
		parent:   parent,
		real:     real,
		name:     name,
	}
}

// Name is the long name of the entry.
func (e *Entry) Name() string {
	return e.name
}

// AkaiName is the name a sampler shows for the entry.
func (e *Entry) AkaiName() string {
	return e.real.AkaiName()
}

// ShortName is the 8.3 name stored in the real entry.
func (e *Entry) ShortName() ShortName {
	return e.real.ShortName()
}

// Parent returns the directory the entry is linked into.
func (e *Entry) Parent() *Directory {
	return e.parent
}

func (e *Entry) IsFile() bool {
	return e.real.IsFile()
}

func (e *Entry) IsDirectory() bool {
	return e.real.IsDirectory()
}

// IsDirty reports unwritten changes of the real entry.
func (e *Entry) IsDirty() bool {
	return e.real.IsDirty()
}

// Length is the file size stored in the real entry, 0 for directories.
func (e *Entry) Length() int64 {
	return e.real.Length()
}

func (e *Entry) ModTime() time.Time {
	return e.real.ModTime()
}

func (e *Entry) SetModTime(t time.Time) error {
	if err := e.checkWritable(); err != nil {
		return err
	}
	e.real.SetModTime(t)
	return nil
}

func (e *Entry) IsHidden() bool       { return e.real.IsHidden() }
func (e *Entry) IsSystem() bool       { return e.real.IsSystem() }
func (e *Entry) IsArchive() bool      { return e.real.IsArchive() }
func (e *Entry) IsReadOnlyFlag() bool { return e.real.IsReadOnly() }

func (e *Entry) SetHidden(v bool) error {
	return e.setFlag(e.real.SetHidden, v)
}

func (e *Entry) SetSystem(v bool) error {
	return e.setFlag(e.real.SetSystem, v)
}

func (e *Entry) SetArchive(v bool) error {
	return e.setFlag(e.real.SetArchive, v)
}

// SetReadOnlyFlag sets the read-only attribute. It does not change the write
// access of this handle.
func (e *Entry) SetReadOnlyFlag(v bool) error {
	return e.setFlag(e.real.SetReadOnly, v)
}

func (e *Entry) setFlag(set func(bool), v bool) error {
	if err := e.checkWritable(); err != nil {
		return err
	}
	set(v)
	return nil
}

// File returns the file of the entry, the same value for every call.
func (e *Entry) File() (*File, error) {
	if err := e.checkValid(); err != nil {
		return nil, err
	}
	if e.file == nil {
		f, err := newFile(e.parent.fat, e.real, e.readOnly)
		if err != nil {
			return nil, err
		}
		e.file = f
	}
	return e.file, nil
}

// Directory returns the directory of the entry, the same value for every call.
func (e *Entry) Directory() (*Directory, error) {
	if err := e.checkValid(); err != nil {
		return nil, err
	}
	if e.dir == nil {
		if !e.real.IsDirectory() {
			return nil, checkpoint.Wrapf(ErrNotDirectory, "%q", e.name)
		}

		chain, err := NewClusterChain(e.parent.fat, e.real.StartCluster())
		if err != nil {
			return nil, err
		}
		raw, err := ReadChainDirectory(chain)
		if err != nil {
			return nil, err
		}
		dir, err := newDirectory(raw, e.parent.fat, e, e.readOnly, e.parent.log)
		if err != nil {
			return nil, err
		}
		e.dir = dir
	}
	return e.dir, nil
}

// SetName renames the entry inside its directory.
func (e *Entry) SetName(name string) error {
	return e.MoveTo(e.parent, name)
}

// MoveTo moves the entry into target under a new name. Open handles of the
// entry stay valid.
func (e *Entry) MoveTo(target *Directory, name string) error {
	if err := e.checkWritable(); err != nil {
		return err
	}
	if err := target.checkWritable(); err != nil {
		return err
	}
	if target.fat != e.parent.fat {
		return checkpoint.Wrapf(ErrCrossVolume, "cannot move %q", e.name)
	}

	name, err := normalizeName(name)
	if err != nil {
		return err
	}

	if existing := target.Entry(name); existing != nil && existing != e {
		return checkpoint.Wrapf(ErrNameInUse, "the name %q is already in use", name)
	}

	if e.IsDirectory() && e.parent != target {
		dir, err := e.Directory()
		if err != nil {
			return err
		}
		for d := target; d != nil; d = d.parentDirectory() {
			if d == dir {
				return checkpoint.Wrapf(ErrInvalidName, "cannot move %q into itself", e.name)
			}
		}
	}

	source := e.parent
	if err := source.unlinkEntry(e); err != nil {
		return err
	}

	oldName, oldShort, oldPart := e.name, e.real.ShortName(), e.real.AkaiPart()
	e.name = name
	if err := target.linkEntry(e); err != nil {
		// Put the entry back where it was.
		e.name = oldName
		e.real.SetShortName(oldShort)
		e.real.SetAkaiPart(oldPart)
		e.parent = source
		return errors.Join(err, source.register(e), source.updateLFN())
	}

	if source != target {
		if err := source.updateLFN(); err != nil {
			return err
		}
		if e.dir != nil && e.dir.dotDot != nil {
			e.dir.dotDot.SetStartCluster(target.raw.StorageCluster())
		}
	}
	return nil
}

// Replace moves e over the file old, which is removed once e took its place.
// If the move fails old stays untouched.
func (e *Entry) Replace(old *Entry, name string) error {
	if err := old.checkWritable(); err != nil {
		return err
	}
	if old.IsDirectory() {
		return checkpoint.Wrapf(ErrIsDirectory, "cannot replace the directory %q", old.name)
	}
	if old == e {
		return e.MoveTo(e.parent, name)
	}

	target := old.parent
	if err := target.unlinkEntry(old); err != nil {
		return err
	}
	if err := e.MoveTo(target, name); err != nil {
		return errors.Join(err, target.register(old), target.updateLFN())
	}

	if err := target.freeEntry(old); err != nil {
		return err
	}
	old.release()
	return nil
}

// compactForm returns the raw entries to store for this entry in order.
func (e *Entry) compactForm() ([]*DirectoryEntry, error) {
	if s := e.real.ShortName(); s == DotName || s == DotDotName {
		return []*DirectoryEntry{e.real}, nil
	}

	if e.isShortForm() {
		return []*DirectoryEntry{e.real}, nil
	}

	slots, err := encodeLfn(e.name, e.real.ShortName().Checksum())
	if err != nil {
		return nil, err
	}
	return append(slots, e.real), nil
}

// isShortForm is true if the real entry alone reproduces the name.
func (e *Entry) isShortForm() bool {
	return CanConvert(e.name) && e.real.AkaiName() == e.name
}

// slotCount is the number of raw slots compactForm produces.
func (e *Entry) slotCount() int {
	if e.isShortForm() {
		return 1
	}
	return lfnSlotCount(e.name) + 1
}

// release invalidates the entry with all materialized children.
func (e *Entry) release() {
	e.invalidate()
	if e.file != nil {
		e.file.invalidate()
	}
	if e.dir != nil {
		e.dir.releaseAll()
	}
}
