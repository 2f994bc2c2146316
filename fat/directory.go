package fat

import (
	"errors"
	"sort"
	"strings"

	"github.com/aligator/akaifat/checkpoint"
	"github.com/sirupsen/logrus"
)

// Directory maps long names to the entries of one directory.
// Names are unique ignoring case.
type Directory struct {
	fsObject
	raw  *RawDirectory
	fat  *Fat
	self *Entry // nil for the root directory
	log  logrus.FieldLogger

	index map[string]*Entry
	used  map[string]struct{}

	dot, dotDot *DirectoryEntry
}

func newDirectory(raw *RawDirectory, fat *Fat, self *Entry, readOnly bool, log logrus.FieldLogger) (*Directory, error) {
	d := &Directory{
		fsObject: fsObject{readOnly: readOnly},
		raw:      raw,
		fat:      fat,
		self:     self,
		log:      log,
		index:    make(map[string]*Entry),
		used:     make(map[string]struct{}),
	}
	if err := d.parseLfn(); err != nil {
		return nil, err
	}
	return d, nil
}

func key(name string) string {
	return strings.ToLower(name)
}

// normalizeName trims a user supplied name and validates it.
func normalizeName(name string) (string, error) {
	name = strings.Trim(name, " \t\x00")
	if name == "." || name == ".." {
		return "", checkpoint.Wrapf(ErrInvalidName, "%q is reserved", name)
	}
	name = strings.TrimRight(name, ". ")
	if err := checkLongName(name); err != nil {
		return "", err
	}
	return name, nil
}

// parseLfn builds the name index from the raw entries.
func (d *Directory) parseLfn() error {
	n := d.raw.EntryCount()
	for i := 0; i < n; {
		e := d.raw.Entry(i)
		if e.IsLfnEntry() && e.IsDeleted() || !e.IsLfnEntry() && e.ShortName().String() == "" {
			i++
			continue
		}

		start := i
		for i < n && d.raw.Entry(i).IsLfnEntry() && !d.raw.Entry(i).IsDeleted() {
			i++
		}
		if i >= n {
			break
		}
		if d.raw.Entry(i).IsLfnEntry() {
			// A deleted slot interrupts the run, start over behind it.
			continue
		}

		real := d.raw.Entry(i)
		slots := d.raw.entries[start:i]
		i++

		if real.IsDeleted() {
			continue
		}

		switch real.ShortName() {
		case DotName:
			d.dot = real
			continue
		case DotDotName:
			d.dotDot = real
			continue
		}

		entry := d.extract(slots, real)
		if err := d.register(entry); err != nil {
			return checkpoint.Wrap(err, ErrDuplicateName)
		}
	}
	return nil
}

// extract creates the entry for a real entry and the LFN slots in front of it.
// Without slots, or if the slots are broken, the Akai name is used.
func (d *Directory) extract(slots []*DirectoryEntry, real *DirectoryEntry) *Entry {
	name := real.AkaiName()
	if len(slots) > 0 {
		long, err := decodeLfn(slots, real)
		if err != nil {
			d.log.WithError(err).WithField("entry", name).Warn("ignoring invalid long file name")
		} else {
			name = long
		}
	}
	return newEntry(d, real, name)
}

func (d *Directory) register(e *Entry) error {
	k := key(e.name)
	if _, ok := d.used[k]; ok {
		return checkpoint.Wrapf(ErrNameInUse, "an entry named %q already exists", e.name)
	}
	d.used[k] = struct{}{}
	d.index[k] = e
	e.parent = d
	return nil
}

func (d *Directory) unregister(e *Entry) {
	k := key(e.name)
	delete(d.index, k)
	delete(d.used, k)
}

// Fat returns the allocation table of the volume.
func (d *Directory) Fat() *Fat {
	return d.fat
}

// IsRoot is true for the root directory of the volume.
func (d *Directory) IsRoot() bool {
	return d.raw.IsRoot()
}

// Entry looks up a name ignoring case, nil if there is no such entry.
func (d *Directory) Entry(name string) *Entry {
	return d.index[key(name)]
}

// Entries returns all entries ordered by their lower-cased name.
func (d *Directory) Entries() []*Entry {
	keys := make([]string, 0, len(d.index))
	for k := range d.index {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]*Entry, len(keys))
	for i, k := range keys {
		entries[i] = d.index[k]
	}
	return entries
}

// IsFreeName reports whether no entry uses the name, ignoring case.
func (d *Directory) IsFreeName(name string) bool {
	_, ok := d.used[key(name)]
	return !ok
}

// Label returns the volume label, only available on the root directory.
func (d *Directory) Label() (string, error) {
	if err := d.checkValid(); err != nil {
		return "", err
	}
	return d.raw.Label()
}

// SetLabel changes the volume label, only available on the root directory.
func (d *Directory) SetLabel(label string) error {
	if err := d.checkWritable(); err != nil {
		return err
	}
	return d.raw.SetLabel(label)
}

func (d *Directory) parentDirectory() *Directory {
	if d.self == nil {
		return nil
	}
	return d.self.parent
}

// shortNameTaken reports whether another real entry already shows as name.
func (d *Directory) shortNameTaken(name string, except *DirectoryEntry) bool {
	for _, e := range d.index {
		if e.real != except && strings.EqualFold(e.real.AkaiName(), name) {
			return true
		}
	}
	return false
}

// assignShortName stores name in the real entry, as Akai name if possible,
// else as generated alias with all of the name in LFN slots.
func (d *Directory) assignShortName(real *DirectoryEntry, name string) error {
	oldShort, oldPart := real.ShortName(), real.AkaiPart()

	err := real.SetAkaiName(name)
	if err == nil && !d.shortNameTaken(real.AkaiName(), real) {
		return nil
	}
	if err != nil && !errors.Is(err, ErrInvalidName) {
		return err
	}

	alias, err := generateAlias(name, func(s string) bool {
		return d.shortNameTaken(s, real)
	})
	if err != nil {
		real.SetShortName(oldShort)
		real.SetAkaiPart(oldPart)
		return err
	}

	real.SetShortName(alias)
	if !real.IsDirectory() {
		real.SetAkaiPart(EmptyAkaiPart)
	}
	return nil
}

// checkRoom fails if adding extra slots would exceed what the storage can hold.
func (d *Directory) checkRoom(extra int) error {
	slots := extra
	if d.dot != nil {
		slots++
	}
	if d.dotDot != nil {
		slots++
	}
	if label, err := d.raw.Label(); err == nil && label != "" {
		slots++
	}
	for _, e := range d.index {
		slots += e.slotCount()
	}

	if limit := d.raw.MaxEntries(); slots > limit {
		if d.raw.IsRoot() {
			return checkpoint.Wrapf(ErrDirectoryFull, "%d slots needed, root directory holds %d", slots, limit)
		}
		return checkpoint.Wrapf(ErrDirectoryTooLarge, "%d slots needed, at most %d allowed", slots, limit)
	}
	return nil
}

// AddFile creates an empty file.
func (d *Directory) AddFile(name string) (*Entry, error) {
	if err := d.checkWritable(); err != nil {
		return nil, err
	}

	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	if !d.IsFreeName(name) {
		return nil, checkpoint.Wrapf(ErrNameInUse, "an entry named %q already exists", name)
	}

	real := NewFileEntry()
	if err := d.assignShortName(real, name); err != nil {
		return nil, err
	}

	entry := newEntry(d, real, name)
	if err := d.checkRoom(entry.slotCount()); err != nil {
		return nil, err
	}
	if err := d.raw.AddEntry(real); err != nil {
		return nil, err
	}
	if err := d.register(entry); err != nil {
		_ = d.raw.RemoveEntry(real)
		return nil, err
	}

	rollback := func(cause error) (*Entry, error) {
		d.unregister(entry)
		_ = d.raw.RemoveEntry(real)
		return nil, cause
	}

	if _, err := entry.File(); err != nil {
		return rollback(err)
	}
	// Long names need more slots than AddEntry reserved.
	if err := d.updateLFN(); err != nil {
		return rollback(err)
	}
	return entry, nil
}

// AddDirectory creates a directory and writes it, including "." and "..",
// before it returns.
func (d *Directory) AddDirectory(name string) (*Entry, error) {
	if err := d.checkWritable(); err != nil {
		return nil, err
	}

	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	if !d.IsFreeName(name) {
		return nil, checkpoint.Wrapf(ErrNameInUse, "an entry named %q already exists", name)
	}

	real, err := d.raw.CreateSub(d.fat)
	if err != nil {
		return nil, err
	}

	entry := newEntry(d, real, name)
	rollback := func(cause error) (*Entry, error) {
		if chain, err := NewClusterChain(d.fat, real.StartCluster()); err == nil {
			_ = chain.SetChainLength(0)
		}
		_ = d.raw.RemoveEntry(real)
		return nil, cause
	}

	if err := d.assignShortName(real, name); err != nil {
		return rollback(err)
	}
	if err := d.checkRoom(entry.slotCount()); err != nil {
		return rollback(err)
	}
	if err := d.raw.AddEntry(real); err != nil {
		return rollback(err)
	}
	if err := d.register(entry); err != nil {
		return rollback(err)
	}

	if _, err := entry.Directory(); err != nil {
		d.unregister(entry)
		return rollback(err)
	}

	if err := d.Flush(); err != nil {
		return nil, err
	}
	return entry, nil
}

// Remove deletes the entry and frees its clusters. Removing a directory
// removes everything inside. Missing names are ignored.
func (d *Directory) Remove(name string) error {
	if err := d.checkWritable(); err != nil {
		return err
	}

	entry := d.Entry(name)
	if entry == nil {
		return nil
	}

	if err := d.unlinkEntry(entry); err != nil {
		return err
	}
	if err := d.freeEntry(entry); err != nil {
		return err
	}
	entry.release()

	return d.updateLFN()
}

// freeEntry releases all clusters of entry, recursing into directories.
func (d *Directory) freeEntry(entry *Entry) error {
	if entry.IsDirectory() {
		dir, err := entry.Directory()
		if err != nil {
			return err
		}
		for _, child := range dir.Entries() {
			if err := dir.freeEntry(child); err != nil {
				return err
			}
		}
	}

	chain, err := NewClusterChain(d.fat, entry.real.StartCluster())
	if err != nil {
		return err
	}
	if err := chain.SetChainLength(0); err != nil {
		return err
	}
	entry.real.SetStartCluster(0)
	return nil
}

// releaseAll invalidates the directory and every materialized child.
func (d *Directory) releaseAll() {
	d.invalidate()
	for _, e := range d.index {
		e.release()
	}
}

func (d *Directory) unlinkEntry(e *Entry) error {
	k := key(e.name)
	if d.index[k] != e {
		return checkpoint.Wrapf(ErrInvalidated, "%q is not linked into this directory", e.name)
	}
	d.unregister(e)
	return nil
}

// linkEntry adds an entry taken from another place, e.g. after a rename.
func (d *Directory) linkEntry(e *Entry) error {
	if !d.IsFreeName(e.name) {
		return checkpoint.Wrapf(ErrNameInUse, "an entry named %q already exists", e.name)
	}
	if err := d.assignShortName(e.real, e.name); err != nil {
		return err
	}
	if err := d.checkRoom(e.slotCount()); err != nil {
		return err
	}
	if err := d.register(e); err != nil {
		return err
	}
	return d.updateLFN()
}

// updateLFN regenerates all raw entries from the name index.
func (d *Directory) updateLFN() error {
	var dest []*DirectoryEntry
	if d.dot != nil {
		dest = append(dest, d.dot)
	}
	if d.dotDot != nil {
		dest = append(dest, d.dotDot)
	}

	for _, e := range d.Entries() {
		slots, err := e.compactForm()
		if err != nil {
			return err
		}
		dest = append(dest, slots...)
	}

	return d.raw.SetEntries(dest)
}

// layout regenerates the raw entries of this directory and of all
// materialized subdirectories, so every cluster they need is allocated.
func (d *Directory) layout() error {
	for _, e := range d.Entries() {
		if e.dir != nil {
			if err := e.dir.layout(); err != nil {
				return err
			}
		}
	}
	return d.updateLFN()
}

// Flush writes all materialized files and directories and then this directory.
func (d *Directory) Flush() error {
	if err := d.checkWritable(); err != nil {
		return err
	}

	for _, e := range d.Entries() {
		if e.file != nil {
			if err := e.file.Flush(); err != nil {
				return err
			}
		}
		if e.dir != nil {
			if err := e.dir.Flush(); err != nil {
				return err
			}
		}
	}

	if err := d.updateLFN(); err != nil {
		return err
	}
	return d.raw.Flush()
}
