package fat

import (
	"github.com/aligator/akaifat/checkpoint"
)

// maxChainDirectorySize is the largest size of a directory stored in a cluster chain.
const maxChainDirectorySize = 65536 * DirEntrySize

// dirStorage is where the raw entries of a directory live: either the fixed
// root directory region or a cluster chain.
type dirStorage interface {
	read(data []byte) error
	write(data []byte) error
	// changeSize makes room for at least entryCount entries and returns the new capacity.
	changeSize(entryCount int) (int, error)
	storageCluster() int64
	maxEntries() int
}

// RawDirectory is an ordered list of raw directory entries
// with a capacity given by its storage.
type RawDirectory struct {
	storage  dirStorage
	entries  []*DirectoryEntry
	capacity int
	root     bool
	label    string
}

// ReadRootDirectory reads the fixed FAT16 root directory.
func ReadRootDirectory(bs *BootSector) (*RawDirectory, error) {
	d := newRootDirectory(bs)
	if err := d.read(); err != nil {
		return nil, err
	}
	return d, nil
}

// CreateRootDirectory creates an empty root directory and writes it.
func CreateRootDirectory(bs *BootSector) (*RawDirectory, error) {
	d := newRootDirectory(bs)
	if err := d.Flush(); err != nil {
		return nil, err
	}
	return d, nil
}

func newRootDirectory(bs *BootSector) *RawDirectory {
	return &RawDirectory{
		storage: &rootStorage{
			device:   bs.device,
			offset:   bs.RootDirOffset(),
			capacity: bs.RootDirEntryCount(),
		},
		capacity: bs.RootDirEntryCount(),
		root:     true,
	}
}

// ReadChainDirectory reads a sub directory stored in a cluster chain.
func ReadChainDirectory(chain *ClusterChain) (*RawDirectory, error) {
	d, err := newChainDirectory(chain)
	if err != nil {
		return nil, err
	}
	if err := d.read(); err != nil {
		return nil, err
	}
	return d, nil
}

func newChainDirectory(chain *ClusterChain) (*RawDirectory, error) {
	length, err := chain.LengthOnDisk()
	if err != nil {
		return nil, err
	}
	return &RawDirectory{
		storage:  &chainStorage{chain: chain},
		capacity: int(length / DirEntrySize),
	}, nil
}

func (d *RawDirectory) read() error {
	data := make([]byte, d.capacity*DirEntrySize)
	if err := d.storage.read(data); err != nil {
		return err
	}

	d.entries = d.entries[:0]
	for i := 0; i < d.capacity; i++ {
		e := readDirectoryEntry(data[i*DirEntrySize:])
		if e == nil {
			continue
		}

		if e.IsVolumeLabel() && !e.IsDeleted() {
			if !d.root {
				return checkpoint.Wrapf(ErrNotRoot, "volume label %q in sub directory", e.volumeLabel())
			}
			d.label = e.volumeLabel()
			continue
		}
		d.entries = append(d.entries, e)
	}
	return nil
}

// Flush writes the label and all entries, the rest of the storage is zeroed.
func (d *RawDirectory) Flush() error {
	if d.size() > d.capacity {
		if err := d.changeSize(d.size()); err != nil {
			return err
		}
	}

	data := make([]byte, d.capacity*DirEntrySize)
	pos := 0
	if d.hasLabel() {
		newVolumeLabelEntry(d.label).write(data)
		pos = DirEntrySize
	}
	for _, e := range d.entries {
		e.write(data[pos:])
		pos += DirEntrySize
	}

	return d.storage.write(data)
}

func (d *RawDirectory) hasLabel() bool {
	return d.root && d.label != ""
}

// size is the number of used slots including the volume label.
func (d *RawDirectory) size() int {
	if d.hasLabel() {
		return len(d.entries) + 1
	}
	return len(d.entries)
}

func (d *RawDirectory) changeSize(entryCount int) error {
	capacity, err := d.storage.changeSize(entryCount)
	if err != nil {
		return err
	}
	d.capacity = capacity
	return nil
}

func (d *RawDirectory) IsRoot() bool {
	return d.root
}

// Capacity is the number of slots the storage currently holds.
func (d *RawDirectory) Capacity() int {
	return d.capacity
}

// MaxEntries is the number of slots the storage can grow to.
func (d *RawDirectory) MaxEntries() int {
	return d.storage.maxEntries()
}

func (d *RawDirectory) EntryCount() int {
	return len(d.entries)
}

func (d *RawDirectory) Entry(i int) *DirectoryEntry {
	return d.entries[i]
}

// StorageCluster is the first cluster of the directory, 0 for the root.
func (d *RawDirectory) StorageCluster() int64 {
	return d.storage.storageCluster()
}

// AddEntry appends e and grows the directory by one slot if it is full.
func (d *RawDirectory) AddEntry(e *DirectoryEntry) error {
	if d.size() >= d.capacity {
		if err := d.changeSize(d.size() + 1); err != nil {
			return err
		}
	}
	d.entries = append(d.entries, e)
	return nil
}

// RemoveEntry removes e and lets the storage shrink.
func (d *RawDirectory) RemoveEntry(e *DirectoryEntry) error {
	for i, existing := range d.entries {
		if existing == e {
			d.entries = append(d.entries[:i], d.entries[i+1:]...)
			return d.changeSize(d.size())
		}
	}
	return nil
}

// SetEntries replaces all entries, resizing the storage to fit them.
func (d *RawDirectory) SetEntries(entries []*DirectoryEntry) error {
	slots := len(entries)
	if d.hasLabel() {
		slots++
	}
	if err := d.changeSize(slots); err != nil {
		return err
	}
	d.entries = entries
	return nil
}

// Label returns the volume label.
func (d *RawDirectory) Label() (string, error) {
	if !d.root {
		return "", checkpoint.From(ErrNotRoot)
	}
	return d.label, nil
}

// SetLabel sets the volume label, an empty label removes it.
func (d *RawDirectory) SetLabel(label string) error {
	if !d.root {
		return checkpoint.From(ErrNotRoot)
	}
	if len(label) > volumeLabelLength {
		return checkpoint.Wrapf(ErrInvalidName, "label %q longer than %d characters", label, volumeLabelLength)
	}
	if err := checkNameChars([]byte(label)); err != nil {
		return err
	}

	if !d.hasLabel() && label != "" && len(d.entries)+1 > d.capacity {
		return checkpoint.Wrapf(ErrDirectoryFull, "no slot left for the volume label")
	}
	d.label = label
	return nil
}

// CreateSub allocates a one cluster directory containing "." and "..".
// It returns the entry the caller has to link into this directory.
func (d *RawDirectory) CreateSub(fat *Fat) (*DirectoryEntry, error) {
	chain, err := NewClusterChain(fat, 0)
	if err != nil {
		return nil, err
	}
	if err := chain.SetChainLength(1); err != nil {
		return nil, err
	}

	sub, err := newChainDirectory(chain)
	if err != nil {
		_ = chain.SetChainLength(0)
		return nil, err
	}

	dot := NewDirectoryEntry(chain.StartCluster())
	dot.SetShortName(DotName)
	dotDot := NewDirectoryEntry(d.StorageCluster())
	dotDot.SetShortName(DotDotName)
	sub.entries = []*DirectoryEntry{dot, dotDot}

	if err := sub.Flush(); err != nil {
		_ = chain.SetChainLength(0)
		return nil, err
	}

	return NewDirectoryEntry(chain.StartCluster()), nil
}

type rootStorage struct {
	device   BlockDevice
	offset   int64
	capacity int
}

func (s *rootStorage) read(data []byte) error {
	return checkpoint.From(s.device.Read(s.offset, data))
}

func (s *rootStorage) write(data []byte) error {
	return checkpoint.From(s.device.Write(s.offset, data))
}

func (s *rootStorage) changeSize(entryCount int) (int, error) {
	if entryCount > s.capacity {
		return 0, checkpoint.Wrapf(ErrDirectoryFull, "root directory holds %d entries, %d requested", s.capacity, entryCount)
	}
	return s.capacity, nil
}

func (s *rootStorage) storageCluster() int64 {
	return 0
}

func (s *rootStorage) maxEntries() int {
	return s.capacity
}

type chainStorage struct {
	chain *ClusterChain
}

func (s *chainStorage) read(data []byte) error {
	return s.chain.ReadData(0, data)
}

func (s *chainStorage) write(data []byte) error {
	if err := s.chain.WriteData(0, data); err != nil {
		return err
	}

	length, err := s.chain.LengthOnDisk()
	if err != nil {
		return err
	}
	if rest := length - int64(len(data)); rest > 0 {
		return s.chain.WriteData(int64(len(data)), make([]byte, rest))
	}
	return nil
}

func (s *chainStorage) changeSize(entryCount int) (int, error) {
	size := int64(entryCount) * DirEntrySize
	if size > maxChainDirectorySize {
		return 0, checkpoint.Wrapf(ErrDirectoryTooLarge, "%d entries requested, at most %d allowed", entryCount, maxChainDirectorySize/DirEntrySize)
	}
	if size < s.chain.ClusterSize() {
		size = s.chain.ClusterSize()
	}

	size, err := s.chain.SetSize(size)
	if err != nil {
		return 0, err
	}
	return int(size / DirEntrySize), nil
}

func (s *chainStorage) storageCluster() int64 {
	return s.chain.StartCluster()
}

func (s *chainStorage) maxEntries() int {
	return maxChainDirectorySize / DirEntrySize
}
