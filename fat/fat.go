package fat

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/aligator/akaifat/checkpoint"
)

// FirstCluster is the index of the first data cluster.
const FirstCluster = 2

// Fat is one copy of the file allocation table held in memory.
type Fat struct {
	entries   []int64
	fatType   *FatType
	bs        *BootSector
	offset    int64
	lastIndex int64

	// lastAllocatedCluster is the cursor where the next free cluster search starts.
	lastAllocatedCluster int64
}

// ReadFat loads the FAT copy n of the volume.
func ReadFat(bs *BootSector, n int) (*Fat, error) {
	f, err := newFat(bs, n)
	if err != nil {
		return nil, err
	}
	if err := f.read(); err != nil {
		return nil, err
	}
	return f, nil
}

// CreateFat initializes an empty FAT copy n and writes it to the device.
func CreateFat(bs *BootSector, n int) (*Fat, error) {
	f, err := newFat(bs, n)
	if err != nil {
		return nil, err
	}
	f.init(bs.MediumDescriptor())
	if err := f.Write(); err != nil {
		return nil, err
	}
	return f, nil
}

func newFat(bs *BootSector, n int) (*Fat, error) {
	if n < 0 || n >= bs.FatCount() {
		return nil, checkpoint.Wrapf(ErrInvalidBootSector, "FAT %d does not exist, volume has %d", n, bs.FatCount())
	}

	fatType, err := bs.FatType()
	if err != nil {
		return nil, err
	}

	size := int64(bs.SectorsPerFat()) * int64(bs.BytesPerSector()) / int64(fatType.EntrySize())
	lastIndex := bs.DataClusterCount() + FirstCluster
	if lastIndex > size {
		return nil, checkpoint.Wrapf(ErrInvalidBootSector, "FAT has %d entries but %d clusters are addressed", size, lastIndex)
	}

	return &Fat{
		entries:              make([]int64, size),
		fatType:              fatType,
		bs:                   bs,
		offset:               bs.FatOffset(n),
		lastIndex:            lastIndex,
		lastAllocatedCluster: FirstCluster,
	}, nil
}

func (f *Fat) init(mediumDescriptor int) {
	f.entries[0] = int64(mediumDescriptor&0xFF) | 0xFF00
	f.entries[1] = f.fatType.EofMarker()
}

func (f *Fat) read() error {
	data := make([]byte, len(f.entries)*f.fatType.EntrySize())
	if err := f.bs.device.Read(f.offset, data); err != nil {
		return checkpoint.From(err)
	}

	for i := range f.entries {
		f.entries[i] = f.fatType.readEntry(data, i)
	}
	return nil
}

// Write stores the table at its own offset.
func (f *Fat) Write() error {
	return f.WriteCopy(f.offset)
}

// WriteCopy stores the table at any offset, used for the redundant copies.
func (f *Fat) WriteCopy(offset int64) error {
	data := make([]byte, len(f.entries)*f.fatType.EntrySize())
	for i, e := range f.entries {
		f.fatType.writeEntry(data, i, e)
	}
	return checkpoint.From(f.bs.device.Write(offset, data))
}

func (f *Fat) FatType() *FatType {
	return f.fatType
}

func (f *Fat) BootSector() *BootSector {
	return f.bs
}

func (f *Fat) Device() BlockDevice {
	return f.bs.device
}

func (f *Fat) MediumDescriptor() int {
	return int(f.entries[0] & 0xFF)
}

// Entry returns the raw value of the entry at index.
func (f *Fat) Entry(index int64) int64 {
	return f.entries[index]
}

// LastClusterIndex is the first index beyond the addressable data clusters.
func (f *Fat) LastClusterIndex() int64 {
	return f.lastIndex
}

func (f *Fat) LastAllocatedCluster() int64 {
	return f.lastAllocatedCluster
}

func (f *Fat) testCluster(cluster int64) error {
	if cluster < FirstCluster || cluster >= int64(len(f.entries)) {
		return checkpoint.Wrapf(ErrInvalidCluster, "invalid cluster value %d", cluster)
	}
	return nil
}

// IsFreeCluster reports whether the cluster is unallocated.
func (f *Fat) IsFreeCluster(cluster int64) bool {
	return f.entries[cluster] == 0
}

// IsEofCluster reports whether the entry value marks the end of a chain.
func (f *Fat) IsEofCluster(entry int64) bool {
	return f.fatType.IsEofCluster(entry)
}

// Chain returns all clusters of the chain starting at start in order.
func (f *Fat) Chain(start int64) ([]int64, error) {
	if err := f.testCluster(start); err != nil {
		return nil, err
	}

	var chain []int64
	cluster := start
	for {
		chain = append(chain, cluster)
		next := f.entries[cluster]
		if f.IsEofCluster(next) {
			return chain, nil
		}

		if next < FirstCluster || next >= f.lastIndex {
			return nil, checkpoint.Wrapf(ErrInvalidCluster, "cluster %d links to %d", cluster, next)
		}
		if len(chain) >= len(f.entries) {
			return nil, checkpoint.Wrapf(ErrCorrupted, "cluster chain starting at %d does not end", start)
		}
		cluster = next
	}
}

// NextCluster returns the successor of cluster, ok is false at the end of the chain.
func (f *Fat) NextCluster(cluster int64) (next int64, ok bool, err error) {
	if err := f.testCluster(cluster); err != nil {
		return 0, false, err
	}

	entry := f.entries[cluster]
	if f.IsEofCluster(entry) {
		return 0, false, nil
	}
	return entry, true, nil
}

// AllocNew allocates a single cluster marked as end of chain.
func (f *Fat) AllocNew() (int64, error) {
	index := int64(-1)
	for i := f.lastAllocatedCluster; i < f.lastIndex; i++ {
		if f.IsFreeCluster(i) {
			index = i
			break
		}
	}

	if index < 0 {
		for i := int64(FirstCluster); i < f.lastAllocatedCluster; i++ {
			if f.IsFreeCluster(i) {
				index = i
				break
			}
		}
	}

	if index < 0 {
		return 0, checkpoint.Wrapf(ErrFatFull, "no free cluster among %d data clusters", f.lastIndex-FirstCluster)
	}

	f.entries[index] = f.fatType.EofMarker()
	f.lastAllocatedCluster = index % f.lastIndex
	if f.lastAllocatedCluster < FirstCluster {
		f.lastAllocatedCluster = FirstCluster
	}
	return index, nil
}

// AllocNewChain allocates n clusters as one chain and returns them in order.
// Either all clusters are allocated or none.
func (f *Fat) AllocNewChain(n int) ([]int64, error) {
	if n <= 0 {
		return nil, nil
	}

	cursor := f.lastAllocatedCluster
	chain := make([]int64, 0, n)

	first, err := f.AllocNew()
	if err != nil {
		return nil, err
	}
	chain = append(chain, first)

	for len(chain) < n {
		next, err := f.AllocNew()
		if err != nil {
			for _, c := range chain {
				f.entries[c] = 0
			}
			f.lastAllocatedCluster = cursor
			return nil, err
		}
		f.entries[chain[len(chain)-1]] = next
		chain = append(chain, next)
	}

	return chain, nil
}

// AllocAppend appends a new cluster to the chain containing cluster.
func (f *Fat) AllocAppend(cluster int64) (int64, error) {
	if err := f.testCluster(cluster); err != nil {
		return 0, err
	}

	tail := cluster
	for steps := 0; !f.IsEofCluster(f.entries[tail]); steps++ {
		tail = f.entries[tail]
		if err := f.testCluster(tail); err != nil {
			return 0, err
		}
		if steps >= len(f.entries) {
			return 0, checkpoint.Wrapf(ErrCorrupted, "cluster chain containing %d does not end", cluster)
		}
	}

	next, err := f.AllocNew()
	if err != nil {
		return 0, err
	}
	f.entries[tail] = next
	return next, nil
}

// SetEOF marks cluster as last cluster of its chain.
func (f *Fat) SetEOF(cluster int64) error {
	if err := f.testCluster(cluster); err != nil {
		return err
	}
	f.entries[cluster] = f.fatType.EofMarker()
	return nil
}

// SetFree releases cluster. The caller has to unlink it first.
func (f *Fat) SetFree(cluster int64) error {
	if err := f.testCluster(cluster); err != nil {
		return err
	}
	f.entries[cluster] = 0
	return nil
}

// FreeClusterCount counts all unallocated data clusters.
func (f *Fat) FreeClusterCount() int64 {
	var count int64
	for i := int64(FirstCluster); i < f.lastIndex; i++ {
		if f.IsFreeCluster(i) {
			count++
		}
	}
	return count
}

// Equals compares type, geometry and every entry.
func (f *Fat) Equals(other *Fat) bool {
	if f == other {
		return true
	}
	if other == nil || f.fatType.Label() != other.fatType.Label() ||
		f.lastIndex != other.lastIndex || len(f.entries) != len(other.entries) ||
		f.MediumDescriptor() != other.MediumDescriptor() {
		return false
	}

	for i := range f.entries {
		if f.entries[i] != other.entries[i] {
			return false
		}
	}
	return true
}

// Hash is a digest of the same data Equals compares.
func (f *Fat) Hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte(f.fatType.Label()))

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(f.lastIndex))
	h.Write(buf[:])
	for _, e := range f.entries {
		binary.LittleEndian.PutUint64(buf[:], uint64(e))
		h.Write(buf[:])
	}
	return h.Sum64()
}
