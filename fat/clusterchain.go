package fat

import (
	"github.com/aligator/akaifat/checkpoint"
)

// ClusterChain maps the bytes of one file or directory onto its clusters.
// A start cluster of 0 means no cluster is allocated yet.
type ClusterChain struct {
	fat          *Fat
	device       BlockDevice
	clusterSize  int64
	dataOffset   int64
	startCluster int64
}

// NewClusterChain creates a view of the chain starting at startCluster.
func NewClusterChain(fat *Fat, startCluster int64) (*ClusterChain, error) {
	if startCluster != 0 {
		if err := fat.testCluster(startCluster); err != nil {
			return nil, err
		}
		if fat.IsFreeCluster(startCluster) {
			return nil, checkpoint.Wrapf(ErrFreeCluster, "cluster chain cannot start at free cluster %d", startCluster)
		}
	}

	bs := fat.BootSector()
	return &ClusterChain{
		fat:          fat,
		device:       bs.device,
		clusterSize:  int64(bs.BytesPerCluster()),
		dataOffset:   bs.FilesOffset(),
		startCluster: startCluster,
	}, nil
}

func (c *ClusterChain) Fat() *Fat {
	return c.fat
}

func (c *ClusterChain) StartCluster() int64 {
	return c.startCluster
}

func (c *ClusterChain) ClusterSize() int64 {
	return c.clusterSize
}

func (c *ClusterChain) devOffset(cluster, clusterOffset int64) int64 {
	return c.dataOffset + clusterOffset + (cluster-FirstCluster)*c.clusterSize
}

func (c *ClusterChain) clusters() ([]int64, error) {
	if c.startCluster == 0 {
		return nil, nil
	}
	return c.fat.Chain(c.startCluster)
}

// ChainLength is the number of clusters in the chain.
func (c *ClusterChain) ChainLength() (int, error) {
	chain, err := c.clusters()
	if err != nil {
		return 0, err
	}
	return len(chain), nil
}

// LengthOnDisk is the allocated size in bytes.
func (c *ClusterChain) LengthOnDisk() (int64, error) {
	n, err := c.ChainLength()
	if err != nil {
		return 0, err
	}
	return int64(n) * c.clusterSize, nil
}

// SetSize resizes the chain to hold size bytes and returns the allocated size,
// which is always a multiple of the cluster size.
func (c *ClusterChain) SetSize(size int64) (int64, error) {
	n := (size + c.clusterSize - 1) / c.clusterSize
	if err := c.SetChainLength(int(n)); err != nil {
		return 0, err
	}
	return n * c.clusterSize, nil
}

// SetChainLength grows or shrinks the chain to n clusters.
func (c *ClusterChain) SetChainLength(n int) error {
	if n < 0 {
		return checkpoint.Wrapf(ErrInvalidCluster, "negative chain length %d", n)
	}

	if c.startCluster == 0 && n == 0 {
		return nil
	}

	if c.startCluster == 0 {
		chain, err := c.fat.AllocNewChain(n)
		if err != nil {
			return err
		}
		c.startCluster = chain[0]
		return nil
	}

	chain, err := c.fat.Chain(c.startCluster)
	if err != nil {
		return err
	}

	switch {
	case n > len(chain):
		return c.grow(chain, n)
	case n < len(chain):
		return c.shrink(chain, n)
	}
	return nil
}

func (c *ClusterChain) grow(chain []int64, n int) error {
	tail := chain[len(chain)-1]
	var added []int64
	for i := len(chain); i < n; i++ {
		next, err := c.fat.AllocAppend(tail)
		if err != nil {
			// Give back what this call took so the chain keeps its old length.
			for _, a := range added {
				_ = c.fat.SetFree(a)
			}
			_ = c.fat.SetEOF(chain[len(chain)-1])
			return err
		}
		added = append(added, next)
		tail = next
	}
	return nil
}

func (c *ClusterChain) shrink(chain []int64, n int) error {
	if n > 0 {
		if err := c.fat.SetEOF(chain[n-1]); err != nil {
			return err
		}
	} else {
		c.startCluster = 0
	}

	for _, cluster := range chain[n:] {
		if err := c.fat.SetFree(cluster); err != nil {
			return err
		}
	}
	return nil
}

// ReadData fills dst with the bytes starting at offset.
func (c *ClusterChain) ReadData(offset int64, dst []byte) error {
	if len(dst) == 0 {
		return nil
	}
	if c.startCluster == 0 {
		return checkpoint.Wrapf(ErrEmptyChain, "read of %d bytes at offset %d", len(dst), offset)
	}

	chain, err := c.fat.Chain(c.startCluster)
	if err != nil {
		return err
	}

	return c.transfer(chain, offset, dst, c.device.Read)
}

// WriteData writes src at offset and grows the chain if needed.
func (c *ClusterChain) WriteData(offset int64, src []byte) error {
	if len(src) == 0 {
		return nil
	}

	needed := (offset + int64(len(src)) + c.clusterSize - 1) / c.clusterSize
	length, err := c.ChainLength()
	if err != nil {
		return err
	}
	if int64(length) < needed {
		if err := c.SetChainLength(int(needed)); err != nil {
			return err
		}
	}

	chain, err := c.fat.Chain(c.startCluster)
	if err != nil {
		return err
	}

	return c.transfer(chain, offset, src, c.device.Write)
}

// transfer splits the range into pieces which never cross a cluster boundary.
func (c *ClusterChain) transfer(chain []int64, offset int64, buf []byte, do func(int64, []byte) error) error {
	if offset < 0 {
		return checkpoint.Wrapf(ErrEndOfChain, "negative offset %d", offset)
	}

	for len(buf) > 0 {
		index := offset / c.clusterSize
		if index >= int64(len(chain)) {
			return checkpoint.Wrapf(ErrEndOfChain, "offset %d beyond %d clusters", offset, len(chain))
		}

		clusterOffset := offset % c.clusterSize
		size := c.clusterSize - clusterOffset
		if size > int64(len(buf)) {
			size = int64(len(buf))
		}

		if err := do(c.devOffset(chain[index], clusterOffset), buf[:size]); err != nil {
			return checkpoint.From(err)
		}

		buf = buf[size:]
		offset += size
	}
	return nil
}
