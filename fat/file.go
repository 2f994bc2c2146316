package fat

import (
	"github.com/aligator/akaifat/checkpoint"
)

// File is the content of a regular file. Data is written through to the
// device, the length lives in the directory entry and is written when the
// parent directory is flushed.
type File struct {
	fsObject
	entry *DirectoryEntry
	chain *ClusterChain
}

func newFile(fat *Fat, entry *DirectoryEntry, readOnly bool) (*File, error) {
	if entry.IsDirectory() {
		return nil, checkpoint.Wrapf(ErrIsDirectory, "%q", entry.AkaiName())
	}

	chain, err := NewClusterChain(fat, entry.StartCluster())
	if err != nil {
		return nil, err
	}

	onDisk, err := chain.LengthOnDisk()
	if err != nil {
		return nil, err
	}
	if entry.Length() > onDisk {
		return nil, checkpoint.Wrapf(ErrCorrupted, "%q is %d bytes long but only %d bytes are allocated", entry.AkaiName(), entry.Length(), onDisk)
	}

	return &File{
		fsObject: fsObject{readOnly: readOnly},
		entry:    entry,
		chain:    chain,
	}, nil
}

// Length is the file size in bytes.
func (f *File) Length() (int64, error) {
	if err := f.checkValid(); err != nil {
		return 0, err
	}
	return f.entry.Length(), nil
}

// SetLength truncates or extends the file. New bytes are undefined, callers
// that need zeros have to write them.
func (f *File) SetLength(length int64) error {
	if err := f.checkWritable(); err != nil {
		return err
	}
	if length < 0 {
		return checkpoint.Wrapf(ErrEndOfFile, "negative length %d", length)
	}
	if length == f.entry.Length() {
		return nil
	}

	if _, err := f.chain.SetSize(length); err != nil {
		return err
	}
	f.entry.SetStartCluster(f.chain.StartCluster())
	f.entry.SetLength(length)
	f.entry.SetModTime(now())
	return nil
}

// Read fills dst starting at offset. Reading past the end fails.
func (f *File) Read(offset int64, dst []byte) error {
	if err := f.checkValid(); err != nil {
		return err
	}
	if offset < 0 || offset+int64(len(dst)) > f.entry.Length() {
		return checkpoint.Wrapf(ErrEndOfFile, "read of %d bytes at %d, file is %d bytes long", len(dst), offset, f.entry.Length())
	}
	return f.chain.ReadData(offset, dst)
}

// Write stores src at offset and extends the file if it ends behind the
// current length.
func (f *File) Write(offset int64, src []byte) error {
	if err := f.checkWritable(); err != nil {
		return err
	}
	if offset < 0 {
		return checkpoint.Wrapf(ErrEndOfFile, "write at negative offset %d", offset)
	}

	end := offset + int64(len(src))
	if end > f.entry.Length() {
		if err := f.SetLength(end); err != nil {
			return err
		}
	}

	if err := f.chain.WriteData(offset, src); err != nil {
		return err
	}
	f.entry.SetModTime(now())
	return nil
}

// Flush is a no-op besides validation, the data is already on the device.
func (f *File) Flush() error {
	return f.checkWritable()
}

// Chain returns the cluster chain backing the file.
func (f *File) Chain() *ClusterChain {
	return f.chain
}
