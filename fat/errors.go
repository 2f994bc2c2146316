package fat

import "errors"

// These errors may occur while working on a FAT volume.
// All errors returned by this package can be checked against them with errors.Is.
var (
	ErrInvalidCluster    = errors.New("invalid cluster")
	ErrFreeCluster       = errors.New("cluster is free")
	ErrFatFull           = errors.New("FAT is full")
	ErrFatMismatch       = errors.New("FAT copies differ")
	ErrEmptyChain        = errors.New("cannot read from empty cluster chain")
	ErrEndOfChain        = errors.New("access beyond the end of the cluster chain")
	ErrDirectoryFull     = errors.New("directory is full")
	ErrDirectoryTooLarge = errors.New("directory would grow beyond its maximum size")
	ErrDuplicateName     = errors.New("duplicate name in directory")
	ErrNameInUse         = errors.New("name already in use")
	ErrNotRoot           = errors.New("only supported on the root directory")
	ErrInvalidName       = errors.New("invalid name")
	ErrReadOnly          = errors.New("read-only")
	ErrInvalidated       = errors.New("object is no longer valid")
	ErrAlreadyClosed     = errors.New("file system already closed")

	ErrInvalidBootSector = errors.New("invalid boot sector")
	ErrIsDirectory       = errors.New("is a directory")
	ErrNotDirectory      = errors.New("not a directory")
	ErrEndOfFile         = errors.New("access beyond the end of the file")
	ErrCorrupted         = errors.New("corrupted file system structure")
	ErrDeviceClosed      = errors.New("device is closed")
	ErrOutOfBounds       = errors.New("access outside of the device")
	ErrVolumeTooSmall    = errors.New("volume too small for FAT16")
	ErrVolumeTooLarge    = errors.New("volume too large for FAT16")
	ErrCrossVolume       = errors.New("entries cannot be moved between volumes")
)
