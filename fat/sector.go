package fat

import (
	"encoding/binary"

	"github.com/aligator/akaifat/checkpoint"
)

// Sector is a fixed size record at a fixed device offset.
// Its buffer mirrors the bytes on disk, every setter marks it dirty.
type Sector struct {
	device BlockDevice
	offset int64
	data   []byte
	dirty  bool
}

func newSector(device BlockDevice, offset int64, size int) Sector {
	return Sector{
		device: device,
		offset: offset,
		data:   make([]byte, size),
		dirty:  true,
	}
}

func (s *Sector) read() error {
	if err := s.device.Read(s.offset, s.data); err != nil {
		return checkpoint.From(err)
	}
	s.dirty = false
	return nil
}

// IsDirty reports whether the buffer has changes not yet written.
func (s *Sector) IsDirty() bool {
	return s.dirty
}

// Write stores the buffer if it is dirty.
func (s *Sector) Write() error {
	if !s.dirty {
		return nil
	}
	if err := s.device.Write(s.offset, s.data); err != nil {
		return checkpoint.From(err)
	}
	s.dirty = false
	return nil
}

// Device returns the device the sector lives on.
func (s *Sector) Device() BlockDevice {
	return s.device
}

// Offset returns the absolute device offset of the sector.
func (s *Sector) Offset() int64 {
	return s.offset
}

func (s *Sector) get8(offset int) uint8 {
	return s.data[offset]
}

func (s *Sector) set8(offset int, value uint8) {
	s.data[offset] = value
	s.dirty = true
}

func (s *Sector) get16(offset int) uint16 {
	return binary.LittleEndian.Uint16(s.data[offset:])
}

func (s *Sector) set16(offset int, value uint16) {
	binary.LittleEndian.PutUint16(s.data[offset:], value)
	s.dirty = true
}

func (s *Sector) get32(offset int) uint32 {
	return binary.LittleEndian.Uint32(s.data[offset:])
}

func (s *Sector) set32(offset int, value uint32) {
	binary.LittleEndian.PutUint32(s.data[offset:], value)
	s.dirty = true
}

func (s *Sector) bytes(offset, length int) []byte {
	return s.data[offset : offset+length]
}

func (s *Sector) setBytes(offset int, value []byte) {
	copy(s.data[offset:], value)
	s.dirty = true
}
