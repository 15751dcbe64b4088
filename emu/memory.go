// Package emu provides functional RV32I emulation.
package emu

import "fmt"

// MemorySize is the size of the simulated flat RAM (4 MiB).
const MemorySize = 4 * 1024 * 1024

// Memory is a flat little-endian byte-addressable RAM. Accessors assume
// in-range addresses; callers validate with CheckAccess first.
type Memory struct {
	data []byte
}

// NewMemory creates a zeroed 4 MiB memory.
func NewMemory() *Memory {
	return &Memory{data: make([]byte, MemorySize)}
}

// CheckAccess reports an error when an access of width bytes at addr
// falls outside the memory.
func (m *Memory) CheckAccess(addr uint32, width uint8) error {
	if uint64(addr)+uint64(width) > MemorySize {
		return fmt.Errorf("out-of-range memory access at 0x%08X", addr)
	}
	return nil
}

// Read8 reads a byte.
func (m *Memory) Read8(addr uint32) uint8 {
	return m.data[addr]
}

// Read16 reads a little-endian halfword.
func (m *Memory) Read16(addr uint32) uint16 {
	return uint16(m.Read8(addr)) | uint16(m.Read8(addr+1))<<8
}

// Read32 reads a little-endian word.
func (m *Memory) Read32(addr uint32) uint32 {
	return uint32(m.Read8(addr)) |
		uint32(m.Read8(addr+1))<<8 |
		uint32(m.Read8(addr+2))<<16 |
		uint32(m.Read8(addr+3))<<24
}

// Write8 writes a byte.
func (m *Memory) Write8(addr uint32, value uint8) {
	m.data[addr] = value
}

// Write16 writes a little-endian halfword.
func (m *Memory) Write16(addr uint32, value uint16) {
	m.Write8(addr, uint8(value))
	m.Write8(addr+1, uint8(value>>8))
}

// Write32 writes a little-endian word.
func (m *Memory) Write32(addr uint32, value uint32) {
	m.Write8(addr, uint8(value))
	m.Write8(addr+1, uint8(value>>8))
	m.Write8(addr+2, uint8(value>>16))
	m.Write8(addr+3, uint8(value>>24))
}

// ReadWidth reads a value of the given width in bytes (1, 2, or 4),
// zero-extended.
func (m *Memory) ReadWidth(addr uint32, width uint8) uint32 {
	switch width {
	case 1:
		return uint32(m.Read8(addr))
	case 2:
		return uint32(m.Read16(addr))
	default:
		return m.Read32(addr)
	}
}

// WriteWidth writes the low width bytes (1, 2, or 4) of value.
func (m *Memory) WriteWidth(addr uint32, width uint8, value uint32) {
	switch width {
	case 1:
		m.Write8(addr, uint8(value))
	case 2:
		m.Write16(addr, uint16(value))
	default:
		m.Write32(addr, value)
	}
}
