package guest

import (
	"encoding/binary"
	"fmt"
)

// Typed read helpers over a Memory accessor. Guest data is little-endian
// on all supported targets.

// ReadU8 reads an unsigned 8-bit integer from the specified address.
func ReadU8(m Memory, addr Addr) (uint8, error) {
	data, err := m.ReadMemory(addr, 1)
	if err != nil {
		return 0, err
	}
	return data[0], nil
}

// ReadU16 reads an unsigned 16-bit integer from the specified address.
func ReadU16(m Memory, addr Addr) (uint16, error) {
	data, err := m.ReadMemory(addr, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(data), nil
}

// ReadU32 reads an unsigned 32-bit integer from the specified address.
func ReadU32(m Memory, addr Addr) (uint32, error) {
	data, err := m.ReadMemory(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data), nil
}

// ReadU64 reads an unsigned 64-bit integer from the specified address.
func ReadU64(m Memory, addr Addr) (uint64, error) {
	data, err := m.ReadMemory(addr, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(data), nil
}

// ReadI32 reads a signed 32-bit integer from the specified address.
func ReadI32(m Memory, addr Addr) (int32, error) {
	v, err := ReadU32(m, addr)
	return int32(v), err
}

// ReadPtr reads a guest-pointer-sized value from the specified address.
// The pointer width comes from the vCPU, not from the host.
func ReadPtr(cpu CPU, addr Addr) (Addr, error) {
	if addr.IsNull() {
		return 0, ErrNullAddress
	}
	switch cpu.WordSize() {
	case 4:
		v, err := ReadU32(cpu, addr)
		return Addr(v), err
	case 8:
		v, err := ReadU64(cpu, addr)
		return Addr(v), err
	default:
		return 0, fmt.Errorf("unsupported guest word size %d", cpu.WordSize())
	}
}

// ReadPtrOrZero reads a guest pointer from the specified address, zero on error.
func ReadPtrOrZero(cpu CPU, addr Addr) Addr {
	ptr, err := ReadPtr(cpu, addr)
	if err != nil {
		return 0
	}
	return ptr
}

// ReadString reads a null-terminated string from the specified address with
// a maximum length. A buffer with no terminator is returned whole.
func ReadString(m Memory, addr Addr, maxLength uint64) (string, error) {
	if maxLength == 0 {
		return "", nil
	}

	data, err := m.ReadMemory(addr, maxLength)
	if err != nil {
		return "", err
	}

	for i, b := range data {
		if b == 0 {
			return string(data[:i]), nil
		}
	}
	return string(data), nil
}
