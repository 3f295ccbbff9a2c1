// internal/utils/binary/binary.go
package binary

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// Все функции ожидают, что вызывающий уже проверил длину data.

// ReadUint64LittleEndian reads a uint64 from a byte slice in little-endian format
func ReadUint64LittleEndian(data []byte, offset int) uint64 {
	return binary.LittleEndian.Uint64(data[offset : offset+8])
}

// ReadUint8 reads a uint8 (byte) from a byte slice
func ReadUint8(data []byte, offset int) uint8 {
	return data[offset]
}

// ReadBool reads a boolean from a byte slice (0 = false, non-zero = true)
func ReadBool(data []byte, offset int) bool {
	return data[offset] != 0
}

// ReadPubKey reads a Solana public key from a byte slice
func ReadPubKey(data []byte, offset int) solana.PublicKey {
	return solana.PublicKeyFromBytes(data[offset : offset+32])
}

// WriteUint64LittleEndian writes a uint64 to a byte slice in little-endian format
func WriteUint64LittleEndian(val uint64, data []byte, offset int) {
	binary.LittleEndian.PutUint64(data[offset:offset+8], val)
}

// WriteBool writes 1 for true and 0 for false
func WriteBool(val bool, data []byte, offset int) {
	data[offset] = 0
	if val {
		data[offset] = 1
	}
}
