// =============================
// File: internal/dex/pumpfun/curve.go
// =============================
package pumpfun

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	bin "github.com/rovshanmuradov/pumpfun-watcher/internal/utils/binary"
)

// Bonding curve account layout. Every integer is little-endian u64.
const (
	discriminatorOffset        = 0
	virtualTokenReservesOffset = 8
	virtualSolReservesOffset   = 16
	realTokenReservesOffset    = 24
	realSolReservesOffset      = 32
	tokenTotalSupplyOffset     = 40
	completeOffset             = 48
	creatorOffset              = 49

	// BondingCurveSize is 8 + 8*5 + 1 + 32.
	BondingCurveSize = 81
)

// BondingCurveAccount is the decoded state of a pump.fun bonding curve account.
type BondingCurveAccount struct {
	Discriminator        [8]byte
	VirtualTokenReserves uint64
	VirtualSolReserves   uint64
	RealTokenReserves    uint64
	RealSolReserves      uint64
	TokenTotalSupply     uint64
	Complete             bool
	Creator              solana.PublicKey
}

// DecodeError is returned when a buffer cannot hold a bonding curve account.
type DecodeError struct {
	Expected int
	Actual   int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("bonding curve data too short: expected %d bytes, got %d", e.Expected, e.Actual)
}

// DecodeBondingCurve reads a bonding curve account from raw account data.
// Trailing bytes beyond BondingCurveSize are ignored. Field values are not validated.
func DecodeBondingCurve(data []byte) (*BondingCurveAccount, error) {
	if len(data) < BondingCurveSize {
		return nil, &DecodeError{Expected: BondingCurveSize, Actual: len(data)}
	}

	account := &BondingCurveAccount{
		VirtualTokenReserves: bin.ReadUint64LittleEndian(data, virtualTokenReservesOffset),
		VirtualSolReserves:   bin.ReadUint64LittleEndian(data, virtualSolReservesOffset),
		RealTokenReserves:    bin.ReadUint64LittleEndian(data, realTokenReservesOffset),
		RealSolReserves:      bin.ReadUint64LittleEndian(data, realSolReservesOffset),
		TokenTotalSupply:     bin.ReadUint64LittleEndian(data, tokenTotalSupplyOffset),
		Complete:             bin.ReadBool(data, completeOffset),
		Creator:              bin.ReadPubKey(data, creatorOffset),
	}
	copy(account.Discriminator[:], data[discriminatorOffset:virtualTokenReservesOffset])

	return account, nil
}

// Encode writes the account back into its on-chain layout.
func (a *BondingCurveAccount) Encode() []byte {
	data := make([]byte, BondingCurveSize)
	copy(data[discriminatorOffset:], a.Discriminator[:])
	bin.WriteUint64LittleEndian(a.VirtualTokenReserves, data, virtualTokenReservesOffset)
	bin.WriteUint64LittleEndian(a.VirtualSolReserves, data, virtualSolReservesOffset)
	bin.WriteUint64LittleEndian(a.RealTokenReserves, data, realTokenReservesOffset)
	bin.WriteUint64LittleEndian(a.RealSolReserves, data, realSolReservesOffset)
	bin.WriteUint64LittleEndian(a.TokenTotalSupply, data, tokenTotalSupplyOffset)
	bin.WriteBool(a.Complete, data, completeOffset)
	copy(data[creatorOffset:], a.Creator[:])
	return data
}
