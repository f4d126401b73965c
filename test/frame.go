package test_test

import (
	"time"

	"github.com/aldas/go-j1939"
)

// ExtendedFrame creates frame with 29 bit identifier and given data bytes
func ExtendedFrame(t time.Time, id uint32, data ...byte) j1939.Frame {
	f := j1939.Frame{
		Time:   t,
		ID:     j1939.ExtendedID(id),
		Length: uint8(len(data)),
	}
	copy(f.Data[:], data)
	return f
}

// AddressClaimFrame creates address claimed (PGN 60928) broadcast frame sent by source with given NAME
func AddressClaimFrame(t time.Time, source uint8, name j1939.Name) j1939.Frame {
	id := j1939.NewExtendedID(6, j1939.PGNAddressClaimed, source, j1939.AddressGlobal)
	b := name.Bytes()
	return ExtendedFrame(t, id.Raw(), b[:]...)
}
