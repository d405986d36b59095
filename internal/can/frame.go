package can

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// FrameSize is the size of the fixed binary record exchanged with the raw
// socket layer, matching struct can_frame on Linux.
const FrameSize = 16

// Identifier flag bits and masks of the can_id field.
const (
	effFlag = 0x80000000 // extended (29-bit) frame format
	rtrFlag = 0x40000000 // remote transmission request
	errFlag = 0x20000000 // error message frame
	effMask = 0x1FFFFFFF
	stdMask = 0x7FF
)

// Frame is one classical CAN frame: identifier, data length code and up to
// eight payload bytes. Err marks kernel-generated error message frames; such
// frames carry diagnostic data and must never be interpreted as bus traffic.
type Frame struct {
	ID       uint32 // 11-bit (std) or 29-bit (ext), flags stripped
	Extended bool
	RTR      bool
	Err      bool
	Len      uint8 // 0..8
	Data     [8]byte
}

// Validate reports whether the frame respects the classical CAN limits.
func (f Frame) Validate() error {
	if f.Len > 8 {
		return errors.Wrapf(ErrInvalidFrame, "data length code %d exceeds 8", f.Len)
	}
	max := uint32(stdMask)
	if f.Extended || f.Err {
		max = effMask
	}
	if f.ID > max {
		return errors.Wrapf(ErrInvalidFrame, "identifier 0x%X out of range", f.ID)
	}
	return nil
}

// MarshalBinary encodes the frame into the 16-byte can_frame layout:
// little-endian can_id with flag bits, one DLC byte, three padding bytes,
// eight data bytes.
func (f Frame) MarshalBinary() ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	id := f.ID
	if f.Extended {
		id |= effFlag
	}
	if f.RTR {
		id |= rtrFlag
	}
	if f.Err {
		id |= errFlag
	}
	buf := make([]byte, FrameSize)
	binary.LittleEndian.PutUint32(buf[0:4], id)
	buf[4] = f.Len
	copy(buf[8:16], f.Data[:])
	return buf, nil
}

// UnmarshalBinary decodes a frame from the can_frame layout. The flag bits
// are split out of the identifier so callers can test Err before looking at
// the ID.
func (f *Frame) UnmarshalBinary(data []byte) error {
	if len(data) < FrameSize {
		return errors.Wrapf(ErrShortFrame, "need %d bytes, got %d", FrameSize, len(data))
	}
	id := binary.LittleEndian.Uint32(data[0:4])
	f.Extended = id&effFlag != 0
	f.RTR = id&rtrFlag != 0
	f.Err = id&errFlag != 0
	if f.Extended || f.Err {
		f.ID = id & effMask
	} else {
		f.ID = id & stdMask
	}
	f.Len = data[4]
	copy(f.Data[:], data[8:16])
	return f.Validate()
}

// String renders the frame in the conventional "ID [len] data" form.
func (f Frame) String() string {
	var b strings.Builder
	if f.Extended {
		fmt.Fprintf(&b, "%08X", f.ID)
	} else {
		fmt.Fprintf(&b, "%03X", f.ID)
	}
	fmt.Fprintf(&b, " [%d]", f.Len)
	for i := uint8(0); i < f.Len && i < 8; i++ {
		fmt.Fprintf(&b, " %02X", f.Data[i])
	}
	if f.RTR {
		b.WriteString(" RTR")
	}
	if f.Err {
		b.WriteString(" ERR")
	}
	return b.String()
}
