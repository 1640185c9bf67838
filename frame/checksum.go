package frame

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	// STX starts a frame.
	STX = 0x02
	// ETX ends a frame.
	ETX = 0x03

	// DataLen is the number of ASCII data bytes in a frame.
	DataLen = 10
	// ChecksumLen is the number of ASCII checksum bytes following the data.
	ChecksumLen = 2
	// PayloadLen is the number of bytes between STX and ETX once a CR LF trailer is stripped.
	PayloadLen = DataLen + ChecksumLen
	// MaxPayloadLen bounds the bytes collected before ETX: the payload plus a CR LF trailer.
	MaxPayloadLen = PayloadLen + 2
)

var (
	// ErrFrameOverrun is the fatal condition of a frame running past MaxPayloadLen without ETX.
	ErrFrameOverrun = errors.New("identification frame overran its maximum length")
	// ErrBadLength rejects a terminated frame whose payload is not PayloadLen bytes.
	ErrBadLength = errors.New("identification frame has the wrong length")
	// ErrChecksumMismatch rejects a frame whose data does not match its checksum.
	ErrChecksumMismatch = errors.New("identification frame checksum mismatch")
)

// HexPair converts two ASCII hex digits into one byte, first digit in the high nibble. Letters
// of either case map through a fixed offset; the conversion is not validated.
func HexPair(hi, lo byte) byte {
	return hexNibble(hi)<<4 | hexNibble(lo)
}

func hexNibble(c byte) byte {
	if c > '9' {
		c += 9
	}
	return c & 0x0F
}

// Checksum converts the data into five bytes from non-overlapping consecutive digit pairs and
// XORs them together.
func Checksum(data [DataLen]byte) byte {
	var sum byte
	for i := 0; i < DataLen; i += 2 {
		sum ^= HexPair(data[i], data[i+1])
	}
	return sum
}

// Validate checks a payload (data followed by two checksum digits, trailer already stripped)
// and returns its data.
func Validate(payload []byte) ([DataLen]byte, error) {
	var data [DataLen]byte
	if len(payload) != PayloadLen {
		return data, errors.Wrapf(ErrBadLength, "got %d bytes, want %d", len(payload), PayloadLen)
	}
	copy(data[:], payload[:DataLen])
	want := HexPair(payload[DataLen], payload[DataLen+1])
	if got := Checksum(data); got != want {
		return data, errors.Wrapf(ErrChecksumMismatch, "computed %02X, frame carries %02X", got, want)
	}
	return data, nil
}

// Encode builds the complete byte sequence of a valid frame carrying data.
func Encode(data [DataLen]byte) []byte {
	out := make([]byte, 0, PayloadLen+2)
	out = append(out, STX)
	out = append(out, data[:]...)
	out = append(out, fmt.Sprintf("%02X", Checksum(data))...)
	return append(out, ETX)
}

// DataFromString copies a 10 character tag into a data array.
func DataFromString(s string) ([DataLen]byte, error) {
	var data [DataLen]byte
	if len(s) != DataLen {
		return data, errors.Errorf("tag %q must be exactly %d characters", s, DataLen)
	}
	copy(data[:], s)
	return data, nil
}
