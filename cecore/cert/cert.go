// Package cert reads the tag-length-value fields of the certificate area
// stored in a calculator flash image.
package cert

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrTruncated is returned when a field header or payload runs past
	// the end of its buffer.
	ErrTruncated = errors.New("certificate field truncated")
	// ErrNotDetected is returned when no certificate identifies the device.
	ErrNotDetected = errors.New("device type not found in certificate")
)

// Field is one decoded certificate field. Type is the full 16 bit tag,
// including the low nibble that encodes the length. Len is the encoded
// size of the field, header and payload.
type Field struct {
	Type uint16
	Data []byte
	Len  int
}

// Get decodes the field at the start of buf.
//
// The low nibble of the tag selects the length encoding: values up to 0xC
// are the payload length itself, 0xD, 0xE and 0xF are followed by a one,
// two or four byte big endian length.
func Get(buf []byte) (Field, error) {
	if len(buf) < 2 {
		return Field{}, fmt.Errorf("%w: tag needs 2 bytes, have %d", ErrTruncated, len(buf))
	}
	tag := binary.BigEndian.Uint16(buf)
	pos := 2

	var size uint64
	switch n := tag & 0x000F; n {
	case 0x0D:
		if len(buf) < pos+1 {
			return Field{}, fmt.Errorf("%w: tag 0x%04X length", ErrTruncated, tag)
		}
		size = uint64(buf[pos])
		pos++
	case 0x0E:
		if len(buf) < pos+2 {
			return Field{}, fmt.Errorf("%w: tag 0x%04X length", ErrTruncated, tag)
		}
		size = uint64(binary.BigEndian.Uint16(buf[pos:]))
		pos += 2
	case 0x0F:
		if len(buf) < pos+4 {
			return Field{}, fmt.Errorf("%w: tag 0x%04X length", ErrTruncated, tag)
		}
		size = uint64(binary.BigEndian.Uint32(buf[pos:]))
		pos += 4
	default:
		size = uint64(n)
	}

	if size > uint64(len(buf)-pos) {
		return Field{}, fmt.Errorf("%w: tag 0x%04X wants %d bytes, have %d", ErrTruncated, tag, size, len(buf)-pos)
	}

	end := pos + int(size)
	return Field{Type: tag, Data: buf[pos:end:end], Len: end}, nil
}

// Next skips the field at the start of buf and returns the rest of buf.
func Next(buf []byte) ([]byte, error) {
	f, err := Get(buf)
	if err != nil {
		return nil, err
	}
	return buf[f.Len:], nil
}

const (
	tagContainer  = 0x800F
	tagModel      = 0x8012
	tagSkip1      = 0x8021
	tagSkip2      = 0x8032
	tagSkip3      = 0x80A1
	tagDeviceType = 0x80C2

	// modelCE is the first model byte of every CE certificate.
	modelCE = 0x13
)

// Offsets is where certificate containers are looked for, in order.
var Offsets = []int{0x20000, 0x30000}

// innerChain is the tag sequence expected inside the container. The
// device type is the second payload byte of the last field.
var innerChain = []uint16{tagModel, tagSkip1, tagSkip2, tagSkip3, tagDeviceType}

// DetectDevice walks the certificate area of a flash image and returns the
// device type byte, 0 or 1.
//
// An offset whose outer field is not a container is skipped. Anything else
// that does not match, including a malformed field, ends the walk without
// looking at later offsets.
func DetectDevice(flash []byte) (uint8, error) {
	for _, offset := range Offsets {
		if offset >= len(flash) {
			return 0, fmt.Errorf("%w: offset 0x%X past end of image", ErrTruncated, offset)
		}

		outer, err := Get(flash[offset:])
		if err != nil {
			return 0, fmt.Errorf("outer field at 0x%X: %w", offset, err)
		}
		if outer.Type != tagContainer {
			continue
		}

		return walkContainer(outer.Data)
	}

	return 0, ErrNotDetected
}

func walkContainer(cursor []byte) (uint8, error) {
	var (
		field Field
		err   error
	)

	for i, want := range innerChain {
		if i > 0 {
			if cursor, err = Next(cursor); err != nil {
				return 0, err
			}
		}
		if field, err = Get(cursor); err != nil {
			return 0, err
		}
		if field.Type != want {
			return 0, fmt.Errorf("%w: expected tag 0x%04X, found 0x%04X", ErrNotDetected, want, field.Type)
		}
		if want == tagModel && (len(field.Data) < 1 || field.Data[0] != modelCE) {
			return 0, fmt.Errorf("%w: model field is not a CE model", ErrNotDetected)
		}
	}

	if len(field.Data) < 2 {
		return 0, fmt.Errorf("%w: device type field too short", ErrNotDetected)
	}
	if t := field.Data[1]; t == 0 || t == 1 {
		return t, nil
	}
	return 0, fmt.Errorf("%w: unknown device type 0x%02X", ErrNotDetected, field.Data[1])
}
