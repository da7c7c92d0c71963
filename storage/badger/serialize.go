package badger

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/golang/snappy"
)

// Compression is the format of compression for stored values.
type Compression uint8

const (
	Uncompressed Compression = 0
	Snappy       Compression = 1
)

func (compress Compression) String() string {
	switch compress {
	case Uncompressed:
		return "No compression"
	case Snappy:
		return "Go Snappy compression"
	default:
		return "Unknown compression"
	}
}

// Checksum is the type of checksum employed for error checking stored values.
type Checksum uint8

const (
	NoChecksum Checksum = 0
	CRC32      Checksum = 1
)

// format byte: bits 0-2 compression, bits 3-4 checksum.
func encodeFormat(compress Compression, checksum Checksum) byte {
	return byte(compress&0x07) | byte(checksum&0x03)<<3
}

func decodeFormat(format byte) (Compression, Checksum) {
	return Compression(format & 0x07), Checksum((format >> 3) & 0x03)
}

// serializeValue prefixes a format byte and any checksum to the possibly
// compressed value.
func serializeValue(data []byte, compress Compression, checksum Checksum) ([]byte, error) {
	var byteData []byte
	switch compress {
	case Uncompressed:
		byteData = data
	case Snappy:
		byteData = snappy.Encode(nil, data)
	default:
		return nil, fmt.Errorf("illegal compression (%s) during serialization", compress)
	}
	s := make([]byte, 1, 5+len(byteData))
	s[0] = encodeFormat(compress, checksum)
	switch checksum {
	case NoChecksum:
	case CRC32:
		s = binary.LittleEndian.AppendUint32(s, crc32.ChecksumIEEE(byteData))
	default:
		return nil, fmt.Errorf("illegal checksum (%d) during serialization", checksum)
	}
	return append(s, byteData...), nil
}

// deserializeValue reverses serializeValue.
func deserializeValue(s []byte) ([]byte, error) {
	if len(s) == 0 {
		return nil, fmt.Errorf("cannot deserialize empty value")
	}
	compress, checksum := decodeFormat(s[0])
	cdata := s[1:]
	switch checksum {
	case NoChecksum:
	case CRC32:
		if len(cdata) < 4 {
			return nil, fmt.Errorf("value too short for CRC32 checksum")
		}
		stored := binary.LittleEndian.Uint32(cdata[0:4])
		cdata = cdata[4:]
		if crc := crc32.ChecksumIEEE(cdata); crc != stored {
			return nil, fmt.Errorf("bad checksum.  Stored %x got %x", stored, crc)
		}
	default:
		return nil, fmt.Errorf("illegal checksum (%d) in stored value", checksum)
	}
	switch compress {
	case Uncompressed:
		return cdata, nil
	case Snappy:
		return snappy.Decode(nil, cdata)
	default:
		return nil, fmt.Errorf("illegal compression (%d) in stored value", compress)
	}
}
