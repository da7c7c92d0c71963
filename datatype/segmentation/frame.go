package segmentation

import (
	"encoding/binary"
	"fmt"
	"math"
)

// FrameHeaderSize is the size of the frame header: three little-endian int64 extents.
const FrameHeaderSize = 24

// Volume is a dense 3d uint8 label volume in row-major order, with Shape[2]
// varying fastest.
type Volume struct {
	Shape [3]int
	Data  []byte
}

// numVoxels returns the product of the extents or an error on negative extents
// or overflow.
func numVoxels(shape [3]int64) (int, error) {
	n := int64(1)
	for _, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("negative extent in shape %v", shape)
		}
		if d != 0 && n > math.MaxInt64/d {
			return 0, fmt.Errorf("shape %v overflows", shape)
		}
		n *= d
	}
	if n > math.MaxInt {
		return 0, fmt.Errorf("shape %v too large for this platform", shape)
	}
	return int(n), nil
}

// NumVoxels returns the number of voxels in the volume's shape.
func (v *Volume) NumVoxels() (int, error) {
	return numVoxels([3]int64{int64(v.Shape[0]), int64(v.Shape[1]), int64(v.Shape[2])})
}

// EncodeFrame returns the binary frame for the volume: the 24-byte header
// followed by the label bytes.
func EncodeFrame(v *Volume) ([]byte, error) {
	n, err := v.NumVoxels()
	if err != nil {
		return nil, err
	}
	if len(v.Data) != n {
		return nil, fmt.Errorf("volume of shape %v has %d bytes, expected %d", v.Shape, len(v.Data), n)
	}
	frame := make([]byte, FrameHeaderSize+n)
	for i, d := range v.Shape {
		binary.LittleEndian.PutUint64(frame[i*8:], uint64(d))
	}
	copy(frame[FrameHeaderSize:], v.Data)
	return frame, nil
}

// DecodeFrame parses a binary frame.  The frame length must be exactly the
// header plus the product of the extents.  The returned volume's data aliases
// the frame.
func DecodeFrame(frame []byte) (*Volume, error) {
	if len(frame) < FrameHeaderSize {
		return nil, fmt.Errorf("frame of %d bytes is shorter than its %d byte header", len(frame), FrameHeaderSize)
	}
	var shape [3]int64
	for i := range shape {
		shape[i] = int64(binary.LittleEndian.Uint64(frame[i*8:]))
	}
	n, err := numVoxels(shape)
	if err != nil {
		return nil, err
	}
	if len(frame)-FrameHeaderSize != n {
		return nil, fmt.Errorf("frame for shape %v has %d data bytes, expected %d", shape, len(frame)-FrameHeaderSize, n)
	}
	return &Volume{
		Shape: [3]int{int(shape[0]), int(shape[1]), int(shape[2])},
		Data:  frame[FrameHeaderSize:],
	}, nil
}
