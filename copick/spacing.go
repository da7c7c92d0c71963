package copick

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// VoxelSpacingPrefix starts every voxel spacing path segment and directory name.
const VoxelSpacingPrefix = "VoxelSpacing"

// VoxelSpacingKey returns the text form used to name and compare voxel spacings.
// Spacings are equal when their keys are equal, i.e. they agree to three decimals.
func VoxelSpacingKey(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// ParseVoxelSpacing parses a floating point voxel spacing.  NaN, infinities and
// non-positive values are rejected.
func ParseVoxelSpacing(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad voxel spacing %q: %v", s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("bad voxel spacing %q: must be a positive number", s)
	}
	return v, nil
}

// ParseVoxelSpacingSegment parses a "VoxelSpacing<float>" path segment.
func ParseVoxelSpacingSegment(segment string) (float64, error) {
	if !strings.HasPrefix(segment, VoxelSpacingPrefix) {
		return 0, fmt.Errorf("segment %q does not start with %q", segment, VoxelSpacingPrefix)
	}
	return ParseVoxelSpacing(strings.TrimPrefix(segment, VoxelSpacingPrefix))
}

// VoxelSpacingDir returns the directory name for a voxel spacing, e.g. "VoxelSpacing10.000".
func VoxelSpacingDir(v float64) string {
	return VoxelSpacingPrefix + VoxelSpacingKey(v)
}
