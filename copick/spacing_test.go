package copick

import "testing"

func TestVoxelSpacingKey(t *testing.T) {
	same := [][2]float64{
		{10, 10.0},
		{10.012, 10.0120000001},
		{10.0, 10.0004},
	}
	for _, pair := range same {
		if VoxelSpacingKey(pair[0]) != VoxelSpacingKey(pair[1]) {
			t.Errorf("expected %v and %v to share key, got %q and %q\n", pair[0], pair[1],
				VoxelSpacingKey(pair[0]), VoxelSpacingKey(pair[1]))
		}
	}
	if VoxelSpacingKey(10.012) == VoxelSpacingKey(10.013) {
		t.Errorf("expected 10.012 and 10.013 to differ\n")
	}
	if dir := VoxelSpacingDir(10.012); dir != "VoxelSpacing10.012" {
		t.Errorf("bad voxel spacing dir: %s\n", dir)
	}
}

func TestParseVoxelSpacingSegment(t *testing.T) {
	good := map[string]float64{
		"VoxelSpacing10.0":   10.0,
		"VoxelSpacing10":     10.0,
		"VoxelSpacing10.012": 10.012,
		"VoxelSpacing7.84":   7.84,
	}
	for seg, expected := range good {
		v, err := ParseVoxelSpacingSegment(seg)
		if err != nil {
			t.Fatalf("unexpected error parsing %q: %v\n", seg, err)
		}
		if v != expected {
			t.Errorf("parsed %q to %v, expected %v\n", seg, v, expected)
		}
	}
	bad := []string{"VoxelSpacing", "VoxelSpacingabc", "Spacing10.0", "VoxelSpacing-1", "VoxelSpacingNaN", "VoxelSpacing0"}
	for _, seg := range bad {
		if _, err := ParseVoxelSpacingSegment(seg); err == nil {
			t.Errorf("expected error parsing %q\n", seg)
		}
	}
}
