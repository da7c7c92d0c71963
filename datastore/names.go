package datastore

import (
	"fmt"
	"strings"

	"github.com/kephale/copick-server/copick"
)

const (
	runsDir          = "ExperimentRuns/"
	picksDir         = "Picks/"
	segmentationsDir = "Segmentations/"
	zarrExt          = ".zarr"
	jsonExt          = ".json"
	multilabelSuffix = "-multilabel"
)

func runPrefix(run string) string {
	return runsDir + run + "/"
}

// checkName returns an error if s cannot be used as one component of a name.
func checkName(what, s string) error {
	if s == "" {
		return fmt.Errorf("%s must not be empty", what)
	}
	if strings.ContainsAny(s, "/_") {
		return fmt.Errorf("%s %q must not contain '/' or '_'", what, s)
	}
	if s == "." || s == ".." {
		return fmt.Errorf("%s %q is not allowed", what, s)
	}
	return nil
}

// PicksFilename returns the file name of a pick set.
func PicksFilename(object, user, session string) string {
	return user + "_" + session + "_" + object + jsonExt
}

// ParsePicksFilename splits "{user}_{session}_{object}.json".  The object may
// contain underscores when files were written by other tools.
func ParsePicksFilename(filename string) (object, user, session string, ok bool) {
	if !strings.HasSuffix(filename, jsonExt) {
		return
	}
	parts := strings.SplitN(strings.TrimSuffix(filename, jsonExt), "_", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return
	}
	return parts[2], parts[0], parts[1], true
}

// SegmentationDirname returns the zarr group name of a segmentation.
func SegmentationDirname(voxelSize float64, user, session, name string, multilabel bool) string {
	suffix := ""
	if multilabel {
		suffix = multilabelSuffix
	}
	return fmt.Sprintf("%s_%s_%s_%s%s%s", copick.VoxelSpacingKey(voxelSize), user, session, name, suffix, zarrExt)
}

// ParseSegmentationDirname splits
// "{voxelSize}_{user}_{session}_{name}[-multilabel].zarr".  A trailing "/" is
// ignored.
func ParseSegmentationDirname(dirname string) (voxelSize float64, user, session, name string, multilabel, ok bool) {
	dirname = strings.TrimSuffix(dirname, "/")
	if !strings.HasSuffix(dirname, zarrExt) {
		return
	}
	parts := strings.SplitN(strings.TrimSuffix(dirname, zarrExt), "_", 4)
	if len(parts) != 4 {
		return
	}
	var err error
	if voxelSize, err = copick.ParseVoxelSpacing(parts[0]); err != nil {
		return
	}
	user, session, name = parts[1], parts[2], parts[3]
	if strings.HasSuffix(name, multilabelSuffix) {
		name = strings.TrimSuffix(name, multilabelSuffix)
		multilabel = true
	}
	if user == "" || session == "" || name == "" {
		return
	}
	ok = true
	return
}
