/*
Package datatype defines the kinds of data served under a run and the Handler
interface each kind implements.  Handlers register themselves in an init()
function, so a server binary selects its kinds through imports:

	import (
		_ "github.com/kephale/copick-server/datatype/picks"
		_ "github.com/kephale/copick-server/datatype/segmentation"
		_ "github.com/kephale/copick-server/datatype/tomogram"
	)

A handler receives a Request whose run has already been resolved and whose Path
holds the segments after the kind, e.g., for

	GET /TS_001/Tomograms/VoxelSpacing10.000/wbp.zarr/0/.zarray

the Path is "VoxelSpacing10.000/wbp.zarr/0/.zarray".  Handlers return errors
carrying a copick.ErrorKind and leave status translation to the server.
*/
package datatype
