/*
Package datastore is the run catalog of a copick project.  A project has a
writable overlay root and an optional read-only static root, each a
storage.Store holding the copick filesystem layout:

	ExperimentRuns/{run}/VoxelSpacing{spacing:.3f}/{tomo_type}.zarr/...
	ExperimentRuns/{run}/Picks/{user}_{session}_{object}.json
	ExperimentRuns/{run}/Segmentations/{spacing:.3f}_{user}_{session}_{name}[-multilabel].zarr/...

Lookups search the overlay first, then the static root, so overlay entities
shadow static ones.  Entities found only in the static root are read-only.
Nothing is cached across calls; every lookup lists the stores.
*/
package datastore
