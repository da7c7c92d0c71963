/*
Package copickserver is an HTTP server that exposes a copick cryo-ET project
(tomograms, particle picks and segmentations organized by run) so remote
clients can read and write it over plain GET, HEAD and PUT requests.

Every request path has the form

	/{run}/{Kind}/{rest}

where Kind is one of "Tomograms", "Picks" or "Segmentations".  The run is
resolved against the project, and the remainder of the path is interpreted by
the handler registered for that Kind:

	GET /TS_001/Tomograms/VoxelSpacing10.000/wbp.zarr/0/.zarray
	PUT /TS_001/Picks/alice_1_ribosome.json
	PUT /TS_001/Segmentations/10.000_alice_1_membrane.zarr

A project is described by a copick JSON configuration that names an overlay
root (writable) and optionally a static root (read-only).  Roots can be local
directories or gocloud blob buckets (file://, s3://, gs://, mem://), or an
embedded badger database (badger://).

Layout

	copick/        logging, errors and small shared helpers
	storage/       key-value Store interface, engines, caching, kafka activity
	datastore/     project config, runs, picks and segmentation entities
	datatype/      per-Kind request handlers and the OME-Zarr writer
	server/        configuration, routing, auth and the HTTP server
	client/        Go client for the HTTP surface
	cmd/           copick-server and copick-client executables

The server is started with

	% copick-server -config config.toml serve

or, without a TOML file,

	% copick-server -project copick_config.json -port 8000 serve
*/
package copickserver
