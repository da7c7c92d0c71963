/*
Package server provides the HTTP interface to a copick project.  Every request
path has the form

	/{run}/{kind}/{rest}

where kind is one of the data kinds in package datatype.  The run is resolved
once per request and the rest of the path is handed to the kind's handler.
Handlers return errors carrying a copick.ErrorKind, and the router alone turns
them into status codes:

	200  success
	403  write to read-only data
	404  unknown run, kind, identity or chunk, and unparsable paths
	500  malformed bodies and storage failures

Server settings come from an optional TOML file, e.g.,

	[server]
	httpAddress = "127.0.0.1:8000"
	host = "copick.example.org"
	cors = ["https://napari.example.org"]
	max_body_mb = 2048
	shutdown_delay = 5

	[project]
	config = "copick_config.json"
	overlay_root = "/data/overlay"

	[cache]
	static_mb = 512

	[logging]
	logfile = "/var/log/copick-server.log"
	level = "info"
	max_log_size = 500
	max_log_age = 30

	[kafka]
	servers = ["kafka1:9092"]
	topic_activity = "copick-activity"

	[auth]
	auth_file = "authorized.json"
	secret_key = "change me"
*/
package server
