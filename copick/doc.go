/*
Package copick holds the small set of types and functions shared by every other
package of copick-server: leveled logging, the error kinds used by the request
protocol, voxel spacing keys, and a few size constants.

Logging is package-level.  Call SetLogMode() to set the severity threshold and
LogConfig.SetLogger() to redirect output to a rotating log file:

	copick.Infof("Serving project %q\n", name)
	timedLog := copick.NewTimeLog()
	...
	timedLog.Infof("GET %s", path)   // appends elapsed time
*/
package copick
