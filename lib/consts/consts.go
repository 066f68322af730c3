// Package consts the build information
package consts

// Banner printed by the version command
const Banner = `
  ___ _ __ _   _ _ __ ___ | |__
 / __| '__| | | | '_ ` + "`" + ` _ \| '_ \
| (__| |  | |_| | | | | | | |_) |
 \___|_|   \__,_|_| |_| |_|_.__/
`

var (
	// Version set by -ldflags at build time
	Version = "dev"
	// CommitSHA set by -ldflags at build time
	CommitSHA = "none"
)
