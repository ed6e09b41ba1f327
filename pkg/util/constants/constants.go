package constants

const (
	// Namespace prefixes every metric exported by this module.
	Namespace = "gcpclients"

	// LibName is reported in the user agent of every outgoing RPC.
	LibName = "gcpclients"
)
