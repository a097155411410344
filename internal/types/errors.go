package types

// Message prefixes carried by fatal errors. The CLI maps them, together
// with the errbuilder code, onto exit codes.
const (
	MsgUnsupportedPackageManager = "unsupported package manager"
	MsgLockfileRead              = "failed to read lockfile"
	MsgConfigRead                = "failed to read hook config"
	MsgConfigWrite               = "failed to write hook config"
	MsgInvalidRequirement        = "invalid requirement"
	MsgOutOfSync                 = "hook dependencies out of sync"
)
