package types

type PackageManager string

const (
	PackageManagerPoetry   PackageManager = "poetry"
	PackageManagerUV       PackageManager = "uv"
	PackageManagerPDM      PackageManager = "pdm"
	PackageManagerPipTools PackageManager = "pip-tools"
)

// PackageManagers lists every supported lockfile dialect in the order they
// are presented to users.
var PackageManagers = []PackageManager{
	PackageManagerPoetry,
	PackageManagerUV,
	PackageManagerPDM,
	PackageManagerPipTools,
}

// DefaultLockfile returns the conventional lockfile name written by the
// package manager, or "" for an unknown manager.
func (m PackageManager) DefaultLockfile() string {
	switch m {
	case PackageManagerPoetry:
		return "poetry.lock"
	case PackageManagerUV:
		return "uv.lock"
	case PackageManagerPDM:
		return "pdm.lock"
	case PackageManagerPipTools:
		return "requirements.txt"
	default:
		return ""
	}
}

func (m PackageManager) Valid() bool {
	return m.DefaultLockfile() != ""
}

type ConstraintOp string

const (
	ConstraintOpNone      ConstraintOp = ""
	ConstraintOpArbitrary ConstraintOp = "==="
	ConstraintOpEq        ConstraintOp = "=="
	ConstraintOpNe        ConstraintOp = "!="
	ConstraintOpCompat    ConstraintOp = "~="
	ConstraintOpGte       ConstraintOp = ">="
	ConstraintOpLte       ConstraintOp = "<="
	ConstraintOpGt        ConstraintOp = ">"
	ConstraintOpLt        ConstraintOp = "<"
)
