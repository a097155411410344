package types

// Constraint is a single clause of a specifier, e.g. ">=1.0".
type Constraint struct {
	Op      ConstraintOp
	Version string
}

// Requirement is a parsed additional_dependencies entry.
type Requirement struct {
	Raw       string
	Name      string
	Extras    []string
	Specifier string
	Clauses   []Constraint
	Marker    string
}

type InstalledPackage struct {
	Name    string
	Version string
}

// Inventory maps a normalized package name to the package recorded in
// the lockfile.
type Inventory map[string]InstalledPackage
