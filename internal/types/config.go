package types

// RepoEntry is one element of the top-level repos list.
type RepoEntry struct {
	Repo  string
	Hooks []HookEntry
}

type HookEntry struct {
	ID                     string
	Alias                  string
	Name                   string
	AdditionalDependencies []string
}

// DependencyRef addresses a single additional_dependencies string by its
// position in the document.
type DependencyRef struct {
	Repo  int
	Hook  int
	Index int
}
