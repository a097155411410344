package ports

import "hooksync/internal/types"

// HookDocument is an in-memory hook configuration that can be rewritten
// entry by entry and serialized back to its original layout.
type HookDocument interface {
	Repos() []types.RepoEntry
	Apply(rewrites []types.Rewrite) error
	Bytes() ([]byte, error)
}

type HookConfigPort interface {
	Load(path string) (HookDocument, error)
	Write(path string, doc HookDocument) error
}
