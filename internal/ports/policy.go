package ports

import "hooksync/internal/types"

type HookPolicyPort interface {
	SelectsHook(repo types.RepoEntry, hook types.HookEntry) bool
	Excludes(name string) bool
}
