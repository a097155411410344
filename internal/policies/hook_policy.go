package policies

import (
	"strings"

	"hooksync/internal/ports"
	"hooksync/internal/shared"
	"hooksync/internal/types"
)

// HookPolicy decides which hooks are reconciled and which packages are
// never re-pinned.
type HookPolicy struct {
	Hook       string
	Repo       string
	Exclude    []string
	exactNames map[string]struct{}
	prefixes   []string
}

// NewHookPolicy builds a policy. An empty hook or repo selects every hook
// or repo. Exclude entries are package names, optionally ending in "*" to
// match a prefix (e.g. "types-*").
func NewHookPolicy(hook string, repo string, exclude []string) HookPolicy {
	policy := HookPolicy{
		Hook:    strings.TrimSpace(hook),
		Repo:    strings.TrimSpace(repo),
		Exclude: exclude,
	}
	policy.compile()
	return policy
}

// SelectsHook matches the hook filter against the hook id or its alias.
func (p HookPolicy) SelectsHook(repo types.RepoEntry, hook types.HookEntry) bool {
	if p.Repo != "" && repo.Repo != p.Repo {
		return false
	}
	if p.Hook == "" {
		return true
	}
	return hook.ID == p.Hook || (hook.Alias != "" && hook.Alias == p.Hook)
}

func (p HookPolicy) Excludes(name string) bool {
	normalized := shared.NormalizePipName(name)
	if _, ok := p.exactNames[normalized]; ok {
		return true
	}
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(normalized, prefix) {
			return true
		}
	}
	return false
}

func (p *HookPolicy) compile() {
	p.exactNames = map[string]struct{}{}
	p.prefixes = nil
	for _, pattern := range p.Exclude {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if strings.HasSuffix(pattern, "*") {
			prefix := strings.TrimSuffix(pattern, "*")
			if prefix == "" {
				continue
			}
			p.prefixes = append(p.prefixes, shared.NormalizePipName(prefix))
			continue
		}
		p.exactNames[shared.NormalizePipName(pattern)] = struct{}{}
	}
}

var _ ports.HookPolicyPort = HookPolicy{}
