package core

import (
	"context"
	"errors"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"hooksync/internal/ports"
	"hooksync/internal/types"
)

// Reconciler decides which additional_dependencies entries to re-pin.
type Reconciler struct {
	Policy ports.HookPolicyPort
}

// NewReconciler returns a Reconciler that selects hooks through policy.
func NewReconciler(policy ports.HookPolicyPort) Reconciler {
	return Reconciler{Policy: policy}
}

// Reconcile plans rewrites for doc and applies them in place. The document
// is left untouched when nothing is stale.
func (r Reconciler) Reconcile(ctx context.Context, inventory types.Inventory, doc ports.HookDocument) (types.SyncReport, error) {
	if doc == nil {
		return types.SyncReport{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("reconciler requires a hook document")
	}
	report, err := r.Plan(ctx, inventory, doc.Repos())
	if err != nil {
		return types.SyncReport{}, err
	}
	if !report.Changed() {
		return report, nil
	}
	if err := doc.Apply(report.Rewrites); err != nil {
		return types.SyncReport{}, err
	}
	return report, nil
}

// Plan walks every selected hook and decides, entry by entry, which
// dependency strings must be re-pinned. Decisions only look at the
// original entries, so one rewrite never influences another.
func (r Reconciler) Plan(ctx context.Context, inventory types.Inventory, repos []types.RepoEntry) (types.SyncReport, error) {
	if r.Policy == nil {
		return types.SyncReport{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("reconciler requires a hook policy")
	}
	cache := newVersionCache()
	report := types.SyncReport{}
	for repoIdx, repo := range repos {
		for hookIdx, hook := range repo.Hooks {
			if err := ctx.Err(); err != nil {
				return types.SyncReport{}, err
			}
			selected := r.Policy.SelectsHook(repo, hook)
			for depIdx, raw := range hook.AdditionalDependencies {
				ref := types.DependencyRef{Repo: repoIdx, Hook: hookIdx, Index: depIdx}
				report.Scanned++
				if !selected {
					report.Skipped = append(report.Skipped, skipped(ref, hook, raw, types.SkipReasonOutOfScope))
					continue
				}
				rewrite, reason, err := r.decide(cache, inventory, raw)
				if err != nil {
					return types.SyncReport{}, err
				}
				if reason != "" {
					log.Debug().
						Str("hook", hook.ID).
						Str("dependency", raw).
						Str("reason", string(reason)).
						Msg("dependency left unchanged")
					report.Skipped = append(report.Skipped, skipped(ref, hook, raw, reason))
					continue
				}
				rewrite.Ref = ref
				rewrite.HookID = hook.ID
				report.Rewrites = append(report.Rewrites, rewrite)
			}
		}
	}
	return report, nil
}

func (r Reconciler) decide(cache *versionCache, inventory types.Inventory, raw string) (types.Rewrite, types.SkipReason, error) {
	req, err := ParseRequirement(raw)
	if err != nil {
		if errors.Is(err, ErrToleratedRequirement) {
			return types.Rewrite{}, types.SkipReasonTolerated, nil
		}
		return types.Rewrite{}, "", err
	}
	pkg, ok := LookupPackage(inventory, req.Name)
	if !ok {
		return types.Rewrite{}, types.SkipReasonUnmanaged, nil
	}
	if r.Policy.Excludes(req.Name) {
		return types.Rewrite{}, types.SkipReasonExcluded, nil
	}
	if cache.isExactPin(req.Clauses, pkg.Version) {
		return types.Rewrite{}, types.SkipReasonUpToDate, nil
	}
	return types.Rewrite{
		Package: pkg.Name,
		From:    raw,
		To:      FormatPinned(req, pkg.Version),
	}, "", nil
}

func skipped(ref types.DependencyRef, hook types.HookEntry, raw string, reason types.SkipReason) types.SkippedDependency {
	return types.SkippedDependency{
		Ref:    ref,
		HookID: hook.ID,
		Raw:    raw,
		Reason: reason,
	}
}
