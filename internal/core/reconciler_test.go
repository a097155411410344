package core

import (
	"context"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hooksync/internal/policies"
	"hooksync/internal/types"
)

type fakeDocument struct {
	repos   []types.RepoEntry
	applied [][]types.Rewrite
}

func (d *fakeDocument) Repos() []types.RepoEntry {
	return d.repos
}

func (d *fakeDocument) Apply(rewrites []types.Rewrite) error {
	d.applied = append(d.applied, rewrites)
	for _, rewrite := range rewrites {
		d.repos[rewrite.Ref.Repo].Hooks[rewrite.Ref.Hook].AdditionalDependencies[rewrite.Ref.Index] = rewrite.To
	}
	return nil
}

func (d *fakeDocument) Bytes() ([]byte, error) {
	return nil, nil
}

func singleHook(id string, deps ...string) *fakeDocument {
	return &fakeDocument{repos: []types.RepoEntry{{
		Repo:  "local",
		Hooks: []types.HookEntry{{ID: id, AdditionalDependencies: deps}},
	}}}
}

func inventoryOf(pairs ...string) types.Inventory {
	var packages []types.InstalledPackage
	for i := 0; i+1 < len(pairs); i += 2 {
		packages = append(packages, types.InstalledPackage{Name: pairs[i], Version: pairs[i+1]})
	}
	return BuildInventory(packages)
}

func reconcile(t *testing.T, policy policies.HookPolicy, inventory types.Inventory, doc *fakeDocument) types.SyncReport {
	t.Helper()
	report, err := NewReconciler(policy).Reconcile(context.Background(), inventory, doc)
	require.NoError(t, err)
	return report
}

func TestReconcileRewritesStalePin(t *testing.T) {
	doc := singleHook("mypy", "requests==2.30.0")
	report := reconcile(t, policies.NewHookPolicy("", "", nil), inventoryOf("requests", "2.31.0"), doc)

	require.Len(t, report.Rewrites, 1)
	assert.Equal(t, types.Rewrite{
		Ref:     types.DependencyRef{Repo: 0, Hook: 0, Index: 0},
		HookID:  "mypy",
		Package: "requests",
		From:    "requests==2.30.0",
		To:      "requests==2.31.0",
	}, report.Rewrites[0])
	assert.Equal(t, []string{"requests==2.31.0"}, doc.repos[0].Hooks[0].AdditionalDependencies)
	assert.Equal(t, 1, report.Scanned)
}

func TestReconcileCaseInsensitiveAlreadyCurrent(t *testing.T) {
	doc := singleHook("black", "Black==24.1.0")
	report := reconcile(t, policies.NewHookPolicy("", "", nil), inventoryOf("black", "24.1.0"), doc)

	assert.False(t, report.Changed())
	assert.Empty(t, doc.applied)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, types.SkipReasonUpToDate, report.Skipped[0].Reason)
}

func TestReconcileKeepsDeclaredCasing(t *testing.T) {
	doc := singleHook("flake8", "Flake8_Bugbear==23.0.0")
	report := reconcile(t, policies.NewHookPolicy("", "", nil), inventoryOf("flake8-bugbear", "24.2.6"), doc)

	require.Len(t, report.Rewrites, 1)
	assert.Equal(t, "Flake8_Bugbear==24.2.6", report.Rewrites[0].To)
	assert.Equal(t, "flake8-bugbear", report.Rewrites[0].Package)
}

func TestReconcileSkipsVCSReference(t *testing.T) {
	doc := singleHook("lint", "git+https://example.com/pkg.git")
	report := reconcile(t, policies.NewHookPolicy("", "", nil), inventoryOf("pkg", "1.0.0"), doc)

	assert.False(t, report.Changed())
	assert.Equal(t, []string{"git+https://example.com/pkg.git"}, doc.repos[0].Hooks[0].AdditionalDependencies)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, types.SkipReasonTolerated, report.Skipped[0].Reason)
}

func TestReconcilePreservesExtras(t *testing.T) {
	doc := singleHook("mypy", "mypy[toml]>=1.0")
	report := reconcile(t, policies.NewHookPolicy("", "", nil), inventoryOf("mypy", "1.8.0"), doc)

	require.Len(t, report.Rewrites, 1)
	assert.Equal(t, "mypy[toml]==1.8.0", report.Rewrites[0].To)
}

func TestReconcileUnmanagedPackageUntouched(t *testing.T) {
	doc := singleHook("lint", "flake8-docstrings==1.0.0", "requests")
	report := reconcile(t, policies.NewHookPolicy("", "", nil), inventoryOf("requests", "2.31.0"), doc)

	require.Len(t, report.Rewrites, 1)
	assert.Equal(t, 1, report.Rewrites[0].Ref.Index)
	assert.Equal(t, []string{"flake8-docstrings==1.0.0", "requests==2.31.0"}, doc.repos[0].Hooks[0].AdditionalDependencies)
	assert.Equal(t, types.SkipReasonUnmanaged, report.Skipped[0].Reason)
}

func TestReconcileHookFilter(t *testing.T) {
	doc := &fakeDocument{repos: []types.RepoEntry{{
		Repo: "local",
		Hooks: []types.HookEntry{
			{ID: "lint", AdditionalDependencies: []string{"requests==2.30.0"}},
			{ID: "format", AdditionalDependencies: []string{"requests==2.30.0"}},
		},
	}}}
	report := reconcile(t, policies.NewHookPolicy("lint", "", nil), inventoryOf("requests", "2.31.0"), doc)

	require.Len(t, report.Rewrites, 1)
	assert.Equal(t, "lint", report.Rewrites[0].HookID)
	assert.Equal(t, []string{"requests==2.30.0"}, doc.repos[0].Hooks[1].AdditionalDependencies)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, types.SkipReasonOutOfScope, report.Skipped[0].Reason)
}

func TestReconcileExcludedPackage(t *testing.T) {
	doc := singleHook("mypy", "types-requests==2.30.0.0", "requests==2.30.0")
	inventory := inventoryOf("types-requests", "2.31.0.6", "requests", "2.31.0")
	report := reconcile(t, policies.NewHookPolicy("", "", []string{"types-*"}), inventory, doc)

	require.Len(t, report.Rewrites, 1)
	assert.Equal(t, "requests==2.31.0", report.Rewrites[0].To)
	assert.Equal(t, types.SkipReasonExcluded, report.Skipped[0].Reason)
}

func TestReconcileEntriesAreIndependent(t *testing.T) {
	doc := singleHook("mypy", "requests>=2.0", "requests==2.31.0", "requests==2.0")
	report := reconcile(t, policies.NewHookPolicy("", "", nil), inventoryOf("requests", "2.31.0"), doc)

	require.Len(t, report.Rewrites, 2)
	assert.Equal(t, 0, report.Rewrites[0].Ref.Index)
	assert.Equal(t, 2, report.Rewrites[1].Ref.Index)
	require.Len(t, doc.applied, 1)
}

func TestReconcileIsIdempotent(t *testing.T) {
	doc := singleHook("mypy", "mypy[toml]>=1.0", "Requests==2.0", "tomli; python_version < '3.11'")
	inventory := inventoryOf("mypy", "1.8.0", "requests", "2.31.0", "tomli", "2.0.1")
	policy := policies.NewHookPolicy("", "", nil)

	first := reconcile(t, policy, inventory, doc)
	require.Len(t, first.Rewrites, 3)
	assert.Equal(t, "tomli==2.0.1; python_version < '3.11'", first.Rewrites[2].To)

	second := reconcile(t, policy, inventory, doc)
	assert.False(t, second.Changed())
	assert.Len(t, doc.applied, 1)
}

func TestReconcileInvalidRequirementAborts(t *testing.T) {
	doc := singleHook("mypy", "requests==2.30.0", "not a requirement")
	_, err := NewReconciler(policies.NewHookPolicy("", "", nil)).
		Reconcile(context.Background(), inventoryOf("requests", "2.31.0"), doc)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))
	assert.Empty(t, doc.applied)
	assert.Equal(t, []string{"requests==2.30.0", "not a requirement"}, doc.repos[0].Hooks[0].AdditionalDependencies)
}

func TestReconcileRequiresPolicy(t *testing.T) {
	_, err := NewReconciler(nil).Reconcile(context.Background(), types.Inventory{}, singleHook("x"))
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

func TestReconcileRequiresDocument(t *testing.T) {
	_, err := NewReconciler(policies.NewHookPolicy("", "", nil)).Reconcile(context.Background(), types.Inventory{}, nil)
	require.Error(t, err)
}

func TestReconcileHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewReconciler(policies.NewHookPolicy("", "", nil)).
		Reconcile(ctx, inventoryOf("requests", "2.31.0"), singleHook("x", "requests==1.0"))
	assert.ErrorIs(t, err, context.Canceled)
}
