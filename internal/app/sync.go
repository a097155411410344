package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"hooksync/internal/adapters"
	"hooksync/internal/core"
	"hooksync/internal/policies"
	"hooksync/internal/types"
)

// Sync pins stale additional_dependencies to the versions in the lockfile
// and writes the hook config back only when something changed.
func (s Service) Sync(ctx context.Context, req SyncRequest) (SyncResult, error) {
	manager, err := parsePackageManager(req.PackageManager)
	if err != nil {
		return SyncResult{}, err
	}
	if s.HookConfig == nil || s.LockfileFor == nil {
		return SyncResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("service requires hook config and lockfile ports")
	}
	configPath := strings.TrimSpace(req.ConfigPath)
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	lockfilePath := strings.TrimSpace(req.LockfilePath)
	if lockfilePath == "" {
		lockfilePath = manager.DefaultLockfile()
	}

	lockfile, err := s.LockfileFor(manager)
	if err != nil {
		return SyncResult{}, err
	}
	packages, err := lockfile.LoadPackages(lockfilePath)
	if err != nil {
		return SyncResult{}, err
	}
	inventory := core.BuildInventory(packages)

	doc, err := s.HookConfig.Load(configPath)
	if err != nil {
		return SyncResult{}, err
	}

	policy := policies.NewHookPolicy(req.Hook, req.Repo, req.Exclude)
	reconciler := core.NewReconciler(policy)
	report, err := reconciler.Reconcile(ctx, inventory, doc)
	if err != nil {
		return SyncResult{}, err
	}
	for _, rewrite := range report.Rewrites {
		log.Info().
			Str("hook", rewrite.HookID).
			Str("from", rewrite.From).
			Str("to", rewrite.To).
			Msg("dependency pinned")
	}

	result := SyncResult{
		ConfigPath:     configPath,
		LockfilePath:   lockfilePath,
		PackageManager: manager,
		Report:         report,
	}
	if !report.Changed() || req.DryRun {
		return result, nil
	}
	if err := s.HookConfig.Write(configPath, doc); err != nil {
		return SyncResult{}, err
	}
	result.Written = true
	return result, nil
}

// Check reports stale pins without touching the hook config. It fails
// with code FailedPrecondition when any dependency would be rewritten.
func (s Service) Check(ctx context.Context, req SyncRequest) (SyncResult, error) {
	req.DryRun = true
	result, err := s.Sync(ctx, req)
	if err != nil {
		return SyncResult{}, err
	}
	if result.Report.Changed() {
		return result, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("%s: %d stale in %s", types.MsgOutOfSync, len(result.Report.Rewrites), result.ConfigPath))
	}
	return result, nil
}

func parsePackageManager(value string) (types.PackageManager, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return types.PackageManagerPoetry, nil
	}
	manager := types.PackageManager(normalized)
	if !manager.Valid() {
		return "", adapters.UnsupportedPackageManager(value)
	}
	return manager, nil
}
