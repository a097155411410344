package app

import "hooksync/internal/types"

const DefaultConfigPath = ".pre-commit-config.yaml"

type SyncRequest struct {
	ConfigPath     string
	LockfilePath   string
	PackageManager string
	Hook           string
	Repo           string
	Exclude        []string
	DryRun         bool
}

type SyncResult struct {
	ConfigPath     string
	LockfilePath   string
	PackageManager types.PackageManager
	Report         types.SyncReport
	Written        bool
}
