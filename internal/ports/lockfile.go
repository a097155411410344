package ports

import "hooksync/internal/types"

type LockfilePort interface {
	LoadPackages(path string) ([]types.InstalledPackage, error)
}
