package app

import (
	"hooksync/internal/adapters"
	"hooksync/internal/ports"
	"hooksync/internal/types"
)

type Service struct {
	HookConfig  ports.HookConfigPort
	LockfileFor func(manager types.PackageManager) (ports.LockfilePort, error)
}

func NewService() Service {
	return Service{
		HookConfig: adapters.NewHookConfigFileAdapter(),
		LockfileFor: func(manager types.PackageManager) (ports.LockfilePort, error) {
			return adapters.NewLockfileAdapter(manager)
		},
	}
}
