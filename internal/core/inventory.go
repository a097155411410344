package core

import (
	"strings"

	"github.com/rs/zerolog/log"

	"hooksync/internal/shared"
	"hooksync/internal/types"
)

// BuildInventory indexes lockfile packages by normalized name. Records
// without a usable name or version are skipped; when two records share a
// normalized name the later one wins.
func BuildInventory(packages []types.InstalledPackage) types.Inventory {
	inventory := types.Inventory{}
	for _, pkg := range packages {
		name := strings.TrimSpace(pkg.Name)
		version := strings.TrimSpace(pkg.Version)
		if name == "" || version == "" {
			log.Debug().
				Str("name", pkg.Name).
				Str("version", pkg.Version).
				Msg("skipping lockfile record without name or version")
			continue
		}
		inventory[shared.NormalizePipName(name)] = types.InstalledPackage{
			Name:    name,
			Version: version,
		}
	}
	return inventory
}

// LookupPackage finds a package by any spelling of its name.
func LookupPackage(inventory types.Inventory, name string) (types.InstalledPackage, bool) {
	pkg, ok := inventory[shared.NormalizePipName(name)]
	return pkg, ok
}
