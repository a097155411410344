package adapters

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"

	"hooksync/internal/ports"
	"hooksync/internal/types"
)

// pinnedLine matches a compiled requirements line such as
// "requests[socks]==2.31.0 ; python_version >= '3.8'".
var pinnedLine = regexp.MustCompile(`^([A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?)\s*(?:\[[^\]]*\])?\s*===?\s*([^\s;,]+)\s*(?:;.*)?$`)

type LockfileAdapter struct {
	Manager types.PackageManager
}

// NewLockfileAdapter returns the reader for manager's lockfile dialect.
func NewLockfileAdapter(manager types.PackageManager) (LockfileAdapter, error) {
	if !manager.Valid() {
		return LockfileAdapter{}, UnsupportedPackageManager(string(manager))
	}
	return LockfileAdapter{Manager: manager}, nil
}

// UnsupportedPackageManager is the error reported for an unknown
// package manager selector.
func UnsupportedPackageManager(value string) error {
	supported := make([]string, 0, len(types.PackageManagers))
	for _, manager := range types.PackageManagers {
		supported = append(supported, string(manager))
	}
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("%s %q (supported: %s)", types.MsgUnsupportedPackageManager, value, strings.Join(supported, ", ")))
}

func (a LockfileAdapter) LoadPackages(path string) ([]types.InstalledPackage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		code := errbuilder.CodeInternal
		if errors.Is(err, fs.ErrNotExist) {
			code = errbuilder.CodeNotFound
		}
		return nil, errbuilder.New().
			WithCode(code).
			WithMsg(fmt.Sprintf("%s %s", types.MsgLockfileRead, path)).
			WithCause(err)
	}
	var packages []types.InstalledPackage
	switch a.Manager {
	case types.PackageManagerPoetry, types.PackageManagerUV, types.PackageManagerPDM:
		packages, err = parseTOMLLockfile(data)
	case types.PackageManagerPipTools:
		packages = parseRequirementsLockfile(data)
	default:
		return nil, UnsupportedPackageManager(string(a.Manager))
	}
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("%s %s", types.MsgLockfileRead, path)).
			WithCause(err)
	}
	log.Debug().
		Str("path", path).
		Str("manager", string(a.Manager)).
		Int("packages", len(packages)).
		Msg("lockfile loaded")
	return packages, nil
}

// parseTOMLLockfile extracts name/version pairs from the [[package]]
// array shared by poetry.lock, uv.lock and pdm.lock. The document is
// decoded into a generic tree so unknown fields never break parsing.
func parseTOMLLockfile(data []byte) ([]types.InstalledPackage, error) {
	var tree map[string]any
	if err := toml.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	raw, ok := tree["package"]
	if !ok {
		return nil, nil
	}
	records, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("package must be an array of tables, got %T", raw)
	}
	packages := make([]types.InstalledPackage, 0, len(records))
	for _, record := range records {
		fields, ok := record.(map[string]any)
		if !ok {
			continue
		}
		name, _ := fields["name"].(string)
		version, _ := fields["version"].(string)
		packages = append(packages, types.InstalledPackage{Name: name, Version: version})
	}
	return packages, nil
}

// parseRequirementsLockfile reads a pip-compile requirements file. Only
// exact pins are recorded; options, comments and hashes are ignored.
func parseRequirementsLockfile(data []byte) []types.InstalledPackage {
	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	content = strings.ReplaceAll(content, "\\\n", " ")
	var packages []types.InstalledPackage
	for _, line := range strings.Split(content, "\n") {
		line = stripRequirementComment(line)
		if idx := strings.Index(line, " --"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "-") {
			continue
		}
		match := pinnedLine.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		packages = append(packages, types.InstalledPackage{Name: match[1], Version: match[2]})
	}
	return packages
}

func stripRequirementComment(line string) string {
	if strings.HasPrefix(strings.TrimSpace(line), "#") {
		return ""
	}
	if idx := strings.Index(line, " #"); idx >= 0 {
		return line[:idx]
	}
	return line
}

var _ ports.LockfilePort = LockfileAdapter{}
