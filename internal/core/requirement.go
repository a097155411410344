package core

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"

	"hooksync/internal/types"
)

// ErrToleratedRequirement marks dependency strings that are valid for pip
// but carry no version specifier we can manage, such as VCS URLs, local
// paths and PEP 508 direct references. Callers skip them silently.
var ErrToleratedRequirement = errors.New("direct reference requirement")

// opTokens is the ordered list of specifier operators tried during
// parsing. Longer tokens must precede shorter ones to avoid false matches
// (e.g. "===" before "==", ">=" before ">").
var opTokens = []types.ConstraintOp{
	types.ConstraintOpArbitrary,
	types.ConstraintOpGte,
	types.ConstraintOpLte,
	types.ConstraintOpCompat,
	types.ConstraintOpNe,
	types.ConstraintOpEq,
	types.ConstraintOpGt,
	types.ConstraintOpLt,
}

var (
	namePattern   = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?`)
	extraPattern  = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?$`)
	schemePattern = regexp.MustCompile(`^[a-z][a-z0-9+.-]*://`)
)

var toleratedPrefixes = []string{
	"git+",
	"hg+",
	"svn+",
	"bzr+",
	"file:",
	"./",
	"../",
	"/",
}

// ParseRequirement parses one additional_dependencies entry. It returns
// ErrToleratedRequirement for VCS and URL forms and an errbuilder error
// with code FailedPrecondition for anything else it cannot understand.
func ParseRequirement(raw string) (types.Requirement, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return types.Requirement{}, invalidRequirement(raw, "empty requirement", nil)
	}
	if isToleratedReference(trimmed) {
		return types.Requirement{}, ErrToleratedRequirement
	}

	body, marker, hasMarker := strings.Cut(trimmed, ";")
	marker = strings.TrimSpace(marker)
	if hasMarker && marker == "" {
		return types.Requirement{}, invalidRequirement(raw, "empty environment marker", nil)
	}
	body = strings.TrimSpace(body)

	name := namePattern.FindString(body)
	if name == "" {
		return types.Requirement{}, invalidRequirement(raw, "missing package name", nil)
	}
	req := types.Requirement{
		Raw:    raw,
		Name:   name,
		Marker: marker,
	}

	rest := strings.TrimSpace(body[len(name):])
	if strings.HasPrefix(rest, "[") {
		end := strings.Index(rest, "]")
		if end < 0 {
			return types.Requirement{}, invalidRequirement(raw, "unterminated extras", nil)
		}
		extras, err := parseExtras(raw, rest[1:end])
		if err != nil {
			return types.Requirement{}, err
		}
		req.Extras = extras
		rest = strings.TrimSpace(rest[end+1:])
	}
	if strings.HasPrefix(rest, "@") {
		return types.Requirement{}, ErrToleratedRequirement
	}
	if strings.HasPrefix(rest, "(") {
		if !strings.HasSuffix(rest, ")") {
			return types.Requirement{}, invalidRequirement(raw, "unbalanced parentheses", nil)
		}
		rest = strings.TrimSpace(rest[1 : len(rest)-1])
	}

	clauses, err := parseSpecifier(raw, rest)
	if err != nil {
		return types.Requirement{}, err
	}
	req.Clauses = clauses
	req.Specifier = formatClauses(clauses)
	return req, nil
}

// FormatPinned renders req pinned to exactly version. The declared name
// casing and marker are kept; extras are emitted sorted.
func FormatPinned(req types.Requirement, version string) string {
	var builder strings.Builder
	builder.WriteString(req.Name)
	if len(req.Extras) > 0 {
		extras := append([]string(nil), req.Extras...)
		sort.Strings(extras)
		builder.WriteString("[")
		builder.WriteString(strings.Join(extras, ","))
		builder.WriteString("]")
	}
	builder.WriteString(string(types.ConstraintOpEq))
	builder.WriteString(version)
	if req.Marker != "" {
		builder.WriteString("; ")
		builder.WriteString(req.Marker)
	}
	return builder.String()
}

func isToleratedReference(value string) bool {
	lower := strings.ToLower(value)
	for _, prefix := range toleratedPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return schemePattern.MatchString(lower)
}

func parseExtras(raw string, value string) ([]string, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	var extras []string
	for _, part := range strings.Split(value, ",") {
		extra := strings.TrimSpace(part)
		if !extraPattern.MatchString(extra) {
			return nil, invalidRequirement(raw, fmt.Sprintf("invalid extra %q", extra), nil)
		}
		extras = append(extras, extra)
	}
	return extras, nil
}

func parseSpecifier(raw string, value string) ([]types.Constraint, error) {
	if value == "" {
		return nil, nil
	}
	var clauses []types.Constraint
	for _, part := range strings.Split(value, ",") {
		clause := strings.TrimSpace(part)
		if clause == "" {
			return nil, invalidRequirement(raw, "empty specifier clause", nil)
		}
		op := matchOperator(clause)
		if op == types.ConstraintOpNone {
			return nil, invalidRequirement(raw, fmt.Sprintf("unexpected %q", clause), nil)
		}
		version := strings.TrimSpace(clause[len(op):])
		if version == "" || strings.ContainsAny(version, " \t") {
			return nil, invalidRequirement(raw, fmt.Sprintf("invalid version in %q", clause), nil)
		}
		if op != types.ConstraintOpArbitrary {
			if _, err := pep440.NewSpecifiers(string(op) + version); err != nil {
				return nil, invalidRequirement(raw, fmt.Sprintf("invalid specifier %q", clause), err)
			}
		}
		clauses = append(clauses, types.Constraint{Op: op, Version: version})
	}
	return clauses, nil
}

func matchOperator(clause string) types.ConstraintOp {
	for _, op := range opTokens {
		if strings.HasPrefix(clause, string(op)) {
			return op
		}
	}
	return types.ConstraintOpNone
}

func formatClauses(clauses []types.Constraint) string {
	parts := make([]string, 0, len(clauses))
	for _, clause := range clauses {
		parts = append(parts, string(clause.Op)+clause.Version)
	}
	return strings.Join(parts, ",")
}

func invalidRequirement(raw string, reason string, cause error) error {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(fmt.Sprintf("%s %q: %s", types.MsgInvalidRequirement, raw, reason))
	if cause != nil {
		builder = builder.WithCause(cause)
	}
	return builder
}
