package adapters

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"hooksync/internal/ports"
	"hooksync/internal/types"
)

const (
	keyRepos                  = "repos"
	keyRepo                   = "repo"
	keyHooks                  = "hooks"
	keyHookID                 = "id"
	keyHookAlias              = "alias"
	keyHookName               = "name"
	keyAdditionalDependencies = "additional_dependencies"
)

type HookConfigFileAdapter struct{}

func NewHookConfigFileAdapter() HookConfigFileAdapter {
	return HookConfigFileAdapter{}
}

func (a HookConfigFileAdapter) Load(path string) (ports.HookDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		code := errbuilder.CodeInternal
		if errors.Is(err, fs.ErrNotExist) {
			code = errbuilder.CodeNotFound
		}
		return nil, errbuilder.New().
			WithCode(code).
			WithMsg(fmt.Sprintf("%s %s", types.MsgConfigRead, path)).
			WithCause(err)
	}
	doc, err := ParseHookDocument(data)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("%s %s", types.MsgConfigRead, path)).
			WithCause(err)
	}
	return doc, nil
}

// Write replaces path with the serialized document. The content goes to
// a temporary file in the same directory first so a failed write never
// leaves a truncated configuration behind.
func (a HookConfigFileAdapter) Write(path string, doc ports.HookDocument) error {
	data, err := doc.Bytes()
	if err != nil {
		return writeError(path, err)
	}
	mode := fs.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".hooksync-*")
	if err != nil {
		return writeError(path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return writeError(path, err)
	}
	if err := tmp.Close(); err != nil {
		return writeError(path, err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return writeError(path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return writeError(path, err)
	}
	return nil
}

func writeError(path string, cause error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(fmt.Sprintf("%s %s", types.MsgConfigWrite, path)).
		WithCause(cause)
}

// HookDocument keeps the original bytes of a hook configuration next to
// its yaml.v3 node tree. Rewrites are spliced into the original bytes so
// that everything except the changed scalars stays byte-identical.
type HookDocument struct {
	source []byte
	root   *yaml.Node
	repos  []types.RepoEntry
	deps   map[types.DependencyRef]dependencySlot
}

// dependencySlot remembers where a dependency string lives in the tree.
type dependencySlot struct {
	seq   *yaml.Node
	index int
}

func (s dependencySlot) node() *yaml.Node {
	return s.seq.Content[s.index]
}

// ParseHookDocument parses a pre-commit style configuration.
func ParseHookDocument(data []byte) (*HookDocument, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, errors.New("document is empty")
	}
	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, errors.New("top level must be a mapping")
	}
	doc := &HookDocument{
		source: data,
		root:   &root,
		deps:   map[types.DependencyRef]dependencySlot{},
	}
	reposNode := mappingValue(top, keyRepos)
	if reposNode == nil {
		return nil, fmt.Errorf("missing %q key", keyRepos)
	}
	if reposNode.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%q must be a list", keyRepos)
	}
	for repoIdx, repoNode := range reposNode.Content {
		repo := types.RepoEntry{}
		if repoNode.Kind != yaml.MappingNode {
			doc.repos = append(doc.repos, repo)
			continue
		}
		repo.Repo = scalarValue(mappingValue(repoNode, keyRepo))
		hooksNode := mappingValue(repoNode, keyHooks)
		if hooksNode != nil && hooksNode.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("repos[%d].%s must be a list", repoIdx, keyHooks)
		}
		if hooksNode != nil {
			for hookIdx, hookNode := range hooksNode.Content {
				hook, err := doc.parseHook(repoIdx, hookIdx, hookNode)
				if err != nil {
					return nil, err
				}
				repo.Hooks = append(repo.Hooks, hook)
			}
		}
		doc.repos = append(doc.repos, repo)
	}
	return doc, nil
}

func (d *HookDocument) parseHook(repoIdx int, hookIdx int, node *yaml.Node) (types.HookEntry, error) {
	hook := types.HookEntry{}
	if node.Kind != yaml.MappingNode {
		return hook, nil
	}
	hook.ID = scalarValue(mappingValue(node, keyHookID))
	hook.Alias = scalarValue(mappingValue(node, keyHookAlias))
	hook.Name = scalarValue(mappingValue(node, keyHookName))
	depsNode := mappingValue(node, keyAdditionalDependencies)
	if depsNode == nil {
		return hook, nil
	}
	if depsNode.Kind == yaml.AliasNode && depsNode.Alias != nil {
		depsNode = depsNode.Alias
	}
	if depsNode.Kind != yaml.SequenceNode {
		return hook, fmt.Errorf("repos[%d].hooks[%d].%s must be a list", repoIdx, hookIdx, keyAdditionalDependencies)
	}
	for depIdx, depNode := range depsNode.Content {
		target := depNode
		if target.Kind == yaml.AliasNode && target.Alias != nil {
			target = target.Alias
		}
		if target.Kind != yaml.ScalarNode {
			return hook, fmt.Errorf("repos[%d].hooks[%d].%s[%d] must be a string", repoIdx, hookIdx, keyAdditionalDependencies, depIdx)
		}
		hook.AdditionalDependencies = append(hook.AdditionalDependencies, target.Value)
		ref := types.DependencyRef{Repo: repoIdx, Hook: hookIdx, Index: depIdx}
		d.deps[ref] = dependencySlot{seq: depsNode, index: depIdx}
	}
	return hook, nil
}

func (d *HookDocument) Repos() []types.RepoEntry {
	return d.repos
}

func (d *HookDocument) Bytes() ([]byte, error) {
	return d.source, nil
}

type splice struct {
	start int
	end   int
	text  string
}

// Apply rewrites the addressed dependency strings. Each rewrite is spliced
// over the original scalar token, keeping its quoting style. Scalars that
// cannot be located safely (block scalars, aliases, multi-line values)
// force the whole document to be re-encoded from the node tree instead.
//
// Anchored values stay anchored, so aliases follow their anchor. Refs that
// share one list through an alias are rewritten once.
func (d *HookDocument) Apply(rewrites []types.Rewrite) error {
	if len(rewrites) == 0 {
		return nil
	}
	offsets := newLineIndex(d.source)
	var splices []splice
	reencode := false
	applied := map[dependencySlot]string{}
	for _, rewrite := range rewrites {
		slot, ok := d.deps[rewrite.Ref]
		if !ok {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("no dependency at repos[%d].hooks[%d][%d]", rewrite.Ref.Repo, rewrite.Ref.Hook, rewrite.Ref.Index))
		}
		if to, seen := applied[slot]; seen {
			if to != rewrite.To {
				return errbuilder.New().
					WithCode(errbuilder.CodeInternal).
					WithMsg(fmt.Sprintf("conflicting rewrites for shared dependency %q", rewrite.From))
			}
			continue
		}
		node := slot.node()
		current := node.Value
		if node.Kind == yaml.AliasNode && node.Alias != nil {
			current = node.Alias.Value
		}
		if current != rewrite.From {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("dependency %q changed before rewrite", rewrite.From))
		}
		if node.Kind == yaml.ScalarNode {
			if edit, ok := locateScalar(d.source, offsets, node, slot.seq.Style&yaml.FlowStyle != 0, rewrite.To); ok {
				splices = append(splices, edit)
			} else {
				reencode = true
			}
		} else {
			reencode = true
		}
		slot.seq.Content[slot.index] = &yaml.Node{
			Kind:        yaml.ScalarNode,
			Tag:         "!!str",
			Value:       rewrite.To,
			Style:       scalarStyle(node),
			Anchor:      node.Anchor,
			HeadComment: node.HeadComment,
			LineComment: node.LineComment,
			FootComment: node.FootComment,
		}
		applied[slot] = rewrite.To
	}

	var updated []byte
	if reencode {
		log.Debug().Msg("re-encoding hook config from node tree")
		encoded, err := d.encode()
		if err != nil {
			return err
		}
		updated = encoded
	} else {
		updated = applySplices(d.source, splices)
	}
	reparsed, err := ParseHookDocument(updated)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("rewritten hook config does not parse").
			WithCause(err)
	}
	*d = *reparsed
	return nil
}

func (d *HookDocument) encode() ([]byte, error) {
	var buf bytes.Buffer
	if bytes.HasPrefix(d.source, []byte("---")) {
		buf.WriteString("---\n")
	}
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(d.root); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode hook config").
			WithCause(err)
	}
	if err := encoder.Close(); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode hook config").
			WithCause(err)
	}
	return buf.Bytes(), nil
}

func applySplices(source []byte, splices []splice) []byte {
	ordered := append([]splice(nil), splices...)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].start > ordered[j].start
	})
	out := append([]byte(nil), source...)
	for _, edit := range ordered {
		var buf bytes.Buffer
		buf.Grow(len(out) - (edit.end - edit.start) + len(edit.text))
		buf.Write(out[:edit.start])
		buf.WriteString(edit.text)
		buf.Write(out[edit.end:])
		out = buf.Bytes()
	}
	return out
}

// lineIndex maps 1-based yaml.v3 line numbers to byte offsets.
type lineIndex []int

func newLineIndex(source []byte) lineIndex {
	index := lineIndex{0}
	for i, b := range source {
		if b == '\n' {
			index = append(index, i+1)
		}
	}
	return index
}

// offset converts a yaml.v3 line/column mark (columns count characters)
// into a byte offset.
func (l lineIndex) offset(source []byte, line int, column int) (int, bool) {
	if line < 1 || line > len(l) || column < 1 {
		return 0, false
	}
	pos := l[line-1]
	for i := 1; i < column; i++ {
		if pos >= len(source) || source[pos] == '\n' {
			return 0, false
		}
		_, width := utf8.DecodeRune(source[pos:])
		pos += width
	}
	return pos, true
}

func locateScalar(source []byte, lines lineIndex, node *yaml.Node, inFlow bool, replacement string) (splice, bool) {
	if strings.ContainsAny(node.Value, "\r\n") {
		return splice{}, false
	}
	start, ok := lines.offset(source, node.Line, node.Column)
	if !ok {
		return splice{}, false
	}
	if node.Anchor != "" {
		if start, ok = skipAnchor(source, start, node.Anchor); !ok {
			return splice{}, false
		}
	}
	switch {
	case node.Style&yaml.DoubleQuotedStyle != 0:
		end, ok := quotedEnd(source, start, '"')
		if !ok {
			return splice{}, false
		}
		return splice{start: start, end: end, text: strconv.Quote(replacement)}, true
	case node.Style&yaml.SingleQuotedStyle != 0:
		end, ok := quotedEnd(source, start, '\'')
		if !ok {
			return splice{}, false
		}
		return splice{start: start, end: end, text: singleQuote(replacement)}, true
	case node.Style == 0 || node.Style == yaml.FlowStyle:
		end := start + len(node.Value)
		if end > len(source) || string(source[start:end]) != node.Value {
			return splice{}, false
		}
		text := replacement
		if !plainSafe(replacement, inFlow) {
			text = singleQuote(replacement)
		}
		return splice{start: start, end: end, text: text}, true
	default:
		return splice{}, false
	}
}

// skipAnchor moves start past an "&name " prefix so only the value is
// replaced. A value on the line after its anchor is not located.
func skipAnchor(source []byte, start int, anchor string) (int, bool) {
	token := "&" + anchor
	if !bytes.HasPrefix(source[start:], []byte(token)) {
		return start, true
	}
	pos := start + len(token)
	if pos >= len(source) || (source[pos] != ' ' && source[pos] != '\t') {
		return 0, false
	}
	for pos < len(source) && (source[pos] == ' ' || source[pos] == '\t') {
		pos++
	}
	if pos >= len(source) || source[pos] == '\n' || source[pos] == '\r' || source[pos] == '#' {
		return 0, false
	}
	return pos, true
}

// quotedEnd returns the offset just past the closing quote of a quoted
// scalar starting at start. Quoted scalars spanning lines are rejected.
func quotedEnd(source []byte, start int, quote byte) (int, bool) {
	if start >= len(source) || source[start] != quote {
		return 0, false
	}
	for i := start + 1; i < len(source); i++ {
		switch source[i] {
		case '\n', '\r':
			return 0, false
		case '\\':
			if quote == '"' {
				i++
			}
		case quote:
			if quote == '\'' && i+1 < len(source) && source[i+1] == '\'' {
				i++
				continue
			}
			return i + 1, true
		}
	}
	return 0, false
}

func singleQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

// plainSafe reports whether value can be written as a plain scalar
// without changing its meaning.
func plainSafe(value string, inFlow bool) bool {
	if value == "" || value != strings.TrimSpace(value) {
		return false
	}
	if strings.ContainsAny(value[:1], "!&*-?:,[]{}#|>@`\"'%") {
		return false
	}
	if strings.Contains(value, ": ") || strings.Contains(value, " #") || strings.HasSuffix(value, ":") {
		return false
	}
	if inFlow && strings.ContainsAny(value, ",[]{}") {
		return false
	}
	return true
}

func scalarStyle(node *yaml.Node) yaml.Style {
	if node.Kind != yaml.ScalarNode {
		return 0
	}
	if node.Style&(yaml.LiteralStyle|yaml.FoldedStyle) != 0 {
		return 0
	}
	return node.Style
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func scalarValue(node *yaml.Node) string {
	if node == nil {
		return ""
	}
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	if node.Kind != yaml.ScalarNode {
		return ""
	}
	return node.Value
}

var (
	_ ports.HookConfigPort = HookConfigFileAdapter{}
	_ ports.HookDocument   = (*HookDocument)(nil)
)
