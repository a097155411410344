package types

type Rewrite struct {
	Ref     DependencyRef
	HookID  string
	Package string
	From    string
	To      string
}

type SkipReason string

const (
	SkipReasonTolerated  SkipReason = "unparseable"
	SkipReasonUnmanaged  SkipReason = "not in lockfile"
	SkipReasonExcluded   SkipReason = "excluded"
	SkipReasonUpToDate   SkipReason = "up to date"
	SkipReasonOutOfScope SkipReason = "hook not selected"
)

type SkippedDependency struct {
	Ref    DependencyRef
	HookID string
	Raw    string
	Reason SkipReason
}

// SyncReport describes the outcome of one reconciliation pass.
type SyncReport struct {
	Scanned  int
	Rewrites []Rewrite
	Skipped  []SkippedDependency
}

func (r SyncReport) Changed() bool {
	return len(r.Rewrites) > 0
}
