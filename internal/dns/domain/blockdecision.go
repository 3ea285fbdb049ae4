package domain

// BlockDecision represents the outcome of evaluating a hostname against the
// published decision set. Pure value type, no external dependencies.
type BlockDecision struct {
	Blocked     bool   // true if the name or one of its checked ancestors is in the set
	MatchedRule string // set member that matched (the name itself or an ancestor)
	Depth       int    // labels stripped before the match; 0 for an exact hit
	Generation  uint64 // snapshot generation the decision was made against
}
