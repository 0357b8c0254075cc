package risk

// The decision policy is caller-side but part of the documented contract:
// it determines the user-visible action for each computed risk level. It
// is kept separate from the tracker so the escalation upgrade rule can be
// tested on its own.

// Action is the UI action the caller must take for a submission.
type Action string

const (
	// ActionAllow persists the content with no intervention.
	ActionAllow Action = "allow"
	// ActionSuggest persists the content and shows a non-blocking
	// low-risk suggestion.
	ActionSuggest Action = "suggest"
	// ActionBanner persists the content and shows a dismissible banner.
	ActionBanner Action = "banner"
	// ActionBlock refuses the submission and shows the mandatory safety
	// modal with crisis hotline information. This path must never be
	// silently swallowed under any error condition.
	ActionBlock Action = "block"
)

// Decision is the full outcome of policy evaluation for one submission.
type Decision struct {
	Action         Action `json:"action"`
	EffectiveLevel Level  `json:"effective_level"`
	// Upgraded is set when behavioral escalation raised the level above
	// the single-message assessment.
	Upgraded bool `json:"upgraded"`
	// ClearDraft tells the caller to discard the draft text (blocked
	// submissions only).
	ClearDraft bool `json:"clear_draft"`
	// CanOverride is set on blocked submissions from surfaces whose
	// policy permits an explicit "post anyway" confirmation.
	CanOverride bool `json:"can_override"`
	// Persist reports whether the content may be stored as-is.
	Persist bool `json:"persist"`
}

// EffectiveLevel applies the cross-cutting escalation upgrade: when the
// behavioral verdict is ESCALATE and the current message on its own is
// below HIGH, the effective level is raised to MEDIUM. A HIGH message is
// never downgraded, and verdicts below ESCALATE leave the level untouched.
func EffectiveLevel(current Level, verdict Verdict) (Level, bool) {
	if verdict.Recommendation != RecommendEscalate {
		return current, false
	}
	if current.AtLeast(LevelHigh) {
		return current, false
	}
	if current.AtLeast(LevelMedium) {
		return current, false
	}
	return LevelMedium, true
}

// Decide maps an effective risk level to the UI action for a surface.
// allowOverride carries the per-surface policy: comments permit a "post
// anyway" path after the crisis warning, posts do not.
func Decide(level Level, allowOverride bool) Decision {
	d := Decision{EffectiveLevel: level}

	switch level {
	case LevelHigh:
		d.Action = ActionBlock
		d.ClearDraft = true
		d.CanOverride = allowOverride
		d.Persist = false
	case LevelMedium:
		d.Action = ActionBanner
		d.Persist = true
	case LevelLow:
		d.Action = ActionSuggest
		d.Persist = true
	default:
		d.Action = ActionAllow
		d.Persist = true
	}
	return d
}

// Evaluate runs the full per-submission pipeline for a message that has
// already been assessed: apply the behavioral upgrade, then the surface
// policy. The caller records the message with the tracker store first so
// the verdict reflects the current message.
func Evaluate(assessment Assessment, verdict Verdict, allowOverride bool) Decision {
	level, upgraded := EffectiveLevel(assessment.Level, verdict)
	d := Decide(level, allowOverride)
	d.Upgraded = upgraded
	return d
}
