/*
resolve.go - Effective status resolution

PURPOSE:
  Merges the computed EligibilityResult with any ManualOverride into the
  EffectiveStatus the rest of the system uses. A manual code, when set for
  the type, wins entirely: both the required flag and the reason come from
  the manual decision. Otherwise the computed result passes through,
  labeled auto_required or auto_exempted.

HANDLED SHAPES:
  - override absent: pure pass-through
  - override partially set: only the overridden types are affected
  - override without a reason: a generic manual-decision reason is used
*/
package insurance

// Resolve merges one computed result with the (possibly nil) override.
func Resolve(elig EligibilityResult, override *ManualOverride) EffectiveStatus {
	if code, ok := override.StatusFor(elig.Type); ok && code.IsManual() {
		reason := override.Reason
		if reason == "" {
			reason = "manual decision"
		}
		return EffectiveStatus{
			Type:     elig.Type,
			Required: code == ManualRequired,
			Reason:   reason,
			IsManual: true,
			Status:   code,
		}
	}

	status := AutoExempted
	if elig.Required {
		status = AutoRequired
	}
	return EffectiveStatus{
		Type:     elig.Type,
		Required: elig.Required,
		Reason:   elig.Reason,
		IsManual: false,
		Status:   status,
	}
}

// ResolveAll merges a full evaluation with the override, keyed by type.
func ResolveAll(elig map[InsuranceType]EligibilityResult, override *ManualOverride) map[InsuranceType]EffectiveStatus {
	out := make(map[InsuranceType]EffectiveStatus, len(elig))
	for t, r := range elig {
		out[t] = Resolve(r, override)
	}
	return out
}
