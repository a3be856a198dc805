package valueobjects

// DisclosureState is the coupon lifecycle state. Locked→Revealed→Claimed is
// forward-only; Expired is reachable from Locked or Revealed but never from
// Claimed — a claimed coupon is terminal regardless of time.
type DisclosureState string

const (
	StateLocked   DisclosureState = "locked"
	StateRevealed DisclosureState = "revealed"
	StateClaimed  DisclosureState = "claimed"
	StateExpired  DisclosureState = "expired"
)

func (s DisclosureState) IsValid() bool {
	switch s {
	case StateLocked, StateRevealed, StateClaimed, StateExpired:
		return true
	default:
		return false
	}
}

func (s DisclosureState) IsTerminal() bool {
	return s == StateClaimed || s == StateExpired
}

func (s DisclosureState) IsRevealed() bool {
	return s == StateRevealed
}

func (s DisclosureState) String() string {
	return string(s)
}
