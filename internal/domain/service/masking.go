package service

// MaskingPolicy maps a raw sender identity to the display identity a seller
// sees. Every support-pool admin is shown under one constant label so
// sellers never learn which agent answered.
//
// DisplayName is pure and total: it never fails, and masking an
// already-masked name is a no-op.
type MaskingPolicy struct {
	label string
}

func NewMaskingPolicy(label string) MaskingPolicy {
	return MaskingPolicy{label: label}
}

func (p MaskingPolicy) Label() string {
	return p.label
}

// DisplayName returns the constant admin label for any admin-pool identity
// and passes non-admin names through unchanged.
func (p MaskingPolicy) DisplayName(senderIsAdmin bool, rawName string) string {
	if senderIsAdmin {
		return p.label
	}
	return rawName
}
