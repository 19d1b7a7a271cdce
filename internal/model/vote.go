package model

import (
	"encoding/json"
	"fmt"
)

// VoteKind is the kind of a review vote.
type VoteKind string

const (
	VoteHelpful    VoteKind = "helpful"
	VoteNotHelpful VoteKind = "not_helpful"
)

// ParseVoteKind converts a raw string into a VoteKind.
func ParseVoteKind(s string) (VoteKind, error) {
	switch VoteKind(s) {
	case VoteHelpful:
		return VoteHelpful, nil
	case VoteNotHelpful:
		return VoteNotHelpful, nil
	default:
		return "", fmt.Errorf("invalid vote kind %q", s)
	}
}

// IsValid reports whether k is one of the known vote kinds.
func (k VoteKind) IsValid() bool {
	_, err := ParseVoteKind(string(k))
	return err == nil
}

// Label returns the display label of the vote kind.
func (k VoteKind) Label() string {
	switch k {
	case VoteHelpful:
		return "Helpful"
	case VoteNotHelpful:
		return "Not helpful"
	default:
		return ""
	}
}

// UnmarshalJSON rejects unknown vote kinds.
func (k *VoteKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseVoteKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
