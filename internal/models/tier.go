package models

import (
	"fmt"
	"strings"
)

// Tier is an access level. Tiers are totally ordered ADMIN > OPERATOR > VIEWER.
type Tier string

const (
	TierAdmin    Tier = "ADMIN"
	TierOperator Tier = "OPERATOR"
	TierViewer   Tier = "VIEWER"
)

var tierRank = map[Tier]int{
	TierViewer:   1,
	TierOperator: 2,
	TierAdmin:    3,
}

// ParseTier accepts the current tier names and the legacy ones
// (OPERADOR, VISUALIZADOR), case-insensitively.
func ParseTier(s string) (Tier, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ADMIN":
		return TierAdmin, nil
	case "OPERATOR", "OPERADOR":
		return TierOperator, nil
	case "VIEWER", "VISUALIZADOR":
		return TierViewer, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTier, s)
}

func (t Tier) Valid() bool {
	_, ok := tierRank[t]
	return ok
}

// AuthorizeAtLeast reports whether a user holding tier user may act at
// tier required. An unknown user tier never authorizes; an unknown required
// tier is satisfied only by ADMIN.
func AuthorizeAtLeast(user, required Tier) bool {
	have, ok := tierRank[user]
	if !ok {
		return false
	}
	need, ok := tierRank[required]
	if !ok {
		return user == TierAdmin
	}
	return have >= need
}
