package domain

// TokenPair is the access/refresh pair mirrored in the ephemeral store.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// SessionState describes what the ephemeral store holds for an account.
type SessionState int

const (
	// SessionAbsent means no refresh entry exists; any access entry is stale.
	SessionAbsent SessionState = iota
	// SessionPartial means the refresh entry survived its access entry.
	SessionPartial
	// SessionActive means both entries are present.
	SessionActive
)

func (s SessionState) String() string {
	switch s {
	case SessionActive:
		return "active"
	case SessionPartial:
		return "partial"
	default:
		return "absent"
	}
}

// Session is the result of loading an account's token pair.
// AccessToken is empty unless State is SessionActive.
type Session struct {
	AccountID string
	State     SessionState
	Pair      TokenPair
}
