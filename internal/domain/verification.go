package domain

import "time"

// OTPRecord is the pending password-reset code for one account, stored
// under the account's email with a fixed TTL.
type OTPRecord struct {
	AccountID string    `json:"user_id"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}
