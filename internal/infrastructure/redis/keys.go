package redisinfra

// Key namespaces. Prefixes differ, so keys never collide across them.

func OTPKey(email string) string {
	return "otp:" + email
}

func AccessTokenKey(accountID string) string {
	return "token:" + accountID + ":access"
}

func RefreshTokenKey(accountID string) string {
	return "token:" + accountID + ":refresh"
}
