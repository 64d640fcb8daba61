package cache

import (
	"fmt"
	"time"
)

const (
	resetTokenPrefix = "pwreset:%s"
	denylistPrefix   = "denylist:%s"
)

const (
	// ResetTokenTTL bounds how long a password-reset link stays valid.
	ResetTokenTTL = 30 * time.Minute
)

// ResetTokenKey stores the user ID under a single-use password-reset token.
func ResetTokenKey(token string) string {
	return fmt.Sprintf(resetTokenPrefix, token)
}

// DenylistKey marks a revoked refresh-token JTI until its natural expiry.
func DenylistKey(jti string) string {
	return fmt.Sprintf(denylistPrefix, jti)
}
