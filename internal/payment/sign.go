package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sign computes the hex HMAC-SHA256 over parts joined with "|". The same
// scheme signs outbound session requests and inbound result signals.
func Sign(secret string, parts ...string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(mac.Sum(nil))
}

func VerifySignature(secret, signature string, parts ...string) bool {
	return hmac.Equal([]byte(signature), []byte(Sign(secret, parts...)))
}
