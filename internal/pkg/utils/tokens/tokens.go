package tokens

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

func ParseToken(raw, prefix string) (secret string, ok bool) {
	if !strings.HasPrefix(raw, prefix) {
		return "", false
	}
	return strings.TrimPrefix(raw, prefix), true
}

func HMAC256Hex(pepper, secret string) string {
	m := hmac.New(sha256.New, []byte(pepper))
	m.Write([]byte(secret))
	return hex.EncodeToString(m.Sum(nil)) // 64 hex chars
}

// IssueUserToken returns "<prefix><user_id>.<hmac>".
func IssueUserToken(prefix, pepper string, userID uint) string {
	id := strconv.FormatUint(uint64(userID), 10)
	return prefix + id + "." + HMAC256Hex(pepper, id)
}

// ParseUserToken verifies a token from IssueUserToken and returns its user id.
func ParseUserToken(raw, prefix, pepper string) (uint, bool) {
	body, ok := ParseToken(raw, prefix)
	if !ok {
		return 0, false
	}
	id, mac, ok := strings.Cut(body, ".")
	if !ok || id == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	if !hmac.Equal([]byte(mac), []byte(HMAC256Hex(pepper, id))) {
		return 0, false
	}
	return uint(n), true
}
