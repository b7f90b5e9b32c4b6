package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserTokenRoundTrip(t *testing.T) {
	tok := IssueUserToken("htp_", "pepper", 42)
	assert.Regexp(t, `^htp_42\.[0-9a-f]{64}$`, tok)

	id, ok := ParseUserToken(tok, "htp_", "pepper")
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)
}

func TestParseUserToken_Rejects(t *testing.T) {
	good := IssueUserToken("htp_", "pepper", 7)
	cases := map[string]string{
		"wrong prefix": "sk_" + good[len("htp_"):],
		"wrong pepper": IssueUserToken("htp_", "other", 7),
		"tampered id":  "htp_8" + good[len("htp_7"):],
		"no separator": "htp_7",
		"zero id":      IssueUserToken("htp_", "pepper", 0),
		"non numeric":  "htp_abc." + HMAC256Hex("pepper", "abc"),
		"empty":        "",
		"missing mac":  "htp_7.",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := ParseUserToken(raw, "htp_", "pepper")
			assert.False(t, ok)
		})
	}
}
