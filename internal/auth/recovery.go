package auth

import (
	"net/url"
	"strings"
)

// RecoveryTokens are the tokens Supabase appends to a password-reset link.
type RecoveryTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Type         string `json:"type"`
}

// IsRecovery reports whether the link is a usable password-reset link.
func (t RecoveryTokens) IsRecovery() bool {
	return t.Type == "recovery" && t.AccessToken != ""
}

// ParseRecoveryFragment reads tokens from a redirect URL, a bare fragment
// ("#access_token=...&type=recovery") or a bare query string. Values in the
// fragment win over values in the query string.
func ParseRecoveryFragment(raw string) RecoveryTokens {
	raw = strings.TrimSpace(raw)

	rest, fragment, _ := strings.Cut(raw, "#")
	query := ""
	if _, q, ok := strings.Cut(rest, "?"); ok {
		query = q
	} else if strings.Contains(rest, "=") {
		query = rest
	}

	var t RecoveryTokens
	for _, part := range []string{query, fragment} {
		// ParseQuery keeps every pair it could decode, even when it reports an error.
		v, _ := url.ParseQuery(part)
		if x := v.Get("access_token"); x != "" {
			t.AccessToken = x
		}
		if x := v.Get("refresh_token"); x != "" {
			t.RefreshToken = x
		}
		if x := v.Get("type"); x != "" {
			t.Type = x
		}
	}
	return t
}
