package goRecover

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// TokenQueryParam is the query parameter EntryFromURL reads the token from.
const TokenQueryParam = "token"

// EntryContext is what a reset flow is started with. Token is opaque and may
// be empty, in which case the flow ends immediately with ErrMissingToken.
type EntryContext struct {
	Token string
}

// EntryFromURL extracts the reset token from a reset link. A link without a
// token yields an empty EntryContext, not an error; only unparsable input
// fails.
func EntryFromURL(raw string) (EntryContext, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return EntryContext{}, errors.New("reset link is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return EntryContext{}, fmt.Errorf("parse reset link: %w", err)
	}
	return EntryContext{Token: strings.TrimSpace(u.Query().Get(TokenQueryParam))}, nil
}

// HasToken reports whether the entry carries a non-blank token.
func (e EntryContext) HasToken() bool {
	return strings.TrimSpace(e.Token) != ""
}
