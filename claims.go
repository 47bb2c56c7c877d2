package identity

import (
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is a read-only view over a token or profile claim mapping. Its
// accessors keep two cases apart that are easy to conflate: a key that is
// absent (ok=false, err=nil) and a key that is present but not the expected
// shape (err != nil).
type Claims map[string]any

// ClaimsFromToken extracts the claim mapping from a verified JWT. Tokens
// with non-map claims yield an empty mapping rather than a panic.
func ClaimsFromToken(token *jwt.Token) Claims {
	if token == nil {
		return Claims{}
	}
	if mapClaims, ok := token.Claims.(jwt.MapClaims); ok {
		return Claims(mapClaims)
	}
	return Claims{}
}

// Has reports whether the key is present at all.
func (c Claims) Has(key string) bool {
	_, ok := c[key]
	return ok
}

// String returns the string claim under key.
func (c Claims) String(key string) (string, bool, error) {
	raw, ok := c[key]
	if !ok || raw == nil {
		return "", false, nil
	}

	value, ok := raw.(string)
	if !ok {
		return "", true, newMalformedClaim(key, "expected a string")
	}
	return value, true, nil
}

// EpochSeconds returns the claim under key interpreted as seconds since the
// Unix epoch. JSON decoding hands numbers back as float64, json.Number, or
// the occasional integer depending on the decoder, so all three are accepted.
func (c Claims) EpochSeconds(key string) (time.Time, bool, error) {
	raw, ok := c[key]
	if !ok || raw == nil {
		return time.Time{}, false, nil
	}

	switch value := raw.(type) {
	case float64:
		return time.Unix(int64(value), 0).UTC(), true, nil
	case int64:
		return time.Unix(value, 0).UTC(), true, nil
	case int:
		return time.Unix(int64(value), 0).UTC(), true, nil
	case json.Number:
		seconds, err := value.Int64()
		if err != nil {
			return time.Time{}, true, newMalformedClaim(key, "expected epoch seconds")
		}
		return time.Unix(seconds, 0).UTC(), true, nil
	default:
		return time.Time{}, true, newMalformedClaim(key, "expected epoch seconds")
	}
}

// RoleKeys extracts the role labels from the roles claim: a sequence of
// role-descriptor objects, each holding the label under "key". An absent
// claim yields an empty list; a claim of the wrong shape is a hard failure
// so roles are never silently dropped.
func (c Claims) RoleKeys() ([]string, error) {
	raw, ok := c[ClaimRoles]
	if !ok || raw == nil {
		return []string{}, nil
	}

	descriptors, ok := raw.([]any)
	if !ok {
		return nil, newMalformedRoleClaim("roles claim is not a sequence")
	}

	keys := make([]string, 0, len(descriptors))
	for _, descriptor := range descriptors {
		fields, ok := descriptor.(map[string]any)
		if !ok {
			return nil, newMalformedRoleClaim("role descriptor is not an object")
		}
		key, ok := fields["key"].(string)
		if !ok {
			return nil, newMalformedRoleClaim("role descriptor has no string key field")
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// LastSignedIn returns the IdP's freshness claim when it is supplied.
func (c Claims) LastSignedIn() (time.Time, bool, error) {
	return c.EpochSeconds(ClaimLastSignedIn)
}
