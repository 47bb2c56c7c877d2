package identity

// PrincipalClaimKey is the claim under which the principal identifier
// travels in token-based authentications.
const PrincipalClaimKey = ClaimEmail

// Authentication is one of the supported authentication representations.
// The concrete variant is selected once at the transport boundary; nothing
// downstream probes types or ambient security state.
type Authentication interface {
	// principal yields the identifier of the authenticated party.
	principal() (string, error)
}

// UserDetailsAuthentication carries a resolved user-details style subject.
type UserDetailsAuthentication struct {
	Username string
}

func (a UserDetailsAuthentication) principal() (string, error) {
	return a.Username, nil
}

// TokenAuthentication carries verified token claims plus the authority
// labels granted alongside them.
type TokenAuthentication struct {
	Claims      Claims
	Authorities []string
}

func (a TokenAuthentication) principal() (string, error) {
	value, ok, err := a.Claims.String(PrincipalClaimKey)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrUnknownAuthentication
	}
	return value, nil
}

// OIDCAuthentication carries the attribute mapping of an OIDC user.
type OIDCAuthentication struct {
	Attributes Claims
}

func (a OIDCAuthentication) principal() (string, error) {
	value, ok, err := a.Attributes.String(PrincipalClaimKey)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrUnknownAuthentication
	}
	return value, nil
}

// PrincipalAuthentication carries a bare string principal.
type PrincipalAuthentication struct {
	Value string
}

func (a PrincipalAuthentication) principal() (string, error) {
	return a.Value, nil
}

// Principal resolves the authenticated party's identifier. A nil or
// unsupported authentication fails with the unknown-kind error.
func Principal(auth Authentication) (string, error) {
	if auth == nil {
		return "", ErrUnknownAuthentication
	}
	return auth.principal()
}

// AuthenticatedUsername wraps the principal into a validated Username.
func AuthenticatedUsername(auth Authentication) (Username, error) {
	principal, err := Principal(auth)
	if err != nil {
		return Username{}, err
	}
	return NewUsername(principal)
}

// RolesOf maps the authentication's authority labels into the closed role
// set. Representations that carry no authorities yield the empty set.
func RolesOf(auth Authentication) (Roles, error) {
	token, ok := auth.(TokenAuthentication)
	if !ok {
		return EmptyRoles, nil
	}

	roles := make([]Role, 0, len(token.Authorities))
	for _, label := range token.Authorities {
		role, err := RoleFrom(label)
		if err != nil {
			return EmptyRoles, err
		}
		roles = append(roles, role)
	}
	return NewRoles(roles), nil
}
