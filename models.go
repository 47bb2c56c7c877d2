package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Claim attribute keys as supplied by the IdP's profile endpoint and token.
const (
	ClaimSubject      = "sub"
	ClaimEmail        = "email"
	ClaimLastName     = "last_name"
	ClaimFirstName    = "first_name"
	ClaimPicture      = "picture"
	ClaimRoles        = "roles"
	ClaimLastSignedIn = "last_signed_in"
)

// Authority is a single role grant attached to a user, keyed by name.
type Authority struct {
	Name string `json:"name"`
}

// NewAuthority wraps a role label. The name must be non-blank.
func NewAuthority(name string) (Authority, error) {
	if name == "" {
		return Authority{}, NewMissingField("authority.name")
	}
	return Authority{Name: name}, nil
}

// AuthorityNames projects a set of authorities to their labels. Null-safe:
// a nil input yields an empty set.
func AuthorityNames(authorities []Authority) []string {
	if authorities == nil {
		return []string{}
	}

	names := make([]string, 0, len(authorities))
	seen := make(map[string]struct{}, len(authorities))
	for _, a := range authorities {
		if _, ok := seen[a.Name]; ok {
			continue
		}
		seen[a.Name] = struct{}{}
		names = append(names, a.Name)
	}
	return names
}

// Address is the application-owned shipping address. The IdP never supplies
// it; it only changes through UserStore.UpdateAddress.
type Address struct {
	Street  string `bun:"street" json:"street,omitempty"`
	City    string `bun:"city" json:"city,omitempty"`
	ZipCode string `bun:"zip_code" json:"zip_code,omitempty"`
	Country string `bun:"country" json:"country,omitempty"`
}

// User is the aggregate root for a locally owned user record. Profile fields
// mirror the IdP; PublicID, ID, Address, and the audit dates are local.
type User struct {
	bun.BaseModel `bun:"table:ecommerce_user,alias:eu"`

	// ID is the opaque store-assigned handle; zero until first persisted.
	ID        int64     `bun:"id,pk,autoincrement" json:"id,omitempty"`
	LastName  string    `bun:"last_name,notnull" json:"last_name,omitempty"`
	FirstName string    `bun:"first_name,notnull" json:"first_name,omitempty"`
	Email     string    `bun:"email,notnull,unique" json:"email,omitempty"`
	ImageURL  string    `bun:"image_url" json:"image_url,omitempty"`
	PublicID  uuid.UUID `bun:"public_id,nullzero,type:uuid,unique" json:"public_id,omitempty"`

	Address *Address `bun:"embed:address_" json:"address,omitempty"`

	// LastSeen comes from the IdP snapshot at creation; the general profile
	// update never touches it.
	LastSeen    *time.Time  `bun:"last_seen,nullzero" json:"last_seen,omitempty"`
	Authorities []Authority `bun:"authorities,type:jsonb" json:"authorities,omitempty"`

	// Audit dates are owned by the store, not the domain object.
	CreatedDate      *time.Time `bun:"created_date,nullzero,default:current_timestamp" json:"created_date,omitempty"`
	LastModifiedDate *time.Time `bun:"last_modified_date,nullzero,default:current_timestamp" json:"last_modified_date,omitempty"`
}

// UserFromClaims builds a candidate user from IdP profile attributes plus
// the role labels extracted from the token. Only attributes present in the
// mapping are copied; IdP responses are allowed to be partial. The required
// fields are validated once assembly is done.
func UserFromClaims(attrs Claims, roleKeys []string) (*User, error) {
	user := &User{}

	if email, ok, err := attrs.String(ClaimEmail); err != nil {
		return nil, err
	} else if ok {
		user.Email = email
	}

	if lastName, ok, err := attrs.String(ClaimLastName); err != nil {
		return nil, err
	} else if ok {
		user.LastName = lastName
	}

	if firstName, ok, err := attrs.String(ClaimFirstName); err != nil {
		return nil, err
	} else if ok {
		user.FirstName = firstName
	}

	if picture, ok, err := attrs.String(ClaimPicture); err != nil {
		return nil, err
	} else if ok {
		user.ImageURL = picture
	}

	if lastSeen, ok, err := attrs.EpochSeconds(ClaimLastSignedIn); err != nil {
		return nil, err
	} else if ok {
		user.LastSeen = &lastSeen
	}

	authorities, err := authoritiesFromKeys(roleKeys)
	if err != nil {
		return nil, err
	}
	user.Authorities = authorities

	if err := user.validate(); err != nil {
		return nil, err
	}
	return user, nil
}

// authoritiesFromKeys converts role labels into the authority set.
// Duplicate labels collapse since authorities are keyed by name.
func authoritiesFromKeys(roleKeys []string) ([]Authority, error) {
	authorities := make([]Authority, 0, len(roleKeys))
	seen := make(map[string]struct{}, len(roleKeys))
	for _, key := range roleKeys {
		if _, ok := seen[key]; ok {
			continue
		}
		authority, err := NewAuthority(key)
		if err != nil {
			return nil, err
		}
		seen[key] = struct{}{}
		authorities = append(authorities, authority)
	}
	return authorities, nil
}

func (u *User) validate() error {
	if u.LastName == "" {
		return NewMissingField("last_name")
	}
	if u.FirstName == "" {
		return NewMissingField("first_name")
	}
	if u.Email == "" {
		return NewMissingField("email")
	}
	if u.Authorities == nil {
		return NewMissingField("authorities")
	}
	return nil
}

// UpdateProfileFrom overwrites exactly the four IdP-owned profile fields
// from source. PublicID, ID, Address, Authorities, and the audit dates are
// left untouched; this is the only sanctioned path for applying IdP profile
// drift onto an existing record.
func (u *User) UpdateProfileFrom(source *User) {
	if source == nil {
		return
	}
	u.Email = source.Email
	u.ImageURL = source.ImageURL
	u.FirstName = source.FirstName
	u.LastName = source.LastName
}

// InitFieldsForSignup mints the public id for a brand-new identity. Caller
// contract: invoke exactly once, only on records that have never been
// persisted. A second call would produce a second identity for the same user.
func (u *User) InitFieldsForSignup() {
	u.PublicID = uuid.New()
}

// RolesOfUser maps the user's authority labels into the closed role set.
func RolesOfUser(u *User) (Roles, error) {
	if u == nil || len(u.Authorities) == 0 {
		return EmptyRoles, nil
	}

	roles := make([]Role, 0, len(u.Authorities))
	for _, authority := range u.Authorities {
		role, err := RoleFrom(authority.Name)
		if err != nil {
			return EmptyRoles, err
		}
		roles = append(roles, role)
	}
	return NewRoles(roles), nil
}
