package identity

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// ProfileService fetches the IdP's current profile snapshot for a subject.
// This is the authoritative profile, independent of what the token carries.
type ProfileService interface {
	UserProfile(ctx context.Context, subjectID string) (Claims, error)
}

// SyncOutcome names the effect a sync attempt had on the local store.
type SyncOutcome string

const (
	// OutcomeCreated means no local record matched and one was bootstrapped.
	OutcomeCreated SyncOutcome = "created"
	// OutcomeUpdated means IdP profile drift was applied to the local record.
	OutcomeUpdated SyncOutcome = "updated"
	// OutcomeSkipped means the local record was already current; no write.
	OutcomeSkipped SyncOutcome = "skipped"
)

// SyncResult reports what a sync attempt did and the record it settled on.
type SyncResult struct {
	Outcome SyncOutcome
	User    *User
}

// Synchronizer reconciles local user records with the IdP. Each invocation
// is driven synchronously by an inbound authenticated request; it offers no
// mutual exclusion of its own and relies on the store's uniqueness
// constraint as the last line of defense against duplicate creation.
type Synchronizer struct {
	users    UserStore
	profiles ProfileService
	logger   Logger
}

// NewSynchronizer wires the synchronizer with its two collaborators.
func NewSynchronizer(users UserStore, profiles ProfileService) *Synchronizer {
	return &Synchronizer{
		users:    users,
		profiles: profiles,
		logger:   defLogger{},
	}
}

// WithLogger overrides the logger.
func (s *Synchronizer) WithLogger(l Logger) *Synchronizer {
	if l != nil {
		s.logger = l
	}
	return s
}

// SyncWithIdP runs the create/update/skip protocol for the subject carried
// by the verified token. Failures leave the store exactly as it was: role
// extraction fails before any lookup, and an unreachable IdP aborts the
// attempt before a candidate is built.
func (s *Synchronizer) SyncWithIdP(ctx context.Context, token *jwt.Token, forceResync bool) (*SyncResult, error) {
	claims := ClaimsFromToken(token)

	roleKeys, err := claims.RoleKeys()
	if err != nil {
		return nil, err
	}

	subject, ok, err := claims.String(ClaimSubject)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewMissingField(ClaimSubject)
	}

	profile, err := s.profiles.UserProfile(ctx, subject)
	if err != nil {
		if IsIdPUnavailable(err) {
			return nil, err
		}
		return nil, WrapIdPUnavailable(err, "failed to fetch IdP profile")
	}

	candidate, err := UserFromClaims(profile, roleKeys)
	if err != nil {
		return nil, err
	}

	// Email is the merge key across the two systems, not the subject id.
	existing, err := s.users.GetByEmail(ctx, candidate.Email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return s.create(ctx, candidate)
		}
		return nil, err
	}

	return s.reconcile(ctx, claims, candidate, existing, forceResync)
}

func (s *Synchronizer) create(ctx context.Context, candidate *User) (*SyncResult, error) {
	candidate.InitFieldsForSignup()

	if err := s.users.Save(ctx, candidate); err != nil {
		if IsConflict(err) {
			// Lost a concurrent-create race; the record exists now, so
			// converge by retrying as an update.
			return s.retryAsUpdate(ctx, candidate, err)
		}
		return nil, err
	}

	s.logger.Info("bootstrapped local identity %s (%s)", candidate.Email, candidate.PublicID)
	return &SyncResult{Outcome: OutcomeCreated, User: candidate}, nil
}

func (s *Synchronizer) reconcile(ctx context.Context, claims Claims, candidate, existing *User, forceResync bool) (*SyncResult, error) {
	idpModified, hasClaim, err := claims.LastSignedIn()
	if err != nil {
		return nil, err
	}

	// Without a freshness claim the comparison cannot be made; skip even
	// when forced.
	if !hasClaim {
		return &SyncResult{Outcome: OutcomeSkipped, User: existing}, nil
	}

	stale := existing.LastModifiedDate == nil || idpModified.After(*existing.LastModifiedDate)
	if !stale && !forceResync {
		return &SyncResult{Outcome: OutcomeSkipped, User: existing}, nil
	}

	existing.UpdateProfileFrom(candidate)

	if err := s.users.Save(ctx, existing); err != nil {
		return nil, err
	}

	s.logger.Debug("applied IdP profile drift for %s", existing.Email)
	return &SyncResult{Outcome: OutcomeUpdated, User: existing}, nil
}

func (s *Synchronizer) retryAsUpdate(ctx context.Context, candidate *User, conflict error) (*SyncResult, error) {
	existing, err := s.users.GetByEmail(ctx, candidate.Email)
	if err != nil {
		return nil, conflict
	}

	existing.UpdateProfileFrom(candidate)

	if err := s.users.Save(ctx, existing); err != nil {
		return nil, err
	}

	s.logger.Info("create raced an existing record for %s, converged as update", existing.Email)
	return &SyncResult{Outcome: OutcomeUpdated, User: existing}, nil
}

// UpdateAddressRequest is the narrow address write. It bypasses the sync
// protocol: the IdP never supplies an address.
type UpdateAddressRequest struct {
	PublicID uuid.UUID `json:"public_id"`
	Street   string    `json:"street"`
	City     string    `json:"city"`
	ZipCode  string    `json:"zip_code"`
	Country  string    `json:"country"`
}

// Validate enforces the request payload shape.
func (r UpdateAddressRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PublicID, validation.Required),
		validation.Field(&r.Street, validation.Required),
		validation.Field(&r.City, validation.Required),
		validation.Field(&r.ZipCode, validation.Required),
		validation.Field(&r.Country, validation.Required),
	)
}

// UpdateAddress overwrites only the address fields of the record identified
// by public id. Profile fields and audit gating are untouched.
func (s *Synchronizer) UpdateAddress(ctx context.Context, req UpdateAddressRequest) error {
	if err := req.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid address payload")
	}

	address := Address{
		Street:  req.Street,
		City:    req.City,
		ZipCode: req.ZipCode,
		Country: req.Country,
	}

	return s.users.UpdateAddress(ctx, req.PublicID, address)
}
