package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserStore is the persistence port the synchronizer drives. Store errors
// propagate unchanged; the synchronizer neither retries nor swallows them.
// Missed lookups must surface as CategoryNotFound errors (NewUserNotFound)
// so callers can branch with goerrors.IsNotFound.
type UserStore interface {
	Save(ctx context.Context, user *User) error
	GetByPublicID(ctx context.Context, publicID uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateAddress(ctx context.Context, publicID uuid.UUID, address Address) error
}

var updateAddressSQL = `UPDATE "ecommerce_user" AS "eu"
SET
	"address_street" = ?,
	"address_city" = ?,
	"address_zip_code" = ?,
	"address_country" = ?
WHERE
	"eu"."public_id" = ?;`

type userStore struct {
	repository.Repository[*User]
	db *bun.DB
}

var _ UserStore = (*userStore)(nil)

// NewUserStore builds the bun-backed user store.
func NewUserStore(db *bun.DB) UserStore {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.PublicID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil && u.PublicID == uuid.Nil {
				u.PublicID = id
			}
		},
	})

	return &userStore{
		Repository: repo,
		db:         db,
	}
}

// Save creates the record when it has no internal id yet, updates it in
// place otherwise. The store owns the audit dates.
func (s *userStore) Save(ctx context.Context, user *User) error {
	now := time.Now().UTC()
	user.LastModifiedDate = &now
	if user.CreatedDate == nil {
		user.CreatedDate = &now
	}

	if user.ID == 0 {
		created, err := s.Repository.Create(ctx, user)
		if err != nil {
			return normalizeStoreError(err)
		}
		*user = *created
		return nil
	}

	_, err := s.db.NewUpdate().
		Model(user).
		WherePK().
		Exec(ctx)

	return normalizeStoreError(err)
}

func (s *userStore) GetByPublicID(ctx context.Context, publicID uuid.UUID) (*User, error) {
	return s.getBy(ctx, "public_id", publicID)
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.getBy(ctx, "email", email)
}

func (s *userStore) getBy(ctx context.Context, column string, value any) (*User, error) {
	record := &User{}

	err := s.db.NewSelect().
		Model(record).
		Where(fmt.Sprintf("?TableAlias.%s = ?", column), value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err) {
			return nil, NewUserNotFound(column, value)
		}
		return nil, normalizeStoreError(err)
	}

	return record, nil
}

// UpdateAddress overwrites only the address columns of the record with the
// given public id.
func (s *userStore) UpdateAddress(ctx context.Context, publicID uuid.UUID, address Address) error {
	res, err := s.db.NewRaw(updateAddressSQL,
		address.Street,
		address.City,
		address.ZipCode,
		address.Country,
		publicID,
	).Exec(ctx)

	if err != nil {
		return normalizeStoreError(err)
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return NewUserNotFound("public_id", publicID)
	}

	return nil
}

// normalizeStoreError surfaces uniqueness violations as conflicts so the
// synchronizer can treat a lost create race as "already exists".
func normalizeStoreError(err error) error {
	if err == nil {
		return nil
	}

	if IsConflict(err) {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return err
		}
		return goerrors.Wrap(err, goerrors.CategoryConflict, "user uniqueness constraint violated")
	}

	return err
}
