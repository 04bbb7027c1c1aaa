// Package users is the credential store: lookup, creation and
// verification of user records, plus the first-run bootstrap account.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"lims-backend/internal/metadata"
	"lims-backend/internal/store"
)

// ErrDuplicate is returned when a username is already taken.
var ErrDuplicate = errors.New("username already exists")

// Store provides credential operations on the users entity.
type Store struct {
	db     *store.Store
	entity *metadata.Entity
}

func NewStore(db *store.Store, entity *metadata.Entity) *Store {
	return &Store{db: db, entity: entity}
}

// SecretField returns the name of the hashed credential field.
func (s *Store) SecretField() string { return s.entity.SecretField }

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// FindByUsername returns the user record, or store.ErrNotFound.
func (s *Store) FindByUsername(ctx context.Context, username string) (map[string]any, error) {
	pb := s.db.Dialect.NewParamBuilder()
	sqlStr := fmt.Sprintf("SELECT id, %s FROM %s WHERE %s = %s",
		strings.Join(s.entity.Fields, ", "), s.entity.Table,
		usernameField, pb.Add(username))
	return store.QueryRow(ctx, s.db.DB, sqlStr, pb.Params()...)
}

// Create inserts a user with a hashed password and any profile fields
// present in the entity's field list. Returns the created record, or
// ErrDuplicate if the username is taken.
func (s *Store) Create(ctx context.Context, username, rawPassword string, profile map[string]any) (map[string]any, error) {
	hash, err := HashPassword(rawPassword)
	if err != nil {
		return nil, err
	}

	pb := s.db.Dialect.NewParamBuilder()
	cols := []string{usernameField, s.entity.SecretField}
	placeholders := []string{pb.Add(username), pb.Add(hash)}
	for _, f := range s.entity.Fields {
		if f == usernameField || f == s.entity.SecretField {
			continue
		}
		if v, ok := profile[f]; ok {
			cols = append(cols, f)
			placeholders = append(placeholders, pb.Add(v))
		}
	}

	sqlStr := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)%s",
		s.entity.Table, strings.Join(cols, ", "), strings.Join(placeholders, ", "),
		s.db.Dialect.ReturningClause("id"))

	id, err := store.Insert(ctx, s.db.DB, s.db.Dialect, sqlStr, pb.Params()...)
	if err != nil {
		if errors.Is(err, store.ErrUniqueViolation) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, username)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	pb = s.db.Dialect.NewParamBuilder()
	sqlStr = fmt.Sprintf("SELECT id, %s FROM %s WHERE id = %s",
		strings.Join(s.entity.Fields, ", "), s.entity.Table, pb.Add(id))
	return store.QueryRow(ctx, s.db.DB, sqlStr, pb.Params()...)
}

// Verify checks a username/password pair. An unknown username returns
// false without revealing whether the account exists; bcrypt's compare
// is constant-time on the hash.
func (s *Store) Verify(ctx context.Context, username, rawPassword string) (bool, error) {
	user, err := s.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	hash, _ := user[s.entity.SecretField].(string)
	return CheckPassword(rawPassword, hash), nil
}

// EnsureDefaultAdmin creates the bootstrap account when the users table
// is empty, so a fresh install is never locked out. The predictable
// credential is a documented trade-off: it is logged loudly and
// operators are expected to rotate it.
func (s *Store) EnsureDefaultAdmin(ctx context.Context, username, password string) error {
	row, err := store.QueryRow(ctx, s.db.DB, fmt.Sprintf("SELECT COUNT(*) AS n FROM %s", s.entity.Table))
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if n, _ := row["n"].(int64); n > 0 {
		return nil
	}

	_, err = s.Create(ctx, username, password, map[string]any{
		"fullname":    "Administrator",
		"affiliation": "LIMS Admin",
		"note":        "Initial admin user",
	})
	if err != nil {
		return fmt.Errorf("seed bootstrap account: %w", err)
	}

	logrus.Warnf("Default account %q created with a well-known password. Change it immediately.", username)
	return nil
}

const usernameField = "username"
