package identity

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var emailRegexp = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	minPasswordLength = 8
	maxPasswordLength = 72 // bcrypt input limit
	maxNameLength     = 255
	maxEmailLength    = 320
)

// Service implements identity linking on top of a Repository.
type Service struct {
	repo       Repository
	logger     *slog.Logger
	now        func() time.Time
	bcryptCost int
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

// NewService creates a Service over repo.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		logger:     slog.New(slog.DiscardHandler),
		now:        time.Now,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upsert binds (provider, uid) to user, or refreshes the binding when user
// already holds it. It fails with ErrBoundToDifferentUser when another user
// holds the pair.
func (s *Service) Upsert(ctx context.Context, user *User, params IdentityParams) (*UserIdentity, error) {
	if err := validateIdentity(params); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	out, err := s.repo.UpsertIdentity(ctx, &UserIdentity{
		ID:        uuid.New(),
		Provider:  params.Provider,
		UID:       params.UID,
		UserID:    user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if errors.Is(err, ErrBoundToDifferentUser) {
			s.logger.WarnContext(ctx, "identity bound to a different user",
				slog.String("provider", params.Provider),
				slog.String("user_id", user.ID.String()),
			)
			return nil, ErrBoundToDifferentUser
		}
		return nil, err
	}
	return out, nil
}

// CreateUser registers a user together with its first identity in one
// transaction.
func (s *Service) CreateUser(ctx context.Context, params IdentityParams, userParams UserParams) (*User, *UserIdentity, error) {
	if err := validateIdentity(params); err != nil {
		return nil, nil, err
	}
	user, err := s.buildUser(userParams)
	if err != nil {
		return nil, nil, err
	}

	var ident *UserIdentity
	err = s.repo.WithTx(ctx, func(repo Repository) error {
		if err := repo.InsertUser(ctx, user); err != nil {
			return err
		}
		var err error
		ident, err = repo.UpsertIdentity(ctx, &UserIdentity{
			ID:        uuid.New(),
			Provider:  params.Provider,
			UID:       params.UID,
			UserID:    user.ID,
			CreatedAt: user.CreatedAt,
			UpdatedAt: user.CreatedAt,
		})
		return err
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrEmailTaken):
		return nil, nil, &ValidationError{Field: "email", Message: "has already been taken", err: ErrInvalidUserIDField}
	case errors.Is(err, ErrBoundToDifferentUser):
		return nil, nil, ErrBoundToDifferentUser
	default:
		return nil, nil, err
	}

	s.logger.DebugContext(ctx, "user created from identity",
		slog.String("provider", params.Provider),
		slog.String("user_id", user.ID.String()),
	)
	return user, ident, nil
}

// Delete removes user's identities for provider and returns how many rows
// were removed. It refuses with ErrNoPassword when that would leave a user
// without a password and without any identity. The user row stays locked
// until the delete commits, so concurrent deletes see each other's result.
func (s *Service) Delete(ctx context.Context, user *User, provider string) (int64, error) {
	var deleted int64
	err := s.repo.WithTx(ctx, func(repo Repository) error {
		current, err := repo.LockUser(ctx, user.ID)
		if err != nil {
			return err
		}
		identities, err := repo.ListIdentities(ctx, user.ID)
		if err != nil {
			return err
		}

		var matching, remaining int
		for _, i := range identities {
			if i.Provider == provider {
				matching++
			} else {
				remaining++
			}
		}
		if matching == 0 {
			return nil
		}
		if remaining == 0 && !current.HasPassword() {
			return ErrNoPassword
		}

		deleted, err = repo.DeleteIdentities(ctx, user.ID, provider)
		return err
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// All lists the identities of user.
func (s *Service) All(ctx context.Context, user *User) ([]UserIdentity, error) {
	return s.repo.ListIdentities(ctx, user.ID)
}

// GetUser returns the user with id.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetUser(ctx, id)
}

// GetUserByProviderUID returns the user bound to (provider, uid).
func (s *Service) GetUserByProviderUID(ctx context.Context, provider, uid string) (*User, error) {
	ident, err := s.repo.GetIdentity(ctx, provider, uid)
	if err != nil {
		return nil, err
	}
	return s.repo.GetUser(ctx, ident.UserID)
}

// Resolve handles the three callback outcomes: link to the signed-in user,
// sign in the user already bound to the identity, or register a new user.
func (s *Service) Resolve(ctx context.Context, current *User, params IdentityParams, userParams UserParams) (*Resolution, error) {
	if current != nil {
		ident, err := s.Upsert(ctx, current, params)
		if err != nil {
			return nil, err
		}
		return &Resolution{User: current, Identity: ident}, nil
	}

	ident, err := s.repo.GetIdentity(ctx, params.Provider, params.UID)
	switch {
	case err == nil:
		user, err := s.repo.GetUser(ctx, ident.UserID)
		if err != nil {
			return nil, err
		}
		return &Resolution{User: user, Identity: ident}, nil
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	user, ident, err := s.CreateUser(ctx, params, userParams)
	if err != nil {
		return nil, err
	}
	return &Resolution{User: user, Identity: ident, Created: true}, nil
}

// VerifyPassword reports whether password matches the user's hash.
func (s *Service) VerifyPassword(user *User, password string) bool {
	if !user.HasPassword() {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)) == nil
}

func (s *Service) buildUser(p UserParams) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(p.Email))
	switch {
	case email == "":
		return nil, &ValidationError{Field: "email", Message: "can't be blank", err: ErrInvalidUserIDField}
	case len(email) > maxEmailLength || !emailRegexp.MatchString(email):
		return nil, &ValidationError{Field: "email", Message: "has invalid format", err: ErrInvalidUserIDField}
	}

	now := s.now().UTC()
	u := &User{ID: uuid.New(), Email: &email, CreatedAt: now, UpdatedAt: now}

	if name := strings.TrimSpace(p.Name); name != "" {
		if utf8.RuneCountInString(name) > maxNameLength {
			return nil, &ValidationError{Field: "name", Message: "is too long"}
		}
		u.Name = &name
	}

	if p.Password != "" {
		if len(p.Password) < minPasswordLength {
			return nil, &ValidationError{Field: "password", Message: "is too short"}
		}
		if len(p.Password) > maxPasswordLength {
			return nil, &ValidationError{Field: "password", Message: "is too long"}
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), s.bcryptCost)
		if err != nil {
			return nil, err
		}
		h := string(hash)
		u.PasswordHash = &h
	}
	return u, nil
}

func validateIdentity(p IdentityParams) error {
	if p.Provider == "" {
		return &ValidationError{Field: "provider", Message: "can't be blank"}
	}
	if p.UID == "" {
		return &ValidationError{Field: "uid", Message: "can't be blank"}
	}
	return nil
}
