// Package services contains server-side business logic. AuthService handles
// registration and login, records the audit trail and issues session tokens.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/audit"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Audit reasons and event names.
const (
	reasonEmailExists  = "Email already exists"
	reasonUserNotFound = "User not found"
	reasonInactive     = "Account is inactive"
	reasonBadPassword  = "Invalid password"

	eventUserCreated  = "UserCreated"
	eventUserLoggedIn = "UserLoggedIn"
	entityUser        = "User"
	operationRegister = "Register"
	operationLogin    = "Login"
)

// PasswordHasher derives and checks password digests.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

// TokenIssuer mints a signed session token for an account.
type TokenIssuer interface {
	Issue(account *models.Account) (string, error)
}

// RegisterInput is the registration request. An empty Role means
// common.DefaultRole.
type RegisterInput struct {
	FullName string
	Email    string
	Password string
	Role     string
}

// Profile is the caller's identity as asserted by a validated token.
type Profile struct {
	UserID    string
	Email     string
	Name      string
	Role      string
	IsActive  bool
	LastLogin *time.Time
}

// AuthService is stateless apart from its collaborators and is safe for
// concurrent use.
type AuthService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	tokens      TokenIssuer
	audit       audit.Log
	metrics     metrics.Recorder
	now         func() time.Time
	newID       func() string
}

type Option func(*AuthService)

func WithMetrics(r metrics.Recorder) Option {
	return func(s *AuthService) { s.metrics = r }
}

func WithClock(now func() time.Time) Option {
	return func(s *AuthService) { s.now = now }
}

func WithIDFunc(f func() string) Option {
	return func(s *AuthService) { s.newID = f }
}

func NewAuthService(db dbx.DBTX, m repomanager.RepositoryManager, hasher PasswordHasher, tokens TokenIssuer, log audit.Log, opts ...Option) *AuthService {
	s := &AuthService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		audit:       log,
		metrics:     metrics.Nop(),
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *AuthService) observe(operation string) func() {
	start := time.Now()
	return func() { s.metrics.ObserveOperation(operation, time.Since(start)) }
}

// Register creates an active account and returns a token for it. Nothing is
// persisted unless every step up to the insert succeeds.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (string, error) {
	defer s.audit.TimedOperation(ctx, operationRegister).End()
	defer s.observe(operationRegister)()

	if err := validateRegistration(in); err != nil {
		s.metrics.RecordRegister(metrics.OutcomeInvalid)
		return "", err
	}

	repo := s.repomanager.Accounts(s.db)

	exists, err := repo.ExistsByEmail(ctx, in.Email)
	if err != nil {
		s.metrics.RecordRegister(metrics.OutcomeError)
		return "", fmt.Errorf("check email: %w", err)
	}
	if exists {
		return "", s.rejectDuplicate(ctx, in.Email)
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.metrics.RecordRegister(metrics.OutcomeError)
		return "", fmt.Errorf("hash password: %w", err)
	}

	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = common.DefaultRole
	}

	now := s.now().UTC()
	account := &models.Account{
		ID:             s.newID(),
		FullName:       in.FullName,
		Email:          in.Email,
		PasswordDigest: digest,
		IsActive:       true,
		Role:           role,
		CreatedAt:      now,
		LastUpdatedAt:  now,
	}

	created, err := repo.Create(ctx, account)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateAccount) {
			return "", s.rejectDuplicate(ctx, in.Email)
		}
		s.metrics.RecordRegister(metrics.OutcomeError)
		return "", fmt.Errorf("create account: %w", err)
	}

	s.audit.SecurityEvent(ctx, eventUserCreated, created.ID,
		fmt.Sprintf("New user registered with email %s", created.Email))
	s.audit.DataAccess(ctx, "Create", entityUser, created.ID, "User account created")

	token, err := s.tokens.Issue(created)
	if err != nil {
		s.metrics.RecordRegister(metrics.OutcomeError)
		return "", fmt.Errorf("issue token: %w", err)
	}

	s.metrics.RecordRegister(metrics.OutcomeSuccess)
	return token, nil
}

func (s *AuthService) rejectDuplicate(ctx context.Context, email string) error {
	s.audit.AuthenticationFailure(ctx, email, reasonEmailExists)
	s.metrics.RecordRegister(metrics.OutcomeDuplicate)
	return common.ErrDuplicateAccount
}

// Login checks credentials, stamps the login time and returns a token. The
// token carries the login time preceding this one, if any.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	defer s.audit.TimedOperation(ctx, operationLogin).End()
	defer s.observe(operationLogin)()

	repo := s.repomanager.Accounts(s.db)

	account, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.audit.AuthenticationFailure(ctx, email, reasonUserNotFound)
			s.metrics.RecordLogin(metrics.OutcomeUnknownUser)
			return "", common.ErrInvalidCredentials
		}
		s.metrics.RecordLogin(metrics.OutcomeError)
		return "", fmt.Errorf("find account: %w", err)
	}

	if !account.IsActive {
		s.audit.AuthenticationFailure(ctx, email, reasonInactive)
		s.metrics.RecordLogin(metrics.OutcomeDeactivated)
		return "", common.ErrAccountDeactivated
	}

	if !s.hasher.Verify(password, account.PasswordDigest) {
		s.audit.AuthenticationFailure(ctx, email, reasonBadPassword)
		s.metrics.RecordLogin(metrics.OutcomeBadPassword)
		return "", common.ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := repo.UpdateLastLogin(ctx, account.ID, now); err != nil {
		s.metrics.RecordLogin(metrics.OutcomeError)
		return "", fmt.Errorf("update last login: %w", err)
	}
	s.audit.DataAccess(ctx, "Update", entityUser, account.ID, "Updated last login timestamp")

	s.audit.AuthenticationSuccess(ctx, account.ID, account.Email)
	s.audit.SecurityEvent(ctx, eventUserLoggedIn, account.ID,
		fmt.Sprintf("User logged in with email %s", account.Email))

	token, err := s.tokens.Issue(account)
	if err != nil {
		s.metrics.RecordLogin(metrics.OutcomeError)
		return "", fmt.Errorf("issue token: %w", err)
	}

	s.metrics.RecordLogin(metrics.OutcomeSuccess)
	return token, nil
}

// Profile projects validated token claims. The account must still exist.
func (s *AuthService) Profile(ctx context.Context, claims *auth.Claims) (*Profile, error) {
	if claims == nil || claims.UserID() == "" {
		return nil, common.ErrInvalidToken
	}

	if _, err := s.repomanager.Accounts(s.db).GetByID(ctx, claims.UserID()); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, err
	}
	s.audit.DataAccess(ctx, "Read", entityUser, claims.UserID(), "Profile requested")

	p := &Profile{
		UserID:   claims.UserID(),
		Email:    claims.Email,
		Name:     claims.Name,
		Role:     claims.Role,
		IsActive: claims.IsActive,
	}
	if t, ok := claims.LastLoginTime(); ok {
		p.LastLogin = &t
	}
	return p, nil
}

func validateRegistration(in RegisterInput) error {
	if in.Email == "" {
		return fmt.Errorf("%w: email is required", common.ErrValidation)
	}
	if in.Password == "" {
		return fmt.Errorf("%w: password is required", common.ErrValidation)
	}
	addr, err := mail.ParseAddress(in.Email)
	if err != nil || addr.Address != in.Email {
		return fmt.Errorf("%w: email is not a valid address", common.ErrValidation)
	}
	return nil
}
