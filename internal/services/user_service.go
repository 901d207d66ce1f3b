package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	domain "github.com/Zllawi/bassmaStore/internal/domain"
	"github.com/Zllawi/bassmaStore/internal/platform/auth"
	"github.com/Zllawi/bassmaStore/internal/repositories"
)

const bcryptCost = 10

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// TokenManager mints and verifies the token pair handed to clients.
type TokenManager interface {
	MintAccessToken(identity auth.Identity) (string, error)
	MintRefreshToken(identity auth.Identity) (string, error)
	VerifyRefreshToken(token string) (auth.Identity, error)
	RefreshTokenTTL() time.Duration
}

// UserServiceDeps bundles collaborators required to construct a user service.
type UserServiceDeps struct {
	Users     repositories.UserRepository
	Addresses repositories.AddressRepository
	Tokens    TokenManager
	Logger    *zap.Logger
}

type userService struct {
	users     repositories.UserRepository
	addresses repositories.AddressRepository
	tokens    TokenManager
	logger    *zap.Logger
}

// NewUserService constructs the account, authentication, and address book service.
func NewUserService(deps UserServiceDeps) (UserService, error) {
	if deps.Users == nil {
		return nil, errors.New("user service: user repository is required")
	}
	if deps.Addresses == nil {
		return nil, errors.New("user service: address repository is required")
	}
	if deps.Tokens == nil {
		return nil, errors.New("user service: token manager is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &userService{
		users:     deps.Users,
		addresses: deps.Addresses,
		tokens:    deps.Tokens,
		logger:    logger,
	}, nil
}

// Register creates an account and returns the signed-in token pair.
func (s *userService) Register(ctx context.Context, cmd RegisterCommand) (AuthResult, error) {
	vErr := &ValidationError{}
	name := strings.TrimSpace(cmd.Name)
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if len(name) < 2 {
		vErr.Add("name", "must be at least 2 characters")
	}
	if !emailPattern.MatchString(email) {
		vErr.Add("email", "must be a valid email address")
	}
	if len(cmd.Password) < 6 {
		vErr.Add("password", "must be at least 6 characters")
	}
	if phone := strings.TrimSpace(cmd.Phone); phone != "" && (len(phone) < 6 || len(phone) > 20) {
		vErr.Add("phone", "must be between 6 and 20 characters")
	}
	if region := strings.TrimSpace(cmd.Region); region != "" && len(region) < 2 {
		vErr.Add("region", "must be at least 2 characters")
	}
	if desc := strings.TrimSpace(cmd.AddressDescription); desc != "" && len(desc) < 4 {
		vErr.Add("addressDescription", "must be at least 4 characters")
	}
	if err := vErr.ErrOrNil(); err != nil {
		return AuthResult{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcryptCost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("register: hash password: %w", err)
	}

	user, err := s.users.Insert(ctx, domain.User{
		Name:               name,
		Email:              email,
		PasswordHash:       string(hash),
		Role:               domain.RoleUser,
		Phone:              strings.TrimSpace(cmd.Phone),
		City:               strings.TrimSpace(cmd.City),
		Region:             strings.TrimSpace(cmd.Region),
		AddressDescription: strings.TrimSpace(cmd.AddressDescription),
	})
	if err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) || errors.Is(err, ErrEmailTaken) {
			return AuthResult{}, ErrEmailTaken
		}
		return AuthResult{}, fmt.Errorf("register: %w", err)
	}

	return s.issueTokens(user)
}

// Login verifies credentials and returns a fresh token pair. Unknown emails
// and wrong passwords are indistinguishable to the caller.
func (s *userService) Login(ctx context.Context, cmd LoginCommand) (AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if email == "" || cmd.Password == "" {
		return AuthResult{}, ErrInvalidCredentials
	}

	user, found, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return AuthResult{}, fmt.Errorf("login: %w", err)
	}
	if !found {
		return AuthResult{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(cmd.Password)); err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	return s.issueTokens(user)
}

// Refresh verifies the refresh token, rejects revoked token versions, and
// mints a new pair.
func (s *userService) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	identity, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return AuthResult{}, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
	}

	user, err := s.users.FindByID(ctx, identity.UserID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("%w: account lookup failed", ErrInvalidRefreshToken)
	}
	if user.TokenVersion != identity.TokenVersion {
		return AuthResult{}, fmt.Errorf("%w: token revoked", ErrInvalidRefreshToken)
	}

	return s.issueTokens(user)
}

// Logout bumps the token version, invalidating every outstanding refresh token.
func (s *userService) Logout(ctx context.Context, userID string) error {
	if _, err := s.users.BumpTokenVersion(ctx, strings.TrimSpace(userID)); err != nil {
		return mapRepositoryError(err)
	}
	return nil
}

// GetProfile returns the user's profile.
func (s *userService) GetProfile(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.users.FindByID(ctx, strings.TrimSpace(userID))
	if err != nil {
		return domain.User{}, mapRepositoryError(err)
	}
	return user, nil
}

// UpdateProfile applies the supplied profile changes.
func (s *userService) UpdateProfile(ctx context.Context, userID string, cmd UpdateProfileCommand) (domain.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	vErr := &ValidationError{}
	if cmd.Name != nil {
		if name := strings.TrimSpace(*cmd.Name); len(name) < 2 {
			vErr.Add("name", "must be at least 2 characters")
		} else {
			user.Name = name
		}
	}
	if cmd.Phone != nil {
		phone := strings.TrimSpace(*cmd.Phone)
		if phone != "" && (len(phone) < 6 || len(phone) > 20) {
			vErr.Add("phone", "must be between 6 and 20 characters")
		} else {
			user.Phone = phone
		}
	}
	if cmd.City != nil {
		user.City = strings.TrimSpace(*cmd.City)
	}
	if cmd.Region != nil {
		user.Region = strings.TrimSpace(*cmd.Region)
	}
	if cmd.AddressDescription != nil {
		user.AddressDescription = strings.TrimSpace(*cmd.AddressDescription)
	}
	if cmd.Password != nil {
		if len(*cmd.Password) < 6 {
			vErr.Add("password", "must be at least 6 characters")
		} else {
			hash, err := bcrypt.GenerateFromPassword([]byte(*cmd.Password), bcryptCost)
			if err != nil {
				return domain.User{}, fmt.Errorf("update profile: hash password: %w", err)
			}
			user.PasswordHash = string(hash)
		}
	}
	if err := vErr.ErrOrNil(); err != nil {
		return domain.User{}, err
	}

	saved, err := s.users.Update(ctx, user)
	if err != nil {
		return domain.User{}, mapRepositoryError(err)
	}
	return saved, nil
}

// ListUsers returns accounts for the back-office.
func (s *userService) ListUsers(ctx context.Context, limit int) ([]domain.User, error) {
	return s.users.List(ctx, limit)
}

// UpdateUser applies admin edits to any account.
func (s *userService) UpdateUser(ctx context.Context, userID string, cmd UpdateProfileCommand) (domain.User, error) {
	return s.UpdateProfile(ctx, userID, cmd)
}

// DeleteUser removes the account.
func (s *userService) DeleteUser(ctx context.Context, userID string) error {
	if err := s.users.Delete(ctx, strings.TrimSpace(userID)); err != nil {
		return mapRepositoryError(err)
	}
	return nil
}

// ListAddresses returns the user's address book.
func (s *userService) ListAddresses(ctx context.Context, userID string) ([]domain.Address, error) {
	return s.addresses.List(ctx, strings.TrimSpace(userID))
}

// CreateAddress stores a new address book entry.
func (s *userService) CreateAddress(ctx context.Context, userID string, addr domain.Address) (domain.Address, error) {
	if err := validateAddress(addr); err != nil {
		return domain.Address{}, err
	}
	saved, err := s.addresses.Insert(ctx, strings.TrimSpace(userID), addr)
	if err != nil {
		return domain.Address{}, mapRepositoryError(err)
	}
	return saved, nil
}

// UpdateAddress overwrites an existing address book entry.
func (s *userService) UpdateAddress(ctx context.Context, userID string, addr domain.Address) (domain.Address, error) {
	if strings.TrimSpace(addr.ID) == "" {
		return domain.Address{}, &ValidationError{Fields: []FieldError{{Field: "id", Message: "is required"}}}
	}
	if err := validateAddress(addr); err != nil {
		return domain.Address{}, err
	}
	saved, err := s.addresses.Update(ctx, strings.TrimSpace(userID), addr)
	if err != nil {
		return domain.Address{}, mapRepositoryError(err)
	}
	return saved, nil
}

// DeleteAddress removes an address book entry.
func (s *userService) DeleteAddress(ctx context.Context, userID string, addressID string) error {
	if err := s.addresses.Delete(ctx, strings.TrimSpace(userID), strings.TrimSpace(addressID)); err != nil {
		return mapRepositoryError(err)
	}
	return nil
}

// SetDefaultAddress promotes the address to the user's single default.
func (s *userService) SetDefaultAddress(ctx context.Context, userID string, addressID string) (domain.Address, error) {
	saved, err := s.addresses.SetDefault(ctx, strings.TrimSpace(userID), strings.TrimSpace(addressID))
	if err != nil {
		return domain.Address{}, mapRepositoryError(err)
	}
	return saved, nil
}

func (s *userService) issueTokens(user domain.User) (AuthResult, error) {
	identity := auth.Identity{
		UserID:       user.ID,
		Role:         string(user.Role),
		TokenVersion: user.TokenVersion,
	}
	access, err := s.tokens.MintAccessToken(identity)
	if err != nil {
		return AuthResult{}, fmt.Errorf("mint access token: %w", err)
	}
	refresh, err := s.tokens.MintRefreshToken(identity)
	if err != nil {
		return AuthResult{}, fmt.Errorf("mint refresh token: %w", err)
	}
	return AuthResult{
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
		RefreshTTL:   s.tokens.RefreshTokenTTL(),
	}, nil
}

func validateAddress(addr domain.Address) error {
	vErr := &ValidationError{}
	if phone := strings.TrimSpace(addr.Phone); phone != "" && (len(phone) < 6 || len(phone) > 20) {
		vErr.Add("phone", "must be between 6 and 20 characters")
	}
	hasLocation := strings.TrimSpace(addr.Address) != "" ||
		strings.TrimSpace(addr.City) != "" ||
		strings.TrimSpace(addr.AddressDescription) != ""
	if !hasLocation {
		vErr.Add("address", "city, address, or description is required")
	}
	return vErr.ErrOrNil()
}
