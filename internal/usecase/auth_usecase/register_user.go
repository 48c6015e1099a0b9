package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"agritech/internal/domain/model"
	"agritech/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// signup input, already schema-checked by the handler
type RegisterUserInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	Address         string
	PhoneNumber     string
	Role            model.Role
}

type RegisterUserOutput struct {
	User model.User
}

var (
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrRoleNotAllowed     = errors.New("role not allowed")
	ErrEmailAlreadyExists = errors.New("email already exists")
)

const (
	MinPasswordLen = 6
	// original hashing cost of stored accounts
	DefaultBcryptCost = 10
)

type PasswordHasher interface {
	Hash(plain string) (string, error)
}

type Clock interface {
	Now() time.Time
}

type RegisterUserUsecase struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	clock    Clock
}

// DI
func NewRegisterUserUsecase(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	clock Clock,
) *RegisterUserUsecase {
	return &RegisterUserUsecase{
		userRepo: userRepo,
		hasher:   hasher,
		clock:    clock,
	}
}

// Execute creates a Buyer or Seller account. Admins come from CreateAdmin only.
func (u *RegisterUserUsecase) Execute(ctx context.Context, in RegisterUserInput) (RegisterUserOutput, error) {
	role := in.Role
	if role == "" {
		role = model.DefaultRole
	}
	if role != model.RoleBuyer && role != model.RoleSeller {
		return RegisterUserOutput{}, ErrRoleNotAllowed
	}
	return u.create(ctx, in, role)
}

// CreateAdmin is the operator path behind the create-admin command.
func (u *RegisterUserUsecase) CreateAdmin(ctx context.Context, in RegisterUserInput) (RegisterUserOutput, error) {
	return u.create(ctx, in, model.RoleAdmin)
}

func (u *RegisterUserUsecase) create(ctx context.Context, in RegisterUserInput, role model.Role) (RegisterUserOutput, error) {
	var out RegisterUserOutput

	if len(in.Password) < MinPasswordLen {
		return out, ErrPasswordTooShort
	}
	if in.Password != in.ConfirmPassword {
		return out, ErrPasswordMismatch
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))

	existing, err := u.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return out, ErrEmailAlreadyExists
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return out, err
	}

	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return out, err
	}

	now := u.clock.Now()
	user := &model.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        email,
		PasswordHash: hashed,
		Address:      strings.TrimSpace(in.Address),
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := u.userRepo.Create(ctx, user); err != nil {
		// lost a race with a concurrent signup
		if errors.Is(err, repository.ErrDuplicate) {
			return out, ErrEmailAlreadyExists
		}
		return out, err
	}

	out.User = *user
	return out, nil
}

type BcryptPasswordHasher struct {
	cost int
}

// DI
func NewBcryptPasswordHasher(cost int) *BcryptPasswordHasher {
	if cost <= 0 {
		cost = DefaultBcryptCost
	}
	return &BcryptPasswordHasher{cost}
}

func (h *BcryptPasswordHasher) Hash(plain string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

type BcryptPasswordVerifier struct{}

// DI
func NewBcryptPasswordVerifier() *BcryptPasswordVerifier {
	return &BcryptPasswordVerifier{}
}

func (v *BcryptPasswordVerifier) Verify(plain string, hashed string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	return err == nil
}
