package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"agritech/internal/domain/model"
	repo "agritech/internal/repository"

	"go.uber.org/zap"
)

// hashes a new password on update
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

type UserUsecase struct {
	users  repo.UserRepository
	audit  repo.AuditLogRepository
	hasher PasswordHasher
	clock  Clock
	logger *zap.Logger
}

// DI
func NewUserUsecase(
	users repo.UserRepository,
	audit repo.AuditLogRepository,
	hasher PasswordHasher,
	clock Clock,
	logger *zap.Logger,
) *UserUsecase {
	return &UserUsecase{
		users:  users,
		audit:  audit,
		hasher: hasher,
		clock:  clock,
		logger: logger.With(zap.String("component", "user")),
	}
}

// nil fields are left unchanged
type UpdateUserInput struct {
	Username    *string
	Email       *string
	Password    *string
	Address     *string
	PhoneNumber *string
	Role        *model.Role
}

func (u *UserUsecase) Profile(ctx context.Context, actor Actor) (*model.User, error) {
	return u.Get(ctx, actor.UserID)
}

func (u *UserUsecase) List(ctx context.Context) ([]model.User, error) {
	users, err := u.users.List(ctx)
	if err != nil {
		return nil, NewInternal(err)
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

func (u *UserUsecase) Get(ctx context.Context, id int64) (*model.User, error) {
	if id <= 0 {
		return nil, NewValidationError("invalid user id")
	}
	user, err := u.users.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, NewNotFound("User not found")
	}
	if err != nil {
		return nil, NewInternal(err)
	}
	return user, nil
}

// Update edits the actor's own account, or any account for an admin.
// Only admins may change roles.
func (u *UserUsecase) Update(ctx context.Context, actor Actor, id int64, in UpdateUserInput) (*model.User, error) {
	if id <= 0 {
		return nil, NewValidationError("invalid user id")
	}
	if !actor.IsAdmin() && actor.UserID != id {
		return nil, NewForbidden("you can only update your own account")
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, NewValidationError("invalid role")
		}
		if !actor.IsAdmin() {
			return nil, NewForbidden("only admins can change roles")
		}
	}

	user, err := u.users.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, NewNotFound("User not found")
	}
	if err != nil {
		return nil, NewInternal(err)
	}

	if in.Username != nil {
		user.Username = strings.TrimSpace(*in.Username)
	}
	if in.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.Address != nil {
		user.Address = strings.TrimSpace(*in.Address)
	}
	if in.PhoneNumber != nil {
		user.PhoneNumber = strings.TrimSpace(*in.PhoneNumber)
	}
	if in.Role != nil {
		user.Role = *in.Role
	}
	if in.Password != nil {
		hashed, err := u.hasher.Hash(*in.Password)
		if err != nil {
			return nil, NewInternal(err)
		}
		user.PasswordHash = hashed
	}

	if err := u.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repo.ErrDuplicate):
			return nil, NewValidationError("Email already exists.")
		case errors.Is(err, repo.ErrNotFound):
			return nil, NewNotFound("User not found")
		}
		return nil, NewInternal(err)
	}
	return user, nil
}

// Delete removes an account. Users still referenced by products or orders are kept.
func (u *UserUsecase) Delete(ctx context.Context, actor Actor, id int64) error {
	if !actor.IsAdmin() {
		return NewForbidden("admin only")
	}
	if id <= 0 {
		return NewValidationError("invalid user id")
	}
	if id == actor.UserID {
		return NewValidationError("admins cannot delete themselves")
	}

	user, err := u.users.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return NewNotFound("User not found")
	}
	if err != nil {
		return NewInternal(err)
	}

	if err := u.users.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repo.ErrInUse):
			return NewValidationError("user still has products or orders")
		case errors.Is(err, repo.ErrNotFound):
			return NewNotFound("User not found")
		}
		return NewInternal(err)
	}

	before, _ := json.Marshal(map[string]string{
		"email": user.Email,
		"role":  string(user.Role),
	})
	if err := u.audit.Create(ctx, model.AuditLog{
		ActorUserID:  actor.UserID,
		Action:       model.AuditActionDeleteUser,
		ResourceType: model.AuditResourceUser,
		ResourceID:   id,
		BeforeJSON:   string(before),
		AfterJSON:    `{"deleted":true}`,
		CreatedAt:    u.clock.Now(),
	}); err != nil {
		// the delete already happened
		u.logger.Error("audit log write failed", zap.Int64("user_id", id), zap.Error(err))
	}
	return nil
}
