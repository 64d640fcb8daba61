package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"

	"refugio/internal/cache"
	"refugio/internal/media"
	"refugio/internal/middleware"
	"refugio/internal/models"
	"refugio/internal/repository"
	"refugio/internal/validation"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Username         string
	Email            string
	Password         string
	FirstName        string
	LastName         string
	RecibirNovedades bool
	FotoPerfil       *Upload
}

// ProfileInput carries the fields a user may change on their own profile.
// Nil pointers leave the current value untouched.
type ProfileInput struct {
	Email            *string
	FirstName        *string
	LastName         *string
	RecibirNovedades *bool
	Password         *string
	FotoPerfil       *Upload
}

// UserService manages accounts: registration, authentication, profile
// changes and the password-reset flow.
type UserService struct {
	users    repository.UserRepository
	store    media.Store
	notifier *Notifier
	rdb      *redis.Client
}

// NewUserService creates a UserService. rdb may be nil; password reset then
// reports the mail system unavailable.
func NewUserService(users repository.UserRepository, store media.Store, notifier *Notifier, rdb *redis.Client) *UserService {
	return &UserService{users: users, store: store, notifier: notifier, rdb: rdb}
}

// Register creates an account and sends the welcome email.
func (s *UserService) Register(ctx context.Context, in RegisterInput, skipNotifications bool) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:         in.Username,
		Email:            in.Email,
		Password:         string(hash),
		FirstName:        strings.TrimSpace(in.FirstName),
		LastName:         strings.TrimSpace(in.LastName),
		RecibirNovedades: in.RecibirNovedades,
	}

	if in.FotoPerfil != nil {
		key, err := s.store.Save(ctx, media.FolderPerfiles, in.FotoPerfil.Filename, in.FotoPerfil.Content)
		if err != nil {
			return nil, models.NewUpstreamError("media store", err)
		}
		user.FotoPerfilKey = key
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, models.NewConflictError("El nombre de usuario o el email ya están registrados")
		}
		return nil, models.NewInternalError(err)
	}
	s.resolve(user)

	if !skipNotifications {
		s.notifier.Welcome(user)
	}
	return user, nil
}

// Authenticate verifies credentials and returns the account. The error is
// the same whether the user is unknown or the password wrong.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, models.NewUnauthorizedError("Usuario o contraseña incorrectos")
		}
		return nil, models.NewInternalError(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, models.NewUnauthorizedError("Usuario o contraseña incorrectos")
	}
	s.resolve(user)
	return user, nil
}

// Get returns one account.
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, models.NewNotFoundError("Usuario", id)
		}
		return nil, models.NewInternalError(err)
	}
	s.resolve(user)
	return user, nil
}

// UpdateProfile applies partial changes to the caller's own account. A new
// avatar replaces and removes the previous one.
func (s *UserService) UpdateProfile(ctx context.Context, id uint, in ProfileInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, models.NewNotFoundError("Usuario", id)
		}
		return nil, models.NewInternalError(err)
	}

	if in.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*in.Email))
		if err := validation.ValidateEmail(email); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Email = email
	}
	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.RecibirNovedades != nil {
		user.RecibirNovedades = *in.RecibirNovedades
	}
	if in.Password != nil {
		if err := validation.ValidatePassword(*in.Password); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		user.Password = string(hash)
	}

	oldKey := user.FotoPerfilKey
	if in.FotoPerfil != nil {
		key, err := s.store.Save(ctx, media.FolderPerfiles, in.FotoPerfil.Filename, in.FotoPerfil.Content)
		if err != nil {
			return nil, models.NewUpstreamError("media store", err)
		}
		user.FotoPerfilKey = key
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, models.NewConflictError("El email ya está registrado")
		}
		return nil, models.NewInternalError(err)
	}

	if in.FotoPerfil != nil && oldKey != "" && oldKey != user.FotoPerfilKey {
		if err := s.store.Delete(ctx, oldKey); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to remove replaced profile photo",
				slog.String("key", oldKey), slog.String("error", err.Error()))
		}
	}

	s.resolve(user)
	return user, nil
}

// Delete removes an account, its comments and adoption requests, and its
// stored avatar. Users may delete themselves; staff may delete anyone.
func (s *UserService) Delete(ctx context.Context, actorID uint, actorIsStaff bool, id uint) error {
	if actorID != id && !actorIsStaff {
		return models.NewForbiddenError("No puedes eliminar otras cuentas")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.NewNotFoundError("Usuario", id)
		}
		return models.NewInternalError(err)
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return models.NewInternalError(err)
	}

	if user.FotoPerfilKey != "" {
		if err := s.store.Delete(ctx, user.FotoPerfilKey); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to remove deleted profile photo",
				slog.String("key", user.FotoPerfilKey), slog.String("error", err.Error()))
		}
	}
	return nil
}

// RequestPasswordReset issues a single-use token and mails the reset link.
// An unknown email returns success so the endpoint does not leak which
// addresses exist.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return models.NewInternalError(err)
	}
	if s.rdb == nil {
		return models.NewUpstreamError("password reset", errors.New("token store unavailable"))
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return models.NewInternalError(err)
	}
	token := hex.EncodeToString(buf)

	if err := s.rdb.Set(ctx, cache.ResetTokenKey(token), user.ID, cache.ResetTokenTTL).Err(); err != nil {
		return models.NewUpstreamError("password reset", err)
	}

	s.notifier.PasswordReset(user, token)
	return nil
}

// ResetPassword consumes a reset token and sets the new password.
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := validation.ValidatePassword(newPassword); err != nil {
		return models.NewValidationError(err.Error())
	}
	if s.rdb == nil {
		return models.NewUpstreamError("password reset", errors.New("token store unavailable"))
	}

	userID, err := s.rdb.GetDel(ctx, cache.ResetTokenKey(token)).Uint64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.NewValidationError("El enlace de restablecimiento no es válido o ha caducado")
		}
		return models.NewUpstreamError("password reset", err)
	}

	user, err := s.users.GetByID(ctx, uint(userID))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.NewValidationError("El enlace de restablecimiento no es válido o ha caducado")
		}
		return models.NewInternalError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	user.Password = string(hash)
	if err := s.users.Update(ctx, user); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *UserService) resolve(user *models.User) {
	user.FotoPerfilURL = s.store.URL(user.FotoPerfilKey)
}
