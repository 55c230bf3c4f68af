package service

import (
	"context"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/taskvault/taskvault/internal/apperr"
	"github.com/taskvault/taskvault/internal/auth"
	"github.com/taskvault/taskvault/internal/dao"
	"github.com/taskvault/taskvault/internal/logging"
	"github.com/taskvault/taskvault/internal/model"
)

// UserService 负责注册/登录/资料/改密的业务规则；dao 只做存取，规则全部在这里。
type UserService struct {
	userDao dao.UserDao
	tokens  *auth.TokenIssuer
}

func NewUserService(userDao dao.UserDao, tokens *auth.TokenIssuer) *UserService {
	return &UserService{userDao: userDao, tokens: tokens}
}

// Register creates a user and returns a session token plus public fields.
func (s *UserService) Register(ctx context.Context, name, email, password string) (string, model.UserPublic, *apperr.Error) {
	var none model.UserPublic
	if name == "" || email == "" || password == "" {
		return "", none, apperr.Validation("All fields are required.")
	}
	if !auth.ValidPasswordLength(password) {
		return "", none, apperr.Validation("Password must be between 8 and 16 characters.")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", none, apperr.Internal(err)
	}
	u := &model.User{ID: model.NewID(), Name: name, Email: email, Password: hash}
	if err := s.userDao.Create(ctx, u); err != nil {
		if dao.IsDuplicateKey(err) {
			return "", none, apperr.Conflict("User with this email already exists.")
		}
		return "", none, apperr.Internal(err)
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return "", none, apperr.Internal(err)
	}
	logging.Info(ctx, "user registered", zap.String("user_id", u.ID))
	return token, u.Public(), nil
}

// Login verifies credentials. Unknown email and wrong password surface the
// exact same error so accounts cannot be enumerated.
func (s *UserService) Login(ctx context.Context, email, password string) (string, model.UserPublic, *apperr.Error) {
	var none model.UserPublic
	if email == "" || password == "" {
		return "", none, apperr.Validation("Email and password are required.")
	}

	u, err := s.userDao.GetByEmail(ctx, email)
	if err != nil {
		if dao.IsNotFound(err) {
			return "", none, apperr.Auth("Invalid email or password.")
		}
		return "", none, apperr.Internal(err)
	}
	if !auth.CheckPassword(u.Password, password) {
		return "", none, apperr.Auth("Invalid email or password.")
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return "", none, apperr.Internal(err)
	}
	logging.Info(ctx, "user logged in", zap.String("user_id", u.ID))
	return token, u.Public(), nil
}

// ResolveIdentity maps a verified token subject back to a stored user.
// Used by the access guard; a vanished user fails.
func (s *UserService) ResolveIdentity(ctx context.Context, userID string) (*model.User, *apperr.Error) {
	u, err := s.userDao.GetByID(ctx, userID)
	if err != nil {
		if dao.IsNotFound(err) {
			return nil, apperr.Auth("User not found.")
		}
		return nil, apperr.Internal(err)
	}
	return u, nil
}

func (s *UserService) CurrentUser(ctx context.Context, userID string) (model.UserProfile, *apperr.Error) {
	u, err := s.userDao.GetByID(ctx, userID)
	if err != nil {
		if dao.IsNotFound(err) {
			return model.UserProfile{}, apperr.NotFound("User not found.")
		}
		return model.UserProfile{}, apperr.Internal(err)
	}
	return u.Profile(), nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID, name, email string) (model.UserProfile, *apperr.Error) {
	var none model.UserProfile
	if name == "" || email == "" || !validEmail(email) {
		return none, apperr.Validation("Please provide a valid name and email.")
	}

	if _, err := s.userDao.GetByID(ctx, userID); err != nil {
		if dao.IsNotFound(err) {
			return none, apperr.NotFound("User not found.")
		}
		return none, apperr.Internal(err)
	}

	taken, err := s.userDao.EmailTakenByOther(ctx, email, userID)
	if err != nil {
		return none, apperr.Internal(err)
	}
	if taken {
		return none, apperr.Conflict("Email already in use by another account.")
	}

	if _, err := s.userDao.UpdateProfile(ctx, userID, name, email); err != nil {
		if dao.IsDuplicateKey(err) {
			// lost a race with another account taking the email
			return none, apperr.Conflict("Email already in use by another account.")
		}
		return none, apperr.Internal(err)
	}
	return model.UserProfile{Name: name, Email: email}, nil
}

func (s *UserService) UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) *apperr.Error {
	if currentPassword == "" || newPassword == "" {
		return apperr.Validation("Current and new password are required.")
	}
	if !auth.ValidPasswordLength(newPassword) {
		return apperr.Validation("New password must be between 8 and 16 characters.")
	}

	u, err := s.userDao.GetByID(ctx, userID)
	if err != nil {
		if dao.IsNotFound(err) {
			return apperr.NotFound("User not found.")
		}
		return apperr.Internal(err)
	}
	if !auth.CheckPassword(u.Password, currentPassword) {
		return apperr.Auth("Current password is incorrect.")
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return apperr.Internal(err)
	}
	if err := s.userDao.UpdatePassword(ctx, userID, hash); err != nil {
		return apperr.Internal(err)
	}
	logging.Info(ctx, "password updated", zap.String("user_id", userID))
	return nil
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	// reject the "Name <addr>" form, only a bare address counts
	return err == nil && addr.Address == strings.TrimSpace(s)
}
