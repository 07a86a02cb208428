package service

import (
	"crypto/subtle"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/zahlentech/str8up_server/config"
	"github.com/zahlentech/str8up_server/internal/model/dto"
	"github.com/zahlentech/str8up_server/internal/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAdminDisabled      = errors.New("admin account is not configured")
)

type AdminService struct {
	cfg *config.Config
	now func() time.Time
}

func NewAdminService(cfg *config.Config) *AdminService {
	return &AdminService{cfg: cfg, now: time.Now}
}

// Login checks the back-office credentials and issues a token.
func (s *AdminService) Login(req *dto.AdminLoginRequest) (*dto.AdminLoginResponse, error) {
	admin := s.cfg.Admin
	if admin.Username == "" || admin.PasswordHash == "" {
		return nil, ErrAdminDisabled
	}

	if subtle.ConstantTimeCompare([]byte(req.Username), []byte(admin.Username)) != 1 {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := jwt.GenerateToken(admin.Username, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		return nil, err
	}

	expiresAt := s.now().Add(time.Duration(s.cfg.JWT.ExpireHours) * time.Hour)
	return &dto.AdminLoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.Format(time.RFC3339),
	}, nil
}
