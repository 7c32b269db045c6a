package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/rakarizky/habitlink/internal/dto"
	"github.com/rakarizky/habitlink/internal/model"
	"github.com/rakarizky/habitlink/internal/repository"
	"github.com/rakarizky/habitlink/pkg/apperror"
	"github.com/rakarizky/habitlink/pkg/clock"
	"github.com/rakarizky/habitlink/pkg/mailer"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	resetCodeTTL        = 10 * time.Minute
	resetTokenTTL       = 30 * time.Minute
	resetRequestsPerHr  = 5
	tempPasswordLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	tempPasswordLength  = 12
)

type PasswordResetService interface {
	SendResetCode(ctx context.Context, email string) error
	VerifyResetCode(ctx context.Context, req dto.VerifyResetCodeRequest) (*dto.VerifyResetCodeResponse, error)
	ConfirmReset(ctx context.Context, resetToken string) error
}

type passwordResetService struct {
	userRepo  repository.UserRepository
	resetRepo repository.PasswordResetRepository
	mail      mailer.Mailer
	clk       clock.Clock
}

func NewPasswordResetService(
	userRepo repository.UserRepository,
	resetRepo repository.PasswordResetRepository,
	mail mailer.Mailer,
	clk clock.Clock,
) PasswordResetService {
	return &passwordResetService{
		userRepo:  userRepo,
		resetRepo: resetRepo,
		mail:      mail,
		clk:       clk,
	}
}

func (s *passwordResetService) SendResetCode(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: no account with that email", apperror.ErrNotFound)
		}
		return err
	}

	now := s.clk.Now()
	recent, err := s.resetRepo.CountByEmailSince(ctx, email, now.Add(-time.Hour))
	if err != nil {
		return err
	}
	if recent >= resetRequestsPerHr {
		return fmt.Errorf("%w: too many reset requests, try again later", apperror.ErrValidation)
	}

	// A new code supersedes any outstanding one.
	outstanding, err := s.resetRepo.FindUnusedByEmail(ctx, email)
	if err != nil {
		return err
	}
	for _, old := range outstanding {
		old.IsUsed = true
		if err := s.resetRepo.Save(ctx, old); err != nil {
			return err
		}
	}

	code, err := generateResetCode()
	if err != nil {
		return err
	}
	token := &model.PasswordResetToken{
		Email:     email,
		Code:      code,
		ExpiresAt: now.Add(resetCodeTTL),
	}
	if err := s.resetRepo.Create(ctx, token); err != nil {
		return err
	}

	if err := s.mail.SendPasswordResetCode(email, user.Nickname, code); err != nil {
		return fmt.Errorf("%w: could not send reset email", apperror.ErrInternal)
	}
	return nil
}

func (s *passwordResetService) VerifyResetCode(ctx context.Context, req dto.VerifyResetCodeRequest) (*dto.VerifyResetCodeResponse, error) {
	now := s.clk.Now()
	token, err := s.resetRepo.FindValidByEmailAndCode(ctx, req.Email, req.Code, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invalid or expired reset code", apperror.ErrValidation)
		}
		return nil, err
	}

	resetToken, err := generateResetToken()
	if err != nil {
		return nil, err
	}
	token.ResetToken = &resetToken
	token.ExpiresAt = now.Add(resetTokenTTL)
	if err := s.resetRepo.Save(ctx, token); err != nil {
		return nil, err
	}

	return &dto.VerifyResetCodeResponse{ResetToken: resetToken}, nil
}

func (s *passwordResetService) ConfirmReset(ctx context.Context, resetToken string) error {
	token, err := s.resetRepo.FindUnusedByResetToken(ctx, resetToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: invalid reset token", apperror.ErrValidation)
		}
		return err
	}
	now := s.clk.Now()
	if token.IsExpired(now) {
		return fmt.Errorf("%w: reset token expired", apperror.ErrValidation)
	}

	user, err := s.userRepo.FindByEmail(ctx, token.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: account no longer exists", apperror.ErrNotFound)
		}
		return err
	}

	tempPassword, err := generateTempPassword()
	if err != nil {
		return err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = string(hashed)
	if err := s.userRepo.Save(ctx, user); err != nil {
		return err
	}

	token.IsUsed = true
	if err := s.resetRepo.Save(ctx, token); err != nil {
		return err
	}

	if err := s.mail.SendTemporaryPassword(user.Email, user.Nickname, tempPassword); err != nil {
		return fmt.Errorf("%w: could not send temporary password email", apperror.ErrInternal)
	}
	return nil
}

func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func generateResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func generateTempPassword() (string, error) {
	buf := make([]byte, tempPasswordLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(tempPasswordLetters))))
		if err != nil {
			return "", err
		}
		buf[i] = tempPasswordLetters[n.Int64()]
	}
	return string(buf), nil
}
