package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/comitanigiacomo/kanso-habit-tracker/internal/core/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	tokenSecret = "token-service-secret"
	tokenIssuer = "kanso"
	tokenUserID = "0b6f8a4e-habit-owner"
)

func TestTokenService_RoundTrip(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("GetByID", mock.Anything, tokenUserID).Return(&domain.User{ID: tokenUserID}, nil).Once()
	svc := NewTokenService(tokenSecret, tokenIssuer, time.Hour, repo)

	signed, err := svc.GenerateToken(tokenUserID)
	require.NoError(t, err)
	assert.Len(t, strings.Split(signed, "."), 3)

	got, err := svc.ValidateToken(context.Background(), signed)
	require.NoError(t, err)
	assert.Equal(t, tokenUserID, got)
	repo.AssertExpectations(t)
}

func TestTokenService_Rejections(t *testing.T) {
	signWith := func(method jwt.SigningMethod, key any, claims jwt.RegisteredClaims) string {
		s, _ := jwt.NewWithClaims(method, claims).SignedString(key)
		return s
	}
	fresh := func(subject, issuer string) jwt.RegisteredClaims {
		return jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
	}

	cases := []struct {
		name    string
		token   func() string
		wantErr error
		detail  string
	}{
		{
			name:    "expired",
			token: func() string {
				c := fresh(tokenUserID, tokenIssuer)
				c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
				return signWith(jwt.SigningMethodHS256, []byte(tokenSecret), c)
			},
			wantErr: jwt.ErrTokenExpired,
		},
		{
			name:    "no expiry claim",
			token: func() string {
				c := fresh(tokenUserID, tokenIssuer)
				c.ExpiresAt = nil
				return signWith(jwt.SigningMethodHS256, []byte(tokenSecret), c)
			},
			wantErr: jwt.ErrTokenRequiredClaimMissing,
		},
		{
			name:    "signed with another key",
			token:   func() string { return signWith(jwt.SigningMethodHS256, []byte("other-"+tokenSecret), fresh(tokenUserID, tokenIssuer)) },
			wantErr: jwt.ErrTokenSignatureInvalid,
		},
		{
			name:    "foreign issuer",
			token:   func() string { return signWith(jwt.SigningMethodHS256, []byte(tokenSecret), fresh(tokenUserID, "someone-else")) },
			wantErr: jwt.ErrTokenInvalidIssuer,
		},
		{
			name:    "alg none",
			token:   func() string { return signWith(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, fresh(tokenUserID, tokenIssuer)) },
			wantErr: ErrInvalidToken,
			detail:  "unexpected signing method",
		},
		{
			name:    "empty subject",
			token:   func() string { return signWith(jwt.SigningMethodHS256, []byte(tokenSecret), fresh("", tokenIssuer)) },
			wantErr: ErrInvalidToken,
			detail:  "missing subject",
		},
		{
			name:    "garbage",
			token:   func() string { return "habit.tracker.token" },
			wantErr: ErrInvalidToken,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			svc := NewTokenService(tokenSecret, tokenIssuer, time.Hour, repo)

			userID, err := svc.ValidateToken(context.Background(), tc.token())

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.ErrorIs(t, err, tc.wantErr)
			if tc.detail != "" {
				assert.Contains(t, err.Error(), tc.detail)
			}
			assert.Empty(t, userID)
			repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		})
	}
}

func TestTokenService_SubjectMustStillExist(t *testing.T) {
	repo := new(MockUserRepository)
	svc := NewTokenService(tokenSecret, tokenIssuer, time.Hour, repo)
	signed, err := svc.GenerateToken(tokenUserID)
	require.NoError(t, err)

	repo.On("GetByID", mock.Anything, tokenUserID).Return(nil, domain.ErrUserNotFound).Once()
	_, err = svc.ValidateToken(context.Background(), signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	repo.On("GetByID", mock.Anything, tokenUserID).Return(nil, errors.New("pool exhausted")).Once()
	_, err = svc.ValidateToken(context.Background(), signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	repo.AssertExpectations(t)
}
