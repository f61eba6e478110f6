package auth

import (
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"marketplace-backend/internal/apperrors"
	"marketplace-backend/internal/config"
)

// PurposeReset marks the short-lived single-purpose token mailed out by the
// password-reset flow; it is never accepted as an access token.
const PurposeReset = "password_reset"

// PurposeRefresh marks the refresh token of an access/refresh pair.
const PurposeRefresh = "refresh"

type Claims struct {
	Purpose string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs tokens with the private key; verification only needs the
// public half, so it never requires the issuing secret.
type Issuer struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
}

func NewIssuer(cfg config.Token) (*Issuer, error) {
	privPEM, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	pubPEM, err := os.ReadFile(cfg.PublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privPEM)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(pubPEM)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	return NewIssuerFromKeys(privateKey, publicKey,
		time.Duration(cfg.AccessTTLMin)*time.Minute,
		time.Duration(cfg.RefreshTTLMin)*time.Minute,
		time.Duration(cfg.ResetTTLMin)*time.Minute), nil
}

func NewIssuerFromKeys(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, accessTTL, refreshTTL, resetTTL time.Duration) *Issuer {
	return &Issuer{
		privateKey: privateKey,
		publicKey:  publicKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		resetTTL:   resetTTL,
	}
}

// Generate issues an access token for the user: sub=email, iss=user id, a
// fresh jti for targeted blacklisting, and an absolute expiry.
func (i *Issuer) Generate(userID, email string) (string, *Claims, error) {
	return i.sign(userID, email, "", i.accessTTL)
}

// GenerateRefresh issues the longer-lived refresh token of a pair.
func (i *Issuer) GenerateRefresh(userID, email string) (string, *Claims, error) {
	return i.sign(userID, email, PurposeRefresh, i.refreshTTL)
}

// GenerateReset issues the single-purpose reset token.
func (i *Issuer) GenerateReset(userID, email string) (string, *Claims, error) {
	return i.sign(userID, email, PurposeReset, i.resetTTL)
}

func (i *Issuer) sign(userID, email, purpose string, ttl time.Duration) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   email,
			Issuer:    userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(i.privateKey)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, claims, nil
}

// Parse verifies signature and expiry and fails closed: a malformed payload,
// an expired token, a wrong signing method and a signature mismatch all
// collapse into the same invalid-token error.
func (i *Issuer) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return i.publicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}

// ParseAccess rejects tokens carrying any special purpose.
func (i *Issuer) ParseAccess(tokenStr string) (*Claims, error) {
	claims, err := i.Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != "" {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}

// ParseRefresh accepts only the refresh half of a pair.
func (i *Issuer) ParseRefresh(tokenStr string) (*Claims, error) {
	claims, err := i.Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != PurposeRefresh {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}

// ParseReset accepts only the reset-purpose token.
func (i *Issuer) ParseReset(tokenStr string) (*Claims, error) {
	claims, err := i.Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != PurposeReset {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}
