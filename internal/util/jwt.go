package util

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"yatube/config"

	"github.com/dgrijalva/jwt-go"
)

const (
	purposeSession       = "session"
	purposePasswordReset = "password_reset"

	SessionTTL       = 24 * time.Hour
	PasswordResetTTL = 24 * time.Hour
)

var (
	ErrEmptyToken   = errors.New("令牌为空")
	ErrInvalidToken = errors.New("无效的令牌")
)

func GenerateToken(userID int) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"purpose": purposeSession,
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(SessionTTL).Unix(),
	})

	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

func ValidateToken(tokenString string) (int, error) {
	claims, err := parseClaims(tokenString, purposeSession)
	if err != nil {
		return 0, err
	}
	return userIDFromClaims(claims)
}

// GeneratePasswordResetToken 令牌中带有当前密码哈希的指纹，改密后旧链接自动失效
func GeneratePasswordResetToken(userID int, passwordHash string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"purpose": purposePasswordReset,
		"fp":      PasswordFingerprint(passwordHash),
		"exp":     time.Now().Add(PasswordResetTTL).Unix(),
	})

	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

// ValidatePasswordResetToken 返回用户ID和签发时的密码指纹
func ValidatePasswordResetToken(tokenString string) (int, string, error) {
	claims, err := parseClaims(tokenString, purposePasswordReset)
	if err != nil {
		return 0, "", err
	}
	userID, err := userIDFromClaims(claims)
	if err != nil {
		return 0, "", err
	}
	fp, _ := claims["fp"].(string)
	return userID, fp, nil
}

func PasswordFingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:8])
}

func parseClaims(tokenString, purpose string) (jwt.MapClaims, error) {
	if tokenString == "" {
		return nil, ErrEmptyToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("意外的签名算法: %v", token.Header["alg"])
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if p, _ := claims["purpose"].(string); p != purpose {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func userIDFromClaims(claims jwt.MapClaims) (int, error) {
	userID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, errors.New("无效的用户ID")
	}
	return int(userID), nil
}
