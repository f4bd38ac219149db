package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword generates a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPasswordHash compares a password with a bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// AdminPassword 房管密码，配置值以 $2 开头时视为 bcrypt 哈希
type AdminPassword struct {
	secret string
}

func NewAdminPassword(secret string) *AdminPassword {
	return &AdminPassword{secret: secret}
}

// Verify 校验输入的密码，空密码永远失败
func (a *AdminPassword) Verify(input string) bool {
	if a.secret == "" || input == "" {
		return false
	}
	if strings.HasPrefix(a.secret, "$2") {
		return CheckPasswordHash(input, a.secret)
	}
	return subtle.ConstantTimeCompare([]byte(input), []byte(a.secret)) == 1
}
