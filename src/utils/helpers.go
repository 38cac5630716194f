package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"vrober/src/types"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

func GenerateJWT(id uint, phone string, role string) (string, error) {
	now := time.Now()
	claims := types.Claims{
		Phone: phone,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", id),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(7 * 24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey)
}

// WithSuffix appends the environment to a queue or topic name so local,
// test and production traffic never share a channel.
func WithSuffix(name string) string {
	env := os.Getenv("API_ENV")
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("%s-%s", name, env)
}

// GenerateOrderID builds a gateway order id of the form
// ORDER_<millis>_<payer suffix><entropy>. The uuid fragment keeps ids unique
// when one payer creates two orders in the same millisecond.
func GenerateOrderID(userID uint) string {
	suffix := fmt.Sprintf("%06d", userID%1000000)
	entropy := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("ORDER_%d_%s%s", time.Now().UnixMilli(), suffix, entropy)
}

func GenerateOTP(length int) (string, error) {
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

// SecureCompare reports whether two secrets match without leaking their
// length or content through timing. OTP checks go through this.
func SecureCompare(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func MaskPhone(phone string) string {
	if len(phone) < 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}

func Slugify(name string) string {
	return slug.Make(name)
}
