package utils

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateOrderID(t *testing.T) {
	id := GenerateOrderID(42)
	assert.True(t, strings.HasPrefix(id, "ORDER_"))

	parts := strings.Split(id, "_")
	assert.Len(t, parts, 3)
	assert.Equal(t, "000042", parts[2][:6])

	other := GenerateOrderID(42)
	assert.NotEqual(t, id, other)
}

func TestGenerateOTP(t *testing.T) {
	otp, err := GenerateOTP(6)
	assert.Nil(t, err)
	assert.Len(t, otp, 6)
	for _, c := range otp {
		assert.True(t, c >= '0' && c <= '9')
	}
}

func TestWithSuffix(t *testing.T) {
	os.Unsetenv("API_ENV")
	assert.Equal(t, "PaymentChecks-local", WithSuffix("PaymentChecks"))

	os.Setenv("API_ENV", "production")
	assert.Equal(t, "Emails-production", WithSuffix("Emails"))
	os.Unsetenv("API_ENV")
}

func TestSecureCompare(t *testing.T) {
	assert.True(t, SecureCompare("482913", "482913"))
	assert.False(t, SecureCompare("482913", "482914"))
	assert.False(t, SecureCompare("4829", "482913"))
	assert.False(t, SecureCompare("", "482913"))
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "******7890", MaskPhone("1234567890"))
	assert.Equal(t, "****", MaskPhone("12"))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "deep-home-cleaning", Slugify("Deep Home Cleaning"))
}
