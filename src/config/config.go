package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/tidwall/gjson"
)

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

const TIME_PARSE_FORMAT = "2006-01-02 15:04:05 -07:00"
const DATE_PARSE_FORMAT = "2006-01-02"

var API_ENV = os.Getenv("API_ENV")

// CashfreeConfig holds the payment gateway credentials. Locally these come
// from env vars; in production the secret is read from Secrets Manager.
type CashfreeConfig struct {
	ClientID     string
	ClientSecret string
	Environment  string
	APIVersion   string
}

func (c CashfreeConfig) BaseURL() string {
	if c.Environment == "production" {
		return "https://api.cashfree.com/pg"
	}
	return "https://sandbox.cashfree.com/pg"
}

var (
	cashfreeCfg  *CashfreeConfig
	cashfreeOnce sync.Once
)

func GetCashfreeConfig() CashfreeConfig {
	cashfreeOnce.Do(func() {
		cfg := &CashfreeConfig{
			ClientID:     os.Getenv("CASHFREE_CLIENT_ID"),
			ClientSecret: os.Getenv("CASHFREE_CLIENT_SECRET"),
			Environment:  os.Getenv("CASHFREE_ENVIRONMENT"),
			APIVersion:   "2023-08-01",
		}
		if os.Getenv("API_ENV") == "production" {
			if secret, err := getSecretValue(os.Getenv("CASHFREE_SECRET_NAME")); err != nil {
				log.Printf("[config] Error reading gateway secret: %s\n", err.Error())
			} else {
				cfg.ClientID = gjson.Get(secret, "clientId").String()
				cfg.ClientSecret = gjson.Get(secret, "clientSecret").String()
			}
		}
		cashfreeCfg = cfg
	})
	return *cashfreeCfg
}

// NewCashfreeConfig Replace the gateway config. Used by tests.
func NewCashfreeConfig(c CashfreeConfig) {
	cashfreeOnce.Do(func() {})
	cashfreeCfg = &c
}

func getSecretValue(name string) (string, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		return "", err
	}
	client := secretsmanager.NewFromConfig(cfg)
	out, err := client.GetSecretValue(context.Background(), &secretsmanager.GetSecretValueInput{
		SecretId: &name,
	})
	if err != nil {
		return "", err
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", name)
	}
	return *out.SecretString, nil
}

// OTPConfig controls one-time password issuance for the phone login flow.
type OTPConfig struct {
	Length      int
	TTL         time.Duration
	MaxAttempts int
}

func GetOTPConfig() OTPConfig {
	cfg := OTPConfig{Length: 6, TTL: 5 * time.Minute, MaxAttempts: 5}
	if v := os.Getenv("OTP_TTL_MINUTES"); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m > 0 {
			cfg.TTL = time.Duration(m) * time.Minute
		}
	}
	if v := os.Getenv("OTP_MAX_ATTEMPTS"); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m > 0 {
			cfg.MaxAttempts = m
		}
	}
	return cfg
}

// PaymentExpiryWindow is how long a gateway order may stay CREATED or ACTIVE
// before the sweep re-verifies and expires it.
func PaymentExpiryWindow() time.Duration {
	if v := os.Getenv("PAYMENT_EXPIRY_MINUTES"); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m > 0 {
			return time.Duration(m) * time.Minute
		}
	}
	return 30 * time.Minute
}
