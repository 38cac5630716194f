package types

import "github.com/golang-jwt/jwt/v4"

type Claims struct {
	Phone string `json:"phone"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}
