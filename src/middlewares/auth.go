package middlewares

import (
	"log"
	"os"
	"strconv"
	"strings"

	"vrober/src/db"
	"vrober/src/models"
	"vrober/src/types"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

func AuthMiddleware(ctx *gin.Context) {
	bearerToken := ctx.Request.Header.Get("Authorization")
	if !strings.HasPrefix(bearerToken, "Bearer") {
		ctx.AbortWithStatus(401)
		return
	}
	reqToken := strings.Split(bearerToken, " ")[1]
	if reqToken == "" {
		ctx.AbortWithStatus(401)
		return
	}
	claims := &types.Claims{}
	tkn, err := jwt.ParseWithClaims(reqToken, claims, func(t *jwt.Token) (any, error) {
		return jwtKey, nil
	})
	if err != nil {
		log.Printf("token error: %s\n", err.Error())
		if err == jwt.ErrSignatureInvalid || err == jwt.ErrTokenMalformed {
			ctx.AbortWithStatus(401)
			return
		}
		ctx.AbortWithError(401, err)
		return
	}
	if !tkn.Valid {
		ctx.AbortWithStatus(401)
		return
	}

	db := db.GetDb()
	uid, err := strconv.Atoi(claims.Subject)
	if err != nil {
		log.Println("error parsing claims:", err.Error())
		ctx.AbortWithStatus(401)
		return
	}

	// Each role lives in its own table; the claim decides which one to check.
	switch claims.Role {
	case types.ROLE_VENDOR:
		var vendor models.Vendor
		db.Model(&models.Vendor{}).Where("id = ?", uint(uid)).Find(&vendor)
		if uint(uid) != vendor.ID || vendor.ID < 1 {
			ctx.AbortWithStatus(401)
			return
		}
		ctx.Set("phone", vendor.Phone)
	case types.ROLE_ADMIN:
		var admin models.Admin
		db.Model(&models.Admin{}).Where("id = ?", uint(uid)).Find(&admin)
		if uint(uid) != admin.ID || admin.ID < 1 {
			ctx.AbortWithStatus(401)
			return
		}
		ctx.Set("email", admin.Email)
	default:
		var user models.User
		db.Model(&models.User{}).Where("id = ?", uint(uid)).Find(&user)
		if uint(uid) != user.ID || user.ID < 1 {
			ctx.AbortWithStatus(401)
			return
		}
		ctx.Set("phone", user.Phone)
	}
	ctx.Set("id", uint(uid))
	ctx.Set("role", claims.Role)
}

// RequireRole guards a route group for one role. Runs after AuthMiddleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.GetString("role") != role {
			ctx.AbortWithStatusJSON(403, gin.H{"error": "insufficient permissions"})
			return
		}
	}
}
