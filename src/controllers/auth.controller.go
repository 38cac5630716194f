package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"vrober/src/config"
	"vrober/src/db"
	"vrober/src/lib"
	"vrober/src/models"
	"vrober/src/types"
	"vrober/src/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func otpKey(role, phone string) string {
	return fmt.Sprintf("otp:%s:%s", role, phone)
}

func otpAttemptsKey(role, phone string) string {
	return fmt.Sprintf("otp:attempts:%s:%s", role, phone)
}

// RequestOTP issues a one-time password for a phone number and delivers it
// over SMS in production. The code lives in redis for the configured TTL.
func RequestOTP(ctx *gin.Context) (status int, err error) {
	var body types.RequestOTPRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return http.StatusBadRequest, err
	}
	role := body.Role
	if role == "" {
		role = types.ROLE_USER
	}
	cfg := config.GetOTPConfig()
	rd := lib.GetRedisClient()

	attempts, err := rd.Incr(context.Background(), otpAttemptsKey(role, body.Phone)).Result()
	if err != nil {
		log.Printf("[auth] Error tracking OTP attempts: %s\n", err.Error())
		return http.StatusInternalServerError, errors.New("could not issue code")
	}
	if attempts == 1 {
		rd.Expire(context.Background(), otpAttemptsKey(role, body.Phone), time.Hour)
	}
	if attempts > int64(cfg.MaxAttempts) {
		return http.StatusTooManyRequests, errors.New("too many OTP requests, try again later")
	}

	otp, err := utils.GenerateOTP(cfg.Length)
	if err != nil {
		return http.StatusInternalServerError, errors.New("could not issue code")
	}
	if err := rd.Set(context.Background(), otpKey(role, body.Phone), otp, cfg.TTL).Err(); err != nil {
		log.Printf("[auth] Error storing OTP: %s\n", err.Error())
		return http.StatusInternalServerError, errors.New("could not issue code")
	}

	if config.API_ENV == string(types.Production) {
		message := fmt.Sprintf("Your Vrober verification code is %s. Valid for %d minutes.", otp, int(cfg.TTL.Minutes()))
		if err := lib.SNSPublishSMS(fmt.Sprintf("+91%s", body.Phone), message); err != nil {
			return http.StatusInternalServerError, errors.New("could not deliver code")
		}
	} else {
		log.Printf("[auth] OTP for %s: %s\n", utils.MaskPhone(body.Phone), otp)
	}
	return http.StatusOK, nil
}

// VerifyOTP exchanges a valid code for a JWT, creating the account on first
// login.
func VerifyOTP(ctx *gin.Context) (token *string, status int, err error) {
	var body types.VerifyOTPRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	role := body.Role
	if role == "" {
		role = types.ROLE_USER
	}
	rd := lib.GetRedisClient()
	stored, err := rd.Get(context.Background(), otpKey(role, body.Phone)).Result()
	if err != nil || stored == "" || !utils.SecureCompare(body.OTP, stored) {
		return nil, http.StatusUnauthorized, errors.New("invalid or expired code")
	}
	rd.Del(context.Background(), otpKey(role, body.Phone))
	rd.Del(context.Background(), otpAttemptsKey(role, body.Phone))

	gdb := db.GetDb()
	var id uint
	var phone string
	err = gdb.Transaction(func(tx *gorm.DB) error {
		if role == types.ROLE_VENDOR {
			var vendor models.Vendor
			err := tx.Where("phone = ?", body.Phone).First(&vendor).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				vendor = models.Vendor{Phone: body.Phone, Name: body.Name}
				if err := tx.Create(&vendor).Error; err != nil {
					return err
				}
			} else if err != nil {
				return err
			}
			id = vendor.ID
			phone = vendor.Phone
			return nil
		}
		var user models.User
		err := tx.Where("phone = ?", body.Phone).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = models.User{Phone: body.Phone, Name: body.Name, Role: types.ROLE_USER}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		id = user.ID
		phone = user.Phone
		return nil
	})
	if err != nil {
		log.Printf("[auth] Error resolving account for %s: %s\n", utils.MaskPhone(body.Phone), err.Error())
		return nil, http.StatusInternalServerError, errors.New("could not complete login")
	}

	jwt, err := utils.GenerateJWT(id, phone, role)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return &jwt, http.StatusOK, nil
}

func AdminLogin(ctx *gin.Context) (token *string, status int, err error) {
	var body types.AdminLoginRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	gdb := db.GetDb()
	var admin models.Admin
	if err := gdb.Where("email = ?", body.Email).First(&admin).Error; err != nil {
		return nil, http.StatusUnauthorized, errors.New("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(body.Password)); err != nil {
		return nil, http.StatusUnauthorized, errors.New("invalid credentials")
	}
	jwt, err := utils.GenerateJWT(admin.ID, admin.Email, types.ROLE_ADMIN)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return &jwt, http.StatusOK, nil
}
