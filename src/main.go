package main

import (
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"regexp"
	"strconv"
	"time"

	"vrober/src/boot"
	"vrober/src/config"
	"vrober/src/db"
	"vrober/src/lib"
	"vrober/src/middlewares"
	"vrober/src/models"
	"vrober/src/types"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	_ "github.com/joho/godotenv/autoload"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	apiPrefix string = "/api/v1"
)

// Service dates must be today or later, judged against midnight in the
// server's configured zone (TZ) rather than UTC. The booking window check
// beyond that lives in the business layer.
var futureDateValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	serviceDate, err := time.ParseInLocation(config.DATE_PARSE_FORMAT, date, time.Local)
	if err != nil {
		return false
	}
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	return !serviceDate.Before(today)
}

func setupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(middlewares.SecureHeaders)
	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, "ok")
	})
	return router
}

func maintenanceModeMiddleware(g *gin.Engine) *gin.Engine {
	g.Use(func(ctx *gin.Context) {
		mm := os.Getenv("MAINTENANCE_MODE")
		atob, err := strconv.ParseBool(mm)
		if err == nil && atob {
			log.Println("server is under maintenance")
			ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, "server is under maintenance")
			return
		}
	})
	return g
}

func apiv1Group(g *gin.Engine) *gin.RouterGroup {
	apiv1 := g.Group(apiPrefix)
	return apiv1
}

func publicRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	authHandlers(apiv1)
	return apiv1
}

func initLogger() {
	cwd, _ := os.Getwd()
	serverLogs := path.Join(cwd, "logs", "server.log")
	apiLogs := path.Join(cwd, "logs", "api.log")
	gin.ForceConsoleColor()

	f, _ := os.Create(apiLogs)
	gin.DefaultWriter = io.MultiWriter(f, os.Stdout)
	log.SetOutput(&lumberjack.Logger{
		Filename:   serverLogs,
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	})
}

func main() {
	apiEnv := os.Getenv("API_ENV")
	if apiEnv == "local" {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil {
			panic(err)
		}
	}
	initLogger()

	boot.InitDb()
	boot.InitScheduler()

	go boot.DownloadSDKFileFromS3()
	go boot.InitBroker()
	go lib.PingRedis()

	router := setupRouter()

	appHost := os.Getenv("APP_HOST")
	if apiEnv == "local" {
		router.Use(cors.Default())
	} else {
		cc := cors.DefaultConfig()
		cc.AllowMethods = append(cc.AllowMethods, "GET", "POST", "PATCH", "PUT", "DELETE", "HEAD")
		cc.AllowHeaders = append(cc.AllowHeaders, "Origin", "Authorization")
		cc.AllowOriginFunc = func(origin string) bool {
			match, _ := regexp.MatchString(`(\w+.?)+\.amazonaws\.com$`, origin)
			if match {
				return true
			}
			match, _ = regexp.MatchString(appHost, origin)
			if match {
				return true
			}
			match, _ = regexp.MatchString("app:mobile", origin)
			return match
		}
		cc.AllowCredentials = true
		cc.AllowAllOrigins = false
		router.Use(cors.New(cc))
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("futuredate", futureDateValidatorFunc)
	}

	router = maintenanceModeMiddleware(router)

	publicRoutes(router)

	catalogHandlers(router)

	cashfreeWebhookRoute(router)

	authorized := router.Group(apiPrefix)
	authorized.Use(middlewares.AuthMiddleware)
	{
		authorized.POST("/fcm", func(ctx *gin.Context) {
			var body struct {
				Token string `json:"token" binding:"required"`
			}
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("[FCM] error: %v\n", err)
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			id := ctx.GetUint("id")
			role := ctx.GetString("role")
			gdb := db.GetDb()
			var err error
			if role == types.ROLE_VENDOR {
				err = gdb.Model(&models.Vendor{}).Where("id = ?", id).Updates(map[string]any{"fcm_token": body.Token}).Error
			} else {
				err = gdb.Model(&models.User{}).Where("id = ?", id).Updates(map[string]any{"fcm_token": body.Token}).Error
			}
			if err != nil {
				log.Printf("[FCM] error storing token: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			ctx.Status(http.StatusOK)
		})

		userGroup := authorized.Group("")
		userGroup.Use(middlewares.RequireRole(types.ROLE_USER))
		bookingHandlers(userGroup)
		paymentHandlers(userGroup)

		vendorGroup := authorized.Group("")
		vendorGroup.Use(middlewares.RequireRole(types.ROLE_VENDOR))
		vendorHandlers(vendorGroup)

		adminGroup := authorized.Group("")
		adminGroup.Use(middlewares.RequireRole(types.ROLE_ADMIN))
		adminHandlers(adminGroup)
	}

	host := os.Getenv("API_HOST")
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "9000"
	}
	addr := host + ":" + port
	log.Printf("Listening on %s\n", addr)
	if err := router.Run(addr); err != nil {
		if sched, serr := lib.GetScheduler(); serr == nil {
			_ = sched.Shutdown()
		}
		log.Fatalf("Error starting server: %s\n", err.Error())
	}
}
