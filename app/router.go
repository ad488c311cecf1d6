// Package app wires the dependencies and the HTTP routes together
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/dancarlton/rinsed/app/root"
	"github.com/dancarlton/rinsed/app/user"
	"github.com/dancarlton/rinsed/aws"
	"github.com/dancarlton/rinsed/db"
	"github.com/dancarlton/rinsed/internal"
	"github.com/dancarlton/rinsed/internal/service"
	"github.com/dancarlton/rinsed/internal/store"
	"github.com/dancarlton/rinsed/pkg/middleware"
	"github.com/dancarlton/rinsed/pkg/security"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const jsonBodyLimit = 1 << 20

// New builds the dependencies from the loaded config and starts the
// background cleanups. They stop when ctx is cancelled.
func New(ctx context.Context) (*gin.Engine, error) {
	conn, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	hasher, err := security.NewHasher(viper.GetString("security.hasher"), viper.GetInt("security.bcrypt_cost"))
	if err != nil {
		return nil, err
	}

	d := &internal.Deps{
		DB:     conn,
		Users:  store.NewUserStore(conn),
		Hasher: hasher,
		Mailer: service.NewMailer(),
	}

	if viper.GetBool("storage.enabled") {
		s3, err := aws.NewS3(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client, %w", err)
		}

		d.Avatars = service.NewAvatarService(s3, viper.GetInt64("storage.avatar_max_size"))
	}

	// Check for useless tokens rarely because they expire rarely
	go service.TokenCleanup(ctx, viper.GetDuration("cleanup.token_interval"), d.Users)

	go service.AccountCleanup(ctx, viper.GetDuration("cleanup.account_interval"), viper.GetDuration("cleanup.unverified_ttl"), d.Users, d.Avatars)

	return NewRouter(ctx, d), nil
}

// NewRouter registers every route on a new engine
func NewRouter(ctx context.Context, d *internal.Deps) *gin.Engine {
	router := gin.New()

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     viper.GetStringSlice("host.cors"),
			AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "TurnstileToken"},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		ginzap.RecoveryWithZap(zap.L(), true),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	router.MaxMultipartMemory = viper.GetInt64("storage.avatar_max_size")

	rateLimit := viper.GetInt("security.rate_limit")

	jwt := middleware.NewJWTMiddleware(d.Users, true)
	jwtUnverified := middleware.NewJWTMiddleware(d.Users, false)
	turnstile := middleware.NewTurnstileMiddleware(middleware.TurnstileVerifyURL)
	body := middleware.BodySizeLimiter(jsonBodyLimit)
	rateLimiter := middleware.RateLimiterMiddleware(ctx, middleware.RateLimiterConfig{
		RequestsPerSecond: rateLimit,
		Burst:             rateLimit * 2,
	})

	profiles := persist.NewMemoryStore(time.Minute)

	m := router.Group("/api", rateLimiter)
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		m.HEAD("/heartbeat", root.Heartbeat)

		// GET /api/validate		-> Validates a JWT token
		m.GET("/validate", jwt, root.Validate)
	}

	u := m.Group("/users")
	{
		// POST /api/users 		-> Registers a new user
		u.POST("", body, turnstile, func(c *gin.Context) { user.UserRegister(c, d) })

		// POST /api/users/login 	-> Logs in a user and returns a JWT token
		u.POST("/login", body, func(c *gin.Context) { user.UserLogin(c, d) })

		// POST /api/users/verify	-> Verifies a new user
		u.POST("/verify", func(c *gin.Context) { user.UserVerify(c, d) })

		// POST /api/users/verify/resend -> Mails a new verification link
		u.POST("/verify/resend", jwtUnverified, func(c *gin.Context) { user.UserResendVerification(c, d) })

		// POST /api/users/password/forgot -> Mails a password reset link
		u.POST("/password/forgot", body, turnstile, func(c *gin.Context) { user.UserPasswordForgot(c, d) })

		// POST /api/users/password/reset -> Sets a new password using a reset token
		u.POST("/password/reset", body, func(c *gin.Context) { user.UserPasswordReset(c, d) })

		// GET /api/users/me		-> Returns the authenticated user
		u.GET("/me", jwtUnverified, user.UserMe)

		// PATCH /api/users/me		-> Updates the authenticated user
		u.PATCH("/me", jwt, body, func(c *gin.Context) { user.UserUpdate(c, d) })

		// PUT /api/users/me/avatar	-> Replaces the avatar
		u.PUT("/me/avatar", jwt, middleware.BodySizeLimiter(router.MaxMultipartMemory+jsonBodyLimit), func(c *gin.Context) { user.UserAvatar(c, d) })

		// DELETE /api/users/me 	-> Deletes the authenticated user
		u.DELETE("/me", jwtUnverified, body, func(c *gin.Context) { user.UserDelete(c, d) })

		// GET /api/users/:id		-> Returns the public profile of a user
		u.GET("/:id", cache.CacheByRequestURI(profiles, 30*time.Second), func(c *gin.Context) { user.UserProfile(c, d) })
	}

	return router
}
