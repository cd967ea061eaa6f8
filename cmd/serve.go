package cmd

import (
	"database/sql"
	"fmt"
	"net"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/roadhelper/user-service/app/controller"
	"github.com/roadhelper/user-service/app/mailer"
	"github.com/roadhelper/user-service/app/middleware"
	"github.com/roadhelper/user-service/app/repository"
	"github.com/roadhelper/user-service/app/service"
	"github.com/roadhelper/user-service/app/token"
	"github.com/roadhelper/user-service/app/view"
	"github.com/roadhelper/user-service/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the HTTP (Echo) server for the user account service.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	userRepo := repository.NewUserRepository(db)
	sessions := token.NewSessionIssuer(cfg.JWTSecret, cfg.SessionTokenTTL)
	resets := token.NewResetIssuer(cfg.JWTSecret, cfg.ResetTokenTTL)
	smtpMailer := mailer.NewSMTPMailer(cfg.SMTP)
	userService := service.NewUserService(userRepo, sessions, resets, smtpMailer, cfg.ResetLinkBaseURL)

	startHTTPServer(cfg, userService)
}

func startHTTPServer(cfg *config.Config, userService service.UserService) {
	e := echo.New()
	defer e.Close()
	e.HideBanner = true

	renderer, err := view.NewRenderer()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to parse view templates")
	}
	e.Renderer = renderer

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	userController := controller.NewUserController(userService)
	authMiddleware := middleware.NewAuthMiddleware(userService)

	e.GET("/", userController.List, authMiddleware.RequireAuth)
	e.POST("/register", userController.Register)
	e.POST("/login", userController.Login)
	e.PUT("/updateuser/:id", userController.UpdateUser)
	e.GET("/forgotPassword", userController.ForgotPasswordForm)
	e.POST("/forgotPassword", userController.ForgotPassword)
	e.GET("/password/reset-password/:id/:token", userController.ResetPasswordForm)
	e.POST("/password/reset-password/:id/:token", userController.ResetPassword)

	httpAddr := net.JoinHostPort(cfg.HTTPHost, cfg.HTTPPort)
	logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
	if err := e.Start(httpAddr); err != nil {
		logrus.WithError(err).Fatal("Failed to start HTTP server")
	}
}

func configureLogging(cfg *config.Config) error {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	logrus.SetLevel(level)

	if strings.EqualFold(cfg.LogFormat, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	return nil
}
