package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/roadhelper/user-service/app/dto"
	"github.com/roadhelper/user-service/app/service"
	"github.com/roadhelper/user-service/app/token"
)

type UserController struct {
	userService service.UserService
}

func NewUserController(userService service.UserService) *UserController {
	return &UserController{userService: userService}
}

func (c *UserController) List(ctx echo.Context) error {
	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))
	page, _ := strconv.Atoi(ctx.QueryParam("page"))

	users, err := c.userService.ListUsers(ctx.Request().Context(), limit, page)
	if err != nil {
		logrus.WithError(err).Error("List users failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	payload := make([]dto.UserPayload, 0, len(users))
	for _, user := range users {
		payload = append(payload, dto.NewUserPayload(user))
	}

	return ctx.JSON(http.StatusOK, dto.ListUsersResponse{Users: payload})
}

func (c *UserController) Register(ctx echo.Context) error {
	var req dto.RegisterRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind register request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if err := req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Register validation failed")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	logrus.WithField("email", req.Email).Info("Register request received")
	user, sessionToken, err := c.userService.Register(ctx.Request().Context(), service.RegisterFields{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
		IsAdmin:   req.IsAdmin,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			logrus.WithField("email", req.Email).Warn("Register failed: user already exists")
			return ctx.JSON(http.StatusConflict, dto.ErrorResponse{Error: "user already exists"})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Register failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("User registered")

	payload := dto.NewUserPayload(user)
	payload.Token = sessionToken
	return ctx.JSON(http.StatusOK, dto.RegisterResponse{User: payload})
}

func (c *UserController) Login(ctx echo.Context) error {
	var req dto.LoginRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind login request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if err := req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Login validation failed")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	logrus.WithField("email", req.Email).Info("Login request received")
	sessionToken, err := c.userService.Login(ctx.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			logrus.WithField("email", req.Email).Warn("Login failed: user not found")
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "user not found"})
		}
		if errors.Is(err, service.ErrInvalidCredentials) {
			logrus.WithField("email", req.Email).Warn("Login failed: invalid credentials")
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "email or password is incorrect"})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Login failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("email", req.Email).Info("Login successful")
	return ctx.JSON(http.StatusOK, dto.LoginResponse{Token: sessionToken})
}

func (c *UserController) UpdateUser(ctx echo.Context) error {
	userID := ctx.Param("id")

	var req dto.UpdateUserRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind update user request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if err := req.Validate(); err != nil {
		logrus.WithField("user_id", userID).Debug("Update user validation failed")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	logrus.WithField("user_id", userID).Info("Update user request received")
	_, err := c.userService.UpdateProfile(ctx.Request().Context(), userID, service.ProfileFields{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			logrus.WithField("user_id", userID).Warn("Update user failed: user not found")
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "user not found"})
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Update user failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("user_id", userID).Info("User updated")
	return ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "the user has been updated successfully"})
}

func (c *UserController) ForgotPasswordForm(ctx echo.Context) error {
	return ctx.Render(http.StatusOK, "forgot-password.html", nil)
}

func (c *UserController) ForgotPassword(ctx echo.Context) error {
	var req dto.ForgotPasswordRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind forgot password request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if err := req.Validate(); err != nil {
		logrus.Debug("Forgot password validation failed")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	logrus.WithField("email", req.Email).Info("Password reset requested")
	if err := c.userService.RequestPasswordReset(ctx.Request().Context(), req.Email); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			logrus.WithField("email", req.Email).Warn("Password reset requested for unknown email")
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "user not found"})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Request password reset failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("email", req.Email).Info("Password reset link dispatched")
	return ctx.Render(http.StatusOK, "link-sent.html", nil)
}

func (c *UserController) ResetPasswordForm(ctx echo.Context) error {
	userID := ctx.Param("id")
	resetToken := ctx.Param("token")

	user, err := c.userService.VerifyResetToken(ctx.Request().Context(), userID, resetToken)
	if err != nil {
		return c.resetError(ctx, userID, err, "Reset password form")
	}

	return ctx.Render(http.StatusOK, "reset-password.html", map[string]any{"Email": user.Email})
}

func (c *UserController) ResetPassword(ctx echo.Context) error {
	userID := ctx.Param("id")
	resetToken := ctx.Param("token")

	var req dto.ResetPasswordRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind reset password request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if err := req.Validate(); err != nil {
		logrus.WithField("user_id", userID).Debug("Reset password validation failed")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	logrus.WithField("user_id", userID).Info("Reset password request received")
	if err := c.userService.ConfirmPasswordReset(ctx.Request().Context(), userID, resetToken, req.Password); err != nil {
		return c.resetError(ctx, userID, err, "Reset password")
	}

	logrus.WithField("user_id", userID).Info("Password reset successful")
	return ctx.Render(http.StatusOK, "success-password.html", nil)
}

func (c *UserController) resetError(ctx echo.Context, userID string, err error, op string) error {
	if errors.Is(err, service.ErrUserNotFound) {
		logrus.WithField("user_id", userID).Warn(op + " failed: user not found")
		return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "user not found"})
	}
	if errors.Is(err, token.ErrResetTokenExpired) {
		logrus.WithField("user_id", userID).Warn(op + " failed: token expired")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "reset token has expired"})
	}
	if errors.Is(err, token.ErrResetTokenInvalid) {
		logrus.WithField("user_id", userID).Warn(op + " failed: invalid token")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid reset token"})
	}
	logrus.WithError(err).WithField("user_id", userID).Error(op + " failed")
	return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
}
