package dto

import (
	"errors"
	"strings"
)

type RegisterRequest struct {
	FirstName       string `json:"firstName" form:"firstName"`
	LastName        string `json:"lastName" form:"lastName"`
	Email           string `json:"email" form:"email"`
	Phone           string `json:"phone" form:"phone"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword"`
	IsAdmin         bool   `json:"isAdmin" form:"isAdmin"`
}

func (r *RegisterRequest) Validate() error {
	if strings.TrimSpace(r.FirstName) == "" ||
		strings.TrimSpace(r.LastName) == "" ||
		strings.TrimSpace(r.Email) == "" ||
		strings.TrimSpace(r.Phone) == "" ||
		strings.TrimSpace(r.Password) == "" ||
		strings.TrimSpace(r.ConfirmPassword) == "" {
		return errors.New("all fields are required")
	}
	if strings.TrimSpace(r.Password) != strings.TrimSpace(r.ConfirmPassword) {
		return errors.New("password and confirm password do not match")
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (r *LoginRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || strings.TrimSpace(r.Password) == "" {
		return errors.New("email and password are required")
	}
	return nil
}

type UpdateUserRequest struct {
	FirstName string `json:"firstName" form:"firstName"`
	LastName  string `json:"lastName" form:"lastName"`
	Email     string `json:"email" form:"email"`
	Phone     string `json:"phone" form:"phone"`
}

func (r *UpdateUserRequest) Validate() error {
	if strings.TrimSpace(r.FirstName) == "" ||
		strings.TrimSpace(r.LastName) == "" ||
		strings.TrimSpace(r.Email) == "" ||
		strings.TrimSpace(r.Phone) == "" {
		return errors.New("all fields are required")
	}
	return nil
}

type ForgotPasswordRequest struct {
	Email string `json:"email" form:"email"`
}

func (r *ForgotPasswordRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return errors.New("email is required")
	}
	return nil
}

type ResetPasswordRequest struct {
	Password string `json:"password" form:"password"`
}

func (r *ResetPasswordRequest) Validate() error {
	if strings.TrimSpace(r.Password) == "" {
		return errors.New("password is required")
	}
	return nil
}
