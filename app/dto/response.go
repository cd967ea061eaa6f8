package dto

import "github.com/roadhelper/user-service/app/entity"

type UserPayload struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Token     string `json:"token,omitempty"`
}

func NewUserPayload(user *entity.User) UserPayload {
	return UserPayload{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Phone:     user.Phone,
	}
}

type RegisterResponse struct {
	User UserPayload `json:"user"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type ListUsersResponse struct {
	Users []UserPayload `json:"users"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
