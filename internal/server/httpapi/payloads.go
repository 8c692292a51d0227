package httpapi

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/avolkovs/runbase/internal/server/accounts"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type registrationRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password1 string `json:"password1" validate:"required"`
	Password2 string `json:"password2" validate:"required"`
	FullName  string `json:"full_name"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userUpdateRequest struct {
	Email     *string `json:"email" validate:"omitempty,email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

type changePasswordRequest struct {
	OldPassword  string `json:"old_password" validate:"required"`
	NewPassword1 string `json:"new_password1" validate:"required"`
	NewPassword2 string `json:"new_password2" validate:"required"`
}

type passwordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type passwordResetConfirmRequest struct {
	Token        string `json:"token" validate:"required"`
	NewPassword1 string `json:"new_password1" validate:"required"`
	NewPassword2 string `json:"new_password2" validate:"required"`
}

type userDetailResponse struct {
	PK         string     `json:"pk"`
	Email      string     `json:"email"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	DateJoined time.Time  `json:"date_joined"`
	LastLogin  *time.Time `json:"last_login"`
	IsActive   bool       `json:"is_active"`
}

func newUserDetailResponse(u *accounts.User) userDetailResponse {
	return userDetailResponse{
		PK:         u.ID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		DateJoined: u.DateJoined,
		LastLogin:  u.LastLogin,
		IsActive:   u.IsActive,
	}
}

type profileResponse struct {
	PK            string     `json:"pk"`
	Email         string     `json:"email"`
	FullName      string     `json:"full_name"`
	PreferredName string     `json:"preferred_name"`
	DateJoined    time.Time  `json:"date_joined"`
	LastLogin     *time.Time `json:"last_login"`
	IsActive      bool       `json:"is_active"`
}

func newProfileResponse(u *accounts.User) profileResponse {
	return profileResponse{
		PK:            u.ID,
		Email:         u.Email,
		FullName:      u.FullName,
		PreferredName: u.PreferredName,
		DateJoined:    u.DateJoined,
		LastLogin:     u.LastLogin,
		IsActive:      u.IsActive,
	}
}

type statsResponse struct {
	UserID     string     `json:"user_id"`
	Email      string     `json:"email"`
	DateJoined time.Time  `json:"date_joined"`
	LastLogin  *time.Time `json:"last_login"`
	IsStaff    bool       `json:"is_staff"`
	IsActive   bool       `json:"is_active"`
}

func newStatsResponse(u *accounts.User) statsResponse {
	return statsResponse{
		UserID:     u.ID,
		Email:      u.Email,
		DateJoined: u.DateJoined,
		LastLogin:  u.LastLogin,
		IsStaff:    u.IsStaff,
		IsActive:   u.IsActive,
	}
}
