package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// FieldErrors is a map of field name to a list of messages, the error
// body shape clients of this API expect.
type FieldErrors map[string][]string

const nonFieldErrors = "non_field_errors"

const (
	msgFieldRequired       = "This field is required."
	msgPasswordMismatch    = "The two password fields didn't match."
	msgEmailTaken          = "A user with this email already exists."
	msgInvalidCredentials  = "Unable to log in with provided credentials."
	msgOldPasswordWrong    = "Old password is incorrect."
	msgInvalidToken        = "Invalid token."
	msgNoCredentials       = "Authentication credentials were not provided."
	msgLoggedOut           = "Successfully logged out."
	msgPasswordChanged     = "Password changed successfully."
	msgResetEmailSent      = "Password reset e-mail has been sent."
	msgResetPasswordSet    = "Password has been reset with the new password."
	msgInvalidRequestBody  = "Invalid request body."
	msgUserAccountDisabled = "User account is disabled."
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeFieldErrors(w http.ResponseWriter, errs FieldErrors) {
	writeJSON(w, http.StatusBadRequest, errs)
}

func writeNonFieldError(w http.ResponseWriter, msg string) {
	writeFieldErrors(w, FieldErrors{nonFieldErrors: {msg}})
}

// decodeJSON parses the request body into v. A malformed body is reported
// the same way a failed validation would be.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeNonFieldError(w, msgInvalidRequestBody)
		return false
	}
	return true
}

// validationErrors converts validator output into the field-error map,
// using each struct field's json tag as the field name.
func validationErrors(err error) FieldErrors {
	errs := FieldErrors{}
	var verrs validator.ValidationErrors
	if !asValidationErrors(err, &verrs) {
		errs[nonFieldErrors] = append(errs[nonFieldErrors], err.Error())
		return errs
	}
	for _, fe := range verrs {
		name := jsonFieldName(fe)
		switch fe.Tag() {
		case "required":
			errs[name] = append(errs[name], msgFieldRequired)
		case "email":
			errs[name] = append(errs[name], "Enter a valid email address.")
		case "eqfield":
			errs[name] = append(errs[name], msgPasswordMismatch)
		default:
			errs[name] = append(errs[name], "This value is invalid.")
		}
	}
	return errs
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	if verrs, ok := err.(validator.ValidationErrors); ok {
		*target = verrs
		return true
	}
	return false
}

func jsonFieldName(fe validator.FieldError) string {
	// The validator is registered with a json-tag name func, so Field()
	// already returns the wire name.
	return fe.Field()
}
