package http

import (
	"net/mail"
	"strings"
	"unicode"
)

// Reglas de validacion por campo, replicando los esquemas del API.

func validateEmail(email string) []FieldError {
	var errs []FieldError
	if _, err := mail.ParseAddress(strings.TrimSpace(email)); err != nil {
		errs = append(errs, FieldError{Field: "email", Message: "Invalid email format"})
	}
	return errs
}

func validateRegister(name, email, password string) []FieldError {
	var errs []FieldError
	if len(strings.TrimSpace(name)) < 2 {
		errs = append(errs, FieldError{Field: "name", Message: "Name must be at least 2 characters"})
	}
	errs = append(errs, validateEmail(email)...)
	if len(password) < 8 {
		errs = append(errs, FieldError{Field: "password", Message: "Password must be at least 8 characters"})
	}
	return errs
}

func validateLogin(email, password string) []FieldError {
	errs := validateEmail(email)
	if len(password) < 6 {
		errs = append(errs, FieldError{Field: "password", Message: "Password must be at least 6 characters"})
	}
	return errs
}

func validateOTPVerify(email, otp string) []FieldError {
	errs := validateEmail(email)
	if !isSixDigits(otp) {
		errs = append(errs, FieldError{Field: "otp", Message: "OTP must be 6 digits"})
	}
	return errs
}

func isSixDigits(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
