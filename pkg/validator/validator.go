package validator

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode"
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

// First returns one field and message, preferring the order given in fields.
func (v ValidationErrors) First(fields ...string) (string, string) {
	for _, f := range fields {
		if msg, ok := v[f]; ok {
			return f, msg
		}
	}
	for f, msg := range v {
		return f, msg
	}
	return "", ""
}

var (
	tenDigitsRegex  = regexp.MustCompile(`^[0-9]{10}$`)
	whitespaceRegex = regexp.MustCompile(`\s`)
	nonDigitRegex   = regexp.MustCompile(`\D`)
)

const maxMessageLength = 4000

// CleanContactNumber strips all whitespace from a typed phone number.
func CleanContactNumber(number string) string {
	return whitespaceRegex.ReplaceAllString(number, "")
}

// CleanPhone strips everything that is not a digit.
func CleanPhone(phone string) string {
	return nonDigitRegex.ReplaceAllString(phone, "")
}

func ValidateContact(name, number string) ValidationErrors {
	errs := make(ValidationErrors)

	if strings.TrimSpace(name) == "" {
		errs.Add("contact_name", "Name is required")
	} else if len(name) > 100 {
		errs.Add("contact_name", "Name is too long")
	}

	if !tenDigitsRegex.MatchString(CleanContactNumber(number)) {
		errs.Add("contact_number", "Please enter a valid 10-digit mobile number")
	}

	return errs
}

func ValidateSignup(email, password, phone string) ValidationErrors {
	errs := make(ValidationErrors)

	validateEmail(email, errs)
	validatePassword(password, errs)

	if !tenDigitsRegex.MatchString(CleanPhone(phone)) {
		errs.Add("phone", "Phone number must be 10 digits")
	}

	return errs
}

func ValidateLogin(email, password string) ValidationErrors {
	errs := make(ValidationErrors)

	validateEmail(email, errs)

	if password == "" {
		errs.Add("password", "Password is required")
	}

	return errs
}

// ValidateProfile checks only the fields that are being changed.
func ValidateProfile(name, phone, description *string) ValidationErrors {
	errs := make(ValidationErrors)

	if name != nil && len(strings.TrimSpace(*name)) > 100 {
		errs.Add("name", "Name is too long")
	}
	if phone != nil && len(CleanPhone(*phone)) < 10 {
		errs.Add("phone", "Phone number must be at least 10 digits")
	}
	if description != nil && len(*description) > 500 {
		errs.Add("description", "Description is too long")
	}

	return errs
}

func ValidateMessage(content string) ValidationErrors {
	errs := make(ValidationErrors)

	content = strings.TrimSpace(content)
	if content == "" {
		errs.Add("content", "Message content is required")
	} else if len(content) > maxMessageLength {
		errs.Add("content", "Message is too long")
	}

	return errs
}

func validateEmail(email string, errs ValidationErrors) {
	email = strings.TrimSpace(email)
	if email == "" {
		errs.Add("email", "Email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs.Add("email", "Invalid email address")
	}
}

func validatePassword(password string, errs ValidationErrors) {
	if len(password) < 8 {
		errs.Add("password", "Password must be at least 8 characters")
		return
	}
	if len(password) > 72 {
		errs.Add("password", "Password is too long")
		return
	}

	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	missing := []string{}
	if !hasUpper {
		missing = append(missing, "one uppercase letter")
	}
	if !hasLower {
		missing = append(missing, "one lowercase letter")
	}
	if !hasDigit {
		missing = append(missing, "one number")
	}

	if len(missing) > 0 {
		errs.Add("password", fmt.Sprintf("Password must contain at least %s", strings.Join(missing, ", ")))
	}
}
