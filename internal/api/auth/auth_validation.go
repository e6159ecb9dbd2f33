package auth

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/FACorreiaa/multigenqa/internal/types"
)

var (
	upperRe   = regexp.MustCompile(`[A-Z]`)
	lowerRe   = regexp.MustCompile(`[a-z]`)
	digitRe   = regexp.MustCompile(`\d`)
	specialRe = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

// passwordRules are checked one by one so every violation is reported, not
// only the first.
var passwordRules = []validation.Rule{
	validation.RuneLength(8, 0).Error(MsgPasswordLength),
	validation.Match(upperRe).Error(MsgPasswordUpper),
	validation.Match(lowerRe).Error(MsgPasswordLower),
	validation.Match(digitRe).Error(MsgPasswordDigit),
	validation.Match(specialRe).Error(MsgPasswordSpecial),
}

// NormalizeEmail trims and lowercases an address before lookup or storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PasswordViolations lists every policy rule the password breaks.
func PasswordViolations(password string) []string {
	var out []string
	for _, rule := range passwordRules {
		if err := validation.Validate(password, rule); err != nil {
			out = append(out, err.Error())
		}
	}
	return out
}

// validateRegistration normalizes req and checks every field. Each field
// reports its first failing rule, except the password which reports all.
func validateRegistration(req types.RegisterRequest) (types.RegisterRequest, error) {
	req.Email = NormalizeEmail(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)

	verr := types.NewValidationError()

	if err := validation.Validate(req.Email,
		validation.Required.Error(MsgEmailRequired),
		is.Email.Error(MsgEmailInvalid),
	); err != nil {
		verr.Add("email", err.Error())
	}

	if req.Password == "" {
		verr.Add("password", MsgPasswordRequired)
	} else {
		for _, msg := range PasswordViolations(req.Password) {
			verr.Add("password", msg)
		}
	}

	if err := validation.Validate(req.FirstName,
		validation.Required.Error(MsgFirstNameRequired),
		validation.RuneLength(2, 0).Error(MsgFirstNameTooShort),
	); err != nil {
		verr.Add("first_name", err.Error())
	}

	// Initials are accepted as a last name.
	if err := validation.Validate(req.LastName,
		validation.Required.Error(MsgLastNameRequired),
	); err != nil {
		verr.Add("last_name", err.Error())
	}

	return req, verr.OrNil()
}

func validateLogin(req types.LoginRequest) (types.LoginRequest, error) {
	req.Email = NormalizeEmail(req.Email)

	verr := types.NewValidationError()
	if req.Email == "" {
		verr.Add("email", MsgEmailRequired)
	}
	if req.Password == "" {
		verr.Add("password", MsgPasswordRequired)
	}
	return req, verr.OrNil()
}
