package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the session token payload. Only the registered claims are used:
// sub carries the user id.
type Claims struct {
	jwt.RegisteredClaims
}

// Messages returned to clients. Tests compare against these verbatim.
const (
	MsgRegistered        = "User registered successfully"
	MsgLoggedIn          = "Login successful"
	MsgLoggedOut         = "Logout successful"
	MsgEmailVerified     = "Email verified successfully"
	MsgRegistrationError = "Registration failed"
	MsgLoginError        = "Login failed"
	MsgVerifyError       = "Email verification failed"

	MsgInvalidCredentials    = "Invalid email or password"
	MsgAccountDisabled       = "Account is deactivated"
	MsgEmailTaken            = "User with this email already exists"
	MsgVerificationRequired  = "Verification token is required"
	MsgInvalidVerification   = "Invalid verification token"
	MsgAuthorizationRequired = "Authorization header required"
	MsgInvalidToken          = "Invalid or expired token"
	MsgTokenExpired          = "Token has expired"
	MsgUserUnavailable       = "User not found or inactive"

	MsgEmailRequired     = "Email is required"
	MsgEmailInvalid      = "Enter a valid email address"
	MsgPasswordRequired  = "Password is required"
	MsgPasswordLength    = "Password must be at least 8 characters long"
	MsgPasswordUpper     = "Password must contain at least one uppercase letter"
	MsgPasswordLower     = "Password must contain at least one lowercase letter"
	MsgPasswordDigit     = "Password must contain at least one number"
	MsgPasswordSpecial   = "Password must contain at least one special character"
	MsgFirstNameRequired = "First name is required"
	MsgFirstNameTooShort = "First name must be at least 2 characters long"
	MsgLastNameRequired  = "Last name is required"
)
