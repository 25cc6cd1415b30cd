package service

import "net/http"

// Kind tags the result of an account operation.
type Kind int

const (
	KindCreated Kind = iota + 1
	KindAuthSuccess
	KindUsernameChanged
	KindEmailChanged
	KindPasswordChanged

	KindEmptyField
	KindWeakPassword
	KindInvalidEmail
	KindNoFieldProvided

	KindEmailTaken
	KindUserExists
	KindUsernameTaken
	KindPasswordUnchanged

	KindInvalidCredentials

	KindStoreError
	KindInternalError
)

var kindNames = map[Kind]string{
	KindCreated:            "Created",
	KindAuthSuccess:        "AuthSuccess",
	KindUsernameChanged:    "UsernameChanged",
	KindEmailChanged:       "EmailChanged",
	KindPasswordChanged:    "PasswordChanged",
	KindEmptyField:         "EmptyField",
	KindWeakPassword:       "WeakPassword",
	KindInvalidEmail:       "InvalidEmail",
	KindNoFieldProvided:    "NoFieldProvided",
	KindEmailTaken:         "EmailTaken",
	KindUserExists:         "UserExists",
	KindUsernameTaken:      "UsernameTaken",
	KindPasswordUnchanged:  "PasswordUnchanged",
	KindInvalidCredentials: "InvalidCredentials",
	KindStoreError:         "StoreError",
	KindInternalError:      "InternalError",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}

// Status returns the HTTP status code that reports k.
func (k Kind) Status() int {
	switch k {
	case KindAuthSuccess:
		return http.StatusOK
	case KindCreated, KindUsernameChanged, KindEmailChanged, KindPasswordChanged:
		return http.StatusCreated
	case KindEmptyField, KindWeakPassword, KindInvalidEmail, KindNoFieldProvided:
		return http.StatusBadRequest
	case KindEmailTaken, KindUserExists, KindUsernameTaken, KindPasswordUnchanged:
		return http.StatusConflict
	case KindInvalidCredentials:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Fault reports whether k stands for a collaborator failure rather than a modeled result.
func (k Kind) Fault() bool {
	return k == KindStoreError || k == KindInternalError
}

// Messages returned to callers verbatim.
const (
	MsgRegistered         = "You registered successfully. Log in."
	MsgLoggedIn           = "You logged in successfully."
	MsgUsernameChanged    = "Username changed successfully"
	MsgEmailChanged       = "Email changed successfully"
	MsgPasswordChanged    = "Password changed successfully"
	MsgEmptyField         = "Error. The username or password cannot be empty"
	MsgWeakPassword       = "Error. The password should be at least 6 characters"
	MsgInvalidEmail       = "Invalid email. Please try again"
	MsgNoFieldProvided    = "All fields cannot be empty"
	MsgEmailRegistered    = "Email is already registered. try again"
	MsgEmailTaken         = "Email already registered. Try another one"
	MsgUserExists         = "User already exists. Please login"
	MsgUsernameTaken      = "Username already taken. Try another one"
	MsgPasswordUnchanged  = "Password cannot be the same as the old one. Try again"
	MsgInvalidCredentials = "Invalid username or password. Please try again."
)

// Outcome is the tagged result of Register, Authenticate or UpdateProfile.
// Only the payload fields relevant to Kind are set.
type Outcome struct {
	Kind    Kind
	Message string

	AccessToken string // AuthSuccess
	Username    string // AuthSuccess, UsernameChanged
	Email       string // AuthSuccess, EmailChanged

	// Err is the underlying cause of a StoreError or InternalError.
	Err error
}

// Status returns the HTTP status code for the outcome.
func (o Outcome) Status() int { return o.Kind.Status() }

func result(k Kind, msg string) Outcome {
	return Outcome{Kind: k, Message: msg}
}

func fault(k Kind, err error) Outcome {
	return Outcome{Kind: k, Message: err.Error(), Err: err}
}
