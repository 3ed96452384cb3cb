package client

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrorInfo is a user-facing title and explanation for an error
type ErrorInfo struct {
	Title   string
	Content string
}

const preSignUpPrefix = "PreSignUp failed with error"

var knownErrors = map[string]ErrorInfo{
	"EMAIL_ALREADY_GOOGLE": {
		Title:   "Email Linked to Google",
		Content: "This email is already registered via Google. Please sign in with Google.",
	},
	"EMAIL_ALREADY_EXISTS": {
		Title:   "Email Already Registered",
		Content: "This email is already in use. Try signing in instead.",
	},
	"WEAK_PASSWORD": {
		Title:   "Weak Password",
		Content: "Please use a stronger password with at least one number, symbol, and uppercase letter.",
	},
	"INVALID_INPUT": {
		Title:   "Invalid Input",
		Content: "One or more fields have invalid data. Please check your input.",
	},
	"NETWORK_ERROR": {
		Title:   "Network Issue",
		Content: "Please check your connection and try again.",
	},
}

// Describe maps err to a user-facing message. Known backend codes, including
// codes embedded in a Cognito PreSignUp failure, get a fixed explanation.
func Describe(err error) ErrorInfo {
	message := "Unexpected error occurred"
	if err != nil && err.Error() != "" {
		message = err.Error()
	}

	code := ""
	if strings.HasPrefix(message, preSignUpPrefix) {
		code, message = parsePreSignUp(message)
	}
	if code == "" && IsNetworkError(err) {
		code = "NETWORK_ERROR"
	}

	if info, ok := knownErrors[code]; ok {
		return info
	}
	if info, ok := knownErrors[message]; ok {
		return info
	}
	return ErrorInfo{Title: "Error", Content: message}
}

func parsePreSignUp(raw string) (code, message string) {
	payload := strings.TrimSpace(strings.TrimPrefix(raw, preSignUpPrefix))
	payload = strings.TrimSuffix(payload, ".")

	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(payload), &body); err != nil {
		return "", raw
	}
	if body.Message == "" {
		body.Message = raw
	}
	return body.Code, body.Message
}

// IsDuplicateKey reports a failed request rejected for violating a unique
// constraint, which the API passes through in its error text
func IsDuplicateKey(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	text := strings.ToLower(apiErr.Message + " " + string(apiErr.Body))
	return strings.Contains(text, "duplicate key") || strings.Contains(text, "already exists")
}
