// internal/api/auth/validation.go
package auth

import (
	"loan-approval-api/internal/common/validation"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

var emailPattern = `^[^@\s]+@[^@\s]+\.[^@\s]+$`

// registerSchema guards POST /register.
var registerSchema = validation.JSONSchema{
	Type: "object",
	Properties: map[string]validation.Property{
		"email":     {Type: "string", Pattern: strPtr(emailPattern)},
		"username":  {Type: "string", MinLength: intPtr(3), MaxLength: intPtr(64)},
		"password":  {Type: "string", MinLength: intPtr(8), MaxLength: intPtr(128)},
		"full_name": {Type: "string", MaxLength: intPtr(128)},
	},
	Required:             []string{"email", "username", "password"},
	AdditionalProperties: false,
}

var loginSchema = validation.JSONSchema{
	Type: "object",
	Properties: map[string]validation.Property{
		"username": {Type: "string", MinLength: intPtr(1)},
		"password": {Type: "string", MinLength: intPtr(1)},
	},
	Required:             []string{"username", "password"},
	AdditionalProperties: false,
}

var forgotPasswordSchema = validation.JSONSchema{
	Type: "object",
	Properties: map[string]validation.Property{
		"email": {Type: "string", Pattern: strPtr(emailPattern)},
	},
	Required:             []string{"email"},
	AdditionalProperties: false,
}

var resetPasswordSchema = validation.JSONSchema{
	Type: "object",
	Properties: map[string]validation.Property{
		"token":        {Type: "string", MinLength: intPtr(1)},
		"new_password": {Type: "string", MinLength: intPtr(8), MaxLength: intPtr(128)},
	},
	Required:             []string{"token", "new_password"},
	AdditionalProperties: false,
}

var changePasswordSchema = validation.JSONSchema{
	Type: "object",
	Properties: map[string]validation.Property{
		"old_password": {Type: "string", MinLength: intPtr(1)},
		"new_password": {Type: "string", MinLength: intPtr(8), MaxLength: intPtr(128)},
	},
	Required:             []string{"old_password", "new_password"},
	AdditionalProperties: false,
}
