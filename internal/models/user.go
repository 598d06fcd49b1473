// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// Role represents a user's permission level.
type Role string

const (
	RoleAdmin Role = "admin"
)

// BootstrapUsername is the account that may be provisioned on first login
// from the configured bootstrap password hash.
const BootstrapUsername = "admin"

// User is an admin account.
type User struct {
	ID           string `json:"id" dynamodbav:"id"`
	Username     string `json:"username" dynamodbav:"username"`
	PasswordHash string `json:"-" dynamodbav:"passwordHash"` // Never serialize the hash
	Role         Role   `json:"role" dynamodbav:"role"`
	CreatedAt    int64  `json:"createdAt" dynamodbav:"createdAt"`
}
