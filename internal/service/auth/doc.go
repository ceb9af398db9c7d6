// Package auth implements admin authentication for the management API:
// bcrypt password verification and HS256 JWT issuance/validation.
package auth
