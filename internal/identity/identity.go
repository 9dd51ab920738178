// Package identity issues and verifies the HS256 session tokens handed out
// at login, and provides the Gin middleware that enforces them.
package identity
