// Package domain contains core concepts of the chat system.
// This file defines User entities as seen by the routing core.
// Account creation and credential storage live outside this package.
package domain

import "time"

// User is the directory view of an account. IsOnline and LastSeen are
// mutated only through presence transitions.
type User struct {
	ID       string
	Username string
	Avatar   string
	IsOnline bool
	LastSeen time.Time
}
