// Package repository implements the MySQL stores behind the booking service
// and the account, venue and administration handlers.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// Account errors returned by UserRepo.  Booking and venue lookups return the
// service package's not-found and conflict errors instead.
var (
	ErrUsernameTaken = errors.New("username already exists")
	ErrEmailTaken    = errors.New("email already exists")
	ErrUserNotFound  = errors.New("user not found")
	ErrTokenInvalid  = errors.New("refresh token invalid or expired")
)

const mysqlDuplicateEntry = 1062

// duplicateKey reports whether err is a MySQL duplicate-entry error on the
// named unique index.  An empty key matches any duplicate.
func duplicateKey(err error, key string) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != mysqlDuplicateEntry {
		return false
	}
	return key == "" || strings.Contains(me.Message, key)
}

// placeholders returns "?,?,...,?" with n entries.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
