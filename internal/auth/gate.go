// Package auth holds the single-operator login gate and the signed session
// cookie that carries its result between requests.
package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Gate checks submitted credentials against the configured pair.
type Gate struct {
	username string
	password string
	hashed   bool
}

func NewGate(username, password string) *Gate {
	return &Gate{
		username: username,
		password: password,
		hashed:   IsBcryptHash(password),
	}
}

// IsBcryptHash reports whether s looks like a bcrypt hash.
func IsBcryptHash(s string) bool {
	for _, p := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// Authenticate is true iff both values match. Both comparisons always run.
func (g *Gate) Authenticate(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(g.username)) == 1

	var passOK bool
	if g.hashed {
		passOK = bcrypt.CompareHashAndPassword([]byte(g.password), []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(g.password)) == 1
	}
	return userOK && passOK
}

// HashPassword produces a value suitable for APP_PASSWORD.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}
