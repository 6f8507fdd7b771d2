package loginguard

import (
	"crypto/subtle"

	"github.com/studenttools/gateway/pkg/password"
)

// Verifier checks a credential pair. The gateway ships with a single
// statically configured admin pair; anything richer lives behind this
// interface.
type Verifier interface {
	Matches(email, password string) bool
}

// StaticVerifier compares against one configured admin credential pair.
// Comparisons are constant time so a mismatch position does not leak.
type StaticVerifier struct {
	email    string
	password string
	hashed   bool
	hasher   *password.Hasher
}

// NewStaticVerifier creates a verifier for the given pair. When hashed is
// true the password is treated as a bcrypt hash.
func NewStaticVerifier(email, pass string, hashed bool) *StaticVerifier {
	return &StaticVerifier{
		email:    email,
		password: pass,
		hashed:   hashed,
		hasher:   password.New(),
	}
}

// Matches reports whether the pair matches the configured credentials.
// Both fields are always compared so the outcome does not reveal which
// one was wrong.
func (v *StaticVerifier) Matches(email, pass string) bool {
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(v.email)) == 1

	var passwordOK bool
	if v.hashed {
		passwordOK = v.hasher.Verify(pass, v.password) == nil
	} else {
		passwordOK = subtle.ConstantTimeCompare([]byte(pass), []byte(v.password)) == 1
	}

	return emailOK && passwordOK
}
