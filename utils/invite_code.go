package utils

import (
	"crypto/rand"
	"errors"

	"gorm.io/gorm"

	"github.com/ysrbharadwaj/Loomio-sub001/models"
)

// Unambiguous uppercase alphabet (no O/0, I/1/L).
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// GenerateInviteCode returns a random community join code of length n.
func GenerateInviteCode(n int) (string, error) {
	if n <= 0 {
		n = 8
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	out := make([]byte, n)
	for i := range b {
		out[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(out), nil
}

// GenerateUniqueInviteCode retries until the code is not in use. Collisions
// are rare at 8 chars; give up after a handful of attempts.
func GenerateUniqueInviteCode(db *gorm.DB, n int) (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		code, err := GenerateInviteCode(n)
		if err != nil {
			return "", err
		}
		var existing models.Community
		err = db.Where("invite_code = ?", code).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", errors.New("could not generate a unique invite code")
}
