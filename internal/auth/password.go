package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// passwordCost is the bcrypt work factor used for stored credentials.
const passwordCost = 10

// HashPassword derives the stored bcrypt hash for a plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ComparePassword checks a plaintext password against its stored hash.
// A nil return means the password matches.
func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
