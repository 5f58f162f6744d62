package service

import (
	"crypto/subtle"
	"fmt"

	"github.com/kevinaaaquil/yamdb/models"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/crypto/bcrypt"
)

// ConfirmationCodeAlphabet excludes zero.
const ConfirmationCodeAlphabet = "123456789"

// NewConfirmationCode returns a random code of models.ConfirmationCodeLength digits.
func NewConfirmationCode() (string, error) {
	code, err := gonanoid.Generate(ConfirmationCodeAlphabet, models.ConfirmationCodeLength)
	if err != nil {
		return "", fmt.Errorf("generate confirmation code: %w", err)
	}
	return code, nil
}

// codeStorage decides how a confirmation code is persisted and compared.
type codeStorage interface {
	seal(code string) (string, error)
	matches(stored, submitted string) bool
}

// plainCodes stores the code as issued.
type plainCodes struct{}

func (plainCodes) seal(code string) (string, error) { return code, nil }

func (plainCodes) matches(stored, submitted string) bool {
	return stored != "" && subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}

// hashedCodes stores a bcrypt hash of the code.
type hashedCodes struct{}

func (hashedCodes) seal(code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash confirmation code: %w", err)
	}
	return string(hash), nil
}

func (hashedCodes) matches(stored, submitted string) bool {
	return stored != "" && bcrypt.CompareHashAndPassword([]byte(stored), []byte(submitted)) == nil
}
