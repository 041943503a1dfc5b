package registry

import (
	"regexp"
	"strings"

	"github.com/brianhealey/phonebook/internal/models"
)

const (
	minNameLen   = 3
	minNumberLen = 8
)

// numberPattern accepts two or three digits, a dash, then more digits.
var numberPattern = regexp.MustCompile(`^\d{2,3}-\d+$`)

func normalize(s string) string { return strings.TrimSpace(s) }

// validate checks a trimmed name and number.
func validate(name, number string) *models.AppError {
	switch {
	case name == "":
		return models.ErrValidation("name", "name is required")
	case len([]rune(name)) < minNameLen:
		return models.ErrValidation("name", "name too short")
	case number == "":
		return models.ErrValidation("number", "number is required")
	case len(number) < minNumberLen || !numberPattern.MatchString(number):
		return models.ErrValidation("number", "number must look like 09-1234556 or 040-22334455")
	}
	return nil
}
