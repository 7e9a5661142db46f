package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// RoomIDRegex matches generated room codes
	RoomIDRegex = regexp.MustCompile(`^[A-Z0-9]{5}$`)

	// RollNumberRegex validates roll numbers as issued by the registry
	RollNumberRegex = regexp.MustCompile(`^[A-Za-z0-9_/\-]+$`)

	// QPCodeRegex validates question paper codes
	QPCodeRegex = regexp.MustCompile(`^[A-Za-z0-9_\-]+$`)

	unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._\-]+`)
)

// Allowed upload content types.
var (
	ImageContentTypes = []string{"image/jpeg", "image/png", "image/jpg"}
	PaperContentTypes = []string{"application/pdf", "image/jpeg", "image/png"}
)

// IsRoomID reports whether id has the shape of a generated room code.
func IsRoomID(id string) bool {
	return RoomIDRegex.MatchString(id)
}

// ValidateRoomName validates examiner supplied room names
func ValidateRoomName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("roomName is required")
	}
	if utf8.RuneCountInString(name) > 100 {
		return fmt.Errorf("roomName is too long (max 100 characters)")
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("roomName contains invalid characters")
	}
	return nil
}

// ValidateRollNumber validates a student roll number
func ValidateRollNumber(rollNo string) error {
	rollNo = strings.TrimSpace(rollNo)
	if rollNo == "" {
		return fmt.Errorf("roll number is required")
	}
	if len(rollNo) > 64 {
		return fmt.Errorf("roll number is too long (max 64 characters)")
	}
	if !RollNumberRegex.MatchString(rollNo) {
		return fmt.Errorf("invalid roll number format")
	}
	return nil
}

// ValidateQPCode validates a question paper code
func ValidateQPCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("QP Code is required")
	}
	if len(code) > 64 {
		return fmt.Errorf("QP Code is too long (max 64 characters)")
	}
	if !QPCodeRegex.MatchString(code) {
		return fmt.Errorf("invalid QP Code format")
	}
	return nil
}

// ValidateContentType checks contentType against an allow list
func ValidateContentType(contentType string, allowed []string) error {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	for _, a := range allowed {
		if ct == a {
			return nil
		}
	}
	return fmt.Errorf("unsupported file type %q (allowed: %s)", contentType, strings.Join(allowed, ", "))
}

// SanitizeFilename strips directories and characters that are unsafe in object keys
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "upload"
	}
	if len(name) > 128 {
		name = name[len(name)-128:]
	}
	return name
}

// ValidateNonEmptyString validates that string is not empty after trimming
func ValidateNonEmptyString(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

// ValidateStringLength validates string length
func ValidateStringLength(s string, min, max int, fieldName string) error {
	length := utf8.RuneCountInString(s)
	if length < min {
		return fmt.Errorf("%s must be at least %d characters", fieldName, min)
	}
	if length > max {
		return fmt.Errorf("%s is too long (max %d characters)", fieldName, max)
	}
	return nil
}

// ValidateUsername validates examiner usernames
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if len(username) < 3 {
		return fmt.Errorf("username must be at least 3 characters")
	}
	if len(username) > 50 {
		return fmt.Errorf("username is too long (max 50 characters)")
	}
	if !regexp.MustCompile(`^[a-zA-Z0-9_-]+$`).MatchString(username) {
		return fmt.Errorf("username contains invalid characters (only letters, numbers, _, - allowed)")
	}
	return nil
}
