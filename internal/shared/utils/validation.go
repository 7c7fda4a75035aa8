package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bytedance/sonic"
)

// JSON size limits (in bytes)
const (
	MaxJSONSize   = 1 * 1024 * 1024 // 1MB - maximum JSON payload size
	MaxRecordSize = 512 * 1024      // 512KB - persisted layout record limit
	MaxMetaSize   = 64 * 1024       // 64KB - card meta map limit
)

// String length limits
const (
	MaxIDLength    = 128
	MaxTitleLength = 256
	MaxDataRef     = 512
)

// Viewport limits
const (
	MaxBoundsDimension = 16384
)

// SafeIDPattern allows alphanumeric, hyphens, underscores
var SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// JSONSizeValidator validates JSON size limits
type JSONSizeValidator struct {
	maxSize int
}

// NewJSONSizeValidator creates a new validator with the specified max size
func NewJSONSizeValidator(maxSize int) *JSONSizeValidator {
	return &JSONSizeValidator{maxSize: maxSize}
}

// DefaultJSONValidator returns a validator with the default 1MB limit
func DefaultJSONValidator() *JSONSizeValidator {
	return NewJSONSizeValidator(MaxJSONSize)
}

// ValidateSize checks if the data size is within limits
func (v *JSONSizeValidator) ValidateSize(data []byte) error {
	size := len(data)
	if size > v.maxSize {
		return fmt.Errorf("JSON size %d bytes exceeds maximum %d bytes", size, v.maxSize)
	}
	return nil
}

// ValidateJSONDepth checks if JSON nesting depth is within limits
func ValidateJSONDepth(data interface{}, maxDepth int) error {
	return checkDepth(data, 0, maxDepth)
}

func checkDepth(data interface{}, currentDepth int, maxDepth int) error {
	if currentDepth > maxDepth {
		return fmt.Errorf("JSON nesting depth %d exceeds maximum %d", currentDepth, maxDepth)
	}

	switch v := data.(type) {
	case map[string]interface{}:
		for _, value := range v {
			if err := checkDepth(value, currentDepth+1, maxDepth); err != nil {
				return err
			}
		}
	case []interface{}:
		for _, value := range v {
			if err := checkDepth(value, currentDepth+1, maxDepth); err != nil {
				return err
			}
		}
	}

	return nil
}

// ValidateMeta checks size and nesting of a card meta map
func ValidateMeta(meta map[string]interface{}) error {
	data, err := sonic.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal meta: %w", err)
	}
	if err := NewJSONSizeValidator(MaxMetaSize).ValidateSize(data); err != nil {
		return fmt.Errorf("meta validation failed: %w", err)
	}
	if err := ValidateJSONDepth(map[string]interface{}(meta), 10); err != nil {
		return fmt.Errorf("meta validation failed: %w", err)
	}
	return nil
}

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil // Optional field, empty is OK
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	// Check for null bytes (security issue)
	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateID validates an ID field
func ValidateID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}

	if id != "" && !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, hyphens, and underscores allowed)", fieldName)
	}

	return nil
}

// ValidateTitle validates a card title
func ValidateTitle(title string) error {
	return ValidateString(title, "title", 0, MaxTitleLength, false)
}

// ValidateDataRef validates the opaque resource reference of a card
func ValidateDataRef(ref string) error {
	return ValidateString(ref, "data_ref", 0, MaxDataRef, false)
}

// ValidateBounds validates a viewport size
func ValidateBounds(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("bounds must be positive, got %dx%d", width, height)
	}
	if width > MaxBoundsDimension || height > MaxBoundsDimension {
		return fmt.Errorf("bounds must not exceed %d in either dimension", MaxBoundsDimension)
	}
	return nil
}
