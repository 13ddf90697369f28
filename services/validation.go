// ABOUTME: Input validation functions for API path parameters
// ABOUTME: Rejects malformed session IDs and server names before they reach queries or caches

package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sqlnova/migration-planner/models"
)

// sessionIDPattern matches lowercase UUIDs (36 chars: 8-4-4-4-12 hex)
var sessionIDPattern = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`)

// sanitizeForLog removes control characters from strings to prevent log injection
// when including user input in error messages
func sanitizeForLog(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1 // Remove control characters
		}
		return r
	}, s)
}

// ValidateSessionID validates that a planning session ID has the correct format
func ValidateSessionID(id string) error {
	if !sessionIDPattern.MatchString(id) {
		return fmt.Errorf("invalid session ID format: %s", sanitizeForLog(id))
	}
	return nil
}

// ValidateServerName validates that a SQL Server instance name has a safe format.
// Names are interpolated into connection strings, so anything else is refused.
func ValidateServerName(name string) error {
	if name == "" {
		return fmt.Errorf("server name cannot be empty")
	}
	if !models.ValidInstanceName(name) {
		return fmt.Errorf("invalid server name format: %s", sanitizeForLog(name))
	}
	return nil
}
