// internal/validation/security.go
package validation

import (
	"net/url"
	"regexp"
	"strings"

	"agent-builder/internal/common/errors"
)

// dangerousPatterns are blocked in free-text fields. They match code-injection
// attempts aimed at the generated Python source.
var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)__import__`),
	regexp.MustCompile(`(?i)eval\s*\(`),
	regexp.MustCompile(`(?i)exec\s*\(`),
	regexp.MustCompile(`(?i)subprocess`),
	regexp.MustCompile(`(?i)os\.system`),
	regexp.MustCompile(`(?i)open\s*\(`),
	regexp.MustCompile(`(?i)compile\s*\(`),
	regexp.MustCompile(`(?i)globals\s*\(`),
	regexp.MustCompile(`(?i)locals\s*\(`),
	regexp.MustCompile(`(?i)getattr`),
	regexp.MustCompile(`(?i)setattr`),
	regexp.MustCompile(`(?i)delattr`),
}

var safeNamePattern = regexp.MustCompile(`^[a-zA-Z0-9\s\-_\.]+$`)

const (
	maxNameLength        = 100
	maxDescriptionLength = 1000
)

// ValidateAgentName checks the agent name for format and injection attempts
// and returns the trimmed name.
func ValidateAgentName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.NewRequirementsInvalidError("agent name cannot be empty")
	}
	if len(name) > maxNameLength {
		return "", errors.NewRequirementsInvalidError("agent name too long (max 100 characters)")
	}
	if !safeNamePattern.MatchString(name) {
		return "", errors.NewRequirementsInvalidError("agent name contains invalid characters")
	}
	if containsDangerousContent(name) {
		return "", errors.NewRequirementsInvalidError("agent name contains potentially dangerous content")
	}
	return name, nil
}

// ValidateDescription checks the agent description and returns it trimmed.
func ValidateDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", errors.NewRequirementsInvalidError("agent description cannot be empty")
	}
	if len(description) > maxDescriptionLength {
		return "", errors.NewRequirementsInvalidError("description too long (max 1000 characters)")
	}
	if containsDangerousContent(description) {
		return "", errors.NewRequirementsInvalidError("description contains potentially dangerous content")
	}
	return description, nil
}

// ValidateURL accepts only public http/https URLs for web knowledge sources.
func ValidateURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return errors.NewRequirementsInvalidError("invalid URL format: " + raw)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return errors.NewRequirementsInvalidError("invalid URL format: " + raw)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.NewRequirementsInvalidError("only HTTP/HTTPS URLs are allowed")
	}

	hostname := parsed.Hostname()
	if hostname == "localhost" || hostname == "127.0.0.1" || hostname == "0.0.0.0" {
		return errors.NewRequirementsInvalidError("localhost URLs are not allowed")
	}
	if strings.HasPrefix(hostname, "192.168.") ||
		strings.HasPrefix(hostname, "10.") ||
		strings.HasPrefix(hostname, "172.") {
		return errors.NewRequirementsInvalidError("private IP addresses are not allowed")
	}

	return nil
}

// ValidateFilePath rejects absolute paths, traversal attempts and system
// directories for document knowledge sources.
func ValidateFilePath(path string) error {
	if strings.Contains(path, "..") || strings.HasPrefix(path, "/") {
		return errors.NewRequirementsInvalidError("path traversal attempts are not allowed")
	}

	systemDirs := []string{"etc/", "usr/", "bin/", "sbin/", "var/", "sys/", "proc/"}
	for _, dir := range systemDirs {
		if strings.HasPrefix(path, dir) {
			return errors.NewRequirementsInvalidError("access to system directories is not allowed")
		}
	}

	return nil
}

func containsDangerousContent(s string) bool {
	for _, pattern := range dangerousPatterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}
