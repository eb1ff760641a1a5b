package services

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	maxNameLength  = 255
	maxFolderDepth = 10
	maxPathLength  = 4096
)

// Windows device names are rejected regardless of case; serving a file
// called "con" breaks downstream clients.
var reservedNames = map[string]struct{}{
	".": {}, "..": {}, "CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

var forbiddenExtensions = map[string]struct{}{
	".exe": {}, ".bat": {}, ".cmd": {}, ".sh": {}, ".php": {}, ".py": {},
	".js": {}, ".jar": {}, ".pl": {}, ".cgi": {}, ".vb": {}, ".asp": {},
	".aspx": {}, ".html": {}, ".htm": {}, ".svg": {}, ".dll": {},
	".iso": {}, ".ps1": {}, ".apk": {}, ".chm": {},
}

// Letters, digits, dash, underscore, dot, space, parens, plus the
// Latin-1/Latin-Extended-A range for accented names.
var safeNamePattern = regexp.MustCompile(`^[\w\-. ()\x{00C0}-\x{017F}]+$`)

func validateFileName(name string) error {
	return validateName(name, false)
}

func validateFolderName(name string) error {
	return validateName(name, true)
}

func validateName(name string, folder bool) error {
	if strings.TrimSpace(name) == "" {
		return newValidationError("name is required")
	}

	name = norm.NFC.String(name)
	if len(name) > maxNameLength {
		return newValidationError(fmt.Sprintf("name exceeds %d characters", maxNameLength))
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return newValidationError("name contains path separators or null bytes")
	}
	if strings.Trim(name, " .") == "" {
		return newValidationError("name must contain visible characters")
	}
	if _, ok := reservedNames[strings.ToUpper(name)]; ok {
		return newValidationError("name is a reserved device name")
	}
	if !safeNamePattern.MatchString(name) {
		return newValidationError("name contains disallowed characters")
	}

	if !folder {
		base := name
		if dot := strings.LastIndex(name, "."); dot > 0 {
			base = name[:dot]
		}
		if strings.TrimSpace(base) == "" {
			return newValidationError("file name must have a visible base name")
		}
	}
	return nil
}

// validateExtension rejects executable, script and markup uploads.
// Extensionless files are rejected too; a file with no extension cannot
// be proven safe to serve.
func validateExtension(name string) error {
	dot := strings.LastIndex(name, ".")
	if dot <= 0 || dot == len(name)-1 {
		return newValidationError("file must have an extension")
	}
	ext := strings.ToLower(name[dot:])
	if _, ok := forbiddenExtensions[ext]; ok {
		return newValidationError(fmt.Sprintf("file type %s is not allowed", ext))
	}
	return nil
}
