package cli

import "strings"

// ValidateRequiredArgs checks that every field in required is present and
// non-nil in args. All missing fields are collected into one failure so a
// malformed call reports everything wrong at once, before any process is
// launched.
func ValidateRequiredArgs(args map[string]any, required []string) error {
	var missing []string
	for _, field := range required {
		if v, ok := args[field]; !ok || v == nil {
			missing = append(missing, field)
		}
	}

	if len(missing) > 0 {
		return &CLIError{
			Message:  "Missing required arguments: " + strings.Join(missing, ", "),
			ExitCode: ExitTimeout,
		}
	}
	return nil
}
