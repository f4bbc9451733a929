package cli

import "strings"

// Mask replaces credential-bearing arguments in logged commands.
const Mask = "***MASKED***"

// SanitizeForLogging returns a space-joined copy of args with credentials
// masked. The input slice is never mutated.
//
// Two independent rules apply by index:
//   - an argument containing "token" or "password" masks the next argument
//     (its presumed value)
//   - an argument containing "dapi", "pat-", or "bearer" (Databricks PATs
//     and bearer headers) is masked itself
func SanitizeForLogging(args []string) string {
	safe := make([]string, len(args))
	copy(safe, args)

	for i, arg := range args {
		lower := strings.ToLower(arg)
		if strings.Contains(lower, "token") || strings.Contains(lower, "password") {
			if i+1 < len(safe) {
				safe[i+1] = Mask
			}
			continue
		}
		if strings.Contains(lower, "dapi") || strings.Contains(lower, "pat-") || strings.Contains(lower, "bearer") {
			safe[i] = Mask
		}
	}

	return strings.Join(safe, " ")
}
