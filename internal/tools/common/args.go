package common

// GetStringArg extracts a string argument, returning fallback when the
// argument is absent or not a string.
func GetStringArg(args map[string]interface{}, key, fallback string) string {
	if val, ok := args[key].(string); ok && val != "" {
		return val
	}
	return fallback
}

// GetUserFromArgs extracts the user identifier from request arguments.
// Returns empty string when no user was provided; callers decide whether
// that is an error.
func GetUserFromArgs(args map[string]interface{}) string {
	return GetStringArg(args, "user", "")
}
