package adapter

import "strings"

// explicitJSONMode honours only an explicit JSONMode flag.
func explicitJSONMode(opts CompletionOptions) (bool, bool) {
	return opts.JSONMode != nil && *opts.JSONMode, false
}

// inferredJSONMode uses the explicit flag when set and otherwise looks for
// "json" in either prompt, ignoring case, which also catches "JSON" and
// "json_object". It is a heuristic: a prompt that merely mentions JSON
// switches the response format too. Only inferred JSON mode pins the
// temperature; an explicit flag leaves it to the vendor default.
func inferredJSONMode(opts CompletionOptions) (bool, bool) {
	if opts.JSONMode != nil {
		return *opts.JSONMode, false
	}
	enabled := mentionsJSON(opts.SystemPrompt) || mentionsJSON(opts.UserPrompt)
	return enabled, enabled
}

func mentionsJSON(prompt string) bool {
	return strings.Contains(strings.ToLower(prompt), "json")
}
