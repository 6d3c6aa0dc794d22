package mcpdef

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// placeholderRe matches the three placeholder grammars this spec inherits
// from its configuration collaborator: $env:VAR, ${VAR:-default}, $VAR.
var placeholderRe = regexp.MustCompile(`\$(?:env:([A-Za-z_][A-Za-z0-9_]*)|\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}|([A-Za-z_][A-Za-z0-9_]*))`)

// ResolvePlaceholders expands $VAR, $env:VAR, and ${VAR:-default} references
// in s against the process environment. A bare $ not followed by a valid
// placeholder is left as-is unless it looks like the start of a malformed
// ${...} reference, in which case resolution fails so the caller rejects the
// definition at transport-creation time rather than silently shipping a
// literal "${" to a header or env value.
func ResolvePlaceholders(s string) (string, error) {
	if !strings.Contains(s, "$") {
		return s, nil
	}
	if err := checkUnbalancedBraces(s); err != nil {
		return "", err
	}

	result := placeholderRe.ReplaceAllStringFunc(s, func(match string) string {
		groups := placeholderRe.FindStringSubmatch(match)
		switch {
		case groups[1] != "": // $env:VAR
			return os.Getenv(groups[1])
		case groups[2] != "": // ${VAR} or ${VAR:-default}
			if val, ok := os.LookupEnv(groups[2]); ok {
				return val
			}
			return groups[3]
		case groups[4] != "": // $VAR
			return os.Getenv(groups[4])
		default:
			return match
		}
	})
	return result, nil
}

// checkUnbalancedBraces rejects a `${` that never closes, which otherwise
// would silently pass through ReplaceAllStringFunc untouched.
func checkUnbalancedBraces(s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] == '$' && i+1 < len(s) && s[i+1] == '{' {
			close := strings.IndexByte(s[i+2:], '}')
			if close == -1 {
				return fmt.Errorf("malformed placeholder in %q: unterminated ${", s)
			}
		}
	}
	return nil
}

// ResolveMap resolves placeholders in every value of m, returning a new map.
func ResolveMap(m map[string]string) (map[string]string, error) {
	if m == nil {
		return nil, nil
	}
	resolved := make(map[string]string, len(m))
	for k, v := range m {
		rv, err := ResolvePlaceholders(v)
		if err != nil {
			return nil, fmt.Errorf("resolving %q: %w", k, err)
		}
		resolved[k] = rv
	}
	return resolved, nil
}
