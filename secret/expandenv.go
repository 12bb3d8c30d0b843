package secret

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

// ErrMissingEnv indicates a ${VAR} reference to an unset variable.
var ErrMissingEnv = errors.New("secret: missing environment variable")

// LookupFunc reports the value of an environment variable and whether it is set.
type LookupFunc func(key string) (string, bool)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

const dollarSentinel = "\x00HTTPKIT_DOLLAR\x00"

// ExpandEnvStrict expands s against the process environment.
func ExpandEnvStrict(s string) (string, error) {
	return Expand(s, os.LookupEnv)
}

// Expand replaces $VAR and ${VAR} in s using lookup.
//
//   - ${VAR} must be set; every missing name is reported in one error.
//   - $VAR expands to the empty string when unset.
//   - $$ emits a literal $.
func Expand(s string, lookup LookupFunc) (string, error) {
	if !strings.Contains(s, "$") {
		return s, nil
	}
	s = strings.ReplaceAll(s, "$$", dollarSentinel)

	var missing []string
	out := envVarPattern.ReplaceAllStringFunc(s, func(ref string) string {
		m := envVarPattern.FindStringSubmatch(ref)
		braced, bare := m[1], m[2]
		if braced != "" {
			v, ok := lookup(braced)
			if !ok {
				missing = append(missing, braced)
			}
			return v
		}
		v, _ := lookup(bare)
		return v
	})
	if len(missing) > 0 {
		sort.Strings(missing)
		missing = compactStrings(missing)
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}
	return strings.ReplaceAll(out, dollarSentinel, "$"), nil
}

// ExpandMap expands every value of m in place. Keys are left untouched.
func ExpandMap(m map[string]string, lookup LookupFunc) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, k := range keys {
		v, err := Expand(m[k], lookup)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", k, err))
			continue
		}
		m[k] = v
	}
	return errors.Join(errs...)
}

func compactStrings(s []string) []string {
	out := s[:0]
	for i, v := range s {
		if i == 0 || v != s[i-1] {
			out = append(out, v)
		}
	}
	return out
}
