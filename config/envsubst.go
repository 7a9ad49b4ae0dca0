package config

import (
	"os"
	"regexp"
)

var envRef = regexp.MustCompile(`\$\{(\w+)}`)

// ExpandEnv substitutes ${VAR} references with environment values. References
// to variables that are not set are left intact so that placeholders survive
// a partial environment.
func ExpandEnv(text string) string {
	return envRef.ReplaceAllStringFunc(text, func(match string) string {
		name := match[2 : len(match)-1]
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		return match
	})
}
