package conv

import (
	"encoding/json"
	"strconv"
)

// AsInt coerces a JSON decoded scalar into an int; unsupported values yield 0.
func AsInt(value interface{}) int {
	switch actual := value.(type) {
	case int:
		return actual
	case int64:
		return int(actual)
	case uint64:
		return int(actual)
	case float64:
		return int(actual)
	case json.Number:
		if ret, err := actual.Int64(); err == nil {
			return int(ret)
		}
	case string:
		if ret, err := strconv.Atoi(actual); err == nil {
			return ret
		}
	}
	return 0
}
