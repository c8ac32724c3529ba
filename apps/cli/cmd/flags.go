package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/decorest/packages/output"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// parseValue reads a command line value as JSON when it is valid JSON and as
// a plain string otherwise.
func parseValue(s string) any {
	if !json.Valid([]byte(s)) {
		return s
	}
	var v any
	if err := json.UnmarshalFromString(s, &v); err != nil {
		return s
	}
	return v
}

// parsePairs splits key=value flags.
func parsePairs(flag string, values []string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(values))
	for _, pair := range values {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, errUsage("--%s expects key=value, got %q", flag, pair)
		}
		out[k] = v
	}
	return out, nil
}

// readBody returns the --body value, loading it from a file when prefixed
// with @.
func readBody(value string) (any, error) {
	if path, ok := strings.CutPrefix(value, "@"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read body file: %w", err)
		}
		value = string(data)
	}
	return parseValue(value), nil
}

func newFormatter(w io.Writer) output.Formatter {
	if outputFlag == "json" {
		return output.NewJSONFormatter(output.JSONWithWriter(w))
	}
	return output.NewConsoleFormatter(
		output.WithWriter(w),
		output.WithVerbose(verboseFlag > 0),
		output.WithNoColor(noColorFlag),
	)
}
