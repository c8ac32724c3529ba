package env

import (
	"os"
	"path/filepath"
	"strings"
)

// EnvFiles returns the dotenv files that exist in dir for the named
// environment, lowest precedence first.
func EnvFiles(dir, name string) []string {
	candidates := []string{".env"}
	if name != "" {
		candidates = append(candidates, ".env."+name)
	}
	candidates = append(candidates, ".env.local")

	var found []string
	for _, c := range candidates {
		path := filepath.Join(dir, c)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			found = append(found, path)
		}
	}
	return found
}

// LoadEnvironment merges the dotenv files of the named environment in dir.
// Later files win.
func LoadEnvironment(dir, name string) (map[string]string, error) {
	result := make(map[string]string)
	for _, path := range EnvFiles(dir, name) {
		vars, err := LoadDotEnv(path)
		if err != nil {
			return nil, err
		}
		for k, v := range vars {
			result[k] = v
		}
	}
	return result, nil
}

func MergeVariables(sources ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, src := range sources {
		for k, v := range src {
			result[k] = v
		}
	}
	return result
}

// LoadSystemEnv returns the OS environment variables starting with prefix,
// keyed by the remainder of their name.
func LoadSystemEnv(prefix string) map[string]string {
	result := make(map[string]string)
	for _, e := range os.Environ() {
		key, value, ok := strings.Cut(e, "=")
		if !ok {
			continue
		}
		if prefix == "" {
			result[key] = value
		} else if rest, found := strings.CutPrefix(key, prefix); found && rest != "" {
			result[rest] = value
		}
	}
	return result
}
