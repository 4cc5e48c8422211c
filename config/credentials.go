package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrMissingBackendCredentials is returned when no source provides both the
// backend url and key. Callers treat it as fatal.
var ErrMissingBackendCredentials = errors.New("missing backend credentials")

type BackendCredentials struct {
	URL    string
	Key    string
	Source string
}

// CredentialSource yields a url/key pair. Either value may be empty.
type CredentialSource interface {
	Name() string
	Lookup() (url string, key string)
}

type flatSettings struct {
	settings map[string]interface{}
	urlKey   string
	keyKey   string
}

// FlatSettings reads top level keys such as BACKEND_URL from the settings file.
func FlatSettings(settings map[string]interface{}, urlKey, keyKey string) CredentialSource {
	return &flatSettings{settings: settings, urlKey: urlKey, keyKey: keyKey}
}

func (s *flatSettings) Name() string {
	return fmt.Sprintf("settings %s/%s", s.urlKey, s.keyKey)
}

func (s *flatSettings) Lookup() (string, string) {
	return lookupString(s.settings, s.urlKey), lookupString(s.settings, s.keyKey)
}

type nestedSettings struct {
	settings map[string]interface{}
	section  string
}

// NestedSettings reads {section: {url, key}} from the settings file.
func NestedSettings(settings map[string]interface{}, section string) CredentialSource {
	return &nestedSettings{settings: settings, section: section}
}

func (s *nestedSettings) Name() string {
	return fmt.Sprintf("settings %s.url/%s.key", s.section, s.section)
}

func (s *nestedSettings) Lookup() (string, string) {
	sub, ok := lookup(s.settings, s.section).(map[string]interface{})
	if !ok {
		return "", ""
	}
	return lookupString(sub, "url"), lookupString(sub, "key")
}

type envSource struct {
	lookupEnv func(string) (string, bool)
	urlKey    string
	keyKey    string
}

// EnvSource reads the pair from the process environment. A nil lookupEnv
// defaults to os.LookupEnv.
func EnvSource(lookupEnv func(string) (string, bool), urlKey, keyKey string) CredentialSource {
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	return &envSource{lookupEnv: lookupEnv, urlKey: urlKey, keyKey: keyKey}
}

func (s *envSource) Name() string {
	return fmt.Sprintf("env %s/%s", s.urlKey, s.keyKey)
}

func (s *envSource) Lookup() (string, string) {
	url, _ := s.lookupEnv(s.urlKey)
	key, _ := s.lookupEnv(s.keyKey)
	return strings.TrimSpace(url), strings.TrimSpace(key)
}

// DefaultCredentialSources returns the sources in priority order: flat
// settings, nested settings, env, then the legacy SUPABASE_* names.
func (c *Config) DefaultCredentialSources(lookupEnv func(string) (string, bool)) []CredentialSource {
	settings := c.Settings()
	return []CredentialSource{
		FlatSettings(settings, "BACKEND_URL", "BACKEND_KEY"),
		NestedSettings(settings, "backend"),
		EnvSource(lookupEnv, "BACKEND_URL", "BACKEND_KEY"),
		FlatSettings(settings, "SUPABASE_URL", "SUPABASE_ANON_KEY"),
		EnvSource(lookupEnv, "SUPABASE_URL", "SUPABASE_ANON_KEY"),
	}
}

// ResolveBackendCredentials returns the pair from the first source that has
// both a url and a key. Sources with only one of them are skipped.
func ResolveBackendCredentials(sources ...CredentialSource) (BackendCredentials, error) {
	consulted := make([]string, 0, len(sources))
	for _, src := range sources {
		url, key := src.Lookup()
		if url != "" && key != "" {
			return BackendCredentials{URL: strings.TrimRight(url, "/"), Key: key, Source: src.Name()}, nil
		}
		consulted = append(consulted, src.Name())
	}
	return BackendCredentials{}, fmt.Errorf("%w: checked %s", ErrMissingBackendCredentials, strings.Join(consulted, ", "))
}

// lookup is case-insensitive; viper lower-cases keys but callers may pass
// settings from elsewhere.
func lookup(settings map[string]interface{}, key string) interface{} {
	if v, ok := settings[key]; ok {
		return v
	}
	lower := strings.ToLower(key)
	for k, v := range settings {
		if strings.ToLower(k) == lower {
			return v
		}
	}
	return nil
}

func lookupString(settings map[string]interface{}, key string) string {
	s, ok := lookup(settings, key).(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
