package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultLocale = "en_US"

//go:embed lang/en_US.yaml
var builtinLocales embed.FS

type Locale struct {
	translations map[string]string
	locale       string
}

var globalLocale *Locale

// InitLocale loads the system locale, falling back to the built-in English
// catalog.
func InitLocale() error {
	locale := DetectSystemLocale()

	l, err := LoadLocale(locale)
	if err != nil {
		if locale != defaultLocale {
			fmt.Printf("Warning: Failed to load locale '%s', falling back to %s: %v\n", locale, defaultLocale, err)
		}
		l, err = LoadLocale(defaultLocale)
		if err != nil {
			return fmt.Errorf("failed to load fallback locale %s: %w", defaultLocale, err)
		}
	}

	globalLocale = l
	return nil
}

// DetectSystemLocale returns e.g. "en_US" from LANG, LC_ALL or LC_MESSAGES.
func DetectSystemLocale() string {
	for _, name := range []string{"LANG", "LC_ALL", "LC_MESSAGES"} {
		value := os.Getenv(name)
		if value == "" {
			continue
		}
		parts := strings.Split(value, ".")
		if parts[0] != "" && parts[0] != "C" && parts[0] != "POSIX" {
			return parts[0]
		}
	}
	return defaultLocale
}

// LoadLocale reads lang/<locale>.yaml next to the executable, then the
// catalog compiled into the binary.
func LoadLocale(locale string) (*Locale, error) {
	data, err := readLocaleFile(locale)
	if err != nil {
		return nil, err
	}
	return parseLocale(locale, data)
}

func readLocaleFile(locale string) ([]byte, error) {
	if exePath, err := os.Executable(); err == nil {
		localeFile := filepath.Join(filepath.Dir(exePath), "lang", locale+".yaml")
		if data, err := os.ReadFile(localeFile); err == nil {
			return data, nil
		}
	}

	data, err := builtinLocales.ReadFile("lang/" + locale + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("no catalog for locale %s: %w", locale, err)
	}
	return data, nil
}

func parseLocale(locale string, data []byte) (*Locale, error) {
	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("failed to parse locale %s: %w", locale, err)
	}

	return &Locale{
		translations: translations,
		locale:       locale,
	}, nil
}

// T translates key, formatting params into it fmt.Sprintf style. Unknown
// keys are returned as-is.
func T(key string, params ...interface{}) string {
	if globalLocale == nil {
		return key
	}

	translation, ok := globalLocale.translations[key]
	if !ok {
		return key
	}

	if len(params) > 0 {
		return fmt.Sprintf(translation, params...)
	}

	return translation
}

func GetLocale() string {
	if globalLocale == nil {
		return defaultLocale
	}
	return globalLocale.locale
}
