// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	"github.com/coursecast/coursecast/color"
	"github.com/coursecast/coursecast/constant"
	"github.com/coursecast/coursecast/key"
	"github.com/coursecast/coursecast/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string

	check func(any) error
}

// Validate checks a candidate value for the key before it is stored.
func Validate(k string, v any) error {
	f, ok := Default[k]
	if !ok {
		return fmt.Errorf("unknown key %s", k)
	}
	if reflect.TypeOf(v) != reflect.TypeOf(f.Value) {
		return fmt.Errorf("%s expects %s, got %T", k, f.typeName(), v)
	}
	if f.check != nil {
		return f.check(v)
	}
	return nil
}

func intRange(from, to int) func(any) error {
	return func(v any) error {
		n := v.(int)
		if n < from || n > to {
			return fmt.Errorf("must be between %d and %d, got %d", from, to, n)
		}
		return nil
	}
}

func oneOf(options ...string) func(any) error {
	return func(v any) error {
		if !lo.Contains(options, v.(string)) {
			return fmt.Errorf("must be one of %s", strings.Join(options, ", "))
		}
		return nil
	}
}

func httpURL(v any) error {
	s := v.(string)
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return fmt.Errorf("must be an http(s) URL, got %q", s)
	}
	return nil
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.App + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON customizes JSON output to include current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

// typeName returns the string representation of the field's underlying value type.
func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	case []int:
		return "[]int"
	default:
		return "unknown"
	}
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	// register validates and adds a new configuration field to the global registry.
	register := func(k string, v any, desc string, check ...func(any) error) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		f := Field{Key: k, Value: v, Description: desc}
		if len(check) > 0 {
			f.check = check[0]
		}
		Default[k] = f
		EnvExposed = append(EnvExposed, k)
	}

	register(key.APIBaseURL, "http://localhost:8000/api", "Base URL of the learning backend API", httpURL)
	register(key.APITimeout, 15, "Timeout in seconds applied to every backend request", intRange(1, 300))
	register(key.APIRetries, 2, "Extra attempts for idempotent requests (lesson lookups) on network or server errors.\nProgress updates are never retried by the client", intRange(0, 10))
	register(key.TrackerInterval, 10, "Seconds between periodic progress saves while a lesson is playing", intRange(1, 600))
	register(key.TrackerCompletionPercentage, 80, "Completion hint shown when the backend does not send a threshold (1-100).\nThe backend always decides whether a lesson is completed", intRange(1, 100))
	register(key.PlayerBinary, "mpv", "Path or name of the mpv executable")
	register(key.PlayerResume, true, "Seek to the last watched second when a lesson starts")
	register(key.OutboxEnable, true, "Queue progress that could not be saved and replay it on the next start")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, kaomoji, plain, squares, nerd (nerd-font required)",
		oneOf("emoji", "kaomoji", "plain", "squares", "nerd"))
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace",
		oneOf("panic", "fatal", "error", "warn", "info", "debug", "trace"))
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Enable colored CLI output")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"cyan":     style.Fg(color.Cyan),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
