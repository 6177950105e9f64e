package templates

import (
	"embed"
	"strings"

	"github.com/aymerick/raymond"
)

//go:embed scripts/*.hbs
var Scripts embed.FS

const (
	MkdirScriptPath   = "scripts/mkdir.hbs"
	RestartScriptPath = "scripts/restart.hbs"
)

// RenderScript renders an embedded script. String values are shell-quoted
// before they reach the template.
func RenderScript(path string, values map[string]interface{}) (string, error) {
	source, err := Scripts.ReadFile(path)

	if err != nil {
		return "", err
	}

	tpl, err := raymond.Parse(string(source))

	if err != nil {
		return "", err
	}

	ctx := make(map[string]interface{}, len(values))
	for k, v := range values {
		if s, ok := v.(string); ok {
			ctx[k] = raymond.SafeString(ShellQuote(s))
			continue
		}
		ctx[k] = v
	}

	out, err := tpl.Exec(ctx)

	if err != nil {
		return "", err
	}

	return strings.TrimSpace(out), nil
}

// ShellQuote wraps s in single quotes unless it only holds characters that
// are safe unquoted in a POSIX shell.
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}

	safe := true
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("/._-+=:,@%", r)) {
			safe = false
			break
		}
	}

	if safe {
		return s
	}

	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
