package compositor

import (
	"embed"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"

	"sigs.k8s.io/yaml"
)

//go:embed templates/*.yaml
var templateFS embed.FS

const (
	TokenAvatar     = "__AVATAR__"
	TokenBackground = "__BG__"
	TokenLogo       = "__LOGO__"
	TokenAccent     = "__ACCENT__"
	TokenTitle      = "__TITLE__"
	TokenScript     = "__SCRIPT__"
)

var tokenPattern = regexp.MustCompile(`__[A-Z][A-Z0-9_]*__`)

// TemplateBindingError means a placeholder of the template could not be
// resolved. It is fatal to the render attempt.
type TemplateBindingError struct {
	Template string
	Token    string
	Reason   string
}

func (e *TemplateBindingError) Error() string {
	return fmt.Sprintf("template %q: placeholder %s %s", e.Template, e.Token, e.Reason)
}

// Bindings are the per-render values substituted into a template.
type Bindings struct {
	Avatar     string
	Background string
	Logo       string
	Accent     string
	Title      string
	Script     string
}

func (b Bindings) values() map[string]string {
	return map[string]string{
		TokenAvatar:     b.Avatar,
		TokenBackground: b.Background,
		TokenLogo:       b.Logo,
		TokenAccent:     b.Accent,
		TokenTitle:      b.Title,
		TokenScript:     b.Script,
	}
}

// Template is a declarative render description: timeline tracks and output
// settings, with placeholder tokens in string values.
type Template struct {
	Name     string
	document map[string]any
}

var (
	loadOnce  sync.Once
	templates map[string]Template
	loadErr   error
)

// Templates returns the built-in templates keyed by name.
func Templates() (map[string]Template, error) {
	loadOnce.Do(func() {
		templates, loadErr = loadTemplates()
	})
	return templates, loadErr
}

func TemplateNames() []string {
	all, err := Templates()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func loadTemplates() (map[string]Template, error) {
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, err
	}

	out := make(map[string]Template, len(entries))
	for _, e := range entries {
		raw, err := templateFS.ReadFile(path.Join("templates", e.Name()))
		if err != nil {
			return nil, err
		}
		var doc map[string]any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", e.Name(), err)
		}
		name := strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
		out[name] = Template{Name: name, document: doc}
	}
	return out, nil
}

// Tokens lists the distinct placeholders used by the template.
func (t Template) Tokens() []string {
	seen := map[string]struct{}{}
	walkStrings(t.document, func(s string) {
		for _, tok := range tokenPattern.FindAllString(s, -1) {
			seen[tok] = struct{}{}
		}
	})
	out := make([]string, 0, len(seen))
	for tok := range seen {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}

// Bind returns a copy of the template document with every placeholder
// replaced. It fails when a placeholder has no value or is unknown.
// Substitution is a single pass: bound values are inserted verbatim, even
// when they contain text shaped like a placeholder.
func (t Template) Bind(b Bindings) (map[string]any, error) {
	values := b.values()

	for _, tok := range t.Tokens() {
		v, known := values[tok]
		if !known {
			return nil, &TemplateBindingError{Template: t.Name, Token: tok, Reason: "is not a known placeholder"}
		}
		if strings.TrimSpace(v) == "" {
			return nil, &TemplateBindingError{Template: t.Name, Token: tok, Reason: "has no value"}
		}
	}

	bound, ok := substitute(t.document, values).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("template %q is not an object", t.Name)
	}
	return bound, nil
}

func substitute(node any, values map[string]string) any {
	switch v := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, child := range v {
			out[k] = substitute(child, values)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, child := range v {
			out[i] = substitute(child, values)
		}
		return out
	case string:
		return tokenPattern.ReplaceAllStringFunc(v, func(tok string) string {
			if val, ok := values[tok]; ok {
				return val
			}
			return tok
		})
	default:
		return v
	}
}

func walkStrings(node any, fn func(string)) {
	switch v := node.(type) {
	case map[string]any:
		for _, child := range v {
			walkStrings(child, fn)
		}
	case []any:
		for _, child := range v {
			walkStrings(child, fn)
		}
	case string:
		fn(v)
	}
}
