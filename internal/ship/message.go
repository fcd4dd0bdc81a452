package ship

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/huimingz/shipit-go/internal/llm"
)

// Composed is a commit group rendered as a conventional commit message
type Composed struct {
	// Prefix is type[(scope)][!], or "" when the description already starts with it
	Prefix      string
	Description string
	Message     string
}

// Header returns the first line of the message
func (c Composed) Header() string {
	if c.Prefix == "" {
		return c.Description
	}
	return c.Prefix + ": " + c.Description
}

// Prefix returns the conventional commit prefix type[(scope)][!] of a group
func Prefix(g llm.CommitGroup) string {
	var b strings.Builder
	b.WriteString(g.Type)
	if g.Scope != "" {
		b.WriteString("(" + g.Scope + ")")
	}
	if g.Breaking {
		b.WriteString("!")
	}
	return b.String()
}

// Compose builds the commit message for a group.
// A description the model already prefixed with type(scope)!: keeps its own prefix.
func Compose(g llm.CommitGroup) Composed {
	c := Composed{
		Prefix:      Prefix(g),
		Description: decapitalize(g.Description),
	}
	if strings.HasPrefix(c.Description, c.Prefix+":") {
		c.Prefix = ""
	}

	parts := []string{c.Header()}
	if g.Body != "" {
		parts = append(parts, g.Body)
	}
	if len(g.Footers) > 0 {
		parts = append(parts, strings.Join(g.Footers, "\n"))
	}
	c.Message = strings.Join(parts, "\n\n")
	return c
}

func decapitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
