package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pageza/recipematch/backend/internal/logging"
	"github.com/pageza/recipematch/backend/internal/model"
)

// Render formats a recipe as Markdown: a title heading, an optional description,
// a bulleted ingredient list and numbered steps.
func Render(recipe model.Recipe) string {
	var b strings.Builder

	fmt.Fprintf(&b, "### 🍽️ %s\n\n", titleCase(recipe.Name))

	if desc := strings.TrimSpace(recipe.Description); desc != "" {
		fmt.Fprintf(&b, "#### ✒️ Description:\n%s\n\n", desc)
	}

	b.WriteString("#### 📋 Ingredients:\n")
	for _, ing := range recipe.Ingredients {
		fmt.Fprintf(&b, "- %s\n", ing)
	}
	b.WriteString("\n")

	b.WriteString("#### 🍳 Steps:\n")
	for i, step := range renderableSteps(recipe.Steps) {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}

	return b.String()
}

// renderableSteps splits any step that still carries list serialization
// residue; normally the store adapter has already done this.
func renderableSteps(steps []string) []string {
	out := make([]string, 0, len(steps))
	for _, s := range steps {
		if strings.HasPrefix(strings.TrimSpace(s), "[") {
			out = append(out, model.ParseSerializedList(s)...)
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

var (
	bulletLine   = regexp.MustCompile(`^([-*]\s+)(\S.*)$`)
	numberedLine = regexp.MustCompile(`^(\d+\.\s+)(\S.*)$`)
)

// Polish normalizes Markdown line by line. Headings get a title-cased remainder,
// list items and plain lines get their first letter upper-cased. Polish is
// idempotent.
func Polish(md string) string {
	lines := strings.Split(md, "\n")
	for i, line := range lines {
		lines[i] = polishLine(line)
	}
	return strings.Join(lines, "\n")
}

func polishLine(line string) string {
	if strings.TrimSpace(line) == "" {
		return line
	}

	if strings.HasPrefix(line, "#") {
		hashes := strings.TrimLeft(line, "#")
		prefix := line[:len(line)-len(hashes)]
		rest := strings.TrimLeft(hashes, " ")
		sep := hashes[:len(hashes)-len(rest)]
		return prefix + sep + titleCase(rest)
	}

	if m := bulletLine.FindStringSubmatch(line); m != nil {
		return m[1] + capitalizeFirst(m[2])
	}
	if m := numberedLine.FindStringSubmatch(line); m != nil {
		return m[1] + capitalizeFirst(m[2])
	}
	return capitalizeFirst(line)
}

// capitalizeFirst upper-cases the first rune and leaves the rest untouched.
func capitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || !unicode.IsLower(r) {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// titleCase upper-cases the first letter of every word and lower-cases the
// rest. Letters, digits and apostrophes continue a word.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inWord := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			if inWord {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			inWord = true
		case unicode.IsDigit(r) || r == '\'':
			b.WriteRune(r)
			inWord = inWord || unicode.IsDigit(r)
		default:
			b.WriteRune(r)
			inWord = false
		}
	}
	return b.String()
}

const flairPrompt = `You are a friendly cooking assistant. Decorate the recipe below for a chat reply:
you may add a one-line welcoming intro, fitting emoji and light formatting.
Do not change the recipe name, ingredients, quantities or steps, and do not add or remove any.
Return only the Markdown.

%s`

// FlairWriter decorates rendered Markdown through a text generator.
type FlairWriter struct {
	generator TextGenerator
}

// NewFlairWriter creates a new FlairWriter instance
func NewFlairWriter(generator TextGenerator) *FlairWriter {
	return &FlairWriter{generator: generator}
}

// AddFlair is best effort: on any failure, or an empty reply, md comes back unchanged.
func (f *FlairWriter) AddFlair(ctx context.Context, md string) string {
	if f == nil || f.generator == nil {
		return md
	}
	out, err := f.generator.Generate(ctx, fmt.Sprintf(flairPrompt, md))
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("flair generation failed, returning plain markdown")
		return md
	}
	if strings.TrimSpace(out) == "" {
		return md
	}
	return strings.TrimSpace(out) + "\n"
}
