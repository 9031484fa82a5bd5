package llm

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// DefaultPromptTemplate asks for a one-line commit message. {{.Diff}} is
// replaced with the staged diff.
const DefaultPromptTemplate = `Please summarize the following code changes into a clear and concise commit message.
The commit message should accurately reflect the changes made and follow best practices.

Examples:

- "Fix login issue by correcting variable typo in authentication module"
- "Add unit tests for user registration functionality"
- "Refactor database connection logic for improved performance"
- "Update README with installation instructions"
- "Remove unused import statements and clean up code style"
- "Implement password reset feature via email"
- "Upgrade project to use React 17"

Here are the changes:
{{.Diff}}
`

// Prompt renders the text sent to the model.
type Prompt struct {
	tmpl *template.Template
}

type promptData struct {
	Diff string
}

// NewPrompt parses text as a prompt template. An empty text selects
// DefaultPromptTemplate. The template must reference {{.Diff}}.
func NewPrompt(text string) (*Prompt, error) {
	if strings.TrimSpace(text) == "" {
		text = DefaultPromptTemplate
	}
	if !strings.Contains(text, ".Diff") {
		return nil, fmt.Errorf("prompt template does not reference {{.Diff}}")
	}

	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}
	return &Prompt{tmpl: tmpl}, nil
}

// Render fills the template with diff.
func (p *Prompt) Render(diff string) (string, error) {
	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, promptData{Diff: diff}); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}

// quoteChars are stripped from both ends of a model response.
const quoteChars = "\"'`"

// CleanResponse trims whitespace and surrounding quote characters from a
// model response.
func CleanResponse(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, quoteChars)
	return strings.TrimSpace(s)
}
