// Package llm asks a locally hosted language model for commit messages.
//
// OllamaClient posts the rendered prompt to Ollama's /api/generate endpoint
// with streaming disabled and returns the cleaned response text. The prompt
// is a text/template with a single {{.Diff}} placeholder.
//
// Every failure, from transport errors to non-2xx responses, is returned
// as a *errors.ModelError matching errors.ErrModelRequestFailed.
package llm
