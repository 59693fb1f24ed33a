// Package tui fills a validator-backed form from the terminal. Prompts come
// from a PromptDriver (survey by default); answers flow through the field
// bindings so errors surface the same way they do in HTML forms.
package tui
