package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// SinglePrompt holds a single system prompt (no user template).
type SinglePrompt struct {
	System string `yaml:"system"`
}

// ExtractionPrompts holds the cookbook-photo extraction prompt templates.
// Inline is used with inline image payloads; SignedURL is the fallback
// template that references uploaded pages by URL.
type ExtractionPrompts struct {
	Inline    string `yaml:"inline"`
	SignedURL string `yaml:"signed_url"`
}

// VoicePrompts holds the voice-turn interpretation templates.
type VoicePrompts struct {
	Interpret string `yaml:"interpret"`
}

// Prompts is the top-level prompt configuration loaded from YAML.
type Prompts struct {
	Extraction ExtractionPrompts `yaml:"extraction"`
	Voice      VoicePrompts      `yaml:"voice"`
	CookingQA  SinglePrompt      `yaml:"cooking_qa"`
}

// LoadPrompts reads and parses a YAML prompt configuration file.
func LoadPrompts(path string) (*Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	var prompts Prompts
	if err := yaml.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("failed to parse prompts YAML: %w", err)
	}

	return &prompts, nil
}

// RenderPrompt executes Go template interpolation on a prompt string.
// The data map provides values for placeholders like {{.CurrentStep}} and
// {{.RecipeContext}}.
func RenderPrompt(tmpl string, data map[string]interface{}) (string, error) {
	t, err := template.New("prompt").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse prompt template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt template: %w", err)
	}

	return strings.TrimSpace(buf.String()), nil
}
