package ai

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

//go:embed prompts/*.txt
var builtinPrompts embed.FS

// PromptManager loads prompt templates from a directory, falling back to the
// templates compiled into the binary
type PromptManager struct {
	PromptsDir string
}

// NewPromptManager creates a prompt manager. An empty dir uses only the built-in prompts.
func NewPromptManager(promptsDir string) *PromptManager {
	return &PromptManager{PromptsDir: promptsDir}
}

// LoadPrompt loads a prompt template by name
func (pm *PromptManager) LoadPrompt(name string) (string, error) {
	if pm.PromptsDir != "" {
		content, err := os.ReadFile(filepath.Join(pm.PromptsDir, name+".txt"))
		if err == nil {
			return string(content), nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to load prompt %s: %w", name, err)
		}
	}

	content, err := builtinPrompts.ReadFile("prompts/" + name + ".txt")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("prompt template not found: %s", name)
		}
		return "", fmt.Errorf("failed to load prompt %s: %w", name, err)
	}
	return string(content), nil
}

// RenderPrompt replaces {PLACEHOLDER} with values
func (pm *PromptManager) RenderPrompt(name string, replacements map[string]string) (string, error) {
	template, err := pm.LoadPrompt(name)
	if err != nil {
		return "", err
	}

	pairs := make([]string, 0, len(replacements)*2)
	for placeholder, value := range replacements {
		pairs = append(pairs, "{"+placeholder+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template), nil
}
