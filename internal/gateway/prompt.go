package gateway

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"nuance/internal/data/embedded"
	"nuance/internal/logger"
	"nuance/pkg/nuancetypes"
)

// Prompt names in the embedded catalog.
const (
	PromptInterview  = "interview"
	PromptCorrection = "correction"
	PromptPolish     = "polish"
)

type promptFile struct {
	Prompts []struct {
		Name   string `yaml:"name"`
		System string `yaml:"system"`
		User   string `yaml:"user"`
	} `yaml:"prompts"`
}

// Prompt is a named pair of system and user templates.
type Prompt struct {
	Name   string
	system *template.Template
	user   *template.Template
}

// Render executes both templates. Missing variables are errors.
func (p *Prompt) Render(vars map[string]string) (string, string, error) {
	var system, user strings.Builder
	if err := p.system.Execute(&system, vars); err != nil {
		return "", "", fmt.Errorf("%w: %s system: %v", ErrPromptRender, p.Name, err)
	}
	if err := p.user.Execute(&user, vars); err != nil {
		return "", "", fmt.Errorf("%w: %s user: %v", ErrPromptRender, p.Name, err)
	}
	return strings.TrimSpace(system.String()), strings.TrimSpace(user.String()), nil
}

// PromptCatalog holds parsed prompts by name.
type PromptCatalog struct {
	prompts map[string]*Prompt
}

// LoadPrompts parses a YAML prompt catalog.
func LoadPrompts(data []byte) (*PromptCatalog, error) {
	var file promptFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse prompt catalog: %w", err)
	}

	catalog := &PromptCatalog{prompts: make(map[string]*Prompt, len(file.Prompts))}
	for _, entry := range file.Prompts {
		if entry.Name == "" {
			return nil, fmt.Errorf("prompt catalog entry without name")
		}
		system, err := template.New(entry.Name + ".system").Option("missingkey=error").Parse(entry.System)
		if err != nil {
			return nil, fmt.Errorf("invalid system template for %s: %w", entry.Name, err)
		}
		user, err := template.New(entry.Name + ".user").Option("missingkey=error").Parse(entry.User)
		if err != nil {
			return nil, fmt.Errorf("invalid user template for %s: %w", entry.Name, err)
		}
		catalog.prompts[entry.Name] = &Prompt{Name: entry.Name, system: system, user: user}
	}
	return catalog, nil
}

// DefaultPrompts loads the catalog embedded in the binary.
func DefaultPrompts() (*PromptCatalog, error) {
	return LoadPrompts(embedded.PromptsData)
}

// Get returns the prompt with the given name.
func (c *PromptCatalog) Get(name string) (*Prompt, error) {
	p, ok := c.prompts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPrompt, name)
	}
	return p, nil
}

// ModelParams are the generation parameters applied to every call of a PromptGateway.
type ModelParams struct {
	Model       string
	Temperature *float64
	MaxTokens   *int
}

// PromptGateway implements nuancetypes.Generator by rendering a prompt and sending
// it to an LLM client.
type PromptGateway struct {
	client nuancetypes.LLMClient
	prompt *Prompt
	params ModelParams
}

// NewPromptGateway binds a client, a prompt and model parameters.
func NewPromptGateway(client nuancetypes.LLMClient, prompt *Prompt, params ModelParams) *PromptGateway {
	return &PromptGateway{client: client, prompt: prompt, params: params}
}

// Generate renders the prompt with vars and returns the model's text.
func (g *PromptGateway) Generate(ctx context.Context, vars map[string]string) (string, error) {
	system, user, err := g.prompt.Render(vars)
	if err != nil {
		return "", err
	}
	if !g.client.IsConfigured() {
		return "", fmt.Errorf("%s: %w", g.client.ProviderName(), ErrNotConfigured)
	}

	logger.Debug("Generating", "prompt", g.prompt.Name, "provider", g.client.ProviderName(), "model", g.params.Model)
	return g.client.Complete(ctx, nuancetypes.CompletionRequest{
		Model:        g.params.Model,
		SystemPrompt: system,
		Messages:     []nuancetypes.ChatMessage{{Role: "user", Content: user}},
		Temperature:  g.params.Temperature,
		MaxTokens:    g.params.MaxTokens,
	})
}
