package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"charm.land/fantasy"
	"charm.land/fantasy/providers/anthropic"
	"charm.land/fantasy/providers/openai"
	"charm.land/fantasy/providers/openrouter"
	"charm.land/fantasy/schema"
)

// Provider is a language model that digests insight text into a
// structured summary.
type Provider interface {
	GenerateSummary(ctx context.Context, prompt string) (*Summary, error)
}

// Summary is the structured digest of a topic's insights.
type Summary struct {
	Title     string   `json:"title"`
	Overview  string   `json:"overview"`
	KeyPoints []string `json:"key_points"`
	Tags      []string `json:"tags"`
}

var summarySchema = schema.Generate(reflect.TypeOf(Summary{}))

var _ Provider = (*FantasyProvider)(nil)

type FantasyProvider struct {
	model fantasy.LanguageModel
	name  string
}

func NewFantasyProvider(ctx context.Context, name string, cfg ProviderConfig) (*FantasyProvider, error) {
	var provider fantasy.Provider
	var err error

	switch name {
	case "openai":
		opts := []openai.Option{openai.WithAPIKey(cfg.APIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		provider, err = openai.New(opts...)

	case "anthropic":
		opts := []anthropic.Option{anthropic.WithAPIKey(cfg.APIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		provider, err = anthropic.New(opts...)

	case "openrouter":
		opts := []openrouter.Option{openrouter.WithAPIKey(cfg.APIKey)}
		provider, err = openrouter.New(opts...)

	default:
		return nil, fmt.Errorf("%w: unsupported provider %q", ErrInvalidArgument, name)
	}

	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}

	model, err := provider.LanguageModel(ctx, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("get language model: %w", err)
	}

	return &FantasyProvider{model: model, name: name}, nil
}

func (p *FantasyProvider) GenerateSummary(ctx context.Context, prompt string) (*Summary, error) {
	resp, err := p.model.GenerateObject(ctx, fantasy.ObjectCall{
		Prompt: fantasy.Prompt{fantasy.NewUserMessage(prompt)},
		Schema: summarySchema,
	})
	if err != nil {
		return nil, fmt.Errorf("generate summary: %w", err)
	}

	switch obj := resp.Object.(type) {
	case Summary:
		return &obj, nil
	case *Summary:
		return obj, nil
	}

	// Models that return the object as a generic map get decoded through
	// its json form.
	data, err := json.Marshal(resp.Object)
	if err != nil {
		return nil, fmt.Errorf("encode summary object: %w", err)
	}
	var summary Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("decode summary object: %w", err)
	}
	return &summary, nil
}
