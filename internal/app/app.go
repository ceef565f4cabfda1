// Package app wires configuration into the gateway, dialogue, correction,
// article and server components.
package app

import (
	"fmt"

	"nuance/internal/article"
	"nuance/internal/config"
	"nuance/internal/correction"
	"nuance/internal/dialogue"
	"nuance/internal/gateway"
	"nuance/internal/logger"
	"nuance/internal/server"
	"nuance/internal/session"
	"nuance/pkg/nuancetypes"
)

// App holds the constructed services.
type App struct {
	Config       *config.Config
	Client       nuancetypes.LLMClient
	Store        *session.Store
	Orchestrator *dialogue.Orchestrator
	Analyzer     *correction.Analyzer
	Polisher     *article.Polisher
}

// Build constructs every service from cfg. A nil factory creates a fresh one.
func Build(cfg *config.Config, factory *gateway.ClientFactory) (*App, error) {
	if factory == nil {
		factory = gateway.NewClientFactory()
	}

	client, err := factory.GetClient(cfg.LLM.Provider, cfg.LLM.APIKey, cfg.LLM.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.LLM.Provider, err)
	}

	catalog, err := gateway.DefaultPrompts()
	if err != nil {
		return nil, err
	}
	interview, err := catalog.Get(gateway.PromptInterview)
	if err != nil {
		return nil, err
	}
	correctionPrompt, err := catalog.Get(gateway.PromptCorrection)
	if err != nil {
		return nil, err
	}
	polish, err := catalog.Get(gateway.PromptPolish)
	if err != nil {
		return nil, err
	}

	temperature := cfg.LLM.Temperature
	correctionTemperature := cfg.Correction.Temperature
	var maxTokens *int
	if cfg.LLM.MaxTokens > 0 {
		n := cfg.LLM.MaxTokens
		maxTokens = &n
	}

	store := session.NewStore()
	orchestrator := dialogue.New(store,
		gateway.NewPromptGateway(client, interview, gateway.ModelParams{
			Model:       cfg.LLM.Model,
			Temperature: &temperature,
			MaxTokens:   maxTokens,
		}),
		dialogue.Options{
			MaxTurns:          cfg.Dialogue.MaxTurns,
			Retries:           cfg.Dialogue.Retries,
			GenerationTimeout: cfg.Dialogue.GenerationTimeout,
			EndPhrases:        cfg.Dialogue.EndPhrases,
			EndSignals:        cfg.Dialogue.EndSignals,
		})

	analyzer := correction.NewAnalyzer(gateway.NewPromptGateway(client, correctionPrompt, gateway.ModelParams{
		Model:       cfg.LLM.Model,
		Temperature: &correctionTemperature,
	}))
	polisher := article.NewPolisher(gateway.NewPromptGateway(client, polish, gateway.ModelParams{
		Model:       cfg.LLM.Model,
		Temperature: &temperature,
	}))

	logger.Info("Services initialized", "provider", client.ProviderName(), "model", cfg.LLM.Model, "max_turns", orchestrator.MaxTurns())

	return &App{
		Config:       cfg,
		Client:       client,
		Store:        store,
		Orchestrator: orchestrator,
		Analyzer:     analyzer,
		Polisher:     polisher,
	}, nil
}

// Server returns the HTTP server for the app.
func (a *App) Server() *server.Server {
	return server.New(server.Deps{
		Store:        a.Store,
		Orchestrator: a.Orchestrator,
		Analyzer:     a.Analyzer,
		Polisher:     a.Polisher,
	}, server.Options{
		Addr:          a.Config.Server.Addr,
		CORSOrigins:   a.Config.Server.CORSOrigins,
		ReadTimeout:   a.Config.Server.ReadTimeout,
		WriteTimeout:  a.Config.Server.WriteTimeout,
		IdleTTL:       a.Config.Sessions.IdleTTL,
		SweepInterval: a.Config.Sessions.SweepInterval,
	})
}
