package main

import (
	"log/slog"

	"pageforge/internal/assembly"
	"pageforge/internal/config"
	"pageforge/internal/contentgen"
	"pageforge/internal/notifications"
	"pageforge/internal/publishing"
	"pageforge/internal/research"
	"pageforge/internal/services/cms"
	"pageforge/internal/services/llm"
	"pageforge/internal/stage"
	"pageforge/internal/workflow"
)

func buildStages(cfg *config.Config, logger *slog.Logger) workflow.Stages {
	llmClient := llm.NewClient(cfg.LLM)

	var publisher stage.PublishExecutor
	if cfg.Publish.DryRun {
		publisher = publishing.NewDryRun(cfg, logger)
	} else {
		publisher = publishing.New(cfg, cms.NewClient(cfg.Publish), logger)
	}

	return workflow.Stages{
		Research: research.New(cfg, llmClient, logger),
		Generate: contentgen.New(cfg, llmClient, logger),
		Assemble: assembly.New(cfg, logger),
		Publish:  publisher,
	}
}

func buildNotifier(cfg *config.Config, logger *slog.Logger) workflow.Notifier {
	return notifications.NewWorkflowNotifier(notifications.NewService(cfg), logger)
}
