package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks configuration consistency. It does not touch the filesystem.
func (c *Config) Validate() error {
	checks := []func() error{
		c.validatePaths,
		c.validateWorkflow,
		c.validateRetry,
		c.validatePublish,
		c.validateLogging,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New("paths.data_dir is required")
	}
	if strings.TrimSpace(c.StagingDir) == "" {
		return errors.New("paths.staging_dir is required")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	for stage, limit := range c.Workflow.MaxConcurrentPerStage {
		switch stage {
		case "research", "generate", "assemble", "publish":
		default:
			return fmt.Errorf("workflow.max_concurrent_per_stage: unknown stage %q", stage)
		}
		if limit < 0 {
			return fmt.Errorf("workflow.max_concurrent_per_stage.%s must not be negative", stage)
		}
	}
	return nil
}

func (c *Config) validateRetry() error {
	if c.Retry.MaxDelaySeconds < c.Retry.BaseDelaySeconds {
		return errors.New("retry.max_delay_seconds must not be below retry.base_delay_seconds")
	}
	return nil
}

func (c *Config) validatePublish() error {
	if c.Publish.DryRun {
		return nil
	}
	if strings.TrimSpace(c.Publish.BaseURL) == "" {
		return errors.New("publish.base_url is required unless publish.dry_run is set")
	}
	if strings.TrimSpace(c.Publish.APIEndpoint) == "" {
		return errors.New("publish.api_endpoint is required unless publish.dry_run is set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
}
