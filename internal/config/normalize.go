package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeWorkflow()
	c.normalizeRetry()
	c.normalizePublish()
	if err := c.normalizeCatalog(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name  string
		value *string
	}{
		{"data_dir", &c.DataDir},
		{"staging_dir", &c.StagingDir},
		{"log_dir", &c.LogDir},
		{"socket_path", &c.SocketPath},
	}
	for _, field := range fields {
		expanded, err := expandPath(*field.value)
		if err != nil {
			return fmt.Errorf("expand %s: %w", field.name, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = defaultQueuePollInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}
	if c.Workflow.MaxConcurrentTotal <= 0 {
		c.Workflow.MaxConcurrentTotal = defaultMaxConcurrentTotal
	}
	if c.Workflow.ResearchTimeout <= 0 {
		c.Workflow.ResearchTimeout = defaultResearchTimeout
	}
	if c.Workflow.GenerateTimeout <= 0 {
		c.Workflow.GenerateTimeout = defaultGenerateTimeout
	}
	if c.Workflow.AssembleTimeout <= 0 {
		c.Workflow.AssembleTimeout = defaultAssembleTimeout
	}
	if c.Workflow.PublishTimeout <= 0 {
		c.Workflow.PublishTimeout = defaultPublishTimeout
	}
	if c.Workflow.LeaseTimeout <= 0 {
		c.Workflow.LeaseTimeout = defaultLeaseTimeout
	}
}

func (c *Config) normalizeRetry() {
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = defaultMaxRetryAttempts
	}
	if c.Retry.BaseDelaySeconds <= 0 {
		c.Retry.BaseDelaySeconds = defaultBaseDelaySeconds
	}
	if c.Retry.MaxDelaySeconds <= 0 {
		c.Retry.MaxDelaySeconds = defaultMaxDelaySeconds
	}
}

func (c *Config) normalizePublish() {
	if c.Publish.BatchSize <= 0 {
		c.Publish.BatchSize = defaultBatchSize
	}
	if c.Publish.DelayBetweenBatchesSeconds < 0 {
		c.Publish.DelayBetweenBatchesSeconds = defaultBatchDelaySeconds
	}
	if c.Publish.RequestTimeout <= 0 {
		c.Publish.RequestTimeout = defaultPublishTimeoutHTTP
	}
	if strings.TrimSpace(c.Publish.URLPattern) == "" {
		c.Publish.URLPattern = defaultURLPattern
	}
	c.Publish.BaseURL = strings.TrimRight(strings.TrimSpace(c.Publish.BaseURL), "/")
	c.Publish.APIEndpoint = strings.TrimSpace(c.Publish.APIEndpoint)
}

func (c *Config) normalizeCatalog() error {
	var err error
	if c.Catalog.ServicesPath, err = expandPath(c.Catalog.ServicesPath); err != nil {
		return fmt.Errorf("expand services_path: %w", err)
	}
	if c.Catalog.LocationsPath, err = expandPath(c.Catalog.LocationsPath); err != nil {
		return fmt.Errorf("expand locations_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaultLogFormat
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaultLogLevel
	}
}
