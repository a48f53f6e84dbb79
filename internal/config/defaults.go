package config

const (
	defaultDataDir    = "~/.local/share/pageforge/data"
	defaultStagingDir = "~/.local/share/pageforge/staging"
	defaultLogDir     = "~/.local/share/pageforge/logs"
	defaultSocketPath = "~/.local/share/pageforge/pageforged.sock"

	defaultQueuePollInterval  = 10
	defaultErrorRetryInterval = 30
	defaultMaxConcurrentTotal = 5
	defaultResearchTimeout    = 180
	defaultGenerateTimeout    = 300
	defaultAssembleTimeout    = 120
	defaultPublishTimeout     = 120
	defaultLeaseTimeout       = 600

	defaultMaxRetryAttempts = 3
	defaultBaseDelaySeconds = 5
	defaultMaxDelaySeconds  = 300

	defaultBatchSize           = 10
	defaultBatchDelaySeconds   = 30
	defaultPublishTimeoutHTTP  = 30
	defaultURLPattern          = "{service_slug}/{location_key}"
	defaultLLMBaseURL          = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel            = "google/gemini-3-flash-preview"
	defaultLLMTimeoutSeconds   = 120
	defaultMinWordCount        = 600
	defaultMaxWordCount        = 1500
	defaultMaxTitleLength      = 60
	defaultMaxMetaLength       = 155
	defaultServicesPath        = "~/.config/pageforge/services.json"
	defaultLocationsPath       = "~/.config/pageforge/locations.json"
	defaultNotifyTimeout       = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
			SocketPath: defaultSocketPath,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			MaxConcurrentTotal: defaultMaxConcurrentTotal,
			ResearchTimeout:    defaultResearchTimeout,
			GenerateTimeout:    defaultGenerateTimeout,
			AssembleTimeout:    defaultAssembleTimeout,
			PublishTimeout:     defaultPublishTimeout,
			LeaseTimeout:       defaultLeaseTimeout,
		},
		Retry: Retry{
			MaxAttempts:      defaultMaxRetryAttempts,
			BaseDelaySeconds: defaultBaseDelaySeconds,
			MaxDelaySeconds:  defaultMaxDelaySeconds,
		},
		Publish: Publish{
			// Dry run until a publish target is configured; a fresh install
			// must not attempt live publishes.
			DryRun:                     true,
			BatchSize:                  defaultBatchSize,
			DelayBetweenBatchesSeconds: defaultBatchDelaySeconds,
			VerificationEnabled:        true,
			RollbackOnFailure:          true,
			URLPattern:                 defaultURLPattern,
			SitemapEnabled:             true,
			RequestTimeout:             defaultPublishTimeoutHTTP,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Content: Content{
			MinWordCount:             defaultMinWordCount,
			MaxWordCount:             defaultMaxWordCount,
			MaxTitleLength:           defaultMaxTitleLength,
			MaxMetaDescriptionLength: defaultMaxMetaLength,
		},
		Catalog: Catalog{
			ServicesPath:  defaultServicesPath,
			LocationsPath: defaultLocationsPath,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Errors:         true,
			Batches:        true,
			Queue:          true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
