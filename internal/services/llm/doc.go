// Package llm wraps the chat-completions API used by the research and
// content generation executors. Failures are tagged with the services
// taxonomy at this boundary: rate limits and server errors are retriable,
// other HTTP rejections are fatal.
package llm
