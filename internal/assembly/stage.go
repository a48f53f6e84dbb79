// Package assembly implements the page assembly stage executor: structured
// content becomes a complete HTML page with schema markup on disk, ready for
// publishing.
package assembly

import (
	"bytes"
	"context"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"pageforge/internal/config"
	"pageforge/internal/logging"
	"pageforge/internal/queue"
	"pageforge/internal/services"
	"pageforge/internal/stage"
)

//go:embed page.html.tmpl
var pageTemplate string

// Assembler renders assembled pages into the staging directory.
type Assembler struct {
	stagingDir string
	logger     *slog.Logger
	tmpl       *template.Template
	titler     cases.Caser
}

// New constructs the assembly executor. The embedded template is parsed once;
// a parse failure is a programming error and panics at startup.
func New(cfg *config.Config, logger *slog.Logger) *Assembler {
	return &Assembler{
		stagingDir: cfg.StagingDir,
		logger:     logging.NewComponentLogger(logger, "assembly"),
		tmpl:       template.Must(template.New("page").Parse(pageTemplate)),
		titler:     cases.Title(language.AmericanEnglish),
	}
}

type pageData struct {
	Title           string
	MetaDescription string
	ServiceName     string
	LocationKey     string
	Sections        []string
	SchemaMarkup    template.JS
	Fingerprint     string
}

// Run executes the assembly stage for the task.
func (a *Assembler) Run(ctx context.Context, task *queue.Task, content stage.ContentResult) (stage.AssembleResult, error) {
	var empty stage.AssembleResult
	if task == nil {
		return empty, services.Wrap(services.ErrValidation, "assemble", "run", "task required", nil)
	}
	if content.Title == "" || len(content.Sections) == 0 {
		return empty, services.Wrap(services.ErrValidation, "assemble", "run", "content data missing", nil)
	}

	schema, err := buildSchemaMarkup(task, content)
	if err != nil {
		return empty, services.Wrap(services.ErrValidation, "assemble", "run", "schema markup", err)
	}
	fingerprint := contentFingerprint(task.ID, content)

	data := pageData{
		Title:           content.Title,
		MetaDescription: content.MetaDescription,
		ServiceName:     a.titler.String(strings.ReplaceAll(task.ServiceID, "_", " ")),
		LocationKey:     task.LocationKey,
		Sections:        content.Sections,
		SchemaMarkup:    template.JS(schema),
		Fingerprint:     fingerprint,
	}

	var buf bytes.Buffer
	if err := a.tmpl.Execute(&buf, data); err != nil {
		return empty, services.Wrap(services.ErrValidation, "assemble", "run", "render template", err)
	}

	dir := filepath.Join(a.stagingDir, task.ServiceID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return empty, services.Wrap(services.ErrTransient, "assemble", "run", "create staging directory", err)
	}
	htmlPath := filepath.Join(dir, task.LocationKey+".html")
	if err := os.WriteFile(htmlPath, buf.Bytes(), 0o644); err != nil {
		return empty, services.Wrap(services.ErrTransient, "assemble", "run", "write page", err)
	}

	a.logger.Debug("page assembled",
		logging.String(logging.FieldTaskID, task.ID),
		logging.String("html_path", htmlPath),
	)
	return stage.AssembleResult{
		HTMLPath:     htmlPath,
		SchemaMarkup: schema,
		Fingerprint:  fingerprint,
	}, nil
}

// HealthCheck reports whether the staging directory is writable.
func (a *Assembler) HealthCheck(ctx context.Context) stage.Health {
	if err := os.MkdirAll(a.stagingDir, 0o755); err != nil {
		return stage.Unhealthy("assemble", fmt.Sprintf("staging dir: %v", err))
	}
	return stage.Healthy("assemble")
}

func buildSchemaMarkup(task *queue.Task, content stage.ContentResult) (string, error) {
	markup := map[string]any{
		"@context":    "https://schema.org",
		"@type":       "Service",
		"name":        content.Title,
		"serviceType": strings.ReplaceAll(task.ServiceID, "_", " "),
		"areaServed":  task.LocationKey,
		"description": content.MetaDescription,
	}
	raw, err := json.Marshal(markup)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// contentFingerprint identifies the assembled content for post-publish
// verification. It is embedded in the page and checked against the live URL.
func contentFingerprint(taskID string, content stage.ContentResult) string {
	hash := sha256.New()
	hash.Write([]byte(taskID))
	hash.Write([]byte(content.Title))
	for _, section := range content.Sections {
		hash.Write([]byte(section))
	}
	return "pf-" + hex.EncodeToString(hash.Sum(nil))[:16]
}
