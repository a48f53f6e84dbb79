package queue

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a task.
type Status string

const (
	StatusPending          Status = "pending"
	StatusInProgress       Status = "in_progress"
	StatusResearchComplete Status = "seo_research_complete"
	StatusContentComplete  Status = "content_generation_complete"
	StatusAssemblyComplete Status = "page_assembly_complete"
	StatusPublished        Status = "published"
	StatusFailed           Status = "failed"
	StatusError            Status = "error"
)

var allStatuses = []Status{
	StatusPending,
	StatusInProgress,
	StatusResearchComplete,
	StatusContentComplete,
	StatusAssemblyComplete,
	StatusPublished,
	StatusFailed,
	StatusError,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Stage identifies one of the four pipeline stages.
type Stage string

const (
	StageResearch Stage = "research"
	StageGenerate Stage = "generate"
	StageAssemble Stage = "assemble"
	StagePublish  Stage = "publish"
)

// stageTransition is one row of the closed pipeline transition table.
type stageTransition struct {
	stage Stage
	entry Status
	done  Status
}

// The pipeline is a fixed linear chain; this table is the only place the
// ordering is encoded.
var stageTransitions = []stageTransition{
	{StageResearch, StatusPending, StatusResearchComplete},
	{StageGenerate, StatusResearchComplete, StatusContentComplete},
	{StageAssemble, StatusContentComplete, StatusAssemblyComplete},
	{StagePublish, StatusAssemblyComplete, StatusPublished},
}

var stageByName = func() map[Stage]stageTransition {
	m := make(map[Stage]stageTransition, len(stageTransitions))
	for _, tr := range stageTransitions {
		m[tr.stage] = tr
	}
	return m
}()

var stageByEntry = func() map[Status]stageTransition {
	m := make(map[Status]stageTransition, len(stageTransitions))
	for _, tr := range stageTransitions {
		m[tr.entry] = tr
	}
	return m
}()

// Stages returns the pipeline stages in execution order.
func Stages() []Stage {
	stages := make([]Stage, 0, len(stageTransitions))
	for _, tr := range stageTransitions {
		stages = append(stages, tr.stage)
	}
	return stages
}

// EntryStatus returns the status a task must hold for the stage to claim it.
func (s Stage) EntryStatus() Status {
	return stageByName[s].entry
}

// DoneStatus returns the status a task advances to when the stage succeeds.
func (s Stage) DoneStatus() Status {
	return stageByName[s].done
}

// StageForStatus maps an eligible status to the stage that consumes it.
func StageForStatus(status Status) (Stage, bool) {
	tr, ok := stageByEntry[status]
	return tr.stage, ok
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// IsTerminal reports whether a status ends automatic processing. An errored
// task can still be reset to pending by an operator.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusPublished, StatusFailed, StatusError:
		return true
	default:
		return false
	}
}

// Task represents one service+location unit of work persisted in SQLite.
type Task struct {
	ID                 string
	ServiceID          string
	LocationKey        string
	Status             Status
	Stage              Stage // set only while Status is in_progress
	AttemptCount       int
	NotBefore          *time.Time
	ClaimOwner         string
	LeaseExpiresAt     *time.Time
	ErrorMessage       string
	ResearchJSON       string
	ContentJSON        string
	AssembledPath      string
	ContentFingerprint string
	PublishedURL       string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TaskID derives the stable task identifier for a service and location. The
// identifier doubles as the publish idempotency key, so it must be a pure
// function of its inputs.
func TaskID(serviceID, locationKey string) string {
	service := slugify(serviceID)
	location := slugify(locationKey)
	return fmt.Sprintf("%s_%s", service, location)
}

func slugify(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	var b strings.Builder
	b.Grow(len(value))
	lastUnderscore := false
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// Eligible reports whether the task could be claimed at the given time.
func (t *Task) Eligible(now time.Time) bool {
	if t == nil {
		return false
	}
	if _, ok := StageForStatus(t.Status); !ok {
		return false
	}
	if t.NotBefore != nil && now.Before(*t.NotBefore) {
		return false
	}
	return true
}

// HealthSummary describes aggregated task counts for key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	InProgress int
	Published  int
	Failed     int
	Errored    int
}
