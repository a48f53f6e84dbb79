package queue

import (
	"database/sql"
	"strings"
	"time"
)

const taskColumns = "id, service_id, location_key, status, stage, attempt_count, not_before, claim_owner, lease_expires_at, error_message, research_json, content_json, assembled_path, content_fingerprint, published_url, created_at, updated_at"

func scanTask(scanner interface{ Scan(dest ...any) error }) (*Task, error) {
	var (
		id           string
		serviceID    string
		locationKey  string
		statusStr    string
		stage        sql.NullString
		attemptCount int
		notBefore    sql.NullString
		claimOwner   sql.NullString
		leaseExpires sql.NullString
		errorMessage sql.NullString
		researchJSON sql.NullString
		contentJSON  sql.NullString
		assembled    sql.NullString
		fingerprint  sql.NullString
		publishedURL sql.NullString
		createdRaw   string
		updatedRaw   string
	)

	if err := scanner.Scan(
		&id,
		&serviceID,
		&locationKey,
		&statusStr,
		&stage,
		&attemptCount,
		&notBefore,
		&claimOwner,
		&leaseExpires,
		&errorMessage,
		&researchJSON,
		&contentJSON,
		&assembled,
		&fingerprint,
		&publishedURL,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	task := &Task{
		ID:                 id,
		ServiceID:          serviceID,
		LocationKey:        locationKey,
		Status:             Status(statusStr),
		Stage:              Stage(stage.String),
		AttemptCount:       attemptCount,
		NotBefore:          parseNullableTime(notBefore),
		ClaimOwner:         claimOwner.String,
		LeaseExpiresAt:     parseNullableTime(leaseExpires),
		ErrorMessage:       errorMessage.String,
		ResearchJSON:       researchJSON.String,
		ContentJSON:        contentJSON.String,
		AssembledPath:      assembled.String,
		ContentFingerprint: fingerprint.String,
		PublishedURL:       publishedURL.String,
		CreatedAt:          parseTime(createdRaw),
		UpdatedAt:          parseTime(updatedRaw),
	}
	return task, nil
}

func parseTime(raw string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func parseNullableTime(raw sql.NullString) *time.Time {
	if !raw.Valid || strings.TrimSpace(raw.String) == "" {
		return nil
	}
	parsed := parseTime(raw.String)
	if parsed.IsZero() {
		return nil
	}
	return &parsed
}

func formatTime(value time.Time) string {
	return value.UTC().Format(time.RFC3339Nano)
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return formatTime(*value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", count), ", ")
}
