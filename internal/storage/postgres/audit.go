package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/foulezombie94/Glymo-ai/internal/storage"
)

// WriteAudit appends one row to security_logs. Metadata is stored as jsonb.
func (db *DB) WriteAudit(ctx context.Context, r storage.AuditRecord) error {
	meta, err := json.Marshal(r.Metadata)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err = db.Pool.Exec(ctx,
		`INSERT INTO security_logs (user_id, action_type, severity, user_agent, ip_address, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		nullIfEmpty(r.UserID), r.Action, r.Severity,
		nullIfEmpty(r.UserAgent), nullIfEmpty(r.IPAddress), string(meta), r.CreatedAt)
	return mapErr(err)
}
