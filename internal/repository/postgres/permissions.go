package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// PermissionRepo answers launch permission checks from the grants table.
// Grants are written by the external permission interpreter; this side only
// reads them. A lookup error is reported to the caller, which treats it as a
// denial.
type PermissionRepo struct{ db *sql.DB }

// NewPermissionRepo creates a Postgres-backed permission checker.
func NewPermissionRepo(db *sql.DB) *PermissionRepo { return &PermissionRepo{db: db} }

// CanLaunch reports whether the project holds an active launch grant for the
// platform account.
func (r *PermissionRepo) CanLaunch(ctx context.Context, projectID, platform, accountID string) (bool, error) {
	var allowed bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM launch_permissions
			WHERE project_id = $1 AND platform = $2 AND account_id = $3
			  AND revoked_at IS NULL
		)
	`, projectID, platform, accountID).Scan(&allowed)
	if err != nil {
		return false, fmt.Errorf("launch permission lookup: %w", err)
	}
	return allowed, nil
}
