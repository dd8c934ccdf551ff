package db

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/hpungsan/voxsel/internal/errors"
	"github.com/hpungsan/voxsel/internal/voxel"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrUniqueConstraint is returned when an insert violates a UNIQUE constraint.
var ErrUniqueConstraint = &errors.VoxselError{
	Code:    "UNIQUE_CONSTRAINT",
	Status:  409,
	Message: "unique constraint violation",
}

// SetRecord is a persisted named selection set.
type SetRecord struct {
	ID         string
	NameRaw    string
	NameNorm   string
	VoxelCount int
	Voxels     []voxel.ID
	CreatedAt  int64
	UpdatedAt  int64
	DeletedAt  *int64
}

// SetSummary is a SetRecord without its member list.
type SetSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	VoxelCount int    `json:"voxel_count"`
	CreatedAt  int64  `json:"created_at"`
	UpdatedAt  int64  `json:"updated_at"`
}

// PutVoxels inserts voxels into the store table, ignoring ones already present.
// Returns the number of rows actually inserted.
func PutVoxels(db *sql.DB, ids []voxel.ID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx, err := db.Begin()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO voxels (resolution_cm, x, y, z, created_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	added := 0
	for _, id := range ids {
		result, err := stmt.Exec(id.Res.Centimeters(), id.Pos.X, id.Pos.Y, id.Pos.Z, now)
		if err != nil {
			return 0, errors.NewInternal(err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, errors.NewInternal(err)
		}
		added += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.NewInternal(err)
	}
	return added, nil
}

// DeleteVoxels removes voxels from the store table.
// Returns the number of rows actually removed.
func DeleteVoxels(db *sql.DB, ids []voxel.ID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx, err := db.Begin()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		DELETE FROM voxels
		WHERE resolution_cm = ? AND x = ? AND y = ? AND z = ?
	`)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	defer stmt.Close()

	removed := 0
	for _, id := range ids {
		result, err := stmt.Exec(id.Res.Centimeters(), id.Pos.X, id.Pos.Y, id.Pos.Z)
		if err != nil {
			return 0, errors.NewInternal(err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, errors.NewInternal(err)
		}
		removed += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.NewInternal(err)
	}
	return removed, nil
}

// ListVoxels returns every stored voxel, ordered by resolution then x, y, z.
func ListVoxels(db *sql.DB) ([]voxel.ID, error) {
	rows, err := db.Query(`
		SELECT resolution_cm, x, y, z FROM voxels
		ORDER BY resolution_cm, x, y, z
	`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []voxel.ID
	for rows.Next() {
		var cm, x, y, z int
		if err := rows.Scan(&cm, &x, &y, &z); err != nil {
			return nil, errors.NewInternal(err)
		}
		res, err := voxel.ResolutionFromCentimeters(cm)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, voxel.NewID(x, y, z, res))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// CountVoxels returns the number of stored voxels.
func CountVoxels(db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM voxels").Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// GetWorkspace returns the persisted workspace size.
// ok is false when no size has been saved yet.
func GetWorkspace(db *sql.DB) (size r3.Vec, ok bool, err error) {
	row := db.QueryRow("SELECT size_x, size_y, size_z FROM workspace WHERE id = 1")
	err = row.Scan(&size.X, &size.Y, &size.Z)
	if err == sql.ErrNoRows {
		return r3.Vec{}, false, nil
	}
	if err != nil {
		return r3.Vec{}, false, errors.NewInternal(err)
	}
	return size, true, nil
}

// SetWorkspace upserts the workspace size.
func SetWorkspace(db *sql.DB, size r3.Vec) error {
	_, err := db.Exec(`
		INSERT INTO workspace (id, size_x, size_y, size_z, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			size_x = excluded.size_x, size_y = excluded.size_y,
			size_z = excluded.size_z, updated_at = excluded.updated_at
	`, size.X, size.Y, size.Z, time.Now().Unix())
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// InsertSet stores a new named selection set.
func InsertSet(db *sql.DB, r *SetRecord) error {
	data, err := json.Marshal(r.Voxels)
	if err != nil {
		return errors.NewInternal(err)
	}

	query := `
		INSERT INTO selection_sets (
			id, name_raw, name_norm, voxel_count, voxels_json,
			created_at, updated_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, NULL)
	`

	_, err = db.Exec(query,
		r.ID, r.NameRaw, r.NameNorm, len(r.Voxels), string(data),
		r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}
	r.VoxelCount = len(r.Voxels)

	return nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GetSetByName retrieves an active selection set by normalized name.
func GetSetByName(db *sql.DB, nameNorm string) (*SetRecord, error) {
	row := db.QueryRow(`
		SELECT id, name_raw, name_norm, voxel_count, voxels_json,
			created_at, updated_at, deleted_at
		FROM selection_sets
		WHERE name_norm = ? AND deleted_at IS NULL
	`, nameNorm)
	r, err := scanSet(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(nameNorm)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	return r, nil
}

// UpdateSetByID replaces the members of an existing set.
// Sets updated_at to current timestamp.
// Does NOT change: id, name
func UpdateSetByID(db *sql.DB, r *SetRecord) error {
	data, err := json.Marshal(r.Voxels)
	if err != nil {
		return errors.NewInternal(err)
	}

	now := time.Now().Unix()

	result, err := db.Exec(`
		UPDATE selection_sets
		SET voxels_json = ?, voxel_count = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, string(data), len(r.Voxels), now, r.ID)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(r.ID)
	}

	r.VoxelCount = len(r.Voxels)
	r.UpdatedAt = now

	return nil
}

// SoftDeleteSet marks a set as deleted by setting deleted_at.
func SoftDeleteSet(db *sql.DB, id string) error {
	now := time.Now().Unix()

	result, err := db.Exec(`
		UPDATE selection_sets
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, now, id)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}

	return nil
}

// ListSets returns summaries of active sets whose name does not start
// with the reserved "@" prefix, ordered by name.
func ListSets(db *sql.DB) ([]SetSummary, error) {
	rows, err := db.Query(`
		SELECT id, name_raw, voxel_count, created_at, updated_at
		FROM selection_sets
		WHERE deleted_at IS NULL AND name_norm NOT LIKE '@%'
		ORDER BY name_norm
	`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	out := []SetSummary{}
	for rows.Next() {
		var s SetSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.VoxelCount, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// PurgeDeletedSets permanently removes soft-deleted sets.
// If olderThan > 0, only sets deleted more than olderThan ago are removed.
func PurgeDeletedSets(db *sql.DB, olderThan time.Duration) (int, error) {
	query := "DELETE FROM selection_sets WHERE deleted_at IS NOT NULL"
	var args []any
	if olderThan > 0 {
		query += " AND deleted_at < ?"
		args = append(args, time.Now().Add(-olderThan).Unix())
	}

	result, err := db.Exec(query, args...)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}

// scanSet scans a single row into a SetRecord.
func scanSet(row *sql.Row) (*SetRecord, error) {
	var (
		r          SetRecord
		voxelsJSON string
		deletedAt  sql.NullInt64
	)

	err := row.Scan(
		&r.ID, &r.NameRaw, &r.NameNorm, &r.VoxelCount, &voxelsJSON,
		&r.CreatedAt, &r.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if deletedAt.Valid {
		r.DeletedAt = &deletedAt.Int64
	}

	if voxelsJSON != "" {
		if err := json.Unmarshal([]byte(voxelsJSON), &r.Voxels); err != nil {
			return nil, err
		}
	}

	return &r, nil
}
