package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"beatforge/model"
)

// ErrNoRow is returned by write operations that matched no row.
var ErrNoRow = errors.New("no matching row")

// BeatRepository defines the catalog store operations for beats.
type BeatRepository interface {
	Create(ctx context.Context, beat *model.Beat) error
	GetByID(ctx context.Context, id string) (*model.Beat, error)
	Update(ctx context.Context, beat *model.Beat) error
	SetActive(ctx context.Context, id string, active bool, now time.Time) error
	// ActivateDue flips isActive to true for every beat whose release time
	// has passed, as a single conditional update, and returns the number of
	// rows changed. Safe to run concurrently and repeatedly.
	ActivateDue(ctx context.Context, now time.Time) (int64, error)
	// AttachSyncResult stores the external product/price ids and marks the
	// beat synced.
	AttachSyncResult(ctx context.Context, id string, productID string, priceIDs map[model.LicenseTier]string, now time.Time) error
	// MarkSyncFailed records that the product sync was attempted and gave up.
	MarkSyncFailed(ctx context.Context, id string, message string, now time.Time) error
	List(ctx context.Context, q model.ListQuery, now time.Time) (*model.BeatPage, error)
}

// mysqlBeatRepository implements BeatRepository for MySQL.
type mysqlBeatRepository struct {
	db *sql.DB
}

// NewMySQLBeatRepository creates a MySQL-backed beat repository.
func NewMySQLBeatRepository(db *sql.DB) BeatRepository {
	return &mysqlBeatRepository{db: db}
}

const beatColumns = `id, owner_id, title, description, genre, musical_key, mode, tags, bpm, duration_label,
	wav_price, trackout_price, unlimited_price, is_exclusive, featured, is_active, scheduled_release_at,
	preview_asset_ref, master_asset_ref, stems_asset_ref, legacy_stems_asset_ref, artwork_asset_ref,
	external_product_id, wav_price_id, trackout_price_id, unlimited_price_id, sync_status, sync_error,
	rating, review_count, created_at, updated_at`

// Create inserts a new beat row.
func (r *mysqlBeatRepository) Create(ctx context.Context, beat *model.Beat) error {
	query := `INSERT INTO beats (` + beatColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		beat.ID, nullStr(beat.OwnerID), beat.Title, beat.Description, beat.Genre, beat.Key, beat.Mode,
		strings.Join(beat.Tags, ","), beat.BPM, beat.DurationLabel,
		beat.WavPrice, beat.TrackoutPrice, beat.UnlimitedPrice,
		beat.IsExclusive, beat.Featured, beat.IsActive, nullTime(beat.ScheduledReleaseAt),
		beat.PreviewAssetRef, beat.MasterAssetRef, nullStr(beat.StemsAssetRef),
		nullStr(beat.LegacyStemsAssetRef), nullStr(beat.ArtworkAssetRef),
		nullStr(beat.ExternalProductID), nullStr(beat.WavPriceID), nullStr(beat.TrackoutPriceID),
		nullStr(beat.UnlimitedPriceID), string(beat.SyncStatus), nullStr(beat.SyncError),
		beat.Rating, beat.ReviewCount, beat.CreatedAt, beat.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert beat %s: %w", beat.ID, err)
	}
	return nil
}

// GetByID retrieves a beat by id. Returns (nil, nil) when no row matches.
func (r *mysqlBeatRepository) GetByID(ctx context.Context, id string) (*model.Beat, error) {
	query := `SELECT ` + beatColumns + ` FROM beats WHERE id = ?`
	beat, err := scanBeat(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan beat %s: %w", id, err)
	}
	return beat, nil
}

// Update rewrites all mutable columns of a beat row.
func (r *mysqlBeatRepository) Update(ctx context.Context, beat *model.Beat) error {
	query := `UPDATE beats SET
		owner_id = ?, title = ?, description = ?, genre = ?, musical_key = ?, mode = ?, tags = ?,
		bpm = ?, duration_label = ?, wav_price = ?, trackout_price = ?, unlimited_price = ?,
		is_exclusive = ?, featured = ?, is_active = ?, scheduled_release_at = ?,
		preview_asset_ref = ?, master_asset_ref = ?, stems_asset_ref = ?, legacy_stems_asset_ref = ?,
		artwork_asset_ref = ?, updated_at = ?
		WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query,
		nullStr(beat.OwnerID), beat.Title, beat.Description, beat.Genre, beat.Key, beat.Mode,
		strings.Join(beat.Tags, ","), beat.BPM, beat.DurationLabel,
		beat.WavPrice, beat.TrackoutPrice, beat.UnlimitedPrice,
		beat.IsExclusive, beat.Featured, beat.IsActive, nullTime(beat.ScheduledReleaseAt),
		beat.PreviewAssetRef, beat.MasterAssetRef, nullStr(beat.StemsAssetRef),
		nullStr(beat.LegacyStemsAssetRef), nullStr(beat.ArtworkAssetRef), beat.UpdatedAt,
		beat.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update beat %s: %w", beat.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNoRow
	}
	return nil
}

// SetActive flips the stored visibility flag. Used for soft deactivation and
// the admin toggle; the schedule is untouched.
func (r *mysqlBeatRepository) SetActive(ctx context.Context, id string, active bool, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE beats SET is_active = ?, updated_at = ? WHERE id = ?`, active, now, id)
	if err != nil {
		return fmt.Errorf("failed to set is_active for beat %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNoRow
	}
	return nil
}

// ActivateDue is the release sweep. The WHERE is_active = FALSE guard makes
// it converge: rows it flips stop matching, so reruns and concurrent runs
// report 0 without racing.
func (r *mysqlBeatRepository) ActivateDue(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE beats SET is_active = TRUE, updated_at = ?
		 WHERE is_active = FALSE AND scheduled_release_at IS NOT NULL AND scheduled_release_at <= ?`,
		now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to activate due beats: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read activated row count: %w", err)
	}
	return count, nil
}

// AttachSyncResult stores the processor's product/price ids in a follow-up
// write, after the row was already committed by Create.
func (r *mysqlBeatRepository) AttachSyncResult(ctx context.Context, id string, productID string, priceIDs map[model.LicenseTier]string, now time.Time) error {
	query := `UPDATE beats SET
		external_product_id = ?, wav_price_id = ?, trackout_price_id = ?, unlimited_price_id = ?,
		sync_status = ?, sync_error = NULL, updated_at = ?
		WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query,
		productID,
		nullStrVal(priceIDs[model.TierWAV]),
		nullStrVal(priceIDs[model.TierTrackout]),
		nullStrVal(priceIDs[model.TierUnlimited]),
		string(model.SyncSynced), now, id)
	if err != nil {
		return fmt.Errorf("failed to attach sync result to beat %s: %w", id, err)
	}
	return nil
}

// MarkSyncFailed records an attempted-and-failed product sync.
func (r *mysqlBeatRepository) MarkSyncFailed(ctx context.Context, id string, message string, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE beats SET sync_status = ?, sync_error = ?, updated_at = ? WHERE id = ?`,
		string(model.SyncFailed), message, now, id)
	if err != nil {
		return fmt.Errorf("failed to mark sync failed for beat %s: %w", id, err)
	}
	return nil
}

// List returns one filtered, sorted page of beats plus the total match count.
func (r *mysqlBeatRepository) List(ctx context.Context, q model.ListQuery, now time.Time) (*model.BeatPage, error) {
	where, args := buildWhere(q, now)

	countQuery := `SELECT COUNT(*) FROM beats` + where
	var total int64
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count beats: %w", err)
	}

	query := `SELECT ` + beatColumns + ` FROM beats` + where + orderClause(q.Sort) + ` LIMIT ? OFFSET ?`
	args = append(args, q.Limit, (q.Page-1)*q.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query beats: %w", err)
	}
	defer rows.Close()

	beats := make([]*model.Beat, 0)
	for rows.Next() {
		beat, err := scanBeat(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan beat row: %w", err)
		}
		beats = append(beats, beat)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating beat rows: %w", err)
	}

	return &model.BeatPage{
		Items:      beats,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: totalPages(total, q.Limit),
	}, nil
}

// buildWhere assembles the WHERE clause for a listing. The public scope
// re-checks the schedule at read time instead of trusting the stored flag,
// so a stale isActive can never surface a beat before its release.
func buildWhere(q model.ListQuery, now time.Time) (string, []interface{}) {
	conds := make([]string, 0, 8)
	args := make([]interface{}, 0, 8)

	switch q.Scope {
	case model.ScopePublic:
		conds = append(conds, `is_active = TRUE AND (scheduled_release_at IS NULL OR scheduled_release_at <= ?)`)
		args = append(args, now)
	case model.ScopeOwner:
		conds = append(conds, `owner_id = ?`)
		args = append(args, q.OwnerID)
	case model.ScopeAdminAll:
		// no visibility clause
	}

	f := q.Filter
	if f.Genre != "" && f.Genre != model.GenreAll {
		conds = append(conds, `genre = ?`)
		args = append(args, f.Genre)
	}
	if f.BPMMin != nil {
		conds = append(conds, `bpm >= ?`)
		args = append(args, *f.BPMMin)
	}
	if f.BPMMax != nil {
		conds = append(conds, `bpm <= ?`)
		args = append(args, *f.BPMMax)
	}
	if f.Key != "" {
		conds = append(conds, `musical_key = ?`)
		args = append(args, f.Key)
	}
	if f.PriceMin != nil {
		conds = append(conds, `wav_price >= ?`)
		args = append(args, *f.PriceMin)
	}
	if f.PriceMax != nil {
		conds = append(conds, `wav_price <= ?`)
		args = append(args, *f.PriceMax)
	}
	if f.IsExclusive != nil {
		conds = append(conds, `is_exclusive = ?`)
		args = append(args, *f.IsExclusive)
	}
	if f.Featured != nil {
		conds = append(conds, `featured = ?`)
		args = append(args, *f.Featured)
	}
	if f.HasStems != nil {
		stems := `((stems_asset_ref IS NOT NULL AND stems_asset_ref <> '') OR
			(legacy_stems_asset_ref IS NOT NULL AND legacy_stems_asset_ref <> ''))`
		if *f.HasStems {
			conds = append(conds, stems)
		} else {
			conds = append(conds, `NOT `+stems)
		}
	}
	if f.Search != "" {
		term := strings.ToLower(f.Search)
		conds = append(conds, `(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(CONCAT(',', tags, ',')) LIKE ?)`)
		args = append(args, "%"+term+"%", "%"+term+"%", "%,"+term+",%")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderClause(sort model.SortOption) string {
	switch sort {
	case model.SortOldest:
		return ` ORDER BY created_at ASC`
	case model.SortPriceAsc:
		return ` ORDER BY wav_price ASC`
	case model.SortPriceDesc:
		return ` ORDER BY wav_price DESC`
	case model.SortPopular:
		return ` ORDER BY rating DESC`
	default:
		return ` ORDER BY created_at DESC`
	}
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBeat(row rowScanner) (*model.Beat, error) {
	beat := &model.Beat{}
	var (
		ownerID, stems, legacyStems, artwork      sql.NullString
		productID, wavID, trackoutID, unlimitedID sql.NullString
		syncErr                                   sql.NullString
		scheduled                                 sql.NullTime
		tags                                      string
		syncStatus                                string
	)

	err := row.Scan(
		&beat.ID, &ownerID, &beat.Title, &beat.Description, &beat.Genre, &beat.Key, &beat.Mode,
		&tags, &beat.BPM, &beat.DurationLabel,
		&beat.WavPrice, &beat.TrackoutPrice, &beat.UnlimitedPrice,
		&beat.IsExclusive, &beat.Featured, &beat.IsActive, &scheduled,
		&beat.PreviewAssetRef, &beat.MasterAssetRef, &stems, &legacyStems, &artwork,
		&productID, &wavID, &trackoutID, &unlimitedID, &syncStatus, &syncErr,
		&beat.Rating, &beat.ReviewCount, &beat.CreatedAt, &beat.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	beat.OwnerID = strPtr(ownerID)
	beat.StemsAssetRef = strPtr(stems)
	beat.LegacyStemsAssetRef = strPtr(legacyStems)
	beat.ArtworkAssetRef = strPtr(artwork)
	beat.ExternalProductID = strPtr(productID)
	beat.WavPriceID = strPtr(wavID)
	beat.TrackoutPriceID = strPtr(trackoutID)
	beat.UnlimitedPriceID = strPtr(unlimitedID)
	beat.SyncError = strPtr(syncErr)
	beat.SyncStatus = model.SyncStatus(syncStatus)
	if scheduled.Valid {
		t := scheduled.Time
		beat.ScheduledReleaseAt = &t
	}
	if tags != "" {
		beat.Tags = strings.Split(tags, ",")
	} else {
		beat.Tags = []string{}
	}
	return beat, nil
}

func nullStr(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullStrVal(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
