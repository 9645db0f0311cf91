package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/models"
)

func videoColumnsPrefixed(alias string) string {
	cols := []string{"id", "owner_id", "title", "description", "video_url", "thumbnail", "duration", "views", "is_published", "asset_status", "created_at"}
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

func scanVideos(rows pgx.Rows) ([]models.Video, error) {
	var videos []models.Video
	for rows.Next() {
		var v models.Video
		if err := rows.Scan(&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoURL, &v.Thumbnail, &v.Duration, &v.Views, &v.IsPublished, &v.AssetStatus, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return videos, nil
}

// ListVideosParams controls filtering, sorting, and pagination of the catalog.
type ListVideosParams struct {
	Query     string
	OwnerID   string
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

var videoSortColumns = map[string]string{
	"createdAt": "created_at",
	"views":     "views",
	"duration":  "duration",
	"title":     "title",
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	status := video.AssetStatus
	if strings.TrimSpace(status) == "" {
		status = models.AssetStatusPending
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, title, description, video_url, thumbnail, duration, views, is_published, asset_status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, video.ID, video.OwnerID, video.Title, video.Description, video.VideoURL, video.Thumbnail, video.Duration, video.Views, video.IsPublished, status, video.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// FindByID fetches a single video by primary key.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+videoColumnsPrefixed("v")+` FROM videos v WHERE v.id = $1`, id)

	var v models.Video
	if err := row.Scan(&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoURL, &v.Thumbnail, &v.Duration, &v.Views, &v.IsPublished, &v.AssetStatus, &v.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}

	return v, nil
}

// List returns published videos matching the search parameters.
func (r *PostgresVideoRepository) List(ctx context.Context, params ListVideosParams) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	where := []string{"v.is_published"}
	args := []any{}

	if params.Query != "" {
		args = append(args, "%"+params.Query+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(v.title ILIKE $%d OR v.description ILIKE $%d)", n, n))
	}
	if params.OwnerID != "" {
		args = append(args, params.OwnerID)
		where = append(where, fmt.Sprintf("v.owner_id = $%d", len(args)))
	}

	sortColumn, ok := videoSortColumns[params.SortBy]
	if !ok {
		sortColumn = "created_at"
	}
	order := "DESC"
	if strings.EqualFold(params.SortOrder, "asc") {
		order = "ASC"
	}

	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	page := params.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)

	query := fmt.Sprintf(`
        SELECT %s FROM videos v
        WHERE %s
        ORDER BY v.%s %s
        LIMIT $%d OFFSET $%d
    `, videoColumnsPrefixed("v"), strings.Join(where, " AND "), sortColumn, order, len(args)-1, len(args))

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	return scanVideos(rows)
}

// ListByOwner returns every video belonging to the channel, drafts included.
func (r *PostgresVideoRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoColumnsPrefixed("v")+`
        FROM videos v
        WHERE v.owner_id = $1
        ORDER BY v.created_at DESC
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query channel videos: %w", err)
	}
	defer rows.Close()

	return scanVideos(rows)
}

// Update modifies a video's editable details.
func (r *PostgresVideoRepository) Update(ctx context.Context, id, title, description, thumbnail string) error {
	return r.exec(ctx, `
        UPDATE videos SET title = $2, description = $3, thumbnail = COALESCE(NULLIF($4, ''), thumbnail)
        WHERE id = $1
    `, id, title, description, thumbnail)
}

// Delete removes a video record.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
}

// SetPublished flips the publish flag.
func (r *PostgresVideoRepository) SetPublished(ctx context.Context, id string, published bool) error {
	return r.exec(ctx, `UPDATE videos SET is_published = $2 WHERE id = $1`, id, published)
}

// IncrementViews bumps the view counter for a playback.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id string) error {
	return r.exec(ctx, `UPDATE videos SET views = views + 1 WHERE id = $1`, id)
}

// MarkAssetReady records the uploaded asset location after ingestion succeeds.
func (r *PostgresVideoRepository) MarkAssetReady(ctx context.Context, id, location string, duration float64) error {
	return r.exec(ctx, `
        UPDATE videos SET asset_status = $2, video_url = $3, duration = $4
        WHERE id = $1
    `, id, models.AssetStatusReady, location, duration)
}

// MarkAssetFailed records a failed ingestion attempt.
func (r *PostgresVideoRepository) MarkAssetFailed(ctx context.Context, id string) error {
	return r.exec(ctx, `
        UPDATE videos SET asset_status = $2, video_url = ''
        WHERE id = $1
    `, id, models.AssetStatusFailed)
}

func (r *PostgresVideoRepository) exec(ctx context.Context, sql string, args ...any) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
