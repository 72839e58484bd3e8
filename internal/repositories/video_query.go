package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bionicotaku/lingo-services-videos/internal/models/po"

	"github.com/jackc/pgx/v5"
)

// whereBuilder 累积 WHERE 子句与位置参数。
type whereBuilder struct {
	clauses []string
	args    []any
}

// add 追加一个条件；clause 中的 %d 会被替换为新参数的位置序号。
func (b *whereBuilder) add(clause string, arg any) {
	b.args = append(b.args, arg)
	b.clauses = append(b.clauses, fmt.Sprintf(clause, len(b.args)))
}

func (b *whereBuilder) raw(clause string) {
	b.clauses = append(b.clauses, clause)
}

func (b *whereBuilder) String() string {
	if len(b.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.clauses, " AND ")
}

func buildWhere(f VideoFilter) *whereBuilder {
	b := &whereBuilder{}
	if f.TitleContains != "" {
		b.add(`lower(v.title) LIKE $%d ESCAPE '\'`, likePattern(f.TitleContains))
	}
	if f.Genre != "" {
		b.add(`lower(v.genre) = lower($%d)`, f.Genre)
	}
	if f.Category != "" {
		b.add(`lower(v.category) = lower($%d)`, f.Category)
	}
	if len(f.Categories) > 0 {
		b.add(`lower(v.category) = ANY($%d)`, lowerAll(f.Categories))
	}
	if f.Language != "" {
		b.add(`lower(v.language) = lower($%d)`, f.Language)
	}
	if f.Director != "" {
		b.add(`lower(v.director) = lower($%d)`, f.Director)
	}
	if f.Actor != "" {
		b.add(`EXISTS (SELECT 1 FROM catalog.video_actors a WHERE a.video_id = v.id AND lower(a.name) = lower($%d))`, f.Actor)
	}
	if len(f.Tags) > 0 {
		b.add(`EXISTS (SELECT 1 FROM catalog.video_tags t WHERE t.video_id = v.id AND lower(t.tag) = ANY($%d))`, lowerAll(f.Tags))
	}
	if f.UploadedBy != "" {
		b.add(`lower(v.uploaded_by) = lower($%d)`, f.UploadedBy)
	}
	if f.ReleaseYear != nil {
		b.add(`v.release_year = $%d`, *f.ReleaseYear)
	}
	if f.ReleaseYearFrom != nil {
		b.add(`v.release_year >= $%d`, *f.ReleaseYearFrom)
	}
	if f.ReleaseYearTo != nil {
		b.add(`v.release_year <= $%d`, *f.ReleaseYearTo)
	}
	if f.MinRating != nil {
		b.add(`v.rating >= $%d`, *f.MinRating)
	}
	if f.MinUserRating != nil {
		b.add(`EXISTS (SELECT 1 FROM catalog.video_ratings r WHERE r.video_id = v.id AND r.rating >= $%d)`, *f.MinUserRating)
	}
	if f.DurationAbove != nil {
		b.add(`v.duration_seconds > $%d`, *f.DurationAbove)
	}
	if f.DurationFrom != nil {
		b.add(`v.duration_seconds >= $%d`, *f.DurationFrom)
	}
	if f.DurationTo != nil {
		b.add(`v.duration_seconds <= $%d`, *f.DurationTo)
	}
	if f.ViewsFrom != nil {
		b.add(`v.views >= $%d`, *f.ViewsFrom)
	}
	if f.ViewsTo != nil {
		b.add(`v.views <= $%d`, *f.ViewsTo)
	}
	if f.UploadedFrom != nil {
		b.add(`v.uploaded_at >= $%d`, timestamptzFromTime(*f.UploadedFrom))
	}
	if f.UploadedTo != nil {
		b.add(`v.uploaded_at <= $%d`, timestamptzFromTime(*f.UploadedTo))
	}
	if f.AvailabilityStatus != "" {
		b.add(`lower(v.availability_status) = lower($%d)`, string(f.AvailabilityStatus))
	}
	if f.Featured != nil {
		b.add(`v.featured = $%d`, *f.Featured)
	}
	if f.PublicOnly {
		b.raw(`v.is_public`)
	}
	if f.WatchedBy != nil {
		b.add(`EXISTS (SELECT 1 FROM catalog.video_watches w WHERE w.video_id = v.id AND w.user_id = $%d)`, *f.WatchedBy)
	}
	if f.NotWatchedBy != nil {
		b.add(`NOT EXISTS (SELECT 1 FROM catalog.video_watches w WHERE w.video_id = v.id AND w.user_id = $%d)`, *f.NotWatchedBy)
	}
	return b
}

func orderClause(order VideoOrder) string {
	switch order {
	case OrderViewsDesc:
		return " ORDER BY v.views DESC, v.id ASC"
	case OrderRecentDesc:
		return " ORDER BY v.uploaded_at DESC, v.id ASC"
	case OrderRatingDesc:
		return " ORDER BY v.rating DESC, v.id ASC"
	case OrderDurationDesc:
		return " ORDER BY v.duration_seconds DESC, v.id ASC"
	default:
		return " ORDER BY v.id ASC"
	}
}

// List 按过滤条件查询视频聚合；无结果时返回空切片。
func (r *VideoRepository) List(ctx context.Context, f VideoFilter) ([]*po.Video, error) {
	where := buildWhere(f)
	query := `SELECT ` + videoColumns + ` FROM catalog.videos v` + where.String() + orderClause(f.Order)
	args := where.args
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.log.WithContext(ctx).Errorf("list videos failed: %v", err)
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	videos := make([]*po.Video, 0)
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video row: %w", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate video rows: %w", err)
	}
	rows.Close()

	if err := loadChildren(ctx, r.pool, videos); err != nil {
		return nil, err
	}
	return videos, nil
}

// Random 随机返回一条视频；目录为空时返回 ErrVideoNotFound。
func (r *VideoRepository) Random(ctx context.Context) (*po.Video, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT id FROM catalog.videos ORDER BY random() LIMIT 1`).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("query random video: %w", err)
	}
	return r.FindByID(ctx, id)
}

// DistinctGenres 返回去重后的非空类型列表（字典序）。
func (r *VideoRepository) DistinctGenres(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT genre FROM catalog.videos WHERE genre <> '' ORDER BY genre`)
	if err != nil {
		return nil, fmt.Errorf("query genres: %w", err)
	}
	genres, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect genres: %w", err)
	}
	return nonNilStrings(genres), nil
}

// CountByCategory 统计指定分类下的视频数量。
func (r *VideoRepository) CountByCategory(ctx context.Context, category string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM catalog.videos WHERE lower(category) = lower($1)`, category).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count videos by category: %w", err)
	}
	return n, nil
}

// IncrementViews 原子地将播放次数加一。
func (r *VideoRepository) IncrementViews(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE catalog.videos SET views = views + 1, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVideoNotFound
	}
	return nil
}

// ResetViews 将全部视频的播放次数归零，返回受影响行数。
func (r *VideoRepository) ResetViews(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE catalog.videos SET views = 0, updated_at = now()`)
	if err != nil {
		return 0, fmt.Errorf("reset views: %w", err)
	}
	r.log.WithContext(ctx).Infof("reset views: rows=%d", tag.RowsAffected())
	return tag.RowsAffected(), nil
}

// UpdateStatusByCategory 批量修改分类下全部视频的可用状态。
func (r *VideoRepository) UpdateStatusByCategory(ctx context.Context, category string, status po.AvailabilityStatus) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE catalog.videos SET availability_status = $2, updated_at = now()
		WHERE lower(category) = lower($1)
	`, category, string(status))
	if err != nil {
		return 0, fmt.Errorf("update status by category: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteByCategory 删除分类下全部视频，返回被删除记录的媒体对象名。
func (r *VideoRepository) DeleteByCategory(ctx context.Context, category string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `DELETE FROM catalog.videos WHERE lower(category) = lower($1) RETURNING file_name`, category)
	if err != nil {
		return nil, fmt.Errorf("delete by category: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect deleted file names: %w", err)
	}
	r.log.WithContext(ctx).Infof("deleted videos by category: category=%s rows=%d", category, len(names))
	return nonNilStrings(names), nil
}
