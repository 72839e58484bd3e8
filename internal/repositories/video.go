// Package repositories 提供数据访问层实现，负责与持久化存储交互。
// 该层实现 Service 层定义的 Repository 接口，隔离底层存储细节。
package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/bionicotaku/lingo-services-videos/internal/models/po"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier 抽象 pgxpool.Pool 与 pgx.Tx 的公共查询能力。
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const videoColumns = `
	v.id, v.title, v.description, v.video_url, v.thumbnail_url, v.file_name,
	v.uploaded_by, v.uploaded_at, v.duration_seconds, v.is_public,
	v.category, v.genre, v.language, v.director, v.release_year, v.release_date,
	v.availability_status, v.featured, v.views, v.rating,
	v.created_at, v.updated_at`

// VideoRepository 基于 pgxpool 的视频聚合仓储（PostgreSQL catalog schema）。
type VideoRepository struct {
	pool *pgxpool.Pool // PostgreSQL 连接池
	log  *log.Helper   // 结构化日志辅助器
}

// NewVideoRepository 构造 VideoRepository 实例。
func NewVideoRepository(pool *pgxpool.Pool, logger log.Logger) *VideoRepository {
	return &VideoRepository{
		pool: pool,
		log:  log.NewHelper(logger),
	}
}

// Save 保存聚合：ID 为 0 时插入并分配主键，否则原地更新。
// 主表与全部子集合在同一事务内写入。
func (r *VideoRepository) Save(ctx context.Context, v *po.Video) (*po.Video, error) {
	out := v.Clone()
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if out.ID == 0 {
			if err := insertVideo(ctx, tx, out); err != nil {
				return err
			}
		} else if err := updateVideo(ctx, tx, out); err != nil {
			return err
		}
		return replaceChildren(ctx, tx, out)
	})
	if err != nil {
		if errors.Is(err, ErrVideoNotFound) {
			return nil, ErrVideoNotFound
		}
		r.log.WithContext(ctx).Errorf("save video failed: id=%d err=%v", v.ID, err)
		return nil, fmt.Errorf("save video: %w", err)
	}

	r.log.WithContext(ctx).Debugf("saved video: id=%d", out.ID)
	return out, nil
}

// FindByID 根据 id 加载完整聚合。查询不到时返回 ErrVideoNotFound。
func (r *VideoRepository) FindByID(ctx context.Context, id int64) (*po.Video, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+videoColumns+` FROM catalog.videos v WHERE v.id = $1`, id)
	v, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("query video by id: %w", err)
	}
	if err := loadChildren(ctx, r.pool, []*po.Video{v}); err != nil {
		return nil, err
	}
	return v, nil
}

// DeleteByID 删除视频，子表通过 ON DELETE CASCADE 一并移除。不存在时为 no-op。
func (r *VideoRepository) DeleteByID(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM catalog.videos WHERE id = $1`, id)
	if err != nil {
		r.log.WithContext(ctx).Errorf("delete video failed: id=%d err=%v", id, err)
		return fmt.Errorf("delete video: %w", err)
	}
	r.log.WithContext(ctx).Debugf("deleted video: id=%d rows=%d", id, tag.RowsAffected())
	return nil
}

// FindAll 返回全部视频，按 id 升序。
func (r *VideoRepository) FindAll(ctx context.Context) ([]*po.Video, error) {
	return r.List(ctx, VideoFilter{})
}

// Exists 判断视频是否存在。
func (r *VideoRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM catalog.videos WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check video exists: %w", err)
	}
	return exists, nil
}

// Count 返回视频总数。
func (r *VideoRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM catalog.videos`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count videos: %w", err)
	}
	return n, nil
}

func insertVideo(ctx context.Context, tx pgx.Tx, v *po.Video) error {
	query := `
		INSERT INTO catalog.videos (
			title, description, video_url, thumbnail_url, file_name,
			uploaded_by, uploaded_at, duration_seconds, is_public,
			category, genre, language, director, release_year, release_date,
			availability_status, featured, views, rating
		)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, now()), $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id, uploaded_at, created_at, updated_at
	`
	err := tx.QueryRow(ctx, query,
		v.Title, v.Description, v.VideoURL, v.ThumbnailURL, v.FileName,
		v.UploadedBy, timestamptzFromTime(v.UploadedAt), v.DurationSeconds, v.IsPublic,
		v.Category, v.Genre, v.Language, v.Director, v.ReleaseYear, dateFromTime(v.ReleaseDate),
		availabilityOrDefault(v.AvailabilityStatus), v.Featured, v.Views, v.Rating,
	).Scan(&v.ID, &v.UploadedAt, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert video: %w", err)
	}
	v.AvailabilityStatus = availabilityOrDefault(v.AvailabilityStatus)
	return nil
}

func updateVideo(ctx context.Context, tx pgx.Tx, v *po.Video) error {
	query := `
		UPDATE catalog.videos
		SET
			title = $2,
			description = $3,
			video_url = $4,
			thumbnail_url = $5,
			file_name = $6,
			uploaded_by = $7,
			uploaded_at = COALESCE($8, uploaded_at),
			duration_seconds = $9,
			is_public = $10,
			category = $11,
			genre = $12,
			language = $13,
			director = $14,
			release_year = $15,
			release_date = $16,
			availability_status = $17,
			featured = $18,
			views = $19,
			rating = $20,
			updated_at = now()
		WHERE id = $1
		RETURNING uploaded_at, created_at, updated_at
	`
	err := tx.QueryRow(ctx, query,
		v.ID,
		v.Title, v.Description, v.VideoURL, v.ThumbnailURL, v.FileName,
		v.UploadedBy, timestamptzFromTime(v.UploadedAt), v.DurationSeconds, v.IsPublic,
		v.Category, v.Genre, v.Language, v.Director, v.ReleaseYear, dateFromTime(v.ReleaseDate),
		availabilityOrDefault(v.AvailabilityStatus), v.Featured, v.Views, v.Rating,
	).Scan(&v.UploadedAt, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrVideoNotFound
		}
		return fmt.Errorf("update video: %w", err)
	}
	v.AvailabilityStatus = availabilityOrDefault(v.AvailabilityStatus)
	return nil
}

// replaceChildren 将子集合同步为聚合当前状态。
// 有序集合（标签、演员）整体重写；无序集合按差集删除后 upsert；新评论回填主键。
func replaceChildren(ctx context.Context, tx pgx.Tx, v *po.Video) error {
	if _, err := tx.Exec(ctx, `DELETE FROM catalog.video_tags WHERE video_id = $1`, v.ID); err != nil {
		return fmt.Errorf("clear video tags: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO catalog.video_tags (video_id, position, tag)
		SELECT $1, t.ord, t.tag FROM unnest($2::text[]) WITH ORDINALITY AS t(tag, ord)
	`, v.ID, nonNilStrings(v.Tags)); err != nil {
		return fmt.Errorf("insert video tags: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM catalog.video_actors WHERE video_id = $1`, v.ID); err != nil {
		return fmt.Errorf("clear video actors: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO catalog.video_actors (video_id, position, name)
		SELECT $1, a.ord, a.name FROM unnest($2::text[]) WITH ORDINALITY AS a(name, ord)
	`, v.ID, nonNilStrings(v.Actors)); err != nil {
		return fmt.Errorf("insert video actors: %w", err)
	}

	for _, set := range []struct {
		table string
		ids   []int64
	}{
		{"catalog.video_likes", v.Likes},
		{"catalog.video_dislikes", v.Dislikes},
		{"catalog.video_watches", v.Watchers},
	} {
		ids := nonNilInt64s(set.ids)
		if _, err := tx.Exec(ctx, `DELETE FROM `+set.table+` WHERE video_id = $1 AND NOT (user_id = ANY($2))`, v.ID, ids); err != nil {
			return fmt.Errorf("prune %s: %w", set.table, err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO `+set.table+` (video_id, user_id)
			SELECT $1, u FROM unnest($2::bigint[]) AS u
			ON CONFLICT DO NOTHING
		`, v.ID, ids); err != nil {
			return fmt.Errorf("insert %s: %w", set.table, err)
		}
	}

	users := make([]int64, 0, len(v.UserRatings))
	values := make([]float64, 0, len(v.UserRatings))
	for userID, value := range v.UserRatings {
		users = append(users, userID)
		values = append(values, value)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM catalog.video_ratings WHERE video_id = $1 AND NOT (user_id = ANY($2))`, v.ID, users); err != nil {
		return fmt.Errorf("prune video ratings: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO catalog.video_ratings (video_id, user_id, rating)
		SELECT $1, r.user_id, r.rating FROM unnest($2::bigint[], $3::float8[]) AS r(user_id, rating)
		ON CONFLICT (video_id, user_id) DO UPDATE SET rating = EXCLUDED.rating
	`, v.ID, users, values); err != nil {
		return fmt.Errorf("upsert video ratings: %w", err)
	}

	keep := make([]int64, 0, len(v.Comments))
	for _, c := range v.Comments {
		if c.ID != 0 {
			keep = append(keep, c.ID)
		}
	}
	if _, err := tx.Exec(ctx, `DELETE FROM catalog.video_comments WHERE video_id = $1 AND NOT (id = ANY($2))`, v.ID, keep); err != nil {
		return fmt.Errorf("prune video comments: %w", err)
	}
	for i := range v.Comments {
		c := &v.Comments[i]
		if c.ID != 0 {
			continue
		}
		err := tx.QueryRow(ctx, `
			INSERT INTO catalog.video_comments (video_id, user_id, body, created_at)
			VALUES ($1, $2, $3, COALESCE($4, now()))
			RETURNING id, created_at
		`, v.ID, c.UserID, c.Body, timestamptzFromTime(c.CreatedAt)).Scan(&c.ID, &c.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert video comment: %w", err)
		}
	}
	return nil
}

func scanVideo(row pgx.Row) (*po.Video, error) {
	var v po.Video
	var status string
	err := row.Scan(
		&v.ID, &v.Title, &v.Description, &v.VideoURL, &v.ThumbnailURL, &v.FileName,
		&v.UploadedBy, &v.UploadedAt, &v.DurationSeconds, &v.IsPublic,
		&v.Category, &v.Genre, &v.Language, &v.Director, &v.ReleaseYear, &v.ReleaseDate,
		&status, &v.Featured, &v.Views, &v.Rating,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	v.AvailabilityStatus = po.AvailabilityStatus(status)
	return &v, nil
}

// loadChildren 批量加载一组视频的全部子集合，每张子表一次查询。
func loadChildren(ctx context.Context, q querier, videos []*po.Video) error {
	if len(videos) == 0 {
		return nil
	}
	byID := make(map[int64]*po.Video, len(videos))
	ids := make([]int64, 0, len(videos))
	for _, v := range videos {
		byID[v.ID] = v
		ids = append(ids, v.ID)
	}

	if err := eachRow(ctx, q, `SELECT video_id, tag FROM catalog.video_tags WHERE video_id = ANY($1) ORDER BY video_id, position`, ids,
		func(rows pgx.Rows) error {
			var id int64
			var tag string
			if err := rows.Scan(&id, &tag); err != nil {
				return err
			}
			byID[id].Tags = append(byID[id].Tags, tag)
			return nil
		}); err != nil {
		return fmt.Errorf("load video tags: %w", err)
	}

	if err := eachRow(ctx, q, `SELECT video_id, name FROM catalog.video_actors WHERE video_id = ANY($1) ORDER BY video_id, position`, ids,
		func(rows pgx.Rows) error {
			var id int64
			var name string
			if err := rows.Scan(&id, &name); err != nil {
				return err
			}
			byID[id].Actors = append(byID[id].Actors, name)
			return nil
		}); err != nil {
		return fmt.Errorf("load video actors: %w", err)
	}

	sets := []struct {
		table string
		apply func(v *po.Video, userID int64)
	}{
		{"catalog.video_likes", func(v *po.Video, u int64) { v.Likes = append(v.Likes, u) }},
		{"catalog.video_dislikes", func(v *po.Video, u int64) { v.Dislikes = append(v.Dislikes, u) }},
		{"catalog.video_watches", func(v *po.Video, u int64) { v.Watchers = append(v.Watchers, u) }},
	}
	for _, set := range sets {
		apply := set.apply
		if err := eachRow(ctx, q, `SELECT video_id, user_id FROM `+set.table+` WHERE video_id = ANY($1) ORDER BY video_id, user_id`, ids,
			func(rows pgx.Rows) error {
				var id, userID int64
				if err := rows.Scan(&id, &userID); err != nil {
					return err
				}
				apply(byID[id], userID)
				return nil
			}); err != nil {
			return fmt.Errorf("load %s: %w", set.table, err)
		}
	}

	if err := eachRow(ctx, q, `SELECT video_id, user_id, rating FROM catalog.video_ratings WHERE video_id = ANY($1)`, ids,
		func(rows pgx.Rows) error {
			var id, userID int64
			var rating float64
			if err := rows.Scan(&id, &userID, &rating); err != nil {
				return err
			}
			v := byID[id]
			if v.UserRatings == nil {
				v.UserRatings = make(map[int64]float64)
			}
			v.UserRatings[userID] = rating
			return nil
		}); err != nil {
		return fmt.Errorf("load video ratings: %w", err)
	}

	if err := eachRow(ctx, q, `SELECT video_id, id, user_id, body, created_at FROM catalog.video_comments WHERE video_id = ANY($1) ORDER BY video_id, created_at, id`, ids,
		func(rows pgx.Rows) error {
			var id int64
			var c po.Comment
			if err := rows.Scan(&id, &c.ID, &c.UserID, &c.Body, &c.CreatedAt); err != nil {
				return err
			}
			byID[id].Comments = append(byID[id].Comments, c)
			return nil
		}); err != nil {
		return fmt.Errorf("load video comments: %w", err)
	}
	return nil
}

func eachRow(ctx context.Context, q querier, sql string, ids []int64, fn func(pgx.Rows) error) error {
	rows, err := q.Query(ctx, sql, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

var _ interface {
	Save(context.Context, *po.Video) (*po.Video, error)
	FindByID(context.Context, int64) (*po.Video, error)
	DeleteByID(context.Context, int64) error
	FindAll(context.Context) ([]*po.Video, error)
	Exists(context.Context, int64) (bool, error)
	Count(context.Context) (int64, error)
} = (*VideoRepository)(nil)
