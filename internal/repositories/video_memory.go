package repositories

import (
	"context"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bionicotaku/lingo-services-videos/internal/models/po"

	"github.com/go-kratos/kratos/v2/log"
)

// MemoryVideoRepository 是进程内的视频仓储，用于本地开发与测试。
// 所有读写都经过深拷贝，调用方持有的聚合不会与存储共享底层切片。
type MemoryVideoRepository struct {
	mu      sync.RWMutex
	videos  map[int64]*po.Video
	nextID  int64
	nextCID int64
	now     func() time.Time
	log     *log.Helper
}

// NewMemoryVideoRepository 构造内存仓储。
func NewMemoryVideoRepository(logger log.Logger) *MemoryVideoRepository {
	return &MemoryVideoRepository{
		videos: make(map[int64]*po.Video),
		now:    time.Now,
		log:    log.NewHelper(logger),
	}
}

// Save 插入或原地更新聚合。
func (r *MemoryVideoRepository) Save(ctx context.Context, v *po.Video) (*po.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := v.Clone()
	now := r.now().UTC()
	if out.ID == 0 {
		r.nextID++
		out.ID = r.nextID
		out.CreatedAt = now
		if out.UploadedAt.IsZero() {
			out.UploadedAt = now
		}
	} else {
		existing, ok := r.videos[out.ID]
		if !ok {
			return nil, ErrVideoNotFound
		}
		out.CreatedAt = existing.CreatedAt
		if out.UploadedAt.IsZero() {
			out.UploadedAt = existing.UploadedAt
		}
	}
	out.UpdatedAt = now
	out.AvailabilityStatus = availabilityOrDefault(out.AvailabilityStatus)
	for i := range out.Comments {
		if out.Comments[i].ID == 0 {
			r.nextCID++
			out.Comments[i].ID = r.nextCID
		}
		if out.Comments[i].CreatedAt.IsZero() {
			out.Comments[i].CreatedAt = now
		}
	}

	r.videos[out.ID] = out
	r.log.WithContext(ctx).Debugf("saved video: id=%d", out.ID)
	return out.Clone(), nil
}

// FindByID 查询单条视频。
func (r *MemoryVideoRepository) FindByID(_ context.Context, id int64) (*po.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.videos[id]
	if !ok {
		return nil, ErrVideoNotFound
	}
	return v.Clone(), nil
}

// DeleteByID 删除视频；不存在时为 no-op。
func (r *MemoryVideoRepository) DeleteByID(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.videos, id)
	return nil
}

// FindAll 返回全部视频，按 id 升序。
func (r *MemoryVideoRepository) FindAll(ctx context.Context) ([]*po.Video, error) {
	return r.List(ctx, VideoFilter{})
}

// Exists 判断视频是否存在。
func (r *MemoryVideoRepository) Exists(_ context.Context, id int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.videos[id]
	return ok, nil
}

// Count 返回视频总数。
func (r *MemoryVideoRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.videos)), nil
}

// List 按过滤条件查询。
func (r *MemoryVideoRepository) List(_ context.Context, f VideoFilter) ([]*po.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*po.Video, 0)
	for _, v := range r.videos {
		if f.Match(v) {
			out = append(out, v.Clone())
		}
	}
	return f.SortVideos(out), nil
}

// Random 随机返回一条视频。
func (r *MemoryVideoRepository) Random(_ context.Context) (*po.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.videos) == 0 {
		return nil, ErrVideoNotFound
	}
	ids := make([]int64, 0, len(r.videos))
	for id := range r.videos {
		ids = append(ids, id)
	}
	return r.videos[ids[rand.IntN(len(ids))]].Clone(), nil
}

// DistinctGenres 返回去重后的非空类型列表。
func (r *MemoryVideoRepository) DistinctGenres(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	genres := make([]string, 0)
	for _, v := range r.videos {
		if v.Genre != "" && !slices.Contains(genres, v.Genre) {
			genres = append(genres, v.Genre)
		}
	}
	slices.Sort(genres)
	return genres, nil
}

// CountByCategory 统计分类下视频数量。
func (r *MemoryVideoRepository) CountByCategory(_ context.Context, category string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, v := range r.videos {
		if strings.EqualFold(v.Category, category) {
			n++
		}
	}
	return n, nil
}

// IncrementViews 播放次数加一。
func (r *MemoryVideoRepository) IncrementViews(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.videos[id]
	if !ok {
		return ErrVideoNotFound
	}
	v.AddView()
	v.UpdatedAt = r.now().UTC()
	return nil
}

// ResetViews 全部播放次数归零。
func (r *MemoryVideoRepository) ResetViews(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now().UTC()
	for _, v := range r.videos {
		v.Views = 0
		v.UpdatedAt = now
	}
	return int64(len(r.videos)), nil
}

// UpdateStatusByCategory 批量修改可用状态。
func (r *MemoryVideoRepository) UpdateStatusByCategory(_ context.Context, category string, status po.AvailabilityStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now().UTC()
	var n int64
	for _, v := range r.videos {
		if strings.EqualFold(v.Category, category) {
			v.AvailabilityStatus = status
			v.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

// DeleteByCategory 删除分类下全部视频，返回其媒体对象名。
func (r *MemoryVideoRepository) DeleteByCategory(_ context.Context, category string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0)
	for id, v := range r.videos {
		if strings.EqualFold(v.Category, category) {
			names = append(names, v.FileName)
			delete(r.videos, id)
		}
	}
	return names, nil
}
