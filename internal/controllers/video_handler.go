package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/bionicotaku/lingo-services-videos/internal/conf"
	"github.com/bionicotaku/lingo-services-videos/internal/controllers/dto"
	"github.com/bionicotaku/lingo-services-videos/internal/models/po"
	"github.com/bionicotaku/lingo-services-videos/internal/services"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/go-playground/validator/v10"
)

const (
	defaultMaxUploadBytes = 512 << 20
	multipartMemory       = 32 << 20
	operationPrefix       = "/videos.v1.VideoService/"
)

// VideoHandler 暴露 /api/videos 下的 HTTP 接口。
type VideoHandler struct {
	*BaseHandler
	commands  *services.VideoCommandService
	queries   *services.VideoQueryService
	validate  *validator.Validate
	maxUpload int64
	log       *log.Helper
}

// NewVideoHandler 构造 VideoHandler。
func NewVideoHandler(base *BaseHandler, commands *services.VideoCommandService, queries *services.VideoQueryService, c *conf.Handlers, logger log.Logger) *VideoHandler {
	if base == nil {
		base = NewBaseHandler(HandlerTimeouts{})
	}
	maxUpload := int64(defaultMaxUploadBytes)
	if c != nil && c.MaxUploadBytes > 0 {
		maxUpload = c.MaxUploadBytes
	}
	return &VideoHandler{
		BaseHandler: base,
		commands:    commands,
		queries:     queries,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		maxUpload:   maxUpload,
		log:         log.NewHelper(logger),
	}
}

// Register 在 HTTP 服务上挂载全部视频路由。id 段限定为数字，静态段不会被误匹配。
func (h *VideoHandler) Register(srv *khttp.Server) {
	r := srv.Route("/api/videos")

	r.GET("", h.listVideos)
	r.POST("", h.createVideo)

	r.GET("/search", h.searchByTitle)
	r.GET("/filter", h.filterVideos)
	r.GET("/genres", h.genres)
	r.GET("/random", h.random)
	r.GET("/count", h.countVideos)
	r.GET("/popular", h.popular)
	r.GET("/recent", h.recent)
	r.GET("/tags", h.listByTags)
	r.GET("/years", h.listByReleaseYearRange)
	r.GET("/rating", h.listByMinRating)
	r.GET("/duration", h.listByDuration)
	r.GET("/views", h.listByViewRange)
	r.GET("/genre/{genre}", h.listByGenre)
	r.GET("/category/{category}", h.listByCategory)
	r.GET("/language/{language}", h.listByLanguage)
	r.GET("/director/{director}", h.listByDirector)
	r.GET("/actor/{actor}", h.listByActor)
	r.GET("/year/{year}", h.listByReleaseYear)
	r.GET("/watched/{userId}", h.watchedBy)
	r.GET("/recommended/{userId}", h.recommended)
	r.GET("/categories/{category}/count", h.countByCategory)

	r.POST("/admin/reset-views", h.resetViews)
	r.PUT("/admin/categories/{category}/status", h.updateStatusByCategory)
	r.DELETE("/admin/categories/{category}", h.deleteByCategory)

	r.GET("/{id:[0-9]+}", h.getVideo)
	r.PUT("/{id:[0-9]+}", h.updateVideo)
	r.DELETE("/{id:[0-9]+}", h.deleteVideo)
	r.GET("/{id:[0-9]+}/exists", h.videoExists)
	r.GET("/{id:[0-9]+}/media", h.streamMedia)
	r.POST("/{id:[0-9]+}/like", h.likeVideo)
	r.POST("/{id:[0-9]+}/dislike", h.dislikeVideo)
	r.POST("/{id:[0-9]+}/watched", h.markWatched)
	r.POST("/{id:[0-9]+}/ratings", h.addRating)
	r.POST("/{id:[0-9]+}/comments", h.addComment)
	r.POST("/{id:[0-9]+}/view", h.incrementViews)
	r.PUT("/{id:[0-9]+}/featured", h.setFeatured(true))
	r.DELETE("/{id:[0-9]+}/featured", h.setFeatured(false))
	r.PUT("/{id:[0-9]+}/category", h.assignCategory)
	r.DELETE("/{id:[0-9]+}/category", h.removeCategory)
}

// invoke 让业务调用经过服务端中间件链（recovery、logging、metrics），并绑定超时。
func (h *VideoHandler) invoke(ctx khttp.Context, kind HandlerType, operation string, fn func(context.Context) (any, error)) (any, error) {
	khttp.SetOperation(ctx, operationPrefix+operation)
	meta := h.ExtractMetadata(ctx.Request().Header)
	handler := ctx.Middleware(func(c context.Context, _ any) (any, error) {
		timeoutCtx, cancel := h.WithTimeout(c, kind)
		defer cancel()
		return fn(InjectHandlerMetadata(timeoutCtx, meta))
	})
	return handler(ctx, nil)
}

func (h *VideoHandler) reply(ctx khttp.Context, code int, kind HandlerType, operation string, fn func(context.Context) (any, error)) error {
	out, err := h.invoke(ctx, kind, operation, fn)
	if err != nil {
		return err
	}
	return ctx.Result(code, out)
}

func (h *VideoHandler) bind(ctx khttp.Context, v any) error {
	if err := ctx.Bind(v); err != nil {
		return kerrors.BadRequest(services.ReasonVideoInvalid, "malformed request body").WithCause(err)
	}
	if err := h.validate.Struct(v); err != nil {
		return kerrors.BadRequest(services.ReasonVideoInvalid, err.Error())
	}
	return nil
}

func badRequest(err error) error {
	return kerrors.BadRequest(services.ReasonVideoInvalid, err.Error())
}

func pathID(ctx khttp.Context) (int64, error) {
	id, err := dto.ParseVideoID(ctx.Vars().Get("id"))
	if err != nil {
		return 0, badRequest(err)
	}
	return id, nil
}

// resolveUserID 依次取 body、user_id 查询参数、x-md-global-user-id 请求头。
func (h *VideoHandler) resolveUserID(ctx khttp.Context, fromBody int64) (int64, error) {
	if fromBody != 0 {
		return fromBody, nil
	}
	raw := ctx.Query().Get("user_id")
	if raw == "" {
		raw = h.ExtractMetadata(ctx.Request().Header).UserID
	}
	id, err := dto.ParseUserID(raw)
	if err != nil {
		return 0, badRequest(err)
	}
	if id == 0 {
		return 0, kerrors.BadRequest(services.ReasonVideoInvalid, "user_id is required")
	}
	return id, nil
}

func videoReply(v *po.Video, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return dto.NewVideoResponse(v), nil
}

func listReply(videos []*po.Video, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return dto.NewVideoList(videos), nil
}

// ---- 查询 ----

func (h *VideoHandler) listVideos(ctx khttp.Context) error {
	return h.reply(ctx, http.StatusOK, HandlerTypeQuery, "ListVideos", func(c context.Context) (any, error) {
		return listReply(h.queries.ListVideos(c))
	})
}

func (h *VideoHandler) getVideo(ctx khttp.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	return h.reply(ctx, http.StatusOK, HandlerTypeQuery, "GetVideo", func(c context.Context) (any, error) {
		return videoReply(h.queries.GetVideo(c, id))
	})
}

func (h *VideoHandler) videoExists(ctx khttp.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	return h.reply(ctx, http.StatusOK, HandlerTypeQuery, "VideoExists", func(c context.Context) (any, error) {
		ok, err := h.queries.VideoExists(c, id)
		if err != nil {
			return nil, err
		}
		return map[string]bool{"exists": ok}, nil
	})
}

// searchByTitle 无匹配结果时返回 404。
func (h *VideoHandler) searchByTitle(ctx khttp.Context) error {
	title := ctx.Query().Get("title")
	return h.reply(ctx, http.StatusOK, HandlerTypeQuery, "SearchByTitle", func(c context.Context) (any, error) {
		videos, err := h.queries.SearchByTitle(c, title)
		if err != nil {
			return nil, err
		}
		if len(videos) == 0 {
			return nil, kerrors.NotFound(services.ReasonVideoNotFound, fmt.Sprintf("no videos match title %q", title))
		}
		return dto.NewVideoList(videos), nil
	})
}

func (h *VideoHandler) filterVideos(ctx khttp.Context) error {
	filter, err := dto.ParseFilter(ctx.Query())
	if err != nil {
		return badRequest(err)
	}
	return h.reply(ctx, http.StatusOK, HandlerTypeQuery, "FilterVideos", func(c context.Context) (any, error) {
		return listReply(h.queries.Filter(c, filter))
	})
}

func (h *VideoHandler) listByGenre(ctx khttp.Context) error {
	genre := ctx.Vars().Get("genre")
	return h.reply(ctx, http.StatusOK, HandlerTypeQuery, "ListByGenre", func(c context.Context) (any, error) {
		return listReply(h.queries.ListByGenre(c, genre))
	})
}

func (h *VideoHandler) listByCategory(ctx khttp.Context) error {
	category := ctx.Vars().Get("category")
	return h.reply(ctx, http.StatusOK, HandlerTypeQuery, "ListByCategory", func(c context.Context) (any, error) {
		return listReply(h.queries.ListByCategory(c, category))
	})
}

func (h *VideoHandler) listByLanguage(ctx khttp.Context) error {
	language := ctx.Vars().Get("language")
	return h.reply(ctx, http.StatusOK, HandlerTypeQuery, "ListByLanguage", func(c context.Context) (any, error) {
		return listReply(h.queries.ListByLanguage(c, language))
	})
}

func (h *VideoHandler) listByDirector(ctx khttp.Context) error {
	director := ctx.Vars().Get("director")
	return h.reply(ctx, http.StatusOK, HandlerTypeQuery, "ListByDirector", func(c context.Context) (any, error) {
		return listReply(h.queries.ListByDirector(c, director))
	})
}

func (h *VideoHandler) listByActor(ctx khttp.Context) error {
	actor := ctx.Vars().Get("actor")
	return h.reply(ctx, http.StatusOK, HandlerTypeQuery, "ListByActor", func(c context.Context) (any, error) {
		return listReply(h.queries.ListByActor(c, actor))
	})
}

func (h *VideoHandler) listByTags(ctx khttp.Context) error {
	filter, err := dto.ParseFilter(ctx.Query())
	if err != nil {
		return badRequest(err)
	}
	if len(filter.Tags) == 0 {
		return kerrors.BadRequest(services.ReasonVideoInvalid, "tags is required")
	}
	return h.reply(ctx, http.StatusOK, HandlerTypeQuery, "ListByTags", func(c context.Context) (any, error) {
		return listReply(h.queries.ListByTags(c, filter.Tags))
	})
}

func (h *VideoHandler) listByReleaseYear(ctx khttp.Context) error {
	year, err := dto.ParseYear(ctx.Vars().Get("year"))
	if err != nil {
		return badRequest(err)
	}
	return h.reply(ctx, http.StatusOK, HandlerTypeQuery, "ListByReleaseYear", func(c context.Context) (any, error) {
		return listReply(h.queries.ListByReleaseYear(c, year))
	})
}

func (h *VideoHandler) listByReleaseYearRange(ctx khttp.Context) error {
	from, err := dto.ParseYear(ctx.Query().Get("from"))
	if err != nil {
		return badRequest(err)
	}
	to, err := dto.ParseYear(ctx.Query().Get("to"))
	if err != nil {
		return badRequest(err)
	}
	return h.reply(ctx, http.StatusOK, HandlerTypeQuery, "ListByReleaseYearRange", func(c context.Context) (any, error) {
		return listReply(h.queries.ListByReleaseYearRange(c, from, to))
	})
}

func (h *VideoHandler) listByMinRating(ctx khttp.Context) error {
	raw := ctx.Query().Get("min")
	threshold, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return kerrors.BadRequest(services.ReasonVideoInvalid, fmt.Sprintf("invalid min %q", raw))
	}
	return h.reply(ctx, http.StatusOK, HandlerTypeQuery, "ListByMinRating", func(c context.Context) (any, error) {
		return listReply(h.queries.ListByMinRating(c, threshold))
	})
}

// listByDuration 支持 ?above= 或 ?from=&to= 两种形式。
func (h *VideoHandler) listByDuration(ctx khttp.Context) error {
	q := ctx.Query()
	if raw := q.Get("above"); raw != "" {
		above, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 32)
		if err != nil {
			return kerrors.BadRequest(services.ReasonVideoInvalid, fmt.Sprintf("invalid above %q", raw))
		}
		return h.reply(ctx, http.StatusOK, HandlerTypeQuery, "ListByDurationAbove", func(c context.Context) (any, error) {
			return listReply(h.queries.ListByDurationAbove(c, int32(above)))
		})
	}
	from, errFrom := strconv.ParseInt(strings.TrimSpace(q.Get("from")), 10, 32)
	to, errTo := strconv.ParseInt(strings.TrimSpace(q.Get("to")), 10, 32)
	if errFrom != nil || errTo != nil {
		return kerrors.BadRequest(services.ReasonVideoInvalid, "duration requires above or from and to")
	}
	return h.reply(ctx, http.StatusOK, HandlerTypeQuery, "ListByDurationRange", func(c context.Context) (any, error) {
		return listReply(h.queries.ListByDurationRange(c, int32(from), int32(to)))
	})
}

func (h *VideoHandler) listByViewRange(ctx khttp.Context) error {
	q := ctx.Query()
	from, errFrom := strconv.ParseInt(strings.TrimSpace(q.Get("from")), 10, 64)
	to, errTo := strconv.ParseInt(strings.TrimSpace(q.Get("to")), 10, 64)
	if errFrom != nil || errTo != nil {
		return kerrors.BadRequest(services.ReasonVideoInvalid, "views requires from and to")
	}
	return h.reply(ctx, http.StatusOK, HandlerTypeQuery, "ListByViewRange", func(c context.Context) (any, error) {
		return listReply(h.queries.ListByViewRange(c, from, to))
	})
}

func (h *VideoHandler) popular(ctx khttp.Context) error {
	limit, err := dto.ParseLimit(ctx.Query())
	if err != nil {
		return badRequest(err)
	}
	return h.reply(ctx, http.StatusOK, HandlerTypeQuery, "Popular", func(c context.Context) (any, error) {
		return listReply(h.queries.Popular(c, limit))
	})
}

func (h *VideoHandler) recent(ctx khttp.Context) error {
	limit, err := dto.ParseLimit(ctx.Query())
	if err != nil {
		return badRequest(err)
	}
	return h.reply(ctx, http.StatusOK, HandlerTypeQuery, "Recent", func(c context.Context) (any, error) {
		return listReply(h.queries.Recent(c, limit))
	})
}

func (h *VideoHandler) random(ctx khttp.Context) error {
	return h.reply(ctx, http.StatusOK, HandlerTypeQuery, "Random", func(c context.Context) (any, error) {
		return videoReply(h.queries.Random(c))
	})
}

func (h *VideoHandler) genres(ctx khttp.Context) error {
	return h.reply(ctx, http.StatusOK, HandlerTypeQuery, "Genres", func(c context.Context) (any, error) {
		return h.queries.Genres(c)
	})
}

func (h *VideoHandler) countVideos(ctx khttp.Context) error {
	return h.reply(ctx, http.StatusOK, HandlerTypeQuery, "CountVideos", func(c context.Context) (any, error) {
		n, err := h.queries.CountVideos(c)
		if err != nil {
			return nil, err
		}
		return dto.CountResponse{Count: n}, nil
	})
}

func (h *VideoHandler) countByCategory(ctx khttp.Context) error {
	category := ctx.Vars().Get("category")
	return h.reply(ctx, http.StatusOK, HandlerTypeQuery, "CountByCategory", func(c context.Context) (any, error) {
		n, err := h.queries.CountByCategory(c, category)
		if err != nil {
			return nil, err
		}
		return dto.CountResponse{Count: n}, nil
	})
}

func (h *VideoHandler) watchedBy(ctx khttp.Context) error {
	userID, err := dto.ParseUserID(ctx.Vars().Get("userId"))
	if err != nil {
		return badRequest(err)
	}
	return h.reply(ctx, http.StatusOK, HandlerTypeQuery, "WatchedBy", func(c context.Context) (any, error) {
		return listReply(h.queries.WatchedBy(c, userID))
	})
}

func (h *VideoHandler) recommended(ctx khttp.Context) error {
	userID, err := dto.ParseUserID(ctx.Vars().Get("userId"))
	if err != nil {
		return badRequest(err)
	}
	limit, err := dto.ParseLimit(ctx.Query())
	if err != nil {
		return badRequest(err)
	}
	return h.reply(ctx, http.StatusOK, HandlerTypeQuery, "Recommended", func(c context.Context) (any, error) {
		return listReply(h.queries.Recommended(c, userID, limit))
	})
}

// streamMedia 直接写出媒体流，不经过响应编码器。
func (h *VideoHandler) streamMedia(ctx khttp.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	out, err := h.invoke(ctx, HandlerTypeQuery, "OpenMedia", func(c context.Context) (any, error) {
		return h.queries.OpenMedia(context.WithoutCancel(c), id)
	})
	if err != nil {
		return err
	}
	content := out.(*services.MediaContent)
	defer content.Body.Close()

	ctx.Response().Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": content.FileName}))
	return ctx.Stream(http.StatusOK, content.ContentType, content.Body)
}

// ---- 命令 ----

// createVideo 根据 Content-Type 选择元数据创建（JSON）或文件上传（multipart）。
func (h *VideoHandler) createVideo(ctx khttp.Context) error {
	mediaType, _, _ := mime.ParseMediaType(ctx.Request().Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return h.uploadVideo(ctx)
	}

	var req dto.CreateVideoRequest
	if err := h.bind(ctx, &req); err != nil {
		return err
	}
	input, err := dto.ToCreateVideoInput(req)
	if err != nil {
		return badRequest(err)
	}
	return h.reply(ctx, http.StatusCreated, HandlerTypeCommand, "CreateVideo", func(c context.Context) (any, error) {
		return videoReply(h.commands.CreateVideo(c, input))
	})
}

func (h *VideoHandler) uploadVideo(ctx khttp.Context) error {
	req := ctx.Request()
	req.Body = http.MaxBytesReader(ctx.Response(), req.Body, h.maxUpload)
	if err := req.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return kerrors.New(http.StatusRequestEntityTooLarge, services.ReasonVideoInvalid, "upload exceeds size limit")
		}
		return kerrors.BadRequest(services.ReasonVideoInvalid, "malformed multipart body").WithCause(err)
	}
	defer func() {
		if req.MultipartForm != nil {
			_ = req.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := req.FormFile("file")
	if err != nil {
		return kerrors.BadRequest(services.ReasonVideoInvalid, "file is required")
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		return kerrors.BadRequest(services.ReasonVideoInvalid, "read upload failed").WithCause(err)
	}

	input := services.UploadVideoInput{
		Content:     content,
		FileName:    header.Filename,
		Title:       req.FormValue("title"),
		Description: req.FormValue("description"),
		UploadedBy:  req.FormValue("uploaded_by"),
		Category:    req.FormValue("category"),
		Genre:       req.FormValue("genre"),
		Tags:        strings.Split(req.FormValue("tags"), ","),
	}
	if raw := strings.TrimSpace(req.FormValue("duration_seconds")); raw != "" {
		d, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return kerrors.BadRequest(services.ReasonVideoInvalid, fmt.Sprintf("invalid duration_seconds %q", raw))
		}
		input.DurationSeconds = int32(d)
	}
	if raw := strings.TrimSpace(req.FormValue("is_public")); raw != "" {
		public, err := strconv.ParseBool(raw)
		if err != nil {
			return kerrors.BadRequest(services.ReasonVideoInvalid, fmt.Sprintf("invalid is_public %q", raw))
		}
		input.IsPublic = &public
	}

	return h.reply(ctx, http.StatusCreated, HandlerTypeUpload, "UploadVideo", func(c context.Context) (any, error) {
		if meta, ok := HandlerMetadataFromContext(c); ok && strings.TrimSpace(input.UploadedBy) == "" {
			input.UploadedBy = meta.UserID
		}
		return videoReply(h.commands.UploadVideo(c, input))
	})
}

func (h *VideoHandler) updateVideo(ctx khttp.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var req dto.UpdateVideoRequest
	if err := h.bind(ctx, &req); err != nil {
		return err
	}
	input, err := dto.ToUpdateVideoInput(id, req)
	if err != nil {
		return badRequest(err)
	}
	return h.reply(ctx, http.StatusOK, HandlerTypeCommand, "UpdateVideo", func(c context.Context) (any, error) {
		return videoReply(h.commands.UpdateVideo(c, input))
	})
}

func (h *VideoHandler) deleteVideo(ctx khttp.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if _, err := h.invoke(ctx, HandlerTypeCommand, "DeleteVideo", func(c context.Context) (any, error) {
		return nil, h.commands.DeleteVideo(c, id)
	}); err != nil {
		return err
	}
	ctx.Response().WriteHeader(http.StatusNoContent)
	return nil
}

func (h *VideoHandler) userAction(ctx khttp.Context, operation string, fn func(context.Context, int64, int64) (*po.Video, error)) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	userID, err := h.resolveUserID(ctx, 0)
	if err != nil {
		return err
	}
	return h.reply(ctx, http.StatusOK, HandlerTypeCommand, operation, func(c context.Context) (any, error) {
		return videoReply(fn(c, id, userID))
	})
}

func (h *VideoHandler) likeVideo(ctx khttp.Context) error {
	return h.userAction(ctx, "LikeVideo", h.commands.LikeVideo)
}

func (h *VideoHandler) dislikeVideo(ctx khttp.Context) error {
	return h.userAction(ctx, "DislikeVideo", h.commands.DislikeVideo)
}

func (h *VideoHandler) markWatched(ctx khttp.Context) error {
	return h.userAction(ctx, "MarkAsWatched", h.commands.MarkAsWatched)
}

func (h *VideoHandler) addRating(ctx khttp.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var req dto.RatingRequest
	if err := h.bind(ctx, &req); err != nil {
		return err
	}
	userID, err := h.resolveUserID(ctx, req.UserID)
	if err != nil {
		return err
	}
	return h.reply(ctx, http.StatusOK, HandlerTypeCommand, "AddRating", func(c context.Context) (any, error) {
		return videoReply(h.commands.AddRating(c, id, userID, req.Value))
	})
}

func (h *VideoHandler) addComment(ctx khttp.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var req dto.CommentRequest
	if err := h.bind(ctx, &req); err != nil {
		return err
	}
	userID, err := h.resolveUserID(ctx, req.UserID)
	if err != nil {
		return err
	}
	return h.reply(ctx, http.StatusCreated, HandlerTypeCommand, "AddComment", func(c context.Context) (any, error) {
		comment, err := h.commands.AddComment(c, id, userID, req.Body)
		if err != nil {
			return nil, err
		}
		return dto.NewCommentResponse(comment), nil
	})
}

func (h *VideoHandler) incrementViews(ctx khttp.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	return h.reply(ctx, http.StatusOK, HandlerTypeCommand, "IncrementViews", func(c context.Context) (any, error) {
		return videoReply(h.commands.IncrementViews(c, id))
	})
}

func (h *VideoHandler) setFeatured(featured bool) khttp.HandlerFunc {
	return func(ctx khttp.Context) error {
		id, err := pathID(ctx)
		if err != nil {
			return err
		}
		return h.reply(ctx, http.StatusOK, HandlerTypeCommand, "SetFeatured", func(c context.Context) (any, error) {
			return videoReply(h.commands.SetFeatured(c, id, featured))
		})
	}
}

func (h *VideoHandler) assignCategory(ctx khttp.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var req dto.CategoryRequest
	if err := h.bind(ctx, &req); err != nil {
		return err
	}
	return h.reply(ctx, http.StatusOK, HandlerTypeCommand, "AssignCategory", func(c context.Context) (any, error) {
		return videoReply(h.commands.AssignCategory(c, id, req.Category))
	})
}

func (h *VideoHandler) removeCategory(ctx khttp.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	return h.reply(ctx, http.StatusOK, HandlerTypeCommand, "RemoveCategory", func(c context.Context) (any, error) {
		return videoReply(h.commands.RemoveCategory(c, id))
	})
}

func (h *VideoHandler) resetViews(ctx khttp.Context) error {
	return h.reply(ctx, http.StatusOK, HandlerTypeCommand, "ResetViews", func(c context.Context) (any, error) {
		n, err := h.commands.ResetViews(c)
		if err != nil {
			return nil, err
		}
		return dto.AffectedResponse{Affected: n}, nil
	})
}

func (h *VideoHandler) updateStatusByCategory(ctx khttp.Context) error {
	category := ctx.Vars().Get("category")
	var req dto.StatusRequest
	if err := h.bind(ctx, &req); err != nil {
		return err
	}
	return h.reply(ctx, http.StatusOK, HandlerTypeCommand, "UpdateStatusByCategory", func(c context.Context) (any, error) {
		n, err := h.commands.UpdateStatusByCategory(c, category, req.Status)
		if err != nil {
			return nil, err
		}
		return dto.AffectedResponse{Affected: n}, nil
	})
}

func (h *VideoHandler) deleteByCategory(ctx khttp.Context) error {
	category := ctx.Vars().Get("category")
	return h.reply(ctx, http.StatusOK, HandlerTypeCommand, "DeleteByCategory", func(c context.Context) (any, error) {
		n, err := h.commands.DeleteByCategory(c, category)
		if err != nil {
			return nil, err
		}
		return dto.AffectedResponse{Affected: n}, nil
	})
}
