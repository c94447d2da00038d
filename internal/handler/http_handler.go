package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/social-graph/internal/domain"
	"github.com/weiawesome/social-graph/internal/service"
	pkglog "github.com/weiawesome/social-graph/pkg/log"
	"github.com/weiawesome/social-graph/pkg/middleware"
	"github.com/weiawesome/social-graph/pkg/response"
)

const defaultPageLimit = 20

// Handler handles HTTP requests for the social graph service.
type Handler struct {
	svc            service.SocialGraphService
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler creates a new HTTP handler.
func NewHandler(svc service.SocialGraphService, authMiddleware *middleware.AuthMiddleware) *Handler {
	return &Handler{
		svc:            svc,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers all routes onto the Gin engine.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	auth := h.authMiddleware.RequireAuth()

	api := r.Group("/api/v1")
	{
		users := api.Group("/users")
		{
			users.POST("/:user_id/follow", auth, h.Follow)
			users.DELETE("/:user_id/follow", auth, h.Unfollow)
			users.POST("/:user_id/follow/toggle", auth, h.ToggleFollow)
			users.POST("/:user_id/block", auth, h.Block)
			users.DELETE("/:user_id/block", auth, h.Unblock)
			users.GET("/:user_id/relationship", auth, h.GetRelationship)

			users.POST("/:user_id/relationships/status", h.BatchStatus)
			users.GET("/:user_id/following", h.ListFollowing)
			users.GET("/:user_id/followers", h.ListFollowers)
			users.GET("/:user_id/followers/latest", h.LatestFollowers)
			users.GET("/:user_id/following/count", h.GetFollowingCount)
			users.GET("/:user_id/followers/count", h.GetFollowersCount)
		}

		me := api.Group("/me", auth)
		{
			me.GET("/related", h.GetRelatedIDs)
			me.GET("/blocking", h.GetBlockingIDs)
			me.POST("/cache/warm", h.WarmCache)
			me.DELETE("/cache", h.ClearCache)
		}
	}
}

// actorAndTarget reads the authenticated user and the :user_id param,
// writing the error response itself when either is missing.
func actorAndTarget(c *gin.Context) (string, string, bool) {
	actorID := middleware.GetUserID(c)
	if actorID == "" {
		response.Unauthorized(c, "unauthorized")
		return "", "", false
	}

	targetID := c.Param("user_id")
	if targetID == "" {
		response.BadRequest(c, "user_id is required")
		return "", "", false
	}
	return actorID, targetID, true
}

// mutate runs a follow/block style change and renders the result as
// {"<state>": after, "changed": changed}.
func (h *Handler) mutate(c *gin.Context, op string, state string, after bool,
	fn func(c *gin.Context, actorID, targetID string) (bool, error)) {
	ctx := c.Request.Context()
	l := pkglog.Ctx(ctx)

	actorID, targetID, ok := actorAndTarget(c)
	if !ok {
		return
	}

	changed, err := fn(c, actorID, targetID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSelfFollow), errors.Is(err, service.ErrSelfBlock),
			errors.Is(err, service.ErrInvalidTarget):
			response.BadRequest(c, err.Error())
		default:
			l.Error().Err(err).
				Str(pkglog.FieldTargetID, targetID).
				Msg(op + " failed")
			response.InternalError(c, "failed to "+op+" user")
		}
		return
	}

	response.Success(c, gin.H{state: after, "changed": changed})
}

// Follow handles POST /api/v1/users/:user_id/follow.
// The authenticated user follows the target user.
func (h *Handler) Follow(c *gin.Context) {
	h.mutate(c, "follow", "following", true, func(c *gin.Context, actorID, targetID string) (bool, error) {
		return h.svc.Follow(c.Request.Context(), actorID, targetID)
	})
}

// Unfollow handles DELETE /api/v1/users/:user_id/follow.
func (h *Handler) Unfollow(c *gin.Context) {
	h.mutate(c, "unfollow", "following", false, func(c *gin.Context, actorID, targetID string) (bool, error) {
		return h.svc.Unfollow(c.Request.Context(), actorID, targetID)
	})
}

// Block handles POST /api/v1/users/:user_id/block.
func (h *Handler) Block(c *gin.Context) {
	h.mutate(c, "block", "blocking", true, func(c *gin.Context, actorID, targetID string) (bool, error) {
		return h.svc.Block(c.Request.Context(), actorID, targetID)
	})
}

// Unblock handles DELETE /api/v1/users/:user_id/block.
func (h *Handler) Unblock(c *gin.Context) {
	h.mutate(c, "unblock", "blocking", false, func(c *gin.Context, actorID, targetID string) (bool, error) {
		return h.svc.Unblock(c.Request.Context(), actorID, targetID)
	})
}

// ToggleFollow handles POST /api/v1/users/:user_id/follow/toggle.
func (h *Handler) ToggleFollow(c *gin.Context) {
	ctx := c.Request.Context()
	l := pkglog.Ctx(ctx)

	actorID, targetID, ok := actorAndTarget(c)
	if !ok {
		return
	}

	following, err := h.svc.ToggleFollow(ctx, actorID, targetID)
	if err != nil {
		if errors.Is(err, service.ErrSelfFollow) || errors.Is(err, service.ErrInvalidTarget) {
			response.BadRequest(c, err.Error())
			return
		}
		l.Error().Err(err).Str(pkglog.FieldTargetID, targetID).Msg("toggle follow failed")
		response.InternalError(c, "failed to toggle follow")
		return
	}

	response.Success(c, gin.H{"following": following})
}

// GetRelationship handles GET /api/v1/users/:user_id/relationship.
func (h *Handler) GetRelationship(c *gin.Context) {
	ctx := c.Request.Context()
	l := pkglog.Ctx(ctx)

	actorID, targetID, ok := actorAndTarget(c)
	if !ok {
		return
	}

	rel, err := h.svc.Relationship(ctx, actorID, targetID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidTarget) {
			response.BadRequest(c, err.Error())
			return
		}
		l.Error().Err(err).Str(pkglog.FieldTargetID, targetID).Msg("get relationship failed")
		response.InternalError(c, "failed to get relationship")
		return
	}

	response.Success(c, rel)
}

// batchStatusRequest is the request body for POST /users/:user_id/relationships/status.
type batchStatusRequest struct {
	TargetIDs []string `json:"target_ids" binding:"required,max=500"`
}

// BatchStatus handles POST /api/v1/users/:user_id/relationships/status.
func (h *Handler) BatchStatus(c *gin.Context) {
	ctx := c.Request.Context()
	l := pkglog.Ctx(ctx)

	userID := c.Param("user_id")
	if userID == "" {
		response.BadRequest(c, "user_id is required")
		return
	}

	var req batchStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid relationship status request")
		response.BadRequest(c, err.Error())
		return
	}

	results, err := h.svc.BatchStatus(ctx, userID, req.TargetIDs)
	if err != nil {
		l.Error().Err(err).Str(pkglog.FieldUserID, userID).Msg("batch relationship status failed")
		response.InternalError(c, "failed to check relationship status")
		return
	}

	response.Success(c, gin.H{"results": results})
}

// pageQuery binds ?limit=&offset=.
type pageQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

func bindPage(c *gin.Context) (domain.Page, bool) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return domain.Page{}, false
	}
	if q.Limit == 0 {
		q.Limit = defaultPageLimit
	}
	return domain.Page{Limit: q.Limit, Offset: q.Offset}, true
}

func (h *Handler) list(c *gin.Context, what string,
	fn func(c *gin.Context, userID string, page domain.Page) ([]domain.Connection, error)) {
	ctx := c.Request.Context()
	l := pkglog.Ctx(ctx)

	userID := c.Param("user_id")
	page, ok := bindPage(c)
	if !ok {
		return
	}

	conns, err := fn(c, userID, page)
	if err != nil {
		l.Error().Err(err).Str(pkglog.FieldUserID, userID).Msg("list " + what + " failed")
		response.InternalError(c, "failed to list "+what)
		return
	}

	response.Success(c, gin.H{
		what:     conns,
		"limit":  page.Limit,
		"offset": page.Offset,
	})
}

// ListFollowing handles GET /api/v1/users/:user_id/following.
func (h *Handler) ListFollowing(c *gin.Context) {
	h.list(c, "following", func(c *gin.Context, userID string, page domain.Page) ([]domain.Connection, error) {
		return h.svc.Following(c.Request.Context(), userID, page)
	})
}

// ListFollowers handles GET /api/v1/users/:user_id/followers.
func (h *Handler) ListFollowers(c *gin.Context) {
	h.list(c, "followers", func(c *gin.Context, userID string, page domain.Page) ([]domain.Connection, error) {
		return h.svc.Followers(c.Request.Context(), userID, page)
	})
}

type latestQuery struct {
	N int `form:"n" binding:"omitempty,min=1,max=100"`
}

// LatestFollowers handles GET /api/v1/users/:user_id/followers/latest?n=.
func (h *Handler) LatestFollowers(c *gin.Context) {
	ctx := c.Request.Context()
	l := pkglog.Ctx(ctx)

	userID := c.Param("user_id")

	var q latestQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if q.N == 0 {
		q.N = 5
	}

	conns, err := h.svc.LatestFollowers(ctx, userID, q.N)
	if err != nil {
		l.Error().Err(err).Str(pkglog.FieldUserID, userID).Msg("latest followers failed")
		response.InternalError(c, "failed to get latest followers")
		return
	}

	response.Success(c, gin.H{"followers": conns})
}

// GetFollowingCount handles GET /api/v1/users/:user_id/following/count.
func (h *Handler) GetFollowingCount(c *gin.Context) {
	h.count(c, "following", h.svc.FollowingCount)
}

// GetFollowersCount handles GET /api/v1/users/:user_id/followers/count.
func (h *Handler) GetFollowersCount(c *gin.Context) {
	h.count(c, "followers", h.svc.FollowersCount)
}

func (h *Handler) count(c *gin.Context, what string, fn func(ctx context.Context, userID string) (int64, error)) {
	ctx := c.Request.Context()
	l := pkglog.Ctx(ctx)

	userID := c.Param("user_id")
	if userID == "" {
		response.BadRequest(c, "user_id is required")
		return
	}

	count, err := fn(ctx, userID)
	if err != nil {
		l.Error().Err(err).Str(pkglog.FieldUserID, userID).Msg("get " + what + " count failed")
		response.InternalError(c, "failed to get "+what+" count")
		return
	}

	response.Success(c, gin.H{"count": count})
}

// GetRelatedIDs handles GET /api/v1/me/related.
func (h *Handler) GetRelatedIDs(c *gin.Context) {
	h.ids(c, "related", h.svc.RelatedIDs)
}

// GetBlockingIDs handles GET /api/v1/me/blocking.
func (h *Handler) GetBlockingIDs(c *gin.Context) {
	h.ids(c, "blocking", h.svc.BlockingIDs)
}

func (h *Handler) ids(c *gin.Context, what string, fn func(ctx context.Context, userID string) ([]string, error)) {
	ctx := c.Request.Context()
	l := pkglog.Ctx(ctx)

	actorID := middleware.GetUserID(c)
	ids, err := fn(ctx, actorID)
	if err != nil {
		l.Error().Err(err).Msg("get " + what + " ids failed")
		response.InternalError(c, "failed to get "+what+" ids")
		return
	}

	response.Success(c, gin.H{"user_ids": ids})
}

// WarmCache handles POST /api/v1/me/cache/warm.
func (h *Handler) WarmCache(c *gin.Context) {
	ctx := c.Request.Context()
	l := pkglog.Ctx(ctx)

	snap, err := h.svc.WarmCache(ctx, middleware.GetUserID(c))
	if err != nil {
		l.Error().Err(err).Msg("warm cache failed")
		response.InternalError(c, "failed to warm cache")
		return
	}

	response.Success(c, snap)
}

// ClearCache handles DELETE /api/v1/me/cache.
func (h *Handler) ClearCache(c *gin.Context) {
	h.svc.ClearCache(c.Request.Context(), middleware.GetUserID(c))
	response.NoContent(c)
}
