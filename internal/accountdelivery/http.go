// Package accountdelivery manages delivery layer of wallet accounts.
package accountdelivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/go-petr/bibliotech/internal/domain"
	"github.com/go-petr/bibliotech/internal/middleware"
	"github.com/go-petr/bibliotech/pkg/errorspkg"
	"github.com/go-petr/bibliotech/pkg/web"
)

//go:generate mockgen -source http.go -destination http_mock.go -package accountdelivery

// Service provides service layer interface needed by account delivery layer.
type Service interface {
	Create(ctx context.Context, owner string) (domain.Account, error)
	Get(ctx context.Context, id int32) (domain.Account, error)
	GetByOwner(ctx context.Context, owner string) (domain.Account, error)
}

// Handler facilitates account delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns account handler.
func NewHandler(as Service) Handler {
	return Handler{service: as}
}

type data struct {
	Account domain.Account `json:"account"`
}

// Create handles http request to open the wallet of the authenticated user.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	account, err := h.service.Create(ctx, middleware.Username(gctx))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOwnerNotFound):
			gctx.JSON(http.StatusBadRequest, web.Error(err))
		case errors.Is(err, domain.ErrAccountAlreadyExists):
			gctx.JSON(http.StatusConflict, web.Error(err))
		default:
			gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
		}

		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: data{account}})
}

// Me handles http request to get the wallet of the authenticated user.
func (h *Handler) Me(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	account, err := h.service.GetByOwner(ctx, middleware.Username(gctx))
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: data{account}})
}

type getRequest struct {
	ID int32 `uri:"id" binding:"required,min=1"`
}

// Get handles http request to get account.
func (h *Handler) Get(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req getRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.BindingError(err))

		return
	}

	account, err := h.service.Get(ctx, req.ID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	if username := middleware.Username(gctx); account.Owner != username {
		l.Warn().Int32("account_id", account.ID).Str("username", username).Msg("foreign account requested")
		gctx.JSON(http.StatusUnauthorized, web.Error(domain.ErrAccountOwnerMismatch))

		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: data{account}})
}
