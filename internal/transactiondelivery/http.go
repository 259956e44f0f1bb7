// Package transactiondelivery manages delivery layer of the wallet ledger.
package transactiondelivery

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

//go:generate mockgen -source http.go -destination http_mock.go -package transactiondelivery

// Service provides service layer interface needed by transaction delivery layer.
type Service interface {
	Deposit(ctx context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error)
	Withdraw(ctx context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error)
	Purchase(ctx context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error)
	Rent(ctx context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error)
	Refund(ctx context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error)
	Subscribe(ctx context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error)
	Process(ctx context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error)
	Get(ctx context.Context, id int32) (domain.Transaction, error)
	ListByAccount(ctx context.Context, accountID, pageSize, pageID int32) ([]domain.Transaction, error)
	PurchasedBooks(ctx context.Context, accountID int32) ([]int32, error)
}

// AccountService resolves the wallet of the authenticated user.
type AccountService interface {
	GetByOwner(ctx context.Context, owner string) (domain.Account, error)
}

// Handler facilitates transaction delivery layer logic.
type Handler struct {
	service  Service
	accounts AccountService
}

// NewHandler returns transaction handler.
func NewHandler(ts Service, as AccountService) *Handler {
	return &Handler{
		service:  ts,
		accounts: as,
	}
}

type transactionData struct {
	Transaction domain.Transaction `json:"transaction"`
}

type transactionsData struct {
	Transactions []domain.Transaction `json:"transactions"`
}

type booksData struct {
	BookIDs []int32 `json:"book_ids"`
}

// statusCode maps service errors to http status codes.
func statusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrNonPositiveAmount),
		errors.Is(err, domain.ErrBookRequired),
		errors.Is(err, domain.ErrInvalidAccountID),
		errors.Is(err, domain.ErrUnsupportedType),
		errors.Is(err, domain.ErrInvalidPage),
		errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAccountOwnerMismatch):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrTransactionAlreadyExists),
		errors.Is(err, domain.ErrConcurrentUpdate):
		return http.StatusConflict
	}

	return http.StatusInternalServerError
}

func writeError(gctx *gin.Context, err error) {
	code := statusCode(err)
	if code == http.StatusInternalServerError {
		err = errorspkg.ErrInternal
	}

	gctx.JSON(code, web.Error(err))
}

// callerAccount returns the wallet of the authenticated user.
func (h *Handler) callerAccount(gctx *gin.Context) (domain.Account, bool) {
	account, err := h.accounts.GetByOwner(gctx.Request.Context(), middleware.Username(gctx))
	if err != nil {
		writeError(gctx, err)
		return domain.Account{}, false
	}

	return account, true
}

type operationRequest struct {
	ID        int32  `json:"id" binding:"omitempty,min=1"`
	AccountID int32  `json:"account_id" binding:"omitempty,min=1"`
	BookID    *int32 `json:"book_id" binding:"omitempty,min=1"`
	Amount    string `json:"amount" binding:"required,amount"`
	Metadata  string `json:"metadata" binding:"max=255"`
}

type processRequest struct {
	operationRequest
	Type domain.TransactionType `json:"type" binding:"required"`
}

type operation func(ctx context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error)

// run resolves the caller wallet and runs op on it.
func (h *Handler) run(gctx *gin.Context, req operationRequest, typ domain.TransactionType, op operation) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	account, ok := h.callerAccount(gctx)
	if !ok {
		return
	}

	if req.AccountID != 0 && req.AccountID != account.ID {
		l.Warn().Int32("account_id", req.AccountID).Str("username", account.Owner).Msg("foreign account requested")
		writeError(gctx, domain.ErrAccountOwnerMismatch)

		return
	}

	arg := domain.CreateTransactionParams{
		ID:        req.ID,
		AccountID: account.ID,
		BookID:    req.BookID,
		Type:      typ,
		Amount:    req.Amount,
		Metadata:  req.Metadata,
	}

	t, err := op(ctx, arg)
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: transactionData{t}})
}

func (h *Handler) operate(gctx *gin.Context, typ domain.TransactionType, op operation) {
	var req operationRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.BindingError(err))

		return
	}

	h.run(gctx, req, typ, op)
}

// Deposit handles http request to add money to the caller wallet.
func (h *Handler) Deposit(gctx *gin.Context) {
	h.operate(gctx, domain.TransactionDeposit, h.service.Deposit)
}

// Withdraw handles http request to take money from the caller wallet.
func (h *Handler) Withdraw(gctx *gin.Context) {
	h.operate(gctx, domain.TransactionWithdrawal, h.service.Withdraw)
}

// Purchase handles http request to pay for a book.
func (h *Handler) Purchase(gctx *gin.Context) {
	h.operate(gctx, domain.TransactionPurchase, h.service.Purchase)
}

// Rent handles http request to pay for a book rental.
func (h *Handler) Rent(gctx *gin.Context) {
	h.operate(gctx, domain.TransactionRental, h.service.Rent)
}

// Refund handles http request to return money for a book.
func (h *Handler) Refund(gctx *gin.Context) {
	h.operate(gctx, domain.TransactionRefund, h.service.Refund)
}

// Subscribe handles http request to pay for the premium subscription.
func (h *Handler) Subscribe(gctx *gin.Context) {
	h.operate(gctx, domain.TransactionSubscription, h.service.Subscribe)
}

// Create handles http request to run the operation named in the request body.
func (h *Handler) Create(gctx *gin.Context) {
	var req processRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.BindingError(err))

		return
	}

	h.run(gctx, req.operationRequest, req.Type, h.service.Process)
}

type getRequest struct {
	ID int32 `uri:"id" binding:"required,min=1"`
}

// Get handles http request to get a transaction of the caller wallet.
func (h *Handler) Get(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req getRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.BindingError(err))

		return
	}

	account, ok := h.callerAccount(gctx)
	if !ok {
		return
	}

	t, err := h.service.Get(ctx, req.ID)
	if err != nil {
		writeError(gctx, err)
		return
	}

	if t.AccountID != account.ID {
		l.Warn().Int32("transaction_id", t.ID).Str("username", account.Owner).Msg("foreign transaction requested")
		writeError(gctx, domain.ErrAccountOwnerMismatch)

		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: transactionData{t}})
}

type listRequest struct {
	PageID   int32 `form:"page_id" binding:"required,min=1,max=1000000"`
	PageSize int32 `form:"page_size" binding:"required,min=1,max=100"`
}

// List handles http request to list transactions of the caller wallet.
func (h *Handler) List(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req listRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		zerolog.Ctx(ctx).Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.BindingError(err))

		return
	}

	account, ok := h.callerAccount(gctx)
	if !ok {
		return
	}

	items, err := h.service.ListByAccount(ctx, account.ID, req.PageSize, req.PageID)
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: transactionsData{items}})
}

// PurchasedBooks handles http request to list books bought by the caller.
func (h *Handler) PurchasedBooks(gctx *gin.Context) {
	account, ok := h.callerAccount(gctx)
	if !ok {
		return
	}

	books, err := h.service.PurchasedBooks(gctx.Request.Context(), account.ID)
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: booksData{books}})
}
