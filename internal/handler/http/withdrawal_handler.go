package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"payadmin/internal/domain"
	"payadmin/internal/port"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type WithdrawalHandler struct {
	service  port.DecisionService
	validate *validator.Validate
	logger   *zap.SugaredLogger
}

func NewWithdrawalHandler(service port.DecisionService, logger *zap.SugaredLogger) *WithdrawalHandler {
	return &WithdrawalHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

type decisionRequest struct {
	WithdrawalID string `json:"withdrawalId" validate:"required"`
	Action       string `json:"action" validate:"required,oneof=approve reject"`
}

type withdrawalResponse struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Amount      float64    `json:"amount"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	ProcessedAt *time.Time `json:"processedAt,omitempty"`
	ProcessedBy *string    `json:"processedBy,omitempty"`
}

func toWithdrawalResponse(w *domain.Withdrawal) withdrawalResponse {
	return withdrawalResponse{
		ID:          w.ID.String(),
		UserID:      w.UserID,
		Amount:      w.Amount,
		Status:      string(w.Status),
		CreatedAt:   w.CreatedAt,
		ProcessedAt: w.ProcessedAt,
		ProcessedBy: w.ProcessedBy,
	}
}

func (h *WithdrawalHandler) ProcessWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "withdrawalId and action (approve/reject) are required")
		return
	}

	id, err := uuid.Parse(req.WithdrawalID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid withdrawal id")
		return
	}

	outcome, err := h.service.Decide(r.Context(), id, domain.DecisionAction(req.Action), UserID(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, outcome.Message)
}

func (h *WithdrawalHandler) GetWithdrawal(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid withdrawal id")
		return
	}

	withdrawal, err := h.service.GetWithdrawal(r.Context(), UserID(r.Context()), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toWithdrawalResponse(withdrawal))
}

func (h *WithdrawalHandler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	status := domain.WithdrawalStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = domain.StatusPending
	}
	switch status {
	case domain.StatusPending, domain.StatusApproved, domain.StatusRejected:
	default:
		writeError(w, http.StatusBadRequest, "Invalid status filter")
		return
	}

	withdrawals, err := h.service.ListWithdrawals(r.Context(), UserID(r.Context()), status)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	out := make([]withdrawalResponse, 0, len(withdrawals))
	for _, withdrawal := range withdrawals {
		out = append(out, toWithdrawalResponse(withdrawal))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *WithdrawalHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var alreadyProcessed *domain.AlreadyProcessedError
	switch {
	case errors.As(err, &alreadyProcessed):
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Withdrawal request already processed (status: %s)", alreadyProcessed.Status))
	case errors.Is(err, domain.ErrInvalidAction):
		writeError(w, http.StatusBadRequest, `Invalid action. Use "approve" or "reject"`)
	case errors.Is(err, domain.ErrWithdrawalNotFound):
		writeError(w, http.StatusNotFound, "Withdrawal request not found")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, domain.ErrAdminRequired):
		writeError(w, http.StatusForbidden, "Unauthorized. Admin access required.")
	case errors.Is(err, domain.ErrDependencyTimeout):
		writeError(w, http.StatusGatewayTimeout, "Upstream dependency timed out")
	case errors.Is(err, domain.ErrLedger):
		h.logger.Errorw("ledger operation failed", "url", r.RequestURI, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to process wallet transaction")
	default:
		h.logger.Errorw("unexpected handler error", "url", r.RequestURI, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
