package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appbilling "github.com/pharmacy/pos-backend/internal/application/billing"
	appprinting "github.com/pharmacy/pos-backend/internal/application/printing"
	"github.com/pharmacy/pos-backend/internal/domain/billing"
	"github.com/pharmacy/pos-backend/internal/infrastructure/persistence"
	"github.com/pharmacy/pos-backend/internal/interfaces/http/middleware"
)

const defaultJournalLimit = 50

// BillingHandler handles the billing screen's session lifecycle: header
// edits, grid edits, totals, submission and receipt rendering.
type BillingHandler struct {
	BaseHandler
	sessions *appbilling.SessionService
	receipts *appprinting.ReceiptService
	journal  persistence.SubmissionJournal
	logger   *zap.Logger
}

// NewBillingHandler creates a new billing handler. The receipt service is
// optional; without it the receipt endpoint reports printing as disabled.
func NewBillingHandler(sessions *appbilling.SessionService, receipts *appprinting.ReceiptService, journal persistence.SubmissionJournal, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{
		sessions: sessions,
		receipts: receipts,
		journal:  journal,
		logger:   logger.Named("billing-handler"),
	}
}

// CreateSession opens a fresh billing session for the operator.
// POST /billing/sessions
func (h *BillingHandler) CreateSession(c *gin.Context) {
	operator := middleware.GetJWTUsername(c)
	view := h.sessions.CreateSession(operator)
	h.Created(c, view)
}

// GetSession returns the current state of a billing session.
// GET /billing/sessions/:id
func (h *BillingHandler) GetSession(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}
	view, err := h.sessions.GetBill(sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// CloseSession discards a billing session.
// DELETE /billing/sessions/:id
func (h *BillingHandler) CloseSession(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}
	if err := h.sessions.CloseSession(sessionID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// UpdateHeader applies partial updates to the bill header.
// PUT /billing/sessions/:id/header
func (h *BillingHandler) UpdateHeader(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	var req UpdateHeaderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	view, err := h.sessions.UpdateHeader(c.Request.Context(), sessionID, appbilling.HeaderUpdate{
		Company:         req.Company,
		Customer:        req.Customer,
		CustomerAddress: req.CustomerAddress,
		Warehouse:       req.Warehouse,
		Department:      req.Department,
		PatientID:       req.PatientID,
		Doctor:          req.Doctor,
		TokenNumber:     req.TokenNumber,
		TransactionType: req.TransactionType,
		SelfPaying:      req.SelfPaying,
		PostingDateTime: req.PostingDateTime,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// AddLine appends an empty row to the bill grid.
// POST /billing/sessions/:id/lines
func (h *BillingHandler) AddLine(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}
	view, err := h.sessions.AddLine(sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// RemoveLines removes the named rows from the bill grid.
// DELETE /billing/sessions/:id/lines
func (h *BillingHandler) RemoveLines(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	var req RemoveLinesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	view, err := h.sessions.RemoveLines(sessionID, req.LineIDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// RemoveSelectedLines removes every row whose checkbox is ticked.
// DELETE /billing/sessions/:id/lines/selected
func (h *BillingHandler) RemoveSelectedLines(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}
	view, err := h.sessions.RemoveSelectedLines(sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// SetLineSelection toggles one row's checkbox.
// PUT /billing/sessions/:id/lines/:lineID/selection
func (h *BillingHandler) SetLineSelection(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}
	lineID, ok := h.lineID(c)
	if !ok {
		return
	}

	var req SetSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	view, err := h.sessions.SetLineSelected(sessionID, lineID, req.Selected)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// SetSelectAll toggles the header checkbox over all rows.
// PUT /billing/sessions/:id/selection
func (h *BillingHandler) SetSelectAll(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	var req SetSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	view, err := h.sessions.SetSelectAll(sessionID, req.Selected)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// PickItem assigns a catalog item to a row, filling its descriptive
// columns and rate.
// PUT /billing/sessions/:id/lines/:lineID/item
func (h *BillingHandler) PickItem(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}
	lineID, ok := h.lineID(c)
	if !ok {
		return
	}

	var req PickItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	view, err := h.sessions.PickItem(c.Request.Context(), sessionID, lineID, req.ItemCode)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// UpdateLineField stores one edited grid cell and recomputes the row.
// PUT /billing/sessions/:id/lines/:lineID/field
func (h *BillingHandler) UpdateLineField(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}
	lineID, ok := h.lineID(c)
	if !ok {
		return
	}

	var req UpdateLineFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	view, err := h.sessions.UpdateLineField(sessionID, lineID, billing.LineField(req.Field), req.Value)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// ApplyDiscount sets the document-level discount percentage.
// PUT /billing/sessions/:id/discount
func (h *BillingHandler) ApplyDiscount(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	var req ApplyDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	view, err := h.sessions.ApplyDiscount(sessionID, req.Percent)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// ApplyCash records the cash tendered and recomputes change due.
// PUT /billing/sessions/:id/cash
func (h *BillingHandler) ApplyCash(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	var req ApplyCashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	view, err := h.sessions.ApplyCashTender(sessionID, req.CashInRs, req.CashInAdvance)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// Submit validates the bill and posts it to ERPNext as a submitted
// Sales Invoice. The session is left intact so the operator can print
// the receipt before starting the next bill.
// POST /billing/sessions/:id/submit
func (h *BillingHandler) Submit(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	result, err := h.sessions.Submit(c.Request.Context(), sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.logger.Info("invoice submitted",
		zap.String("session_id", sessionID.String()),
		zap.String("invoice", result.InvoiceName))

	h.Success(c, result)
}

// Reset clears the bill back to an empty state.
// POST /billing/sessions/:id/reset
func (h *BillingHandler) Reset(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}
	view, err := h.sessions.Reset(sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// RefreshStock re-queries live stock for the bill's items.
// POST /billing/sessions/:id/refresh-stock
func (h *BillingHandler) RefreshStock(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}
	view, err := h.sessions.RefreshStock(c.Request.Context(), sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// Receipt renders the session's last submitted invoice as a PDF receipt.
// GET /billing/sessions/:id/receipt
func (h *BillingHandler) Receipt(c *gin.Context) {
	if h.receipts == nil {
		h.Error(c, http.StatusServiceUnavailable, "PRINTING_DISABLED", "Receipt printing is not enabled")
		return
	}

	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	invoiceName, err := h.sessions.LastInvoice(sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if invoiceName == "" {
		h.NotFound(c, "No submitted invoice for this session")
		return
	}

	bill, operator, err := h.sessions.Snapshot(sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	pdf, err := h.receipts.RenderPDF(c.Request.Context(), bill, invoiceName, operator)
	if err != nil {
		h.logger.Error("receipt rendering failed",
			zap.String("invoice", invoiceName),
			zap.Error(err))
		h.InternalError(c, "Failed to render receipt")
		return
	}

	c.Header("Content-Disposition", `inline; filename="`+invoiceName+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// ListJournal returns the most recent submission attempts.
// GET /billing/journal?limit=...
func (h *BillingHandler) ListJournal(c *gin.Context) {
	limit := defaultJournalLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	records, err := h.journal.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]SubmissionRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, SubmissionRecordResponse{
			ID:            r.ID,
			BillID:        r.BillID,
			InvoiceName:   r.InvoiceName,
			Status:        r.Status,
			Operator:      r.Operator,
			Company:       r.Company,
			Customer:      r.Customer,
			Department:    r.Department,
			GrandTotal:    r.GrandTotal,
			ItemCount:     r.ItemCount,
			FailureReason: r.FailureReason,
			CreatedAt:     r.CreatedAt.Format(time.RFC3339),
		})
	}
	h.SuccessWithMeta(c, out, len(out))
}

// sessionID parses the :id path parameter
func (h *BillingHandler) sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid session ID")
		return uuid.Nil, false
	}
	return id, true
}

// lineID parses the :lineID path parameter
func (h *BillingHandler) lineID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("lineID"))
	if err != nil {
		h.BadRequest(c, "Invalid line ID")
		return uuid.Nil, false
	}
	return id, true
}
