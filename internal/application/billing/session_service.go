package billing

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pharmacy/pos-backend/internal/domain/billing"
	"github.com/pharmacy/pos-backend/internal/domain/masterdata"
	"github.com/pharmacy/pos-backend/internal/domain/shared"
	"github.com/pharmacy/pos-backend/internal/infrastructure/persistence"
)

// MasterDataSource is the slice of the lookup service the session service
// needs: department membership for validation, catalog entries for item
// picks and patient name resolution.
type MasterDataSource interface {
	DepartmentNames(ctx context.Context) ([]string, error)
	Item(ctx context.Context, itemCode string) (*masterdata.CatalogItem, error)
	Patient(ctx context.Context, patientID string) (*masterdata.Patient, error)
}

// InvoiceSink submits a finished bill upstream and returns the invoice name
type InvoiceSink interface {
	SubmitInvoice(ctx context.Context, bill *billing.Bill) (string, error)
}

// session pairs one bill with the mutex that serializes every mutation on
// it. lastAccess drives expiry; lastInvoice remembers the most recent
// successful submission for receipt printing.
type session struct {
	mu          sync.Mutex
	bill        *billing.Bill
	operator    string
	lastAccess  time.Time
	lastInvoice string
}

// SessionService owns the live billing sessions. Every bill mutation goes
// through it, one writer per session; the stock refresher and the HTTP
// handlers never touch a Bill directly.
type SessionService struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*session

	masterData MasterDataSource
	stock      masterdata.StockProvider
	sink       InvoiceSink
	journal    persistence.SubmissionJournal
	logger     *zap.Logger

	sessionTTL      time.Duration
	janitorInterval time.Duration

	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewSessionService creates the session service and starts its expiry
// janitor. Close must be called to stop the janitor.
func NewSessionService(
	masterData MasterDataSource,
	stock masterdata.StockProvider,
	sink InvoiceSink,
	journal persistence.SubmissionJournal,
	sessionTTL time.Duration,
	janitorInterval time.Duration,
	logger *zap.Logger,
) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SessionService{
		sessions:        make(map[uuid.UUID]*session),
		masterData:      masterData,
		stock:           stock,
		sink:            sink,
		journal:         journal,
		logger:          logger.Named("billing"),
		sessionTTL:      sessionTTL,
		janitorInterval: janitorInterval,
		stopChan:        make(chan struct{}),
	}

	if s.sessionTTL > 0 && s.janitorInterval > 0 {
		s.wg.Add(1)
		go s.janitorLoop()
	}
	return s
}

// CreateSession opens a new billing session with a fresh bill
func (s *SessionService) CreateSession(operator string) *BillView {
	sess := &session{
		bill:       billing.NewBill(),
		operator:   operator,
		lastAccess: time.Now(),
	}

	s.mu.Lock()
	s.sessions[sess.bill.ID] = sess
	s.mu.Unlock()

	s.logger.Info("billing session created",
		zap.String("session_id", sess.bill.ID.String()),
		zap.String("operator", operator))
	return newBillView(sess.bill.ID, sess.bill)
}

// GetBill returns the current view of a session's bill
func (s *SessionService) GetBill(sessionID uuid.UUID) (*BillView, error) {
	var view *BillView
	err := s.withSession(sessionID, func(sess *session) error {
		view = newBillView(sessionID, sess.bill)
		return nil
	})
	return view, err
}

// CloseSession removes a session
func (s *SessionService) CloseSession(sessionID uuid.UUID) error {
	s.mu.Lock()
	_, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if !ok {
		return shared.ErrSessionNotFound
	}
	s.logger.Info("billing session closed", zap.String("session_id", sessionID.String()))
	return nil
}

// UpdateHeader applies a partial header update. Setting a patient ID
// resolves the patient name from the patient master; an unknown ID clears
// the name rather than failing the edit.
func (s *SessionService) UpdateHeader(ctx context.Context, sessionID uuid.UUID, update HeaderUpdate) (*BillView, error) {
	if update.TransactionType != nil && !billing.TransactionType(*update.TransactionType).IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown transaction type: "+*update.TransactionType)
	}

	var patientName string
	if update.PatientID != nil && strings.TrimSpace(*update.PatientID) != "" {
		patient, err := s.masterData.Patient(ctx, *update.PatientID)
		switch {
		case err == nil:
			patientName = patient.FullName
		case errors.Is(err, shared.ErrNotFound):
			// leave the name blank, the operator may still type ahead
		default:
			return nil, err
		}
	}

	var view *BillView
	err := s.withSession(sessionID, func(sess *session) error {
		bill := sess.bill
		if update.Company != nil {
			bill.Company = *update.Company
		}
		if update.Customer != nil {
			bill.Customer = *update.Customer
		}
		if update.CustomerAddress != nil {
			bill.CustomerAddress = *update.CustomerAddress
		}
		if update.Warehouse != nil {
			bill.Warehouse = *update.Warehouse
		}
		if update.Department != nil {
			bill.Department = *update.Department
		}
		if update.PatientID != nil {
			bill.PatientID = *update.PatientID
			bill.PatientName = patientName
		}
		if update.Doctor != nil {
			bill.Doctor = *update.Doctor
		}
		if update.TokenNumber != nil {
			bill.TokenNumber = *update.TokenNumber
		}
		if update.TransactionType != nil {
			bill.TransactionType = billing.TransactionType(*update.TransactionType)
		}
		if update.SelfPaying != nil {
			bill.SelfPaying = *update.SelfPaying
		}
		if update.PostingDateTime != nil {
			bill.PostingDateTime = *update.PostingDateTime
		}
		bill.UpdatedAt = time.Now()
		view = newBillView(sessionID, bill)
		return nil
	})
	return view, err
}

// AddLine appends an empty row to the bill grid
func (s *SessionService) AddLine(sessionID uuid.UUID) (*BillView, error) {
	var view *BillView
	err := s.withSession(sessionID, func(sess *session) error {
		sess.bill.AddLine()
		view = newBillView(sessionID, sess.bill)
		return nil
	})
	return view, err
}

// RemoveLines deletes the given rows from the grid
func (s *SessionService) RemoveLines(sessionID uuid.UUID, lineIDs []uuid.UUID) (*BillView, error) {
	var view *BillView
	err := s.withSession(sessionID, func(sess *session) error {
		sess.bill.RemoveLines(lineIDs)
		view = newBillView(sessionID, sess.bill)
		return nil
	})
	return view, err
}

// RemoveSelectedLines deletes the rows the operator has ticked
func (s *SessionService) RemoveSelectedLines(sessionID uuid.UUID) (*BillView, error) {
	var view *BillView
	err := s.withSession(sessionID, func(sess *session) error {
		sess.bill.RemoveLines(sess.bill.SelectedLineIDs())
		view = newBillView(sessionID, sess.bill)
		return nil
	})
	return view, err
}

// SetLineSelected toggles one row's selection tick
func (s *SessionService) SetLineSelected(sessionID, lineID uuid.UUID, selected bool) (*BillView, error) {
	var view *BillView
	err := s.withSession(sessionID, func(sess *session) error {
		if err := sess.bill.SetLineSelected(lineID, selected); err != nil {
			return err
		}
		view = newBillView(sessionID, sess.bill)
		return nil
	})
	return view, err
}

// SetSelectAll ticks or clears every row
func (s *SessionService) SetSelectAll(sessionID uuid.UUID, selected bool) (*BillView, error) {
	var view *BillView
	err := s.withSession(sessionID, func(sess *session) error {
		sess.bill.SetSelectAll(selected)
		view = newBillView(sessionID, sess.bill)
		return nil
	})
	return view, err
}

// PickItem fills a row from the catalog item the operator chose
func (s *SessionService) PickItem(ctx context.Context, sessionID, lineID uuid.UUID, itemCode string) (*BillView, error) {
	item, err := s.masterData.Item(ctx, itemCode)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INVALID_INPUT", "Unknown item: "+itemCode)
		}
		return nil, err
	}

	entry := billing.CatalogEntry{
		ItemCode:    item.ItemCode,
		ItemName:    item.ItemName,
		Description: item.Description,
		HSNCode:     item.HSNCode,
		ItemGroup:   item.ItemGroup,
		UOM:         item.UOM,
		StockQty:    item.StockQty,
		Rate:        item.Rate,
	}

	var view *BillView
	err = s.withSession(sessionID, func(sess *session) error {
		if err := sess.bill.ApplyCatalogSelection(lineID, entry); err != nil {
			return err
		}
		view = newBillView(sessionID, sess.bill)
		return nil
	})
	return view, err
}

// UpdateLineField stores raw input for one editable column on a row
func (s *SessionService) UpdateLineField(sessionID, lineID uuid.UUID, field billing.LineField, raw string) (*BillView, error) {
	var view *BillView
	err := s.withSession(sessionID, func(sess *session) error {
		if err := sess.bill.UpdateLineField(lineID, field, raw); err != nil {
			return err
		}
		view = newBillView(sessionID, sess.bill)
		return nil
	})
	return view, err
}

// ApplyDiscount sets the document-level discount percentage
func (s *SessionService) ApplyDiscount(sessionID uuid.UUID, percent string) (*BillView, error) {
	var view *BillView
	err := s.withSession(sessionID, func(sess *session) error {
		sess.bill.ApplyPercentDiscount(percent)
		view = newBillView(sessionID, sess.bill)
		return nil
	})
	return view, err
}

// ApplyCashTender records the cash figures and recomputes change due
func (s *SessionService) ApplyCashTender(sessionID uuid.UUID, cashInRs, cashInAdvance string) (*BillView, error) {
	var view *BillView
	err := s.withSession(sessionID, func(sess *session) error {
		sess.bill.ApplyCashTender(cashInRs, cashInAdvance)
		view = newBillView(sessionID, sess.bill)
		return nil
	})
	return view, err
}

// Reset returns the session's bill to its pristine state
func (s *SessionService) Reset(sessionID uuid.UUID) (*BillView, error) {
	var view *BillView
	err := s.withSession(sessionID, func(sess *session) error {
		sess.bill.Reset()
		view = newBillView(sessionID, sess.bill)
		return nil
	})
	return view, err
}

// Submit validates the bill, posts it to ERPNext and journals the attempt.
// The bill is left as-is on success; the operator resets explicitly, the
// way the billing screen's reset button works.
func (s *SessionService) Submit(ctx context.Context, sessionID uuid.UUID) (*SubmitResult, error) {
	departments, err := s.masterData.DepartmentNames(ctx)
	if err != nil {
		return nil, err
	}

	var result *SubmitResult
	err = s.withSession(sessionID, func(sess *session) error {
		bill := sess.bill
		if err := bill.ValidateForSubmission(departments); err != nil {
			return err
		}

		invoiceName, submitErr := s.sink.SubmitInvoice(ctx, bill)
		s.journalAttempt(ctx, sess, invoiceName, submitErr)
		if submitErr != nil {
			return submitErr
		}

		sess.lastInvoice = invoiceName
		result = &SubmitResult{
			InvoiceName: invoiceName,
			GrandTotal:  bill.Totals.GrandTotal.String(),
			ChangeDue:   bill.Totals.ChangeDue.String(),
		}
		return nil
	})
	return result, err
}

// LastInvoice returns the invoice name from the session's most recent
// successful submission, empty if none
func (s *SessionService) LastInvoice(sessionID uuid.UUID) (string, error) {
	var invoice string
	err := s.withSession(sessionID, func(sess *session) error {
		invoice = sess.lastInvoice
		return nil
	})
	return invoice, err
}

// Snapshot hands a deep-enough copy of the bill and its operator to the
// caller for read-only use, receipt rendering in particular
func (s *SessionService) Snapshot(sessionID uuid.UUID) (*billing.Bill, string, error) {
	var (
		copied   billing.Bill
		operator string
	)
	err := s.withSession(sessionID, func(sess *session) error {
		copied = *sess.bill
		copied.Lines = append([]billing.BillLine(nil), sess.bill.Lines...)
		operator = sess.operator
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return &copied, operator, nil
}

// RefreshStock re-queries stock for the session's items and overlays the
// snapshot, the on-demand form of what the background refresher does
func (s *SessionService) RefreshStock(ctx context.Context, sessionID uuid.UUID) (*BillView, error) {
	var codes []string
	if err := s.withSession(sessionID, func(sess *session) error {
		codes = sess.bill.ItemCodes()
		return nil
	}); err != nil {
		return nil, err
	}

	var stock map[string]decimal.Decimal
	if len(codes) > 0 {
		levels, err := s.stock.StockLevels(ctx, codes)
		if err != nil {
			return nil, err
		}
		stock = levels
	}

	var view *BillView
	err := s.withSession(sessionID, func(sess *session) error {
		sess.bill.ApplyStockSnapshot(stock)
		view = newBillView(sessionID, sess.bill)
		return nil
	})
	return view, err
}

// ApplyStockSnapshot overlays fresh stock figures onto every live session.
// Used by the stock refresher; the per-session mutex keeps the single
// writer invariant.
func (s *SessionService) ApplyStockSnapshot(stock map[string]decimal.Decimal) {
	s.mu.RLock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	for _, sess := range sessions {
		sess.mu.Lock()
		sess.bill.ApplyStockSnapshot(stock)
		sess.mu.Unlock()
	}
}

// OpenItemCodes returns the distinct item codes across all live sessions
func (s *SessionService) OpenItemCodes() []string {
	s.mu.RLock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	seen := make(map[string]bool)
	codes := make([]string, 0)
	for _, sess := range sessions {
		sess.mu.Lock()
		for _, code := range sess.bill.ItemCodes() {
			if !seen[code] {
				seen[code] = true
				codes = append(codes, code)
			}
		}
		sess.mu.Unlock()
	}
	return codes
}

// SessionCount returns the number of live sessions
func (s *SessionService) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the janitor goroutine
func (s *SessionService) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// withSession runs fn holding the session's mutex, bumping lastAccess
func (s *SessionService) withSession(sessionID uuid.UUID, fn func(*session) error) error {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return shared.ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastAccess = time.Now()
	return fn(sess)
}

// journalAttempt writes one journal row for a submit attempt. Journal
// failures are logged, never surfaced: the invoice outcome wins.
func (s *SessionService) journalAttempt(ctx context.Context, sess *session, invoiceName string, submitErr error) {
	record := &persistence.SubmissionRecord{
		BillID:      sess.bill.ID,
		InvoiceName: invoiceName,
		Status:      persistence.SubmissionStatusSubmitted,
		Operator:    sess.operator,
		Company:     sess.bill.Company,
		Customer:    sess.bill.Customer,
		Department:  sess.bill.Department,
		GrandTotal:  sess.bill.Totals.GrandTotal.String(),
		ItemCount:   len(sess.bill.ValidLines()),
	}
	if submitErr != nil {
		record.Status = persistence.SubmissionStatusFailed
		record.FailureReason = submitErr.Error()
	}

	if err := s.journal.Record(ctx, record); err != nil {
		s.logger.Error("failed to journal submission attempt",
			zap.String("bill_id", sess.bill.ID.String()),
			zap.Error(err))
	}
}

// janitorLoop expires idle sessions
func (s *SessionService) janitorLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.expireIdleSessions()
		case <-s.stopChan:
			return
		}
	}
}

// expireIdleSessions drops sessions idle past the TTL
func (s *SessionService) expireIdleSessions() {
	cutoff := time.Now().Add(-s.sessionTTL)

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := sess.lastAccess.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			s.logger.Info("billing session expired", zap.String("session_id", id.String()))
		}
	}
}
