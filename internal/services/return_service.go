package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"returns-service/internal/events"
	"returns-service/internal/models"
	"returns-service/internal/repository"
)

// ReturnService orchestrates the return request lifecycle: it loads the
// current request, asks the state machine whether the edge is legal for
// the acting party, applies edge-bound side effects, persists through
// the optimistic store and mirrors the coarse status onto the sub-order.
type ReturnService struct {
	returnRepo   repository.ReturnRepositoryInterface
	subOrderRepo repository.SubOrderRepositoryInterface
	publisher    events.ReturnPublisher
	logger       *logrus.Entry

	returnWindow   time.Duration
	responseWindow time.Duration
}

// NewReturnService creates a new return lifecycle service. The windows
// come from configuration so tests can shrink them; publisher may be
// nil when NATS is not configured.
func NewReturnService(
	returnRepo repository.ReturnRepositoryInterface,
	subOrderRepo repository.SubOrderRepositoryInterface,
	publisher events.ReturnPublisher,
	logger *logrus.Logger,
	returnWindowDays, responseDeadlineDays int,
) *ReturnService {
	return &ReturnService{
		returnRepo:     returnRepo,
		subOrderRepo:   subOrderRepo,
		publisher:      publisher,
		logger:         logger.WithField("component", "return-service"),
		returnWindow:   time.Duration(returnWindowDays) * 24 * time.Hour,
		responseWindow: time.Duration(responseDeadlineDays) * 24 * time.Hour,
	}
}

// DTOs

type CreateReturnRequestInput struct {
	SubOrderID   uuid.UUID           `json:"subOrderId" binding:"required"`
	Reason       models.ReturnReason `json:"reason" binding:"required"`
	ReasonDetail string              `json:"reasonDetail"`
	RequestType  models.RequestType  `json:"requestType"`
	Items        []RequestedItem     `json:"items"`
	EvidenceURLs []string            `json:"evidenceUrls"`
}

type ShopUpdateInput struct {
	Response            string `json:"response"`
	RefundTransactionID string `json:"refundTransactionId"`
}

type CustomerUpdateInput struct {
	TrackingNumber string `json:"trackingNumber"`
	Shipper        string `json:"shipper"`
	Note           string `json:"note"`
}

type EscalationInput struct {
	Reason       string   `json:"reason" binding:"required"`
	EvidenceURLs []string `json:"evidenceUrls"`
}

type ResolutionInput struct {
	Note string `json:"note"`
}

// Pagination is the envelope every paginated query returns
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type PagedReturnRequests struct {
	Data       []models.ReturnRequest `json:"data"`
	Count      int                    `json:"count"`
	Pagination Pagination             `json:"pagination"`
}

func newPagedReturnRequests(data []models.ReturnRequest, total int64, page, limit int) *PagedReturnRequests {
	totalPages := int(total) / limit
	if int(total)%limit != 0 {
		totalPages++
	}
	return &PagedReturnRequests{
		Data:  data,
		Count: len(data),
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}
}

// CreateReturnRequest opens a new claim against a delivered sub-order.
// Preconditions run in order, each with its own error category:
// ownership, returnable state, return window, evidence gate, duplicate
// active claim.
func (s *ReturnService) CreateReturnRequest(ctx context.Context, customerID uuid.UUID, input CreateReturnRequestInput) (*models.ReturnRequest, error) {
	subOrder, err := s.subOrderRepo.GetByID(ctx, input.SubOrderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	// Ownership mismatch reads as not-found so callers cannot probe
	// for other customers' sub-orders.
	if subOrder.CustomerID != customerID {
		return nil, ErrNotFound
	}

	if !subOrder.IsReturnable() {
		return nil, fmt.Errorf("%w (status: %s)", ErrSubOrderNotReturnable, subOrder.Status)
	}

	now := time.Now()
	if subOrder.DeliveredAt != nil && now.Sub(*subOrder.DeliveredAt) > s.returnWindow {
		return nil, ErrWindowExpired
	}

	requestType := input.RequestType
	if requestType == "" {
		requestType = models.RequestTypeReturn
	}
	if requestType != models.RequestTypeReturn && requestType != models.RequestTypeRefundOnly {
		return nil, newValidationError("requestType", fmt.Sprintf("unknown request type %q", requestType))
	}

	if input.Reason.RequiresEvidence() && len(input.EvidenceURLs) == 0 {
		return nil, newValidationError("evidenceUrls", fmt.Sprintf("reason %s requires at least one evidence URL", input.Reason))
	}

	if _, err := s.returnRepo.FindActiveBySubOrder(ctx, input.SubOrderID); err == nil {
		return nil, ErrDuplicateRequest
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	breakdown, err := CalculateRefund(subOrder, input.Items)
	if err != nil {
		return nil, err
	}

	req := &models.ReturnRequest{
		OrderID:      subOrder.OrderID,
		SubOrderID:   subOrder.ID,
		CustomerID:   customerID,
		ShopID:       subOrder.ShopID,
		Status:       models.ReturnStatusPending,
		Reason:       input.Reason,
		ReasonDetail: input.ReasonDetail,
		RequestType:  requestType,
		EvidenceURLs: input.EvidenceURLs,
		RefundAmount: breakdown.Amount,
		ExpiresAt:    now.Add(s.responseWindow),
		Items:        breakdown.Items,
	}

	creation := req.NewHistoryEntry("", models.ReturnStatusPending, models.ActorCustomer, &customerID, "Return request submitted")
	if err := s.returnRepo.Create(ctx, req, creation); err != nil {
		return nil, err
	}

	s.mirrorSubOrder(ctx, req, models.SubOrderStatusReturnRequested)

	if s.publisher != nil {
		if err := s.publisher.PublishReturnCreated(ctx, req); err != nil {
			s.logger.WithError(err).WithField("request", req.RequestNumber).Warn("Failed to publish return.created")
		}
	}

	return req, nil
}

// UpdateStatusByShop moves a request along a shop-owned edge: approve,
// reject, confirm receipt, start refunding, record the refund, complete.
func (s *ReturnService) UpdateStatusByShop(ctx context.Context, requestID, shopID uuid.UUID, newStatus models.ReturnStatus, input ShopUpdateInput) (*models.ReturnRequest, error) {
	req, err := s.getOwned(ctx, requestID, func(r *models.ReturnRequest) bool { return r.ShopID == shopID })
	if err != nil {
		return nil, err
	}

	if err := models.ValidateTransition(req.Status, newStatus, models.ActorShop); err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]interface{}{}
	note := input.Response
	var mirror models.SubOrderStatus

	switch newStatus {
	case models.ReturnStatusApproved:
		updates["shop_responded_at"] = now
		updates["shop_responded_by"] = shopID
		updates["shop_response"] = input.Response
		if note == "" {
			note = "Return request approved"
		}
		mirror = models.SubOrderStatusReturnApproved
	case models.ReturnStatusRejected:
		if strings.TrimSpace(input.Response) == "" {
			return nil, newValidationError("response", "a rejection reason is required")
		}
		updates["shop_responded_at"] = now
		updates["shop_responded_by"] = shopID
		updates["shop_response"] = input.Response
	case models.ReturnStatusReceived:
		updates["received_at"] = now
		if note == "" {
			note = "Returned items received"
		}
	case models.ReturnStatusRefunding:
		if note == "" {
			note = "Refund initiated"
		}
	case models.ReturnStatusRefunded:
		updates["refunded_at"] = now
		if input.RefundTransactionID != "" {
			updates["refund_transaction_id"] = input.RefundTransactionID
		}
		if note == "" {
			note = "Refund processed"
		}
		mirror = models.SubOrderStatusReturned
	case models.ReturnStatusCompleted:
		if note == "" {
			note = "Return completed"
		}
		mirror = models.SubOrderStatusReturned
	}

	if err := s.applyTransition(ctx, req, newStatus, models.ActorShop, &shopID, note, updates); err != nil {
		return nil, err
	}

	if mirror != "" {
		s.mirrorSubOrder(ctx, req, mirror)
	}
	s.notifyStatusChanged(ctx, req, req.Status, newStatus, models.ActorShop)

	return s.returnRepo.GetByID(ctx, requestID)
}

// UpdateStatusByCustomer lets the customer cancel an open claim or
// confirm return shipping. Escalation goes through EscalateToAdmin.
func (s *ReturnService) UpdateStatusByCustomer(ctx context.Context, requestID, customerID uuid.UUID, newStatus models.ReturnStatus, input CustomerUpdateInput) (*models.ReturnRequest, error) {
	req, err := s.getOwned(ctx, requestID, func(r *models.ReturnRequest) bool { return r.CustomerID == customerID })
	if err != nil {
		return nil, err
	}

	if newStatus != models.ReturnStatusCancelled && newStatus != models.ReturnStatusShipping {
		return nil, &models.InvalidTransitionError{From: req.Status, To: newStatus, Actor: models.ActorCustomer}
	}

	if err := models.ValidateTransition(req.Status, newStatus, models.ActorCustomer); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	note := input.Note

	switch newStatus {
	case models.ReturnStatusShipping:
		if strings.TrimSpace(input.TrackingNumber) == "" {
			return nil, newValidationError("trackingNumber", "a tracking number is required to confirm return shipping")
		}
		updates["return_tracking_number"] = input.TrackingNumber
		updates["return_shipper"] = input.Shipper
		updates["shipped_at"] = time.Now()
		if note == "" {
			note = fmt.Sprintf("Return shipped - %s %s", input.Shipper, input.TrackingNumber)
		}
	case models.ReturnStatusCancelled:
		if note == "" {
			note = "Return request cancelled by customer"
		}
	}

	if err := s.applyTransition(ctx, req, newStatus, models.ActorCustomer, &customerID, note, updates); err != nil {
		return nil, err
	}

	s.notifyStatusChanged(ctx, req, req.Status, newStatus, models.ActorCustomer)

	return s.returnRepo.GetByID(ctx, requestID)
}

// EscalateToAdmin appeals a shop rejection to the marketplace admin
// queue. Only legal while the request sits in REJECTED.
func (s *ReturnService) EscalateToAdmin(ctx context.Context, requestID, customerID uuid.UUID, input EscalationInput) (*models.ReturnRequest, error) {
	req, err := s.getOwned(ctx, requestID, func(r *models.ReturnRequest) bool { return r.CustomerID == customerID })
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.Reason) == "" {
		return nil, newValidationError("reason", "an escalation reason is required")
	}

	if err := models.ValidateTransition(req.Status, models.ReturnStatusEscalated, models.ActorCustomer); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"escalated_at":             time.Now(),
		"escalation_reason":        input.Reason,
		"escalation_evidence_urls": pq.StringArray(input.EvidenceURLs),
	}

	if err := s.applyTransition(ctx, req, models.ReturnStatusEscalated, models.ActorCustomer, &customerID, input.Reason, updates); err != nil {
		return nil, err
	}

	updated, err := s.returnRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishReturnEscalated(ctx, updated); err != nil {
			s.logger.WithError(err).WithField("request", updated.RequestNumber).Warn("Failed to publish return.escalated")
		}
	}

	return updated, nil
}

// ResolveEscalation is the admin's binding decision on an escalated
// request. Admins act platform-wide, so there is no ownership check.
func (s *ReturnService) ResolveEscalation(ctx context.Context, requestID, adminID uuid.UUID, decision string, input ResolutionInput) (*models.ReturnRequest, error) {
	var target models.ReturnStatus
	switch strings.ToLower(strings.TrimSpace(decision)) {
	case "approved":
		target = models.ReturnStatusApproved
	case "rejected":
		target = models.ReturnStatusRejected
	default:
		return nil, ErrInvalidDecision
	}

	req, err := s.returnRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := models.ValidateTransition(req.Status, target, models.ActorAdmin); err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]interface{}{
		"resolved_by": adminID,
		"resolved_at": now,
	}
	if input.Note != "" {
		updates["admin_note"] = input.Note
	}

	note := input.Note
	if note == "" {
		note = fmt.Sprintf("Escalation resolved: %s", target.DisplayName())
	}

	if err := s.applyTransition(ctx, req, target, models.ActorAdmin, &adminID, note, updates); err != nil {
		return nil, err
	}

	if target == models.ReturnStatusApproved {
		s.mirrorSubOrder(ctx, req, models.SubOrderStatusReturnApproved)
	}

	updated, err := s.returnRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishReturnResolved(ctx, updated, target); err != nil {
			s.logger.WithError(err).WithField("request", updated.RequestNumber).Warn("Failed to publish return.resolved")
		}
	}

	return updated, nil
}

// AutoApproveExpired approves pending requests whose shop response
// deadline has passed. Ran by the expiry sweep; conflicts mean another
// replica (or the shop itself) got there first and are skipped.
func (s *ReturnService) AutoApproveExpired(ctx context.Context, batchSize int) (int, error) {
	expired, err := s.returnRepo.FindExpiredPending(ctx, time.Now(), batchSize)
	if err != nil {
		return 0, err
	}

	approved := 0
	for i := range expired {
		req := &expired[i]
		updates := map[string]interface{}{
			"shop_responded_at": time.Now(),
		}
		err := s.applyTransition(ctx, req, models.ReturnStatusApproved, models.ActorSystem, nil, "Auto-approved: shop response deadline passed", updates)
		if err != nil {
			if errors.Is(err, repository.ErrStatusConflict) {
				continue
			}
			s.logger.WithError(err).WithField("request", req.RequestNumber).Error("Failed to auto-approve expired request")
			continue
		}

		s.mirrorSubOrder(ctx, req, models.SubOrderStatusReturnApproved)
		s.notifyStatusChanged(ctx, req, models.ReturnStatusPending, models.ReturnStatusApproved, models.ActorSystem)
		approved++
	}

	return approved, nil
}

// Query operations

// GetReturnRequest retrieves a request by ID without scoping (admin)
func (s *ReturnService) GetReturnRequest(ctx context.Context, requestID uuid.UUID) (*models.ReturnRequest, error) {
	req, err := s.returnRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

// GetCustomerReturnRequest retrieves a request the customer owns
func (s *ReturnService) GetCustomerReturnRequest(ctx context.Context, requestID, customerID uuid.UUID) (*models.ReturnRequest, error) {
	return s.getOwned(ctx, requestID, func(r *models.ReturnRequest) bool { return r.CustomerID == customerID })
}

// GetShopReturnRequest retrieves a request addressed to the shop
func (s *ReturnService) GetShopReturnRequest(ctx context.Context, requestID, shopID uuid.UUID) (*models.ReturnRequest, error) {
	return s.getOwned(ctx, requestID, func(r *models.ReturnRequest) bool { return r.ShopID == shopID })
}

// ListCustomerReturnRequests lists a customer's requests, newest first
func (s *ReturnService) ListCustomerReturnRequests(ctx context.Context, customerID uuid.UUID, status *models.ReturnStatus, page, limit int) (*PagedReturnRequests, error) {
	return s.list(ctx, repository.ReturnFilters{CustomerID: &customerID, Status: status, Page: page, Limit: limit})
}

// ListShopReturnRequests lists the requests addressed to a shop
func (s *ReturnService) ListShopReturnRequests(ctx context.Context, shopID uuid.UUID, status *models.ReturnStatus, page, limit int) (*PagedReturnRequests, error) {
	return s.list(ctx, repository.ReturnFilters{ShopID: &shopID, Status: status, Page: page, Limit: limit})
}

// ListEscalatedReturnRequests lists the admin dispute queue. With
// adminScope the view widens to every admin-touched request (escalated
// plus already resolved by an admin).
func (s *ReturnService) ListEscalatedReturnRequests(ctx context.Context, status *models.ReturnStatus, adminScope bool, page, limit int) (*PagedReturnRequests, error) {
	filters := repository.ReturnFilters{Status: status, AdminScope: adminScope, Page: page, Limit: limit}
	if status == nil && !adminScope {
		escalated := models.ReturnStatusEscalated
		filters.Status = &escalated
	}
	return s.list(ctx, filters)
}

// GetShopStats aggregates a shop's return activity
func (s *ReturnService) GetShopStats(ctx context.Context, shopID uuid.UUID) (*repository.ShopReturnStats, error) {
	return s.returnRepo.GetShopStats(ctx, shopID)
}

// Helpers

func (s *ReturnService) list(ctx context.Context, filters repository.ReturnFilters) (*PagedReturnRequests, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.Limit < 1 || filters.Limit > 100 {
		filters.Limit = 10
	}
	data, total, err := s.returnRepo.List(ctx, filters)
	if err != nil {
		return nil, err
	}
	return newPagedReturnRequests(data, total, filters.Page, filters.Limit), nil
}

// getOwned loads a request and applies an ownership predicate. A
// mismatch surfaces as not-found so existence is never leaked.
func (s *ReturnService) getOwned(ctx context.Context, requestID uuid.UUID, owns func(*models.ReturnRequest) bool) (*models.ReturnRequest, error) {
	req, err := s.returnRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !owns(req) {
		return nil, ErrNotFound
	}
	return req, nil
}

func (s *ReturnService) applyTransition(ctx context.Context, req *models.ReturnRequest, to models.ReturnStatus, actor models.ActorType, actorID *uuid.UUID, note string, updates map[string]interface{}) error {
	history := req.NewHistoryEntry(req.Status, to, actor, actorID, note)
	return s.returnRepo.UpdateStatus(ctx, repository.StatusUpdate{
		RequestID:  req.ID,
		FromStatus: req.Status,
		ToStatus:   to,
		Updates:    updates,
		History:    history,
	})
}

// mirrorSubOrder propagates the coarse return status onto the parent
// sub-order. The request transition is already committed at this point;
// a mirror failure is logged and alerting picks it up, it never rolls
// the transition back.
func (s *ReturnService) mirrorSubOrder(ctx context.Context, req *models.ReturnRequest, status models.SubOrderStatus) {
	if err := s.subOrderRepo.UpdateStatus(ctx, req.SubOrderID, status); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"subOrder": req.SubOrderID,
			"status":   status,
		}).Error("Failed to mirror sub-order status")
	}
}

func (s *ReturnService) notifyStatusChanged(ctx context.Context, req *models.ReturnRequest, from, to models.ReturnStatus, actor models.ActorType) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishReturnStatusChanged(ctx, req, from, to, actor); err != nil {
		s.logger.WithError(err).WithField("request", req.RequestNumber).Warn("Failed to publish return.status_changed")
	}
}
