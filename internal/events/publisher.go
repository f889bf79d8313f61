package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"returns-service/internal/models"
)

// Subjects published by the return engine. Downstream consumers:
// shop notification feed (created), admin queue (escalated), and the
// customer/shop notification fan-out (resolved, status_changed).
const (
	SubjectReturnCreated       = "return.created"
	SubjectReturnStatusChanged = "return.status_changed"
	SubjectReturnEscalated     = "return.escalated"
	SubjectReturnResolved      = "return.resolved"

	streamName = "RETURNS"
)

// ReturnPublisher is the notification sink contract. Publication is
// best-effort: callers log failures and never roll back a committed
// transition because of one.
type ReturnPublisher interface {
	PublishReturnCreated(ctx context.Context, req *models.ReturnRequest) error
	PublishReturnStatusChanged(ctx context.Context, req *models.ReturnRequest, from, to models.ReturnStatus, actor models.ActorType) error
	PublishReturnEscalated(ctx context.Context, req *models.ReturnRequest) error
	PublishReturnResolved(ctx context.Context, req *models.ReturnRequest, decision models.ReturnStatus) error
	Close()
}

// ReturnEvent is the wire payload for every return subject
type ReturnEvent struct {
	Type          string    `json:"type"`
	RequestID     string    `json:"requestId"`
	RequestNumber string    `json:"requestNumber"`
	OrderID       string    `json:"orderId"`
	SubOrderID    string    `json:"subOrderId"`
	CustomerID    string    `json:"customerId"`
	ShopID        string    `json:"shopId"`
	FromStatus    string    `json:"fromStatus,omitempty"`
	ToStatus      string    `json:"toStatus"`
	Actor         string    `json:"actor,omitempty"`
	Decision      string    `json:"decision,omitempty"`
	RefundAmount  string    `json:"refundAmount"`
	Timestamp     time.Time `json:"timestamp"`
}

// Publisher publishes return lifecycle events to NATS JetStream
type Publisher struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	logger *logrus.Entry
}

// NewPublisher connects to NATS and ensures the returns stream exists
func NewPublisher(natsURL string, logger *logrus.Logger) (*Publisher, error) {
	conn, err := nats.Connect(natsURL,
		nats.Name("returns-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	entry := logger.WithField("component", "return-events")

	_, err = js.AddStream(&nats.StreamConfig{
		Name:     streamName,
		Subjects: []string{"return.>"},
		Storage:  nats.FileStorage,
	})
	if err != nil {
		// The stream usually exists already in shared deployments
		entry.WithError(err).Warn("Failed to ensure returns stream (may already exist)")
	}

	return &Publisher{
		conn:   conn,
		js:     js,
		logger: entry,
	}, nil
}

// Close drains the NATS connection
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

// PublishReturnCreated publishes a return.created event
func (p *Publisher) PublishReturnCreated(ctx context.Context, req *models.ReturnRequest) error {
	event := p.buildEvent(SubjectReturnCreated, req)
	event.ToStatus = string(req.Status)
	return p.publish(ctx, SubjectReturnCreated, event)
}

// PublishReturnStatusChanged publishes a return.status_changed event
func (p *Publisher) PublishReturnStatusChanged(ctx context.Context, req *models.ReturnRequest, from, to models.ReturnStatus, actor models.ActorType) error {
	event := p.buildEvent(SubjectReturnStatusChanged, req)
	event.FromStatus = string(from)
	event.ToStatus = string(to)
	event.Actor = string(actor)
	return p.publish(ctx, SubjectReturnStatusChanged, event)
}

// PublishReturnEscalated publishes a return.escalated event for the
// admin dispute queue
func (p *Publisher) PublishReturnEscalated(ctx context.Context, req *models.ReturnRequest) error {
	event := p.buildEvent(SubjectReturnEscalated, req)
	event.ToStatus = string(models.ReturnStatusEscalated)
	return p.publish(ctx, SubjectReturnEscalated, event)
}

// PublishReturnResolved publishes a return.resolved event to notify
// both customer and shop of the admin decision
func (p *Publisher) PublishReturnResolved(ctx context.Context, req *models.ReturnRequest, decision models.ReturnStatus) error {
	event := p.buildEvent(SubjectReturnResolved, req)
	event.ToStatus = string(decision)
	event.Decision = string(decision)
	return p.publish(ctx, SubjectReturnResolved, event)
}

func (p *Publisher) buildEvent(eventType string, req *models.ReturnRequest) *ReturnEvent {
	return &ReturnEvent{
		Type:          eventType,
		RequestID:     req.ID.String(),
		RequestNumber: req.RequestNumber,
		OrderID:       req.OrderID.String(),
		SubOrderID:    req.SubOrderID.String(),
		CustomerID:    req.CustomerID.String(),
		ShopID:        req.ShopID.String(),
		RefundAmount:  req.RefundAmount.String(),
		Timestamp:     time.Now().UTC(),
	}
}

func (p *Publisher) publish(ctx context.Context, subject string, event *ReturnEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := p.js.Publish(subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}

	p.logger.WithFields(logrus.Fields{
		"subject": subject,
		"request": event.RequestNumber,
	}).Debug("Published return event")

	return nil
}
