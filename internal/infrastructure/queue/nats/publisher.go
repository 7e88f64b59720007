package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/insurly/claim-processor/internal/core/domain"
	"github.com/insurly/claim-processor/internal/infrastructure/resilience"
)

// Publisher announces processed claims on a NATS subject. Downstream
// consumers (payout systems, audit) get a compact event, not the full
// envelope; anyone needing the payload fetches it by request_id.
type Publisher struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func New(url, subject string) (*Publisher, error) {
	return NewWithOptions(url, subject, Options{})
}

func NewWithOptions(url, subject string, options Options) (*Publisher, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("claim-processor"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("nats reconnected: %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Publisher{
		conn:     conn,
		subject:  subject,
		executor: options.ResilienceExecutor,
	}, nil
}

func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

type claimProcessedEvent struct {
	RequestID      string  `json:"request_id"`
	WorkflowStatus string  `json:"workflow_status"`
	DecisionStatus string  `json:"decision_status,omitempty"`
	ProcessingTime float64 `json:"processing_time"`
}

func (p *Publisher) PublishClaimProcessed(ctx context.Context, result *domain.WorkflowResult) error {
	event := claimProcessedEvent{
		RequestID:      result.RequestID,
		WorkflowStatus: string(result.WorkflowStatus),
		ProcessingTime: result.ProcessingTime,
	}
	if outputs := result.AgentOutputs; outputs != nil && outputs.ClaimDecision != nil {
		event.DecisionStatus = string(outputs.ClaimDecision.Status)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal claim event: %w", err)
	}

	call := func(_ context.Context) error {
		if err := p.conn.Publish(p.subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if p.executor != nil {
		err = p.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded(err)
	}
	return nil
}
