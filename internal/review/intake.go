package review

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/JonMunkholm/kcportal/internal/workflow"
)

// DefaultTopic carries submitted datasets from the wizard to the queue.
const DefaultTopic = "datasets.submitted"

const receivedMessage = "Dataset submitted successfully! It will be reviewed by our team."

// Publisher is a workflow.Intake that publishes accepted submissions to a
// watermill topic.
type Publisher struct {
	pub   message.Publisher
	topic string
}

// NewPublisher returns a Publisher writing to topic.
func NewPublisher(pub message.Publisher, topic string) *Publisher {
	return &Publisher{pub: pub, topic: topic}
}

// Submit validates sub and publishes it. Refusals are *workflow.IntakeError.
func (p *Publisher) Submit(ctx context.Context, sub workflow.Submission) (workflow.Receipt, error) {
	if err := workflow.ValidateSubmission(sub); err != nil {
		return workflow.Receipt{}, err
	}

	payload, err := json.Marshal(sub)
	if err != nil {
		return workflow.Receipt{}, fmt.Errorf("encode submission: %w", err)
	}

	msg := message.NewMessage(sub.ID, payload)
	msg.SetContext(ctx)
	if err := p.pub.Publish(p.topic, msg); err != nil {
		return workflow.Receipt{}, &workflow.IntakeError{
			Code:    workflow.IntakeUnavailable,
			Message: err.Error(),
		}
	}

	return workflow.Receipt{
		SubmissionID: sub.ID,
		Status:       "queued",
		Message:      receivedMessage,
	}, nil
}

// Consumer moves published submissions into a Queue.
type Consumer struct {
	sub    message.Subscriber
	topic  string
	queue  *Queue
	logger *slog.Logger
}

// NewConsumer returns a Consumer reading topic into q.
func NewConsumer(sub message.Subscriber, topic string, q *Queue, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{sub: sub, topic: topic, queue: q, logger: logger}
}

// Consume subscribes to the topic and processes messages in the background
// until ctx is cancelled. The subscription exists when Consume returns.
func (c *Consumer) Consume(ctx context.Context) error {
	messages, err := c.sub.Subscribe(ctx, c.topic)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", c.topic, err)
	}

	go func() {
		for msg := range messages {
			c.process(msg)
		}
	}()
	return nil
}

func (c *Consumer) process(msg *message.Message) {
	var sub workflow.Submission
	if err := json.Unmarshal(msg.Payload, &sub); err != nil {
		c.logger.Error("discarding malformed submission",
			slog.String("message_id", msg.UUID),
			slog.String("error", err.Error()),
		)
		msg.Ack()
		return
	}

	e := c.queue.Enqueue(sub)
	c.logger.Info("submission queued for review",
		slog.String("submission_id", sub.ID),
		slog.Int("review_id", e.ID),
		slog.Int("quality_score", e.QualityScore),
		slog.String("priority", string(e.Priority)),
	)
	msg.Ack()
}
