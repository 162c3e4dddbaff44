package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// RoutingKeyPrefix prefixes every routing key; the user ID follows.
const RoutingKeyPrefix = "balance.changed."

const publishTimeout = 5 * time.Second

// publisher is the subset of *amqp091.Channel the notifier uses.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// AMQPNotifier publishes events to a topic exchange, one message per affected user.
// Consumers bind queues with patterns such as "balance.changed.*".
type AMQPNotifier struct {
	conn     *amqp091.Connection
	channel  publisher
	exchange string
}

// NewAMQPNotifier dials url and declares a durable topic exchange.
func NewAMQPNotifier(url, exchange string) (*AMQPNotifier, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &AMQPNotifier{conn: conn, channel: channel, exchange: exchange}, nil
}

func (n *AMQPNotifier) NotifyBalanceChanged(ctx context.Context, userID string, ev Event) error {
	body, err := encode(userID, ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = n.channel.PublishWithContext(
		ctx,
		n.exchange,              // exchange
		RoutingKeyPrefix+userID, // routing key
		false,                   // mandatory
		false,                   // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    ev.Timestamp,
			Type:         string(ev.Kind),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	slog.DebugContext(ctx, "Published balance change",
		"user_id", userID,
		"kind", ev.Kind,
		"exchange", n.exchange)
	return nil
}

// Close closes the channel and connection.
func (n *AMQPNotifier) Close() error {
	if ch, ok := n.channel.(*amqp091.Channel); ok && ch != nil {
		ch.Close()
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
