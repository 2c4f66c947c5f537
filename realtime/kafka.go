package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/daikochiya/teashop-app/utils"
)

// Publisher forwards feed events to a Kafka topic for external consumers
// (analytics, kitchen-display vendors). Delivery is best effort: a publish
// failure is logged and never blocks the views. It implements Sink.
type Publisher struct {
	Writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		Writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
	}
}

type orderEvent struct {
	ShopID  string `json:"shopId"`
	Type    string `json:"type"`
	OrderID string `json:"orderId"`
	Status  string `json:"status,omitempty"`
}

func (p *Publisher) Deliver(shopID string, ev Event) {
	msg := orderEvent{
		ShopID:  shopID,
		Type:    string(ev.Type),
		OrderID: ev.OrderID(),
	}
	if ev.New != nil {
		msg.Status = string(ev.New.Status)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Printf("marshaling kafka event failed: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(shopID),
		Value: payload,
	}); err != nil {
		utils.ErrorLogger.Printf("publishing order event failed: %v", err)
	}
}

func (p *Publisher) Close() error {
	return p.Writer.Close()
}
