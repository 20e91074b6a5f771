package service

import (
	"context"
	"encoding/json"
	"log"

	"docchat-be/internal/dto"
	"docchat-be/pkg/events"
	pktNats "docchat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/fatih/color"
)

// ActivityDelivery pushes history changes to connected dashboard clients.
// Implemented by the websocket hub.
type ActivityDelivery interface {
	Broadcast(activity dto.PublishSessionActivityMessage)
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the in-process activity topic, fans changes out to
// websocket clients and mirrors them onto NATS when a bus is configured.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	delivery  ActivityDelivery
	natsPub   *pktNats.Publisher
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	delivery ActivityDelivery,
	natsPub *pktNats.Publisher,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		delivery:  delivery,
		natsPub:   natsPub,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishSessionActivityMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal activity message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("%s session=%s", color.GreenString("[ACTIVITY] %s", payload.Activity), payload.SessionId)

	if cs.delivery != nil {
		cs.delivery.Broadcast(payload)
	}

	if cs.natsPub != nil {
		evt := events.NewSessionActivityEvent(payload.Activity, payload.SessionId, payload.Title)
		if err := cs.natsPub.Publish(ctx, evt); err != nil {
			log.Printf("[WARN] Failed to mirror activity to NATS: %v", err)
		}
	}

	msg.Ack()
}
