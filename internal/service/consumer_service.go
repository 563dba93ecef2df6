package service

import (
	"context"
	"encoding/json"
	"os"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"carepathiq-be/internal/dto"
	"carepathiq-be/internal/metrics"
	"carepathiq-be/internal/pkg/logger"
)

// IConsumerService drains the in-process bus: checkpoint snapshots become
// document writes, progress events go to the stream clients. Consumers only
// receive pre-rendered payloads, so the session keeps its single writer.
type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub          *gochannel.GoChannel
	checkpointTopic string
	progressTopic   string
	streamService   IStreamService
	logger          logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	checkpointTopic string,
	progressTopic string,
	streamService IStreamService,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:          pubSub,
		checkpointTopic: checkpointTopic,
		progressTopic:   progressTopic,
		streamService:   streamService,
		logger:          log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	checkpoints, err := cs.pubSub.Subscribe(ctx, cs.checkpointTopic)
	if err != nil {
		return err
	}
	progress, err := cs.pubSub.Subscribe(ctx, cs.progressTopic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range checkpoints {
			cs.processCheckpoint(msg)
		}
	}()
	go func() {
		for msg := range progress {
			cs.processProgress(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processCheckpoint(msg *message.Message) {
	var payload dto.PublishCheckpointMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal checkpoint", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // invalid payloads never become valid, no point retrying
		return
	}

	if err := os.WriteFile(payload.Path, []byte(payload.Document), 0644); err != nil {
		metrics.DocumentSaves.WithLabelValues("checkpoint", "failed").Inc()
		cs.logger.Error("ConsumerService", "Checkpoint write failed", map[string]interface{}{
			"session_id": payload.SessionId,
			"path":       payload.Path,
			"error":      err.Error(),
		})
		// A lost checkpoint is recoverable: the next mutation checkpoints
		// again and explicit saves stay synchronous. Ack rather than loop.
		msg.Ack()
		return
	}

	metrics.DocumentSaves.WithLabelValues("checkpoint", "ok").Inc()
	cs.logger.Info("ConsumerService", "Checkpoint written", map[string]interface{}{
		"session_id": payload.SessionId,
		"path":       payload.Path,
	})
	msg.Ack()
}

func (cs *consumerService) processProgress(msg *message.Message) {
	var payload dto.PublishProgressMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal progress", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack()
		return
	}

	cs.streamService.SendProgress(&payload)
	msg.Ack()
}
