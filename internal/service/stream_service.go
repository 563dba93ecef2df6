package service

import (
	"encoding/json"

	"github.com/google/uuid"

	"carepathiq-be/internal/dto"
	"carepathiq-be/internal/pkg/logger"
	"carepathiq-be/internal/websocket"
)

// IStreamService pushes live events to the clients watching a session. It
// only fans out already-produced data; nothing here mutates the session.
type IStreamService interface {
	SendFragment(sessionId uuid.UUID, operation, fragment string)
	SendProgress(message *dto.PublishProgressMessage)
}

type streamService struct {
	hub    *websocket.Hub
	logger logger.ILogger
}

func NewStreamService(hub *websocket.Hub, log logger.ILogger) IStreamService {
	return &streamService{
		hub:    hub,
		logger: log,
	}
}

func (s *streamService) SendFragment(sessionId uuid.UUID, operation, fragment string) {
	s.send(sessionId, dto.StreamEventDTO{
		Type:      "fragment",
		Operation: operation,
		Fragment:  fragment,
	})
}

func (s *streamService) SendProgress(message *dto.PublishProgressMessage) {
	s.send(message.SessionId, dto.StreamEventDTO{
		Type: "progress",
		Data: message,
	})
}

func (s *streamService) send(sessionId uuid.UUID, event dto.StreamEventDTO) {
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("StreamService", "Failed to marshal stream event", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
		return
	}
	s.hub.Send(sessionId, data)
}
