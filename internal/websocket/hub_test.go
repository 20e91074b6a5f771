package websocket

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"docchat-be/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func TestHubBroadcastReachesRegisteredClients(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	go hub.Run()

	client := &Client{Hub: hub, Send: make(chan []byte, 8)}
	hub.register <- client

	// Registration completes asynchronously in the Run loop; keep
	// broadcasting until a frame lands.
	var data []byte
	require.Eventually(t, func() bool {
		hub.Broadcast(dto.PublishSessionActivityMessage{Activity: "SESSION_CREATED", SessionId: "s1"})
		select {
		case data = <-client.Send:
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	var frame struct {
		Type string                            `json:"type"`
		Data dto.PublishSessionActivityMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &frame))
	assert.Equal(t, "session_activity", frame.Type)
	assert.Equal(t, "SESSION_CREATED", frame.Data.Activity)
	assert.Equal(t, "s1", frame.Data.SessionId)
}

func TestHubConcurrentRegisterAndBroadcast(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	go hub.Run()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.register <- &Client{Hub: hub, Send: make(chan []byte, 64)}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Broadcast(dto.PublishSessionActivityMessage{Activity: "SESSION_UPDATED"})
		}()
	}
	wg.Wait()
}
