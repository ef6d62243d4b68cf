// services/notification_client.go
package services

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// Notifier informs users about balance-affecting events. Fire-and-forget:
// a failed notification never blocks or rolls back a ledger write.
type Notifier interface {
	Notify(userID, kind string, payload map[string]interface{})
}

// NotificationClient posts events to the notification dispatcher service.
type NotificationClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewNotificationClient(baseURL, token string) *NotificationClient {
	return &NotificationClient{
		BaseURL: baseURL,
		Token:   token,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *NotificationClient) Notify(userID, kind string, payload map[string]interface{}) {
	go func() {
		body := map[string]interface{}{
			"user_id": userID,
			"kind":    kind,
			"payload": payload,
		}
		jsonData, _ := json.Marshal(body)

		req, err := http.NewRequest("POST", c.BaseURL+"/notifications", bytes.NewBuffer(jsonData))
		if err != nil {
			log.Printf("❌ Failed to build notification request: %v", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Service-Token", c.Token)

		resp, err := c.Client.Do(req)
		if err != nil {
			log.Printf("❌ Failed to deliver %s notification for user %s: %v", kind, userID, err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			log.Printf("⚠️  Notification dispatcher returned %d for %s/%s", resp.StatusCode, userID, kind)
		}
	}()
}

// NoopNotifier is used when no dispatcher is configured.
type NoopNotifier struct{}

func (NoopNotifier) Notify(userID, kind string, payload map[string]interface{}) {}
