package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/yeremiapane/qrdine/utils"
)

// SelfServiceService talks to the remote kiosk-session backend. Validation
// gates the binding; the usage mark is best effort and its errors are only
// logged.
type SelfServiceService struct {
	BaseURL    string
	httpClient *http.Client
}

func NewSelfServiceService() *SelfServiceService {
	return &SelfServiceService{
		BaseURL: os.Getenv("SELF_SERVICE_BASE_URL"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type validateResponse struct {
	Success bool `json:"success"`
}

// ValidateSession asks the remote backend whether this kiosk session id is
// real and unconsumed. Any transport or decode problem counts as invalid
// (fail-closed).
func (ss *SelfServiceService) ValidateSession(sessionID string) (bool, error) {
	if ss.BaseURL == "" {
		return false, fmt.Errorf("SELF_SERVICE_BASE_URL is not configured")
	}

	url := fmt.Sprintf("%s/self-service/sessions/%s/validate", ss.BaseURL, sessionID)
	resp, err := ss.httpClient.Get(url)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("session validation returned status %d", resp.StatusCode)
	}

	var body validateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, err
	}
	return body.Success, nil
}

// MarkSessionUsed reports that the session was consumed by this browser.
func (ss *SelfServiceService) MarkSessionUsed(sessionID, endUserID, ip, userAgent string) error {
	if ss.BaseURL == "" {
		return fmt.Errorf("SELF_SERVICE_BASE_URL is not configured")
	}

	payload, err := json.Marshal(map[string]string{
		"endUserId": endUserID,
		"ip":        ip,
		"userAgent": userAgent,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/self-service/sessions/%s/used", ss.BaseURL, sessionID)
	resp, err := ss.httpClient.Post(url, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("mark used returned status %d", resp.StatusCode)
	}

	utils.InfoLogger.Printf("Self-service session %s marked used", sessionID)
	return nil
}
