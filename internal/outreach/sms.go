package outreach

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/phone"
)

// SMSClient talks to an HTTP SMS gateway. A nil client is a disabled
// channel; SendMessage on nil is a no-op.
type SMSClient struct {
	baseURL string
	apiKey  string
	from    string
	http    *http.Client
	log     *logger.Logger
}

type smsRequest struct {
	To      string `json:"to"`
	From    string `json:"from,omitempty"`
	Message string `json:"message"`
}

type smsResponse struct {
	MessageID string `json:"messageId"`
}

func NewSMSClient(cfg config.SMSConfig, log *logger.Logger) *SMSClient {
	if cfg.GetSMSGatewayURL() == "" {
		return nil
	}

	return &SMSClient{
		baseURL: strings.TrimRight(cfg.GetSMSGatewayURL(), "/"),
		apiKey:  cfg.GetSMSGatewayKey(),
		from:    cfg.GetSMSFromNumber(),
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

// SendMessage returns the gateway's message id.
func (c *SMSClient) SendMessage(ctx context.Context, phoneNumber, message string) (string, error) {
	if c == nil {
		return "", nil
	}

	normalized := phone.NormalizeE164(phoneNumber)
	if normalized == "" {
		return "", fmt.Errorf("invalid phone number %q", phoneNumber)
	}

	body, err := json.Marshal(smsRequest{To: normalized, From: c.from, Message: message})
	if err != nil {
		return "", fmt.Errorf("marshal sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("sms request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("sms gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed smsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		// Some gateways answer 200 with an empty body; the send still
		// happened.
		parsed.MessageID = ""
	}

	c.log.Info("sms dispatched", "phone", normalized)
	return parsed.MessageID, nil
}
