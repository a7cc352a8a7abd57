package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/granary/backend/internal/infrastructure/config"
)

// Sender delivers a text message to a phone number.
type Sender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// SMSClient is a resty-backed SMS gateway client. The gateway speaks a
// simple JSON POST API keyed by an API key header.
type SMSClient struct {
	httpClient *resty.Client
	senderID   string
}

// NewSMSClient builds an SMS client from the gateway configuration.
func NewSMSClient(cfg config.SMSConfig) *SMSClient {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Api-Key", cfg.APIKey).
		SetTimeout(cfg.Timeout)

	return &SMSClient{
		httpClient: restyClient,
		senderID:   cfg.SenderID,
	}
}

type sendSMSRequest struct {
	SenderID string `json:"sender_id"`
	To       string `json:"to"`
	Message  string `json:"message"`
}

type sendSMSResponse struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
}

type gatewayError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SendSMS posts one message to the gateway.
func (c *SMSClient) SendSMS(ctx context.Context, to, message string) error {
	result := new(sendSMSResponse)
	apiErr := new(gatewayError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(sendSMSRequest{SenderID: c.senderID, To: to, Message: message}).
		SetResult(result).
		SetError(apiErr).
		Post("/messages")
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("send sms: gateway returned %d: %s", resp.StatusCode(), apiErr.Error.Message)
	}
	return nil
}

var _ Sender = (*SMSClient)(nil)
