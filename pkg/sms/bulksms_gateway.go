package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"
)

// BulkGateway implements SMS sending via the BulkSMS JSON API
type BulkGateway struct {
	apiURL   string
	username string
	password string
	sender   string
	client   *http.Client

	// Token management
	token       string
	tokenMutex  sync.RWMutex
	tokenExpiry time.Time
}

// BulkConfig holds configuration for the BulkSMS gateway
type BulkConfig struct {
	APIURL   string
	Username string
	Password string
	Sender   string
}

// NewBulkGateway creates a new BulkSMS gateway client
func NewBulkGateway(config BulkConfig) *BulkGateway {
	return &BulkGateway{
		apiURL:   config.APIURL,
		username: config.Username,
		password: config.Password,
		sender:   config.Sender,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetName returns the gateway implementation name
func (g *BulkGateway) GetName() string {
	return "bulksms"
}

type tokenResponse struct {
	Token      string `json:"token"`
	Expiration int    `json:"expiration"` // seconds
	ErrCode    string `json:"errCode"`
	Detail     string `json:"detail"`
}

type sendRequest struct {
	To      []string `json:"to"`
	From    string   `json:"from,omitempty"`
	Body    string   `json:"body"`
	BatchID int64    `json:"batch_id"`
}

type sendResponse struct {
	ID      int64  `json:"id"`
	Status  string `json:"status"`
	ErrCode string `json:"errCode"`
	Detail  string `json:"detail"`
}

// fetchToken logs in and stores a fresh API token
func (g *BulkGateway) fetchToken(ctx context.Context) error {
	payload, err := json.Marshal(map[string]string{
		"username": g.username,
		"password": g.password,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal login request: %w", err)
	}

	url := fmt.Sprintf("%s/auth/token", g.apiURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send login request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read login response: %w", err)
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return fmt.Errorf("failed to parse login response: %w", err)
	}

	if tokenResp.Token == "" {
		return fmt.Errorf("login failed: %s (error code: %s)", tokenResp.Detail, tokenResp.ErrCode)
	}

	g.tokenMutex.Lock()
	g.token = tokenResp.Token
	g.tokenExpiry = time.Now().Add(time.Duration(tokenResp.Expiration) * time.Second)
	g.tokenMutex.Unlock()

	return nil
}

// isTokenValid checks if the current token is still valid.
// A token is considered stale 5 minutes before its actual expiry.
func (g *BulkGateway) isTokenValid() bool {
	g.tokenMutex.RLock()
	defer g.tokenMutex.RUnlock()

	if g.token == "" {
		return false
	}
	return time.Now().Before(g.tokenExpiry.Add(-5 * time.Minute))
}

func (g *BulkGateway) ensureValidToken(ctx context.Context) error {
	if g.isTokenValid() {
		return nil
	}
	return g.fetchToken(ctx)
}

var nonDigits = regexp.MustCompile(`[^0-9]`)

// FormatPhoneForGateway converts a South African mobile number to the
// international form the gateway expects.
// Input: "0821234567" or "27821234567" or "+27821234567"
// Output: "27821234567"
func FormatPhoneForGateway(phone string) (string, error) {
	phone = nonDigits.ReplaceAllString(phone, "")

	if strings.HasPrefix(phone, "0") && len(phone) == 10 {
		phone = "27" + phone[1:]
	}

	if !strings.HasPrefix(phone, "27") || len(phone) != 11 {
		return "", fmt.Errorf("invalid South African mobile number: %q", phone)
	}

	return phone, nil
}

// SendMessage sends a text message to a single phone number
func (g *BulkGateway) SendMessage(ctx context.Context, phone, message string) (int64, error) {
	if err := g.ensureValidToken(ctx); err != nil {
		return 0, fmt.Errorf("failed to get access token: %w", err)
	}

	formattedPhone, err := FormatPhoneForGateway(phone)
	if err != nil {
		return 0, fmt.Errorf("failed to format phone number: %w", err)
	}

	// Batch ID doubles as an idempotency key on the gateway side
	batchID := time.Now().UnixMicro()

	payload, err := json.Marshal(sendRequest{
		To:      []string{formattedPhone},
		From:    g.sender,
		Body:    message,
		BatchID: batchID,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal send request: %w", err)
	}

	url := fmt.Sprintf("%s/messages", g.apiURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to create send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	g.tokenMutex.RLock()
	req.Header.Set("Authorization", "Bearer "+g.token)
	g.tokenMutex.RUnlock()

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send SMS request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read SMS response: %w", err)
	}

	var sendResp sendResponse
	if err := json.Unmarshal(body, &sendResp); err != nil {
		return 0, fmt.Errorf("failed to parse SMS response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("SMS send failed with status %d: %s (error code: %s)", resp.StatusCode, sendResp.Detail, sendResp.ErrCode)
	}

	return batchID, nil
}
