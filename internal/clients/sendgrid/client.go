package sendgrid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/wellspring/maternal-backend/internal/logger"
	"github.com/wellspring/maternal-backend/internal/utils"
)

var ErrDisabled = errors.New("sendgrid: no api key configured")

type Client interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type Config struct {
	APIKey    string
	BaseURL   string
	FromEmail string
	FromName  string
	Timeout   time.Duration
}

func ConfigFromEnv(log *logger.Logger) Config {
	timeoutSec := utils.GetEnvAsInt("SENDGRID_TIMEOUT_SECONDS", 30, log)
	return Config{
		APIKey:    strings.TrimSpace(os.Getenv("SENDGRID_API_KEY")),
		BaseURL:   strings.TrimSpace(os.Getenv("SENDGRID_BASE_URL")),
		FromEmail: strings.TrimSpace(os.Getenv("SENDGRID_FROM_EMAIL")),
		FromName:  strings.TrimSpace(os.Getenv("SENDGRID_FROM_NAME")),
		Timeout:   time.Duration(timeoutSec) * time.Second,
	}
}

type client struct {
	cfg  Config
	http *http.Client
	log  *logger.Logger
}

func New(log *logger.Logger, cfg Config) Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.sendgrid.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log.With("client", "sendgrid"),
	}
}

func NewFromEnv(log *logger.Logger) Client {
	return New(log, ConfigFromEnv(log))
}

type mailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type mailPayload struct {
	Personalizations []struct {
		To []mailAddress `json:"to"`
	} `json:"personalizations"`
	From    mailAddress `json:"from"`
	Subject string      `json:"subject"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
}

func (c *client) Send(ctx context.Context, to, subject, htmlBody string) error {
	if c.cfg.APIKey == "" {
		return ErrDisabled
	}
	if strings.TrimSpace(to) == "" {
		return errors.New("sendgrid: empty recipient")
	}

	var payload mailPayload
	payload.Personalizations = make([]struct {
		To []mailAddress `json:"to"`
	}, 1)
	payload.Personalizations[0].To = []mailAddress{{Email: to}}
	payload.From = mailAddress{Email: c.cfg.FromEmail, Name: c.cfg.FromName}
	payload.Subject = subject
	payload.Content = []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}{{Type: "text/html", Value: htmlBody}}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("sendgrid: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("sendgrid: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sendgrid: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return nil
}
