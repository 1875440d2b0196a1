package twilio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/wellspring/maternal-backend/internal/logger"
	"github.com/wellspring/maternal-backend/internal/utils"
)

var ErrDisabled = errors.New("twilio: no credentials configured")

type Client interface {
	SendSMS(ctx context.Context, to, body string) error
}

type Config struct {
	AccountSID string
	AuthToken  string
	BaseURL    string
	From       string
	Timeout    time.Duration
}

func ConfigFromEnv(log *logger.Logger) Config {
	timeoutSec := utils.GetEnvAsInt("TWILIO_TIMEOUT_SECONDS", 30, log)
	return Config{
		AccountSID: strings.TrimSpace(os.Getenv("TWILIO_ACCOUNT_SID")),
		AuthToken:  strings.TrimSpace(os.Getenv("TWILIO_AUTH_TOKEN")),
		BaseURL:    strings.TrimSpace(os.Getenv("TWILIO_BASE_URL")),
		From:       strings.TrimSpace(os.Getenv("TWILIO_FROM_NUMBER")),
		Timeout:    time.Duration(timeoutSec) * time.Second,
	}
}

type client struct {
	cfg  Config
	http *http.Client
	log  *logger.Logger
}

func New(log *logger.Logger, cfg Config) Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.twilio.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log.With("client", "twilio"),
	}
}

func NewFromEnv(log *logger.Logger) Client {
	return New(log, ConfigFromEnv(log))
}

func (c *client) SendSMS(ctx context.Context, to, body string) error {
	if c.cfg.AccountSID == "" || c.cfg.AuthToken == "" {
		return ErrDisabled
	}
	if strings.TrimSpace(to) == "" {
		return errors.New("twilio: empty recipient")
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.cfg.From)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.cfg.BaseURL, c.cfg.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("twilio: build request: %w", err)
	}
	req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("twilio: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		var apiResp struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &apiResp)
		if apiResp.Message != "" {
			return fmt.Errorf("twilio: status %d: %s", resp.StatusCode, apiResp.Message)
		}
		return fmt.Errorf("twilio: status %d", resp.StatusCode)
	}
	return nil
}
