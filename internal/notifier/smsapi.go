package notifier

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"CardWatch/internal/model"
)

// Sender delivers a one-line text message to a phone number.
type Sender interface {
	Send(ctx context.Context, to, message string) error
}

// SMSAPINotifier sends messages via the SMSAPI HTTP gateway.
type SMSAPINotifier struct {
	Username string
	Password string
	From     string
	Endpoint string
	Client   *http.Client
	Logger   *zap.Logger
}

// NewSMSAPINotifier creates a notifier with optional proxy support.
func NewSMSAPINotifier(endpoint, username, password, from, proxyURL string, logger *zap.Logger) *SMSAPINotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &SMSAPINotifier{
		Username: username,
		Password: password,
		From:     from,
		Endpoint: endpoint,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		Logger: logger,
	}
}

// Send posts message to the gateway and interprets its plain-text status line.
func (n *SMSAPINotifier) Send(ctx context.Context, to, message string) error {
	if n.Username == "" {
		return &model.ConfigurationError{Setting: "SMSAPI_USERNAME"}
	}
	if n.Password == "" {
		return &model.ConfigurationError{Setting: "SMSAPI_PASSWORD"}
	}

	form := url.Values{
		"username": {n.Username},
		"password": {n.Password},
		"to":       {to},
		"message":  {message},
		"from":     {n.From},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, "build sms request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.Client.Do(req)
	if err != nil {
		return &model.TransportError{Op: "send sms", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &model.TransportError{Op: "read sms response", StatusCode: resp.StatusCode, Err: err}
	}

	status := strings.TrimSpace(string(body))
	if err := parseStatus(status); err != nil {
		return err
	}
	n.Logger.Info("sms sent", zap.String("to", to), zap.String("status", status))
	return nil
}

// parseStatus maps an "OK:..." / "ERROR:<code>" reply to an error.
func parseStatus(status string) error {
	switch {
	case strings.HasPrefix(status, "OK:"):
		return nil
	case strings.HasPrefix(status, "ERROR:"):
		return &model.SmsGatewayError{Code: strings.TrimSpace(strings.TrimPrefix(status, "ERROR:"))}
	default:
		return &model.UnexpectedResponseError{Body: status}
	}
}
