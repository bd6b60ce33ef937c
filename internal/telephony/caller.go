package telephony

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/pitchpanel/voice-panel/pkg/logging"
)

var callerTracer = otel.Tracer("pitchpanel.internal.telephony.caller")

// ErrCallInitiationFailed wraps gateway failures while originating a call.
var ErrCallInitiationFailed = errors.New("telephony: call initiation failed")

// Caller originates outbound calls through Twilio's REST API. The placed call
// rings the destination and, once answered, Twilio fetches call instructions
// from our incoming-call webhook, which runs the normal interview flow.
type Caller struct {
	accountSID string
	authToken  string
	from       string
	webhookURL string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewCaller builds a caller with sane defaults. webhookURL is the absolute
// public URL of the incoming-call webhook.
func NewCaller(accountSID, authToken, from, webhookURL string, logger *logging.Logger) *Caller {
	if logger == nil {
		logger = logging.Default()
	}
	return &Caller{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		webhookURL: webhookURL,
		baseURL:    "https://api.twilio.com",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Originate places a call to the given number and returns the gateway's call
// ID. No retry: a duplicate attempt would ring the founder twice.
func (c *Caller) Originate(ctx context.Context, toNumber string) (string, error) {
	if c.accountSID == "" || c.authToken == "" {
		return "", fmt.Errorf("%w: twilio credentials missing", ErrCallInitiationFailed)
	}
	if strings.TrimSpace(toNumber) == "" {
		return "", fmt.Errorf("%w: to number required", ErrCallInitiationFailed)
	}

	ctx, span := callerTracer.Start(ctx, "telephony.originate")
	defer span.End()
	span.SetAttributes(attribute.String("pitchpanel.to", toNumber))

	payload := url.Values{}
	payload.Set("To", toNumber)
	payload.Set("From", c.from)
	payload.Set("Url", c.webhookURL)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCallInitiationFailed, err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("%w: %v", ErrCallInitiationFailed, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("twilio call origination rejected",
			"status", resp.StatusCode, "to", toNumber)
		return "", fmt.Errorf("%w: status %d", ErrCallInitiationFailed, resp.StatusCode)
	}

	var parsed struct {
		SID string `json:"sid"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.SID == "" {
		return "", fmt.Errorf("%w: malformed gateway response", ErrCallInitiationFailed)
	}

	c.logger.Info("outbound call originated", "call_sid", parsed.SID, "to", toNumber)
	return parsed.SID, nil
}

// SetBaseURL points the caller at a different API host, used by tests.
func (c *Caller) SetBaseURL(u string) {
	c.baseURL = strings.TrimRight(u, "/")
}
