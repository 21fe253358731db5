package telegram

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/pyramid-league/internal/observability"
	"github.com/riskibarqy/pyramid-league/internal/platform/logging"
	"github.com/riskibarqy/pyramid-league/internal/platform/resilience"
	"github.com/riskibarqy/pyramid-league/internal/usecase"
	"github.com/valyala/bytebufferpool"
)

const defaultBaseURL = "https://api.telegram.org"

var (
	errTelegramTransient = crerr.New("telegram transient failure")
	errTelegramRejected  = crerr.New("telegram rejected message")
)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	BotToken       string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client sends role-change messages through the Bot API sendMessage method.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
}

func NewClient(cfg ClientConfig) (*Client, error) {
	token := strings.TrimSpace(cfg.BotToken)
	if token == "" {
		return nil, crerr.New("telegram bot token is required")
	}
	baseURL, err := validateBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, crerr.Wrap(err, "invalid TELEGRAM_BASE_URL")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 5 * time.Second
	}

	breaker := resilience.NewCircuitBreaker(cfg.CircuitBreaker)
	breaker.OnStateChange(func(from, to resilience.CircuitState) {
		logger.Warn("telegram circuit breaker state changed", "from", from, "to", to)
		open := 0.0
		if to == resilience.CircuitStateOpen {
			open = 1
		}
		observability.CircuitState.WithLabelValues("telegram").Set(open)
	})

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		token:      token,
		logger:     logger,
		breaker:    breaker,
	}, nil
}

type sendMessageRequest struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// NotifyRoleChange implements usecase.Notifier.
func (c *Client) NotifyRoleChange(ctx context.Context, change usecase.RoleChange) error {
	if change.ChatID == 0 {
		return crerr.Newf("participant=%d has no telegram chat id", change.ParticipantID)
	}

	var rejected error
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		sendErr := c.sendMessage(ctx, sendMessageRequest{
			ChatID: change.ChatID,
			Text:   RenderRoleChange(change),
		})
		// Blocked bots and unknown chats are the participant's state, not an outage.
		if crerr.Is(sendErr, errTelegramRejected) {
			rejected = sendErr
			return nil
		}
		return sendErr
	})
	switch {
	case crerr.Is(err, resilience.ErrCircuitOpen):
		return fmt.Errorf("%w: telegram is temporarily unavailable", usecase.ErrDependencyUnavailable)
	case err != nil:
		return err
	case rejected != nil:
		c.logger.WarnContext(ctx, "telegram rejected role change message", "participant_id", change.ParticipantID, "error", rejected)
		return rejected
	default:
		return nil
	}
}

func (c *Client) sendMessage(ctx context.Context, payload sendMessageRequest) error {
	body, err := sonic.Marshal(payload)
	if err != nil {
		return crerr.Wrap(err, "marshal sendMessage payload")
	}

	endpoint := c.baseURL + "/bot" + c.token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return crerr.Wrap(err, "create telegram request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: send request: %s", errTelegramTransient, c.redact(err.Error()))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("%w: read response body: %v", errTelegramTransient, err)
	}

	var decoded apiResponse
	if len(raw) > 0 {
		_ = sonic.Unmarshal(raw, &decoded)
	}
	if resp.StatusCode/100 == 2 && decoded.OK {
		return nil
	}

	desc := strings.TrimSpace(decoded.Description)
	if desc == "" {
		desc = abbreviate(string(raw), 256)
	}
	if isRetryableStatus(resp.StatusCode) {
		return fmt.Errorf("%w: status=%d retry_after=%d description=%s", errTelegramTransient, resp.StatusCode, decoded.Parameters.RetryAfter, desc)
	}
	return fmt.Errorf("%w: status=%d description=%s", errTelegramRejected, resp.StatusCode, desc)
}

// redact strips the bot token from transport errors, which embed the request URL.
func (c *Client) redact(text string) string {
	return strings.ReplaceAll(text, c.token, "<redacted>")
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func abbreviate(text string, limit int) string {
	text = strings.TrimSpace(text)
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}

func validateBaseURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return defaultBaseURL, nil
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}
	return strings.TrimRight(candidate, "/"), nil
}

// RenderRoleChange builds the plain-text message for one role change.
func RenderRoleChange(change usecase.RoleChange) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	name := strings.TrimSpace(change.Name)
	if name == "" {
		name = "there"
	}
	_, _ = buf.WriteString("Hi ")
	_, _ = buf.WriteString(name)
	_, _ = buf.WriteString(",\n\n")

	season := strings.TrimSpace(change.SeasonName)
	if season != "" {
		_, _ = buf.WriteString("Season ")
		_, _ = buf.WriteString(season)
		_, _ = buf.WriteString(" has closed. ")
	}

	switch {
	case change.From == change.To:
		_, _ = buf.WriteString("You keep your role as ")
		_, _ = buf.WriteString(string(change.To))
		_, _ = buf.WriteString(".")
	case change.To.Tier() < change.From.Tier():
		_, _ = buf.WriteString("Congratulations, you have been promoted from ")
		_, _ = buf.WriteString(string(change.From))
		_, _ = buf.WriteString(" to ")
		_, _ = buf.WriteString(string(change.To))
		_, _ = buf.WriteString("!")
	default:
		_, _ = buf.WriteString("Your role for the next season is ")
		_, _ = buf.WriteString(string(change.To))
		_, _ = buf.WriteString(" (previously ")
		_, _ = buf.WriteString(string(change.From))
		_, _ = buf.WriteString(").")
	}
	_, _ = buf.WriteString("\n\nKeep logging your hours to climb the pyramid.")

	return buf.String()
}
