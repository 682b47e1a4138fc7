package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/trinavo/tenancy/internal/core/domain"
	"github.com/trinavo/tenancy/internal/core/ports"
)

const defaultWebhookTimeout = 10 * time.Second

// WebhookNotifier delivers the welcome notification to a configured HTTP
// endpoint (typically a mail bridge). Each request is signed with
// HMAC-SHA256 so the receiver can verify authenticity before handling the
// credentials it carries.
type WebhookNotifier struct {
	url    string
	secret []byte
	client *http.Client
}

var _ ports.WelcomeNotifier = (*WebhookNotifier)(nil)

// NewWebhookNotifier returns a WebhookNotifier that POSTs welcome payloads
// to url and signs them with secret. A zero or negative timeout falls back
// to defaultWebhookTimeout.
func NewWebhookNotifier(url, secret string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	return &WebhookNotifier{
		url:    url,
		secret: []byte(secret),
		client: &http.Client{Timeout: timeout},
	}
}

type welcomePayload struct {
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	LoginURL string `json:"login_url"`
}

// SendWelcome marshals the payload, signs the body, and POSTs it. Headers
// set on every request:
//
//	Content-Type:        application/json
//	X-Tenancy-Event:     tenant.welcome
//	X-Tenancy-Tenant:    <slug>
//	X-Hub-Signature-256: sha256=<hex-encoded HMAC-SHA256>
func (n *WebhookNotifier) SendWelcome(ctx context.Context, user domain.User, password string, res domain.RuntimeResourceSet) error {
	payload, err := json.Marshal(welcomePayload{
		Slug:     res.Slug,
		Name:     user.Name,
		Email:    user.Email,
		Password: password,
		LoginURL: res.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("marshal welcome payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenancy-Event", "tenant.welcome")
	req.Header.Set("X-Tenancy-Tenant", res.Slug)
	req.Header.Set("X-Hub-Signature-256", "sha256="+n.sign(payload))

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send welcome webhook: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("welcome webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func (n *WebhookNotifier) sign(payload []byte) string {
	mac := hmac.New(sha256.New, n.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
