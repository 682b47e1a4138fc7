package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/trinavo/tenancy/internal/core/domain"
)

func welcomeFixture() (domain.User, domain.RuntimeResourceSet) {
	user := domain.User{ID: "u-1", Name: "Jane", Email: "jane@x.com"}
	res := domain.DeriveResources("acme", "", domain.ResourceRoots{
		StorageRoot: "/srv/storage",
		LogRoot:     "/srv/logs",
		MainDomain:  "example.com",
	})
	return user, res
}

func TestWebhookNotifierSuccess(t *testing.T) {
	var gotBody []byte
	var gotHeaders http.Header

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	secret := "test-secret"
	notifier := NewWebhookNotifier(srv.URL, secret, 5*time.Second)
	user, res := welcomeFixture()

	if err := notifier.SendWelcome(context.Background(), user, "s3cretpass12", res); err != nil {
		t.Fatalf("send welcome: %v", err)
	}

	if ct := gotHeaders.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if ev := gotHeaders.Get("X-Tenancy-Event"); ev != "tenant.welcome" {
		t.Errorf("X-Tenancy-Event = %q", ev)
	}
	if tn := gotHeaders.Get("X-Tenancy-Tenant"); tn != "acme" {
		t.Errorf("X-Tenancy-Tenant = %q", tn)
	}

	sig := gotHeaders.Get("X-Hub-Signature-256")
	if !strings.HasPrefix(sig, "sha256=") {
		t.Fatalf("signature = %q", sig)
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(gotBody)
	if want := "sha256=" + hex.EncodeToString(mac.Sum(nil)); sig != want {
		t.Errorf("signature = %q, want %q", sig, want)
	}

	var payload map[string]string
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload["email"] != "jane@x.com" || payload["password"] != "s3cretpass12" {
		t.Errorf("payload = %v", payload)
	}
	if payload["login_url"] != "https://acme.example.com" {
		t.Errorf("login_url = %q", payload["login_url"])
	}
}

func TestWebhookNotifierNon2xxFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	notifier := NewWebhookNotifier(srv.URL, "secret", time.Second)
	user, res := welcomeFixture()

	if err := notifier.SendWelcome(context.Background(), user, "pass", res); err == nil {
		t.Fatal("expected error on non-2xx response")
	}
}
