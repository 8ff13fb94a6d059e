package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-ops-scorecard/internal/domain"
)

func TestDeliverPostsJSONToTypeEndpoint(t *testing.T) {
	var got domain.GuidePayload
	var path, contentType, requestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		contentType = r.Header.Get("Content-Type")
		requestID = r.Header.Get("X-Request-ID")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := NewClient(Endpoints{Lead: srv.URL + "/lead", Guide: srv.URL + "/guide"}, time.Second)
	payload := domain.GuidePayload{
		RequestType:     domain.RequestImplementationGuide,
		Lead:            domain.GuideContact{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
		BusinessProcess: "manual invoicing",
	}
	if err := client.Deliver(context.Background(), domain.RequestImplementationGuide, payload); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	if path != "/guide" || contentType != "application/json" || requestID == "" {
		t.Fatalf("unexpected request path=%s content-type=%s id=%q", path, contentType, requestID)
	}
	if got.Lead.LastName != "Lovelace" || got.RequestType != domain.RequestImplementationGuide {
		t.Fatalf("unexpected body %+v", got)
	}
}

func TestDeliverFailsOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(Endpoints{Lead: srv.URL}, time.Second)
	if err := client.Deliver(context.Background(), domain.RequestFreeAssessment, map[string]string{"a": "b"}); err == nil {
		t.Fatalf("expected error for 502")
	}
}

func TestDeliverWithoutEndpoint(t *testing.T) {
	client := NewClient(Endpoints{}, time.Second)
	err := client.Deliver(context.Background(), domain.RequestConsultation, struct{}{})
	if !errors.Is(err, ErrNoEndpoint) {
		t.Fatalf("expected missing endpoint error, got %v", err)
	}
}

func TestDeliverHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	client := NewClient(Endpoints{Lead: srv.URL}, time.Minute)
	if err := client.Deliver(ctx, domain.RequestFreeAssessment, struct{}{}); err == nil {
		t.Fatalf("expected context deadline error")
	}
}
