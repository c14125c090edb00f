package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClient_Auth(t *testing.T) {
	tests := []struct {
		name   string
		auth   Auth
		header string
		want   string
	}{
		{"bearer", Bearer("tok"), "Authorization", "Bearer tok"},
		{"basic with empty password", Basic("key", ""), "Authorization", "Basic a2V5Og=="},
		{"api key", APIKey("X-Goog-Api-Key", "secret"), "X-Goog-Api-Key", "secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get(tt.header)
				fmt.Fprint(w, `{}`)
			}))
			defer server.Close()

			c := New(server.URL, WithAuth(tt.auth))
			if err := c.GetJSON(context.Background(), "/x", nil); err != nil {
				t.Fatalf("GetJSON() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("%s = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestClient_GetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/agents" || r.URL.Query().Get("limit") != "100" {
			t.Errorf("unexpected request %s", r.URL)
		}
		if r.Header.Get("X-Extra") != "1" {
			t.Errorf("static header missing")
		}
		fmt.Fprint(w, `{"agents":[{"id":"a1"}]}`)
	}))
	defer server.Close()

	var out struct {
		Agents []struct {
			ID string `json:"id"`
		} `json:"agents"`
	}
	c := New(server.URL+"/", WithHeader("X-Extra", "1"))
	if err := c.GetJSON(context.Background(), "/agents?limit=100", &out); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if len(out.Agents) != 1 || out.Agents[0].ID != "a1" {
		t.Errorf("GetJSON() decoded %+v", out)
	}
}

func TestClient_PostJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		fmt.Fprintf(w, `{"echo":%q}`, in["prompt"])
	}))
	defer server.Close()

	var out struct {
		Echo string `json:"echo"`
	}
	err := New(server.URL).PostJSON(context.Background(), "/sessions", map[string]string{"prompt": "hi"}, &out)
	if err != nil {
		t.Fatalf("PostJSON() error = %v", err)
	}
	if out.Echo != "hi" {
		t.Errorf("PostJSON() echo = %q", out.Echo)
	}
}

func TestClient_EmptyResponseBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var out map[string]any
	if err := New(server.URL).PostJSON(context.Background(), "/stop", nil, &out); err != nil {
		t.Errorf("PostJSON() with empty body error = %v", err)
	}
}

func TestClient_PutTextAndDelete(t *testing.T) {
	var gotBody, gotType, gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
	}))
	defer server.Close()

	c := New(server.URL)
	if err := c.PutText(context.Background(), "/values/k", "payload"); err != nil {
		t.Fatalf("PutText() error = %v", err)
	}
	if gotMethod != http.MethodPut || gotType != "text/plain" || gotBody != "payload" {
		t.Errorf("PutText() sent %s %q %q", gotMethod, gotType, gotBody)
	}

	if err := c.Delete(context.Background(), "/values/k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Errorf("Delete() method = %s", gotMethod)
	}
}

func TestClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.Error(w, "not here", http.StatusNotFound)
		default:
			http.Error(w, "bad key", http.StatusUnauthorized)
		}
	}))
	defer server.Close()

	c := New(server.URL)

	_, err := c.GetText(context.Background(), "/missing")
	if !IsNotFound(err) {
		t.Errorf("IsNotFound(%v) = false", err)
	}

	err = c.GetJSON(context.Background(), "/auth", nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized || !strings.Contains(apiErr.Body, "bad key") {
		t.Errorf("APIError = %+v", apiErr)
	}
	if IsNotFound(err) {
		t.Error("IsNotFound() should be false for 401")
	}
	if !strings.HasPrefix(apiErr.Error(), "API error: 401") {
		t.Errorf("Error() = %q", apiErr.Error())
	}
}

func TestClient_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{not json`)
	}))
	defer server.Close()

	var out map[string]any
	err := New(server.URL).GetJSON(context.Background(), "/", &out)
	if err == nil || !strings.Contains(err.Error(), "failed to parse response") {
		t.Errorf("GetJSON() error = %v", err)
	}
}

func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	err := New(server.URL, WithTimeout(20*time.Millisecond)).GetJSON(context.Background(), "/", nil)
	if err == nil {
		t.Error("GetJSON() should fail after the client timeout")
	}
}

func TestClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := New(server.URL).GetJSON(ctx, "/", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("GetJSON() error = %v, want context.Canceled", err)
	}
}
