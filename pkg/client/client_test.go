package client

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/tornsdk/torn-api-client/internal/testutil"
	"github.com/tornsdk/torn-api-client/pkg/keypool"
	"github.com/tornsdk/torn-api-client/pkg/params"
	"github.com/tornsdk/torn-api-client/pkg/ratelimit"
)

func newTestClient(t *testing.T, mock *testutil.MockTorn, mutate func(cfg *Config)) *Client {
	t.Helper()

	cfg := DefaultConfig("test-key-12345")
	cfg.BaseURL = mock.URL()
	if mutate != nil {
		mutate(&cfg)
	}

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name:    "no keys",
			cfg:     Config{},
			wantErr: keypool.ErrNoCredentials,
		},
		{
			name: "single key",
			cfg:  DefaultConfig("test-key"),
		},
		{
			name: "multiple keys",
			cfg:  DefaultConfig("key1", "key2", "key3"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("New error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			if c.KeyCount() != len(tt.cfg.APIKeys) {
				t.Errorf("KeyCount = %d, want %d", c.KeyCount(), len(tt.cfg.APIKeys))
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	c, err := New(Config{APIKeys: []string{"test-key"}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if c.BaseURL() != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", c.BaseURL(), DefaultBaseURL)
	}
	if c.config.Mode != ratelimit.ModeAutoDelay {
		t.Errorf("Mode = %q, want auto_delay", c.config.Mode)
	}
	if c.config.Balancing != keypool.RoundRobin {
		t.Errorf("Balancing = %q, want round_robin", c.config.Balancing)
	}
}

func TestGet_Success(t *testing.T) {
	mock := testutil.NewMockTorn()
	defer mock.Close()
	mock.RespondJSON("/user/basic", `{"id":1,"name":"TestUser","level":15}`)

	c := newTestClient(t, mock, nil)

	var out struct {
		ID    int    `json:"id"`
		Name  string `json:"name"`
		Level int    `json:"level"`
	}
	if err := c.Get(context.Background(), "/user/basic", nil, &out); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if out.Name != "TestUser" || out.Level != 15 {
		t.Errorf("decoded = %+v", out)
	}
}

func TestGet_AuthorizationHeader(t *testing.T) {
	mock := testutil.NewMockTorn()
	defer mock.Close()

	c := newTestClient(t, mock, nil)

	var out map[string]any
	if err := c.Get(context.Background(), "/user", nil, &out); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if got := mock.AuthHeader(); got != "ApiKey test-key-12345" {
		t.Errorf("Authorization = %q, want %q", got, "ApiKey test-key-12345")
	}
}

func TestGet_StaticHeaders(t *testing.T) {
	mock := testutil.NewMockTorn()
	defer mock.Close()

	var gotHeader string
	mock.Handle("/user", func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Custom")
		w.Write([]byte(`{}`))
	})

	c := newTestClient(t, mock, func(cfg *Config) {
		cfg.Headers = map[string]string{"X-Custom": "value"}
	})

	var out map[string]any
	if err := c.Get(context.Background(), "/user", nil, &out); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if gotHeader != "value" {
		t.Errorf("X-Custom = %q, want value", gotHeader)
	}
}

func TestGet_ReservedParamsStripped(t *testing.T) {
	mock := testutil.NewMockTorn()
	defer mock.Close()

	c := newTestClient(t, mock, func(cfg *Config) {
		cfg.Comment = "my-app"
	})

	q := params.Params{}.Add("key", "x").Add("comment", "y").Add("id", "5")
	var out map[string]any
	if err := c.Get(context.Background(), "/user", q, &out); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	query := mock.Query()
	if query != "id=5&comment=my-app" {
		t.Errorf("query = %q, want id=5&comment=my-app", query)
	}
	if strings.Contains(query, "key=") {
		t.Error("caller-supplied key leaked into the query string")
	}
}

func TestGet_NoCommentConfigured(t *testing.T) {
	mock := testutil.NewMockTorn()
	defer mock.Close()

	c := newTestClient(t, mock, nil)

	q := params.Params{}.Add("comment", "y").Add("id", "5")
	var out map[string]any
	if err := c.Get(context.Background(), "/user", q, &out); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if got := mock.Query(); got != "id=5" {
		t.Errorf("query = %q, want id=5", got)
	}
}

func TestGet_APIError(t *testing.T) {
	mock := testutil.NewMockTorn()
	defer mock.Close()
	mock.RespondAPIError("/user", 2, "Incorrect key")

	c := newTestClient(t, mock, nil)

	var out map[string]any
	err := c.Get(context.Background(), "/user", nil, &out)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Get error = %v, want *APIError", err)
	}
	if apiErr.Code != 2 || apiErr.Message != "Incorrect key" {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestGet_APIErrorPrecedesDecode(t *testing.T) {
	mock := testutil.NewMockTorn()
	defer mock.Close()

	// The envelope body would also decode cleanly into the permissive
	// target type; the envelope must still win.
	mock.RespondAPIError("/user", 6, "Incorrect ID")

	c := newTestClient(t, mock, nil)

	var out map[string]any
	err := c.Get(context.Background(), "/user", nil, &out)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Get error = %v, want *APIError", err)
	}
	if apiErr.Code != 6 {
		t.Errorf("Code = %d, want 6", apiErr.Code)
	}
}

func TestGet_APIErrorDoesNotRecordUsage(t *testing.T) {
	mock := testutil.NewMockTorn()
	defer mock.Close()
	mock.RespondAPIError("/user", 5, "Too many requests")

	c := newTestClient(t, mock, nil)

	var out map[string]any
	for i := 0; i < 3; i++ {
		c.Get(context.Background(), "/user", nil, &out)
	}

	for masked, usage := range c.RateLimitSnapshot() {
		if usage.Used != 0 {
			t.Errorf("key %s has %d recorded requests after API rejections, want 0", masked, usage.Used)
		}
	}
}

func TestGet_RecordsUsageOnSuccess(t *testing.T) {
	mock := testutil.NewMockTorn()
	defer mock.Close()
	mock.RespondJSON("/user", `{"id":1}`)

	c := newTestClient(t, mock, nil)

	var out map[string]any
	for i := 0; i < 3; i++ {
		if err := c.Get(context.Background(), "/user", nil, &out); err != nil {
			t.Fatalf("Get failed: %v", err)
		}
	}

	usage, ok := c.RateLimitSnapshot()["test-..."]
	if !ok {
		t.Fatalf("snapshot missing masked key, got %v", c.RateLimitSnapshot())
	}
	if usage.Used != 3 {
		t.Errorf("Used = %d, want 3", usage.Used)
	}
}

func TestGet_HTTPStatusError(t *testing.T) {
	mock := testutil.NewMockTorn()
	defer mock.Close()
	mock.RespondStatus("/user", http.StatusInternalServerError)

	c := newTestClient(t, mock, nil)

	var out map[string]any
	err := c.Get(context.Background(), "/user", nil, &out)

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Get error = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", statusErr.StatusCode)
	}
}

func TestGet_DecodeError(t *testing.T) {
	mock := testutil.NewMockTorn()
	defer mock.Close()
	mock.RespondJSON("/user", `{"id":"not-a-number"}`)

	c := newTestClient(t, mock, nil)

	var out struct {
		ID int `json:"id"`
	}
	err := c.Get(context.Background(), "/user", nil, &out)

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("Get error = %v, want *DecodeError", err)
	}
}

func TestGet_TransportError(t *testing.T) {
	mock := testutil.NewMockTorn()
	mock.Close() // server already down

	c := newTestClient(t, mock, nil)

	var out map[string]any
	err := c.Get(context.Background(), "/user", nil, &out)

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("Get error = %v, want *TransportError", err)
	}
}

func TestGet_ThrowOnLimitSurfacesRateLimited(t *testing.T) {
	mock := testutil.NewMockTorn()
	defer mock.Close()
	mock.RespondJSON("/user", `{"id":1}`)

	c := newTestClient(t, mock, func(cfg *Config) {
		cfg.Mode = ratelimit.ModeThrowOnLimit
	})

	var out map[string]any
	for i := 0; i < ratelimit.PerKeyLimit; i++ {
		if err := c.Get(context.Background(), "/user", nil, &out); err != nil {
			t.Fatalf("Get %d failed: %v", i, err)
		}
	}

	err := c.Get(context.Background(), "/user", nil, &out)
	if !errors.Is(err, ratelimit.ErrRateLimited) {
		t.Errorf("Get error = %v, want ErrRateLimited", err)
	}

	// The rejected call never reached the server.
	if got := mock.Requests(); got != ratelimit.PerKeyLimit {
		t.Errorf("server saw %d requests, want %d", got, ratelimit.PerKeyLimit)
	}
}

func TestGetRaw(t *testing.T) {
	mock := testutil.NewMockTorn()
	defer mock.Close()
	mock.RespondJSON("/torn/items", `{"items":[{"id":1}]}`)

	c := newTestClient(t, mock, nil)

	body, err := c.GetRaw(context.Background(), "/torn/items", nil)
	if err != nil {
		t.Fatalf("GetRaw failed: %v", err)
	}
	if string(body) != `{"items":[{"id":1}]}` {
		t.Errorf("body = %s", body)
	}

	usage := c.RateLimitSnapshot()["test-..."]
	if usage.Used != 1 {
		t.Errorf("Used = %d, want 1", usage.Used)
	}
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name    string
		comment string
		path    string
		q       params.Params
		want    string
	}{
		{
			name: "no params",
			path: "/user",
			want: "https://api.torn.com/v2/user",
		},
		{
			name: "with params",
			path: "/user",
			q:    params.Params{}.Add("id", "123"),
			want: "https://api.torn.com/v2/user?id=123",
		},
		{
			name: "filters key and comment",
			path: "/user",
			q: params.Params{}.
				Add("id", "123").
				Add("key", "should-be-filtered").
				Add("comment", "should-be-filtered"),
			want: "https://api.torn.com/v2/user?id=123",
		},
		{
			name:    "appends configured comment",
			comment: "my-app",
			path:    "/user",
			q:       params.Params{}.Add("id", "123"),
			want:    "https://api.torn.com/v2/user?id=123&comment=my-app",
		},
		{
			name: "encodes special characters",
			path: "/user",
			q:    params.Params{}.Add("name", "test user"),
			want: "https://api.torn.com/v2/user?name=test+user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("test-key")
			cfg.Comment = tt.comment
			c, err := New(cfg)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}

			if got := c.buildURL(tt.path, tt.q); got != tt.want {
				t.Errorf("buildURL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMatchErrorEnvelope(t *testing.T) {
	tests := []struct {
		name string
		body string
		want *APIError
	}{
		{
			name: "full envelope",
			body: `{"error":{"code":2,"error":"Incorrect key"}}`,
			want: &APIError{Code: 2, Message: "Incorrect key"},
		},
		{
			name: "success body",
			body: `{"id":1,"name":"TestUser"}`,
		},
		{
			name: "error field but wrong shape",
			body: `{"error":"something went wrong"}`,
		},
		{
			name: "missing code",
			body: `{"error":{"error":"no code"}}`,
		},
		{
			name: "missing message",
			body: `{"error":{"code":2}}`,
		},
		{
			name: "array body",
			body: `[1,2,3]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matchErrorEnvelope([]byte(tt.body))
			if tt.want == nil {
				if got != nil {
					t.Errorf("matchErrorEnvelope = %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("matchErrorEnvelope = nil, want match")
			}
			if got.Code != tt.want.Code || got.Message != tt.want.Message {
				t.Errorf("matchErrorEnvelope = %+v, want %+v", got, tt.want)
			}
		})
	}
}
