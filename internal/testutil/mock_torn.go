// Package testutil provides testing utilities for the Torn API client.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
)

// MockTorn is a configurable mock Torn API server for testing.
type MockTorn struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	// Tracking
	RequestCount int
	PathCounts   map[string]int
	LastAuth     string
	LastQuery    string
}

// NewMockTorn creates a new mock Torn API server.
func NewMockTorn() *MockTorn {
	mock := &MockTorn{
		handlers:   make(map[string]http.HandlerFunc),
		PathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.PathCounts[r.URL.Path]++
		mock.LastAuth = r.Header.Get("Authorization")
		mock.LastQuery = r.URL.RawQuery
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		// Default: empty success body.
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{}`)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockTorn) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockTorn) Close() {
	m.server.Close()
}

// Handle registers a custom handler for a path.
func (m *MockTorn) Handle(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// RespondJSON registers a handler returning the given body with HTTP 200.
func (m *MockTorn) RespondJSON(path, body string) {
	m.Handle(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	})
}

// RespondAPIError registers a handler returning the Torn error envelope
// with HTTP 200, the way the real API reports rejections.
func (m *MockTorn) RespondAPIError(path string, code int, message string) {
	m.RespondJSON(path, fmt.Sprintf(`{"error":{"code":%d,"error":%q}}`, code, message))
}

// RespondStatus registers a handler returning a bare HTTP status.
func (m *MockTorn) RespondStatus(path string, status int) {
	m.Handle(path, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
}

// RespondPaginated registers a handler returning body merged with a
// _metadata.links object. Empty next/prev URLs are omitted.
func (m *MockTorn) RespondPaginated(path, dataJSON, nextURL, prevURL string) {
	links := "{"
	sep := ""
	if nextURL != "" {
		links += fmt.Sprintf(`"next":%q`, nextURL)
		sep = ","
	}
	if prevURL != "" {
		links += sep + fmt.Sprintf(`"prev":%q`, prevURL)
	}
	links += "}"

	// Splice _metadata into the object body.
	inner := dataJSON[1 : len(dataJSON)-1]
	body := fmt.Sprintf(`{"_metadata":{"links":%s}}`, links)
	if inner != "" {
		body = fmt.Sprintf(`{"_metadata":{"links":%s},%s}`, links, inner)
	}
	m.RespondJSON(path, body)
}

// Requests returns the total number of requests served.
func (m *MockTorn) Requests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// RequestsFor returns the number of requests served for one path.
func (m *MockTorn) RequestsFor(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PathCounts[path]
}

// AuthHeader returns the Authorization header of the last request.
func (m *MockTorn) AuthHeader() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastAuth
}

// Query returns the raw query string of the last request.
func (m *MockTorn) Query() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastQuery
}

// Reset clears all tracking counters.
func (m *MockTorn) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.PathCounts = make(map[string]int)
	m.LastAuth = ""
	m.LastQuery = ""
}
