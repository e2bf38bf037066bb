package googlemaps

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const okResponse = `{
  "status": "OK",
  "origin_addresses": ["100 Main St, Springfield, IL, USA"],
  "destination_addresses": ["1 Capitol Ave, Shelbyville, IL, USA"],
  "rows": [{"elements": [{
    "status": "OK",
    "distance": {"text": "10.0 mi", "value": 16093},
    "duration": {"text": "15 mins", "value": 900}
  }]}]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: time.Second}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestDrivingDistance(t *testing.T) {
	var query map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		query = map[string]string{
			"origins":      q.Get("origins"),
			"destinations": q.Get("destinations"),
			"mode":         q.Get("mode"),
			"avoid":        q.Get("avoid"),
			"key":          q.Get("key"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, okResponse)
	})

	info, err := client.DrivingDistance(context.Background(), "100 Main St", "1 Capitol Ave", true)
	require.NoError(t, err)

	assert.Equal(t, 16093, info.Meters)
	assert.Equal(t, int64(900), info.DurationSeconds)
	assert.Equal(t, "100 Main St, Springfield, IL, USA", info.OriginAddress)
	assert.Equal(t, "1 Capitol Ave, Shelbyville, IL, USA", info.DestAddress)
	assert.Equal(t, "10.0 mi", info.Summary)

	assert.Equal(t, "100 Main St", query["origins"])
	assert.Equal(t, "1 Capitol Ave", query["destinations"])
	assert.Equal(t, "driving", query["mode"])
	assert.Equal(t, "tolls", query["avoid"])
	assert.Equal(t, "test-key", query["key"])
}

func TestDrivingDistance_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		noRoute bool
	}{
		{
			name:   "request denied",
			status: http.StatusOK,
			body:   `{"status": "REQUEST_DENIED", "error_message": "The provided API key is invalid."}`,
		},
		{
			name:    "element not found",
			status:  http.StatusOK,
			body:    `{"status": "OK", "rows": [{"elements": [{"status": "NOT_FOUND"}]}]}`,
			noRoute: true,
		},
		{
			name:    "empty rows",
			status:  http.StatusOK,
			body:    `{"status": "OK", "rows": []}`,
			noRoute: true,
		},
		{
			name:   "malformed body",
			status: http.StatusOK,
			body:   `{"status": `,
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `oops`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			info, err := client.DrivingDistance(context.Background(), "A", "B", false)
			require.Error(t, err)
			assert.Nil(t, info)
			assert.Equal(t, tt.noRoute, errors.Is(err, ErrNoRoute))
		})
	}
}

func TestDrivingDistance_ContextDeadline(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.DrivingDistance(ctx, "A", "B", false)
	assert.Error(t, err)
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(Config{}, zap.NewNop())
	assert.Error(t, err)
}
