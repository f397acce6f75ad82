package transfer_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genixhq/genix/internal/payout"
	"github.com/genixhq/genix/internal/transfer"
)

func sampleRequest() payout.TransferRequest {
	return payout.TransferRequest{
		Source:    "balance",
		Reason:    "Genix developer payout (2 earnings)",
		Amount:    15000,
		Recipient: "RCP_dev1",
		Reference: "genix_1773480600000_dev1",
	}
}

func TestClient_Transfer_Success(t *testing.T) {
	var got map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transfer", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":true,"message":"Transfer has been queued","data":{"transfer_code":"TRF_1","status":"pending"}}`))
	}))
	defer srv.Close()

	client := transfer.NewClient(srv.URL+"/", "sk_test", time.Second)

	data, err := client.Transfer(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.JSONEq(t, `{"transfer_code":"TRF_1","status":"pending"}`, string(data))

	assert.Equal(t, map[string]any{
		"source":    "balance",
		"reason":    "Genix developer payout (2 earnings)",
		"amount":    float64(15000),
		"recipient": "RCP_dev1",
		"reference": "genix_1773480600000_dev1",
	}, got)
}

func TestClient_Transfer_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{
			name:    "ProviderRejects",
			status:  http.StatusBadRequest,
			body:    `{"status":false,"message":"Your balance is not enough to fulfil this request"}`,
			wantMsg: "Your balance is not enough to fulfil this request",
		},
		{
			name:    "StatusFalseOn200",
			status:  http.StatusOK,
			body:    `{"status":false,"message":"Recipient is inactive"}`,
			wantMsg: "Recipient is inactive",
		},
		{
			name:    "NonJSONError",
			status:  http.StatusBadGateway,
			body:    `<html>bad gateway</html>`,
			wantMsg: "transfer rejected with status 502",
		},
		{
			name:    "EmptyMessage",
			status:  http.StatusUnauthorized,
			body:    `{"status":false}`,
			wantMsg: "transfer rejected with status 401",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := transfer.NewClient(srv.URL, "sk_test", time.Second)

			data, err := client.Transfer(context.Background(), sampleRequest())
			require.Error(t, err)
			assert.Nil(t, data)
			assert.EqualError(t, err, tt.wantMsg)

			var provErr *transfer.ProviderError
			require.True(t, errors.As(err, &provErr))
			assert.Equal(t, tt.status, provErr.StatusCode)
		})
	}
}

func TestClient_Transfer_MalformedSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	client := transfer.NewClient(srv.URL, "sk_test", time.Second)

	_, err := client.Transfer(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding response")
}

func TestClient_Transfer_MissingSecret(t *testing.T) {
	called := false

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := transfer.NewClient(srv.URL, "", time.Second)

	_, err := client.Transfer(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.False(t, called)
}

func TestClient_Transfer_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	client := transfer.NewClient(srv.URL, "sk_test", 50*time.Millisecond)

	_, err := client.Transfer(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "executing request")
}
