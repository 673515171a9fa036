package reconcile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordDeposit(t *testing.T) {
	var received depositRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/deposit", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total_deposited": 125.5}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)

	total, err := client.RecordDeposit(context.Background(), "owner123", 10.5)
	require.NoError(t, err)
	assert.Equal(t, 125.5, total)

	assert.Equal(t, "owner123", received.WalletAddress)
	assert.Equal(t, 10.5, received.Amount)
	assert.Equal(t, "completed", received.Status)
}

func TestRequestWithdrawal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/unstake", r.URL.Path)
		_, _ = w.Write([]byte(`{"total_deposited": 90}`))
	}))
	defer server.Close()

	total, err := NewClient(server.URL).RequestWithdrawal(context.Background(), "owner123", 35.5)
	require.NoError(t, err)
	assert.Equal(t, 90.0, total)
}

func TestRecordDeposit_Failures(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		_, err := NewClient(server.URL).RecordDeposit(context.Background(), "owner123", 1)
		assert.Equal(t, ErrReconciliationFailed, errors.Cause(err))
	})

	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}))
		defer server.Close()

		_, err := NewClient(server.URL).RecordDeposit(context.Background(), "owner123", 1)
		assert.Equal(t, ErrReconciliationFailed, errors.Cause(err))
	})

	t.Run("transport error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		server.Close()

		_, err := NewClient(server.URL).RecordDeposit(context.Background(), "owner123", 1)
		assert.Equal(t, ErrReconciliationFailed, errors.Cause(err))
	})
}
