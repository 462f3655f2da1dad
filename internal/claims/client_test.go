package claims

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetchDecodesClaims(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/claims", r.URL.Path)
		require.Equal(t, "2024", r.URL.Query().Get("year"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"claims":[{"id":"c1","employee_name":"Dana","department":"IT","amount":125.5}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, slog.Default())
	claims, err := client.Fetch(context.Background(), 2024)
	require.NoError(t, err)
	require.Len(t, claims, 1)
	require.Equal(t, "c1", claims[0].ID)
	require.Equal(t, "IT", claims[0].Department)
	require.InDelta(t, 125.5, claims[0].Amount, 0.001)
}

func TestFetchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, slog.Default())
	_, err := client.Fetch(context.Background(), 2024)
	require.Error(t, err)
}

func TestFetchOrEmptyDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	srv.Close() // connection refused from here on

	client := NewClient(srv.URL, slog.Default())
	claims, ok := client.FetchOrEmpty(context.Background(), 2024)
	require.Empty(t, claims)
	require.False(t, ok)

	var nilClient *Client
	claims, ok = nilClient.FetchOrEmpty(context.Background(), 2024)
	require.Empty(t, claims)
	require.False(t, ok)
}

func TestFetchOrEmptyHealthyFeedWithZeroClaims(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"claims":[]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, slog.Default())
	claims, ok := client.FetchOrEmpty(context.Background(), 2024)
	require.Empty(t, claims)
	require.True(t, ok)
}
