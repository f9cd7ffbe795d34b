package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

const ordersHeader = "Order number,Head,Body,Legs,Address\n"

func TestParseOrders(t *testing.T) {
	csv := ordersHeader +
		"1,1,2,middle,Test 1\n" +
		"2,3,1,5,\"Street 2, Flat 3\"\n"

	orders, err := parseOrders(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, orders, 2)

	require.Equal(t, "1", orders[0].Number())
	require.Equal(t, "1", orders[0].Head())
	require.Equal(t, "2", orders[0].Body())
	require.Equal(t, "middle", orders[0].Legs())
	require.Equal(t, "Test 1", orders[0].Address())
	require.Equal(t, "Street 2, Flat 3", orders[1].Address())
}

func TestParseOrdersEmpty(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"empty file", ""},
		{"header only", ordersHeader},
		{"header with BOM", "\ufeff" + ordersHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders, err := parseOrders(strings.NewReader(tt.csv))
			require.NoError(t, err)
			require.Empty(t, orders)
		})
	}
}

func TestParseOrdersExtraColumnsKept(t *testing.T) {
	csv := "Order number,Head,Body,Legs,Address,Note\n1,1,2,3,Addr,gift\n"

	orders, err := parseOrders(strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, "gift", orders[0]["Note"])
}

func TestParseOrdersErrors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want error
	}{
		{
			name: "missing columns",
			csv:  "Order number,Head,Body\n1,1,2\n",
			want: ErrMissingColumn,
		},
		{
			name: "duplicate order number",
			csv:  ordersHeader + "1,1,2,3,A\n1,2,3,4,B\n",
			want: ErrDuplicateOrder,
		},
		{
			name: "empty order number",
			csv:  ordersHeader + ",1,2,3,A\n",
			want: ErrInvalidOrderNumber,
		},
		{
			name: "path in order number",
			csv:  ordersHeader + "../1,1,2,3,A\n",
			want: ErrInvalidOrderNumber,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseOrders(strings.NewReader(tt.csv))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseOrdersRaggedRow(t *testing.T) {
	_, err := parseOrders(strings.NewReader(ordersHeader + "1,1,2\n"))
	require.Error(t, err)
}

func newOrdersServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders.csv" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchOrders(t *testing.T) {
	srv := newOrdersServer(t, ordersHeader+"1,1,2,middle,Test 1\n", http.StatusOK)
	dest := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(dest, []byte("stale"), 0644))

	client := resty.New().SetTimeout(5 * time.Second)
	orders, err := FetchOrders(context.Background(), client, srv.URL+"/orders.csv", dest)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, "middle", orders[0].Legs())

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Contains(t, string(data), "Test 1")
}

func TestFetchOrdersHTTPError(t *testing.T) {
	srv := newOrdersServer(t, "", http.StatusOK)
	dest := filepath.Join(t.TempDir(), "orders.csv")

	client := resty.New().SetTimeout(5 * time.Second)
	_, err := FetchOrders(context.Background(), client, srv.URL+"/missing.csv", dest)
	require.ErrorIs(t, err, ErrDownloadFailed)
	require.NoFileExists(t, dest)
}

func TestFetchOrdersUnreachable(t *testing.T) {
	srv := newOrdersServer(t, "", http.StatusOK)
	url := srv.URL + "/orders.csv"
	srv.Close()

	dest := filepath.Join(t.TempDir(), "orders.csv")
	client := resty.New().SetTimeout(time.Second)
	_, err := FetchOrders(context.Background(), client, url, dest)
	require.ErrorIs(t, err, ErrDownloadFailed)
	require.NoFileExists(t, dest)
}

func TestFetchOrdersTruncatedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "4096")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(ordersHeader + "1,1,2,"))
		w.(http.Flusher).Flush()
		panic(http.ErrAbortHandler)
	}))
	t.Cleanup(srv.Close)

	dest := filepath.Join(t.TempDir(), "orders.csv")
	client := resty.New().SetTimeout(5 * time.Second)
	_, err := FetchOrders(context.Background(), client, srv.URL+"/orders.csv", dest)
	require.ErrorIs(t, err, ErrDownloadFailed)
	require.NoFileExists(t, dest)
}

func TestFetchOrdersCreatesDestDir(t *testing.T) {
	srv := newOrdersServer(t, ordersHeader+"1,1,2,middle,Test 1\n", http.StatusOK)
	dest := filepath.Join(t.TempDir(), "outdir", "orders.csv")

	client := resty.New().SetTimeout(5 * time.Second)
	orders, err := FetchOrders(context.Background(), client, srv.URL+"/orders.csv", dest)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.FileExists(t, dest)
}
