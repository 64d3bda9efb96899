package gmaps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewClient_EmptyKey(t *testing.T) {
	if c := NewClient(""); c != nil {
		t.Error("空密钥应返回 nil 客户端")
	}
}

func TestClient_Geocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/maps/api/geocode/json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test_key" {
			t.Errorf("key = %s", r.URL.Query().Get("key"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "OK",
			"results": [{
				"formatted_address": "123 Beach Rd, Cape Town, South Africa",
				"place_id": "ChIJtest",
				"geometry": {"location": {"lat": -33.918861, "lng": 18.4233}}
			}]
		}`))
	}))
	defer srv.Close()

	client := NewClientWithBaseURL("test_key", srv.URL)
	result, err := client.Geocode(context.Background(), "123 Beach Rd")
	if err != nil {
		t.Fatalf("Geocode() error = %v", err)
	}
	if result.PlaceID != "ChIJtest" {
		t.Errorf("PlaceID = %s", result.PlaceID)
	}
	if result.Latitude > -33.9 || result.Longitude < 18.4 {
		t.Errorf("坐标异常: %f,%f", result.Latitude, result.Longitude)
	}
}

func TestClient_GeocodeUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "REQUEST_DENIED", "error_message": "The provided API key is invalid."}`))
	}))
	defer srv.Close()

	client := NewClientWithBaseURL("bad_key", srv.URL)
	_, err := client.Geocode(context.Background(), "anywhere")
	if err == nil {
		t.Fatal("上游拒绝时应报错")
	}
	if !strings.Contains(err.Error(), "REQUEST_DENIED") {
		t.Errorf("错误未带上游状态: %v", err)
	}
}

func TestClient_AutocompleteZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ZERO_RESULTS", "predictions": []}`))
	}))
	defer srv.Close()

	client := NewClientWithBaseURL("test_key", srv.URL)
	predictions, err := client.Autocomplete(context.Background(), "zzzzzz")
	if err != nil {
		t.Fatalf("ZERO_RESULTS 不应报错: %v", err)
	}
	if len(predictions) != 0 {
		t.Errorf("predictions = %d, want 0", len(predictions))
	}
}

func TestClient_Autocomplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status": "OK",
			"predictions": [
				{"description": "Cape Town, South Africa", "place_id": "p1"},
				{"description": "Cape Town City Centre", "place_id": "p2"}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClientWithBaseURL("test_key", srv.URL)
	predictions, err := client.Autocomplete(context.Background(), "cape t")
	if err != nil {
		t.Fatalf("Autocomplete() error = %v", err)
	}
	if len(predictions) != 2 || predictions[0].PlaceID != "p1" {
		t.Errorf("predictions = %+v", predictions)
	}
}

func TestClient_StaticMapURL(t *testing.T) {
	client := NewClient("test_key")
	u := client.StaticMapURL(-33.918861, 18.4233, 15, 640, 400)

	for _, want := range []string{"staticmap", "zoom=15", "size=640x400", "key=test_key"} {
		if !strings.Contains(u, want) {
			t.Errorf("URL 缺少 %s: %s", want, u)
		}
	}
}
