package random

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func checkIndices(t *testing.T, indices []int, n, k int) {
	t.Helper()
	if len(indices) != k {
		t.Fatalf("expected %d indices, got %d", k, len(indices))
	}
	seen := make(map[int]bool)
	for _, idx := range indices {
		if idx < 0 || idx >= n {
			t.Errorf("index %d out of range [0, %d)", idx, n)
		}
		if seen[idx] {
			t.Errorf("duplicate index %d", idx)
		}
		seen[idx] = true
	}
}

func TestPickFallbackDistinctAndInRange(t *testing.T) {
	provider := NewIndexProvider(nil) // no external service, fallback only

	cases := []struct{ n, k int }{
		{1, 1},
		{2, 1},
		{5, 5},
		{10, 3},
		{100, 10},
	}

	for _, tc := range cases {
		// Repeated calls to catch range and distinctness violations the
		// fallback could only hit probabilistically
		for i := 0; i < 50; i++ {
			indices, err := provider.Pick(context.Background(), tc.n, tc.k)
			if err != nil {
				t.Fatalf("Pick(%d, %d) failed: %v", tc.n, tc.k, err)
			}
			checkIndices(t, indices, tc.n, tc.k)
		}
	}
}

func TestPickInvalidArguments(t *testing.T) {
	provider := NewIndexProvider(nil)

	cases := []struct{ n, k int }{
		{0, 1},
		{-1, 1},
		{5, 0},
		{5, 6},
		{3, -1},
	}

	for _, tc := range cases {
		if _, err := provider.Pick(context.Background(), tc.n, tc.k); err == nil {
			t.Errorf("Pick(%d, %d): expected error, got none", tc.n, tc.k)
		}
	}
}

func TestPickUsesExternalService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"jsonrpc":"2.0","result":{"random":{"data":[4,1,7]}},"id":1}`)
	}))
	defer server.Close()

	client := NewRandomOrgClient("test-key", server.URL, time.Second)
	provider := NewIndexProvider(client)

	indices, err := provider.Pick(context.Background(), 10, 3)
	if err != nil {
		t.Fatalf("Pick failed: %v", err)
	}

	want := []int{4, 1, 7}
	for i, idx := range indices {
		if idx != want[i] {
			t.Errorf("expected indices %v, got %v", want, indices)
			break
		}
	}
}

func TestPickFallsBackOnServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer server.Close()

	client := NewRandomOrgClient("test-key", server.URL, time.Second)
	provider := NewIndexProvider(client)

	indices, err := provider.Pick(context.Background(), 10, 3)
	if err != nil {
		t.Fatalf("Pick failed: %v", err)
	}
	checkIndices(t, indices, 10, 3)
}

func TestPickFallsBackOnMalformedResponse(t *testing.T) {
	responses := []string{
		`not json`,
		`{"jsonrpc":"2.0","id":1}`,                                        // missing result
		`{"jsonrpc":"2.0","result":{"random":{"data":[1]}},"id":1}`,       // wrong count
		`{"jsonrpc":"2.0","result":{"random":{"data":[1,1,2]}},"id":1}`,   // duplicates
		`{"jsonrpc":"2.0","result":{"random":{"data":[1,2,99]}},"id":1}`,  // out of range
		`{"jsonrpc":"2.0","error":{"code":402,"message":"quota"},"id":1}`, // rpc error
	}

	for _, body := range responses {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, body)
		}))

		client := NewRandomOrgClient("test-key", server.URL, time.Second)
		provider := NewIndexProvider(client)

		indices, err := provider.Pick(context.Background(), 10, 3)
		if err != nil {
			t.Fatalf("Pick with response %q failed: %v", body, err)
		}
		checkIndices(t, indices, 10, 3)

		server.Close()
	}
}

func TestPickFallsBackOnTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, `{"jsonrpc":"2.0","result":{"random":{"data":[0,1,2]}},"id":1}`)
	}))
	defer server.Close()

	client := NewRandomOrgClient("test-key", server.URL, 50*time.Millisecond)
	provider := NewIndexProvider(client)

	start := time.Now()
	indices, err := provider.Pick(context.Background(), 10, 3)
	if err != nil {
		t.Fatalf("Pick failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Pick took %v, timeout not enforced", elapsed)
	}
	checkIndices(t, indices, 10, 3)
}
