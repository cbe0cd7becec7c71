package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestCommandMuxDispatch(t *testing.T) {
	mux := NewCommandMux()
	mux.Handle("/status", func(args string) string { return "status:" + args })
	mux.Fallback(func(text string) string { return "help" })

	if got := mux.Dispatch("/status"); got != "status:" {
		t.Fatalf("Dispatch(/status) = %q", got)
	}
	if got := mux.Dispatch("  /status 002155  "); got != "status:002155" {
		t.Fatalf("Dispatch with args = %q", got)
	}
	if got := mux.Dispatch("/unknown"); got != "help" {
		t.Fatalf("unknown command = %q, want fallback", got)
	}
	if got := mux.Dispatch("   "); got != "" {
		t.Fatalf("blank input = %q, want empty", got)
	}
}

func TestCommandMuxNoFallback(t *testing.T) {
	mux := NewCommandMux()
	if got := mux.Dispatch("/anything"); got != "" {
		t.Fatalf("mux without fallback = %q, want empty", got)
	}
}

// fakeBotAPI serves getUpdates and sendMessage for one poll cycle.
type fakeBotAPI struct {
	mu        sync.Mutex
	offsets   []int
	sent      []map[string]string
	delivered chan struct{}
}

func (f *fakeBotAPI) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			var req struct {
				Offset int `json:"offset"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode getUpdates payload: %v", err)
			}
			f.mu.Lock()
			first := len(f.offsets) == 0
			f.offsets = append(f.offsets, req.Offset)
			f.mu.Unlock()
			if first {
				fmt.Fprint(w, `{"ok":true,"result":[{"update_id":700,"message":{"text":"/status"}},{"update_id":701,"message":{}}]}`)
				return
			}
			fmt.Fprint(w, `{"ok":true,"result":[]}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var msg map[string]string
			if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
				t.Errorf("decode sendMessage payload: %v", err)
			}
			f.mu.Lock()
			f.sent = append(f.sent, msg)
			f.mu.Unlock()
			select {
			case f.delivered <- struct{}{}:
			default:
			}
			fmt.Fprint(w, `{"ok":true}`)
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func TestStartPollingDispatchesCommands(t *testing.T) {
	api := &fakeBotAPI{delivered: make(chan struct{}, 1)}
	ts := httptest.NewServer(api.handler(t))
	defer ts.Close()

	tn := NewTelegramNotifier("token", "42", "")
	tn.apiBase = ts.URL

	mux := NewCommandMux()
	mux.Handle("/status", func(string) string { return "holding nothing" })

	ctx, cancel := context.WithCancel(context.Background())
	pollDone := make(chan struct{})
	go func() {
		tn.StartPolling(ctx, mux)
		close(pollDone)
	}()

	select {
	case <-api.delivered:
	case <-time.After(5 * time.Second):
		t.Fatal("no reply delivered within 5s")
	}
	cancel()
	select {
	case <-pollDone:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop on cancel")
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.sent) != 1 {
		t.Fatalf("sent %d messages, want 1 (text-less updates must be skipped)", len(api.sent))
	}
	msg := api.sent[0]
	if msg["text"] != "holding nothing" || msg["chat_id"] != "42" || msg["parse_mode"] != "HTML" {
		t.Fatalf("reply payload = %v", msg)
	}
	if api.offsets[0] != 0 {
		t.Fatalf("first poll offset = %d, want 0", api.offsets[0])
	}
	if len(api.offsets) > 1 && api.offsets[1] != 702 {
		t.Fatalf("second poll offset = %d, want 702 to acknowledge both updates", api.offsets[1])
	}
}

func TestSendReportsAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false,"description":"bad token"}`, http.StatusUnauthorized)
	}))
	defer ts.Close()

	tn := NewTelegramNotifier("token", "42", "")
	tn.apiBase = ts.URL
	err := tn.Send("hi")
	if err == nil || !strings.Contains(err.Error(), "status 401") {
		t.Fatalf("Send error = %v, want status 401", err)
	}
}
