package testutil

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	json "github.com/goccy/go-json"
)

// VendorRequest is one request received by a VendorServer
type VendorRequest struct {
	Method        string
	Path          string
	Authorization string

	// multipart uploads
	Fields   map[string]string
	FileName string
	FileSize int64

	// JSON bodies
	Body map[string]any
}

// VendorServer fakes an OpenAI-compatible API and records every request.
// Audio requests are answered by OnAudio, chat requests by OnChat.
type VendorServer struct {
	*httptest.Server

	OnAudio func(w http.ResponseWriter, req VendorRequest)
	OnChat  func(w http.ResponseWriter, req VendorRequest)

	mu       sync.Mutex
	requests []VendorRequest
}

func NewVendorServer(t *testing.T) *VendorServer {
	t.Helper()

	v := &VendorServer{
		OnAudio: func(w http.ResponseWriter, _ VendorRequest) {
			RespondJSON(w, http.StatusOK, map[string]any{"text": "hello world"})
		},
		OnChat: func(w http.ResponseWriter, req VendorRequest) {
			if stream, _ := req.Body["stream"].(bool); stream {
				RespondStream(w, "hello", " ", "world")
				return
			}
			RespondCompletion(w, "hello world", 12)
		},
	}
	v.Server = httptest.NewServer(http.HandlerFunc(v.handle))
	t.Cleanup(v.Close)
	return v
}

func (v *VendorServer) handle(w http.ResponseWriter, r *http.Request) {
	req := VendorRequest{
		Method:        r.Method,
		Path:          r.URL.Path,
		Authorization: r.Header.Get("Authorization"),
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(64 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		req.Fields = make(map[string]string)
		for k, vals := range r.MultipartForm.Value {
			if len(vals) > 0 {
				req.Fields[k] = vals[0]
			}
		}
		if files := r.MultipartForm.File["file"]; len(files) > 0 {
			req.FileName = files[0].Filename
			req.FileSize = files[0].Size
		}
	} else if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			_ = json.Unmarshal(data, &req.Body)
		}
	}

	v.mu.Lock()
	v.requests = append(v.requests, req)
	v.mu.Unlock()

	switch {
	case strings.HasSuffix(req.Path, "/audio/transcriptions"), strings.HasSuffix(req.Path, "/audio/translations"):
		v.OnAudio(w, req)
	case strings.HasSuffix(req.Path, "/chat/completions"):
		v.OnChat(w, req)
	default:
		http.NotFound(w, r)
	}
}

// Calls returns the number of requests received
func (v *VendorServer) Calls() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.requests)
}

// Requests returns a copy of the recorded requests
func (v *VendorServer) Requests() []VendorRequest {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]VendorRequest(nil), v.requests...)
}

// Last returns the most recent request
func (v *VendorServer) Last() VendorRequest {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.requests) == 0 {
		return VendorRequest{}
	}
	return v.requests[len(v.requests)-1]
}

func RespondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// RespondText writes an opaque (non-JSON) body
func RespondText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// RespondAPIError writes an OpenAI-style error envelope
func RespondAPIError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]any{
		"error": map[string]any{"message": message, "type": "invalid_request_error"},
	})
}

func RespondCompletion(w http.ResponseWriter, content string, tokens int) {
	RespondJSON(w, http.StatusOK, map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  "test-model",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
		"usage": map[string]any{"prompt_tokens": 2, "completion_tokens": tokens - 2, "total_tokens": tokens},
	})
}

// RespondStream writes one SSE event per chunk, the last one carrying
// finish_reason "stop", followed by [DONE]
func RespondStream(w http.ResponseWriter, chunks ...string) {
	if len(chunks) == 0 {
		chunks = []string{""}
	}
	writeStream(w, chunks, true)
}

// RespondTruncatedStream writes the chunks and then ends the response as if
// the connection dropped: no finish reason, no [DONE].
func RespondTruncatedStream(w http.ResponseWriter, chunks ...string) {
	writeStream(w, chunks, false)
}

func writeStream(w http.ResponseWriter, chunks []string, terminate bool) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	for i, c := range chunks {
		choice := map[string]any{
			"index": 0,
			"delta": map[string]any{"content": c},
		}
		if terminate && i == len(chunks)-1 {
			choice["finish_reason"] = "stop"
		}
		payload, _ := json.Marshal(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion.chunk",
			"choices": []map[string]any{choice},
		})
		fmt.Fprintf(w, "data: %s\n\n", payload)
		if flusher != nil {
			flusher.Flush()
		}
	}
	if terminate {
		fmt.Fprint(w, "data: [DONE]\n\n")
	}
}
