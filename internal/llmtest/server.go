package llmtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// Server speaks the OpenAI-compatible chat completion wire, answering from
// a script. Point any adapter at URL() through its base-URL override.
type Server struct {
	script *Script
	srv    *httptest.Server

	mu       sync.Mutex
	requests []Recorded
	callSeq  int
}

// Recorded is one captured request, reduced to what tests assert on.
type Recorded struct {
	Path   string
	Model  string
	Prompt string   // content of the last message
	Roles  []string // message roles in request order
	Tools  []string // offered tool names
}

// NewServer starts a scripted server. Callers own Close.
func NewServer(script *Script) *Server {
	s := &Server{script: script}

	mux := http.NewServeMux()
	// The SDK resolves "chat/completions" against the base URL, so the
	// path depends on whether the base carries a /v1 suffix. Serve both.
	mux.HandleFunc("/chat/completions", s.handleChat)
	mux.HandleFunc("/v1/chat/completions", s.handleChat)
	s.srv = httptest.NewServer(mux)
	return s
}

// URL returns the server's base URL.
func (s *Server) URL() string { return s.srv.URL }

// Close shuts the server down.
func (s *Server) Close() { s.srv.Close() }

// Requests returns a copy of every captured request in arrival order.
func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Recorded, len(s.requests))
	copy(out, s.requests)
	return out
}

type chatMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content,omitempty"`
	ToolCalls []toolCall `json:"tool_calls,omitempty"`
}

type toolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}

	var req struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string          `json:"role"`
			Content json.RawMessage `json:"content"`
		} `json:"messages"`
		Tools []struct {
			Function struct {
				Name string `json:"name"`
			} `json:"function"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	rec := Recorded{Path: r.URL.Path, Model: req.Model}
	for _, m := range req.Messages {
		rec.Roles = append(rec.Roles, m.Role)
	}
	if n := len(req.Messages); n > 0 {
		rec.Prompt = contentText(req.Messages[n-1].Content)
	}
	for _, t := range req.Tools {
		rec.Tools = append(rec.Tools, t.Function.Name)
	}

	s.mu.Lock()
	s.requests = append(s.requests, rec)
	s.mu.Unlock()

	if s.script.Settings.LagMS > 0 {
		time.Sleep(time.Duration(s.script.Settings.LagMS) * time.Millisecond)
	}

	resp := s.respond(rec)
	resp.Model = req.Model
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// respond applies the script to one prompt: tool rules first, then text
// rules, then the fallback.
func (s *Server) respond(rec Recorded) chatResponse {
	if tr := s.script.pickTool(rec.Prompt); tr != nil && s.toolOffered(rec, tr.Tool) {
		args, err := json.Marshal(tr.Arguments)
		if err != nil || tr.Arguments == nil {
			args = []byte("{}")
		}
		u := s.script.usageOr(tr.Usage)
		return s.envelope(chatChoice{
			Message: chatMessage{
				Role:    "assistant",
				Content: tr.Response,
				ToolCalls: []toolCall{{
					ID:       s.callID(tr.ID),
					Type:     "function",
					Function: toolFunction{Name: tr.Tool, Arguments: string(args)},
				}},
			},
			FinishReason: "tool_calls",
		}, u)
	}

	text := s.script.Defaults.Fallback
	u := s.script.Defaults.Usage
	if rr := s.script.pickResponse(rec.Prompt); rr != nil {
		text = rr.Response
		u = s.script.usageOr(rr.Usage)
	}
	return s.envelope(chatChoice{
		Message:      chatMessage{Role: "assistant", Content: text},
		FinishReason: "stop",
	}, u)
}

// toolOffered keeps scripts honest: a tool rule only fires when the
// request actually offered that tool, the way a live model only calls
// tools it was handed.
func (s *Server) toolOffered(rec Recorded, name string) bool {
	for _, t := range rec.Tools {
		if t == name {
			return true
		}
	}
	return false
}

func (s *Server) callID(explicit string) string {
	if explicit != "" {
		return explicit
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callSeq++
	return fmt.Sprintf("call_%03d", s.callSeq)
}

func (s *Server) envelope(choice chatChoice, u Usage) chatResponse {
	return chatResponse{
		ID:      "chatcmpl-scripted",
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Choices: []chatChoice{choice},
		Usage: chatUsage{
			PromptTokens:     u.Input,
			CompletionTokens: u.Output,
			TotalTokens:      u.Input + u.Output,
		},
	}
}

// contentText renders a message content field, which arrives either as a
// plain string or as an array of typed text parts.
func contentText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if json.Unmarshal(raw, &parts) == nil {
		var out string
		for _, p := range parts {
			out += p.Text
		}
		return out
	}
	return string(raw)
}
