package internal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Wire format: one JSON object per line, one request/response pair per
// connection.

// EmbeddingRequest asks the daemon for embeddings of an ordered batch of
// texts.
type EmbeddingRequest struct {
	Texts []string `json:"texts"`
	ID    string   `json:"id"`
}

// EmbeddingResponse carries one embedding per request text, in order. When
// Error is set, Embeddings is empty.
type EmbeddingResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	ID         string      `json:"id"`
	Error      *string     `json:"error"`
}

// Validate checks the response invariants against the request it answers.
func (r *EmbeddingResponse) Validate(req *EmbeddingRequest) error {
	if r.ID != req.ID {
		return fmt.Errorf("response id %q does not match request id %q", r.ID, req.ID)
	}
	if r.Error != nil {
		if len(r.Embeddings) != 0 {
			return fmt.Errorf("error response carries %d embeddings", len(r.Embeddings))
		}
		return nil
	}
	if len(r.Embeddings) != len(req.Texts) {
		return fmt.Errorf("got %d embeddings for %d texts", len(r.Embeddings), len(req.Texts))
	}
	return nil
}

func writeLine(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

func readLine(r *bufio.Reader, v any) error {
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return fmt.Errorf("read message: %w", err)
	}

	if err := json.Unmarshal([]byte(strings.TrimSpace(line)), v); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	return nil
}
