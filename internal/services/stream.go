// Streaming chat channel: websocket transport and chunk decoding
package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/gamescout/internal/models"
	"github.com/desertthunder/gamescout/internal/shared"
	"github.com/gorilla/websocket"
)

// ChunkType tags one event on the streaming chat channel.
type ChunkType string

const (
	ChunkStatus  ChunkType = "status"
	ChunkContent ChunkType = "content"
	ChunkGames   ChunkType = "games"
	ChunkDone    ChunkType = "done"
	ChunkError   ChunkType = "error"
)

// Chunk is one decoded event from the streaming chat channel. Exactly the
// field matching Type carries the payload; the rest are zero.
type Chunk struct {
	Type    ChunkType
	Status  models.StreamStatus // ChunkStatus
	Content string              // ChunkContent: a text fragment, possibly empty
	Games   []models.Game       // ChunkGames: the full list, not incremental
	Err     string              // ChunkError
}

// wireFrame is the raw shape of one stream frame: {type, data} for events,
// {error} for server-reported failures.
type wireFrame struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

// decodeChunk parses a wire frame. known is false for frame types this client
// does not understand, which callers skip for forward compatibility.
func decodeChunk(raw []byte) (chunk Chunk, known bool, err error) {
	var frame wireFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return Chunk{}, false, fmt.Errorf("malformed stream frame: %w", err)
	}

	if frame.Error != "" {
		return Chunk{Type: ChunkError, Err: frame.Error}, true, nil
	}

	switch ChunkType(frame.Type) {
	case ChunkStatus:
		var status string
		if len(frame.Data) > 0 {
			if err := json.Unmarshal(frame.Data, &status); err != nil {
				return Chunk{}, false, fmt.Errorf("malformed status payload: %w", err)
			}
		}
		return Chunk{Type: ChunkStatus, Status: models.StreamStatus(status)}, true, nil

	case ChunkContent:
		var content string
		if len(frame.Data) > 0 {
			if err := json.Unmarshal(frame.Data, &content); err != nil {
				return Chunk{}, false, fmt.Errorf("malformed content payload: %w", err)
			}
		}
		return Chunk{Type: ChunkContent, Content: content}, true, nil

	case ChunkGames:
		var games []models.Game
		if len(frame.Data) > 0 {
			if err := json.Unmarshal(frame.Data, &games); err != nil {
				return Chunk{}, false, fmt.Errorf("malformed games payload: %w", err)
			}
		}
		return Chunk{Type: ChunkGames, Games: games}, true, nil

	case ChunkDone:
		return Chunk{Type: ChunkDone}, true, nil

	default:
		return Chunk{}, false, nil
	}
}

type streamRequest struct {
	Message string `json:"message"`
	UserKey string `json:"user_key"`
}

// SendStream sends a chat prompt over the websocket channel and forwards each
// decoded chunk to onChunk in arrival order. The call returns after the done
// or error frame, a clean transport close, or a failure.
//
// Events for one send arrive on one connection in send order; onChunk is
// never invoked concurrently. A clean close without a done frame is treated
// as termination and synthesized into a done chunk. A failure before the
// first chunk wraps [shared.ErrStreamClosed] so callers can drop the
// placeholder message entirely.
func (c *Client) SendStream(ctx context.Context, text, userKey string, onChunk func(Chunk) error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	conn, resp, err := c.dialer.DialContext(ctx, c.streamURL, nil)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", shared.ErrStreamClosed, c.streamURL, err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// Close the connection when the context ends so the read loop unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	if err := conn.WriteJSON(streamRequest{Message: text, UserKey: userKey}); err != nil {
		return fmt.Errorf("%w: write request: %v", shared.ErrStreamClosed, err)
	}

	delivered := 0
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				if delivered == 0 {
					return fmt.Errorf("%w: closed before first frame", shared.ErrStreamClosed)
				}
				// The server closed cleanly without a done frame; terminate
				// the message as if one had arrived.
				return onChunk(Chunk{Type: ChunkDone})
			}
			if delivered == 0 {
				return fmt.Errorf("%w: %v", shared.ErrStreamClosed, err)
			}
			return fmt.Errorf("stream read failed after %d chunks: %w", delivered, err)
		}

		chunk, known, err := decodeChunk(raw)
		if err != nil {
			if delivered == 0 {
				return fmt.Errorf("%w: %v", shared.ErrStreamClosed, err)
			}
			return err
		}
		if !known {
			continue
		}

		delivered++
		if err := onChunk(chunk); err != nil {
			return err
		}

		if chunk.Type == ChunkDone || chunk.Type == ChunkError {
			return nil
		}
	}
}
