package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"minisocial-api/models"
)

const maxEventSize = 32 << 20

// SubscribeFeed keeps a live view of the feed. fn receives the rebuilt post list on
// connect and after every change. It returns when ctx is done, the stream ends or a
// snapshot fails to decode.
func (c *Client) SubscribeFeed(ctx context.Context, fn func([]models.Post)) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/contents/stream", nil, "")
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var raw [4096]byte
		n, _ := resp.Body.Read(raw[:])
		return apiError(resp.StatusCode, raw[:n])
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), maxEventSize)

	var event string
	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if event == "snapshot" {
				posts, err := models.DecodePosts([]byte(data.String()))
				if err != nil {
					return err
				}
				fn(posts)
			}
			event = ""
			data.Reset()
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("subscribe: %w", err)
	}
	return ctx.Err()
}
