package search

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hupe1980/agentnet/core"
)

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 4 << 10
)

func defaultClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}

// do sends req and decodes a successful JSON body into out.
func do(client *http.Client, toolID string, req *http.Request, out any) error {
	res, err := client.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		return &core.ToolExecutionError{Tool: toolID, Message: "request failed", Cause: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return &core.ToolExecutionError{
			Tool:       toolID,
			StatusCode: res.StatusCode,
			Body:       strings.TrimSpace(string(b)),
		}
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &core.ToolExecutionError{Tool: toolID, Message: fmt.Sprintf("decode response: %v", err), Cause: err}
	}

	return nil
}
