package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ZJUSCT/CSArena/internal/database/models"
)

// HTTP asks an external verification service.
//
//	GET {endpoint}/verify?platform=leetcode&username=alice&problem=two-sum
//	-> {"accepted": true}
type HTTP struct {
	endpoint string
	client   *http.Client
}

func NewHTTP(endpoint string, timeout time.Duration) *HTTP {
	return &HTTP{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
	}
}

func (h *HTTP) HasAcceptedSubmission(ctx context.Context, platform models.Platform, username, problem string) (bool, error) {
	if username == "" {
		return false, nil
	}
	q := url.Values{}
	q.Set("platform", string(platform))
	q.Set("username", username)
	q.Set("problem", problem)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.endpoint+"/verify?"+q.Encode(), nil)
	if err != nil {
		return false, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("verification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("verification service answered %d", resp.StatusCode)
	}
	var body struct {
		Accepted bool `json:"accepted"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("failed to decode verification response: %w", err)
	}
	return body.Accepted, nil
}
