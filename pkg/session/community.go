package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tidemind/haven/pkg/httputil"
)

// HTTPCardProvider fetches approved community cards from the card
// sharing service. Failures surface as errors so the pool builder can
// degrade; they never fail pool assembly outright.
type HTTPCardProvider struct {
	baseURL string
	client  *http.Client
	sem     *httputil.Semaphore
}

// NewHTTPCardProvider creates a provider for the given service base URL.
func NewHTTPCardProvider(baseURL string) *HTTPCardProvider {
	return &HTTPCardProvider{
		baseURL: baseURL,
		client:  httputil.FastClient(),
		sem:     httputil.NewSemaphore(16),
	}
}

// communityCard is the wire shape of one shared card.
type communityCard struct {
	Content string `json:"content"`
	Level   int    `json:"level"`
}

// Cards fetches the shared cards for a mode+level. Entries with a
// missing or out-of-range level are clamped into range rather than
// dropped.
func (p *HTTPCardProvider) Cards(ctx context.Context, mode Mode, level int) ([]Question, error) {
	if err := p.sem.Acquire(ctx); err != nil {
		return nil, err
	}
	defer p.sem.Release()

	u := fmt.Sprintf("%s/v1/cards?mode=%s&level=%s",
		p.baseURL, url.QueryEscape(string(mode)), strconv.Itoa(level))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer httputil.DrainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		body, _ := httputil.ReadErrorBody(resp.Body)
		return nil, fmt.Errorf("card service returned %d: %s", resp.StatusCode, string(body))
	}

	body, err := httputil.ReadResponseBody(resp.Body, httputil.MaxResponseSize)
	if err != nil {
		return nil, err
	}

	var cards []communityCard
	if err := json.Unmarshal(body, &cards); err != nil {
		return nil, fmt.Errorf("decode card service response: %w", err)
	}

	out := make([]Question, 0, len(cards))
	for _, c := range cards {
		if c.Content == "" {
			continue
		}
		lvl := c.Level
		if lvl < MinLevel || lvl > MaxLevel {
			lvl = level
		}
		out = append(out, Question{Content: c.Content, Source: SourceCommunity, Level: lvl})
	}
	return out, nil
}

var _ CardProvider = (*HTTPCardProvider)(nil)
