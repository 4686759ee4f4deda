package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"
)

const (
	defaultWatchURL = "https://www.youtube.com/watch"
	userAgentChrome = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

	// playerResponseMarker marks the player response JSON in watch page HTML.
	playerResponseMarker = "ytInitialPlayerResponse = "

	maxWatchPageBytes = 6 << 20
	maxCaptionBytes   = 4 << 20
)

// YouTubeFetcher reads caption tracks from the YouTube watch page and
// downloads them as timedtext XML.
type YouTubeFetcher struct {
	watchURL string
	client   *http.Client
	limiter  *rate.Limiter
}

// YouTubeOption configures a YouTubeFetcher.
type YouTubeOption func(*YouTubeFetcher)

// WithWatchURL overrides the watch page endpoint.
func WithWatchURL(u string) YouTubeOption {
	return func(f *YouTubeFetcher) { f.watchURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) YouTubeOption {
	return func(f *YouTubeFetcher) { f.client = c }
}

// WithRateLimit sets the request pacing. A zero limit disables pacing.
func WithRateLimit(r rate.Limit, burst int) YouTubeOption {
	return func(f *YouTubeFetcher) {
		if r == 0 {
			f.limiter = nil
			return
		}
		f.limiter = rate.NewLimiter(r, burst)
	}
}

// NewYouTubeFetcher creates a fetcher with sensible defaults: a 30s client
// timeout and at most two requests per second.
func NewYouTubeFetcher(opts ...YouTubeOption) *YouTubeFetcher {
	f := &YouTubeFetcher{
		watchURL: defaultWatchURL,
		client:   &http.Client{Timeout: 30 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(2), 1),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type playerResponse struct {
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
	Name         struct {
		SimpleText string `json:"simpleText"`
		Runs       []struct {
			Text string `json:"text"`
		} `json:"runs"`
	} `json:"name"`
}

func (t captionTrack) displayName() string {
	if t.Name.SimpleText != "" {
		return t.Name.SimpleText
	}
	var parts []string
	for _, r := range t.Name.Runs {
		parts = append(parts, r.Text)
	}
	return strings.Join(parts, "")
}

// ListTracks scrapes the watch page for the player response and returns its
// caption tracks.
func (f *YouTubeFetcher) ListTracks(ctx context.Context, videoID string) ([]Track, error) {
	u, err := url.Parse(f.watchURL)
	if err != nil {
		return nil, fmt.Errorf("parse watch URL: %w", err)
	}
	q := u.Query()
	q.Set("v", videoID)
	u.RawQuery = q.Encode()

	body, status, err := f.get(ctx, u.String(), maxWatchPageBytes)
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}
	if status == http.StatusNotFound {
		return nil, &UnavailableError{VideoID: videoID, Reason: "video not found"}
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("watch page returned HTTP %d", status)
	}

	idx := strings.Index(string(body), playerResponseMarker)
	if idx < 0 {
		return nil, &UnavailableError{VideoID: videoID, Reason: "video cannot be resolved"}
	}
	raw := extractJSON(body[idx+len(playerResponseMarker):])
	if raw == nil {
		return nil, errors.New("failed to extract player response JSON")
	}

	var pr playerResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return nil, fmt.Errorf("decode player response: %w", err)
	}

	if pr.Captions == nil {
		if pr.PlayabilityStatus != nil && pr.PlayabilityStatus.Status != "" && pr.PlayabilityStatus.Status != "OK" {
			reason := pr.PlayabilityStatus.Reason
			if reason == "" {
				reason = strings.ToLower(pr.PlayabilityStatus.Status)
			}
			return nil, &UnavailableError{VideoID: videoID, Reason: "video unavailable: " + reason}
		}
		return nil, &UnavailableError{VideoID: videoID, Reason: "captions are disabled"}
	}

	captionTracks := pr.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(captionTracks) == 0 {
		return nil, &UnavailableError{VideoID: videoID, Reason: "no caption tracks"}
	}

	tracks := make([]Track, 0, len(captionTracks))
	for _, ct := range captionTracks {
		tracks = append(tracks, Track{
			LanguageCode: ct.LanguageCode,
			Name:         ct.displayName(),
			Generated:    ct.Kind == "asr",
			BaseURL:      ct.BaseURL,
		})
	}
	return tracks, nil
}

// FetchTrack downloads a timedtext track. Both the legacy <text start dur>
// format and the srv3 <p t d> format (milliseconds) are understood.
func (f *YouTubeFetcher) FetchTrack(ctx context.Context, track Track) ([]Snippet, error) {
	if track.BaseURL == "" {
		return nil, errors.New("caption track has no URL")
	}
	body, status, err := f.get(ctx, track.BaseURL, maxCaptionBytes)
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("timedtext returned HTTP %d", status)
	}
	return parseTimedText(body)
}

func (f *YouTubeFetcher) get(ctx context.Context, rawURL string, limit int64) ([]byte, int, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, 0, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", userAgentChrome)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	// Skips the EU consent interstitial.
	req.AddCookie(&http.Cookie{Name: "CONSENT", Value: "YES+1"})

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

type timedText struct {
	Lines []timedLine `xml:"text"`
	Body  struct {
		Paragraphs []timedParagraph `xml:"p"`
	} `xml:"body"`
}

type timedLine struct {
	Start string `xml:"start,attr"`
	Dur   string `xml:"dur,attr"`
	Text  string `xml:",chardata"`
}

type timedParagraph struct {
	T     string `xml:"t,attr"`
	D     string `xml:"d,attr"`
	Inner string `xml:",innerxml"`
}

func parseTimedText(data []byte) ([]Snippet, error) {
	var tt timedText
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	dec.Entity = xml.HTMLEntity
	if err := dec.Decode(&tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}

	snippets := make([]Snippet, 0, len(tt.Lines)+len(tt.Body.Paragraphs))
	for _, l := range tt.Lines {
		text := markupText(l.Text)
		if text == "" {
			continue
		}
		snippets = append(snippets, Snippet{
			Text:     text,
			Start:    parseSeconds(l.Start, 1),
			Duration: parseSeconds(l.Dur, 1),
		})
	}
	for _, p := range tt.Body.Paragraphs {
		text := markupText(p.Inner)
		if text == "" {
			continue
		}
		snippets = append(snippets, Snippet{
			Text:     text,
			Start:    parseSeconds(p.T, 1000),
			Duration: parseSeconds(p.D, 1000),
		})
	}
	return snippets, nil
}

// markupText returns the visible text of a caption fragment: tags such as
// <font> or <s> are dropped and entities decoded. Legacy captions carry
// escaped markup and double-escaped entities, so a second unescape pass runs
// on the result.
func markupText(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var sb strings.Builder
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			sb.Write(z.Text())
		}
	}
	text := html.UnescapeString(sb.String())
	return strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
}

func parseSeconds(s string, divisor float64) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	v /= divisor
	return &v
}

// extractJSON returns the complete JSON object starting at b[0] == '{'.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	escaped := false
	for i, c := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}
