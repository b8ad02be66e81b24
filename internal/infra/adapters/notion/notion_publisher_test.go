//go:build !integration

package notion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"

	"github.com/jeonjuho23/claude-daily/internal/config"
	"github.com/jeonjuho23/claude-daily/internal/domain"
	"github.com/jeonjuho23/claude-daily/internal/domain/catalog"
	"github.com/jeonjuho23/claude-daily/internal/domain/model"
	"github.com/jeonjuho23/claude-daily/internal/infra/i18n"
)

type recordedRequest struct {
	Method  string
	Path    string
	Auth    string
	Version string
	Body    map[string]any
}

type fakeNotion struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	reply    string
}

func (f *fakeNotion) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recordedRequest{
		Method:  r.Method,
		Path:    r.URL.Path,
		Auth:    r.Header.Get("Authorization"),
		Version: r.Header.Get("Notion-Version"),
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&rec.Body)
	}
	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()

	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(f.reply))
}

func newTestPublisher(t *testing.T, fake *fakeNotion, lang string) *Publisher {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	tr, err := i18n.NewTranslator(i18n.LocalesFS, lang)
	if err != nil {
		t.Fatalf("load translator: %v", err)
	}
	logger := zerolog.Nop()
	cfg := config.NotionConfig{
		APIKey:     "secret_test",
		BaseURL:    srv.URL + "/v1/",
		Version:    "2022-06-28",
		DatabaseID: "db-content",
	}
	p, err := NewPublisher(cfg, 1000, "User", tr, catalog.Default(), time.UTC, &logger)
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	return p
}

func TestNewPublisher_RequiresCredentials(t *testing.T) {
	logger := zerolog.Nop()
	_, err := NewPublisher(config.NotionConfig{APIKey: "k"}, 1, "", nil, nil, nil, &logger)
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestCreateContentPage(t *testing.T) {
	// 1. Arrange
	fake := &fakeNotion{reply: `{"id":"page-1","url":"https://notion.so/page-1"}`}
	p := newTestPublisher(t, fake, "ko")
	tags := make([]string, 12)
	for i := range tags {
		tags[i] = "t" + string(rune('a'+i))
	}
	c := &model.ContentRecord{
		Title:      "B+ 트리 인덱스",
		Category:   model.CategoryDatabase,
		Difficulty: model.DifficultyAdvanced,
		Summary:    strings.Repeat("가", 2500),
		Tags:       tags,
		Author:     "jeon",
		CreatedAt:  time.Date(2026, 10, 1, 7, 0, 0, 0, time.UTC),
	}

	// 2. Act
	id, url, err := p.CreateContentPage(context.Background(), c)

	// 3. Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if id != "page-1" || url != "https://notion.so/page-1" {
		t.Errorf("unexpected page: %s %s", id, url)
	}
	if len(fake.requests) != 1 {
		t.Fatalf("expected one request, got %d", len(fake.requests))
	}
	req := fake.requests[0]
	if req.Method != http.MethodPost || req.Path != "/v1/pages" {
		t.Errorf("unexpected route %s %s", req.Method, req.Path)
	}
	if req.Auth != "Bearer secret_test" || req.Version != "2022-06-28" {
		t.Errorf("unexpected headers auth=%q version=%q", req.Auth, req.Version)
	}

	parent := req.Body["parent"].(map[string]any)
	if parent["database_id"] != "db-content" {
		t.Errorf("expected content database parent, got %v", parent)
	}
	props := req.Body["properties"].(map[string]any)
	for _, name := range []string{"제목", "카테고리", "난이도", "태그", "작성일", "작성자", "상태"} {
		if _, ok := props[name]; !ok {
			t.Errorf("expected property %q", name)
		}
	}
	if got := props["난이도"].(map[string]any)["select"].(map[string]any)["name"]; got != "고급" {
		t.Errorf("expected localized difficulty, got %v", got)
	}
	if got, _ := props["작성일"].(map[string]any)["date"].(map[string]any)["start"].(string); !strings.HasPrefix(got, "2026-10-01") {
		t.Errorf("expected creation date, got %v", got)
	}
	if got := len(props["태그"].(map[string]any)["multi_select"].([]any)); got != maxTags {
		t.Errorf("expected tags capped at %d, got %d", maxTags, got)
	}

	callout := req.Body["children"].([]any)[0].(map[string]any)["callout"].(map[string]any)
	text := callout["rich_text"].([]any)[0].(map[string]any)["text"].(map[string]any)["content"].(string)
	if n := len([]rune(text)); n != maxTextRunes {
		t.Errorf("expected summary truncated to %d runes, got %d", maxTextRunes, n)
	}
}

func TestCreateReportPage(t *testing.T) {
	// 1. Arrange
	fake := &fakeNotion{reply: `{"id":"rep-1","url":"https://notion.so/rep-1"}`}
	p := newTestPublisher(t, fake, "en")
	avg, minD, maxD := 1500.0, int64(1000), int64(2000)
	r := &model.ReportData{
		Type:                 model.ReportTypeWeekly,
		PeriodStart:          time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC),
		PeriodEnd:            time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC),
		TotalCount:           7,
		SuccessCount:         6,
		FailedCount:          1,
		CategoryDistribution: map[model.Category]int{model.CategoryNetwork: 2, model.CategoryOS: 5},
		UncoveredCategories:  []model.Category{model.CategorySecurity},
		AvgDurationMs:        &avg,
		MinDurationMs:        &minD,
		MaxDurationMs:        &maxD,
	}

	// 2. Act
	id, _, err := p.CreateReportPage(context.Background(), r)

	// 3. Assert
	if err != nil || id != "rep-1" {
		t.Fatalf("expected rep-1, got %q err=%v", id, err)
	}
	body := fake.requests[0].Body
	title := body["properties"].(map[string]any)["Title"].(map[string]any)["title"].([]any)[0].(map[string]any)["text"].(map[string]any)["content"]
	if title != "[Weekly report] 2026-10-05 ~ 2026-10-11" {
		t.Errorf("unexpected title %v", title)
	}

	var texts []string
	for _, c := range body["children"].([]any) {
		blk := c.(map[string]any)
		kind := blk["type"].(string)
		inner, _ := blk[kind].(map[string]any)
		rt, _ := inner["rich_text"].([]any)
		if len(rt) > 0 {
			texts = append(texts, rt[0].(map[string]any)["text"].(map[string]any)["content"].(string))
		}
	}
	joined := strings.Join(texts, "\n")
	osName := p.cat.DisplayName(model.CategoryOS, "en")
	nwName := p.cat.DisplayName(model.CategoryNetwork, "en")
	if !strings.Contains(joined, "Total: 7") || !strings.Contains(joined, "1500ms (min 1000ms, max 2000ms)") {
		t.Errorf("expected summary bullets, got:\n%s", joined)
	}
	if strings.Index(joined, osName+": 5") > strings.Index(joined, nwName+": 2") {
		t.Errorf("expected distribution sorted by count, got:\n%s", joined)
	}
	if !strings.Contains(joined, p.cat.DisplayName(model.CategorySecurity, "en")) {
		t.Errorf("expected uncovered categories, got:\n%s", joined)
	}
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		reply     string
		retryable bool
	}{
		{"rate limited", http.StatusTooManyRequests, `{"object":"error","status":429,"code":"rate_limited","message":"slow down"}`, true},
		{"server error", http.StatusBadGateway, `<html>bad gateway</html>`, true},
		{"unavailable", http.StatusServiceUnavailable, `{"object":"error","status":503,"code":"service_unavailable","message":"nope"}`, true},
		{"conflict", http.StatusConflict, `{"object":"error","status":409,"code":"conflict_error","message":"nope"}`, true},
		{"validation", http.StatusBadRequest, `{"object":"error","status":400,"code":"validation_error","message":"nope"}`, false},
		{"unauthorized", http.StatusUnauthorized, `{"object":"error","status":401,"code":"unauthorized","message":"nope"}`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeNotion{status: tc.status, reply: tc.reply}
			p := newTestPublisher(t, fake, "en")

			_, _, err := p.CreateContentPage(context.Background(), &model.ContentRecord{Title: "t", Category: model.CategoryOS, Difficulty: model.DifficultyBeginner})

			if err == nil {
				t.Fatal("expected an error")
			}
			if domain.IsRetryable(err) != tc.retryable || domain.IsNonRetryable(err) == tc.retryable {
				t.Errorf("unexpected classification for %d: %v", tc.status, err)
			}
			if len(fake.requests) != 1 {
				t.Errorf("expected a single attempt, got %d", len(fake.requests))
			}
		})
	}

	t.Run("api error detail is kept", func(t *testing.T) {
		fake := &fakeNotion{status: http.StatusBadRequest, reply: `{"object":"error","status":400,"code":"validation_error","message":"nope"}`}
		p := newTestPublisher(t, fake, "en")

		_, _, err := p.CreateContentPage(context.Background(), &model.ContentRecord{Title: "t", Category: model.CategoryOS, Difficulty: model.DifficultyBeginner})

		var apiErr *notionapi.Error
		if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest || apiErr.Message != "nope" {
			t.Errorf("expected api error detail, got %v", err)
		}
	})
}

func TestHealthCheck(t *testing.T) {
	ok := &fakeNotion{reply: `{"id":"db-content"}`}
	if !newTestPublisher(t, ok, "en").HealthCheck(context.Background()) {
		t.Error("expected healthy publisher")
	}
	if ok.requests[0].Method != http.MethodGet || ok.requests[0].Path != "/v1/databases/db-content" {
		t.Errorf("unexpected health route %+v", ok.requests[0])
	}

	bad := &fakeNotion{status: http.StatusUnauthorized, reply: `{"object":"error","status":401,"code":"unauthorized","message":"invalid token"}`}
	if newTestPublisher(t, bad, "en").HealthCheck(context.Background()) {
		t.Error("expected unhealthy publisher")
	}
}

func TestDisabledPublisher(t *testing.T) {
	var p DisabledPublisher
	if _, _, err := p.CreateContentPage(context.Background(), &model.ContentRecord{}); !errors.Is(err, domain.ErrPublisherDisabled) {
		t.Errorf("expected ErrPublisherDisabled, got %v", err)
	}
	if _, _, err := p.CreateReportPage(context.Background(), &model.ReportData{}); !errors.Is(err, domain.ErrPublisherDisabled) {
		t.Errorf("expected ErrPublisherDisabled, got %v", err)
	}
	if p.HealthCheck(context.Background()) {
		t.Error("a disabled publisher must not report healthy")
	}
}

func TestBaseURLTransport(t *testing.T) {
	t.Run("public host is used as is", func(t *testing.T) {
		rt, err := baseURLTransport("https://api.notion.com/v1", http.DefaultTransport)
		if err != nil || rt != http.DefaultTransport {
			t.Errorf("expected the default transport, got %T err=%v", rt, err)
		}
	})

	t.Run("invalid base url is rejected", func(t *testing.T) {
		if _, err := baseURLTransport("not a url", http.DefaultTransport); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
