package notion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jeonjuho23/claude-daily/internal/config"
	"github.com/jeonjuho23/claude-daily/internal/domain"
	"github.com/jeonjuho23/claude-daily/internal/domain/catalog"
	"github.com/jeonjuho23/claude-daily/internal/domain/model"
	"github.com/jeonjuho23/claude-daily/internal/domain/ports/adapter"
	"github.com/jeonjuho23/claude-daily/internal/infra/i18n"
)

var _ adapter.DocumentPublisher = (*Publisher)(nil)

const (
	maxTags      = 10
	maxTextRunes = 2000
)

// Publisher creates pages in a Notion database through notionapi.
type Publisher struct {
	client     *notionapi.Client
	databaseID notionapi.DatabaseID
	reportDB   notionapi.DatabaseID

	author  string
	tr      *i18n.Translator
	cat     *catalog.Catalog
	loc     *time.Location
	limiter *rate.Limiter
	log     *zerolog.Logger
}

// NewPublisher returns a publisher bound to cfg. Reports go to the content
// database unless cfg.ReportDatabaseID is set.
func NewPublisher(cfg config.NotionConfig, perSecond float64, author string, tr *i18n.Translator, cat *catalog.Catalog, loc *time.Location, logger *zerolog.Logger) (*Publisher, error) {
	if cfg.APIKey == "" || cfg.DatabaseID == "" {
		return nil, fmt.Errorf("%w: notion api key and database id are required", domain.ErrInvalidArgument)
	}
	if perSecond <= 0 {
		perSecond = 2.5
	}
	if cat == nil {
		cat = catalog.Default()
	}
	if loc == nil {
		loc = time.Local
	}
	reportDB := cfg.ReportDatabaseID
	if reportDB == "" {
		reportDB = cfg.DatabaseID
	}
	transport, err := baseURLTransport(cfg.BaseURL, http.DefaultTransport)
	if err != nil {
		return nil, err
	}

	opts := []notionapi.ClientOption{
		notionapi.WithHTTPClient(&http.Client{Timeout: 30 * time.Second, Transport: transport}),
		// 429s surface immediately; the execution pipeline owns retries.
		notionapi.WithRetry(1),
	}
	if cfg.Version != "" {
		opts = append(opts, notionapi.WithVersion(cfg.Version))
	}

	l := logger.With().Str("component", "NotionPublisher").Logger()
	return &Publisher{
		client:     notionapi.NewClient(notionapi.Token(cfg.APIKey), opts...),
		databaseID: notionapi.DatabaseID(cfg.DatabaseID),
		reportDB:   notionapi.DatabaseID(reportDB),
		author:     author,
		tr:         tr,
		cat:        cat,
		loc:        loc,
		limiter:    rate.NewLimiter(rate.Limit(perSecond), 2),
		log:        &l,
	}, nil
}

func (p *Publisher) CreateContentPage(ctx context.Context, c *model.ContentRecord) (string, string, error) {
	tags := c.Tags
	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}
	created := c.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	author := c.Author
	if author == "" {
		author = p.author
	}

	props := notionapi.Properties{
		p.tr.T("notion_prop_title"):      titleProp(c.Title),
		p.tr.T("notion_prop_category"):   selectProp(p.cat.DisplayName(c.Category, p.tr.Lang())),
		p.tr.T("notion_prop_difficulty"): selectProp(p.tr.T("difficulty_" + string(c.Difficulty))),
		p.tr.T("notion_prop_tags"):       multiSelectProp(tags...),
		p.tr.T("notion_prop_date"):       dateProp(created.In(p.loc)),
		p.tr.T("notion_prop_author"):     richTextProp(author),
		p.tr.T("notion_prop_status"):     selectProp(p.tr.T("notion_status_published")),
	}
	children := []notionapi.Block{
		&notionapi.CalloutBlock{
			BasicBlock: basicBlock(notionapi.BlockTypeCallout),
			Callout:    notionapi.Callout{RichText: richText(c.Summary)},
		},
	}

	page, err := p.createPage(ctx, p.databaseID, props, children)
	if err != nil {
		return "", "", fmt.Errorf("create content page: %w", err)
	}
	p.log.Info().Str("page_id", string(page.ID)).Str("title", c.Title).Msg("notion page created")
	return string(page.ID), page.URL, nil
}

func (p *Publisher) CreateReportPage(ctx context.Context, r *model.ReportData) (string, string, error) {
	kind := p.tr.T("notion_report_weekly")
	if r.Type == model.ReportTypeMonthly {
		kind = p.tr.T("notion_report_monthly")
	}
	start := r.PeriodStart.In(p.loc).Format("2006-01-02")
	end := r.LastDay().In(p.loc).Format("2006-01-02")
	generated := r.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	props := notionapi.Properties{
		p.tr.T("notion_prop_title"):      titleProp(p.tr.T("notion_report_title", kind, start, end)),
		p.tr.T("notion_prop_category"):   selectProp(p.tr.T("notion_report_category")),
		p.tr.T("notion_prop_difficulty"): selectProp("-"),
		p.tr.T("notion_prop_tags"):       multiSelectProp(kind, p.tr.T("notion_report_tag_stats")),
		p.tr.T("notion_prop_date"):       dateProp(generated.In(p.loc)),
		p.tr.T("notion_prop_author"):     richTextProp(p.tr.T("notion_report_author")),
		p.tr.T("notion_prop_status"):     selectProp(p.tr.T("notion_status_published")),
	}

	children := []notionapi.Block{
		heading(p.tr.T("notion_report_summary")),
		bullet(p.tr.T("notion_report_period", start, end)),
		bullet(p.tr.T("notion_report_total", r.TotalCount)),
		bullet(p.tr.T("notion_report_success", r.SuccessCount)),
		bullet(p.tr.T("notion_report_failed", r.FailedCount)),
		bullet(p.tr.T("notion_report_retry", r.RetryCount)),
	}
	if r.AvgDurationMs != nil && r.MinDurationMs != nil && r.MaxDurationMs != nil {
		children = append(children, bullet(p.tr.T("report_duration", *r.AvgDurationMs, *r.MinDurationMs, *r.MaxDurationMs)))
	}
	children = append(children, divider())

	if len(r.CategoryDistribution) > 0 {
		children = append(children, heading(p.tr.T("report_distribution")))
		cats := make([]model.Category, 0, len(r.CategoryDistribution))
		for c := range r.CategoryDistribution {
			cats = append(cats, c)
		}
		sort.Slice(cats, func(i, j int) bool {
			ci, cj := r.CategoryDistribution[cats[i]], r.CategoryDistribution[cats[j]]
			if ci != cj {
				return ci > cj
			}
			return cats[i] < cats[j]
		})
		for _, c := range cats {
			children = append(children, bullet(p.tr.T("notion_report_count", p.cat.DisplayName(c, p.tr.Lang()), r.CategoryDistribution[c])))
		}
		children = append(children, divider())
	}
	if len(r.UncoveredCategories) > 0 {
		names := make([]string, len(r.UncoveredCategories))
		for i, c := range r.UncoveredCategories {
			names[i] = p.cat.DisplayName(c, p.tr.Lang())
		}
		children = append(children, heading(p.tr.T("notion_report_uncovered")), paragraph(strings.Join(names, ", ")))
	}

	page, err := p.createPage(ctx, p.reportDB, props, children)
	if err != nil {
		return "", "", fmt.Errorf("create report page: %w", err)
	}
	p.log.Info().Str("page_id", string(page.ID)).Str("report_type", string(r.Type)).Msg("report page created")
	return string(page.ID), page.URL, nil
}

// HealthCheck retrieves the content database.
func (p *Publisher) HealthCheck(ctx context.Context) bool {
	if err := p.limiter.Wait(ctx); err != nil {
		return false
	}
	if _, err := p.client.Database.Get(ctx, p.databaseID); err != nil {
		p.log.Warn().Err(classify(err)).Msg("notion health check failed")
		return false
	}
	return true
}

func (p *Publisher) createPage(ctx context.Context, databaseID notionapi.DatabaseID, props notionapi.Properties, children []notionapi.Block) (*notionapi.Page, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	page, err := p.client.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: databaseID,
		},
		Properties: props,
		Children:   children,
	})
	if err != nil {
		return nil, classify(err)
	}
	if page == nil || page.ID == "" {
		return nil, domain.NonRetryable(errors.New("notion: page response without id"))
	}
	return page, nil
}

// classify marks rate limits, conflicts, server errors and transport failures
// as retryable. Other API errors such as validation or auth are not.
func classify(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var limited *notionapi.RateLimitedError
	if errors.As(err, &limited) {
		return domain.Retryable(fmt.Errorf("notion: %w", err))
	}
	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Status == http.StatusTooManyRequests || apiErr.Status >= 500 || string(apiErr.Code) == "conflict_error" {
			return domain.Retryable(fmt.Errorf("notion: %w", err))
		}
		return domain.NonRetryable(fmt.Errorf("notion: %w", err))
	}
	return domain.Retryable(fmt.Errorf("notion: %w", err))
}

// baseURLTransport sends requests to base instead of the public API host.
// The default host needs no rewriting.
func baseURLTransport(base string, next http.RoundTripper) (http.RoundTripper, error) {
	if base == "" {
		return next, nil
	}
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: notion base url %q", domain.ErrInvalidArgument, base)
	}
	if u.Host == "api.notion.com" && u.Scheme == "https" {
		return next, nil
	}
	return rewriteTransport{base: u, next: next}, nil
}

type rewriteTransport struct {
	base *url.URL
	next http.RoundTripper
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = t.base.Scheme
	out.URL.Host = t.base.Host
	out.URL.Path = t.base.Path + strings.TrimPrefix(req.URL.Path, "/v1")
	out.Host = t.base.Host
	return t.next.RoundTrip(out)
}

func richText(s string) []notionapi.RichText {
	if utf8.RuneCountInString(s) > maxTextRunes {
		s = string([]rune(s)[:maxTextRunes])
	}
	return []notionapi.RichText{{Type: "text", Text: &notionapi.Text{Content: s}}}
}

func titleProp(s string) notionapi.TitleProperty {
	return notionapi.TitleProperty{Type: notionapi.PropertyTypeTitle, Title: richText(s)}
}

func richTextProp(s string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{Type: notionapi.PropertyTypeRichText, RichText: richText(s)}
}

func selectProp(s string) notionapi.SelectProperty {
	return notionapi.SelectProperty{Type: notionapi.PropertyTypeSelect, Select: notionapi.Option{Name: s}}
}

// dateProp sends the calendar day only.
func dateProp(t time.Time) notionapi.DateProperty {
	day := notionapi.Date(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
	return notionapi.DateProperty{Type: notionapi.PropertyTypeDate, Date: &notionapi.DateObject{Start: &day}}
}

// multiSelectProp drops commas, which Notion rejects in option names.
func multiSelectProp(names ...string) notionapi.MultiSelectProperty {
	opts := make([]notionapi.Option, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(strings.ReplaceAll(n, ",", " "))
		if n == "" {
			continue
		}
		opts = append(opts, notionapi.Option{Name: n})
	}
	return notionapi.MultiSelectProperty{Type: notionapi.PropertyTypeMultiSelect, MultiSelect: opts}
}

func basicBlock(kind notionapi.BlockType) notionapi.BasicBlock {
	return notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: kind}
}

func heading(s string) notionapi.Block {
	return &notionapi.Heading2Block{
		BasicBlock: basicBlock(notionapi.BlockTypeHeading2),
		Heading2:   notionapi.Heading{RichText: richText(s)},
	}
}

func bullet(s string) notionapi.Block {
	return &notionapi.BulletedListItemBlock{
		BasicBlock:       basicBlock(notionapi.BlockTypeBulletedListItem),
		BulletedListItem: notionapi.ListItem{RichText: richText(s)},
	}
}

func paragraph(s string) notionapi.Block {
	return &notionapi.ParagraphBlock{
		BasicBlock: basicBlock(notionapi.BlockTypeParagraph),
		Paragraph:  notionapi.Paragraph{RichText: richText(s)},
	}
}

func divider() notionapi.Block {
	return &notionapi.DividerBlock{BasicBlock: basicBlock(notionapi.BlockTypeDivider)}
}
