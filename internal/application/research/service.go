package research

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/truthlens/internal/domain/assessment"
	"github.com/bryanwahyu/truthlens/internal/infra/ai/prompt"
)

const (
	queryTokens  = 20
	urlTokens    = 100
	answerTokens = 200

	previewLen  = 200
	collatedLen = 4000
	answerInput = 2000
)

var ErrNoSources = errors.New("no valid URLs provided by LLM")

// Completer sends a free-form prompt to a catalog provider.
type Completer interface {
	Complete(ctx context.Context, providerID, model, text string, maxTokens int) (string, error)
}

// Scraper fetches the paragraphs of one page relevant to query.
type Scraper interface {
	Scrape(ctx context.Context, url, query string) (string, error)
}

type Service struct {
	LLM        Completer
	Scraper    Scraper
	MaxSources int
	// AllowURL rejects sources that must not be fetched (e.g. internal hosts).
	AllowURL func(string) error
	Logger   logrus.FieldLogger
}

type source struct {
	url     string
	content string
	err     error
}

// Research asks the model for a query and candidate sources, scrapes them
// and asks for a final answer over the collated content. The report is a
// markdown text result; failures come back as a tagged Result.
func (s *Service) Research(ctx context.Context, providerID, model, text string) assessment.Result {
	report, err := s.run(ctx, providerID, model, text)
	if err != nil {
		s.logger().WithError(err).WithField("provider", providerID).Warn("research failed")
		return assessment.Failed("", assessment.Classify(err), "Research failed: "+err.Error())
	}
	return assessment.Texted("", report, report)
}

func (s *Service) run(ctx context.Context, providerID, model, text string) (string, error) {
	query, err := s.LLM.Complete(ctx, providerID, model, prompt.GetQueryPrompt(text), queryTokens)
	if err != nil {
		return "", fmt.Errorf("search query: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Search Query:** %s\n\n", query)

	urlText, err := s.LLM.Complete(ctx, providerID, model, prompt.GetURLPrompt(text, s.maxSources()), urlTokens)
	if err != nil {
		return "", fmt.Errorf("source selection: %w", err)
	}
	urls := selectURLs(urlText, s.maxSources())
	if len(urls) == 0 {
		return "", ErrNoSources
	}
	fmt.Fprintf(&b, "**Selected URLs:**\n%s\n\n", strings.Join(urls, "\n"))

	sources := s.scrapeAll(ctx, urls, query)

	var collated strings.Builder
	for i, src := range sources {
		if src.err != nil {
			fmt.Fprintf(&b, "**Error scraping %s:** %v\n", src.url, src.err)
			continue
		}
		fmt.Fprintf(&collated, "**Source %d (%s):**\n%s\n\n", i+1, src.url, src.content)
		fmt.Fprintf(&b, "**Scraped Content Preview from %s:** %s...\n", src.url, truncate(src.content, previewLen))
	}
	fmt.Fprintf(&b, "\n**Collated Scraped Content:**\n%s...\n\n", truncate(collated.String(), collatedLen))

	answer, err := s.LLM.Complete(ctx, providerID, model, prompt.GetAnswerPrompt(text, truncate(collated.String(), answerInput)), answerTokens)
	if err != nil {
		return "", fmt.Errorf("final answer: %w", err)
	}
	fmt.Fprintf(&b, "**Final Answer from LLM:** %s", answer)
	return b.String(), nil
}

// scrapeAll fetches every source concurrently. Per-source failures are kept
// in the result instead of aborting the others.
func (s *Service) scrapeAll(ctx context.Context, urls []string, query string) []source {
	out := make([]source, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(urls))
	for i, u := range urls {
		g.Go(func() error {
			out[i].url = u
			if s.AllowURL != nil {
				if err := s.AllowURL(u); err != nil {
					out[i].err = err
					return nil
				}
			}
			out[i].content, out[i].err = s.Scraper.Scrape(gctx, u, query)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func selectURLs(text string, limit int) []string {
	lines := lo.Map(strings.Split(text, "\n"), func(l string, _ int) string {
		return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(l), "-*0123456789.) "))
	})
	urls := lo.Uniq(lo.Filter(lines, func(l string, _ int) bool {
		return strings.Contains(l, "://")
	}))
	if len(urls) > limit {
		urls = urls[:limit]
	}
	return urls
}

func (s *Service) maxSources() int {
	if s.MaxSources <= 0 {
		return 5
	}
	return s.MaxSources
}

func (s *Service) logger() logrus.FieldLogger {
	if s.Logger == nil {
		return logrus.StandardLogger()
	}
	return s.Logger
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
