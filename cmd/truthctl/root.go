package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/truthlens/internal/agent"
	"github.com/bryanwahyu/truthlens/internal/application/assess"
	"github.com/bryanwahyu/truthlens/internal/application/research"
	"github.com/bryanwahyu/truthlens/internal/config"
	"github.com/bryanwahyu/truthlens/internal/domain/assessment"
	"github.com/bryanwahyu/truthlens/internal/domain/message"
	"github.com/bryanwahyu/truthlens/internal/infra/ai/registry"
	"github.com/bryanwahyu/truthlens/internal/infra/messaging"
	"github.com/bryanwahyu/truthlens/internal/infra/scrape"
	"github.com/bryanwahyu/truthlens/internal/logging"
	"github.com/bryanwahyu/truthlens/internal/middleware"
)

const defaultServer = "http://localhost:8080"

type globalFlags struct {
	server  string
	apiKey  string
	timeout time.Duration
	local   bool
	config  string
}

// dispatcher is what the commands need from either a remote or an in-process
// dispatcher.
type dispatcher interface {
	agent.Messenger
	Providers(ctx context.Context) ([]message.Provider, error)
}

// localDispatcher runs the assessment service in process, which is handy
// when no server is running.
type localDispatcher struct {
	svc      *assess.Service
	research *research.Service
}

func (l localDispatcher) Send(ctx context.Context, req message.Request) (message.Reply, error) {
	if req.Action == message.ActionResearch {
		return message.NewReply(l.research.Research(ctx, req.APIProvider, req.Model, req.Text)), nil
	}
	return agent.Local(l.svc).Send(ctx, req)
}

func (l localDispatcher) Providers(ctx context.Context) ([]message.Provider, error) {
	return lo.Map(l.svc.Providers(), func(p assessment.Provider, _ int) message.Provider {
		return message.Provider{ID: p.ID, Name: p.Name, Models: p.Models}
	}), nil
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "truthctl",
		Short:         "Assess the truthfulness of text through an LLM provider",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.server, "server", envOr("TRUTHLENS_SERVER", defaultServer), "Dispatcher base URL")
	root.PersistentFlags().StringVar(&g.apiKey, "api-key", os.Getenv("TRUTHLENS_CLIENT_KEY"), "Dispatcher client key")
	root.PersistentFlags().DurationVar(&g.timeout, "timeout", 2*time.Minute, "Request timeout")
	root.PersistentFlags().BoolVar(&g.local, "local", false, "Dispatch in process instead of calling a server")
	root.PersistentFlags().StringVar(&g.config, "config", envOr("CONFIG_PATH", "config.yaml"), "Config file used with --local")

	root.AddCommand(
		newProvidersCmd(g),
		newAssessCmd(g),
		newResearchCmd(g),
		newPageCmd(g),
	)
	return root
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (g *globalFlags) dispatcher() (dispatcher, error) {
	if !g.local {
		return messaging.New(g.server, g.apiKey, g.timeout), nil
	}
	cfg, err := config.Load(g.config)
	if err != nil {
		return nil, err
	}
	log := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: "stderr"})
	svc := assess.NewService(assess.Options{
		Catalog:     cfg.Providers.Catalog,
		Credentials: cfg.Credentials,
		Completers:  registry.Default(&http.Client{Timeout: cfg.Providers.Timeout}, cfg.Providers.Timeout),
		Logger:      log,
		Timeout:     cfg.Providers.Timeout,
	})
	return localDispatcher{
		svc: svc,
		research: &research.Service{
			LLM:        svc,
			Scraper:    scrape.New(cfg.Research.ScrapeURL, cfg.Research.ScrapeKey, cfg.Providers.Timeout),
			MaxSources: cfg.Research.MaxSources,
			AllowURL:   middleware.ValidateURL,
			Logger:     log,
		},
	}, nil
}

func newProvidersCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the provider catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := g.dispatcher()
			if err != nil {
				return err
			}
			ps, err := d.Providers(cmd.Context())
			if err != nil {
				return err
			}
			if len(ps) == 0 {
				pterm.Info.Println("No providers configured")
				return nil
			}
			rows := pterm.TableData{{"ID", "Name", "Models"}}
			for _, p := range ps {
				rows = append(rows, []string{p.ID, p.Name, strings.Join(p.Models, ", ")})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
		},
	}
}

type selectionFlags struct {
	provider string
	model    string
	kind     string
	prompt   string
}

func (s *selectionFlags) bind(cmd *cobra.Command, withKind bool) {
	cmd.Flags().StringVarP(&s.provider, "provider", "p", "groq", "Provider id")
	cmd.Flags().StringVarP(&s.model, "model", "m", "", "Model (defaults to the provider's first)")
	if withKind {
		cmd.Flags().StringVarP(&s.kind, "kind", "k", string(assessment.KindTruthScore), "Analysis kind")
		cmd.Flags().StringVar(&s.prompt, "prompt", "", "Extra instruction placed before the text")
	}
}

// resolveModel fills an empty model with the provider's first one.
func (s *selectionFlags) resolveModel(ctx context.Context, d dispatcher) error {
	if s.model != "" {
		return nil
	}
	ps, err := d.Providers(ctx)
	if err != nil {
		return err
	}
	for _, p := range ps {
		if p.ID == s.provider && len(p.Models) > 0 {
			s.model = p.Models[0]
		}
	}
	return nil
}

func newAssessCmd(g *globalFlags) *cobra.Command {
	sel := &selectionFlags{}
	cmd := &cobra.Command{
		Use:   "assess [text]",
		Short: "Assess a piece of text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := g.dispatcher()
			if err != nil {
				return err
			}
			if err := sel.resolveModel(cmd.Context(), d); err != nil {
				return err
			}
			kind := assessment.Kind(sel.kind)
			rep, err := d.Send(cmd.Context(), message.Request{
				Action:      message.ActionAssess,
				Text:        strings.Join(args, " "),
				APIProvider: sel.provider,
				Model:       sel.model,
				PromptType:  sel.kind,
				UserPrompt:  sel.prompt,
			})
			if err != nil {
				return err
			}
			return printResult(rep.ToResult(kind))
		},
	}
	sel.bind(cmd, true)
	return cmd
}

func newResearchCmd(g *globalFlags) *cobra.Command {
	sel := &selectionFlags{}
	cmd := &cobra.Command{
		Use:   "research [question]",
		Short: "Research a question using scraped web sources",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := g.dispatcher()
			if err != nil {
				return err
			}
			if err := sel.resolveModel(cmd.Context(), d); err != nil {
				return err
			}
			spinner, _ := pterm.DefaultSpinner.Start("Researching...")
			rep, err := d.Send(cmd.Context(), message.Request{
				Action:      message.ActionResearch,
				Text:        strings.Join(args, " "),
				APIProvider: sel.provider,
				Model:       sel.model,
			})
			if spinner != nil {
				_ = spinner.Stop()
			}
			if err != nil {
				return err
			}
			return printResult(rep.ToResult(assessment.KindFullReport))
		},
	}
	sel.bind(cmd, false)
	return cmd
}

func printResult(res assessment.Result) error {
	switch res.Variant {
	case assessment.ResultScore:
		pterm.Success.Println("Objective Truth Probability: " + res.Display())
	case assessment.ResultFailure:
		pterm.Error.Printfln("[%s] %s", res.Failure.Category, res.Failure.Message)
		return fmt.Errorf("assessment failed")
	default:
		pterm.Println(res.Display())
	}
	return nil
}
