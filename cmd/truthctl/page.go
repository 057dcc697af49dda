package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/truthlens/internal/agent"
	"github.com/bryanwahyu/truthlens/internal/domain/assessment"
)

// clickSpacing spreads simulated clicks down the page so labels do not
// overlap in the output.
const clickSpacing = 40

func newPageCmd(g *globalFlags) *cobra.Command {
	sel := &selectionFlags{}
	var (
		clicks []string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "page [file.html]",
		Short: "Click elements of a local HTML page and show the console panel",
		Long: "Loads an HTML page, opens the console panel, enables click assessment and " +
			"clicks every element named by --click, in order.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			page, err := agent.ParsePage(f)
			f.Close()
			if err != nil {
				return err
			}

			d, err := g.dispatcher()
			if err != nil {
				return err
			}
			log := logrus.New()
			log.SetLevel(logrus.WarnLevel)
			a := agent.New(page, d, agent.WithLogger(log))

			ctx := cmd.Context()
			if ps, err := d.Providers(ctx); err == nil {
				a.SetProviders(ps)
			} else {
				pterm.Warning.Printfln("Could not load provider catalog: %v", err)
			}
			if err := a.Select(agent.Selection{
				Provider:   sel.provider,
				Model:      sel.model,
				Kind:       assessment.Kind(sel.kind),
				UserPrompt: sel.prompt,
			}); err != nil {
				return err
			}

			a.ToggleConsole()
			if err := a.SetAssessing(true); err != nil {
				return err
			}

			for i, id := range clicks {
				target := page.FindByID(id)
				if target == nil {
					a.Log(agent.LogWarning, fmt.Sprintf("No element with id %q", id), "")
					continue
				}
				res := a.Click(ctx, target, 0, i*clickSpacing)
				if res.Label != nil {
					printLabel(id, *res.Label)
				}
			}

			printPanel(a.Entries())

			if out != "" {
				w, err := os.Create(out)
				if err != nil {
					return err
				}
				defer w.Close()
				return page.Render(w)
			}
			return nil
		},
	}
	sel.bind(cmd, true)
	cmd.Flags().StringSliceVar(&clicks, "click", nil, "Ids of the elements to click, in order")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the page, with click outlines applied, to this file")
	return cmd
}

func printLabel(id string, l agent.Label) {
	box := pterm.DefaultBox.WithTitle(fmt.Sprintf("#%s (%d,%d)", id, l.X, l.Y))
	if l.Error {
		box = box.WithBoxStyle(pterm.NewStyle(pterm.FgRed))
	}
	box.Println(strings.Join(l.Lines, "\n"))
}

func printPanel(entries []agent.LogEntry) {
	pterm.DefaultSection.Println("Console")
	for _, e := range entries {
		p := pterm.Info
		switch e.Type {
		case agent.LogSuccess:
			p = pterm.Success
		case agent.LogWarning:
			p = pterm.Warning
		case agent.LogError:
			p = pterm.Error
		}
		p.Printfln("%s %s", pterm.Gray(e.Time.Format("15:04:05")), e.Message)
		if e.Details != "" {
			pterm.Println(pterm.Gray(indent(e.Details)))
		}
	}
}

func indent(s string) string {
	return "    " + strings.ReplaceAll(s, "\n", "\n    ")
}
