package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"github.com/bryanwahyu/truthlens/internal/application"
	"github.com/bryanwahyu/truthlens/internal/domain/assessment"
	"github.com/bryanwahyu/truthlens/internal/domain/message"
)

// ErrConsoleHidden is returned when assessment mode is requested while the
// console panel is not visible.
var ErrConsoleHidden = errors.New("console panel is not visible")

// ErrUnknownProvider is returned by Select for a provider outside the catalog.
var ErrUnknownProvider = errors.New("unknown provider")

// Messenger carries a request to the dispatcher and returns its reply.
type Messenger interface {
	Send(ctx context.Context, req message.Request) (message.Reply, error)
}

// MessengerFunc adapts a function to Messenger.
type MessengerFunc func(ctx context.Context, req message.Request) (message.Reply, error)

func (f MessengerFunc) Send(ctx context.Context, req message.Request) (message.Reply, error) {
	return f(ctx, req)
}

// Local returns a Messenger that dispatches in process through a.
func Local(a assessment.Assessor) Messenger {
	return MessengerFunc(func(ctx context.Context, req message.Request) (message.Reply, error) {
		return message.NewReply(a.Assess(ctx, req.Assessment())), nil
	})
}

// Selection is the provider, model and kind chosen in the panel.
type Selection struct {
	Provider   string
	Model      string
	Kind       assessment.Kind
	UserPrompt string
}

// Outcome reports what a click did.
type Outcome struct {
	Submitted bool
	Result    assessment.Result
	Label     *Label
}

// Option configures an Agent.
type Option func(*Agent)

// WithClock sets the clock used to timestamp console entries.
func WithClock(c application.Clock) Option { return func(a *Agent) { a.clock = c } }

// WithLogger mirrors console entries to l.
func WithLogger(l logrus.FieldLogger) Option { return func(a *Agent) { a.log = l } }

// WithAfterFunc replaces time.AfterFunc for outline and label expiry. f is
// called with the agent locked and must not run its callback synchronously.
func WithAfterFunc(f func(time.Duration, func())) Option {
	return func(a *Agent) { a.after = f }
}

type outline struct {
	style   string
	present bool
	gen     int
}

// Agent is the page-side half of the system: it turns clicks on a Page into
// dispatcher requests and renders the replies.
type Agent struct {
	page      *Page
	messenger Messenger
	clock     application.Clock
	log       logrus.FieldLogger
	after     func(time.Duration, func())

	mu        sync.Mutex
	console   console
	assessing bool
	selection Selection
	providers []message.Provider
	labels    []Label
	nextLabel uint64
	outlines  map[*html.Node]*outline
}

// New builds an agent for page sending requests through m.
func New(page *Page, m Messenger, opts ...Option) *Agent {
	a := &Agent{
		page:      page,
		messenger: m,
		clock:     application.SystemClock{},
		log:       logrus.StandardLogger(),
		after:     func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		selection: Selection{Kind: assessment.KindTruthScore},
		outlines:  map[*html.Node]*outline{},
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// HandleMessage answers a toggle message from the extension surface.
func (a *Agent) HandleMessage(msg message.Toggle) (message.ToggleReply, bool) {
	if msg.Type != message.TypeToggleConsole {
		return message.ToggleReply{}, false
	}
	return message.ToggleReply{ConsoleVisible: a.ToggleConsole()}, true
}

// ToggleConsole injects, shows or hides the panel and reports whether it is
// now visible. Hiding the panel switches assessment mode off.
func (a *Agent) ToggleConsole() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	visible, injected := a.console.toggle()
	if injected {
		a.logLocked(LogInfo, "Console initialized", "")
		return true
	}
	if !visible && a.assessing {
		a.assessing = false
		a.logLocked(LogInfo, "Click assessment disabled", "")
	}
	a.logLocked(LogInfo, "Console toggled to "+a.console.state.String(), "")
	return visible
}

// ConsoleState returns the panel lifecycle state.
func (a *Agent) ConsoleState() ConsoleState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.console.state
}

// SetAssessing switches click assessment mode.
func (a *Agent) SetAssessing(on bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if on && !a.console.visible() {
		return ErrConsoleHidden
	}
	if a.assessing == on {
		return nil
	}
	a.assessing = on
	if on {
		a.logLocked(LogInfo, "Click assessment enabled", "Click on any text to assess its truthfulness.")
	} else {
		a.logLocked(LogInfo, "Click assessment disabled", "")
	}
	return nil
}

// Assessing reports whether clicks are being assessed.
func (a *Agent) Assessing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.assessing
}

// SetProviders installs the catalog used to validate selections.
func (a *Agent) SetProviders(ps []message.Provider) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.providers = ps
}

// Select changes the active provider, model and kind. An empty model picks
// the provider's first model.
func (a *Agent) Select(sel Selection) error {
	if sel.Kind == "" {
		sel.Kind = assessment.KindTruthScore
	}
	if !sel.Kind.Valid() {
		return fmt.Errorf("%w: %s", assessment.ErrInvalidKind, sel.Kind)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.providers) > 0 {
		p, ok := lo.Find(a.providers, func(p message.Provider) bool { return p.ID == sel.Provider })
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownProvider, sel.Provider)
		}
		if sel.Model == "" && len(p.Models) > 0 {
			sel.Model = p.Models[0]
		}
	}
	a.selection = sel
	return nil
}

// Selection returns the current selection.
func (a *Agent) Selection() Selection {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.selection
}

// Click handles a click on target at page coordinates (x, y). Clicks while
// assessment mode is off are ignored.
func (a *Agent) Click(ctx context.Context, target *html.Node, x, y int) Outcome {
	a.mu.Lock()
	if !a.assessing {
		a.mu.Unlock()
		return Outcome{}
	}
	sel := a.selection
	block := BlockAncestor(target)
	text := strings.TrimSpace(TextContent(block))
	if text == "" {
		a.logLocked(LogWarning, noTextMessage, noTextDetails)
		a.mu.Unlock()
		return Outcome{Result: assessment.FailedErr(sel.Kind, assessment.ErrNoText)}
	}
	a.highlightLocked(block)
	a.logLocked(LogInfo, "Processing text: "+preview(text), "")
	a.mu.Unlock()

	rep, err := a.messenger.Send(ctx, message.Request{
		Action:      message.ActionAssess,
		Text:        text,
		APIProvider: sel.Provider,
		Model:       sel.Model,
		PromptType:  string(sel.Kind),
		UserPrompt:  sel.UserPrompt,
	})
	var res assessment.Result
	if err != nil {
		res = assessment.Failed(sel.Kind, assessment.CategoryNetwork, "API request failed: "+err.Error())
	} else {
		res = rep.ToResult(sel.Kind)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	label := a.showLocked(x, y, res)
	a.reportLocked(res)
	return Outcome{Submitted: true, Result: res, Label: &label}
}

// Research runs the research flow on text and logs the report.
func (a *Agent) Research(ctx context.Context, text string) assessment.Result {
	a.mu.Lock()
	sel := a.selection
	a.logLocked(LogInfo, "Performing research on: "+preview(text), "")
	a.mu.Unlock()

	rep, err := a.messenger.Send(ctx, message.Request{
		Action:      message.ActionResearch,
		Text:        text,
		APIProvider: sel.Provider,
		Model:       sel.Model,
	})
	var res assessment.Result
	if err != nil {
		res = assessment.Failed(sel.Kind, assessment.CategoryNetwork, "Research failed: "+err.Error())
	} else {
		res = rep.ToResult(sel.Kind)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if res.OK() {
		a.logLocked(LogSuccess, "Research completed", res.Display())
	} else {
		a.logLocked(LogError, "Research failed", res.Display())
	}
	return res
}

// Labels returns the labels currently drawn, oldest first.
func (a *Agent) Labels() []Label {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Label, len(a.labels))
	copy(out, a.labels)
	return out
}

// Entries returns the console log.
func (a *Agent) Entries() []LogEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.console.snapshot()
}

// Clear empties the console log.
func (a *Agent) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.console.clear()
	a.logLocked(LogInfo, "Console cleared", "")
}

// Log appends an entry to the console panel.
func (a *Agent) Log(t LogType, msg, details string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logLocked(t, msg, details)
}

func (a *Agent) logLocked(t LogType, msg, details string) {
	e := LogEntry{Time: a.clock.Now(), Type: t, Message: msg, Details: details}
	fields := logrus.Fields{"type": t}
	if details != "" {
		fields["details"] = details
	}
	entry := a.log.WithFields(fields)
	if !a.console.append(e) {
		entry.Debug(msg)
		return
	}
	switch t {
	case LogError:
		entry.Warn(msg)
	default:
		entry.Debug(msg)
	}
}

func (a *Agent) reportLocked(res assessment.Result) {
	switch {
	case res.Variant == assessment.ResultScore:
		a.logLocked(LogSuccess, scoreCaption+res.Display(), "")
		if res.Raw != "" {
			a.logLocked(LogInfo, "API Response:", res.Raw)
		}
	case res.OK():
		a.logLocked(LogSuccess, fmt.Sprintf("Result (%s):", res.Kind), res.Display())
	default:
		a.logLocked(LogError, "Assessment failed", "Error: "+res.Failure.Message)
		if msg, details, ok := hint(res.Failure.Category); ok {
			a.logLocked(LogInfo, msg, details)
		}
	}
}

// highlightLocked outlines block and schedules the restore of its original
// style. Overlapping highlights of one block restore once, after the last.
func (a *Agent) highlightLocked(block *html.Node) {
	o, ok := a.outlines[block]
	if !ok {
		o = &outline{style: attr(block, "style"), present: hasAttr(block, "style")}
		a.outlines[block] = o
	}
	o.gen++
	gen := o.gen
	style := outlineStyle
	if o.style != "" {
		style = strings.TrimRight(o.style, "; ") + "; " + outlineStyle
	}
	a.page.setStyle(block, style, true)
	a.after(outlineDwell, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		cur, ok := a.outlines[block]
		if !ok || cur.gen != gen {
			return
		}
		a.page.setStyle(block, cur.style, cur.present)
		delete(a.outlines, block)
	})
}

func (a *Agent) showLocked(x, y int, res assessment.Result) Label {
	a.nextLabel++
	l := newLabel(a.nextLabel, x, y, res)
	a.labels = append(a.labels, l)
	id := l.ID
	a.after(l.Dwell, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		a.labels = lo.Reject(a.labels, func(l Label, _ int) bool { return l.ID == id })
	})
	return l
}
