package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/johnmalek312/android-ui-collector/internal/capture"
	"github.com/johnmalek312/android-ui-collector/internal/cli/output"
	"github.com/johnmalek312/android-ui-collector/internal/core/domain"
	"github.com/johnmalek312/android-ui-collector/internal/core/service"
	"github.com/johnmalek312/android-ui-collector/internal/core/session"
)

// UploadRetrier resends journaled commits whose upload is pending.
type UploadRetrier interface {
	RetryPending(ctx context.Context) (*service.RetrySummary, error)
}

// Config configures a REPL.
type Config struct {
	Session *session.Session
	Source  capture.Source

	// Uploads enables "retry uploads". Optional.
	Uploads UploadRetrier

	Input  io.Reader
	Output io.Writer

	// History defaults to an in-memory history.
	History *History

	// Formatter renders "status". Defaults to a table.
	Formatter output.Formatter

	Logger *slog.Logger
}

// REPL is the annotation shell.
type REPL struct {
	sess      *session.Session
	source    capture.Source
	uploads   UploadRetrier
	input     io.Reader
	out       *syncWriter
	formatter output.Formatter
	completer *Completer
	history   *History
	logger    *slog.Logger

	// pendingDesc holds a duplicate cube description awaiting confirm.
	pendingDesc string
}

// syncWriter serializes prompt output with asynchronous notifications.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, format, args...)
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// New creates a REPL.
func New(cfg Config) *REPL {
	if cfg.Input == nil {
		cfg.Input = os.Stdin
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.History == nil {
		cfg.History = NewHistory("", 0)
	}
	if cfg.Formatter == nil {
		cfg.Formatter = output.NewFormatter(output.FormatTable, false)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &REPL{
		sess:      cfg.Session,
		source:    cfg.Source,
		uploads:   cfg.Uploads,
		input:     cfg.Input,
		out:       &syncWriter{w: cfg.Output},
		formatter: cfg.Formatter,
		completer: NewCompleter(),
		history:   cfg.History,
		logger:    cfg.Logger,
	}
}

// Run reads commands until quit, end of input or ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	if err := r.history.Load(); err != nil {
		r.logger.Warn("history not loaded", "error", err)
	}
	defer func() {
		if err := r.history.Save(); err != nil {
			r.logger.Warn("history not saved", "error", err)
		}
	}()

	scanner := bufio.NewScanner(r.input)
	r.prompt()
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			r.prompt()
			continue
		}
		r.history.Add(line)

		name, _, _ := strings.Cut(line, " ")
		if name == "quit" || name == "exit" {
			return nil
		}
		if err := r.Execute(ctx, line); err != nil {
			r.out.printf("error: %s\n", describe(err))
		}
		r.prompt()
	}
	r.out.printf("\n")
	return scanner.Err()
}

func (r *REPL) prompt() {
	r.out.printf("uicollector[%s]> ", r.sess.Snapshot().Tag)
}

// Execute runs a single command line.
func (r *REPL) Execute(ctx context.Context, line string) error {
	name, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	cmd, ok := commands[name]
	if !ok || cmd.run == nil {
		if s := r.completer.Suggest(name); s != "" {
			return fmt.Errorf("unknown command %q, did you mean %q?", name, s)
		}
		return fmt.Errorf("unknown command %q, type help", name)
	}

	rest = strings.TrimSpace(rest)
	var args []string
	if cmd.args >= 0 {
		args = strings.Fields(rest)
		if len(args) != cmd.args && !(cmd.optional && len(args) < cmd.args) {
			return fmt.Errorf("usage: %s", cmd.usage)
		}
	} else if rest != "" {
		args = []string{rest}
	}
	return cmd.run(r, ctx, args)
}

// Notify reports a commit outcome. It is safe to call from the goroutine
// draining the commit results.
func (r *REPL) Notify(res *domain.CommitResult) {
	switch res.Status {
	case domain.CommitSuccess:
		r.out.printf("\ncommit %s saved and uploaded\n", res.ID)
	case domain.CommitLocalOnly:
		r.out.printf("\ncommit %s saved locally, upload pending: %s\n", res.ID, describe(res.Err))
	case domain.CommitPartial:
		r.out.printf("\ncommit %s partially saved (%s): %s\n", res.ID, strings.Join(res.Appended, ", "), describe(res.Err))
	default:
		r.out.printf("\ncommit %s failed, draft kept for retry: %s\n", res.ID, describe(res.Err))
	}
}

// describe renders err with its recovery hint, if any.
func describe(err error) string {
	if err == nil {
		return "upload disabled"
	}
	if hint := domain.Hint(err); hint != "" {
		return err.Error() + "\n  hint: " + hint
	}
	return err.Error()
}

// ============================================================================
// Commands
// ============================================================================

type command struct {
	usage string
	// args is the number of whitespace separated arguments; -1 passes
	// the rest of the line as one argument.
	args int
	// optional allows fewer than args arguments.
	optional bool
	run      func(r *REPL, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"capture":    {usage: "capture", run: (*REPL).cmdCapture},
	"again":      {usage: "again", run: (*REPL).cmdAgain},
	"reannotate": {usage: "reannotate", run: (*REPL).cmdAgain},
	"click":      {usage: "click X Y", args: 2, run: (*REPL).cmdClick},
	"drag":       {usage: "drag X1 Y1 X2 Y2", args: 4, run: (*REPL).cmdDrag},
	"set":        {usage: "set I X Y", args: 3, run: (*REPL).cmdSet},
	"delete":     {usage: "delete I", args: 1, run: (*REPL).cmdDelete},
	"center":     {usage: "center X Y", args: 2, run: (*REPL).cmdCenter},
	"undo":       {usage: "undo", run: (*REPL).cmdUndo},
	"redo":       {usage: "redo", run: (*REPL).cmdRedo},
	"zoom":       {usage: "zoom in|out|reset", args: 1, run: (*REPL).cmdZoom},
	"pan":        {usage: "pan DX DY", args: 2, run: (*REPL).cmdPan},
	"desc":       {usage: "desc TEXT", args: -1, run: (*REPL).cmdDesc},
	"confirm":    {usage: "confirm", run: (*REPL).cmdConfirm},
	"retry":      {usage: "retry [uploads]", args: 1, optional: true, run: (*REPL).cmdRetry},
	"cancel":     {usage: "cancel", run: (*REPL).cmdCancel},
	"status":     {usage: "status", run: (*REPL).cmdStatus},
	"help":       {usage: "help", run: (*REPL).cmdHelp},
	"quit":       {usage: "quit"},
	"exit":       {usage: "exit"},
}

func (r *REPL) cmdCapture(ctx context.Context, _ []string) error {
	if err := r.sess.Capture(ctx, r.source); err != nil {
		return err
	}
	r.pendingDesc = ""
	snap := r.sess.Snapshot()
	r.out.printf("captured %s, place 4 cube points\n", snap.Screenshot)
	return nil
}

func (r *REPL) cmdAgain(_ context.Context, _ []string) error {
	if err := r.sess.Reannotate(); err != nil {
		return err
	}
	r.pendingDesc = ""
	r.out.printf("new draft on %s\n", r.sess.Snapshot().Screenshot)
	return nil
}

func (r *REPL) cmdClick(_ context.Context, args []string) error {
	xy, err := parseFloats(args)
	if err != nil {
		return err
	}
	return r.sess.Click(xy[0], xy[1])
}

func (r *REPL) cmdDrag(_ context.Context, args []string) error {
	v, err := parseFloats(args)
	if err != nil {
		return err
	}
	return r.sess.Drag(v[0], v[1], v[2], v[3])
}

func (r *REPL) cmdSet(_ context.Context, args []string) error {
	i, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid index %q", args[0])
	}
	xy, err := parseFloats(args[1:])
	if err != nil {
		return err
	}
	return r.sess.SetCubePoint(i, domain.Point{X: xy[0], Y: xy[1]})
}

func (r *REPL) cmdDelete(_ context.Context, args []string) error {
	i, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid index %q", args[0])
	}
	return r.sess.DeleteCubePoint(i)
}

func (r *REPL) cmdCenter(_ context.Context, args []string) error {
	xy, err := parseFloats(args)
	if err != nil {
		return err
	}
	return r.sess.SetCenter(domain.Point{X: xy[0], Y: xy[1]})
}

func (r *REPL) cmdUndo(_ context.Context, _ []string) error {
	op, err := r.sess.Undo()
	if err != nil {
		return err
	}
	r.out.printf("undid %s\n", op)
	return nil
}

func (r *REPL) cmdRedo(_ context.Context, _ []string) error {
	op, err := r.sess.Redo()
	if err != nil {
		return err
	}
	r.out.printf("redid %s\n", op)
	return nil
}

func (r *REPL) cmdZoom(_ context.Context, args []string) error {
	var changed bool
	var err error
	switch args[0] {
	case "in":
		changed, err = r.sess.ZoomIn()
	case "out":
		changed, err = r.sess.ZoomOut()
	case "reset":
		return r.sess.ResetView()
	default:
		return fmt.Errorf("usage: zoom in|out|reset")
	}
	if err != nil {
		return err
	}
	if !changed {
		r.out.printf("zoom limit reached\n")
		return nil
	}
	r.out.printf("zoom %.2fx\n", r.sess.Snapshot().Zoom)
	return nil
}

func (r *REPL) cmdPan(_ context.Context, args []string) error {
	d, err := parseFloats(args)
	if err != nil {
		return err
	}
	return r.sess.Pan(d[0], d[1])
}

func (r *REPL) cmdDesc(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: desc TEXT")
	}
	text := args[0]

	switch r.sess.State() {
	case session.StateCubeDescriptionPending:
		err := r.sess.SubmitCubeDescription(text, false)
		if errors.Is(err, domain.ErrDuplicateDescription) {
			r.pendingDesc = text
			r.out.printf("%q was already used for this screenshot, type confirm to keep it\n", text)
			return nil
		}
		if err != nil {
			return err
		}
		r.pendingDesc = ""
		r.out.printf("center point set to %s, adjust it or confirm\n", r.sess.Snapshot().Center)
		return nil
	case session.StateCenterDescriptionPending:
		id, err := r.sess.SubmitCenterDescription(ctx, text)
		if err != nil {
			return err
		}
		r.out.printf("commit %s submitted\n", id)
		return nil
	default:
		return domain.ErrPlacementRejected.WithDetails("no description expected in state " + r.sess.State().String())
	}
}

func (r *REPL) cmdConfirm(_ context.Context, _ []string) error {
	if r.pendingDesc != "" && r.sess.State() == session.StateCubeDescriptionPending {
		desc := r.pendingDesc
		if err := r.sess.SubmitCubeDescription(desc, true); err != nil {
			return err
		}
		r.pendingDesc = ""
		r.out.printf("center point set to %s, adjust it or confirm\n", r.sess.Snapshot().Center)
		return nil
	}
	if err := r.sess.ConfirmCenter(); err != nil {
		return err
	}
	r.out.printf("center point confirmed, describe it with desc TEXT\n")
	return nil
}

func (r *REPL) cmdRetry(ctx context.Context, args []string) error {
	if len(args) == 1 {
		if args[0] != "uploads" {
			return fmt.Errorf("usage: retry [uploads]")
		}
		if r.uploads == nil {
			return domain.ErrUploadDisabled
		}
		summary, err := r.uploads.RetryPending(ctx)
		if summary != nil {
			if ferr := r.formatter.Format(r.out, summary); ferr != nil {
				return ferr
			}
		}
		return err
	}

	n, err := r.sess.RetryFailed(ctx)
	if err != nil {
		return err
	}
	r.out.printf("resubmitted %d draft(s)\n", n)
	return nil
}

func (r *REPL) cmdCancel(_ context.Context, _ []string) error {
	if err := r.sess.Cancel(); err != nil {
		return err
	}
	r.pendingDesc = ""
	r.out.printf("draft discarded\n")
	return nil
}

func (r *REPL) cmdStatus(_ context.Context, _ []string) error {
	return r.formatter.Format(r.out, r.sess.Snapshot())
}

func (r *REPL) cmdHelp(_ context.Context, _ []string) error {
	for _, name := range r.completer.Complete("") {
		r.out.printf("  %s\n", r.completer.Usage(name))
	}
	return nil
}

func parseFloats(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", a)
		}
		out[i] = v
	}
	return out, nil
}
