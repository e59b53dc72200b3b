package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ajkarlsson/stint/internal/config"
	"github.com/ajkarlsson/stint/internal/domain/report"
	"github.com/ajkarlsson/stint/internal/domain/task"
	"github.com/ajkarlsson/stint/internal/domain/timelog"
	"github.com/ajkarlsson/stint/internal/domain/tracker"
	"github.com/ajkarlsson/stint/internal/overlay"
	"github.com/ajkarlsson/stint/internal/repository"
	"github.com/ajkarlsson/stint/internal/sqlite"
	"github.com/ajkarlsson/stint/internal/timew"
)

// editTimeLayout is the timestamp form accepted by the modify command.
const editTimeLayout = "2006-01-02T15:04:05"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "stint: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var (
		intervals repository.IntervalStore
		tags      repository.TagStore
	)
	switch cfg.Backend.Strategy {
	case config.StrategyTimew:
		runner := timew.NewCommandRunner(cfg.Backend.Command, time.Duration(cfg.Backend.TimeoutSeconds)*time.Second)
		client := timew.NewClient(runner, logger)
		if err := client.Ping(ctx); err != nil {
			logger.Warn("backend unreachable at startup", "error", err)
		}
		intervals = client
		tags = client
	default:
		db, err := sqlite.New(cfg.DB.Path)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()
		if err := db.RunMigrations(); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}
		intervals = sqlite.NewIntervalRepository(db)
		tags = sqlite.NewTaskRepository(db)
	}

	hiddenStore := overlay.NewHiddenTags(cfg.Overlay.HiddenTagsPath)
	notes := overlay.NewAnnotations(cfg.Overlay.AnnotationsPath)

	taskSvc, err := task.NewService(tags, intervals, hiddenStore, task.DeletePolicy(cfg.Backend.DeletePolicy), logger)
	if err != nil {
		return fmt.Errorf("building task service: %w", err)
	}
	trackerSvc := tracker.NewService(intervals, logger)
	timelogSvc := timelog.NewService(intervals, notes, taskSvc, logger)
	reportSvc := report.NewService(intervals, taskSvc, logger)

	if resumed, err := trackerSvc.Resume(ctx); err != nil {
		logger.Warn("could not check for an open interval", "error", err)
	} else if resumed != nil {
		fmt.Printf("resumed tracking %q (started %s)\n", resumed.Tag, resumed.Start.Format(editTimeLayout))
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		tasks:   taskSvc,
		tracker: trackerSvc,
		timelog: timelogSvc,
		report:  reportSvc,
	}
	a.loop(ctx)

	// Flush the running session even when the control loop exited on a
	// signal; the shutdown write gets its own deadline.
	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer flushCancel()
	trackerSvc.Shutdown(flushCtx)
	return nil
}

type app struct {
	cfg     config.Config
	logger  *slog.Logger
	tasks   *task.Service
	tracker *tracker.Service
	timelog *timelog.Service
	report  *report.Service
}

// loop reads commands line by line until quit, EOF or cancellation.
func (a *app) loop(ctx context.Context) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	fmt.Println(`stint ready, type "help" for commands`)
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			fields := strings.Fields(line)
			if len(fields) == 0 {
				continue
			}
			if fields[0] == "quit" || fields[0] == "exit" {
				return
			}
			if err := a.dispatch(ctx, fields[0], fields[1:]); err != nil {
				fmt.Printf("error: %v\n", err)
			}
		}
	}
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help":
		printHelp()
		return nil
	case "add-project":
		return a.addProject(ctx, args)
	case "add-task":
		return a.addTask(ctx, args)
	case "rename":
		return a.rename(ctx, args)
	case "start":
		return a.start(ctx, args)
	case "stop":
		return a.stop(ctx)
	case "status":
		return a.status()
	case "tree":
		return a.tree(ctx)
	case "list":
		return a.list(ctx, args)
	case "export":
		return a.export(ctx)
	case "total":
		return a.total(ctx, args)
	case "hide":
		return a.hide(ctx, args)
	case "unhide":
		return a.unhide(ctx, args)
	case "delete":
		return a.delete(ctx, args)
	case "note":
		return a.note(args)
	case "modify":
		return a.modify(ctx, args)
	}
	return fmt.Errorf("unknown command %q, type \"help\"", cmd)
}

func (a *app) addProject(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: add-project <project>")
	}
	tag, err := a.tasks.AddProject(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("added project %q\n", tag.String())
	return nil
}

func (a *app) addTask(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: add-task <project> <task>")
	}
	tag, err := a.tasks.AddTask(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Printf("added task %q\n", tag.String())
	return nil
}

func (a *app) rename(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: rename <old-tag> <new-tag>")
	}
	old, err := task.Parse(args[0])
	if err != nil {
		return err
	}
	updated, err := task.Parse(args[1])
	if err != nil {
		return err
	}
	if err := a.tasks.Rename(ctx, old, updated); err != nil {
		return err
	}
	fmt.Printf("renamed %q to %q\n", old.String(), updated.String())
	return nil
}

// start begins tracking a tag. Without an argument the configured
// default task is used and registered on first use.
func (a *app) start(ctx context.Context, args []string) error {
	var tag string
	switch len(args) {
	case 0:
		tag = a.cfg.Tracker.DefaultTask
		if _, err := a.tasks.AddProject(ctx, tag); err != nil && !errors.Is(err, task.ErrDuplicateTag) {
			return err
		}
	case 1:
		tag = args[0]
	default:
		return errors.New("usage: start [tag]")
	}

	run, err := a.tracker.Start(ctx, tag)
	if err != nil {
		return err
	}
	fmt.Printf("tracking %q since %s\n", run.Tag, run.Start.Format(editTimeLayout))
	return nil
}

func (a *app) stop(ctx context.Context) error {
	iv, err := a.tracker.Stop(ctx)
	if err != nil {
		return err
	}
	if iv == nil {
		fmt.Println("nothing is being tracked")
		return nil
	}
	fmt.Printf("stopped @%s after %s\n", iv.ID, formatClock(iv.Duration()))
	return nil
}

func (a *app) status() error {
	run, ok := a.tracker.Current()
	if !ok {
		fmt.Println("idle")
		return nil
	}
	fmt.Printf("tracking %q for %s (interval @%s)\n", run.Tag, formatClock(a.tracker.Elapsed()), run.IntervalID)
	return nil
}

func (a *app) tree(ctx context.Context) error {
	views, err := a.tasks.ListVisible(ctx)
	if err != nil {
		return err
	}
	if len(views) == 0 {
		fmt.Println("no tasks recorded")
		return nil
	}
	for _, view := range views {
		fmt.Println(view.Project)
		for _, t := range view.Tasks {
			fmt.Printf("  %s%s%s\n", view.Project, task.Separator, t)
		}
	}
	return nil
}

func (a *app) list(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: list <tag>")
	}
	ivs, err := a.timelog.List(ctx, args[0])
	if err != nil {
		return err
	}
	if len(ivs) == 0 {
		fmt.Println("no intervals")
		return nil
	}
	for _, iv := range ivs {
		end := "open"
		if iv.Closed() {
			end = iv.End.Format(editTimeLayout)
		}
		line := fmt.Sprintf("@%s  %s  %s .. %s  %s",
			iv.ID, strings.Join(iv.Tags, ","), iv.Start.Format(editTimeLayout), end, formatClock(iv.Duration()))
		if iv.Note != "" {
			line += "  # " + iv.Note
		}
		fmt.Println(line)
	}
	return nil
}

// export dumps every stored interval as JSON, hidden tags included.
func (a *app) export(ctx context.Context) error {
	ivs, err := a.timelog.Export(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(ivs)
}

func (a *app) total(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: total <tag> [all|day|week|month]")
	}
	raw := ""
	if len(args) == 2 {
		raw = args[1]
	}
	period, err := report.ParsePeriod(raw)
	if err != nil {
		return err
	}
	seconds, err := a.report.Total(ctx, args[0], period)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s): %s\n", args[0], period, formatClock(time.Duration(seconds)*time.Second))
	return nil
}

func (a *app) hide(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: hide <tag>")
	}
	tag, err := task.Parse(args[0])
	if err != nil {
		return err
	}
	return a.tasks.Hide(ctx, tag)
}

func (a *app) unhide(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: unhide <tag>")
	}
	tag, err := task.Parse(args[0])
	if err != nil {
		return err
	}
	return a.tasks.Unhide(ctx, tag)
}

// delete removes either a single interval (@id) or a whole tag.
func (a *app) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: delete <tag> | delete @<interval-id>")
	}
	if id, ok := strings.CutPrefix(args[0], "@"); ok {
		return a.timelog.Delete(ctx, id)
	}
	tag, err := task.Parse(args[0])
	if err != nil {
		return err
	}
	return a.tasks.Delete(ctx, tag)
}

func (a *app) note(args []string) error {
	if len(args) < 1 || !strings.HasPrefix(args[0], "@") {
		return errors.New("usage: note @<interval-id> [text]")
	}
	id := strings.TrimPrefix(args[0], "@")
	if len(args) == 1 {
		text, err := a.timelog.Annotation(id)
		if err != nil {
			return err
		}
		if text == "" {
			fmt.Println("no annotation")
		} else {
			fmt.Println(text)
		}
		return nil
	}
	return a.timelog.Annotate(id, strings.Join(args[1:], " "))
}

func (a *app) modify(ctx context.Context, args []string) error {
	if len(args) < 3 || len(args) > 4 || !strings.HasPrefix(args[0], "@") {
		return errors.New("usage: modify @<interval-id> <start> <end> [tag] (times as 2006-01-02T15:04:05)")
	}
	id := strings.TrimPrefix(args[0], "@")
	start, err := time.ParseInLocation(editTimeLayout, args[1], time.Local)
	if err != nil {
		return fmt.Errorf("invalid start time %q: %w", args[1], err)
	}
	end, err := time.ParseInLocation(editTimeLayout, args[2], time.Local)
	if err != nil {
		return fmt.Errorf("invalid end time %q: %w", args[2], err)
	}
	var tags []string
	if len(args) == 4 {
		tags = []string{args[3]}
	}
	return a.timelog.Modify(ctx, id, start, end, tags)
}

func printHelp() {
	fmt.Print(`commands:
  add-project <project>              record a project
  add-task <project> <task>          record a task under a project
  rename <old-tag> <new-tag>         rename a tag, keeping history
  start [tag]                        begin tracking (default task when omitted)
  stop                               close the running interval
  status                             show the running session
  tree                               show visible projects and tasks
  list <tag>                         list intervals for a tag or project
  export                             dump all intervals as JSON, hidden included
  total <tag> [all|day|week|month]   sum tracked seconds
  hide <tag> / unhide <tag>          soft-delete and restore tags
  delete <tag> | delete @<id>        remove a tag or one interval
  note @<id> [text]                  show or set an interval annotation
  modify @<id> <start> <end> [tag]   edit a closed interval
  quit
`)
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// formatClock renders a duration as H:MM:SS.
func formatClock(d time.Duration) string {
	d = d.Truncate(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
