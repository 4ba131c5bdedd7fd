package commands

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/coursekit/campusctl/internal/api"
	"github.com/coursekit/campusctl/internal/platform"
)

func dashboardCommand() *cli.Command {
	return &cli.Command{
		Name:  "dashboard",
		Usage: "Show your profile, enrollments, and the course catalog",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "keep polling and redraw on changes",
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "polling interval with --watch",
				Value: 10 * time.Second,
			},
		},
		Action: dashboardAction,
	}
}

// dashboardData is one consistent snapshot of the three dashboard queries.
type dashboardData struct {
	Profile     *platform.Profile
	Enrollments []platform.Enrollment
	Courses     []platform.Course
}

func dashboardAction(ctx context.Context, cmd *cli.Command) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	if !cmd.Bool("watch") {
		data, err := fetchDashboard(ctx, s.services)
		if err != nil {
			return humanize(err)
		}
		s.persist()
		renderDashboard(data)
		return nil
	}

	return watchDashboard(ctx, s, cmd.Duration("interval"))
}

// fetchDashboard loads the three dashboard queries concurrently; the first
// failure cancels the rest.
func fetchDashboard(ctx context.Context, services *platform.Services) (*dashboardData, error) {
	g, gctx := errgroup.WithContext(ctx)
	data := &dashboardData{}

	g.Go(func() error {
		profile, err := services.Profile.Get(gctx)
		data.Profile = profile
		return err
	})
	g.Go(func() error {
		enrollments, err := services.Enrollments.List(gctx)
		data.Enrollments = enrollments
		return err
	})
	g.Go(func() error {
		courses, err := services.Courses.List(gctx)
		data.Courses = courses
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

// renderLoop serializes dashboard rendering across polls. Issuing a
// sequence number and applying a result both hold the same mutex, so the
// staleness check and the render are a single atomic step: once a newer
// poll's result has been applied, an older one can no longer slip through
// between its check and its render.
type renderLoop struct {
	mu      sync.Mutex
	tracker api.Tracker
}

// next issues the sequence number for a new poll.
func (l *renderLoop) next() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tracker.Next()
}

// apply renders the result for seq unless a newer poll has been issued.
// Reports whether the render happened.
func (l *renderLoop) apply(seq uint64, render func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.tracker.Current(seq) {
		return false
	}
	render()
	return true
}

// watchDashboard polls the dashboard queries on a fixed interval. Network
// completions may arrive out of order, so every poll takes a sequence
// number and a result is rendered only while its number is still current;
// stale results are dropped silently. The superseded fetch is also
// cancelled cooperatively, though an already-dispatched request can only
// be ignored, not terminated.
func watchDashboard(ctx context.Context, s *session, interval time.Duration) error {
	var (
		loop   renderLoop
		cancel context.CancelFunc
	)

	poll := func() {
		if cancel != nil {
			cancel()
		}
		pollCtx, pollCancel := context.WithCancel(ctx)
		cancel = pollCancel
		seq := loop.next()

		go func() {
			defer pollCancel()

			data, err := fetchDashboard(pollCtx, s.services)
			if err != nil {
				if pollCtx.Err() == nil {
					slog.Warn("dashboard poll failed", "seq", seq, "error", err)
				}
				return
			}
			if !loop.apply(seq, func() { renderDashboard(data) }) {
				slog.Debug("dropping stale dashboard result", "seq", seq)
			}
		}()
	}

	poll()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.persist()
			return nil
		case <-ticker.C:
			poll()
		}
	}
}

func renderDashboard(data *dashboardData) {
	fmt.Printf("=== %s <%s> ===\n", data.Profile.FullName, data.Profile.Email)

	fmt.Printf("\nEnrollments (%d):\n", len(data.Enrollments))
	for _, e := range data.Enrollments {
		fmt.Printf("  %3d%%  %-10s  %s\n", e.Progress, e.Status, e.CourseRef.Title)
	}

	fmt.Printf("\nCatalog (%d courses):\n", len(data.Courses))
	for _, c := range data.Courses {
		marker := " "
		if c.Published {
			marker = "*"
		}
		fmt.Printf("  %s %s\n", marker, c.Title)
	}
}
