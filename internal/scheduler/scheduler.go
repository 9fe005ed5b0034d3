package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/waterwise/internal/garden"
)

// maxConcurrentUsers bounds how many dashboards the digest builds at once.
const maxConcurrentUsers = 4

// DashboardSource is the part of garden.Service the digest needs.
type DashboardSource interface {
	Dashboard(ctx context.Context, uid string) (garden.Dashboard, error)
}

// UserLister enumerates known users.
type UserLister interface {
	ListUserIDs(ctx context.Context) ([]string, error)
}

// DueReport lists the plants a user should water today.
type DueReport struct {
	UserID string
	City   string
	Plants []string
}

// Scheduler periodically runs the watering digest.
type Scheduler struct {
	scheduler *gocron.Scheduler
	users     UserLister
	garden    DashboardSource
	interval  time.Duration
	log       *zap.Logger
}

// New creates a new Scheduler.
func New(users UserLister, dashboards DashboardSource, interval time.Duration, loc *time.Location, log *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(loc),
		users:     users,
		garden:    dashboards,
		interval:  interval,
		log:       log.Named("scheduler"),
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.log.Info("watering digest disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		reports, err := s.RunDigest(ctx)
		if err != nil {
			s.log.Error("watering digest failed", zap.Error(err))
			return
		}
		for _, r := range reports {
			s.log.Info("plants due today",
				zap.String("uid", r.UserID),
				zap.String("city", r.City),
				zap.Strings("plants", r.Plants))
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// RunDigest builds every user's dashboard and reports the plants due today.
// Users whose dashboard fails are logged and skipped.
func (s *Scheduler) RunDigest(ctx context.Context) ([]DueReport, error) {
	ids, err := s.users.ListUserIDs(ctx)
	if err != nil {
		return nil, err
	}

	s.log.Debug("running watering digest", zap.Int("users", len(ids)))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		reports = make([]DueReport, len(ids))
		sem     = make(chan struct{}, maxConcurrentUsers)
	)

	for i, uid := range ids {
		i, uid := i, uid
		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			d, err := s.garden.Dashboard(ctx, uid)
			if err != nil {
				s.log.Warn("digest skipped user", zap.String("uid", uid), zap.Error(err))
				return
			}

			var due []string
			for _, p := range d.Plants {
				if p.NextWater == garden.NextWaterToday {
					due = append(due, p.CommonName)
				}
			}

			mu.Lock()
			reports[i] = DueReport{UserID: uid, City: d.City, Plants: due}
			mu.Unlock()
		}()
	}
	wg.Wait()

	out := make([]DueReport, 0, len(reports))
	for _, r := range reports {
		if len(r.Plants) > 0 {
			out = append(out, r)
		}
	}
	return out, nil
}
