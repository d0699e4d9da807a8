package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jengzang/geolife-backend-go/internal/labels"
	"github.com/jengzang/geolife-backend-go/internal/models"
	"github.com/jengzang/geolife-backend-go/internal/trajectory"
)

// Unreadable marks a trajectory file that could not be read
const Unreadable DiscardReason = "unreadable"

// BatchWriter persists one user atomically
type BatchWriter interface {
	SaveUserBatch(ctx context.Context, batch models.UserBatch) error
}

// UserError records a user whose batch was rolled back
type UserError struct {
	UserID int64
	Err    error
}

func (e UserError) Error() string {
	return fmt.Sprintf("user %d: %v", e.UserID, e.Err)
}

func (e UserError) Unwrap() error {
	return e.Err
}

// Report summarises an ingestion run
type Report struct {
	Users       int                   `json:"users"`
	Activities  int                   `json:"activities"`
	TrackPoints int                   `json:"trackPoints"`
	Discarded   map[DiscardReason]int `json:"discarded"`
	Failed      []UserError           `json:"-"`
}

// Coordinator drives parsing, assembly and writing for every user
type Coordinator struct {
	writer  BatchWriter
	workers int
	log     *zap.Logger

	mu     sync.Mutex
	report *Report
}

// NewCoordinator creates a coordinator that runs up to workers users at once
func NewCoordinator(writer BatchWriter, workers int, log *zap.Logger) *Coordinator {
	if workers < 1 {
		workers = 1
	}
	return &Coordinator{
		writer:  writer,
		workers: workers,
		log:     log,
	}
}

// Run ingests the dataset rooted at root. Per-user failures are logged and
// reported; only an unreadable dataset layout aborts the run.
func (c *Coordinator) Run(ctx context.Context, root string) (*Report, error) {
	labeled, err := LoadLabeledIDs(filepath.Join(root, LabeledIDsFile))
	if err != nil {
		return nil, err
	}

	users, skipped, err := DiscoverUsers(filepath.Join(root, DataDir))
	if err != nil {
		return nil, err
	}
	for _, name := range skipped {
		c.log.Warn("skipping folder with non-numeric user id", zap.String("folder", name))
	}

	c.report = &Report{Discarded: make(map[DiscardReason]int)}
	c.log.Info("ingestion started",
		zap.String("root", root),
		zap.Int("users", len(users)),
		zap.Int("labeled_users", len(labeled)),
		zap.Int("workers", c.workers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for _, u := range users {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c.ingestUser(gctx, u, labeled[u.ID])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return c.report, fmt.Errorf("ingestion interrupted: %w", err)
	}

	c.log.Info("ingestion finished",
		zap.Int("users", c.report.Users),
		zap.Int("activities", c.report.Activities),
		zap.Int("track_points", c.report.TrackPoints),
		zap.Int("failed_users", len(c.report.Failed)))

	return c.report, nil
}

func (c *Coordinator) ingestUser(ctx context.Context, u UserDir, hasLabels bool) {
	start := time.Now()
	log := c.log.With(zap.Int64("user_id", u.ID))

	batch, discarded, err := c.assembleUser(u, hasLabels, log)
	if err == nil {
		err = c.writer.SaveUserBatch(ctx, batch)
	}

	userDuration.Observe(time.Since(start).Seconds())

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		usersTotal.WithLabelValues("failed").Inc()
		log.Error("user batch rolled back", zap.Error(err))
		c.report.Failed = append(c.report.Failed, UserError{UserID: u.ID, Err: err})
		return
	}

	points := batch.TrackPointCount()
	usersTotal.WithLabelValues("ok").Inc()
	activitiesTotal.Add(float64(len(batch.Activities)))
	trackPointsTotal.Add(float64(points))

	c.report.Users++
	c.report.Activities += len(batch.Activities)
	c.report.TrackPoints += points
	for reason, n := range discarded {
		discardedTotal.WithLabelValues(string(reason)).Add(float64(n))
		c.report.Discarded[reason] += n
	}

	log.Debug("user committed",
		zap.Int("activities", len(batch.Activities)),
		zap.Int("track_points", points),
		zap.Duration("took", time.Since(start)))
}

// assembleUser builds the batch of one user from its folder
func (c *Coordinator) assembleUser(u UserDir, hasLabels bool, log *zap.Logger) (models.UserBatch, map[DiscardReason]int, error) {
	batch := models.UserBatch{User: models.User{ID: u.ID, HasLabels: hasLabels}}
	discarded := make(map[DiscardReason]int)

	var idx *labels.Index
	if hasLabels {
		var err error
		idx, err = labels.Load(filepath.Join(u.Path, LabelsFile))
		if err != nil {
			return batch, nil, err
		}
		if idx.Len() == 0 {
			log.Warn("labeled user has no usable labels")
		} else {
			log.Debug("labels loaded", zap.Int("labels", idx.Len()))
		}
	}

	files, err := TrajectoryFiles(u.Path)
	if err != nil {
		return batch, nil, err
	}

	for _, file := range files {
		points, err := trajectory.ParseFile(file)
		if err != nil {
			log.Warn("skipping unreadable trajectory", zap.String("file", file), zap.Error(err))
			discarded[Unreadable]++
			continue
		}

		activity, reason := Assemble(points, idx)
		if reason != KeepActivity {
			log.Debug("trajectory discarded",
				zap.String("file", filepath.Base(file)),
				zap.String("reason", string(reason)),
				zap.Int("samples", len(points)))
			discarded[reason]++
			continue
		}
		activity.Activity.UserID = u.ID
		batch.Activities = append(batch.Activities, activity)
	}

	return batch, discarded, nil
}
