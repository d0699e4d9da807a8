package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/jengzang/geolife-backend-go/internal/api"
	"github.com/jengzang/geolife-backend-go/internal/database"
	"github.com/jengzang/geolife-backend-go/internal/handler"
	"github.com/jengzang/geolife-backend-go/internal/ingest"
	"github.com/jengzang/geolife-backend-go/internal/middleware"
	"github.com/jengzang/geolife-backend-go/internal/models"
	"github.com/jengzang/geolife-backend-go/internal/repository"
	"github.com/jengzang/geolife-backend-go/internal/service"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create or upgrade the schema",
		Action: func(ctx context.Context, c *cli.Command) error {
			a, err := setup(ctx, c)
			if err != nil {
				return err
			}
			defer a.close()

			if err := database.Migrate(ctx, a.db); err != nil {
				return err
			}
			a.log.Info("schema up to date")
			return nil
		},
	}
}

func ingestCommand() *cli.Command {
	return &cli.Command{
		Name:  "ingest",
		Usage: "Load a Geolife dataset into the store",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dataset", Usage: "dataset root holding labeled_ids.txt and Data/ (env DATASET_PATH)"},
			&cli.IntFlag{Name: "workers", Usage: "users ingested concurrently (env INGEST_WORKERS)"},
			&cli.BoolFlag{Name: "replace", Usage: "replace users that already exist"},
			&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			a, err := setup(ctx, c)
			if err != nil {
				return err
			}
			defer a.close()

			root := a.cfg.DatasetPath
			if c.IsSet("dataset") {
				root = c.String("dataset")
			}
			workers := a.cfg.Workers
			if c.IsSet("workers") {
				workers = int(c.Int("workers"))
			}

			if err := database.Migrate(ctx, a.db); err != nil {
				return err
			}

			writer := repository.NewIngestRepository(a.db, c.Bool("replace"))
			report, err := ingest.NewCoordinator(writer, workers, a.log).Run(ctx, root)
			if err != nil {
				return err
			}

			if c.Bool("json") {
				printFailures(report)
				return printJSON(report)
			}
			printReport(report)
			return nil
		},
	}
}

func queryCommand() *cli.Command {
	run := func(ctx context.Context, c *cli.Command, fn func(context.Context, *service.QueryService) error) error {
		a, err := setup(ctx, c)
		if err != nil {
			return err
		}
		defer a.close()

		svc := service.NewQueryService(repository.NewQueryRepository(a.db), a.cfg.DB.MaxConns, a.log)
		return fn(ctx, svc)
	}
	jsonFlag := func() cli.Flag { return &cli.BoolFlag{Name: "json", Usage: "output raw JSON"} }

	return &cli.Command{
		Name:  "query",
		Usage: "Run an analytical query",
		Commands: []*cli.Command{
			{
				Name:  "distance",
				Usage: "Total distance of a user's activities with a mode in a year",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "user", Value: 112},
					&cli.StringFlag{Name: "mode", Value: "walk"},
					&cli.IntFlag{Name: "year", Value: 2008},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return run(ctx, c, func(ctx context.Context, svc *service.QueryService) error {
						result, err := svc.TotalDistance(ctx, models.DistanceFilter{
							UserID: int64(c.Int("user")),
							Mode:   c.String("mode"),
							Year:   int(c.Int("year")),
						})
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(result)
						}
						printKV([][2]string{
							{"user", strconv.FormatInt(result.UserID, 10)},
							{"mode", result.Mode},
							{"year", strconv.Itoa(result.Year)},
							{"activities", strconv.Itoa(result.Activities)},
							{"distance_km", fmt.Sprintf("%.2f", result.TotalKm)},
						})
						return nil
					})
				},
			},
			{
				Name:  "altitude",
				Usage: "Users ranked by total altitude gain",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: service.DefaultTopUsers},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return run(ctx, c, func(ctx context.Context, svc *service.QueryService) error {
						ranking, err := svc.AltitudeGain(ctx, int(c.Int("limit")))
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(ranking)
						}
						printUserTotals(ranking, "total_gain_m")
						return nil
					})
				},
			},
			{
				Name:  "gaps",
				Usage: "Invalid activities per user",
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "gap", Value: service.DefaultGapThreshold},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return run(ctx, c, func(ctx context.Context, svc *service.QueryService) error {
						counts, err := svc.InvalidActivities(ctx, c.Duration("gap"))
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(counts)
						}
						printUserCounts(counts, "invalid_activities")
						return nil
					})
				},
			},
			{
				Name:  "radius",
				Usage: "Users with a track point near a location",
				Flags: []cli.Flag{
					&cli.FloatFlag{Name: "lat", Value: service.DefaultCenterLat},
					&cli.FloatFlag{Name: "lon", Value: service.DefaultCenterLon},
					&cli.FloatFlag{Name: "radius", Value: service.DefaultRadiusMeters, Usage: "meters"},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return run(ctx, c, func(ctx context.Context, svc *service.QueryService) error {
						q := service.DefaultRadiusQuery()
						q.Center = models.GeoPoint{Lat: c.Float("lat"), Lon: c.Float("lon")}
						q.RadiusMeters = c.Float("radius")

						users, err := svc.UsersNearby(ctx, q)
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(users)
						}
						printUserIDs(users)
						return nil
					})
				},
			},
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the read-only query API over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "HTTP listen address (env PORT)"},
			&cli.IntFlag{Name: "rate-limit", Value: 60, Usage: "requests per minute per client"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			a, err := setup(ctx, c)
			if err != nil {
				return err
			}
			defer a.close()

			addr := a.cfg.Port
			if c.IsSet("addr") {
				addr = c.String("addr")
			}

			limiter := middleware.NewRateLimiter(int(c.Int("rate-limit")), time.Minute)
			defer limiter.Stop()

			svc := service.NewQueryService(repository.NewQueryRepository(a.db), a.cfg.DB.MaxConns, a.log)
			router := api.SetupRouter(a.cfg, handler.NewQueryHandler(svc), limiter, a.log)
			srv := &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

			errCh := make(chan error, 1)
			go func() {
				a.log.Info("server listening", zap.String("addr", addr))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case <-ctx.Done():
				a.log.Info("shutting down")
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
