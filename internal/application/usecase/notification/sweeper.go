package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/DioGolang/GeoDispatch/internal/application/port/outbound"
	"github.com/DioGolang/GeoDispatch/internal/domain/entity"
	"github.com/DioGolang/GeoDispatch/pkg/logger"
	"golang.org/x/sync/errgroup"
)

type SweepReport struct {
	Owners  int `json:"owners"`
	Checked int `json:"checked"`
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
	Removed int `json:"removed"`
	Skipped int `json:"skipped"`
}

// Sweeper validates every stored device token with a dry-run send and strips
// the ones the transport rejects permanently.
type Sweeper struct {
	Tokens      outbound.TokenRepository
	Transport   outbound.NotificationTransport
	Logger      logger.Logger
	Concurrency int
	Timeout     time.Duration
	// DryRun reports invalid tokens without removing them.
	DryRun bool
}

func NewSweeper(tokens outbound.TokenRepository, transport outbound.NotificationTransport, log logger.Logger, concurrency int, timeout time.Duration) *Sweeper {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Sweeper{
		Tokens:      tokens,
		Transport:   transport,
		Logger:      log,
		Concurrency: concurrency,
		Timeout:     timeout,
	}
}

func (s *Sweeper) Run(ctx context.Context) (SweepReport, error) {
	owners, err := s.Tokens.ListWithTokens(ctx)
	if err != nil {
		return SweepReport{}, storeError(err)
	}

	// a token may be shared by several owners; validate it once
	unique := entity.NewTokenSet()
	for _, o := range owners {
		for _, t := range o.Tokens.Slice() {
			unique.Add(t)
		}
	}

	var (
		mu      sync.Mutex
		report  = SweepReport{Owners: len(owners)}
		invalid []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Concurrency)
	for _, token := range unique.Slice() {
		g.Go(func() error {
			vctx, cancel := context.WithTimeout(gctx, s.Timeout)
			outcome, err := s.Transport.Validate(vctx, token)
			cancel()
			if err != nil {
				if errors.Is(err, entity.ErrTransportUnavailable) {
					return err
				}
				outcome = outbound.DeliveryTransientFailure
			}

			mu.Lock()
			defer mu.Unlock()
			report.Checked++
			switch outcome {
			case outbound.DeliverySuccess:
				report.Valid++
			case outbound.DeliveryPermanentInvalid:
				report.Invalid++
				invalid = append(invalid, token)
			default:
				report.Skipped++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	if s.DryRun {
		s.Logger.Info(ctx, "Token sweep finished (dry run)", logger.Any("report", report))
		return report, nil
	}

	for _, token := range invalid {
		n, err := s.Tokens.RemoveToken(ctx, token)
		if err != nil {
			s.Logger.Warn(ctx, "Failed to remove invalid token",
				logger.String("token", entity.Preview(token)),
				logger.WithError(err),
			)
			continue
		}
		report.Removed += int(n)
	}
	s.Logger.Info(ctx, "Token sweep finished", logger.Any("report", report))
	return report, nil
}
