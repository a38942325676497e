package labops

import (
	"context"
	"fmt"
	"time"

	"github.com/blutspende/labops/utils"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// TransferReport counts what a single transfer run did.
type TransferReport struct {
	Kind       EntityKind `json:"kind"`
	Stage      Stage      `json:"stage"`
	Include    string     `json:"include"`
	Candidates int        `json:"candidates"`
	Updated    int        `json:"updated"`
	Skipped    int        `json:"skipped"`
	Failed     int        `json:"failed"`
}

// TransferService copies lifecycle dates from the LIMS into the status store.
type TransferService interface {
	TransferSamples(ctx context.Context, stage Stage, include IncludeOption) (TransferReport, error)
	TransferPools(ctx context.Context, stage Stage, include IncludeOption) (TransferReport, error)
	TransferMicrobialSamples(ctx context.Context, stage Stage, include IncludeOption) (TransferReport, error)
	Transfer(ctx context.Context, kind EntityKind, stage Stage, include IncludeOption) (TransferReport, error)
}

// transferCandidate is an entity of any kind together with its current date for the stage.
type transferCandidate struct {
	ID      uuid.UUID
	LimsID  string
	Name    string
	Ticket  *int
	Current *time.Time
}

type limsDateFunc func(ctx context.Context, limsID string) (*time.Time, error)

type candidateQuery func(ctx context.Context, include IncludeOption) ([]transferCandidate, error)

type transferKind struct {
	queries  map[Stage]candidateQuery
	limsDate func(ctx context.Context, stage Stage, candidate transferCandidate) (*time.Time, error)
}

type transferService struct {
	lims             Lims
	statusRepository StatusRepository
	dates            map[Stage]limsDateFunc
	kinds            map[EntityKind]transferKind
	logger           zerolog.Logger
}

func NewTransferService(lims Lims, statusRepository StatusRepository, logger zerolog.Logger) TransferService {
	service := &transferService{
		lims:             lims,
		statusRepository: statusRepository,
		logger:           logger,
	}
	service.dates = map[Stage]limsDateFunc{
		StageReceived:  lims.GetReceivedDate,
		StagePrepared:  lims.GetPreparedDate,
		StageSequenced: lims.GetSequencedDate,
		StageDelivered: lims.GetDeliveryDate,
	}
	service.kinds = map[EntityKind]transferKind{
		EntityKindSample: {
			queries:  service.sampleQueries(),
			limsDate: service.entityDate,
		},
		EntityKindPool: {
			queries:  service.poolQueries(),
			limsDate: service.poolDate,
		},
		EntityKindMicrobialSample: {
			queries:  service.microbialQueries(),
			limsDate: service.entityDate,
		},
	}
	return service
}

func (s *transferService) TransferSamples(ctx context.Context, stage Stage, include IncludeOption) (TransferReport, error) {
	return s.Transfer(ctx, EntityKindSample, stage, include)
}

func (s *transferService) TransferPools(ctx context.Context, stage Stage, include IncludeOption) (TransferReport, error) {
	return s.Transfer(ctx, EntityKindPool, stage, include)
}

func (s *transferService) TransferMicrobialSamples(ctx context.Context, stage Stage, include IncludeOption) (TransferReport, error) {
	return s.Transfer(ctx, EntityKindMicrobialSample, stage, include)
}

// Transfer walks the candidates of the stage one by one. A failing entity is logged and counted
// and the run goes on; the returned error then wraps ErrTransferIncomplete.
func (s *transferService) Transfer(ctx context.Context, kind EntityKind, stage Stage, include IncludeOption) (TransferReport, error) {
	report := TransferReport{Kind: kind, Stage: stage, Include: string(include)}
	transfer, ok := s.kinds[kind]
	if !ok {
		return report, errors.Wrapf(ErrInvalidStage, "unknown entity kind %q", kind)
	}
	query, ok := transfer.queries[stage]
	if !ok {
		return report, errors.Wrapf(ErrInvalidStage, "%s has no %s stage", kind, stage)
	}

	candidates, err := query(ctx, include)
	if err != nil {
		return report, err
	}
	report.Candidates = len(candidates)

	var firstErr error
	for _, candidate := range candidates {
		logger := s.logger.With().Str("kind", string(kind)).Str("stage", string(stage)).Str("entity", candidate.Name).Logger()

		limsDate, err := transfer.limsDate(ctx, stage, candidate)
		if err != nil {
			logger.Error().Err(err).Msg("reading lims date failed")
			report.Failed++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if limsDate == nil {
			logger.Debug().Msg("no lims date")
			report.Skipped++
			continue
		}
		if candidate.Current != nil && utils.SameDay(*candidate.Current, *limsDate) {
			report.Skipped++
			continue
		}

		err = s.writeStageDate(ctx, kind, candidate.ID, stage, *limsDate)
		if err != nil {
			logger.Error().Err(err).Msg("writing stage date failed")
			report.Failed++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		logger.Info().Str("date", limsDate.Format(utils.DateFormat)).Msg("stage date updated")
		report.Updated++
	}

	s.logger.Info().Str("kind", string(kind)).Str("stage", string(stage)).Int("candidates", report.Candidates).
		Int("updated", report.Updated).Int("skipped", report.Skipped).Int("failed", report.Failed).Msg("transfer finished")
	if report.Failed > 0 {
		return report, errors.Wrapf(ErrTransferIncomplete, "%d of %d %s failed, first: %s", report.Failed, report.Candidates, kind, firstErr)
	}
	return report, nil
}

// writeStageDate commits each entity on its own so one failure leaves earlier writes in place.
func (s *transferService) writeStageDate(ctx context.Context, kind EntityKind, id uuid.UUID, stage Stage, date time.Time) error {
	tx, err := s.statusRepository.CreateTransaction()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = s.statusRepository.WithTransaction(tx).UpdateStageDate(ctx, kind, id, stage, date)
	if err != nil {
		return err
	}
	err = tx.Commit()
	if err != nil {
		return errors.Wrap(ErrStatusStoreWriteFailed, err.Error())
	}
	return nil
}

func (s *transferService) entityDate(ctx context.Context, stage Stage, candidate transferCandidate) (*time.Time, error) {
	return s.dates[stage](ctx, candidate.LimsID)
}

// poolDate takes the date of the first LIMS sample of the pool's ticket that belongs to the pool
// and has one.
func (s *transferService) poolDate(ctx context.Context, stage Stage, candidate transferCandidate) (*time.Time, error) {
	if candidate.Ticket == nil {
		s.logger.Warn().Str("pool", candidate.Name).Msg("pool has no ticket")
		return nil, nil
	}
	count, err := s.lims.GetSampleNumber(ctx, *candidate.Ticket)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		s.logger.Warn().Str("pool", candidate.Name).Int("ticket", *candidate.Ticket).Msg("no lims samples for ticket")
		return nil, nil
	}

	limsSamples, err := s.lims.GetSamplesByTicket(ctx, *candidate.Ticket)
	if err != nil {
		return nil, err
	}
	for _, limsSample := range limsSamples {
		if limsSample.Udfs[limsUdfPoolName] != candidate.Name {
			continue
		}
		date, err := s.dates[stage](ctx, limsSample.ID)
		if err != nil {
			return nil, err
		}
		if date != nil {
			return date, nil
		}
	}
	return nil, nil
}

func (s *transferService) sampleQueries() map[Stage]candidateQuery {
	queries := make(map[Stage]candidateQuery)
	for _, stage := range TransferStages(EntityKindSample) {
		stage := stage
		queries[stage] = func(ctx context.Context, include IncludeOption) ([]transferCandidate, error) {
			var samples []Sample
			var err error
			switch include {
			case IncludeUnset:
				samples, err = s.statusRepository.GetSamplesAwaiting(ctx, stage)
			case IncludeNotInvoiced:
				samples, err = s.statusRepository.GetSamplesNotInvoiced(ctx)
			case IncludeAll:
				samples, err = s.statusRepository.GetSamplesNotDownsampled(ctx)
			default:
				return nil, errors.Wrapf(ErrInvalidIncludeOption, "%q", include)
			}
			if err != nil {
				return nil, err
			}
			candidates := make([]transferCandidate, 0, len(samples))
			for _, sample := range samples {
				candidates = append(candidates, transferCandidate{
					ID:      sample.ID,
					LimsID:  sample.InternalID,
					Name:    sample.InternalID,
					Ticket:  sample.TicketNumber,
					Current: sampleStageDate(sample, stage),
				})
			}
			return candidates, nil
		}
	}
	return queries
}

func (s *transferService) poolQueries() map[Stage]candidateQuery {
	queries := make(map[Stage]candidateQuery)
	for _, stage := range TransferStages(EntityKindPool) {
		stage := stage
		queries[stage] = func(ctx context.Context, include IncludeOption) ([]transferCandidate, error) {
			var pools []Pool
			var err error
			switch include {
			case IncludeUnset:
				pools, err = s.statusRepository.GetPoolsAwaiting(ctx, stage)
			case IncludeNotInvoiced:
				pools, err = s.statusRepository.GetPoolsNotInvoiced(ctx)
			case IncludeAll:
				pools, err = s.statusRepository.GetPools(ctx)
			default:
				return nil, errors.Wrapf(ErrInvalidIncludeOption, "%q", include)
			}
			if err != nil {
				return nil, err
			}
			candidates := make([]transferCandidate, 0, len(pools))
			for _, pool := range pools {
				current := pool.ReceivedAt
				if stage == StageDelivered {
					current = pool.DeliveredAt
				}
				candidates = append(candidates, transferCandidate{
					ID:      pool.ID,
					Name:    pool.Name,
					Ticket:  pool.TicketNumber,
					Current: current,
				})
			}
			return candidates, nil
		}
	}
	return queries
}

func (s *transferService) microbialQueries() map[Stage]candidateQuery {
	queries := make(map[Stage]candidateQuery)
	for _, stage := range TransferStages(EntityKindMicrobialSample) {
		stage := stage
		queries[stage] = func(ctx context.Context, include IncludeOption) ([]transferCandidate, error) {
			var samples []MicrobialSample
			var err error
			switch include {
			case IncludeUnset:
				samples, err = s.statusRepository.GetMicrobialSamplesAwaiting(ctx, stage)
			case IncludeNotInvoiced:
				samples, err = s.statusRepository.GetMicrobialSamplesNotInvoiced(ctx)
			case IncludeAll:
				samples, err = s.statusRepository.GetMicrobialSamples(ctx)
			default:
				return nil, errors.Wrapf(ErrInvalidIncludeOption, "%q", include)
			}
			if err != nil {
				return nil, err
			}
			candidates := make([]transferCandidate, 0, len(samples))
			for _, sample := range samples {
				candidates = append(candidates, transferCandidate{
					ID:      sample.ID,
					LimsID:  sample.InternalID,
					Name:    sample.InternalID,
					Ticket:  sample.TicketNumber,
					Current: microbialStageDate(sample, stage),
				})
			}
			return candidates, nil
		}
	}
	return queries
}

func sampleStageDate(sample Sample, stage Stage) *time.Time {
	switch stage {
	case StageReceived:
		return sample.ReceivedAt
	case StagePrepared:
		return sample.PreparedAt
	case StageSequenced:
		return sample.SequencedAt
	case StageDelivered:
		return sample.DeliveredAt
	}
	panic(fmt.Sprintf("sample has no %s stage", stage))
}

func microbialStageDate(sample MicrobialSample, stage Stage) *time.Time {
	switch stage {
	case StageReceived:
		return sample.ReceivedAt
	case StagePrepared:
		return sample.PreparedAt
	case StageSequenced:
		return sample.SequencedAt
	case StageDelivered:
		return sample.DeliveredAt
	}
	panic(fmt.Sprintf("microbial sample has no %s stage", stage))
}
