package labops

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const flowcellStatusOnDisk = "ondisk"

type FlowcellService interface {
	// Transfer copies reads and sequencing dates of a flowcell from the stats database into the
	// status store and mirrors the FASTQ files into the sample bundles. Running it again for the
	// same flowcell changes nothing.
	Transfer(ctx context.Context, name string) (Flowcell, error)
}

type flowcellService struct {
	statsClient      StatsClient
	statusRepository StatusRepository
	bundleService    BundleService
	logger           zerolog.Logger
}

func NewFlowcellService(statsClient StatsClient, statusRepository StatusRepository, bundleService BundleService, logger zerolog.Logger) FlowcellService {
	return &flowcellService{
		statsClient:      statsClient,
		statusRepository: statusRepository,
		bundleService:    bundleService,
		logger:           logger,
	}
}

func (s *flowcellService) Transfer(ctx context.Context, name string) (Flowcell, error) {
	stats, err := s.statsClient.Flowcell(ctx, name)
	if err != nil {
		return Flowcell{}, err
	}

	tx, err := s.statusRepository.CreateTransaction()
	if err != nil {
		return Flowcell{}, err
	}
	defer tx.Rollback()
	txRepository := s.statusRepository.WithTransaction(tx)

	flowcell, err := txRepository.GetFlowcell(ctx, name)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return Flowcell{}, err
		}
		flowcell = Flowcell{
			Name:          name,
			SequencerName: stats.SequencerName,
			SequencerType: stats.SequencerType,
			SequencedAt:   stats.SequencedAt,
			Status:        flowcellStatusOnDisk,
		}
		flowcell.ID, err = txRepository.CreateFlowcell(ctx, flowcell)
		if err != nil {
			return Flowcell{}, err
		}
		s.logger.Info().Str("flowcell", name).Str("sequencer", stats.SequencerName).Msg("added flowcell")
	}

	fastqs := make(map[string][]string)
	for _, statsSample := range stats.Samples {
		sample, err := txRepository.GetSample(ctx, statsSample.Name)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				s.logger.Warn().Str("sample", statsSample.Name).Str("flowcell", name).Msg("unable to find sample")
				continue
			}
			return Flowcell{}, err
		}

		expectedReads := sample.ApplicationVersion.Application.ExpectedReads()
		enoughReads := statsSample.Reads > expectedReads
		sequencedAt := sample.SequencedAt
		if enoughReads && isNewerSequencing(flowcell.SequencedAt, sample.SequencedAt) {
			sequencedAt = &flowcell.SequencedAt
		}
		err = txRepository.UpdateSampleSequencing(ctx, sample.ID, statsSample.Reads, sequencedAt)
		if err != nil {
			return Flowcell{}, err
		}
		err = txRepository.AddFlowcellSample(ctx, flowcell.ID, sample.ID)
		if err != nil {
			return Flowcell{}, err
		}
		// several stats samples (e.g. ADM1A, ADM1B) fold into one status sample
		fastqs[sample.InternalID] = append(fastqs[sample.InternalID], statsSample.Fastqs...)

		s.logger.Info().Str("sample", sample.InternalID).Int64("reads", statsSample.Reads).
			Int64("expected", expectedReads).Bool("done", enoughReads).Msg("added reads to sample")
	}

	err = tx.Commit()
	if err != nil {
		return Flowcell{}, errors.Wrap(ErrStatusStoreWriteFailed, err.Error())
	}

	for sampleID, paths := range fastqs {
		added, err := s.bundleService.StoreFastqs(ctx, sampleID, paths)
		if err != nil {
			s.logger.Error().Err(err).Str("sample", sampleID).Msg("storing fastq files failed")
			return Flowcell{}, err
		}
		if added > 0 {
			s.logger.Info().Str("sample", sampleID).Int("files", added).Msg("stored fastq files")
		}
	}

	return s.statusRepository.GetFlowcell(ctx, name)
}

// isNewerSequencing reports whether the flowcell date may replace the current sequencing date.
func isNewerSequencing(flowcellDate time.Time, current *time.Time) bool {
	return current == nil || flowcellDate.After(*current)
}
