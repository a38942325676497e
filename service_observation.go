package labops

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type ObservationService interface {
	// Process loads the variant observations of a finished analysis into loqusdb at most once per
	// case and links every sample of the case to the loaded case.
	Process(ctx context.Context, analysisID uuid.UUID) error
}

type observationFiles struct {
	vcf      string
	pedigree string
}

type observationService struct {
	statusRepository StatusRepository
	bundleService    BundleService
	loqusdb          Loqusdb
	locker           Locker
	logger           zerolog.Logger
}

func NewObservationService(statusRepository StatusRepository, bundleService BundleService, loqusdb Loqusdb, locker Locker, logger zerolog.Logger) ObservationService {
	if locker == nil {
		locker = NewNoopLocker()
	}
	return &observationService{
		statusRepository: statusRepository,
		bundleService:    bundleService,
		loqusdb:          loqusdb,
		locker:           locker,
		logger:           logger,
	}
}

func (s *observationService) Process(ctx context.Context, analysisID uuid.UUID) error {
	analysis, err := s.statusRepository.GetAnalysis(ctx, analysisID)
	if err != nil {
		return err
	}
	caseID := analysis.Family.InternalID
	logger := s.logger.With().Str("case", caseID).Str("analysis", analysisID.String()).Logger()

	lock, err := s.locker.Obtain(ctx, observationLockKey(caseID))
	if err != nil {
		logger.Warn().Err(err).Msg("observation upload not started")
		return err
	}
	defer func() {
		if releaseErr := lock.Release(ctx); releaseErr != nil {
			logger.Warn().Err(releaseErr).Msg("releasing observation lock failed")
		}
	}()

	links, err := s.statusRepository.GetFamilySamples(ctx, analysis.Family.ID)
	if err != nil {
		return err
	}
	for _, link := range links {
		if link.Sample.LoqusdbID != nil {
			return errors.Wrapf(ErrDuplicateRecord, "%s already in loqusdb", link.Sample.InternalID)
		}
	}

	files, err := s.observationFiles(ctx, analysis)
	if err != nil {
		return err
	}

	_, err = s.loqusdb.GetCase(ctx, caseID)
	if err != nil {
		if !errors.Is(err, ErrCaseNotFound) {
			return err
		}
		variants, err := s.loqusdb.Load(ctx, caseID, files.pedigree, files.vcf)
		if err != nil {
			return err
		}
		logger.Info().Int("variants", variants).Msg("loaded observations")
	} else {
		logger.Debug().Msg("case already in loqusdb, skipping observations")
	}

	loqusdbCase, err := s.loqusdb.GetCase(ctx, caseID)
	if err != nil {
		return err
	}

	tx, err := s.statusRepository.CreateTransaction()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	txRepository := s.statusRepository.WithTransaction(tx)
	for _, link := range links {
		err = txRepository.SetLoqusdbID(ctx, link.Sample.ID, loqusdbCase.ID)
		if err != nil {
			return err
		}
	}
	err = tx.Commit()
	if err != nil {
		return errors.Wrap(ErrStatusStoreWriteFailed, err.Error())
	}
	logger.Info().Str("loqusdb_id", loqusdbCase.ID).Int("samples", len(links)).Msg("linked samples to loqusdb case")
	return nil
}

// observationFiles finds the research VCF and the pedigree in the bundle version of the analysis.
func (s *observationService) observationFiles(ctx context.Context, analysis Analysis) (observationFiles, error) {
	var date *time.Time
	if analysis.StartedAt != nil {
		date = analysis.StartedAt
	} else {
		date = analysis.CompletedAt
	}
	if date == nil {
		return observationFiles{}, errors.Wrapf(ErrNotFound, "analysis %s has no date", analysis.ID)
	}

	versionFiles, err := s.bundleService.GetVersionFiles(ctx, analysis.Family.InternalID, *date)
	if err != nil {
		return observationFiles{}, err
	}
	files := observationFiles{}
	for _, file := range versionFiles {
		if files.vcf == "" && file.HasTag(TagVcfSnvResearch) {
			files.vcf = file.Path
		}
		if files.pedigree == "" && file.HasTag(TagPedigree) {
			files.pedigree = file.Path
		}
	}
	if files.vcf == "" {
		return observationFiles{}, errors.Wrapf(ErrNotFound, "%s file of %s", TagVcfSnvResearch, analysis.Family.InternalID)
	}
	if files.pedigree == "" {
		return observationFiles{}, errors.Wrapf(ErrNotFound, "%s file of %s", TagPedigree, analysis.Family.InternalID)
	}
	return files, nil
}

func observationLockKey(caseID string) string {
	return fmt.Sprintf("observations:%s", caseID)
}
