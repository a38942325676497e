package labops

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	TagFastq          = "fastq"
	TagVcfSnvResearch = "vcf-snv-research"
	TagVcfSnvClinical = "vcf-snv-clinical"
	TagPedigree       = "pedigree"
	TagPipelineConfig = "mip-config"
	TagSampleInfo     = "sampleinfo"
	TagPipelineLog    = "mip-log"
)

type BundleFileInput struct {
	Path      string
	ToArchive bool
	Tags      []string
}

type BundleService interface {
	// StoreFastqs adds FASTQ paths to the latest version of the sample bundle. Bundle and version
	// are created lazily; paths already in any version of the bundle are skipped. Returns the number of added paths.
	StoreFastqs(ctx context.Context, sampleID string, paths []string) (int, error)
	GetVersionFiles(ctx context.Context, bundleName string, createdAt time.Time) ([]BundleFile, error)
	// StoreVersion creates a new dated version with the given files. An existing version with
	// the same date yields ErrDuplicateRecord.
	StoreVersion(ctx context.Context, bundleName string, createdAt time.Time, files []BundleFileInput) (BundleVersion, error)
}

type bundleService struct {
	bundleRepository BundleRepository
	logger           zerolog.Logger
}

func NewBundleService(bundleRepository BundleRepository, logger zerolog.Logger) BundleService {
	return &bundleService{
		bundleRepository: bundleRepository,
		logger:           logger,
	}
}

func (s *bundleService) StoreFastqs(ctx context.Context, sampleID string, paths []string) (int, error) {
	if len(paths) == 0 {
		return 0, nil
	}

	tx, err := s.bundleRepository.CreateTransaction()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	txRepository := s.bundleRepository.WithTransaction(tx)

	bundleID, err := txRepository.CreateBundle(ctx, sampleID)
	if err != nil {
		return 0, err
	}

	version, err := txRepository.GetLatestVersion(ctx, bundleID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return 0, err
		}
		versionID, err := txRepository.CreateVersion(ctx, bundleID, time.Now().UTC())
		if err != nil {
			return 0, err
		}
		version = BundleVersion{ID: versionID, BundleID: bundleID}
	}

	bundlePaths, err := txRepository.GetBundlePaths(ctx, bundleID)
	if err != nil {
		return 0, err
	}
	existing := make(map[string]bool, len(bundlePaths))
	for _, path := range bundlePaths {
		existing[path] = true
	}

	added := 0
	for _, path := range paths {
		if existing[path] {
			s.logger.Debug().Str("sample", sampleID).Str("path", path).Msg("fastq already in bundle")
			continue
		}
		_, err = txRepository.AddFile(ctx, version.ID, path, true, []string{TagFastq})
		if err != nil {
			return 0, err
		}
		existing[path] = true
		added++
	}

	err = tx.Commit()
	if err != nil {
		return 0, err
	}
	if added > 0 {
		s.logger.Info().Str("sample", sampleID).Int("files", added).Msg("added fastq files to bundle")
	}
	return added, nil
}

func (s *bundleService) GetVersionFiles(ctx context.Context, bundleName string, createdAt time.Time) ([]BundleFile, error) {
	version, err := s.bundleRepository.GetVersion(ctx, bundleName, createdAt)
	if err != nil {
		return nil, err
	}
	return version.Files, nil
}

func (s *bundleService) StoreVersion(ctx context.Context, bundleName string, createdAt time.Time, files []BundleFileInput) (BundleVersion, error) {
	_, err := s.bundleRepository.GetVersion(ctx, bundleName, createdAt)
	if err == nil {
		return BundleVersion{}, errors.Wrapf(ErrDuplicateRecord, "bundle %s already has a version at %s", bundleName, createdAt.Format(time.RFC3339))
	}
	if !errors.Is(err, ErrNotFound) {
		return BundleVersion{}, err
	}

	tx, err := s.bundleRepository.CreateTransaction()
	if err != nil {
		return BundleVersion{}, err
	}
	defer tx.Rollback()
	txRepository := s.bundleRepository.WithTransaction(tx)

	bundleID, err := txRepository.CreateBundle(ctx, bundleName)
	if err != nil {
		return BundleVersion{}, err
	}
	versionID, err := txRepository.CreateVersion(ctx, bundleID, createdAt)
	if err != nil {
		return BundleVersion{}, err
	}
	for _, file := range files {
		_, err = txRepository.AddFile(ctx, versionID, file.Path, file.ToArchive, file.Tags)
		if err != nil {
			return BundleVersion{}, err
		}
	}

	version, err := txRepository.GetVersion(ctx, bundleName, createdAt)
	if err != nil {
		return BundleVersion{}, err
	}
	err = tx.Commit()
	if err != nil {
		return BundleVersion{}, err
	}

	s.logger.Info().Str("bundle", bundleName).Int("files", len(files)).Msg("stored bundle version")
	return version, nil
}
