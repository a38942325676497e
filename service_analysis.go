package labops

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/blutspende/labops/utils"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const defaultPipeline = "mip"

// pipelineConfig is the part of a pipeline run configuration needed to find its results.
type pipelineConfig struct {
	Family         string `yaml:"family"`
	ConfigPath     string `yaml:"config_path"`
	SampleInfoPath string `yaml:"sampleinfo_path"`
	LogPath        string `yaml:"log_path"`
}

type sampleInfo struct {
	IsFinished   bool   `yaml:"is_finished"`
	Date         string `yaml:"date"`
	Version      string `yaml:"version"`
	PedigreePath string `yaml:"pedigree_path"`
	Snv          struct {
		ResearchVcf string `yaml:"research_vcf"`
		ClinicalVcf string `yaml:"clinical_vcf"`
	} `yaml:"snv"`
}

type AnalysisService interface {
	// StoreAnalysis archives the result files of a finished pipeline run as a new bundle version
	// of the family and records the analysis in the status store.
	StoreAnalysis(ctx context.Context, configPath string) (Analysis, error)
}

type analysisService struct {
	statusRepository StatusRepository
	bundleService    BundleService
	now              func() time.Time
	logger           zerolog.Logger
}

func NewAnalysisService(statusRepository StatusRepository, bundleService BundleService, logger zerolog.Logger) AnalysisService {
	return &analysisService{
		statusRepository: statusRepository,
		bundleService:    bundleService,
		now:              func() time.Time { return time.Now().UTC() },
		logger:           logger,
	}
}

func (s *analysisService) StoreAnalysis(ctx context.Context, configPath string) (Analysis, error) {
	var config pipelineConfig
	err := readYaml(configPath, &config)
	if err != nil {
		return Analysis{}, err
	}
	if config.Family == "" || config.SampleInfoPath == "" {
		return Analysis{}, errors.Wrapf(ErrFormat, "pipeline config %s lacks family or sampleinfo_path", configPath)
	}
	if config.ConfigPath == "" {
		config.ConfigPath = configPath
	}

	var info sampleInfo
	err = readYaml(config.SampleInfoPath, &info)
	if err != nil {
		return Analysis{}, err
	}
	if !info.IsFinished {
		return Analysis{}, errors.Wrapf(ErrAnalysisNotFinished, "%s", config.Family)
	}
	startedAt, err := parseAnalysisDate(info.Date)
	if err != nil {
		return Analysis{}, errors.Wrapf(ErrFormat, "analysis date %q of %s", info.Date, config.Family)
	}

	files := analysisFiles(config, info)
	for _, file := range files {
		if _, err := os.Stat(file.Path); err != nil {
			return Analysis{}, errors.Wrapf(ErrNotFound, "missing file: %s", file.Path)
		}
	}

	family, err := s.statusRepository.GetFamily(ctx, config.Family)
	if err != nil {
		return Analysis{}, err
	}

	version, err := s.bundleService.StoreVersion(ctx, family.InternalID, startedAt, files)
	if err != nil {
		if errors.Is(err, ErrDuplicateRecord) {
			s.logger.Warn().Str("family", family.InternalID).Time("date", startedAt).Msg("analysis version already added")
		}
		return Analysis{}, err
	}
	s.logger.Info().Str("bundle", family.InternalID).Time("version", version.CreatedAt).Int("files", len(version.Files)).Msg("new bundle version added")

	tx, err := s.statusRepository.CreateTransaction()
	if err != nil {
		return Analysis{}, err
	}
	defer tx.Rollback()
	txRepository := s.statusRepository.WithTransaction(tx)

	err = txRepository.UpdateFamilyAction(ctx, family.ID, nil)
	if err != nil {
		return Analysis{}, err
	}
	analyses, err := txRepository.GetAnalyses(ctx, family.ID)
	if err != nil {
		return Analysis{}, err
	}
	links, err := txRepository.GetFamilySamples(ctx, family.ID)
	if err != nil {
		return Analysis{}, err
	}
	pipeline := defaultPipeline
	if len(links) > 0 && links[0].Sample.DataAnalysis != nil && *links[0].Sample.DataAnalysis != "" {
		pipeline = strings.ToLower(*links[0].Sample.DataAnalysis)
	}

	completedAt := s.now()
	analysis := Analysis{
		Family:      family,
		Pipeline:    pipeline,
		StartedAt:   &startedAt,
		CompletedAt: &completedAt,
		IsPrimary:   len(analyses) == 0,
		ConfigPath:  &config.ConfigPath,
	}
	if info.Version != "" {
		analysis.PipelineVersion = &info.Version
	}
	analysis.ID, err = txRepository.CreateAnalysis(ctx, analysis)
	if err != nil {
		return Analysis{}, err
	}
	err = tx.Commit()
	if err != nil {
		return Analysis{}, errors.Wrap(ErrStatusStoreWriteFailed, err.Error())
	}

	s.logger.Info().Str("family", family.InternalID).Str("pipeline", pipeline).Bool("primary", analysis.IsPrimary).Msg("stored analysis")
	return analysis, nil
}

func analysisFiles(config pipelineConfig, info sampleInfo) []BundleFileInput {
	files := []BundleFileInput{
		{Path: config.ConfigPath, Tags: []string{TagPipelineConfig}},
		{Path: config.SampleInfoPath, Tags: []string{TagSampleInfo}},
		{Path: info.PedigreePath, Tags: []string{TagPedigree}},
		{Path: info.Snv.ResearchVcf, ToArchive: true, Tags: []string{TagVcfSnvResearch}},
	}
	if config.LogPath != "" {
		files = append(files, BundleFileInput{Path: config.LogPath, Tags: []string{TagPipelineLog}})
	}
	if info.Snv.ClinicalVcf != "" {
		files = append(files, BundleFileInput{Path: info.Snv.ClinicalVcf, ToArchive: true, Tags: []string{TagVcfSnvClinical}})
	}
	return files
}

func readYaml(path string, target interface{}) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(ErrNotFound, "missing file: %s", path)
		}
		return errors.Wrapf(err, "reading %s", path)
	}
	err = yaml.Unmarshal(content, target)
	if err != nil {
		return errors.Wrapf(ErrFormat, "%s: %s", path, err)
	}
	return nil
}

// parseAnalysisDate accepts the date formats pipelines write into sample info files.
func parseAnalysisDate(value string) (time.Time, error) {
	date, err := utils.ParseDate(value)
	if err == nil {
		return date, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		date, err = time.Parse(layout, value)
		if err == nil {
			return date, nil
		}
	}
	return time.Time{}, err
}
