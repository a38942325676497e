package labops

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreFastqsIsIdempotent(t *testing.T) {
	schemaName, dbConn, _ := setupDbConnectorAndRunMigration(t, "bundle_fastq_test")
	bundleRepository := NewBundleRepository(dbConn, schemaName)
	bundleService := NewBundleService(bundleRepository, zerolog.Nop())
	ctx := context.Background()

	paths := []string{
		"/runs/HJKMYBCXX/Unaligned/Project_1/Sample_ACC1/ACC1_L001_R1.fastq.gz",
		"/runs/HJKMYBCXX/Unaligned/Project_1/Sample_ACC1/ACC1_L001_R2.fastq.gz",
	}

	added, err := bundleService.StoreFastqs(ctx, "ACC1", paths)
	require.Nil(t, err)
	assert.Equal(t, 2, added)

	added, err = bundleService.StoreFastqs(ctx, "ACC1", append(paths, paths[0]))
	require.Nil(t, err)
	assert.Equal(t, 0, added)

	bundle, err := bundleRepository.GetBundle(ctx, "ACC1")
	require.Nil(t, err)
	version, err := bundleRepository.GetLatestVersion(ctx, bundle.ID)
	require.Nil(t, err)
	require.Len(t, version.Files, 2)
	assert.Equal(t, []string{TagFastq}, version.Files[0].Tags)
	assert.True(t, version.Files[0].ToArchive)
}

func TestStoreFastqsSkipsPathsOfOlderVersions(t *testing.T) {
	schemaName, dbConn, _ := setupDbConnectorAndRunMigration(t, "bundle_fastq_versions_test")
	bundleRepository := NewBundleRepository(dbConn, schemaName)
	bundleService := NewBundleService(bundleRepository, zerolog.Nop())
	ctx := context.Background()
	fastq := "/runs/HJKMYBCXX/Unaligned/Project_1/Sample_ACC2/ACC2_L001_R1.fastq.gz"

	_, err := bundleService.StoreVersion(ctx, "ACC2", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		[]BundleFileInput{{Path: fastq, ToArchive: true, Tags: []string{TagFastq}}})
	require.Nil(t, err)
	_, err = bundleService.StoreVersion(ctx, "ACC2", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		[]BundleFileInput{{Path: "/analysis/ACC2/ACC2.vcf.gz", Tags: []string{TagVcfSnvResearch}}})
	require.Nil(t, err)

	added, err := bundleService.StoreFastqs(ctx, "ACC2", []string{fastq})

	require.Nil(t, err)
	assert.Equal(t, 0, added)
	bundle, err := bundleRepository.GetBundle(ctx, "ACC2")
	require.Nil(t, err)
	paths, err := bundleRepository.GetBundlePaths(ctx, bundle.ID)
	require.Nil(t, err)
	assert.Equal(t, []string{"/analysis/ACC2/ACC2.vcf.gz", fastq}, paths)
}

func TestStoreFastqsWithoutPathsCreatesNoBundle(t *testing.T) {
	schemaName, dbConn, _ := setupDbConnectorAndRunMigration(t, "bundle_nofastq_test")
	bundleRepository := NewBundleRepository(dbConn, schemaName)
	bundleService := NewBundleService(bundleRepository, zerolog.Nop())

	added, err := bundleService.StoreFastqs(context.Background(), "ACC1", nil)

	assert.Nil(t, err)
	assert.Equal(t, 0, added)
	_, err = bundleRepository.GetBundle(context.Background(), "ACC1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStoreVersionRejectsExistingDate(t *testing.T) {
	schemaName, dbConn, _ := setupDbConnectorAndRunMigration(t, "bundle_version_test")
	bundleService := NewBundleService(NewBundleRepository(dbConn, schemaName), zerolog.Nop())
	ctx := context.Background()
	createdAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	files := []BundleFileInput{
		{Path: "/analysis/fam1/fam1.vcf.gz", Tags: []string{TagVcfSnvResearch}},
		{Path: "/analysis/fam1/pedigree.yaml", Tags: []string{TagPedigree, TagPipelineConfig}},
	}
	version, err := bundleService.StoreVersion(ctx, "fam1", createdAt, files)
	require.Nil(t, err)
	require.Len(t, version.Files, 2)
	assert.Equal(t, []string{TagPipelineConfig, TagPedigree}, version.Files[1].Tags)

	_, err = bundleService.StoreVersion(ctx, "fam1", createdAt, files)
	assert.True(t, errors.Is(err, ErrDuplicateRecord))

	stored, err := bundleService.GetVersionFiles(ctx, "fam1", createdAt)
	require.Nil(t, err)
	assert.True(t, stored[0].HasTag(TagVcfSnvResearch))
	assert.False(t, stored[0].HasTag(TagVcfSnvResearch, TagPedigree))

	_, err = bundleService.GetVersionFiles(ctx, "fam1", createdAt.Add(time.Hour))
	assert.True(t, errors.Is(err, ErrNotFound))
}
