package labops

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusRepositoryGetCustomerWithInvoiceContact(t *testing.T) {
	schemaName, dbConn, sqlConn := setupDbConnectorAndRunMigration(t, "status_customer_test")
	fixtures := insertStatusFixtures(t, sqlConn, schemaName)
	repository := NewStatusRepository(dbConn, schemaName)

	customer, err := repository.GetCustomer(context.Background(), "cust000")

	require.Nil(t, err)
	assert.Equal(t, fixtures.CustomerID, customer.ID)
	assert.Equal(t, "Clinical Genomics", customer.Name)
	require.NotNil(t, customer.InvoiceContact)
	assert.Equal(t, "jane@example.com", customer.InvoiceContact.Email)
	require.NotNil(t, customer.ProjectAccountKTH)
	assert.Equal(t, "kth-account", *customer.ProjectAccountKTH)

	_, err = repository.GetCustomer(context.Background(), "cust404")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStatusRepositoryGetApplicationVersionReturnsLatest(t *testing.T) {
	schemaName, dbConn, sqlConn := setupDbConnectorAndRunMigration(t, "status_application_test")
	fixtures := insertStatusFixtures(t, sqlConn, schemaName)
	_, err := sqlConn.Exec(fmt.Sprintf(`INSERT INTO %s.cg_application_versions(application_id, version, price_standard)
		SELECT application_id, 2, 1200.00 FROM %s.cg_application_versions WHERE id = $1;`, schemaName, schemaName), fixtures.WgsVersionID)
	require.Nil(t, err)
	repository := NewStatusRepository(dbConn, schemaName)

	version, err := repository.GetApplicationVersion(context.Background(), "WGSPCFC030")

	require.Nil(t, err)
	assert.Equal(t, 2, version.Version)
	assert.Equal(t, "wgs", version.Application.Category)
	require.NotNil(t, version.Application.PercentKTH)
	assert.Equal(t, 50, *version.Application.PercentKTH)
	price, ok := version.Price(PriorityStandard)
	assert.True(t, ok)
	assert.True(t, decimal.NewFromInt(1200).Equal(price))
	_, ok = version.Price(PriorityExpress)
	assert.False(t, ok)

	_, err = repository.GetApplicationVersion(context.Background(), "NOTATAG")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStatusRepositoryCreateFamilyWithSamples(t *testing.T) {
	schemaName, dbConn, sqlConn := setupDbConnectorAndRunMigration(t, "status_family_test")
	fixtures := insertStatusFixtures(t, sqlConn, schemaName)
	repository := NewStatusRepository(dbConn, schemaName)
	ctx := context.Background()

	version, err := repository.GetApplicationVersion(ctx, "WGSPCFC030")
	require.Nil(t, err)

	tx, err := repository.CreateTransaction()
	require.Nil(t, err)
	txRepository := repository.WithTransaction(tx)

	familyID, err := txRepository.CreateFamily(ctx, Family{
		InternalID: "fam-internal-1",
		Name:       "fam1",
		CustomerID: fixtures.CustomerID,
		Priority:   1,
		Panels:     []string{"IEM", "OMIM-AUTO"},
		OrderedAt:  time.Now().UTC(),
	})
	require.Nil(t, err)

	motherID, err := txRepository.CreateSample(ctx, Sample{
		InternalID:         "ACC0002A1",
		Name:               "mother",
		CustomerID:         fixtures.CustomerID,
		ApplicationVersion: version,
		Sex:                SexFemale,
		Priority:           1,
		OrderedAt:          time.Now().UTC(),
	})
	require.Nil(t, err)
	childID, err := txRepository.CreateSample(ctx, Sample{
		InternalID:         "ACC0001A1",
		Name:               "child",
		CustomerID:         fixtures.CustomerID,
		ApplicationVersion: version,
		Sex:                SexMale,
		Priority:           1,
		OrderedAt:          time.Now().UTC(),
	})
	require.Nil(t, err)

	_, err = txRepository.CreateFamilySample(ctx, FamilySample{FamilyID: familyID, Sample: Sample{ID: motherID}, Status: "unaffected"})
	require.Nil(t, err)
	_, err = txRepository.CreateFamilySample(ctx, FamilySample{FamilyID: familyID, Sample: Sample{ID: childID}, Status: "affected", MotherID: &motherID})
	require.Nil(t, err)
	require.Nil(t, tx.Commit())

	family, err := repository.GetFamilyByName(ctx, fixtures.CustomerID, "fam1")
	require.Nil(t, err)
	assert.Equal(t, "fam-internal-1", family.InternalID)
	assert.Equal(t, []string{"IEM", "OMIM-AUTO"}, family.Panels)

	links, err := repository.GetFamilySamples(ctx, familyID)
	require.Nil(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "ACC0001A1", links[0].Sample.InternalID)
	require.NotNil(t, links[0].MotherID)
	assert.Equal(t, motherID, *links[0].MotherID)
	assert.Equal(t, "WGSPCFC030", links[0].Sample.ApplicationVersion.Application.Tag)
	assert.Equal(t, "ACC0002A1", links[1].Sample.InternalID)
	assert.Nil(t, links[1].MotherID)

	_, err = repository.GetFamilyByName(ctx, fixtures.CustomerID, "fam2")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStatusRepositoryRolledBackTransactionLeavesNoRows(t *testing.T) {
	schemaName, dbConn, sqlConn := setupDbConnectorAndRunMigration(t, "status_rollback_test")
	fixtures := insertStatusFixtures(t, sqlConn, schemaName)
	repository := NewStatusRepository(dbConn, schemaName)
	ctx := context.Background()

	tx, err := repository.CreateTransaction()
	require.Nil(t, err)
	_, err = repository.WithTransaction(tx).CreatePool(ctx, Pool{
		Name:               "pool1",
		CustomerID:         fixtures.CustomerID,
		ApplicationVersion: ApplicationVersion{ID: fixtures.RmlVersionID},
		OrderedAt:          time.Now().UTC(),
	})
	require.Nil(t, err)
	require.Nil(t, tx.Rollback())

	pools, err := repository.GetPools(ctx)
	require.Nil(t, err)
	assert.Len(t, pools, 0)
}

func TestStatusRepositorySamplesAwaitingStage(t *testing.T) {
	schemaName, dbConn, sqlConn := setupDbConnectorAndRunMigration(t, "status_awaiting_test")
	fixtures := insertStatusFixtures(t, sqlConn, schemaName)
	repository := NewStatusRepository(dbConn, schemaName)
	ctx := context.Background()

	received := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	insertSample(t, sqlConn, schemaName, fixtures, fixtures.WgsVersionID, "ACC1", nil)
	receivedID := insertSample(t, sqlConn, schemaName, fixtures, fixtures.WgsVersionID, "ACC2", &received)
	insertSample(t, sqlConn, schemaName, fixtures, fixtures.ExternalVersionID, "ACC3", nil)

	toReceive, err := repository.GetSamplesAwaiting(ctx, StageReceived)
	require.Nil(t, err)
	require.Len(t, toReceive, 1)
	assert.Equal(t, "ACC1", toReceive[0].InternalID)

	toPrepare, err := repository.GetSamplesAwaiting(ctx, StagePrepared)
	require.Nil(t, err)
	require.Len(t, toPrepare, 1)
	assert.Equal(t, receivedID, toPrepare[0].ID)
	require.NotNil(t, toPrepare[0].TicketNumber)
	assert.Equal(t, 123456, *toPrepare[0].TicketNumber)

	notInvoiced, err := repository.GetSamplesNotInvoiced(ctx)
	require.Nil(t, err)
	assert.Len(t, notInvoiced, 3)

	prepared := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	err = repository.UpdateStageDate(ctx, EntityKindSample, receivedID, StagePrepared, prepared)
	require.Nil(t, err)

	toPrepare, err = repository.GetSamplesAwaiting(ctx, StagePrepared)
	require.Nil(t, err)
	assert.Len(t, toPrepare, 0)

	sample, err := repository.GetSample(ctx, "ACC2")
	require.Nil(t, err)
	require.NotNil(t, sample.PreparedAt)
	assert.True(t, prepared.Equal(*sample.PreparedAt))
}

func TestStatusRepositoryUpdateStageDateRejectsForeignStage(t *testing.T) {
	repository := NewStatusRepository(nil, "unused")

	err := repository.UpdateStageDate(context.Background(), EntityKindPool, uuid.New(), StagePrepared, time.Now())

	assert.Equal(t, ErrInvalidStage, err)
}

func TestStatusRepositoryFlowcellIsCreatedOnce(t *testing.T) {
	schemaName, dbConn, sqlConn := setupDbConnectorAndRunMigration(t, "status_flowcell_test")
	fixtures := insertStatusFixtures(t, sqlConn, schemaName)
	repository := NewStatusRepository(dbConn, schemaName)
	ctx := context.Background()
	sampleID := insertSample(t, sqlConn, schemaName, fixtures, fixtures.WgsVersionID, "ACC1", nil)

	flowcell := Flowcell{
		Name:          "HJKMYBCXX",
		SequencerName: "hiseq-1",
		SequencerType: "hiseqga",
		SequencedAt:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Status:        "ondisk",
	}
	firstID, err := repository.CreateFlowcell(ctx, flowcell)
	require.Nil(t, err)
	secondID, err := repository.CreateFlowcell(ctx, flowcell)
	require.Nil(t, err)
	assert.Equal(t, firstID, secondID)

	require.Nil(t, repository.AddFlowcellSample(ctx, firstID, sampleID))
	require.Nil(t, repository.AddFlowcellSample(ctx, firstID, sampleID))

	sequencedAt := flowcell.SequencedAt
	require.Nil(t, repository.UpdateSampleSequencing(ctx, sampleID, 1200, &sequencedAt))

	stored, err := repository.GetFlowcell(ctx, "HJKMYBCXX")
	require.Nil(t, err)
	assert.Equal(t, "hiseqga", stored.SequencerType)
	assert.Equal(t, []uuid.UUID{sampleID}, stored.SampleIDs)

	sample, err := repository.GetSample(ctx, "ACC1")
	require.Nil(t, err)
	assert.Equal(t, int64(1200), sample.Reads)
	require.NotNil(t, sample.SequencedAt)

	_, err = repository.GetFlowcell(ctx, "UNKNOWN")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStatusRepositoryAnalysisAndLoqusdbID(t *testing.T) {
	schemaName, dbConn, sqlConn := setupDbConnectorAndRunMigration(t, "status_analysis_test")
	fixtures := insertStatusFixtures(t, sqlConn, schemaName)
	repository := NewStatusRepository(dbConn, schemaName)
	ctx := context.Background()

	familyID, err := repository.CreateFamily(ctx, Family{
		InternalID: "fam-internal-1",
		Name:       "fam1",
		CustomerID: fixtures.CustomerID,
		OrderedAt:  time.Now().UTC(),
	})
	require.Nil(t, err)
	sampleID := insertSample(t, sqlConn, schemaName, fixtures, fixtures.WgsVersionID, "ACC1", nil)

	completed := time.Now().UTC()
	analysisID, err := repository.CreateAnalysis(ctx, Analysis{
		Family:      Family{ID: familyID},
		Pipeline:    "mip",
		CompletedAt: &completed,
		IsPrimary:   true,
	})
	require.Nil(t, err)

	analysis, err := repository.GetAnalysis(ctx, analysisID)
	require.Nil(t, err)
	assert.Equal(t, "fam-internal-1", analysis.Family.InternalID)
	assert.True(t, analysis.IsPrimary)
	assert.NotNil(t, analysis.CompletedAt)

	analyses, err := repository.GetAnalyses(ctx, familyID)
	require.Nil(t, err)
	assert.Len(t, analyses, 1)

	action := "analyze"
	require.Nil(t, repository.UpdateFamilyAction(ctx, familyID, &action))
	require.Nil(t, repository.UpdateFamilyAction(ctx, familyID, nil))
	family, err := repository.GetFamily(ctx, "fam-internal-1")
	require.Nil(t, err)
	assert.Nil(t, family.Action)

	require.Nil(t, repository.SetLoqusdbID(ctx, sampleID, "5f0c"))
	sample, err := repository.GetSample(ctx, "ACC1")
	require.Nil(t, err)
	require.NotNil(t, sample.LoqusdbID)
	assert.Equal(t, "5f0c", *sample.LoqusdbID)

	_, err = repository.GetAnalysis(ctx, uuid.New())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStatusRepositoryGetInvoice(t *testing.T) {
	schemaName, dbConn, sqlConn := setupDbConnectorAndRunMigration(t, "status_invoice_test")
	fixtures := insertStatusFixtures(t, sqlConn, schemaName)
	repository := NewStatusRepository(dbConn, schemaName)
	ctx := context.Background()

	invoiceID := uuid.New()
	_, err := sqlConn.Exec(fmt.Sprintf(`INSERT INTO %s.cg_invoices(id, customer_id, discount) VALUES ($1, $2, 10);`, schemaName), invoiceID, fixtures.CustomerID)
	require.Nil(t, err)
	sampleID := insertSample(t, sqlConn, schemaName, fixtures, fixtures.WgsVersionID, "ACC1", nil)
	insertSample(t, sqlConn, schemaName, fixtures, fixtures.WgsVersionID, "ACC2", nil)
	_, err = sqlConn.Exec(fmt.Sprintf(`UPDATE %s.cg_samples SET invoice_id = $1 WHERE id = $2;`, schemaName), invoiceID, sampleID)
	require.Nil(t, err)
	_, err = sqlConn.Exec(fmt.Sprintf(`INSERT INTO %s.cg_pools(name, customer_id, application_version_id, invoice_id) VALUES ('pool1', $1, $2, $3);`, schemaName),
		fixtures.CustomerID, fixtures.RmlVersionID, invoiceID)
	require.Nil(t, err)

	invoice, err := repository.GetInvoice(ctx, invoiceID)

	require.Nil(t, err)
	assert.Equal(t, 10, invoice.Discount)
	assert.Equal(t, "cust000", invoice.Customer.InternalID)
	require.NotNil(t, invoice.Customer.InvoiceContact)
	require.Len(t, invoice.Samples, 1)
	assert.Equal(t, "ACC1", invoice.Samples[0].InternalID)
	require.Len(t, invoice.Pools, 1)
	assert.Equal(t, "RMLS05R150", invoice.Pools[0].ApplicationVersion.Application.Tag)

	_, err = repository.GetInvoice(ctx, uuid.New())
	assert.True(t, errors.Is(err, ErrNotFound))
}
