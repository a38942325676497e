package labops

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/blutspende/labops/db"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type dbConnectorMock struct {
	commits   int
	rollbacks int
}

func (m *dbConnectorMock) CreateTransactionConnector() (db.DbConnector, error) {
	return m, nil
}
func (m *dbConnectorMock) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (m *dbConnectorMock) NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error) {
	return nil, nil
}
func (m *dbConnectorMock) QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	return nil, nil
}
func (m *dbConnectorMock) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return nil
}
func (m *dbConnectorMock) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return nil
}
func (m *dbConnectorMock) Rebind(query string) string {
	return query
}
func (m *dbConnectorMock) Commit() error {
	m.commits++
	return nil
}
func (m *dbConnectorMock) Rollback() error {
	m.rollbacks++
	return nil
}
func (m *dbConnectorMock) Ping() error {
	return nil
}

type stageUpdate struct {
	Kind  EntityKind
	ID    uuid.UUID
	Stage Stage
	Date  time.Time
}

type sequencingUpdate struct {
	SampleID    uuid.UUID
	Reads       int64
	SequencedAt *time.Time
}

// statusRepositoryMock is an in-memory status store. Writes made through a transaction are
// visible immediately; tx records commits.
type statusRepositoryMock struct {
	tx *dbConnectorMock

	customers        map[string]Customer
	applications     map[string]ApplicationVersion
	samples          []Sample
	families         []Family
	familySamples    []FamilySample
	pools            []Pool
	microbialSamples []MicrobialSample
	flowcells        map[string]Flowcell
	flowcellSamples  map[uuid.UUID][]uuid.UUID
	analyses         []Analysis
	invoices         map[uuid.UUID]Invoice

	stageUpdates      []stageUpdate
	sequencingUpdates []sequencingUpdate
	loqusdbIDs        map[uuid.UUID]string
	familyActions     map[uuid.UUID]*string

	createSampleErr     error
	updateStageDateErrs map[uuid.UUID]error
}

func newStatusRepositoryMock() *statusRepositoryMock {
	return &statusRepositoryMock{
		tx:                  &dbConnectorMock{},
		customers:           make(map[string]Customer),
		applications:        make(map[string]ApplicationVersion),
		flowcells:           make(map[string]Flowcell),
		flowcellSamples:     make(map[uuid.UUID][]uuid.UUID),
		invoices:            make(map[uuid.UUID]Invoice),
		loqusdbIDs:          make(map[uuid.UUID]string),
		familyActions:       make(map[uuid.UUID]*string),
		updateStageDateErrs: make(map[uuid.UUID]error),
	}
}

func (m *statusRepositoryMock) GetCustomer(ctx context.Context, internalID string) (Customer, error) {
	customer, ok := m.customers[internalID]
	if !ok {
		return Customer{}, errors.Wrap(ErrNotFound, internalID)
	}
	return customer, nil
}

func (m *statusRepositoryMock) GetApplicationVersion(ctx context.Context, tag string) (ApplicationVersion, error) {
	version, ok := m.applications[tag]
	if !ok {
		return ApplicationVersion{}, errors.Wrap(ErrNotFound, tag)
	}
	return version, nil
}

func (m *statusRepositoryMock) GetSample(ctx context.Context, internalID string) (Sample, error) {
	for _, sample := range m.samples {
		if sample.InternalID == internalID {
			return sample, nil
		}
	}
	return Sample{}, errors.Wrap(ErrNotFound, internalID)
}

func (m *statusRepositoryMock) CreateSample(ctx context.Context, sample Sample) (uuid.UUID, error) {
	if m.createSampleErr != nil {
		return uuid.Nil, m.createSampleErr
	}
	if sample.ID == uuid.Nil {
		sample.ID = uuid.New()
	}
	m.samples = append(m.samples, sample)
	return sample.ID, nil
}

func (m *statusRepositoryMock) GetSamplesAwaiting(ctx context.Context, stage Stage) ([]Sample, error) {
	samples := make([]Sample, 0)
	for _, sample := range m.samples {
		var reached *time.Time
		switch stage {
		case StageReceived:
			reached = sample.ReceivedAt
		case StagePrepared:
			reached = sample.PreparedAt
		case StageSequenced:
			reached = sample.SequencedAt
		case StageDelivered:
			reached = sample.DeliveredAt
		}
		if reached == nil {
			samples = append(samples, sample)
		}
	}
	return samples, nil
}

func (m *statusRepositoryMock) GetSamplesNotInvoiced(ctx context.Context) ([]Sample, error) {
	samples := make([]Sample, 0)
	for _, sample := range m.samples {
		if sample.InvoiceID == nil {
			samples = append(samples, sample)
		}
	}
	return samples, nil
}

func (m *statusRepositoryMock) GetSamplesNotDownsampled(ctx context.Context) ([]Sample, error) {
	samples := make([]Sample, 0)
	for _, sample := range m.samples {
		if sample.DownsampledTo == nil {
			samples = append(samples, sample)
		}
	}
	return samples, nil
}

func (m *statusRepositoryMock) GetFamily(ctx context.Context, internalID string) (Family, error) {
	for _, family := range m.families {
		if family.InternalID == internalID {
			return family, nil
		}
	}
	return Family{}, errors.Wrap(ErrNotFound, internalID)
}

func (m *statusRepositoryMock) GetFamilyByName(ctx context.Context, customerID uuid.UUID, name string) (Family, error) {
	for _, family := range m.families {
		if family.CustomerID == customerID && family.Name == name {
			return family, nil
		}
	}
	return Family{}, errors.Wrap(ErrNotFound, name)
}

func (m *statusRepositoryMock) CreateFamily(ctx context.Context, family Family) (uuid.UUID, error) {
	if family.ID == uuid.Nil {
		family.ID = uuid.New()
	}
	m.families = append(m.families, family)
	return family.ID, nil
}

func (m *statusRepositoryMock) CreateFamilySample(ctx context.Context, link FamilySample) (uuid.UUID, error) {
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	for _, sample := range m.samples {
		if sample.ID == link.Sample.ID {
			link.Sample = sample
		}
	}
	m.familySamples = append(m.familySamples, link)
	return link.ID, nil
}

func (m *statusRepositoryMock) GetFamilySamples(ctx context.Context, familyID uuid.UUID) ([]FamilySample, error) {
	links := make([]FamilySample, 0)
	for _, link := range m.familySamples {
		if link.FamilyID == familyID {
			links = append(links, link)
		}
	}
	return links, nil
}

func (m *statusRepositoryMock) UpdateFamilyAction(ctx context.Context, familyID uuid.UUID, action *string) error {
	m.familyActions[familyID] = action
	return nil
}

func (m *statusRepositoryMock) CreatePool(ctx context.Context, pool Pool) (uuid.UUID, error) {
	if pool.ID == uuid.Nil {
		pool.ID = uuid.New()
	}
	m.pools = append(m.pools, pool)
	return pool.ID, nil
}

func (m *statusRepositoryMock) GetPoolsAwaiting(ctx context.Context, stage Stage) ([]Pool, error) {
	pools := make([]Pool, 0)
	for _, pool := range m.pools {
		if (stage == StageReceived && pool.ReceivedAt == nil) || (stage == StageDelivered && pool.DeliveredAt == nil) {
			pools = append(pools, pool)
		}
	}
	return pools, nil
}

func (m *statusRepositoryMock) GetPoolsNotInvoiced(ctx context.Context) ([]Pool, error) {
	pools := make([]Pool, 0)
	for _, pool := range m.pools {
		if pool.InvoiceID == nil {
			pools = append(pools, pool)
		}
	}
	return pools, nil
}

func (m *statusRepositoryMock) GetPools(ctx context.Context) ([]Pool, error) {
	return m.pools, nil
}

func (m *statusRepositoryMock) GetMicrobialSamplesAwaiting(ctx context.Context, stage Stage) ([]MicrobialSample, error) {
	samples := make([]MicrobialSample, 0)
	for _, sample := range m.microbialSamples {
		var reached *time.Time
		switch stage {
		case StageReceived:
			reached = sample.ReceivedAt
		case StagePrepared:
			reached = sample.PreparedAt
		case StageSequenced:
			reached = sample.SequencedAt
		case StageDelivered:
			reached = sample.DeliveredAt
		}
		if reached == nil {
			samples = append(samples, sample)
		}
	}
	return samples, nil
}

func (m *statusRepositoryMock) GetMicrobialSamplesNotInvoiced(ctx context.Context) ([]MicrobialSample, error) {
	samples := make([]MicrobialSample, 0)
	for _, sample := range m.microbialSamples {
		if sample.InvoiceID == nil {
			samples = append(samples, sample)
		}
	}
	return samples, nil
}

func (m *statusRepositoryMock) GetMicrobialSamples(ctx context.Context) ([]MicrobialSample, error) {
	return m.microbialSamples, nil
}

func (m *statusRepositoryMock) UpdateStageDate(ctx context.Context, kind EntityKind, id uuid.UUID, stage Stage, date time.Time) error {
	if err := m.updateStageDateErrs[id]; err != nil {
		return err
	}
	m.stageUpdates = append(m.stageUpdates, stageUpdate{Kind: kind, ID: id, Stage: stage, Date: date})
	return nil
}

func (m *statusRepositoryMock) GetFlowcell(ctx context.Context, name string) (Flowcell, error) {
	flowcell, ok := m.flowcells[name]
	if !ok {
		return Flowcell{}, errors.Wrap(ErrNotFound, name)
	}
	flowcell.SampleIDs = m.flowcellSamples[flowcell.ID]
	return flowcell, nil
}

func (m *statusRepositoryMock) CreateFlowcell(ctx context.Context, flowcell Flowcell) (uuid.UUID, error) {
	if existing, ok := m.flowcells[flowcell.Name]; ok {
		return existing.ID, nil
	}
	if flowcell.ID == uuid.Nil {
		flowcell.ID = uuid.New()
	}
	m.flowcells[flowcell.Name] = flowcell
	return flowcell.ID, nil
}

func (m *statusRepositoryMock) UpdateSampleSequencing(ctx context.Context, sampleID uuid.UUID, reads int64, sequencedAt *time.Time) error {
	m.sequencingUpdates = append(m.sequencingUpdates, sequencingUpdate{SampleID: sampleID, Reads: reads, SequencedAt: sequencedAt})
	for i := range m.samples {
		if m.samples[i].ID == sampleID {
			m.samples[i].Reads = reads
			m.samples[i].SequencedAt = sequencedAt
		}
	}
	return nil
}

func (m *statusRepositoryMock) AddFlowcellSample(ctx context.Context, flowcellID, sampleID uuid.UUID) error {
	for _, id := range m.flowcellSamples[flowcellID] {
		if id == sampleID {
			return nil
		}
	}
	m.flowcellSamples[flowcellID] = append(m.flowcellSamples[flowcellID], sampleID)
	return nil
}

func (m *statusRepositoryMock) GetAnalysis(ctx context.Context, id uuid.UUID) (Analysis, error) {
	for _, analysis := range m.analyses {
		if analysis.ID == id {
			return analysis, nil
		}
	}
	return Analysis{}, errors.Wrap(ErrNotFound, id.String())
}

func (m *statusRepositoryMock) GetAnalyses(ctx context.Context, familyID uuid.UUID) ([]Analysis, error) {
	analyses := make([]Analysis, 0)
	for _, analysis := range m.analyses {
		if analysis.Family.ID == familyID {
			analyses = append(analyses, analysis)
		}
	}
	sort.Slice(analyses, func(i, j int) bool {
		return analyses[i].StartedAt != nil && analyses[j].StartedAt != nil && analyses[i].StartedAt.Before(*analyses[j].StartedAt)
	})
	return analyses, nil
}

func (m *statusRepositoryMock) CreateAnalysis(ctx context.Context, analysis Analysis) (uuid.UUID, error) {
	if analysis.ID == uuid.Nil {
		analysis.ID = uuid.New()
	}
	m.analyses = append(m.analyses, analysis)
	return analysis.ID, nil
}

func (m *statusRepositoryMock) SetLoqusdbID(ctx context.Context, sampleID uuid.UUID, loqusdbID string) error {
	m.loqusdbIDs[sampleID] = loqusdbID
	return nil
}

func (m *statusRepositoryMock) GetInvoice(ctx context.Context, id uuid.UUID) (Invoice, error) {
	invoice, ok := m.invoices[id]
	if !ok {
		return Invoice{}, errors.Wrap(ErrNotFound, id.String())
	}
	return invoice, nil
}

func (m *statusRepositoryMock) CreateTransaction() (db.DbConnector, error) {
	return m.tx, nil
}

func (m *statusRepositoryMock) WithTransaction(tx db.DbConnector) StatusRepository {
	return m
}

type limsMock struct {
	projects        []string
	projectSamples  [][]LimsSubmissionSample
	projectDate     time.Time
	internalIDs     map[string]string
	addProjectErr   error
	dates           map[Stage]map[string]*time.Time
	dateErrs        map[string]error
	sampleNumbers   map[int]int
	samplesByTicket map[int][]LimsSample
	dateRequests    int
}

func newLimsMock() *limsMock {
	return &limsMock{
		internalIDs:     make(map[string]string),
		dates:           make(map[Stage]map[string]*time.Time),
		dateErrs:        make(map[string]error),
		sampleNumbers:   make(map[int]int),
		samplesByTicket: make(map[int][]LimsSample),
	}
}

func (m *limsMock) AddProject(ctx context.Context, projectName string, samples []LimsSubmissionSample) (LimsProject, error) {
	if m.addProjectErr != nil {
		return LimsProject{}, m.addProjectErr
	}
	m.projects = append(m.projects, projectName)
	m.projectSamples = append(m.projectSamples, samples)
	return LimsProject{ID: "PRJ" + projectName, Name: projectName, Date: m.projectDate}, nil
}

func (m *limsMock) GetSamples(ctx context.Context, projectID string) ([]LimsSample, error) {
	samples := make([]LimsSample, 0)
	for _, submitted := range m.projectSamples[len(m.projectSamples)-1] {
		if id, ok := m.internalIDs[submitted.Name]; ok {
			samples = append(samples, LimsSample{ID: id, Name: submitted.Name, Udfs: submitted.Udfs})
		}
	}
	return samples, nil
}

func (m *limsMock) date(stage Stage, sampleID string) (*time.Time, error) {
	m.dateRequests++
	if err := m.dateErrs[sampleID]; err != nil {
		return nil, err
	}
	return m.dates[stage][sampleID], nil
}

func (m *limsMock) GetReceivedDate(ctx context.Context, sampleID string) (*time.Time, error) {
	return m.date(StageReceived, sampleID)
}

func (m *limsMock) GetPreparedDate(ctx context.Context, sampleID string) (*time.Time, error) {
	return m.date(StagePrepared, sampleID)
}

func (m *limsMock) GetSequencedDate(ctx context.Context, sampleID string) (*time.Time, error) {
	return m.date(StageSequenced, sampleID)
}

func (m *limsMock) GetDeliveryDate(ctx context.Context, sampleID string) (*time.Time, error) {
	return m.date(StageDelivered, sampleID)
}

func (m *limsMock) GetSampleNumber(ctx context.Context, ticket int) (int, error) {
	return m.sampleNumbers[ticket], nil
}

func (m *limsMock) GetSamplesByTicket(ctx context.Context, ticket int) ([]LimsSample, error) {
	return m.samplesByTicket[ticket], nil
}

func (m *limsMock) setDate(stage Stage, sampleID string, date time.Time) {
	if m.dates[stage] == nil {
		m.dates[stage] = make(map[string]*time.Time)
	}
	m.dates[stage][sampleID] = &date
}

type ticketClientMock struct {
	ticket   int
	err      error
	requests []string
}

func (m *ticketClientMock) OpenTicket(ctx context.Context, name, email, subject, message string) (int, error) {
	m.requests = append(m.requests, message)
	if m.err != nil {
		return 0, m.err
	}
	return m.ticket, nil
}

func timePointer(t time.Time) *time.Time {
	return &t
}

func intPointer(i int) *int {
	return &i
}
