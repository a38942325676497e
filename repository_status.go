package labops

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/blutspende/labops/db"
	"github.com/blutspende/labops/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	msgGetCustomerFailed            = "get customer failed"
	msgGetApplicationVersionFailed  = "get application version failed"
	msgGetSamplesFailed             = "get samples failed"
	msgCreateSampleFailed           = "create sample failed"
	msgGetFamilyFailed              = "get family failed"
	msgCreateFamilyFailed           = "create family failed"
	msgCreateFamilySampleFailed     = "create family sample link failed"
	msgGetPoolsFailed               = "get pools failed"
	msgCreatePoolFailed             = "create pool failed"
	msgGetMicrobialSamplesFailed    = "get microbial samples failed"
	msgUpdateStageDateFailed        = "update stage date failed"
	msgGetFlowcellFailed            = "get flowcell failed"
	msgCreateFlowcellFailed         = "create flowcell failed"
	msgUpdateSampleSequencingFailed = "update sample sequencing failed"
	msgAddFlowcellSampleFailed      = "add sample to flowcell failed"
	msgGetAnalysisFailed            = "get analysis failed"
	msgCreateAnalysisFailed         = "create analysis failed"
	msgUpdateFamilyActionFailed     = "update family action failed"
	msgSetLoqusdbIDFailed           = "set loqusdb id failed"
	msgGetInvoiceFailed             = "get invoice failed"
)

var (
	ErrGetCustomerFailed            = errors.New(msgGetCustomerFailed)
	ErrGetApplicationVersionFailed  = errors.New(msgGetApplicationVersionFailed)
	ErrGetSamplesFailed             = errors.New(msgGetSamplesFailed)
	ErrCreateSampleFailed           = errors.New(msgCreateSampleFailed)
	ErrGetFamilyFailed              = errors.New(msgGetFamilyFailed)
	ErrCreateFamilyFailed           = errors.New(msgCreateFamilyFailed)
	ErrCreateFamilySampleFailed     = errors.New(msgCreateFamilySampleFailed)
	ErrGetPoolsFailed               = errors.New(msgGetPoolsFailed)
	ErrCreatePoolFailed             = errors.New(msgCreatePoolFailed)
	ErrGetMicrobialSamplesFailed    = errors.New(msgGetMicrobialSamplesFailed)
	ErrUpdateStageDateFailed        = errors.New(msgUpdateStageDateFailed)
	ErrGetFlowcellFailed            = errors.New(msgGetFlowcellFailed)
	ErrCreateFlowcellFailed         = errors.New(msgCreateFlowcellFailed)
	ErrUpdateSampleSequencingFailed = errors.New(msgUpdateSampleSequencingFailed)
	ErrAddFlowcellSampleFailed      = errors.New(msgAddFlowcellSampleFailed)
	ErrGetAnalysisFailed            = errors.New(msgGetAnalysisFailed)
	ErrCreateAnalysisFailed         = errors.New(msgCreateAnalysisFailed)
	ErrUpdateFamilyActionFailed     = errors.New(msgUpdateFamilyActionFailed)
	ErrSetLoqusdbIDFailed           = errors.New(msgSetLoqusdbIDFailed)
	ErrGetInvoiceFailed             = errors.New(msgGetInvoiceFailed)
)

// StatusRepository is the relational status store of customers, samples, families, pools,
// flowcells, analyses and invoices.
type StatusRepository interface {
	GetCustomer(ctx context.Context, internalID string) (Customer, error)
	GetApplicationVersion(ctx context.Context, tag string) (ApplicationVersion, error)

	GetSample(ctx context.Context, internalID string) (Sample, error)
	CreateSample(ctx context.Context, sample Sample) (uuid.UUID, error)
	GetSamplesAwaiting(ctx context.Context, stage Stage) ([]Sample, error)
	GetSamplesNotInvoiced(ctx context.Context) ([]Sample, error)
	GetSamplesNotDownsampled(ctx context.Context) ([]Sample, error)

	GetFamily(ctx context.Context, internalID string) (Family, error)
	GetFamilyByName(ctx context.Context, customerID uuid.UUID, name string) (Family, error)
	CreateFamily(ctx context.Context, family Family) (uuid.UUID, error)
	CreateFamilySample(ctx context.Context, link FamilySample) (uuid.UUID, error)
	GetFamilySamples(ctx context.Context, familyID uuid.UUID) ([]FamilySample, error)
	UpdateFamilyAction(ctx context.Context, familyID uuid.UUID, action *string) error

	CreatePool(ctx context.Context, pool Pool) (uuid.UUID, error)
	GetPoolsAwaiting(ctx context.Context, stage Stage) ([]Pool, error)
	GetPoolsNotInvoiced(ctx context.Context) ([]Pool, error)
	GetPools(ctx context.Context) ([]Pool, error)

	GetMicrobialSamplesAwaiting(ctx context.Context, stage Stage) ([]MicrobialSample, error)
	GetMicrobialSamplesNotInvoiced(ctx context.Context) ([]MicrobialSample, error)
	GetMicrobialSamples(ctx context.Context) ([]MicrobialSample, error)

	UpdateStageDate(ctx context.Context, kind EntityKind, id uuid.UUID, stage Stage, date time.Time) error

	GetFlowcell(ctx context.Context, name string) (Flowcell, error)
	CreateFlowcell(ctx context.Context, flowcell Flowcell) (uuid.UUID, error)
	UpdateSampleSequencing(ctx context.Context, sampleID uuid.UUID, reads int64, sequencedAt *time.Time) error
	AddFlowcellSample(ctx context.Context, flowcellID, sampleID uuid.UUID) error

	GetAnalysis(ctx context.Context, id uuid.UUID) (Analysis, error)
	GetAnalyses(ctx context.Context, familyID uuid.UUID) ([]Analysis, error)
	CreateAnalysis(ctx context.Context, analysis Analysis) (uuid.UUID, error)

	SetLoqusdbID(ctx context.Context, sampleID uuid.UUID, loqusdbID string) error

	GetInvoice(ctx context.Context, id uuid.UUID) (Invoice, error)

	CreateTransaction() (db.DbConnector, error)
	WithTransaction(tx db.DbConnector) StatusRepository
}

var entityTables = map[EntityKind]string{
	EntityKindSample:          "cg_samples",
	EntityKindPool:            "cg_pools",
	EntityKindMicrobialSample: "cg_microbial_samples",
}

// predicates selecting the entities that have not reached a stage yet
var awaitingStagePredicates = map[EntityKind]map[Stage]string{
	EntityKindSample: {
		StageReceived:  "e.received_at IS NULL AND a.is_external = false",
		StagePrepared:  "e.received_at IS NOT NULL AND e.prepared_at IS NULL AND a.is_external = false",
		StageSequenced: "e.prepared_at IS NOT NULL AND e.sequenced_at IS NULL",
		StageDelivered: "e.sequenced_at IS NOT NULL AND e.delivered_at IS NULL AND e.downsampled_to IS NULL",
	},
	EntityKindPool: {
		StageReceived:  "e.received_at IS NULL",
		StageDelivered: "e.received_at IS NOT NULL AND e.delivered_at IS NULL",
	},
	EntityKindMicrobialSample: {
		StageReceived:  "e.received_at IS NULL",
		StagePrepared:  "e.received_at IS NOT NULL AND e.prepared_at IS NULL",
		StageSequenced: "e.received_at IS NOT NULL AND e.sequenced_at IS NULL",
		StageDelivered: "e.sequenced_at IS NOT NULL AND e.delivered_at IS NULL",
	},
}

const applicationVersionColumns = `av.id AS av_id, av.version AS av_version, av.valid_from AS av_valid_from,
	av.price_standard AS av_price_standard, av.price_priority AS av_price_priority, av.price_express AS av_price_express,
	av.price_research AS av_price_research, av.price_clinical_trials AS av_price_clinical_trials,
	a.id AS app_id, a.tag AS app_tag, a.category AS app_category, a.description AS app_description,
	a.is_external AS app_is_external, a.target_reads AS app_target_reads,
	a.percent_reads_guaranteed AS app_percent_reads_guaranteed, a.percent_kth AS app_percent_kth`

type customerDAO struct {
	ID                    uuid.UUID      `db:"id"`
	InternalID            string         `db:"internal_id"`
	Name                  string         `db:"name"`
	AgreementRegistration sql.NullString `db:"agreement_registration"`
	InvoiceAddress        sql.NullString `db:"invoice_address"`
	InvoiceReference      sql.NullString `db:"invoice_reference"`
	InvoiceContactID      uuid.NullUUID  `db:"invoice_contact_id"`
	ProjectAccountKI      sql.NullString `db:"project_account_ki"`
	ProjectAccountKTH     sql.NullString `db:"project_account_kth"`
	CreatedAt             time.Time      `db:"created_at"`
	ContactName           sql.NullString `db:"contact_name"`
	ContactEmail          sql.NullString `db:"contact_email"`
}

type applicationVersionDAO struct {
	AvID                      uuid.UUID           `db:"av_id"`
	AvVersion                 int                 `db:"av_version"`
	AvValidFrom               time.Time           `db:"av_valid_from"`
	AvPriceStandard           decimal.NullDecimal `db:"av_price_standard"`
	AvPricePriority           decimal.NullDecimal `db:"av_price_priority"`
	AvPriceExpress            decimal.NullDecimal `db:"av_price_express"`
	AvPriceResearch           decimal.NullDecimal `db:"av_price_research"`
	AvPriceClinicalTrials     decimal.NullDecimal `db:"av_price_clinical_trials"`
	AppID                     uuid.UUID           `db:"app_id"`
	AppTag                    string              `db:"app_tag"`
	AppCategory               string              `db:"app_category"`
	AppDescription            string              `db:"app_description"`
	AppIsExternal             bool                `db:"app_is_external"`
	AppTargetReads            int64               `db:"app_target_reads"`
	AppPercentReadsGuaranteed int                 `db:"app_percent_reads_guaranteed"`
	AppPercentKTH             sql.NullInt64       `db:"app_percent_kth"`
}

type sampleDAO struct {
	ID                   uuid.UUID      `db:"id"`
	InternalID           string         `db:"internal_id"`
	Name                 string         `db:"name"`
	CustomerID           uuid.UUID      `db:"customer_id"`
	ApplicationVersionID uuid.UUID      `db:"application_version_id"`
	Sex                  string         `db:"sex"`
	Priority             int            `db:"priority"`
	TicketNumber         sql.NullInt64  `db:"ticket_number"`
	OrderName            string         `db:"order_name"`
	Comment              sql.NullString `db:"comment"`
	IsTumour             bool           `db:"is_tumour"`
	CaptureKit           sql.NullString `db:"capture_kit"`
	DataAnalysis         sql.NullString `db:"data_analysis"`
	Reads                int64          `db:"reads"`
	DownsampledTo        sql.NullInt64  `db:"downsampled_to"`
	OrderedAt            time.Time      `db:"ordered_at"`
	ReceivedAt           sql.NullTime   `db:"received_at"`
	PreparedAt           sql.NullTime   `db:"prepared_at"`
	SequencedAt          sql.NullTime   `db:"sequenced_at"`
	DeliveredAt          sql.NullTime   `db:"delivered_at"`
	InvoicedAt           sql.NullTime   `db:"invoiced_at"`
	InvoiceID            uuid.NullUUID  `db:"invoice_id"`
	LoqusdbID            sql.NullString `db:"loqusdb_id"`
	CreatedAt            time.Time      `db:"created_at"`
	applicationVersionDAO
}

type familyDAO struct {
	ID          uuid.UUID      `db:"id"`
	InternalID  string         `db:"internal_id"`
	Name        string         `db:"name"`
	CustomerID  uuid.UUID      `db:"customer_id"`
	Priority    int            `db:"priority"`
	Panels      pq.StringArray `db:"panels"`
	Action      sql.NullString `db:"action"`
	RequireQCOK bool           `db:"require_qcok"`
	OrderedAt   time.Time      `db:"ordered_at"`
	CreatedAt   time.Time      `db:"created_at"`
}

type familySampleDAO struct {
	LinkID     uuid.UUID     `db:"link_id"`
	FamilyID   uuid.UUID     `db:"family_id"`
	LinkStatus string        `db:"link_status"`
	MotherID   uuid.NullUUID `db:"mother_id"`
	FatherID   uuid.NullUUID `db:"father_id"`
	sampleDAO
}

type poolDAO struct {
	ID                   uuid.UUID     `db:"id"`
	Name                 string        `db:"name"`
	OrderName            string        `db:"order_name"`
	TicketNumber         sql.NullInt64 `db:"ticket_number"`
	CustomerID           uuid.UUID     `db:"customer_id"`
	ApplicationVersionID uuid.UUID     `db:"application_version_id"`
	OrderedAt            time.Time     `db:"ordered_at"`
	ReceivedAt           sql.NullTime  `db:"received_at"`
	DeliveredAt          sql.NullTime  `db:"delivered_at"`
	InvoicedAt           sql.NullTime  `db:"invoiced_at"`
	InvoiceID            uuid.NullUUID `db:"invoice_id"`
	NoInvoice            bool          `db:"no_invoice"`
	CreatedAt            time.Time     `db:"created_at"`
	applicationVersionDAO
}

type microbialSampleDAO struct {
	ID                   uuid.UUID      `db:"id"`
	InternalID           string         `db:"internal_id"`
	Name                 string         `db:"name"`
	OrderName            string         `db:"order_name"`
	TicketNumber         sql.NullInt64  `db:"ticket_number"`
	CustomerID           uuid.UUID      `db:"customer_id"`
	ApplicationVersionID uuid.UUID      `db:"application_version_id"`
	Organism             sql.NullString `db:"organism"`
	ReferenceGenome      sql.NullString `db:"reference_genome"`
	Priority             int            `db:"priority"`
	OrderedAt            time.Time      `db:"ordered_at"`
	ReceivedAt           sql.NullTime   `db:"received_at"`
	PreparedAt           sql.NullTime   `db:"prepared_at"`
	SequencedAt          sql.NullTime   `db:"sequenced_at"`
	DeliveredAt          sql.NullTime   `db:"delivered_at"`
	InvoicedAt           sql.NullTime   `db:"invoiced_at"`
	InvoiceID            uuid.NullUUID  `db:"invoice_id"`
	CreatedAt            time.Time      `db:"created_at"`
	applicationVersionDAO
}

type flowcellDAO struct {
	ID            uuid.UUID    `db:"id"`
	Name          string       `db:"name"`
	SequencerName string       `db:"sequencer_name"`
	SequencerType string       `db:"sequencer_type"`
	SequencedAt   sql.NullTime `db:"sequenced_at"`
	Status        string       `db:"status"`
	CreatedAt     time.Time    `db:"created_at"`
}

type analysisDAO struct {
	ID              uuid.UUID      `db:"id"`
	FamilyID        uuid.UUID      `db:"family_id"`
	Pipeline        string         `db:"pipeline"`
	PipelineVersion sql.NullString `db:"pipeline_version"`
	StartedAt       sql.NullTime   `db:"started_at"`
	CompletedAt     sql.NullTime   `db:"completed_at"`
	UploadedAt      sql.NullTime   `db:"uploaded_at"`
	IsPrimary       bool           `db:"is_primary"`
	IsDeleted       bool           `db:"is_deleted"`
	ConfigPath      sql.NullString `db:"config_path"`
	CreatedAt       time.Time      `db:"created_at"`
}

type invoiceDAO struct {
	ID          uuid.UUID    `db:"id"`
	CustomerID  uuid.UUID    `db:"customer_id"`
	Discount    int          `db:"discount"`
	InvoicedAt  sql.NullTime `db:"invoiced_at"`
	CreatedAt   time.Time    `db:"created_at"`
	CustomerRef string       `db:"customer_internal_id"`
}

type statusRepository struct {
	db       db.DbConnector
	dbSchema string
}

func NewStatusRepository(db db.DbConnector, dbSchema string) StatusRepository {
	return &statusRepository{
		db:       db,
		dbSchema: dbSchema,
	}
}

func (r *statusRepository) GetCustomer(ctx context.Context, internalID string) (Customer, error) {
	query := fmt.Sprintf(`SELECT c.*, u.name AS contact_name, u.email AS contact_email FROM %s.cg_customers c
		LEFT JOIN %s.cg_users u ON u.id = c.invoice_contact_id
		WHERE c.internal_id = $1;`, r.dbSchema, r.dbSchema)
	var dao customerDAO
	err := r.db.GetContext(ctx, &dao, query, internalID)
	if err != nil {
		if err == sql.ErrNoRows {
			return Customer{}, errors.Wrapf(ErrNotFound, "customer %s", internalID)
		}
		log.Error().Err(err).Str("customer", internalID).Msg(msgGetCustomerFailed)
		return Customer{}, ErrGetCustomerFailed
	}
	return convertDAOToCustomer(dao), nil
}

// GetApplicationVersion returns the latest version of an application tag.
func (r *statusRepository) GetApplicationVersion(ctx context.Context, tag string) (ApplicationVersion, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s.cg_application_versions av
		INNER JOIN %s.cg_applications a ON a.id = av.application_id
		WHERE a.tag = $1 ORDER BY av.version DESC LIMIT 1;`, applicationVersionColumns, r.dbSchema, r.dbSchema)
	var dao applicationVersionDAO
	err := r.db.GetContext(ctx, &dao, query, tag)
	if err != nil {
		if err == sql.ErrNoRows {
			return ApplicationVersion{}, errors.Wrapf(ErrNotFound, "application %s", tag)
		}
		log.Error().Err(err).Str("application", tag).Msg(msgGetApplicationVersionFailed)
		return ApplicationVersion{}, ErrGetApplicationVersionFailed
	}
	return convertDAOToApplicationVersion(dao), nil
}

func (r *statusRepository) sampleSelect() string {
	return fmt.Sprintf(`SELECT e.*, %s FROM %s.cg_samples e
		INNER JOIN %s.cg_application_versions av ON av.id = e.application_version_id
		INNER JOIN %s.cg_applications a ON a.id = av.application_id`, applicationVersionColumns, r.dbSchema, r.dbSchema, r.dbSchema)
}

func (r *statusRepository) GetSample(ctx context.Context, internalID string) (Sample, error) {
	samples, err := r.selectSamples(ctx, "e.internal_id = $1", internalID)
	if err != nil {
		return Sample{}, err
	}
	if len(samples) == 0 {
		return Sample{}, errors.Wrapf(ErrNotFound, "sample %s", internalID)
	}
	return samples[0], nil
}

func (r *statusRepository) CreateSample(ctx context.Context, sample Sample) (uuid.UUID, error) {
	if sample.ID == uuid.Nil {
		sample.ID = uuid.New()
	}
	query := fmt.Sprintf(`INSERT INTO %s.cg_samples(id, internal_id, name, customer_id, application_version_id, sex, priority,
			ticket_number, order_name, comment, is_tumour, capture_kit, data_analysis, ordered_at, received_at)
		VALUES (:id, :internal_id, :name, :customer_id, :application_version_id, :sex, :priority,
			:ticket_number, :order_name, :comment, :is_tumour, :capture_kit, :data_analysis, :ordered_at, :received_at);`, r.dbSchema)
	_, err := r.db.NamedExecContext(ctx, query, convertSampleToDAO(sample))
	if err != nil {
		log.Error().Err(err).Str("sample", sample.InternalID).Msg(msgCreateSampleFailed)
		return uuid.Nil, ErrCreateSampleFailed
	}
	return sample.ID, nil
}

func (r *statusRepository) GetSamplesAwaiting(ctx context.Context, stage Stage) ([]Sample, error) {
	predicate, ok := awaitingStagePredicates[EntityKindSample][stage]
	if !ok {
		return nil, ErrInvalidStage
	}
	return r.selectSamples(ctx, predicate)
}

func (r *statusRepository) GetSamplesNotInvoiced(ctx context.Context) ([]Sample, error) {
	return r.selectSamples(ctx, "e.invoice_id IS NULL")
}

func (r *statusRepository) GetSamplesNotDownsampled(ctx context.Context) ([]Sample, error) {
	return r.selectSamples(ctx, "e.downsampled_to IS NULL")
}

func (r *statusRepository) selectSamples(ctx context.Context, predicate string, args ...interface{}) ([]Sample, error) {
	query := fmt.Sprintf(`%s WHERE %s ORDER BY e.ordered_at, e.internal_id;`, r.sampleSelect(), predicate)
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		log.Error().Err(err).Msg(msgGetSamplesFailed)
		return nil, ErrGetSamplesFailed
	}
	defer rows.Close()

	samples := make([]Sample, 0)
	for rows.Next() {
		var dao sampleDAO
		err = rows.StructScan(&dao)
		if err != nil {
			log.Error().Err(err).Msg(msgGetSamplesFailed)
			return nil, ErrGetSamplesFailed
		}
		samples = append(samples, convertDAOToSample(dao))
	}
	return samples, nil
}

func (r *statusRepository) GetFamily(ctx context.Context, internalID string) (Family, error) {
	query := fmt.Sprintf(`SELECT * FROM %s.cg_families WHERE internal_id = $1;`, r.dbSchema)
	return r.getFamily(ctx, query, internalID)
}

func (r *statusRepository) GetFamilyByName(ctx context.Context, customerID uuid.UUID, name string) (Family, error) {
	query := fmt.Sprintf(`SELECT * FROM %s.cg_families WHERE customer_id = $1 AND name = $2;`, r.dbSchema)
	return r.getFamily(ctx, query, customerID, name)
}

func (r *statusRepository) getFamily(ctx context.Context, query string, args ...interface{}) (Family, error) {
	var dao familyDAO
	err := r.db.GetContext(ctx, &dao, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return Family{}, errors.Wrap(ErrNotFound, "family")
		}
		log.Error().Err(err).Msg(msgGetFamilyFailed)
		return Family{}, ErrGetFamilyFailed
	}
	return convertDAOToFamily(dao), nil
}

func (r *statusRepository) CreateFamily(ctx context.Context, family Family) (uuid.UUID, error) {
	if family.ID == uuid.Nil {
		family.ID = uuid.New()
	}
	query := fmt.Sprintf(`INSERT INTO %s.cg_families(id, internal_id, name, customer_id, priority, panels, action, require_qcok, ordered_at)
		VALUES (:id, :internal_id, :name, :customer_id, :priority, :panels, :action, :require_qcok, :ordered_at);`, r.dbSchema)
	_, err := r.db.NamedExecContext(ctx, query, convertFamilyToDAO(family))
	if err != nil {
		log.Error().Err(err).Str("family", family.Name).Msg(msgCreateFamilyFailed)
		return uuid.Nil, ErrCreateFamilyFailed
	}
	return family.ID, nil
}

func (r *statusRepository) CreateFamilySample(ctx context.Context, link FamilySample) (uuid.UUID, error) {
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	query := fmt.Sprintf(`INSERT INTO %s.cg_family_samples(id, family_id, sample_id, status, mother_id, father_id)
		VALUES ($1, $2, $3, $4, $5, $6);`, r.dbSchema)
	_, err := r.db.ExecContext(ctx, query, link.ID, link.FamilyID, link.Sample.ID, link.Status,
		uuidPointerToNullUUID(link.MotherID), uuidPointerToNullUUID(link.FatherID))
	if err != nil {
		log.Error().Err(err).Str("sample", link.Sample.InternalID).Msg(msgCreateFamilySampleFailed)
		return uuid.Nil, ErrCreateFamilySampleFailed
	}
	return link.ID, nil
}

func (r *statusRepository) GetFamilySamples(ctx context.Context, familyID uuid.UUID) ([]FamilySample, error) {
	query := fmt.Sprintf(`SELECT fs.id AS link_id, fs.family_id, fs.status AS link_status, fs.mother_id, fs.father_id, e.*, %s
		FROM %s.cg_family_samples fs
		INNER JOIN %s.cg_samples e ON e.id = fs.sample_id
		INNER JOIN %s.cg_application_versions av ON av.id = e.application_version_id
		INNER JOIN %s.cg_applications a ON a.id = av.application_id
		WHERE fs.family_id = $1 ORDER BY fs.created_at, e.internal_id;`,
		applicationVersionColumns, r.dbSchema, r.dbSchema, r.dbSchema, r.dbSchema)
	rows, err := r.db.QueryxContext(ctx, query, familyID)
	if err != nil {
		log.Error().Err(err).Msg(msgGetSamplesFailed)
		return nil, ErrGetSamplesFailed
	}
	defer rows.Close()

	links := make([]FamilySample, 0)
	for rows.Next() {
		var dao familySampleDAO
		err = rows.StructScan(&dao)
		if err != nil {
			log.Error().Err(err).Msg(msgGetSamplesFailed)
			return nil, ErrGetSamplesFailed
		}
		links = append(links, FamilySample{
			ID:       dao.LinkID,
			FamilyID: dao.FamilyID,
			Sample:   convertDAOToSample(dao.sampleDAO),
			Status:   dao.LinkStatus,
			MotherID: nullUUIDToUUIDPointer(dao.MotherID),
			FatherID: nullUUIDToUUIDPointer(dao.FatherID),
		})
	}
	return links, nil
}

func (r *statusRepository) UpdateFamilyAction(ctx context.Context, familyID uuid.UUID, action *string) error {
	query := fmt.Sprintf(`UPDATE %s.cg_families SET action = $1 WHERE id = $2;`, r.dbSchema)
	_, err := r.db.ExecContext(ctx, query, utils.StringPointerToSqlNullString(action), familyID)
	if err != nil {
		log.Error().Err(err).Msg(msgUpdateFamilyActionFailed)
		return ErrUpdateFamilyActionFailed
	}
	return nil
}

func (r *statusRepository) CreatePool(ctx context.Context, pool Pool) (uuid.UUID, error) {
	if pool.ID == uuid.Nil {
		pool.ID = uuid.New()
	}
	query := fmt.Sprintf(`INSERT INTO %s.cg_pools(id, name, order_name, ticket_number, customer_id, application_version_id, ordered_at, no_invoice)
		VALUES (:id, :name, :order_name, :ticket_number, :customer_id, :application_version_id, :ordered_at, :no_invoice);`, r.dbSchema)
	_, err := r.db.NamedExecContext(ctx, query, convertPoolToDAO(pool))
	if err != nil {
		log.Error().Err(err).Str("pool", pool.Name).Msg(msgCreatePoolFailed)
		return uuid.Nil, ErrCreatePoolFailed
	}
	return pool.ID, nil
}

func (r *statusRepository) GetPoolsAwaiting(ctx context.Context, stage Stage) ([]Pool, error) {
	predicate, ok := awaitingStagePredicates[EntityKindPool][stage]
	if !ok {
		return nil, ErrInvalidStage
	}
	return r.selectPools(ctx, predicate)
}

func (r *statusRepository) GetPoolsNotInvoiced(ctx context.Context) ([]Pool, error) {
	return r.selectPools(ctx, "e.invoice_id IS NULL AND e.no_invoice = false")
}

func (r *statusRepository) GetPools(ctx context.Context) ([]Pool, error) {
	return r.selectPools(ctx, "true")
}

func (r *statusRepository) selectPools(ctx context.Context, predicate string, args ...interface{}) ([]Pool, error) {
	query := fmt.Sprintf(`SELECT e.*, %s FROM %s.cg_pools e
		INNER JOIN %s.cg_application_versions av ON av.id = e.application_version_id
		INNER JOIN %s.cg_applications a ON a.id = av.application_id
		WHERE %s ORDER BY e.ordered_at, e.name;`, applicationVersionColumns, r.dbSchema, r.dbSchema, r.dbSchema, predicate)
	daos := make([]poolDAO, 0)
	err := r.db.SelectContext(ctx, &daos, query, args...)
	if err != nil {
		log.Error().Err(err).Msg(msgGetPoolsFailed)
		return nil, ErrGetPoolsFailed
	}
	pools := make([]Pool, 0, len(daos))
	for _, dao := range daos {
		pools = append(pools, convertDAOToPool(dao))
	}
	return pools, nil
}

func (r *statusRepository) GetMicrobialSamplesAwaiting(ctx context.Context, stage Stage) ([]MicrobialSample, error) {
	predicate, ok := awaitingStagePredicates[EntityKindMicrobialSample][stage]
	if !ok {
		return nil, ErrInvalidStage
	}
	return r.selectMicrobialSamples(ctx, predicate)
}

func (r *statusRepository) GetMicrobialSamplesNotInvoiced(ctx context.Context) ([]MicrobialSample, error) {
	return r.selectMicrobialSamples(ctx, "e.invoice_id IS NULL")
}

func (r *statusRepository) GetMicrobialSamples(ctx context.Context) ([]MicrobialSample, error) {
	return r.selectMicrobialSamples(ctx, "true")
}

func (r *statusRepository) selectMicrobialSamples(ctx context.Context, predicate string) ([]MicrobialSample, error) {
	query := fmt.Sprintf(`SELECT e.*, %s FROM %s.cg_microbial_samples e
		INNER JOIN %s.cg_application_versions av ON av.id = e.application_version_id
		INNER JOIN %s.cg_applications a ON a.id = av.application_id
		WHERE %s ORDER BY e.ordered_at, e.internal_id;`, applicationVersionColumns, r.dbSchema, r.dbSchema, r.dbSchema, predicate)
	daos := make([]microbialSampleDAO, 0)
	err := r.db.SelectContext(ctx, &daos, query)
	if err != nil {
		log.Error().Err(err).Msg(msgGetMicrobialSamplesFailed)
		return nil, ErrGetMicrobialSamplesFailed
	}
	samples := make([]MicrobialSample, 0, len(daos))
	for _, dao := range daos {
		samples = append(samples, convertDAOToMicrobialSample(dao))
	}
	return samples, nil
}

// UpdateStageDate sets "<stage>_at" of one entity. Only stages valid for the kind are accepted,
// which also keeps the column name out of reach of callers.
func (r *statusRepository) UpdateStageDate(ctx context.Context, kind EntityKind, id uuid.UUID, stage Stage, date time.Time) error {
	table, ok := entityTables[kind]
	if !ok || !IsTransferStage(kind, stage) {
		return ErrInvalidStage
	}
	query := fmt.Sprintf(`UPDATE %s.%s SET %s = $1 WHERE id = $2;`, r.dbSchema, table, stage.Column())
	_, err := r.db.ExecContext(ctx, query, date, id)
	if err != nil {
		log.Error().Err(err).Str("kind", string(kind)).Str("stage", string(stage)).Msg(msgUpdateStageDateFailed)
		return ErrUpdateStageDateFailed
	}
	return nil
}

func (r *statusRepository) GetFlowcell(ctx context.Context, name string) (Flowcell, error) {
	query := fmt.Sprintf(`SELECT * FROM %s.cg_flowcells WHERE name = $1;`, r.dbSchema)
	var dao flowcellDAO
	err := r.db.GetContext(ctx, &dao, query, name)
	if err != nil {
		if err == sql.ErrNoRows {
			return Flowcell{}, errors.Wrapf(ErrNotFound, "flowcell %s", name)
		}
		log.Error().Err(err).Str("flowcell", name).Msg(msgGetFlowcellFailed)
		return Flowcell{}, ErrGetFlowcellFailed
	}

	sampleIDs := make([]uuid.UUID, 0)
	query = fmt.Sprintf(`SELECT sample_id FROM %s.cg_flowcell_samples WHERE flowcell_id = $1 ORDER BY created_at;`, r.dbSchema)
	err = r.db.SelectContext(ctx, &sampleIDs, query, dao.ID)
	if err != nil {
		log.Error().Err(err).Str("flowcell", name).Msg(msgGetFlowcellFailed)
		return Flowcell{}, ErrGetFlowcellFailed
	}

	flowcell := convertDAOToFlowcell(dao)
	flowcell.SampleIDs = sampleIDs
	return flowcell, nil
}

// CreateFlowcell inserts the flowcell unless one with the same name exists and returns the stored id.
func (r *statusRepository) CreateFlowcell(ctx context.Context, flowcell Flowcell) (uuid.UUID, error) {
	if flowcell.ID == uuid.Nil {
		flowcell.ID = uuid.New()
	}
	query := fmt.Sprintf(`INSERT INTO %s.cg_flowcells(id, name, sequencer_name, sequencer_type, sequenced_at, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id;`, r.dbSchema)
	var id uuid.UUID
	err := r.db.GetContext(ctx, &id, query, flowcell.ID, flowcell.Name, flowcell.SequencerName, flowcell.SequencerType,
		flowcell.SequencedAt, flowcell.Status)
	if err != nil {
		log.Error().Err(err).Str("flowcell", flowcell.Name).Msg(msgCreateFlowcellFailed)
		return uuid.Nil, ErrCreateFlowcellFailed
	}
	return id, nil
}

func (r *statusRepository) UpdateSampleSequencing(ctx context.Context, sampleID uuid.UUID, reads int64, sequencedAt *time.Time) error {
	query := fmt.Sprintf(`UPDATE %s.cg_samples SET reads = $1, sequenced_at = $2 WHERE id = $3;`, r.dbSchema)
	_, err := r.db.ExecContext(ctx, query, reads, utils.TimePointerToSqlNullTime(sequencedAt), sampleID)
	if err != nil {
		log.Error().Err(err).Msg(msgUpdateSampleSequencingFailed)
		return ErrUpdateSampleSequencingFailed
	}
	return nil
}

func (r *statusRepository) AddFlowcellSample(ctx context.Context, flowcellID, sampleID uuid.UUID) error {
	query := fmt.Sprintf(`INSERT INTO %s.cg_flowcell_samples(flowcell_id, sample_id) VALUES ($1, $2)
		ON CONFLICT (flowcell_id, sample_id) DO NOTHING;`, r.dbSchema)
	_, err := r.db.ExecContext(ctx, query, flowcellID, sampleID)
	if err != nil {
		log.Error().Err(err).Msg(msgAddFlowcellSampleFailed)
		return ErrAddFlowcellSampleFailed
	}
	return nil
}

func (r *statusRepository) GetAnalysis(ctx context.Context, id uuid.UUID) (Analysis, error) {
	query := fmt.Sprintf(`SELECT * FROM %s.cg_analyses WHERE id = $1 AND is_deleted = false;`, r.dbSchema)
	var dao analysisDAO
	err := r.db.GetContext(ctx, &dao, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return Analysis{}, errors.Wrapf(ErrNotFound, "analysis %s", id)
		}
		log.Error().Err(err).Msg(msgGetAnalysisFailed)
		return Analysis{}, ErrGetAnalysisFailed
	}

	query = fmt.Sprintf(`SELECT * FROM %s.cg_families WHERE id = $1;`, r.dbSchema)
	family, err := r.getFamily(ctx, query, dao.FamilyID)
	if err != nil {
		return Analysis{}, err
	}
	analysis := convertDAOToAnalysis(dao)
	analysis.Family = family
	return analysis, nil
}

func (r *statusRepository) GetAnalyses(ctx context.Context, familyID uuid.UUID) ([]Analysis, error) {
	query := fmt.Sprintf(`SELECT * FROM %s.cg_analyses WHERE family_id = $1 AND is_deleted = false ORDER BY started_at;`, r.dbSchema)
	daos := make([]analysisDAO, 0)
	err := r.db.SelectContext(ctx, &daos, query, familyID)
	if err != nil {
		log.Error().Err(err).Msg(msgGetAnalysisFailed)
		return nil, ErrGetAnalysisFailed
	}
	analyses := make([]Analysis, 0, len(daos))
	for _, dao := range daos {
		analyses = append(analyses, convertDAOToAnalysis(dao))
	}
	return analyses, nil
}

func (r *statusRepository) CreateAnalysis(ctx context.Context, analysis Analysis) (uuid.UUID, error) {
	if analysis.ID == uuid.Nil {
		analysis.ID = uuid.New()
	}
	query := fmt.Sprintf(`INSERT INTO %s.cg_analyses(id, family_id, pipeline, pipeline_version, started_at, completed_at, is_primary, config_path)
		VALUES (:id, :family_id, :pipeline, :pipeline_version, :started_at, :completed_at, :is_primary, :config_path);`, r.dbSchema)
	_, err := r.db.NamedExecContext(ctx, query, convertAnalysisToDAO(analysis))
	if err != nil {
		log.Error().Err(err).Str("family", analysis.Family.InternalID).Msg(msgCreateAnalysisFailed)
		return uuid.Nil, ErrCreateAnalysisFailed
	}
	return analysis.ID, nil
}

func (r *statusRepository) SetLoqusdbID(ctx context.Context, sampleID uuid.UUID, loqusdbID string) error {
	query := fmt.Sprintf(`UPDATE %s.cg_samples SET loqusdb_id = $1 WHERE id = $2;`, r.dbSchema)
	_, err := r.db.ExecContext(ctx, query, loqusdbID, sampleID)
	if err != nil {
		log.Error().Err(err).Msg(msgSetLoqusdbIDFailed)
		return ErrSetLoqusdbIDFailed
	}
	return nil
}

func (r *statusRepository) GetInvoice(ctx context.Context, id uuid.UUID) (Invoice, error) {
	query := fmt.Sprintf(`SELECT i.*, c.internal_id AS customer_internal_id FROM %s.cg_invoices i
		INNER JOIN %s.cg_customers c ON c.id = i.customer_id
		WHERE i.id = $1;`, r.dbSchema, r.dbSchema)
	var dao invoiceDAO
	err := r.db.GetContext(ctx, &dao, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return Invoice{}, errors.Wrapf(ErrNotFound, "invoice %s", id)
		}
		log.Error().Err(err).Msg(msgGetInvoiceFailed)
		return Invoice{}, ErrGetInvoiceFailed
	}

	customer, err := r.GetCustomer(ctx, dao.CustomerRef)
	if err != nil {
		return Invoice{}, err
	}
	samples, err := r.selectSamples(ctx, "e.invoice_id = $1", id)
	if err != nil {
		return Invoice{}, err
	}
	pools, err := r.selectPools(ctx, "e.invoice_id = $1", id)
	if err != nil {
		return Invoice{}, err
	}

	return Invoice{
		ID:         dao.ID,
		Customer:   customer,
		Discount:   dao.Discount,
		InvoicedAt: utils.SqlNullTimeToTimePointer(dao.InvoicedAt),
		Samples:    samples,
		Pools:      pools,
	}, nil
}

func (r *statusRepository) CreateTransaction() (db.DbConnector, error) {
	tx, err := r.db.CreateTransactionConnector()
	if err != nil {
		log.Error().Err(err).Msg(msgCreateTransactionFailed)
		return nil, err
	}
	return tx, nil
}

func (r *statusRepository) WithTransaction(tx db.DbConnector) StatusRepository {
	if tx == nil {
		return r
	}
	txRepo := *r
	txRepo.db = tx
	return &txRepo
}

func convertDAOToCustomer(dao customerDAO) Customer {
	customer := Customer{
		ID:                    dao.ID,
		InternalID:            dao.InternalID,
		Name:                  dao.Name,
		AgreementRegistration: utils.SqlNullStringToStringPointer(dao.AgreementRegistration),
		InvoiceAddress:        utils.SqlNullStringToStringPointer(dao.InvoiceAddress),
		InvoiceReference:      utils.SqlNullStringToStringPointer(dao.InvoiceReference),
		ProjectAccountKI:      utils.SqlNullStringToStringPointer(dao.ProjectAccountKI),
		ProjectAccountKTH:     utils.SqlNullStringToStringPointer(dao.ProjectAccountKTH),
	}
	if dao.InvoiceContactID.Valid {
		customer.InvoiceContact = &User{
			ID:    dao.InvoiceContactID.UUID,
			Name:  dao.ContactName.String,
			Email: dao.ContactEmail.String,
		}
	}
	return customer
}

func convertDAOToApplicationVersion(dao applicationVersionDAO) ApplicationVersion {
	version := ApplicationVersion{
		ID: dao.AvID,
		Application: Application{
			ID:                     dao.AppID,
			Tag:                    dao.AppTag,
			Category:               dao.AppCategory,
			Description:            dao.AppDescription,
			IsExternal:             dao.AppIsExternal,
			TargetReads:            dao.AppTargetReads,
			PercentReadsGuaranteed: dao.AppPercentReadsGuaranteed,
			PercentKTH:             utils.SqlNullInt64ToIntPointer(dao.AppPercentKTH),
		},
		Version:   dao.AvVersion,
		ValidFrom: dao.AvValidFrom,
		Prices:    make(map[string]decimal.Decimal),
	}
	prices := map[string]decimal.NullDecimal{
		PriorityStandard:       dao.AvPriceStandard,
		PriorityPriority:       dao.AvPricePriority,
		PriorityExpress:        dao.AvPriceExpress,
		PriorityResearch:       dao.AvPriceResearch,
		PriorityClinicalTrials: dao.AvPriceClinicalTrials,
	}
	for priority, price := range prices {
		if price.Valid {
			version.Prices[priority] = price.Decimal
		}
	}
	return version
}

func convertDAOToSample(dao sampleDAO) Sample {
	return Sample{
		ID:                 dao.ID,
		InternalID:         dao.InternalID,
		Name:               dao.Name,
		CustomerID:         dao.CustomerID,
		ApplicationVersion: convertDAOToApplicationVersion(dao.applicationVersionDAO),
		Sex:                Sex(dao.Sex),
		Priority:           dao.Priority,
		TicketNumber:       utils.SqlNullInt64ToIntPointer(dao.TicketNumber),
		OrderName:          dao.OrderName,
		Comment:            utils.SqlNullStringToStringPointer(dao.Comment),
		IsTumour:           dao.IsTumour,
		CaptureKit:         utils.SqlNullStringToStringPointer(dao.CaptureKit),
		DataAnalysis:       utils.SqlNullStringToStringPointer(dao.DataAnalysis),
		Reads:              dao.Reads,
		DownsampledTo:      nullInt64ToInt64Pointer(dao.DownsampledTo),
		OrderedAt:          dao.OrderedAt,
		ReceivedAt:         utils.SqlNullTimeToTimePointer(dao.ReceivedAt),
		PreparedAt:         utils.SqlNullTimeToTimePointer(dao.PreparedAt),
		SequencedAt:        utils.SqlNullTimeToTimePointer(dao.SequencedAt),
		DeliveredAt:        utils.SqlNullTimeToTimePointer(dao.DeliveredAt),
		InvoicedAt:         utils.SqlNullTimeToTimePointer(dao.InvoicedAt),
		InvoiceID:          nullUUIDToUUIDPointer(dao.InvoiceID),
		LoqusdbID:          utils.SqlNullStringToStringPointer(dao.LoqusdbID),
	}
}

func convertSampleToDAO(sample Sample) sampleDAO {
	return sampleDAO{
		ID:                   sample.ID,
		InternalID:           sample.InternalID,
		Name:                 sample.Name,
		CustomerID:           sample.CustomerID,
		ApplicationVersionID: sample.ApplicationVersion.ID,
		Sex:                  string(sample.Sex),
		Priority:             sample.Priority,
		TicketNumber:         utils.IntPointerToSqlNullInt64(sample.TicketNumber),
		OrderName:            sample.OrderName,
		Comment:              utils.StringPointerToSqlNullString(sample.Comment),
		IsTumour:             sample.IsTumour,
		CaptureKit:           utils.StringPointerToSqlNullString(sample.CaptureKit),
		DataAnalysis:         utils.StringPointerToSqlNullString(sample.DataAnalysis),
		OrderedAt:            sample.OrderedAt,
		ReceivedAt:           utils.TimePointerToSqlNullTime(sample.ReceivedAt),
	}
}

func convertDAOToFamily(dao familyDAO) Family {
	return Family{
		ID:          dao.ID,
		InternalID:  dao.InternalID,
		Name:        dao.Name,
		CustomerID:  dao.CustomerID,
		Priority:    dao.Priority,
		Panels:      []string(dao.Panels),
		Action:      utils.SqlNullStringToStringPointer(dao.Action),
		RequireQCOK: dao.RequireQCOK,
		OrderedAt:   dao.OrderedAt,
	}
}

func convertFamilyToDAO(family Family) familyDAO {
	panels := family.Panels
	if panels == nil {
		panels = []string{}
	}
	return familyDAO{
		ID:          family.ID,
		InternalID:  family.InternalID,
		Name:        family.Name,
		CustomerID:  family.CustomerID,
		Priority:    family.Priority,
		Panels:      pq.StringArray(panels),
		Action:      utils.StringPointerToSqlNullString(family.Action),
		RequireQCOK: family.RequireQCOK,
		OrderedAt:   family.OrderedAt,
	}
}

func convertDAOToPool(dao poolDAO) Pool {
	return Pool{
		ID:                 dao.ID,
		Name:               dao.Name,
		OrderName:          dao.OrderName,
		TicketNumber:       utils.SqlNullInt64ToIntPointer(dao.TicketNumber),
		CustomerID:         dao.CustomerID,
		ApplicationVersion: convertDAOToApplicationVersion(dao.applicationVersionDAO),
		OrderedAt:          dao.OrderedAt,
		ReceivedAt:         utils.SqlNullTimeToTimePointer(dao.ReceivedAt),
		DeliveredAt:        utils.SqlNullTimeToTimePointer(dao.DeliveredAt),
		InvoicedAt:         utils.SqlNullTimeToTimePointer(dao.InvoicedAt),
		InvoiceID:          nullUUIDToUUIDPointer(dao.InvoiceID),
		NoInvoice:          dao.NoInvoice,
	}
}

func convertPoolToDAO(pool Pool) poolDAO {
	return poolDAO{
		ID:                   pool.ID,
		Name:                 pool.Name,
		OrderName:            pool.OrderName,
		TicketNumber:         utils.IntPointerToSqlNullInt64(pool.TicketNumber),
		CustomerID:           pool.CustomerID,
		ApplicationVersionID: pool.ApplicationVersion.ID,
		OrderedAt:            pool.OrderedAt,
		NoInvoice:            pool.NoInvoice,
	}
}

func convertDAOToMicrobialSample(dao microbialSampleDAO) MicrobialSample {
	return MicrobialSample{
		ID:                 dao.ID,
		InternalID:         dao.InternalID,
		Name:               dao.Name,
		OrderName:          dao.OrderName,
		TicketNumber:       utils.SqlNullInt64ToIntPointer(dao.TicketNumber),
		CustomerID:         dao.CustomerID,
		ApplicationVersion: convertDAOToApplicationVersion(dao.applicationVersionDAO),
		Organism:           utils.SqlNullStringToStringPointer(dao.Organism),
		ReferenceGenome:    utils.SqlNullStringToStringPointer(dao.ReferenceGenome),
		Priority:           dao.Priority,
		OrderedAt:          dao.OrderedAt,
		ReceivedAt:         utils.SqlNullTimeToTimePointer(dao.ReceivedAt),
		PreparedAt:         utils.SqlNullTimeToTimePointer(dao.PreparedAt),
		SequencedAt:        utils.SqlNullTimeToTimePointer(dao.SequencedAt),
		DeliveredAt:        utils.SqlNullTimeToTimePointer(dao.DeliveredAt),
		InvoiceID:          nullUUIDToUUIDPointer(dao.InvoiceID),
	}
}

func convertDAOToFlowcell(dao flowcellDAO) Flowcell {
	flowcell := Flowcell{
		ID:            dao.ID,
		Name:          dao.Name,
		SequencerName: dao.SequencerName,
		SequencerType: dao.SequencerType,
		Status:        dao.Status,
	}
	if dao.SequencedAt.Valid {
		flowcell.SequencedAt = dao.SequencedAt.Time
	}
	return flowcell
}

func convertDAOToAnalysis(dao analysisDAO) Analysis {
	return Analysis{
		ID:              dao.ID,
		Family:          Family{ID: dao.FamilyID},
		Pipeline:        dao.Pipeline,
		PipelineVersion: utils.SqlNullStringToStringPointer(dao.PipelineVersion),
		StartedAt:       utils.SqlNullTimeToTimePointer(dao.StartedAt),
		CompletedAt:     utils.SqlNullTimeToTimePointer(dao.CompletedAt),
		UploadedAt:      utils.SqlNullTimeToTimePointer(dao.UploadedAt),
		IsPrimary:       dao.IsPrimary,
		ConfigPath:      utils.SqlNullStringToStringPointer(dao.ConfigPath),
	}
}

func convertAnalysisToDAO(analysis Analysis) analysisDAO {
	return analysisDAO{
		ID:              analysis.ID,
		FamilyID:        analysis.Family.ID,
		Pipeline:        analysis.Pipeline,
		PipelineVersion: utils.StringPointerToSqlNullString(analysis.PipelineVersion),
		StartedAt:       utils.TimePointerToSqlNullTime(analysis.StartedAt),
		CompletedAt:     utils.TimePointerToSqlNullTime(analysis.CompletedAt),
		IsPrimary:       analysis.IsPrimary,
		ConfigPath:      utils.StringPointerToSqlNullString(analysis.ConfigPath),
	}
}

func nullUUIDToUUIDPointer(value uuid.NullUUID) *uuid.UUID {
	if value.Valid {
		return &value.UUID
	}
	return nil
}

func uuidPointerToNullUUID(value *uuid.UUID) uuid.NullUUID {
	if value == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *value, Valid: true}
}

func nullInt64ToInt64Pointer(value sql.NullInt64) *int64 {
	if value.Valid {
		return &value.Int64
	}
	return nil
}
