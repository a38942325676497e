package labops

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Customer struct {
	ID                    uuid.UUID
	InternalID            string
	Name                  string
	AgreementRegistration *string
	InvoiceAddress        *string
	InvoiceReference      *string
	InvoiceContact        *User
	ProjectAccountKI      *string
	ProjectAccountKTH     *string
}

type User struct {
	ID    uuid.UUID
	Name  string
	Email string
}

type Application struct {
	ID                     uuid.UUID
	Tag                    string
	Category               string
	Description            string
	IsExternal             bool
	TargetReads            int64
	PercentReadsGuaranteed int
	PercentKTH             *int
}

// ExpectedReads is the read count a sample must exceed to count as sequenced.
func (a Application) ExpectedReads() int64 {
	return a.TargetReads * int64(a.PercentReadsGuaranteed) / 100
}

type ApplicationVersion struct {
	ID          uuid.UUID
	Application Application
	Version     int
	ValidFrom   time.Time
	Prices      map[string]decimal.Decimal
}

// Price returns the tier price, false when the version has no price for that tier.
func (v ApplicationVersion) Price(priority string) (decimal.Decimal, bool) {
	price, ok := v.Prices[priority]
	return price, ok
}

type Sample struct {
	ID                 uuid.UUID
	InternalID         string
	Name               string
	CustomerID         uuid.UUID
	ApplicationVersion ApplicationVersion
	Sex                Sex
	Priority           int
	TicketNumber       *int
	OrderName          string
	Comment            *string
	IsTumour           bool
	CaptureKit         *string
	DataAnalysis       *string
	Reads              int64
	DownsampledTo      *int64
	OrderedAt          time.Time
	ReceivedAt         *time.Time
	PreparedAt         *time.Time
	SequencedAt        *time.Time
	DeliveredAt        *time.Time
	InvoicedAt         *time.Time
	InvoiceID          *uuid.UUID
	LoqusdbID          *string
}

func (s Sample) PriorityHuman() string {
	return PriorityHuman(s.Priority)
}

type Family struct {
	ID          uuid.UUID `json:"id"`
	InternalID  string    `json:"internalId"`
	Name        string    `json:"name"`
	CustomerID  uuid.UUID `json:"customerId"`
	Priority    int       `json:"priority"`
	Panels      []string  `json:"panels"`
	Action      *string   `json:"action"`
	RequireQCOK bool      `json:"requireQcOk"`
	OrderedAt   time.Time `json:"orderedAt"`
}

type FamilySample struct {
	ID       uuid.UUID
	FamilyID uuid.UUID
	Sample   Sample
	Status   string
	MotherID *uuid.UUID
	FatherID *uuid.UUID
}

type Pool struct {
	ID                 uuid.UUID
	Name               string
	OrderName          string
	TicketNumber       *int
	CustomerID         uuid.UUID
	ApplicationVersion ApplicationVersion
	OrderedAt          time.Time
	ReceivedAt         *time.Time
	DeliveredAt        *time.Time
	InvoicedAt         *time.Time
	InvoiceID          *uuid.UUID
	NoInvoice          bool
}

type MicrobialSample struct {
	ID                 uuid.UUID
	InternalID         string
	Name               string
	OrderName          string
	TicketNumber       *int
	CustomerID         uuid.UUID
	ApplicationVersion ApplicationVersion
	Organism           *string
	ReferenceGenome    *string
	Priority           int
	OrderedAt          time.Time
	ReceivedAt         *time.Time
	PreparedAt         *time.Time
	SequencedAt        *time.Time
	DeliveredAt        *time.Time
	InvoiceID          *uuid.UUID
}

type Flowcell struct {
	ID            uuid.UUID   `json:"id"`
	Name          string      `json:"name"`
	SequencerName string      `json:"sequencerName"`
	SequencerType string      `json:"sequencerType"`
	SequencedAt   time.Time   `json:"sequencedAt"`
	Status        string      `json:"status"`
	SampleIDs     []uuid.UUID `json:"sampleIds"`
}

type Analysis struct {
	ID              uuid.UUID  `json:"id"`
	Family          Family     `json:"family"`
	Pipeline        string     `json:"pipeline"`
	PipelineVersion *string    `json:"pipelineVersion"`
	StartedAt       *time.Time `json:"startedAt"`
	CompletedAt     *time.Time `json:"completedAt"`
	UploadedAt      *time.Time `json:"uploadedAt"`
	IsPrimary       bool       `json:"isPrimary"`
	ConfigPath      *string    `json:"configPath"`
}

type Invoice struct {
	ID         uuid.UUID
	Customer   Customer
	Discount   int
	InvoicedAt *time.Time
	Samples    []Sample
	Pools      []Pool
}

// Bundle store

type Bundle struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

type BundleVersion struct {
	ID         uuid.UUID
	BundleID   uuid.UUID
	CreatedAt  time.Time
	IncludedAt *time.Time
	Files      []BundleFile
}

type BundleFile struct {
	ID        uuid.UUID
	VersionID uuid.UUID
	Path      string
	ToArchive bool
	Tags      []string
}

// HasTag reports whether the file carries every given tag.
func (f BundleFile) HasTag(tags ...string) bool {
	for _, tag := range tags {
		found := false
		for _, fileTag := range f.Tags {
			if fileTag == tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
