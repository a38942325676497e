package labops

import (
	"time"

	"github.com/google/uuid"
)

// ProjectType is what an order form (or an order posted to the API) asks the lab to do.
type ProjectType string

const (
	ProjectTypeExternal    ProjectType = "external"
	ProjectTypeFastq       ProjectType = "fastq"
	ProjectTypeRml         ProjectType = "rml"
	ProjectTypeMicrobial   ProjectType = "microbial"
	ProjectTypeMetagenome  ProjectType = "metagenome"
	ProjectTypeMip         ProjectType = "mip"
	ProjectTypeBalsamic    ProjectType = "balsamic"
	ProjectTypeMipBalsamic ProjectType = "mip_balsamic"
	ProjectTypeScout       ProjectType = "scout"
)

// IsFamilyType reports whether samples of this project type are grouped into families.
func (p ProjectType) IsFamilyType() bool {
	switch p {
	case ProjectTypeMip, ProjectTypeExternal, ProjectTypeBalsamic, ProjectTypeMipBalsamic, ProjectTypeScout:
		return true
	}
	return false
}

// OrderType selects the submission strategy.
type OrderType string

const (
	OrderTypeExternal OrderType = "external"
	OrderTypeFastq    OrderType = "fastq"
	OrderTypeRml      OrderType = "rml"
	OrderTypeScout    OrderType = "scout"
)

func SubmittableOrderTypes() []OrderType {
	return []OrderType{OrderTypeExternal, OrderTypeFastq, OrderTypeRml, OrderTypeScout}
}

// OrderTypeFor maps a parsed project type onto the strategy that submits it.
func OrderTypeFor(projectType ProjectType) (OrderType, error) {
	switch projectType {
	case ProjectTypeExternal:
		return OrderTypeExternal, nil
	case ProjectTypeFastq:
		return OrderTypeFastq, nil
	case ProjectTypeRml:
		return OrderTypeRml, nil
	case ProjectTypeMip, ProjectTypeBalsamic, ProjectTypeMipBalsamic, ProjectTypeScout:
		return OrderTypeScout, nil
	}
	return "", ErrUnsupportedOrderType
}

type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexUnknown Sex = "unknown"
)

// SexMap holds the single letter codes used by the LIMS and order forms.
var SexMap = map[Sex]string{
	SexMale:    "M",
	SexFemale:  "F",
	SexUnknown: "unknown",
}

var ReverseSexMap = map[string]Sex{
	"M":       SexMale,
	"F":       SexFemale,
	"unknown": SexUnknown,
}

const (
	PriorityResearch       = "research"
	PriorityStandard       = "standard"
	PriorityPriority       = "priority"
	PriorityExpress        = "express"
	PriorityClinicalTrials = "clinical trials"
)

var PriorityMap = map[string]int{
	PriorityResearch:       0,
	PriorityStandard:       1,
	PriorityPriority:       2,
	PriorityExpress:        3,
	PriorityClinicalTrials: 4,
}

// PriorityHuman returns the name of a numeric priority, empty when unknown.
func PriorityHuman(priority int) string {
	for name, value := range PriorityMap {
		if value == priority {
			return name
		}
	}
	return ""
}

const (
	ContainerTube        = "Tube"
	ContainerWellPlate96 = "96 well plate"
)

var ContainerTypes = []string{ContainerTube, ContainerWellPlate96}

var AnalysisSources = []string{
	"blood",
	"buccal swab",
	"cell-free DNA",
	"cell line",
	"cytology (FFPE)",
	"cytology (not fixed/fresh)",
	"muscle",
	"nail",
	"saliva",
	"skin",
	"tissue (FFPE)",
	"tissue (fresh frozen)",
	"bone marrow",
	"other",
}

var MetagenomeSources = []string{
	"blood",
	"faeces",
	"swab",
	"urine",
	"sputum",
	"other",
}

type Order struct {
	Customer    string      `json:"customer" validate:"required"`
	Name        string      `json:"name" validate:"required"`
	Comment     string      `json:"comment,omitempty"`
	Ticket      *int        `json:"ticket,omitempty"`
	ProjectType ProjectType `json:"projectType"`
	Items       []OrderItem `json:"items" validate:"required,min=1,dive"`
}

// OrderItem holds exactly one of Family or Sample.
type OrderItem struct {
	Family *OrderFamily `json:"family,omitempty"`
	Sample *OrderSample `json:"sample,omitempty"`
}

type OrderFamily struct {
	Name        string        `json:"name" validate:"required"`
	Priority    string        `json:"priority" validate:"omitempty,oneof=research standard priority express 'clinical trials'"`
	Panels      []string      `json:"panels"`
	RequireQCOK bool          `json:"requireQcOk"`
	Samples     []OrderSample `json:"samples" validate:"required,min=1,dive"`
}

type OrderSample struct {
	Name                string   `json:"name" validate:"required"`
	InternalID          string   `json:"internalId,omitempty"`
	Application         string   `json:"application" validate:"required"`
	Customer            string   `json:"customer,omitempty"`
	Family              string   `json:"family,omitempty"`
	Sex                 Sex      `json:"sex,omitempty" validate:"omitempty,oneof=male female unknown"`
	Source              string   `json:"source,omitempty"`
	Status              string   `json:"status,omitempty"`
	Priority            string   `json:"priority,omitempty" validate:"omitempty,oneof=research standard priority express 'clinical trials'"`
	Analysis            string   `json:"analysis,omitempty"`
	DataAnalysis        string   `json:"dataAnalysis,omitempty"`
	Comment             string   `json:"comment,omitempty"`
	Container           string   `json:"container,omitempty"`
	ContainerName       string   `json:"containerName,omitempty"`
	WellPosition        string   `json:"wellPosition,omitempty"`
	WellPositionRml     string   `json:"wellPositionRml,omitempty"`
	RmlPlateName        string   `json:"rmlPlateName,omitempty"`
	Mother              string   `json:"mother,omitempty"`
	Father              string   `json:"father,omitempty"`
	Panels              []string `json:"panels,omitempty"`
	RequireQCOK         bool     `json:"requireQcOk"`
	Tumour              bool     `json:"tumour"`
	TumourPurity        string   `json:"tumourPurity,omitempty"`
	CaptureKit          string   `json:"captureKit,omitempty"`
	Pool                string   `json:"pool,omitempty"`
	Index               string   `json:"index,omitempty"`
	IndexNumber         string   `json:"indexNumber,omitempty"`
	IndexSequence       string   `json:"indexSequence,omitempty"`
	CustomIndex         string   `json:"customIndex,omitempty"`
	Organism            string   `json:"organism,omitempty"`
	OrganismOther       string   `json:"organismOther,omitempty"`
	ReferenceGenome     string   `json:"referenceGenome,omitempty"`
	ElutionBuffer       string   `json:"elutionBuffer,omitempty"`
	ExtractionMethod    string   `json:"extractionMethod,omitempty"`
	FormalinFixation    string   `json:"formalinFixationTime,omitempty"`
	TissueBlockSize     string   `json:"tissueBlockSize,omitempty"`
	Volume              string   `json:"volume,omitempty"`
	Quantity            string   `json:"quantity,omitempty"`
	Concentration       string   `json:"concentration,omitempty"`
	ConcentrationWeight string   `json:"concentrationWeight,omitempty"`
}

// Samples flattens the order, families first expanded in order.
func (o Order) Samples() []OrderSample {
	samples := make([]OrderSample, 0, len(o.Items))
	for _, item := range o.Items {
		if item.Family != nil {
			samples = append(samples, item.Family.Samples...)
		}
		if item.Sample != nil {
			samples = append(samples, *item.Sample)
		}
	}
	return samples
}

func (o Order) Families() []OrderFamily {
	families := make([]OrderFamily, 0)
	for _, item := range o.Items {
		if item.Family != nil {
			families = append(families, *item.Family)
		}
	}
	return families
}

// OrderForm is the result of parsing an order form workbook.
type OrderForm struct {
	Customer    string      `json:"customer"`
	ProjectType ProjectType `json:"projectType"`
	Items       []OrderItem `json:"items"`
}

type LimsProject struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Date time.Time `json:"date"`
}

type SubmittedRecord struct {
	ID         uuid.UUID `json:"id"`
	InternalID string    `json:"internalId,omitempty"`
	Name       string    `json:"name"`
	Kind       string    `json:"kind"`
}

type SubmissionResult struct {
	Ticket  *int              `json:"ticket"`
	Project *LimsProject      `json:"project"`
	Records []SubmittedRecord `json:"records"`
}
