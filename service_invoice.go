package labops

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type CostCenter string

const (
	CostCenterKI  CostCenter = "ki"
	CostCenterKTH CostCenter = "kth"
)

func ParseCostCenter(value string) (CostCenter, error) {
	switch CostCenter(strings.ToLower(value)) {
	case CostCenterKI:
		return CostCenterKI, nil
	case CostCenterKTH:
		return CostCenterKTH, nil
	}
	return "", errors.Wrapf(ErrInvalidCostCenter, "%q", value)
}

const (
	RecordTypePool   = "Pool"
	RecordTypeSample = "Prov"
)

type InvoiceRecord struct {
	Name           string          `json:"name"`
	LimsID         *string         `json:"limsId"`
	ID             uuid.UUID       `json:"id"`
	ApplicationTag string          `json:"applicationTag"`
	Project        string          `json:"project"`
	Date           *time.Time      `json:"date"`
	Price          decimal.Decimal `json:"price"`
	Priority       string          `json:"priority"`
}

type InvoiceContact struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	CustomerName string `json:"customerName"`
	Reference    string `json:"reference"`
	Address      string `json:"address"`
}

type InvoiceData struct {
	CostCenter    CostCenter      `json:"costCenter"`
	ProjectNumber *string         `json:"projectNumber"`
	CustomerID    string          `json:"customerId"`
	CustomerName  string          `json:"customerName"`
	Agreement     *string         `json:"agreement"`
	InvoiceID     uuid.UUID       `json:"invoiceId"`
	Contact       InvoiceContact  `json:"contact"`
	Records       []InvoiceRecord `json:"records"`
	PooledSamples []LimsSample    `json:"pooledSamples"`
	RecordType    string          `json:"recordType"`
}

// invoiceItem is a pool or a sample as far as pricing is concerned.
type invoiceItem struct {
	ID         uuid.UUID
	Name       string
	LimsID     *string
	Version    ApplicationVersion
	Priority   string
	OrderName  string
	Ticket     *int
	ReceivedAt *time.Time
}

func poolInvoiceItem(pool Pool) invoiceItem {
	return invoiceItem{
		ID:         pool.ID,
		Name:       pool.Name,
		Version:    pool.ApplicationVersion,
		Priority:   PriorityResearch,
		OrderName:  pool.OrderName,
		Ticket:     pool.TicketNumber,
		ReceivedAt: pool.ReceivedAt,
	}
}

func sampleInvoiceItem(sample Sample) invoiceItem {
	limsID := sample.InternalID
	return invoiceItem{
		ID:         sample.ID,
		Name:       sample.Name,
		LimsID:     &limsID,
		Version:    sample.ApplicationVersion,
		Priority:   sample.PriorityHuman(),
		OrderName:  sample.OrderName,
		Ticket:     sample.TicketNumber,
		ReceivedAt: sample.ReceivedAt,
	}
}

type InvoiceService interface {
	// Prepare collects everything needed to bill an invoice to a cost center. Records that can
	// not be priced and missing contact details are reported as diagnostics; the data is then nil.
	Prepare(ctx context.Context, invoiceID uuid.UUID, costCenter CostCenter) (*InvoiceData, []string, error)
	// TotalPrice sums the discounted prices, false when any record has no price.
	TotalPrice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, bool, error)
}

type invoiceService struct {
	statusRepository StatusRepository
	lims             Lims
	fallbackCustomer string
	logger           zerolog.Logger
}

// NewInvoiceService builds the invoice computation. KTH invoices use the contact of the
// fallbackCustomer.
func NewInvoiceService(statusRepository StatusRepository, lims Lims, fallbackCustomer string, logger zerolog.Logger) InvoiceService {
	return &invoiceService{
		statusRepository: statusRepository,
		lims:             lims,
		fallbackCustomer: fallbackCustomer,
		logger:           logger,
	}
}

// DiscountedPrice looks up the tier price of a version and applies a percentage discount.
func DiscountedPrice(version ApplicationVersion, priority string, discount int) (decimal.Decimal, bool) {
	price, ok := version.Price(priority)
	if !ok {
		return decimal.Zero, false
	}
	factor := decimal.NewFromInt(int64(100 - discount)).Div(decimal.NewFromInt(100))
	return price.Mul(factor), true
}

func (s *invoiceService) Prepare(ctx context.Context, invoiceID uuid.UUID, costCenter CostCenter) (*InvoiceData, []string, error) {
	invoice, err := s.statusRepository.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, nil, err
	}

	diagnostics := make([]string, 0)
	items := make([]invoiceItem, 0)
	pooledSamples := make([]LimsSample, 0)
	recordType := ""
	if len(invoice.Pools) > 0 {
		recordType = RecordTypePool
		for _, pool := range invoice.Pools {
			samples, err := s.pooledSamples(ctx, pool)
			if err != nil {
				return nil, nil, err
			}
			pooledSamples = append(pooledSamples, samples...)
			items = append(items, poolInvoiceItem(pool))
		}
	} else if len(invoice.Samples) > 0 {
		recordType = RecordTypeSample
		for _, sample := range invoice.Samples {
			items = append(items, sampleInvoiceItem(sample))
		}
	}

	records := make([]InvoiceRecord, 0, len(items))
	for _, item := range items {
		record, diagnostic := prepareRecord(item, costCenter, invoice.Discount)
		if diagnostic != "" {
			diagnostics = append(diagnostics, diagnostic)
			s.logger.Warn().Str("invoice", invoiceID.String()).Msg(diagnostic)
			return nil, diagnostics, nil
		}
		records = append(records, record)
	}

	contact, diagnostic, err := s.contact(ctx, invoice.Customer, costCenter)
	if err != nil {
		return nil, nil, err
	}
	if diagnostic != "" {
		diagnostics = append(diagnostics, diagnostic)
		s.logger.Warn().Str("invoice", invoiceID.String()).Msg(diagnostic)
		return nil, diagnostics, nil
	}

	projectNumber := invoice.Customer.ProjectAccountKI
	if costCenter == CostCenterKTH {
		projectNumber = invoice.Customer.ProjectAccountKTH
	}
	return &InvoiceData{
		CostCenter:    costCenter,
		ProjectNumber: projectNumber,
		CustomerID:    invoice.Customer.InternalID,
		CustomerName:  invoice.Customer.Name,
		Agreement:     invoice.Customer.AgreementRegistration,
		InvoiceID:     invoice.ID,
		Contact:       contact,
		Records:       records,
		PooledSamples: pooledSamples,
		RecordType:    recordType,
	}, diagnostics, nil
}

func (s *invoiceService) TotalPrice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, bool, error) {
	invoice, err := s.statusRepository.GetInvoice(ctx, invoiceID)
	if err != nil {
		return decimal.Zero, false, err
	}
	items := make([]invoiceItem, 0)
	if len(invoice.Pools) > 0 {
		for _, pool := range invoice.Pools {
			items = append(items, poolInvoiceItem(pool))
		}
	} else {
		for _, sample := range invoice.Samples {
			items = append(items, sampleInvoiceItem(sample))
		}
	}

	total := decimal.Zero
	for _, item := range items {
		price, ok := DiscountedPrice(item.Version, item.Priority, invoice.Discount)
		if !ok {
			return decimal.Zero, false, nil
		}
		total = total.Add(price)
	}
	return total, true, nil
}

// prepareRecord prices a single item for the cost center, returning a diagnostic when it can not.
func prepareRecord(item invoiceItem, costCenter CostCenter, discount int) (InvoiceRecord, string) {
	tag := item.Version.Application.Tag
	version := item.Version.Version
	if tag == "" {
		return InvoiceRecord{}, fmt.Sprintf("Application tag/version seems to be missing for record %s.", item.ID)
	}

	price, ok := DiscountedPrice(item.Version, item.Priority, discount)
	if !ok {
		return InvoiceRecord{}, fmt.Sprintf("Could not get price for samples with application tag/version: %s/%d.", tag, version)
	}
	percentKTH := item.Version.Application.PercentKTH
	if percentKTH == nil {
		return InvoiceRecord{}, fmt.Sprintf("Could not calculate price for samples with application tag/version: %s/%d. Missing %%KTH", tag, version)
	}
	share := int64(100 - *percentKTH)
	if costCenter == CostCenterKTH {
		share = int64(*percentKTH)
	}
	splitPrice := price.Mul(decimal.NewFromInt(share)).Div(decimal.NewFromInt(100)).Round(1)

	return InvoiceRecord{
		Name:           item.Name,
		LimsID:         item.LimsID,
		ID:             item.ID,
		ApplicationTag: tag,
		Project:        fmt.Sprintf("%s (%s)", orNA(item.OrderName), ticketOrNA(item.Ticket)),
		Date:           item.ReceivedAt,
		Price:          splitPrice,
		Priority:       item.Priority,
	}, ""
}

func (s *invoiceService) contact(ctx context.Context, customer Customer, costCenter CostCenter) (InvoiceContact, string, error) {
	diagnostic := fmt.Sprintf("Could not open/generate invoice. Contact information missing in database for customer %s. See log files.", customer.InternalID)
	if costCenter == CostCenterKTH {
		fallback, err := s.statusRepository.GetCustomer(ctx, s.fallbackCustomer)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return InvoiceContact{}, diagnostic, nil
			}
			return InvoiceContact{}, "", err
		}
		customer = fallback
	}

	user := customer.InvoiceContact
	if user == nil || user.Name == "" || user.Email == "" || customer.Name == "" ||
		customer.InvoiceReference == nil || customer.InvoiceAddress == nil {
		return InvoiceContact{}, diagnostic, nil
	}
	return InvoiceContact{
		Name:         user.Name,
		Email:        user.Email,
		CustomerName: customer.Name,
		Reference:    *customer.InvoiceReference,
		Address:      *customer.InvoiceAddress,
	}, "", nil
}

// pooledSamples are the LIMS samples of the pool's ticket that belong to the pool.
func (s *invoiceService) pooledSamples(ctx context.Context, pool Pool) ([]LimsSample, error) {
	samples := make([]LimsSample, 0)
	if pool.TicketNumber == nil {
		return samples, nil
	}
	limsSamples, err := s.lims.GetSamplesByTicket(ctx, *pool.TicketNumber)
	if err != nil {
		return nil, err
	}
	for _, limsSample := range limsSamples {
		if limsSample.Udfs[limsUdfPoolName] == pool.Name {
			samples = append(samples, limsSample)
		}
	}
	return samples, nil
}

func orNA(value string) string {
	if value == "" {
		return "NA"
	}
	return value
}

func ticketOrNA(ticket *int) string {
	if ticket == nil {
		return "NA"
	}
	return fmt.Sprintf("%d", *ticket)
}
