package labops

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var ticketPattern = regexp.MustCompile(`([0-9]{6})`)

type OrderService interface {
	// Submit validates the order, resolves its ticket and hands it to the strategy of the order
	// type, which writes to the LIMS first and to the status store last.
	Submit(ctx context.Context, orderType OrderType, name, email string, order Order) (SubmissionResult, error)
}

// orderSubmission is an order that passed validation, with everything resolved from the status store.
type orderSubmission struct {
	order        Order
	ticket       *int
	customer     Customer
	applications map[string]ApplicationVersion
}

type orderStrategy struct {
	validate func(order Order, applications map[string]ApplicationVersion) []FieldError
	submit   func(ctx context.Context, submission orderSubmission) (SubmissionResult, error)
	// linksExisting marks case orders, where an internal id references a sample already in the status store
	linksExisting bool
}

type orderService struct {
	lims             Lims
	ticketClient     TicketClient
	statusRepository StatusRepository
	validate         *validator.Validate
	strategies       map[OrderType]orderStrategy
	now              func() time.Time
	logger           zerolog.Logger
}

// NewOrderService builds the order coordinator. ticketClient may be nil, orders without a ticket
// number in their name are then submitted without one.
func NewOrderService(lims Lims, ticketClient TicketClient, statusRepository StatusRepository, logger zerolog.Logger) OrderService {
	service := &orderService{
		lims:             lims,
		ticketClient:     ticketClient,
		statusRepository: statusRepository,
		validate:         validator.New(),
		now:              func() time.Time { return time.Now().UTC() },
		logger:           logger,
	}
	service.strategies = map[OrderType]orderStrategy{
		OrderTypeExternal: {validate: validateExternalOrder, submit: service.submitCases, linksExisting: true},
		OrderTypeFastq:    {validate: validateFastqOrder, submit: service.submitSamples},
		OrderTypeRml:      {validate: validateRmlOrder, submit: service.submitPools},
		OrderTypeScout:    {validate: validateScoutOrder, submit: service.submitCases, linksExisting: true},
	}
	return service
}

func (s *orderService) Submit(ctx context.Context, orderType OrderType, name, email string, order Order) (SubmissionResult, error) {
	strategy, ok := s.strategies[orderType]
	if !ok {
		return SubmissionResult{}, errors.Wrapf(ErrUnsupportedOrderType, "%q", orderType)
	}

	fieldErrors := s.validateStructure(order)
	if len(fieldErrors) > 0 {
		return SubmissionResult{}, &OrderValidationError{Errors: fieldErrors}
	}

	customer, err := s.statusRepository.GetCustomer(ctx, order.Customer)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return SubmissionResult{}, &OrderValidationError{Errors: []FieldError{{
				Field: "Order.Customer", Rule: "exists", Message: fmt.Sprintf("unknown customer: %s", order.Customer),
			}}}
		}
		return SubmissionResult{}, err
	}

	applications, fieldErrors, err := s.resolveApplications(ctx, order)
	if err != nil {
		return SubmissionResult{}, err
	}
	fieldErrors = append(fieldErrors, strategy.validate(order, applications)...)
	if strategy.linksExisting {
		existingErrors, err := s.resolveExistingSamples(ctx, order, customer)
		if err != nil {
			return SubmissionResult{}, err
		}
		fieldErrors = append(fieldErrors, existingErrors...)
	}
	if len(fieldErrors) > 0 {
		return SubmissionResult{}, &OrderValidationError{Errors: fieldErrors}
	}

	submission := orderSubmission{
		order:        order,
		ticket:       s.resolveTicket(ctx, name, email, order),
		customer:     customer,
		applications: applications,
	}
	s.logger.Info().Str("order", order.Name).Str("type", string(orderType)).Str("customer", customer.InternalID).
		Int("samples", len(order.Samples())).Msg("submitting order")
	return strategy.submit(ctx, submission)
}

func (s *orderService) validateStructure(order Order) []FieldError {
	fieldErrors := make([]FieldError, 0)
	err := s.validate.Struct(order)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			for _, fieldError := range validationErrors {
				fieldErrors = append(fieldErrors, FieldError{
					Field:   fieldError.Namespace(),
					Rule:    fieldError.Tag(),
					Message: fieldError.Error(),
				})
			}
		} else {
			fieldErrors = append(fieldErrors, FieldError{Field: "Order", Rule: "struct", Message: err.Error()})
		}
	}

	names := make(map[string]bool)
	for i, item := range order.Items {
		if (item.Family == nil) == (item.Sample == nil) {
			fieldErrors = append(fieldErrors, FieldError{
				Field:   fmt.Sprintf("Order.Items[%d]", i),
				Rule:    "oneof",
				Message: "an order item holds exactly one of family or sample",
			})
		}
	}
	for _, sample := range order.Samples() {
		if names[sample.Name] {
			fieldErrors = append(fieldErrors, FieldError{
				Field:   "Order.Items.Name",
				Rule:    "unique",
				Message: fmt.Sprintf("sample name used more than once: %s", sample.Name),
			})
		}
		names[sample.Name] = true
	}
	return fieldErrors
}

func (s *orderService) resolveApplications(ctx context.Context, order Order) (map[string]ApplicationVersion, []FieldError, error) {
	applications := make(map[string]ApplicationVersion)
	fieldErrors := make([]FieldError, 0)
	for _, sample := range order.Samples() {
		if _, ok := applications[sample.Application]; ok {
			continue
		}
		version, err := s.statusRepository.GetApplicationVersion(ctx, sample.Application)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				return nil, nil, err
			}
			fieldErrors = append(fieldErrors, FieldError{
				Field:   "Order.Items.Application",
				Rule:    "exists",
				Message: fmt.Sprintf("unknown application: %s", sample.Application),
			})
			continue
		}
		applications[sample.Application] = version
	}
	return applications, fieldErrors, nil
}

// resolveExistingSamples checks that every referenced internal id is a sample of the ordering
// customer, so a bad reference fails before the LIMS sees the order.
func (s *orderService) resolveExistingSamples(ctx context.Context, order Order, customer Customer) ([]FieldError, error) {
	fieldErrors := make([]FieldError, 0)
	for _, sample := range order.Samples() {
		if sample.InternalID == "" {
			continue
		}
		existing, err := s.statusRepository.GetSample(ctx, sample.InternalID)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				return nil, err
			}
			fieldErrors = append(fieldErrors, FieldError{
				Field:   "Order.Items.InternalID",
				Rule:    "exists",
				Message: fmt.Sprintf("unknown sample: %s", sample.InternalID),
			})
			continue
		}
		if existing.CustomerID != customer.ID {
			fieldErrors = append(fieldErrors, FieldError{
				Field:   "Order.Items.InternalID",
				Rule:    "exists",
				Message: fmt.Sprintf("sample %s does not belong to customer %s", sample.InternalID, customer.InternalID),
			})
		}
	}
	return fieldErrors, nil
}

// resolveTicket uses the ticket of the order, else the first six digit number in the submitter
// name, else opens a new ticket. A failing ticket system leaves the order without a ticket.
func (s *orderService) resolveTicket(ctx context.Context, name, email string, order Order) *int {
	if order.Ticket != nil {
		return order.Ticket
	}
	if match := ticketPattern.FindString(name); match != "" {
		var ticket int
		if _, err := fmt.Sscanf(match, "%d", &ticket); err == nil {
			return &ticket
		}
	}
	if s.ticketClient == nil {
		return nil
	}

	message := fmt.Sprintf("New incoming samples, %s", name)
	ticket, err := s.ticketClient.OpenTicket(ctx, name, email, order.Name, message)
	if err != nil {
		s.logger.Warn().Err(err).Str("order", order.Name).Msg("continuing without ticket")
		return nil
	}
	s.logger.Info().Int("ticket", ticket).Str("order", order.Name).Msg("opened ticket")
	return &ticket
}

func validateFastqOrder(order Order, applications map[string]ApplicationVersion) []FieldError {
	fieldErrors := make([]FieldError, 0)
	for i, item := range order.Items {
		if item.Family != nil {
			fieldErrors = append(fieldErrors, FieldError{
				Field:   fmt.Sprintf("Order.Items[%d].Family", i),
				Rule:    "excluded",
				Message: "fastq orders contain samples, not families",
			})
		}
	}
	return fieldErrors
}

func validateRmlOrder(order Order, applications map[string]ApplicationVersion) []FieldError {
	fieldErrors := validateFastqOrder(order, applications)
	poolApplications := make(map[string]string)
	for _, sample := range order.Samples() {
		if sample.Pool == "" {
			fieldErrors = append(fieldErrors, FieldError{
				Field:   "Order.Items.Sample.Pool",
				Rule:    "required",
				Message: fmt.Sprintf("sample %s is not in a pool", sample.Name),
			})
			continue
		}
		application, ok := poolApplications[sample.Pool]
		if !ok {
			poolApplications[sample.Pool] = sample.Application
			continue
		}
		if application != sample.Application {
			fieldErrors = append(fieldErrors, FieldError{
				Field:   "Order.Items.Sample.Application",
				Rule:    "unique",
				Message: fmt.Sprintf("pool %s has samples with different applications", sample.Pool),
			})
		}
	}
	return fieldErrors
}

func validateScoutOrder(order Order, applications map[string]ApplicationVersion) []FieldError {
	fieldErrors := validateCaseOrder(order)
	for _, sample := range order.Samples() {
		if version, ok := applications[sample.Application]; ok && version.Application.IsExternal {
			fieldErrors = append(fieldErrors, FieldError{
				Field:   "Order.Items.Family.Samples.Application",
				Rule:    "internal",
				Message: fmt.Sprintf("application %s is for external data", sample.Application),
			})
		}
	}
	return fieldErrors
}

func validateExternalOrder(order Order, applications map[string]ApplicationVersion) []FieldError {
	fieldErrors := validateCaseOrder(order)
	for _, sample := range order.Samples() {
		if version, ok := applications[sample.Application]; ok && !version.Application.IsExternal {
			fieldErrors = append(fieldErrors, FieldError{
				Field:   "Order.Items.Family.Samples.Application",
				Rule:    "external",
				Message: fmt.Sprintf("application %s is not for external data", sample.Application),
			})
		}
	}
	return fieldErrors
}

// validateCaseOrder checks that every item is a family and parents are members of the same family.
func validateCaseOrder(order Order) []FieldError {
	fieldErrors := make([]FieldError, 0)
	for i, item := range order.Items {
		if item.Family == nil {
			fieldErrors = append(fieldErrors, FieldError{
				Field:   fmt.Sprintf("Order.Items[%d].Sample", i),
				Rule:    "excluded",
				Message: "analysis orders contain families, not bare samples",
			})
			continue
		}
		members := make(map[string]bool)
		for _, sample := range item.Family.Samples {
			members[sample.Name] = true
		}
		for _, sample := range item.Family.Samples {
			for _, parent := range []string{sample.Mother, sample.Father} {
				if parent != "" && !members[parent] {
					fieldErrors = append(fieldErrors, FieldError{
						Field:   "Order.Items.Family.Samples.Parent",
						Rule:    "member",
						Message: fmt.Sprintf("parent %s of %s is not in family %s", parent, sample.Name, item.Family.Name),
					})
				}
			}
		}
	}
	return fieldErrors
}

func (s *orderService) submitSamples(ctx context.Context, submission orderSubmission) (SubmissionResult, error) {
	samples := submission.order.Samples()
	project, internalIDs, err := s.submitToLims(ctx, submission, samples)
	if err != nil {
		return SubmissionResult{}, err
	}

	statusSamples := toStatusSamples(submission, samples, internalIDs, orderedAt(project, s.now))
	records, err := s.storeSamples(ctx, statusSamples)
	if err != nil {
		s.logger.Error().Err(err).Str("project", project.ID).Msg("lims project created but status store write failed")
		return SubmissionResult{}, err
	}
	return SubmissionResult{Ticket: submission.ticket, Project: &project, Records: records}, nil
}

func (s *orderService) submitPools(ctx context.Context, submission orderSubmission) (SubmissionResult, error) {
	samples := submission.order.Samples()
	project, _, err := s.submitToLims(ctx, submission, samples)
	if err != nil {
		return SubmissionResult{}, err
	}

	pools := toStatusPools(submission, samples, orderedAt(project, s.now))
	records, err := s.storePools(ctx, pools)
	if err != nil {
		s.logger.Error().Err(err).Str("project", project.ID).Msg("lims project created but status store write failed")
		return SubmissionResult{}, err
	}
	return SubmissionResult{Ticket: submission.ticket, Project: &project, Records: records}, nil
}

// submitCases only sends samples without an internal id to the LIMS; orders that solely
// reference existing samples skip the LIMS.
func (s *orderService) submitCases(ctx context.Context, submission orderSubmission) (SubmissionResult, error) {
	newSamples := make([]OrderSample, 0)
	for _, sample := range submission.order.Samples() {
		if sample.InternalID == "" {
			newSamples = append(newSamples, sample)
		}
	}

	result := SubmissionResult{Ticket: submission.ticket}
	internalIDs := make(map[string]string)
	orderDate := s.now()
	if len(newSamples) > 0 {
		project, ids, err := s.submitToLims(ctx, submission, newSamples)
		if err != nil {
			return SubmissionResult{}, err
		}
		result.Project = &project
		internalIDs = ids
		orderDate = orderedAt(project, s.now)
	} else {
		s.logger.Info().Str("order", submission.order.Name).Msg("no new samples, skipping lims")
	}

	families := toStatusFamilies(submission, internalIDs, orderDate)
	records, err := s.storeFamilies(ctx, submission.customer, families)
	if err != nil {
		if result.Project != nil {
			s.logger.Error().Err(err).Str("project", result.Project.ID).Msg("lims project created but status store write failed")
		}
		return SubmissionResult{}, err
	}
	result.Records = records
	return result, nil
}

func orderedAt(project LimsProject, now func() time.Time) time.Time {
	if project.Date.IsZero() {
		return now()
	}
	return project.Date
}

func projectName(submission orderSubmission) string {
	if submission.ticket != nil {
		return fmt.Sprintf("%d", *submission.ticket)
	}
	return submission.order.Name
}

func newInternalID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
