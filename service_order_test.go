package labops

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupOrderService() (*orderService, *limsMock, *ticketClientMock, *statusRepositoryMock) {
	lims := newLimsMock()
	ticketClient := &ticketClientMock{ticket: 654321}
	statusRepository := newStatusRepositoryMock()
	statusRepository.customers["cust000"] = Customer{ID: uuid.New(), InternalID: "cust000"}
	statusRepository.applications["WGSPCFC030"] = ApplicationVersion{ID: uuid.New(), Application: Application{Tag: "WGSPCFC030"}}
	statusRepository.applications["RMLS05R150"] = ApplicationVersion{ID: uuid.New(), Application: Application{Tag: "RMLS05R150"}}
	statusRepository.applications["WGXCUSC000"] = ApplicationVersion{ID: uuid.New(), Application: Application{Tag: "WGXCUSC000", IsExternal: true}}

	service := NewOrderService(lims, ticketClient, statusRepository, zerolog.Nop()).(*orderService)
	service.now = func() time.Time { return time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC) }
	return service, lims, ticketClient, statusRepository
}

func TestEveryOrderTypeHasAStrategy(t *testing.T) {
	service, _, _, _ := setupOrderService()

	for _, orderType := range SubmittableOrderTypes() {
		strategy, ok := service.strategies[orderType]
		assert.True(t, ok, orderType)
		assert.NotNil(t, strategy.validate, orderType)
		assert.NotNil(t, strategy.submit, orderType)
	}
	assert.Len(t, service.strategies, len(SubmittableOrderTypes()))
}

func TestEveryProjectTypeMapsToAnOrderTypeOrIsRejected(t *testing.T) {
	submittable := map[ProjectType]OrderType{
		ProjectTypeExternal:    OrderTypeExternal,
		ProjectTypeFastq:       OrderTypeFastq,
		ProjectTypeRml:         OrderTypeRml,
		ProjectTypeMip:         OrderTypeScout,
		ProjectTypeBalsamic:    OrderTypeScout,
		ProjectTypeMipBalsamic: OrderTypeScout,
		ProjectTypeScout:       OrderTypeScout,
	}
	for projectType, expected := range submittable {
		orderType, err := OrderTypeFor(projectType)
		assert.Nil(t, err)
		assert.Equal(t, expected, orderType)
	}

	_, err := OrderTypeFor(ProjectTypeMicrobial)
	assert.Equal(t, ErrUnsupportedOrderType, err)
}

func TestSubmitUnknownOrderType(t *testing.T) {
	service, lims, _, _ := setupOrderService()

	_, err := service.Submit(context.Background(), OrderType("microbial"), "Jane", "jane@example.com", Order{})

	assert.True(t, errors.Is(err, ErrUnsupportedOrderType))
	assert.Len(t, lims.projects, 0)
}

func TestSubmitFastqOrderUsesTicketFromName(t *testing.T) {
	service, lims, ticketClient, statusRepository := setupOrderService()
	lims.internalIDs = map[string]string{"s1": "ACC1A1", "s2": "ACC1A2"}
	lims.projectDate = time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	order := Order{
		Customer: "cust000",
		Name:     "fastq order",
		Items: []OrderItem{
			{Sample: &OrderSample{Name: "s1", Application: "WGSPCFC030", Sex: SexFemale, Priority: PriorityPriority}},
			{Sample: &OrderSample{Name: "s2", Application: "WGSPCFC030"}},
		},
	}

	result, err := service.Submit(context.Background(), OrderTypeFastq, "Jane #123456", "jane@example.com", order)

	require.Nil(t, err)
	require.NotNil(t, result.Ticket)
	assert.Equal(t, 123456, *result.Ticket)
	assert.Len(t, ticketClient.requests, 0)
	assert.Equal(t, []string{"123456"}, lims.projects)
	assert.Equal(t, "F", lims.projectSamples[0][0].Udfs["sex"])
	assert.Equal(t, ContainerTube, lims.projectSamples[0][0].Container)

	require.Len(t, statusRepository.samples, 2)
	assert.Equal(t, "ACC1A1", statusRepository.samples[0].InternalID)
	assert.Equal(t, 2, statusRepository.samples[0].Priority)
	assert.Equal(t, 1, statusRepository.samples[1].Priority)
	assert.Equal(t, SexUnknown, statusRepository.samples[1].Sex)
	assert.Equal(t, lims.projectDate, statusRepository.samples[0].OrderedAt)
	assert.Equal(t, 1, statusRepository.tx.commits)
	assert.Len(t, result.Records, 2)
}

func TestSubmitOpensTicketWhenNameHasNone(t *testing.T) {
	service, lims, ticketClient, _ := setupOrderService()
	lims.internalIDs = map[string]string{"s1": "ACC1A1"}
	order := Order{
		Customer: "cust000",
		Name:     "fastq order",
		Items:    []OrderItem{{Sample: &OrderSample{Name: "s1", Application: "WGSPCFC030"}}},
	}

	result, err := service.Submit(context.Background(), OrderTypeFastq, "Jane", "jane@example.com", order)

	require.Nil(t, err)
	require.NotNil(t, result.Ticket)
	assert.Equal(t, 654321, *result.Ticket)
	assert.Equal(t, []string{"New incoming samples, Jane"}, ticketClient.requests)
	assert.Equal(t, []string{"654321"}, lims.projects)
}

func TestSubmitContinuesWhenTicketCreationFails(t *testing.T) {
	service, lims, ticketClient, statusRepository := setupOrderService()
	ticketClient.err = errors.Wrap(ErrTicketCreation, "connection refused")
	lims.internalIDs = map[string]string{"s1": "ACC1A1"}
	order := Order{
		Customer: "cust000",
		Name:     "fastq order",
		Items:    []OrderItem{{Sample: &OrderSample{Name: "s1", Application: "WGSPCFC030"}}},
	}

	result, err := service.Submit(context.Background(), OrderTypeFastq, "Jane", "jane@example.com", order)

	require.Nil(t, err)
	assert.Nil(t, result.Ticket)
	assert.Equal(t, []string{"fastq order"}, lims.projects)
	require.Len(t, statusRepository.samples, 1)
	assert.Nil(t, statusRepository.samples[0].TicketNumber)
}

func TestSubmitRejectsInvalidOrderBeforeAnyWrite(t *testing.T) {
	service, lims, ticketClient, statusRepository := setupOrderService()
	order := Order{
		Customer: "cust000",
		Name:     "",
		Items: []OrderItem{
			{Sample: &OrderSample{Name: "s1", Application: "NOTATAG"}},
			{Sample: &OrderSample{Name: "s1", Application: "WGSPCFC030", Sex: Sex("x")}},
		},
	}

	_, err := service.Submit(context.Background(), OrderTypeFastq, "Jane", "jane@example.com", order)

	var validationError *OrderValidationError
	require.True(t, errors.As(err, &validationError))
	rules := make([]string, 0)
	for _, fieldError := range validationError.Errors {
		rules = append(rules, fieldError.Rule)
	}
	assert.Contains(t, rules, "required")
	assert.Contains(t, rules, "oneof")
	assert.Contains(t, rules, "unique")
	assert.Len(t, lims.projects, 0)
	assert.Len(t, ticketClient.requests, 0)
	assert.Len(t, statusRepository.samples, 0)
}

func TestSubmitRejectsUnknownCustomerAndApplication(t *testing.T) {
	service, lims, _, _ := setupOrderService()
	order := Order{
		Customer: "cust404",
		Name:     "order",
		Items:    []OrderItem{{Sample: &OrderSample{Name: "s1", Application: "WGSPCFC030"}}},
	}

	_, err := service.Submit(context.Background(), OrderTypeFastq, "Jane", "jane@example.com", order)
	var validationError *OrderValidationError
	require.True(t, errors.As(err, &validationError))
	assert.Equal(t, "Order.Customer", validationError.Errors[0].Field)

	order.Customer = "cust000"
	order.Items[0].Sample.Application = "NOTATAG"
	_, err = service.Submit(context.Background(), OrderTypeFastq, "Jane", "jane@example.com", order)
	require.True(t, errors.As(err, &validationError))
	assert.Equal(t, "exists", validationError.Errors[0].Rule)
	assert.Len(t, lims.projects, 0)
}

func TestSubmitRmlOrderCreatesPools(t *testing.T) {
	service, lims, _, statusRepository := setupOrderService()
	order := Order{
		Customer: "cust000",
		Name:     "rml order",
		Items: []OrderItem{
			{Sample: &OrderSample{Name: "lib1", Application: "RMLS05R150", Pool: "poolA", Index: "IDT", IndexNumber: "1"}},
			{Sample: &OrderSample{Name: "lib2", Application: "RMLS05R150", Pool: "poolA", Index: "IDT", IndexNumber: "2"}},
			{Sample: &OrderSample{Name: "lib3", Application: "RMLS05R150", Pool: "poolB"}},
		},
	}

	result, err := service.Submit(context.Background(), OrderTypeRml, "Jane 100001", "jane@example.com", order)

	require.Nil(t, err)
	assert.Len(t, lims.projectSamples[0], 3)
	assert.Equal(t, "poolA", lims.projectSamples[0][0].Udfs[limsUdfPoolName])
	require.Len(t, statusRepository.pools, 2)
	assert.Equal(t, "poolA", statusRepository.pools[0].Name)
	assert.Equal(t, "poolB", statusRepository.pools[1].Name)
	require.NotNil(t, statusRepository.pools[0].TicketNumber)
	assert.Equal(t, 100001, *statusRepository.pools[0].TicketNumber)
	assert.Len(t, statusRepository.samples, 0)
	assert.Equal(t, "pool", result.Records[0].Kind)
}

func TestSubmitRmlOrderRejectsMixedPoolApplications(t *testing.T) {
	service, lims, _, _ := setupOrderService()
	order := Order{
		Customer: "cust000",
		Name:     "rml order",
		Items: []OrderItem{
			{Sample: &OrderSample{Name: "lib1", Application: "RMLS05R150", Pool: "poolA"}},
			{Sample: &OrderSample{Name: "lib2", Application: "WGSPCFC030", Pool: "poolA"}},
			{Sample: &OrderSample{Name: "lib3", Application: "RMLS05R150"}},
		},
	}

	_, err := service.Submit(context.Background(), OrderTypeRml, "Jane", "jane@example.com", order)

	var validationError *OrderValidationError
	require.True(t, errors.As(err, &validationError))
	assert.Len(t, validationError.Errors, 2)
	assert.Len(t, lims.projects, 0)
}

func TestSubmitScoutOrderLinksFamilyMembers(t *testing.T) {
	service, lims, _, statusRepository := setupOrderService()
	lims.internalIDs = map[string]string{"child": "ACC1A1", "mother": "ACC1A2"}
	order := Order{
		Customer: "cust000",
		Name:     "scout order",
		Items: []OrderItem{{Family: &OrderFamily{
			Name:     "fam1",
			Priority: PriorityExpress,
			Panels:   []string{"IEM"},
			Samples: []OrderSample{
				{Name: "child", Application: "WGSPCFC030", Mother: "mother", Status: "affected", Family: "fam1"},
				{Name: "mother", Application: "WGSPCFC030", Family: "fam1"},
			},
		}}},
	}

	result, err := service.Submit(context.Background(), OrderTypeScout, "Jane 200002", "jane@example.com", order)

	require.Nil(t, err)
	require.Len(t, statusRepository.families, 1)
	assert.Equal(t, 3, statusRepository.families[0].Priority)
	require.NotNil(t, statusRepository.families[0].Action)
	require.Len(t, statusRepository.samples, 2)
	assert.Equal(t, 3, statusRepository.samples[0].Priority)
	require.Len(t, statusRepository.familySamples, 2)
	child := statusRepository.familySamples[0]
	assert.Equal(t, "affected", child.Status)
	require.NotNil(t, child.MotherID)
	assert.Equal(t, statusRepository.samples[1].ID, *child.MotherID)
	assert.Nil(t, child.FatherID)
	assert.Equal(t, "unknown", statusRepository.familySamples[1].Status)
	assert.Equal(t, "fam1", lims.projectSamples[0][0].Udfs["family_name"])
	assert.Len(t, result.Records, 3)
}

func TestSubmitScoutOrderWithOnlyExistingSamplesSkipsLims(t *testing.T) {
	service, lims, _, statusRepository := setupOrderService()
	customer := statusRepository.customers["cust000"]
	existing := Sample{ID: uuid.New(), InternalID: "ACC9A1", Name: "old", CustomerID: customer.ID}
	statusRepository.samples = append(statusRepository.samples, existing)
	order := Order{
		Customer: "cust000",
		Name:     "reanalysis",
		Items: []OrderItem{{Family: &OrderFamily{
			Name:    "fam9",
			Samples: []OrderSample{{Name: "old", InternalID: "ACC9A1", Application: "WGSPCFC030"}},
		}}},
	}

	result, err := service.Submit(context.Background(), OrderTypeScout, "Jane 300003", "jane@example.com", order)

	require.Nil(t, err)
	assert.Nil(t, result.Project)
	assert.Len(t, lims.projects, 0)
	require.Len(t, statusRepository.families, 1)
	assert.Equal(t, service.now(), statusRepository.families[0].OrderedAt)
	assert.Len(t, statusRepository.samples, 1)
	require.Len(t, statusRepository.familySamples, 1)
	assert.Equal(t, existing.ID, statusRepository.familySamples[0].Sample.ID)
}

func TestSubmitScoutOrderRejectsUnknownExistingSampleBeforeLims(t *testing.T) {
	service, lims, _, statusRepository := setupOrderService()
	order := Order{
		Customer: "cust000",
		Name:     "scout order",
		Items: []OrderItem{{Family: &OrderFamily{
			Name: "fam1",
			Samples: []OrderSample{
				{Name: "child", Application: "WGSPCFC030", Family: "fam1"},
				{Name: "old", InternalID: "NOPE99", Application: "WGSPCFC030", Family: "fam1"},
			},
		}}},
	}

	_, err := service.Submit(context.Background(), OrderTypeScout, "Jane 300003", "jane@example.com", order)

	var validationError *OrderValidationError
	require.True(t, errors.As(err, &validationError))
	require.Len(t, validationError.Errors, 1)
	assert.Equal(t, "exists", validationError.Errors[0].Rule)
	assert.Contains(t, validationError.Errors[0].Message, "NOPE99")
	assert.Len(t, lims.projects, 0)
	assert.Len(t, statusRepository.families, 0)
}

func TestSubmitExternalOrderRejectsSampleOfOtherCustomer(t *testing.T) {
	service, lims, _, statusRepository := setupOrderService()
	statusRepository.samples = append(statusRepository.samples, Sample{ID: uuid.New(), InternalID: "ACC7A1", Name: "foreign", CustomerID: uuid.New()})
	order := Order{
		Customer: "cust000",
		Name:     "external order",
		Items: []OrderItem{{Family: &OrderFamily{
			Name:    "fam7",
			Samples: []OrderSample{{Name: "foreign", InternalID: "ACC7A1", Application: "WGXCUSC000", Family: "fam7"}},
		}}},
	}

	_, err := service.Submit(context.Background(), OrderTypeExternal, "Jane 300004", "jane@example.com", order)

	var validationError *OrderValidationError
	require.True(t, errors.As(err, &validationError))
	require.Len(t, validationError.Errors, 1)
	assert.Equal(t, "exists", validationError.Errors[0].Rule)
	assert.Contains(t, validationError.Errors[0].Message, "cust000")
	assert.Len(t, lims.projects, 0)
}

func TestSubmitExternalOrderRequiresExternalApplication(t *testing.T) {
	service, lims, _, _ := setupOrderService()
	order := Order{
		Customer: "cust000",
		Name:     "external order",
		Items: []OrderItem{{Family: &OrderFamily{
			Name:    "fam1",
			Samples: []OrderSample{{Name: "s1", Application: "WGSPCFC030", Father: "s9"}},
		}}},
	}

	_, err := service.Submit(context.Background(), OrderTypeExternal, "Jane", "jane@example.com", order)

	var validationError *OrderValidationError
	require.True(t, errors.As(err, &validationError))
	rules := make([]string, 0)
	for _, fieldError := range validationError.Errors {
		rules = append(rules, fieldError.Rule)
	}
	assert.ElementsMatch(t, []string{"member", "external"}, rules)
	assert.Len(t, lims.projects, 0)
}

func TestSubmitPropagatesLimsFailureWithoutStatusWrites(t *testing.T) {
	service, lims, _, statusRepository := setupOrderService()
	lims.addProjectErr = errors.Wrap(ErrLimsRequestFailed, "timeout")
	order := Order{
		Customer: "cust000",
		Name:     "fastq order",
		Items:    []OrderItem{{Sample: &OrderSample{Name: "s1", Application: "WGSPCFC030"}}},
	}

	_, err := service.Submit(context.Background(), OrderTypeFastq, "Jane 123456", "jane@example.com", order)

	assert.True(t, errors.Is(err, ErrLimsRequestFailed))
	assert.Len(t, statusRepository.samples, 0)
	assert.Equal(t, 0, statusRepository.tx.commits)
}

func TestSubmitKeepsInternalIDWhenLimsHasNoMatch(t *testing.T) {
	service, lims, _, statusRepository := setupOrderService()
	lims.internalIDs = map[string]string{"s1": "ACC1A1"}
	order := Order{
		Customer: "cust000",
		Name:     "fastq order",
		Items: []OrderItem{
			{Sample: &OrderSample{Name: "s1", Application: "WGSPCFC030"}},
			{Sample: &OrderSample{Name: "s2", Application: "WGSPCFC030", InternalID: "PREV1"}},
		},
	}

	_, err := service.Submit(context.Background(), OrderTypeFastq, "Jane 123456", "jane@example.com", order)

	require.Nil(t, err)
	require.Len(t, statusRepository.samples, 2)
	assert.Equal(t, "PREV1", statusRepository.samples[1].InternalID)
}

func TestTicketFromOrderTakesPrecedence(t *testing.T) {
	service, _, ticketClient, _ := setupOrderService()

	ticket := service.resolveTicket(context.Background(), "Jane 123456", "jane@example.com", Order{Ticket: intPointer(999999)})

	require.NotNil(t, ticket)
	assert.Equal(t, 999999, *ticket)
	assert.Len(t, ticketClient.requests, 0)
}
