package labops

import (
	"io"
	"sort"
	"strings"

	"github.com/blutspende/labops/utils"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

const (
	orderFormTableHeader    = "<TABLE HEADER>"
	orderFormSampleEntries  = "<SAMPLE ENTRIES>"
	orderFormSampleEntryEnd = "</SAMPLE ENTRIES>"
)

var orderFormSheetNames = []string{"orderform", "order form"}

// ValidOrderForms are the document versions the parser understands.
var ValidOrderForms = []string{
	"1508:15", // MIP, Balsamic, sequencing only
	"1508:16", // same as 1508:15 with new date
	"1541:6",  // externally sequenced samples
	"1603:7",  // microbial WGS
	"1604:9",  // ready made libraries (RML)
	"1605:6",  // microbial metagenomes
}

// ParseOrderForm reads an order form workbook and returns its normalised order.
func ParseOrderForm(r io.Reader) (OrderForm, error) {
	workbook, err := excelize.OpenReader(r)
	if err != nil {
		log.Error().Err(err).Msg("open order form workbook failed")
		return OrderForm{}, newFormatError("unable to open order form: %s", err.Error())
	}
	defer func() {
		if closeErr := workbook.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("close order form workbook failed")
		}
	}()

	sheetNames := workbook.GetSheetList()
	sheetName := ""
	for _, name := range orderFormSheetNames {
		if utils.SliceContains(name, sheetNames) {
			sheetName = name
			break
		}
	}
	if sheetName == "" {
		return OrderForm{}, newFormatError("'orderform' sheet not found in Excel file")
	}

	rows, err := workbook.GetRows(sheetName)
	if err != nil {
		return OrderForm{}, newFormatError("unable to read sheet %s: %s", sheetName, err.Error())
	}

	documentTitle, err := documentTitle(workbook, sheetNames, rows)
	if err != nil {
		return OrderForm{}, err
	}

	return parseOrderFormRows(documentTitle, rows)
}

func documentTitle(workbook *excelize.File, sheetNames []string, orderFormRows [][]string) (string, error) {
	if utils.SliceContains("information", sheetNames) {
		title, err := workbook.GetCellValue("information", "C1")
		if err != nil {
			return "", newFormatError("unable to read document title: %s", err.Error())
		}
		return title, nil
	}
	return cellAt(orderFormRows, 0, 1), nil
}

// parseOrderFormRows holds everything after the workbook has been read into plain rows.
func parseOrderFormRows(documentTitle string, rows [][]string) (OrderForm, error) {
	if err := checkOrderFormVersion(documentTitle); err != nil {
		return OrderForm{}, err
	}

	rawSamples, err := relevantRows(rows)
	if err != nil {
		return OrderForm{}, err
	}
	if len(rawSamples) == 0 {
		return OrderForm{}, newFormatError("orderform doesn't contain any samples")
	}

	samples := make([]OrderSample, 0, len(rawSamples))
	for _, rawSample := range rawSamples {
		sample, err := parseSample(rawSample)
		if err != nil {
			return OrderForm{}, err
		}
		samples = append(samples, sample)
	}

	projectType, err := projectTypeFor(documentTitle, samples)
	if err != nil {
		return OrderForm{}, err
	}

	customers := make([]string, 0)
	items := make([]OrderItem, 0)
	if projectType.IsFamilyType() {
		for _, group := range groupFamilies(samples) {
			customer, family, err := expandFamily(group.name, group.samples)
			if err != nil {
				return OrderForm{}, err
			}
			customers = utils.AppendUnique(customers, customer)
			items = append(items, OrderItem{Family: &family})
		}
	} else {
		for i := range samples {
			customers = utils.AppendUnique(customers, samples[i].Customer)
			sample := samples[i]
			items = append(items, OrderItem{Sample: &sample})
		}
	}

	switch len(customers) {
	case 0:
		return OrderForm{}, newFormatError("Customer information is missing")
	case 1:
	default:
		return OrderForm{}, newFormatError("Samples have different customers: %s", strings.Join(customers, ", "))
	}

	return OrderForm{
		Customer:    customers[0],
		ProjectType: projectType,
		Items:       items,
	}, nil
}

func checkOrderFormVersion(documentTitle string) error {
	for _, version := range ValidOrderForms {
		if strings.Contains(documentTitle, version) {
			return nil
		}
	}
	return newFormatError("Unsupported orderform: %s", documentTitle)
}

// relevantRows returns the sample rows keyed by the table header.
func relevantRows(rows [][]string) ([]map[string]string, error) {
	rawSamples := make([]map[string]string, 0)
	var header []string
	readHeader, readSamples, emptyRowFound := false, false, false

	for _, row := range rows {
		first := ""
		if len(row) > 0 {
			first = strings.TrimSpace(row[0])
		}
		if first == orderFormSampleEntryEnd {
			break
		}

		if readHeader {
			header = row
			readHeader = false
		} else if readSamples {
			if first != "" {
				if emptyRowFound {
					return nil, newFormatError("Found data after empty lines. Please delete any non-sample data rows in between the samples")
				}
				rawSample := make(map[string]string, len(header))
				for i, key := range header {
					if key == "" {
						continue
					}
					if i < len(row) {
						rawSample[key] = row[i]
					} else {
						rawSample[key] = ""
					}
				}
				rawSamples = append(rawSamples, rawSample)
			} else {
				emptyRowFound = true
			}
		}

		if first == orderFormTableHeader {
			readHeader = true
		} else if first == orderFormSampleEntries {
			readSamples = true
		}
	}
	return rawSamples, nil
}

func projectTypeFor(documentTitle string, samples []OrderSample) (ProjectType, error) {
	switch {
	case strings.Contains(documentTitle, "1541"):
		return ProjectTypeExternal, nil
	case strings.Contains(documentTitle, "1604"):
		return ProjectTypeRml, nil
	case strings.Contains(documentTitle, "1603"):
		return ProjectTypeMicrobial, nil
	case strings.Contains(documentTitle, "1605"):
		return ProjectTypeMetagenome, nil
	case strings.Contains(documentTitle, "1508"):
		analyses := make([]string, 0)
		for _, sample := range samples {
			analyses = utils.AppendUnique(analyses, strings.ToLower(sample.Analysis))
		}
		if len(analyses) == 1 {
			return ProjectType(analyses[0]), nil
		}
		return "", newFormatError("mixed 'Data Analysis' types: %s", strings.Join(analyses, ", "))
	}
	return "", newFormatError("Unsupported orderform: %s", documentTitle)
}

type familyGroup struct {
	name    string
	samples []OrderSample
}

// groupFamilies keeps families in order of first appearance.
func groupFamilies(samples []OrderSample) []familyGroup {
	groups := make([]familyGroup, 0)
	index := make(map[string]int)
	for _, sample := range samples {
		i, ok := index[sample.Family]
		if !ok {
			i = len(groups)
			index[sample.Family] = i
			groups = append(groups, familyGroup{name: sample.Family})
		}
		groups[i].samples = append(groups[i].samples, sample)
	}
	return groups
}

func expandFamily(familyID string, samples []OrderSample) (string, OrderFamily, error) {
	family := OrderFamily{
		Name:    familyID,
		Samples: make([]OrderSample, 0, len(samples)),
	}

	priorities := make([]string, 0)
	customers := make([]string, 0)
	panels := make([]string, 0)
	for _, sample := range samples {
		if sample.RequireQCOK {
			family.RequireQCOK = true
		}
		priorities = utils.AppendUnique(priorities, sample.Priority)
		customers = utils.AppendUnique(customers, sample.Customer)
		for _, panel := range sample.Panels {
			panels = utils.AppendUnique(panels, panel)
		}
	}

	if len(priorities) != 1 {
		return "", OrderFamily{}, newFormatError("multiple values for 'Priority' for family: %s", familyID)
	}
	family.Priority = priorities[0]

	if len(customers) != 1 {
		return "", OrderFamily{}, newFormatError("Invalid customer information: %s", strings.Join(customers, ", "))
	}

	for _, sample := range samples {
		familySample := OrderSample{
			Name:             sample.Name,
			Family:           familyID,
			Sex:              sample.Sex,
			Application:      sample.Application,
			Source:           sample.Source,
			DataAnalysis:     sample.DataAnalysis,
			ContainerName:    sample.ContainerName,
			WellPosition:     sample.WellPosition,
			Quantity:         sample.Quantity,
			Status:           sample.Status,
			Comment:          sample.Comment,
			CaptureKit:       sample.CaptureKit,
			Tumour:           sample.Tumour,
			TumourPurity:     sample.TumourPurity,
			FormalinFixation: sample.FormalinFixation,
			TissueBlockSize:  sample.TissueBlockSize,
			Mother:           sample.Mother,
			Father:           sample.Father,
		}
		if utils.SliceContains(sample.Container, ContainerTypes) {
			familySample.Container = sample.Container
		}
		family.Samples = append(family.Samples, familySample)
	}

	sort.Strings(panels)
	family.Panels = panels

	return customers[0], family, nil
}

func cellAt(rows [][]string, row, col int) string {
	if row >= len(rows) || col >= len(rows[row]) {
		return ""
	}
	return rows[row][col]
}
