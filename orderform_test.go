package labops

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var orderFormHeader = []string{
	"Sample/Name", "UDF/customer", "UDF/familyID", "UDF/priority", "UDF/Data Analysis",
	"UDF/Sequencing Analysis", "UDF/Gender", "UDF/Source", "Container/Type", "UDF/Gene List",
	"UDF/Process only if QC OK", "UDF/motherID", "UDF/fatherID", "UDF/Volume (uL)", "UDF/Status",
}

func sampleRow(name, customer, family, priority, dataAnalysis string) []string {
	return []string{name, customer, family, priority, dataAnalysis, "WGSPCFC030", "M", "blood", "Tube", "OMIM-AUTO:IEM", "no", "0.0", "0.0", "20.0", "Affected"}
}

func orderFormRows(title string, samples ...[]string) [][]string {
	rows := [][]string{
		{"", title},
		{"<TABLE HEADER>"},
		orderFormHeader,
		{"<SAMPLE ENTRIES>"},
	}
	rows = append(rows, samples...)
	rows = append(rows, []string{"</SAMPLE ENTRIES>"})
	return rows
}

func TestClassifyAnalysis(t *testing.T) {
	cases := map[string]ProjectType{
		"MIP + Balsamic":   ProjectTypeMipBalsamic,
		"balsamic":         ProjectTypeBalsamic,
		"Balsamic tumour":  ProjectTypeBalsamic,
		"MIP":              ProjectTypeMip,
		"scout":            ProjectTypeMip,
		"FASTQ":            ProjectTypeFastq,
		"custom":           ProjectTypeFastq,
		"fastq + delivery": ProjectTypeFastq,
	}
	for dataAnalysis, expected := range cases {
		projectType, err := classifyAnalysis(dataAnalysis)
		assert.Nil(t, err, dataAnalysis)
		assert.Equal(t, expected, projectType, dataAnalysis)
	}

	_, err := classifyAnalysis("custom analysis")
	assert.True(t, errors.Is(err, ErrFormat))
	_, err = classifyAnalysis("")
	assert.True(t, errors.Is(err, ErrFormat))
}

func TestNumericValue(t *testing.T) {
	assert.Equal(t, "10", numericValue("10.0"))
	assert.Equal(t, "1.5", numericValue("1.5"))
	assert.Equal(t, "12", numericValue("12"))
	assert.Equal(t, "", numericValue("n/a"))
	assert.Equal(t, "", numericValue(""))
	assert.Equal(t, "", numericValue(".0"))
}

func TestParseSample(t *testing.T) {
	raw := map[string]string{
		"Sample/Name":             "sample1",
		"UDF/customer":            "cust000",
		"UDF/priority":            "Förtur",
		"UDF/Data Analysis":       "scout",
		"UDF/Sequencing Analysis": "WGSPCFC030",
		"UDF/Gender":              " F ",
		"UDF/Source":              "not a source",
		"UDF/Gene List":           "OMIM-AUTO:IEM;EP",
		"UDF/Process only if QC OK": "yes",
		"UDF/motherID":            "sample2",
		"UDF/fatherID":            "0.0",
		"UDF/Concentration (nM)":  "abc",
		"UDF/Quantity":            "220.0",
	}

	sample, err := parseSample(raw)

	assert.Nil(t, err)
	assert.Equal(t, "sample1", sample.Name)
	assert.Equal(t, PriorityPriority, sample.Priority)
	assert.Equal(t, SexFemale, sample.Sex)
	assert.Equal(t, "", sample.Source)
	assert.Equal(t, []string{"OMIM-AUTO", "IEM", "EP"}, sample.Panels)
	assert.True(t, sample.RequireQCOK)
	assert.Equal(t, "sample2", sample.Mother)
	assert.Equal(t, "", sample.Father)
	assert.Equal(t, "", sample.Concentration)
	assert.Equal(t, "220", sample.Quantity)
	assert.Equal(t, string(ProjectTypeMip), sample.Analysis)
}

func TestParseOrderFormGroupsFamilies(t *testing.T) {
	rows := orderFormRows("1508:16 Orderform",
		sampleRow("s1", "cust000", "fam2", "standard", "MIP"),
		sampleRow("s2", "cust000", "fam1", "standard", "MIP"),
		sampleRow("s3", "cust000", "fam2", "standard", "MIP"),
	)
	rows[5][10] = "yes" // s2 requires qc ok
	rows[6][9] = "EP"

	orderForm, err := parseOrderFormRows("1508:16 Orderform", rows)

	require.Nil(t, err)
	assert.Equal(t, "cust000", orderForm.Customer)
	assert.Equal(t, ProjectTypeMip, orderForm.ProjectType)
	require.Len(t, orderForm.Items, 2)

	fam2 := orderForm.Items[0].Family
	require.NotNil(t, fam2)
	assert.Equal(t, "fam2", fam2.Name)
	assert.Equal(t, []string{"EP", "IEM", "OMIM-AUTO"}, fam2.Panels)
	assert.False(t, fam2.RequireQCOK)
	assert.Len(t, fam2.Samples, 2)
	assert.Equal(t, "Tube", fam2.Samples[0].Container)
	assert.Equal(t, "", fam2.Samples[0].Mother)

	fam1 := orderForm.Items[1].Family
	require.NotNil(t, fam1)
	assert.True(t, fam1.RequireQCOK)
	assert.Equal(t, PriorityStandard, fam1.Priority)
}

func TestParseOrderFormRejectsConflictingFamilyPriority(t *testing.T) {
	rows := orderFormRows("1508:16 Orderform",
		sampleRow("s1", "cust000", "fam1", "standard", "MIP"),
		sampleRow("s2", "cust000", "fam1", "priority", "MIP"),
	)

	_, err := parseOrderFormRows("1508:16 Orderform", rows)

	assert.True(t, errors.Is(err, ErrFormat))
	assert.Equal(t, "multiple values for 'Priority' for family: fam1", err.Error())
}

func TestParseOrderFormRejectsMixedAnalyses(t *testing.T) {
	rows := orderFormRows("1508:15",
		sampleRow("s1", "cust000", "fam1", "standard", "MIP"),
		sampleRow("s2", "cust000", "fam2", "standard", "Balsamic"),
	)

	_, err := parseOrderFormRows("1508:15", rows)

	assert.True(t, errors.Is(err, ErrFormat))
	assert.Contains(t, err.Error(), "mixed 'Data Analysis' types")
}

func TestParseOrderFormRejectsUnsupportedVersion(t *testing.T) {
	rows := orderFormRows("1508:14", sampleRow("s1", "cust000", "fam1", "standard", "MIP"))

	_, err := parseOrderFormRows("1508:14", rows)

	assert.True(t, errors.Is(err, ErrFormat))
	assert.Equal(t, "Unsupported orderform: 1508:14", err.Error())
}

func TestParseOrderFormRejectsDataAfterEmptyRow(t *testing.T) {
	rows := orderFormRows("1541:6",
		sampleRow("s1", "cust000", "fam1", "standard", "MIP"),
		[]string{},
		sampleRow("s2", "cust000", "fam1", "standard", "MIP"),
	)

	_, err := parseOrderFormRows("1541:6", rows)

	assert.True(t, errors.Is(err, ErrFormat))
	assert.Contains(t, err.Error(), "Found data after empty lines")
}

func TestParseOrderFormRejectsMultipleCustomers(t *testing.T) {
	rows := orderFormRows("1604:9",
		sampleRow("s1", "cust000", "", "standard", "fastq"),
		sampleRow("s2", "cust001", "", "standard", "fastq"),
	)

	_, err := parseOrderFormRows("1604:9", rows)

	assert.True(t, errors.Is(err, ErrFormat))
	assert.Contains(t, err.Error(), "Samples have different customers")
}

func TestParseOrderFormWithoutSamples(t *testing.T) {
	_, err := parseOrderFormRows("1604:9", orderFormRows("1604:9"))

	assert.True(t, errors.Is(err, ErrFormat))
	assert.Equal(t, "orderform doesn't contain any samples", err.Error())
}

func orderFormWorkbook(t *testing.T, rows [][]string) []byte {
	workbook := excelize.NewFile()
	require.Nil(t, workbook.SetSheetName("Sheet1", "orderform"))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.Nil(t, err)
		values := make([]interface{}, len(row))
		for j := range row {
			values[j] = row[j]
		}
		require.Nil(t, workbook.SetSheetRow("orderform", cell, &values))
	}
	buffer, err := workbook.WriteToBuffer()
	require.Nil(t, err)
	return buffer.Bytes()
}

func TestParseOrderFormWorkbook(t *testing.T) {
	content := orderFormWorkbook(t, orderFormRows("1604:9 Orderform Ready made libraries",
		sampleRow("pool-sample-1", "cust000", "", "research", "fastq"),
		sampleRow("pool-sample-2", "cust000", "", "research", "fastq"),
	))

	orderForm, err := ParseOrderForm(bytes.NewReader(content))

	require.Nil(t, err)
	assert.Equal(t, ProjectTypeRml, orderForm.ProjectType)
	require.Len(t, orderForm.Items, 2)
	require.NotNil(t, orderForm.Items[0].Sample)
	assert.Equal(t, "pool-sample-1", orderForm.Items[0].Sample.Name)
	assert.Equal(t, "20", orderForm.Items[0].Sample.Volume)
}

func TestParseOrderFormWorkbookWithoutOrderFormSheet(t *testing.T) {
	workbook := excelize.NewFile()
	buffer, err := workbook.WriteToBuffer()
	require.Nil(t, err)

	_, err = ParseOrderForm(bytes.NewReader(buffer.Bytes()))

	assert.True(t, errors.Is(err, ErrFormat))
	assert.Equal(t, "'orderform' sheet not found in Excel file", err.Error())
}
