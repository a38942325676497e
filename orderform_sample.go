package labops

import (
	"strings"

	"github.com/blutspende/labops/utils"
)

// parseSample turns one raw order form row into a sample.
func parseSample(raw map[string]string) (OrderSample, error) {
	geneList := raw["UDF/Gene List"]
	if strings.Contains(geneList, ":") {
		geneList = strings.ReplaceAll(geneList, ":", ";")
	}

	priority := strings.ToLower(raw["UDF/priority"])
	if priority == "förtur" {
		priority = PriorityPriority
	}

	sample := OrderSample{
		Name:             raw["Sample/Name"],
		Application:      raw["UDF/Sequencing Analysis"],
		CaptureKit:       raw["UDF/Capture Library version"],
		Comment:          raw["UDF/Comment"],
		Container:        raw["Container/Type"],
		ContainerName:    raw["Container/Name"],
		CustomIndex:      raw["UDF/Custom index"],
		Customer:         raw["UDF/customer"],
		DataAnalysis:     raw["UDF/Data Analysis"],
		ElutionBuffer:    raw["UDF/Sample Buffer"],
		ExtractionMethod: raw["UDF/Extraction method"],
		Family:           raw["UDF/familyID"],
		FormalinFixation: raw["UDF/Formalin Fixation Time"],
		Index:            raw["UDF/Index type"],
		Organism:         raw["UDF/Strain"],
		OrganismOther:    raw["UDF/Other species"],
		Pool:             raw["UDF/pool name"],
		Priority:         priority,
		ReferenceGenome:  raw["UDF/Reference Genome Microbial"],
		RequireQCOK:      raw["UDF/Process only if QC OK"] == "yes",
		RmlPlateName:     raw["UDF/RML plate name"],
		Sex:              ReverseSexMap[strings.TrimSpace(raw["UDF/Gender"])],
		Status:           strings.ToLower(raw["UDF/Status"]),
		TissueBlockSize:  raw["UDF/Tissue Block Size"],
		Tumour:           raw["UDF/tumor"] == "yes",
		TumourPurity:     raw["UDF/tumour purity"],
		WellPosition:     raw["Sample/Well Location"],
		WellPositionRml:  raw["UDF/RML well position"],
	}
	if geneList != "" {
		sample.Panels = strings.Split(geneList, ";")
	}
	if source := raw["UDF/Source"]; utils.SliceContains(source, AnalysisSources) || utils.SliceContains(source, MetagenomeSources) {
		sample.Source = source
	}

	analysis, err := classifyAnalysis(sample.DataAnalysis)
	if err != nil {
		return OrderSample{}, err
	}
	sample.Analysis = string(analysis)

	sample.IndexNumber = numericValue(raw["UDF/Index number"])
	sample.Volume = numericValue(raw["UDF/Volume (uL)"])
	sample.Quantity = numericValue(raw["UDF/Quantity"])
	sample.Concentration = numericValue(raw["UDF/Concentration (nM)"])
	sample.ConcentrationWeight = numericValue(raw["UDF/Sample Conc."])

	sample.Mother = parentValue(raw["UDF/motherID"])
	sample.Father = parentValue(raw["UDF/fatherID"])

	return sample, nil
}

// classifyAnalysis maps free text "Data Analysis" onto a project type. The checks are
// order sensitive: a combined mip and balsamic request must not fall into either alone.
func classifyAnalysis(dataAnalysis string) (ProjectType, error) {
	text := strings.ToLower(dataAnalysis)
	switch {
	case strings.Contains(text, "mip") && strings.Contains(text, "balsamic"):
		return ProjectTypeMipBalsamic, nil
	case strings.Contains(text, "balsamic"):
		return ProjectTypeBalsamic, nil
	case strings.Contains(text, "mip") || strings.Contains(text, "scout"):
		return ProjectTypeMip, nil
	case strings.Contains(text, "fastq") || text == "custom":
		return ProjectTypeFastq, nil
	}
	return "", newFormatError("unknown 'Data Analysis' for order: %s", text)
}

// numericValue drops one trailing ".0" and keeps the value only if it is made of digits and dots.
func numericValue(value string) string {
	value = strings.TrimSuffix(strings.TrimSpace(value), ".0")
	digits := strings.ReplaceAll(value, ".", "")
	if digits == "" {
		return ""
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return value
}

func parentValue(value string) string {
	value = strings.TrimSpace(value)
	if value == "0.0" {
		return ""
	}
	return value
}
