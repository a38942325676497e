package labops

import (
	"context"
	"strings"
)

// submitToLims creates the LIMS project with the given samples and returns their LIMS ids by name.
func (s *orderService) submitToLims(ctx context.Context, submission orderSubmission, samples []OrderSample) (LimsProject, map[string]string, error) {
	name := projectName(submission)
	project, err := s.lims.AddProject(ctx, name, toLimsSamples(submission.order, samples))
	if err != nil {
		s.logger.Error().Err(err).Str("project", name).Msg("lims project creation failed")
		return LimsProject{}, nil, err
	}
	s.logger.Info().Str("project", project.ID).Str("name", name).Int("samples", len(samples)).Msg("created lims project")

	limsSamples, err := s.lims.GetSamples(ctx, project.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("project", project.ID).Msg("reading samples of new lims project failed")
		return LimsProject{}, nil, err
	}

	internalIDs := make(map[string]string, len(limsSamples))
	for _, limsSample := range limsSamples {
		internalIDs[limsSample.Name] = limsSample.ID
	}
	for _, sample := range samples {
		if _, ok := internalIDs[sample.Name]; !ok {
			s.logger.Warn().Str("project", project.ID).Str("sample", sample.Name).Msg("lims returned no sample of this name, keeping it without lims id")
		}
	}
	return project, internalIDs, nil
}

func toLimsSamples(order Order, samples []OrderSample) []LimsSubmissionSample {
	limsSamples := make([]LimsSubmissionSample, 0, len(samples))
	for _, sample := range samples {
		container := sample.Container
		if container == "" {
			container = ContainerTube
		}
		wellPosition := sample.WellPosition
		if wellPosition == "" {
			wellPosition = sample.WellPositionRml
		}
		containerName := sample.ContainerName
		if containerName == "" {
			containerName = sample.RmlPlateName
		}
		limsSamples = append(limsSamples, LimsSubmissionSample{
			Name:          sample.Name,
			Container:     container,
			ContainerName: containerName,
			WellPosition:  strings.ReplaceAll(wellPosition, ":", ""),
			IndexSequence: sample.IndexSequence,
			Udfs:          limsUdfs(order, sample),
		})
	}
	return limsSamples
}

func limsUdfs(order Order, sample OrderSample) map[string]string {
	source := sample.Source
	if source == "" {
		source = "NA"
	}
	family := sample.Family
	if family == "" {
		family = "NA"
	}
	priority := sample.Priority
	if priority == "" {
		priority = PriorityStandard
	}
	udfs := map[string]string{
		"customer":     order.Customer,
		"application":  sample.Application,
		"priority":     priority,
		"family_name":  family,
		"source":       source,
		"require_qcok": yesNo(sample.RequireQCOK),
		"tumour":       yesNo(sample.Tumour),
	}
	if sex, ok := SexMap[sample.Sex]; ok {
		udfs["sex"] = sex
	}

	optional := map[string]string{
		"comment":              sample.Comment,
		"data_analysis":        sample.DataAnalysis,
		"capture_kit":          sample.CaptureKit,
		"tumour_purity":        sample.TumourPurity,
		limsUdfPoolName:        sample.Pool,
		"index":                sample.Index,
		"index_number":         sample.IndexNumber,
		"custom_index":         sample.CustomIndex,
		"organism":             sample.Organism,
		"organism_other":       sample.OrganismOther,
		"reference_genome":     sample.ReferenceGenome,
		"elution_buffer":       sample.ElutionBuffer,
		"extraction_method":    sample.ExtractionMethod,
		"formalin_fixation":    sample.FormalinFixation,
		"tissue_block_size":    sample.TissueBlockSize,
		"volume":               sample.Volume,
		"quantity":             sample.Quantity,
		"concentration":        sample.Concentration,
		"concentration_weight": sample.ConcentrationWeight,
	}
	for key, value := range optional {
		if value != "" {
			udfs[key] = value
		}
	}
	return udfs
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
