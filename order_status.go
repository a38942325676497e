package labops

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type statusFamily struct {
	Family  Family
	Members []statusFamilyMember
}

type statusFamilyMember struct {
	Sample Sample
	IsNew  bool
	Status string
	Mother string
	Father string
}

func toStatusSample(submission orderSubmission, sample OrderSample, internalIDs map[string]string, orderedAt time.Time) Sample {
	internalID := sample.InternalID
	if id, ok := internalIDs[sample.Name]; ok {
		internalID = id
	}
	priority, ok := PriorityMap[sample.Priority]
	if !ok {
		priority = PriorityMap[PriorityStandard]
	}
	sex := sample.Sex
	if sex == "" {
		sex = SexUnknown
	}

	status := Sample{
		InternalID:         internalID,
		Name:               sample.Name,
		CustomerID:         submission.customer.ID,
		ApplicationVersion: submission.applications[sample.Application],
		Sex:                sex,
		Priority:           priority,
		TicketNumber:       submission.ticket,
		OrderName:          submission.order.Name,
		IsTumour:           sample.Tumour,
		OrderedAt:          orderedAt,
	}
	if sample.Comment != "" {
		status.Comment = &sample.Comment
	}
	if sample.CaptureKit != "" {
		status.CaptureKit = &sample.CaptureKit
	}
	if sample.DataAnalysis != "" {
		status.DataAnalysis = &sample.DataAnalysis
	}
	return status
}

func toStatusSamples(submission orderSubmission, samples []OrderSample, internalIDs map[string]string, orderedAt time.Time) []Sample {
	statusSamples := make([]Sample, 0, len(samples))
	for _, sample := range samples {
		statusSamples = append(statusSamples, toStatusSample(submission, sample, internalIDs, orderedAt))
	}
	return statusSamples
}

// toStatusPools groups samples by pool in first-appearance order.
func toStatusPools(submission orderSubmission, samples []OrderSample, orderedAt time.Time) []Pool {
	pools := make([]Pool, 0)
	seen := make(map[string]bool)
	for _, sample := range samples {
		if seen[sample.Pool] {
			continue
		}
		seen[sample.Pool] = true
		pools = append(pools, Pool{
			Name:               sample.Pool,
			OrderName:          submission.order.Name,
			TicketNumber:       submission.ticket,
			CustomerID:         submission.customer.ID,
			ApplicationVersion: submission.applications[sample.Application],
			OrderedAt:          orderedAt,
		})
	}
	return pools
}

func toStatusFamilies(submission orderSubmission, internalIDs map[string]string, orderedAt time.Time) []statusFamily {
	families := make([]statusFamily, 0)
	for _, orderFamily := range submission.order.Families() {
		priority, ok := PriorityMap[orderFamily.Priority]
		if !ok {
			priority = PriorityMap[PriorityStandard]
		}
		action := "analyze"
		family := statusFamily{
			Family: Family{
				InternalID:  newInternalID(),
				Name:        orderFamily.Name,
				CustomerID:  submission.customer.ID,
				Priority:    priority,
				Panels:      orderFamily.Panels,
				Action:      &action,
				RequireQCOK: orderFamily.RequireQCOK,
				OrderedAt:   orderedAt,
			},
		}
		for _, sample := range orderFamily.Samples {
			statusSample := toStatusSample(submission, sample, internalIDs, orderedAt)
			statusSample.Priority = priority
			family.Members = append(family.Members, statusFamilyMember{
				Sample: statusSample,
				IsNew:  sample.InternalID == "",
				Status: sample.Status,
				Mother: sample.Mother,
				Father: sample.Father,
			})
		}
		families = append(families, family)
	}
	return families
}

func (s *orderService) storeSamples(ctx context.Context, samples []Sample) ([]SubmittedRecord, error) {
	tx, err := s.statusRepository.CreateTransaction()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	txRepository := s.statusRepository.WithTransaction(tx)

	records := make([]SubmittedRecord, 0, len(samples))
	for _, sample := range samples {
		id, err := txRepository.CreateSample(ctx, sample)
		if err != nil {
			return nil, err
		}
		records = append(records, SubmittedRecord{ID: id, InternalID: sample.InternalID, Name: sample.Name, Kind: "sample"})
	}

	err = tx.Commit()
	if err != nil {
		return nil, errors.Wrap(ErrStatusStoreWriteFailed, err.Error())
	}
	return records, nil
}

func (s *orderService) storePools(ctx context.Context, pools []Pool) ([]SubmittedRecord, error) {
	tx, err := s.statusRepository.CreateTransaction()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	txRepository := s.statusRepository.WithTransaction(tx)

	records := make([]SubmittedRecord, 0, len(pools))
	for _, pool := range pools {
		id, err := txRepository.CreatePool(ctx, pool)
		if err != nil {
			return nil, err
		}
		records = append(records, SubmittedRecord{ID: id, Name: pool.Name, Kind: "pool"})
	}

	err = tx.Commit()
	if err != nil {
		return nil, errors.Wrap(ErrStatusStoreWriteFailed, err.Error())
	}
	return records, nil
}

// storeFamilies creates missing families and new samples, then links members. Existing samples
// are looked up by internal id; members already linked to an existing family are left alone.
func (s *orderService) storeFamilies(ctx context.Context, customer Customer, families []statusFamily) ([]SubmittedRecord, error) {
	tx, err := s.statusRepository.CreateTransaction()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	txRepository := s.statusRepository.WithTransaction(tx)

	records := make([]SubmittedRecord, 0)
	for _, family := range families {
		familyID, linked, err := s.findOrCreateFamily(ctx, txRepository, customer, family.Family)
		if err != nil {
			return nil, err
		}
		records = append(records, SubmittedRecord{ID: familyID, Name: family.Family.Name, Kind: "family"})

		sampleIDs := make(map[string]uuid.UUID, len(family.Members))
		for _, member := range family.Members {
			if !member.IsNew {
				existing, err := txRepository.GetSample(ctx, member.Sample.InternalID)
				if err != nil {
					return nil, err
				}
				sampleIDs[member.Sample.Name] = existing.ID
				continue
			}
			id, err := txRepository.CreateSample(ctx, member.Sample)
			if err != nil {
				return nil, err
			}
			sampleIDs[member.Sample.Name] = id
			records = append(records, SubmittedRecord{ID: id, InternalID: member.Sample.InternalID, Name: member.Sample.Name, Kind: "sample"})
		}

		for _, member := range family.Members {
			sampleID := sampleIDs[member.Sample.Name]
			if linked[sampleID] {
				continue
			}
			status := member.Status
			if status == "" {
				status = "unknown"
			}
			link := FamilySample{
				FamilyID: familyID,
				Sample:   Sample{ID: sampleID, InternalID: member.Sample.InternalID},
				Status:   status,
			}
			if motherID, ok := sampleIDs[member.Mother]; ok && member.Mother != "" {
				link.MotherID = &motherID
			}
			if fatherID, ok := sampleIDs[member.Father]; ok && member.Father != "" {
				link.FatherID = &fatherID
			}
			_, err = txRepository.CreateFamilySample(ctx, link)
			if err != nil {
				return nil, err
			}
		}
	}

	err = tx.Commit()
	if err != nil {
		return nil, errors.Wrap(ErrStatusStoreWriteFailed, err.Error())
	}
	return records, nil
}

func (s *orderService) findOrCreateFamily(ctx context.Context, repository StatusRepository, customer Customer, family Family) (uuid.UUID, map[uuid.UUID]bool, error) {
	linked := make(map[uuid.UUID]bool)
	existing, err := repository.GetFamilyByName(ctx, customer.ID, family.Name)
	if err == nil {
		links, err := repository.GetFamilySamples(ctx, existing.ID)
		if err != nil {
			return uuid.Nil, nil, err
		}
		for _, link := range links {
			linked[link.Sample.ID] = true
		}
		s.logger.Info().Str("family", existing.InternalID).Msg("adding samples to existing family")
		return existing.ID, linked, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return uuid.Nil, nil, err
	}

	id, err := repository.CreateFamily(ctx, family)
	if err != nil {
		return uuid.Nil, nil, err
	}
	return id, linked, nil
}
