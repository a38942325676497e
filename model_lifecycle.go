package labops

type EntityKind string

const (
	EntityKindSample          EntityKind = "samples"
	EntityKindPool            EntityKind = "pools"
	EntityKindMicrobialSample EntityKind = "microbial"
)

// Stage is a lifecycle step whose reached-at timestamp lives in "<stage>_at".
type Stage string

const (
	StageReceived  Stage = "received"
	StagePrepared  Stage = "prepared"
	StageSequenced Stage = "sequenced"
	StageDelivered Stage = "delivered"
)

func (s Stage) Column() string {
	return string(s) + "_at"
}

// stages the reconciler may set per entity kind
var transferStages = map[EntityKind][]Stage{
	EntityKindSample:          {StageReceived, StagePrepared, StageDelivered},
	EntityKindPool:            {StageReceived, StageDelivered},
	EntityKindMicrobialSample: {StageReceived, StagePrepared, StageSequenced, StageDelivered},
}

func TransferStages(kind EntityKind) []Stage {
	return transferStages[kind]
}

func IsTransferStage(kind EntityKind, stage Stage) bool {
	for _, s := range transferStages[kind] {
		if s == stage {
			return true
		}
	}
	return false
}

type IncludeOption string

const (
	IncludeUnset       IncludeOption = ""
	IncludeNotInvoiced IncludeOption = "not-invoiced"
	IncludeAll         IncludeOption = "all"
)

func ParseIncludeOption(value string) (IncludeOption, error) {
	switch IncludeOption(value) {
	case IncludeUnset, IncludeNotInvoiced, IncludeAll:
		return IncludeOption(value), nil
	}
	return IncludeUnset, ErrInvalidIncludeOption
}
