package domain

type BlockType string

const (
	BlockBible      BlockType = "bible"
	BlockAssignment BlockType = "assignment"
	BlockFixed      BlockType = "fixed"
)

// ValidFixedKinds is the canonical set of accepted fixed-block labels.
var ValidFixedKinds = map[string]bool{
	"travel": true, "lunch": true, "movement": true,
	"coop": true, "prep_load": true, "chores": true,
	"break": true,
}

type AssignmentStatus string

const (
	AssignmentPending       AssignmentStatus = "pending"
	AssignmentInProgress    AssignmentStatus = "in_progress"
	AssignmentCompleted     AssignmentStatus = "completed"
	AssignmentStuck         AssignmentStatus = "stuck"
	AssignmentNeedsMoreTime AssignmentStatus = "needs_more_time"
)

// ValidAssignmentStatuses is the canonical set of accepted status strings.
var ValidAssignmentStatuses = map[AssignmentStatus]bool{
	AssignmentPending: true, AssignmentInProgress: true,
	AssignmentCompleted: true, AssignmentStuck: true,
	AssignmentNeedsMoreTime: true,
}

type BlockState string

const (
	BlockPending    BlockState = "pending"
	BlockInProgress BlockState = "in_progress"
	BlockComplete   BlockState = "complete"
	BlockStuck      BlockState = "stuck"
	BlockOvertime   BlockState = "overtime"
)

type Provenance string

const (
	ProvenanceImported Provenance = "imported"
	ProvenanceLocal    Provenance = "local"
	ProvenanceDerived  Provenance = "derived"
)

type Priority string

const (
	PriorityA Priority = "A"
	PriorityB Priority = "B"
	PriorityC Priority = "C"
)

// PriorityRank returns a sort rank for a priority (lower = more urgent).
// Unknown priorities sort after C.
func PriorityRank(p Priority) int {
	switch p {
	case PriorityA:
		return 0
	case PriorityB:
		return 1
	case PriorityC:
		return 2
	default:
		return 3
	}
}

type StuckMarkState string

const (
	StuckMarkPending   StuckMarkState = "pending"
	StuckMarkCommitted StuckMarkState = "committed"
	StuckMarkCancelled StuckMarkState = "cancelled"
)

// MirrorBlockState maps an assignment status to the coarse per-block state
// shown by views that are not assignment-aware.
func MirrorBlockState(s AssignmentStatus) BlockState {
	switch s {
	case AssignmentCompleted:
		return BlockComplete
	case AssignmentStuck:
		return BlockStuck
	case AssignmentNeedsMoreTime:
		return BlockOvertime
	default:
		return BlockInProgress
	}
}
