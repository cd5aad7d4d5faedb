package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkessler-dev/schoolday/internal/domain"
	"github.com/mkessler-dev/schoolday/internal/testutil"
)

var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func mondayBlocks(studentID string) []*domain.TemplateBlock {
	return []*domain.TemplateBlock{
		testutil.NewTestTemplateBlock(studentID, time.Monday, 1, 8*60, 8*60+20, testutil.WithBlockType(domain.BlockBible)),
		testutil.NewTestTemplateBlock(studentID, time.Monday, 2, 8*60+30, 9*60+30, testutil.WithSubject("Math")),
		testutil.NewTestTemplateBlock(studentID, time.Monday, 3, 9*60+40, 10*60+40, testutil.WithSubject("Science")),
		testutil.NewTestTemplateBlock(studentID, time.Monday, 4, 11*60, 11*60+45, testutil.WithFixedKind("lunch")),
	}
}

func TestCompose_EmptyTemplateYieldsNoBlocks(t *testing.T) {
	blocks := Compose(ComposeInput{Date: monday})
	assert.Nil(t, blocks)
}

func TestCompose_OrdersByStartTime(t *testing.T) {
	tpl := mondayBlocks("s-1")
	// Shuffle input order; output must still be chronological.
	tpl[0], tpl[3] = tpl[3], tpl[0]

	blocks := Compose(ComposeInput{Date: monday, TemplateBlocks: tpl})
	require.Len(t, blocks, 4)
	for i := 1; i < len(blocks); i++ {
		assert.LessOrEqual(t, blocks[i-1].StartMinute, blocks[i].StartMinute)
	}
	assert.Equal(t, domain.BlockBible, blocks[0].Type)
	assert.Equal(t, "Bible reading", blocks[0].Label)
	assert.Equal(t, "lunch", blocks[3].Label)
}

func TestCompose_PlacedAssignmentFillsItsSlot(t *testing.T) {
	a := testutil.NewTestAssignment("s-1", "Lesson 4", testutil.WithPlacement(monday, 2))

	blocks := Compose(ComposeInput{
		Date:           monday,
		TemplateBlocks: mondayBlocks("s-1"),
		Scheduled:      []*domain.Assignment{a},
	})
	require.Len(t, blocks, 4)
	assert.Equal(t, a.ID, blocks[1].AssignmentID)
	assert.Equal(t, "Lesson 4", blocks[1].Label)
	assert.False(t, blocks[1].Fallback)
}

func TestCompose_BacklogFallbackFillsEmptySlots(t *testing.T) {
	first := testutil.NewTestAssignment("s-1", "Priority A work", testutil.WithPriority(domain.PriorityA))
	second := testutil.NewTestAssignment("s-1", "Priority B work")

	blocks := Compose(ComposeInput{
		Date:           monday,
		TemplateBlocks: mondayBlocks("s-1"),
		Backlog:        []*domain.Assignment{first, second},
	})
	require.Len(t, blocks, 4)
	assert.Equal(t, first.ID, blocks[1].AssignmentID, "first open slot gets head of backlog")
	assert.True(t, blocks[1].Fallback)
	assert.Equal(t, second.ID, blocks[2].AssignmentID)
	assert.True(t, blocks[2].Fallback)
}

func TestCompose_BacklogFallbackSkipsNonPending(t *testing.T) {
	stuck := testutil.NewTestAssignment("s-1", "Stuck work",
		testutil.WithPriority(domain.PriorityA), testutil.WithStatus(domain.AssignmentStuck))
	overtime := testutil.NewTestAssignment("s-1", "Ran over",
		testutil.WithPriority(domain.PriorityA), testutil.WithStatus(domain.AssignmentNeedsMoreTime))
	pending := testutil.NewTestAssignment("s-1", "Fresh work")

	blocks := Compose(ComposeInput{
		Date:           monday,
		TemplateBlocks: mondayBlocks("s-1"),
		Backlog:        []*domain.Assignment{stuck, overtime, pending},
	})
	require.Len(t, blocks, 4)
	assert.Equal(t, pending.ID, blocks[1].AssignmentID, "only pending work falls into open slots")
	assert.True(t, blocks[1].Fallback)
	assert.False(t, blocks[2].HasAssignment(), "stuck and overtime work never auto-fills a slot")
}

func TestCompose_Deterministic(t *testing.T) {
	in := ComposeInput{
		Date:           monday,
		TemplateBlocks: mondayBlocks("s-1"),
		Backlog: []*domain.Assignment{
			testutil.NewTestAssignment("s-1", "One"),
			testutil.NewTestAssignment("s-1", "Two"),
		},
	}

	first := Compose(in)
	second := Compose(in)
	assert.Equal(t, first, second, "composing twice must yield identical sequences")
}

func TestCompose_OrphanPlacementExcluded(t *testing.T) {
	orphan := testutil.NewTestAssignment("s-1", "Ghost", testutil.WithPlacement(monday, 99))

	blocks := Compose(ComposeInput{
		Date:           monday,
		TemplateBlocks: mondayBlocks("s-1"),
		Scheduled:      []*domain.Assignment{orphan},
	})
	for _, b := range blocks {
		assert.NotEqual(t, orphan.ID, b.AssignmentID)
	}
}

func TestCompose_StatusOverridesState(t *testing.T) {
	tpl := mondayBlocks("s-1")
	statuses := []*domain.BlockStatus{
		{StudentID: "s-1", Date: monday, TemplateBlockID: tpl[0].ID, State: domain.BlockComplete},
	}

	blocks := Compose(ComposeInput{Date: monday, TemplateBlocks: tpl, Statuses: statuses})
	assert.Equal(t, domain.BlockComplete, blocks[0].State)
	assert.Equal(t, domain.BlockPending, blocks[1].State)
}

func TestCompose_BibleMinutesFromProfile(t *testing.T) {
	profile := domain.DefaultStudentProfile("s-1")
	profile.BibleMinutes = 35

	blocks := Compose(ComposeInput{
		Date:           monday,
		TemplateBlocks: mondayBlocks("s-1"),
		Profile:        profile,
	})
	assert.Equal(t, 35, blocks[0].EstimatedMinutes)
}

func TestFirstOpenSlotAfter(t *testing.T) {
	tpl := mondayBlocks("s-1")
	taken := testutil.NewTestAssignment("s-1", "Busy", testutil.WithPlacement(monday, 2))

	// 09:00 is inside block 2; the next assignment slot starting later is 3.
	slot := FirstOpenSlotAfter(tpl, []*domain.Assignment{taken}, 9*60)
	require.NotNil(t, slot)
	assert.Equal(t, 3, slot.BlockNumber)

	// After the last assignment slot there is nothing left.
	assert.Nil(t, FirstOpenSlotAfter(tpl, nil, 10*60))

	// Occupied slots are skipped even when their time is open.
	slot = FirstOpenSlotAfter(tpl, []*domain.Assignment{taken}, 0)
	require.NotNil(t, slot)
	assert.Equal(t, 3, slot.BlockNumber)
}
