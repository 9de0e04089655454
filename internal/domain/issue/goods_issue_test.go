package issue

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers

func testHeader() HeaderInput {
	return HeaderInput{
		IssueType:     "Transfer",
		PartnerName:   "Acme Corp",
		FromWarehouse: "WH01",
		ToWarehouse:   "WH02",
		ExpectedDate:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func testLine(tracking TrackingType, planned int64) LineInput {
	return LineInput{
		SKU:          "A1",
		ProductName:  "Widget",
		UOM:          "PCS",
		PlannedQty:   decimal.NewFromInt(planned),
		TrackingType: tracking,
	}
}

func createTestIssue(t *testing.T, lines ...LineInput) *GoodsIssue {
	t.Helper()
	if len(lines) == 0 {
		lines = []LineInput{testLine(TrackingSerial, 3)}
	}
	doc, err := NewGoodsIssue("GI-2024-001", testHeader(), lines, "tester")
	require.NoError(t, err)
	return doc
}

// advance walks the document through the given statuses, failing the test
// on any rejected transition
func advance(t *testing.T, doc *GoodsIssue, statuses ...IssueStatus) {
	t.Helper()
	for _, s := range statuses {
		require.NoError(t, doc.TransitionTo(s, "tester", ""))
	}
}

// ============================================
// IssueStatus Tests
// ============================================

func TestIssueStatus_IsValid(t *testing.T) {
	for _, s := range AllStatuses {
		assert.True(t, s.IsValid(), s.String())
	}
	assert.False(t, IssueStatus("INVALID").IsValid())
	assert.False(t, IssueStatus("").IsValid())
	assert.False(t, IssueStatus("draft").IsValid())
}

func TestIssueStatus_CanTransitionTo(t *testing.T) {
	allowed := map[IssueStatus][]IssueStatus{
		StatusDraft:               {StatusPicking, StatusCancelled},
		StatusPicking:             {StatusAdjustmentRequested, StatusSubmitted, StatusCancelled},
		StatusAdjustmentRequested: {StatusPicking, StatusCancelled},
		StatusSubmitted:           {StatusApproved, StatusAdjustmentRequested, StatusCancelled},
		StatusApproved:            {StatusCompleted, StatusCancelled},
		StatusCompleted:           {},
		StatusCancelled:           {},
	}

	// Every (from, to) pair not in the table must be rejected
	for _, from := range AllStatuses {
		for _, to := range AllStatuses {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
					break
				}
			}
			t.Run(from.String()+"->"+to.String(), func(t *testing.T) {
				assert.Equal(t, want, from.CanTransitionTo(to))
			})
		}
	}
}

func TestIssueStatus_IsTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusDraft.IsTerminal())
	assert.False(t, StatusApproved.IsTerminal())
}

func TestTrackingType_IsValid(t *testing.T) {
	assert.True(t, TrackingNone.IsValid())
	assert.True(t, TrackingSerial.IsValid())
	assert.True(t, TrackingLot.IsValid())
	assert.False(t, TrackingType("BATCH").IsValid())
	assert.False(t, TrackingType("").IsValid())
}

// ============================================
// NewGoodsIssue Tests
// ============================================

func TestNewGoodsIssue(t *testing.T) {
	t.Run("creates draft with valid inputs", func(t *testing.T) {
		doc, err := NewGoodsIssue("GI-2024-001", testHeader(), []LineInput{testLine(TrackingSerial, 3)}, "tester")
		require.NoError(t, err)
		require.NotNil(t, doc)

		assert.Equal(t, "GI-2024-001", doc.IssueNumber)
		assert.Equal(t, StatusDraft, doc.Status)
		assert.Equal(t, "tester", doc.CreatedBy)
		assert.Equal(t, 1, doc.GetVersion())
		require.Len(t, doc.Lines, 1)
		assert.True(t, doc.Lines[0].PickedQty.IsZero())
		assert.Empty(t, doc.Lines[0].Serials)
		assert.Empty(t, doc.Lines[0].Allocations)
		assert.NotEqual(t, uuid.Nil, doc.Lines[0].ID)
	})

	t.Run("seeds history with one draft entry", func(t *testing.T) {
		doc := createTestIssue(t)
		require.Len(t, doc.StatusHistory, 1)
		assert.Equal(t, StatusDraft, doc.StatusHistory[0].Status)
		assert.Equal(t, "tester", doc.StatusHistory[0].ChangedBy)
	})

	t.Run("publishes GoodsIssueCreated event", func(t *testing.T) {
		doc := createTestIssue(t)
		events := doc.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeGoodsIssueCreated, events[0].EventType())
	})

	t.Run("defaults actor when creator is blank", func(t *testing.T) {
		doc, err := NewGoodsIssue("GI-2024-002", testHeader(), []LineInput{testLine(TrackingNone, 1)}, "")
		require.NoError(t, err)
		assert.Equal(t, DefaultActor, doc.CreatedBy)
		assert.Equal(t, DefaultActor, doc.StatusHistory[0].ChangedBy)
	})

	t.Run("fails with empty issue type", func(t *testing.T) {
		header := testHeader()
		header.IssueType = ""
		_, err := NewGoodsIssue("GI-2024-003", header, []LineInput{testLine(TrackingNone, 1)}, "tester")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Issue type")
	})

	t.Run("fails with empty source warehouse", func(t *testing.T) {
		header := testHeader()
		header.FromWarehouse = "  "
		_, err := NewGoodsIssue("GI-2024-003", header, []LineInput{testLine(TrackingNone, 1)}, "tester")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "warehouse")
	})

	t.Run("fails with zero expected date", func(t *testing.T) {
		header := testHeader()
		header.ExpectedDate = time.Time{}
		_, err := NewGoodsIssue("GI-2024-003", header, []LineInput{testLine(TrackingNone, 1)}, "tester")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Expected date")
	})

	t.Run("fails with no lines", func(t *testing.T) {
		_, err := NewGoodsIssue("GI-2024-003", testHeader(), nil, "tester")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one line")
	})

	t.Run("fails with non-positive planned quantity", func(t *testing.T) {
		line := testLine(TrackingNone, 0)
		_, err := NewGoodsIssue("GI-2024-003", testHeader(), []LineInput{line}, "tester")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Planned quantity")
	})

	t.Run("fails with unknown tracking type", func(t *testing.T) {
		line := testLine(TrackingType("BATCH"), 1)
		_, err := NewGoodsIssue("GI-2024-003", testHeader(), []LineInput{line}, "tester")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tracking type")
	})

	t.Run("fails with empty SKU", func(t *testing.T) {
		line := testLine(TrackingNone, 1)
		line.SKU = ""
		_, err := NewGoodsIssue("GI-2024-003", testHeader(), []LineInput{line}, "tester")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SKU")
	})
}

// ============================================
// UpdateDraft Tests
// ============================================

func TestGoodsIssue_UpdateDraft(t *testing.T) {
	t.Run("replaces header and lines, resets progress", func(t *testing.T) {
		doc := createTestIssue(t, testLine(TrackingNone, 5))
		advance(t, doc, StatusPicking)
		lineID := doc.Lines[0].ID
		require.NoError(t, doc.SetLinePickedQuantity(lineID, decimal.NewFromInt(2)))
		advance(t, doc, StatusAdjustmentRequested, StatusPicking)

		// Back to draft is not a legal edge, so rebuild a fresh draft instead
		draft := createTestIssue(t, testLine(TrackingNone, 5))
		header := testHeader()
		header.IssueType = "Disposal"
		header.PartnerName = "Other Partner"
		newLine := testLine(TrackingLot, 10)
		newLine.SKU = "B2"

		require.NoError(t, draft.UpdateDraft(header, []LineInput{newLine}))
		assert.Equal(t, "Disposal", draft.IssueType)
		assert.Equal(t, "Other Partner", draft.PartnerName)
		require.Len(t, draft.Lines, 1)
		assert.Equal(t, "B2", draft.Lines[0].SKU)
		assert.True(t, draft.Lines[0].PickedQty.IsZero())
	})

	t.Run("preserves number, creation metadata, and history", func(t *testing.T) {
		doc := createTestIssue(t)
		number := doc.IssueNumber
		createdAt := doc.CreatedAt
		createdBy := doc.CreatedBy
		historyLen := len(doc.StatusHistory)

		require.NoError(t, doc.UpdateDraft(testHeader(), []LineInput{testLine(TrackingNone, 2)}))
		assert.Equal(t, number, doc.IssueNumber)
		assert.Equal(t, createdAt, doc.CreatedAt)
		assert.Equal(t, createdBy, doc.CreatedBy)
		assert.Len(t, doc.StatusHistory, historyLen)
	})

	t.Run("rejects invalid payloads without mutation", func(t *testing.T) {
		doc := createTestIssue(t)
		before := doc.Lines[0].SKU
		err := doc.UpdateDraft(testHeader(), []LineInput{})
		require.Error(t, err)
		assert.Equal(t, before, doc.Lines[0].SKU)
	})

	t.Run("fails in every non-draft status", func(t *testing.T) {
		paths := map[IssueStatus][]IssueStatus{
			StatusPicking:             {StatusPicking},
			StatusAdjustmentRequested: {StatusPicking, StatusAdjustmentRequested},
			StatusSubmitted:           {StatusPicking, StatusSubmitted},
			StatusApproved:            {StatusPicking, StatusSubmitted, StatusApproved},
			StatusCompleted:           {StatusPicking, StatusSubmitted, StatusApproved, StatusCompleted},
			StatusCancelled:           {StatusCancelled},
		}
		for status, path := range paths {
			t.Run(status.String(), func(t *testing.T) {
				doc := createTestIssue(t)
				advance(t, doc, path...)
				require.Equal(t, status, doc.Status)

				err := doc.UpdateDraft(testHeader(), []LineInput{testLine(TrackingNone, 1)})
				require.Error(t, err)
				assert.Contains(t, err.Error(), status.String())
			})
		}
	})
}

// ============================================
// TransitionTo Tests
// ============================================

func TestGoodsIssue_TransitionTo(t *testing.T) {
	t.Run("walks the full happy path", func(t *testing.T) {
		doc := createTestIssue(t)
		advance(t, doc, StatusPicking, StatusSubmitted, StatusApproved, StatusCompleted)
		assert.Equal(t, StatusCompleted, doc.Status)
		assert.Len(t, doc.StatusHistory, 5)
	})

	t.Run("appends exactly one history entry per transition", func(t *testing.T) {
		doc := createTestIssue(t)
		require.NoError(t, doc.TransitionTo(StatusPicking, "alice", "start picking"))

		require.Len(t, doc.StatusHistory, 2)
		entry := doc.StatusHistory[1]
		assert.Equal(t, StatusPicking, entry.Status)
		assert.Equal(t, "alice", entry.ChangedBy)
		assert.Equal(t, "start picking", entry.Note)
		assert.False(t, entry.ChangedAt.IsZero())
	})

	t.Run("same-status transition is a no-op success", func(t *testing.T) {
		doc := createTestIssue(t)
		require.NoError(t, doc.TransitionTo(StatusDraft, "alice", ""))
		assert.Equal(t, StatusDraft, doc.Status)
		assert.Len(t, doc.StatusHistory, 1)
	})

	t.Run("illegal transition leaves status and history unchanged", func(t *testing.T) {
		doc := createTestIssue(t)
		advance(t, doc, StatusPicking, StatusSubmitted)
		historyLen := len(doc.StatusHistory)

		err := doc.TransitionTo(StatusPicking, "alice", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SUBMITTED")
		assert.Equal(t, StatusSubmitted, doc.Status)
		assert.Len(t, doc.StatusHistory, historyLen)
	})

	t.Run("rejects unknown target status", func(t *testing.T) {
		doc := createTestIssue(t)
		err := doc.TransitionTo(IssueStatus("SHIPPED"), "alice", "")
		require.Error(t, err)
		assert.Equal(t, StatusDraft, doc.Status)
	})

	t.Run("defaults actor to System User", func(t *testing.T) {
		doc := createTestIssue(t)
		require.NoError(t, doc.TransitionTo(StatusPicking, "", ""))
		assert.Equal(t, DefaultActor, doc.StatusHistory[1].ChangedBy)
	})

	t.Run("terminal statuses reject every outgoing transition", func(t *testing.T) {
		doc := createTestIssue(t)
		advance(t, doc, StatusCancelled)
		for _, target := range AllStatuses {
			if target == StatusCancelled {
				continue
			}
			require.Error(t, doc.TransitionTo(target, "alice", ""))
		}
		assert.Len(t, doc.StatusHistory, 2)
	})

	t.Run("publishes status changed event", func(t *testing.T) {
		doc := createTestIssue(t)
		doc.ClearDomainEvents()
		require.NoError(t, doc.TransitionTo(StatusPicking, "alice", "note"))

		events := doc.GetDomainEvents()
		require.Len(t, events, 1)
		event, ok := events[0].(*GoodsIssueStatusChangedEvent)
		require.True(t, ok)
		assert.Equal(t, StatusDraft, event.FromStatus)
		assert.Equal(t, StatusPicking, event.ToStatus)
		assert.Equal(t, "alice", event.ChangedBy)
	})
}

// ============================================
// Serial Reconciliation Tests
// ============================================

func TestGoodsIssue_AddSerial(t *testing.T) {
	t.Run("captures serials up to the planned quantity", func(t *testing.T) {
		doc := createTestIssue(t, testLine(TrackingSerial, 3))
		advance(t, doc, StatusPicking)
		lineID := doc.Lines[0].ID

		require.NoError(t, doc.AddSerial(lineID, "SN-1"))
		require.NoError(t, doc.AddSerial(lineID, "SN-2"))
		require.NoError(t, doc.AddSerial(lineID, "SN-3"))

		line := doc.GetLine(lineID)
		assert.True(t, line.PickedQty.Equal(decimal.NewFromInt(3)))
		assert.Len(t, line.Serials, 3)
		assert.True(t, line.IsFulfilled())
	})

	t.Run("rejects serial past the ceiling", func(t *testing.T) {
		doc := createTestIssue(t, testLine(TrackingSerial, 3))
		advance(t, doc, StatusPicking)
		lineID := doc.Lines[0].ID
		for _, sn := range []string{"SN-1", "SN-2", "SN-3"} {
			require.NoError(t, doc.AddSerial(lineID, sn))
		}

		err := doc.AddSerial(lineID, "SN-4")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "planned quantity")
		assert.Len(t, doc.GetLine(lineID).Serials, 3)
	})

	t.Run("rejects duplicate serial regardless of capacity", func(t *testing.T) {
		doc := createTestIssue(t, testLine(TrackingSerial, 3))
		advance(t, doc, StatusPicking)
		lineID := doc.Lines[0].ID
		require.NoError(t, doc.AddSerial(lineID, "SN-1"))

		err := doc.AddSerial(lineID, "SN-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already captured")
		assert.True(t, doc.GetLine(lineID).PickedQty.Equal(decimal.NewFromInt(1)))
	})

	t.Run("trims serials and rejects blanks", func(t *testing.T) {
		doc := createTestIssue(t, testLine(TrackingSerial, 3))
		advance(t, doc, StatusPicking)
		lineID := doc.Lines[0].ID

		require.NoError(t, doc.AddSerial(lineID, "  SN-1  "))
		assert.Equal(t, "SN-1", doc.GetLine(lineID).Serials[0])

		require.Error(t, doc.AddSerial(lineID, "   "))
		require.Error(t, doc.AddSerial(lineID, "SN-1"))
	})

	t.Run("allowed in adjustment-requested status", func(t *testing.T) {
		doc := createTestIssue(t, testLine(TrackingSerial, 3))
		advance(t, doc, StatusPicking, StatusAdjustmentRequested)
		require.NoError(t, doc.AddSerial(doc.Lines[0].ID, "SN-1"))
	})

	t.Run("rejected outside picking statuses", func(t *testing.T) {
		doc := createTestIssue(t, testLine(TrackingSerial, 3))
		err := doc.AddSerial(doc.Lines[0].ID, "SN-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DRAFT")
	})

	t.Run("rejects tracking mismatch", func(t *testing.T) {
		doc := createTestIssue(t, testLine(TrackingNone, 3))
		advance(t, doc, StatusPicking)
		err := doc.AddSerial(doc.Lines[0].ID, "SN-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tracked as NONE")
	})

	t.Run("fails for unknown line", func(t *testing.T) {
		doc := createTestIssue(t, testLine(TrackingSerial, 3))
		advance(t, doc, StatusPicking)
		err := doc.AddSerial(uuid.New(), "SN-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line not found")
	})
}

func TestGoodsIssue_RemoveSerial(t *testing.T) {
	t.Run("removes and recomputes picked quantity", func(t *testing.T) {
		doc := createTestIssue(t, testLine(TrackingSerial, 3))
		advance(t, doc, StatusPicking)
		lineID := doc.Lines[0].ID
		require.NoError(t, doc.AddSerial(lineID, "SN-1"))
		require.NoError(t, doc.AddSerial(lineID, "SN-2"))

		require.NoError(t, doc.RemoveSerial(lineID, "SN-1"))
		line := doc.GetLine(lineID)
		assert.True(t, line.PickedQty.Equal(decimal.NewFromInt(1)))
		assert.Equal(t, []string{"SN-2"}, line.Serials)
	})

	t.Run("absent serial is not an error", func(t *testing.T) {
		doc := createTestIssue(t, testLine(TrackingSerial, 3))
		advance(t, doc, StatusPicking)
		require.NoError(t, doc.RemoveSerial(doc.Lines[0].ID, "SN-404"))
	})

	t.Run("cleanup stays legal after submission", func(t *testing.T) {
		doc := createTestIssue(t, testLine(TrackingSerial, 3))
		advance(t, doc, StatusPicking)
		lineID := doc.Lines[0].ID
		require.NoError(t, doc.AddSerial(lineID, "SN-1"))
		advance(t, doc, StatusSubmitted)

		require.NoError(t, doc.RemoveSerial(lineID, "SN-1"))
		assert.True(t, doc.GetLine(lineID).PickedQty.IsZero())
	})

	t.Run("rejects tracking mismatch", func(t *testing.T) {
		doc := createTestIssue(t, testLine(TrackingLot, 3))
		require.Error(t, doc.RemoveSerial(doc.Lines[0].ID, "SN-1"))
	})
}

// ============================================
// Lot Reconciliation Tests
// ============================================

func TestGoodsIssue_UpsertLotAllocation(t *testing.T) {
	newLotDoc := func(t *testing.T, planned int64) (*GoodsIssue, uuid.UUID) {
		doc := createTestIssue(t, testLine(TrackingLot, planned))
		advance(t, doc, StatusPicking)
		return doc, doc.Lines[0].ID
	}

	t.Run("allocations accumulate within the plan", func(t *testing.T) {
		doc, lineID := newLotDoc(t, 50)

		require.NoError(t, doc.UpsertLotAllocation(lineID, "LOT-A", decimal.NewFromInt(30), nil))
		assert.True(t, doc.GetLine(lineID).PickedQty.Equal(decimal.NewFromInt(30)))

		err := doc.UpsertLotAllocation(lineID, "LOT-B", decimal.NewFromInt(25), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exceed planned quantity")
		// Failed upsert leaves existing allocations untouched
		line := doc.GetLine(lineID)
		require.Len(t, line.Allocations, 1)
		assert.True(t, line.PickedQty.Equal(decimal.NewFromInt(30)))

		require.NoError(t, doc.UpsertLotAllocation(lineID, "LOT-B", decimal.NewFromInt(20), nil))
		assert.True(t, doc.GetLine(lineID).PickedQty.Equal(decimal.NewFromInt(50)))
	})

	t.Run("overwrites an existing lot allocation", func(t *testing.T) {
		doc, lineID := newLotDoc(t, 50)
		require.NoError(t, doc.UpsertLotAllocation(lineID, "LOT-A", decimal.NewFromInt(30), nil))
		require.NoError(t, doc.UpsertLotAllocation(lineID, "LOT-A", decimal.NewFromInt(45), nil))

		line := doc.GetLine(lineID)
		require.Len(t, line.Allocations, 1)
		assert.True(t, line.PickedQty.Equal(decimal.NewFromInt(45)))
	})

	t.Run("respects lot available stock when supplied", func(t *testing.T) {
		doc, lineID := newLotDoc(t, 50)
		available := decimal.NewFromInt(10)

		err := doc.UpsertLotAllocation(lineID, "LOT-A", decimal.NewFromInt(11), &available)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "available stock")

		require.NoError(t, doc.UpsertLotAllocation(lineID, "LOT-A", decimal.NewFromInt(10), &available))
	})

	t.Run("rejects non-positive quantity and empty lot number", func(t *testing.T) {
		doc, lineID := newLotDoc(t, 50)
		require.Error(t, doc.UpsertLotAllocation(lineID, "LOT-A", decimal.Zero, nil))
		require.Error(t, doc.UpsertLotAllocation(lineID, "  ", decimal.NewFromInt(1), nil))
	})

	t.Run("rejected outside picking statuses", func(t *testing.T) {
		doc := createTestIssue(t, testLine(TrackingLot, 50))
		err := doc.UpsertLotAllocation(doc.Lines[0].ID, "LOT-A", decimal.NewFromInt(1), nil)
		require.Error(t, err)
	})

	t.Run("rejects tracking mismatch", func(t *testing.T) {
		doc := createTestIssue(t, testLine(TrackingSerial, 3))
		advance(t, doc, StatusPicking)
		err := doc.UpsertLotAllocation(doc.Lines[0].ID, "LOT-A", decimal.NewFromInt(1), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tracked as SERIAL")
	})
}

func TestGoodsIssue_RemoveLotAllocation(t *testing.T) {
	t.Run("removes and recomputes picked quantity", func(t *testing.T) {
		doc := createTestIssue(t, testLine(TrackingLot, 50))
		advance(t, doc, StatusPicking)
		lineID := doc.Lines[0].ID
		require.NoError(t, doc.UpsertLotAllocation(lineID, "LOT-A", decimal.NewFromInt(30), nil))
		require.NoError(t, doc.UpsertLotAllocation(lineID, "LOT-B", decimal.NewFromInt(20), nil))

		require.NoError(t, doc.RemoveLotAllocation(lineID, "LOT-A"))
		line := doc.GetLine(lineID)
		require.Len(t, line.Allocations, 1)
		assert.True(t, line.PickedQty.Equal(decimal.NewFromInt(20)))
	})

	t.Run("cleanup stays legal after submission", func(t *testing.T) {
		doc := createTestIssue(t, testLine(TrackingLot, 50))
		advance(t, doc, StatusPicking)
		lineID := doc.Lines[0].ID
		require.NoError(t, doc.UpsertLotAllocation(lineID, "LOT-A", decimal.NewFromInt(30), nil))
		advance(t, doc, StatusSubmitted)

		require.NoError(t, doc.RemoveLotAllocation(lineID, "LOT-A"))
		assert.True(t, doc.GetLine(lineID).PickedQty.IsZero())
	})

	t.Run("absent lot is not an error", func(t *testing.T) {
		doc := createTestIssue(t, testLine(TrackingLot, 50))
		require.NoError(t, doc.RemoveLotAllocation(doc.Lines[0].ID, "LOT-404"))
	})
}

// ============================================
// Quantity Reconciliation Tests
// ============================================

func TestGoodsIssue_SetLinePickedQuantity(t *testing.T) {
	newQtyDoc := func(t *testing.T) (*GoodsIssue, uuid.UUID) {
		doc := createTestIssue(t, testLine(TrackingNone, 10))
		advance(t, doc, StatusPicking)
		return doc, doc.Lines[0].ID
	}

	t.Run("sets the quantity directly", func(t *testing.T) {
		doc, lineID := newQtyDoc(t)
		require.NoError(t, doc.SetLinePickedQuantity(lineID, decimal.NewFromInt(7)))
		assert.True(t, doc.GetLine(lineID).PickedQty.Equal(decimal.NewFromInt(7)))

		// Zero is a legal explicit value
		require.NoError(t, doc.SetLinePickedQuantity(lineID, decimal.Zero))
		assert.True(t, doc.GetLine(lineID).PickedQty.IsZero())
	})

	t.Run("rejects quantity above the plan", func(t *testing.T) {
		doc, lineID := newQtyDoc(t)
		err := doc.SetLinePickedQuantity(lineID, decimal.NewFromInt(11))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exceeds planned quantity")
		assert.True(t, doc.GetLine(lineID).PickedQty.IsZero())
	})

	t.Run("rejects negative quantity", func(t *testing.T) {
		doc, lineID := newQtyDoc(t)
		require.Error(t, doc.SetLinePickedQuantity(lineID, decimal.NewFromInt(-1)))
	})

	t.Run("rejects tracking mismatch", func(t *testing.T) {
		doc := createTestIssue(t, testLine(TrackingSerial, 3))
		advance(t, doc, StatusPicking)
		require.Error(t, doc.SetLinePickedQuantity(doc.Lines[0].ID, decimal.NewFromInt(1)))
	})

	t.Run("rejected outside picking statuses", func(t *testing.T) {
		doc := createTestIssue(t, testLine(TrackingNone, 10))
		require.Error(t, doc.SetLinePickedQuantity(doc.Lines[0].ID, decimal.NewFromInt(1)))
	})
}

// ============================================
// Snapshot / Clone Tests
// ============================================

func TestGoodsIssue_Clone(t *testing.T) {
	doc := createTestIssue(t, testLine(TrackingSerial, 3), testLine(TrackingLot, 50))
	advance(t, doc, StatusPicking)
	require.NoError(t, doc.AddSerial(doc.Lines[0].ID, "SN-1"))
	require.NoError(t, doc.UpsertLotAllocation(doc.Lines[1].ID, "LOT-A", decimal.NewFromInt(10), nil))

	cp := doc.Clone()
	require.Equal(t, doc.IssueNumber, cp.IssueNumber)
	require.Equal(t, doc.Status, cp.Status)
	require.Len(t, cp.Lines, 2)
	assert.Empty(t, cp.GetDomainEvents())

	// Mutating the clone must not leak into the original
	require.NoError(t, cp.AddSerial(cp.Lines[0].ID, "SN-2"))
	require.NoError(t, cp.TransitionTo(StatusSubmitted, "tester", ""))
	cp.StatusHistory[0].ChangedBy = "intruder"

	assert.Len(t, doc.Lines[0].Serials, 1)
	assert.Equal(t, StatusPicking, doc.Status)
	assert.Len(t, doc.StatusHistory, 2)
	assert.Equal(t, "tester", doc.StatusHistory[0].ChangedBy)
}

// ============================================
// Full Lifecycle Scenario
// ============================================

func TestGoodsIssue_FullLifecycle(t *testing.T) {
	header := HeaderInput{
		IssueType:     "Transfer",
		FromWarehouse: "WH01",
		ExpectedDate:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	line := LineInput{
		SKU:          "A1",
		ProductName:  "Widget",
		UOM:          "PCS",
		PlannedQty:   decimal.NewFromInt(3),
		TrackingType: TrackingSerial,
	}

	doc, err := NewGoodsIssue("GI-2024-042", header, []LineInput{line}, "")
	require.NoError(t, err)
	assert.Regexp(t, `^GI-\d{4}-\d+$`, doc.IssueNumber)

	require.NoError(t, doc.TransitionTo(StatusPicking, "", ""))
	lineID := doc.Lines[0].ID
	for idx, sn := range []string{"SN-1", "SN-2", "SN-3"} {
		require.NoError(t, doc.AddSerial(lineID, sn))
		assert.True(t, doc.GetLine(lineID).PickedQty.Equal(decimal.NewFromInt(int64(idx+1))))
	}

	require.Error(t, doc.AddSerial(lineID, "SN-4"))
	assert.True(t, doc.IsFullyPicked())

	require.NoError(t, doc.TransitionTo(StatusSubmitted, "", ""))
	require.Error(t, doc.TransitionTo(StatusPicking, "", ""))

	require.NoError(t, doc.TransitionTo(StatusApproved, "", ""))
	require.NoError(t, doc.TransitionTo(StatusCompleted, "", ""))
	assert.True(t, doc.IsTerminal())
	assert.Len(t, doc.StatusHistory, 5)
}
