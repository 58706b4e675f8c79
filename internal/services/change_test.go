package services

import (
	"encoding/json"
	"testing"

	"github.com/loomery/catalog-backend/internal/apperr"
	"github.com/loomery/catalog-backend/internal/types"
)

func TestAddOrMergeEditFoldsIntoOneRecord(t *testing.T) {
	env := newTestEnv(t)
	change := env.newChange(t, "rename cotton")
	processID := env.createProcess(t, "Weave")

	first, err := env.change.AddOrMergeEdit(env.ctx, AddEditInput{
		ChangeID:   change.ID,
		EntityName: EntityProcess,
		EntityID:   &processID,
		Fields:     map[string]interface{}{"name": "Weave v2"},
	})
	if err != nil {
		t.Fatalf("first edit: %v", err)
	}
	second, err := env.change.AddOrMergeEdit(env.ctx, AddEditInput{
		ChangeID:   change.ID,
		EntityName: EntityProcess,
		EntityID:   &processID,
		Fields:     map[string]interface{}{"description": "updated"},
	})
	if err != nil {
		t.Fatalf("second edit: %v", err)
	}
	if first.EditID != second.EditID {
		t.Fatalf("expected one edit record, got ids %d and %d", first.EditID, second.EditID)
	}

	loaded, err := env.change.Get(env.ctx, change.ID)
	if err != nil {
		t.Fatalf("get change: %v", err)
	}
	if len(loaded.Edits) != 1 {
		t.Fatalf("expected 1 edit, got %d", len(loaded.Edits))
	}
	var changes map[string]interface{}
	if err := json.Unmarshal(loaded.Edits[0].Changes, &changes); err != nil {
		t.Fatalf("decode changes: %v", err)
	}
	if changes["name"] != "Weave v2" || changes["description"] != "updated" {
		t.Fatalf("merged changes = %v", changes)
	}

	// Original captured once, from the state before any edit.
	var original map[string]interface{}
	if err := json.Unmarshal(loaded.Edits[0].Original, &original); err != nil {
		t.Fatalf("decode original: %v", err)
	}
	if original["name"] != "Weave" {
		t.Fatalf("original name = %v, want Weave", original["name"])
	}
}

func TestAddEditLastWriteWinsPerField(t *testing.T) {
	env := newTestEnv(t)
	change := env.newChange(t, "rename twice")
	processID := env.createProcess(t, "Dye")

	for _, name := range []string{"Dye v2", "Dye v3"} {
		if _, err := env.change.AddOrMergeEdit(env.ctx, AddEditInput{
			ChangeID:   change.ID,
			EntityName: EntityProcess,
			EntityID:   &processID,
			Fields:     map[string]interface{}{"name": name},
		}); err != nil {
			t.Fatalf("edit %q: %v", name, err)
		}
	}

	loaded, _ := env.change.Get(env.ctx, change.ID)
	var changes map[string]interface{}
	if err := json.Unmarshal(loaded.Edits[0].Changes, &changes); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if changes["name"] != "Dye v3" {
		t.Fatalf("name = %v, want Dye v3", changes["name"])
	}
}

func TestAddEditRejectedWhenNotEditable(t *testing.T) {
	env := newTestEnv(t)
	change := env.newChange(t, "frozen")
	env.approve(t, change.ID)

	_, err := env.change.AddOrMergeEdit(env.ctx, AddEditInput{
		ChangeID:   change.ID,
		EntityName: EntityProcess,
		Fields:     map[string]interface{}{"name": "nope"},
	})
	if !apperr.IsChangeNotEditable(err) {
		t.Fatalf("expected ChangeNotEditableError, got %v", err)
	}
}

func TestAddEditUnknownEntity(t *testing.T) {
	env := newTestEnv(t)
	change := env.newChange(t, "bad entity")

	_, err := env.change.AddOrMergeEdit(env.ctx, AddEditInput{
		ChangeID:   change.ID,
		EntityName: "widget",
		Fields:     map[string]interface{}{"name": "x"},
	})
	if !apperr.IsUnknownEntity(err) {
		t.Fatalf("expected UnknownEntityError, got %v", err)
	}
}

func TestTransitionStateMachine(t *testing.T) {
	cases := []struct {
		name    string
		path    []types.ChangeStatus
		target  types.ChangeStatus
		allowed bool
	}{
		{name: "draft_to_proposed", path: nil, target: types.ChangeStatusProposed, allowed: true},
		{name: "draft_to_approved", path: nil, target: types.ChangeStatusApproved, allowed: false},
		{name: "draft_to_merged", path: nil, target: types.ChangeStatusMerged, allowed: false},
		{name: "proposed_to_approved", path: []types.ChangeStatus{types.ChangeStatusProposed}, target: types.ChangeStatusApproved, allowed: true},
		{name: "proposed_to_rejected", path: []types.ChangeStatus{types.ChangeStatusProposed}, target: types.ChangeStatusRejected, allowed: true},
		{name: "proposed_to_draft", path: []types.ChangeStatus{types.ChangeStatusProposed}, target: types.ChangeStatusDraft, allowed: false},
		{name: "approved_to_merged_direct", path: []types.ChangeStatus{types.ChangeStatusProposed, types.ChangeStatusApproved}, target: types.ChangeStatusMerged, allowed: false},
		{name: "rejected_is_terminal", path: []types.ChangeStatus{types.ChangeStatusProposed, types.ChangeStatusRejected}, target: types.ChangeStatusProposed, allowed: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			change := env.newChange(t, tc.name)
			for _, status := range tc.path {
				if _, err := env.change.Transition(env.ctx, change.ID, status); err != nil {
					t.Fatalf("setup transition to %s: %v", status, err)
				}
			}
			_, err := env.change.Transition(env.ctx, change.ID, tc.target)
			if tc.allowed && err != nil {
				t.Fatalf("expected transition to %s, got %v", tc.target, err)
			}
			if !tc.allowed && !apperr.IsInvalidTransition(err) {
				t.Fatalf("expected InvalidTransitionError, got %v", err)
			}
		})
	}
}

func TestUpdateStatusRefusesStaleTransition(t *testing.T) {
	env := newTestEnv(t)
	change := env.newChange(t, "raced")

	// A writer that read PROPOSED while the row is still DRAFT loses the swap,
	// it does not overwrite whatever got there first.
	err := env.changeRepo.UpdateStatus(env.ctx, nil, change.ID, types.ChangeStatusProposed, types.ChangeStatusApproved)
	if !apperr.IsInvalidTransition(err) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}

	loaded, err := env.change.Get(env.ctx, change.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Status != types.ChangeStatusDraft {
		t.Fatalf("status = %s, want DRAFT", loaded.Status)
	}
}

func TestDiscardEdit(t *testing.T) {
	env := newTestEnv(t)
	change := env.newChange(t, "discard")

	edit, err := env.change.AddOrMergeEdit(env.ctx, AddEditInput{
		ChangeID:   change.ID,
		EntityName: EntityProcess,
		Fields:     map[string]interface{}{"name": "temp"},
	})
	if err != nil {
		t.Fatalf("add edit: %v", err)
	}
	if err := env.change.DiscardEdit(env.ctx, change.ID, edit.EditID); err != nil {
		t.Fatalf("discard: %v", err)
	}
	err = env.change.DiscardEdit(env.ctx, change.ID, edit.EditID)
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected NotFoundError on double discard, got %v", err)
	}
}

func TestDeleteMergedChangeRefused(t *testing.T) {
	env := newTestEnv(t)
	change := env.newChange(t, "merged stays")
	env.approve(t, change.ID)
	if _, err := env.merge.Merge(env.ctx, change.ID); err != nil {
		t.Fatalf("merge: %v", err)
	}

	err := env.change.Delete(env.ctx, change.ID)
	if !apperr.IsChangeNotEditable(err) {
		t.Fatalf("expected ChangeNotEditableError, got %v", err)
	}
}

func TestDeleteChangeRemovesEdits(t *testing.T) {
	env := newTestEnv(t)
	change := env.newChange(t, "delete with edits")
	if _, err := env.change.AddOrMergeEdit(env.ctx, AddEditInput{
		ChangeID:   change.ID,
		EntityName: EntityProcess,
		Fields:     map[string]interface{}{"name": "temp"},
	}); err != nil {
		t.Fatalf("add edit: %v", err)
	}

	if err := env.change.Delete(env.ctx, change.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err := env.change.Get(env.ctx, change.ID)
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	var count int64
	env.db.Model(&types.ChangeEdit{}).Where("change_id = ?", change.ID).Count(&count)
	if count != 0 {
		t.Fatalf("edits left behind: %d", count)
	}
}
