package services

import (
	"testing"

	"github.com/google/uuid"

	"github.com/loomery/catalog-backend/internal/apperr"
	"github.com/loomery/catalog-backend/internal/types"
)

func (env *testEnv) createCategory(t *testing.T, name string, parentID *uuid.UUID) uuid.UUID {
	t.Helper()
	fields := map[string]interface{}{"name": name}
	if parentID != nil {
		fields["parentId"] = parentID.String()
	}
	result, err := env.entity.Create(env.ctx, EntityCategory, fields, nil)
	if err != nil {
		t.Fatalf("create category %q: %v", name, err)
	}
	return *result.EntityID
}

func TestTaxonomyMoveKeepsHintInStep(t *testing.T) {
	env := newTestEnv(t)
	root := env.createCategory(t, "Apparel", nil)
	a := env.createCategory(t, "Knitwear", &root)
	b := env.createCategory(t, "Outerwear", &root)

	if err := env.taxonomy.Move(env.ctx, EntityCategory, a, b); err != nil {
		t.Fatalf("move: %v", err)
	}

	descendants, err := env.taxonomy.Descendants(env.ctx, EntityCategory, b)
	if err != nil {
		t.Fatalf("descendants: %v", err)
	}
	if len(descendants) != 1 || descendants[0].ID != a || descendants[0].Depth != 1 {
		t.Fatalf("descendants of b = %v", descendants)
	}

	var moved types.Category
	if err := env.db.Where("id = ?", a).First(&moved).Error; err != nil {
		t.Fatalf("load moved: %v", err)
	}
	if moved.ParentID == nil || *moved.ParentID != b {
		t.Fatalf("parent hint = %v, want %s", moved.ParentID, b)
	}
}

func TestTaxonomyRemoveSubtreeSoftDeletesRows(t *testing.T) {
	env := newTestEnv(t)
	root := env.createCategory(t, "Apparel", nil)
	child := env.createCategory(t, "Knitwear", &root)
	grandchild := env.createCategory(t, "Sweaters", &child)

	if err := env.taxonomy.RemoveSubtree(env.ctx, EntityCategory, child); err != nil {
		t.Fatalf("remove subtree: %v", err)
	}

	descendants, err := env.taxonomy.Descendants(env.ctx, EntityCategory, root)
	if err != nil {
		t.Fatalf("descendants: %v", err)
	}
	if len(descendants) != 0 {
		t.Fatalf("root still has descendants: %v", descendants)
	}

	// Rows are soft-deleted, invisible to the provider.
	provider, _ := env.registry.Provider(EntityCategory)
	for _, id := range []uuid.UUID{child, grandchild} {
		snapshot, err := provider.Load(env.ctx, nil, id)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if snapshot != nil {
			t.Fatalf("category %s still visible after subtree removal", id)
		}
	}
	// The root itself survives.
	snapshot, err := provider.Load(env.ctx, nil, root)
	if err != nil || snapshot == nil {
		t.Fatalf("root lost: %v %v", snapshot, err)
	}
}

func TestTaxonomyRemoveDescendantsKeepsNode(t *testing.T) {
	env := newTestEnv(t)
	root := env.createCategory(t, "Apparel", nil)
	child := env.createCategory(t, "Knitwear", &root)
	env.createCategory(t, "Sweaters", &child)

	if err := env.taxonomy.RemoveDescendants(env.ctx, EntityCategory, child); err != nil {
		t.Fatalf("remove descendants: %v", err)
	}

	contains, err := env.taxonomy.Contains(env.ctx, EntityCategory, root, child)
	if err != nil {
		t.Fatalf("contains: %v", err)
	}
	if !contains {
		t.Fatal("node detached from its own tree")
	}
	descendants, _ := env.taxonomy.Descendants(env.ctx, EntityCategory, child)
	if len(descendants) != 0 {
		t.Fatalf("descendants survived: %v", descendants)
	}
}

func TestUpdateRefusesClearingParent(t *testing.T) {
	env := newTestEnv(t)
	root := env.createCategory(t, "Apparel", nil)
	child := env.createCategory(t, "Knitwear", &root)

	_, err := env.entity.Update(env.ctx, EntityCategory, child, map[string]interface{}{"parentId": nil}, nil)
	if !apperr.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	// Hint and closure table still agree.
	contains, err := env.taxonomy.Contains(env.ctx, EntityCategory, root, child)
	if err != nil {
		t.Fatalf("contains: %v", err)
	}
	if !contains {
		t.Fatal("closure edge lost by refused update")
	}
	var row types.Category
	if err := env.db.Where("id = ?", child).First(&row).Error; err != nil {
		t.Fatalf("load child: %v", err)
	}
	if row.ParentID == nil || *row.ParentID != root {
		t.Fatalf("parent hint = %v, want %s", row.ParentID, root)
	}

	// Capturing the same update into a change is refused too.
	change := env.newChange(t, "detach")
	_, err = env.entity.Update(env.ctx, EntityCategory, child, map[string]interface{}{"parentId": nil}, &change.ID)
	if !apperr.IsValidation(err) {
		t.Fatalf("expected ValidationError on capture, got %v", err)
	}
}

func TestTaxonomyRejectsFlatEntities(t *testing.T) {
	env := newTestEnv(t)
	err := env.taxonomy.Move(env.ctx, EntityProcess, uuid.New(), uuid.New())
	if !apperr.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestEntityCreateDuplicateTreeNode(t *testing.T) {
	env := newTestEnv(t)
	root := env.createCategory(t, "Apparel", nil)

	// Moving under a missing destination surfaces the structural error.
	err := env.taxonomy.Move(env.ctx, EntityCategory, root, uuid.New())
	if !apperr.IsParentNotFound(err) {
		t.Fatalf("expected ParentNotFoundError, got %v", err)
	}
}
