package repos

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/loomery/catalog-backend/internal/apperr"
	"github.com/loomery/catalog-backend/internal/logger"
	"github.com/loomery/catalog-backend/internal/types"
)

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func setupClosureRepo(t *testing.T) ClosureRepo {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&types.CategoryClosure{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewClosureRepo(db, testLogger(), types.CategoryClosure{}.TableName())
}

func descendantDepths(t *testing.T, repo ClosureRepo, id uuid.UUID) map[uuid.UUID]int {
	t.Helper()
	found, err := repo.FindDescendants(context.Background(), nil, id)
	if err != nil {
		t.Fatalf("FindDescendants(%s): %v", id, err)
	}
	out := map[uuid.UUID]int{}
	for _, d := range found {
		out[d.ID] = d.Depth
	}
	return out
}

func mustContain(t *testing.T, repo ClosureRepo, ancestor, descendant uuid.UUID, want bool) {
	t.Helper()
	got, err := repo.ContainsDescendant(context.Background(), nil, ancestor, descendant)
	if err != nil {
		t.Fatalf("ContainsDescendant: %v", err)
	}
	if got != want {
		t.Fatalf("ContainsDescendant(%s, %s)=%v, want %v", ancestor, descendant, got, want)
	}
}

func TestInsertRootAndLeaves(t *testing.T) {
	repo := setupClosureRepo(t)
	ctx := context.Background()

	root := uuid.New()
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()

	if err := repo.InsertRootNode(ctx, nil, root); err != nil {
		t.Fatalf("InsertRootNode: %v", err)
	}
	if err := repo.InsertLeafNode(ctx, nil, a, root); err != nil {
		t.Fatalf("InsertLeafNode(a): %v", err)
	}
	if err := repo.InsertLeafNode(ctx, nil, b, root); err != nil {
		t.Fatalf("InsertLeafNode(b): %v", err)
	}
	if err := repo.InsertLeafNode(ctx, nil, c, a); err != nil {
		t.Fatalf("InsertLeafNode(c): %v", err)
	}

	// Every node has its self-edge.
	for _, id := range []uuid.UUID{root, a, b, c} {
		mustContain(t, repo, id, id, true)
	}

	depths := descendantDepths(t, repo, root)
	want := map[uuid.UUID]int{a: 1, b: 1, c: 2}
	if len(depths) != len(want) {
		t.Fatalf("root descendants = %v, want %v", depths, want)
	}
	for id, depth := range want {
		if depths[id] != depth {
			t.Fatalf("depth(root, %s) = %d, want %d", id, depths[id], depth)
		}
	}

	mustContain(t, repo, root, c, true)
	mustContain(t, repo, a, c, true)
	mustContain(t, repo, b, c, false)
	mustContain(t, repo, c, root, false)
}

func TestInsertRootNodeDuplicate(t *testing.T) {
	repo := setupClosureRepo(t)
	ctx := context.Background()

	id := uuid.New()
	if err := repo.InsertRootNode(ctx, nil, id); err != nil {
		t.Fatalf("InsertRootNode: %v", err)
	}
	err := repo.InsertRootNode(ctx, nil, id)
	if !apperr.IsDuplicateNode(err) {
		t.Fatalf("expected DuplicateNodeError, got %v", err)
	}
}

func TestInsertLeafNodeParentMissing(t *testing.T) {
	repo := setupClosureRepo(t)
	ctx := context.Background()

	err := repo.InsertLeafNode(ctx, nil, uuid.New(), uuid.New())
	if !apperr.IsParentNotFound(err) {
		t.Fatalf("expected ParentNotFoundError, got %v", err)
	}
	// Nothing may have been inserted, not even the self-edge.
	found, err2 := repo.FindDescendants(ctx, nil, uuid.New())
	if err2 != nil || len(found) != 0 {
		t.Fatalf("unexpected rows after failed insert: %v %v", found, err2)
	}
}

func TestMoveSubtree(t *testing.T) {
	repo := setupClosureRepo(t)
	ctx := context.Background()

	root := uuid.New()
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()

	for _, step := range []struct {
		id     uuid.UUID
		parent *uuid.UUID
	}{
		{id: root},
		{id: a, parent: &root},
		{id: b, parent: &root},
		{id: c, parent: &a},
	} {
		var err error
		if step.parent == nil {
			err = repo.InsertRootNode(ctx, nil, step.id)
		} else {
			err = repo.InsertLeafNode(ctx, nil, step.id, *step.parent)
		}
		if err != nil {
			t.Fatalf("build tree: %v", err)
		}
	}

	if err := repo.MoveSubtree(ctx, nil, a, b); err != nil {
		t.Fatalf("MoveSubtree: %v", err)
	}

	bDepths := descendantDepths(t, repo, b)
	if bDepths[a] != 1 {
		t.Fatalf("depth(b, a) = %d, want 1", bDepths[a])
	}
	if bDepths[c] != 2 {
		t.Fatalf("depth(b, c) = %d, want 2", bDepths[c])
	}

	rootDepths := descendantDepths(t, repo, root)
	if rootDepths[a] != 2 {
		t.Fatalf("depth(root, a) = %d, want 2", rootDepths[a])
	}
	if rootDepths[c] != 3 {
		t.Fatalf("depth(root, c) = %d, want 3", rootDepths[c])
	}

	// Subtree membership under the moved node is unchanged.
	aDepths := descendantDepths(t, repo, a)
	if len(aDepths) != 1 || aDepths[c] != 1 {
		t.Fatalf("subtree of a changed after move: %v", aDepths)
	}
}

func TestMoveSubtreeRefusesCycle(t *testing.T) {
	repo := setupClosureRepo(t)
	ctx := context.Background()

	root := uuid.New()
	child := uuid.New()
	if err := repo.InsertRootNode(ctx, nil, root); err != nil {
		t.Fatalf("InsertRootNode: %v", err)
	}
	if err := repo.InsertLeafNode(ctx, nil, child, root); err != nil {
		t.Fatalf("InsertLeafNode: %v", err)
	}

	err := repo.MoveSubtree(ctx, nil, root, child)
	if !apperr.IsWouldCreateCycle(err) {
		t.Fatalf("expected WouldCreateCycleError, got %v", err)
	}
	err = repo.MoveSubtree(ctx, nil, root, root)
	if !apperr.IsWouldCreateCycle(err) {
		t.Fatalf("expected WouldCreateCycleError for self-move, got %v", err)
	}

	// Tree unchanged after the refused move.
	depths := descendantDepths(t, repo, root)
	if len(depths) != 1 || depths[child] != 1 {
		t.Fatalf("tree corrupted by refused move: %v", depths)
	}
}

func TestRemoveSubtree(t *testing.T) {
	repo := setupClosureRepo(t)
	ctx := context.Background()

	root := uuid.New()
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()
	if err := repo.InsertRootNode(ctx, nil, root); err != nil {
		t.Fatalf("root: %v", err)
	}
	for id, parent := range map[uuid.UUID]uuid.UUID{a: root, b: root} {
		if err := repo.InsertLeafNode(ctx, nil, id, parent); err != nil {
			t.Fatalf("leaf: %v", err)
		}
	}
	if err := repo.InsertLeafNode(ctx, nil, c, a); err != nil {
		t.Fatalf("leaf c: %v", err)
	}

	if err := repo.RemoveSubtree(ctx, nil, a); err != nil {
		t.Fatalf("RemoveSubtree: %v", err)
	}

	depths := descendantDepths(t, repo, root)
	if _, ok := depths[a]; ok {
		t.Fatal("a still reachable from root")
	}
	if _, ok := depths[c]; ok {
		t.Fatal("c still reachable from root")
	}
	if _, ok := depths[b]; !ok {
		t.Fatal("b lost by unrelated removal")
	}
	mustContain(t, repo, a, a, false)
	mustContain(t, repo, c, c, false)
}

func TestRemoveDescendantsKeepsSelf(t *testing.T) {
	repo := setupClosureRepo(t)
	ctx := context.Background()

	root := uuid.New()
	a := uuid.New()
	b := uuid.New()
	if err := repo.InsertRootNode(ctx, nil, root); err != nil {
		t.Fatalf("root: %v", err)
	}
	if err := repo.InsertLeafNode(ctx, nil, a, root); err != nil {
		t.Fatalf("leaf a: %v", err)
	}
	if err := repo.InsertLeafNode(ctx, nil, b, a); err != nil {
		t.Fatalf("leaf b: %v", err)
	}

	if err := repo.RemoveDescendants(ctx, nil, a); err != nil {
		t.Fatalf("RemoveDescendants: %v", err)
	}

	mustContain(t, repo, a, a, true)
	mustContain(t, repo, root, a, true)
	mustContain(t, repo, a, b, false)
	mustContain(t, repo, b, b, false)
}

func TestForEachDescendantRestartable(t *testing.T) {
	repo := setupClosureRepo(t)
	ctx := context.Background()

	root := uuid.New()
	if err := repo.InsertRootNode(ctx, nil, root); err != nil {
		t.Fatalf("root: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := repo.InsertLeafNode(ctx, nil, uuid.New(), root); err != nil {
			t.Fatalf("leaf: %v", err)
		}
	}

	for pass := 0; pass < 2; pass++ {
		var count int
		err := repo.ForEachDescendant(ctx, nil, root, func(d TreeDescendant) error {
			count++
			return nil
		})
		if err != nil {
			t.Fatalf("ForEachDescendant pass %d: %v", pass, err)
		}
		if count != 3 {
			t.Fatalf("pass %d visited %d descendants, want 3", pass, count)
		}
	}
}
