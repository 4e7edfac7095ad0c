package service

import (
	"errors"
	"testing"

	"github.com/souschef-app/souschef-api/internal/config"
	"github.com/souschef-app/souschef-api/internal/models"
	"github.com/souschef-app/souschef-api/internal/repository"
	"github.com/souschef-app/souschef-api/internal/testutil"
)

func newTestRecipeService(repo *testutil.MockRecipeRepo, events *testutil.RecordingEventSink) *RecipeService {
	return NewRecipeService(&config.Config{}, repo, events)
}

func TestGetUserRecipes_NewestFirst(t *testing.T) {
	repo := testutil.NewMockRecipeRepo()
	first := testutil.TestRecipe()
	first.Title = "Older"
	repo.CreateRecipe(first)
	second := testutil.TestRecipe()
	second.ID = 2
	second.Title = "Newer"
	repo.CreateRecipe(second)
	svc := newTestRecipeService(repo, &testutil.RecordingEventSink{})

	items, total, err := svc.GetUserRecipes(1, 1, 20)
	if err != nil {
		t.Fatalf("GetUserRecipes error: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	if len(items) != 2 {
		t.Fatalf("items length = %d, want 2", len(items))
	}
	if items[0].Title != "Newer" {
		t.Errorf("first item = %q, want the newest recipe", items[0].Title)
	}
}

func TestGetUserRecipes_ExcludesOtherOwners(t *testing.T) {
	repo := testutil.NewMockRecipeRepo()
	mine := testutil.TestRecipe()
	repo.CreateRecipe(mine)
	theirs := testutil.TestRecipe()
	theirs.ID = 2
	theirs.OwnerID = 99
	repo.CreateRecipe(theirs)
	svc := newTestRecipeService(repo, &testutil.RecordingEventSink{})

	items, total, err := svc.GetUserRecipes(1, 1, 20)
	if err != nil {
		t.Fatalf("GetUserRecipes error: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Errorf("got %d items (total %d), want 1", len(items), total)
	}
}

func TestGetRecipeByID_Success(t *testing.T) {
	repo := testutil.NewMockRecipeRepo()
	repo.CreateRecipe(testutil.TestRecipe())
	svc := newTestRecipeService(repo, &testutil.RecordingEventSink{})

	resp, err := svc.GetRecipeByID(1, 1)
	if err != nil {
		t.Fatalf("GetRecipeByID error: %v", err)
	}
	if resp.ID != "1" {
		t.Errorf("ID = %q, want \"1\"", resp.ID)
	}
	if resp.Title != "Classic Pancakes" {
		t.Errorf("Title = %q", resp.Title)
	}
	if resp.Status != string(models.RecipeStatusReady) {
		t.Errorf("Status = %q, want ready", resp.Status)
	}
}

func TestGetRecipeByID_NotOwner(t *testing.T) {
	repo := testutil.NewMockRecipeRepo()
	repo.CreateRecipe(testutil.TestRecipe())
	svc := newTestRecipeService(repo, &testutil.RecordingEventSink{})

	if _, err := svc.GetRecipeByID(99, 1); !errors.Is(err, ErrNotRecipeOwner) {
		t.Fatalf("err = %v, want ErrNotRecipeOwner", err)
	}
}

func TestGetRecipeByID_NotFound(t *testing.T) {
	repo := testutil.NewMockRecipeRepo()
	svc := newTestRecipeService(repo, &testutil.RecordingEventSink{})

	_, err := svc.GetRecipeByID(1, 42)
	var notFound repository.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}

func TestDeleteRecipe_PublishesEvent(t *testing.T) {
	repo := testutil.NewMockRecipeRepo()
	repo.CreateRecipe(testutil.TestRecipe())
	events := &testutil.RecordingEventSink{}
	svc := newTestRecipeService(repo, events)

	if err := svc.DeleteRecipe(1, 1); err != nil {
		t.Fatalf("DeleteRecipe error: %v", err)
	}
	if len(repo.Recipes) != 0 {
		t.Error("recipe should be removed")
	}
	if ids := events.DeletedIDs(); len(ids) != 1 || ids[0] != 1 {
		t.Errorf("deleted events = %v, want [1]", ids)
	}
}

func TestDeleteRecipe_NotOwner(t *testing.T) {
	repo := testutil.NewMockRecipeRepo()
	repo.CreateRecipe(testutil.TestRecipe())
	events := &testutil.RecordingEventSink{}
	svc := newTestRecipeService(repo, events)

	if err := svc.DeleteRecipe(99, 1); !errors.Is(err, ErrNotRecipeOwner) {
		t.Fatalf("err = %v, want ErrNotRecipeOwner", err)
	}
	if len(repo.Recipes) != 1 {
		t.Error("recipe should survive a rejected delete")
	}
	if len(events.DeletedIDs()) != 0 {
		t.Error("no event should fire on a rejected delete")
	}
}
