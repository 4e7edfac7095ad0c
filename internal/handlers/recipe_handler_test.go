package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/souschef-app/souschef-api/internal/config"
	"github.com/souschef-app/souschef-api/internal/models"
	"github.com/souschef-app/souschef-api/internal/service"
	"github.com/souschef-app/souschef-api/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setUser is a test middleware that injects a user into the gin context.
func setUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user != nil {
			c.Set("user", user)
		}
		c.Next()
	}
}

func newTestRecipeHandler(repo *testutil.MockRecipeRepo) *RecipeHandler {
	svc := service.NewRecipeService(&config.Config{}, repo, &testutil.RecordingEventSink{})
	return NewRecipeHandler(svc)
}

func TestGetRecipe_Valid(t *testing.T) {
	repo := testutil.NewMockRecipeRepo()
	repo.CreateRecipe(testutil.TestRecipe())
	handler := newTestRecipeHandler(repo)

	r := gin.New()
	r.GET("/recipes/:recipe_id", setUser(testutil.TestUser()), handler.GetRecipe)

	req := httptest.NewRequest("GET", "/recipes/1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d. body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var body map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &body)
	recipeData, ok := body["recipe"].(map[string]interface{})
	if !ok {
		t.Fatal("response should contain a 'recipe' object")
	}
	if recipeData["title"] != "Classic Pancakes" {
		t.Errorf("title = %v", recipeData["title"])
	}
	if recipeData["id"] != "1" {
		t.Errorf("id = %v, want string \"1\"", recipeData["id"])
	}
}

func TestGetRecipe_NotFound(t *testing.T) {
	repo := testutil.NewMockRecipeRepo()
	handler := newTestRecipeHandler(repo)

	r := gin.New()
	r.GET("/recipes/:recipe_id", setUser(testutil.TestUser()), handler.GetRecipe)

	req := httptest.NewRequest("GET", "/recipes/42", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestGetRecipe_NotOwner(t *testing.T) {
	repo := testutil.NewMockRecipeRepo()
	recipe := testutil.TestRecipe()
	recipe.OwnerID = 99
	repo.CreateRecipe(recipe)
	handler := newTestRecipeHandler(repo)

	r := gin.New()
	r.GET("/recipes/:recipe_id", setUser(testutil.TestUser()), handler.GetRecipe)

	req := httptest.NewRequest("GET", "/recipes/1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestGetRecipe_InvalidID(t *testing.T) {
	repo := testutil.NewMockRecipeRepo()
	handler := newTestRecipeHandler(repo)

	r := gin.New()
	r.GET("/recipes/:recipe_id", setUser(testutil.TestUser()), handler.GetRecipe)

	req := httptest.NewRequest("GET", "/recipes/abc", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestListRecipes_Pagination(t *testing.T) {
	repo := testutil.NewMockRecipeRepo()
	for i := 0; i < 3; i++ {
		repo.CreateRecipe(testutil.TestRecipe())
	}
	handler := newTestRecipeHandler(repo)

	r := gin.New()
	r.GET("/recipes", setUser(testutil.TestUser()), handler.ListRecipes)

	req := httptest.NewRequest("GET", "/recipes?page=1&page_size=2", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d. body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var body map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &body)
	recipes, ok := body["recipes"].([]interface{})
	if !ok {
		t.Fatal("response should contain a 'recipes' array")
	}
	if len(recipes) != 2 {
		t.Errorf("recipes length = %d, want 2", len(recipes))
	}
	if total, _ := body["total"].(float64); total != 3 {
		t.Errorf("total = %v, want 3", body["total"])
	}
}

func TestDeleteRecipe_Valid(t *testing.T) {
	repo := testutil.NewMockRecipeRepo()
	repo.CreateRecipe(testutil.TestRecipe())
	handler := newTestRecipeHandler(repo)

	r := gin.New()
	r.DELETE("/recipes/:recipe_id", setUser(testutil.TestUser()), handler.DeleteRecipe)

	req := httptest.NewRequest("DELETE", "/recipes/1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d. body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if len(repo.Recipes) != 0 {
		t.Error("recipe should be deleted")
	}
}

func TestDeleteRecipe_NotOwner(t *testing.T) {
	repo := testutil.NewMockRecipeRepo()
	recipe := testutil.TestRecipe()
	recipe.OwnerID = 99
	repo.CreateRecipe(recipe)
	handler := newTestRecipeHandler(repo)

	r := gin.New()
	r.DELETE("/recipes/:recipe_id", setUser(testutil.TestUser()), handler.DeleteRecipe)

	req := httptest.NewRequest("DELETE", "/recipes/1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
	if len(repo.Recipes) != 1 {
		t.Error("recipe should survive a rejected delete")
	}
}
