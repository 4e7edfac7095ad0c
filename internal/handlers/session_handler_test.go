package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/souschef-app/souschef-api/internal/models"
	"github.com/souschef-app/souschef-api/internal/service"
	"github.com/souschef-app/souschef-api/internal/testutil"
)

func newTestSessionHandler(sessions *testutil.MockSessionRepo, recipes *testutil.MockRecipeRepo) *SessionHandler {
	return NewSessionHandler(service.NewSessionService(sessions, recipes))
}

func TestGetOrCreateSession_Handler_Success(t *testing.T) {
	sessions := testutil.NewMockSessionRepo()
	recipes := testutil.NewMockRecipeRepo()
	recipes.CreateRecipe(testutil.TestRecipe())
	handler := newTestSessionHandler(sessions, recipes)

	r := gin.New()
	r.POST("/sessions/:recipe_id", setUser(testutil.TestUser()), handler.GetOrCreateSession)

	req := httptest.NewRequest("POST", "/sessions/1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d. body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	session, ok := resp["session"].(map[string]interface{})
	if !ok {
		t.Fatal("response should contain a 'session' object")
	}
	if session["currentStep"] != float64(0) {
		t.Errorf("currentStep = %v, want 0", session["currentStep"])
	}
	if session["isActive"] != true {
		t.Error("new session should be active")
	}
}

func TestGetOrCreateSession_Handler_ProcessingRecipe(t *testing.T) {
	sessions := testutil.NewMockSessionRepo()
	recipes := testutil.NewMockRecipeRepo()
	recipe := testutil.TestRecipe()
	recipe.Status = models.RecipeStatusProcessing
	recipes.CreateRecipe(recipe)
	handler := newTestSessionHandler(sessions, recipes)

	r := gin.New()
	r.POST("/sessions/:recipe_id", setUser(testutil.TestUser()), handler.GetOrCreateSession)

	req := httptest.NewRequest("POST", "/sessions/1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestResumeSession_Handler_Empty(t *testing.T) {
	sessions := testutil.NewMockSessionRepo()
	recipes := testutil.NewMockRecipeRepo()
	handler := newTestSessionHandler(sessions, recipes)

	r := gin.New()
	r.GET("/sessions/resume", setUser(testutil.TestUser()), handler.ResumeSession)

	req := httptest.NewRequest("GET", "/sessions/resume", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["session"] != nil {
		t.Errorf("session = %v, want null when nothing to resume", resp["session"])
	}
}

func TestUpdateStep_Handler_Negative(t *testing.T) {
	sessions := testutil.NewMockSessionRepo()
	recipes := testutil.NewMockRecipeRepo()
	handler := newTestSessionHandler(sessions, recipes)

	r := gin.New()
	r.PUT("/sessions/:recipe_id/step", setUser(testutil.TestUser()), handler.UpdateStep)

	req := httptest.NewRequest("PUT", "/sessions/1/step", strings.NewReader(`{"step": -1}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestFinishSession_Handler_FlushesHistory(t *testing.T) {
	sessions := testutil.NewMockSessionRepo()
	recipes := testutil.NewMockRecipeRepo()
	sessions.UpsertSession(testutil.TestSession())
	handler := newTestSessionHandler(sessions, recipes)

	r := gin.New()
	r.POST("/sessions/:recipe_id/finish", setUser(testutil.TestUser()), handler.FinishSession)

	body := `{"history": [{"role": "user", "text": "done!"}]}`
	req := httptest.NewRequest("POST", "/sessions/1/finish", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d. body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	stored, err := sessions.GetSession(1, 1)
	if err != nil {
		t.Fatalf("GetSession error: %v", err)
	}
	if stored.IsActive {
		t.Error("finished session should be inactive")
	}
	if len(stored.ChatHistory) != 1 {
		t.Errorf("ChatHistory length = %d, want 1 (flushed before finish)", len(stored.ChatHistory))
	}
}

func TestCookAgain_Handler_Resets(t *testing.T) {
	sessions := testutil.NewMockSessionRepo()
	recipes := testutil.NewMockRecipeRepo()
	recipes.CreateRecipe(testutil.TestRecipe())
	old := testutil.TestSession()
	old.CurrentStep = 2
	old.IsActive = false
	sessions.UpsertSession(old)
	handler := newTestSessionHandler(sessions, recipes)

	r := gin.New()
	r.POST("/sessions/:recipe_id/cook-again", setUser(testutil.TestUser()), handler.CookAgain)

	req := httptest.NewRequest("POST", "/sessions/1/cook-again", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d. body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	session, ok := resp["session"].(map[string]interface{})
	if !ok {
		t.Fatal("response should contain a 'session' object")
	}
	if session["currentStep"] != float64(0) {
		t.Errorf("currentStep = %v, want 0 after cook-again", session["currentStep"])
	}
	if session["isActive"] != true {
		t.Error("restarted session should be active")
	}
}
