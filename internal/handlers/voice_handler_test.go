package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/souschef-app/souschef-api/internal/ai"
	"github.com/souschef-app/souschef-api/internal/service"
	"github.com/souschef-app/souschef-api/internal/testutil"
)

func voiceMultipartBody(t *testing.T, audio []byte, currentStep string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "clip.m4a")
	if err != nil {
		t.Fatalf("CreateFormFile error: %v", err)
	}
	part.Write(audio)
	if currentStep != "" {
		writer.WriteField("current_step", currentStep)
	}
	writer.WriteField("recipe_context", "Step 1: mix. Step 2: bake.")
	writer.Close()

	return body, writer.FormDataContentType()
}

func TestProcessVoice_Handler_Success(t *testing.T) {
	voice := &testutil.MockVoiceProvider{
		InterpretVoiceFunc: func(ctx context.Context, req ai.VoiceRequest) (*ai.VoiceTurn, error) {
			if req.CurrentStep != 2 {
				t.Errorf("CurrentStep = %d, want 2", req.CurrentStep)
			}
			return &ai.VoiceTurn{Action: ai.ActionNextStep, Answer: "Moving on."}, nil
		},
	}
	speech := &testutil.MockSpeechProvider{
		TranscribeAudioFunc: func(ctx context.Context, audioData []byte) (string, error) {
			return "next step", nil
		},
	}
	handler := NewVoiceHandler(service.NewVoiceService(voice, speech, nil))

	r := gin.New()
	r.POST("/voice/process", setUser(testutil.TestUser()), handler.ProcessVoice)

	body, contentType := voiceMultipartBody(t, []byte{1, 2, 3}, "2")
	req := httptest.NewRequest("POST", "/voice/process", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d. body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["action"] != "NEXT_STEP" {
		t.Errorf("action = %v, want NEXT_STEP", resp["action"])
	}
	if resp["transcript"] != "next step" {
		t.Errorf("transcript = %v", resp["transcript"])
	}
	if resp["answer"] != "Moving on." {
		t.Errorf("answer = %v", resp["answer"])
	}
}

func TestProcessVoice_Handler_MissingFile(t *testing.T) {
	handler := NewVoiceHandler(service.NewVoiceService(&testutil.MockVoiceProvider{}, nil, nil))

	r := gin.New()
	r.POST("/voice/process", setUser(testutil.TestUser()), handler.ProcessVoice)

	req := httptest.NewRequest("POST", "/voice/process", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAskAssistant_Handler_Success(t *testing.T) {
	text := &testutil.MockTextProvider{
		CookingQAFunc: func(ctx context.Context, question string, recipeContext string) (string, error) {
			return "Use medium heat.", nil
		},
	}
	handler := NewVoiceHandler(service.NewVoiceService(nil, nil, text))

	r := gin.New()
	r.POST("/assistant/ask", setUser(testutil.TestUser()), handler.AskAssistant)

	body := `{"question": "What heat should I use?", "recipe_context": "Pancakes"}`
	req := httptest.NewRequest("POST", "/assistant/ask", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d. body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["answer"] != "Use medium heat." {
		t.Errorf("answer = %v", resp["answer"])
	}
}

func TestAskAssistant_Handler_BlankQuestion(t *testing.T) {
	handler := NewVoiceHandler(service.NewVoiceService(nil, nil, &testutil.MockTextProvider{}))

	r := gin.New()
	r.POST("/assistant/ask", setUser(testutil.TestUser()), handler.AskAssistant)

	body := `{"question": "   "}`
	req := httptest.NewRequest("POST", "/assistant/ask", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
