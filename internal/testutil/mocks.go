package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/souschef-app/souschef-api/internal/ai"
	"github.com/souschef-app/souschef-api/internal/models"
	"github.com/souschef-app/souschef-api/internal/repository"
)

// --- MockVisionProvider ---

// MockVisionProvider is a mock implementation of ai.VisionProvider.
type MockVisionProvider struct {
	ExtractRecipeFunc func(ctx context.Context, req ai.ExtractionRequest) (*ai.RecipeDraft, error)
}

func (m *MockVisionProvider) ExtractRecipe(ctx context.Context, req ai.ExtractionRequest) (*ai.RecipeDraft, error) {
	if m.ExtractRecipeFunc != nil {
		return m.ExtractRecipeFunc(ctx, req)
	}
	return nil, fmt.Errorf("ExtractRecipe not configured")
}

// --- MockVoiceProvider ---

// MockVoiceProvider is a mock implementation of ai.VoiceProvider.
type MockVoiceProvider struct {
	InterpretVoiceFunc func(ctx context.Context, req ai.VoiceRequest) (*ai.VoiceTurn, error)
}

func (m *MockVoiceProvider) InterpretVoice(ctx context.Context, req ai.VoiceRequest) (*ai.VoiceTurn, error) {
	if m.InterpretVoiceFunc != nil {
		return m.InterpretVoiceFunc(ctx, req)
	}
	return nil, fmt.Errorf("InterpretVoice not configured")
}

// --- MockTextProvider ---

// MockTextProvider is a mock implementation of ai.TextProvider.
type MockTextProvider struct {
	CookingQAFunc func(ctx context.Context, question string, recipeContext string) (string, error)
}

func (m *MockTextProvider) CookingQA(ctx context.Context, question string, recipeContext string) (string, error) {
	if m.CookingQAFunc != nil {
		return m.CookingQAFunc(ctx, question, recipeContext)
	}
	return "", fmt.Errorf("CookingQA not configured")
}

// --- MockSpeechProvider ---

// MockSpeechProvider is a mock implementation of ai.SpeechProvider.
type MockSpeechProvider struct {
	TranscribeAudioFunc func(ctx context.Context, audioData []byte) (string, error)
}

func (m *MockSpeechProvider) TranscribeAudio(ctx context.Context, audioData []byte) (string, error) {
	if m.TranscribeAudioFunc != nil {
		return m.TranscribeAudioFunc(ctx, audioData)
	}
	return "", fmt.Errorf("TranscribeAudio not configured")
}

// --- MockRecipeRepo ---

// MockRecipeRepo is an in-memory mock implementation of repository.RecipeRepo.
type MockRecipeRepo struct {
	mu      sync.Mutex
	Recipes map[uint]*models.Recipe
	NextID  uint

	// Error overrides: set these to force specific methods to return errors.
	CreateRecipeErr           error
	GetRecipeByIDErr          error
	DeleteRecipeErr           error
	UpdateRecipeExtractionErr error
}

// NewMockRecipeRepo creates a new MockRecipeRepo with initialized maps.
func NewMockRecipeRepo() *MockRecipeRepo {
	return &MockRecipeRepo{
		Recipes: make(map[uint]*models.Recipe),
		NextID:  1,
	}
}

func (m *MockRecipeRepo) GetUserRecipes(userID uint, page, pageSize int) ([]models.Recipe, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var recipes []models.Recipe
	for _, r := range m.Recipes {
		if r.OwnerID == userID {
			recipes = append(recipes, *r)
		}
	}
	sort.Slice(recipes, func(i, j int) bool { return recipes[i].ID > recipes[j].ID })
	total := int64(len(recipes))

	start := (page - 1) * pageSize
	if start >= len(recipes) {
		return []models.Recipe{}, total, nil
	}
	end := start + pageSize
	if end > len(recipes) {
		end = len(recipes)
	}
	return recipes[start:end], total, nil
}

func (m *MockRecipeRepo) GetRecipeByID(recipeID uint) (*models.Recipe, error) {
	if m.GetRecipeByIDErr != nil {
		return nil, m.GetRecipeByIDErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.Recipes[recipeID]
	if !ok {
		return nil, repository.NewNotFoundError("recipe not found")
	}
	copied := *r
	return &copied, nil
}

func (m *MockRecipeRepo) CreateRecipe(recipe *models.Recipe) error {
	if m.CreateRecipeErr != nil {
		return m.CreateRecipeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	recipe.ID = m.NextID
	m.NextID++
	if recipe.Status == "" {
		recipe.Status = models.RecipeStatusDraft
	}
	stored := *recipe
	m.Recipes[recipe.ID] = &stored
	return nil
}

func (m *MockRecipeRepo) DeleteRecipe(recipeID uint) error {
	if m.DeleteRecipeErr != nil {
		return m.DeleteRecipeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.Recipes, recipeID)
	return nil
}

func (m *MockRecipeRepo) UpdateRecipeExtraction(recipeID uint, title string, ingredients, instructions []string, status models.RecipeStatus) error {
	if m.UpdateRecipeExtractionErr != nil {
		return m.UpdateRecipeExtractionErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.Recipes[recipeID]
	if !ok {
		return repository.NewNotFoundError("recipe not found")
	}
	r.Title = title
	r.Ingredients = pq.StringArray(ingredients)
	r.Instructions = pq.StringArray(instructions)
	r.Status = status
	return nil
}

func (m *MockRecipeRepo) UpdateRecipeImageURL(recipeID uint, imageURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.Recipes[recipeID]; ok {
		r.ImageURL = imageURL
	}
	return nil
}

// --- MockSessionRepo ---

// MockSessionRepo is an in-memory mock implementation of repository.SessionRepo.
type MockSessionRepo struct {
	mu       sync.Mutex
	Sessions map[[2]uint]*models.CookingSession

	UpsertSessionErr            error
	UpdateSessionChatHistoryErr error
}

// NewMockSessionRepo creates a new MockSessionRepo with initialized maps.
func NewMockSessionRepo() *MockSessionRepo {
	return &MockSessionRepo{
		Sessions: make(map[[2]uint]*models.CookingSession),
	}
}

func (m *MockSessionRepo) GetSession(userID, recipeID uint) (*models.CookingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.Sessions[[2]uint{userID, recipeID}]
	if !ok {
		return nil, repository.NewNotFoundError("session not found")
	}
	copied := *s
	return &copied, nil
}

func (m *MockSessionRepo) GetLatestActiveSession(userID uint) (*models.CookingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var latest *models.CookingSession
	for key, s := range m.Sessions {
		if key[0] != userID || !s.IsActive {
			continue
		}
		if latest == nil || s.LastUpdated.After(latest.LastUpdated) {
			latest = s
		}
	}
	if latest == nil {
		return nil, repository.NewNotFoundError("no active session")
	}
	copied := *latest
	return &copied, nil
}

func (m *MockSessionRepo) UpsertSession(session *models.CookingSession) error {
	if m.UpsertSessionErr != nil {
		return m.UpsertSessionErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	session.LastUpdated = time.Now()
	stored := *session
	m.Sessions[[2]uint{session.UserID, session.RecipeID}] = &stored
	return nil
}

func (m *MockSessionRepo) UpdateSessionStep(userID, recipeID uint, step int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.Sessions[[2]uint{userID, recipeID}]
	if !ok {
		return repository.NewNotFoundError("session not found")
	}
	s.CurrentStep = step
	s.LastUpdated = time.Now()
	return nil
}

func (m *MockSessionRepo) UpdateSessionChatHistory(userID, recipeID uint, history models.ChatMessages) error {
	if m.UpdateSessionChatHistoryErr != nil {
		return m.UpdateSessionChatHistoryErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.Sessions[[2]uint{userID, recipeID}]
	if !ok {
		return repository.NewNotFoundError("session not found")
	}
	s.ChatHistory = history
	s.LastUpdated = time.Now()
	return nil
}

func (m *MockSessionRepo) FinishSession(userID, recipeID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.Sessions[[2]uint{userID, recipeID}]
	if !ok {
		return repository.NewNotFoundError("session not found")
	}
	s.IsActive = false
	s.LastUpdated = time.Now()
	return nil
}

// --- MockUserRepo ---

// MockUserRepo is an in-memory mock implementation of repository.UserRepo.
type MockUserRepo struct {
	mu            sync.Mutex
	Users         map[uint]*models.User
	Subscriptions map[uint]*models.Subscription
	NextID        uint

	CreateUserErr          error
	IncrementImportsErr    error
	GetSubscriptionErr     error
	IncrementImportsCalled int
}

// NewMockUserRepo creates a new MockUserRepo with initialized maps.
func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{
		Users:         make(map[uint]*models.User),
		Subscriptions: make(map[uint]*models.Subscription),
		NextID:        1,
	}
}

func (m *MockUserRepo) CreateUser(user *models.User) (*models.User, error) {
	if m.CreateUserErr != nil {
		return nil, m.CreateUserErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	user.ID = m.NextID
	m.NextID++
	m.Users[user.ID] = user
	if user.Subscription != nil {
		user.Subscription.UserID = user.ID
		m.Subscriptions[user.ID] = user.Subscription
	}
	return user, nil
}

func (m *MockUserRepo) GetUserByID(userID uint) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.Users[userID]
	if !ok {
		return nil, fmt.Errorf("user not found")
	}
	return u, nil
}

func (m *MockUserRepo) GetUserAuthByUsername(username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.Users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user not found")
}

func (m *MockUserRepo) UsernameExists(username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.Users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockUserRepo) GetSubscription(userID uint) (*models.Subscription, error) {
	if m.GetSubscriptionErr != nil {
		return nil, m.GetSubscriptionErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.Subscriptions[userID]
	if !ok {
		return nil, repository.NewNotFoundError("subscription not found")
	}
	copied := *s
	return &copied, nil
}

func (m *MockUserRepo) IncrementImportsUsed(userID uint) error {
	if m.IncrementImportsErr != nil {
		return m.IncrementImportsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.Subscriptions[userID]
	if !ok {
		return repository.NewNotFoundError("subscription not found")
	}
	s.ImportsUsed++
	m.IncrementImportsCalled++
	return nil
}

func (m *MockUserRepo) ResetSubscriptionUsage(userID uint, nextReset time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.Subscriptions[userID]
	if !ok {
		return repository.NewNotFoundError("subscription not found")
	}
	s.ImportsUsed = 0
	s.MonthlyResetAt = nextReset
	return nil
}

func (m *MockUserRepo) UpdateSubscriptionTier(userID uint, tier models.SubscriptionTier, expiresAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.Subscriptions[userID]
	if !ok {
		return repository.NewNotFoundError("subscription not found")
	}
	s.Tier = tier
	s.ExpiresAt = expiresAt
	return nil
}

// --- MockPageStore ---

// MockPageStore is an in-memory page store keyed the same way as the S3
// implementation.
type MockPageStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Deleted []string

	UploadPageErr   error
	DownloadPageErr error
	PresignErr      error
}

// NewMockPageStore creates a new MockPageStore with initialized maps.
func NewMockPageStore() *MockPageStore {
	return &MockPageStore{
		Objects: make(map[string][]byte),
	}
}

func (m *MockPageStore) UploadPage(ctx context.Context, recipeID uint, pageNum int, imgBytes []byte) (string, error) {
	if m.UploadPageErr != nil {
		return "", m.UploadPageErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := fmt.Sprintf("%d/page_%d.jpg", recipeID, pageNum)
	m.Objects[key] = imgBytes
	return key, nil
}

func (m *MockPageStore) DownloadPage(ctx context.Context, key string) ([]byte, error) {
	if m.DownloadPageErr != nil {
		return nil, m.DownloadPageErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.Objects[key]
	if !ok {
		return nil, fmt.Errorf("no page object %s", key)
	}
	return data, nil
}

func (m *MockPageStore) PresignPageURL(ctx context.Context, key string) (string, error) {
	if m.PresignErr != nil {
		return "", m.PresignErr
	}
	return "https://pages.example.com/signed/" + key, nil
}

func (m *MockPageStore) DeletePages(ctx context.Context, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.Objects, key)
		m.Deleted = append(m.Deleted, key)
	}
	return nil
}

// DeletedKeys returns a copy of the recorded page deletions.
func (m *MockPageStore) DeletedKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Deleted))
	copy(out, m.Deleted)
	return out
}

// --- RecordingEventSink ---

// RecordingEventSink records recipe feed events for assertions.
type RecordingEventSink struct {
	mu       sync.Mutex
	Inserted []uint
	Updated  []uint
	Deleted  []uint
}

func (r *RecordingEventSink) RecipeInserted(userID uint, recipe *models.Recipe) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Inserted = append(r.Inserted, recipe.ID)
}

func (r *RecordingEventSink) RecipeUpdated(userID uint, recipe *models.Recipe) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Updated = append(r.Updated, recipe.ID)
}

func (r *RecordingEventSink) RecipeDeleted(userID uint, recipeID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Deleted = append(r.Deleted, recipeID)
}

// DeletedIDs returns a copy of the recorded deletions.
func (r *RecordingEventSink) DeletedIDs() []uint {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uint, len(r.Deleted))
	copy(out, r.Deleted)
	return out
}

// Compile-time interface checks.
var _ ai.VisionProvider = (*MockVisionProvider)(nil)
var _ ai.VoiceProvider = (*MockVoiceProvider)(nil)
var _ ai.TextProvider = (*MockTextProvider)(nil)
var _ ai.SpeechProvider = (*MockSpeechProvider)(nil)
var _ repository.RecipeRepo = (*MockRecipeRepo)(nil)
var _ repository.SessionRepo = (*MockSessionRepo)(nil)
var _ repository.UserRepo = (*MockUserRepo)(nil)
