package realtime

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/souschef-app/souschef-api/internal/logger"
	"github.com/souschef-app/souschef-api/internal/models"
	"github.com/souschef-app/souschef-api/internal/service"
	"go.uber.org/zap"
)

// Feed event types pushed to recipe-list subscribers.
const (
	EventRecipeInserted = "recipe_inserted"
	EventRecipeUpdated  = "recipe_updated"
	EventRecipeDeleted  = "recipe_deleted"
	EventConnected      = "connected"
)

// FeedEvent is the envelope for all messages sent over the recipe feed.
type FeedEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// RecipePayload carries the full recipe row for insert and update events.
type RecipePayload struct {
	Recipe *service.RecipeResponse `json:"recipe"`
}

// DeletedPayload carries the ID of a removed recipe.
type DeletedPayload struct {
	RecipeID string `json:"recipe_id"`
}

// ConnectedPayload confirms a successful subscription.
type ConnectedPayload struct {
	UserID uint `json:"user_id"`
}

// FeedHandler manages WebSocket subscriptions to a user's recipe feed and
// publishes recipe change events into the hub.
type FeedHandler struct {
	Hub       *Hub
	JwtSecret string
}

// NewFeedHandler returns a new FeedHandler.
func NewFeedHandler(hub *Hub, jwtSecret string) *FeedHandler {
	return &FeedHandler{
		Hub:       hub,
		JwtSecret: jwtSecret,
	}
}

// upgrader is configured for recipe feed WebSocket upgrades.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// Native app clients send no Origin header.
		if origin == "" {
			return true
		}
		switch origin {
		case "https://souschef.app",
			"https://www.souschef.app",
			"https://api.souschef.app":
			return true
		}
		// Allow localhost for development
		if strings.HasPrefix(origin, "http://localhost:") || origin == "http://localhost" {
			return true
		}
		return false
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// HandleFeed upgrades an HTTP request to a WebSocket subscription on the
// caller's recipe feed. Authentication is done via a "token" query parameter
// because WebSocket connections cannot easily use Authorization headers.
func (fh *FeedHandler) HandleFeed(c *gin.Context) {
	log := logger.Get()

	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "token query parameter is required"})
		return
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(fh.JwtSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid or expired token"})
		return
	}

	tokenType, ok := claims["type"].(string)
	if !ok || tokenType != "access" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid token type"})
		return
	}

	idFloat, ok := claims["user_id"].(float64)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid user_id in token"})
		return
	}
	userID := uint(idFloat)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", zap.Uint("user_id", userID), zap.Error(err))
		return
	}

	client := &Client{
		Hub:    fh.Hub,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		UserID: userID,
	}
	fh.Hub.Register <- client

	connectedPayload, _ := json.Marshal(ConnectedPayload{UserID: userID})
	connectedMsg, _ := json.Marshal(FeedEvent{
		Type:    EventConnected,
		Payload: connectedPayload,
	})
	client.Send <- connectedMsg

	log.Info("recipe feed subscription started", zap.Uint("user_id", userID))

	go client.WritePump()
	go client.ReadPump()
}

// RecipeInserted publishes a new recipe row to the owner's feed.
func (fh *FeedHandler) RecipeInserted(userID uint, recipe *models.Recipe) {
	fh.publishRecipe(userID, EventRecipeInserted, recipe)
}

// RecipeUpdated publishes a changed recipe row to the owner's feed.
func (fh *FeedHandler) RecipeUpdated(userID uint, recipe *models.Recipe) {
	fh.publishRecipe(userID, EventRecipeUpdated, recipe)
}

// RecipeDeleted publishes a recipe removal to the owner's feed.
func (fh *FeedHandler) RecipeDeleted(userID uint, recipeID uint) {
	payload, _ := json.Marshal(DeletedPayload{
		RecipeID: formatID(recipeID),
	})
	msg, _ := json.Marshal(FeedEvent{
		Type:    EventRecipeDeleted,
		Payload: payload,
	})
	fh.Hub.publish(userID, msg)
}

func (fh *FeedHandler) publishRecipe(userID uint, eventType string, recipe *models.Recipe) {
	payload, err := json.Marshal(RecipePayload{
		Recipe: service.ToRecipeResponse(recipe),
	})
	if err != nil {
		logger.Get().Error("failed to marshal feed event", zap.String("type", eventType), zap.Error(err))
		return
	}
	msg, _ := json.Marshal(FeedEvent{
		Type:    eventType,
		Payload: payload,
	})
	fh.Hub.publish(userID, msg)
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
