package testutil

import (
	"time"

	"github.com/lib/pq"
	"github.com/souschef-app/souschef-api/internal/models"
	"gorm.io/gorm"
)

// TestUser creates a test user with all associated records populated.
func TestUser() *models.User {
	return &models.User{
		Model:     gorm.Model{ID: 1},
		Username:  "testuser",
		FirstName: "Test",
		Email:     "test@example.com",
		Auth: &models.UserAuth{
			Model:          gorm.Model{ID: 1},
			UserID:         1,
			HashedPassword: "$2a$10$abcdefghijklmnopqrstuuABCDEFGHIJKLMNOPQRSTUVWXYZ012",
			AuthType:       models.Standard,
		},
		Subscription: &models.Subscription{
			Model:          gorm.Model{ID: 1},
			UserID:         1,
			Tier:           models.TierFree,
			MonthlyResetAt: time.Now().AddDate(0, 1, 0),
		},
	}
}

// TestRecipe creates a ready-to-cook test Recipe.
func TestRecipe() *models.Recipe {
	return &models.Recipe{
		Model: gorm.Model{ID: 1},
		Title: "Classic Pancakes",
		Ingredients: pq.StringArray{
			"1.5 cups all-purpose flour",
			"1 1/4 cups milk",
			"1 egg",
			"3 tbsp melted butter",
		},
		Instructions: pq.StringArray{
			"Mix dry ingredients",
			"Whisk wet ingredients",
			"Combine and cook on griddle",
		},
		ImageURL: "https://example.com/pancakes.jpg",
		Status:   models.RecipeStatusReady,
		OwnerID:  1,
	}
}

// TestSession creates an active cooking session for TestUser and TestRecipe.
func TestSession() *models.CookingSession {
	return &models.CookingSession{
		Model:       gorm.Model{ID: 1},
		RecipeID:    1,
		UserID:      1,
		CurrentStep: 0,
		ChatHistory: models.ChatMessages{},
		IsActive:    true,
		LastUpdated: time.Now(),
	}
}

// TomatoSoupJSONLD is a schema.org Recipe page in the shape most recipe
// sites publish: an @graph with the recipe buried among other nodes.
const TomatoSoupJSONLD = `<!DOCTYPE html>
<html>
<head>
<title>Grandma's Tomato Soup</title>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@graph": [
    {
      "@type": "WebSite",
      "name": "Cozy Kitchen Blog"
    },
    {
      "@type": ["Recipe", "NewsArticle"],
      "name": "Grandma's Tomato Soup",
      "image": ["https://example.com/soup-wide.jpg", "https://example.com/soup-tall.jpg"],
      "recipeIngredient": [
        "2 lbs ripe tomatoes",
        "1 yellow onion, diced",
        "2 cloves garlic",
        "4 cups vegetable stock",
        "1/2 cup heavy cream"
      ],
      "recipeInstructions": [
        {"@type": "HowToStep", "text": "Roast the tomatoes and garlic at 400F for 30 minutes."},
        {"@type": "HowToStep", "text": "Saute the onion until translucent."},
        {"@type": "HowToStep", "name": "Simmer everything in the stock for 20 minutes."},
        {"@type": "HowToStep", "text": "Blend until smooth and stir in the cream."}
      ]
    }
  ]
}
</script>
</head>
<body><h1>Grandma's Tomato Soup</h1></body>
</html>`

// NoRecipeHTML is a page with JSON-LD that contains no Recipe node.
const NoRecipeHTML = `<!DOCTYPE html>
<html>
<head>
<script type="application/ld+json">
{"@context": "https://schema.org", "@type": "NewsArticle", "headline": "Ten soups we love"}
</script>
</head>
<body><p>No recipe here.</p></body>
</html>`
