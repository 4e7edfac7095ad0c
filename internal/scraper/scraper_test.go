package scraper

import (
	"errors"
	"testing"

	"github.com/souschef-app/souschef-api/internal/testutil"
)

func TestExtractFromHTML_GraphWrappedRecipe(t *testing.T) {
	draft, err := ExtractFromHTML(testutil.TomatoSoupJSONLD)
	if err != nil {
		t.Fatalf("ExtractFromHTML error: %v", err)
	}
	if draft.Title != "Grandma's Tomato Soup" {
		t.Errorf("Title = %q", draft.Title)
	}
	if len(draft.Ingredients) != 5 {
		t.Errorf("Ingredients length = %d, want 5", len(draft.Ingredients))
	}
	if len(draft.Instructions) != 4 {
		t.Fatalf("Instructions length = %d, want 4", len(draft.Instructions))
	}
	// The third HowToStep only carries a name field.
	if draft.Instructions[2] != "Simmer everything in the stock for 20 minutes." {
		t.Errorf("Instructions[2] = %q, want the name fallback", draft.Instructions[2])
	}
	if draft.ImageURL != "https://example.com/soup-wide.jpg" {
		t.Errorf("ImageURL = %q, want the first array entry", draft.ImageURL)
	}
}

func TestExtractFromHTML_NoRecipe(t *testing.T) {
	_, err := ExtractFromHTML(testutil.NoRecipeHTML)
	if !errors.Is(err, ErrNoStructuredData) {
		t.Fatalf("err = %v, want ErrNoStructuredData", err)
	}
}

func TestExtractFromHTML_NoJSONLDAtAll(t *testing.T) {
	_, err := ExtractFromHTML("<html><body><p>just text</p></body></html>")
	if !errors.Is(err, ErrNoStructuredData) {
		t.Fatalf("err = %v, want ErrNoStructuredData", err)
	}
}

func TestExtractFromHTML_SingleObjectRecipe(t *testing.T) {
	html := `<script type="application/ld+json">
	{"@type": "Recipe", "name": "Toast", "recipeInstructions": "Toast the bread."}
	</script>`

	draft, err := ExtractFromHTML(html)
	if err != nil {
		t.Fatalf("ExtractFromHTML error: %v", err)
	}
	if draft.Title != "Toast" {
		t.Errorf("Title = %q", draft.Title)
	}
	if len(draft.Instructions) != 1 || draft.Instructions[0] != "Toast the bread." {
		t.Errorf("Instructions = %v, want the single string step", draft.Instructions)
	}
	// Missing ingredient list defaults to empty, not nil.
	if draft.Ingredients == nil || len(draft.Ingredients) != 0 {
		t.Errorf("Ingredients = %v, want empty slice", draft.Ingredients)
	}
}

func TestExtractFromHTML_SkipsMalformedBlocks(t *testing.T) {
	html := `<script type="application/ld+json">not json at all</script>
	<script type="application/ld+json">
	[{"@type": "Recipe", "name": "Salad", "recipeIngredient": ["lettuce"]}]
	</script>`

	draft, err := ExtractFromHTML(html)
	if err != nil {
		t.Fatalf("ExtractFromHTML error: %v", err)
	}
	if draft.Title != "Salad" {
		t.Errorf("Title = %q, want the recipe from the second block", draft.Title)
	}
}

func TestParseImage_ObjectForm(t *testing.T) {
	got := parseImage(map[string]interface{}{"@type": "ImageObject", "url": "https://example.com/a.jpg"})
	if got != "https://example.com/a.jpg" {
		t.Errorf("parseImage = %q", got)
	}
}

func TestIsRecipeType(t *testing.T) {
	if !isRecipeType("Recipe") {
		t.Error("plain string Recipe should match")
	}
	if !isRecipeType([]interface{}{"NewsArticle", "Recipe"}) {
		t.Error("multi-type array including Recipe should match")
	}
	if isRecipeType("Article") {
		t.Error("non-Recipe type should not match")
	}
	if isRecipeType(nil) {
		t.Error("missing @type should not match")
	}
}
