package orchestrator

const routeIntentPrompt = `You are an intent classification assistant for a recipe application.

Your job is to determine what the user wants to do based on their message.

There are two possible intents:

1. "fetch_recipes" - User wants to FIND or SEARCH for recipes to cook
   Examples:
   - "What can I make with chicken and rice?"
   - "Show me Italian recipes"
   - "I have tomatoes and cheese, what should I cook?"
   - "Find me an easy dinner recipe"
   - "What recipes do you have?"

2. "catalog_recipe" - User wants to ADD a new recipe to the database from a URL
   Examples:
   - "Add this recipe: https://example.com/recipe"
   - "Catalog this URL: https://tasty.co/chocolate-cake"
   - "Save this recipe link to the database"
   - "Can you add https://food.com/pasta to our recipes?"
   - "Import recipe from https://..."

Respond with ONLY ONE WORD: either "fetch_recipes" or "catalog_recipe"

If the intent is unclear or doesn't fit either category, default to "fetch_recipes".`

const routeIntentUserPrompt = "User message: %s\n\nIntent:"

// 回覆文字
const (
	noURLMessage         = "No URL found in your message. Please provide a recipe URL to catalog."
	catalogSuccessReply  = "✅ Successfully added '%s' to the database!"
	catalogFailureReply  = "❌ Failed to catalog recipe: %s"
	searchApology        = "Sorry, I encountered an error while searching for recipes."
	catalogApology       = "Sorry, I encountered an error while cataloging the recipe."
	noRecommendations    = "No recommendations available."
	searchWorkflowError  = "Error in fetch_recipes workflow: %v"
	catalogWorkflowError = "Error in catalog_recipe workflow: %v"
)
