package journey

import (
	"fmt"
	"strings"

	"github.com/leo-guinan/pathofgreatness/pkg/models"
)

// UIHints renders per-state presentation data so the client stays a dumb
// renderer. States that show narratives read them from the session data bag
// rather than re-querying anything.
func UIHints(state models.State, data models.JSONMap, character *models.Character, timeline []*models.TimelineEvent, totalCost float64) models.JSONMap {
	switch state {
	case models.StateWelcome:
		return models.JSONMap{
			"title":       "The Path of Greatness",
			"subtitle":    "An Interactive Journey Through 8 Transformations",
			"description": "Watch yourself climb the ladder of greatness, one transformation at a time.",
			"action":      "Begin Your Ascent",
		}

	case models.StateGreatnessMirror:
		return models.JSONMap{
			"title":       "The Greatness Mirror",
			"description": "Who do you admire most? This person reveals your natural path to greatness.",
			"prompt":      "Enter the name of someone you admire:",
			"action":      "Reveal My Path",
		}

	case models.StateOrderReveal:
		return models.JSONMap{
			"title":       fmt.Sprintf("You Walk the Path of %s", titleCase(stringField(data, "order", ""))),
			"description": stringField(data, "explanation", ""),
			"archetypes":  data["archetypes"],
			"action":      "Choose Your Archetype",
		}

	case models.StateCharacterCreation:
		return models.JSONMap{
			"title":       "Your Journey Begins",
			"description": "Tell us about yourself to personalize your transformation.",
			"fields": []models.JSONMap{
				{"name": "name", "label": "Your name", "type": "text"},
				{"name": "age", "label": "Your age", "type": "number"},
				{"name": "situation", "label": "Where are you now? (one sentence)", "type": "text"},
				{"name": "struggle", "label": "What holds you back? (one sentence)", "type": "text"},
				{"name": "greatness", "label": "What does greatness mean to you? (one sentence)", "type": "text"},
			},
			"action": "Start Climbing",
		}

	case models.StateChapterBefore:
		chapter := chapterField(data)
		theme := models.ChapterThemes[chapter]
		return models.JSONMap{
			"title":          fmt.Sprintf("Chapter %d: %s", chapter, theme.Title),
			"subtitle":       "BEFORE",
			"description":    theme.Description,
			"narrative":      stringField(data, "before_narrative", ""),
			"chapter":        chapter,
			"total_chapters": models.TotalChapters,
			"action":         "Experience the Transformation",
		}

	case models.StateChapterAfter:
		chapter := chapterField(data)
		theme := models.ChapterThemes[chapter]
		action := "Continue Climbing"
		if chapter >= models.TotalChapters {
			action = "Complete Your Journey"
		}
		return models.JSONMap{
			"title":          fmt.Sprintf("Chapter %d: %s", chapter, theme.Title),
			"subtitle":       "AFTER",
			"description":    "You have ascended",
			"narrative":      stringField(data, "after_narrative", ""),
			"transformation": stringField(data, "transformation_insight", ""),
			"chapter":        chapter,
			"total_chapters": models.TotalChapters,
			"action":         action,
		}

	case models.StateCompletion:
		return models.JSONMap{
			"title":       "You Have Completed The Path",
			"subtitle":    "8 Transformations, One Journey",
			"description": "Look back at how far you've climbed.",
			"timeline":    timeline,
			"total_cost":  totalCost,
			"action":      "See What's Next",
		}

	case models.StateSalesPage:
		hints := models.JSONMap{
			"headline":             "",
			"hook":                 "",
			"transformation_proof": "",
			"offer_description":    "",
			"guarantee":            "",
			"cta":                  "",
			"urgency":              "",
			"total_cost":           totalCost,
			"character_name":       "Seeker",
		}
		var sales map[string]any
		switch value := data["sales_page"].(type) {
		case models.JSONMap:
			sales = value
		case map[string]any:
			sales = value
		}
		for key := range hints {
			if value, present := sales[key]; present {
				hints[key] = value
			}
		}
		if character != nil && character.Name != "" {
			hints["character_name"] = character.Name
		}
		return hints
	}

	return models.JSONMap{}
}

// chapterField reads current_chapter from the data bag, tolerating the
// float64 that JSON decoding produces.
func chapterField(data models.JSONMap) int {
	switch value := data["current_chapter"].(type) {
	case int:
		return value
	case int64:
		return int(value)
	case float64:
		return int(value)
	}
	return 1
}

func titleCase(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
