// Package pipeline provides the named generation steps of the journey:
// prompt construction, gateway invocation, response decoding, and per-call
// cost recording.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/leo-guinan/pathofgreatness/internal/gateway"
	"github.com/leo-guinan/pathofgreatness/pkg/models"
)

// OrderContexts personalizes narrative prompts per order.
var OrderContexts = map[models.Order]string{
	models.OrderMythic:    "a Seer seeing visions",
	models.OrderSpartan:   "a Warrior building discipline",
	models.OrderAtelier:   "an Artisan refining craft",
	models.OrderZen:       "a Sage finding clarity",
	models.OrderAthlete:   "a Champion performing",
	models.OrderCommander: "a Strategist leading",
	models.OrderFuturist:  "a Navigator seeing patterns",
}

// Sampling temperatures per prompt type.
const (
	tempMirrorAnalyzer     = 0.3
	tempNarrativeGenerator = 0.8
	tempSalesPage          = 0.8
)

// Token budgets per step.
const (
	maxTokensMirror    = 1000
	maxTokensNarrative = 500
	maxTokensInsight   = 300
	maxTokensSalesPage = 2000
)

// MirrorPrompt analyzes an admired person to determine the user's order.
func MirrorPrompt(admiredPerson string) gateway.Prompt {
	system := `You are an expert at analyzing what people admire and mapping it to archetypes.
Based on who someone admires, you can determine their natural Order - their path to greatness.

The Seven Orders:
- MYTHIC: Seers who see futures others cannot (artists, visionaries, storytellers)
- SPARTAN: Warriors who build discipline and strength (athletes, military, disciplined practitioners)
- ATELIER: Artisans who refine craft to perfection (craftspeople, designers, makers)
- ZEN: Sages who find clarity through contemplation (philosophers, meditators, spiritual seekers)
- ATHLETE: Champions who perform at peak (competitors, performers, strivers)
- COMMANDER: Strategists who lead and organize (leaders, managers, organizers)
- FUTURIST: Navigators who see patterns and systems (technologists, scientists, futurists)

Respond with valid JSON only.`

	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze this person: %s\n\n", admiredPerson)
	sb.WriteString(`Determine:
1. Which Order do they represent?
2. What specific archetype within that Order?
3. Why does someone who admires them belong to this Order?

Respond with ONLY valid JSON in this format:
{
  "order": "mythic|spartan|atelier|zen|athlete|commander|futurist",
  "archetypes": ["Archetype 1", "Archetype 2", "Archetype 3"],
  "explanation": "Brief explanation of why this person represents this Order",
  "admired_person_traits": ["trait1", "trait2", "trait3"]
}`)

	return gateway.Prompt{System: system, User: sb.String(), Temperature: tempMirrorAnalyzer}
}

// BeforePrompt generates the "before" narrative for the character's current
// chapter.
func BeforePrompt(character *models.Character, chapter int, theme models.ChapterTheme) gateway.Prompt {
	orderContext, ok := OrderContexts[character.Order]
	if !ok {
		orderContext = "a seeker"
	}

	system := fmt.Sprintf(`You are a narrator for The Path of Greatness.
Write a "before" narrative that shows where %s is now, before this chapter's transformation.
Show their current struggles, limitations, and where they need to grow.
Make it personal and specific to their journey.`, character.Name)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Character: %s\n", character.Name)
	fmt.Fprintf(&sb, "Order: %s (%s)\n", character.Order, orderContext)
	fmt.Fprintf(&sb, "Current Situation: %s\n", character.Backstory["situation"])
	fmt.Fprintf(&sb, "Current Struggle: %s\n", character.Backstory["struggle"])
	fmt.Fprintf(&sb, "Chapter: %d - %s\n", chapter, theme.Title)
	fmt.Fprintf(&sb, "Theme Description: %s\n\n", theme.Description)
	fmt.Fprintf(&sb, `Write a "before" narrative (4-6 sentences) that:
1. Shows where %s is right now in their journey
2. Highlights the gap between where they are and where they could be
3. Sets up the need for this chapter's transformation
4. Makes them feel the tension of their current state
5. Uses "you" language to make it immersive

Focus on showing their current limitations or struggles related to this chapter's theme.`, character.Name)

	return gateway.Prompt{System: system, User: sb.String(), Temperature: tempNarrativeGenerator}
}

// AfterPrompt generates the "after" narrative contrasting with the before
// state.
func AfterPrompt(character *models.Character, chapter int, theme models.ChapterTheme, beforeNarrative string) gateway.Prompt {
	system := fmt.Sprintf(`You are a narrator for The Path of Greatness.
Write an "after" narrative that shows how %s has transformed through this chapter.
Show the shift in their understanding, capabilities, or perspective.
Make it feel like genuine growth.`, character.Name)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Character: %s\n", character.Name)
	fmt.Fprintf(&sb, "Order: %s\n", character.Order)
	fmt.Fprintf(&sb, "Chapter: %d - %s\n\n", chapter, theme.Title)
	fmt.Fprintf(&sb, "Before State:\n%s\n\n", beforeNarrative)
	sb.WriteString(`Write an "after" narrative (4-6 sentences) that:
1. Shows the transformation that has occurred
2. Contrasts clearly with the "before" state
3. Demonstrates new understanding, capability, or perspective
4. Feels earned and real, not superficial
5. Uses "you" language to make it immersive
6. Ends with a sense of ascension - they've climbed higher

Show them standing on a new rung of the ladder of greatness.`)

	return gateway.Prompt{System: system, User: sb.String(), Temperature: tempNarrativeGenerator}
}

// InsightPrompt generates the key insight of the chapter.
func InsightPrompt(character *models.Character, chapter int, theme models.ChapterTheme) gateway.Prompt {
	system := `You are a guide helping someone realize deep insights.
Write the key insight or realization that emerges from this chapter.
This should be profound but accessible - a truth that changes how they see things.`

	var sb strings.Builder
	fmt.Fprintf(&sb, "Character: %s\n", character.Name)
	fmt.Fprintf(&sb, "Chapter: %d - %s\n\n", chapter, theme.Title)
	fmt.Fprintf(&sb, `Write the key insight (2-3 sentences) that %s realizes in this chapter.
Format it as: "You realize..." or "You understand now that..."

Make it:
1. Specific to this chapter's theme
2. Personally transformative
3. A shift in perspective or understanding
4. Something they can carry forward

This is the wisdom they gain from climbing to this rung of greatness.`, character.Name)

	return gateway.Prompt{System: system, User: sb.String(), Temperature: tempNarrativeGenerator}
}

// SalesPrompt generates the personalized sales page from the full journey.
func SalesPrompt(character *models.Character, timeline []*models.TimelineEvent, totalCost float64) gateway.Prompt {
	system := `You are a master copywriter creating a personalized sales page.
Your goal is near 100% conversion by making the offer irresistible and personal.
Use their actual journey, their struggles, their transformations to show proof.
Make them feel like this is THE moment to commit deeper.`

	var transformations []string
	for _, event := range timeline {
		if event.Transformation != "" {
			transformations = append(transformations, "- "+event.Transformation)
		}
	}
	if len(transformations) > 3 {
		transformations = transformations[:3]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Create a personalized sales page for %s.\n\n", character.Name)
	sb.WriteString("THEIR JOURNEY DATA:\n")
	fmt.Fprintf(&sb, "- Name: %s\n", character.Name)
	fmt.Fprintf(&sb, "- Order: %s\n", character.Order)
	fmt.Fprintf(&sb, "- Their struggle: %s\n", character.Backstory["struggle"])
	fmt.Fprintf(&sb, "- Their definition of greatness: %s\n", character.Backstory["greatness"])
	fmt.Fprintf(&sb, "- Cost of their transformation: $%.4f\n", totalCost)
	fmt.Fprintf(&sb, "- Transformations they experienced:\n%s\n\n", strings.Join(transformations, "\n"))
	fmt.Fprintf(&sb, "BASE TEMPLATE TO PERSONALIZE:\n%s\n\n", salesTemplate)
	fmt.Fprintf(&sb, `YOUR TASK:
1. Keep the structure and power of the template
2. Personalize with %s's actual data
3. Reference their specific struggle and transformations
4. Use the cost they just saw ($%.4f) to create contrast with $50
5. Make it feel like this sales page was written specifically for THEM
6. Keep the urgency and conviction
7. Use "you" language throughout

OUTPUT FORMAT:
Return a JSON object with these fields:
{
    "headline": "Personalized headline",
    "hook": "Opening paragraphs that reference their journey",
    "transformation_proof": "What they just experienced",
    "offer_description": "What Chapter 1 gives them",
    "guarantee": "Why this will work for them specifically",
    "cta": "Clear call to action",
    "urgency": "Why they should act now"
}

Make every word count. This should feel inevitable.`, character.Name, totalCost)

	return gateway.Prompt{System: system, User: sb.String(), Temperature: tempSalesPage}
}

// salesTemplate is the base sales copy the backend personalizes.
const salesTemplate = `THE PATH OF GREATNESS
Do You Have What It Takes to Be Great?

For $[COST], I Generated an Entire Transformation.
Now imagine what I can do for you with $50.

You just saw it:
For less than [X] pennies, I turned [THEIR STRUGGLE] into [THEIR TRANSFORMATION].

That's what mastery looks like.
No fluff. No filler. No wasting your time or money.
Just transformation.

Now the only question left is:
Are YOU ready to walk your Path?

What You Get in Chapter 1: The $50 Coherence Breakthrough

Chapter 1 takes you from:
scattered → aligned
overwhelmed → in control
reactive → intentional

You get:
✔ The 24-Hour Coherence Challenge
✔ The Coherence Logbook
✔ Your First "Seal"
✔ The First Transformation

This chapter alone is worth $500.
But I'm giving it to you for $50.

Because I want you to win.

The Hard Truth: Most People Won't Do This

Not because it's expensive.
Not because it's hard.
But because stepping into greatness is terrifying.

You know this is your moment.

Your Path Begins Here.
Chapter 1 — $50

[Start Chapter 1 Now →]`
