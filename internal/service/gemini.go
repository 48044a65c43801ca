package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/momcare/mealplan/backend/internal/types"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when no model name is configured
const DefaultGeminiModel = "gemini-1.5-flash"

// textGenerator sends one prompt and returns the raw text answer
type textGenerator interface {
	generate(ctx context.Context, prompt string) (string, error)
}

type geminiGenerator struct {
	model *genai.GenerativeModel
}

func (g *geminiGenerator) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from model")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}

// GeminiService implements GoalEnricher and InsightGenerator on top of Gemini
type GeminiService struct {
	client *genai.Client
	gen    textGenerator
}

// NewGeminiService creates a new GeminiService instance
func NewGeminiService(ctx context.Context, apiKey, modelName string) (*GeminiService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)

	return &GeminiService{client: client, gen: &geminiGenerator{model: model}}, nil
}

// Close releases the underlying client
func (s *GeminiService) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

type enrichmentResponse struct {
	Emphasis []string `json:"emphasis"`
}

// EnrichGoal asks the model which micronutrients deserve extra attention
func (s *GeminiService) EnrichGoal(ctx context.Context, profile types.UserProfile, st types.PregnancyStage, base types.NutritionalGoal) (types.NutritionalGoal, error) {
	prompt := fmt.Sprintf(`You are a prenatal nutrition expert.

A pregnant user is in week %d (trimester %d).
Dietary preference: %s
Intolerances: %s
Pre-existing conditions: %s
Current micronutrient focus: %s

REQUIREMENTS:
- Suggest at most 3 additional micronutrients or food components to emphasise today
- Use short lowercase names such as "iron", "vitamin c", "fiber"
- Do not repeat the current focus
- Return ONLY a JSON object, no explanations

Example response format:
{"emphasis": ["vitamin c", "fiber"]}`,
		st.Week, st.Trimester, profile.DietaryPreference,
		listOrNone(profile.Intolerances), listOrNone(profile.PreExistingConditions), listOrNone(base.Emphasis))

	text, err := s.gen.generate(ctx, prompt)
	if err != nil {
		return base, err
	}

	var resp enrichmentResponse
	if err := json.Unmarshal([]byte(extractJSON(text)), &resp); err != nil {
		return base, fmt.Errorf("failed to parse enrichment response: %w", err)
	}
	if len(resp.Emphasis) > 3 {
		resp.Emphasis = resp.Emphasis[:3]
	}

	goal := base
	goal.Emphasis = append(append([]string(nil), base.Emphasis...), resp.Emphasis...)
	return goal, nil
}

// GenerateInsight writes today's focus and a short tip for the plan
func (s *GeminiService) GenerateInsight(ctx context.Context, profile types.UserProfile, st types.PregnancyStage, plan *types.DailyMealPlan) (*types.DailyInsight, error) {
	var meals []string
	for _, slot := range types.MealSlots {
		if ids := plan.Meals[slot]; len(ids) > 0 {
			meals = append(meals, fmt.Sprintf("%s: %s", slot, strings.Join(ids, ", ")))
		}
	}

	prompt := fmt.Sprintf(`You are a supportive pregnancy wellness coach.

The user is in week %d (trimester %d) and feels %s today.
Today's meal plan:
%s
Nutrition focus: %s

REQUIREMENTS:
- "todays_focus": one sentence naming the main focus for the day
- "daily_tip": one practical, encouraging tip
- Return ONLY a JSON object, no explanations

Example response format:
{"todays_focus": "...", "daily_tip": "..."}`,
		st.Week, st.Trimester, moodOrNeutral(profile.Mood), strings.Join(meals, "\n"), listOrNone(plan.Goal.Emphasis))

	text, err := s.gen.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var insight types.DailyInsight
	if err := json.Unmarshal([]byte(extractJSON(text)), &insight); err != nil {
		return nil, fmt.Errorf("failed to parse insight response: %w", err)
	}
	if insight.TodaysFocus == "" && insight.DailyTip == "" {
		return nil, fmt.Errorf("insight response was empty")
	}
	return &insight, nil
}

func extractJSON(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	end := strings.LastIndex(s, "}")
	if end == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func listOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}

func moodOrNeutral(m types.MoodCategory) string {
	if m == types.MoodNone {
		return "neutral"
	}
	return string(m)
}
