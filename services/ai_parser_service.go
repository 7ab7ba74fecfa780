package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"calTrackAPI/internal/types/foodlog"

	"github.com/sashabaranov/go-openai"
)

// AIParserService turns free-text meal descriptions ("two eggs and a slice of
// toast") into structured food log entries. Parsed results are suggestions the
// client confirms before logging; nothing here writes to the database.
type AIParserService struct {
	client *openai.Client
	model  string
}

func NewAIParserService(apiKey, model string) *AIParserService {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &AIParserService{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// ParsedFoodItem is one recognized food with estimated macros.
type ParsedFoodItem struct {
	Name     string  `json:"name"`
	Quantity string  `json:"quantity"`
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

type ParsedMeal struct {
	Items         []ParsedFoodItem `json:"items"`
	TotalCalories float64          `json:"total_calories"`
}

const parserSystemPrompt = `You are a nutrition parser. Given a free-text meal description,
respond with a JSON object of the form
{"items":[{"name":"","quantity":"","calories":0,"protein_g":0,"carbs_g":0,"fat_g":0}]}.
Estimate realistic values per item. Respond with JSON only, no prose.`

// ParseMealText asks the model to break a description into items with
// estimated macros. The response must be valid JSON of the documented shape;
// anything else is an error rather than a guess.
func (s *AIParserService) ParseMealText(ctx context.Context, text string) (*ParsedMeal, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("meal description is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: parserSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("meal parsing request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("meal parser returned no choices")
	}

	content := resp.Choices[0].Message.Content
	meal := &ParsedMeal{}
	dec := json.NewDecoder(strings.NewReader(content))
	dec.DisallowUnknownFields()
	if err := dec.Decode(meal); err != nil {
		log.Printf("AIParserService: unparseable model output: %.200s", content)
		return nil, fmt.Errorf("meal parser returned invalid JSON: %w", err)
	}
	if len(meal.Items) == 0 {
		return nil, fmt.Errorf("no food items recognized in %q", text)
	}

	for _, item := range meal.Items {
		meal.TotalCalories += item.Calories
	}
	return meal, nil
}

// ToCreateRequests maps parsed items to food log create requests for the
// given meal slot.
func (m *ParsedMeal) ToCreateRequests(mealType foodlog.MealType) []*foodlog.CreateFoodLogRequest {
	out := make([]*foodlog.CreateFoodLogRequest, 0, len(m.Items))
	for _, item := range m.Items {
		name := item.Name
		if item.Quantity != "" {
			name = item.Quantity + " " + item.Name
		}
		out = append(out, &foodlog.CreateFoodLogRequest{
			Name:     name,
			MealType: mealType,
			Calories: item.Calories,
			ProteinG: item.ProteinG,
			CarbsG:   item.CarbsG,
			FatG:     item.FatG,
		})
	}
	return out
}
