// Package llm оборачивает OpenAI API для анализа записей дневника:
// оценка настроения, извлечение тем, краткие резюме, отчёты за период
// и расшифровка голосовых записей.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	chatModel          = openai.GPT4oMini
	transcriptionModel = openai.Whisper1
)

type Client struct {
	api     *openai.Client
	timeout time.Duration
}

// New создаёт клиент OpenAI. Таймаут применяется к каждому запросу отдельно.
func New(apiKey string, timeout time.Duration) *Client {
	return &Client{
		api:     openai.NewClient(apiKey),
		timeout: timeout,
	}
}

func (c *Client) chat(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

type sentimentResult struct {
	SentimentScore float64 `json:"sentiment_score"`
}

// AnalyzeSentiment возвращает балл настроения текста в диапазоне [-2, +2].
func (c *Client) AnalyzeSentiment(ctx context.Context, text string) (float64, error) {
	const op = "llm.AnalyzeSentiment"

	content, err := c.chat(ctx, openai.ChatCompletionRequest{
		Model:       chatModel,
		Temperature: 0.1,
		MaxTokens:   50,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You rate the emotional tone of a personal diary entry. " +
					"Respond with JSON: {\"sentiment_score\": <number>} where the number is " +
					"between -2.0 (very negative) and 2.0 (very positive), 0 is neutral.",
			},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var result sentimentResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return clampScore(result.SentimentScore), nil
}

func clampScore(score float64) float64 {
	if score < -2.0 {
		return -2.0
	}
	if score > 2.0 {
		return 2.0
	}
	return score
}

type themesResult struct {
	Themes []string `json:"themes"`
}

// ExtractThemes возвращает ключевые темы записи в нижнем регистре.
// Количество тем зависит от длины текста.
func (c *Client) ExtractThemes(ctx context.Context, text string) ([]string, error) {
	const op = "llm.ExtractThemes"

	count := themeCount(text)
	content, err := c.chat(ctx, openai.ChatCompletionRequest{
		Model:       chatModel,
		Temperature: 0.5,
		MaxTokens:   300,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf("Extract exactly %d short thematic tags from the diary entry. "+
					"Use the language of the entry. Respond with JSON: {\"themes\": [...]}.", count),
			},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var result themesResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	themes := make([]string, 0, len(result.Themes))
	for _, theme := range result.Themes {
		theme = strings.ToLower(strings.TrimSpace(theme))
		if theme != "" {
			themes = append(themes, theme)
		}
	}
	return themes, nil
}

// themeCount выбирает количество тем по длине текста в словах.
func themeCount(text string) int {
	words := len(strings.Fields(text))
	switch {
	case words <= 20:
		return 2
	case words <= 50:
		return 3
	default:
		return 4
	}
}

// SummarizeThreshold задаёт минимальную длину текста в словах, начиная
// с которой запись получает краткое резюме.
const SummarizeThreshold = 100

// NeedsSummary сообщает, достаточно ли текст длинный для резюме.
func NeedsSummary(text string) bool {
	return len(strings.Fields(text)) > SummarizeThreshold
}

// Summarize возвращает краткое резюме длинной записи на языке оригинала.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	const op = "llm.Summarize"

	content, err := c.chat(ctx, openai.ChatCompletionRequest{
		Model:       chatModel,
		Temperature: 0.3,
		MaxTokens:   200,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "Summarize the diary entry in 2-3 sentences. " +
					"Write in the same language as the entry, in first person.",
			},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return strings.TrimSpace(content), nil
}

// GenerateReport строит JSON-отчёт о настроении за период по сжатым записям.
// Структура ответа фиксирована схемой в системном промпте.
func (c *Client) GenerateReport(ctx context.Context, periodLabel, language, condensedEntries string) (string, error) {
	const op = "llm.GenerateReport"

	systemPrompt := fmt.Sprintf(`You are an empathetic mood analyst. Based on the diary entries below,
write a reflective report for the period %q in language %q.
Respond with JSON only, following this schema exactly:
{
  "period": "<period label>",
  "language": "<language code>",
  "overview": "<2-3 sentence summary of the period>",
  "mood_trend": "<how the mood changed over the period>",
  "themes": ["<recurring theme>", ...],
  "notable_moments": ["<specific moment worth remembering>", ...],
  "suggestions": ["<gentle suggestion>", ...]
}`, periodLabel, language)

	content, err := c.chat(ctx, openai.ChatCompletionRequest{
		Model:       chatModel,
		Temperature: 0.7,
		MaxTokens:   1500,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: condensedEntries},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return content, nil
}

type questionsResult struct {
	Questions []string `json:"questions"`
}

// GenerateQuestions возвращает три вопроса для рефлексии по последним записям.
func (c *Client) GenerateQuestions(ctx context.Context, recentEntries string) ([]string, error) {
	const op = "llm.GenerateQuestions"

	content, err := c.chat(ctx, openai.ChatCompletionRequest{
		Model:       chatModel,
		Temperature: 0.8,
		MaxTokens:   300,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "Ты внимательный собеседник, помогающий вести дневник. " +
					"По последним записям предложи три коротких открытых вопроса для рефлексии. " +
					"Отвечай JSON: {\"questions\": [...]}.",
			},
			{Role: openai.ChatMessageRoleUser, Content: recentEntries},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var result questionsResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result.Questions, nil
}

// GenerateCharacteristic строит JSON-профиль пользователя по его записям.
func (c *Client) GenerateCharacteristic(ctx context.Context, condensedEntries string) (string, error) {
	const op = "llm.GenerateCharacteristic"

	content, err := c.chat(ctx, openai.ChatCompletionRequest{
		Model:       chatModel,
		Temperature: 0.5,
		MaxTokens:   800,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "Build a psychological profile of the diary author. " +
					"Respond with JSON: {\"traits\": [...], \"values\": [...], " +
					"\"stressors\": [...], \"coping\": [...], \"summary\": \"...\"}.",
			},
			{Role: openai.ChatMessageRoleUser, Content: condensedEntries},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return content, nil
}

// Transcribe расшифровывает аудиозапись в текст через Whisper.
func (c *Client) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	const op = "llm.Transcribe"

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    transcriptionModel,
		FilePath: filename,
		Reader:   audio,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return strings.TrimSpace(resp.Text), nil
}
