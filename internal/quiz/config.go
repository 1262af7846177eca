package quiz

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	AnyCategory = "0"
	AnyType     = "0"

	TypeMultiple = "multiple"
	TypeBoolean  = "boolean"

	MinQuestionCount  = 5
	MaxQuestionCount  = 50
	QuestionCountStep = 5
)

var (
	ErrUnknownCategory      = errors.New("unknown quiz category")
	ErrUnknownQuestionType  = errors.New("unknown question type")
	ErrInvalidQuestionCount = errors.New("invalid number of questions")
)

// Config is the user's quiz selection. Category and Type use the trivia API ids.
type Config struct {
	Category      string `json:"category"`
	QuestionCount int    `json:"question_count"`
	QuestionType  string `json:"question_type"`
}

func DefaultConfig() Config {
	return Config{
		Category:      AnyCategory,
		QuestionCount: MinQuestionCount,
		QuestionType:  AnyType,
	}
}

// Complete reports whether every field has been chosen.
func (c Config) Complete() bool {
	return c.Category != "" && c.QuestionCount > 0 && c.QuestionType != ""
}

func (c Config) Validate() error {
	if c.Category != "" {
		if _, ok := categoryNames[c.Category]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownCategory, c.Category)
		}
	}
	if c.QuestionType != "" {
		if _, ok := typeNames[c.QuestionType]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownQuestionType, c.QuestionType)
		}
	}
	if c.QuestionCount != 0 && !validQuestionCount(c.QuestionCount) {
		return fmt.Errorf("%w: %d", ErrInvalidQuestionCount, c.QuestionCount)
	}
	return nil
}

type Choice struct {
	Value string `json:"value"`
	Text  string `json:"text"`
}

var categories = []Choice{
	{Value: AnyCategory, Text: "Any Category"},
	{Value: "9", Text: "General Knowledge"},
	{Value: "10", Text: "Entertainment: Books"},
	{Value: "11", Text: "Entertainment: Film"},
	{Value: "12", Text: "Entertainment: Music"},
	{Value: "13", Text: "Entertainment: Musicals & Theatres"},
	{Value: "14", Text: "Entertainment: Television"},
	{Value: "15", Text: "Entertainment: Video Games"},
	{Value: "16", Text: "Entertainment: Board Games"},
	{Value: "17", Text: "Science & Nature"},
	{Value: "18", Text: "Science: Computers"},
	{Value: "19", Text: "Science: Mathematics"},
	{Value: "20", Text: "Mythology"},
	{Value: "21", Text: "Sports"},
	{Value: "22", Text: "Geography"},
	{Value: "23", Text: "History"},
	{Value: "24", Text: "Politics"},
	{Value: "25", Text: "Art"},
	{Value: "26", Text: "Celebrities"},
	{Value: "27", Text: "Animals"},
	{Value: "28", Text: "Vehicles"},
	{Value: "29", Text: "Entertainment: Comics"},
	{Value: "30", Text: "Science: Gadgets"},
	{Value: "31", Text: "Entertainment: Japanese Anime & Manga"},
	{Value: "32", Text: "Entertainment: Cartoon & Animations"},
}

var questionTypes = []Choice{
	{Value: AnyType, Text: "Any Type"},
	{Value: TypeMultiple, Text: "Multiple Choice"},
	{Value: TypeBoolean, Text: "True / False"},
}

var (
	categoryNames = indexChoices(categories)
	typeNames     = indexChoices(questionTypes)
)

func Categories() []Choice {
	return append([]Choice(nil), categories...)
}

func QuestionTypes() []Choice {
	return append([]Choice(nil), questionTypes...)
}

func QuestionCounts() []int {
	counts := make([]int, 0, MaxQuestionCount/QuestionCountStep)
	for n := MinQuestionCount; n <= MaxQuestionCount; n += QuestionCountStep {
		counts = append(counts, n)
	}
	return counts
}

// CategoryName returns the display name for id, or id itself when unknown.
func CategoryName(id string) string {
	if name, ok := categoryNames[id]; ok {
		return name
	}
	return id
}

// QuestionTypeName returns the display name for id, or id itself when unknown.
func QuestionTypeName(id string) string {
	if name, ok := typeNames[id]; ok {
		return name
	}
	return id
}

// ParseQuestionCount parses and range-checks a question count.
func ParseQuestionCount(value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || !validQuestionCount(n) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuestionCount, value)
	}
	return n, nil
}

func validQuestionCount(n int) bool {
	return n >= MinQuestionCount && n <= MaxQuestionCount && n%QuestionCountStep == 0
}

func indexChoices(choices []Choice) map[string]string {
	index := make(map[string]string, len(choices))
	for _, choice := range choices {
		index[choice.Value] = choice.Text
	}
	return index
}
