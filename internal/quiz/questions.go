package quiz

import (
	"crypto/sha1"
	"encoding/hex"
	"html"
	"math/rand/v2"
	"strings"

	"quiz-launcher/internal/opentdb"
)

type Option struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

// Question is a fetched trivia item ready for the quiz runner. Options is
// filled once by BuildQuestions and never reshuffled.
type Question struct {
	QuestionID       string     `json:"question_id"`
	Category         string     `json:"category,omitempty"`
	Type             string     `json:"type,omitempty"`
	Difficulty       Difficulty `json:"difficulty,omitempty"`
	Text             string     `json:"question"`
	CorrectAnswer    string     `json:"correct_answer"`
	IncorrectAnswers []string   `json:"incorrect_answers"`
	Options          []Option   `json:"options"`
	CorrectIndex     int        `json:"correct_index"`
}

func BuildQuestions(raw []opentdb.RawQuestion) []Question {
	questions := make([]Question, 0, len(raw))
	for _, item := range raw {
		question := buildQuestion(item)
		question.QuestionID = MakeQuestionID(question)
		questions = append(questions, question)
	}
	return questions
}

// OptionTexts returns the option texts in display order.
func (q Question) OptionTexts() []string {
	texts := make([]string, len(q.Options))
	for idx, option := range q.Options {
		texts[idx] = option.Text
	}
	return texts
}

func MakeQuestionID(question Question) string {
	var keyBuilder strings.Builder
	keyBuilder.WriteString(question.Text)
	for _, option := range question.Options {
		keyBuilder.WriteString("|")
		keyBuilder.WriteString(option.Text)
	}

	hash := sha1.Sum([]byte(keyBuilder.String()))
	return "q_" + hex.EncodeToString(hash[:6])
}

func buildQuestion(raw opentdb.RawQuestion) Question {
	type choice struct {
		text      string
		isCorrect bool
	}

	correct := html.UnescapeString(raw.CorrectAnswer)
	incorrect := make([]string, 0, len(raw.IncorrectAnswers))
	choices := make([]choice, 0, len(raw.IncorrectAnswers)+1)
	choices = append(choices, choice{text: correct, isCorrect: true})
	for _, item := range raw.IncorrectAnswers {
		text := html.UnescapeString(item)
		incorrect = append(incorrect, text)
		choices = append(choices, choice{text: text})
	}

	rand.Shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
	})

	options := make([]Option, len(choices))
	correctIndex := -1

	for idx, candidate := range choices {
		options[idx] = Option{
			Letter: string(rune('A' + idx)),
			Text:   candidate.text,
		}
		if candidate.isCorrect && correctIndex < 0 {
			correctIndex = idx
		}
	}

	return Question{
		Category:         html.UnescapeString(raw.Category),
		Type:             raw.Type,
		Difficulty:       Difficulty(raw.Difficulty),
		Text:             html.UnescapeString(raw.Question),
		CorrectAnswer:    correct,
		IncorrectAnswers: incorrect,
		Options:          options,
		CorrectIndex:     correctIndex,
	}
}
