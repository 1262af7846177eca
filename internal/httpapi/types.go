package httpapi

import (
	"quiz-launcher/internal/quiz"
	"quiz-launcher/internal/session"
)

type optionsResponse struct {
	Categories     []quiz.Choice `json:"categories"`
	QuestionTypes  []quiz.Choice `json:"question_types"`
	QuestionCounts []int         `json:"question_counts"`
}

type sessionsResponse struct {
	Sessions []session.Started `json:"sessions"`
}

type errorResponse struct {
	Error string `json:"error"`
}
