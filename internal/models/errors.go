package models

import "errors"

// Sentinel errors shared by every store implementation.
var (
	ErrSurveyExists     = errors.New("survey already exists")
	ErrSurveyNotFound   = errors.New("survey not found")
	ErrQuestionExists   = errors.New("question id already used in survey")
	ErrQuestionNotFound = errors.New("question not found")
)
