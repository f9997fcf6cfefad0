package services

import "github.com/soaringjerry/surveyd/internal/models"

const msgSurveyOwnerOnly = "Admins or the survey owner only."

// AuthorizeSurvey decides whether a caller may manage sv. A nil survey is
// reported as not found before any ownership check.
func AuthorizeSurvey(sv *models.Survey, uid string, admin bool) error {
	if sv == nil {
		return NewNotFoundError(msgSurveyNotFound)
	}
	if !admin && sv.OwnerID != uid {
		return NewForbiddenError(msgSurveyOwnerOnly)
	}
	return nil
}
