package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/zatekoja/waitwise/backend/internal/domain/entities"
	"github.com/zatekoja/waitwise/backend/internal/domain/repositories"
	"github.com/zatekoja/waitwise/backend/internal/infrastructure/observability"
)

// Keyword lists are scanned in order; the first match wins.
var (
	highUrgencyKeywords = []string{
		"chest pain",
		"difficulty breathing",
		"severe bleeding",
		"unconscious",
		"stroke",
		"heart attack",
		"severe allergic reaction",
		"seizure",
		"severe burns",
		"major trauma",
		"broken bone",
		"head injury",
	}

	mediumUrgencyKeywords = []string{
		"high fever",
		"persistent vomiting",
		"severe pain",
		"infection",
		"deep cut",
		"sprain",
		"migraine",
		"asthma attack",
		"allergic reaction",
		"abdominal pain",
		"urinary issues",
		"eye injury",
	}
)

// Assessment is the outcome of classifying a symptom description
type Assessment struct {
	Urgency        entities.UrgencyLevel `json:"urgency_level"`
	Reasons        []string              `json:"reasons"`
	MatchedKeyword string                `json:"matched_keyword,omitempty"`
}

// Classify maps free-text symptoms to an urgency tier
func Classify(symptoms string) entities.UrgencyLevel {
	return Assess(symptoms).Urgency
}

// Assess classifies symptoms and explains the decision
func Assess(symptoms string) Assessment {
	normalized := strings.ToLower(symptoms)

	if keyword, ok := firstMatch(normalized, highUrgencyKeywords); ok {
		return Assessment{
			Urgency:        entities.UrgencyHigh,
			MatchedKeyword: keyword,
			Reasons: []string{
				"High risk symptoms detected",
				fmt.Sprintf("Reported %q", keyword),
			},
		}
	}

	if keyword, ok := firstMatch(normalized, mediumUrgencyKeywords); ok {
		return Assessment{
			Urgency:        entities.UrgencyMedium,
			MatchedKeyword: keyword,
			Reasons: []string{
				"Moderate symptoms detected",
				fmt.Sprintf("Reported %q", keyword),
			},
		}
	}

	return Assessment{
		Urgency: entities.UrgencyLow,
		Reasons: []string{"No high or moderate risk symptoms detected"},
	}
}

func firstMatch(text string, keywords []string) (string, bool) {
	if text == "" {
		return "", false
	}
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return keyword, true
		}
	}
	return "", false
}

// TriageService classifies symptoms and records the result on the patient
type TriageService struct {
	users   repositories.UserRepository
	metrics *observability.QueueMetrics
	logger  zerolog.Logger
}

// NewTriageService creates a new triage service
func NewTriageService(users repositories.UserRepository, metrics *observability.QueueMetrics, logger zerolog.Logger) *TriageService {
	return &TriageService{
		users:   users,
		metrics: metrics,
		logger:  logger,
	}
}

// Triage assesses symptoms. When userID is set the user must exist and
// their urgency level is updated.
func (s *TriageService) Triage(ctx context.Context, userID, symptoms string) (Assessment, error) {
	if userID != "" {
		if _, err := s.users.GetByID(ctx, userID); err != nil {
			return Assessment{}, err
		}
	}

	assessment := Assess(symptoms)

	if userID != "" {
		if err := s.users.UpdateUrgency(ctx, userID, assessment.Urgency); err != nil {
			return Assessment{}, err
		}
	}

	s.metrics.ObserveTriage(string(assessment.Urgency))
	s.logger.Info().
		Str("user_id", userID).
		Str("urgency", string(assessment.Urgency)).
		Str("matched_keyword", assessment.MatchedKeyword).
		Msg("Symptoms triaged")

	return assessment, nil
}
