package management

import (
	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/pipeline"
	"leadflow_backend/internal/leads/transport"
)

// ToLeadResponse converts a domain lead to its API representation.
func ToLeadResponse(lead domain.Lead) transport.LeadResponse {
	interests := lead.ProductInterest
	if interests == nil {
		interests = []string{}
	}
	history := make([]transport.StatusChangeResponse, 0, len(lead.ChangeHistory))
	for _, entry := range lead.ChangeHistory {
		history = append(history, transport.StatusChangeResponse{
			Timestamp:   entry.Timestamp,
			OldStatus:   string(entry.OldStatus),
			NewStatus:   string(entry.NewStatus),
			Reason:      entry.Reason,
			Description: entry.Description,
			NextStep:    entry.NextStep,
			ActorID:     entry.ActorID,
		})
	}

	return transport.LeadResponse{
		ID:                   lead.ID,
		OrganizationID:       lead.OrganizationID,
		BranchID:             lead.BranchID,
		AssignedTo:           lead.AssignedTo,
		CreatedBy:            lead.CreatedBy,
		Source:               lead.Source,
		Status:               string(lead.Status),
		Temperature:          string(lead.Temperature),
		Priority:             string(lead.Priority),
		LifecycleStage:       lead.LifecycleStage,
		CompanySize:          lead.CompanySize,
		Industry:             lead.Industry,
		ContactRole:          lead.ContactRole,
		BudgetAmount:         lead.BudgetAmount,
		PurchaseTimelineDays: lead.PurchaseTimelineDays,
		ProductInterest:      interests,
		Qualification: transport.QualificationDTO{
			BudgetConfirmed:    lead.Qualification.BudgetConfirmed,
			AuthorityConfirmed: lead.Qualification.AuthorityConfirmed,
			NeedConfirmed:      lead.Qualification.NeedConfirmed,
			TimelineConfirmed:  lead.Qualification.TimelineConfirmed,
		},
		ContentEngagement: transport.ContentEngagementDTO{
			EmailOpens:       lead.ContentEngagement.EmailOpens,
			EmailClicks:      lead.ContentEngagement.EmailClicks,
			WebsiteVisits:    lead.ContentEngagement.WebsiteVisits,
			ContentDownloads: lead.ContentEngagement.ContentDownloads,
			EventAttendances: lead.ContentEngagement.EventAttendances,
		},
		LeadScore:             lead.LeadScore,
		Score:                 toScoreBreakdown(lead.ScoringData),
		StatusHistory:         history,
		LastContactDate:       lead.LastContactDate,
		NextFollowUpDate:      lead.NextFollowUpDate,
		TotalInteractions:     lead.TotalInteractions,
		AverageResponseTime:   lead.AverageResponseTime,
		DaysSinceLastResponse: lead.DaysSinceLastResponse,
		CreatedAt:             lead.CreatedAt,
		UpdatedAt:             lead.UpdatedAt,
	}
}

// ToInteractionResponse converts a recorded interaction.
func ToInteractionResponse(it domain.Interaction) transport.InteractionResponse {
	return transport.InteractionResponse{
		ID:            it.ID,
		LeadID:        it.LeadID,
		Kind:          it.Kind,
		Direction:     it.Direction,
		ResponseHours: it.ResponseHours,
		OccurredAt:    it.OccurredAt,
		ActorID:       it.ActorID,
	}
}

// ToScorePreviewResponse converts an unsaved pipeline outcome.
func ToScorePreviewResponse(out pipeline.Outcome) transport.ScorePreviewResponse {
	return transport.ScorePreviewResponse{
		LeadID:           out.Lead.ID,
		Score:            out.Lead.LeadScore,
		Breakdown:        toScoreBreakdown(out.Lead.ScoringData),
		Factors:          out.Score.Factors,
		Temperature:      string(out.Lead.Temperature),
		Status:           string(out.Lead.Status),
		NextFollowUpDate: out.Lead.NextFollowUpDate,
	}
}

func toScoreBreakdown(s domain.ScoringData) transport.ScoreBreakdown {
	return transport.ScoreBreakdown{
		Engagement:     s.EngagementScore,
		Demographic:    s.DemographicScore,
		Behavioral:     s.BehavioralScore,
		Fit:            s.FitScore,
		LastCalculated: s.LastCalculated,
	}
}

func toQualification(q transport.QualificationDTO) domain.Qualification {
	return domain.Qualification{
		BudgetConfirmed:    q.BudgetConfirmed,
		AuthorityConfirmed: q.AuthorityConfirmed,
		NeedConfirmed:      q.NeedConfirmed,
		TimelineConfirmed:  q.TimelineConfirmed,
	}
}

func toContentEngagement(c transport.ContentEngagementDTO) domain.ContentEngagement {
	return domain.ContentEngagement{
		EmailOpens:       c.EmailOpens,
		EmailClicks:      c.EmailClicks,
		WebsiteVisits:    c.WebsiteVisits,
		ContentDownloads: c.ContentDownloads,
		EventAttendances: c.EventAttendances,
	}
}
