package api

import "mynahbackend/models"

// InteractRequestToDomainInteraction converts the request body to the pipeline input
func InteractRequestToDomainInteraction(req *InteractRequest) models.Interaction {
	return models.Interaction{
		SessionID: req.SessionID,
		DebtorID:  req.DebtorID,
		Message:   req.Message,
		Channel:   req.Channel,
		Locale:    req.Locale,
		Metadata:  req.Metadata,
	}
}

// DomainInteractionResultToAPIResponse converts a turn result to the API model.
// Empty next agent and awaiting tag are reported as null.
func DomainInteractionResultToAPIResponse(result *models.InteractionResult) *InteractResponse {
	if result == nil {
		return nil
	}

	agentPath := result.AgentPath
	if agentPath == nil {
		agentPath = []string{}
	}

	return &InteractResponse{
		SessionID:     result.SessionID,
		DebtorID:      result.DebtorID,
		Response:      result.Response,
		Status:        result.Status,
		AgentPath:     agentPath,
		Intent:        string(result.Intent),
		NextAgent:     optionalString(string(result.NextAgent)),
		AwaitingInput: optionalString(string(result.AwaitingInput)),
	}
}

// DomainSessionInfoToAPISession converts a domain SessionInfo to an API SessionModel
func DomainSessionInfoToAPISession(info *models.SessionInfo) *SessionModel {
	if info == nil {
		return nil
	}

	return &SessionModel{
		SessionID:     info.SessionID,
		DebtorID:      info.DebtorID,
		Intent:        string(info.Intent),
		AwaitingInput: string(info.AwaitingInput),
		Revision:      info.Revision,
		TTLSeconds:    int64(info.TTL.Seconds()),
		UpdatedAt:     info.UpdatedAt,
	}
}

// DomainSessionInfosToAPISessionList converts a slice of SessionInfo to the list model
func DomainSessionInfosToAPISessionList(infos []models.SessionInfo) *SessionListModel {
	sessions := make([]*SessionModel, len(infos))
	for i := range infos {
		sessions[i] = DomainSessionInfoToAPISession(&infos[i])
	}

	return &SessionListModel{
		Sessions: sessions,
		Count:    len(sessions),
	}
}

// DomainSessionStatsToAPIStats converts domain stats to the API model
func DomainSessionStatsToAPIStats(stats *models.SessionStats) *SessionStatsModel {
	if stats == nil {
		return nil
	}

	byIntent := make(map[string]int, len(stats.ByIntent))
	for intent, count := range stats.ByIntent {
		byIntent[string(intent)] = count
	}

	return &SessionStatsModel{
		Backend:       stats.Backend,
		TotalSessions: stats.TotalSessions,
		TTLSeconds:    int64(stats.TTL.Seconds()),
		ByIntent:      byIntent,
		AwaitingInput: stats.AwaitingInput,
		Verified:      stats.Verified,
		KeyPrefix:     stats.KeyPrefix,
	}
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
