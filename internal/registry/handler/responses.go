package handler

import (
	"time"

	contract "studioreg/contracts/registry"
	"studioreg/pkg/platform/audit"
)

func toAuditResponse(events []audit.Event) contract.AuditResponse {
	out := make([]contract.AuditEvent, 0, len(events))
	for _, e := range events {
		out = append(out, contract.AuditEvent{
			ID:        e.ID.String(),
			Category:  string(e.Category),
			Action:    e.Action,
			Subject:   e.Subject,
			ActorID:   e.ActorID,
			Decision:  e.Decision,
			Reason:    e.Reason,
			RequestID: e.RequestID,
			Timestamp: e.Timestamp.UTC().Format(time.RFC3339Nano),
		})
	}
	return contract.AuditResponse{Events: out}
}
