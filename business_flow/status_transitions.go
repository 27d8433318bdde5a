package businessflow

import (
	"github.com/amirphl/webbuilder-crm/models"
)

// leadTransitions is the forward pipeline. Anything else needs a staff override.
var leadTransitions = map[models.LeadStatus]map[models.LeadStatus]bool{
	models.LeadStatusNew: {
		models.LeadStatusContacted:  true,
		models.LeadStatusClosedLost: true,
	},
	models.LeadStatusContacted: {
		models.LeadStatusQualified:  true,
		models.LeadStatusClosedLost: true,
	},
	models.LeadStatusQualified: {
		models.LeadStatusProposal:   true,
		models.LeadStatusClosedLost: true,
	},
	models.LeadStatusProposal: {
		models.LeadStatusClosedWon:  true,
		models.LeadStatusClosedLost: true,
	},
	models.LeadStatusClosedWon:  {},
	models.LeadStatusClosedLost: {},
}

// quoteTransitions covers stored statuses; expired is reached by time, never by request
var quoteTransitions = map[models.QuoteStatus]map[models.QuoteStatus]bool{
	models.QuoteStatusDraft: {
		models.QuoteStatusSent: true,
	},
	models.QuoteStatusSent: {
		models.QuoteStatusDraft:    true,
		models.QuoteStatusAccepted: true,
		models.QuoteStatusRejected: true,
	},
	models.QuoteStatusAccepted: {},
	models.QuoteStatusRejected: {},
	models.QuoteStatusExpired:  {},
}

// LeadTransitionKind classifies a requested lead status change
type LeadTransitionKind int

const (
	LeadTransitionNone LeadTransitionKind = iota
	LeadTransitionForward
	LeadTransitionOverride
)

// CanTransitionLead reports whether from -> to follows the forward pipeline
func CanTransitionLead(from, to models.LeadStatus) bool {
	return leadTransitions[from][to]
}

// ClassifyLeadTransition validates a lead status change.
// Changes outside the pipeline are rejected unless override is set.
func ClassifyLeadTransition(from, to models.LeadStatus, override bool) (LeadTransitionKind, error) {
	if !to.Valid() {
		return LeadTransitionNone, ErrInvalidLeadStatus
	}
	if from == to {
		return LeadTransitionNone, nil
	}
	if CanTransitionLead(from, to) {
		return LeadTransitionForward, nil
	}
	if override {
		return LeadTransitionOverride, nil
	}
	return LeadTransitionNone, ErrInvalidTransition
}

// CanTransitionQuote reports whether a quote in effective status from may move to to
func CanTransitionQuote(from, to models.QuoteStatus) bool {
	return quoteTransitions[from][to]
}

// AllowedLeadTransitions lists the forward targets from a status
func AllowedLeadTransitions(from models.LeadStatus) []models.LeadStatus {
	var out []models.LeadStatus
	for _, s := range models.LeadStatuses {
		if leadTransitions[from][s] {
			out = append(out, s)
		}
	}
	return out
}
