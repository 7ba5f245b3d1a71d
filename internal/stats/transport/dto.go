package transport

import (
	"time"

	"github.com/google/uuid"
)

type OperatorLoadInfo struct {
	OperatorID        uuid.UUID `json:"operatorId"`
	Name              string    `json:"name"`
	IsActive          bool      `json:"isActive"`
	CurrentLoad       int       `json:"currentLoad"`
	MaxActiveContacts int       `json:"maxActiveContacts"`
}

type SystemStatsResponse struct {
	TotalOperators   int                `json:"totalOperators"`
	ActiveOperators  int                `json:"activeOperators"`
	TotalSources     int                `json:"totalSources"`
	ActiveSources    int                `json:"activeSources"`
	TotalLeads       int                `json:"totalLeads"`
	TotalContacts    int                `json:"totalContacts"`
	ActiveContacts   int                `json:"activeContacts"`
	ContactsByStatus map[string]int     `json:"contactsByStatus"`
	UnassignedActive int                `json:"unassignedActive"`
	Operators        []OperatorLoadInfo `json:"operators"`
	TakenAt          time.Time          `json:"takenAt"`
}

// OperatorShareInfo is one operator row in a source's distribution table.
// SharePercent is the operator's slice of the weighted draw among currently
// active operators; inactive operators show 0.
type OperatorShareInfo struct {
	OperatorID        uuid.UUID `json:"operatorId"`
	OperatorName      string    `json:"operatorName"`
	IsActive          bool      `json:"isActive"`
	Weight            int       `json:"weight"`
	SharePercent      float64   `json:"sharePercent"`
	CurrentLoad       int       `json:"currentLoad"`
	MaxActiveContacts int       `json:"maxActiveContacts"`
	ContactsReceived  int       `json:"contactsReceived"`
}

type SourceStatsResponse struct {
	SourceID         uuid.UUID           `json:"sourceId"`
	SourceName       string              `json:"sourceName"`
	SourceCode       string              `json:"sourceCode"`
	IsActive         bool                `json:"isActive"`
	TotalContacts    int                 `json:"totalContacts"`
	UnassignedActive int                 `json:"unassignedActive"`
	Operators        []OperatorShareInfo `json:"operators"`
	TakenAt          time.Time           `json:"takenAt"`
}
