package models

// Requests for the control HTTP endpoints. Start takes no parameters: the
// strategy is fixed by configuration for the life of the process.

type StopRequest struct {
	Reason string `query:"reason" json:"reason" default:"operator request" validate:"max=256"`
}
