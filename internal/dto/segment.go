package dto

// DefineSegmentRequest upserts the segment definition at one position.
type DefineSegmentRequest struct {
	Position       int    `json:"position" validate:"required,min=1"`
	Length         int    `json:"length" validate:"required,min=1,max=12"`
	Description    string `json:"description"`
	DefaultHandler string `json:"defaultHandler" validate:"omitempty"`
}

// CreateSegmentValueRequest creates a code under one segment definition.
type CreateSegmentValueRequest struct {
	SegmentDefinitionID string `json:"segmentDefinitionID" validate:"required"`
	Code                string `json:"code" validate:"required"`
	Description         string `json:"description"`
	IsActive            *bool  `json:"isActive"`
}

// UpdateSegmentValueRequest updates a value's code, description or active flag.
// A code change cascades to the descriptor of every account containing the value.
type UpdateSegmentValueRequest struct {
	Code        *string `json:"code"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}
