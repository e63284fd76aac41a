package order

// UpdateStatusRequest payload of PUT /api/orders/{id}/status.
// swagger:model UpdateStatusRequest
type UpdateStatusRequest struct {
	Status Status `json:"status" example:"ready"`
	Notes  string `json:"notes,omitempty" example:"plated"`
}
