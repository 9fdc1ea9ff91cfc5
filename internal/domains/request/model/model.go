package model

import "lendit/shared/model"

const (
	TableName  = "item_requests"
	EntityName = "item_request"

	FieldID          = "id"
	FieldDescription = "description"
	FieldRequesterID = "requester_id"
)

type ItemRequest struct {
	ID          string `db:"id"`
	Description string `db:"description"`
	RequesterID string `db:"requester_id"`
	model.Metadata
}
