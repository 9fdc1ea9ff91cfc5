package dto

import (
	"github.com/google/uuid"

	itemDto "lendit/internal/domains/item/model/dto"
	"lendit/internal/domains/request/model"
	"lendit/shared"
	gDto "lendit/shared/dto"
	gModel "lendit/shared/model"
	"lendit/shared/timezone"
)

type CreateRequestRequest struct {
	Description string `json:"description" validate:"required,max=500"`
}

func (c *CreateRequestRequest) ToModel(requesterID string) model.ItemRequest {
	return model.ItemRequest{
		ID:          uuid.NewString(),
		Description: c.Description,
		RequesterID: requesterID,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  requesterID,
			ModifiedBy: requesterID,
		},
	}
}

// RequestResponse is a request-board post together with the items offered
// against it.
type RequestResponse struct {
	ID          string                 `json:"id"`
	Description string                 `json:"description"`
	RequesterID string                 `json:"requester_id"`
	Items       []itemDto.ItemResponse `json:"items"`
	gDto.Metadata
}

func (r *RequestResponse) FromModel(model model.ItemRequest) {
	r.ID = model.ID
	r.Description = model.Description
	r.RequesterID = model.RequesterID
	r.Items = []itemDto.ItemResponse{}
	r.Metadata.FromModel(model.Metadata)
}

type GetRequestsResponse struct {
	Requests  []RequestResponse `json:"requests"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetRequestsResponse) FromModels(models []model.ItemRequest, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Requests = make([]RequestResponse, len(models))
	for i, mod := range models {
		r.Requests[i].FromModel(mod)
	}
}
