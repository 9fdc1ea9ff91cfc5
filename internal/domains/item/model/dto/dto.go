package dto

import (
	"github.com/google/uuid"

	"lendit/internal/domains/item/model"
	"lendit/shared"
	gDto "lendit/shared/dto"
	gModel "lendit/shared/model"
	"lendit/shared/timezone"
)

type CreateItemRequest struct {
	Name        string  `json:"name"        validate:"required,max=100"`
	Description string  `json:"description" validate:"required,max=500"`
	Available   *bool   `json:"available"   validate:"required"`
	RequestID   *string `json:"request_id"  validate:"omitempty,uuid"`
}

func (c *CreateItemRequest) ToModel(ownerID string) model.Item {
	return model.Item{
		ID:          uuid.NewString(),
		Name:        c.Name,
		Description: c.Description,
		Available:   *c.Available,
		OwnerID:     ownerID,
		RequestID:   c.RequestID,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  ownerID,
			ModifiedBy: ownerID,
		},
	}
}

type UpdateItemRequest struct {
	Name        string `db:"name"        json:"name"        validate:"omitempty,max=100"`
	Description string `db:"description" json:"description" validate:"omitempty,max=500"`
	Available   *bool  `db:"available"   json:"available"`
}

func (u *UpdateItemRequest) IsEmpty() bool {
	return u.Name == "" && u.Description == "" && u.Available == nil
}

type ItemResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Available   bool    `json:"available"`
	OwnerID     string  `json:"owner_id"`
	RequestID   *string `json:"request_id,omitempty"`
	gDto.Metadata
}

func (r *ItemResponse) FromModel(model model.Item) {
	r.ID = model.ID
	r.Name = model.Name
	r.Description = model.Description
	r.Available = model.Available
	r.OwnerID = model.OwnerID
	r.RequestID = model.RequestID
	r.Metadata.FromModel(model.Metadata)
}

// ItemDetailResponse is the single-item view, enriched with its comments.
type ItemDetailResponse struct {
	ItemResponse
	Comments []CommentResponse `json:"comments"`
}

func (r *ItemDetailResponse) FromModels(item model.Item, comments []model.Comment) {
	r.ItemResponse.FromModel(item)

	r.Comments = make([]CommentResponse, len(comments))
	for i, comment := range comments {
		r.Comments[i].FromModel(comment)
	}
}

type GetItemsResponse struct {
	Items     []ItemResponse `json:"items"`
	TotalPage int            `json:"total_page"`
	TotalData int            `json:"total_data"`
}

func (r *GetItemsResponse) FromModels(models []model.Item, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Items = make([]ItemResponse, len(models))
	for i, mod := range models {
		r.Items[i].FromModel(mod)
	}
}

type CreateCommentRequest struct {
	Text string `json:"text" validate:"required,max=1000"`
}

func (c *CreateCommentRequest) ToModel(itemID, authorID string) model.Comment {
	return model.Comment{
		ID:       uuid.NewString(),
		ItemID:   itemID,
		AuthorID: authorID,
		Text:     c.Text,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  authorID,
			ModifiedBy: authorID,
		},
	}
}

type CommentResponse struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	AuthorName string `json:"author_name"`
	gDto.Metadata
}

func (r *CommentResponse) FromModel(model model.Comment) {
	r.ID = model.ID
	r.Text = model.Text
	r.AuthorName = model.AuthorName
	r.Metadata.FromModel(model.Metadata)
}
