package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"

	"lendit/infras/otel"
	"lendit/infras/postgres"
	"lendit/internal/domains/request/model"
	gDto "lendit/shared/dto"
	gRepo "lendit/shared/repository"
)

type ItemRequest interface {
	Insert(ctx context.Context, model model.ItemRequest) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.ItemRequest, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.ItemRequest, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.ItemRequest]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) ItemRequest {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.ItemRequest](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}
