package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"

	"lendit/infras/otel"
	"lendit/infras/postgres"
	"lendit/internal/domains/user/model"
	gDto "lendit/shared/dto"
	gRepo "lendit/shared/repository"
)

type User interface {
	Insert(ctx context.Context, model model.User) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.User, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.User, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
}

type repositoryImpl struct {
	gRepo.Repository[model.User]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) User {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.User](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}
