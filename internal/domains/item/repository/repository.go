package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"

	"lendit/infras/otel"
	"lendit/infras/postgres"
	"lendit/internal/domains/item/model"
	gDto "lendit/shared/dto"
	gRepo "lendit/shared/repository"
)

type Item interface {
	Insert(ctx context.Context, model model.Item) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Item, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Item, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
}

type itemRepositoryImpl struct {
	gRepo.Repository[model.Item]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Item {
	return &itemRepositoryImpl{
		Repository: gRepo.NewRepository[model.Item](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

type Comment interface {
	Insert(ctx context.Context, model model.Comment) error
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Comment, error)
}

type commentRepositoryImpl struct {
	gRepo.Repository[model.Comment]
	db   *postgres.Connection
	otel otel.Otel
}

func NewComment(db *postgres.Connection, otel otel.Otel) Comment {
	return &commentRepositoryImpl{
		Repository: gRepo.NewRepository[model.Comment](model.CommentEntityName, model.CommentTableName, model.CommentFieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}
