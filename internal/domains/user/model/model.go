package model

import "lendit/shared/model"

const (
	TableName  = "users"
	EntityName = "user"

	FieldID    = "id"
	FieldName  = "name"
	FieldEmail = "email"
)

type User struct {
	ID    string `db:"id"`
	Name  string `db:"name"`
	Email string `db:"email"`
	model.Metadata
}
