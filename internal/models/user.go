package models

import (
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

var validate = validator.New()

// User represents a row of the users table.
type User struct {
	ID       uint    `json:"id" gorm:"primaryKey;autoIncrement"`
	Username string  `json:"username" gorm:"type:varchar(255);not null" validate:"required"`
	Email    string  `json:"email" gorm:"type:varchar(255);not null" validate:"required"`
	Password *string `json:"password" gorm:"type:varchar(255)"` // nullable, serialized as null when unset
}

// TableName pins the table name so it does not depend on GORM's naming strategy.
func (User) TableName() string {
	return "users"
}

// Validate checks the required fields of the record.
func (u *User) Validate() error {
	return validate.Struct(u)
}

// BeforeSave runs on create and update so required-field violations are
// reported by the store layer like any other constraint failure.
func (u *User) BeforeSave(tx *gorm.DB) error {
	return u.Validate()
}
