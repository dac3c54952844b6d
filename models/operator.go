package models

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Operator is a dashboard account.
type Operator struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;size:120;not null"`
	Name         string `gorm:"size:80;not null"`
	PasswordHash string `gorm:"size:255;not null"`
}

func (o *Operator) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	o.PasswordHash = string(hash)
	return nil
}

func (o *Operator) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(o.PasswordHash), []byte(password))
	return err == nil
}
