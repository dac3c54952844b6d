package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"SupportChat/models"
	utils "SupportChat/pkg/utills"

	"gorm.io/gorm"
)

var (
	ErrOperatorExists   = errors.New("email already exists")
	ErrOperatorNotFound = errors.New("operator not found")
	ErrWeakPassword     = errors.New("password must be at least 8 characters and contain a letter and a number")
	ErrMissingFields    = errors.New("email, name, and password are required")
)

const MinPasswordLength = 8

// ValidPassword requires MinPasswordLength characters with at least one
// letter and one digit.
func ValidPassword(password string) bool {
	return utf8.RuneCountInString(password) >= MinPasswordLength &&
		utils.HasLetter(password) && utils.HasNumber(password)
}

// CreateOperator adds a dashboard account.
func CreateOperator(ctx context.Context, db *gorm.DB, email, name, password string) (*models.Operator, error) {
	email = utils.NormalizeEmail(email)
	name = strings.TrimSpace(name)
	if email == "" || name == "" || password == "" {
		return nil, ErrMissingFields
	}
	if !utils.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if !ValidPassword(password) {
		return nil, ErrWeakPassword
	}

	var exists models.Operator
	err := db.WithContext(ctx).Where("email = ?", email).First(&exists).Error
	if err == nil {
		return nil, ErrOperatorExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("error checking operator: %w", err)
	}

	op := models.Operator{Email: email, Name: name}
	if err := op.SetPassword(password); err != nil {
		return nil, fmt.Errorf("failed to set password: %w", err)
	}
	if err := db.WithContext(ctx).Create(&op).Error; err != nil {
		return nil, fmt.Errorf("failed to create operator: %w", err)
	}
	return &op, nil
}

// Authenticate returns the operator whose email and password match.
func Authenticate(ctx context.Context, db *gorm.DB, email, password string) (*models.Operator, error) {
	var op models.Operator
	err := db.WithContext(ctx).Where("email = ?", utils.NormalizeEmail(email)).First(&op).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOperatorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error loading operator: %w", err)
	}
	if !op.CheckPassword(password) {
		return nil, ErrOperatorNotFound
	}
	return &op, nil
}
