package entities

import (
	"errors"
	"time"
)

// Device represents a registered desktop client installation
type Device struct {
	ID           string    `json:"id" bson:"_id,omitempty"`
	SerialNumber string    `json:"serial_number" bson:"serial_number"`
	SecretKey    string    `json:"-" bson:"secret_key"`
	Platform     string    `json:"platform" bson:"platform"`
	OwnerID      *string   `json:"owner_id" bson:"owner_id"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// User represents an account holder
type User struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	Email     string    `json:"email" bson:"email"`
	Name      string    `json:"name" bson:"name"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	return nil
}

func (d *Device) Validate() error {
	if d.SerialNumber == "" {
		return errors.New("serial number is required")
	}
	return nil
}
