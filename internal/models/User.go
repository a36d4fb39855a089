package models

import "gorm.io/gorm"

// User is a console account. Only admins can mutate the network;
// viewers get read-only access to the map data.
type User struct {
	gorm.Model
	Name     string `json:"name"`
	Email    string `json:"email" gorm:"unique"`
	Password string `json:"-"`
	Role     string `json:"role"` // "admin", "viewer"
}
