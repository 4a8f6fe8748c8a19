package models

// User is a registered account. The password hash never leaves the server.
type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
}

// Product belongs to exactly one owner. Private products are visible only to
// that owner.
type Product struct {
	ID       uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string  `gorm:"not null"                 json:"name"`
	Category string  `json:"category,omitempty"`
	Price    float64 `gorm:"not null"                 json:"price"`
	IsPublic bool    `gorm:"default:false"            json:"isPublic"`
	OwnerID  uint    `gorm:"index;not null"           json:"ownerId"`
	Owner    *User   `gorm:"foreignKey:OwnerID"       json:"owner,omitempty"`
}
