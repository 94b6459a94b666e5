package db

import "time"

type AccountModel struct {
	Identity    string    `gorm:"primaryKey;type:text"`
	KeyMaterial []byte    `gorm:"type:bytea;not null"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (AccountModel) TableName() string {
	return "accounts"
}

type DocumentModel struct {
	ID    string `gorm:"type:uuid;primaryKey"`
	Name  string `gorm:"not null"`
	Owner string `gorm:"index;not null"`
	// SharedWith is the delimiter-encoded sharing list; see sharelist.go.
	// The encoding never leaves this package.
	SharedWith string    `gorm:"not null;default:''"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (DocumentModel) TableName() string {
	return "documents"
}
