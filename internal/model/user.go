package model

import "time"

// User 描述一个注册用户。Password 存储 bcrypt 哈希，序列化时永不输出。
type User struct {
	ID        string    `gorm:"primaryKey;size:24" json:"id"`
	Name      string    `json:"name"`
	Email     string    `gorm:"uniqueIndex;size:255" json:"email"` // unique, case-sensitive as stored
	Password  string    `json:"-"`                                 // bcrypt hash, never serialized
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// UserPublic is the projection returned by register/login.
type UserPublic struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Public returns the caller-visible fields of u.
func (u *User) Public() UserPublic {
	return UserPublic{ID: u.ID, Name: u.Name, Email: u.Email}
}

// UserProfile is the projection returned by the me/profile endpoints.
type UserProfile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u *User) Profile() UserProfile {
	return UserProfile{Name: u.Name, Email: u.Email}
}
