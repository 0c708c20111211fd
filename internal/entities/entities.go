package entities

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"size:256" json:"name"`
	Username     string         `gorm:"uniqueIndex;size:100" json:"username"`
	Email        string         `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash string         `gorm:"size:100" json:"-"` // bcrypt hash, never serialized
	Age          int            `json:"age,omitempty"`
	College      string         `gorm:"size:256" json:"college,omitempty"`
	Role         UserRole       `gorm:"size:20;default:'user'" json:"role"`

	FailedLoginCount int        `gorm:"default:0" json:"-"`
	LockedUntil      *time.Time `json:"-"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

type Book struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Title           string     `gorm:"index;size:512" json:"title"`
	Author          string     `gorm:"index;size:256" json:"author"`
	Genre           string     `gorm:"size:100" json:"genre,omitempty"`
	PublicationDate *time.Time `json:"publication_date,omitempty"`
	Description     string     `gorm:"type:text" json:"description,omitempty"`

	Copies []Copy `gorm:"foreignKey:BookID" json:"copies,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Copy is one lendable instance of a Book. Available must only be flipped in
// lockstep with creating or closing a Loan; the issuance engine owns that
// transition.
type Copy struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	BookID    uint   `gorm:"index" json:"book_id"`
	Label     string `gorm:"uniqueIndex;size:100" json:"label"`
	Available bool   `gorm:"default:true" json:"available"`

	Book Book `gorm:"foreignKey:BookID" json:"book,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Loan records one borrowing event. A loan is open while ReturnDate is nil;
// at most one open loan may exist per copy at any time.
type Loan struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"index" json:"user_id"`
	BookID uint `gorm:"index" json:"book_id"`
	CopyID uint `gorm:"index" json:"copy_id"`

	IssueDate         time.Time  `json:"issue_date"`
	DueDate           *time.Time `gorm:"index" json:"due_date,omitempty"`
	ReturnDate        *time.Time `json:"return_date,omitempty"`
	OverdueNotifiedAt *time.Time `json:"overdue_notified_at,omitempty"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Book Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
	Copy Copy `gorm:"foreignKey:CopyID" json:"copy,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Open reports whether the loan has not been returned yet.
func (l *Loan) Open() bool {
	return l.ReturnDate == nil
}

func (User) TableName() string {
	return "users"
}

func (Book) TableName() string {
	return "books"
}

func (Copy) TableName() string {
	return "copies"
}

func (Loan) TableName() string {
	return "loans"
}
