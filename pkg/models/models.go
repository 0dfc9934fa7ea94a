// Package models defines the salon domain entities persisted to both the
// primary PostgreSQL store and the SurrealDB mirror.
//
// Identity is owned by the primary store: every entity carries an int64 ID
// assigned by PostgreSQL on insert, and the mirror must file its copy under
// the same value. The structs double as GORM models (struct tags drive schema
// migration) and as mirror documents (the surrealcbor codec honors the json
// tags, so both stores agree on field names).
package models

import "time"

// Record is implemented by every entity so the dual-store adapter can read
// the identifier assigned by the primary store.
type Record interface {
	PrimaryID() int64
}

// User is a privileged staff account. Password holds the bcrypt hash and is
// never serialized. Disabled accounts keep their data but cannot log in.
type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null" json:"username"`
	Password  string    `gorm:"not null" json:"-"`
	Enabled   bool      `gorm:"not null" json:"enabled"`
	Name      string    `gorm:"not null" json:"name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u User) PrimaryID() int64 { return u.ID }

// Customer is a salon client.
type Customer struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c Customer) PrimaryID() int64 { return c.ID }

// Stylist is a member of staff who takes appointments.
type Stylist struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Specialty string    `json:"specialty,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s Stylist) PrimaryID() int64 { return s.ID }

// Profile carries the public presentation of a staff account.
type Profile struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;index" json:"user_id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p Profile) PrimaryID() int64 { return p.ID }

// Appointment books a customer with a stylist for a named service. Date is an
// ISO calendar date (2006-01-02) and Time a wall-clock slot (15:04); both are
// kept as strings so the demand aggregation can group on them directly.
type Appointment struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID int64     `gorm:"not null;index" json:"customer_id"`
	StylistID  int64     `gorm:"not null;index" json:"stylist_id"`
	Service    string    `gorm:"not null" json:"service"`
	Date       string    `gorm:"type:date;not null;index" json:"date"`
	Time       string    `gorm:"not null" json:"time"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (a Appointment) PrimaryID() int64 { return a.ID }

// Earning records the revenue taken for a completed appointment.
type Earning struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AppointmentID int64     `gorm:"not null;index" json:"appointment_id"`
	Amount        float64   `gorm:"not null" json:"amount"`
	Date          string    `gorm:"type:date;not null;index" json:"date"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (e Earning) PrimaryID() int64 { return e.ID }

// ServiceOffering is an entry in the salon's service catalogue.
type ServiceOffering struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name            string    `gorm:"not null" json:"name"`
	Price           float64   `gorm:"not null" json:"price"`
	DurationMinutes int       `json:"duration_minutes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (s ServiceOffering) PrimaryID() int64 { return s.ID }

// TableName maps ServiceOffering onto the services table shared with the
// mirror store.
func (ServiceOffering) TableName() string { return "services" }
