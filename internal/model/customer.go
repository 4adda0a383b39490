package model

import "time"

// Customer represents a workshop customer persisted in the `customers`
// table. A customer owns zero or more vehicles; deleting a customer removes
// their vehicles through the schema's cascade rules, but deletion is refused
// while dependent repair jobs exist.
type Customer struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Vehicle represents a row in the `vehicles` table. Every vehicle belongs
// to exactly one customer and carries a unique registration plate.
type Vehicle struct {
	ID           uint64    `json:"id"`
	CustomerID   uint64    `json:"customer_id"`
	Make         string    `json:"make"`
	Model        string    `json:"model"`
	Registration string    `json:"registration"`
	Year         *int      `json:"year,omitempty"`
	Customer     *Customer `json:"customer,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
