package customers

import "time"

type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CPFCNPJ   *string   `json:"cpfCnpj,omitempty"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
}
