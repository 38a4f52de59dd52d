package customers

type CreateCustomerRequest struct {
	Name    string  `json:"name" validate:"required,max=200"`
	CPFCNPJ *string `json:"cpfCnpj,omitempty" validate:"omitempty,min=11,max=18"`
	Email   string  `json:"email" validate:"omitempty,email"`
	Phone   string  `json:"phone" validate:"max=50"`
	Address string  `json:"address" validate:"max=300"`
}

type UpdateCustomerRequest struct {
	Name    string  `json:"name" validate:"required,max=200"`
	CPFCNPJ *string `json:"cpfCnpj,omitempty" validate:"omitempty,min=11,max=18"`
	Email   string  `json:"email" validate:"omitempty,email"`
	Phone   string  `json:"phone" validate:"max=50"`
	Address string  `json:"address" validate:"max=300"`
}

type ListCustomersRequest struct {
	Search string
	Limit  int
	Offset int
}
