package application

type StartSessionCommand struct {
	Email      string `validate:"required,email"`
	FirstName  string `validate:"required,max=100"`
	LastName   string `validate:"max=100"`
	CustomerID string `validate:"omitempty,max=200"`
}

type SendMessageCommand struct {
	SessionID string `validate:"required"`
	Message   string
}
