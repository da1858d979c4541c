package service

// Problem es un error con status HTTP y mensaje `detail` para el cliente.
type Problem struct {
	Status int
	Detail string
}

func (p *Problem) Error() string {
	return p.Detail
}

// NewProblem crea un Problem listo para serializar como {"detail": ...}.
func NewProblem(status int, detail string) *Problem {
	return &Problem{Status: status, Detail: detail}
}
