package entity

type Customer struct {
	Base
	Email     string  `db:"email"`
	FirstName string  `db:"first_name"`
	LastName  string  `db:"last_name"`
	Phone     *string `db:"phone"`
}
