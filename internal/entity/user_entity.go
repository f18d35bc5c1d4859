package entity

type User struct {
	Id          string
	Email       string
	DisplayName string
}
