package mapper

import (
	"notia-client/internal/dto"
	"notia-client/internal/entity"
)

type UserMapper struct{}

func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

func (m *UserMapper) ToEntity(w *dto.UserWire) *entity.User {
	if w == nil {
		return nil
	}
	return &entity.User{
		Id:          w.Id,
		Email:       w.Email,
		DisplayName: w.DisplayName,
	}
}

func (m *UserMapper) ToEntities(wires []dto.UserWire) []*entity.User {
	users := make([]*entity.User, len(wires))
	for i := range wires {
		users[i] = m.ToEntity(&wires[i])
	}
	return users
}
