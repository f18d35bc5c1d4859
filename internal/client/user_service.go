package client

import (
	"context"
	"net/http"
	"time"

	"notia-client/internal/dto"
	"notia-client/internal/entity"
	"notia-client/internal/mapper"

	"github.com/patrickmn/go-cache"
)

type IUserService interface {
	GetByIds(ctx context.Context, userIds []string) ([]*entity.User, error)
}

// userService resolves member ids to email/display name. Results are
// cached; membership rows are immutable on the server so a long TTL is fine.
type userService struct {
	client *Client
	mapper *mapper.UserMapper
	cache  *cache.Cache
}

func NewUserService(c *Client) IUserService {
	return &userService{
		client: c,
		mapper: mapper.NewUserMapper(),
		cache:  cache.New(1*time.Hour, 10*time.Minute),
	}
}

func (s *userService) GetByIds(ctx context.Context, userIds []string) ([]*entity.User, error) {
	resolved := make([]*entity.User, 0, len(userIds))
	var missing []string
	for _, id := range userIds {
		if x, found := s.cache.Get(id); found {
			resolved = append(resolved, x.(*entity.User))
		} else {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return resolved, nil
	}

	req := dto.UserDetailsRequest{UserIds: missing}
	var wires []dto.UserWire
	if err := s.client.do(ctx, http.MethodPost, "/users/details", &req, &wires); err != nil {
		return nil, err
	}

	for i := range wires {
		user := s.mapper.ToEntity(&wires[i])
		s.cache.Set(user.Id, user, cache.DefaultExpiration)
		resolved = append(resolved, user)
	}
	return resolved, nil
}
