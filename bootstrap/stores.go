package bootstrap

import (
	"context"

	"github.com/artpar/minapi/adapters/memory"
	"github.com/artpar/minapi/app"
	"github.com/artpar/minapi/config"
	"github.com/artpar/minapi/domain/entity"
	"github.com/artpar/minapi/ports"
)

// Stores holds one in-memory store per hosted resource.
type Stores struct {
	People   *memory.Store[entity.Person]
	Products *memory.Store[entity.Product]
	Housing  *memory.Store[entity.HousingLocation]
	Accounts *memory.Store[entity.Account]
}

// NewStores creates empty stores. Both arguments may be nil.
func NewStores(clk ports.Clock, obs ports.StoreObserver) Stores {
	var opts []memory.Option
	if clk != nil {
		opts = append(opts, memory.WithClock(clk))
	}
	if obs != nil {
		opts = append(opts, memory.WithObserver(obs))
	}
	return Stores{
		People:   memory.NewStore[entity.Person]("person", opts...),
		Products: memory.NewStore[entity.Product]("product", opts...),
		Housing:  memory.NewStore[entity.HousingLocation]("housing", opts...),
		Accounts: memory.NewStore[entity.Account]("account", opts...),
	}
}

// Seed adds the configured records in order; ids start at 1 per store.
func (s Stores) Seed(ctx context.Context, seed config.SeedConfig) {
	for _, v := range seed.People {
		s.People.Add(ctx, v)
	}
	for _, v := range seed.Products {
		s.Products.Add(ctx, v)
	}
	for _, v := range seed.Housing {
		s.Housing.Add(ctx, v)
	}
	for _, v := range seed.Accounts {
		s.Accounts.Add(ctx, v)
	}
}

// Handlers builds the endpoint handlers over the stores.
func (s Stores) Handlers() app.Handlers {
	return app.Handlers{
		People:   app.NewResourceHandlers[entity.Person]("person", s.People),
		Products: app.NewResourceHandlers[entity.Product]("product", s.Products),
		Housing:  app.NewHousingHandlers(s.Housing),
		Accounts: app.NewResourceHandlers[entity.Account]("account", s.Accounts),
	}
}
